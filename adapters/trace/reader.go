// Package trace loads posterior sampling traces exported by the inference step.
//
// A trace file is a JSON object keyed by variable name. Day-indexed variables
// are arrays of per-sample rows ([sample][day]); scalar variables are flat
// arrays with one value per sample. Keys starting with "_" carry metadata and
// are skipped.
//
//	{"new_cases": [[12, 15, ...], ...], "mu": [0.12, 0.13, ...], "_meta": {...}}
package trace

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"epifig/domain/core"
	"epifig/domain/posterior"
	"epifig/internal"
	apperrors "epifig/internal/errors"
)

// Reader reads trace files from disk
type Reader struct {
	logger *internal.Logger
}

// NewReader creates a trace reader; a nil logger falls back to the default.
func NewReader(logger *internal.Logger) *Reader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Reader{logger: logger.With("TraceReader")}
}

// Read loads and parses one trace file.
func (r *Reader) Read(path string) (*posterior.Trace, error) {
	start := time.Now()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.DataSourceError(path, err)
	}

	tr, err := Parse(data)
	if err != nil {
		return nil, apperrors.Wrapf(err, "trace %s", path)
	}

	r.logger.Info("loaded %s: %d variables, %.2fms", path, len(tr.Names()),
		float64(time.Since(start).Nanoseconds())/1e6)
	return tr, nil
}

// Parse decodes a trace document.
func Parse(data []byte) (*posterior.Trace, error) {
	if !gjson.ValidBytes(data) {
		return nil, apperrors.TraceFormat("trace is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, apperrors.TraceFormat("trace must be a JSON object keyed by variable name")
	}

	tr := posterior.NewTrace()
	tr.Hash = core.NewTraceHash(data)

	var parseErr error
	root.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if strings.HasPrefix(name, "_") {
			return true
		}
		if !value.IsArray() {
			parseErr = apperrors.TraceFormat(fmt.Sprintf("variable %q is not an array", name))
			return false
		}

		items := value.Array()
		if len(items) == 0 {
			parseErr = apperrors.WithCode(apperrors.CodeTraceFormat,
				core.NewEmptyInputError("no samples"), fmt.Sprintf("variable %q", name))
			return false
		}

		if items[0].IsArray() {
			m, err := parseMatrix(name, items)
			if err != nil {
				parseErr = err
				return false
			}
			tr.Series[name] = m
			return true
		}

		values, err := parseNumbers(name, items)
		if err != nil {
			parseErr = err
			return false
		}
		tr.Scalars[name] = values
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return tr, nil
}

func parseMatrix(name string, rows []gjson.Result) (*posterior.SampleMatrix, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		if !row.IsArray() {
			return nil, apperrors.TraceFormat(fmt.Sprintf("variable %q: sample %d is not an array", name, i))
		}
		values, err := parseNumbers(name, row.Array())
		if err != nil {
			return nil, err
		}
		out[i] = values
	}

	m, err := posterior.NewSampleMatrix(out)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeTraceFormat, err, fmt.Sprintf("variable %q", name))
	}
	return m, nil
}

func parseNumbers(name string, items []gjson.Result) ([]float64, error) {
	out := make([]float64, len(items))
	for i, item := range items {
		if item.Type != gjson.Number {
			return nil, apperrors.TraceFormat(fmt.Sprintf("variable %q: entry %d is %s, want a number", name, i, item.Type))
		}
		out[i] = item.Float()
	}
	return out, nil
}

// LoadScenarios reads several trace files concurrently, keyed by scenario name.
// The first failure cancels the remaining reads.
func (r *Reader) LoadScenarios(ctx context.Context, files map[string]string) (map[string]*posterior.Trace, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var mu sync.Mutex
	traces := make(map[string]*posterior.Trace, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, name := range names {
		name, path := name, files[name]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tr, err := r.Read(path)
			if err != nil {
				return apperrors.Wrapf(err, "scenario %s", name)
			}
			mu.Lock()
			traces[name] = tr
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return traces, nil
}
