package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	ReportID    ID
	ScenarioKey ID
)

func (id ReportID) String() string    { return ID(id).String() }
func (id ScenarioKey) String() string { return ID(id).String() }

// NewReportID returns a fresh time-ordered report identifier.
func NewReportID() ReportID { return ReportID(NewID()) }

// ParseScenarioKey parses a scenario name as used in config and URLs
func ParseScenarioKey(s string) (ScenarioKey, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: scenario key cannot be empty", ErrInvalidInput)
	}
	if strings.TrimSpace(s) != s {
		return "", fmt.Errorf("%w: scenario key %q has surrounding whitespace", ErrInvalidInput, s)
	}
	return ScenarioKey(s), nil
}
