package excel

// ObservationConfig names the spreadsheet columns holding observed counts
type ObservationConfig struct {
	Sheet         string `json:"sheet" mapstructure:"sheet"`
	DateColumn    string `json:"date_column" mapstructure:"date_column"`
	CountryColumn string `json:"country_column" mapstructure:"country_column"` // Optional; ignored when absent from the file
	CasesColumn   string `json:"cases_column" mapstructure:"cases_column"`     // Cumulative confirmed cases
}

// DefaultObservationConfig returns the long-format layout: date, country, confirmed
func DefaultObservationConfig() ObservationConfig {
	return ObservationConfig{
		Sheet:         "Sheet1",
		DateColumn:    "date",
		CountryColumn: "country",
		CasesColumn:   "confirmed",
	}
}

func (c ObservationConfig) withDefaults() ObservationConfig {
	d := DefaultObservationConfig()
	if c.Sheet == "" {
		c.Sheet = d.Sheet
	}
	if c.DateColumn == "" {
		c.DateColumn = d.DateColumn
	}
	if c.CountryColumn == "" {
		c.CountryColumn = d.CountryColumn
	}
	if c.CasesColumn == "" {
		c.CasesColumn = d.CasesColumn
	}
	return c
}
