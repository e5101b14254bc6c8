// Package display holds dply's process-wide display configuration and
// renders dataframes as terminal tables or glimpse summaries.
package display

// Config is the single process-wide display configuration record. config()
// mutates it in place; table and glimpse rendering consult it.
type Config struct {
	MaxColumns     int
	MaxColumnWidth int
	MaxTableWidth  int
}

// Default returns dply's documented default display configuration.
func Default() *Config {
	return &Config{
		MaxColumns:     20,
		MaxColumnWidth: 32,
		MaxTableWidth:  200,
	}
}

// ApplyNamed mutates cfg from config()'s named integer options.
func (c *Config) ApplyNamed(opts map[string]int) {
	if v, ok := opts["max_columns"]; ok {
		c.MaxColumns = v
	}
	if v, ok := opts["max_column_width"]; ok {
		c.MaxColumnWidth = v
	}
	if v, ok := opts["max_table_width"]; ok {
		c.MaxTableWidth = v
	}
}
