package dataset

import "fmt"

// SourceError indicates the source table could not be read or lacks a required column.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("source %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("source: %v", e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// CountryNotFoundError indicates the requested country has no rows in the source.
type CountryNotFoundError struct {
	Country string
}

func (e *CountryNotFoundError) Error() string {
	return fmt.Sprintf("no data found for country: %s", e.Country)
}

// InsufficientDataError indicates that too few rows survived cleaning to split.
type InsufficientDataError struct {
	Country string
	Rows    int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("not enough usable rows for %s: have %d, need at least 2", e.Country, e.Rows)
}
