package scrape

import "fmt"

// QueryError is a failed or malformed remote query.
type QueryError struct {
	EntryID string
	// Field is the source name, "spacegroup", "lattice", "record" or "entries".
	Field string
	Err   error
}

func (e *QueryError) Error() string {
	if e.EntryID == "" {
		return fmt.Sprintf("scrape: query %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("scrape: entry %s: query %s: %v", e.EntryID, e.Field, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
