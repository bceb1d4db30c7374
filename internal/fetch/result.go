package fetch

import "marketetl/internal/series"

// Outcome is the closed set of results a per-symbol fetch can produce.
// Callers branch on it instead of inspecting error strings.
type Outcome int

const (
	OK        Outcome = iota // Rows holds data
	Empty                    // provider has no data for the symbol; not an error
	Transient                // retries exhausted; Err holds the last failure
	Fatal                    // malformed response or other non-retryable failure
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case Empty:
		return "empty"
	case Transient:
		return "transient"
	case Fatal:
		return "fatal"
	}
	return "unknown"
}

// SeriesResult is the outcome of fetching one symbol's raw series.
type SeriesResult struct {
	Outcome Outcome
	Rows    []series.RawBar
	Err     error
}

// Classify turns a fetch error into a SeriesResult.
func Classify(rows []series.RawBar, err error) SeriesResult {
	switch {
	case err == nil && len(rows) == 0:
		return SeriesResult{Outcome: Empty}
	case err == nil:
		return SeriesResult{Outcome: OK, Rows: rows}
	case IsTransient(err):
		return SeriesResult{Outcome: Transient, Err: err}
	default:
		return SeriesResult{Outcome: Fatal, Err: err}
	}
}
