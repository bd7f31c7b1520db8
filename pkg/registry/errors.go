package registry

import "fmt"

// NoRepositoryError reports that the oracle's reply contained no usable URL.
// OracleText carries the raw reply for diagnostics.
type NoRepositoryError struct {
	Library    string
	OracleText string
}

func (e *NoRepositoryError) Error() string {
	return fmt.Sprintf("registry: no repository URL found for %q in oracle response: %q",
		e.Library, truncate(e.OracleText, 200))
}

// InvalidRepoURLError reports a repository URL whose path does not consist of
// exactly an owner and a repository segment.
type InvalidRepoURLError struct {
	URL string
}

func (e *InvalidRepoURLError) Error() string {
	return fmt.Sprintf("registry: invalid repository URL %q (want host/owner/repo)", e.URL)
}

// LookupError reports a non-success response from the hosting API.
type LookupError struct {
	Status int
	Body   string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("registry: API error: status %d: %s", e.Status, truncate(e.Body, 200))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
