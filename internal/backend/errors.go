package backend

import "fmt"

// ErrorKind classifies backend failures so callers can branch without string
// matching.
type ErrorKind string

const (
	// KindNetwork covers transport failures and timeouts: the request never
	// produced a usable HTTP response.
	KindNetwork ErrorKind = "network"
	// KindStatus means the backend answered with a non-2xx status.
	KindStatus ErrorKind = "status"
	// KindDecode means the response body could not be parsed.
	KindDecode ErrorKind = "decode"
)

// Error is the typed failure returned by every Client method.
type Error struct {
	Kind     ErrorKind
	Endpoint string
	Status   int // set for KindStatus
	Err      error
}

func (e *Error) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("backend %s: status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("backend %s: %s: %v", e.Endpoint, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNetwork reports whether err is a backend transport failure. The UI treats
// these as degraded-but-alive: log a line, keep running.
func IsNetwork(err error) bool {
	be, ok := err.(*Error)
	return ok && be.Kind == KindNetwork
}
