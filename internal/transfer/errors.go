package transfer

import (
	"errors"
	"fmt"

	"github.com/damacus/iron-sync/internal/models"
	"github.com/damacus/iron-sync/internal/services"
)

// ErrDirectoryNotFound is returned (wrapped in a SetupError) when an upload root is missing or not a directory
var ErrDirectoryNotFound = errors.New("directory not found")

// Failure kinds recorded in models.Failure.Kind
const (
	KindTransport  = string(services.FaultTransport)
	KindRequest    = string(services.FaultRequest)
	KindLocal      = "local"
	KindInvalidKey = "invalid_key"
)

// SetupError aborts a phase before any object is processed
type SetupError struct {
	Phase models.Phase
	Path  string
	Err   error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s setup failed for %s: %v", e.Phase, e.Path, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// IsSetupError reports whether err aborted a phase during setup
func IsSetupError(err error) bool {
	var se *SetupError
	return errors.As(err, &se)
}

// faultKind maps a gateway error to a failure kind. Errors the gateway did not
// classify never reached the service.
func faultKind(err error) string {
	if kind := services.KindOf(err); kind != "" {
		return string(kind)
	}
	return KindTransport
}
