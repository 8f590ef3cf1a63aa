package catalog

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Shivanand-hulikatti/eventhorizon/internal/remote"
)

// Failure classes. The store recovers from all of them; they show up in logs
// and decide which notification the user sees.
var (
	ErrAuthRequired       = errors.New("authentication required")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrRequestFailed      = errors.New("request failed")
	ErrNetwork            = errors.New("network failure")
)

// classify maps the outcome of a remote call onto the failure classes.
// It returns nil for a 2xx response.
func classify(resp *remote.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	if resp == nil {
		return fmt.Errorf("%w: no response", ErrNetwork)
	}
	switch {
	case resp.OK():
		return nil
	case resp.Status == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.Status)
	case resp.Body.Error != "":
		return fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.Status, resp.Body.Error)
	default:
		return fmt.Errorf("%w: status %d", ErrRequestFailed, resp.Status)
	}
}
