package errx

import (
	"fmt"
	"net/http"
)

// UpstreamError is the cause recorded when a third-party API answers with a non-2xx status.
type UpstreamError struct {
	Service string
	Status  int
	Body    string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s responded with status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s responded with status %d: %s", e.Service, e.Status, e.Body)
}

// WrapUpstream wraps a failed call to service as a 502 AppError.
func WrapUpstream(service string, err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, fmt.Sprintf("%s: %s", UpstreamErrorMessage, service))
}
