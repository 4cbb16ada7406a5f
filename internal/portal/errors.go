package portal

import (
	"errors"
	"fmt"
	"strings"
)

// Fault is an XML-RPC protocol fault returned by the portal server,
// distinct from an envelope with a non-success code.
type Fault struct {
	Code   int
	String string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("portal fault %d: %s", f.Code, f.String)
}

// Error is a portal call that completed but returned a non-success code.
type Error struct {
	Method string
	Code   int
	Output string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("portal %s returned code %d", e.Method, e.Code)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

// NewError builds an Error from a failed response.
func NewError(method string, resp *Response) *Error {
	return &Error{Method: method, Code: resp.Code, Output: resp.Output}
}

// IsAlreadyExists checks if an error indicates the experiment name is
// already taken in the project.
func IsAlreadyExists(err error) bool {
	return isPortalErrorCode(err, CodeAlreadyExists)
}

// IsSearchFailed checks if an error indicates the experiment does not
// exist, typically a status or terminate call after termination.
func IsSearchFailed(err error) bool {
	return isPortalErrorCode(err, CodeSearchFailed)
}

// IsRefused checks if an error indicates the portal refused the request,
// usually a resource-availability condition worth retrying later.
func IsRefused(err error) bool {
	return isPortalErrorCode(err, CodeRefused, CodeTimedOut)
}

// isPortalErrorCode checks if the error is a portal envelope error with
// one of the given codes.
func isPortalErrorCode(err error, codes ...int) bool {
	if err == nil {
		return false
	}

	var portalErr *Error
	if errors.As(err, &portalErr) {
		for _, code := range codes {
			if portalErr.Code == code {
				return true
			}
		}
	}
	return false
}
