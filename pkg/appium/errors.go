package appium

import (
	"errors"
	"fmt"
)

// W3C error codes the page helper reacts to.
const (
	CodeNoSuchElement     = "no such element"
	CodeNotInteractable   = "element not interactable"
	CodeClickIntercepted  = "element click intercepted"
	CodeStaleElement      = "stale element reference"
	CodeTimeout           = "timeout"
	CodeInvalidSession    = "invalid session id"
	CodeSessionNotCreated = "session not created"
	CodeInvalidSelector   = "invalid selector"
	CodeUnknown           = "unknown error"
)

// WebDriverError is an error body returned by the server.
type WebDriverError struct {
	Code       string // W3C "error" field
	Message    string
	HTTPStatus int
}

func (e *WebDriverError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func parseWebDriverError(result map[string]interface{}, status int) *WebDriverError {
	errValue, ok := result["value"].(map[string]interface{})
	if !ok {
		return nil
	}
	code, ok := errValue["error"].(string)
	if !ok || code == "" {
		return nil
	}
	msg, _ := errValue["message"].(string)
	return &WebDriverError{Code: code, Message: msg, HTTPStatus: status}
}

func hasCode(err error, codes ...string) bool {
	var wdErr *WebDriverError
	if !errors.As(err, &wdErr) {
		return false
	}
	for _, c := range codes {
		if wdErr.Code == c {
			return true
		}
	}
	return false
}

// IsNoSuchElement reports whether err means the selector matched nothing.
func IsNoSuchElement(err error) bool {
	return hasCode(err, CodeNoSuchElement)
}

// IsNotInteractable reports whether err means the element exists but cannot receive the action.
func IsNotInteractable(err error) bool {
	return hasCode(err, CodeNotInteractable, CodeClickIntercepted)
}

// IsStale reports whether the element reference went stale.
func IsStale(err error) bool {
	return hasCode(err, CodeStaleElement)
}

// IsTimeout reports whether the server timed out.
func IsTimeout(err error) bool {
	return hasCode(err, CodeTimeout)
}
