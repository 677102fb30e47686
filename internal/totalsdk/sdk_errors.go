package totalsdk

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/imroc/req/v3"
)

var (
	ErrNoServerURL      = errors.New("sdk: server url missing")
	ErrNoRefreshToken   = errors.New("sdk: refresh token missing")
	ErrSessionExpired   = errors.New("sdk: session expired, please log in again")
	ErrInvalidOwnerType = errors.New("sdk: invalid owner type")
	ErrInvalidOwnerID   = errors.New("sdk: invalid owner id")
	ErrNoFiles          = errors.New("sdk: no files given")
	ErrNoTempIDs        = errors.New("sdk: no temp ids given")
	ErrNoFileIDs        = errors.New("sdk: no file ids given")
	ErrInvalidTenant    = errors.New("sdk: invalid tenant")
	ErrInvalidPreset    = errors.New("sdk: invalid email preset")
)

// APIError is the decoded body of a non-2xx response
type APIError struct {
	StatusCode int    `json:"status"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
	ErrorText  string `json:"error,omitempty"`
}

// UserMessage is the human readable text the server sent, if any
func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return e.ErrorText
}

func (e *APIError) Error() string {
	msg := e.UserMessage()
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("api error: %d %s - %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("api error: %d - %s", e.StatusCode, msg)
}

func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// UserMessage returns the server-supplied message carried by err when there is
// one, else fallback. A nil err yields fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}

func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("sdk: %s: %w", operation, requestErr)
	}

	if resp.IsErrorState() {
		return fmt.Errorf("sdk: %s: %w", operation, decodeAPIError(resp))
	}

	return nil
}

func decodeAPIError(resp *req.Response) *APIError {
	apiErr, ok := resp.ErrorResult().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{}
		if body := resp.Bytes(); len(body) > 0 {
			_ = jsonUnmarshal(body, apiErr)
		}
	}
	apiErr.StatusCode = resp.GetStatusCode()
	return apiErr
}

// decodeAPIErrorFile reads an error body that req wrote into an output file
func decodeAPIErrorFile(resp *req.Response, path string) *APIError {
	if apiErr, ok := resp.ErrorResult().(*APIError); ok && apiErr != nil && apiErr.UserMessage() != "" {
		apiErr.StatusCode = resp.GetStatusCode()
		return apiErr
	}

	apiErr := &APIError{}
	if body, err := os.ReadFile(path); err == nil && len(body) > 0 {
		_ = jsonUnmarshal(body, apiErr)
	}
	apiErr.StatusCode = resp.GetStatusCode()
	return apiErr
}
