package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/nefol/discovery/pkg/errors"
)

// ParseResponseError turns a non-2xx response into an AppError, preserving
// the code and message of an error envelope when the body carries one. The
// body is consumed and closed.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", service, resp.StatusCode, err)
	}

	var envelope struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	code, message := "", string(body)
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
		code, message = envelope.Error.Code, envelope.Error.Message
	}
	return mapStatus(resp.StatusCode, code, fmt.Sprintf("%s: %s", service, message))
}

func mapStatus(status int, code, message string) error {
	var appErr *apperrors.AppError
	switch {
	case status == http.StatusNotFound:
		appErr = &apperrors.AppError{Code: "NOT_FOUND", Message: message, Status: status, Err: apperrors.ErrNotFound}
	case status == http.StatusBadRequest:
		appErr = apperrors.InvalidInput(message)
	case status == http.StatusServiceUnavailable:
		appErr = apperrors.Unavailable(message, nil)
	case status >= 500:
		appErr = apperrors.Upstream(message, fmt.Errorf("status %d", status))
	default:
		appErr = &apperrors.AppError{Code: "HTTP_ERROR", Message: message, Status: status}
	}
	if code != "" {
		appErr.Code = code
	}
	appErr.Message = message
	return appErr
}

// IsClientError reports whether status is a 4xx.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
