package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/curetcore/velox-storefront/pkg/errors"
)

// storefrontError mirrors the error body returned by the storefront
// API on non-2xx responses, e.g. {"status": 422, "message": "Cart
// Error", "description": "Cannot change line ..."}.
type storefrontError struct {
	Status      int    `json:"status"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

// ParseResponseError reads the body of a non-2xx response from the
// storefront API and translates it into an AppError. The body is fully
// consumed and closed.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", service, resp.StatusCode, err)
	}

	var sfErr storefrontError
	if json.Unmarshal(body, &sfErr) == nil && sfErr.Message != "" {
		msg := sfErr.Message
		if sfErr.Description != "" {
			msg = msg + ": " + sfErr.Description
		}
		return mapStorefrontError(resp.StatusCode, msg, service)
	}

	return mapStorefrontError(resp.StatusCode, string(body), service)
}

func mapStorefrontError(status int, message, service string) error {
	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(service, message)
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(fmt.Sprintf("%s: %s", service, message))
	case status == http.StatusTooManyRequests, status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(fmt.Sprintf("%s: %s", service, message))
	default:
		return apperrors.Upstream(service, fmt.Sprintf("status %d: %s", status, message))
	}
}
