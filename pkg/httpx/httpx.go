// Package httpx holds the JSON envelope conventions of the marketplace
// service: request IDs, request decoding, and error responses mapped from
// the domain error taxonomy.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/apartchain/smartcontracts/pkg/domain"
)

// NewRequestID returns a fresh request identifier.
func NewRequestID() string { return "req_" + uuid.NewString() }

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ReadJSON decodes the request body into dst, rejecting unknown fields.
func ReadJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// WriteError writes an error envelope with an explicit status and code.
func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	WriteJSON(w, status, map[string]any{
		"request_id": NewRequestID(),
		"error": map[string]any{
			"code": code, "message": message, "details": details,
		},
	})
}

// StatusForCode maps a domain error code to an HTTP status.
func StatusForCode(code domain.Code) int {
	switch code {
	case domain.CodeUnauthorized, domain.CodeNotEligible:
		return http.StatusForbidden
	case domain.CodeStateMismatch:
		return http.StatusConflict
	case domain.CodeInsufficientFunds:
		return http.StatusPaymentRequired
	case domain.CodeOverflow:
		return http.StatusUnprocessableEntity
	case domain.CodeInvalidConfig:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteDomainError writes an error envelope for a domain error, deriving the
// HTTP status from its code.
func WriteDomainError(w http.ResponseWriter, err error) {
	code := domain.GetCode(err)
	WriteError(w, StatusForCode(code), string(code), err.Error(), nil)
}
