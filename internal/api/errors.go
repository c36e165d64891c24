package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/suspectuso/ton-mintgate/internal/auth"
	"github.com/suspectuso/ton-mintgate/internal/controls"
	"github.com/suspectuso/ton-mintgate/internal/issuer"
	"github.com/suspectuso/ton-mintgate/internal/journal"
	"github.com/suspectuso/ton-mintgate/internal/minter"
	"github.com/suspectuso/ton-mintgate/internal/storage"
)

var errBadPath = errors.New("bad path parameter")

// statusFor maps a failure to the HTTP status the caller sees
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, journal.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, auth.ErrNoToken), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidPayload), errors.Is(err, errBadPath), errors.Is(err, minter.ErrMinterRequired):
		return http.StatusBadRequest
	case errors.Is(err, issuer.ErrUnavailable):
		return http.StatusBadGateway
	}

	kind, ok := controls.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case controls.KindAuthorization:
		return http.StatusForbidden
	case controls.KindFunds:
		return http.StatusPaymentRequired
	case controls.KindConfiguration, controls.KindArithmetic:
		return http.StatusUnprocessableEntity
	default:
		// phase, cap, allowlist, routing, issuance: the attempt was denied
		return http.StatusConflict
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error(), Code: controls.CodeOf(err)}
	if kind, ok := controls.KindOf(err); ok {
		resp.Kind = string(kind)
	}

	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		resp = errorResponse{Error: "internal error"}
	} else {
		s.log.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, resp)
}
