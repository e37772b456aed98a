package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/callsign/internal/api/middleware"
	"github.com/darmiel/callsign/internal/api/presenter"
	"github.com/darmiel/callsign/internal/core"
	"github.com/darmiel/callsign/internal/service"
)

const maxRequestBodySize = 64 << 10

// UserSigRequest is the body of a credential request.
type UserSigRequest struct {
	UserID string `json:"userID"`
}

// handleUserSig verifies the caller and issues a call credential for the
// requested identifier.
func (s *Server) handleUserSig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		presenter.Error(w, r, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// the caller is verified before the body is read
	token, _ := middleware.BearerToken(r)
	principal, err := s.credentials.Authenticate(ctx, token)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req UserSigRequest
	if err := decodeBody(r, &req); err != nil {
		logger.Warn().Err(err).Msg("failed to decode credential request")
		presenter.Error(w, r, "invalid request body", http.StatusBadRequest)
		return
	}

	issued, err := s.credentials.Issue(ctx, core.CredentialRequest{
		RequestedIdentifier: req.UserID,
		Caller:              principal,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	presenter.Success(w, r, issued)
}

// respondError logs err with its kind and writes the public message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := service.KindOf(err)
	status := StatusForKind(kind)

	event := log.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError || kind == service.KindMisconfigured {
		event = log.Ctx(r.Context()).Error()
	}
	event.Err(err).Str("kind", kind.String()).Int("status", status).Msg("credential request failed")

	if service.IsTemporary(err) {
		w.Header().Set("Retry-After", "1")
	}

	presenter.Error(w, r, service.PublicMessage(err), status)
}

// StatusForKind maps a failure kind to the HTTP status of the response.
func StatusForKind(kind service.Kind) int {
	switch kind {
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindInvalidArgument, service.KindMisconfigured:
		return http.StatusBadRequest
	case service.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, dest any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBodySize))
	if err := dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return err
	}
	if dec.More() {
		return errors.New("extra data in request body")
	}
	return nil
}
