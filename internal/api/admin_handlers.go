package api

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/callsign/internal/api/presenter"
	"github.com/darmiel/callsign/internal/core"
)

const defaultAuditLimit = 50

// handleAdminAudit processes requests to retrieve audit log entries.
func (s *Server) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	// filters
	q := r.URL.Query()
	limitStr := q.Get("limit")

	filterCorrelationID := q.Get("correlation_id")
	filterPrincipalID := q.Get("principal_id")
	filterFingerprint := q.Get("fingerprint")
	filterIdentifier := q.Get("identifier")
	onlyFailed := q.Get("failed") == "true"

	limit := defaultAuditLimit
	if limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v <= 0 {
			logger.Warn().Err(err).Str("limit", limitStr).Msg("invalid limit parameter")
			presenter.Error(w, r, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = v
	}

	var entries []core.AuditEntry
	var err error

	if filterCorrelationID != "" || filterFingerprint != "" || filterPrincipalID != "" || filterIdentifier != "" || onlyFailed {
		logger.Debug().Msg("applying audit log filters")
		entries, err = s.auditor.Find(func(entry core.AuditEntry) bool {
			if filterCorrelationID != "" && entry.ID != filterCorrelationID {
				return false
			}
			if filterFingerprint != "" && entry.CredentialFingerprint != filterFingerprint {
				return false
			}
			if filterPrincipalID != "" && (entry.Principal == nil || entry.Principal.ID != filterPrincipalID) {
				return false
			}
			if filterIdentifier != "" && entry.Identifier != filterIdentifier {
				return false
			}
			if onlyFailed && entry.Success {
				return false
			}
			return true
		}, limit)
	} else {
		entries, err = s.auditor.GetRecent(limit)
	}

	if err != nil {
		logger.Error().Err(err).Msg("failed to retrieve audit logs")
		presenter.Error(w, r, "failed to retrieve audit logs", http.StatusInternalServerError)
		return
	}

	presenter.JSON(w, r, entries, http.StatusOK)
}

// handleAdminCredentials lists records of credentials that have not expired yet.
func (s *Server) handleAdminCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.store == nil {
		presenter.JSON(w, r, []core.CredentialRecord{}, http.StatusOK)
		return
	}

	records, err := s.store.ListActive(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to retrieve active credentials")
		presenter.Error(w, r, "failed to retrieve active credentials", http.StatusInternalServerError)
		return
	}

	if identifier := r.URL.Query().Get("identifier"); identifier != "" {
		filtered := make([]core.CredentialRecord, 0, len(records))
		for _, rec := range records {
			if rec.Identifier == identifier {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	presenter.JSON(w, r, records, http.StatusOK)
}
