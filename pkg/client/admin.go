package client

import (
	"context"

	"github.com/darmiel/callsign/internal/api"
	"github.com/darmiel/callsign/internal/core"
)

type ListAuditsOpts struct {
	Limit uint

	CorrelationID string
	PrincipalID   string
	Fingerprint   string
	Identifier    string
	OnlyFailed    bool
}

// ListAudits retrieves the latest audit entries from the server.
func (c *Client) ListAudits(ctx context.Context, opts ListAuditsOpts) ([]core.AuditEntry, string, error) {
	ub := c.url().setPath(api.ListAuditsRoute)
	if opts.Limit > 0 {
		ub = ub.addQueryParam("limit", opts.Limit)
	}
	if opts.CorrelationID != "" {
		ub = ub.addQueryParam("correlation_id", opts.CorrelationID)
	}
	if opts.PrincipalID != "" {
		ub = ub.addQueryParam("principal_id", opts.PrincipalID)
	}
	if opts.Fingerprint != "" {
		ub = ub.addQueryParam("fingerprint", opts.Fingerprint)
	}
	if opts.Identifier != "" {
		ub = ub.addQueryParam("identifier", opts.Identifier)
	}
	if opts.OnlyFailed {
		ub = ub.addQueryParam("failed", true)
	}
	var resp []core.AuditEntry
	correlation, err := c.get(ctx, ub.build(), &resp)
	return resp, correlation, err
}

// ListActiveCredentials retrieves records of credentials that have not expired.
func (c *Client) ListActiveCredentials(ctx context.Context, identifier string) ([]core.CredentialRecord, string, error) {
	ub := c.url().setPath(api.ListActiveCredentialsRoute)
	if identifier != "" {
		ub = ub.addQueryParam("identifier", identifier)
	}
	var resp []core.CredentialRecord
	correlation, err := c.get(ctx, ub.build(), &resp)
	return resp, correlation, err
}
