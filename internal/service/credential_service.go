package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/callsign/internal/audit"
	"github.com/darmiel/callsign/internal/core"
	"github.com/darmiel/callsign/internal/correlation"
	"github.com/darmiel/callsign/internal/identifier"
	"github.com/darmiel/callsign/internal/issuers"
	"github.com/darmiel/callsign/internal/policy"
	"github.com/darmiel/callsign/internal/usersig"
)

const DefaultVerifyTimeout = 5 * time.Second

// Audit actions.
const (
	ActionAuthenticate = "usersig.authenticate"
	ActionIssue        = "usersig.issue"
)

// Options tune a CredentialService. The zero value is usable.
type Options struct {
	// Expire is the validity of issued credentials in seconds.
	// Defaults to usersig.DefaultExpire.
	Expire int64

	// StrictIdentifiers only accepts raw account identifiers from clients.
	StrictIdentifiers bool

	// VerifyTimeout bounds the session verification with the identity provider.
	VerifyTimeout time.Duration

	// Encoder is used to encode signed envelopes.
	Encoder usersig.Encoder

	// Admission holds optional rules every principal has to satisfy.
	Admission *policy.Admission

	// Now returns the current time, used for tests.
	Now func() time.Time
}

// CredentialService verifies callers and issues call credentials for them.
type CredentialService struct {
	issuers *issuers.Registry
	keys    core.KeySource
	auditor core.Auditor
	store   core.CredentialStore
	opts    Options
}

func NewCredentialService(
	issuers *issuers.Registry,
	keys core.KeySource,
	auditor core.Auditor,
	store core.CredentialStore,
	opts Options,
) *CredentialService {
	if auditor == nil {
		auditor = audit.NewNoopAuditor()
	}
	if opts.Expire <= 0 {
		opts.Expire = usersig.DefaultExpire
	}
	if opts.VerifyTimeout <= 0 {
		opts.VerifyTimeout = DefaultVerifyTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &CredentialService{
		issuers: issuers,
		keys:    keys,
		auditor: auditor,
		store:   store,
		opts:    opts,
	}
}

// Authenticate verifies the caller's bearer token with the matching issuer.
// Every failure, including an unknown issuer, is reported as unauthenticated
// and audited.
func (s *CredentialService) Authenticate(ctx context.Context, token string) (principal *core.Principal, err error) {
	logger := log.Ctx(ctx)

	defer func() {
		if err != nil {
			s.logAudit(ctx, ActionAuthenticate, core.AuditEntry{
				Kind:  KindOf(err).String(),
				Error: err.Error(),
			})
		}
	}()

	if token == "" {
		return nil, unauthenticated(errors.New("missing bearer token"))
	}

	issuer, err := s.issuers.IdentifyIssuer(token)
	if err != nil {
		return nil, unauthenticated(fmt.Errorf("issuer auto-discovery failed: %w", err))
	}
	logger.Debug().Str("issuer", issuer.Name()).Msg("using issuer")

	verifyCtx, cancel := context.WithTimeout(ctx, s.opts.VerifyTimeout)
	defer cancel()

	principal, err = issuer.Verify(verifyCtx, token)
	if err != nil {
		e := unauthenticated(fmt.Errorf("verification with issuer '%s' failed: %w", issuer.Name(), err))
		e.Temporary = errors.Is(err, context.DeadlineExceeded)
		return nil, e
	}
	if principal == nil || principal.ID == "" {
		return nil, unauthenticated(fmt.Errorf("issuer '%s' returned no principal", issuer.Name()))
	}

	logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("sub", principal.ID)
	})
	return principal, nil
}

// IssueForToken authenticates the bearer token and issues a credential for
// requestedIdentifier.
func (s *CredentialService) IssueForToken(ctx context.Context, token, requestedIdentifier string) (*core.IssuedCredential, error) {
	principal, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.Issue(ctx, core.CredentialRequest{
		RequestedIdentifier: requestedIdentifier,
		Caller:              principal,
	})
}

// Issue authorizes req and signs a credential for the resulting service
// identifier. A caller only ever receives a credential for its own account
// identifier or the service identifier derived from it.
func (s *CredentialService) Issue(ctx context.Context, req core.CredentialRequest) (result *core.IssuedCredential, err error) {
	logger := log.Ctx(ctx)

	auditEntry := core.AuditEntry{
		Principal:           req.Caller,
		RequestedIdentifier: req.RequestedIdentifier,
	}
	defer func() {
		if err != nil {
			auditEntry.Kind = KindOf(err).String()
			auditEntry.Error = err.Error()
		} else {
			auditEntry.Success = true
		}
		s.logAudit(ctx, ActionIssue, auditEntry)
	}()

	if req.Caller == nil || req.Caller.ID == "" {
		return nil, unauthenticated(errors.New("no verified caller"))
	}
	if req.RequestedIdentifier == "" {
		return nil, invalidArgument("missing userID parameter")
	}

	finalID, err := s.authorize(req.RequestedIdentifier, req.Caller.ID)
	if err != nil {
		return nil, err
	}
	if !identifier.IsValidServiceID(finalID) {
		return nil, invalidArgument("invalid userID format")
	}
	auditEntry.Identifier = finalID

	logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("identifier", finalID)
	})

	if s.opts.Admission != nil {
		rule, err := s.opts.Admission.Evaluate(req.Caller)
		if err != nil {
			if errors.Is(err, policy.ErrDenied) {
				return nil, forbidden(fmt.Errorf("admission rule '%s': %w", rule, err))
			}
			return nil, internal(fmt.Errorf("admission policy: %w", err))
		}
	}

	key, err := s.keys.SigningKey(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("signing configuration is incomplete, cannot issue credentials")
		return nil, misconfigured(err)
	}
	if key.AppID <= 0 || len(key.Secret) == 0 {
		logger.Error().
			Bool("has_app_id", key.AppID > 0).
			Bool("has_secret_key", len(key.Secret) > 0).
			Msg("signing configuration is incomplete, cannot issue credentials")
		return nil, misconfigured(core.ErrSigningKeyMissing)
	}

	issuedAt := s.opts.Now().UTC().Truncate(time.Second)
	credential, env, err := usersig.Generate(s.opts.Encoder, finalID, key.AppID, key.Secret, issuedAt, s.opts.Expire)
	if err != nil {
		return nil, internal(fmt.Errorf("generating credential: %w", err))
	}
	expiresAt := time.Unix(env.ExpiresAt(), 0)
	fingerprint := audit.CalculateFingerprint(audit.UserSigFingerprintType, credential)

	auditEntry.CredentialFingerprint = fingerprint
	auditEntry.ExpiresAt = expiresAt

	if s.store != nil {
		rec := core.CredentialRecord{
			CorrelationID: correlation.FromContext(ctx),
			PrincipalID:   req.Caller.ID,
			Issuer:        req.Caller.Issuer,
			Identifier:    finalID,
			AppID:         key.AppID,
			Fingerprint:   fingerprint,
			IssuedAt:      issuedAt,
			ExpiresAt:     expiresAt,
		}
		if err := s.store.Save(ctx, rec); err != nil {
			// the credential is valid regardless, so don't fail the request
			logger.Error().Err(err).Msg("failed to save credential record")
		}
	}

	logger.Info().
		Str("fingerprint", fingerprint).
		Time("expires_at", expiresAt).
		Msg("credential issued")

	return &core.IssuedCredential{
		Identifier:      finalID,
		AppID:           key.AppID,
		Credential:      credential,
		ExpireTime:      env.ExpiresAt(),
		IssuedAt:        issuedAt,
		CallerAccountID: req.Caller.ID,
		Fingerprint:     fingerprint,
	}, nil
}

// authorize returns the service identifier to sign for, or a forbidden error
// if requested does not belong to callerID.
func (s *CredentialService) authorize(requested, callerID string) (string, error) {
	if identifier.LooksConverted(requested) && !s.opts.StrictIdentifiers {
		expected := identifier.ToServiceID(callerID)
		if requested != expected {
			return "", forbidden(errors.New("converted identifier does not belong to caller"))
		}
		return requested, nil
	}

	if requested != callerID {
		return "", forbidden(errors.New("account identifier does not belong to caller"))
	}
	return identifier.ToServiceID(requested), nil
}

func (s *CredentialService) logAudit(ctx context.Context, action string, entry core.AuditEntry) {
	entry.ID = correlation.FromContext(ctx)
	entry.Time = s.opts.Now()
	entry.Action = action
	if err := s.auditor.Log(entry); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("action", action).Msg("failed to write audit log entry")
	}
}
