package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darmiel/callsign/internal/api/middleware"
	"github.com/darmiel/callsign/internal/api/presenter"
	"github.com/darmiel/callsign/internal/audit"
	"github.com/darmiel/callsign/internal/config"
	"github.com/darmiel/callsign/internal/core"
	"github.com/darmiel/callsign/internal/issuers"
	"github.com/darmiel/callsign/internal/service"
	"github.com/darmiel/callsign/internal/store"
	"github.com/darmiel/callsign/internal/tasks"
	"github.com/darmiel/callsign/internal/usersig"
)

const (
	testAccountID = "11112222-3333-4444-5555-666677778888"
	testToken     = "session-token"
	testAppID     = int64(20026685)
	testSecret    = "test-secret"
	testAdminKey  = "admin-key"
)

var testNow = time.Unix(1700000000, 0)

type testEnv struct {
	handler http.Handler
	auditor *audit.InMemoryAuditor
	store   *store.InMemoryCredentialStore
}

func newTestEnv(t *testing.T, signing config.SigningConfig) *testEnv {
	t.Helper()

	registry, err := issuers.BuildRegistry(context.Background(), []config.IssuerConfig{{
		Name: "static",
		Type: "static",
		Config: map[string]any{
			"token_map": map[string]any{
				testToken:     map[string]any{"id": testAccountID},
				"other-token": map[string]any{"id": "99998888-7777-6666-5555-444433332222"},
			},
		},
	}}, "")
	require.NoError(t, err)

	auditor := audit.NewInMemoryAuditor()
	credStore := store.NewInMemoryCredentialStore().WithClock(func() time.Time { return testNow })
	svc := service.NewCredentialService(registry, signing, auditor, credStore, service.Options{
		Encoder: signing.Encoder(),
		Now:     func() time.Time { return testNow },
	})

	taskManager := tasks.NewManager()
	require.NoError(t, taskManager.Register(tasks.PruneCredentialsTask, 0, tasks.PruneCredentials(credStore)))

	srv := NewServer(svc, taskManager, auditor, credStore, config.CORSConfig{})
	return &testEnv{
		handler: srv.Routes([]byte(testAdminKey)),
		auditor: auditor,
		store:   credStore,
	}
}

func validSigning() config.SigningConfig {
	return config.SigningConfig{AppID: testAppID, SecretKey: testSecret}
}

func (e *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

type successBody struct {
	Success bool                  `json:"success"`
	Data    core.IssuedCredential `json:"data"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) presenter.ErrorResponse {
	t.Helper()
	var resp presenter.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Timestamp)
	_, err := time.Parse(time.RFC3339, resp.Timestamp)
	assert.NoError(t, err)
	assert.Equal(t, rec.Header().Get("X-Correlation-ID"), resp.CorrelationID)
	return resp
}

func TestUserSig_Success(t *testing.T) {
	env := newTestEnv(t, validSigning())

	for name, requested := range map[string]string{
		"Account Identifier":   testAccountID,
		"Converted Identifier": "11112222",
	} {
		t.Run(name, func(t *testing.T) {
			rec := env.do(http.MethodPost, UserSigRoute, testToken, `{"userID":"`+requested+`"}`)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

			var body successBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.True(t, body.Success)

			want := core.IssuedCredential{
				Identifier:      "11112222",
				AppID:           testAppID,
				Credential:      body.Data.Credential,
				ExpireTime:      testNow.Unix() + usersig.DefaultExpire,
				IssuedAt:        testNow.UTC(),
				CallerAccountID: testAccountID,
			}
			if diff := cmp.Diff(want, body.Data); diff != "" {
				t.Errorf("unexpected credential (-want +got):\n%s", diff)
			}

			parsed, err := usersig.Verify(body.Data.Credential, []byte(testSecret), testNow)
			require.NoError(t, err)
			assert.Equal(t, "11112222", parsed.Identifier)
			assert.Equal(t, testAppID, parsed.SDKAppID)
		})
	}
}

func TestUserSig_Alias(t *testing.T) {
	env := newTestEnv(t, validSigning())
	rec := env.do(http.MethodPost, UserSigAliasRoute, testToken, `{"userID":"`+testAccountID+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserSig_Failures(t *testing.T) {
	tests := map[string]struct {
		method  string
		token   string
		body    string
		signing *config.SigningConfig
		status  int
		message string
	}{
		"Wrong Method": {
			method: http.MethodGet, token: testToken,
			status: http.StatusMethodNotAllowed, message: "method not allowed",
		},
		"Missing Token": {
			body:   `{"userID":"` + testAccountID + `"}`,
			status: http.StatusUnauthorized, message: "user not authenticated",
		},
		"Invalid Token": {
			token: "nope", body: `{"userID":"` + testAccountID + `"}`,
			status: http.StatusUnauthorized, message: "user not authenticated",
		},
		"Missing UserID": {
			token: testToken, body: `{}`,
			status: http.StatusBadRequest, message: "missing userID parameter",
		},
		"Empty Body": {
			token:  testToken,
			status: http.StatusBadRequest, message: "invalid request body",
		},
		"Malformed Body": {
			token: testToken, body: `{"userID":`,
			status: http.StatusBadRequest, message: "invalid request body",
		},
		"Other Account": {
			token: testToken, body: `{"userID":"99998888-7777-6666-5555-444433332222"}`,
			status: http.StatusForbidden, message: "identifier mismatch",
		},
		"Other Converted Identifier": {
			token: testToken, body: `{"userID":"99998888"}`,
			status: http.StatusForbidden, message: "identifier mismatch",
		},
		"Trailing Whitespace": {
			token: testToken, body: `{"userID":"11112222-3333-4444-5555-666677778888 "}`,
			status: http.StatusForbidden, message: "identifier mismatch",
		},
		"Missing Configuration": {
			token: testToken, body: `{"userID":"` + testAccountID + `"}`,
			signing: &config.SigningConfig{AppID: testAppID, SecretKeyEnv: "TEST_CALLSIGN_UNSET_SECRET"},
			status:  http.StatusBadRequest, message: "missing call service configuration",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			signing := validSigning()
			if tt.signing != nil {
				signing = *tt.signing
			}
			env := newTestEnv(t, signing)

			method := tt.method
			if method == "" {
				method = http.MethodPost
			}
			rec := env.do(method, UserSigRoute, tt.token, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			resp := decodeError(t, rec)
			assert.Equal(t, tt.message, resp.Error)
			assert.NotContains(t, rec.Body.String(), testSecret)
		})
	}
}

func TestUserSig_Preflight(t *testing.T) {
	env := newTestEnv(t, validSigning())
	for _, path := range []string{UserSigRoute, UserSigAliasRoute} {
		rec := env.do(http.MethodOptions, path, "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "authorization")
	}
	entries, err := env.auditor.GetRecent(0)
	require.NoError(t, err)
	assert.Empty(t, entries, "preflight must not reach authentication")
}

func TestUserSig_Audited(t *testing.T) {
	env := newTestEnv(t, validSigning())
	env.do(http.MethodPost, UserSigRoute, "nope", `{"userID":"x"}`)
	env.do(http.MethodPost, UserSigRoute, testToken, `{"userID":"99998888"}`)
	ok := env.do(http.MethodPost, UserSigRoute, testToken, `{"userID":"11112222"}`)
	require.Equal(t, http.StatusOK, ok.Code)

	entries, err := env.auditor.GetRecent(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, service.ActionAuthenticate, entries[0].Action)
	assert.Equal(t, "unauthenticated", entries[0].Kind)

	assert.Equal(t, service.ActionIssue, entries[1].Action)
	assert.Equal(t, "forbidden", entries[1].Kind)
	assert.False(t, entries[1].Success)

	assert.True(t, entries[2].Success)
	assert.Equal(t, "11112222", entries[2].Identifier)
	assert.Equal(t, ok.Header().Get("X-Correlation-ID"), entries[2].ID)
	assert.NotEmpty(t, entries[2].CredentialFingerprint)
}

func TestCorrelationID(t *testing.T) {
	env := newTestEnv(t, validSigning())

	req := httptest.NewRequest(http.MethodGet, HealthCheckRoute, nil)
	req.Header.Set("X-Correlation-ID", "my-request")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, "my-request", rec.Header().Get("X-Correlation-ID"))

	rec = env.do(http.MethodGet, HealthCheckRoute, "", "")
	assert.Len(t, rec.Header().Get("X-Correlation-ID"), 20, "xid")
}

func TestAbout(t *testing.T) {
	env := newTestEnv(t, validSigning())
	rec := env.do(http.MethodGet, AboutRoute, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"service":"callsign"`)
}

func adminToken(t *testing.T, key string, roles ...string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.AdminClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "operator",
			Audience:  jwt.ClaimStrings{middleware.AdminAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(key))
	require.NoError(t, err)
	return tok
}

func TestAdmin(t *testing.T) {
	env := newTestEnv(t, validSigning())
	require.Equal(t, http.StatusOK,
		env.do(http.MethodPost, UserSigRoute, testToken, `{"userID":"11112222"}`).Code)

	t.Run("Requires Login", func(t *testing.T) {
		rec := env.do(http.MethodGet, ListActiveCredentialsRoute, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Rejects Foreign Key", func(t *testing.T) {
		rec := env.do(http.MethodGet, ListActiveCredentialsRoute, adminToken(t, "other", "admin"), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Requires Admin Role", func(t *testing.T) {
		rec := env.do(http.MethodGet, ListActiveCredentialsRoute, adminToken(t, testAdminKey, "viewer"), "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Rejects Session Token", func(t *testing.T) {
		rec := env.do(http.MethodGet, ListActiveCredentialsRoute, testToken, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	token, err := middleware.NewAdminToken([]byte(testAdminKey), "operator", time.Hour)
	require.NoError(t, err)

	t.Run("Expired Token", func(t *testing.T) {
		expired, err := middleware.NewAdminToken([]byte(testAdminKey), "operator", -time.Minute)
		require.NoError(t, err)
		rec := env.do(http.MethodGet, ListActiveCredentialsRoute, expired, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Credentials", func(t *testing.T) {
		rec := env.do(http.MethodGet, ListActiveCredentialsRoute, token, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var records []core.CredentialRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
		require.Len(t, records, 1)
		assert.Equal(t, "11112222", records[0].Identifier)
		assert.Equal(t, testAccountID, records[0].PrincipalID)
		assert.NotContains(t, rec.Body.String(), "userSig")
	})

	t.Run("Audits", func(t *testing.T) {
		rec := env.do(http.MethodGet, ListAuditsRoute+"?identifier=11112222", token, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var entries []core.AuditEntry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
		require.Len(t, entries, 1)
		assert.True(t, entries[0].Success)

		rec = env.do(http.MethodGet, ListAuditsRoute+"?limit=abc", token, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Tasks", func(t *testing.T) {
		rec := env.do(http.MethodGet, ListTasksRoute, token, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), tasks.PruneCredentialsTask)

		rec = env.do(http.MethodPost, "/v1/admin/tasks/"+tasks.PruneCredentialsTask+"/trigger", token, "")
		assert.Equal(t, http.StatusAccepted, rec.Code)

		rec = env.do(http.MethodPost, "/v1/admin/tasks/missing/trigger", token, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAdmin_Disabled(t *testing.T) {
	handler := NewServer(nil, nil, nil, nil, config.CORSConfig{}).Routes(nil)
	req := httptest.NewRequest(http.MethodGet, ListAuditsRoute, nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "x", "admin"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, StatusForKind(service.KindUnauthenticated))
	assert.Equal(t, http.StatusBadRequest, StatusForKind(service.KindInvalidArgument))
	assert.Equal(t, http.StatusBadRequest, StatusForKind(service.KindMisconfigured))
	assert.Equal(t, http.StatusForbidden, StatusForKind(service.KindForbidden))
	assert.Equal(t, http.StatusInternalServerError, StatusForKind(service.KindInternal))
}
