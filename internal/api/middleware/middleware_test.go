package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darmiel/callsign/internal/api/presenter"
	"github.com/darmiel/callsign/internal/correlation"
)

func TestCorrelation(t *testing.T) {
	var seen string
	h := Correlation(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = correlation.FromContext(r.Context())
	}))

	t.Run("Reuses Client ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(correlation.Header, "client-id")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "client-id", seen)
		assert.Equal(t, "client-id", rec.Header().Get(correlation.Header))
	})

	t.Run("Replaces Long ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(correlation.Header, strings.Repeat("x", maxCorrelationIDLength+1))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Len(t, seen, 20) // xid
		assert.Equal(t, seen, rec.Header().Get(correlation.Header))
	})
}

func TestRecover(t *testing.T) {
	h := Correlation(Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/usersig", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp presenter.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal error", resp.Error)
	assert.Equal(t, rec.Header().Get(correlation.Header), resp.CorrelationID)
}

func TestRecover_AbortHandler(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithError(t, http.ErrAbortHandler.Error(), func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = orig }()

	h := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("sub", "11112222")
		})
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("nope"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/usersig", nil))
	var event map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &event))
	assert.Equal(t, "warn", event["level"])
	assert.Equal(t, "11112222", event["sub"])
	assert.EqualValues(t, http.StatusForbidden, event["status"])
	assert.EqualValues(t, 4, event["bytes"])

	buf.Reset()
	h = Logging(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, buf.String())
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	h := CORS("", "")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/v1/usersig", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, DefaultAllowOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, DefaultAllowHeaders, rec.Header().Get("Access-Control-Allow-Headers"))
}
