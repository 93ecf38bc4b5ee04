package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"audittrail/internal/hostbridge"
	"audittrail/internal/principal"
	"audittrail/internal/sensor/sensortest"
	"audittrail/pkg/platform/audit"
	"audittrail/pkg/platform/audit/chain"
	"audittrail/pkg/platform/audit/store/memory"
	"audittrail/pkg/platform/audit/writer"
	"audittrail/pkg/platform/middleware/admin"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminToken = "operator-secret"

type stack struct {
	store   *memory.InMemoryStore
	tokens  *principal.Service
	handler http.Handler
}

func newStack(t *testing.T, checks map[string]HealthCheck) stack {
	t.Helper()
	store := memory.NewInMemoryStore()
	w, err := writer.New(store, writer.WithObserver(chain.New(store)))
	require.NoError(t, err)

	tokens := principal.NewService("test-key", "audittrail", "bridge")
	active := sensortest.ActiveSet{audit.SensorThemeSwitch}
	reg := prometheus.NewRegistry()

	return stack{
		store:  store,
		tokens: tokens,
		handler: NewRouter(Deps{
			Units:      hostbridge.NewHandler(hostbridge.NewDispatcher(active, w, nil), nil, nil),
			Tokens:     principal.NewMiddlewareAdapter(tokens),
			Records:    store,
			AdminToken: adminToken,
			Gatherer:   reg,
			Checks:     checks,
		}),
	}
}

func (s stack) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func switchUnit(theme string) *bytes.Buffer {
	return bytes.NewBufferString(`{"signals":[{"hook":"switch_theme","params":{"new_theme":"` + theme + `"}}]}`)
}

func TestRouter_UnitAttributedToPrincipal(t *testing.T) {
	s := newStack(t, nil)
	token, err := s.tokens.Issue(42, "Alice", "alice@example.com", 3, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/units", switchUnit("twentyfive"))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", "wp-cli/2.10")
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("X-Request-ID", "req-1")
	rr := s.do(req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"request_id":"req-1"`)

	records, err := s.store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, int64(42), r.Actor.UserID)
	assert.Equal(t, "Alice", r.Actor.UserName)
	assert.Equal(t, int64(3), r.SiteScope)
	assert.Equal(t, "203.0.113.9", r.SourceIP)
	assert.Equal(t, "wp-cli/2.10", r.SourceClient)
	assert.NotEmpty(t, r.IntegrityFull)
}

func TestRouter_AnonymousUnitUsesSystemActor(t *testing.T) {
	s := newStack(t, nil)
	rr := s.do(httptest.NewRequest(http.MethodPost, "/v1/units", switchUnit("twentyfive")))
	require.Equal(t, http.StatusOK, rr.Code)

	records, err := s.store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Actor.IsSystem())
}

func TestRouter_InvalidTokenRejected(t *testing.T) {
	s := newStack(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/units", switchUnit("x"))
	req.Header.Set("Authorization", "Bearer not-a-token")

	assert.Equal(t, http.StatusUnauthorized, s.do(req).Code)
	records, err := s.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRouter_ChainVerify(t *testing.T) {
	s := newStack(t, nil)
	for _, theme := range []string{"a", "b", "c"} {
		require.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodPost, "/v1/units", switchUnit(theme))).Code)
	}

	t.Run("requires the admin token", func(t *testing.T) {
		rr := s.do(httptest.NewRequest(http.MethodGet, "/admin/chain/verify", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("reports an intact chain", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/chain/verify?page_size=2", nil)
		req.Header.Set(admin.HeaderToken, adminToken)
		rr := s.do(req)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			Checked int  `json:"checked"`
			Intact  bool `json:"intact"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, resp.Intact)
		assert.Equal(t, 3, resp.Checked)
	})

	t.Run("rejects a bad page size", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/chain/verify?page_size=zero", nil)
		req.Header.Set(admin.HeaderToken, adminToken)
		assert.Equal(t, http.StatusBadRequest, s.do(req).Code)
	})

	t.Run("reports a broken chain", func(t *testing.T) {
		require.NoError(t, s.store.SetIntegrityFull(context.Background(), 2, "sha256:forged"))
		req := httptest.NewRequest(http.MethodGet, "/admin/chain/verify", nil)
		req.Header.Set(admin.HeaderToken, adminToken)
		rr := s.do(req)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"intact":false`)
		assert.Contains(t, rr.Body.String(), `"checked":1`)
	})
}

func TestRouter_Health(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		s := newStack(t, map[string]HealthCheck{"redis": func(context.Context) error { return nil }})
		rr := s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"status":"ok"`)
	})
	t.Run("degraded", func(t *testing.T) {
		s := newStack(t, map[string]HealthCheck{"database": func(context.Context) error { return errors.New("refused") }})
		rr := s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Contains(t, rr.Body.String(), "refused")
	})
}

func TestRouter_Metrics(t *testing.T) {
	s := newStack(t, nil)
	rr := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
