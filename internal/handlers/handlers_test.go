package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mossy-p/arshare/internal/controller"
	"github.com/mossy-p/arshare/internal/discovery"
	"github.com/mossy-p/arshare/internal/middleware"
	"github.com/mossy-p/arshare/internal/models"
	"github.com/mossy-p/arshare/internal/peer"
	"github.com/mossy-p/arshare/internal/tracking"
	"github.com/mossy-p/arshare/internal/tracking/sim"
)

const testSecret = "handlers-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	api    *API
	engine *sim.Engine
	router *gin.Engine
	token  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{engine: sim.New()}

	api := &API{Presenter: controller.NewStatePresenter(zerolog.Nop()), Log: zerolog.Nop()}
	api.Controller = controller.New(controller.Options{
		Engine:    f.engine,
		Presenter: api.Presenter,
		Logger:    zerolog.Nop(),
		NewTransport: func(h peer.Handler) controller.Transport {
			api.Session = peer.NewSession(models.NewPeerID("local"), h, peer.Options{
				Secret:   testSecret,
				Registry: discovery.NewMemoryRegistry(),
				Logger:   zerolog.Nop(),
			})
			return controller.PeerTransport(api.Session)
		},
	})
	t.Cleanup(func() { api.Session.Close() })

	f.api = api
	f.router = NewRouter(RouterConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		JWTSecret:      testSecret,
	}, api)

	token, err := middleware.IssuePeerToken(testSecret, models.NewPeerID("remote"), time.Minute)
	require.NoError(t, err)
	f.token = token
	return f
}

func (f *fixture) serve(method, path string, body any, authed bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.serve(http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestIssueToken(t *testing.T) {
	f := newFixture(t)

	w := f.serve(http.MethodPost, "/api/auth/token", map[string]string{"displayName": "alice"}, false)
	require.Equal(t, http.StatusOK, w.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Peer.DisplayName)

	got, err := middleware.ParsePeerToken(testSecret, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.Peer, got)

	w = f.serve(http.MethodPost, "/api/auth/token", map[string]string{}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionRoutesRequireToken(t *testing.T) {
	f := newFixture(t)
	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/session"},
		{http.MethodPost, "/api/session/host"},
		{http.MethodPost, "/api/session/share"},
		{http.MethodPost, "/api/session/tap"},
		{http.MethodGet, "/api/browser/peers"},
		{http.MethodGet, "/ws/peer/ar-multi-sample"},
	}
	for _, r := range routes {
		w := f.serve(r.method, r.path, nil, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", r.method, r.path)
	}
}

func TestGetSession(t *testing.T) {
	f := newFixture(t)
	w := f.serve(http.MethodGet, "/api/session", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "local", resp.Local.DisplayName)
	assert.Equal(t, peer.ServiceType, resp.ServiceType)
	assert.False(t, resp.Advertising)
	assert.Empty(t, resp.ConnectedPeers)
	assert.Nil(t, resp.MapProvider)
}

func TestHostThenAcceptRules(t *testing.T) {
	f := newFixture(t)

	w := f.serve(http.MethodGet, "/ws/peer/ar-multi-sample", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code, "not advertising")

	w = f.serve(http.MethodPost, "/api/session/host", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Advertising)

	w = f.serve(http.MethodGet, "/ws/peer/other-service", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code, "service mismatch")
}

func TestTap(t *testing.T) {
	f := newFixture(t)

	w := f.serve(http.MethodPost, "/api/session/tap", map[string]float32{"x": 1}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.serve(http.MethodPost, "/api/session/tap", map[string]float32{"x": 0, "y": 0}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"placed":false}`, w.Body.String())

	require.NoError(t, f.api.Controller.Appear())
	f.serve(http.MethodPost, "/api/session/host", nil, true)
	require.True(t, f.engine.DetectPlane(tracking.Vector3{0, -1, 0}, 1, 1))

	w = f.serve(http.MethodPost, "/api/session/tap", map[string]float32{"x": 0, "y": 0}, true)
	require.Equal(t, http.StatusOK, w.Code)
	var resp TapResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Placed)
	assert.Equal(t, tracking.HeroAnchorName, resp.Anchor.Name)
}

func TestBrowserRoutesNeedPresentedBrowser(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/api/browser/done", "/api/browser/cancel", "/api/browser/invite/x"} {
		w := f.serve(http.MethodPost, path, nil, true)
		assert.Equal(t, http.StatusConflict, w.Code, path)
	}

	w := f.serve(http.MethodPost, "/api/session/join", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.serve(http.MethodGet, "/api/browser/peers", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"serviceType":"ar-multi-sample","peers":[]}`, w.Body.String())

	w = f.serve(http.MethodPost, "/api/browser/invite/unknown", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.serve(http.MethodPost, "/api/browser/done", nil, true)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.serve(http.MethodPost, "/api/browser/cancel", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, f.api.Presenter.State().BrowserPresented)
}

func TestOriginFilter(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodOptions, "/api/session", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestIssuedTokenUnlocksSessionControl(t *testing.T) {
	f := newFixture(t)

	w := f.serve(http.MethodPost, "/api/auth/token", map[string]string{"displayName": "anyone"}, false)
	require.Equal(t, http.StatusOK, w.Code)
	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
