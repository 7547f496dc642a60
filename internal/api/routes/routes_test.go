package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/cinedesk/internal/api/handlers"
	"github.com/yoockh/cinedesk/internal/api/middleware"
	"github.com/yoockh/cinedesk/internal/models"
	"github.com/yoockh/cinedesk/internal/ratelimit"
	"github.com/yoockh/cinedesk/internal/repositories"
	"github.com/yoockh/cinedesk/internal/repositories/rpc"
	"github.com/yoockh/cinedesk/internal/services"
	"github.com/yoockh/cinedesk/internal/storage"
	"github.com/yoockh/cinedesk/internal/supabase"
	"github.com/yoockh/cinedesk/internal/utils"
)

func init() { gin.SetMode(gin.TestMode) }

// postgrest fakes the two share procedures for token "good"; "nofiles"
// resolves but the listing fails.
type postgrest struct {
	filesCalls atomic.Int32
}

func (p *postgrest) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var params map[string]string
	_ = json.NewDecoder(r.Body).Decode(&params)
	token := params["share_token"]
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/rest/v1/rpc/get_project_by_share_token":
		switch token {
		case "good", "nofiles":
			_, _ = io.WriteString(w, `[{"id":"8d2e","name":"Night Shoot"}]`)
		default:
			_, _ = io.WriteString(w, `[]`)
		}
	case "/rest/v1/rpc/is_project_member":
		member := r.Header.Get("Authorization") == "Bearer member" && params["project_id"] == "8d2e"
		_, _ = io.WriteString(w, strconv.FormatBool(member))
	case "/rest/v1/rpc/get_files_by_share_token":
		p.filesCalls.Add(1)
		if token == "nofiles" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"code":"XX000","message":"boom"}`)
			return
		}
		_, _ = io.WriteString(w, `[{"name":"script.pdf","storage_path":"projects/8d2e/script.pdf"}]`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, *postgrest) {
	t.Helper()

	pg := &postgrest{}
	srv := httptest.NewServer(pg)
	t.Cleanup(srv.Close)

	sb, err := supabase.New(supabase.Config{URL: srv.URL, ServiceRoleKey: "service-role"})
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	gw := storage.NewGatewayFromConfig(storage.GatewayConfig{
		Provider: storage.ProviderS3,
		S3: storage.S3Config{
			Bucket:         "production-assets",
			Region:         "us-east-1",
			Endpoint:       "http://localhost:9000",
			AccessKey:      "test-key",
			SecretKey:      "test-secret",
			ForcePathStyle: true,
		},
	})
	shares := services.NewShareService(
		rpc.NewShareRepo(sb, repositories.ProcedureNames{}),
		services.ShareServiceOptions{Logger: log},
	)

	r, err := NewRouter(log, Deps{
		File:    handlers.NewFileHandler(services.NewFileService(gw)),
		Share:   handlers.NewShareHandler(shares),
		Project: handlers.NewProjectHandler(shares, services.NewProjectService(rpc.NewMembershipRepo(sb, repositories.ProcedureNames{}))),
	})
	require.NoError(t, err)
	return r, pg
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestSignedURLEndToEnd(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/files/signed-url", `{"storagePath":"projects/42/script.pdf","expiresIn":600}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		SignedURL string `json:"signedUrl"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	u, err := url.Parse(body.SignedURL)
	require.NoError(t, err)
	assert.Equal(t, "/production-assets/projects/42/script.pdf", u.Path)
	assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))

	w = do(r, http.MethodPost, "/api/files/signed-url", `{"storagePath":"projects/42/script.pdf"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	u, err = url.Parse(body.SignedURL)
	require.NoError(t, err)
	assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))

	w = do(r, http.MethodPost, "/api/files/signed-url", `{"storagePath":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"storagePath is required"}`, w.Body.String())
}

func TestShareEndToEnd(t *testing.T) {
	r, pg := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/share/good", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"project": {"id": "8d2e", "name": "Night Shoot"},
		"files": [{"name": "script.pdf", "storage_path": "projects/8d2e/script.pdf"}]
	}`, w.Body.String())

	before := pg.filesCalls.Load()
	w = do(r, http.MethodGet, "/api/share/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Invalid or expired share link"}`, w.Body.String())
	assert.Equal(t, before, pg.filesCalls.Load())

	w = do(r, http.MethodGet, "/api/share/nofiles", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch files"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "Night Shoot")

	w = do(r, http.MethodGet, "/api/share/", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Token is required"}`, w.Body.String())
}

func TestProjectContextRoute(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/projects/8d2e/context", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"projectId":"8d2e"}`, w.Body.String())

	// no JWTAuth installed, so there is no caller to authorize
	w = do(r, http.MethodGet, "/api/projects/8d2e/share-access", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
}

func TestShareAccessRequiresMembership(t *testing.T) {
	pg := &postgrest{}
	srv := httptest.NewServer(pg)
	t.Cleanup(srv.Close)
	sb, err := supabase.New(supabase.Config{URL: srv.URL, ServiceRoleKey: "service-role"})
	require.NoError(t, err)

	// stands in for JWTAuth: the bearer token names the user
	auth := func(c *gin.Context) {
		tok := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		c.Set(middleware.KeyUserID, "u-"+tok)
		c.Set(middleware.KeyAccessToken, tok)
	}
	shares := services.NewShareService(stubRepo{}, services.ShareServiceOptions{})
	r, err := NewRouter(logrus.New(), Deps{
		File:    handlers.NewFileHandler(services.NewFileService(nil)),
		Share:   handlers.NewShareHandler(shares),
		Project: handlers.NewProjectHandler(shares, services.NewProjectService(rpc.NewMembershipRepo(sb, repositories.ProcedureNames{}))),
		Auth:    auth,
	})
	require.NoError(t, err)

	get := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/projects/8d2e/share-access", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := get("member")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"accesses":[]}`, w.Body.String())

	w = get("outsider")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Project not found"}`, w.Body.String())
}

func TestAuthAndLimitHooks(t *testing.T) {
	deny := func(c *gin.Context) { c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"}) }
	var limited atomic.Int32
	count := func(c *gin.Context) { limited.Add(1); c.Next() }

	shares := services.NewShareService(stubRepo{}, services.ShareServiceOptions{})
	r, err := NewRouter(logrus.New(), Deps{
		File:       handlers.NewFileHandler(services.NewFileService(nil)),
		Share:      handlers.NewShareHandler(shares),
		Project:    handlers.NewProjectHandler(shares, services.NewProjectService(nil)),
		Auth:       deny,
		ShareLimit: count,
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/files/signed-url", `{"storagePath":"a"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/projects/p/context", "").Code)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/share/x", "").Code)
	assert.Equal(t, int32(1), limited.Load())
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ping", "").Code)
}

func limitedRouter(t *testing.T, trusted []string) *gin.Engine {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	limiter := ratelimit.NewRedisLimiter(rdb, "ratelimit:share", 1, time.Minute)
	shares := services.NewShareService(stubRepo{}, services.ShareServiceOptions{})

	r, err := NewRouter(log, Deps{
		File:           handlers.NewFileHandler(services.NewFileService(nil)),
		Share:          handlers.NewShareHandler(shares),
		Project:        handlers.NewProjectHandler(shares, services.NewProjectService(nil)),
		ShareLimit:     middleware.RateLimit(limiter, log),
		TrustedProxies: trusted,
	})
	require.NoError(t, err)
	return r
}

func shareStatuses(r http.Handler, forwardedFor ...string) []int {
	var got []int
	for _, xff := range forwardedFor {
		req := httptest.NewRequest(http.MethodGet, "/api/share/tok", nil)
		req.RemoteAddr = "203.0.113.7:40000"
		if xff != "" {
			req.Header.Set("X-Forwarded-For", xff)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		got = append(got, w.Code)
	}
	return got
}

func TestShareLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	r := limitedRouter(t, nil)

	got := shareStatuses(r, "198.51.100.1", "198.51.100.2", "198.51.100.3", "198.51.100.4")
	assert.Equal(t, []int{http.StatusNotFound, http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests}, got)
}

func TestShareLimitHonoursTrustedProxy(t *testing.T) {
	r := limitedRouter(t, []string{"203.0.113.0/24"})

	got := shareStatuses(r, "198.51.100.1", "198.51.100.2", "198.51.100.1")
	assert.Equal(t, []int{http.StatusNotFound, http.StatusNotFound, http.StatusTooManyRequests}, got)
}

func TestNewRouterRejectsBadProxy(t *testing.T) {
	_, err := NewRouter(logrus.New(), Deps{TrustedProxies: []string{"not-an-ip"}})
	assert.Error(t, err)
}

func TestUnmatchedRoutesRenderJSON(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, target := range []string{"/api/share/a/b", "/api/share/a%2Fb", "/nowhere"} {
		w := do(r, http.MethodGet, target, "")
		assert.Equal(t, http.StatusNotFound, w.Code, target)
		assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String(), target)
	}
}

type stubRepo struct{}

func (stubRepo) ProjectByToken(context.Context, string) (*models.SharedProject, error) {
	return nil, utils.ErrNotFound
}

func (stubRepo) FilesByToken(context.Context, string) ([]models.SharedFile, error) {
	return nil, nil
}
