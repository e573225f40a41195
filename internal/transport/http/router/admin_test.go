package router

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-admin/internal/core/auth"
	"user-admin/internal/core/config"
	"user-admin/internal/proxy"
	"user-admin/internal/repo"
	"user-admin/internal/service"
	"user-admin/internal/transport/http/handler"
)

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type testApp struct {
	t      *testing.T
	engine *gin.Engine
	cfg    *config.Config
	cookie *http.Cookie
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		App: config.App{HTTP: config.HTTP{WriteTimeoutSec: 30}},
		Auth: config.Auth{
			Username:        "admin",
			Password:        "letmein",
			SessionSecret:   "0123456789abcdef",
			SessionTTLMin:   60,
			CookieName:      "admin_session",
			LoginRatePerMin: 600,
			LoginBurst:      100,
		},
		Upload: config.Upload{Dir: t.TempDir(), MaxBytes: 1024},
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := service.NewUserService(service.Deps{Users: repo.NewMemoryUserRepo()})
	jwter := auth.NewJWTer(cfg.Auth.SessionSecret, "user-admin", cfg.Auth.SessionTTL())
	h := handler.NewAdminHandler(svc, handler.Options{
		Credentials: auth.Credentials{Username: cfg.Auth.Username, Password: cfg.Auth.Password},
		Sessions:    jwter,
		CookieName:  cfg.Auth.CookieName,
		UploadDir:   cfg.Upload.Dir,
		UploadMax:   cfg.Upload.MaxBytes,
		Proxy:       proxy.New(time.Second, 1024),
	})
	return &testApp{t: t, engine: NewAdminEngine(zap.NewNop(), cfg, h, jwter), cfg: cfg}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	if a.cookie != nil {
		req.AddCookie(a.cookie)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *testApp) json(method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := a.do(req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func (a *testApp) login() {
	a.t.Helper()
	w, env := a.json(http.MethodPost, "/admin/v1/auth/login", map[string]string{"username": "admin", "password": "letmein"})
	if w.Code != http.StatusOK || env.Code != 0 {
		a.t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == a.cfg.Auth.CookieName {
			a.cookie = c
		}
	}
	if a.cookie == nil || !a.cookie.HttpOnly {
		a.t.Fatalf("session cookie missing or not HttpOnly: %+v", a.cookie)
	}
}

func (a *testApp) upload(name, contentType, content string) (*httptest.ResponseRecorder, handler.ImportResult) {
	a.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
		hdr.Set("Content-Type", contentType)
		part, _ := mw.CreatePart(hdr)
		_, _ = part.Write([]byte(content))
	} else {
		_ = mw.WriteField("other", "x")
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/admin/v1/users/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := a.do(req)
	var env struct {
		Data handler.ImportResult `json:"data"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env.Data
}

func TestHealthAndAuthGate(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	if w, _ := app.json(http.MethodGet, "/health", nil); w.Code != http.StatusOK {
		t.Errorf("health = %d", w.Code)
	}
	w, env := app.json(http.MethodGet, "/admin/v1/users", nil)
	if w.Code != http.StatusUnauthorized || env.Code != 401 {
		t.Errorf("unauthenticated list = %d %+v", w.Code, env)
	}

	w, _ = app.json(http.MethodPost, "/admin/v1/auth/login", map[string]string{"username": "admin", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad login = %d", w.Code)
	}
	w, _ = app.json(http.MethodPost, "/admin/v1/auth/login", map[string]string{"username": "admin"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("incomplete login = %d", w.Code)
	}

	app.login()
	w, env = app.json(http.MethodGet, "/admin/v1/me", nil)
	if w.Code != http.StatusOK || !strings.Contains(string(env.Data), `"admin"`) {
		t.Errorf("me = %d %s", w.Code, env.Data)
	}

	w, _ = app.json(http.MethodPost, "/admin/v1/auth/logout", nil)
	for _, c := range w.Result().Cookies() {
		if c.Name == app.cfg.Auth.CookieName && c.MaxAge >= 0 {
			t.Errorf("logout should expire the cookie, got %+v", c)
		}
	}
}

func TestBearerToken(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	_, env := app.json(http.MethodPost, "/admin/v1/auth/login", map[string]string{"username": "admin", "password": "letmein"})
	var out struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(env.Data, &out)

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+out.Token)
	if w := app.do(req); w.Code != http.StatusOK {
		t.Errorf("bearer dashboard = %d", w.Code)
	}
}

func TestLoginRateLimited(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.LoginRatePerMin, cfg.Auth.LoginBurst = 1, 2
	app := newTestApp(t, cfg)

	var last int
	for i := 0; i < 3; i++ {
		w, _ := app.json(http.MethodPost, "/admin/v1/auth/login", map[string]string{"username": "admin", "password": "wrong"})
		last = w.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third attempt = %d, want 429", last)
	}
}

func TestUserCRUD(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	app.login()

	w, env := app.json(http.MethodPost, "/admin/v1/users", map[string]string{"name": "Bob", "email": "Bob@Example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	var bob struct {
		ID    uint   `json:"id"`
		Email string `json:"email"`
	}
	_ = json.Unmarshal(env.Data, &bob)
	if bob.ID == 0 || bob.Email != "bob@example.com" {
		t.Fatalf("created %+v", bob)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"duplicate", http.MethodPost, "/admin/v1/users", map[string]string{"name": "B", "email": "bob@example.com"}, 409},
		{"invalid email", http.MethodPost, "/admin/v1/users", map[string]string{"name": "B", "email": "nope"}, 400},
		{"blank name", http.MethodPost, "/admin/v1/users", map[string]string{"name": " ", "email": "b@x.io"}, 400},
		{"get", http.MethodGet, "/admin/v1/users/1", nil, 200},
		{"get missing", http.MethodGet, "/admin/v1/users/99", nil, 404},
		{"bad id", http.MethodGet, "/admin/v1/users/abc", nil, 400},
		{"update", http.MethodPut, "/admin/v1/users/1", map[string]string{"name": "Robert", "email": "rob@example.com"}, 200},
		{"update missing", http.MethodPut, "/admin/v1/users/99", map[string]string{"name": "X", "email": "x@example.com"}, 404},
		{"delete", http.MethodDelete, "/admin/v1/users/1", nil, 200},
		{"delete again", http.MethodDelete, "/admin/v1/users/1", nil, 404},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := app.json(tt.method, tt.path, tt.body)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
			if tt.status != 200 && env.Code != tt.status {
				t.Errorf("envelope code = %d", env.Code)
			}
		})
	}
}

func TestListAndBulkDelete(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	app.login()
	for _, n := range []string{"Ann", "Bob", "Cid"} {
		app.json(http.MethodPost, "/admin/v1/users", map[string]string{"name": n, "email": strings.ToLower(n) + "@example.com"})
	}

	w, env := app.json(http.MethodGet, "/admin/v1/users?limit=2&sort=name&direction=asc&search=%20&page=0", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var list service.ListResult
	_ = json.Unmarshal(env.Data, &list)
	if list.Total != 3 || list.TotalPages != 2 || list.Page != 1 || len(list.Items) != 2 || list.Items[0].Name != "Ann" {
		t.Errorf("list = %+v", list)
	}

	w, env = app.json(http.MethodPost, "/admin/v1/users/bulk-delete", map[string][]uint{"ids": {1, 2, 42}})
	if w.Code != http.StatusOK || !strings.Contains(string(env.Data), `"deleted":2`) {
		t.Errorf("bulk delete = %d %s", w.Code, env.Data)
	}
	if w, _ := app.json(http.MethodPost, "/admin/v1/users/bulk-delete", map[string][]uint{"ids": {}}); w.Code != http.StatusBadRequest {
		t.Errorf("empty bulk delete = %d", w.Code)
	}

	_, env = app.json(http.MethodGet, "/admin/v1/dashboard", nil)
	if !strings.Contains(string(env.Data), `"totalUsers":1`) {
		t.Errorf("dashboard = %s", env.Data)
	}
}

func TestImportUpload(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	app.login()

	tests := []struct {
		name     string
		file     string
		ctype    string
		content  string
		status   int
		tag      string
		imported int
	}{
		{"success", "users.csv", "text/csv", "name,email\nAnn,ann@example.com\nBad,bad\n", 200, "success", 1},
		{"csv by extension", "users.CSV", "application/octet-stream", "name,email\nBo,bo@example.com\n", 200, "success", 1},
		{"no new users", "users.csv", "text/csv", "name,email\nAnn,ann@example.com\n", 200, "no-new-users", 0},
		{"no file", "", "", "", 400, "no-file", 0},
		{"wrong type", "photo.png", "image/png", "x", 400, "invalid-type", 0},
		{"too large", "big.csv", "text/csv", "name,email\n" + strings.Repeat("x", 2048), 413, "file-too-large", 0},
		{"missing columns", "users.csv", "text/csv", "a,b\n1,2\n", 400, "missing-columns", 0},
		{"empty", "users.csv", "text/csv", "", 400, "empty-file", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, res := app.upload(tt.file, tt.ctype, tt.content)
			if w.Code != tt.status || res.Status != tt.tag || res.Imported != tt.imported {
				t.Errorf("got %d %+v, want %d %s imported=%d", w.Code, res, tt.status, tt.tag, tt.imported)
			}
			if strings.Contains(w.Body.String(), "Line ") {
				t.Errorf("row reasons leaked: %s", w.Body.String())
			}
		})
	}

	left, err := os.ReadDir(app.cfg.Upload.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Errorf("temp uploads not cleaned up: %d files", len(left))
	}
}

func TestExport(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	app.login()
	app.json(http.MethodPost, "/admin/v1/users", map[string]string{"name": "Ann", "email": "ann@example.com"})

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/users/export", nil)
	w := app.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "users.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv") {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(w.Body.String(), "id,name,email,createdAt,updatedAt\n1,Ann,ann@example.com,") {
		t.Errorf("body = %q", w.Body.String())
	}

	w, _ = app.json(http.MethodPost, "/admin/v1/users/export/archive", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("archive without bucket = %d", w.Code)
	}
}

func TestProxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/json" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"pong":true}`))
			return
		}
		_, _ = w.Write([]byte("<b>hi</b>"))
	}))
	defer upstream.Close()

	app := newTestApp(t, testConfig(t))
	app.login()

	w, _ := app.json(http.MethodGet, "/admin/v1/proxy?url="+upstream.URL+"/json", nil)
	if w.Code != http.StatusOK || w.Body.String() != `{"pong":true}` || !strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		t.Errorf("json relay = %d %q %q", w.Code, w.Body.String(), w.Header().Get("Content-Type"))
	}
	w, _ = app.json(http.MethodGet, "/admin/v1/proxy?url="+upstream.URL+"/page", nil)
	if w.Code != http.StatusOK || w.Body.String() != "<b>hi</b>" || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("text relay = %d %q", w.Code, w.Body.String())
	}
	w, _ = app.json(http.MethodGet, "/admin/v1/proxy?url=ftp://example.com", nil)
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), `"error"`) {
		t.Errorf("bad url = %d %s", w.Code, w.Body.String())
	}
}
