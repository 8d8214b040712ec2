package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kredit-api/config"
	"kredit-api/handlers"
	"kredit-api/models"
	"kredit-api/repository"
	"kredit-api/services"
	"kredit-api/session"
	"kredit-api/statemachine"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "routes-test-secret"

func newTestRouter(t *testing.T, opts ...statemachine.Option) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := config.OpenDB(&config.Config{
		StoreDriver: config.DriverSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "routes.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = config.CloseDB(db) })

	users := repository.NewGormUserRepo(db)
	authService := services.NewAuthService(users, session.NewManager(testSecret, time.Hour), bcrypt.MinCost)
	appService := services.NewApplicationService(repository.NewGormApplicationRepo(db), statemachine.NewPolicy(opts...))

	return NewRouter(Deps{
		Auth:         handlers.NewAuthHandler(authService),
		Applications: handlers.NewApplicationHandler(appService),
		Public:       handlers.NewPublicHandler(appService, users),
		Verifier:     authService,
	}, "*")
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	return doRaw(t, r, method, path, token, buf.String())
}

func doRaw(t *testing.T, r *gin.Engine, method, path, token, raw string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func register(t *testing.T, r *gin.Engine, username string, role models.UserRole) string {
	t.Helper()
	code, body := do(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username,
		"password": "secret",
		"name":     username,
		"email":    username + "@example.com",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, code, body)
	return body["token"].(string)
}

func applicationBody() gin.H {
	return gin.H{
		"nama":             "Alice",
		"nik":              "3201010101900001",
		"tanggalLahir":     "1990-01-01",
		"statusPerkawinan": "belum_menikah",
		"dealer":           "Dealer A",
		"merkKendaraan":    "Toyota",
		"modelKendaraan":   "Avanza",
		"hargaKendaraan":   "150000000",
		"downPayment":      "20000000",
		"lamaKredit":       "24",
		"angsuranPerBulan": "3500000",
	}
}

func TestApplicationLifecycle(t *testing.T) {
	r := newTestRouter(t)
	alice := register(t, r, "alice", models.RoleConsumer)
	marketing := register(t, r, "mark", models.RoleMarketing)
	supervisor := register(t, r, "sup", models.RoleMarketingSupervisor)

	code, body := do(t, r, http.MethodPost, "/api/applications", alice, applicationBody())
	require.Equal(t, http.StatusCreated, code, body)
	app := body["application"].(map[string]any)
	id := app["id"].(string)
	assert.Equal(t, "pending", app["status"])
	assert.Equal(t, 150000000.0, app["hargaKendaraan"])
	assert.Equal(t, 24.0, app["lamaKredit"])
	assert.Nil(t, app["reviewedBy"])

	code, body = do(t, r, http.MethodGet, "/api/stats", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{
		"total": 1.0, "pending": 1.0, "underReview": 0.0, "approved": 0.0, "rejected": 0.0,
	}, body["stats"])

	code, body = do(t, r, http.MethodPut, "/api/applications/"+id+"/status", marketing, gin.H{"status": "under_review", "notes": "docs ok"})
	require.Equal(t, http.StatusOK, code, body)
	app = body["application"].(map[string]any)
	assert.Equal(t, "under_review", app["status"])
	assert.NotNil(t, app["reviewedBy"])
	assert.Nil(t, app["approvedBy"])

	code, body = do(t, r, http.MethodPut, "/api/applications/"+id+"/status", supervisor, gin.H{"status": "approved"})
	require.Equal(t, http.StatusOK, code, body)
	app = body["application"].(map[string]any)
	assert.Equal(t, "approved", app["status"])
	assert.NotNil(t, app["approvedBy"])
	assert.NotNil(t, app["reviewedBy"])

	code, body = do(t, r, http.MethodGet, "/api/applications/"+id, alice, nil)
	require.Equal(t, http.StatusOK, code)
	app = body["application"].(map[string]any)
	assert.Equal(t, map[string]any{"name": "alice", "email": "alice@example.com"}, app["user"])
	assert.NotContains(t, app, "password")
}

func TestApplicationListScoping(t *testing.T) {
	r := newTestRouter(t)
	alice := register(t, r, "alice", models.RoleConsumer)
	bob := register(t, r, "bob", models.RoleConsumer)
	admin := register(t, r, "admin", models.RoleBackofficeAdmin)

	for _, token := range []string{alice, bob} {
		code, _ := do(t, r, http.MethodPost, "/api/applications", token, applicationBody())
		require.Equal(t, http.StatusCreated, code)
	}

	_, body := do(t, r, http.MethodGet, "/api/applications", alice, nil)
	assert.Equal(t, 1.0, body["count"])

	_, body = do(t, r, http.MethodGet, "/api/applications", admin, nil)
	assert.Equal(t, 2.0, body["count"])

	_, body = do(t, r, http.MethodGet, "/api/applications?status=approved", admin, nil)
	assert.Equal(t, 0.0, body["count"])
	assert.Equal(t, []any{}, body["applications"])

	code, _ := do(t, r, http.MethodGet, "/api/applications?status=done", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestErrorStatuses(t *testing.T) {
	r := newTestRouter(t)
	alice := register(t, r, "alice", models.RoleConsumer)
	bob := register(t, r, "bob", models.RoleConsumer)
	marketing := register(t, r, "mark", models.RoleMarketing)

	_, body := do(t, r, http.MethodPost, "/api/applications", alice, applicationBody())
	id := body["application"].(map[string]any)["id"].(string)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"duplicate username", http.MethodPost, "/api/auth/register", "", gin.H{
			"username": "alice", "password": "x", "name": "x", "email": "x", "role": "consumer"}, http.StatusBadRequest},
		{"invalid role", http.MethodPost, "/api/auth/register", "", gin.H{
			"username": "carol", "password": "x", "name": "x", "email": "x", "role": "admin"}, http.StatusBadRequest},
		{"wrong password", http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "nope"}, http.StatusUnauthorized},
		{"empty login", http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice"}, http.StatusBadRequest},
		{"staff cannot submit", http.MethodPost, "/api/applications", marketing, applicationBody(), http.StatusForbidden},
		{"incomplete application", http.MethodPost, "/api/applications", alice, gin.H{"nama": "Alice"}, http.StatusBadRequest},
		{"other consumer", http.MethodGet, "/api/applications/" + id, bob, nil, http.StatusForbidden},
		{"unknown application", http.MethodGet, "/api/applications/missing", marketing, nil, http.StatusNotFound},
		{"consumer update", http.MethodPut, "/api/applications/" + id + "/status", alice, gin.H{"status": "approved"}, http.StatusForbidden},
		{"invalid status", http.MethodPut, "/api/applications/" + id + "/status", marketing, gin.H{"status": "done"}, http.StatusBadRequest},
		{"update unknown", http.MethodPut, "/api/applications/missing/status", marketing, gin.H{"status": "under_review"}, http.StatusNotFound},
		{"unknown route", http.MethodGet, "/api/nothing", alice, nil, http.StatusNotFound},
		{"unknown method", http.MethodDelete, "/api/applications/" + id, alice, nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, r, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, code, body)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAuthRequired(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "alice", models.RoleConsumer)

	expired, err := session.NewManager(testSecret, -time.Hour).Issue(&models.User{
		ID: "u1", Username: "alice", Role: models.RoleConsumer,
	})
	require.NoError(t, err)

	for name, token := range map[string]string{
		"missing":   "",
		"malformed": "abc.def",
		"expired":   expired,
	} {
		t.Run(name, func(t *testing.T) {
			for _, path := range []string{"/api/profile", "/api/applications", "/api/stats"} {
				code, body := do(t, r, http.MethodGet, path, token, nil)
				assert.Equal(t, http.StatusUnauthorized, code)
				assert.Len(t, body, 1)
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestProfileAndLogin(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "sup", models.RoleMarketingSupervisor)

	code, body := do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"username": "sup", "password": "secret"})
	require.Equal(t, http.StatusOK, code)
	token := body["token"].(string)
	assert.NotEmpty(t, body["message"])

	code, body = do(t, r, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, code)
	user := body["user"].(map[string]any)
	assert.Equal(t, "sup", user["username"])
	assert.Equal(t, "marketing_supervisor", user["role"])
	assert.NotContains(t, user, "password")
}

func TestPublicEndpoints(t *testing.T) {
	r := newTestRouter(t)

	code, body := do(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])

	code, body = do(t, r, http.MethodGet, "/api/workflow", "", nil)
	require.Equal(t, http.StatusOK, code)
	workflow := body["workflow"].(map[string]any)
	assert.Equal(t, "pending", workflow["initial"])
	assert.Len(t, workflow["transitions"], 7)
}

func TestStaffMaySetAnyStatusByDefault(t *testing.T) {
	r := newTestRouter(t)
	alice := register(t, r, "alice", models.RoleConsumer)
	marketing := register(t, r, "mark", models.RoleMarketing)

	_, body := do(t, r, http.MethodPost, "/api/applications", alice, applicationBody())
	id := body["application"].(map[string]any)["id"].(string)

	code, body := do(t, r, http.MethodPut, "/api/applications/"+id+"/status", marketing, gin.H{"status": "approved"})
	require.Equal(t, http.StatusOK, code, body)
	app := body["application"].(map[string]any)
	assert.Equal(t, "approved", app["status"])
	assert.Nil(t, app["approvedBy"])
	assert.Nil(t, app["reviewedBy"])
}

func TestStrictWorkflowRefusesUnlistedTargets(t *testing.T) {
	r := newTestRouter(t, statemachine.WithStrict(true))
	alice := register(t, r, "alice", models.RoleConsumer)
	marketing := register(t, r, "mark", models.RoleMarketing)

	_, body := do(t, r, http.MethodPost, "/api/applications", alice, applicationBody())
	id := body["application"].(map[string]any)["id"].(string)

	code, body := do(t, r, http.MethodPut, "/api/applications/"+id+"/status", marketing, gin.H{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, code, body)

	code, _ = do(t, r, http.MethodGet, "/api/workflow", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestRoleCheckedBeforeBody(t *testing.T) {
	r := newTestRouter(t)
	alice := register(t, r, "alice", models.RoleConsumer)
	marketing := register(t, r, "mark", models.RoleMarketing)

	_, body := do(t, r, http.MethodPost, "/api/applications", alice, applicationBody())
	id := body["application"].(map[string]any)["id"].(string)

	for _, raw := range []string{"", `{"status":5}`, "not json"} {
		code, body := doRaw(t, r, http.MethodPut, "/api/applications/"+id+"/status", alice, raw)
		assert.Equal(t, http.StatusForbidden, code, "body %q: %v", raw, body)

		code, body = doRaw(t, r, http.MethodPost, "/api/applications", marketing, raw)
		assert.Equal(t, http.StatusForbidden, code, "body %q: %v", raw, body)
	}

	code, _ := doRaw(t, r, http.MethodPut, "/api/applications/"+id+"/status", marketing, `{"status":5}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCreateAcceptsFloatForms(t *testing.T) {
	r := newTestRouter(t)
	alice := register(t, r, "alice", models.RoleConsumer)

	body := applicationBody()
	body["hargaKendaraan"] = 1.5e23
	body["lamaKredit"] = "24.0"
	code, resp := do(t, r, http.MethodPost, "/api/applications", alice, body)
	require.Equal(t, http.StatusCreated, code, resp)
	app := resp["application"].(map[string]any)
	assert.Equal(t, 1.5e23, app["hargaKendaraan"])
	assert.Equal(t, 24.0, app["lamaKredit"])

	body["hargaKendaraan"] = "mahal"
	code, resp = do(t, r, http.MethodPost, "/api/applications", alice, body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "hargaKendaraan must be a positive number", resp["error"])
}
