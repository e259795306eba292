package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dsadmin/auth"
	"dsadmin/config"
	"dsadmin/controllers"
	"dsadmin/database"
	"dsadmin/database/dbtest"
	"dsadmin/models"
	"dsadmin/repositories"
	"dsadmin/services"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "adminpassword"
)

type testAPI struct {
	t         *testing.T
	db        *gorm.DB
	container *restful.Container
	users     services.UserService
}

type envelope struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	Metadata struct {
		APIVersion string `json:"api_version"`
	} `json:"metadata"`
}

func newTestAPI(t *testing.T, limiter *controllers.LoginLimiter) *testAPI {
	t.Helper()
	db := dbtest.New(t)
	logger := zaptest.NewLogger(t)
	require.NoError(t, database.SeedInitialData(db, config.SeedConfig{
		AdminName: "Admin", AdminEmail: adminEmail, AdminPassword: adminPassword,
	}, logger))

	userRepo := repositories.NewUserRepository(db)
	roleRepo := repositories.NewRoleRepository(db)
	permRepo := repositories.NewPermissionRepository(db)

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte("api-test-secret"), Algorithm: "HS256", Issuer: "dsadmin", TTL: 30 * time.Minute,
	}, auth.NewMemoryRevocationStore())
	require.NoError(t, err)
	authenticator := auth.NewAuthenticator(userRepo, tokens, auth.NewPermissionResolver(roleRepo))

	users := services.NewUserService(userRepo, roleRepo)
	container := controllers.NewContainer(controllers.Dependencies{
		APIPrefix:      "/api/v1",
		AllowedOrigins: []string{"http://localhost:3000"},
		Authenticator:  authenticator,
		LoginLimiter:   limiter,
		Users:          users,
		Roles:          services.NewRoleService(roleRepo, permRepo, userRepo),
		Permissions:    services.NewPermissionService(permRepo),
		DataSources:    services.NewDataSourceService(repositories.NewDataSourceRepository(db)),
		Health: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Logger: logger,
	})
	return &testAPI{t: t, db: db, container: container, users: users}
}

func (a *testAPI) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", restful.MIME_JSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.container.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func (a *testAPI) login(email, password string) string {
	a.t.Helper()
	rec, env := a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())

	var data controllers.LoginResponse
	require.NoError(a.t, json.Unmarshal(env.Data, &data))
	return data.AccessToken.Token
}

func (a *testAPI) createEditor(email string) {
	a.t.Helper()
	_, err := a.users.CreateUser(context.Background(), &services.CreateUserInput{
		Name: "Editor", Email: email, Password: "pw123",
	})
	require.NoError(a.t, err)
}

func TestLoginLogoutFlow(t *testing.T) {
	api := newTestAPI(t, nil)

	rec, env := api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": adminEmail, "password": adminPassword})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Login successful", env.Message)
	assert.Equal(t, "1.0", env.Metadata.APIVersion)

	var login controllers.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &login))
	assert.Equal(t, "bearer", login.AccessToken.TokenType)
	assert.Equal(t, adminEmail, login.User.Email)
	token := login.AccessToken.Token

	rec, env = api.do(http.MethodGet, "/api/v1/users", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users controllers.UsersEnvelope
	require.NoError(t, json.Unmarshal(env.Data, &users))
	require.Len(t, users.Users, 1)
	assert.Equal(t, "admin", users.Users[0].Role)

	rec, env = api.do(http.MethodPost, "/api/v1/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logout successful", env.Message)

	rec, env = api.do(http.MethodGet, "/api/v1/users", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token has been revoked.", env.Message)

	rec, _ = api.do(http.MethodPost, "/api/v1/logout", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	second := api.login(adminEmail, adminPassword)
	rec, _ = api.do(http.MethodGet, "/api/v1/users", second, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginFailures(t *testing.T) {
	api := newTestAPI(t, nil)

	rec, env := api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": adminEmail, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Incorrect email or password.", env.Message)

	rec, env = api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "nobody@example.com", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Incorrect email or password.", env.Message)

	rec, env = api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"password": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Email field is required", env.Message)

	rec, _ = api.do(http.MethodPost, "/api/v1/auth/login", "", "not an object")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLoginRateLimit(t *testing.T) {
	limiter := controllers.NewLoginLimiter(1, 2, zaptest.NewLogger(t))
	api := newTestAPI(t, limiter)
	body := map[string]string{"email": adminEmail, "password": "wrong"}

	for i := 0; i < 2; i++ {
		rec, _ := api.do(http.MethodPost, "/api/v1/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec, env := api.do(http.MethodPost, "/api/v1/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestEditorIsForbiddenEverywhere(t *testing.T) {
	api := newTestAPI(t, nil)
	api.createEditor("editor@example.com")
	token := api.login("editor@example.com", "pw123")

	routes := []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/api/v1/users", nil},
		{http.MethodGet, "/api/v1/users/1", nil},
		{http.MethodPost, "/api/v1/users", map[string]string{"name": "n", "email": "n@example.com", "password": "p"}},
		{http.MethodPut, "/api/v1/users/1", map[string]string{"name": "n"}},
		{http.MethodDelete, "/api/v1/users/1", nil},
		{http.MethodGet, "/api/v1/roles", nil},
		{http.MethodGet, "/api/v1/roles/1", nil},
		{http.MethodPost, "/api/v1/roles", map[string]string{"name": "r"}},
		{http.MethodPut, "/api/v1/roles/1", map[string]string{"name": "r"}},
		{http.MethodDelete, "/api/v1/roles/1", nil},
		{http.MethodPost, "/api/v1/role-has-permissions/1/assign-permissions", map[string][]uint{"permission_ids": {1}}},
		{http.MethodPost, "/api/v1/role-has-permissions/1/remove-permissions", map[string][]uint{"permission_ids": {1}}},
		{http.MethodGet, "/api/v1/permissions", nil},
		{http.MethodGet, "/api/v1/data-sources", nil},
		{http.MethodPost, "/api/v1/data-sources", map[string]string{"type": "grafana", "name": "g"}},
	}
	for _, r := range routes {
		rec, env := api.do(r.method, r.path, token, r.body)
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", r.method, r.path)
		assert.Equal(t, "You don't have enough permissions.", env.Message, "%s %s", r.method, r.path)
	}

	var count int64
	require.NoError(t, api.db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 2, count, "denied requests have no effect")
}

func TestMissingAndInvalidTokens(t *testing.T) {
	api := newTestAPI(t, nil)

	rec, env := api.do(http.MethodGet, "/api/v1/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token is missing.", env.Message)

	rec, env = api.do(http.MethodGet, "/api/v1/users", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Could not validate token.", env.Message)
}

func TestTokenForDeletedUser(t *testing.T) {
	api := newTestAPI(t, nil)
	admin := api.login(adminEmail, adminPassword)
	api.createEditor("gone@example.com")
	gone := api.login("gone@example.com", "pw123")

	var u models.User
	require.NoError(t, api.db.Where("email = ?", "gone@example.com").First(&u).Error)
	rec, _ := api.do(http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", u.ID), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := api.do(http.MethodGet, "/api/v1/permissions", gone, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found.", env.Message)
}

func TestDisabledUserIsRejected(t *testing.T) {
	api := newTestAPI(t, nil)
	admin := api.login(adminEmail, adminPassword)

	rec, env := api.do(http.MethodPost, "/api/v1/users", admin, map[string]string{
		"name": "Ops", "email": "ops@example.com", "password": "pw123", "role": "admin",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created controllers.UserEnvelope
	require.NoError(t, json.Unmarshal(env.Data, &created))
	opsToken := api.login("ops@example.com", "pw123")

	rec, _ = api.do(http.MethodPut, fmt.Sprintf("/api/v1/users/%d", created.User.ID), admin, map[string]string{"status": "disabled"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = api.do(http.MethodGet, "/api/v1/users", opsToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Account is disabled.", env.Message)

	rec, _ = api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "ops@example.com", "password": "pw123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserCRUD(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(adminEmail, adminPassword)

	rec, env := api.do(http.MethodPost, "/api/v1/users", token, map[string]string{
		"name": "Bob", "email": "bob@example.com", "password": "pw123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created controllers.UserEnvelope
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "editor", created.User.Role)
	assert.Equal(t, "active", created.User.Status)
	assert.NotContains(t, rec.Body.String(), "password")

	rec, env = api.do(http.MethodPost, "/api/v1/users", token, map[string]string{
		"name": "Bob", "email": "bob@example.com", "password": "pw123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already registered", env.Message)

	rec, env = api.do(http.MethodPost, "/api/v1/users", token, map[string]string{
		"name": "Eve", "email": "not-an-email", "password": "pw123",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Message, "email")

	rec, env = api.do(http.MethodPost, "/api/v1/users", token, map[string]string{
		"name": "Eve", "email": "eve@example.com", "password": "pw123", "role": "ghost",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Role not found, please create it first", env.Message)

	path := fmt.Sprintf("/api/v1/users/%d", created.User.ID)
	rec, env = api.do(http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = api.do(http.MethodPut, path, token, map[string]string{"name": "Robert", "status": "sleepy"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = api.do(http.MethodPut, path, token, map[string]string{"name": "Robert"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated controllers.UserEnvelope
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Robert", updated.User.Name)

	rec, _ = api.do(http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, env = api.do(http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", env.Message)

	rec, _ = api.do(http.MethodGet, "/api/v1/users/abc", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRolesAndPermissionLinks(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(adminEmail, adminPassword)

	rec, env := api.do(http.MethodGet, "/api/v1/permissions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var perms controllers.PermissionsEnvelope
	require.NoError(t, json.Unmarshal(env.Data, &perms))
	require.Len(t, perms.Permissions, len(database.DefaultPermissions))
	ids := map[string]uint{}
	for _, p := range perms.Permissions {
		ids[p.Name] = p.ID
	}

	rec, env = api.do(http.MethodPost, "/api/v1/roles", token, map[string]any{
		"name": "viewer", "permission_ids": []uint{ids["read_permission"]},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var role controllers.RoleEnvelope
	require.NoError(t, json.Unmarshal(env.Data, &role))
	require.Len(t, role.Role.Permissions, 1)

	rec, _ = api.do(http.MethodPost, "/api/v1/roles", token, map[string]any{"name": "viewer"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = api.do(http.MethodPost, "/api/v1/roles", token, map[string]any{"name": "broken", "permission_ids": []uint{99999}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "One or more permissions do not exist", env.Message)

	// A viewer can read permissions but not roles, until read_role is assigned.
	_, err := api.users.CreateUser(context.Background(), &services.CreateUserInput{
		Name: "V", Email: "v@example.com", Password: "pw123", Role: "viewer",
	})
	require.NoError(t, err)
	viewer := api.login("v@example.com", "pw123")

	rec, _ = api.do(http.MethodGet, "/api/v1/permissions", viewer, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = api.do(http.MethodGet, "/api/v1/roles", viewer, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	links := fmt.Sprintf("/api/v1/role-has-permissions/%d", role.Role.ID)
	rec, _ = api.do(http.MethodPost, links+"/assign-permissions", token, map[string][]uint{"permission_ids": {ids["read_role"], ids["read_permission"]}})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = api.do(http.MethodGet, "/api/v1/roles", viewer, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "new link takes effect on the next request")

	rec, _ = api.do(http.MethodPost, links+"/remove-permissions", token, map[string][]uint{"permission_ids": {ids["read_role"]}})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = api.do(http.MethodGet, "/api/v1/roles", viewer, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = api.do(http.MethodPost, links+"/assign-permissions", token, map[string][]uint{"permission_ids": {}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rolePath := fmt.Sprintf("/api/v1/roles/%d", role.Role.ID)
	rec, env = api.do(http.MethodPut, rolePath, token, map[string]string{"name": "readers"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Role renamed successfully", env.Message)

	rec, _ = api.do(http.MethodDelete, rolePath, token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "role still assigned")

	rec, _ = api.do(http.MethodGet, "/api/v1/roles/99999", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDataSourcesAPI(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(adminEmail, adminPassword)

	rec, env := api.do(http.MethodPost, "/api/v1/data-sources", token, map[string]string{
		"type": "Grafana", "name": "metrics", "description": "dashboards",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created controllers.DataSourceEnvelope
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "grafana", created.DataSource.Type)
	require.NotNil(t, created.DataSource.CreatedByID)

	var admin models.User
	require.NoError(t, api.db.Where("email = ?", adminEmail).First(&admin).Error)
	assert.Equal(t, admin.ID, *created.DataSource.CreatedByID)

	rec, env = api.do(http.MethodPost, "/api/v1/data-sources", token, map[string]string{"type": "kibana", "name": "metrics"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Data source name already in use", env.Message)

	rec, _ = api.do(http.MethodPost, "/api/v1/data-sources", token, map[string]string{"type": "prometheus", "name": "p"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	path := fmt.Sprintf("/api/v1/data-sources/%d", created.DataSource.ID)
	rec, env = api.do(http.MethodPut, path, token, map[string]string{"status": "online"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated controllers.DataSourceEnvelope
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	require.NotNil(t, updated.DataSource.Status)
	assert.Equal(t, "online", *updated.DataSource.Status)

	rec, _ = api.do(http.MethodGet, "/api/v1/data-sources", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.do(http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = api.do(http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndDocs(t *testing.T) {
	api := newTestAPI(t, nil)

	rec, env := api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, _ = api.do(http.MethodGet, "/apidocs.json", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1/users")
	assert.Contains(t, rec.Body.String(), "Authorization")

	rec, env = api.do(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
}

func TestHealthReportsDatabaseFailure(t *testing.T) {
	c := controllers.NewContainer(controllers.Dependencies{
		APIPrefix: "/api/v1",
		Health:    func(context.Context) error { return errors.New("connection refused") },
		Logger:    zaptest.NewLogger(t),
	})
	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/users", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	api.container.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
