package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/courseloom/lms-api/config"
	"github.com/courseloom/lms-api/database"
	"github.com/courseloom/lms-api/router"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Full authentication lifecycle against a real Postgres instance.
// Requires RUN_INTEGRATION_TESTS=true and DB_* environment variables.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}

	store, err := database.StartGORM()
	require.NoError(t, err)
	require.NoError(t, store.Init())

	env, err := config.Get()
	require.NoError(t, err)
	if env.JWT_SECRET == "" {
		env.JWT_SECRET = "integration-test-secret"
	}

	app := fiber.New()
	router.SetupRoutes(app, store, env)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	body := bytes.NewBuffer(nil)
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := app.Test(req, 10000)
	require.NoError(t, err)

	parsed := map[string]interface{}{}
	if res.StatusCode != fiber.StatusNoContent {
		_ = json.NewDecoder(res.Body).Decode(&parsed)
	}
	res.Body.Close()

	return res, parsed
}

func TestAuthLifecycle(t *testing.T) {
	app := setupApp(t)

	username := "lifecycle-" + uuid.New().String()[:8]
	password := "password12345"

	// Register
	res, body := doJSON(t, app, "POST", "/api/v1/auth/register", "", fiber.Map{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	})
	require.Equal(t, fiber.StatusCreated, res.StatusCode, "%v", body)

	data := body["data"].(map[string]interface{})
	user := data["user"].(map[string]interface{})
	assert.Equal(t, "student", user["role"], "role defaults to student")
	refreshToken := data["refresh_token"].(string)

	// Login
	res, body = doJSON(t, app, "POST", "/api/v1/auth/login", "", fiber.Map{
		"username": username,
		"password": password,
	})
	require.Equal(t, fiber.StatusOK, res.StatusCode, "%v", body)
	accessToken := body["data"].(map[string]interface{})["access_token"].(string)

	// Authenticated profile fetch, on both the profile path and its
	// /users/me alias
	res, body = doJSON(t, app, "GET", "/api/v1/profile/", accessToken, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, username, body["data"].(map[string]interface{})["username"])

	res, body = doJSON(t, app, "GET", "/api/v1/users/me", accessToken, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, username, body["data"].(map[string]interface{})["username"])

	res, body = doJSON(t, app, "PUT", "/api/v1/users/me", accessToken, fiber.Map{
		"mobile_no": "5551234567",
	})
	require.Equal(t, fiber.StatusOK, res.StatusCode, "%v", body)
	assert.Equal(t, "5551234567", body["data"].(map[string]interface{})["mobile_no"])

	// Refresh
	res, body = doJSON(t, app, "POST", "/api/v1/auth/refresh", "", fiber.Map{
		"refresh_token": refreshToken,
	})
	require.Equal(t, fiber.StatusOK, res.StatusCode, "%v", body)
	assert.NotEmpty(t, body["data"].(map[string]interface{})["access_token"])

	// Logout revokes the access token
	res, _ = doJSON(t, app, "POST", "/api/v1/auth/logout", accessToken, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	res, _ = doJSON(t, app, "GET", "/api/v1/profile/", accessToken, nil)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app := setupApp(t)

	username := "badcreds-" + uuid.New().String()[:8]
	res, _ := doJSON(t, app, "POST", "/api/v1/auth/register", "", fiber.Map{
		"username": username,
		"email":    username + "@example.com",
		"password": "password12345",
	})
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	res, _ = doJSON(t, app, "POST", "/api/v1/auth/login", "", fiber.Map{
		"username": username,
		"password": "wrong-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	app := setupApp(t)

	username := "dup-" + uuid.New().String()[:8]
	payload := fiber.Map{
		"username": username,
		"email":    username + "@example.com",
		"password": "password12345",
	}

	res, _ := doJSON(t, app, "POST", "/api/v1/auth/register", "", payload)
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	res, _ = doJSON(t, app, "POST", "/api/v1/auth/register", "", payload)
	assert.Equal(t, fiber.StatusConflict, res.StatusCode)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	app := setupApp(t)

	username := "role-" + uuid.New().String()[:8]
	res, _ := doJSON(t, app, "POST", "/api/v1/auth/register", "", fiber.Map{
		"username": username,
		"email":    username + "@example.com",
		"password": "password12345",
		"role":     "superuser",
	})
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func TestChangePasswordInvalidatesSessions(t *testing.T) {
	app := setupApp(t)

	username := "chpass-" + uuid.New().String()[:8]
	res, body := doJSON(t, app, "POST", "/api/v1/auth/register", "", fiber.Map{
		"username": username,
		"email":    username + "@example.com",
		"password": "password12345",
	})
	require.Equal(t, fiber.StatusCreated, res.StatusCode)
	accessToken := body["data"].(map[string]interface{})["access_token"].(string)

	res, _ = doJSON(t, app, "POST", "/api/v1/auth/change-password", accessToken, fiber.Map{
		"old_password": "password12345",
		"new_password": "evenbetterpassword",
	})
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	// The old token is dead, the new password works
	res, _ = doJSON(t, app, "GET", "/api/v1/profile/", accessToken, nil)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

	res, _ = doJSON(t, app, "POST", "/api/v1/auth/login", "", fiber.Map{
		"username": username,
		"password": "evenbetterpassword",
	})
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}
