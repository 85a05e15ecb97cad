package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/caterlink/api/internal/auth"
	"github.com/caterlink/api/internal/database"
	"github.com/caterlink/api/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

// --- Mock store ---

type mockAuthStore struct {
	userByEmail map[string]database.User
	userByID    map[uuid.UUID]database.User
}

func newMockAuthStore() *mockAuthStore {
	return &mockAuthStore{
		userByEmail: make(map[string]database.User),
		userByID:    make(map[uuid.UUID]database.User),
	}
}

func (m *mockAuthStore) addUser(u database.User) {
	m.userByEmail[u.Email] = u
	m.userByID[u.ID] = u
}

func (m *mockAuthStore) GetUserByEmail(_ context.Context, email string) (database.User, error) {
	u, ok := m.userByEmail[email]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockAuthStore) GetUserByID(_ context.Context, id uuid.UUID) (database.User, error) {
	u, ok := m.userByID[id]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockAuthStore) CreateUser(_ context.Context, arg database.CreateUserParams) (database.User, error) {
	if _, exists := m.userByEmail[arg.Email]; exists {
		return database.User{}, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	}
	u := database.User{
		ID:             uuid.New(),
		Role:           arg.Role,
		FullName:       arg.FullName,
		Email:          arg.Email,
		HashedPassword: arg.HashedPassword,
		Phone:          arg.Phone,
	}
	m.addUser(u)
	return u, nil
}

// --- Helpers ---

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(h)
}

func makeTestUser(t *testing.T, role string) database.User {
	t.Helper()
	return database.User{
		ID:             uuid.New(),
		Role:           role,
		FullName:       "Asha Patel",
		Email:          "asha@test.com",
		HashedPassword: hashPassword(t, "correct-password"),
	}
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func setupAuthRouter(store *mockAuthStore) *chi.Mux {
	h := handler.NewAuthHandler(store, testSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// --- Register tests ---

func TestRegister_Customer(t *testing.T) {
	store := newMockAuthStore()
	r := setupAuthRouter(store)

	rr := postJSON(t, r, "/auth/register", map[string]string{
		"role":      "CUSTOMER",
		"full_name": "Asha Patel",
		"email":     "asha@test.com",
		"password":  "password123",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["access_token"] == nil || resp["access_token"] == "" {
		t.Error("expected non-empty access_token")
	}
	userResp, ok := resp["user"].(map[string]interface{})
	if !ok {
		t.Fatal("expected user object in response")
	}
	if userResp["role"] != "CUSTOMER" {
		t.Errorf("user role: got %v, want CUSTOMER", userResp["role"])
	}
}

func TestRegister_NormalizesEmail(t *testing.T) {
	store := newMockAuthStore()
	r := setupAuthRouter(store)

	rr := postJSON(t, r, "/auth/register", map[string]string{
		"role":      "CUSTOMER",
		"full_name": "Asha Patel",
		"email":     "  Asha@Test.COM ",
		"password":  "password123",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if _, ok := store.userByEmail["asha@test.com"]; !ok {
		t.Error("expected email stored lowercased and trimmed")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := newMockAuthStore()
	store.addUser(makeTestUser(t, "CUSTOMER"))
	r := setupAuthRouter(store)

	rr := postJSON(t, r, "/auth/register", map[string]string{
		"role":      "CUSTOMER",
		"full_name": "Asha Again",
		"email":     "asha@test.com",
		"password":  "password123",
	})

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	r := setupAuthRouter(newMockAuthStore())

	rr := postJSON(t, r, "/auth/register", map[string]string{
		"role":      "CUSTOMER",
		"full_name": "Asha Patel",
		"email":     "asha@test.com",
		"password":  "short",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestRegister_AdminRoleRejected(t *testing.T) {
	r := setupAuthRouter(newMockAuthStore())

	rr := postJSON(t, r, "/auth/register", map[string]string{
		"role":      "ADMIN",
		"full_name": "Sneaky",
		"email":     "sneaky@test.com",
		"password":  "password123",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Login tests ---

func TestLogin_ValidCredentials(t *testing.T) {
	store := newMockAuthStore()
	store.addUser(makeTestUser(t, "CUSTOMER"))
	r := setupAuthRouter(store)

	rr := postJSON(t, r, "/auth/login", map[string]string{
		"email":    "asha@test.com",
		"password": "correct-password",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["access_token"] == nil || resp["access_token"] == "" {
		t.Error("expected non-empty access_token")
	}
	if resp["refresh_token"] == nil || resp["refresh_token"] == "" {
		t.Error("expected non-empty refresh_token")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	store := newMockAuthStore()
	store.addUser(makeTestUser(t, "CUSTOMER"))
	r := setupAuthRouter(store)

	rr := postJSON(t, r, "/auth/login", map[string]string{
		"email":    "asha@test.com",
		"password": "wrong-password",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestLogin_UserNotFound(t *testing.T) {
	r := setupAuthRouter(newMockAuthStore())

	rr := postJSON(t, r, "/auth/login", map[string]string{
		"email":    "nobody@test.com",
		"password": "password",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

// --- Refresh tests ---

func TestRefresh_ValidToken(t *testing.T) {
	store := newMockAuthStore()
	user := makeTestUser(t, "CUSTOMER")
	store.addUser(user)
	r := setupAuthRouter(store)

	refresh, err := auth.GenerateRefreshToken(testSecret, user.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	rr := postJSON(t, r, "/auth/refresh", map[string]string{
		"refresh_token": refresh,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["access_token"] == nil || resp["access_token"] == "" {
		t.Error("expected non-empty access_token")
	}
}

func TestRefresh_GarbageToken(t *testing.T) {
	r := setupAuthRouter(newMockAuthStore())

	rr := postJSON(t, r, "/auth/refresh", map[string]string{
		"refresh_token": "not-a-jwt",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestRefresh_DeletedAccount(t *testing.T) {
	r := setupAuthRouter(newMockAuthStore())

	refresh, err := auth.GenerateRefreshToken(testSecret, uuid.New())
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	rr := postJSON(t, r, "/auth/refresh", map[string]string{
		"refresh_token": refresh,
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}
