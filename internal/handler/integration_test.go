//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/caterlink/api/internal/config"
	"github.com/caterlink/api/internal/database"
	"github.com/caterlink/api/internal/router"
	"github.com/caterlink/api/internal/ws"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestIntegrationFlow exercises the full marketplace lifecycle against a real
// PostgreSQL database: registration, business onboarding and verification,
// order submission with sessions and dishes, the status chain, and chat.
func TestIntegrationFlow(t *testing.T) {
	ctx := context.Background()

	pgContainer, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	cfg := &config.Config{
		Port:        "8082",
		DatabaseURL: connStr,
		JWTSecret:   "integration-test-secret",
	}
	queries := database.New(pool)
	hub := ws.NewHub()
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	r := router.New(cfg, queries, pool, hub)
	server := httptest.NewServer(r)
	defer server.Close()

	// --- 1. Register a customer and a business owner ---
	customerToken := register(t, server, "CUSTOMER", "Asha Patel", "asha@test.com")
	ownerToken := register(t, server, "BUSINESS", "Ravi Kumar", "ravi@test.com")

	// --- 2. Owner registers the business ---
	bizResp := httpJSON(t, server, "POST", "/businesses", map[string]string{
		"name":    "Spice Route Catering",
		"cuisine": "North Indian",
		"city":    "Pune",
	}, ownerToken, http.StatusCreated)
	businessID := uuid.MustParse(bizResp["id"].(string))
	if bizResp["verification_status"] != "PENDING" {
		t.Fatalf("new business verification: got %v, want PENDING", bizResp["verification_status"])
	}

	// --- 3. Submitting an order against an unverified business fails ---
	httpJSON(t, server, "POST", "/orders", orderBody(businessID, 10), customerToken, http.StatusBadRequest)

	// --- 4. Verify the business (direct SQL; the admin account is seeded out of band) ---
	if _, err := pool.Exec(ctx,
		`UPDATE businesses SET verification_status = 'VERIFIED' WHERE id = $1`, businessID); err != nil {
		t.Fatalf("verify business: %v", err)
	}

	// --- 5. Owner configures a menu item ---
	httpJSON(t, server, "POST", "/businesses/me/menu-items", map[string]interface{}{
		"category":        "Signature",
		"name":            "Smoked Dal",
		"is_veg":          true,
		"price_per_plate": "250",
	}, ownerToken, http.StatusCreated)

	// --- 6. Customer submits an order ---
	orderResp := httpJSON(t, server, "POST", "/orders", orderBody(businessID, 10), customerToken, http.StatusCreated)
	orderID := uuid.MustParse(orderResp["order_id"].(string))
	orderNumber := orderResp["order_number"].(string)

	wantPrefix := time.Now().Format("20060102")
	if !strings.HasPrefix(orderNumber, wantPrefix) || !strings.HasSuffix(orderNumber, "0001") {
		t.Fatalf("order number: got %s, want %s0001", orderNumber, wantPrefix)
	}

	// Second order the same day takes the next sequence slot.
	secondResp := httpJSON(t, server, "POST", "/orders", orderBody(businessID, 12), customerToken, http.StatusCreated)
	if got := secondResp["order_number"].(string); !strings.HasSuffix(got, "0002") {
		t.Fatalf("second order number: got %s, want suffix 0002", got)
	}

	// --- 7. Order detail includes sessions and dishes ---
	detail := httpJSON(t, server, "GET", fmt.Sprintf("/orders/%s", orderID), nil, customerToken, http.StatusOK)
	sessions := detail["sessions"].([]interface{})
	if len(sessions) != 1 {
		t.Fatalf("sessions: got %d, want 1", len(sessions))
	}
	items := sessions[0].(map[string]interface{})["menu_items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("menu items: got %d, want 1", len(items))
	}

	// --- 8. Business sees the incoming order and accepts it ---
	incoming := httpJSONList(t, server, "GET", "/orders", ownerToken, http.StatusOK)
	if len(incoming) != 2 {
		t.Fatalf("incoming orders: got %d, want 2", len(incoming))
	}
	httpJSON(t, server, "PATCH", fmt.Sprintf("/orders/%s/status", orderID),
		map[string]string{"status": "ACCEPTED"}, ownerToken, http.StatusOK)

	// Customer can no longer cancel an accepted order.
	httpJSON(t, server, "PATCH", fmt.Sprintf("/orders/%s/status", orderID),
		map[string]string{"status": "CANCELLED"}, customerToken, http.StatusUnprocessableEntity)

	// --- 9. Chat both ways ---
	httpJSON(t, server, "POST", fmt.Sprintf("/orders/%s/messages", orderID),
		map[string]string{"message": "Can you add a dessert counter?"}, customerToken, http.StatusCreated)
	httpJSON(t, server, "POST", fmt.Sprintf("/orders/%s/messages", orderID),
		map[string]string{"message": "Yes, at 80 per plate."}, ownerToken, http.StatusCreated)

	conversation := httpJSONList(t, server, "GET", fmt.Sprintf("/orders/%s/messages", orderID), customerToken, http.StatusOK)
	if len(conversation) != 2 {
		t.Fatalf("messages: got %d, want 2", len(conversation))
	}

	// --- 10. Menu export renders ---
	req, _ := http.NewRequest("GET", server.URL+fmt.Sprintf("/orders/%s/menu.html", orderID), nil)
	req.Header.Set("Authorization", "Bearer "+customerToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("export menu: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status: got %d, want %d", resp.StatusCode, http.StatusOK)
	}

	t.Logf("Integration test passed: container=%s, business=%s, order=%s (%s)",
		pgContainer.GetContainerID(), businessID, orderID, orderNumber)
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("caterlink_test"),
		tcpostgres.WithUsername("caterlink"),
		tcpostgres.WithPassword("caterlink"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return pgContainer, connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Path relative to this test file's package directory (internal/handler/).
	// Go test sets cwd to the package directory.
	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

// --- API helpers ---

func register(t *testing.T, server *httptest.Server, role, name, email string) string {
	t.Helper()
	resp := httpJSON(t, server, "POST", "/auth/register", map[string]string{
		"role":      role,
		"full_name": name,
		"email":     email,
		"password":  "password123",
	}, "", http.StatusCreated)
	token, ok := resp["access_token"].(string)
	if !ok || token == "" {
		t.Fatalf("register %s: no access_token in response: %+v", email, resp)
	}
	return token
}

func orderBody(businessID uuid.UUID, leadDays int) map[string]interface{} {
	return map[string]interface{}{
		"business_id":     businessID.String(),
		"event_type":      "Wedding",
		"food_preference": "veg",
		"service_type":    "DELIVERY",
		"days": []map[string]interface{}{
			{
				"date": time.Now().AddDate(0, 0, leadDays).Format("02/01/2006"),
				"sessions": []map[string]interface{}{
					{
						"name":             "Lunch",
						"time":             "13:00",
						"number_of_people": 100,
						"serving_type":     "Buffet",
						"menu_notes":       "Smoked Dal",
					},
				},
			},
		},
	}
}

func httpJSON(t *testing.T, server *httptest.Server, method, path string, body interface{}, token string, wantStatus int) map[string]interface{} {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status %d, want %d; body: %+v", method, path, resp.StatusCode, wantStatus, decoded)
	}
	return decoded
}

func httpJSONList(t *testing.T, server *httptest.Server, method, path, token string, wantStatus int) []interface{} {
	t.Helper()

	req, err := http.NewRequest(method, server.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status %d, want %d", method, path, resp.StatusCode, wantStatus)
	}
	var decoded []interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	return decoded
}
