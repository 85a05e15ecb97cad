package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/caterlink/api/internal/catalog"
	"github.com/caterlink/api/internal/database"
	"github.com/caterlink/api/internal/draft"
	"github.com/caterlink/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr   error
	rollbackErr error
	commits     int
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error          { m.commits++; return m.commitErr }
func (m *mockTx) Rollback(ctx context.Context) error        { return m.rollbackErr }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx  pgx.Tx
	err error
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.tx, m.err
}

// mockOrderStore implements OrderStore with configurable behavior.
type mockOrderStore struct {
	getProfileFn        func(ctx context.Context, userID uuid.UUID) (database.CustomerProfile, error)
	createProfileFn     func(ctx context.Context, arg database.CreateCustomerProfileParams) (database.CustomerProfile, error)
	getBusinessFn       func(ctx context.Context, id uuid.UUID) (database.Business, error)
	listMenuItemsFn     func(ctx context.Context, businessID uuid.UUID) ([]database.BusinessMenuItem, error)
	getHighestNumberFn  func(ctx context.Context, prefix string) (string, error)
	createOrderFn       func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	createSessionFn     func(ctx context.Context, arg database.CreateOrderSessionParams) (database.OrderSession, error)
	createSessionItemFn func(ctx context.Context, arg database.CreateOrderSessionItemParams) (database.OrderSessionItem, error)
	incrementOrdersFn   func(ctx context.Context, id uuid.UUID) error

	createOrderCalls int
}

func (m *mockOrderStore) GetCustomerProfileByUser(ctx context.Context, userID uuid.UUID) (database.CustomerProfile, error) {
	return m.getProfileFn(ctx, userID)
}
func (m *mockOrderStore) CreateCustomerProfile(ctx context.Context, arg database.CreateCustomerProfileParams) (database.CustomerProfile, error) {
	return m.createProfileFn(ctx, arg)
}
func (m *mockOrderStore) GetBusiness(ctx context.Context, id uuid.UUID) (database.Business, error) {
	return m.getBusinessFn(ctx, id)
}
func (m *mockOrderStore) ListBusinessMenuItems(ctx context.Context, businessID uuid.UUID) ([]database.BusinessMenuItem, error) {
	return m.listMenuItemsFn(ctx, businessID)
}
func (m *mockOrderStore) GetHighestOrderNumber(ctx context.Context, prefix string) (string, error) {
	return m.getHighestNumberFn(ctx, prefix)
}
func (m *mockOrderStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	m.createOrderCalls++
	return m.createOrderFn(ctx, arg)
}
func (m *mockOrderStore) CreateOrderSession(ctx context.Context, arg database.CreateOrderSessionParams) (database.OrderSession, error) {
	return m.createSessionFn(ctx, arg)
}
func (m *mockOrderStore) CreateOrderSessionItem(ctx context.Context, arg database.CreateOrderSessionItemParams) (database.OrderSessionItem, error) {
	return m.createSessionItemFn(ctx, arg)
}
func (m *mockOrderStore) IncrementBusinessOrders(ctx context.Context, id uuid.UUID) error {
	return m.incrementOrdersFn(ctx, id)
}

// --- Test helpers ---

var fixedNow = time.Date(2025, time.November, 28, 9, 0, 0, 0, time.Local)

const todayPrefix = "20251128"

func newTestService(store *mockOrderStore) (*OrderService, *mockTx) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	newStore := func(db database.DBTX) OrderStore { return store }
	svc := NewOrderService(pool, newStore)
	svc.now = func() time.Time { return fixedNow }
	return svc, tx
}

// defaultStore returns a mockOrderStore with sensible defaults for a basic
// submission. Individual tests override the functions they care about.
func defaultStore(userID, businessID uuid.UUID) *mockOrderStore {
	profileID := uuid.New()
	return &mockOrderStore{
		getProfileFn: func(ctx context.Context, uid uuid.UUID) (database.CustomerProfile, error) {
			if uid == userID {
				return database.CustomerProfile{ID: profileID, UserID: userID, DisplayName: "Test Customer"}, nil
			}
			return database.CustomerProfile{}, pgx.ErrNoRows
		},
		createProfileFn: func(ctx context.Context, arg database.CreateCustomerProfileParams) (database.CustomerProfile, error) {
			return database.CustomerProfile{ID: uuid.New(), UserID: arg.UserID, DisplayName: arg.DisplayName}, nil
		},
		getBusinessFn: func(ctx context.Context, id uuid.UUID) (database.Business, error) {
			if id == businessID {
				return database.Business{ID: businessID, VerificationStatus: enum.VerificationVerified}, nil
			}
			return database.Business{}, pgx.ErrNoRows
		},
		listMenuItemsFn: func(ctx context.Context, id uuid.UUID) ([]database.BusinessMenuItem, error) {
			return nil, nil
		},
		getHighestNumberFn: func(ctx context.Context, prefix string) (string, error) {
			return "", pgx.ErrNoRows
		},
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			return database.Order{
				ID:             uuid.New(),
				OrderNumber:    arg.OrderNumber,
				CustomerID:     arg.CustomerID,
				BusinessID:     arg.BusinessID,
				ServiceType:    arg.ServiceType,
				NumberOfPeople: arg.NumberOfPeople,
				Status:         arg.Status,
				EstimatedTotal: arg.EstimatedTotal,
				CreatedBy:      arg.CreatedBy,
			}, nil
		},
		createSessionFn: func(ctx context.Context, arg database.CreateOrderSessionParams) (database.OrderSession, error) {
			return database.OrderSession{
				ID:             uuid.New(),
				OrderID:        arg.OrderID,
				Position:       arg.Position,
				SessionName:    arg.SessionName,
				SessionDate:    arg.SessionDate,
				NumberOfPeople: arg.NumberOfPeople,
				ServingType:    arg.ServingType,
			}, nil
		},
		createSessionItemFn: func(ctx context.Context, arg database.CreateOrderSessionItemParams) (database.OrderSessionItem, error) {
			return database.OrderSessionItem{
				ID:        uuid.New(),
				SessionID: arg.SessionID,
				ItemKey:   arg.ItemKey,
				Name:      arg.Name,
				Category:  arg.Category,
				IsVeg:     arg.IsVeg,
				Quantity:  arg.Quantity,
			}, nil
		},
		incrementOrdersFn: func(ctx context.Context, id uuid.UUID) error { return nil },
	}
}

// lunchDraft builds the canonical single-session draft used across tests.
func lunchDraft(businessID uuid.UUID) *draft.Context {
	d := draft.NewContext()
	d.SetServiceType(enum.ServiceTypeOnSite)
	d.SetBusinessID(businessID.String())
	d.SetFoodPreference(enum.FoodPreferenceVeg)

	e := draft.NewEditor()
	e.SetDate(0, fixedNow.AddDate(0, 0, 10).Format("02/01/2006"))
	e.Days[0].Sessions[0] = draft.EditorSession{
		Name:           "Lunch",
		NumberOfPeople: 100,
		ServingType:    enum.ServingTypeBuffet,
		MenuNotes:      "Paneer Tikka\nButter Naan",
	}
	sessions, _ := e.Finalize(catalog.Default())
	d.SetSessions(sessions)
	return d
}

// --- Tests ---

func TestSubmitOrderHappyPath(t *testing.T) {
	userID := uuid.New()
	businessID := uuid.New()
	store := defaultStore(userID, businessID)
	svc, tx := newTestService(store)

	result, err := svc.SubmitOrder(context.Background(), SubmitOrderRequest{
		UserID:    userID,
		UserName:  "Test Customer",
		UserEmail: "customer@example.com",
		Draft:     lunchDraft(businessID),
	})
	if err != nil {
		t.Fatalf("submit order: %v", err)
	}

	if result.Order.OrderNumber != todayPrefix+"0001" {
		t.Errorf("order number: got %q, want %q", result.Order.OrderNumber, todayPrefix+"0001")
	}
	if result.Order.NumberOfPeople != 100 {
		t.Errorf("number of people: got %d, want 100", result.Order.NumberOfPeople)
	}
	if result.Order.Status != enum.OrderStatusPending {
		t.Errorf("status: got %q, want PENDING", result.Order.Status)
	}
	if len(result.Sessions) != 1 {
		t.Fatalf("sessions: got %d, want 1", len(result.Sessions))
	}

	items := result.Sessions[0].Items
	if len(items) != 2 {
		t.Fatalf("items: got %d, want 2", len(items))
	}
	byName := make(map[string]database.OrderSessionItem)
	for _, it := range items {
		byName[it.Name] = it
	}
	if it, ok := byName["Paneer Tikka"]; !ok || it.Category != "Starters" || !it.IsVeg {
		t.Errorf("Paneer Tikka: %+v", it)
	}
	if it, ok := byName["Butter Naan"]; !ok || it.Category != "Breads" || !it.IsVeg {
		t.Errorf("Butter Naan: %+v", it)
	}

	if tx.commits != 1 {
		t.Errorf("commits: got %d, want 1", tx.commits)
	}
}

func TestSubmitOrderPreconditionOrder(t *testing.T) {
	userID := uuid.New()
	businessID := uuid.New()

	// Empty draft: service type missing wins over everything else.
	store := defaultStore(userID, businessID)
	svc, _ := newTestService(store)
	_, err := svc.SubmitOrder(context.Background(), SubmitOrderRequest{
		UserID: userID,
		Draft:  draft.NewContext(),
	})
	if !errors.Is(err, ErrNoServiceType) {
		t.Errorf("empty draft: got %v, want ErrNoServiceType", err)
	}

	// Service type set, no business.
	d := draft.NewContext()
	d.SetServiceType(enum.ServiceTypeDelivery)
	_, err = svc.SubmitOrder(context.Background(), SubmitOrderRequest{UserID: userID, Draft: d})
	if !errors.Is(err, ErrNoBusiness) {
		t.Errorf("no business: got %v, want ErrNoBusiness", err)
	}

	// Service type and business set, no sessions.
	d.SetBusinessID(businessID.String())
	_, err = svc.SubmitOrder(context.Background(), SubmitOrderRequest{UserID: userID, Draft: d})
	if !errors.Is(err, ErrNoSessions) {
		t.Errorf("no sessions: got %v, want ErrNoSessions", err)
	}

	if store.createOrderCalls != 0 {
		t.Errorf("precondition failures must not reach the database, got %d inserts", store.createOrderCalls)
	}
}

func TestSubmitOrderFallbackBusinessID(t *testing.T) {
	userID := uuid.New()
	businessID := uuid.New()
	store := defaultStore(userID, businessID)
	svc, _ := newTestService(store)

	d := lunchDraft(businessID)
	d.SetBusinessID("") // context never got a caterer; navigation parameter supplies it

	_, err := svc.SubmitOrder(context.Background(), SubmitOrderRequest{
		UserID:             userID,
		UserEmail:          "customer@example.com",
		FallbackBusinessID: businessID.String(),
		Draft:              d,
	})
	if err != nil {
		t.Fatalf("submit with fallback business: %v", err)
	}
}

func TestSubmitOrderBootstrapsProfileFromEmail(t *testing.T) {
	userID := uuid.New()
	businessID := uuid.New()
	store := defaultStore(userID, businessID)

	var createdName string
	store.getProfileFn = func(ctx context.Context, uid uuid.UUID) (database.CustomerProfile, error) {
		return database.CustomerProfile{}, pgx.ErrNoRows
	}
	store.createProfileFn = func(ctx context.Context, arg database.CreateCustomerProfileParams) (database.CustomerProfile, error) {
		createdName = arg.DisplayName
		return database.CustomerProfile{ID: uuid.New(), UserID: arg.UserID, DisplayName: arg.DisplayName}, nil
	}

	svc, _ := newTestService(store)
	_, err := svc.SubmitOrder(context.Background(), SubmitOrderRequest{
		UserID:    userID,
		UserName:  "", // no display name on the account
		UserEmail: "asha.patel@example.com",
		Draft:     lunchDraft(businessID),
	})
	if err != nil {
		t.Fatalf("submit order: %v", err)
	}
	if createdName != "asha.patel" {
		t.Errorf("display name: got %q, want email local part %q", createdName, "asha.patel")
	}
}

func TestNextOrderNumberIncrementsHighest(t *testing.T) {
	userID := uuid.New()
	businessID := uuid.New()
	store := defaultStore(userID, businessID)
	store.getHighestNumberFn = func(ctx context.Context, prefix string) (string, error) {
		if prefix != todayPrefix {
			t.Errorf("prefix: got %q, want %q", prefix, todayPrefix)
		}
		return todayPrefix + "0007", nil
	}

	svc, _ := newTestService(store)
	result, err := svc.SubmitOrder(context.Background(), SubmitOrderRequest{
		UserID:    userID,
		UserEmail: "customer@example.com",
		Draft:     lunchDraft(businessID),
	})
	if err != nil {
		t.Fatalf("submit order: %v", err)
	}
	if result.Order.OrderNumber != todayPrefix+"0008" {
		t.Errorf("order number: got %q, want %q", result.Order.OrderNumber, todayPrefix+"0008")
	}
}

func TestSubmitOrderRetriesOnOrderNumberConflict(t *testing.T) {
	userID := uuid.New()
	businessID := uuid.New()
	store := defaultStore(userID, businessID)

	conflicts := 0
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		if conflicts < 2 {
			conflicts++
			return database.Order{}, &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}
		}
		return database.Order{ID: uuid.New(), OrderNumber: arg.OrderNumber, Status: arg.Status}, nil
	}

	svc, _ := newTestService(store)
	result, err := svc.SubmitOrder(context.Background(), SubmitOrderRequest{
		UserID:    userID,
		UserEmail: "customer@example.com",
		Draft:     lunchDraft(businessID),
	})
	if err != nil {
		t.Fatalf("submit order after retries: %v", err)
	}
	if conflicts != 2 {
		t.Errorf("conflicts consumed: got %d, want 2", conflicts)
	}
	if result == nil {
		t.Fatal("expected a result after successful retry")
	}
}

func TestSubmitOrderGivesUpAfterMaxRetries(t *testing.T) {
	userID := uuid.New()
	businessID := uuid.New()
	store := defaultStore(userID, businessID)
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		return database.Order{}, &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}
	}

	svc, _ := newTestService(store)
	_, err := svc.SubmitOrder(context.Background(), SubmitOrderRequest{
		UserID:    userID,
		UserEmail: "customer@example.com",
		Draft:     lunchDraft(businessID),
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if store.createOrderCalls != maxOrderNumberRetries {
		t.Errorf("attempts: got %d, want %d", store.createOrderCalls, maxOrderNumberRetries)
	}
}

func TestSubmitOrderFailurePreservesDraft(t *testing.T) {
	userID := uuid.New()
	businessID := uuid.New()
	store := defaultStore(userID, businessID)
	store.createSessionFn = func(ctx context.Context, arg database.CreateOrderSessionParams) (database.OrderSession, error) {
		return database.OrderSession{}, errors.New("connection reset")
	}

	svc, tx := newTestService(store)
	d := lunchDraft(businessID)
	_, err := svc.SubmitOrder(context.Background(), SubmitOrderRequest{
		UserID:    userID,
		UserEmail: "customer@example.com",
		Draft:     d,
	})
	if err == nil {
		t.Fatal("expected submission failure")
	}

	// The draft survives for retry and nothing was committed.
	if len(d.Sessions()) != 1 {
		t.Errorf("draft sessions: got %d, want 1", len(d.Sessions()))
	}
	if tx.commits != 0 {
		t.Errorf("commits: got %d, want 0", tx.commits)
	}
}

func TestSubmitOrderRejectsUnverifiedBusiness(t *testing.T) {
	userID := uuid.New()
	businessID := uuid.New()
	store := defaultStore(userID, businessID)
	store.getBusinessFn = func(ctx context.Context, id uuid.UUID) (database.Business, error) {
		return database.Business{ID: businessID, VerificationStatus: enum.VerificationPending}, nil
	}

	svc, _ := newTestService(store)
	_, err := svc.SubmitOrder(context.Background(), SubmitOrderRequest{
		UserID:    userID,
		UserEmail: "customer@example.com",
		Draft:     lunchDraft(businessID),
	})
	if !errors.Is(err, ErrNotVerified) {
		t.Errorf("got %v, want ErrNotVerified", err)
	}
}

func TestSubmitOrderEmptySessionItemsTolerated(t *testing.T) {
	userID := uuid.New()
	businessID := uuid.New()
	store := defaultStore(userID, businessID)
	svc, _ := newTestService(store)

	d := draft.NewContext()
	d.SetServiceType(enum.ServiceTypePickup)
	d.SetBusinessID(businessID.String())
	d.AppendSession(draft.SessionDraft{SessionName: "Lunch", NumberOfPeople: 30})

	result, err := svc.SubmitOrder(context.Background(), SubmitOrderRequest{
		UserID:    userID,
		UserEmail: "customer@example.com",
		Draft:     d,
	})
	if err != nil {
		t.Fatalf("submit order with empty items: %v", err)
	}
	if len(result.Sessions) != 1 || len(result.Sessions[0].Items) != 0 {
		t.Errorf("expected one session with zero items, got %+v", result.Sessions)
	}
}

func TestEstimateTotal(t *testing.T) {
	sessions := []draft.SessionDraft{
		{
			NumberOfPeople: 50,
			MenuItems: map[string]draft.MenuItemDraft{
				"Royal Thali": {Name: "Royal Thali"},
				"Mystery":     {Name: "Something Unpriced"},
			},
		},
	}
	menuItems := []database.BusinessMenuItem{
		{Name: "Royal Thali", PricePerPlate: makeNumeric("250.00")},
	}

	got := estimateTotal(sessions, menuItems)
	want := decimal.NewFromInt(12500)
	if !got.Equal(want) {
		t.Errorf("estimated total: got %s, want %s", got, want)
	}
}

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}
