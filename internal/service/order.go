package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caterlink/api/internal/database"
	"github.com/caterlink/api/internal/draft"
	"github.com/caterlink/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const (
	maxOrderNumberRetries = 3
	orderNumberDateFormat = "20060102"
	firstDailySequence    = 1
)

// Errors returned by the order service. Precondition checks run in this
// order and the first failure wins; each carries its own user-facing message.
var (
	ErrNoServiceType     = errors.New("please select a service type before placing the order")
	ErrNoBusiness        = errors.New("no caterer selected for this order")
	ErrNoSessions        = errors.New("no menu created yet; add at least one session")
	ErrInvalidBusinessID = errors.New("invalid business id")
	ErrBusinessNotFound  = errors.New("caterer not found")
	ErrNotVerified       = errors.New("this caterer is not accepting orders yet")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to submit orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetCustomerProfileByUser(ctx context.Context, userID uuid.UUID) (database.CustomerProfile, error)
	CreateCustomerProfile(ctx context.Context, arg database.CreateCustomerProfileParams) (database.CustomerProfile, error)
	GetBusiness(ctx context.Context, id uuid.UUID) (database.Business, error)
	ListBusinessMenuItems(ctx context.Context, businessID uuid.UUID) ([]database.BusinessMenuItem, error)
	GetHighestOrderNumber(ctx context.Context, prefix string) (string, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderSession(ctx context.Context, arg database.CreateOrderSessionParams) (database.OrderSession, error)
	CreateOrderSessionItem(ctx context.Context, arg database.CreateOrderSessionItemParams) (database.OrderSessionItem, error)
	IncrementBusinessOrders(ctx context.Context, id uuid.UUID) error
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// SubmitOrderRequest carries the authenticated identity, the accumulated
// draft, and the navigation-parameter business fallback used when the draft
// context never had a caterer set.
type SubmitOrderRequest struct {
	UserID             uuid.UUID
	UserName           string
	UserEmail          string
	Notes              string
	FallbackBusinessID string
	Draft              *draft.Context
}

// SubmitOrderResult is the created order with its sessions and items.
type SubmitOrderResult struct {
	Order    database.Order
	Sessions []SessionResult
}

// SessionResult is one persisted session with its items.
type SessionResult struct {
	Session database.OrderSession
	Items   []database.OrderSessionItem
}

// OrderService maps an order draft to its persisted shape and submits it.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
	now      func() time.Time
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore, now: time.Now}
}

// SubmitOrder validates the draft, bootstraps the customer profile, allocates
// a daily order number, and persists the order with its sessions and items in
// one transaction. The business's stats bump rides in the same transaction,
// so a failure at any step leaves no partial order behind. Retries up to
// maxOrderNumberRetries times on order_number unique violations (concurrent
// submissions can compute the same next daily sequence).
//
// On failure the caller must keep the draft intact so the user can retry;
// the draft is reset by the caller only after a confirmed success.
func (s *OrderService) SubmitOrder(ctx context.Context, req SubmitOrderRequest) (*SubmitOrderResult, error) {
	// --- Preconditions, in order; first failure wins ---
	if req.Draft.ServiceType() == "" {
		return nil, ErrNoServiceType
	}

	businessIDStr := req.Draft.BusinessID()
	if businessIDStr == "" {
		businessIDStr = req.FallbackBusinessID
	}
	if businessIDStr == "" {
		return nil, ErrNoBusiness
	}
	businessID, err := uuid.Parse(businessIDStr)
	if err != nil {
		return nil, ErrInvalidBusinessID
	}

	if len(req.Draft.Sessions()) == 0 {
		return nil, ErrNoSessions
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.submitOrderTx(ctx, req, businessID)
		if err == nil {
			return result, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// isOrderNumberConflict checks if the error is a unique constraint violation
// on the order number (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_order_number_key"
	}
	return false
}

func (s *OrderService) submitOrderTx(ctx context.Context, req SubmitOrderRequest, businessID uuid.UUID) (*SubmitOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Verify the target business ---
	business, err := store.GetBusiness(ctx, businessID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("get business: %w", err)
	}
	if business.VerificationStatus != enum.VerificationVerified {
		return nil, ErrNotVerified
	}

	// --- Identity bootstrap: orders reference a customer profile row ---
	profile, err := store.GetCustomerProfileByUser(ctx, req.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		profile, err = store.CreateCustomerProfile(ctx, database.CreateCustomerProfileParams{
			UserID:      req.UserID,
			DisplayName: displayName(req.UserName, req.UserEmail),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("customer profile: %w", err)
	}

	// --- Allocate the daily order number ---
	orderNumber, err := s.nextOrderNumber(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("allocate order number: %w", err)
	}

	// --- Aggregate: head-count is recomputed here, never trusted from a
	// cached field ---
	sessions := req.Draft.Sessions()
	var totalPeople int32
	for _, sess := range sessions {
		totalPeople += sess.NumberOfPeople
	}

	// --- Estimate order value from the business's per-plate pricing ---
	menuItems, err := store.ListBusinessMenuItems(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	estimatedTotal := estimateTotal(sessions, menuItems)

	// --- Insert order ---
	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber:    orderNumber,
		CustomerID:     profile.ID,
		BusinessID:     businessID,
		EventType:      textOrNull(req.Draft.EventType()),
		FoodPreference: textOrNull(req.Draft.FoodPreference()),
		Cuisine:        textOrNull(req.Draft.Cuisine()),
		ServiceType:    req.Draft.ServiceType(),
		Venue:          textOrNull(req.Draft.Venue()),
		NumberOfPeople: totalPeople,
		Status:         enum.OrderStatusPending,
		Notes:          textOrNull(req.Notes),
		EstimatedTotal: decimalToNumeric(estimatedTotal),
		CreatedBy:      req.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// --- Insert sessions and their flattened items ---
	var sessionResults []SessionResult
	for i, sess := range sessions {
		created, err := store.CreateOrderSession(ctx, database.CreateOrderSessionParams{
			OrderID:        order.ID,
			Position:       int32(i),
			SessionName:    sess.SessionName,
			SessionDate:    sess.Date,
			SessionTime:    textOrNull(sess.Time),
			Venue:          textOrNull(req.Draft.Venue()),
			NumberOfPeople: sess.NumberOfPeople,
			ServingType:    textOrNull(sess.ServingType),
		})
		if err != nil {
			return nil, fmt.Errorf("create session %d: %w", i, err)
		}

		// Sessions with zero parsed items still submit with an empty list.
		var items []database.OrderSessionItem
		for key, item := range sess.MenuItems {
			it, err := store.CreateOrderSessionItem(ctx, database.CreateOrderSessionItemParams{
				SessionID: created.ID,
				ItemKey:   key,
				Name:      item.Name,
				Category:  item.Category,
				IsVeg:     item.IsVeg,
				Quantity:  1,
			})
			if err != nil {
				return nil, fmt.Errorf("create session %d item: %w", i, err)
			}
			items = append(items, it)
		}
		sessionResults = append(sessionResults, SessionResult{Session: created, Items: items})
	}

	// --- Bump caterer stats in the same transaction ---
	if err := store.IncrementBusinessOrders(ctx, businessID); err != nil {
		return nil, fmt.Errorf("increment business orders: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &SubmitOrderResult{Order: order, Sessions: sessionResults}, nil
}

// nextOrderNumber derives the next human-readable daily order number:
// YYYYMMDD plus a four-digit zero-padded sequence. The first order of a day
// gets 0001. The unique constraint on order_number makes concurrent
// allocations collide as 23505, handled by the retry loop above.
func (s *OrderService) nextOrderNumber(ctx context.Context, store OrderStore) (string, error) {
	prefix := s.now().Format(orderNumberDateFormat)

	highest, err := store.GetHighestOrderNumber(ctx, prefix)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Sprintf("%s%04d", prefix, firstDailySequence), nil
	}
	if err != nil {
		return "", err
	}

	seq, err := strconv.Atoi(strings.TrimPrefix(highest, prefix))
	if err != nil {
		return "", fmt.Errorf("malformed order number %q: %w", highest, err)
	}
	return fmt.Sprintf("%s%04d", prefix, seq+1), nil
}

// estimateTotal prices the draft against the business's per-plate menu: each
// priced dish contributes price × its session's head-count. Dishes without a
// configured price (custom entries included) contribute nothing.
func estimateTotal(sessions []draft.SessionDraft, menuItems []database.BusinessMenuItem) decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(menuItems))
	for _, mi := range menuItems {
		prices[strings.ToLower(mi.Name)] = numericToDecimal(mi.PricePerPlate)
	}

	total := decimal.Zero
	for _, sess := range sessions {
		people := decimal.NewFromInt32(sess.NumberOfPeople)
		for _, item := range sess.MenuItems {
			if price, ok := prices[strings.ToLower(item.Name)]; ok {
				total = total.Add(price.Mul(people))
			}
		}
	}
	return total
}

// displayName falls back to the email's local part when the account has no
// usable name.
func displayName(name, email string) string {
	if strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

// --- Helpers ---

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
