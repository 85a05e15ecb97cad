package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getHighestOrderNumber = `
SELECT order_number
FROM orders
WHERE order_number LIKE $1 || '%'
ORDER BY order_number DESC
LIMIT 1
`

// GetHighestOrderNumber returns the lexicographically highest order number
// with the given date prefix, or pgx.ErrNoRows when today has none yet.
func (q *Queries) GetHighestOrderNumber(ctx context.Context, prefix string) (string, error) {
	var number string
	err := q.db.QueryRow(ctx, getHighestOrderNumber, prefix).Scan(&number)
	return number, err
}

const createOrder = `
INSERT INTO orders (order_number, customer_id, business_id, event_type,
                    food_preference, cuisine, service_type, venue,
                    number_of_people, status, notes, estimated_total, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING id, order_number, customer_id, business_id, event_type,
          food_preference, cuisine, service_type, venue, number_of_people,
          status, notes, estimated_total, created_by, created_at, updated_at
`

type CreateOrderParams struct {
	OrderNumber    string
	CustomerID     uuid.UUID
	BusinessID     uuid.UUID
	EventType      pgtype.Text
	FoodPreference pgtype.Text
	Cuisine        pgtype.Text
	ServiceType    string
	Venue          pgtype.Text
	NumberOfPeople int32
	Status         string
	Notes          pgtype.Text
	EstimatedTotal pgtype.Numeric
	CreatedBy      uuid.UUID
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.OrderNumber, arg.CustomerID, arg.BusinessID, arg.EventType,
		arg.FoodPreference, arg.Cuisine, arg.ServiceType, arg.Venue,
		arg.NumberOfPeople, arg.Status, arg.Notes, arg.EstimatedTotal, arg.CreatedBy)
	return scanOrder(row)
}

const createOrderSession = `
INSERT INTO order_sessions (order_id, position, session_name, session_date,
                            session_time, venue, number_of_people, serving_type)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, order_id, position, session_name, session_date, session_time,
          venue, number_of_people, serving_type
`

type CreateOrderSessionParams struct {
	OrderID        uuid.UUID
	Position       int32
	SessionName    string
	SessionDate    string
	SessionTime    pgtype.Text
	Venue          pgtype.Text
	NumberOfPeople int32
	ServingType    pgtype.Text
}

func (q *Queries) CreateOrderSession(ctx context.Context, arg CreateOrderSessionParams) (OrderSession, error) {
	row := q.db.QueryRow(ctx, createOrderSession,
		arg.OrderID, arg.Position, arg.SessionName, arg.SessionDate,
		arg.SessionTime, arg.Venue, arg.NumberOfPeople, arg.ServingType)
	var s OrderSession
	err := row.Scan(&s.ID, &s.OrderID, &s.Position, &s.SessionName, &s.SessionDate,
		&s.SessionTime, &s.Venue, &s.NumberOfPeople, &s.ServingType)
	return s, err
}

const createOrderSessionItem = `
INSERT INTO order_session_items (session_id, item_key, name, category, is_veg, quantity)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, session_id, item_key, name, category, is_veg, quantity
`

type CreateOrderSessionItemParams struct {
	SessionID uuid.UUID
	ItemKey   string
	Name      string
	Category  string
	IsVeg     bool
	Quantity  int32
}

func (q *Queries) CreateOrderSessionItem(ctx context.Context, arg CreateOrderSessionItemParams) (OrderSessionItem, error) {
	row := q.db.QueryRow(ctx, createOrderSessionItem,
		arg.SessionID, arg.ItemKey, arg.Name, arg.Category, arg.IsVeg, arg.Quantity)
	var it OrderSessionItem
	err := row.Scan(&it.ID, &it.SessionID, &it.ItemKey, &it.Name, &it.Category,
		&it.IsVeg, &it.Quantity)
	return it, err
}

const getOrder = `
SELECT id, order_number, customer_id, business_id, event_type,
       food_preference, cuisine, service_type, venue, number_of_people,
       status, notes, estimated_total, created_by, created_at, updated_at
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const listOrdersByCustomer = `
SELECT id, order_number, customer_id, business_id, event_type,
       food_preference, cuisine, service_type, venue, number_of_people,
       status, notes, estimated_total, created_by, created_at, updated_at
FROM orders
WHERE created_by = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListOrdersByCustomerParams struct {
	CreatedBy uuid.UUID
	Limit     int32
	Offset    int32
}

func (q *Queries) ListOrdersByCustomer(ctx context.Context, arg ListOrdersByCustomerParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByCustomer, arg.CreatedBy, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

const listOrdersByBusiness = `
SELECT id, order_number, customer_id, business_id, event_type,
       food_preference, cuisine, service_type, venue, number_of_people,
       status, notes, estimated_total, created_by, created_at, updated_at
FROM orders
WHERE business_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListOrdersByBusinessParams struct {
	BusinessID uuid.UUID
	Limit      int32
	Offset     int32
}

func (q *Queries) ListOrdersByBusiness(ctx context.Context, arg ListOrdersByBusinessParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByBusiness, arg.BusinessID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

const updateOrderStatus = `
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING id, order_number, customer_id, business_id, event_type,
          food_preference, cuisine, service_type, venue, number_of_people,
          status, notes, estimated_total, created_by, created_at, updated_at
`

type UpdateOrderStatusParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status))
}

const listOrderSessions = `
SELECT id, order_id, position, session_name, session_date, session_time,
       venue, number_of_people, serving_type
FROM order_sessions
WHERE order_id = $1
ORDER BY position
`

func (q *Queries) ListOrderSessions(ctx context.Context, orderID uuid.UUID) ([]OrderSession, error) {
	rows, err := q.db.Query(ctx, listOrderSessions, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []OrderSession
	for rows.Next() {
		var s OrderSession
		if err := rows.Scan(&s.ID, &s.OrderID, &s.Position, &s.SessionName,
			&s.SessionDate, &s.SessionTime, &s.Venue, &s.NumberOfPeople,
			&s.ServingType); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

const listOrderSessionItems = `
SELECT id, session_id, item_key, name, category, is_veg, quantity
FROM order_session_items
WHERE session_id = $1
ORDER BY name
`

func (q *Queries) ListOrderSessionItems(ctx context.Context, sessionID uuid.UUID) ([]OrderSessionItem, error) {
	rows, err := q.db.Query(ctx, listOrderSessionItems, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderSessionItem
	for rows.Next() {
		var it OrderSessionItem
		if err := rows.Scan(&it.ID, &it.SessionID, &it.ItemKey, &it.Name,
			&it.Category, &it.IsVeg, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type orderRow interface {
	Scan(dest ...any) error
}

func scanOrder(row orderRow) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.BusinessID,
		&o.EventType, &o.FoodPreference, &o.Cuisine, &o.ServiceType, &o.Venue,
		&o.NumberOfPeople, &o.Status, &o.Notes, &o.EstimatedTotal,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func collectOrders(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]Order, error) {
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
