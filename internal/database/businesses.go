package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createBusiness = `
INSERT INTO businesses (owner_id, name, cuisine, city, description)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, owner_id, name, cuisine, city, description,
          verification_status, verification_note, total_orders, is_active,
          created_at, updated_at
`

type CreateBusinessParams struct {
	OwnerID     uuid.UUID
	Name        string
	Cuisine     string
	City        string
	Description pgtype.Text
}

func (q *Queries) CreateBusiness(ctx context.Context, arg CreateBusinessParams) (Business, error) {
	row := q.db.QueryRow(ctx, createBusiness,
		arg.OwnerID, arg.Name, arg.Cuisine, arg.City, arg.Description)
	return scanBusiness(row)
}

const getBusiness = `
SELECT id, owner_id, name, cuisine, city, description,
       verification_status, verification_note, total_orders, is_active,
       created_at, updated_at
FROM businesses
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetBusiness(ctx context.Context, id uuid.UUID) (Business, error) {
	return scanBusiness(q.db.QueryRow(ctx, getBusiness, id))
}

const getBusinessByOwner = `
SELECT id, owner_id, name, cuisine, city, description,
       verification_status, verification_note, total_orders, is_active,
       created_at, updated_at
FROM businesses
WHERE owner_id = $1 AND is_active = true
`

func (q *Queries) GetBusinessByOwner(ctx context.Context, ownerID uuid.UUID) (Business, error) {
	return scanBusiness(q.db.QueryRow(ctx, getBusinessByOwner, ownerID))
}

const listVerifiedBusinesses = `
SELECT id, owner_id, name, cuisine, city, description,
       verification_status, verification_note, total_orders, is_active,
       created_at, updated_at
FROM businesses
WHERE is_active = true
  AND verification_status = 'VERIFIED'
  AND ($3::text IS NULL OR cuisine ILIKE $3)
  AND ($4::text IS NULL OR city ILIKE $4)
ORDER BY total_orders DESC, created_at ASC
LIMIT $1 OFFSET $2
`

type ListVerifiedBusinessesParams struct {
	Limit   int32
	Offset  int32
	Cuisine pgtype.Text
	City    pgtype.Text
}

func (q *Queries) ListVerifiedBusinesses(ctx context.Context, arg ListVerifiedBusinessesParams) ([]Business, error) {
	rows, err := q.db.Query(ctx, listVerifiedBusinesses, arg.Limit, arg.Offset, arg.Cuisine, arg.City)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

const updateBusinessVerification = `
UPDATE businesses
SET verification_status = $2, verification_note = $3, updated_at = now()
WHERE id = $1 AND is_active = true
RETURNING id, owner_id, name, cuisine, city, description,
          verification_status, verification_note, total_orders, is_active,
          created_at, updated_at
`

type UpdateBusinessVerificationParams struct {
	ID                 uuid.UUID
	VerificationStatus string
	VerificationNote   pgtype.Text
}

func (q *Queries) UpdateBusinessVerification(ctx context.Context, arg UpdateBusinessVerificationParams) (Business, error) {
	row := q.db.QueryRow(ctx, updateBusinessVerification,
		arg.ID, arg.VerificationStatus, arg.VerificationNote)
	return scanBusiness(row)
}

const incrementBusinessOrders = `
UPDATE businesses
SET total_orders = total_orders + 1, updated_at = now()
WHERE id = $1
`

func (q *Queries) IncrementBusinessOrders(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, incrementBusinessOrders, id)
	return err
}

const createBusinessMenuItem = `
INSERT INTO business_menu_items (business_id, category, name, is_veg, price_per_plate)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, business_id, category, name, is_veg, price_per_plate, is_active, created_at
`

type CreateBusinessMenuItemParams struct {
	BusinessID    uuid.UUID
	Category      string
	Name          string
	IsVeg         bool
	PricePerPlate pgtype.Numeric
}

func (q *Queries) CreateBusinessMenuItem(ctx context.Context, arg CreateBusinessMenuItemParams) (BusinessMenuItem, error) {
	row := q.db.QueryRow(ctx, createBusinessMenuItem,
		arg.BusinessID, arg.Category, arg.Name, arg.IsVeg, arg.PricePerPlate)
	var m BusinessMenuItem
	err := row.Scan(&m.ID, &m.BusinessID, &m.Category, &m.Name, &m.IsVeg,
		&m.PricePerPlate, &m.IsActive, &m.CreatedAt)
	return m, err
}

const listBusinessMenuItems = `
SELECT id, business_id, category, name, is_veg, price_per_plate, is_active, created_at
FROM business_menu_items
WHERE business_id = $1 AND is_active = true
ORDER BY category, name
`

func (q *Queries) ListBusinessMenuItems(ctx context.Context, businessID uuid.UUID) ([]BusinessMenuItem, error) {
	rows, err := q.db.Query(ctx, listBusinessMenuItems, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []BusinessMenuItem
	for rows.Next() {
		var m BusinessMenuItem
		if err := rows.Scan(&m.ID, &m.BusinessID, &m.Category, &m.Name, &m.IsVeg,
			&m.PricePerPlate, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const deleteBusinessMenuItem = `
UPDATE business_menu_items
SET is_active = false
WHERE id = $1 AND business_id = $2
RETURNING id
`

type DeleteBusinessMenuItemParams struct {
	ID         uuid.UUID
	BusinessID uuid.UUID
}

func (q *Queries) DeleteBusinessMenuItem(ctx context.Context, arg DeleteBusinessMenuItemParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, deleteBusinessMenuItem, arg.ID, arg.BusinessID).Scan(&id)
	return id, err
}

type businessRow interface {
	Scan(dest ...any) error
}

func scanBusiness(row businessRow) (Business, error) {
	var b Business
	err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Cuisine, &b.City, &b.Description,
		&b.VerificationStatus, &b.VerificationNote, &b.TotalOrders, &b.IsActive,
		&b.CreatedAt, &b.UpdatedAt)
	return b, err
}
