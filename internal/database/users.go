package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createUser = `
INSERT INTO users (role, full_name, email, hashed_password, phone)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, role, full_name, email, hashed_password, phone, created_at, updated_at
`

type CreateUserParams struct {
	Role           string
	FullName       string
	Email          string
	HashedPassword string
	Phone          pgtype.Text
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser,
		arg.Role, arg.FullName, arg.Email, arg.HashedPassword, arg.Phone)
	var u User
	err := row.Scan(&u.ID, &u.Role, &u.FullName, &u.Email, &u.HashedPassword,
		&u.Phone, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getUserByEmail = `
SELECT id, role, full_name, email, hashed_password, phone, created_at, updated_at
FROM users
WHERE email = $1
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByEmail, email)
	var u User
	err := row.Scan(&u.ID, &u.Role, &u.FullName, &u.Email, &u.HashedPassword,
		&u.Phone, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getUserByID = `
SELECT id, role, full_name, email, hashed_password, phone, created_at, updated_at
FROM users
WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, id)
	var u User
	err := row.Scan(&u.ID, &u.Role, &u.FullName, &u.Email, &u.HashedPassword,
		&u.Phone, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getCustomerProfileByUser = `
SELECT id, user_id, display_name, phone, created_at
FROM customer_profiles
WHERE user_id = $1
`

func (q *Queries) GetCustomerProfileByUser(ctx context.Context, userID uuid.UUID) (CustomerProfile, error) {
	row := q.db.QueryRow(ctx, getCustomerProfileByUser, userID)
	var p CustomerProfile
	err := row.Scan(&p.ID, &p.UserID, &p.DisplayName, &p.Phone, &p.CreatedAt)
	return p, err
}

const createCustomerProfile = `
INSERT INTO customer_profiles (user_id, display_name, phone)
VALUES ($1, $2, $3)
RETURNING id, user_id, display_name, phone, created_at
`

type CreateCustomerProfileParams struct {
	UserID      uuid.UUID
	DisplayName string
	Phone       pgtype.Text
}

func (q *Queries) CreateCustomerProfile(ctx context.Context, arg CreateCustomerProfileParams) (CustomerProfile, error) {
	row := q.db.QueryRow(ctx, createCustomerProfile, arg.UserID, arg.DisplayName, arg.Phone)
	var p CustomerProfile
	err := row.Scan(&p.ID, &p.UserID, &p.DisplayName, &p.Phone, &p.CreatedAt)
	return p, err
}
