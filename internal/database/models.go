package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID             uuid.UUID
	Role           string
	FullName       string
	Email          string
	HashedPassword string
	Phone          pgtype.Text
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CustomerProfile is the row orders reference. It is created lazily on the
// first submission if registration predates the profile table.
type CustomerProfile struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	DisplayName string
	Phone       pgtype.Text
	CreatedAt   time.Time
}

type Business struct {
	ID                 uuid.UUID
	OwnerID            uuid.UUID
	Name               string
	Cuisine            string
	City               string
	Description        pgtype.Text
	VerificationStatus string
	VerificationNote   pgtype.Text
	TotalOrders        int32
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type BusinessMenuItem struct {
	ID            uuid.UUID
	BusinessID    uuid.UUID
	Category      string
	Name          string
	IsVeg         bool
	PricePerPlate pgtype.Numeric
	IsActive      bool
	CreatedAt     time.Time
}

type Order struct {
	ID             uuid.UUID
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
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OrderSession struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	Position       int32
	SessionName    string
	SessionDate    string
	SessionTime    pgtype.Text
	Venue          pgtype.Text
	NumberOfPeople int32
	ServingType    pgtype.Text
}

type OrderSessionItem struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	ItemKey   string
	Name      string
	Category  string
	IsVeg     bool
	Quantity  int32
}

type ChatMessage struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	SenderID  uuid.UUID
	Message   string
	IsRead    bool
	CreatedAt time.Time
}
