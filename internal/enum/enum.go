package enum

// ── State machines (CHECK constrained in DB) ──

const (
	OrderStatusPending    = "PENDING"
	OrderStatusAccepted   = "ACCEPTED"
	OrderStatusInProgress = "IN_PROGRESS"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusRejected   = "REJECTED"
	OrderStatusCancelled  = "CANCELLED"
)

const (
	VerificationPending  = "PENDING"
	VerificationVerified = "VERIFIED"
	VerificationRejected = "REJECTED"
)

const (
	UserRoleCustomer = "CUSTOMER"
	UserRoleBusiness = "BUSINESS"
	UserRoleAdmin    = "ADMIN" // seeded out of band; registration never creates admins
)

const (
	FoodPreferenceVeg    = "veg"
	FoodPreferenceNonVeg = "non-veg"
	FoodPreferenceMixed  = "mixed"
)

// ── Configurable labels (no DB constraint) ──

const (
	ServingTypeBuffet      = "Buffet"
	ServingTypePlated      = "Plated"
	ServingTypeFamilyStyle = "Family Style"
	ServingTypeLiveCounter = "Live Counter"
	ServingTypeOther       = "Other"
)

const (
	ServiceTypeDelivery = "DELIVERY"
	ServiceTypeOnSite   = "ON_SITE"
	ServiceTypePickup   = "PICKUP"
)
