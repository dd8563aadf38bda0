package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write loses to a concurrent state change,
// e.g. accepting an application that is no longer pending or inserting a
// duplicate unique value.
var ErrConflict = errors.New("conflict")

// User represents a user in the system. A user can act as an owner
// (listing properties) and as a tenant (applying, renting) at the same time.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// PropertyStatus defines the lifecycle state of a listing.
type PropertyStatus string

const (
	PropertyStatusAvailable PropertyStatus = "available"
	PropertyStatusRented    PropertyStatus = "rented"
	PropertyStatusDelisted  PropertyStatus = "delisted"
)

// Property represents a rental listing.
type Property struct {
	ID          int64
	OwnerID     int64
	Title       string
	Address     string
	City        string
	MonthlyRent int64 // minor currency units
	Bedrooms    int
	Description string
	Status      PropertyStatus
	CreatedAt   time.Time
}

// ApplicationStatus defines the state of a rental application.
type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusAccepted  ApplicationStatus = "accepted"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
	ApplicationStatusWithdrawn ApplicationStatus = "withdrawn"
)

// Application represents a tenant's application for a property.
type Application struct {
	ID          int64
	PropertyID  int64
	ApplicantID int64
	Message     string
	Status      ApplicationStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Contract represents an active or past rental agreement.
type Contract struct {
	ID          int64
	PropertyID  int64
	OwnerID     int64
	TenantID    int64
	MonthlyRent int64
	StartDate   time.Time
	EndDate     *time.Time
	CreatedAt   time.Time
}

// RentPayment is one recorded rent payment under a contract.
type RentPayment struct {
	ID         int64
	ContractID int64
	Amount     int64
	Period     string // e.g. "2026-08"
	PaidAt     time.Time
	CreatedAt  time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// PropertyStore handles listing persistence.
type PropertyStore interface {
	// CreateProperty persists a new listing and fills in its ID.
	CreateProperty(ctx context.Context, p *Property) error

	// GetPropertyByID retrieves a listing by ID.
	GetPropertyByID(ctx context.Context, id int64) (*Property, error)

	// ListProperties lists available listings, optionally filtered by city.
	ListProperties(ctx context.Context, city string) ([]*Property, error)

	// ListPropertiesByOwner lists all listings of one owner.
	ListPropertiesByOwner(ctx context.Context, ownerID int64) ([]*Property, error)

	// UpdatePropertyStatus moves a listing to a new status.
	UpdatePropertyStatus(ctx context.Context, id int64, status PropertyStatus) error
}

// ApplicationStore handles rental application persistence.
type ApplicationStore interface {
	// CreateApplication persists a new pending application and fills in its ID.
	CreateApplication(ctx context.Context, a *Application) error

	// GetApplicationByID retrieves an application by ID.
	GetApplicationByID(ctx context.Context, id int64) (*Application, error)

	// ListApplicationsForUser lists applications where the user is the
	// applicant or owns the property applied for.
	ListApplicationsForUser(ctx context.Context, userID int64) ([]*Application, error)

	// AcceptApplication atomically accepts one application, rejects the
	// competing pending ones, marks the property rented and creates the
	// rental contract.
	AcceptApplication(ctx context.Context, applicationID int64, startDate time.Time) (*Contract, error)
}

// ContractStore handles contract and payment persistence.
type ContractStore interface {
	// GetContractByID retrieves a contract by ID.
	GetContractByID(ctx context.Context, id int64) (*Contract, error)

	// ListContractsForUser lists contracts where the user is owner or tenant.
	ListContractsForUser(ctx context.Context, userID int64) ([]*Contract, error)

	// AddRentPayment records one rent payment and fills in its ID.
	AddRentPayment(ctx context.Context, p *RentPayment) error

	// ListRentPayments lists payments under one contract, oldest first.
	ListRentPayments(ctx context.Context, contractID int64) ([]*RentPayment, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	PropertyStore
	ApplicationStore
	ContractStore

	// Close closes the underlying database connection.
	Close() error
}
