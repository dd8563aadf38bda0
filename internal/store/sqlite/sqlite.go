package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rentloop/rentloop-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &SQLiteStore{db: db}, nil
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema without migrations.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Schema is the full database schema, applied by the migrate command.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS properties (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id     INTEGER NOT NULL,
	title        TEXT NOT NULL,
	address      TEXT NOT NULL,
	city         TEXT NOT NULL,
	monthly_rent INTEGER NOT NULL,
	bedrooms     INTEGER NOT NULL DEFAULT 1,
	description  TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'available',
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (owner_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS applications (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	property_id  INTEGER NOT NULL,
	applicant_id INTEGER NOT NULL,
	message      TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'pending',
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (property_id) REFERENCES properties(id),
	FOREIGN KEY (applicant_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS contracts (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	property_id  INTEGER NOT NULL,
	owner_id     INTEGER NOT NULL,
	tenant_id    INTEGER NOT NULL,
	monthly_rent INTEGER NOT NULL,
	start_date   DATETIME NOT NULL,
	end_date     DATETIME,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (property_id) REFERENCES properties(id),
	FOREIGN KEY (owner_id) REFERENCES users(id),
	FOREIGN KEY (tenant_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS rent_payments (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	contract_id INTEGER NOT NULL,
	amount      INTEGER NOT NULL,
	period      TEXT NOT NULL,
	paid_at     DATETIME NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (contract_id) REFERENCES contracts(id)
);

CREATE INDEX IF NOT EXISTS idx_properties_city ON properties(city, status);
CREATE INDEX IF NOT EXISTS idx_applications_property ON applications(property_id, status);
CREATE INDEX IF NOT EXISTS idx_applications_applicant ON applications(applicant_id);
CREATE INDEX IF NOT EXISTS idx_contracts_tenant ON contracts(tenant_id);
CREATE INDEX IF NOT EXISTS idx_rent_payments_contract ON rent_payments(contract_id);
`

// InitSchema applies the database schema.
func (s *SQLiteStore) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, email, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, username, email, passwordHash)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, fmt.Errorf("user exists: %w", store.ErrConflict)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	return s.getUser(ctx, `WHERE id = ?`, id)
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	return s.getUser(ctx, `WHERE username = ?`, username)
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	return s.getUser(ctx, `WHERE email = ?`, email)
}

func (s *SQLiteStore) getUser(ctx context.Context, where string, arg any) (*store.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
	` + where
	var user store.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// ==== PropertyStore implementation ====

// CreateProperty persists a new listing and fills in its ID.
func (s *SQLiteStore) CreateProperty(ctx context.Context, p *store.Property) error {
	query := `
		INSERT INTO properties (owner_id, title, address, city, monthly_rent, bedrooms, description, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	if p.Status == "" {
		p.Status = store.PropertyStatusAvailable
	}
	result, err := s.db.ExecContext(ctx, query,
		p.OwnerID, p.Title, p.Address, p.City, p.MonthlyRent, p.Bedrooms, p.Description, string(p.Status))
	if err != nil {
		return fmt.Errorf("insert property: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	p.ID = id
	return nil
}

const propertyColumns = `id, owner_id, title, address, city, monthly_rent, bedrooms, description, status, created_at`

func scanProperty(row interface{ Scan(...any) error }) (*store.Property, error) {
	var p store.Property
	var status string
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Title,
		&p.Address,
		&p.City,
		&p.MonthlyRent,
		&p.Bedrooms,
		&p.Description,
		&status,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = store.PropertyStatus(status)
	return &p, nil
}

// GetPropertyByID retrieves a listing by ID.
func (s *SQLiteStore) GetPropertyByID(ctx context.Context, id int64) (*store.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = ?`
	p, err := scanProperty(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("property: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query property: %w", err)
	}
	return p, nil
}

// ListProperties lists available listings, optionally filtered by city.
func (s *SQLiteStore) ListProperties(ctx context.Context, city string) ([]*store.Property, error) {
	var query string
	var args []any

	if city != "" {
		query = `SELECT ` + propertyColumns + ` FROM properties WHERE status = 'available' AND city = ? ORDER BY created_at DESC`
		args = []any{city}
	} else {
		query = `SELECT ` + propertyColumns + ` FROM properties WHERE status = 'available' ORDER BY created_at DESC`
	}

	return s.queryProperties(ctx, query, args...)
}

// ListPropertiesByOwner lists all listings of one owner.
func (s *SQLiteStore) ListPropertiesByOwner(ctx context.Context, ownerID int64) ([]*store.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE owner_id = ? ORDER BY created_at DESC`
	return s.queryProperties(ctx, query, ownerID)
}

func (s *SQLiteStore) queryProperties(ctx context.Context, query string, args ...any) ([]*store.Property, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	defer rows.Close()

	var properties []*store.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		properties = append(properties, p)
	}

	return properties, rows.Err()
}

// UpdatePropertyStatus moves a listing to a new status.
func (s *SQLiteStore) UpdatePropertyStatus(ctx context.Context, id int64, status store.PropertyStatus) error {
	query := `UPDATE properties SET status = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("update property status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("property: %w", store.ErrNotFound)
	}
	return nil
}

// ==== ApplicationStore implementation ====

// CreateApplication persists a new pending application and fills in its ID.
func (s *SQLiteStore) CreateApplication(ctx context.Context, a *store.Application) error {
	query := `
		INSERT INTO applications (property_id, applicant_id, message, status)
		VALUES (?, ?, ?, 'pending')
	`
	result, err := s.db.ExecContext(ctx, query, a.PropertyID, a.ApplicantID, a.Message)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	a.ID = id
	a.Status = store.ApplicationStatusPending
	return nil
}

const applicationColumns = `id, property_id, applicant_id, message, status, created_at, updated_at`

func scanApplication(row interface{ Scan(...any) error }) (*store.Application, error) {
	var a store.Application
	var status string
	err := row.Scan(
		&a.ID,
		&a.PropertyID,
		&a.ApplicantID,
		&a.Message,
		&status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = store.ApplicationStatus(status)
	return &a, nil
}

// GetApplicationByID retrieves an application by ID.
func (s *SQLiteStore) GetApplicationByID(ctx context.Context, id int64) (*store.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = ?`
	a, err := scanApplication(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("application: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query application: %w", err)
	}
	return a, nil
}

// ListApplicationsForUser lists applications where the user is the applicant
// or owns the property applied for.
func (s *SQLiteStore) ListApplicationsForUser(ctx context.Context, userID int64) ([]*store.Application, error) {
	query := `
		SELECT a.id, a.property_id, a.applicant_id, a.message, a.status, a.created_at, a.updated_at
		FROM applications a
		JOIN properties p ON a.property_id = p.id
		WHERE a.applicant_id = ? OR p.owner_id = ?
		ORDER BY a.created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	var applications []*store.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		applications = append(applications, a)
	}

	return applications, rows.Err()
}

// AcceptApplication atomically accepts one application, rejects the competing
// pending ones, marks the property rented and creates the rental contract.
// Status guards run inside the transaction, so a raced accept on the same
// property fails with store.ErrConflict instead of double-renting it.
func (s *SQLiteStore) AcceptApplication(ctx context.Context, applicationID int64, startDate time.Time) (*store.Contract, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	app, err := scanApplication(tx.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = ?`, applicationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("application: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query application: %w", err)
	}

	property, err := scanProperty(tx.QueryRowContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = ?`, app.PropertyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("property: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query property: %w", err)
	}

	accept := `
		UPDATE applications
		SET status = 'accepted', updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'pending'
	`
	result, err := tx.ExecContext(ctx, accept, app.ID)
	if err != nil {
		return nil, fmt.Errorf("accept application: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	} else if n == 0 {
		return nil, fmt.Errorf("application %d is %s, not pending: %w", app.ID, app.Status, store.ErrConflict)
	}

	rejectOthers := `
		UPDATE applications
		SET status = 'rejected', updated_at = CURRENT_TIMESTAMP
		WHERE property_id = ? AND id != ? AND status = 'pending'
	`
	if _, err := tx.ExecContext(ctx, rejectOthers, app.PropertyID, app.ID); err != nil {
		return nil, fmt.Errorf("reject competing applications: %w", err)
	}

	markRented := `UPDATE properties SET status = 'rented' WHERE id = ? AND status = 'available'`
	result, err = tx.ExecContext(ctx, markRented, app.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("mark property rented: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	} else if n == 0 {
		return nil, fmt.Errorf("property %d is %s, not available: %w", property.ID, property.Status, store.ErrConflict)
	}

	insertContract := `
		INSERT INTO contracts (property_id, owner_id, tenant_id, monthly_rent, start_date)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err = tx.ExecContext(ctx, insertContract,
		property.ID, property.OwnerID, app.ApplicantID, property.MonthlyRent, startDate)
	if err != nil {
		return nil, fmt.Errorf("insert contract: %w", err)
	}

	contractID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.GetContractByID(ctx, contractID)
}

// ==== ContractStore implementation ====

const contractColumns = `id, property_id, owner_id, tenant_id, monthly_rent, start_date, end_date, created_at`

func scanContract(row interface{ Scan(...any) error }) (*store.Contract, error) {
	var c store.Contract
	var endDate sql.NullTime
	err := row.Scan(
		&c.ID,
		&c.PropertyID,
		&c.OwnerID,
		&c.TenantID,
		&c.MonthlyRent,
		&c.StartDate,
		&endDate,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if endDate.Valid {
		c.EndDate = &endDate.Time
	}
	return &c, nil
}

// GetContractByID retrieves a contract by ID.
func (s *SQLiteStore) GetContractByID(ctx context.Context, id int64) (*store.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = ?`
	c, err := scanContract(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("contract: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query contract: %w", err)
	}
	return c, nil
}

// ListContractsForUser lists contracts where the user is owner or tenant.
func (s *SQLiteStore) ListContractsForUser(ctx context.Context, userID int64) ([]*store.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE owner_id = ? OR tenant_id = ? ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query contracts: %w", err)
	}
	defer rows.Close()

	var contracts []*store.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		contracts = append(contracts, c)
	}

	return contracts, rows.Err()
}

// AddRentPayment records one rent payment and fills in its ID.
func (s *SQLiteStore) AddRentPayment(ctx context.Context, p *store.RentPayment) error {
	query := `
		INSERT INTO rent_payments (contract_id, amount, period, paid_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, p.ContractID, p.Amount, p.Period, p.PaidAt)
	if err != nil {
		return fmt.Errorf("insert rent payment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	p.ID = id
	return nil
}

// ListRentPayments lists payments under one contract, oldest first.
func (s *SQLiteStore) ListRentPayments(ctx context.Context, contractID int64) ([]*store.RentPayment, error) {
	query := `
		SELECT id, contract_id, amount, period, paid_at, created_at
		FROM rent_payments
		WHERE contract_id = ?
		ORDER BY paid_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, contractID)
	if err != nil {
		return nil, fmt.Errorf("query rent payments: %w", err)
	}
	defer rows.Close()

	var payments []*store.RentPayment
	for rows.Next() {
		var p store.RentPayment
		if err := rows.Scan(&p.ID, &p.ContractID, &p.Amount, &p.Period, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rent payment: %w", err)
		}
		payments = append(payments, &p)
	}

	return payments, rows.Err()
}

// Ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)
