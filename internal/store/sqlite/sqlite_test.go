package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/rentloop/rentloop-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	st, err := NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func createUser(t *testing.T, st *SQLiteStore, username, email string) *store.User {
	t.Helper()

	user, err := st.CreateUser(context.Background(), username, email, "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func createProperty(t *testing.T, st *SQLiteStore, ownerID int64, city string, rent int64) *store.Property {
	t.Helper()

	p := &store.Property{
		OwnerID:     ownerID,
		Title:       "test flat",
		Address:     "1 Main St",
		City:        city,
		MonthlyRent: rent,
		Bedrooms:    2,
	}
	if err := st.CreateProperty(context.Background(), p); err != nil {
		t.Fatalf("create property: %v", err)
	}
	return p
}

func TestUserLookups(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created := createUser(t, st, "alice", "alice@example.com")

	byName, err := st.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if byName.ID != created.ID || byName.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", byName)
	}

	byEmail, err := st.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatalf("unexpected user: %+v", byEmail)
	}

	if _, err := st.GetUserByUsername(ctx, "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPropertiesFiltersByCityAndStatus(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	owner := createUser(t, st, "owner", "owner@example.com")
	berlin := createProperty(t, st, owner.ID, "Berlin", 120000)
	createProperty(t, st, owner.ID, "Hamburg", 90000)
	rented := createProperty(t, st, owner.ID, "Berlin", 150000)

	if err := st.UpdatePropertyStatus(ctx, rented.ID, store.PropertyStatusRented); err != nil {
		t.Fatalf("update status: %v", err)
	}

	inBerlin, err := st.ListProperties(ctx, "Berlin")
	if err != nil {
		t.Fatalf("list properties: %v", err)
	}
	if len(inBerlin) != 1 || inBerlin[0].ID != berlin.ID {
		t.Fatalf("expected only the available Berlin listing, got %d entries", len(inBerlin))
	}

	all, err := st.ListProperties(ctx, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 available listings, got %d", len(all))
	}

	mine, err := st.ListPropertiesByOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(mine) != 3 {
		t.Fatalf("expected 3 owned listings, got %d", len(mine))
	}
}

func TestAcceptApplication(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	owner := createUser(t, st, "owner", "owner@example.com")
	tenant := createUser(t, st, "tenant", "tenant@example.com")
	rival := createUser(t, st, "rival", "rival@example.com")
	property := createProperty(t, st, owner.ID, "Berlin", 120000)

	winning := &store.Application{PropertyID: property.ID, ApplicantID: tenant.ID, Message: "pick me"}
	losing := &store.Application{PropertyID: property.ID, ApplicantID: rival.ID}
	if err := st.CreateApplication(ctx, winning); err != nil {
		t.Fatalf("create application: %v", err)
	}
	if err := st.CreateApplication(ctx, losing); err != nil {
		t.Fatalf("create application: %v", err)
	}

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	contract, err := st.AcceptApplication(ctx, winning.ID, start)
	if err != nil {
		t.Fatalf("accept application: %v", err)
	}

	if contract.TenantID != tenant.ID || contract.OwnerID != owner.ID {
		t.Fatalf("unexpected contract parties: %+v", contract)
	}
	if contract.MonthlyRent != property.MonthlyRent {
		t.Fatalf("contract rent %d, want %d", contract.MonthlyRent, property.MonthlyRent)
	}

	updated, err := st.GetApplicationByID(ctx, losing.ID)
	if err != nil {
		t.Fatalf("get losing application: %v", err)
	}
	if updated.Status != store.ApplicationStatusRejected {
		t.Fatalf("competing application status %s, want rejected", updated.Status)
	}

	p, err := st.GetPropertyByID(ctx, property.ID)
	if err != nil {
		t.Fatalf("get property: %v", err)
	}
	if p.Status != store.PropertyStatusRented {
		t.Fatalf("property status %s, want rented", p.Status)
	}

	// Accepting a non-pending application must fail.
	if _, err := st.AcceptApplication(ctx, winning.ID, start); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict accepting an already accepted application, got %v", err)
	}
}

func TestAcceptApplicationGuardsAgainstStaleState(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	owner := createUser(t, st, "owner", "owner@example.com")
	tenant := createUser(t, st, "tenant", "tenant@example.com")
	rival := createUser(t, st, "rival", "rival@example.com")
	property := createProperty(t, st, owner.ID, "Berlin", 120000)

	winning := &store.Application{PropertyID: property.ID, ApplicantID: tenant.ID}
	losing := &store.Application{PropertyID: property.ID, ApplicantID: rival.ID}
	if err := st.CreateApplication(ctx, winning); err != nil {
		t.Fatalf("create application: %v", err)
	}
	if err := st.CreateApplication(ctx, losing); err != nil {
		t.Fatalf("create application: %v", err)
	}

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	if _, err := st.AcceptApplication(ctx, winning.ID, start); err != nil {
		t.Fatalf("accept application: %v", err)
	}

	// Revive the rejected competitor, as if a raced accept had passed a
	// pre-transaction pending check before the winner committed.
	if _, err := st.db.ExecContext(ctx, `UPDATE applications SET status = 'pending' WHERE id = ?`, losing.ID); err != nil {
		t.Fatalf("reset application status: %v", err)
	}

	// The property is rented, so the stale accept must fail and no second
	// contract may appear.
	if _, err := st.AcceptApplication(ctx, losing.ID, start); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict for rented property, got %v", err)
	}

	contracts, err := st.ListContractsForUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list contracts: %v", err)
	}
	if len(contracts) != 1 {
		t.Fatalf("expected exactly 1 contract, got %d", len(contracts))
	}
	if contracts[0].TenantID != tenant.ID {
		t.Fatalf("contract belongs to %d, want %d", contracts[0].TenantID, tenant.ID)
	}
}

func TestCreateUserMapsUniqueViolation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	createUser(t, st, "alice", "alice@example.com")

	if _, err := st.CreateUser(ctx, "alice", "other@example.com", "hash"); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}
	if _, err := st.CreateUser(ctx, "alice2", "alice@example.com", "hash"); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}
}

func TestListApplicationsForUserCoversBothSides(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	owner := createUser(t, st, "owner", "owner@example.com")
	tenant := createUser(t, st, "tenant", "tenant@example.com")
	property := createProperty(t, st, owner.ID, "Berlin", 100000)

	app := &store.Application{PropertyID: property.ID, ApplicantID: tenant.ID}
	if err := st.CreateApplication(ctx, app); err != nil {
		t.Fatalf("create application: %v", err)
	}

	for _, userID := range []int64{owner.ID, tenant.ID} {
		apps, err := st.ListApplicationsForUser(ctx, userID)
		if err != nil {
			t.Fatalf("list applications for %d: %v", userID, err)
		}
		if len(apps) != 1 || apps[0].ID != app.ID {
			t.Fatalf("expected the one application for user %d, got %d", userID, len(apps))
		}
	}
}

func TestRentPayments(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	owner := createUser(t, st, "owner", "owner@example.com")
	tenant := createUser(t, st, "tenant", "tenant@example.com")
	property := createProperty(t, st, owner.ID, "Berlin", 100000)

	app := &store.Application{PropertyID: property.ID, ApplicantID: tenant.ID}
	if err := st.CreateApplication(ctx, app); err != nil {
		t.Fatalf("create application: %v", err)
	}
	contract, err := st.AcceptApplication(ctx, app.ID, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("accept application: %v", err)
	}

	for i, period := range []string{"2026-09", "2026-10"} {
		payment := &store.RentPayment{
			ContractID: contract.ID,
			Amount:     contract.MonthlyRent,
			Period:     period,
			PaidAt:     time.Date(2026, time.Month(9+i), 3, 0, 0, 0, 0, time.UTC),
		}
		if err := st.AddRentPayment(ctx, payment); err != nil {
			t.Fatalf("add payment: %v", err)
		}
	}

	payments, err := st.ListRentPayments(ctx, contract.ID)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("expected 2 payments, got %d", len(payments))
	}
	if payments[0].Period != "2026-09" || payments[1].Period != "2026-10" {
		t.Fatalf("payments out of order: %+v", payments)
	}
}
