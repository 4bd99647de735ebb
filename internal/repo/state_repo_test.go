package repo

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// newMigratedDB returns an in-memory database with the full schema.
func newMigratedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := newTestDB(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func seedState(t *testing.T, db *gorm.DB) {
	t.Helper()
	_, _, err := InitState(context.Background(), db, stateFixture())
	if err != nil {
		t.Fatalf("InitState: %v", err)
	}
}

func TestGetState_NotFoundBeforeInit(t *testing.T) {
	db := newMigratedDB(t)
	if _, err := GetState(context.Background(), db); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInitState_StoredRowWins(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()

	first, created, err := InitState(ctx, db, stateFixture())
	if err != nil || !created {
		t.Fatalf("first InitState: created=%v err=%v", created, err)
	}

	other := stateFixture()
	other.Owner = "0xintruder"
	other.RentalAmount = decimal.NewFromInt(1)
	second, created, err := InitState(ctx, db, other)
	if err != nil || created {
		t.Fatalf("second InitState: created=%v err=%v", created, err)
	}
	if second.Owner != first.Owner || !second.RentalAmount.Equal(first.RentalAmount) {
		t.Fatalf("stored row was overwritten: %+v", second)
	}
}

func TestNextNonce_Increments(t *testing.T) {
	db := newMigratedDB(t)
	seedState(t, db)
	ctx := context.Background()

	for want := uint64(0); want < 3; want++ {
		got, err := NextNonce(ctx, db)
		if err != nil || got != want {
			t.Fatalf("NextNonce = %d, %v; want %d", got, err, want)
		}
	}
	st, _ := GetState(ctx, db)
	if st.Nonce != 3 {
		t.Fatalf("stored nonce = %d, want 3", st.Nonce)
	}
}

func TestUpdateRentalAmountAndCurrentDate(t *testing.T) {
	db := newMigratedDB(t)
	seedState(t, db)
	ctx := context.Background()

	if err := UpdateRentalAmount(ctx, db, decimal.NewFromInt(2000000)); err != nil {
		t.Fatalf("UpdateRentalAmount: %v", err)
	}
	if err := SetCurrentDate(ctx, db, "3230323430313031"); err != nil {
		t.Fatalf("SetCurrentDate: %v", err)
	}
	st, err := GetState(ctx, db)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if st.RentalAmount.String() != "2000000" {
		t.Fatalf("rental amount = %s", st.RentalAmount)
	}
	if st.CurrentDate != "3230323430313031" {
		t.Fatalf("current date = %q", st.CurrentDate)
	}
}
