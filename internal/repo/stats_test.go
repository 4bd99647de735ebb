package repo

import (
	"context"
	"testing"
)

func TestEventsStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if _, _, err := EventsStats(context.Background(), db, ""); err == nil {
		t.Fatalf("expected error due to missing events table")
	}
}

func TestEventsStats_ZeroRows(t *testing.T) {
	db := newMigratedDB(t)
	count, maxSeq, err := EventsStats(context.Background(), db, "")
	if err != nil {
		t.Fatalf("EventsStats error: %v", err)
	}
	if count != 0 || maxSeq != 0 {
		t.Fatalf("expected (0, 0), got (%d, %d)", count, maxSeq)
	}
}

func TestEventsStats_FilterAndMax(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()

	for _, name := range []string{"ChainlinkRequested", "OracleRequest", "ChainlinkRequested", "RentPaid"} {
		if _, err := AppendEvent(ctx, db, name, "0x01", map[string]string{"n": name}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	count, maxSeq, err := EventsStats(ctx, db, "")
	if err != nil || count != 4 || maxSeq != 4 {
		t.Fatalf("all: got (%d, %d, %v)", count, maxSeq, err)
	}
	count, maxSeq, err = EventsStats(ctx, db, "ChainlinkRequested")
	if err != nil || count != 2 || maxSeq != 3 {
		t.Fatalf("filtered: got (%d, %d, %v)", count, maxSeq, err)
	}
}
