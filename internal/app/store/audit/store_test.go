package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/coursehub/internal/app/store/audit"
	"github.com/dalemusser/coursehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := primitive.NewObjectID()
	err := store.Log(ctx, audit.Event{
		Entity:    audit.EntitySession,
		EntityID:  id,
		EventType: "open",
		From:      "draft",
		To:        "opened",
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.History(ctx, audit.EntitySession, id, 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be generated")
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	if events[0].From != "draft" || events[0].To != "opened" {
		t.Errorf("transition: got %s -> %s", events[0].From, events[0].To)
	}
}

func TestStore_History_IsolatesEntities(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := primitive.NewObjectID()
	other := primitive.NewObjectID()
	base := time.Now().UTC().Add(-time.Hour)
	for i, ev := range []audit.Event{
		{Entity: audit.EntitySeance, EntityID: id, EventType: "confirm", Timestamp: base},
		{Entity: audit.EntitySeance, EntityID: id, EventType: "start", Timestamp: base.Add(time.Minute)},
		{Entity: audit.EntitySeance, EntityID: other, EventType: "confirm", Timestamp: base},
		{Entity: audit.EntitySession, EntityID: id, EventType: "open", Timestamp: base},
	} {
		if err := store.Log(ctx, ev); err != nil {
			t.Fatalf("Log %d failed: %v", i, err)
		}
	}

	events, err := store.History(ctx, audit.EntitySeance, id, 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].EventType != "start" {
		t.Errorf("expected newest first, got %s", events[0].EventType)
	}
}

func TestStore_Query(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	old := now.Add(-48 * time.Hour)
	for _, ev := range []audit.Event{
		{Entity: audit.EntitySession, EntityID: primitive.NewObjectID(), EventType: "cancel", CorrelationID: "c1", Timestamp: now},
		{Entity: audit.EntitySeance, EntityID: primitive.NewObjectID(), EventType: "cancel", CorrelationID: "c1", Timestamp: now},
		{Entity: audit.EntitySession, EntityID: primitive.NewObjectID(), EventType: "open", Timestamp: old},
	} {
		if err := store.Log(ctx, ev); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	since := now.Add(-time.Hour)
	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int
	}{
		{"all", audit.QueryFilter{}, 3},
		{"by entity", audit.QueryFilter{Entity: audit.EntitySession}, 2},
		{"by event type", audit.QueryFilter{EventType: "cancel"}, 2},
		{"by correlation", audit.QueryFilter{CorrelationID: "c1"}, 2},
		{"by time", audit.QueryFilter{StartTime: &since}, 2},
		{"limit", audit.QueryFilter{Limit: 1}, 1},
		{"offset", audit.QueryFilter{Offset: 2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(events) != tt.want {
				t.Errorf("got %d events, want %d", len(events), tt.want)
			}
		})
	}

	n, err := store.CountByFilter(ctx, audit.QueryFilter{EventType: "cancel"})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 2 {
		t.Errorf("count: got %d, want 2", n)
	}
}

func TestStore_GetRecent_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	events, err := store.GetRecent(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected 0 events, got %d", len(events))
	}
}
