package indexes_test

import (
	"context"
	"testing"

	"github.com/dalemusser/coursehub/internal/app/system/indexes"
	"github.com/dalemusser/coursehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, ctx context.Context, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			t.Fatalf("Decode index failed: %v", err)
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	tests := []struct {
		coll  string
		names []string
	}{
		{"sessions", []string{"idx_sessions_seance_ids", "idx_sessions_state_date__id"}},
		{"seances", []string{"idx_seances_state_course_date", "idx_seances_purchase_lines_id"}},
		{"groups", []string{"uniq_groups_session_nameci", "idx_groups_session__id"}},
		{"participations", []string{"uniq_participations_seance_line", "idx_participations_line", "idx_participations_purchase_refs"}},
		{"subscription_lines", []string{"idx_lines_session_state", "idx_lines_subscription"}},
		{"procurement_orders", []string{"idx_orders_line_refs", "idx_orders_seance_created"}},
		{"invoice_requests", []string{"uniq_invoice_requests_line"}},
		{"holiday_periods", []string{"idx_holidays_start_end"}},
		{"mail_outbox", []string{"idx_mail_state_created"}},
		{"audit_events", []string{"idx_audit_entity_timestamp"}},
	}
	for _, tt := range tests {
		t.Run(tt.coll, func(t *testing.T) {
			got := indexNames(t, ctx, db, tt.coll)
			for _, name := range tt.names {
				if !got[name] {
					t.Errorf("expected index %q to exist on %s", name, tt.coll)
				}
			}
		})
	}
}

func TestEnsureAll_RenamesMismatchedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Same keys as idx_lines_subscription under an older name.
	_, err := db.Collection("subscription_lines").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "subscription_id", Value: 1}},
	})
	if err != nil {
		t.Fatalf("create legacy index: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	got := indexNames(t, ctx, db, "subscription_lines")
	if !got["idx_lines_subscription"] {
		t.Error("expected legacy index to be recreated under its desired name")
	}
	if got["subscription_id_1"] {
		t.Error("legacy index name still present")
	}
}

func TestEnsureAll_UniqueIndexEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	seanceID := primitive.NewObjectID()
	lineID := primitive.NewObjectID()
	coll := db.Collection("participations")
	if _, err := coll.InsertOne(ctx, bson.M{"seance_id": seanceID, "subscription_line_id": lineID}); err != nil {
		t.Fatalf("Insert participation failed: %v", err)
	}
	if _, err := coll.InsertOne(ctx, bson.M{"seance_id": seanceID, "subscription_line_id": lineID}); err == nil {
		t.Error("expected duplicate key error for the same line on the same seance")
	}
}
