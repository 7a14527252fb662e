// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, e := range []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"sessions", ensureSessions},
		{"seances", ensureSeances},
		{"groups", ensureGroups},
		{"participations", ensureParticipations},
		{"subscription_lines", ensureSubscriptionLines},
		{"stakeholders", ensureStakeholders},
		{"stakeholder_requests", ensureStakeholderRequests},
		{"procurement_orders", ensureProcurementOrders},
		{"invoice_requests", ensureInvoiceRequests},
		{"holiday_periods", ensureHolidayPeriods},
		{"mail_outbox", ensureMailOutbox},
		{"audit_events", ensureAuditEvents},
	} {
		if err := e.fn(ctx, db); err != nil {
			problems = append(problems, e.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolOf(p *bool) bool {
	return p != nil && *p
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

// ensureIndexSet creates each desired index unless an index with the same
// key pattern, uniqueness and name already exists. An index with the same
// keys but a different name or uniqueness is dropped and recreated.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var problems []string
	existing := listIndexes(ctx, coll)

	for _, m := range models {
		name := ""
		unique := false
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = boolOf(m.Options.Unique)
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique),
		}

		if ex, ok := existing[sig]; ok {
			if boolOf(ex.Unique) == unique && (name == "" || ex.Name == name) {
				zap.L().Debug("reusing existing index", fields...)
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				zap.L().Warn("drop existing index failed", append(fields, zap.Error(err))...)
				problems = append(problems, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			zap.L().Warn("index ensure failed", append(fields, zap.Error(err))...)
			if unique && isDuplicateKeyErr(err) {
				problems = append(problems, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name))
			} else {
				problems = append(problems, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			continue
		}
		zap.L().Info("index ensured", append(fields, zap.String("took", time.Since(start).String()))...)
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureSessions(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("sessions"), []mongo.IndexModel{
		// Containing sessions of a seance (every cascade starts here).
		{
			Keys:    bson.D{{Key: "seance_ids", Value: 1}},
			Options: options.Index().SetName("idx_sessions_seance_ids"),
		},
		{
			Keys:    bson.D{{Key: "state", Value: 1}, {Key: "date", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_sessions_state_date__id"),
		},
	})
}

func ensureSeances(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("seances"), []mongo.IndexModel{
		// Bookable seances for an offer.
		{
			Keys: bson.D{
				{Key: "state", Value: 1},
				{Key: "course_id", Value: 1},
				{Key: "date", Value: 1},
			},
			Options: options.Index().SetName("idx_seances_state_course_date"),
		},
		{
			Keys:    bson.D{{Key: "purchase_lines._id", Value: 1}},
			Options: options.Index().SetName("idx_seances_purchase_lines_id"),
		},
	})
}

// --- groups ---
func ensureGroups(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("groups"), []mongo.IndexModel{
		// No duplicate group names inside the same session (case/diacritics-folded via name_ci).
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_groups_session_nameci"),
		},
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_groups_session__id"),
		},
	})
}

func ensureParticipations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("participations"), []mongo.IndexModel{
		// A subscription line attends a seance at most once.
		{
			Keys:    bson.D{{Key: "seance_id", Value: 1}, {Key: "subscription_line_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_participations_seance_line"),
		},
		{
			Keys:    bson.D{{Key: "subscription_line_id", Value: 1}},
			Options: options.Index().SetName("idx_participations_line"),
		},
		{
			Keys:    bson.D{{Key: "purchase_line_refs", Value: 1}},
			Options: options.Index().SetName("idx_participations_purchase_refs"),
		},
	})
}

func ensureSubscriptionLines(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("subscription_lines"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "state", Value: 1}},
			Options: options.Index().SetName("idx_lines_session_state"),
		},
		{
			Keys:    bson.D{{Key: "subscription_id", Value: 1}},
			Options: options.Index().SetName("idx_lines_subscription"),
		},
	})
}

func ensureStakeholders(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("stakeholders"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "seance_id", Value: 1}, {Key: "state", Value: 1}},
			Options: options.Index().SetName("idx_stakeholders_seance_state"),
		},
	})
}

func ensureStakeholderRequests(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("stakeholder_requests"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetName("idx_requests_session"),
		},
	})
}

func ensureProcurementOrders(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("procurement_orders"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "line_refs", Value: 1}},
			Options: options.Index().SetName("idx_orders_line_refs"),
		},
		{
			Keys:    bson.D{{Key: "seance_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_orders_seance_created"),
		},
	})
}

func ensureInvoiceRequests(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("invoice_requests"), []mongo.IndexModel{
		// A subscription line is invoiced once.
		{
			Keys:    bson.D{{Key: "subscription_line_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_invoice_requests_line"),
		},
		{
			Keys:    bson.D{{Key: "state", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_invoice_requests_state_created"),
		},
	})
}

func ensureHolidayPeriods(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("holiday_periods"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "start", Value: 1}, {Key: "end", Value: 1}},
			Options: options.Index().SetName("idx_holidays_start_end"),
		},
	})
}

func ensureMailOutbox(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("mail_outbox"), []mongo.IndexModel{
		// Relay worker polls pending mail oldest first.
		{
			Keys:    bson.D{{Key: "state", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_mail_state_created"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "entity", Value: 1}, {Key: "entity_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_entity_timestamp"),
		},
	})
}
