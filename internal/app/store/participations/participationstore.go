// internal/app/store/participations/participationstore.go
package participationstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/coursehub/internal/domain/errs"
	"github.com/dalemusser/coursehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("participations")}
}

var ErrDuplicateParticipation = errs.Invariant("the subscription line already participates in this seance")

// Create inserts a participation. (seance_id, subscription_line_id) is
// unique (uniq_participations_seance_line).
func (s *Store) Create(ctx context.Context, p models.Participation) (models.Participation, error) {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.PurchaseLineRefs == nil {
		p.PurchaseLineRefs = []string{}
	}
	if p.PurchaseState == "" {
		p.PurchaseState = models.PurchasePending
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Participation{}, ErrDuplicateParticipation
		}
		return models.Participation{}, err
	}
	return p, nil
}

func (s *Store) ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Participation, error) {
	if len(ids) == 0 {
		return []models.Participation{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *Store) BySeances(ctx context.Context, seanceIDs []primitive.ObjectID) ([]models.Participation, error) {
	if len(seanceIDs) == 0 {
		return []models.Participation{}, nil
	}
	return s.find(ctx, bson.M{"seance_id": bson.M{"$in": seanceIDs}})
}

func (s *Store) ByLine(ctx context.Context, lineID primitive.ObjectID) ([]models.Participation, error) {
	return s.find(ctx, bson.M{"subscription_line_id": lineID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Participation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find participations: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Participation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode participations: %w", err)
	}
	return out, nil
}

// SetPurchaseRefs replaces the purchase-order-line refs of a participation.
func (s *Store) SetPurchaseRefs(ctx context.Context, id primitive.ObjectID, refs []string) error {
	if refs == nil {
		refs = []string{}
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"purchase_line_refs": refs}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errs.NotFound("participation", id.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}

// SetPurchaseState sets the procurement state of every given participation.
func (s *Store) SetPurchaseState(ctx context.Context, ids []primitive.ObjectID, state string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.c.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, bson.M{"$set": bson.M{"purchase_state": state}})
	return err
}

// DeleteBySeance removes all participations of a seance.
// Returns the number of documents deleted.
func (s *Store) DeleteBySeance(ctx context.Context, seanceID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"seance_id": seanceID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByLine removes all participations of a subscription line.
// Returns the number of documents deleted.
func (s *Store) DeleteByLine(ctx context.Context, lineID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"subscription_line_id": lineID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

