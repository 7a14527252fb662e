// internal/app/store/seances/seancestore.go
package seancestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/coursehub/internal/domain/errs"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("seances")}
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (models.Seance, error) {
	var out models.Seance
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Seance{}, errs.NotFound("seance", id.Hex(), err)
		}
		return models.Seance{}, err
	}
	return out, nil
}

// ByIDs returns the seances with the given ids ordered by date.
func (s *Store) ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Seance, error) {
	if len(ids) == 0 {
		return []models.Seance{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// OpenForCourses lists the bookable seances of the given courses: opened,
// not duplicated, and dated on or after from.
func (s *Store) OpenForCourses(ctx context.Context, courseIDs []primitive.ObjectID, from time.Time) ([]models.Seance, error) {
	if len(courseIDs) == 0 {
		return []models.Seance{}, nil
	}
	return s.find(ctx, bson.M{
		"state":      models.SeanceOpened,
		"course_id":  bson.M{"$in": courseIDs},
		"date":       bson.M{"$gte": from},
		"duplicated": bson.M{"$ne": true},
	})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Seance, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find seances: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Seance{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode seances: %w", err)
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, se models.Seance) (models.Seance, error) {
	now := time.Now().UTC()
	if se.ID.IsZero() {
		se.ID = primitive.NewObjectID()
	}
	if se.State == "" {
		se.State = models.SeanceOpened
	}
	if se.PurchaseLines == nil {
		se.PurchaseLines = []models.PurchaseLine{}
	}
	for i := range se.PurchaseLines {
		if se.PurchaseLines[i].ID.IsZero() {
			se.PurchaseLines[i].ID = primitive.NewObjectID()
		}
		if se.PurchaseLines[i].SupplierIDs == nil {
			se.PurchaseLines[i].SupplierIDs = []primitive.ObjectID{}
		}
	}
	if se.CreatedAt.IsZero() {
		se.CreatedAt = now
	}
	se.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, se); err != nil {
		return models.Seance{}, err
	}
	return se, nil
}

func (s *Store) SetState(ctx context.Context, id primitive.ObjectID, state models.SeanceState) error {
	return s.update(ctx, bson.M{"_id": id}, id, bson.M{"$set": bson.M{"state": state}})
}

func (s *Store) SetLimits(ctx context.Context, id primitive.ObjectID, minLimit, maxLimit int) error {
	return s.update(ctx, bson.M{"_id": id}, id, bson.M{"$set": bson.M{"min_limit": minLimit, "max_limit": maxLimit}})
}

func (s *Store) SetDate(ctx context.Context, id primitive.ObjectID, date time.Time) error {
	return s.update(ctx, bson.M{"_id": id}, id, bson.M{"$set": bson.M{"date": date}})
}

// SetGroup assigns the seance to a group, or clears the assignment when
// groupID is nil.
func (s *Store) SetGroup(ctx context.Context, id primitive.ObjectID, groupID *primitive.ObjectID) error {
	upd := bson.M{"$unset": bson.M{"group_id": ""}}
	if groupID != nil {
		upd = bson.M{"$set": bson.M{"group_id": *groupID}}
	}
	return s.update(ctx, bson.M{"_id": id}, id, upd)
}

// SetProcurement stamps a purchase order id on one of the seance's
// purchase lines.
func (s *Store) SetProcurement(ctx context.Context, id, purchaseLineID primitive.ObjectID, procurementID string) error {
	return s.update(ctx,
		bson.M{"_id": id, "purchase_lines._id": purchaseLineID},
		id,
		bson.M{"$set": bson.M{"purchase_lines.$.procurement_id": procurementID}})
}

func (s *Store) update(ctx context.Context, filter bson.M, id primitive.ObjectID, upd bson.M) error {
	set, _ := upd["$set"].(bson.M)
	if set == nil {
		set = bson.M{}
		upd["$set"] = set
	}
	set["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, filter, upd)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errs.NotFound("seance", id.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}

// Delete removes a seance by ID.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return errs.NotFound("seance", id.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}
