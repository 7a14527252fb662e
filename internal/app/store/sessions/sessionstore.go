// internal/app/store/sessions/sessionstore.go
package sessionstore

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

// Store persists training sessions.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sessions")}
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (models.Session, error) {
	var out models.Session
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Session{}, errs.NotFound("session", id.Hex(), err)
		}
		return models.Session{}, err
	}
	return out, nil
}

// ByIDs returns the sessions with the given ids ordered by date.
func (s *Store) ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Session, error) {
	if len(ids) == 0 {
		return []models.Session{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// BySeance returns every session containing the seance, ordered by date.
func (s *Store) BySeance(ctx context.Context, seanceID primitive.ObjectID) ([]models.Session, error) {
	return s.find(ctx, bson.M{"seance_ids": seanceID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find sessions: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Session{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, sess models.Session) (models.Session, error) {
	now := time.Now().UTC()
	if sess.ID.IsZero() {
		sess.ID = primitive.NewObjectID()
	}
	if sess.SeanceIDs == nil {
		sess.SeanceIDs = []primitive.ObjectID{}
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, sess); err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

func (s *Store) SetState(ctx context.Context, id primitive.ObjectID, state models.SessionState) error {
	return s.set(ctx, id, bson.M{"state": state})
}

// SetLimits writes the cached capacity limits.
func (s *Store) SetLimits(ctx context.Context, id primitive.ObjectID, minLimit, maxLimit int) error {
	return s.set(ctx, id, bson.M{"min_limit": minLimit, "max_limit": maxLimit})
}

// SetSeances replaces the session's seance list.
func (s *Store) SetSeances(ctx context.Context, id primitive.ObjectID, seanceIDs []primitive.ObjectID) error {
	if seanceIDs == nil {
		seanceIDs = []primitive.ObjectID{}
	}
	return s.set(ctx, id, bson.M{"seance_ids": seanceIDs})
}

func (s *Store) SetDate(ctx context.Context, id primitive.ObjectID, date time.Time) error {
	return s.set(ctx, id, bson.M{"date": date})
}

func (s *Store) set(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errs.NotFound("session", id.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}

// Delete removes a session by ID.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return errs.NotFound("session", id.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}
