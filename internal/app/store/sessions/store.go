// internal/app/store/sessions/store.go
package sessions

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Session end reasons.
const (
	EndedByLogout   = "logout"
	EndedByInactive = "inactive"
)

// Session tracks one sign-in for activity auditing. It is unrelated to the
// cookie session; this is the durable record of who was signed in and when.
type Session struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	UserID primitive.ObjectID `bson:"user_id"`

	LoginAt      time.Time  `bson:"login_at"`
	LogoutAt     *time.Time `bson:"logout_at,omitempty"`
	LastActiveAt time.Time  `bson:"last_active_at"`

	Provider  string `bson:"provider,omitempty"` // password | google
	EndReason string `bson:"end_reason,omitempty"`
	IP        string `bson:"ip"`
	UserAgent string `bson:"user_agent,omitempty"`

	DurationSecs int64 `bson:"duration_secs,omitempty"`
}

// Store manages sign-in session records.
type Store struct {
	c *mongo.Collection
}

// New creates a new sessions Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sessions")}
}

// Create records a fresh sign-in.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, provider, ip, userAgent string) (Session, error) {
	now := time.Now().UTC()
	sess := Session{
		ID:           primitive.NewObjectID(),
		UserID:       userID,
		LoginAt:      now,
		LastActiveAt: now,
		Provider:     provider,
		IP:           ip,
		UserAgent:    userAgent,
	}
	if _, err := s.c.InsertOne(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Touch bumps the session's last-active time.
func (s *Store) Touch(ctx context.Context, sessionID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, sessionID, bson.M{
		"$set": bson.M{"last_active_at": time.Now().UTC()},
	})
	return err
}

// Close marks the session ended with the given reason and computes its
// duration. Closing an already-closed session is a no-op.
func (s *Store) Close(ctx context.Context, sessionID primitive.ObjectID, reason string) error {
	var sess Session
	if err := s.c.FindOne(ctx, bson.M{"_id": sessionID, "logout_at": nil}).Decode(&sess); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil
		}
		return err
	}
	now := time.Now().UTC()
	_, err := s.c.UpdateByID(ctx, sessionID, bson.M{"$set": bson.M{
		"logout_at":     now,
		"end_reason":    reason,
		"duration_secs": int64(now.Sub(sess.LoginAt).Seconds()),
	}})
	return err
}

// CloseExpired ends every open session idle past the threshold. Sessions are
// marked ended rather than deleted so the audit trail survives.
func (s *Store) CloseExpired(ctx context.Context, idle time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-idle)
	now := time.Now().UTC()
	res, err := s.c.UpdateMany(ctx,
		bson.M{"logout_at": nil, "last_active_at": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{
			"logout_at":  now,
			"end_reason": EndedByInactive,
		}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// RecentByUser returns the user's sign-in history, newest first.
func (s *Store) RecentByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]Session, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "login_at", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var sessions []Session
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}
