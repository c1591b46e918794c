package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/loaves/pkg/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultDatabase is used when the connection URI names none.
	DefaultDatabase = "loaves"

	// DefaultCollection holds one document per session.
	DefaultCollection = "sessions"
)

// document is the stored shape of a session. The session itself is kept as a
// JSON string so its encoding matches the other stores; expires_at drives the
// TTL index.
type document struct {
	ID        string     `bson:"_id"`
	Data      string     `bson:"data"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

// Store implements ports.SessionStore on a MongoDB collection.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
	owned      bool
}

// Option configures the Store.
type Option func(*Store)

// WithClock replaces time.Now when checking expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Connect dials uri and returns a Store on database/collection.
// Empty names fall back to DefaultDatabase and DefaultCollection.
// The returned Store owns the client and disconnects it on Close.
func Connect(ctx context.Context, uri, database, collection string, opts ...Option) (*Store, error) {
	cs := options.Client().ApplyURI(uri)
	if err := cs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mongodb uri: %w", err)
	}

	client, err := mongo.Connect(ctx, cs)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	if database == "" {
		database = DefaultDatabase
	}
	if collection == "" {
		collection = DefaultCollection
	}

	s := New(client.Database(database).Collection(collection), opts...)
	s.client = client
	s.owned = true

	if err := s.EnsureIndexes(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// New creates a Store on an existing collection.
func New(collection *mongo.Collection, opts ...Option) *Store {
	s := &Store{
		client:     collection.Database().Client(),
		collection: collection,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureIndexes creates the TTL index on expires_at. The server removes
// expired documents in the background.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_at_ttl"),
	})
	if err != nil {
		return fmt.Errorf("failed to create ttl index: %w", err)
	}
	return nil
}

// Save upserts the session document.
func (s *Store) Save(ctx context.Context, sessionID string, sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	doc := document{
		ID:        sessionID,
		Data:      string(data),
		UpdatedAt: s.now().UTC(),
	}
	if !sess.ExpiresAt.IsZero() {
		exp := sess.ExpiresAt.UTC()
		doc.ExpiresAt = &exp
	}

	_, err = s.collection.ReplaceOne(ctx, bson.M{"_id": sessionID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load fetches the session. Expiry is checked here too because the TTL
// monitor only runs periodically.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var doc document
	err := s.collection.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal([]byte(doc.Data), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if sess.Expired(s.now()) {
		return nil, domain.ErrSessionNotFound
	}
	return &sess, nil
}

// Delete removes the session document.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": sessionID}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List returns the IDs of sessions that have not expired.
func (s *Store) List(ctx context.Context) ([]string, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"expires_at": bson.M{"$exists": false}},
		bson.M{"expires_at": bson.M{"$gt": s.now().UTC()}},
	}}
	cur, err := s.collection.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer cur.Close(ctx)

	ids := []string{}
	for cur.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode session id: %w", err)
		}
		ids = append(ids, row.ID)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// Collection returns the backing collection.
func (s *Store) Collection() *mongo.Collection {
	return s.collection
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client if the Store created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
