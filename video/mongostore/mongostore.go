// Package mongostore provides a MongoDB implementation of video.Store.
package mongostore

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/vidstream/observability/logger"
	"github.com/rise-and-shine/vidstream/video"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

const fieldUploadDate = "uploadDate"

// Store implements video.Backend on a MongoDB collection.
type Store struct {
	client      *mongo.Client
	coll        *mongo.Collection
	pingTimeout time.Duration

	everConnected atomic.Bool
	closing       atomic.Bool
	closed        atomic.Bool
}

// New creates the client and probes the server once. An unreachable server is not
// fatal: the store reports itself as connecting until the first successful probe.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.ConnectTimeout))
	if err != nil {
		return nil, errx.Wrap(err)
	}

	s := &Store{
		client:      client,
		coll:        client.Database(cfg.Database).Collection(cfg.Collection),
		pingTimeout: cfg.PingTimeout,
	}

	log := logger.Named("mongostore").With("database", cfg.Database, "collection", cfg.Collection)
	if state := s.Status(ctx); state != video.StateConnected {
		log.Warnf("mongodb not reachable yet, state=%s", state)
		return s, nil
	}

	_, err = s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: fieldUploadDate, Value: -1}},
	})
	if err != nil {
		log.Warnx(errx.Wrap(err))
	}
	log.Info("connected to mongodb")
	return s, nil
}

// Status implements video.StatusProvider by pinging the primary.
func (s *Store) Status(ctx context.Context) video.ConnState {
	switch {
	case s.closed.Load():
		return video.StateDisconnected
	case s.closing.Load():
		return video.StateDisconnecting
	}

	ctx, cancel := context.WithTimeout(ctx, s.pingTimeout)
	defer cancel()

	err := s.client.Ping(ctx, readpref.Primary())
	if err == nil {
		s.everConnected.Store(true)
		return video.StateConnected
	}
	if !s.everConnected.Load() {
		return video.StateConnecting
	}
	return video.StateDisconnected
}

// Insert implements video.Store.
func (s *Store) Insert(ctx context.Context, r *video.Record) (*video.Record, error) {
	err := r.Validate()
	if err != nil {
		return nil, err
	}

	doc := toDocument(r)
	if doc.UploadDate.IsZero() {
		doc.UploadDate = time.Now().UTC()
	}
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, s.wrap(err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, errx.New("[mongostore]: unexpected inserted id type",
			errx.WithDetails(errx.D{"inserted_id": res.InsertedID}))
	}
	doc.ID = oid
	rec := doc.toRecord()
	return &rec, nil
}

// GetByID implements video.Store.
func (s *Store) GetByID(ctx context.Context, id string) (*video.Record, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, video.NotFound(id)
	}

	var doc document
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, video.NotFound(id)
	}
	if err != nil {
		return nil, s.wrap(err)
	}
	rec := doc.toRecord()
	return &rec, nil
}

// ListByUploadDateDesc implements video.Store.
func (s *Store) ListByUploadDateDesc(ctx context.Context) ([]video.Record, error) {
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: fieldUploadDate, Value: -1}}))
	if err != nil {
		return nil, s.wrap(err)
	}

	var docs []document
	err = cursor.All(ctx, &docs)
	if err != nil {
		return nil, s.wrap(err)
	}

	out := make([]video.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toRecord())
	}
	return out, nil
}

// UpdateViews implements video.Store.
func (s *Store) UpdateViews(ctx context.Context, id string, views int64) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return video.NotFound(id)
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"views": views}})
	if err != nil {
		return s.wrap(err)
	}
	if res.MatchedCount == 0 {
		return video.NotFound(id)
	}
	return nil
}

// DeleteByID implements video.Store.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return video.NotFound(id)
	}

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return s.wrap(err)
	}
	if res.DeletedCount == 0 {
		return video.NotFound(id)
	}
	return nil
}

// DeleteMany implements video.Store. Ids that are not valid ObjectIDs cannot exist
// in the collection and are skipped.
func (s *Store) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	oids := toObjectIDs(ids)
	if len(oids) == 0 {
		return 0, nil
	}

	res, err := s.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return 0, s.wrap(err)
	}
	return res.DeletedCount, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	s.closing.Store(true)
	err := s.client.Disconnect(ctx)
	s.closed.Store(true)
	if err != nil {
		return errx.Wrap(err)
	}
	return nil
}

func (s *Store) wrap(err error) error {
	if isUnavailable(err) {
		return video.Unavailable(err, video.StateDisconnected)
	}
	return errx.Wrap(err)
}

func isUnavailable(err error) bool {
	var sse topology.ServerSelectionError
	return mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		errors.As(err, &sse)
}

func toObjectIDs(ids []string) []primitive.ObjectID {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		oids = append(oids, oid)
	}
	return oids
}
