package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/storage"
)

// EnsureActionIndexes creates the unique indexes the action stores rely on
// to report duplicates.
func EnsureActionIndexes(ctx context.Context, db *DB) error {
	indexes := []struct {
		coll string
		key  string
	}{
		{CollNominationRecs, "tag"},
		{CollRefKeyRecords, "stash"},
		{CollNewsletter, "email"},
	}
	for _, idx := range indexes {
		_, err := db.coll(idx.coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: idx.key, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("create %s index on %s: %w", idx.key, idx.coll, translate(err))
		}
	}
	return nil
}

// insertOne inserts a document and records metrics.
func (d *DB) insertOne(ctx context.Context, coll, operation string, doc any) (err error) {
	start := time.Now()
	defer func() { d.observe(operation, start, err) }()

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	if _, err = d.coll(coll).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("%s: %w", operation, translateWrite(err))
	}
	return nil
}

// NominationActionStore implements storage.NominationActionStore on nominationRecords.
type NominationActionStore struct {
	db *DB
}

// NewNominationActionStore creates a new NominationActionStore.
func NewNominationActionStore(db *DB) *NominationActionStore {
	return &NominationActionStore{db: db}
}

// Insert adds a nomination action. Returns ErrDuplicateKey if the tag exists.
func (s *NominationActionStore) Insert(ctx context.Context, a *domain.NominationAction) error {
	if a == nil || a.Tag == "" || a.Stash == "" {
		return storage.ErrInvalidInput
	}
	return s.db.insertOne(ctx, CollNominationRecs, "nomination_records.insert", a)
}

// SetResult records the extrinsic outcome of a tagged action.
func (s *NominationActionStore) SetResult(ctx context.Context, tag, extrinsicHash, refKey string) (err error) {
	start := time.Now()
	defer func() { s.db.observe("nomination_records.set_result", start, err) }()

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	res, err := s.db.coll(CollNominationRecs).UpdateOne(ctx,
		bson.D{{Key: "tag", Value: tag}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "extrinsicHash", Value: extrinsicHash},
			{Key: "refKey", Value: refKey},
		}}},
	)
	if err != nil {
		return fmt.Errorf("set nomination result: %w", translateWrite(err))
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByStash retrieves a stash's nomination action.
func (s *NominationActionStore) GetByStash(ctx context.Context, stash string) (*domain.NominationAction, error) {
	var a domain.NominationAction
	if err := s.db.findOne(ctx, CollNominationRecs, "nomination_records.get_by_stash", bson.D{{Key: "stash", Value: stash}}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// RefKeyStore implements storage.RefKeyStore on refKeyRecords.
type RefKeyStore struct {
	db *DB
}

// NewRefKeyStore creates a new RefKeyStore.
func NewRefKeyStore(db *DB) *RefKeyStore {
	return &RefKeyStore{db: db}
}

// Upsert stores the key of a stash, replacing any previous key.
func (s *RefKeyStore) Upsert(ctx context.Context, r *domain.RefKeyRecord) (err error) {
	if r == nil || r.Stash == "" || r.RefKey == "" {
		return storage.ErrInvalidInput
	}

	start := time.Now()
	defer func() { s.db.observe("ref_key_records.upsert", start, err) }()

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	_, err = s.db.coll(CollRefKeyRecords).UpdateOne(ctx,
		bson.D{{Key: "stash", Value: r.Stash}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "refKey", Value: r.RefKey},
			{Key: "timestamp", Value: r.Timestamp},
		}}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert ref key: %w", translateWrite(err))
	}
	return nil
}

// GetByStash retrieves the key of a stash.
func (s *RefKeyStore) GetByStash(ctx context.Context, stash string) (*domain.RefKeyRecord, error) {
	var r domain.RefKeyRecord
	if err := s.db.findOne(ctx, CollRefKeyRecords, "ref_key_records.get_by_stash", bson.D{{Key: "stash", Value: stash}}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetByKey retrieves the record holding a key.
func (s *RefKeyStore) GetByKey(ctx context.Context, refKey string) (*domain.RefKeyRecord, error) {
	var r domain.RefKeyRecord
	if err := s.db.findOne(ctx, CollRefKeyRecords, "ref_key_records.get_by_key", bson.D{{Key: "refKey", Value: refKey}}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// NewsletterStore implements storage.NewsletterStore on newsletter.
type NewsletterStore struct {
	db *DB
}

// NewNewsletterStore creates a new NewsletterStore.
func NewNewsletterStore(db *DB) *NewsletterStore {
	return &NewsletterStore{db: db}
}

// Insert adds a subscriber. Returns ErrDuplicateKey if the email exists.
func (s *NewsletterStore) Insert(ctx context.Context, sub *domain.NewsletterSubscriber) error {
	if sub == nil || sub.Email == "" {
		return storage.ErrInvalidInput
	}
	return s.db.insertOne(ctx, CollNewsletter, "newsletter.insert", sub)
}

// Compile-time interface checks.
var (
	_ storage.NominationActionStore = (*NominationActionStore)(nil)
	_ storage.RefKeyStore           = (*RefKeyStore)(nil)
	_ storage.NewsletterStore       = (*NewsletterStore)(nil)
)
