package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wipefix/wipefix/backend/go-services/internal/brokerpack"
	"github.com/wipefix/wipefix/backend/go-services/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo stores packs in one collection keyed by _id = version, and the
// latest pointer as the single {_id: "latest"} document of a meta collection.
// Version uniqueness is enforced by MongoDB's unique _id index.
type MongoRepo struct {
	packs *mongo.Collection
	meta  *mongo.Collection
}

func NewMongoRepo(packs, meta *mongo.Collection) *MongoRepo {
	// index used by the fallback scan
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	idxModel := mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: -1}}}
	if _, err := packs.Indexes().CreateOne(ctx, idxModel); err != nil {
		logger.Warnf("broker packs: could not ensure created_at index: %v", err)
	}
	return &MongoRepo{packs: packs, meta: meta}
}

func (m *MongoRepo) Insert(ctx context.Context, p *brokerpack.StoredPack) error {
	if _, err := m.packs.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateVersion
		}
		return fmt.Errorf("insert broker pack %q: %w", p.ID, err)
	}
	return nil
}

func (m *MongoRepo) FindByVersion(ctx context.Context, version string) (*brokerpack.StoredPack, error) {
	return m.findOne(ctx, bson.M{"_id": version}, nil)
}

func (m *MongoRepo) FindNewest(ctx context.Context) (*brokerpack.StoredPack, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "version", Value: -1}})
	return m.findOne(ctx, bson.M{}, opts)
}

func (m *MongoRepo) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*brokerpack.StoredPack, error) {
	var p brokerpack.StoredPack
	var res *mongo.SingleResult
	if opts != nil {
		res = m.packs.FindOne(ctx, filter, opts)
	} else {
		res = m.packs.FindOne(ctx, filter)
	}
	if err := res.Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find broker pack: %w", err)
	}
	return &p, nil
}

func (m *MongoRepo) GetPointer(ctx context.Context) (*brokerpack.LatestPointer, error) {
	var p brokerpack.LatestPointer
	if err := m.meta.FindOne(ctx, bson.M{"_id": brokerpack.PointerID}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find latest pointer: %w", err)
	}
	return &p, nil
}

func (m *MongoRepo) UpsertPointer(ctx context.Context, p brokerpack.LatestPointer) error {
	filter := bson.M{"_id": brokerpack.PointerID}
	set := bson.M{"$set": bson.M{"version": p.Version, "updated_at": p.UpdatedAt}}
	opts := options.Update().SetUpsert(true)
	if _, err := m.meta.UpdateOne(ctx, filter, set, opts); err != nil {
		return fmt.Errorf("upsert latest pointer: %w", err)
	}
	return nil
}

func (m *MongoRepo) Ping(ctx context.Context) error {
	return m.packs.Database().Client().Ping(ctx, nil)
}
