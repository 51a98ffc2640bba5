package store

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/billease/internal/otp/entity"
	"github.com/shandysiswandi/billease/internal/pkg/goerror"
	"github.com/shandysiswandi/billease/internal/pkg/instrument"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "otp_records"

type mongoRecord struct {
	RecordID  int64     `bson:"record_id"`
	Email     string    `bson:"email"`
	Purpose   string    `bson:"purpose"`
	CodeHash  string    `bson:"code_hash"`
	CreatedAt time.Time `bson:"created_at"`
}

// Mongo stores one document per (email, purpose) with a TTL index on
// created_at for reaping.
type Mongo struct {
	coll *mongo.Collection
	ins  instrument.Instrumentation
}

// NewMongo ensures the unique key index and the TTL index, then returns the store.
func NewMongo(ctx context.Context, coll *mongo.Collection, retention time.Duration, ins instrument.Instrumentation) (*Mongo, error) {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}, {Key: "purpose", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email_purpose"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(retention / time.Second)).SetName("ttl_created_at"),
		},
	})
	if err != nil {
		return nil, err
	}

	return &Mongo{coll: coll, ins: ins}, nil
}

func filterKey(email, purpose string) bson.D {
	return bson.D{{Key: "email", Value: email}, {Key: "purpose", Value: purpose}}
}

func (s *Mongo) Upsert(ctx context.Context, rec entity.OTPRecord) (err error) {
	ctx, span := startSpan(ctx, s.ins, "Mongo.Upsert")
	defer func() { endSpan(span, err) }()

	_, err = s.coll.ReplaceOne(ctx, filterKey(rec.Email, rec.Purpose), mongoRecord{
		RecordID:  rec.ID,
		Email:     rec.Email,
		Purpose:   rec.Purpose,
		CodeHash:  rec.CodeHash,
		CreatedAt: rec.CreatedAt.UTC(),
	}, options.Replace().SetUpsert(true))
	return err
}

func (s *Mongo) Find(ctx context.Context, email, purpose string) (_ *entity.OTPRecord, err error) {
	ctx, span := startSpan(ctx, s.ins, "Mongo.Find")
	defer func() { endSpan(span, err) }()

	var doc mongoRecord
	err = s.coll.FindOne(ctx, filterKey(email, purpose)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &entity.OTPRecord{
		ID:        doc.RecordID,
		Email:     doc.Email,
		Purpose:   doc.Purpose,
		CodeHash:  doc.CodeHash,
		CreatedAt: doc.CreatedAt,
	}, nil
}

func (s *Mongo) Delete(ctx context.Context, email, purpose string) (err error) {
	ctx, span := startSpan(ctx, s.ins, "Mongo.Delete")
	defer func() { endSpan(span, err) }()

	_, err = s.coll.DeleteOne(ctx, filterKey(email, purpose))
	return err
}

func (s *Mongo) Consume(ctx context.Context, email, purpose string, id int64) (_ bool, err error) {
	ctx, span := startSpan(ctx, s.ins, "Mongo.Consume")
	defer func() { endSpan(span, err) }()

	filter := append(filterKey(email, purpose), bson.E{Key: "record_id", Value: id})
	res, err := s.coll.DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}
