// Package store persists pending OTP records keyed by (email, purpose).
//
// Every driver replaces a record atomically on Upsert and deletes it on
// Consume only while its ID still matches, so two verifiers racing on the
// same record cannot both win. Physical expiry is a retention concern only:
// callers must still compare CreatedAt against the code TTL themselves.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/shandysiswandi/billease/internal/otp/entity"
	"github.com/shandysiswandi/billease/internal/pkg/goerror"
	"github.com/shandysiswandi/billease/internal/pkg/instrument"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverDynamo   = "dynamodb"
)

// DefaultRetention is how long a record physically survives after issuance.
// It is longer than the code TTL so an expired code is reported as expired
// rather than missing.
const DefaultRetention = 600 * time.Second

var (
	// ErrUnknownDriver is returned for an unsupported store.driver.
	ErrUnknownDriver = errors.New("store: unknown driver")
	// ErrMissingClient is returned when the selected driver has no client.
	ErrMissingClient = errors.New("store: client for driver is not configured")
	// ErrRetentionBelowTTL is returned when records would be removed before their code expires.
	ErrRetentionBelowTTL = errors.New("store: retention is shorter than the code ttl")
)

// Store is the expiring record store.
type Store interface {
	// Upsert replaces any record for (rec.Email, rec.Purpose) in one write.
	Upsert(ctx context.Context, rec entity.OTPRecord) error
	// Find returns goerror.ErrNotFound when no record is present.
	Find(ctx context.Context, email, purpose string) (*entity.OTPRecord, error)
	// Delete removes the record if present.
	Delete(ctx context.Context, email, purpose string) error
	// Consume deletes the record only if its ID equals id and reports
	// whether this call performed the delete.
	Consume(ctx context.Context, email, purpose string, id int64) (bool, error)
}

// Sweeper is implemented by drivers without native expiry.
type Sweeper interface {
	// Sweep removes records created before olderThan and returns how many.
	Sweep(ctx context.Context, olderThan time.Time) (int64, error)
}

// SweepStats is implemented by stores that keep counters for their sweeps.
type SweepStats interface {
	// Reaped is the total number of records removed so far.
	Reaped() int64
	// LastSweep is the cutoff of the most recent sweep, zero if none ran.
	LastSweep() time.Time
}

// Retention resolves the physical retention for records whose code lives for
// codeTTL. Zero values fall back to DefaultRetention and entity.DefaultCodeTTL.
func Retention(retention, codeTTL time.Duration) (time.Duration, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if codeTTL <= 0 {
		codeTTL = entity.DefaultCodeTTL
	}
	if retention < codeTTL {
		return 0, fmt.Errorf("%w: retention %s, code ttl %s", ErrRetentionBelowTTL, retention, codeTTL)
	}
	return retention, nil
}

// Options carries the clients for every driver; only the selected one is used.
type Options struct {
	Retention   time.Duration
	CodeTTL     time.Duration
	Redis       redis.UniversalClient
	Postgres    *pgxpool.Pool
	Mongo       *mongo.Database
	Dynamo      *dynamodb.Client
	DynamoTable string
	Instrument  instrument.Instrumentation
}

// Drivers lists the accepted store.driver values.
func Drivers() []string {
	return []string{DriverMemory, DriverRedis, DriverPostgres, DriverMongo, DriverDynamo}
}

// NewFromDriver builds the store selected by driver. An empty driver means memory.
func NewFromDriver(ctx context.Context, driver string, opts Options) (Store, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == "" {
		driver = DriverMemory
	}
	if !lo.Contains(Drivers(), driver) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}

	retention, err := Retention(opts.Retention, opts.CodeTTL)
	if err != nil {
		return nil, err
	}
	opts.Retention = retention
	if opts.Instrument == nil {
		opts.Instrument = instrument.NewNoop()
	}

	switch driver {
	case DriverRedis:
		if opts.Redis == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingClient, driver)
		}
		return NewRedis(opts.Redis, opts.Retention, opts.Instrument), nil
	case DriverPostgres:
		if opts.Postgres == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingClient, driver)
		}
		return NewPostgres(opts.Postgres, opts.Instrument), nil
	case DriverMongo:
		if opts.Mongo == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingClient, driver)
		}
		return NewMongo(ctx, opts.Mongo.Collection(mongoCollection), opts.Retention, opts.Instrument)
	case DriverDynamo:
		if opts.Dynamo == nil || opts.DynamoTable == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingClient, driver)
		}
		return NewDynamo(opts.Dynamo, opts.DynamoTable, opts.Retention, opts.Instrument), nil
	default:
		return NewMemory(), nil
	}
}

func startSpan(ctx context.Context, ins instrument.Instrumentation, name string) (context.Context, trace.Span) {
	return ins.Tracer("otp.outbound.store").Start(ctx, name)
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func key(email, purpose string) string {
	return purpose + ":" + email
}
