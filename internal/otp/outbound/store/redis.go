package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/billease/internal/otp/entity"
	"github.com/shandysiswandi/billease/internal/pkg/goerror"
	"github.com/shandysiswandi/billease/internal/pkg/instrument"
)

// consumeScript deletes KEYS[1] only when its stored id equals ARGV[1].
var consumeScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
	return 0
end
local rec = cjson.decode(raw)
if rec.id ~= ARGV[1] then
	return 0
end
redis.call('DEL', KEYS[1])
return 1
`)

type redisRecord struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Purpose   string    `json:"purpose"`
	CodeHash  string    `json:"code_hash"`
	CreatedAt time.Time `json:"created_at"`
}

// Redis stores each record as a JSON string with a native EX expiry.
type Redis struct {
	client    redis.UniversalClient
	retention time.Duration
	prefix    string
	ins       instrument.Instrumentation
}

func NewRedis(client redis.UniversalClient, retention time.Duration, ins instrument.Instrumentation) *Redis {
	return &Redis{
		client:    client,
		retention: retention,
		prefix:    "otp:",
		ins:       ins,
	}
}

func (s *Redis) key(email, purpose string) string {
	return s.prefix + key(email, purpose)
}

func (s *Redis) Upsert(ctx context.Context, rec entity.OTPRecord) (err error) {
	ctx, span := startSpan(ctx, s.ins, "Redis.Upsert")
	defer func() { endSpan(span, err) }()

	body, err := json.Marshal(redisRecord{
		ID:        strconv.FormatInt(rec.ID, 10),
		Email:     rec.Email,
		Purpose:   rec.Purpose,
		CodeHash:  rec.CodeHash,
		CreatedAt: rec.CreatedAt.UTC(),
	})
	if err != nil {
		return err
	}

	err = s.client.Set(ctx, s.key(rec.Email, rec.Purpose), body, s.retention).Err()
	return err
}

func (s *Redis) Find(ctx context.Context, email, purpose string) (_ *entity.OTPRecord, err error) {
	ctx, span := startSpan(ctx, s.ins, "Redis.Find")
	defer func() { endSpan(span, err) }()

	raw, err := s.client.Get(ctx, s.key(email, purpose)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rr redisRecord
	if err = json.Unmarshal(raw, &rr); err != nil {
		return nil, fmt.Errorf("store: decode redis record: %w", err)
	}

	id, err := strconv.ParseInt(rr.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("store: decode redis record id: %w", err)
	}

	return &entity.OTPRecord{
		ID:        id,
		Email:     rr.Email,
		Purpose:   rr.Purpose,
		CodeHash:  rr.CodeHash,
		CreatedAt: rr.CreatedAt,
	}, nil
}

func (s *Redis) Delete(ctx context.Context, email, purpose string) (err error) {
	ctx, span := startSpan(ctx, s.ins, "Redis.Delete")
	defer func() { endSpan(span, err) }()

	err = s.client.Del(ctx, s.key(email, purpose)).Err()
	return err
}

func (s *Redis) Consume(ctx context.Context, email, purpose string, id int64) (_ bool, err error) {
	ctx, span := startSpan(ctx, s.ins, "Redis.Consume")
	defer func() { endSpan(span, err) }()

	n, err := consumeScript.Run(ctx, s.client, []string{s.key(email, purpose)}, strconv.FormatInt(id, 10)).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
