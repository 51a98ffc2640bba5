package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shandysiswandi/billease/internal/otp/entity"
	"github.com/shandysiswandi/billease/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo evaluates only the "record_id = :id" condition used by Consume.
type fakeDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	err   error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func itemKey(k map[string]types.AttributeValue) string {
	email := k["email"].(*types.AttributeValueMemberS).Value
	purpose := k["purpose"].(*types.AttributeValueMemberS).Value
	return purpose + ":" + email
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[itemKey(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.items[itemKey(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	k := itemKey(in.Key)
	if in.ConditionExpression != nil {
		item, ok := f.items[k]
		want := in.ExpressionAttributeValues[":id"].(*types.AttributeValueMemberS).Value
		if !ok || item["record_id"].(*types.AttributeValueMemberS).Value != want {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}
	delete(f.items, k)
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDynamo_Contract(t *testing.T) {
	runStoreContract(t, NewDynamo(newFakeDynamo(), "otp_records", DefaultRetention, instrument.NewNoop()))
}

func TestDynamo_ExpiresAtAttribute(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	s := NewDynamo(fake, "otp_records", DefaultRetention, instrument.NewNoop())

	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Upsert(ctx, entity.OTPRecord{ID: 7, Email: "a@b.com", Purpose: "registration", CodeHash: "h", CreatedAt: t0}))

	item := fake.items["registration:a@b.com"]
	require.NotNil(t, item)
	assert.Equal(t, "1772359800", item["expires_at"].(*types.AttributeValueMemberN).Value)
}

func TestDynamo_Errors(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	fake.err = errors.New("throttled")
	s := NewDynamo(fake, "otp_records", DefaultRetention, instrument.NewNoop())

	_, err := s.Find(ctx, "a@b.com", "registration")
	assert.ErrorContains(t, err, "throttled")

	_, err = s.Consume(ctx, "a@b.com", "registration", 1)
	assert.ErrorContains(t, err, "throttled")

	assert.Error(t, s.Upsert(ctx, entity.OTPRecord{Email: "a@b.com", Purpose: "registration"}))
	assert.Error(t, s.Delete(ctx, "a@b.com", "registration"))
}
