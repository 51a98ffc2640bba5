package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shandysiswandi/billease/internal/otp/entity"
	"github.com/shandysiswandi/billease/internal/pkg/goerror"
	"github.com/shandysiswandi/billease/internal/pkg/instrument"
)

// DynamoAPI is the subset of the DynamoDB client used by the store.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// dynamoRecord is keyed by email (partition) and purpose (sort).
// expires_at is the table's TTL attribute in epoch seconds.
type dynamoRecord struct {
	Email     string `dynamodbav:"email"`
	Purpose   string `dynamodbav:"purpose"`
	RecordID  string `dynamodbav:"record_id"`
	CodeHash  string `dynamodbav:"code_hash"`
	CreatedAt int64  `dynamodbav:"created_at"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
}

// Dynamo stores records in a table with native TTL on expires_at.
type Dynamo struct {
	client    DynamoAPI
	table     string
	retention time.Duration
	ins       instrument.Instrumentation
}

func NewDynamo(client DynamoAPI, table string, retention time.Duration, ins instrument.Instrumentation) *Dynamo {
	return &Dynamo{client: client, table: table, retention: retention, ins: ins}
}

func compositeKey(email, purpose string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"email":   &types.AttributeValueMemberS{Value: email},
		"purpose": &types.AttributeValueMemberS{Value: purpose},
	}
}

func (s *Dynamo) Upsert(ctx context.Context, rec entity.OTPRecord) (err error) {
	ctx, span := startSpan(ctx, s.ins, "Dynamo.Upsert")
	defer func() { endSpan(span, err) }()

	item, err := attributevalue.MarshalMap(dynamoRecord{
		Email:     rec.Email,
		Purpose:   rec.Purpose,
		RecordID:  strconv.FormatInt(rec.ID, 10),
		CodeHash:  rec.CodeHash,
		CreatedAt: rec.CreatedAt.UnixMilli(),
		ExpiresAt: rec.CreatedAt.Add(s.retention).Unix(),
	})
	if err != nil {
		return fmt.Errorf("store: marshal dynamo record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	return err
}

func (s *Dynamo) Find(ctx context.Context, email, purpose string) (_ *entity.OTPRecord, err error) {
	ctx, span := startSpan(ctx, s.ins, "Dynamo.Find")
	defer func() { endSpan(span, err) }()

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            compositeKey(email, purpose),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, goerror.ErrNotFound
	}

	var doc dynamoRecord
	if err = attributevalue.UnmarshalMap(out.Item, &doc); err != nil {
		return nil, fmt.Errorf("store: unmarshal dynamo record: %w", err)
	}

	id, err := strconv.ParseInt(doc.RecordID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("store: decode dynamo record id: %w", err)
	}

	return &entity.OTPRecord{
		ID:        id,
		Email:     doc.Email,
		Purpose:   doc.Purpose,
		CodeHash:  doc.CodeHash,
		CreatedAt: time.UnixMilli(doc.CreatedAt).UTC(),
	}, nil
}

func (s *Dynamo) Delete(ctx context.Context, email, purpose string) (err error) {
	ctx, span := startSpan(ctx, s.ins, "Dynamo.Delete")
	defer func() { endSpan(span, err) }()

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       compositeKey(email, purpose),
	})
	return err
}

func (s *Dynamo) Consume(ctx context.Context, email, purpose string, id int64) (_ bool, err error) {
	ctx, span := startSpan(ctx, s.ins, "Dynamo.Consume")
	defer func() { endSpan(span, err) }()

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.table),
		Key:                 compositeKey(email, purpose),
		ConditionExpression: aws.String("record_id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: strconv.FormatInt(id, 10)},
		},
	})

	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		err = nil
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
