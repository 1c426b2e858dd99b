package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/ports"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

// SaveLock serializes saves of one (user, topic) pair with a conditional
// put. The lock item carries both an ExpiresAt attribute checked on
// acquisition and a DynamoDB TTL, so an owner that dies mid-save cannot
// hold the pair past the lease.
type SaveLock struct {
	client    *dynamodb.Client
	tableName string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewSaveLock creates a save lock with the given lease duration.
func NewSaveLock(client *dynamodb.Client, tableName string, ttl time.Duration, logger *zap.Logger) *SaveLock {
	return &SaveLock{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
		logger:    logger,
	}
}

var _ ports.SaveLocker = (*SaveLock)(nil)

type lockItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	LockID     string `dynamodbav:"LockID"`
	Owner      string `dynamodbav:"Owner"`
	AcquiredAt string `dynamodbav:"AcquiredAt"`
	ExpiresAt  string `dynamodbav:"ExpiresAt"`
	TTL        int64  `dynamodbav:"TTL"`
}

func lockPK(userID, topic string) string {
	return fmt.Sprintf("LOCK#%s#%s", userID, topic)
}

// Acquire takes the lock for a (user, topic) pair and returns the release
// function. A live lock held by another save surfaces as a conflict.
func (l *SaveLock) Acquire(ctx context.Context, userID, topic string) (func(context.Context) error, error) {
	lockID := uuid.NewString()
	now := time.Now().UTC()
	expiresAt := now.Add(l.ttl)

	item := map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: lockPK(userID, topic)},
		"SK":         &types.AttributeValueMemberS{Value: "LOCK"},
		"LockID":     &types.AttributeValueMemberS{Value: lockID},
		"Owner":      &types.AttributeValueMemberS{Value: userID},
		"AcquiredAt": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		"ExpiresAt":  &types.AttributeValueMemberS{Value: expiresAt.Format(time.RFC3339)},
		"TTL":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expiresAt.Unix())},
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(l.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) OR ExpiresAt < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	}

	if _, err := l.client.PutItem(ctx, input); err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			l.logger.Debug("Save lock already held",
				zap.String("userID", userID),
				zap.String("topic", topic),
			)
			return nil, pkgerrors.NewConflictError("another save of this topic is in progress").
				WithCode("SAVE_IN_PROGRESS").
				WithDetails(map[string]interface{}{"topic": topic})
		}
		return nil, pkgerrors.NewDatabaseError("acquire save lock", err)
	}

	l.logger.Debug("Save lock acquired",
		zap.String("userID", userID),
		zap.String("topic", topic),
		zap.String("lockID", lockID),
		zap.Duration("ttl", l.ttl),
	)

	release := func(ctx context.Context) error {
		return l.release(ctx, userID, topic, lockID)
	}
	return release, nil
}

// release deletes the lock item if this acquisition still owns it. A lock
// that expired and was taken over belongs to the new owner, so a failed
// ownership check is not an error.
func (l *SaveLock) release(ctx context.Context, userID, topic, lockID string) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(l.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lockPK(userID, topic)},
			"SK": &types.AttributeValueMemberS{Value: "LOCK"},
		},
		ConditionExpression: aws.String("LockID = :lockID"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lockID": &types.AttributeValueMemberS{Value: lockID},
		},
	}

	if _, err := l.client.DeleteItem(ctx, input); err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			l.logger.Warn("Save lock expired before release",
				zap.String("userID", userID),
				zap.String("topic", topic),
				zap.String("lockID", lockID),
			)
			return nil
		}
		return pkgerrors.NewDatabaseError("release save lock", err)
	}

	l.logger.Debug("Save lock released",
		zap.String("userID", userID),
		zap.String("topic", topic),
		zap.String("lockID", lockID),
	)
	return nil
}
