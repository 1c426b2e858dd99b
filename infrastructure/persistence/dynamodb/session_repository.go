package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/ports"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

// SessionRepository stores completed learning-session records:
//
//	PK = USER#<user_id>
//	SK = SESSION#<RFC3339 timestamp>#<session_id>
//
// RFC3339 timestamps sort lexicographically in time order, so a reverse
// range query over the SESSION# prefix returns newest records first and
// the limit pushes down to the query itself.
type SessionRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewSessionRepository creates a session repository over the given table.
func NewSessionRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

var _ ports.SessionRepository = (*SessionRepository)(nil)

type sessionItem struct {
	PK            string   `dynamodbav:"PK"`
	SK            string   `dynamodbav:"SK"`
	EntityType    string   `dynamodbav:"EntityType"`
	SessionID     string   `dynamodbav:"SessionID"`
	UserID        string   `dynamodbav:"UserID"`
	Topic         string   `dynamodbav:"Topic"`
	TreeID        string   `dynamodbav:"TreeID"`
	NodesExplored []string `dynamodbav:"NodesExplored"`
	TimeSpentSecs int64    `dynamodbav:"TimeSpentSecs"`
	Timestamp     string   `dynamodbav:"Timestamp"`
}

// LogSession appends one session record.
func (r *SessionRepository) LogSession(ctx context.Context, record *ports.SessionRecord) error {
	timestamp := record.Timestamp.UTC().Format(time.RFC3339)

	item := sessionItem{
		PK:            fmt.Sprintf("USER#%s", record.UserID),
		SK:            fmt.Sprintf("SESSION#%s#%s", timestamp, record.SessionID),
		EntityType:    "SESSION",
		SessionID:     record.SessionID,
		UserID:        record.UserID,
		Topic:         record.Topic,
		TreeID:        record.TreeID,
		NodesExplored: record.NodesExplored,
		TimeSpentSecs: record.TimeSpentSecs,
		Timestamp:     timestamp,
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal session record", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		return pkgerrors.NewDatabaseError("log session", err)
	}

	r.logger.Debug("Logged session record",
		zap.String("sessionID", record.SessionID),
		zap.String("userID", record.UserID),
		zap.String("topic", record.Topic),
		zap.Int64("timeSpentSecs", record.TimeSpentSecs),
	)
	return nil
}

// ListSessions returns the user's records, newest first. A non-positive
// limit returns everything.
func (r *SessionRepository) ListSessions(ctx context.Context, userID string, limit int) ([]*ports.SessionRecord, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(fmt.Sprintf("USER#%s", userID))).
		And(expression.Key("SK").BeginsWith("SESSION#"))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build session listing", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	var records []*ports.SessionRecord
	for {
		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query sessions", err)
		}

		for _, raw := range result.Items {
			var item sessionItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Skipping unreadable session item",
					zap.String("userID", userID),
					zap.Error(err),
				)
				continue
			}
			records = append(records, &ports.SessionRecord{
				SessionID:     item.SessionID,
				UserID:        item.UserID,
				Topic:         item.Topic,
				TreeID:        item.TreeID,
				NodesExplored: item.NodesExplored,
				TimeSpentSecs: item.TimeSpentSecs,
				Timestamp:     parseStoredTime(item.Timestamp),
			})
			if limit > 0 && len(records) >= limit {
				return records, nil
			}
		}

		if result.LastEvaluatedKey == nil {
			return records, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}
