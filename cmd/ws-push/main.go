// Package main implements the EventBridge-triggered Lambda that pushes
// domain events to a user's live WebSocket connections through the API
// Gateway management API. Connection records are written by the $connect
// handler; stale ones are deleted here when the gateway reports them gone.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/Anidipta/Node-Learner/pkg/utils"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwtypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

var (
	dynamoClient *dynamodb.Client
	awsCfg       aws.Config
	tableName    string
	indexName    string
	logger       *zap.Logger

	// Management API clients keyed by endpoint. Lambda runs one invocation
	// per container, so the map needs no lock.
	apiClients = make(map[string]*apigatewaymanagementapi.Client)
)

// pushFrame is the envelope written to each WebSocket connection. Data
// carries the EventBridge detail verbatim so clients see the same shape
// the domain published.
type pushFrame struct {
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// liveConnection is the slice of a connection record this handler needs.
type liveConnection struct {
	ConnectionID string `dynamodbav:"ConnectionID"`
	Endpoint     string `dynamodbav:"Endpoint"`
}

// eventRouting is the slice of the event detail used to pick targets.
type eventRouting struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

func init() {
	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	awsCfg, err = awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Fatal("Failed to load AWS config", zap.Error(err))
	}
	dynamoClient = dynamodb.NewFromConfig(awsCfg)

	tableName = os.Getenv("CONNECTIONS_TABLE")
	if tableName == "" {
		tableName = "nodelearner-connections"
	}
	indexName = os.Getenv("CONNECTIONS_INDEX")
	if indexName == "" {
		indexName = "user-connections-index"
	}

	logger.Info("WebSocket push handler initialized",
		zap.String("table", tableName),
		zap.String("index", indexName))
}

// frameTypeFor maps a domain event type to the frame type clients see.
// Graph mutations collapse into a single "graph.delta" frame; lifecycle
// events keep their own names. Unlisted events are not pushed.
func frameTypeFor(detailType string) (string, bool) {
	switch detailType {
	case "graph.expanded", "concept.added", "concept.removed", "concepts.linked", "focus.changed":
		return "graph.delta", true
	case "session.ended", "tree.saved":
		return detailType, true
	}
	return "", false
}

// getUserConnections queries the GSI that inverts the connection key,
// returning every live connection of the user with its stored endpoint.
func getUserConnections(ctx context.Context, userID string) ([]liveConnection, error) {
	out, err := dynamoClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(tableName),
		IndexName:              aws.String(indexName),
		KeyConditionExpression: aws.String("GSI1PK = :userpk"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":userpk": &ddbtypes.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", userID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("querying connections for user: %w", err)
	}

	var connections []liveConnection
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &connections); err != nil {
		return nil, fmt.Errorf("unmarshaling connection records: %w", err)
	}
	return connections, nil
}

// clientFor returns a management API client bound to one endpoint. The
// stored endpoint is "<domain>/<stage>" without a scheme.
func clientFor(endpoint string) *apigatewaymanagementapi.Client {
	if client, ok := apiClients[endpoint]; ok {
		return client
	}
	client := apigatewaymanagementapi.NewFromConfig(awsCfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s", endpoint))
	})
	apiClients[endpoint] = client
	return client
}

// postToConnection writes one frame to one connection. A GoneException
// means the client disconnected without $disconnect firing; the record
// is deleted and the push treated as done.
func postToConnection(ctx context.Context, conn liveConnection, frame []byte) error {
	_, err := clientFor(conn.Endpoint).PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(conn.ConnectionID),
		Data:         frame,
	})
	if err != nil {
		var gone *apigwtypes.GoneException
		if errors.As(err, &gone) {
			removeStaleConnection(ctx, conn.ConnectionID)
			return nil
		}
		return fmt.Errorf("posting to connection: %w", err)
	}
	return nil
}

func removeStaleConnection(ctx context.Context, connectionID string) {
	_, err := dynamoClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(tableName),
		Key: map[string]ddbtypes.AttributeValue{
			"PK": &ddbtypes.AttributeValueMemberS{Value: fmt.Sprintf("CONNECTION#%s", connectionID)},
			"SK": &ddbtypes.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		logger.Warn("Failed to remove stale connection",
			zap.String("connection_id", connectionID),
			zap.Error(err))
		return
	}
	logger.Info("Removed stale connection", zap.String("connection_id", connectionID))
}

// handler routes one EventBridge event to the owning user's connections.
// The connections query failing returns an error so EventBridge retries;
// individual post failures only log, because a retry would duplicate the
// frame on every connection that already received it.
func handler(ctx context.Context, event events.CloudWatchEvent) error {
	frameType, ok := frameTypeFor(event.DetailType)
	if !ok {
		return nil
	}

	var routing eventRouting
	if err := json.Unmarshal(event.Detail, &routing); err != nil {
		return fmt.Errorf("unmarshaling event detail: %w", err)
	}
	if routing.UserID == "" {
		logger.Warn("Event carries no user_id, dropping",
			zap.String("detail_type", event.DetailType))
		return nil
	}

	connections, err := getUserConnections(ctx, routing.UserID)
	if err != nil {
		return err
	}
	if len(connections) == 0 {
		return nil
	}

	frame, err := json.Marshal(pushFrame{
		Type:      frameType,
		Timestamp: utils.NowRFC3339(),
		Data:      event.Detail,
	})
	if err != nil {
		return fmt.Errorf("marshaling push frame: %w", err)
	}

	sent := 0
	for _, conn := range connections {
		if err := postToConnection(ctx, conn, frame); err != nil {
			logger.Warn("Failed to push frame",
				zap.String("connection_id", conn.ConnectionID),
				zap.String("frame_type", frameType),
				zap.Error(err))
			continue
		}
		sent++
	}

	logger.Info("Pushed event to user connections",
		zap.String("detail_type", event.DetailType),
		zap.String("frame_type", frameType),
		zap.String("session_id", routing.SessionID),
		zap.Int("connections", len(connections)),
		zap.Int("sent", sent))
	return nil
}

func main() {
	lambda.Start(handler)
}
