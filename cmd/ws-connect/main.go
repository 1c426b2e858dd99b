// Package main implements the WebSocket $connect Lambda handler. It
// authenticates the caller and records the connection so graph updates
// can later be pushed to every live client of a user.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/Anidipta/Node-Learner/pkg/auth"
	"github.com/Anidipta/Node-Learner/pkg/utils"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// connectionTTL bounds how long a stale connection record can linger
// when the $disconnect handler never fires.
const connectionTTL = 24 * time.Hour

var (
	dynamoClient *dynamodb.Client
	validator    *auth.JWTValidator
	tableName    string
	logger       *zap.Logger
)

// connectionRecord is the stored form of one WebSocket connection.
// GSI1 inverts the key so all connections of a user can be queried.
type connectionRecord struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	ConnectionID string `dynamodbav:"ConnectionID"`
	UserID       string `dynamodbav:"UserID"`
	GSI1PK       string `dynamodbav:"GSI1PK"`
	GSI1SK       string `dynamodbav:"GSI1SK"`
	ConnectedAt  string `dynamodbav:"ConnectedAt"`
	Endpoint     string `dynamodbav:"Endpoint"`
	TTL          int64  `dynamodbav:"TTL"`
}

func init() {
	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Fatal("Failed to load AWS config", zap.Error(err))
	}
	dynamoClient = dynamodb.NewFromConfig(cfg)

	tableName = os.Getenv("CONNECTIONS_TABLE")
	if tableName == "" {
		tableName = "nodelearner-connections"
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Fatal("JWT_SECRET is required for the connect handler")
	}

	validator, err = auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     secret,
		Issuer:        auth.DefaultIssuer,
		Audience:      auth.DefaultAudience,
	})
	if err != nil {
		logger.Fatal("Failed to create JWT validator", zap.Error(err))
	}
}

// storeConnection writes the connection record keyed for both direct
// and per-user lookup.
func storeConnection(ctx context.Context, connectionID, userID, endpoint string) error {
	record := connectionRecord{
		PK:           fmt.Sprintf("CONNECTION#%s", connectionID),
		SK:           "METADATA",
		ConnectionID: connectionID,
		UserID:       userID,
		GSI1PK:       fmt.Sprintf("USER#%s", userID),
		GSI1SK:       fmt.Sprintf("CONNECTION#%s", connectionID),
		ConnectedAt:  utils.NowRFC3339(),
		Endpoint:     endpoint,
		TTL:          utils.TTLEpoch(connectionTTL),
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal connection record: %w", err)
	}

	_, err = dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to store connection: %w", err)
	}

	return nil
}

// handler processes WebSocket $connect requests. Browsers cannot set
// headers on WebSocket upgrades, so the token arrives as a query
// parameter.
func handler(ctx context.Context, request events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	token := request.QueryStringParameters["token"]
	if token == "" {
		token = request.Headers["Authorization"]
	}

	claims, err := validator.ValidateToken(token)
	if err != nil || claims == nil {
		logger.Warn("WebSocket authentication failed",
			zap.String("connectionID", request.RequestContext.ConnectionID),
			zap.Error(err),
		)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusUnauthorized,
			Body:       `{"error": "unauthorized"}`,
		}, nil
	}

	endpoint := fmt.Sprintf("%s/%s", request.RequestContext.DomainName, request.RequestContext.Stage)
	if err := storeConnection(ctx, request.RequestContext.ConnectionID, claims.UserID, endpoint); err != nil {
		logger.Error("Failed to store connection",
			zap.String("connectionID", request.RequestContext.ConnectionID),
			zap.String("userID", claims.UserID),
			zap.Error(err),
		)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"error": "internal server error"}`,
		}, nil
	}

	logger.Info("WebSocket connection established",
		zap.String("connectionID", request.RequestContext.ConnectionID),
		zap.String("userID", claims.UserID),
	)

	welcome, _ := json.Marshal(map[string]interface{}{
		"type":          "connection.established",
		"connection_id": request.RequestContext.ConnectionID,
		"timestamp":     time.Now().Unix(),
	})

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       string(welcome),
	}, nil
}

func main() {
	lambda.Start(handler)
}
