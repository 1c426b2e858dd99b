package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/ports"
	"github.com/Anidipta/Node-Learner/infrastructure/persistence/schema"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

// TreeRepository stores exploration trees as whole documents in the
// single table. One item exists per (user, topic) pair:
//
//	PK     = USER#<user_id>
//	SK     = TREE#<topic>
//	GSI1PK = TREE#<tree_id>, GSI1SK = METADATA
//
// The GSI serves lookups by tree identifier, which the resume flow uses
// when the client only has an id from a listing.
type TreeRepository struct {
	client    *dynamodb.Client
	tableName string
	indexName string
	migrator  *schema.Migrator
	logger    *zap.Logger
}

// NewTreeRepository creates a tree repository over the given table and
// tree-id index.
func NewTreeRepository(client *dynamodb.Client, tableName, indexName string, migrator *schema.Migrator, logger *zap.Logger) *TreeRepository {
	return &TreeRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		migrator:  migrator,
		logger:    logger,
	}
}

var _ ports.TreeRepository = (*TreeRepository)(nil)

// treeItem is the stored form of a tree document.
type treeItem struct {
	PK            string                  `dynamodbav:"PK"`
	SK            string                  `dynamodbav:"SK"`
	GSI1PK        string                  `dynamodbav:"GSI1PK"`
	GSI1SK        string                  `dynamodbav:"GSI1SK"`
	EntityType    string                  `dynamodbav:"EntityType"`
	TreeID        string                  `dynamodbav:"TreeID"`
	UserID        string                  `dynamodbav:"UserID"`
	Topic         string                  `dynamodbav:"Topic"`
	TopicLower    string                  `dynamodbav:"TopicLower"`
	Nodes         map[string]nodeItem     `dynamodbav:"Nodes"`
	Edges         map[string]edgeItem     `dynamodbav:"Edges"`
	NodeCount     int                     `dynamodbav:"NodeCount"`
	EdgeCount     int                     `dynamodbav:"EdgeCount"`
	SchemaVersion int                     `dynamodbav:"SchemaVersion"`
	Version       int                     `dynamodbav:"Version"`
	Checksum      string                  `dynamodbav:"Checksum"`
	CreatedAt     string                  `dynamodbav:"CreatedAt"`
	UpdatedAt     string                  `dynamodbav:"UpdatedAt"`
}

type nodeItem struct {
	NodeID  string `dynamodbav:"NodeID"`
	Kind    string `dynamodbav:"Kind"`
	Level   int    `dynamodbav:"Level"`
	Parent  string `dynamodbav:"Parent,omitempty"`
	Summary string `dynamodbav:"Summary,omitempty"`
	Size    int    `dynamodbav:"Size"`
	Color   string `dynamodbav:"Color"`
}

type edgeItem struct {
	Title  string `dynamodbav:"Title,omitempty"`
	Weight int    `dynamodbav:"Weight"`
}

// summaryItem is the projected form returned by listing queries. Node and
// edge maps stay in storage; the denormalized counts are enough here.
type summaryItem struct {
	TreeID    string `dynamodbav:"TreeID"`
	Topic     string `dynamodbav:"Topic"`
	NodeCount int    `dynamodbav:"NodeCount"`
	EdgeCount int    `dynamodbav:"EdgeCount"`
	CreatedAt string `dynamodbav:"CreatedAt"`
	UpdatedAt string `dynamodbav:"UpdatedAt"`
}

func treePK(userID string) string { return fmt.Sprintf("USER#%s", userID) }

func treeSK(topic string) string { return fmt.Sprintf("TREE#%s", topic) }

func treeGSIPK(treeID string) string { return fmt.Sprintf("TREE#%s", treeID) }

// GetTree retrieves the document for a (user, topic) pair.
func (r *TreeRepository) GetTree(ctx context.Context, userID, topic string) (*ports.TreeDocument, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: treePK(userID)},
			"SK": &types.AttributeValueMemberS{Value: treeSK(topic)},
		},
	}

	result, err := r.client.GetItem(ctx, input)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get tree", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewTreeNotFoundError(userID, topic)
	}

	var item treeItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal tree", err)
	}

	return r.toDocument(&item)
}

// GetTreeByID retrieves a document through the tree-id index.
func (r *TreeRepository) GetTreeByID(ctx context.Context, treeID string) (*ports.TreeDocument, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(treeGSIPK(treeID))).
		And(expression.Key("GSI1SK").Equal(expression.Value("METADATA")))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build tree query", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("query tree by id", err)
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("tree").
			WithCode("TREE_NOT_FOUND").
			WithDetails(map[string]interface{}{"tree_id": treeID})
	}

	var item treeItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal tree", err)
	}

	return r.toDocument(&item)
}

// InsertTree writes a document for a pair that has none yet. A concurrent
// insert of the same pair loses with a conflict error.
func (r *TreeRepository) InsertTree(ctx context.Context, doc *ports.TreeDocument) error {
	av, err := attributevalue.MarshalMap(fromDocument(doc))
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal tree", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return pkgerrors.NewConflictError("a tree for this topic already exists").
				WithDetails(map[string]interface{}{"topic": doc.Topic})
		}
		return pkgerrors.NewDatabaseError("insert tree", err)
	}

	r.logger.Info("Inserted tree document",
		zap.String("treeID", doc.TreeID),
		zap.String("userID", doc.UserID),
		zap.String("topic", doc.Topic),
		zap.Int("nodeCount", len(doc.Nodes)),
		zap.Int("edgeCount", len(doc.Edges)),
	)
	return nil
}

// ReplaceTree overwrites the stored document wholesale. The caller has
// already loaded the current version and bumped the version metadata, so
// the write itself is unconditional.
func (r *TreeRepository) ReplaceTree(ctx context.Context, doc *ports.TreeDocument) error {
	av, err := attributevalue.MarshalMap(fromDocument(doc))
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal tree", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		return pkgerrors.NewDatabaseError("replace tree", err)
	}

	r.logger.Info("Replaced tree document",
		zap.String("treeID", doc.TreeID),
		zap.String("userID", doc.UserID),
		zap.String("topic", doc.Topic),
		zap.Int("version", doc.Version),
		zap.Int("nodeCount", len(doc.Nodes)),
		zap.Int("edgeCount", len(doc.Edges)),
	)
	return nil
}

// ListTrees returns the user's saved trees, most recently updated first.
// The sort key orders trees by topic, so recency ordering happens here
// after the query.
func (r *TreeRepository) ListTrees(ctx context.Context, userID string, limit int) ([]*ports.TreeSummary, error) {
	summaries, err := r.querySummaries(ctx, userID)
	if err != nil {
		return nil, err
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})

	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// SearchTopics returns the user's trees whose topic contains query,
// case-insensitively. DynamoDB's contains() is case-sensitive, so the
// match happens here over the projected summaries.
func (r *TreeRepository) SearchTopics(ctx context.Context, userID, query string) ([]*ports.TreeSummary, error) {
	term := strings.ToLower(strings.TrimSpace(query))

	summaries, err := r.querySummaries(ctx, userID)
	if err != nil {
		return nil, err
	}

	matched := make([]*ports.TreeSummary, 0, len(summaries))
	for _, summary := range summaries {
		if term == "" || strings.Contains(strings.ToLower(summary.Topic), term) {
			matched = append(matched, summary)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})
	return matched, nil
}

// querySummaries pages through the user's TREE# items with a summary
// projection.
func (r *TreeRepository) querySummaries(ctx context.Context, userID string) ([]*ports.TreeSummary, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(treePK(userID))).
		And(expression.Key("SK").BeginsWith("TREE#"))
	projection := expression.NamesList(
		expression.Name("TreeID"),
		expression.Name("Topic"),
		expression.Name("NodeCount"),
		expression.Name("EdgeCount"),
		expression.Name("CreatedAt"),
		expression.Name("UpdatedAt"),
	)

	expr, err := expression.NewBuilder().
		WithKeyCondition(keyCond).
		WithProjection(projection).
		Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build tree listing", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var summaries []*ports.TreeSummary
	for {
		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query trees", err)
		}

		for _, raw := range result.Items {
			var item summaryItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Skipping unreadable tree item",
					zap.String("userID", userID),
					zap.Error(err),
				)
				continue
			}
			summaries = append(summaries, &ports.TreeSummary{
				TreeID:    item.TreeID,
				Topic:     item.Topic,
				NodeCount: item.NodeCount,
				EdgeCount: item.EdgeCount,
				CreatedAt: parseStoredTime(item.CreatedAt),
				UpdatedAt: parseStoredTime(item.UpdatedAt),
			})
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return summaries, nil
}

// toDocument maps a stored item back to the port form, migrating old
// schema versions on the way out.
func (r *TreeRepository) toDocument(item *treeItem) (*ports.TreeDocument, error) {
	doc := &ports.TreeDocument{
		TreeID:        item.TreeID,
		UserID:        item.UserID,
		Topic:         item.Topic,
		Nodes:         make(map[string]ports.NodeAttrs, len(item.Nodes)),
		Edges:         make(map[string]ports.EdgeAttrs, len(item.Edges)),
		SchemaVersion: item.SchemaVersion,
		Version:       item.Version,
		Checksum:      item.Checksum,
		CreatedAt:     parseStoredTime(item.CreatedAt),
		UpdatedAt:     parseStoredTime(item.UpdatedAt),
	}

	for label, attrs := range item.Nodes {
		doc.Nodes[label] = ports.NodeAttrs{
			NodeID:  attrs.NodeID,
			Kind:    attrs.Kind,
			Level:   attrs.Level,
			Parent:  attrs.Parent,
			Summary: attrs.Summary,
			Size:    attrs.Size,
			Color:   attrs.Color,
		}
	}
	for key, attrs := range item.Edges {
		doc.Edges[key] = ports.EdgeAttrs{
			Title:  attrs.Title,
			Weight: attrs.Weight,
		}
	}

	migrated, err := r.migrator.Migrate(doc)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("migrate tree document", err)
	}
	if migrated {
		r.logger.Debug("Tree document migrated on load",
			zap.String("treeID", doc.TreeID),
			zap.Int("schemaVersion", doc.SchemaVersion),
		)
	}

	return doc, nil
}

func fromDocument(doc *ports.TreeDocument) *treeItem {
	item := &treeItem{
		PK:            treePK(doc.UserID),
		SK:            treeSK(doc.Topic),
		GSI1PK:        treeGSIPK(doc.TreeID),
		GSI1SK:        "METADATA",
		EntityType:    "TREE",
		TreeID:        doc.TreeID,
		UserID:        doc.UserID,
		Topic:         doc.Topic,
		TopicLower:    strings.ToLower(doc.Topic),
		Nodes:         make(map[string]nodeItem, len(doc.Nodes)),
		Edges:         make(map[string]edgeItem, len(doc.Edges)),
		NodeCount:     len(doc.Nodes),
		EdgeCount:     len(doc.Edges),
		SchemaVersion: doc.SchemaVersion,
		Version:       doc.Version,
		Checksum:      doc.Checksum,
		CreatedAt:     doc.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     doc.UpdatedAt.UTC().Format(time.RFC3339),
	}

	for label, attrs := range doc.Nodes {
		item.Nodes[label] = nodeItem{
			NodeID:  attrs.NodeID,
			Kind:    attrs.Kind,
			Level:   attrs.Level,
			Parent:  attrs.Parent,
			Summary: attrs.Summary,
			Size:    attrs.Size,
			Color:   attrs.Color,
		}
	}
	for key, attrs := range doc.Edges {
		item.Edges[key] = edgeItem{
			Title:  attrs.Title,
			Weight: attrs.Weight,
		}
	}

	return item
}

// parseStoredTime reads an RFC3339 timestamp, tolerating the blank values
// a projection can return for legacy items.
func parseStoredTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
