package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoDBAPI is the subset of the DynamoDB client the archive needs,
// declared locally so tests can supply a fake PutItem/Query.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// item is the durable shape written to the table: the decision flattened
// alongside its step and an RFC3339 timestamp used as the sort key.
type item struct {
	Step         int    `dynamodbav:"step"`
	Timestamp    string `dynamodbav:"timestamp"`
	DecisionJSON string `dynamodbav:"decision_json"`
}

// DynamoDBArchive durably records advisory decisions, selected by
// ADVISORY_ARCHIVE=dynamodb. It is additive to JSONLLogger, not a
// replacement: it archives advisory history only, never simulation
// ground truth, so it does not reintroduce cross-restart persistence
// of the fleet itself.
type DynamoDBArchive struct {
	client    DynamoDBAPI
	tableName string
}

// NewDynamoDBArchive builds an archive writing to tableName.
func NewDynamoDBArchive(client DynamoDBAPI, tableName string) *DynamoDBArchive {
	return &DynamoDBArchive{client: client, tableName: tableName}
}

// Put writes one decision record to the table.
func (a *DynamoDBArchive) Put(ctx context.Context, step int, decision Decision, now time.Time) error {
	payload, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("marshal decision for archive: %w", err)
	}

	record := item{
		Step:         step,
		Timestamp:    now.UTC().Format(time.RFC3339Nano),
		DecisionJSON: string(payload),
	}

	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal archive item: %w", err)
	}

	_, err = a.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(a.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("put advisory archive item: %w", err)
	}
	return nil
}
