package advisory

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockDynamoDBClient mocks the DynamoDB client the archive depends on.
type mockDynamoDBClient struct {
	mock.Mock
}

func (m *mockDynamoDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*dynamodb.PutItemOutput), args.Error(1)
}

func (m *mockDynamoDBClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*dynamodb.QueryOutput), args.Error(1)
}

func TestDynamoDBArchive_Put(t *testing.T) {
	mockClient := new(mockDynamoDBClient)
	archive := NewDynamoDBArchive(mockClient, "advisory-decisions")

	mission := "mission-3"
	decision := Decision{
		PriorityMissionID: &mission,
		Reasoning:         "mission-3 is the oldest critical-priority item still unassigned",
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mockClient.On("PutItem", mock.Anything, mock.MatchedBy(func(input *dynamodb.PutItemInput) bool {
		return *input.TableName == "advisory-decisions" &&
			input.Item["step"] != nil &&
			input.Item["decision_json"] != nil
	})).Return(&dynamodb.PutItemOutput{}, nil)

	err := archive.Put(context.Background(), 5, decision, now)

	require.NoError(t, err)
	mockClient.AssertExpectations(t)
}

func TestDynamoDBArchive_Put_ClientError(t *testing.T) {
	mockClient := new(mockDynamoDBClient)
	archive := NewDynamoDBArchive(mockClient, "advisory-decisions")

	mockClient.On("PutItem", mock.Anything, mock.Anything).
		Return((*dynamodb.PutItemOutput)(nil), assert.AnError)

	err := archive.Put(context.Background(), 1, Decision{Reasoning: "n/a"}, time.Now())

	assert.Error(t, err)
	mockClient.AssertExpectations(t)
}
