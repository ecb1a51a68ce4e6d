package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/skillnavigator/roadmap-service/internal/logging"
	"github.com/skillnavigator/roadmap-service/internal/roadmap/domain"
)

// DynamoDBAPI is the subset of the DynamoDB client used by the ledger.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoDBLedger stores one item per user keyed by user_id.
type DynamoDBLedger struct {
	client DynamoDBAPI
	table  string
}

func NewDynamoDBLedger(client DynamoDBAPI, table string) *DynamoDBLedger {
	return &DynamoDBLedger{client: client, table: table}
}

func (d *DynamoDBLedger) Check(ctx context.Context, userID string) bool {
	logger := logging.New(ctx).With("user_id", userID)

	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            userKey(userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		logger.LogError("ledger_check", err)
		return false
	}

	if len(out.Item) == 0 {
		d.createEmpty(ctx, logger, userID)
		return false
	}

	var credit domain.UserCredit
	if err := attributevalue.UnmarshalMap(out.Item, &credit); err != nil {
		logger.LogError("ledger_check_decode", err)
		return false
	}
	return credit.Credits >= 1
}

// createEmpty writes a zero balance unless another request created the item
// first.
func (d *DynamoDBLedger) createEmpty(ctx context.Context, logger *logging.Logger, userID string) {
	item, err := attributevalue.MarshalMap(domain.UserCredit{UserID: userID, Credits: 0})
	if err != nil {
		logger.LogError("ledger_check_create", err)
		return
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(user_id)"),
	})
	var ccf *types.ConditionalCheckFailedException
	if err != nil && !errors.As(err, &ccf) {
		logger.LogError("ledger_check_create", err)
	}
}

func (d *DynamoDBLedger) Decrement(ctx context.Context, userID string) (int64, error) {
	out, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(d.table),
		Key:                 userKey(userID),
		UpdateExpression:    aws.String("SET credits = credits - :one"),
		ConditionExpression: aws.String("credits >= :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return 0, domain.ErrInsufficientCredits
		}
		return 0, fmt.Errorf("%w: dynamodb update: %w", domain.ErrLedgerUnavailable, err)
	}

	var updated struct {
		Credits int64 `dynamodbav:"credits"`
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &updated); err != nil {
		return 0, fmt.Errorf("%w: decode updated balance: %w", domain.ErrLedgerUnavailable, err)
	}
	return updated.Credits, nil
}

func userKey(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"user_id": &types.AttributeValueMemberS{Value: userID},
	}
}
