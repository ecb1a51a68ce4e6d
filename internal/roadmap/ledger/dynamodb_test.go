package ledger

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillnavigator/roadmap-service/internal/roadmap/domain"
)

// fakeDynamoDB evaluates the ledger's expressions against an in-memory
// table, serialising writes the way DynamoDB serialises writes to one item.
type fakeDynamoDB struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	err   error

	getCalls, putCalls, updateCalls int
	lastUpdate                      *dynamodb.UpdateItemInput
}

func newFakeDynamoDB(seed map[string]int64) *fakeDynamoDB {
	f := &fakeDynamoDB{items: make(map[string]map[string]types.AttributeValue)}
	for userID, credits := range seed {
		f.items[userID] = map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
			"credits": &types.AttributeValueMemberN{Value: strconv.FormatInt(credits, 10)},
		}
	}
	return f
}

func keyOf(key map[string]types.AttributeValue) string {
	return key["user_id"].(*types.AttributeValueMemberS).Value
}

func creditsOf(item map[string]types.AttributeValue) int64 {
	n, ok := item["credits"].(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	v, _ := strconv.ParseInt(n.Value, 10, 64)
	return v
}

func (f *fakeDynamoDB) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeDynamoDB) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.err != nil {
		return nil, f.err
	}
	id := keyOf(in.Item)
	if aws.ToString(in.ConditionExpression) == "attribute_not_exists(user_id)" {
		if _, exists := f.items[id]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}
	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoDB) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	f.lastUpdate = in
	if f.err != nil {
		return nil, f.err
	}
	item, ok := f.items[keyOf(in.Key)]
	if !ok || creditsOf(item) < 1 {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	next := creditsOf(item) - 1
	item["credits"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(next, 10)}
	return &dynamodb.UpdateItemOutput{
		Attributes: map[string]types.AttributeValue{"credits": item["credits"]},
	}, nil
}

func (f *fakeDynamoDB) balance(userID string) (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[userID]
	if !ok {
		return 0, false
	}
	return creditsOf(item), true
}

func TestDynamoDBLedger(t *testing.T) {
	var fake *fakeDynamoDB
	runLedgerContract(t, harness{
		build: func(t *testing.T, seed map[string]int64) Ledger {
			fake = newFakeDynamoDB(seed)
			return NewDynamoDBLedger(fake, "SkillNavigatorUsers")
		},
		balance: func(t *testing.T, userID string) (int64, bool) {
			return fake.balance(userID)
		},
	})
}

func TestDynamoDBLedger_DecrementRequest(t *testing.T) {
	fake := newFakeDynamoDB(map[string]int64{"u1": 1})
	l := NewDynamoDBLedger(fake, "SkillNavigatorUsers")

	_, err := l.Decrement(context.Background(), "u1")
	require.NoError(t, err)

	in := fake.lastUpdate
	require.NotNil(t, in)
	assert.Equal(t, "SkillNavigatorUsers", aws.ToString(in.TableName))
	assert.Equal(t, "SET credits = credits - :one", aws.ToString(in.UpdateExpression))
	assert.Equal(t, "credits >= :one", aws.ToString(in.ConditionExpression))
	assert.Equal(t, types.ReturnValueUpdatedNew, in.ReturnValues)
	assert.Equal(t, "1", in.ExpressionAttributeValues[":one"].(*types.AttributeValueMemberN).Value)
}

func TestDynamoDBLedger_CheckDoesNotOverwriteConcurrentCreate(t *testing.T) {
	fake := newFakeDynamoDB(nil)
	l := NewDynamoDBLedger(fake, "t")

	// Another writer creates the row between our GetItem and PutItem.
	racing := &racingDynamoDB{fakeDynamoDB: fake, inject: func() {
		fake.items["u1"] = map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: "u1"},
			"credits": &types.AttributeValueMemberN{Value: "5"},
		}
	}}
	l.client = racing

	assert.False(t, l.Check(context.Background(), "u1"))
	credits, ok := fake.balance("u1")
	require.True(t, ok)
	assert.Equal(t, int64(5), credits)
}

type racingDynamoDB struct {
	*fakeDynamoDB
	inject func()
}

func (r *racingDynamoDB) GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	out, err := r.fakeDynamoDB.GetItem(ctx, in, opts...)
	r.fakeDynamoDB.mu.Lock()
	r.inject()
	r.fakeDynamoDB.mu.Unlock()
	return out, err
}

func TestDynamoDBLedger_StoreFailures(t *testing.T) {
	fake := newFakeDynamoDB(map[string]int64{"u1": 3})
	fake.err = errors.New("ProvisionedThroughputExceededException")
	l := NewDynamoDBLedger(fake, "t")

	assert.False(t, l.Check(context.Background(), "u1"), "check must fail closed")
	assert.Equal(t, 0, fake.putCalls, "no lazy create after a failed read")

	_, err := l.Decrement(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrLedgerUnavailable)
	assert.NotErrorIs(t, err, domain.ErrInsufficientCredits)
}
