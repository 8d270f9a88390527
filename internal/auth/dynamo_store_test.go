package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evapp/ev-backend/internal/models"
)

var _ DynamoDBClient = (*mockDynamoDBClient)(nil)
var _ UserStore = (*DynamoUserStore)(nil)

type mockDynamoDBClient struct {
	getItemFunc func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	putItemFunc func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

func (m *mockDynamoDBClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.getItemFunc != nil {
		return m.getItemFunc(ctx, params, optFns...)
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (m *mockDynamoDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if m.putItemFunc != nil {
		return m.putItemFunc(ctx, params, optFns...)
	}
	return &dynamodb.PutItemOutput{}, nil
}

func TestDynamoUserStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	var stored map[string]types.AttributeValue

	client := &mockDynamoDBClient{
		putItemFunc: func(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			assert.Equal(t, "ev-users", *params.TableName)
			assert.Equal(t, "attribute_not_exists(email)", *params.ConditionExpression)
			stored = params.Item
			return &dynamodb.PutItemOutput{}, nil
		},
		getItemFunc: func(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			key := params.Key["email"].(*types.AttributeValueMemberS).Value
			assert.Equal(t, "ada@example.com", key)
			return &dynamodb.GetItemOutput{Item: stored}, nil
		},
	}
	s := NewDynamoUserStore(client, "ev-users")

	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	u := &models.User{ID: "id-1", Email: "ada@example.com", HashedPassword: "hash", IsActive: true, CreatedAt: created}
	require.NoError(t, s.CreateUser(ctx, u))

	require.Contains(t, stored, "hashedPassword")
	assert.NotContains(t, stored, "fullName")

	got, err := s.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.ID)
	assert.Equal(t, "hash", got.HashedPassword)
	assert.True(t, got.IsActive)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestDynamoUserStore_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate email", func(t *testing.T) {
		client := &mockDynamoDBClient{
			putItemFunc: func(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
				return nil, &types.ConditionalCheckFailedException{}
			},
		}
		err := NewDynamoUserStore(client, "ev-users").CreateUser(ctx, &models.User{Email: "ada@example.com"})
		assert.ErrorIs(t, err, models.ErrAlreadyExists)
	})

	t.Run("put failure", func(t *testing.T) {
		client := &mockDynamoDBClient{
			putItemFunc: func(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
				return nil, errors.New("throttled")
			},
		}
		err := NewDynamoUserStore(client, "ev-users").CreateUser(ctx, &models.User{Email: "ada@example.com"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, models.ErrAlreadyExists)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := NewDynamoUserStore(&mockDynamoDBClient{}, "ev-users").GetUserByEmail(ctx, "bob@example.com")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("get failure", func(t *testing.T) {
		client := &mockDynamoDBClient{
			getItemFunc: func(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
				return nil, errors.New("throttled")
			},
		}
		_, err := NewDynamoUserStore(client, "ev-users").GetUserByEmail(ctx, "bob@example.com")
		require.Error(t, err)
		assert.NotErrorIs(t, err, models.ErrNotFound)
	})
}

func TestServiceWithDynamoStore(t *testing.T) {
	items := map[string]map[string]types.AttributeValue{}
	client := &mockDynamoDBClient{
		putItemFunc: func(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			email := params.Item["email"].(*types.AttributeValueMemberS).Value
			if _, ok := items[email]; ok {
				return nil, &types.ConditionalCheckFailedException{}
			}
			items[email] = params.Item
			return &dynamodb.PutItemOutput{}, nil
		},
		getItemFunc: func(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			email := params.Key["email"].(*types.AttributeValueMemberS).Value
			return &dynamodb.GetItemOutput{Item: items[email]}, nil
		},
	}
	s, _ := newTestService(NewDynamoUserStore(client, "ev-users"))

	_, err := s.Register(context.Background(), RegisterRequest{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	_, err = s.Register(context.Background(), RegisterRequest{Email: "ada@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	token, err := s.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
}
