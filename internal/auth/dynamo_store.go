package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/evapp/ev-backend/internal/models"
)

// DynamoDBClient is the subset of the DynamoDB API used by DynamoUserStore.
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoUserStore keeps users in a DynamoDB table whose partition key is
// "email".
type DynamoUserStore struct {
	client DynamoDBClient
	table  string
}

func NewDynamoUserStore(client DynamoDBClient, table string) *DynamoUserStore {
	return &DynamoUserStore{client: client, table: table}
}

func (s *DynamoUserStore) CreateUser(ctx context.Context, u *models.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshaling user: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(email)"),
	})
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return fmt.Errorf("user %s: %w", u.Email, models.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("putting user in DynamoDB: %w", err)
	}
	return nil
}

func (s *DynamoUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"email": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("getting user from DynamoDB: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user %s: %w", email, models.ErrNotFound)
	}

	var u models.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, fmt.Errorf("unmarshaling user: %w", err)
	}
	return &u, nil
}
