package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"chat-engine/internal/domain"
)

const nicknameIndex = "NicknameIndex"

// connectionsAPI is the minimal DynamoDB interface required by ConnectionStore.
// Defined here for testability.
type connectionsAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// ConnectionStore wraps the DynamoDB table holding one record per live
// connection. Nickname lookups go through the NicknameIndex GSI.
type ConnectionStore struct {
	api       connectionsAPI
	tableName string
}

// NewConnectionStore creates a ConnectionStore for the given table.
func NewConnectionStore(api connectionsAPI, tableName string) (*ConnectionStore, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &ConnectionStore{api: api, tableName: tableName}, nil
}

// Put inserts or replaces the record for a connection.
func (s *ConnectionStore) Put(ctx context.Context, client domain.Client) error {
	if client.ConnectionID == "" || client.Nickname == "" {
		return errors.New("repository: Put: connectionId and nickname are required")
	}

	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"connectionId": &types.AttributeValueMemberS{Value: client.ConnectionID},
			"nickname":     &types.AttributeValueMemberS{Value: client.Nickname},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: Put: %w", err)
	}
	return nil
}

// Delete removes the record for a connection. Deleting an absent record is
// not an error.
func (s *ConnectionStore) Delete(ctx context.Context, connectionID string) error {
	_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"connectionId": &types.AttributeValueMemberS{Value: connectionID},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: Delete: %w", err)
	}
	return nil
}

// Get returns the record for a connection. The second return reports whether
// a record exists.
func (s *ConnectionStore) Get(ctx context.Context, connectionID string) (domain.Client, bool, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"connectionId": &types.AttributeValueMemberS{Value: connectionID},
		},
	})
	if err != nil {
		return domain.Client{}, false, fmt.Errorf("repository: Get: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Client{}, false, nil
	}

	client, err := itemToClient(out.Item)
	if err != nil {
		return domain.Client{}, false, fmt.Errorf("repository: Get: %w", err)
	}
	return client, true, nil
}

// FindByNickname returns the connection currently holding a nickname.
// Uniqueness is not enforced by the index; the first match wins.
func (s *ConnectionStore) FindByNickname(ctx context.Context, nickname string) (domain.Client, bool, error) {
	out, err := s.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(nicknameIndex),
		KeyConditionExpression: aws.String("#nickname = :nickname"),
		ExpressionAttributeNames: map[string]string{
			"#nickname": "nickname",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":nickname": &types.AttributeValueMemberS{Value: nickname},
		},
	})
	if err != nil {
		return domain.Client{}, false, fmt.Errorf("repository: FindByNickname: %w", err)
	}
	if len(out.Items) == 0 {
		return domain.Client{}, false, nil
	}

	client, err := itemToClient(out.Items[0])
	if err != nil {
		return domain.Client{}, false, fmt.Errorf("repository: FindByNickname: %w", err)
	}
	return client, true, nil
}

// List returns every live connection record.
func (s *ConnectionStore) List(ctx context.Context) ([]domain.Client, error) {
	out, err := s.api.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.tableName),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: List: %w", err)
	}

	clients := make([]domain.Client, 0, len(out.Items))
	for _, item := range out.Items {
		client, err := itemToClient(item)
		if err != nil {
			return nil, fmt.Errorf("repository: List: %w", err)
		}
		clients = append(clients, client)
	}
	return clients, nil
}

// itemToClient converts a DynamoDB attribute map to a Client.
func itemToClient(item map[string]types.AttributeValue) (domain.Client, error) {
	connectionID, err := strAttr(item, "connectionId")
	if err != nil {
		return domain.Client{}, err
	}
	nickname, err := strAttr(item, "nickname")
	if err != nil {
		return domain.Client{}, err
	}
	return domain.Client{ConnectionID: connectionID, Nickname: nickname}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func int64Attr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
