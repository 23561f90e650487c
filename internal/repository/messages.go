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

const pairKeyIndex = "PairKeyIndex"

// messagesAPI is the minimal DynamoDB interface required by MessageLog.
type messagesAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// MessageLog wraps the append-only DynamoDB table of direct messages.
// Conversation reads go through the PairKeyIndex GSI, newest first.
type MessageLog struct {
	api       messagesAPI
	tableName string
}

// NewMessageLog creates a MessageLog for the given table.
func NewMessageLog(api messagesAPI, tableName string) (*MessageLog, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &MessageLog{api: api, tableName: tableName}, nil
}

// Append persists a message record. The conditional write guards against
// id reuse.
func (l *MessageLog) Append(ctx context.Context, msg domain.Message) error {
	if msg.MessageID == "" || msg.PairKey == "" {
		return errors.New("repository: Append: messageId and pairKey are required")
	}

	_, err := l.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(l.tableName),
		Item:                messageItem(msg),
		ConditionExpression: aws.String("attribute_not_exists(messageId)"),
	})
	if err != nil {
		return fmt.Errorf("repository: Append: %w", err)
	}
	return nil
}

// Page queries one page of a conversation, newest first. A nil cursor starts
// from the most recent record; the returned cursor is non-nil when more
// records remain.
func (l *MessageLog) Page(ctx context.Context, pairKey string, limit int32, cursor *domain.Cursor) ([]domain.Message, *domain.Cursor, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(l.tableName),
		IndexName:              aws.String(pairKeyIndex),
		KeyConditionExpression: aws.String("#pairKey = :pairKey"),
		ExpressionAttributeNames: map[string]string{
			"#pairKey": "pairKey",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pairKey": &types.AttributeValueMemberS{Value: pairKey},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	}
	if cursor != nil {
		in.ExclusiveStartKey = cursorKey(*cursor)
	}

	out, err := l.api.Query(ctx, in)
	if err != nil {
		return nil, nil, fmt.Errorf("repository: Page: %w", err)
	}

	msgs := make([]domain.Message, 0, len(out.Items))
	for _, item := range out.Items {
		msg, err := itemToMessage(item)
		if err != nil {
			return nil, nil, fmt.Errorf("repository: Page: %w", err)
		}
		msgs = append(msgs, msg)
	}

	var next *domain.Cursor
	if len(out.LastEvaluatedKey) > 0 {
		c, err := keyToCursor(out.LastEvaluatedKey)
		if err != nil {
			return nil, nil, fmt.Errorf("repository: Page: %w", err)
		}
		next = &c
	}
	return msgs, next, nil
}

func messageItem(msg domain.Message) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"messageId": &types.AttributeValueMemberS{Value: msg.MessageID},
		"createdAt": &types.AttributeValueMemberN{Value: strconv.FormatInt(msg.CreatedAt, 10)},
		"pairKey":   &types.AttributeValueMemberS{Value: msg.PairKey},
		"sender":    &types.AttributeValueMemberS{Value: msg.Sender},
		"message":   &types.AttributeValueMemberS{Value: msg.Text},
	}
}

// itemToMessage converts a DynamoDB attribute map to a Message.
func itemToMessage(item map[string]types.AttributeValue) (domain.Message, error) {
	messageID, err := strAttr(item, "messageId")
	if err != nil {
		return domain.Message{}, err
	}
	createdAt, err := int64Attr(item, "createdAt")
	if err != nil {
		return domain.Message{}, err
	}
	pairKey, err := strAttr(item, "pairKey")
	if err != nil {
		return domain.Message{}, err
	}
	sender, err := strAttr(item, "sender")
	if err != nil {
		return domain.Message{}, err
	}
	text, err := strAttr(item, "message")
	if err != nil {
		return domain.Message{}, err
	}

	return domain.Message{
		MessageID: messageID,
		CreatedAt: createdAt,
		PairKey:   pairKey,
		Sender:    sender,
		Text:      text,
	}, nil
}

func cursorKey(c domain.Cursor) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pairKey":   &types.AttributeValueMemberS{Value: c.PairKey},
		"createdAt": &types.AttributeValueMemberN{Value: strconv.FormatInt(c.CreatedAt, 10)},
		"messageId": &types.AttributeValueMemberS{Value: c.MessageID},
	}
}

func keyToCursor(key map[string]types.AttributeValue) (domain.Cursor, error) {
	pairKey, err := strAttr(key, "pairKey")
	if err != nil {
		return domain.Cursor{}, err
	}
	createdAt, err := int64Attr(key, "createdAt")
	if err != nil {
		return domain.Cursor{}, err
	}
	messageID, err := strAttr(key, "messageId")
	if err != nil {
		return domain.Cursor{}, err
	}
	return domain.Cursor{PairKey: pairKey, CreatedAt: createdAt, MessageID: messageID}, nil
}
