package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"chat-engine/internal/domain"
)

type fakeConnectionsDynamo struct {
	getOut    *dynamodb.GetItemOutput
	getErr    error
	putErr    error
	deleteErr error
	queryOut  *dynamodb.QueryOutput
	queryErr  error
	scanOut   *dynamodb.ScanOutput
	scanErr   error

	lastGetInput    *dynamodb.GetItemInput
	lastPutInput    *dynamodb.PutItemInput
	lastDeleteInput *dynamodb.DeleteItemInput
	lastQueryInput  *dynamodb.QueryInput
	lastScanInput   *dynamodb.ScanInput
}

func (f *fakeConnectionsDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetInput = in
	return f.getOut, f.getErr
}

func (f *fakeConnectionsDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeConnectionsDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.lastDeleteInput = in
	return &dynamodb.DeleteItemOutput{}, f.deleteErr
}

func (f *fakeConnectionsDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.lastQueryInput = in
	return f.queryOut, f.queryErr
}

func (f *fakeConnectionsDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.lastScanInput = in
	return f.scanOut, f.scanErr
}

func clientItem(connectionID, nickname string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"connectionId": &types.AttributeValueMemberS{Value: connectionID},
		"nickname":     &types.AttributeValueMemberS{Value: nickname},
	}
}

func mustNewConnectionStore(t *testing.T, db *fakeConnectionsDynamo) *ConnectionStore {
	t.Helper()
	s, err := NewConnectionStore(db, "clients-table")
	require.NoError(t, err)
	return s
}

func TestConnectionStorePut_HappyPath(t *testing.T) {
	db := &fakeConnectionsDynamo{}
	s := mustNewConnectionStore(t, db)
	err := s.Put(context.Background(), domain.Client{ConnectionID: "conn-1", Nickname: "alice"})
	require.NoError(t, err)
	require.Equal(t, "alice", db.lastPutInput.Item["nickname"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, "conn-1", db.lastPutInput.Item["connectionId"].(*types.AttributeValueMemberS).Value)
}

func TestConnectionStorePut_MissingFields(t *testing.T) {
	s := mustNewConnectionStore(t, &fakeConnectionsDynamo{})
	err := s.Put(context.Background(), domain.Client{Nickname: "alice"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "required")

	err = s.Put(context.Background(), domain.Client{ConnectionID: "conn-1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "required")
}

func TestConnectionStorePut_DynamoError(t *testing.T) {
	db := &fakeConnectionsDynamo{putErr: errors.New("ProvisionedThroughputExceededException")}
	s := mustNewConnectionStore(t, db)
	err := s.Put(context.Background(), domain.Client{ConnectionID: "conn-1", Nickname: "alice"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Put")
}

func TestConnectionStoreDelete_HappyPath(t *testing.T) {
	db := &fakeConnectionsDynamo{}
	s := mustNewConnectionStore(t, db)
	err := s.Delete(context.Background(), "conn-1")
	require.NoError(t, err)
	require.Equal(t, "conn-1", db.lastDeleteInput.Key["connectionId"].(*types.AttributeValueMemberS).Value)
}

func TestConnectionStoreDelete_DynamoError(t *testing.T) {
	db := &fakeConnectionsDynamo{deleteErr: errors.New("internal server error")}
	s := mustNewConnectionStore(t, db)
	err := s.Delete(context.Background(), "conn-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Delete")
}

func TestConnectionStoreGet_HappyPath(t *testing.T) {
	db := &fakeConnectionsDynamo{getOut: &dynamodb.GetItemOutput{Item: clientItem("conn-1", "alice")}}
	s := mustNewConnectionStore(t, db)
	client, found, err := s.Get(context.Background(), "conn-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, domain.Client{ConnectionID: "conn-1", Nickname: "alice"}, client)
}

func TestConnectionStoreGet_NotFound(t *testing.T) {
	db := &fakeConnectionsDynamo{getOut: &dynamodb.GetItemOutput{}}
	s := mustNewConnectionStore(t, db)
	_, found, err := s.Get(context.Background(), "conn-1")
	require.NoError(t, err)
	require.False(t, found)
}

func TestConnectionStoreGet_DynamoError(t *testing.T) {
	db := &fakeConnectionsDynamo{getErr: errors.New("boom")}
	s := mustNewConnectionStore(t, db)
	_, _, err := s.Get(context.Background(), "conn-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Get")
}

func TestConnectionStoreGet_MalformedItem(t *testing.T) {
	db := &fakeConnectionsDynamo{getOut: &dynamodb.GetItemOutput{
		Item: map[string]types.AttributeValue{
			"connectionId": &types.AttributeValueMemberS{Value: "conn-1"},
		},
	}}
	s := mustNewConnectionStore(t, db)
	_, _, err := s.Get(context.Background(), "conn-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "nickname")
}

func TestFindByNickname_HappyPath(t *testing.T) {
	db := &fakeConnectionsDynamo{queryOut: &dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{clientItem("conn-1", "alice")},
	}}
	s := mustNewConnectionStore(t, db)
	client, found, err := s.FindByNickname(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "conn-1", client.ConnectionID)
}

func TestFindByNickname_UsesNicknameIndex(t *testing.T) {
	db := &fakeConnectionsDynamo{queryOut: &dynamodb.QueryOutput{}}
	s := mustNewConnectionStore(t, db)
	_, found, err := s.FindByNickname(context.Background(), "alice")
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, nicknameIndex, *db.lastQueryInput.IndexName)
	require.Equal(t, "#nickname = :nickname", *db.lastQueryInput.KeyConditionExpression)
}

func TestFindByNickname_FirstMatchWins(t *testing.T) {
	db := &fakeConnectionsDynamo{queryOut: &dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{
			clientItem("conn-old", "alice"),
			clientItem("conn-new", "alice"),
		},
	}}
	s := mustNewConnectionStore(t, db)
	client, found, err := s.FindByNickname(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "conn-old", client.ConnectionID)
}

func TestFindByNickname_DynamoError(t *testing.T) {
	db := &fakeConnectionsDynamo{queryErr: errors.New("boom")}
	s := mustNewConnectionStore(t, db)
	_, _, err := s.FindByNickname(context.Background(), "alice")
	require.Error(t, err)
	require.Contains(t, err.Error(), "FindByNickname")
}

func TestList_HappyPath(t *testing.T) {
	db := &fakeConnectionsDynamo{scanOut: &dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{
			clientItem("conn-1", "alice"),
			clientItem("conn-2", "bob"),
		},
	}}
	s := mustNewConnectionStore(t, db)
	clients, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 2)
	require.Equal(t, "bob", clients[1].Nickname)
}

func TestList_Empty(t *testing.T) {
	db := &fakeConnectionsDynamo{scanOut: &dynamodb.ScanOutput{}}
	s := mustNewConnectionStore(t, db)
	clients, err := s.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, clients)
}

func TestList_DynamoError(t *testing.T) {
	db := &fakeConnectionsDynamo{scanErr: errors.New("boom")}
	s := mustNewConnectionStore(t, db)
	_, err := s.List(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "List")
}

func TestNewConnectionStore_NilAPI(t *testing.T) {
	_, err := NewConnectionStore(nil, "clients-table")
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}

func TestNewConnectionStore_EmptyTableName(t *testing.T) {
	_, err := NewConnectionStore(&fakeConnectionsDynamo{}, " ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be empty")
}
