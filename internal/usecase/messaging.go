package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"chat-engine/internal/domain"
)

// MessageReadWriter defines the message-log operations consumed by the
// messaging service.
type MessageReadWriter interface {
	Append(ctx context.Context, msg domain.Message) error
	Page(ctx context.Context, pairKey string, limit int32, cursor *domain.Cursor) ([]domain.Message, *domain.Cursor, error)
}

// MessageService persists direct messages and forwards them to the
// receiver's live connection, and serves paginated history queries.
type MessageService struct {
	conns ConnectionReadWriter
	log   MessageReadWriter
	push  Pusher
}

func NewMessageService(conns ConnectionReadWriter, log MessageReadWriter, push Pusher) (*MessageService, error) {
	if conns == nil {
		return nil, errors.New("usecase: connection store must not be nil")
	}
	if log == nil {
		return nil, errors.New("usecase: message log must not be nil")
	}
	if push == nil {
		return nil, errors.New("usecase: pusher must not be nil")
	}
	return &MessageService{conns: conns, log: log, push: push}, nil
}

// Send persists a message from the sender's registered nickname to a
// receiver nickname, then forwards it to the receiver's connection if one is
// registered. Persistence always precedes delivery; an undeliverable message
// stays stored and is served by History later. No retry, no queue.
func (s *MessageService) Send(ctx context.Context, senderConnectionID, text, receiverNickname string) error {
	sender, found, err := s.conns.Get(ctx, senderConnectionID)
	if err != nil {
		return newError(ErrorInternal, "connections_lookup_error", err)
	}
	if !found {
		return newError(ErrorNotFound, "sender_not_connected", nil)
	}

	msg := domain.Message{
		MessageID: newUUID(),
		CreatedAt: now().UnixMilli(),
		PairKey:   domain.PairKey(sender.Nickname, receiverNickname),
		Sender:    sender.Nickname,
		Text:      text,
	}
	if err := s.log.Append(ctx, msg); err != nil {
		return newError(ErrorInternal, "messages_write_error", err)
	}

	receiver, found, err := s.conns.FindByNickname(ctx, receiverNickname)
	if err != nil {
		return newError(ErrorInternal, "connections_lookup_error", err)
	}
	if !found {
		return nil
	}

	notice := domain.Push{Type: "message", Value: domain.MessageNotice{Sender: sender.Nickname, Text: text}}
	if _, err := postTo(ctx, s.conns, s.push, receiver.ConnectionID, notice); err != nil {
		return newError(ErrorInternal, "message_push_error", err)
	}
	return nil
}

// History pushes one page of the conversation between the requester's
// nickname and targetNickname to the requesting connection, newest first.
// The pushed page carries a continuation cursor when more records remain; an
// empty conversation yields an empty page, not an error.
func (s *MessageService) History(ctx context.Context, connectionID, targetNickname string, limit int32, cursor *domain.Cursor) error {
	requester, found, err := s.conns.Get(ctx, connectionID)
	if err != nil {
		return newError(ErrorInternal, "connections_lookup_error", err)
	}
	if !found {
		return newError(ErrorNotFound, "requester_not_connected", nil)
	}
	if limit <= 0 {
		return newError(ErrorInvalidPayload, "invalid_limit", nil)
	}

	msgs, next, err := s.log.Page(ctx, domain.PairKey(requester.Nickname, targetNickname), limit, cursor)
	if err != nil {
		return newError(ErrorInternal, "messages_read_error", err)
	}

	page := domain.MessagePage{Messages: msgs}
	if next != nil {
		page.Cursor = next
	}
	if _, err := postTo(ctx, s.conns, s.push, connectionID, domain.Push{Type: "messages", Value: page}); err != nil {
		return newError(ErrorInternal, "messages_push_error", err)
	}
	return nil
}

var newUUID = func() string {
	return uuid.NewString()
}

var now = time.Now
