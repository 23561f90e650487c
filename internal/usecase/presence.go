package usecase

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"chat-engine/internal/domain"
)

// ConnectionReadWriter defines the connection-record operations consumed by
// the presence and messaging services.
type ConnectionReadWriter interface {
	Put(ctx context.Context, client domain.Client) error
	Delete(ctx context.Context, connectionID string) error
	Get(ctx context.Context, connectionID string) (domain.Client, bool, error)
	FindByNickname(ctx context.Context, nickname string) (domain.Client, bool, error)
	List(ctx context.Context) ([]domain.Client, error)
}

// PresenceService owns the connect/disconnect lifecycle and the live-client
// broadcast. It holds no state of its own; the connection store is the single
// source of truth shared by concurrent invocations.
type PresenceService struct {
	conns ConnectionReadWriter
	push  Pusher
}

func NewPresenceService(conns ConnectionReadWriter, push Pusher) (*PresenceService, error) {
	if conns == nil {
		return nil, errors.New("usecase: connection store must not be nil")
	}
	if push == nil {
		return nil, errors.New("usecase: pusher must not be nil")
	}
	return &PresenceService{conns: conns, push: push}, nil
}

// Connect registers a connection under a nickname and announces the updated
// client list to everyone else.
//
// The nickname's current holder, if any, is probed with a ping. A live holder
// keeps the nickname and the connect is rejected; a dead holder's record is
// reclaimed and the connect proceeds. The probe-then-insert sequence is not
// atomic: two simultaneous connects with the same nickname can both pass the
// probe before either inserts. Accepted weak consistency; there is no lock or
// conditional write arbitrating the winner.
func (s *PresenceService) Connect(ctx context.Context, connectionID, nickname string) error {
	if nickname == "" {
		return newError(ErrorForbidden, "missing_nickname", nil)
	}
	if strings.Contains(nickname, "#") {
		// "#" is reserved as the pair-key separator.
		return newError(ErrorForbidden, "invalid_nickname", nil)
	}

	holder, found, err := s.conns.FindByNickname(ctx, nickname)
	if err != nil {
		return newError(ErrorInternal, "connections_lookup_error", err)
	}
	if found {
		delivered, err := postTo(ctx, s.conns, s.push, holder.ConnectionID, domain.Ping())
		if err != nil {
			return newError(ErrorInternal, "liveness_probe_error", err)
		}
		if delivered {
			return newError(ErrorForbidden, "nickname_taken", nil)
		}
		// Ghost record reclaimed by postTo; the nickname is free again.
	}

	if err := s.conns.Put(ctx, domain.Client{ConnectionID: connectionID, Nickname: nickname}); err != nil {
		return newError(ErrorInternal, "connections_write_error", err)
	}
	return s.Broadcast(ctx, connectionID)
}

// Disconnect removes a connection's record and announces the updated client
// list to everyone left. Disconnecting an unregistered connection is a no-op
// that still broadcasts.
func (s *PresenceService) Disconnect(ctx context.Context, connectionID string) error {
	if err := s.conns.Delete(ctx, connectionID); err != nil {
		return newError(ErrorInternal, "connections_delete_error", err)
	}
	return s.Broadcast(ctx, connectionID)
}

// Broadcast pushes the current client list to every connection except
// excludeConnectionID. Recipient pushes run concurrently and are fault
// isolated: a dead recipient is reclaimed without affecting the rest, and
// the join waits for all deliveries before reporting the first fatal error.
func (s *PresenceService) Broadcast(ctx context.Context, excludeConnectionID string) error {
	clients, err := s.conns.List(ctx)
	if err != nil {
		return newError(ErrorInternal, "connections_list_error", err)
	}
	payload := clientListPush(clients)

	var g errgroup.Group
	for _, client := range clients {
		if client.ConnectionID == excludeConnectionID {
			continue
		}
		connectionID := client.ConnectionID
		g.Go(func() error {
			_, err := postTo(ctx, s.conns, s.push, connectionID, payload)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return newError(ErrorInternal, "broadcast_push_error", err)
	}
	return nil
}

// ListClients pushes the current client list to the requesting connection
// only.
func (s *PresenceService) ListClients(ctx context.Context, connectionID string) error {
	clients, err := s.conns.List(ctx)
	if err != nil {
		return newError(ErrorInternal, "connections_list_error", err)
	}
	if _, err := postTo(ctx, s.conns, s.push, connectionID, clientListPush(clients)); err != nil {
		return newError(ErrorInternal, "client_list_push_error", err)
	}
	return nil
}

func clientListPush(clients []domain.Client) domain.Push {
	return domain.Push{Type: "clients", Value: domain.ClientList{Clients: clients}}
}
