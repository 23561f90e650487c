// Package handler dispatches API Gateway WebSocket events to the presence
// and messaging services and maps their outcomes to proxy responses.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"chat-engine/internal/domain"
	"chat-engine/internal/usecase"
)

// Route keys. $connect and $disconnect are reserved by API Gateway; the rest
// are the application's custom routes.
const (
	routeConnect     = "$connect"
	routeDisconnect  = "$disconnect"
	routeSend        = "send"
	routeHistory     = "history"
	routeListClients = "listClients"
)

// PresenceManager is the presence surface consumed by the dispatcher.
type PresenceManager interface {
	Connect(ctx context.Context, connectionID, nickname string) error
	Disconnect(ctx context.Context, connectionID string) error
	ListClients(ctx context.Context, connectionID string) error
}

// MessageRouter is the messaging surface consumed by the dispatcher.
type MessageRouter interface {
	Send(ctx context.Context, senderConnectionID, text, receiverNickname string) error
	History(ctx context.Context, connectionID, targetNickname string, limit int32, cursor *domain.Cursor) error
}

type sendBody struct {
	Message  *string `json:"message"`
	Receiver *string `json:"receiver"`
}

type historyBody struct {
	TargetName *string        `json:"targetName"`
	Limit      *int32         `json:"limit"`
	StartKey   *domain.Cursor `json:"startKey"`
}

type Handler struct {
	presence PresenceManager
	messages MessageRouter
	push     usecase.Pusher
}

func NewHandler(presence PresenceManager, messages MessageRouter, push usecase.Pusher) (*Handler, error) {
	if presence == nil {
		return nil, errors.New("handler: presence manager must not be nil")
	}
	if messages == nil {
		return nil, errors.New("handler: message router must not be nil")
	}
	if push == nil {
		return nil, errors.New("handler: pusher must not be nil")
	}
	return &Handler{presence: presence, messages: messages, push: push}, nil
}

// Handle routes one WebSocket event. Every event yields exactly one proxy
// response; pushes triggered along the way are independent of it.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := event.RequestContext.ConnectionID

	var err error
	switch event.RequestContext.RouteKey {
	case routeConnect:
		err = h.presence.Connect(ctx, connectionID, event.QueryStringParameters["nickname"])
	case routeDisconnect:
		err = h.presence.Disconnect(ctx, connectionID)
	case routeSend:
		err = h.handleSend(ctx, connectionID, event.Body)
	case routeHistory:
		err = h.handleHistory(ctx, connectionID, event.Body)
	case routeListClients:
		err = h.presence.ListClients(ctx, connectionID)
	default:
		err = &usecase.Error{Code: usecase.ErrorUnrecognized, Reason: "unknown_route"}
	}

	return h.respond(ctx, connectionID, err), nil
}

func (h *Handler) handleSend(ctx context.Context, connectionID, body string) error {
	var parsed sendBody
	if err := json.Unmarshal([]byte(body), &parsed); err != nil || parsed.Message == nil || parsed.Receiver == nil {
		return &usecase.Error{Code: usecase.ErrorInvalidPayload, Reason: "invalid_send_payload", Err: err}
	}
	return h.messages.Send(ctx, connectionID, *parsed.Message, *parsed.Receiver)
}

func (h *Handler) handleHistory(ctx context.Context, connectionID, body string) error {
	var parsed historyBody
	if err := json.Unmarshal([]byte(body), &parsed); err != nil || parsed.TargetName == nil || parsed.Limit == nil {
		return &usecase.Error{Code: usecase.ErrorInvalidPayload, Reason: "invalid_history_payload", Err: err}
	}
	return h.messages.History(ctx, connectionID, *parsed.TargetName, *parsed.Limit, parsed.StartKey)
}

// respond maps an outcome to the synchronous acknowledgment. Validation
// failures are pushed back to the offending connection and acknowledged as
// success; the session is not torn down for a bad payload.
func (h *Handler) respond(ctx context.Context, connectionID string, err error) events.APIGatewayProxyResponse {
	if err == nil {
		return response(http.StatusOK)
	}

	var ucErr *usecase.Error
	if errors.As(err, &ucErr) {
		switch ucErr.Code {
		case usecase.ErrorForbidden:
			return response(http.StatusForbidden)
		case usecase.ErrorInvalidPayload:
			notice := domain.Push{Type: "error", Value: domain.ErrorNotice{Message: ucErr.Reason}}
			if pushErr := h.push.Post(ctx, connectionID, notice); pushErr != nil {
				slog.Error("failed to push validation error", "connectionId", connectionID, "err", pushErr)
			}
			return response(http.StatusOK)
		}
	}

	slog.Error("event handling failed", "connectionId", connectionID, "err", err)
	return response(http.StatusInternalServerError)
}

func response(status int) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{StatusCode: status}
}
