// Package pushgw delivers payloads to WebSocket connections through the
// API Gateway Management API.
package pushgw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
)

// gatewayAPI is the minimal management-API interface required by Client.
// Defined here for testability.
type gatewayAPI interface {
	PostToConnection(ctx context.Context, in *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

// GoneError reports a push to a connection that no longer exists. Callers
// probe for it through the Gone method rather than this concrete type, so the
// AWS error types stay inside this package.
type GoneError struct {
	ConnectionID string
}

func (e *GoneError) Error() string {
	return fmt.Sprintf("pushgw: connection %s is gone", e.ConnectionID)
}

// Gone marks the error as a dead-target delivery failure.
func (e *GoneError) Gone() bool { return true }

// Client posts payloads to connections.
type Client struct {
	api gatewayAPI
}

// New creates a Client with the given management API implementation.
func New(api gatewayAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("pushgw: api must not be nil")
	}
	return &Client{api: api}, nil
}

// Post JSON-encodes payload and delivers it to the connection. A dead target
// yields a *GoneError; any other failure is an infrastructure error.
func (c *Client) Post(ctx context.Context, connectionID string, payload any) error {
	if connectionID == "" {
		return errors.New("pushgw: connection id is required")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("pushgw: encode payload: %w", err)
	}

	_, err = c.api.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         data,
	})
	if err != nil {
		var gone *types.GoneException
		if errors.As(err, &gone) {
			return &GoneError{ConnectionID: connectionID}
		}
		return fmt.Errorf("pushgw: post to connection %s: %w", connectionID, err)
	}
	return nil
}
