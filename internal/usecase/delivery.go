package usecase

import (
	"context"
	"errors"
)

// Pusher delivers an encodable payload to a single connection.
type Pusher interface {
	Post(ctx context.Context, connectionID string, payload any) error
}

// goneError is satisfied by push errors for connections that no longer exist
// (pushgw.GoneError). Probed by behavior so this package stays free of the
// gateway types.
type goneError interface {
	Gone() bool
}

type connectionDeleter interface {
	Delete(ctx context.Context, connectionID string) error
}

// postTo delivers payload to a connection. A dead target is reclaimed: its
// connection record is deleted and postTo reports delivered=false with no
// error. Any other push failure is returned as-is.
func postTo(ctx context.Context, conns connectionDeleter, push Pusher, connectionID string, payload any) (bool, error) {
	err := push.Post(ctx, connectionID, payload)
	if err == nil {
		return true, nil
	}

	var gone goneError
	if errors.As(err, &gone) && gone.Gone() {
		if delErr := conns.Delete(ctx, connectionID); delErr != nil {
			return false, delErr
		}
		return false, nil
	}
	return false, err
}
