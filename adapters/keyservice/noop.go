package keyservice

import (
	"context"
	"time"

	"github.com/artpar/shopgate/ports"
	"github.com/rs/zerolog"
)

// Noop is a key service that accepts every call without calling out.
// Useful for development when no key-issuance service is configured.
type Noop struct {
	logger zerolog.Logger
}

// NewNoop creates a noop key service.
func NewNoop(logger zerolog.Logger) *Noop {
	return &Noop{logger: logger}
}

// CreateKey logs and accepts.
func (n *Noop) CreateKey(ctx context.Context, email, apiKey string, validTo time.Time) error {
	n.logger.Debug().Str("email", email).Time("valid_to", validTo).Msg("noop key service: create")
	return nil
}

// UpdateKey logs and accepts.
func (n *Noop) UpdateKey(ctx context.Context, userID, email, apiKey string, validTo time.Time) error {
	n.logger.Debug().Str("user_id", userID).Time("valid_to", validTo).Msg("noop key service: update")
	return nil
}

// ExpireKey logs and accepts.
func (n *Noop) ExpireKey(ctx context.Context, userID string) error {
	n.logger.Debug().Str("user_id", userID).Msg("noop key service: expire")
	return nil
}

// Ensure interface compliance.
var _ ports.KeyService = (*Noop)(nil)
