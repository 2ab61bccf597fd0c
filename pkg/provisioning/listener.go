// Package provisioning consumes user-created events from an external
// message source and registers the users locally. The broker client
// itself lives outside this service; any transport that can deliver
// UserEvent values over a channel can serve as a Source.
package provisioning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/multicloud/vm-service/pkg/audit"
	"github.com/multicloud/vm-service/pkg/metrics"
	"github.com/multicloud/vm-service/pkg/registry"
	"github.com/multicloud/vm-service/pkg/server/store"
)

// UserEvent is one user-created message from the provisioning stream.
type UserEvent struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// DecodeUserEvent parses a raw message payload. Source adapters use it
// to turn broker messages into events.
func DecodeUserEvent(payload []byte) (UserEvent, error) {
	var event UserEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return UserEvent{}, fmt.Errorf("provisioning: malformed event: %w", err)
	}
	if event.Username == "" {
		return UserEvent{}, errors.New("provisioning: event missing username")
	}
	return event, nil
}

// Source delivers user events. Events must be closed when the source
// shuts down; the listener then stops.
type Source interface {
	Name() string
	Events() <-chan UserEvent
}

// Listener is a long-lived task that creates a local user for every
// event a Source delivers. It shares nothing with the request path
// beyond the registry's CreateUser capability.
type Listener struct {
	registry *registry.Registry
	source   Source
	logger   zerolog.Logger
}

// NewListener creates a Listener over source.
func NewListener(reg *registry.Registry, source Source, logger zerolog.Logger) *Listener {
	return &Listener{
		registry: reg,
		source:   source,
		logger:   logger.With().Str("source", source.Name()).Logger(),
	}
}

// Run consumes events until ctx is cancelled or the source closes its
// channel. Duplicate users are ignored; other failures are logged and
// consumption continues.
func (l *Listener) Run(ctx context.Context) error {
	l.logger.Info().Msg("provisioning listener started")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info().Msg("provisioning listener stopped")
			return ctx.Err()
		case event, ok := <-l.source.Events():
			if !ok {
				l.logger.Info().Msg("provisioning source closed")
				return nil
			}
			l.handle(event)
		}
	}
}

func (l *Listener) handle(event UserEvent) {
	user, err := l.registry.CreateUser(event.Username, event.Email)
	switch {
	case err == nil:
		metrics.ProvisionedUsersTotal.WithLabelValues("created").Inc()
		l.logger.Info().Str("username", event.Username).Uint("user_id", user.ID).Msg("user provisioned")
		audit.Log(audit.ProvisionUserEvent{Username: event.Username, Source: l.source.Name(), Created: true})
	case errors.Is(err, store.ErrUserExists):
		metrics.ProvisionedUsersTotal.WithLabelValues("duplicate").Inc()
		l.logger.Debug().Str("username", event.Username).Msg("user already exists, event ignored")
		audit.Log(audit.ProvisionUserEvent{Username: event.Username, Source: l.source.Name()})
	default:
		metrics.ProvisionedUsersTotal.WithLabelValues("error").Inc()
		l.logger.Error().Err(err).Str("username", event.Username).Msg("failed to provision user")
		audit.Log(audit.ProvisionUserEvent{Username: event.Username, Source: l.source.Name(), ErrorMessage: err.Error()})
	}
}
