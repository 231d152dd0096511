package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrNoChannels is returned when no delivery channel is configured.
var ErrNoChannels = errors.New("no notification channel configured")

// Channel is one delivery route for a text message.
type Channel interface {
	Name() string
	Send(ctx context.Context, text string) error
}

// Chain tries channels in priority order until one succeeds.
type Chain struct {
	channels []Channel
	logger   zerolog.Logger
}

// NewChain builds a chain from channels, dropping nil entries and channels that report
// themselves unconfigured.
func NewChain(logger zerolog.Logger, channels ...Channel) *Chain {
	c := &Chain{logger: logger.With().Str("component", "notifier").Logger()}
	for _, ch := range channels {
		if ch == nil {
			continue
		}
		if cfg, ok := ch.(interface{ Configured() bool }); ok && !cfg.Configured() {
			continue
		}
		c.channels = append(c.channels, ch)
	}
	return c
}

// Names lists the active channels in order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.channels))
	for i, ch := range c.channels {
		names[i] = ch.Name()
	}
	return names
}

// Send delivers text on the first channel that accepts it and returns that channel's name.
// When every channel fails the joined errors are returned.
func (c *Chain) Send(ctx context.Context, text string) (string, error) {
	if len(c.channels) == 0 {
		return "", ErrNoChannels
	}
	var errs []error
	for _, ch := range c.channels {
		if err := ch.Send(ctx, text); err != nil {
			c.logger.Warn().Err(err).Str("channel", ch.Name()).Msg("delivery failed, trying next channel")
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		c.logger.Info().Str("channel", ch.Name()).Msg("message delivered")
		return ch.Name(), nil
	}
	return "", errors.Join(errs...)
}
