// Package events publishes content lifecycle events to a message broker.
// Publishing is best effort: a broker failure is logged and never fails
// the originating request.
package events

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/slatecms/apiserver/types"
)

// ChannelPage is the broker channel page lifecycle events are published on.
const ChannelPage = "content.page"

// Page event names, carried in the "event" message attribute.
const (
	PageCreated     = "created"
	PagePublished   = "published"
	PageUnpublished = "unpublished"
	PageDeleted     = "deleted"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// PageEvent is the JSON body of a page lifecycle event.
type PageEvent struct {
	PageID string `json:"page_id"`
	UserID string `json:"user_id"`
	Slug   string `json:"slug"`
	Status string `json:"status"`
}

// Events wraps a backend with the content-event vocabulary. A nil
// *Events is valid and publishes nothing, so callers never need to
// branch on whether a broker is configured.
type Events struct {
	backend Backend
	log     zerolog.Logger
}

// New constructs an Events publisher over the provided backend.
func New(backend Backend, log zerolog.Logger) *Events {
	return &Events{backend: backend, log: log}
}

// PublishPage emits a page lifecycle event. Failures are logged only.
func (e *Events) PublishPage(ctx context.Context, event string, page types.Page) {
	if e == nil || e.backend == nil {
		return
	}

	body, err := json.Marshal(PageEvent{
		PageID: page.ID.String(),
		UserID: page.UserID.String(),
		Slug:   page.Slug,
		Status: page.Status,
	})
	if err != nil {
		e.log.Error().Err(err).Str("event", event).Msg("encode page event")
		return
	}

	attrs := map[string]string{"event": event}
	if _, err := e.backend.Publish(ctx, ChannelPage, body, attrs); err != nil {
		e.log.Error().Err(err).Str("event", event).Str("page_id", page.ID.String()).Msg("publish page event")
	}
}

// Subscribe consumes page events from the broker. It blocks until ctx is
// cancelled or the backend fails.
func (e *Events) Subscribe(ctx context.Context, handler Handler) error {
	return e.backend.Subscribe(ctx, ChannelPage, handler)
}

// Close closes the underlying backend.
func (e *Events) Close() error {
	if e == nil || e.backend == nil {
		return nil
	}
	return e.backend.Close()
}
