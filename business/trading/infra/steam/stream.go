package steam

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/skinflow/fulfillment-bot/internal/apperror"
	"github.com/skinflow/fulfillment-bot/internal/logger"
	"github.com/skinflow/fulfillment-bot/internal/wsconn"
)

// streamEvent is a push notification from the mobile event stream. Only
// confirmation events are interesting here.
type streamEvent struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Nonce     string `json:"nonce"`
	CreatorID string `json:"creator_id"`
}

// StreamConfirmer listens on the reconnecting websocket event stream and
// accepts a confirmation as soon as its push event arrives. It is the first
// strategy in line: when the stream is healthy a confirmation lands within
// a second or two of the offer being sent.
type StreamConfirmer struct {
	client *Client
	ws     *wsconn.Client
	wait   time.Duration
	log    logger.LoggerInterface

	mu   sync.Mutex
	seen map[string]confirmation // creator id -> confirmation
}

func NewStreamConfirmer(client *Client, ws *wsconn.Client, wait time.Duration, log logger.LoggerInterface) *StreamConfirmer {
	return &StreamConfirmer{
		client: client,
		ws:     ws,
		wait:   wait,
		log:    log,
		seen:   make(map[string]confirmation),
	}
}

// Listen consumes stream events until the context is canceled or the
// connection is closed for good. Run it in its own goroutine.
func (s *StreamConfirmer) Listen(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.ws.Messages():
			if !ok {
				s.log.Warn(ctx, "confirmation stream closed")
				return
			}
			s.handle(ctx, msg)
		}
	}
}

func (s *StreamConfirmer) handle(ctx context.Context, msg []byte) {
	var event streamEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		s.log.Debug(ctx, "discarding malformed stream event", "error", err)
		return
	}
	if event.Type != "confirmation" || event.CreatorID == "" {
		return
	}

	s.mu.Lock()
	s.seen[event.CreatorID] = confirmation{
		ID:        event.ID,
		Nonce:     event.Nonce,
		CreatorID: event.CreatorID,
	}
	s.mu.Unlock()
}

func (s *StreamConfirmer) Name() string { return "stream" }

// Confirm waits for the offer's confirmation event to arrive on the stream
// and accepts it. If the stream is disconnected or the event does not show
// up within the wait window, the next strategy takes over.
func (s *StreamConfirmer) Confirm(ctx context.Context, offerID string) error {
	if !s.ws.IsConnected() {
		return apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithMessage("Confirmation stream is not connected"))
	}

	deadline := time.NewTimer(s.wait)
	defer deadline.Stop()
	poll := time.NewTicker(100 * time.Millisecond)
	defer poll.Stop()

	for {
		if conf, ok := s.take(offerID); ok {
			return s.client.acceptConfirmation(ctx, conf)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return apperror.New(apperror.CodeConfirmationFailed,
				apperror.WithMessage("No confirmation event within wait window"),
				apperror.WithContext("offer "+offerID))
		case <-poll.C:
		}
	}
}

func (s *StreamConfirmer) take(creatorID string) (confirmation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conf, ok := s.seen[creatorID]
	if ok {
		delete(s.seen, creatorID)
	}
	return conf, ok
}
