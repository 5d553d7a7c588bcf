package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/haatos/gitbridge/internal/metrics"
	"github.com/rs/zerolog"
)

const (
	MessageTypeConnection      = "connection"
	MessageTypeRepositoryEvent = "repository_event"

	EventTypeRepositorySuccess = "repository_success"
	EventTypeRepositoryFailure = "repository_failure"

	connectionMessage = "Connected to repository events WebSocket"
	timestampLayout   = "2006-01-02T15:04:05.000Z07:00"
	sendTimeout       = 5 * time.Second
)

// RepositoryStatus is the orchestrator's report on a repository setup step.
type RepositoryStatus struct {
	GUID           string          `json:"guid"`
	PipelineName   string          `json:"pipeline_name"`
	RepoURL        string          `json:"repo_url"`
	Branch         string          `json:"branch"`
	ProjectPath    string          `json:"project_path"`
	RepoStatus     string          `json:"repo_status"`
	ValidationInfo json.RawMessage `json:"validation_info"`
	Timestamp      string          `json:"timestamp"`
}

type RepositoryEvent struct {
	GUID           string          `json:"guid"`
	PipelineName   string          `json:"pipeline_name"`
	RepoURL        string          `json:"repo_url"`
	Branch         string          `json:"branch"`
	ProjectPath    string          `json:"project_path"`
	RepoStatus     string          `json:"repo_status"`
	ValidationInfo json.RawMessage `json:"validation_info"`
	Timestamp      string          `json:"timestamp"`
	EventType      string          `json:"event_type"`
}

type ConnectionMessage struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type EventMessage struct {
	Type      string          `json:"type"`
	Data      RepositoryEvent `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// Broadcaster fans repository events out to every client in its set.
// Delivery is best effort and failures are never reported to the sender.
type Broadcaster struct {
	clients *ClientSet
	now     func() time.Time
	logger  zerolog.Logger
}

func NewBroadcaster(clients *ClientSet, logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		clients: clients,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger.With().Str("component", "broadcaster").Logger(),
	}
}

func (b *Broadcaster) timestamp() string {
	return b.now().UTC().Format(timestampLayout)
}

// Connect sends c the connection acknowledgement and then adds it to the
// set. A client whose acknowledgement fails is never added.
func (b *Broadcaster) Connect(ctx context.Context, c Client) error {
	ack, err := json.Marshal(ConnectionMessage{
		Type:      MessageTypeConnection,
		Message:   connectionMessage,
		Timestamp: b.timestamp(),
	})
	if err != nil {
		return err
	}
	if err := b.send(ctx, c, ack); err != nil {
		return fmt.Errorf("err sending connection acknowledgement: %w", err)
	}

	b.clients.Add(c)
	metrics.LiveClients.Set(float64(b.clients.Len()))
	b.logger.Info().Str("client_id", c.ID()).Int("clients", b.clients.Len()).Msg("client connected")
	return nil
}

func (b *Broadcaster) Disconnect(id string) {
	if b.clients.Remove(id) {
		metrics.LiveClients.Set(float64(b.clients.Len()))
		b.logger.Info().Str("client_id", id).Int("clients", b.clients.Len()).Msg("client disconnected")
	}
}

// Broadcast sends event to every open client and returns the number of
// clients it was delivered to. Clients that fail to receive it are dropped.
func (b *Broadcaster) Broadcast(ctx context.Context, event RepositoryEvent) int {
	message, err := json.Marshal(EventMessage{
		Type:      MessageTypeRepositoryEvent,
		Data:      event,
		Timestamp: b.timestamp(),
	})
	if err != nil {
		b.logger.Error().Err(err).Str("guid", event.GUID).Msg("err marshaling repository event")
		return 0
	}

	delivered := 0
	for _, c := range b.clients.Snapshot() {
		if !c.Open() {
			continue
		}
		if err := b.send(ctx, c, message); err != nil {
			b.logger.Warn().Err(err).Str("client_id", c.ID()).Msg("dropping client after failed send")
			b.Disconnect(c.ID())
			continue
		}
		delivered++
	}

	metrics.Broadcasts.Inc()
	metrics.EventsDelivered.Add(float64(delivered))
	b.logger.Info().
		Str("guid", event.GUID).
		Str("event_type", event.EventType).
		Int("delivered", delivered).
		Msg("broadcast repository event")
	return delivered
}

func (b *Broadcaster) send(ctx context.Context, c Client, message []byte) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return c.Send(ctx, message)
}

// ReceiveRepositoryStatus turns an orchestrator report into a repository
// event and broadcasts it.
func (b *Broadcaster) ReceiveRepositoryStatus(
	ctx context.Context,
	status RepositoryStatus,
) (*RepositoryEvent, int, error) {
	if strings.TrimSpace(status.GUID) == "" || strings.TrimSpace(status.RepoStatus) == "" {
		return nil, 0, NewValidationError("guid and repo_status are required")
	}

	event := RepositoryEvent{
		GUID:           status.GUID,
		PipelineName:   status.PipelineName,
		RepoURL:        status.RepoURL,
		Branch:         status.Branch,
		ProjectPath:    status.ProjectPath,
		RepoStatus:     status.RepoStatus,
		ValidationInfo: status.ValidationInfo,
		Timestamp:      status.Timestamp,
		EventType:      EventType(status.RepoStatus),
	}
	if event.Timestamp == "" {
		event.Timestamp = b.timestamp()
	}

	return &event, b.Broadcast(ctx, event), nil
}

// EventType classifies a repository status as success or failure.
func EventType(repoStatus string) string {
	if strings.HasSuffix(repoStatus, "_failed") {
		return EventTypeRepositoryFailure
	}
	return EventTypeRepositorySuccess
}

func (b *Broadcaster) Count() int {
	return b.clients.Len()
}

// Shutdown closes and removes every client.
func (b *Broadcaster) Shutdown() {
	for _, c := range b.clients.Snapshot() {
		if err := c.Close("server shutting down"); err != nil {
			b.logger.Debug().Err(err).Str("client_id", c.ID()).Msg("err closing client")
		}
		b.Disconnect(c.ID())
	}
}
