// Package notify delivers push messages through an ntfy topic.
//
// Delivery is strictly best-effort: a failed or skipped notification is
// logged and forgotten, never surfaced to the caller, so the outcome of a
// clock action is never polluted by notification transport problems.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/nagazul/ttclock/internal/logger"
)

// ntfy priorities used by the tool.
const (
	PriorityDefault = "default"
	PriorityHigh    = "high"
)

// defaultTag is applied when a message carries no tags of its own.
const defaultTag = "time"

// requestTimeout bounds one delivery attempt.
const requestTimeout = 10 * time.Second

// timestampLayout is ISO 8601 with milliseconds, prefixed to every body.
const timestampLayout = "2006-01-02T15:04:05.000-07:00"

// Message is one notification to deliver.
type Message struct {
	// Title is the optional notification headline.
	Title string
	// Body is the message text. A timestamp prefix is added on delivery.
	Body string
	// Priority is an ntfy priority, defaulting to PriorityDefault.
	Priority string
	// Tags are ntfy tags, defaulting to the clock tag.
	Tags []string
}

// Notifier sends messages subject to the enablement rules. Force marks
// critical failures that should be delivered even when routine
// notifications are off.
type Notifier interface {
	Send(ctx context.Context, msg Message, force bool)
}

// Client posts messages to one ntfy topic.
type Client struct {
	endpoint string
	client   *http.Client
	now      func() time.Time
}

// NewClient builds a transport for the topic on the given server.
func NewClient(server, topic string) *Client {
	endpoint := server
	if u, err := url.Parse(server); err == nil {
		// Use path.Join to normalize duplicate slashes when composing the URL path.
		u.Path = path.Join(u.Path, topic)
		endpoint = u.String()
	}

	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: requestTimeout},
		now:      time.Now,
	}
}

// Notify posts the message. Failures are logged at error level and dropped.
func (c *Client) Notify(ctx context.Context, msg Message) {
	body := fmt.Sprintf("[%s] %s", c.now().Format(timestampLayout), msg.Body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(body))
	if err != nil {
		logger.ErrorKV(ctx, "Unable to build notification request", "error", err)
		return
	}

	priority := msg.Priority
	if priority == "" {
		priority = PriorityDefault
	}

	tags := defaultTag
	if len(msg.Tags) > 0 {
		tags = strings.Join(msg.Tags, ",")
	}

	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", tags)

	if msg.Title != "" {
		req.Header.Set("Title", msg.Title)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logger.ErrorKV(ctx, "Unable to send notification", "endpoint", c.endpoint, "error", err)
		return
	}

	defer func() {
		_ = resp.Body.Close() //nolint:errcheck // Nothing useful to do with a close error.
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		logger.ErrorKV(ctx, "Notification rejected", "endpoint", c.endpoint, "status", resp.Status)
		return
	}

	logger.InfoKV(ctx, "Notification sent", "endpoint", c.endpoint, "priority", priority)
}

// Sender applies the enablement rules in front of a Client. A nil client
// silences everything, including forced messages, which is how quiet mode
// and a missing topic behave.
type Sender struct {
	client  *Client
	enabled bool
}

// NewSender wires the rules: client may be nil, enabled reflects the
// notification flag.
func NewSender(client *Client, enabled bool) *Sender {
	return &Sender{client: client, enabled: enabled}
}

// Send delivers the message when routine notifications are enabled, or
// when force is set and a topic is configured at all.
func (s *Sender) Send(ctx context.Context, msg Message, force bool) {
	if s == nil || s.client == nil {
		logger.Debug(ctx, "Notification skipped: no topic configured")
		return
	}

	if !s.enabled && !force {
		logger.Debug(ctx, "Notification skipped: notifications disabled")
		return
	}

	s.client.Notify(ctx, msg)
}
