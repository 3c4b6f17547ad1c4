// Package widget formats chat messages for a chat widget host: it picks the
// messages that need formatting, builds their side data and stores the HTML
// back on the message.
package widget

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/sbotchat/ai/format"
)

// Role of a chat message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultConcurrency bounds FormatAll when no limit is configured.
const DefaultConcurrency = 4

// Message is a chat message as the widget sees it.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// HRAction is nil when the backend sent no hr_action flag at all.
	HRAction  *bool  `json:"hr_action,omitempty"`
	APICalled string `json:"api_called,omitempty"`
	Intent    string `json:"intent,omitempty"`

	HTML      string `json:"html,omitempty"`
	Formatted bool   `json:"formatted"`
}

// NewMessage creates a message with a fresh ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// SideData returns the formatter side data, or nil when the message carries
// no hr_action flag.
func (m *Message) SideData() *format.SideData {
	if m.HRAction == nil {
		return nil
	}
	return &format.SideData{
		HRAction:  *m.HRAction,
		APICalled: m.APICalled,
		Intent:    m.Intent,
	}
}

// Adapter applies a Formatter to widget messages.
type Adapter struct {
	formatter   format.Formatter
	fallback    *format.GFMRenderer
	concurrency int
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithConcurrency bounds the number of messages FormatAll formats at once.
func WithConcurrency(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// NewAdapter creates an Adapter. formatter may be nil, in which case every
// message goes through the GFM fallback renderer.
func NewAdapter(formatter format.Formatter, opts ...Option) *Adapter {
	a := &Adapter{
		formatter:   formatter,
		fallback:    format.NewGFMRenderer(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FormatMessage formats one assistant message in place. It reports whether
// the message was formatted by this call; user messages and messages already
// formatted are left alone.
func (a *Adapter) FormatMessage(ctx context.Context, m *Message) bool {
	if m == nil || m.Role != RoleAssistant || m.Formatted {
		return false
	}

	req := &format.FormatRequest{
		Content:     m.Content,
		MessageType: string(m.Role),
		Data:        m.SideData(),
	}

	html, err := a.format(ctx, req)
	if err != nil {
		slog.Warn("formatter failed, using fallback renderer", "message_id", m.ID, "error", err)
		html = a.fallback.Format(ctx, req).HTML
	}

	m.HTML = html
	m.Formatted = true
	return true
}

func (a *Adapter) format(ctx context.Context, req *format.FormatRequest) (html string, err error) {
	if a.formatter == nil {
		return "", fmt.Errorf("no formatter configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("formatter panic: %v", r)
		}
	}()
	res := a.formatter.Format(ctx, req)
	if res == nil {
		return "", fmt.Errorf("formatter returned no result")
	}
	return res.HTML, nil
}

// FormatAll formats msgs concurrently and returns how many were formatted.
// A message repeated by pointer or by non-empty ID is formatted once.
// It stops scheduling new work once ctx is done.
func (a *Adapter) FormatAll(ctx context.Context, msgs []*Message) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	done := make([]bool, len(msgs))
	seen := make(map[*Message]struct{}, len(msgs))
	seenIDs := make(map[string]struct{}, len(msgs))
	for i, m := range msgs {
		if err := gctx.Err(); err != nil {
			break
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		if m != nil && m.ID != "" {
			if _, dup := seenIDs[m.ID]; dup {
				continue
			}
			seenIDs[m.ID] = struct{}{}
		}
		i, m := i, m
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			done[i] = a.FormatMessage(gctx, m)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	n := 0
	for _, ok := range done {
		if ok {
			n++
		}
	}
	return n, err
}
