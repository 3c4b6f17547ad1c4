package widget

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/sbotchat/ai/format"
)

type countingFormatter struct {
	calls atomic.Int32
	last  atomic.Pointer[format.FormatRequest]
	panic bool
}

func (c *countingFormatter) Format(_ context.Context, req *format.FormatRequest) *format.FormatResult {
	c.calls.Add(1)
	c.last.Store(req)
	if c.panic {
		panic("formatter down")
	}
	return &format.FormatResult{HTML: "<div>ok</div>"}
}

func boolPtr(b bool) *bool { return &b }

func TestNewMessage(t *testing.T) {
	m := NewMessage(RoleAssistant, "hi")
	assert.Len(t, m.ID, 36)
	assert.Equal(t, RoleAssistant, m.Role)
	assert.False(t, m.Timestamp.IsZero())
	assert.NotEqual(t, m.ID, NewMessage(RoleAssistant, "hi").ID)
}

func TestMessage_SideData(t *testing.T) {
	m := NewMessage(RoleAssistant, "x")
	assert.Nil(t, m.SideData())

	m.HRAction = boolPtr(false)
	m.APICalled = "hr.leave"
	sd := m.SideData()
	require.NotNil(t, sd)
	assert.False(t, sd.HRAction)
	assert.Equal(t, "hr.leave", sd.APICalled)
}

func TestAdapter_FormatMessage(t *testing.T) {
	f := &countingFormatter{}
	a := NewAdapter(f)

	user := NewMessage(RoleUser, "hello")
	assert.False(t, a.FormatMessage(context.Background(), user))
	assert.Empty(t, user.HTML)

	m := NewMessage(RoleAssistant, "answer")
	m.HRAction = boolPtr(true)
	m.Intent = "create_employee"
	require.True(t, a.FormatMessage(context.Background(), m))
	assert.True(t, m.Formatted)
	assert.Equal(t, "<div>ok</div>", m.HTML)

	req := f.last.Load()
	require.NotNil(t, req)
	assert.Equal(t, "answer", req.Content)
	assert.Equal(t, "assistant", req.MessageType)
	require.NotNil(t, req.Data)
	assert.True(t, req.Data.HRAction)
	assert.Equal(t, "create_employee", req.Data.Intent)

	assert.False(t, a.FormatMessage(context.Background(), m), "already formatted")
	assert.Equal(t, int32(1), f.calls.Load())
	assert.False(t, a.FormatMessage(context.Background(), nil))
}

func TestAdapter_Fallback(t *testing.T) {
	for name, a := range map[string]*Adapter{
		"no formatter":       NewAdapter(nil),
		"formatter panicked": NewAdapter(&countingFormatter{panic: true}),
	} {
		t.Run(name, func(t *testing.T) {
			m := NewMessage(RoleAssistant, "**bold**")
			require.True(t, a.FormatMessage(context.Background(), m))
			assert.Contains(t, m.HTML, "<strong>bold</strong>")
			assert.True(t, m.Formatted)
		})
	}
}

func TestAdapter_FormatAll(t *testing.T) {
	f := &countingFormatter{}
	a := NewAdapter(f, WithConcurrency(2))

	msgs := []*Message{
		NewMessage(RoleAssistant, "a"),
		NewMessage(RoleUser, "b"),
		NewMessage(RoleAssistant, "c"),
		NewMessage(RoleAssistant, "d"),
	}
	n, err := a.FormatAll(context.Background(), msgs)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int32(3), f.calls.Load())
	assert.False(t, msgs[1].Formatted)
}

func TestAdapter_FormatAllDuplicates(t *testing.T) {
	f := &countingFormatter{}
	a := NewAdapter(f, WithConcurrency(4))

	m := NewMessage(RoleAssistant, "a")
	twin := NewMessage(RoleAssistant, "a again")
	twin.ID = m.ID
	other := NewMessage(RoleAssistant, "b")

	n, err := a.FormatAll(context.Background(), []*Message{m, m, twin, other, m, nil})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int32(2), f.calls.Load())
	assert.True(t, m.Formatted)
	assert.False(t, twin.Formatted)
	assert.True(t, other.Formatted)
}

func TestAdapter_FormatAllCancelled(t *testing.T) {
	f := &countingFormatter{}
	a := NewAdapter(f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := a.FormatAll(ctx, []*Message{NewMessage(RoleAssistant, "a")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	assert.Zero(t, f.calls.Load())
}

func TestAdapter_WithOrchestrator(t *testing.T) {
	a := NewAdapter(format.NewOrchestrator(format.NotConfigured()))

	m := NewMessage(RoleAssistant, "| A | B |\n|---|---|\n| 1 | 2 |")
	require.True(t, a.FormatMessage(context.Background(), m))
	assert.Contains(t, m.HTML, "ai-response-type-table")
}
