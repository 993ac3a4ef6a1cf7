package chat

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/client-platform/internal/model"
	"github.com/atelierhq/client-platform/internal/store"
	"github.com/atelierhq/client-platform/pkg/logger"
)

// fakeTransport implements Transport with programmable behavior.
type fakeTransport struct {
	mu sync.Mutex

	history  []model.Message
	sendErr  error
	typing   bool
	beacons  int
	fetches  int
	fetchErr error
}

func (f *fakeTransport) Messages(ctx context.Context, accountID string, after time.Time) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if after.IsZero() {
		out := make([]model.Message, len(f.history))
		copy(out, f.history)
		return out, nil
	}
	var out []model.Message
	for _, m := range f.history {
		if m.CreatedAt.After(after) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeTransport) SendMessage(ctx context.Context, req *model.SendMessageRequest) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	m := model.Message{
		ID:            uuid.New().String(),
		AccountID:     req.AccountID,
		SenderRole:    model.RoleAdmin,
		Content:       req.Content,
		CorrelationID: req.CorrelationID,
		CreatedAt:     time.Now(),
	}
	f.history = append(f.history, m)
	return &m, nil
}

func (f *fakeTransport) TypingStatus(ctx context.Context, accountID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.typing, nil
}

func (f *fakeTransport) BroadcastTyping(ctx context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.beacons++
	return nil
}

func (f *fakeTransport) beaconCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.beacons
}

func newTestSession(t *testing.T, transport Transport, cfg Config) *Session {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSession("acct-1", transport, store.NewCacheStore(db), logger.NewNop(), cfg, nil)
}

func TestOpenPaintsFromCacheThenFetches(t *testing.T) {
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	transport := &fakeTransport{history: []model.Message{
		msg("m1", base),
		msg("m2", base.Add(time.Minute)),
	}}

	session := newTestSession(t, transport, Config{})
	require.Equal(t, StateCold, session.State())

	require.NoError(t, session.Open(context.Background()))
	assert.Equal(t, StateLive, session.State())
	assert.Len(t, session.Messages(), 2)
	assert.True(t, session.Cursor().Equal(base.Add(time.Minute)))

	// A second session for the same account paints from cache even
	// when the network is down.
	transport.mu.Lock()
	transport.fetchErr = errors.New("network down")
	transport.mu.Unlock()

	session2 := NewSession("acct-1", transport, session.cache, logger.NewNop(), Config{}, nil)
	err := session2.Open(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateCached, session2.State())
	assert.Len(t, session2.Messages(), 2)
}

func TestSendSuccessReplacesOptimisticInPlace(t *testing.T) {
	base := time.Now().Add(-time.Hour)
	transport := &fakeTransport{history: []model.Message{msg("m1", base)}}
	session := newTestSession(t, transport, Config{})
	require.NoError(t, session.Open(context.Background()))

	require.NoError(t, session.Send(context.Background(), "  hello there  "))

	msgs := session.Messages()
	require.Len(t, msgs, 2)
	sent := msgs[1]
	assert.False(t, sent.Optimistic)
	assert.NotEmpty(t, sent.ID)
	assert.NotEqual(t, sent.ID, sent.CorrelationID, "server id replaces the temporary id")
	assert.Equal(t, "hello there", sent.Content)

	ids := map[string]int{}
	for _, m := range msgs {
		ids[m.ID]++
	}
	for id, n := range ids {
		assert.Equal(t, 1, n, "duplicate id %s", id)
	}
	assert.True(t, session.Cursor().Equal(sent.CreatedAt))
}

func TestSendFailureRollsBackAndRestoresDraft(t *testing.T) {
	base := time.Now().Add(-time.Hour)
	transport := &fakeTransport{
		history: []model.Message{msg("m1", base)},
		sendErr: errors.New("connection failed"),
	}
	session := newTestSession(t, transport, Config{})
	require.NoError(t, session.Open(context.Background()))
	before := session.Messages()

	session.SetDraft("hello")
	err := session.Send(context.Background(), "hello")
	require.Error(t, err)

	assert.Equal(t, before, session.Messages(), "list must equal the pre-send list")
	assert.Equal(t, "hello", session.Draft(), "typed text restored for retry")

	// The draft comes back exactly as typed, whitespace included.
	session.SetDraft("  hello  ")
	require.Error(t, session.Send(context.Background(), "  hello  "))
	assert.Equal(t, "  hello  ", session.Draft())
}

func TestSendRejectsEmptyContentLocally(t *testing.T) {
	transport := &fakeTransport{}
	session := newTestSession(t, transport, Config{})

	require.ErrorIs(t, session.Send(context.Background(), "   \n\t"), ErrEmptyMessage)
	transport.mu.Lock()
	defer transport.mu.Unlock()
	assert.Zero(t, transport.fetches)
	assert.Empty(t, transport.history)
}

func TestPollMergesIncrementalBatch(t *testing.T) {
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	transport := &fakeTransport{history: []model.Message{msg("m1", base)}}
	session := newTestSession(t, transport, Config{})
	require.NoError(t, session.Open(context.Background()))

	// New message lands server-side after the full fetch.
	transport.mu.Lock()
	transport.history = append(transport.history, msg("m2", base.Add(2*time.Hour)))
	transport.mu.Unlock()

	session.poll(context.Background())

	msgs := session.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "m2", msgs[1].ID)
	assert.True(t, session.Cursor().Equal(base.Add(2*time.Hour)))

	// Re-polling the same window is a no-op.
	session.poll(context.Background())
	assert.Len(t, session.Messages(), 2)
}

func TestPollPropagatesTypingState(t *testing.T) {
	transport := &fakeTransport{typing: true}
	session := newTestSession(t, transport, Config{})
	require.NoError(t, session.Open(context.Background()))
	require.False(t, session.PeerTyping())

	session.poll(context.Background())
	assert.True(t, session.PeerTyping())

	transport.mu.Lock()
	transport.typing = false
	transport.mu.Unlock()
	session.poll(context.Background())
	assert.False(t, session.PeerTyping())
}

func TestFocusBlurStopsPollingDeterministically(t *testing.T) {
	transport := &fakeTransport{}
	session := newTestSession(t, transport, Config{PollInterval: 10 * time.Millisecond})
	require.NoError(t, session.Open(context.Background()))

	session.Focus(context.Background())
	time.Sleep(50 * time.Millisecond)
	session.Blur()

	transport.mu.Lock()
	after := transport.fetches
	transport.mu.Unlock()
	assert.Greater(t, after, 1, "polling should have run while focused")

	time.Sleep(50 * time.Millisecond)
	transport.mu.Lock()
	assert.Equal(t, after, transport.fetches, "no polls after blur")
	transport.mu.Unlock()

	// Blur on an unfocused session is a no-op.
	session.Blur()
}

func TestTypingBeaconDebounce(t *testing.T) {
	transport := &fakeTransport{}
	session := newTestSession(t, transport, Config{TypingDebounce: 80 * time.Millisecond})

	for i := 0; i < 5; i++ {
		require.NoError(t, session.Typing(context.Background()))
	}
	assert.Equal(t, 1, transport.beaconCount(), "one beacon per debounce window")

	time.Sleep(120 * time.Millisecond)
	require.NoError(t, session.Typing(context.Background()))
	assert.Equal(t, 2, transport.beaconCount(), "window self-clears")
}

func TestCacheWindowIsCappedAndExcludesOptimistic(t *testing.T) {
	base := time.Now().Add(-24 * time.Hour)
	var history []model.Message
	for i := 0; i < 30; i++ {
		history = append(history, msg(uuid.New().String(), base.Add(time.Duration(i)*time.Minute)))
	}
	transport := &fakeTransport{history: history, sendErr: errors.New("down")}
	session := newTestSession(t, transport, Config{CacheWindow: 10})
	require.NoError(t, session.Open(context.Background()))

	// A failed optimistic send must not leak into the persisted window.
	_ = session.Send(context.Background(), "will fail")

	var cached []model.Message
	require.True(t, session.cache.Read("chat_acct-1", &cached))
	require.Len(t, cached, 10)
	assert.Equal(t, history[len(history)-10].ID, cached[0].ID, "window keeps the most recent messages")
	for _, m := range cached {
		assert.False(t, m.Optimistic)
	}
}

func TestReceiptProjection(t *testing.T) {
	now := time.Now()
	pending := model.Message{Optimistic: true}
	read := model.Message{ReadAt: &now}
	sent := model.Message{}

	assert.Equal(t, model.ReceiptPending, pending.Receipt())
	assert.Equal(t, model.ReceiptRead, read.Receipt())
	assert.Equal(t, model.ReceiptSent, sent.Receipt())
}
