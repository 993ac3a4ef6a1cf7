// Package chat implements the per-conversation synchronization engine:
// cached paint, full fetch, incremental polling by cursor, optimistic
// send with rollback, and typing-status propagation.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atelierhq/client-platform/internal/model"
	"github.com/atelierhq/client-platform/internal/store"
	"github.com/atelierhq/client-platform/pkg/logger"
	"github.com/atelierhq/client-platform/pkg/metrics"
)

// ErrEmptyMessage is returned when a send is rejected locally because
// the content is empty or whitespace-only. No network call is made.
var ErrEmptyMessage = errors.New("message content is empty")

// State is the lifecycle state of a conversation view.
type State string

const (
	// StateCold means no data yet, local or remote.
	StateCold State = "cold"
	// StateCached means the last-known messages are showing while the
	// full fetch is in flight.
	StateCached State = "cached"
	// StateLive means the view reflects a server-confirmed fetch.
	StateLive State = "live"
)

// Transport is the API surface the engine needs. *api.Client satisfies it.
type Transport interface {
	Messages(ctx context.Context, accountID string, after time.Time) ([]model.Message, error)
	SendMessage(ctx context.Context, req *model.SendMessageRequest) (*model.Message, error)
	TypingStatus(ctx context.Context, accountID string) (bool, error)
	BroadcastTyping(ctx context.Context, accountID string) error
}

// Config holds tunables for a conversation session.
type Config struct {
	PollInterval   time.Duration // default 3s
	TypingDebounce time.Duration // default 3s
	CacheWindow    int           // default 200
}

func (c Config) withDefaults() Config {
	if c.PollInterval == 0 {
		c.PollInterval = 3 * time.Second
	}
	if c.TypingDebounce == 0 {
		c.TypingDebounce = 3 * time.Second
	}
	if c.CacheWindow == 0 {
		c.CacheWindow = 200
	}
	return c
}

// Session synchronizes one open conversation.
type Session struct {
	accountID string
	transport Transport
	cache     *store.CacheStore
	logger    *logger.Logger
	cfg       Config
	onChange  func()

	mu         sync.Mutex
	state      State
	messages   []model.Message
	cursor     time.Time
	draft      string
	peerTyping bool

	// typingArmed suppresses beacons inside the debounce window.
	typingArmed bool

	// version increments on every message-list change; the timeline
	// projection is memoized against it.
	version         uint64
	timeline        []Entry
	timelineVersion uint64

	pollStop chan struct{}
	pollDone sync.WaitGroup
}

// NewSession creates a session for one conversation. onChange is called
// after every observable state change; pass nil when not needed.
func NewSession(accountID string, transport Transport, cache *store.CacheStore, log *logger.Logger, cfg Config, onChange func()) *Session {
	return &Session{
		accountID: accountID,
		transport: transport,
		cache:     cache,
		logger:    log.WithAccount(accountID),
		cfg:       cfg.withDefaults(),
		onChange:  onChange,
		state:     StateCold,
	}
}

func (s *Session) cacheKey() string {
	return "chat_" + s.accountID
}

func (s *Session) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Open paints the conversation from cache, then replaces it with a full
// fetch and sets the cursor to the newest message. The cached paint
// stands when the fetch fails; the error is returned for display.
func (s *Session) Open(ctx context.Context) error {
	var cached []model.Message
	if s.cache.Read(s.cacheKey(), &cached) && len(cached) > 0 {
		metrics.RecordCacheRead(s.cacheKey(), "hit")
		s.mu.Lock()
		s.messages = cached
		s.state = StateCached
		s.version++
		s.mu.Unlock()
		s.notify()
	} else {
		metrics.RecordCacheRead(s.cacheKey(), "miss")
	}

	full, err := s.transport.Messages(ctx, s.accountID, time.Time{})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.messages = full
	s.cursor = AdvanceCursor(s.cursor, full)
	s.state = StateLive
	s.version++
	s.persistLocked()
	s.mu.Unlock()
	s.notify()
	return nil
}

// Focus starts the polling loop. Calling Focus while already focused is
// a no-op. Polling runs until Blur or ctx cancellation.
func (s *Session) Focus(ctx context.Context) {
	s.mu.Lock()
	if s.pollStop != nil {
		s.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	s.pollStop = stop
	s.mu.Unlock()

	s.pollDone.Add(1)
	go func() {
		defer s.pollDone.Done()
		ticker := time.NewTicker(s.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.poll(ctx)
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Blur stops the polling loop and waits for it to exit. No timer
// outlives the screen.
func (s *Session) Blur() {
	s.mu.Lock()
	stop := s.pollStop
	s.pollStop = nil
	s.mu.Unlock()
	if stop != nil {
		close(stop)
		s.pollDone.Wait()
	}
}

// poll issues one incremental fetch plus a typing-status read.
func (s *Session) poll(ctx context.Context) {
	s.mu.Lock()
	cursor := s.cursor
	s.mu.Unlock()

	batch, err := s.transport.Messages(ctx, s.accountID, cursor)
	if err != nil {
		metrics.RecordPoll("error", 0)
		s.logger.Debug("incremental poll failed", zap.Error(err))
	} else if len(batch) > 0 {
		s.mu.Lock()
		s.messages = Merge(dropConfirmed(s.messages, batch), batch)
		s.cursor = AdvanceCursor(s.cursor, batch)
		s.state = StateLive
		s.version++
		s.persistLocked()
		s.mu.Unlock()
		metrics.RecordPoll("merged", len(batch))
		s.notify()
	} else {
		metrics.RecordPoll("empty", 0)
	}

	typing, err := s.transport.TypingStatus(ctx, s.accountID)
	if err != nil {
		return // stale indicator is corrected by the next poll
	}
	s.mu.Lock()
	changed := s.peerTyping != typing
	s.peerTyping = typing
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// Send posts content with the optimistic protocol: the message appears
// locally at once and the draft clears before any network round-trip.
// On failure the optimistic entry is removed and the typed text is
// restored to the draft so the user can retry; the message is never
// silently lost or duplicated.
func (s *Session) Send(ctx context.Context, content string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ErrEmptyMessage
	}

	correlationID := uuid.New().String()
	optimistic := model.Message{
		ID:            correlationID,
		AccountID:     s.accountID,
		SenderRole:    model.RoleAdmin,
		Content:       trimmed,
		CorrelationID: correlationID,
		CreatedAt:     time.Now(),
		Optimistic:    true,
	}

	s.mu.Lock()
	s.messages = append(s.messages, optimistic)
	s.draft = ""
	s.version++
	s.mu.Unlock()
	s.notify()

	confirmed, err := s.transport.SendMessage(ctx, &model.SendMessageRequest{
		AccountID:     s.accountID,
		Content:       trimmed,
		CorrelationID: correlationID,
	})
	if err != nil || confirmed == nil {
		// Restore the text exactly as typed, not the trimmed form.
		s.rollback(correlationID, content)
		if err == nil {
			err = errors.New("send returned no message")
		}
		return err
	}

	s.mu.Lock()
	replaced := false
	for i := range s.messages {
		if s.messages[i].CorrelationID == correlationID && s.messages[i].Optimistic {
			s.messages[i] = *confirmed
			replaced = true
			break
		}
	}
	if !replaced {
		// A poll delivered the confirmed record first; drop the
		// optimistic duplicate if it is still present.
		s.messages = removeOptimistic(s.messages, correlationID)
	}
	s.cursor = AdvanceCursor(s.cursor, []model.Message{*confirmed})
	s.version++
	s.persistLocked()
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Session) rollback(correlationID, typed string) {
	s.mu.Lock()
	s.messages = removeOptimistic(s.messages, correlationID)
	s.draft = typed
	s.version++
	s.mu.Unlock()
	metrics.OptimisticRollbacksTotal.Inc()
	s.logger.Warn("optimistic send rolled back")
	s.notify()
}

// dropConfirmed removes optimistic entries whose confirmed record is
// arriving in the batch, so a poll racing an in-flight send never
// leaves both copies visible.
func dropConfirmed(msgs, batch []model.Message) []model.Message {
	confirmed := make(map[string]struct{}, len(batch))
	for _, m := range batch {
		if m.CorrelationID != "" {
			confirmed[m.CorrelationID] = struct{}{}
		}
	}
	if len(confirmed) == 0 {
		return msgs
	}
	out := make([]model.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Optimistic {
			if _, ok := confirmed[m.CorrelationID]; ok {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

// removeOptimistic never compacts in place: previously returned slices
// may still be aliased by a projection a caller is reading.
func removeOptimistic(msgs []model.Message, correlationID string) []model.Message {
	out := make([]model.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Optimistic && m.CorrelationID == correlationID {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Typing reports a local keystroke. Beacons are debounced to at most
// one per window; the window self-clears with no cancellation path.
func (s *Session) Typing(ctx context.Context) error {
	s.mu.Lock()
	if s.typingArmed {
		s.mu.Unlock()
		return nil
	}
	s.typingArmed = true
	s.mu.Unlock()

	time.AfterFunc(s.cfg.TypingDebounce, func() {
		s.mu.Lock()
		s.typingArmed = false
		s.mu.Unlock()
	})

	return s.transport.BroadcastTyping(ctx, s.accountID)
}

// persistLocked writes the most recent CacheWindow confirmed messages.
// Optimistic entries are never persisted. Caller holds s.mu.
func (s *Session) persistLocked() {
	window := make([]model.Message, 0, len(s.messages))
	for _, m := range s.messages {
		if !m.Optimistic {
			window = append(window, m)
		}
	}
	if len(window) > s.cfg.CacheWindow {
		window = window[len(window)-s.cfg.CacheWindow:]
	}
	if err := s.cache.Write(s.cacheKey(), window); err != nil {
		s.logger.Warn("failed to persist conversation cache", zap.Error(err))
	}
}

// SetDraft updates the composer text.
func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	s.draft = text
	s.mu.Unlock()
}

// Draft returns the composer text.
func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Messages returns a copy of the current message list, oldest first.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PeerTyping reports whether the other party is typing.
func (s *Session) PeerTyping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerTyping
}

// Cursor returns the last-seen message timestamp.
func (s *Session) Cursor() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}
