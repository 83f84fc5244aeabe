package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/avachat/chat-widget/internal/core/domain"
	"github.com/avachat/chat-widget/internal/core/ports"
	"github.com/avachat/chat-widget/internal/infrastructure/metrics"
)

// Error slot texts shown to the user after a failed operation.
const (
	ErrTextLoad   = "Failed to load messages"
	ErrTextSend   = "Failed to send message"
	ErrTextEdit   = "Failed to edit message"
	ErrTextDelete = "Failed to delete message"
)

const (
	opLoad   = "load"
	opSend   = "send"
	opEdit   = "edit"
	opDelete = "delete"
)

// MessageSynchronizer owns the local message list of the current session and
// keeps it consistent with the backend. Sends insert a Pending entry that is
// replaced in place by the entities the backend returns; edits and deletes
// replace the entry with the matching id. The list is discarded whenever the
// session generation changes.
type MessageSynchronizer struct {
	session ports.SessionGate
	gateway ports.MessageGateway
	log     zerolog.Logger
	now     func() time.Time
	newID   func() uuid.UUID

	mu        sync.Mutex
	gen       uint64
	entries   []domain.Entry
	errText   string
	hasErr    bool
	loading   int
	observers map[int]func([]domain.Entry)
	nextObs   int

	unsubscribe func()
}

// NewMessageSynchronizer binds a synchronizer to the session. Call Close to
// detach it.
func NewMessageSynchronizer(session ports.SessionGate, gateway ports.MessageGateway, log zerolog.Logger) *MessageSynchronizer {
	s := &MessageSynchronizer{
		session:   session,
		gateway:   gateway,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.New,
		gen:       session.Snapshot().Generation,
		observers: make(map[int]func([]domain.Entry)),
	}
	s.unsubscribe = session.Subscribe(s.onSession)
	return s
}

// Close detaches the synchronizer from the session.
func (s *MessageSynchronizer) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Entries returns a copy of the message list in insertion order.
func (s *MessageSynchronizer) Entries() []domain.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Messages returns only the confirmed messages, in list order.
func (s *MessageSynchronizer) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, 0, len(s.entries))
	for _, e := range s.entries {
		if c, ok := e.(domain.Confirmed); ok {
			out = append(out, c.Message)
		}
	}
	return out
}

// Err returns the current error message, if any.
func (s *MessageSynchronizer) Err() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errText, s.hasErr
}

// DismissError clears the error slot.
func (s *MessageSynchronizer) DismissError() {
	s.mu.Lock()
	s.errText, s.hasErr = "", false
	s.mu.Unlock()
}

// Loading reports whether a Load is in flight.
func (s *MessageSynchronizer) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading > 0
}

// Subscribe registers fn to be called with the list after every mutation.
func (s *MessageSynchronizer) Subscribe(fn func([]domain.Entry)) func() {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Load replaces the list with the backend's full message list.
func (s *MessageSynchronizer) Load(ctx context.Context) error {
	st, err := s.begin(opLoad)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.clearErrLocked()
	s.loading++
	s.mu.Unlock()

	msgs, err := s.gateway.ListMessages(ctx, st.Token)

	s.mu.Lock()
	s.loading--
	if !s.currentLocked(st) {
		s.mu.Unlock()
		return s.stale(opLoad)
	}
	if err != nil {
		s.mu.Unlock()
		return s.fail(ctx, opLoad, ErrTextLoad, err)
	}
	entries := make([]domain.Entry, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, domain.Confirmed{Message: m})
	}
	s.entries = entries
	snap := s.copyLocked()
	s.mu.Unlock()

	metrics.SyncOperationsTotal.WithLabelValues(opLoad, "ok").Inc()
	s.log.Debug().Int("count", len(msgs)).Msg("messages loaded")
	s.publish(snap)
	return nil
}

// Send posts content as a new message. Whitespace-only content is ignored
// without contacting the backend.
func (s *MessageSynchronizer) Send(ctx context.Context, content string) ([]domain.Message, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		metrics.SyncOperationsTotal.WithLabelValues(opSend, "skipped").Inc()
		return nil, nil
	}
	st, err := s.begin(opSend)
	if err != nil {
		return nil, err
	}

	pending := domain.Pending{TemporaryMessage: domain.TemporaryMessage{
		TempID:    s.newID(),
		Content:   text,
		Sender:    domain.SenderUser,
		Timestamp: s.now(),
	}}

	s.mu.Lock()
	if !s.currentLocked(st) {
		s.mu.Unlock()
		return nil, s.stale(opSend)
	}
	s.clearErrLocked()
	s.entries = append(s.entries, pending)
	snap := s.copyLocked()
	s.mu.Unlock()
	metrics.PendingMessages.Inc()
	s.publish(snap)

	created, err := s.gateway.SendMessage(ctx, st.Token, text)
	metrics.PendingMessages.Dec()

	s.mu.Lock()
	if !s.currentLocked(st) {
		s.mu.Unlock()
		return nil, s.stale(opSend)
	}
	if err != nil {
		s.removePendingLocked(pending.TempID)
		snap = s.copyLocked()
		s.mu.Unlock()
		s.publish(snap)
		return nil, s.fail(ctx, opSend, ErrTextSend, err)
	}
	s.reconcilePendingLocked(pending.TempID, created)
	snap = s.copyLocked()
	s.mu.Unlock()

	metrics.SyncOperationsTotal.WithLabelValues(opSend, "ok").Inc()
	s.log.Debug().Int("created", len(created)).Msg("message sent")
	s.publish(snap)
	return created, nil
}

// Edit replaces the content of the message with the given id.
// Whitespace-only content is ignored without contacting the backend.
func (s *MessageSynchronizer) Edit(ctx context.Context, id int64, content string) (*domain.Message, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		metrics.SyncOperationsTotal.WithLabelValues(opEdit, "skipped").Inc()
		return nil, nil
	}
	st, err := s.beginOnMessage(opEdit, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.gateway.EditMessage(ctx, st.Token, id, text)
	if err == nil && updated == nil {
		updated = s.localEdit(id, text)
	}
	return s.finishReplace(ctx, st, opEdit, ErrTextEdit, id, updated, err)
}

// Delete soft-deletes the message with the given id. The entry stays in the
// list as a tombstone.
func (s *MessageSynchronizer) Delete(ctx context.Context, id int64) (*domain.Message, error) {
	st, err := s.beginOnMessage(opDelete, id)
	if err != nil {
		return nil, err
	}

	deleted, err := s.gateway.DeleteMessage(ctx, st.Token, id)
	if err == nil && deleted == nil {
		deleted = s.localTombstone(id)
	}
	return s.finishReplace(ctx, st, opDelete, ErrTextDelete, id, deleted, err)
}

func (s *MessageSynchronizer) finishReplace(ctx context.Context, st domain.SessionState, op, errText string, id int64, msg *domain.Message, err error) (*domain.Message, error) {
	s.mu.Lock()
	if !s.currentLocked(st) {
		s.mu.Unlock()
		return nil, s.stale(op)
	}
	if err != nil {
		s.mu.Unlock()
		return nil, s.fail(ctx, op, errText, err)
	}
	if msg == nil {
		s.mu.Unlock()
		return nil, nil
	}
	changed := s.replaceLocked(*msg)
	snap := s.copyLocked()
	s.mu.Unlock()

	metrics.SyncOperationsTotal.WithLabelValues(op, "ok").Inc()
	s.log.Debug().Int64("id", id).Str("op", op).Msg("message updated")
	if changed {
		s.publish(snap)
	}
	return msg, nil
}

// begin checks the session gate and returns the state the operation runs under.
func (s *MessageSynchronizer) begin(op string) (domain.SessionState, error) {
	st := s.session.Snapshot()
	if !st.Authenticated {
		metrics.SyncOperationsTotal.WithLabelValues(op, "skipped").Inc()
		return st, domain.ErrNotAuthenticated
	}
	// Another subscriber may act on a transition before onSession has seen it.
	s.onSession(st)
	return st, nil
}

func (s *MessageSynchronizer) beginOnMessage(op string, id int64) (domain.SessionState, error) {
	st, err := s.begin(op)
	if err != nil {
		return st, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return st, domain.ErrMessageNotFound
	}
	if s.entries[idx].(domain.Confirmed).IsDeleted() {
		return st, domain.ErrMessageDeleted
	}
	s.clearErrLocked()
	return st, nil
}

// fail records a failed backend call. A 401 ends the session instead of
// touching the error slot.
func (s *MessageSynchronizer) fail(ctx context.Context, op, errText string, err error) error {
	if errors.Is(err, domain.ErrUnauthorized) {
		metrics.SyncOperationsTotal.WithLabelValues(op, "unauthorized").Inc()
		s.log.Info().Str("op", op).Msg("session expired")
		s.session.Logout(ctx)
		return err
	}

	metrics.SyncOperationsTotal.WithLabelValues(op, "failed").Inc()
	s.log.Warn().Err(err).Str("op", op).Msg("backend call failed")
	s.mu.Lock()
	s.errText, s.hasErr = errText, true
	s.mu.Unlock()
	return err
}

func (s *MessageSynchronizer) stale(op string) error {
	metrics.SyncOperationsTotal.WithLabelValues(op, "stale").Inc()
	s.log.Debug().Str("op", op).Msg("dropping response from a previous session")
	return domain.ErrStaleSession
}

// onSession discards the list whenever the session moves to a newer
// generation. Generations only grow, so older states are ignored.
func (s *MessageSynchronizer) onSession(st domain.SessionState) {
	s.mu.Lock()
	if st.Generation <= s.gen {
		s.mu.Unlock()
		return
	}
	s.gen = st.Generation
	s.entries = nil
	s.errText, s.hasErr = "", false
	s.mu.Unlock()

	s.publish(nil)
}

func (s *MessageSynchronizer) currentLocked(st domain.SessionState) bool {
	return s.gen == st.Generation && s.session.Snapshot().Generation == st.Generation
}

func (s *MessageSynchronizer) clearErrLocked() {
	s.errText, s.hasErr = "", false
}

func (s *MessageSynchronizer) indexLocked(id int64) int {
	for i, e := range s.entries {
		if c, ok := e.(domain.Confirmed); ok && c.ID == id {
			return i
		}
	}
	return -1
}

func (s *MessageSynchronizer) pendingIndexLocked(tempID uuid.UUID) int {
	for i, e := range s.entries {
		if p, ok := e.(domain.Pending); ok && p.TempID == tempID {
			return i
		}
	}
	return -1
}

func (s *MessageSynchronizer) removePendingLocked(tempID uuid.UUID) {
	if i := s.pendingIndexLocked(tempID); i >= 0 {
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
	}
}

// reconcilePendingLocked swaps the pending entry for the created messages.
// Messages already present (a Load landed first) are replaced by id instead of
// being inserted twice.
func (s *MessageSynchronizer) reconcilePendingLocked(tempID uuid.UUID, created []domain.Message) {
	fresh := make([]domain.Entry, 0, len(created))
	for _, m := range created {
		if !s.replaceLocked(m) {
			fresh = append(fresh, domain.Confirmed{Message: m})
		}
	}

	i := s.pendingIndexLocked(tempID)
	if i < 0 {
		s.entries = append(s.entries, fresh...)
		return
	}
	out := make([]domain.Entry, 0, len(s.entries)-1+len(fresh))
	out = append(out, s.entries[:i]...)
	out = append(out, fresh...)
	out = append(out, s.entries[i+1:]...)
	s.entries = out
}

// replaceLocked swaps the entry with m.ID for m and reports whether one existed.
func (s *MessageSynchronizer) replaceLocked(m domain.Message) bool {
	i := s.indexLocked(m.ID)
	if i < 0 {
		return false
	}
	s.entries[i] = domain.Confirmed{Message: m}
	return true
}

func (s *MessageSynchronizer) localEdit(id int64, content string) *domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return nil
	}
	m := s.entries[i].(domain.Confirmed).Message
	now := s.now()
	m.Content = content
	m.UpdatedAt = &now
	return &m
}

func (s *MessageSynchronizer) localTombstone(id int64) *domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return nil
	}
	m := s.entries[i].(domain.Confirmed).Message
	now := s.now()
	m.DeletedAt = &now
	return &m
}

func (s *MessageSynchronizer) copyLocked() []domain.Entry {
	if s.entries == nil {
		return nil
	}
	out := make([]domain.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *MessageSynchronizer) publish(entries []domain.Entry) {
	s.mu.Lock()
	fns := make([]func([]domain.Entry), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(entries)
	}
}
