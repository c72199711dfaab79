package activity

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"deviceloan/models"
	"deviceloan/state"
	"deviceloan/store"
)

// notifyActions are the tags that additionally raise a user-facing
// notification; every other tag is recorded silently.
var notifyActions = map[string]bool{
	models.ActionBorrowRequested: true,
	models.ActionRequestApproved: true,
	models.ActionRequestRejected: true,
	models.ActionDeviceReturned:  true,
	models.ActionDeviceAssigned:  true,
}

// Sink appends audit entries and derives notifications from them.
type Sink struct {
	gw       store.Gateway
	state    *state.AppState
	notifier *Notifier
	log      *zap.Logger
}

func NewSink(gw store.Gateway, st *state.AppState, n *Notifier, log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{gw: gw, state: st, notifier: n, log: log}
}

func (s *Sink) Notifier() *Notifier { return s.notifier }

// Log persists one audit entry stamped with the actor's email. A nil actor
// (no active session) is a no-op. The entry joins the in-memory trail only
// after the store confirms it; a failed write is logged and swallowed, the
// audit trail never blocks the operation that produced it.
func (s *Sink) Log(ctx context.Context, actor *models.Profile, action, details string) {
	if actor == nil {
		return
	}
	entry := models.ActivityLog{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		UserEmail: actor.Email,
		Action:    action,
		Details:   details,
	}
	payload, err := store.Sanitize(entry)
	if err != nil {
		s.log.Warn("activity log sanitize failed", zap.Error(err))
		return
	}
	if _, err := store.Call(ctx, s.gw, store.ActionAppend, store.ActivityLogs, payload); err != nil {
		s.log.Warn("activity log append failed", zap.String("action", action), zap.Error(err))
		return
	}
	s.state.PrependActivityLog(entry)
	if notifyActions[action] {
		s.notifier.Push(details, "info")
	}
}

// Notifier keeps the five most recent transient notifications. Each entry
// expires on its own timer, independent of the others.
type Notifier struct {
	mu     sync.Mutex
	ttl    time.Duration
	nextID int64
	items  []models.Notification
}

const maxNotifications = 5

func NewNotifier(ttl time.Duration) *Notifier {
	return &Notifier{ttl: ttl}
}

func (n *Notifier) Push(message, severity string) models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	item := models.Notification{ID: n.nextID, Message: message, Type: severity}
	n.items = append([]models.Notification{item}, n.items...)
	if len(n.items) > maxNotifications {
		n.items = n.items[:maxNotifications]
	}
	if n.ttl > 0 {
		id := item.ID
		time.AfterFunc(n.ttl, func() { n.Remove(id) })
	}
	return item
}

func (n *Notifier) Remove(id int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, item := range n.items {
		if item.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return
		}
	}
}

func (n *Notifier) List() []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.Notification(nil), n.items...)
}
