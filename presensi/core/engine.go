package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"presensi.app/presensi/presensi/model"
	"presensi.app/presensi/presensi/store"
	"presensi.app/presensi/utils"
)

// Policy names which transitions require photo evidence.
type Policy struct {
	RequireCheckInEvidence  bool `yaml:"require_checkin_evidence"`
	RequireCheckOutEvidence bool `yaml:"require_checkout_evidence"`
}

type EventKind string

const (
	EventCheckIn  EventKind = "checkin"
	EventCheckOut EventKind = "checkout"
)

type Event struct {
	Kind     EventKind
	Session  model.AttendanceSession
	UserName string
}

// Notifier receives committed transitions. Its errors are logged only.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

type Engine struct {
	store    store.Store
	policy   Policy
	loc      *time.Location
	clock    func() time.Time
	locks    *KeyedMutex
	notifier Notifier
	log      *slog.Logger
}

type Option func(*Engine)

func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithLocation sets the zone used to derive a session's work date.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func NewEngine(st store.Store, opts ...Option) *Engine {
	e := &Engine{
		store: st,
		loc:   utils.JakartaTZ,
		clock: time.Now,
		locks: NewKeyedMutex(),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Policy() Policy {
	return e.policy
}

func normalizeRef(ref *string) *string {
	if ref == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*ref)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// now is truncated to microseconds, the finest precision all supported
// databases keep.
func (e *Engine) now() time.Time {
	return e.clock().UTC().Truncate(time.Microsecond)
}

// CheckIn opens a new session for userID at the current time.
func (e *Engine) CheckIn(ctx context.Context, userID uint, loc model.Location, evidenceRef *string) (*model.AttendanceSession, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	evidenceRef = normalizeRef(evidenceRef)
	if e.policy.RequireCheckInEvidence && evidenceRef == nil {
		return nil, model.NewError(model.KindMissingEvidence, "photo evidence is required to check in")
	}

	unlock := e.locks.Lock(userID)
	defer unlock()

	open, err := e.store.FindOpenSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up open session: %w", err)
	}
	if open != nil {
		return nil, model.NewError(model.KindSessionAlreadyOpen,
			fmt.Sprintf("already checked in at %s, check out first", open.CheckInAt.In(e.loc).Format("15:04")))
	}

	now := e.now()
	session := &model.AttendanceSession{
		UserID:             userID,
		WorkDate:           utils.FormatDate(now, e.loc),
		CheckInAt:          now,
		CheckIn:            loc,
		CheckInEvidenceRef: evidenceRef,
	}
	if _, err := e.store.Create(ctx, session); err != nil {
		if errors.Is(err, model.ErrSessionAlreadyOpen) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	e.log.InfoContext(ctx, "checked in", "user_id", userID, "session_id", session.ID, "location", loc.String())
	e.notify(ctx, EventCheckIn, session)
	return session, nil
}

// CheckOut closes the caller's open session.
func (e *Engine) CheckOut(ctx context.Context, userID uint, loc model.Location, evidenceRef *string) (*model.AttendanceSession, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	evidenceRef = normalizeRef(evidenceRef)
	if e.policy.RequireCheckOutEvidence && evidenceRef == nil {
		return nil, model.NewError(model.KindMissingEvidence, "photo evidence is required to check out")
	}

	unlock := e.locks.Lock(userID)
	defer unlock()

	open, err := e.store.FindOpenSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up open session: %w", err)
	}
	if open == nil {
		return nil, model.ErrNoOpenSession
	}

	now := e.now()
	if now.Before(open.CheckInAt) {
		// clock moved backwards; never record a check-out before its check-in
		now = open.CheckInAt
	}

	session, err := e.store.CloseSession(ctx, open.ID, now, loc, evidenceRef)
	if err != nil {
		if errors.Is(err, model.ErrNoOpenSession) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to close session: %w", err)
	}

	e.log.InfoContext(ctx, "checked out", "user_id", userID, "session_id", session.ID, "duration", session.Duration().String())
	e.notify(ctx, EventCheckOut, session)
	return session, nil
}

func (e *Engine) notify(ctx context.Context, kind EventKind, session *model.AttendanceSession) {
	if e.notifier == nil {
		return
	}
	event := Event{Kind: kind, Session: *session}
	if user, err := e.store.FindUser(ctx, session.UserID); err == nil && user != nil {
		event.UserName = user.Name
	}
	if err := e.notifier.Notify(ctx, event); err != nil {
		e.log.WarnContext(ctx, "notification failed", "kind", kind, "session_id", session.ID, "error", err)
	}
}
