package store

import (
	"context"
	"time"

	"presensi.app/presensi/core"
	"presensi.app/presensi/presensi/model"
)

// Store persists attendance sessions. Create and CloseSession are the only
// mutators and both keep the one-open-session-per-user invariant.
type Store interface {
	Create(ctx context.Context, session *model.AttendanceSession) (string, error)
	// FindOpenSession returns nil, nil when the user has no open session.
	FindOpenSession(ctx context.Context, userID uint) (*model.AttendanceSession, error)
	CloseSession(ctx context.Context, id string, at time.Time, loc model.Location, evidenceRef *string) (*model.AttendanceSession, error)
	ListSessions(ctx context.Context, filter Filter) ([]SessionRow, error)

	FindUser(ctx context.Context, userID uint) (*core.User, error)
	SaveUser(ctx context.Context, user *core.User) error
}

type Order int

const (
	NewestFirst Order = iota
	OldestFirst
)

type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t is within the inclusive range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

type Filter struct {
	// NamePattern is a case-insensitive substring of the user name.
	NamePattern string
	// DateRange is inclusive and matched against CheckInAt.
	DateRange *DateRange
	// DefaultToToday limits an otherwise unfiltered listing to sessions that
	// checked in during the current day of the store's timezone.
	DefaultToToday bool
	Order          Order
	Limit          int
}

func (f Filter) HasCriteria() bool {
	return f.NamePattern != "" || f.DateRange != nil
}

// SessionRow is a session joined with its owner's display name.
type SessionRow struct {
	model.AttendanceSession
	UserName string `json:"userName"`
}

// Clock abstracts time.Now for the "today" default.
type Clock func() time.Time

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
