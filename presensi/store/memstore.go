package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"presensi.app/presensi/core"
	"presensi.app/presensi/presensi/model"
	"presensi.app/presensi/utils"
)

// MemoryStore is a process-local Store for development and tests. All state
// is lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.AttendanceSession
	open     map[uint]string
	users    map[uint]core.User
	nextUser uint

	loc   *time.Location
	clock Clock
}

func NewMemoryStore(loc *time.Location, clock Clock) *MemoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStore{
		sessions: make(map[string]*model.AttendanceSession),
		open:     make(map[uint]string),
		users:    make(map[uint]core.User),
		loc:      loc,
		clock:    clock,
	}
}

func (s *MemoryStore) Create(_ context.Context, session *model.AttendanceSession) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.open[session.UserID]; ok {
		return "", model.ErrSessionAlreadyOpen
	}
	if session.ID == "" {
		id, err := newID()
		if err != nil {
			return "", err
		}
		session.ID = id
	}
	userID := session.UserID
	session.OpenKey = &userID

	stored := *session
	s.sessions[stored.ID] = &stored
	s.open[userID] = stored.ID
	return stored.ID, nil
}

func (s *MemoryStore) FindOpenSession(_ context.Context, userID uint) (*model.AttendanceSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.open[userID]
	if !ok {
		return nil, nil
	}
	session := *s.sessions[id]
	return &session, nil
}

func (s *MemoryStore) CloseSession(_ context.Context, id string, at time.Time, loc model.Location, evidenceRef *string) (*model.AttendanceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[id]
	if !ok || stored.CheckOutAt != nil {
		return nil, model.ErrNoOpenSession
	}
	// mutate a copy so concurrent readers never see a half-closed session
	closed := *stored
	closed.Close(at, loc, evidenceRef)
	s.sessions[id] = &closed
	delete(s.open, closed.UserID)

	result := closed
	return &result, nil
}

func (s *MemoryStore) ListSessions(_ context.Context, filter Filter) ([]SessionRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern := strings.ToLower(filter.NamePattern)
	var today *DateRange
	if !filter.HasCriteria() && filter.DefaultToToday {
		start, end := utils.DayBounds(s.clock(), s.loc)
		today = &DateRange{Start: start, End: end.Add(-time.Nanosecond)}
	}

	rows := []SessionRow{}
	for _, session := range s.sessions {
		name := s.users[session.UserID].Name
		if pattern != "" && !strings.Contains(strings.ToLower(name), pattern) {
			continue
		}
		if filter.DateRange != nil && !filter.DateRange.Contains(session.CheckInAt) {
			continue
		}
		if today != nil && !today.Contains(session.CheckInAt) {
			continue
		}
		rows = append(rows, SessionRow{AttendanceSession: *session, UserName: name})
	}

	SortRows(rows, filter.Order)
	if filter.Limit > 0 && len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
	}
	return rows, nil
}

func (s *MemoryStore) FindUser(_ context.Context, userID uint) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (s *MemoryStore) SaveUser(_ context.Context, user *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == 0 {
		s.nextUser++
		for s.users[s.nextUser].ID != 0 {
			s.nextUser++
		}
		user.ID = s.nextUser
	}
	s.users[user.ID] = *user
	return nil
}

// SortRows orders rows by CheckInAt then ID; both keys follow order so the
// result is deterministic for equal timestamps.
func SortRows(rows []SessionRow, order Order) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.CheckInAt.Equal(b.CheckInAt) {
			if order == OldestFirst {
				return a.CheckInAt.Before(b.CheckInAt)
			}
			return a.CheckInAt.After(b.CheckInAt)
		}
		if order == OldestFirst {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
}
