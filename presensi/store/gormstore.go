package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"presensi.app/presensi/core"
	"presensi.app/presensi/presensi/model"
	"presensi.app/presensi/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps sessions in the service database (MySQL or PostgreSQL).
type GormStore struct {
	dm    *core.DatabaseManager
	loc   *time.Location
	clock Clock
}

func NewGormStore(dm *core.DatabaseManager, loc *time.Location, clock Clock) *GormStore {
	if clock == nil {
		clock = time.Now
	}
	return &GormStore{dm: dm, loc: loc, clock: clock}
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return id.String(), nil
}

func (s *GormStore) Create(ctx context.Context, session *model.AttendanceSession) (string, error) {
	if session.ID == "" {
		id, err := newID()
		if err != nil {
			return "", err
		}
		session.ID = id
	}
	userID := session.UserID
	session.OpenKey = &userID
	session.CheckInAt = session.CheckInAt.UTC()

	err := s.dm.Transaction(ctx, func(tx *gorm.DB) error {
		var open []string
		if err := tx.Model(&model.AttendanceSession{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND check_out_at IS NULL", userID).
			Limit(1).
			Pluck("id", &open).Error; err != nil {
			return err
		}
		if len(open) > 0 {
			return model.ErrSessionAlreadyOpen
		}
		return tx.Create(session).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost the race on the open_key unique index
		return "", model.ErrSessionAlreadyOpen
	}
	if err != nil {
		return "", err
	}
	return session.ID, nil
}

func (s *GormStore) FindOpenSession(ctx context.Context, userID uint) (*model.AttendanceSession, error) {
	var session model.AttendanceSession
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Where("user_id = ? AND check_out_at IS NULL", userID).
			Order("check_in_at DESC").
			Take(&session).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *GormStore) CloseSession(ctx context.Context, id string, at time.Time, loc model.Location, evidenceRef *string) (*model.AttendanceSession, error) {
	var session model.AttendanceSession
	err := s.dm.Transaction(ctx, func(tx *gorm.DB) error {
		// compare-and-set: only an open row can be closed
		result := tx.Model(&model.AttendanceSession{}).
			Where("id = ? AND check_out_at IS NULL", id).
			Updates(map[string]interface{}{
				"check_out_at":           at.UTC(),
				"check_out_latitude":     loc.Latitude,
				"check_out_longitude":    loc.Longitude,
				"check_out_evidence_ref": evidenceRef,
				"open_key":               nil,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return model.ErrNoOpenSession
		}
		return tx.Where("id = ?", id).Take(&session).Error
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// escapeLike escapes LIKE wildcards with '!' which needs no quoting in any
// supported dialect.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

func (s *GormStore) ListSessions(ctx context.Context, filter Filter) ([]SessionRow, error) {
	var rows []SessionRow
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		query := db.Table("attendance_sessions AS s").
			Select("s.*, COALESCE(u.name, '') AS user_name").
			Joins("LEFT JOIN users u ON u.id = s.user_id")

		if filter.NamePattern != "" {
			pattern := "%" + escapeLike(strings.ToLower(filter.NamePattern)) + "%"
			query = query.Where("LOWER(u.name) LIKE ? ESCAPE '!'", pattern)
		}
		if filter.DateRange != nil {
			query = query.Where("s.check_in_at BETWEEN ? AND ?", filter.DateRange.Start.UTC(), filter.DateRange.End.UTC())
		}
		if !filter.HasCriteria() && filter.DefaultToToday {
			start, end := utils.DayBounds(s.clock(), s.loc)
			query = query.Where("s.check_in_at >= ? AND s.check_in_at < ?", start.UTC(), end.UTC())
		}

		if filter.Order == OldestFirst {
			query = query.Order("s.check_in_at ASC").Order("s.id ASC")
		} else {
			query = query.Order("s.check_in_at DESC").Order("s.id DESC")
		}
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}

		return query.Scan(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if rows == nil {
		rows = []SessionRow{}
	}
	return rows, nil
}

func (s *GormStore) FindUser(ctx context.Context, userID uint) (*core.User, error) {
	var user *core.User
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		var err error
		user, err = core.FindUserByID(db, userID)
		return err
	})
	return user, err
}

func (s *GormStore) SaveUser(ctx context.Context, user *core.User) error {
	return s.dm.Exec(ctx, func(db *gorm.DB) error {
		return core.UpsertUsers(db, []core.User{*user})
	})
}
