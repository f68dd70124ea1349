package model

import "time"

type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

type AttendanceSession struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	UserID   uint   `gorm:"not null;index:idx_sessions_user_checkin,priority:1" json:"userId"`
	WorkDate string `gorm:"size:10;not null;index" json:"workDate"`

	CheckInAt          time.Time `gorm:"not null;index:idx_sessions_user_checkin,priority:2;index:idx_sessions_check_in_at" json:"checkInAt"`
	CheckIn            Location  `gorm:"embedded;embeddedPrefix:check_in_" json:"checkInLocation"`
	CheckInEvidenceRef *string   `gorm:"size:512" json:"checkInEvidenceRef,omitempty"`

	CheckOutAt          *time.Time `json:"checkOutAt"`
	CheckOutLatitude    *float64   `json:"-"`
	CheckOutLongitude   *float64   `json:"-"`
	CheckOutEvidenceRef *string    `gorm:"size:512" json:"checkOutEvidenceRef,omitempty"`

	// OpenKey holds UserID while the session is open and NULL afterwards;
	// its unique index allows a single open session per user.
	OpenKey *uint `gorm:"uniqueIndex" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (AttendanceSession) TableName() string {
	return "attendance_sessions"
}

func (s *AttendanceSession) Status() Status {
	if s.CheckOutAt == nil {
		return StatusOpen
	}
	return StatusClosed
}

func (s *AttendanceSession) CheckOutLocation() *Location {
	if s.CheckOutLatitude == nil || s.CheckOutLongitude == nil {
		return nil
	}
	return &Location{Latitude: *s.CheckOutLatitude, Longitude: *s.CheckOutLongitude}
}

// Duration is the elapsed time between check-in and check-out; nil while
// the session is open.
func (s *AttendanceSession) Duration() *time.Duration {
	if s.CheckOutAt == nil {
		return nil
	}
	d := s.CheckOutAt.Sub(s.CheckInAt)
	return &d
}

// Close applies a check-out to an in-memory copy. Stores persist the same
// fields atomically.
func (s *AttendanceSession) Close(at time.Time, loc Location, evidenceRef *string) {
	lat, lng := loc.Latitude, loc.Longitude
	s.CheckOutAt = &at
	s.CheckOutLatitude = &lat
	s.CheckOutLongitude = &lng
	s.CheckOutEvidenceRef = evidenceRef
	s.OpenKey = nil
}
