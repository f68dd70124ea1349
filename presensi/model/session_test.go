package model

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocationValidate(t *testing.T) {
	tests := []struct {
		name  string
		loc   Location
		valid bool
	}{
		{name: "Origin", loc: Location{0, 0}, valid: true},
		{name: "Corners", loc: Location{-90, 180}, valid: true},
		{name: "Jakarta", loc: Location{-6.2, 106.8}, valid: true},
		{name: "Latitude too high", loc: Location{90.0001, 0}},
		{name: "Latitude too low", loc: Location{-91, 0}},
		{name: "Longitude too high", loc: Location{0, 181}},
		{name: "Longitude too low", loc: Location{0, -180.5}},
		{name: "NaN", loc: Location{math.NaN(), 0}},
		{name: "Inf", loc: Location{0, math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.loc.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidLocation)
			assert.Equal(t, KindInvalidLocation, KindOf(err))
		})
	}
}

func TestSessionStatusAndClose(t *testing.T) {
	in := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	userID := uint(7)
	s := &AttendanceSession{ID: "a", UserID: userID, CheckInAt: in, CheckIn: Location{1, 2}, OpenKey: &userID}

	assert.Equal(t, StatusOpen, s.Status())
	assert.Nil(t, s.CheckOutLocation())
	assert.Nil(t, s.Duration())

	ref := "evidence/7/x.jpg"
	s.Close(in.Add(8*time.Hour), Location{3, 4}, &ref)

	assert.Equal(t, StatusClosed, s.Status())
	assert.Equal(t, &Location{3, 4}, s.CheckOutLocation())
	assert.Equal(t, 8*time.Hour, *s.Duration())
	assert.Nil(t, s.OpenKey)
	assert.Equal(t, &ref, s.CheckOutEvidenceRef)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNoOpenSession, KindOf(ErrNoOpenSession))
	assert.Equal(t, KindForbidden, KindOf(NewError(KindForbidden, "nope")))
	assert.Equal(t, KindInternal, KindOf(errors.New("connection refused")))
	assert.True(t, errors.Is(NewError(KindMissingEvidence, "custom"), ErrMissingEvidence))
	assert.False(t, errors.Is(ErrMissingEvidence, ErrNoOpenSession))
}
