package common

import (
	"encoding/json"
	"fmt"
	"time"

	"presensi.app/presensi/utils"
)

// DateOnly is a yyyy-MM-dd calendar date. The zero value marshals as "".
type DateOnly struct {
	time.Time
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	if s == "" {
		d.Time = time.Time{}
		return nil
	}

	t, err := time.Parse(utils.DateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date format: %v", err)
	}

	d.Time = t
	return nil
}

func (d DateOnly) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(d.Format(utils.DateLayout))
}

// In returns midnight of the date in loc, or the zero time when unset.
func (d DateOnly) In(loc *time.Location) time.Time {
	if d.Time.IsZero() {
		return time.Time{}
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}
