package report

import (
	"fmt"
	"strings"
	"time"

	"presensi.app/presensi/utils"
)

type Summary struct {
	Sessions int
	Open     int
	Closed   int
	Users    int
	Worked   time.Duration
}

func Summarize(rows []Row) Summary {
	closed := utils.Filter(rows, func(r Row) bool { return r.CheckOutAt != nil })
	s := Summary{
		Sessions: len(rows),
		Open:     len(rows) - len(closed),
		Closed:   len(closed),
		Users:    len(utils.GroupBy(rows, func(r Row) uint { return r.UserID })),
	}
	for _, r := range closed {
		s.Worked += time.Duration(utils.Deref(r.DurationSeconds)) * time.Second
	}
	return s
}

// Text renders a short plain-text digest, one line per session.
func (s Summary) Text(date string, rows []Row) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Attendance %s: %d sessions, %d users, %d still checked in, %s worked\n",
		date, s.Sessions, s.Users, s.Open, s.Worked.Round(time.Minute))
	for _, r := range rows {
		out := "-"
		if r.CheckOutAt != nil {
			out = r.CheckOutAt.Format("15:04")
		}
		fmt.Fprintf(&b, "• %s  %s → %s\n", r.UserName, r.CheckInAt.Format("15:04"), out)
	}
	return b.String()
}
