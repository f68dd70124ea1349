package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"presensi.app/presensi/presensi/model"
	"presensi.app/presensi/presensi/store"
	"presensi.app/presensi/security"
	"presensi.app/presensi/utils"
)

// Policy controls who may run which report.
type Policy struct {
	AdminOnlyFilteredReports bool `yaml:"admin_only_filtered_reports"`
	AdminOnlyDailyReport     bool `yaml:"admin_only_daily_report"`
}

func DefaultPolicy() Policy {
	return Policy{AdminOnlyFilteredReports: true}
}

// Params are the caller's report criteria. Start and End are calendar days
// in the report timezone and are inclusive.
type Params struct {
	Name  string
	Start *time.Time
	End   *time.Time
	Order store.Order
}

func (p Params) HasFilter() bool {
	return p.Name != "" || p.Start != nil || p.End != nil
}

// ParseParams reads the query string values of the report endpoint.
func ParseParams(name, start, end, order string, loc *time.Location) (Params, error) {
	p := Params{Name: strings.TrimSpace(name)}

	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start != "" || end != "" {
		if start == "" || end == "" {
			return Params{}, model.NewError(model.KindInvalidDateRange, "start and end must both be provided")
		}
		s, err := utils.ParseDate(start, loc)
		if err != nil {
			return Params{}, model.NewError(model.KindInvalidDateRange, err.Error())
		}
		e, err := utils.ParseDate(end, loc)
		if err != nil {
			return Params{}, model.NewError(model.KindInvalidDateRange, err.Error())
		}
		if s.After(e) {
			return Params{}, model.NewError(model.KindInvalidDateRange, "start must not be after end")
		}
		p.Start, p.End = &s, &e
	}

	switch strings.ToLower(strings.TrimSpace(order)) {
	case "", "desc":
		p.Order = store.NewestFirst
	case "asc":
		p.Order = store.OldestFirst
	default:
		return Params{}, fmt.Errorf("unknown order %q", order)
	}
	return p, nil
}

type Row struct {
	SessionID           string          `json:"sessionId"`
	UserID              uint            `json:"userId"`
	UserName            string          `json:"userName"`
	WorkDate            string          `json:"workDate"`
	CheckInAt           time.Time       `json:"checkInAt"`
	CheckInLocation     model.Location  `json:"checkInLocation"`
	CheckInEvidenceRef  *string         `json:"checkInEvidenceRef"`
	CheckOutAt          *time.Time      `json:"checkOutAt"`
	CheckOutLocation    *model.Location `json:"checkOutLocation"`
	CheckOutEvidenceRef *string         `json:"checkOutEvidenceRef"`
	Status              model.Status    `json:"status"`
	DurationSeconds     *int64          `json:"durationSeconds"`
}

// ToRow projects a stored session into a report row with times in loc.
func ToRow(r store.SessionRow, loc *time.Location) Row {
	row := Row{
		SessionID:           r.ID,
		UserID:              r.UserID,
		UserName:            r.UserName,
		WorkDate:            r.WorkDate,
		CheckInAt:           r.CheckInAt.In(loc),
		CheckInLocation:     r.CheckIn,
		CheckInEvidenceRef:  r.CheckInEvidenceRef,
		CheckOutLocation:    r.CheckOutLocation(),
		CheckOutEvidenceRef: r.CheckOutEvidenceRef,
		Status:              r.Status(),
	}
	if r.CheckOutAt != nil {
		row.CheckOutAt = utils.Ptr(r.CheckOutAt.In(loc))
	}
	if d := r.Duration(); d != nil {
		row.DurationSeconds = utils.Ptr(int64(d.Seconds()))
	}
	return row
}

type Engine struct {
	store  store.Store
	policy Policy
	loc    *time.Location
}

func NewEngine(st store.Store, policy Policy, loc *time.Location) *Engine {
	return &Engine{store: st, policy: policy, loc: loc}
}

func (e *Engine) Location() *time.Location {
	return e.loc
}

func (e *Engine) authorize(role security.Role, p Params) error {
	if role.IsAdmin() {
		return nil
	}
	if p.HasFilter() && e.policy.AdminOnlyFilteredReports {
		return model.NewError(model.KindForbidden, "only administrators may filter reports")
	}
	if !p.HasFilter() && e.policy.AdminOnlyDailyReport {
		return model.NewError(model.KindForbidden, "only administrators may view the daily report")
	}
	return nil
}

// Query runs a report. Without a name or date range it returns today's
// sessions.
func (e *Engine) Query(ctx context.Context, role security.Role, p Params) ([]Row, error) {
	if err := e.authorize(role, p); err != nil {
		return nil, err
	}

	filter := store.Filter{
		NamePattern:    p.Name,
		DefaultToToday: true,
		Order:          p.Order,
	}
	if p.Start != nil && p.End != nil {
		filter.DateRange = &store.DateRange{
			Start: utils.StartOfDay(*p.Start, e.loc),
			End:   utils.EndOfDay(*p.End, e.loc),
		}
	}

	return e.run(ctx, filter)
}

// List returns every session, newest first.
func (e *Engine) List(ctx context.Context) ([]Row, error) {
	return e.run(ctx, store.Filter{})
}

func (e *Engine) run(ctx context.Context, filter store.Filter) ([]Row, error) {
	sessions, err := e.store.ListSessions(ctx, filter)
	if err != nil {
		return nil, err
	}
	// stores already sort; re-sorting keeps the ordering contract independent of them
	store.SortRows(sessions, filter.Order)

	return utils.Map(sessions, func(r store.SessionRow) Row { return ToRow(r, e.loc) }), nil
}
