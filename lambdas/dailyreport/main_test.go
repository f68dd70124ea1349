package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presensi.app/presensi/core"
	"presensi.app/presensi/infrastructure/filesystem"
	"presensi.app/presensi/presensi/model"
	"presensi.app/presensi/presensi/report"
	"presensi.app/presensi/presensi/store"
	"presensi.app/presensi/utils"
)

type fakeSlack struct {
	info, errors []string
	err          error
}

func (f *fakeSlack) Info(_ context.Context, message string) error {
	f.info = append(f.info, message)
	return f.err
}

func (f *fakeSlack) Error(_ context.Context, message string) error {
	f.errors = append(f.errors, message)
	return nil
}

var now = time.Date(2024, 6, 2, 18, 0, 0, 0, utils.JakartaTZ)

func newTestJob(t *testing.T) (*job, *fakeSlack, filesystem.BlobStore) {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore(utils.JakartaTZ, func() time.Time { return now })
	require.NoError(t, st.SaveUser(ctx, &core.User{ID: 1, Name: "Budi Santoso"}))
	require.NoError(t, st.SaveUser(ctx, &core.User{ID: 2, Name: "Siti Rahma"}))

	for _, s := range []struct {
		user uint
		at   time.Time
	}{
		{1, time.Date(2024, 6, 1, 8, 0, 0, 0, utils.JakartaTZ)},
		{1, time.Date(2024, 6, 2, 8, 0, 0, 0, utils.JakartaTZ)},
		{2, time.Date(2024, 6, 2, 9, 0, 0, 0, utils.JakartaTZ)},
	} {
		id, err := st.Create(ctx, &model.AttendanceSession{
			UserID: s.user, WorkDate: utils.FormatDate(s.at, utils.JakartaTZ), CheckInAt: s.at.UTC(),
		})
		require.NoError(t, err)
		if s.user == 1 {
			_, err = st.CloseSession(ctx, id, s.at.Add(8*time.Hour).UTC(), model.Location{Latitude: 3, Longitude: 4}, nil)
			require.NoError(t, err)
		}
	}

	slack := &fakeSlack{}
	blobs := filesystem.NewDiskStore(t.TempDir())
	return &job{
		reports: report.NewEngine(st, report.DefaultPolicy(), utils.JakartaTZ),
		slack:   slack,
		blobs:   blobs,
		now:     func() time.Time { return now },
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, slack, blobs
}

func TestRunToday(t *testing.T) {
	j, slack, blobs := newTestJob(t)

	result, err := j.run(context.Background(), DailyReportEvent{})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-02", result.Date)
	assert.Equal(t, 2, result.Sessions)
	assert.Equal(t, 1, result.Open)
	assert.Equal(t, 2, result.Users)
	assert.True(t, result.Posted)
	assert.Equal(t, "reports/presensi-2024-06-02.xlsx", result.Export)

	require.Len(t, slack.info, 1)
	assert.Contains(t, slack.info[0], "Attendance 2024-06-02: 2 sessions")
	assert.Contains(t, slack.info[0], "Siti Rahma")

	r, _, err := blobs.Open(context.Background(), result.Export)
	require.NoError(t, err)
	r.Close()
}

func TestRunGivenDateDryRun(t *testing.T) {
	j, slack, _ := newTestJob(t)

	var event DailyReportEvent
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-06-01","dryRun":true}`), &event))

	result, err := j.run(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", result.Date)
	assert.Equal(t, 1, result.Sessions)
	assert.False(t, result.Posted)
	assert.Empty(t, result.Export)
	assert.Empty(t, slack.info)
}

func TestRunPostFailure(t *testing.T) {
	j, slack, _ := newTestJob(t)
	slack.err = errors.New("not_in_channel")
	j.blobs = nil

	_, err := j.run(context.Background(), DailyReportEvent{})
	assert.ErrorContains(t, err, "not_in_channel")
}

func TestParseEvent(t *testing.T) {
	scheduled := `{"version":"0","id":"1","detail-type":"Scheduled Event","source":"aws.events","time":"2024-06-02T11:00:00Z","region":"ap-southeast-3","resources":[],"detail":{}}`
	event, err := parseEvent(json.RawMessage(scheduled))
	require.NoError(t, err)
	assert.True(t, event.Date.IsZero())
	assert.False(t, event.DryRun)

	event, err = parseEvent(json.RawMessage(`{"date":"2024-06-01"}`))
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", event.Date.Format(utils.DateLayout))

	event, err = parseEvent(nil)
	require.NoError(t, err)
	assert.True(t, event.Date.IsZero())

	_, err = parseEvent(json.RawMessage(`{"date":"yesterday"}`))
	assert.Error(t, err)
}
