package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"presensi.app/presensi/config"
	"presensi.app/presensi/core"
	"presensi.app/presensi/infrastructure/communication"
	"presensi.app/presensi/infrastructure/filesystem"
	"presensi.app/presensi/presensi/report"
	"presensi.app/presensi/presensi/store"
	"presensi.app/presensi/security"
	"presensi.app/presensi/utils"
	"presensi.app/presensi/web/common"
)

// DailyReportEvent is sent by hand or by a schedule. Scheduled events carry
// no date and report on today.
type DailyReportEvent struct {
	Date   common.DateOnly `json:"date"`
	DryRun bool            `json:"dryRun"`
}

type Result struct {
	Date     string `json:"date"`
	Sessions int    `json:"sessions"`
	Open     int    `json:"open"`
	Users    int    `json:"users"`
	Export   string `json:"export,omitempty"`
	Posted   bool   `json:"posted"`
}

type poster interface {
	Info(ctx context.Context, message string) error
	Error(ctx context.Context, message string) error
}

type job struct {
	reports *report.Engine
	slack   poster
	blobs   filesystem.BlobStore
	now     func() time.Time
	log     *slog.Logger
}

func (j *job) run(ctx context.Context, event DailyReportEvent) (*Result, error) {
	loc := j.reports.Location()
	day := event.Date.In(loc)
	if day.IsZero() {
		day = utils.StartOfDay(j.now(), loc)
	}
	date := utils.FormatDate(day, loc)

	rows, err := j.reports.Query(ctx, security.RoleAdmin, report.Params{Start: &day, End: &day, Order: store.OldestFirst})
	if err != nil {
		j.alert(ctx, fmt.Sprintf("daily attendance report for %s failed: %v", date, err))
		return nil, err
	}

	summary := report.Summarize(rows)
	result := &Result{Date: date, Sessions: summary.Sessions, Open: summary.Open, Users: summary.Users}
	j.log.InfoContext(ctx, "report ready", "date", date, "sessions", summary.Sessions, "open", summary.Open)

	if event.DryRun {
		return result, nil
	}

	if j.blobs != nil {
		var buf bytes.Buffer
		if err := report.WriteXLSX(&buf, rows); err != nil {
			return nil, fmt.Errorf("failed to export report: %w", err)
		}
		key := path.Join("reports", fmt.Sprintf("presensi-%s.xlsx", date))
		if err := j.blobs.Put(ctx, key, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", &buf); err != nil {
			j.alert(ctx, fmt.Sprintf("failed to store attendance export %s: %v", key, err))
			return nil, err
		}
		result.Export = key
	}

	if j.slack != nil {
		if err := j.slack.Info(ctx, summary.Text(date, rows)); err != nil {
			return nil, err
		}
		result.Posted = true
	}
	return result, nil
}

func (j *job) alert(ctx context.Context, message string) {
	j.log.ErrorContext(ctx, message)
	if j.slack == nil {
		return
	}
	if err := j.slack.Error(ctx, message); err != nil {
		j.log.ErrorContext(ctx, "failed to post alert", "error", err)
	}
}

// parseEvent accepts a DailyReportEvent or an EventBridge schedule event.
func parseEvent(raw json.RawMessage) (DailyReportEvent, error) {
	var scheduled events.CloudWatchEvent
	if err := json.Unmarshal(raw, &scheduled); err == nil && scheduled.DetailType != "" {
		var event DailyReportEvent
		if len(scheduled.Detail) > 0 {
			if err := json.Unmarshal(scheduled.Detail, &event); err != nil {
				return DailyReportEvent{}, fmt.Errorf("failed to unmarshal event detail: %w", err)
			}
		}
		return event, nil
	}

	var event DailyReportEvent
	if len(raw) == 0 {
		return event, nil
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		return DailyReportEvent{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return event, nil
}

func newJob(ctx context.Context) (*job, func(), error) {
	cfg, err := config.Load(ctx, config.Path(), nil)
	if err != nil {
		return nil, nil, err
	}
	log := cfg.Log.NewLogger(os.Stdout)
	if cfg.Database.Driver == "memory" {
		return nil, nil, fmt.Errorf("the daily report needs a database driver, not memory")
	}

	dm, err := core.New(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.MaxConnections, core.ParseLogLevel(cfg.Database.LogLevel))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database manager: %w", err)
	}

	loc := cfg.Location()
	j := &job{
		reports: report.NewEngine(store.NewGormStore(dm, loc, nil), report.DefaultPolicy(), loc),
		now:     time.Now,
		log:     log,
	}
	if cfg.Evidence.Driver == "s3" {
		blobs, err := filesystem.ConnectS3(ctx, cfg.Evidence.Bucket)
		if err != nil {
			dm.Close()
			return nil, nil, err
		}
		j.blobs = blobs
	}
	if cfg.Slack.Enabled() {
		j.slack = communication.NewSlack(cfg.Slack.Token, communication.SlackOption{
			InfoChannelID:  cfg.Slack.InfoChannel,
			ErrorChannelID: cfg.Slack.ErrorChannel,
			Location:       loc,
		})
	}
	return j, func() { dm.Close() }, nil
}

func HandleRequest(ctx context.Context, raw json.RawMessage) (*Result, error) {
	event, err := parseEvent(raw)
	if err != nil {
		return nil, err
	}

	j, closeJob, err := newJob(ctx)
	if err != nil {
		return nil, err
	}
	defer closeJob()

	return j.run(ctx, event)
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(HandleRequest)
		return
	}

	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	event := DailyReportEvent{DryRun: true}
	if len(os.Args) > 1 {
		if err := json.Unmarshal([]byte(os.Args[1]), &event); err != nil {
			slog.Error("invalid event argument", "error", err)
			os.Exit(1)
		}
	}

	j, closeJob, err := newJob(context.Background())
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer closeJob()

	result, err := j.run(context.Background(), event)
	if err != nil {
		slog.Error("daily report failed", "error", err)
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}
