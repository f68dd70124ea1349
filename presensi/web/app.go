package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"presensi.app/presensi/config"
	"presensi.app/presensi/core"
	"presensi.app/presensi/infrastructure/communication"
	"presensi.app/presensi/infrastructure/filesystem"
	presensi "presensi.app/presensi/presensi/core"
	"presensi.app/presensi/presensi/report"
	"presensi.app/presensi/presensi/store"
	"presensi.app/presensi/presensi/web/handlers/attendance"
	"presensi.app/presensi/web/handlers"
	"presensi.app/presensi/web/middlewares"
)

type app struct {
	router *gin.Engine
	close  func()
}

func openStore(cfg *config.Config, log *slog.Logger) (store.Store, func(), error) {
	loc := cfg.Location()
	if cfg.Database.Driver == "memory" {
		log.Warn("using in-memory store, data is lost on restart")
		return store.NewMemoryStore(loc, nil), func() {}, nil
	}

	dm, err := core.New(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.MaxConnections, core.ParseLogLevel(cfg.Database.LogLevel))
	if err != nil {
		return nil, nil, err
	}
	if err := dm.Migrate(); err != nil {
		dm.Close()
		return nil, nil, err
	}
	return store.NewGormStore(dm, loc, nil), func() { dm.Close() }, nil
}

func openBlobStore(ctx context.Context, cfg config.EvidenceConfig) (filesystem.BlobStore, error) {
	switch cfg.Driver {
	case "s3":
		return filesystem.ConnectS3(ctx, cfg.Bucket)
	case "disk":
		return filesystem.NewDiskStore(cfg.Dir), nil
	default:
		return nil, fmt.Errorf("unsupported evidence driver %q", cfg.Driver)
	}
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	secret, err := cfg.Secret()
	if err != nil {
		return nil, err
	}

	st, closeStore, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}

	blobs, err := openBlobStore(ctx, cfg.Evidence)
	if err != nil {
		closeStore()
		return nil, err
	}

	loc := cfg.Location()
	opts := []presensi.Option{
		presensi.WithPolicy(presensi.Policy{
			RequireCheckInEvidence:  cfg.Policy.RequireCheckInEvidence,
			RequireCheckOutEvidence: cfg.Policy.RequireCheckOutEvidence,
		}),
		presensi.WithLocation(loc),
		presensi.WithLogger(log),
	}
	if cfg.Slack.Enabled() {
		opts = append(opts, presensi.WithNotifier(communication.NewSlack(cfg.Slack.Token, communication.SlackOption{
			InfoChannelID:  cfg.Slack.InfoChannel,
			ErrorChannelID: cfg.Slack.ErrorChannel,
			Location:       loc,
		})))
	}

	reports := report.NewEngine(st, report.Policy{
		AdminOnlyFilteredReports: cfg.Policy.AdminOnlyFilteredReports,
		AdminOnlyDailyReport:     cfg.Policy.AdminOnlyDailyReport,
	}, loc)

	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestLogger(log))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	protected := r.Group("/api/presensi")
	protected.Use(middlewares.Authentication(secret))
	attendance.Register(protected, attendance.Deps{
		Engine:  presensi.NewEngine(st, opts...),
		Reports: reports,
		Store:   st,
		Evidence: &handlers.Evidence{
			Store:    blobs,
			Prefix:   cfg.Evidence.Prefix,
			MaxBytes: cfg.Evidence.MaxBytes,
		},
		Log: log,
	})

	return &app{router: r, close: closeStore}, nil
}
