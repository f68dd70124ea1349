package attendance

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	presensi "presensi.app/presensi/presensi/core"
	"presensi.app/presensi/presensi/report"
	"presensi.app/presensi/presensi/store"
	"presensi.app/presensi/web/handlers"
	"presensi.app/presensi/web/middlewares"
)

type Endpoint struct {
	engine   *presensi.Engine
	reports  *report.Engine
	store    store.Store
	evidence *handlers.Evidence
	log      *slog.Logger
	now      func() time.Time
}

type Deps struct {
	Engine   *presensi.Engine
	Reports  *report.Engine
	Store    store.Store
	Evidence *handlers.Evidence
	Log      *slog.Logger
	// Clock names export files; defaults to time.Now.
	Clock func() time.Time
}

// Register mounts the attendance routes on an authenticated group.
func Register(r *gin.RouterGroup, deps Deps) {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	endpoint := &Endpoint{
		engine:   deps.Engine,
		reports:  deps.Reports,
		store:    deps.Store,
		evidence: deps.Evidence,
		log:      log,
		now:      now,
	}

	r.POST("/checkin", endpoint.CheckIn)
	r.POST("/checkout", endpoint.CheckOut)
	r.POST("/check-in", endpoint.CheckIn)
	r.POST("/check-out", endpoint.CheckOut)
	r.POST("/evidence", handlers.UploadEvidenceHandler(deps.Evidence))
	r.GET("/evidence/*key", middlewares.RequireAdmin(), endpoint.Evidence)

	r.GET("/sessions", endpoint.Sessions)
	r.GET("/report", endpoint.Report)
	r.GET("/report/export", endpoint.Export)
	r.GET("/whoami", endpoint.WhoAmI)
}
