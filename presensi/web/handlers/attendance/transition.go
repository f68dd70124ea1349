package attendance

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"presensi.app/presensi/presensi/model"
	"presensi.app/presensi/presensi/report"
	"presensi.app/presensi/presensi/store"
	"presensi.app/presensi/web/common"
	"presensi.app/presensi/web/middlewares"
)

type transitionFunc func(ctx context.Context, userID uint, loc model.Location, evidenceRef *string) (*model.AttendanceSession, error)

func (ep *Endpoint) CheckIn(c *gin.Context) {
	ep.transition(c, ep.engine.CheckIn, http.StatusCreated, "checked in")
}

func (ep *Endpoint) CheckOut(c *gin.Context) {
	ep.transition(c, ep.engine.CheckOut, http.StatusOK, "checked out")
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), binding.MIMEMultipartPOSTForm)
}

func (ep *Endpoint) transition(c *gin.Context, apply transitionFunc, status int, message string) {
	identity, ok := middlewares.Identity(c)
	if !ok {
		common.AbortWithError(c, model.ErrNotAuthenticated)
		return
	}

	var req TransitionRequest
	var err error
	if isMultipart(c) {
		err = c.ShouldBindWith(&req, binding.FormMultipart)
	} else {
		err = c.ShouldBindJSON(&req)
	}
	if err != nil {
		common.AbortWithBindingError(c, err)
		return
	}

	// reject before storing evidence for a request that cannot succeed
	loc := req.Location()
	if err := loc.Validate(); err != nil {
		common.AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	evidenceRef, err := ep.resolveEvidence(ctx, identity.UserID, req)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	session, err := apply(ctx, identity.UserID, loc, evidenceRef)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	c.JSON(status, common.NewSuccessResponse(ep.row(ctx, session), message))
}

func (ep *Endpoint) resolveEvidence(ctx context.Context, userID uint, req TransitionRequest) (*string, error) {
	if req.EvidenceFile != nil {
		key, err := ep.evidence.SaveFile(ctx, userID, req.EvidenceFile)
		if err != nil {
			return nil, err
		}
		return &key, nil
	}
	return ep.evidence.Resolve(ctx, userID, req.Evidence)
}

func (ep *Endpoint) row(ctx context.Context, session *model.AttendanceSession) report.Row {
	joined := store.SessionRow{AttendanceSession: *session}
	if user, err := ep.store.FindUser(ctx, session.UserID); err == nil && user != nil {
		joined.UserName = user.Name
	}
	return report.ToRow(joined, ep.reports.Location())
}
