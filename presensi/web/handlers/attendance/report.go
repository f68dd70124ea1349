package attendance

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"presensi.app/presensi/infrastructure/filesystem"
	"presensi.app/presensi/presensi/model"
	"presensi.app/presensi/presensi/report"
	"presensi.app/presensi/utils"
	"presensi.app/presensi/web/common"
	"presensi.app/presensi/web/middlewares"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (ep *Endpoint) query(c *gin.Context) ([]report.Row, bool) {
	identity, ok := middlewares.Identity(c)
	if !ok {
		common.AbortWithError(c, model.ErrNotAuthenticated)
		return nil, false
	}

	var q ReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		common.AbortWithBindingError(c, err)
		return nil, false
	}

	params, err := report.ParseParams(q.Name, q.Start, q.End, q.Order, ep.reports.Location())
	if err != nil {
		common.AbortWithError(c, err)
		return nil, false
	}

	rows, err := ep.reports.Query(c.Request.Context(), identity.Role, params)
	if err != nil {
		if model.KindOf(err) == model.KindForbidden {
			ep.log.InfoContext(c.Request.Context(), "report rejected", "user_id", identity.UserID, "name", q.Name, "start", q.Start, "end", q.End)
		}
		common.AbortWithError(c, err)
		return nil, false
	}
	return rows, true
}

func (ep *Endpoint) Report(c *gin.Context) {
	rows, ok := ep.query(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, common.NewSearchResponse(rows))
}

func (ep *Endpoint) Export(c *gin.Context) {
	rows, ok := ep.query(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, rows); err != nil {
		common.AbortWithError(c, fmt.Errorf("failed to export report: %w", err))
		return
	}

	filename := fmt.Sprintf("presensi-%s.xlsx", utils.FormatDate(ep.now(), ep.reports.Location()))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Sessions lists every session without filtering.
func (ep *Endpoint) Sessions(c *gin.Context) {
	rows, err := ep.reports.List(c.Request.Context())
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSearchResponse(rows))
}

func (ep *Endpoint) Evidence(c *gin.Context) {
	r, contentType, err := ep.evidence.Store.Open(c.Request.Context(), c.Param("key"))
	switch {
	case errors.Is(err, filesystem.ErrNotFound):
		common.AbortWithError(c, model.NewError(common.KindNotFound, "evidence not found"))
		return
	case errors.Is(err, filesystem.ErrInvalidKey):
		common.AbortWithError(c, model.NewError(common.KindInvalidRequest, "invalid evidence key"))
		return
	case err != nil:
		common.AbortWithError(c, err)
		return
	}
	defer r.Close()

	c.DataFromReader(http.StatusOK, -1, contentType, r, nil)
}

func (ep *Endpoint) WhoAmI(c *gin.Context) {
	identity, ok := middlewares.Identity(c)
	if !ok {
		common.AbortWithError(c, model.ErrNotAuthenticated)
		return
	}
	ctx := c.Request.Context()

	dto := WhoAmIDTO{UserID: identity.UserID, Role: string(identity.Role)}

	user, err := ep.store.FindUser(ctx, identity.UserID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	if user != nil {
		dto.User = &UserDTO{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}
	}

	open, err := ep.store.FindOpenSession(ctx, identity.UserID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	if open != nil {
		row := ep.row(ctx, open)
		dto.OpenSession = &row
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(dto, ""))
}
