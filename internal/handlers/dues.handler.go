package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/fasthttp/router"
	"github.com/parishworks/parish-ledger/internal/dues"
	"github.com/parishworks/parish-ledger/internal/model"
	xhttp "github.com/parishworks/parish-ledger/pkg/http"
)

type DuesService interface {
	ForCaller(ctx context.Context, caller model.Caller, memberID *int64, year int) (*dues.Result, error)
}

type DuesHandler struct {
	svc DuesService
	now func() time.Time
}

func RegisterDuesRoutes(e *router.Group, h *DuesHandler) {
	e.GET("/dues/me", h.GetMine)
	e.GET("/dues/{memberId}", h.GetForMember)
}

func NewDuesHandler(svc DuesService) *DuesHandler {
	return &DuesHandler{svc: svc, now: time.Now}
}

func (h *DuesHandler) GetMine(ctx *xhttp.RequestCtx) {
	h.respond(ctx, nil)
}

func (h *DuesHandler) GetForMember(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "memberId")
	if err != nil || id <= 0 {
		writeServiceError(ctx, model.NewValidationError("member_id", "must be a positive integer"))
		return
	}
	h.respond(ctx, &id)
}

func (h *DuesHandler) respond(ctx *xhttp.RequestCtx, memberID *int64) {
	year := h.now().Year()
	if v := query(ctx, "year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1900 || y > 2200 {
			writeServiceError(ctx, model.NewValidationError("year", "must be a valid year"))
			return
		}
		year = y
	}

	res, err := h.svc.ForCaller(ctx, callerFrom(ctx), memberID, year)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, res)
}
