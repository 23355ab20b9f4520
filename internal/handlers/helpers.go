package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/parishworks/parish-ledger/internal/dues"
	"github.com/parishworks/parish-ledger/internal/model"
	xhttp "github.com/parishworks/parish-ledger/pkg/http"
	"github.com/parishworks/parish-ledger/pkg/logger"
)

const codeAmbiguousHead = "ambiguous_head"

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors onto HTTP statuses.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	if v, ok := model.AsValidationError(err); ok {
		writeJSON(ctx, xhttp.StatusBadRequest, errorResponse{Error: v.Message, Code: "validation_error", Field: v.Field})
		return
	}
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeJSON(ctx, xhttp.StatusNotFound, errorResponse{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, model.ErrConflict):
		writeJSON(ctx, xhttp.StatusConflict, errorResponse{Error: err.Error(), Code: "already_processed"})
	case errors.Is(err, dues.ErrAmbiguousHead):
		writeJSON(ctx, xhttp.StatusConflict, errorResponse{Error: err.Error(), Code: codeAmbiguousHead})
	case errors.Is(err, model.ErrUnauthenticated):
		writeError(ctx, xhttp.StatusUnauthorized, err.Error())
	case errors.Is(err, model.ErrForbidden):
		writeError(ctx, xhttp.StatusForbidden, err.Error())
	default:
		logger.Error("request failed", "path", string(ctx.Path()), "error", err)
		writeError(ctx, xhttp.StatusInternalServerError, "internal error")
	}
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func pathInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	v, _ := ctx.UserValue(name).(string)
	return strconv.ParseInt(v, 10, 64)
}

// listWindow reads the from/to/limit/offset query args shared by list routes.
// Malformed values are ignored.
func listWindow(ctx *xhttp.RequestCtx) (from, to *time.Time, limit, offset int) {
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			from = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			to = &t
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			offset = n
		}
	}
	return
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func callerFrom(ctx *xhttp.RequestCtx) model.Caller {
	id := xhttp.GetIdentity(ctx)
	return model.Caller{
		OperatorID:  id.UserID,
		Roles:       id.Roles,
		MemberID:    id.MemberID,
		DependentID: id.DependentID,
	}
}

// operator returns the authenticated operator id or writes a 401.
func operator(ctx *xhttp.RequestCtx) (string, bool) {
	id := xhttp.GetIdentity(ctx)
	if !id.Authenticated() {
		writeError(ctx, xhttp.StatusUnauthorized, model.ErrUnauthenticated.Error())
		return "", false
	}
	return id.UserID, true
}
