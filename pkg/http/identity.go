package xhttp

import (
	"strconv"
	"strings"
)

// Headers set by the upstream gateway after it authenticates the caller.
const (
	HeaderOperatorID  = "X-Operator-Id"
	HeaderUserID      = "X-User-Id"
	HeaderUserRole    = "X-User-Role"
	HeaderMemberID    = "X-Member-Id"
	HeaderDependentID = "X-Dependent-Id"
	HeaderRequestID   = "X-Request-Id"
)

const identityKey = "xhttp.identity"

type Identity struct {
	UserID      string
	Roles       []string
	MemberID    *int64
	DependentID *int64
}

func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

func (i Identity) HasAnyRole(roles []string) bool {
	for _, have := range i.Roles {
		for _, want := range roles {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}

// IdentityMiddleware parses the caller headers into an Identity stored on the
// request. Malformed member or dependent ids are dropped.
func IdentityMiddleware(next RequestHandler) RequestHandler {
	return func(ctx *RequestCtx) {
		ctx.SetUserValue(identityKey, identityFromHeaders(&ctx.Request.Header))
		next(ctx)
	}
}

func identityFromHeaders(h *RequestHeader) Identity {
	id := Identity{UserID: strings.TrimSpace(string(h.Peek(HeaderOperatorID)))}
	if id.UserID == "" {
		id.UserID = strings.TrimSpace(string(h.Peek(HeaderUserID)))
	}
	for _, r := range strings.Split(string(h.Peek(HeaderUserRole)), ",") {
		if r = strings.TrimSpace(r); r != "" {
			id.Roles = append(id.Roles, strings.ToLower(r))
		}
	}
	id.MemberID = parseIDHeader(h.Peek(HeaderMemberID))
	id.DependentID = parseIDHeader(h.Peek(HeaderDependentID))
	return id
}

func parseIDHeader(v []byte) *int64 {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

// GetIdentity returns the identity attached by IdentityMiddleware, parsing the
// headers directly when the middleware was not installed.
func GetIdentity(ctx *RequestCtx) Identity {
	if v, ok := ctx.UserValue(identityKey).(Identity); ok {
		return v
	}
	return identityFromHeaders(&ctx.Request.Header)
}
