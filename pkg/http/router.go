package xhttp

import (
	"github.com/fasthttp/router"
)

type Router = router.Router

func NewRouter() *Router {
	return router.New()
}

// CreateDefaultRouter returns a router that answers unknown routes and
// methods with the same JSON error body the API handlers use. Panics are
// left to RecoverMiddleware.
func CreateDefaultRouter() *Router {
	r := NewRouter()
	r.RedirectFixedPath = true
	r.RedirectTrailingSlash = true
	r.SaveMatchedRoutePath = true
	r.HandleOPTIONS = false
	r.HandleMethodNotAllowed = true
	r.NotFound = NotFoundHandler
	r.MethodNotAllowed = MethodNotAllowedHandler
	return r
}

func NotFoundHandler(ctx *RequestCtx) {
	writeRouteError(ctx, StatusNotFound, "not_found")
}

func MethodNotAllowedHandler(ctx *RequestCtx) {
	writeRouteError(ctx, StatusMethodNotAllowed, "method_not_allowed")
}

func writeRouteError(ctx *RequestCtx, status int, code string) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBodyString(`{"error":"` + StatusText(status) + `","code":"` + code + `"}`)
}
