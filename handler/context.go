package handler

import (
	"context"
	"net/http"
	"time"
)

// Context carries the request, its response writer and the request's
// context.Context into a HandlerFunc.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	// Param returns a named URL parameter resolved by the router.
	Param(name string) string
}

// ParamFunc resolves a named URL parameter from the request.
type ParamFunc func(r *http.Request, name string) string

// NewContext creates a Context backed by r. URL parameters are resolved with
// r.PathValue; use NewContextWithParams to plug in a router's resolver.
func NewContext(w http.ResponseWriter, r *http.Request) Context {
	return NewContextWithParams(w, r, func(r *http.Request, name string) string {
		return r.PathValue(name)
	})
}

// NewContextWithParams creates a Context that resolves URL parameters with fn.
func NewContextWithParams(w http.ResponseWriter, r *http.Request, fn ParamFunc) Context {
	return &httpContext{w: w, r: r, param: fn}
}

type httpContext struct {
	w     http.ResponseWriter
	r     *http.Request
	param ParamFunc
}

func (c *httpContext) Request() *http.Request              { return c.r }
func (c *httpContext) ResponseWriter() http.ResponseWriter { return c.w }

func (c *httpContext) Param(name string) string {
	if c.param == nil {
		return ""
	}
	return c.param(c.r, name)
}

func (c *httpContext) Deadline() (time.Time, bool) { return c.r.Context().Deadline() }
func (c *httpContext) Done() <-chan struct{}       { return c.r.Context().Done() }
func (c *httpContext) Err() error                  { return c.r.Context().Err() }
func (c *httpContext) Value(key any) any           { return c.r.Context().Value(key) }
