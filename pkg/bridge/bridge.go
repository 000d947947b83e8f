// Package bridge implements the syscall surface spec.md §6 describes: a
// single {module, function, args, kwargs} request routed to a handler and
// returning {success, data|error, traceback?}. Grounded directly on the
// teacher's Request/Response/Error shape and method-name switch dispatch
// (originally JSON-RPC-over-stdio framing for a real sandbox syscall
// surface), adapted here to an in-process call table since there is no
// real network transport in scope.
package bridge

import (
	"fmt"
	"sync"
)

// Request is the inbound syscall envelope.
type Request struct {
	Module   string         `json:"module"`
	Function string         `json:"function"`
	Args     []any          `json:"args"`
	Kwargs   map[string]any `json:"kwargs"`
}

// Response is the outbound envelope. Exactly one of Data/Error is set on
// the wire; Traceback is populated only for InternalError-class failures,
// matching spec.md §7's propagation policy.
type Response struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Traceback string `json:"traceback,omitempty"`
}

func Ok(data any) Response { return Response{Success: true, Data: data} }

func Errf(format string, args ...any) Response {
	return Response{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Handler implements one {module, function} syscall.
type Handler func(req Request) Response

// Router dispatches requests to registered handlers by module/function
// pair, matching the exhaustive module set named in spec.md §6:
// executor, filesystem, session, env, history, alias, groups, users, sudo,
// ai, story, editor, paint, adventure, top, log, basic, audit.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRouter() *Router {
	return &Router{handlers: map[string]Handler{}}
}

func key(module, function string) string { return module + "." + function }

// Register binds a handler for module.function. It panics on a duplicate
// registration, matching the registry-of-factories discipline used
// elsewhere in this codebase: a silently overwritten handler is a bug, not
// a valid redefinition.
func (r *Router) Register(module, function string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(module, function)
	if _, exists := r.handlers[k]; exists {
		panic("bridge: duplicate registration for " + k)
	}
	r.handlers[k] = h
}

// Dispatch routes req to its handler. An unknown module/function yields an
// ordinary "no such syscall" error response; a panic inside the handler is
// recovered into an "internal error" response carrying the panic value in
// Traceback, so the bridge never lets an uncaught exception cross the
// syscall boundary, per spec.md §7.
func (r *Router) Dispatch(req Request) (resp Response) {
	defer func() {
		if rec := recover(); rec != nil {
			resp = Response{
				Success:   false,
				Error:     "internal error",
				Traceback: fmt.Sprintf("%v", rec),
			}
		}
	}()

	r.mu.RLock()
	h, ok := r.handlers[key(req.Module, req.Function)]
	r.mu.RUnlock()
	if !ok {
		return Errf("no such syscall: %s.%s", req.Module, req.Function)
	}
	return h(req)
}
