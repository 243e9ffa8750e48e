package feature

import (
	"context"
	"net/http"
	"time"
)

// Method is an HTTP verb recognized in method-boundary directory names.
type Method string

// Supported HTTP verbs. A directory named "@get", "@post", etc. marks the
// method boundary of a feature.
const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

// Methods is the fixed verb set, keyed by the lowercase directory form
// (the part after "@").
var Methods = map[string]Method{
	"get":     MethodGet,
	"post":    MethodPost,
	"put":     MethodPut,
	"delete":  MethodDelete,
	"patch":   MethodPatch,
	"head":    MethodHead,
	"options": MethodOptions,
}

// StepFunc is one unit of request-handling logic. Steps run strictly in
// order, share the request's Context, and may end the request early by
// writing the response themselves.
type StepFunc func(ctx context.Context, fc *Context, w http.ResponseWriter, r *http.Request) error

// AsyncTaskFunc is background work executed after the response has been
// sent. Tasks receive only the Context; they have no access to the request
// or response.
type AsyncTaskFunc func(ctx context.Context, fc *Context) error

// Initializer seeds a fresh Context before the first step runs.
type Initializer func(ctx context.Context, fc *Context, r *http.Request) error

// ErrorHook is invoked when a step returns an error. It receives the
// original error (not the wrapper). It may write the response itself,
// request a pipeline restart by returning a non-nil RetryDirective, or
// escalate by returning an error (or nil with no response written).
type ErrorHook func(ctx context.Context, err error, fc *Context, w http.ResponseWriter, r *http.Request) (*RetryDirective, error)

// StepDescriptor identifies one ordered step of a route.
type StepDescriptor struct {
	// Order is the numeric prefix extracted from the file name
	// (e.g. 100 for "100-validate-input.md").
	Order int

	// Name is the display name with prefix and extension stripped
	// (e.g. "validate-input").
	Name string

	// Source is the path of the file the step was discovered from.
	Source string

	// Fn is the registered function bound to Name.
	Fn StepFunc
}

// AsyncTaskDescriptor identifies one background task of a route.
type AsyncTaskDescriptor struct {
	Order  int
	Name   string
	Source string
	Fn     AsyncTaskFunc
}

// RetryDirective instructs the pipeline to restart from the first step.
//
// MaxAttempts counts total attempts including the first one, so
// MaxAttempts = 3 permits the original attempt plus up to two retries.
// Delay is waited before each restart; the wait is cancelled if the
// request context is cancelled.
type RetryDirective struct {
	Delay       time.Duration
	MaxAttempts int
}

// RouteDefinition is the fully-resolved unit produced by scanning one
// method-boundary directory. It is immutable once constructed and owned
// by the router after registration.
type RouteDefinition struct {
	// Method is the HTTP verb inferred from the boundary directory name
	// or supplied by an override file.
	Method Method

	// Path is the slash-separated pattern. Segments are literal or named
	// parameters in ":name" form. The empty segment list yields "/".
	Path string

	// Steps is the strictly ordered step sequence.
	Steps []StepDescriptor

	// AsyncTasks is the ordered background task list, possibly empty.
	AsyncTasks []AsyncTaskDescriptor

	// Initializer, when non-nil, seeds the Context before step one.
	Initializer Initializer

	// ErrorHook, when non-nil, is consulted on step failure.
	ErrorHook ErrorHook

	// Dir is the method-boundary directory the route was scanned from,
	// relative to the scanned tree. Empty for routes built in code.
	Dir string
}

// LiteralSegments returns how many path segments are literal.
func (rd *RouteDefinition) LiteralSegments() int {
	lit, _ := rd.segmentCounts()
	return lit
}

// ParamSegments returns how many path segments are named parameters.
func (rd *RouteDefinition) ParamSegments() int {
	_, par := rd.segmentCounts()
	return par
}

func (rd *RouteDefinition) segmentCounts() (literal, param int) {
	for _, seg := range SplitPath(rd.Path) {
		if len(seg) > 0 && seg[0] == ':' {
			param++
		} else {
			literal++
		}
	}
	return literal, param
}

// SplitPath breaks a ":name"-style pattern into its segments. "/" and ""
// yield no segments.
func SplitPath(path string) []string {
	var segs []string
	start := -1
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			if start >= 0 {
				segs = append(segs, path[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		segs = append(segs, path[start:])
	}
	return segs
}
