package pve

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// SuppressMarker is the suffix that turns a string-form verb into its
// error-suppressing variant ("get!", "delete!", ...).
const SuppressMarker = "!"

// HTTP verbs recognized as terminal accessors by Do. Every other name is a
// path segment.
const (
	verbGet    = "get"
	verbPost   = "post"
	verbPut    = "put"
	verbDelete = "delete"
)

// Submitter executes an assembled path against the API. The path builder
// holds a Submitter back-reference and uses it only to execute, never to
// mutate client state.
type Submitter interface {
	// Submit performs a request. The verb may carry the SuppressMarker
	// suffix; with the marker, an HTTP-status failure yields (nil, nil)
	// instead of a classified error. Transport-level failures propagate
	// either way.
	Submit(ctx context.Context, verb, path string, data Params) (any, error)
}

// Path accumulates segments of a not-yet-executed API endpoint. Each At or
// Index call mutates the builder in place and returns it for chaining; a
// terminal verb call executes the request through the owning Submitter.
//
// A Path is intended for single use: build one logical endpoint, execute
// once, discard. There is no segment removal, and sharing one partially
// built Path across goroutines is unsupported.
type Path struct {
	submitter Submitter
	segments  []string
}

// NewPath creates an empty path builder owned by the given Submitter.
func NewPath(submitter Submitter) *Path {
	return &Path{submitter: submitter}
}

// At appends a named segment and returns the same builder. Names are not
// reserved here: the verb set only has meaning on the terminal methods and
// on Do, so even "get" is a valid segment.
func (p *Path) At(name string) *Path {
	return p.Index(name)
}

// Index appends the string form of any indexable value (string, integer,
// fmt.Stringer, ...) and returns the same builder. Values may contain
// slashes, so a full "a/b/c" path can be given in a single call. Empty
// segments are dropped.
func (p *Path) Index(value any) *Path {
	segment := strings.Trim(stringify(value), "/")
	if segment != "" {
		p.segments = append(p.segments, segment)
	}

	return p
}

// String joins the accumulated segments with "/". The result is the URL
// path component appended to the client's base URL.
func (p *Path) String() string {
	return strings.Join(p.segments, "/")
}

// Segments returns a defensive copy of the accumulated segments.
func (p *Path) Segments() []string {
	return slices.Clone(p.segments)
}

// Do executes the path with a string-form verb: one of get, post, put, or
// delete, optionally suffixed with the SuppressMarker. Any other name is
// rejected with ErrUnknownVerb.
func (p *Path) Do(ctx context.Context, verb string, data Params) (any, error) {
	normalized := strings.ToLower(verb)

	switch strings.TrimSuffix(normalized, SuppressMarker) {
	case verbGet, verbPost, verbPut, verbDelete:
		return p.submitter.Submit(ctx, normalized, p.String(), data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVerb, verb)
	}
}

// Get executes the path with GET; data becomes query parameters.
func (p *Path) Get(ctx context.Context, data Params) (any, error) {
	return p.submitter.Submit(ctx, verbGet, p.String(), data)
}

// Post executes the path with POST; data is the JSON body.
func (p *Path) Post(ctx context.Context, data Params) (any, error) {
	return p.submitter.Submit(ctx, verbPost, p.String(), data)
}

// Put executes the path with PUT; data is the JSON body.
func (p *Path) Put(ctx context.Context, data Params) (any, error) {
	return p.submitter.Submit(ctx, verbPut, p.String(), data)
}

// Delete executes the path with DELETE; data is ignored.
func (p *Path) Delete(ctx context.Context, data Params) (any, error) {
	return p.submitter.Submit(ctx, verbDelete, p.String(), data)
}

// TryGet is the error-suppressing variant of Get: an HTTP-status failure
// yields (nil, nil). Transport failures still return an error.
func (p *Path) TryGet(ctx context.Context, data Params) (any, error) {
	return p.submitter.Submit(ctx, verbGet+SuppressMarker, p.String(), data)
}

// TryPost is the error-suppressing variant of Post.
func (p *Path) TryPost(ctx context.Context, data Params) (any, error) {
	return p.submitter.Submit(ctx, verbPost+SuppressMarker, p.String(), data)
}

// TryPut is the error-suppressing variant of Put.
func (p *Path) TryPut(ctx context.Context, data Params) (any, error) {
	return p.submitter.Submit(ctx, verbPut+SuppressMarker, p.String(), data)
}

// TryDelete is the error-suppressing variant of Delete.
func (p *Path) TryDelete(ctx context.Context, data Params) (any, error) {
	return p.submitter.Submit(ctx, verbDelete+SuppressMarker, p.String(), data)
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
