package citations

import (
	"context"

	"github.com/dshills/citemark/internal/citeproc"
	"github.com/dshills/citemark/internal/loop"
)

// Outcome is the result of a resolution request.
type Outcome struct {
	// Content is the rendered markup when Found is set.
	Content string
	// Found is false when the provider has no rendering for the keys.
	Found bool
	// Err reports a failed request.
	Err error
}

// Resolver resolves citations asynchronously. Resolve must not block, and
// done must be called exactly once on the goroutine that owns the engine.
type Resolver interface {
	Resolve(req citeproc.Request, done func(Outcome))
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(req citeproc.Request, done func(Outcome))

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(req citeproc.Request, done func(Outcome)) {
	f(req, done)
}

// LoopResolver resolves citations through a citeproc client on worker
// goroutines and delivers outcomes on an event loop.
type LoopResolver struct {
	ctx    context.Context
	loop   *loop.Loop
	client *citeproc.Client
}

// NewLoopResolver creates a resolver. Requests are not cancelled when their
// annotation is cleared; they end when ctx does.
func NewLoopResolver(ctx context.Context, l *loop.Loop, client *citeproc.Client) *LoopResolver {
	return &LoopResolver{ctx: ctx, loop: l, client: client}
}

// Resolve implements Resolver.
func (r *LoopResolver) Resolve(req citeproc.Request, done func(Outcome)) {
	loop.Go(r.loop, r.ctx, func(ctx context.Context) (Outcome, error) {
		content, found, err := r.client.Citation(ctx, req)
		return Outcome{Content: content, Found: found}, err
	}, func(o Outcome, err error) {
		o.Err = err
		done(o)
	})
}
