package query

import "context"

// Options are per-call mutation callbacks.
type Options[Out any] struct {
	OnSuccess func(Out)
	OnError   func(error)
}

// Mutation is a write that invalidates the reads it affects.
type Mutation[In, Out any] struct {
	Cache       *Cache
	Invalidates []Key
	Run         func(ctx context.Context, in In) (Out, error)
}

// Mutate runs the write. On success every key in Invalidates is invalidated
// before OnSuccess runs. On failure only OnError runs.
func (m Mutation[In, Out]) Mutate(ctx context.Context, in In, opts Options[Out]) (Out, error) {
	out, err := m.Run(ctx, in)
	if err != nil {
		if opts.OnError != nil {
			opts.OnError(err)
		}
		return out, err
	}
	if m.Cache != nil {
		m.Cache.Invalidate(m.Invalidates...)
	}
	if opts.OnSuccess != nil {
		opts.OnSuccess(out)
	}
	return out, nil
}
