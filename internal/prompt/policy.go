package prompt

import (
	"context"
	"errors"
)

var ErrTooManyAttempts = errors.New("too many attempts")

// Policy bounds an interactive retry loop. MaxAttempts of zero means no bound.
type Policy struct {
	MaxAttempts int
}

// Do calls fn until it reports done, returns an error, the context is
// cancelled or the attempt budget runs out.
func (p Policy) Do(ctx context.Context, fn func(attempt int) (bool, error)) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.MaxAttempts > 0 && attempt > p.MaxAttempts {
			return ErrTooManyAttempts
		}
		done, err := fn(attempt)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}
