// Package optimistic applies a local change before the server confirms it and
// reverts it through a stored inverse when the request fails.
package optimistic

import (
	"context"
	"errors"
	"fmt"
)

// Updater is anything holding state that can be changed in place, such as a
// mounted view
type Updater[S any] interface {
	Update(fn func(*S)) error
}

// Mutation is a local change and its inverse
type Mutation[S any] struct {
	Do   func(*S)
	Undo func(*S)
}

// RevertedError reports a request that failed after its local change was
// applied. The change has been undone.
type RevertedError struct {
	Err error
	// UndoErr is set when the inverse could not be applied either
	UndoErr error
}

func (e *RevertedError) Error() string {
	return e.Err.Error()
}

func (e *RevertedError) Unwrap() error {
	return e.Err
}

// Apply runs m.Do on target, then call. When call fails m.Undo restores the
// previous state and the failure is returned as a *RevertedError.
func Apply[S any](ctx context.Context, target Updater[S], m Mutation[S], call func(ctx context.Context) error) error {
	_, err := ApplyResult(ctx, target, m, func(ctx context.Context) (struct{}, error) {
		if call == nil {
			return struct{}{}, nil
		}
		return struct{}{}, call(ctx)
	}, nil)
	return err
}

// ApplyResult is Apply for calls that return the authoritative value.
// confirm, when set, folds the result into the state after success.
func ApplyResult[S, R any](ctx context.Context, target Updater[S], m Mutation[S], call func(ctx context.Context) (R, error), confirm func(*S, R)) (R, error) {
	var zero R
	if m.Do == nil || m.Undo == nil {
		return zero, errors.New("optimistic mutation needs both Do and Undo")
	}

	if err := target.Update(m.Do); err != nil {
		return zero, fmt.Errorf("failed to apply local change: %w", err)
	}

	res, err := call(ctx)
	if err != nil {
		rev := &RevertedError{Err: err}
		if uerr := target.Update(m.Undo); uerr != nil {
			rev.UndoErr = uerr
		}
		return zero, rev
	}

	if confirm != nil {
		// The target may be gone by now; the confirmation is then moot.
		_ = target.Update(func(s *S) { confirm(s, res) })
	}
	return res, nil
}

// LikeToggle flips a liked flag and moves its counter with it. field locates
// both inside the state. The counter never drops below zero.
func LikeToggle[S any](field func(*S) (liked *bool, count *int)) Mutation[S] {
	var was bool
	var delta int

	return Mutation[S]{
		Do: func(s *S) {
			liked, count := field(s)
			was = *liked
			*liked = !was

			before := *count
			if was {
				*count = max(0, before-1)
			} else {
				*count = before + 1
			}
			delta = *count - before
		},
		Undo: func(s *S) {
			liked, count := field(s)
			*liked = was
			*count = max(0, *count-delta)
		},
	}
}

// Toggle flips a single flag, such as a bookmark
func Toggle[S any](field func(*S) *bool) Mutation[S] {
	var was bool

	return Mutation[S]{
		Do: func(s *S) {
			f := field(s)
			was = *f
			*f = !was
		},
		Undo: func(s *S) {
			*field(s) = was
		},
	}
}
