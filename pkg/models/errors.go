package models

import (
	"context"
	"errors"
	"fmt"
)

// Failure modes a generation call can surface. Callers branch on these with
// errors.Is; the concrete provider error stays wrapped underneath.
var (
	ErrRateLimited       = errors.New("generator rate limited")
	ErrTimeout           = errors.New("generator timed out")
	ErrContentFiltered   = errors.New("generator response content filtered")
	ErrMalformedResponse = errors.New("generator returned malformed response")
)

func wrapTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
