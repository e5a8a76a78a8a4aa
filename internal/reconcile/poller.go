package reconcile

import (
	"context"
	"fmt"
	"time"
)

// Poller checks a read-only status a fixed number of times with a fixed
// pause, without backoff.
type Poller struct {
	MaxRetry int
	Sleep    time.Duration
}

// Check reports whether the terminal status is reached and a description of
// the current status. An error stops polling immediately.
type Check func(ctx context.Context, attempt int) (done bool, status string, err error)

// TimeoutError is returned when no check reached a terminal status.
type TimeoutError struct {
	MaxRetry   int
	Sleep      time.Duration
	LastStatus string
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("max wait time reached after %d checks, %s apart", e.MaxRetry, e.Sleep)
	if e.LastStatus != "" {
		msg += ", last status: " + e.LastStatus
	}
	return msg
}

// Until runs check up to MaxRetry times, pausing Sleep between consecutive
// checks. It returns the status of the terminal check.
func (p Poller) Until(ctx context.Context, check Check) (string, error) {
	return p.Resume(ctx, 0, "", check)
}

// Resume continues polling after checked checks were made elsewhere, the last
// of which reported status last. Those checks count against MaxRetry.
func (p Poller) Resume(ctx context.Context, checked int, last string, check Check) (string, error) {
	for attempt := checked + 1; attempt <= p.MaxRetry; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, p.Sleep); err != nil {
				return last, err
			}
		}
		done, status, err := check(ctx, attempt)
		if err != nil {
			return status, err
		}
		last = status
		if done {
			return status, nil
		}
	}
	return last, &TimeoutError{MaxRetry: p.MaxRetry, Sleep: p.Sleep, LastStatus: last}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
