package llm

import (
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/logger"
)

// RetryPolicy retries an operation a fixed number of times with no delay.
// All external generation calls share the same policy.
type RetryPolicy struct {
	MaxAttempts int
}

var DefaultRetry = RetryPolicy{MaxAttempts: 3}

func (p RetryPolicy) Do(log *logger.Logger, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		log.Warnw("generation attempt failed", "op", op, "attempt", attempt, "error", err)
	}
	return err
}
