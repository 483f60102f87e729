package outbox

import (
	"errors"
	"fmt"
)

// ErrPermanent marks replication failures that no retry can fix, such as a
// payload that does not deserialize or an entity type with no registered
// handler. The processor makes these terminal immediately instead of burning
// retries.
var ErrPermanent = errors.New("permanent replication failure")

func permanentf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrPermanent}, args...)...)
}

// IsPermanent reports whether err belongs to the non-retryable failure class.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}
