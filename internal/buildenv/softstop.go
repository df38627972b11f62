package buildenv

import (
	"errors"
	"fmt"
)

// SoftStop ends a single hook early. The pipeline logs the reason and moves
// on; the build itself is never failed by a soft stop.
type SoftStop struct {
	Reason string
}

func (s *SoftStop) Error() string {
	return s.Reason
}

// Skip returns a SoftStop with a formatted reason.
func Skip(format string, args ...any) error {
	return &SoftStop{Reason: fmt.Sprintf(format, args...)}
}

// IsSoftStop reports whether err is, or wraps, a SoftStop.
func IsSoftStop(err error) bool {
	var s *SoftStop
	return errors.As(err, &s)
}
