package material

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNameCollision indicates a material or channel name is already taken.
	ErrNameCollision = errors.New("name already in use")

	// ErrStructural indicates a node the engine relies on is missing, such as
	// the material group of a primary input or a material's link layer.
	ErrStructural = errors.New("document structure is inconsistent")

	// ErrCapabilityMissing indicates the host lacks an optional primitive.
	ErrCapabilityMissing = errors.New("host capability missing")

	// ErrNotFound indicates an unknown material, element or input.
	ErrNotFound = errors.New("not found")

	// ErrInvalidName indicates an empty or malformed name.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidOrder indicates a requested order names a material twice.
	ErrInvalidOrder = errors.New("invalid order")
)

// InputFailure records why one shader input could not be rebuilt.
type InputFailure struct {
	Input string
	// Rollback is set when the failure happened while restoring the input to
	// its previous order.
	Rollback bool
	Err      error
}

func (f InputFailure) String() string {
	if f.Rollback {
		return fmt.Sprintf("%s (rollback): %v", f.Input, f.Err)
	}
	return fmt.Sprintf("%s: %v", f.Input, f.Err)
}

// ReconcileError is returned when at least one input failed to rebuild. It
// matches ErrStructural and every underlying input error with errors.Is.
type ReconcileError struct {
	Report *ReconcileReport
}

func (e *ReconcileError) Error() string {
	parts := make([]string, 0, len(e.Report.Failed))
	for _, f := range e.Report.Failed {
		parts = append(parts, f.String())
	}
	msg := "reconcile failed for " + strings.Join(parts, "; ")
	if e.Report.RolledBack {
		msg += " (rolled back)"
	}
	return msg
}

func (e *ReconcileError) Unwrap() []error {
	errs := []error{ErrStructural}
	for _, f := range e.Report.Failed {
		errs = append(errs, f.Err)
	}
	return errs
}
