package dispatch

import "errors"

var (
	ErrEmptyDescription = errors.New("task description is empty")
	ErrNoAgentSelected  = errors.New("no agent selected")
	ErrAgentNotFound    = errors.New("agent not found")
	ErrAgentIneligible  = errors.New("agent is outside working hours, on lunch, disabled or not a worker")
	ErrNoEligibleAgent  = errors.New("no schedule-eligible agent")
	ErrInvalidSchedule  = errors.New("invalid schedule")
	ErrInvalidMode      = errors.New("invalid assignment mode or type")
)

// IsValidation reports whether err is a precondition failure raised before any
// mutation. ErrNoEligibleAgent is not a validation error.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrEmptyDescription,
		ErrNoAgentSelected,
		ErrAgentNotFound,
		ErrAgentIneligible,
		ErrInvalidSchedule,
		ErrInvalidMode,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
