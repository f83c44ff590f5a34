package distributor

import (
	"github.com/alanyang/shiftdesk/internal/domain/dispatch"
)

// Distributor applies the assignment policy against a snapshot and owns the
// rotation cursor. Callers hold the dispatch lock across Decide, the task write
// and Commit.
type Distributor interface {
	Decide(req dispatch.Request, snap dispatch.Snapshot) (dispatch.Decision, error)
	// Commit advances the cursor if the decision asks for it. Call it only after
	// the task has been stored.
	Commit(d dispatch.Decision)
}
