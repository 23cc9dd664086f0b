package driven

import "github.com/ericfisherdev/profilekeeper/internal/domain/model"

// ActionLock guarantees at most one concurrent execution per action kind.
// TryAcquire returns model.ErrActionInProgress when the action is held
// elsewhere; the returned release func must be called exactly once.
type ActionLock interface {
	TryAcquire(action model.ActionKind) (release func(), err error)
}
