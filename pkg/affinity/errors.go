package affinity

import "github.com/shuldan/eventbus/pkg/errors"

var newAffinityCode = errors.WithPrefix("AFFINITY")

var (
	ErrLoopStopped       = newAffinityCode().New("affinity loop is stopped")
	ErrLoopRunning       = newAffinityCode().New("affinity loop is already running")
	ErrNilCallable       = newAffinityCode().New("callable must not be nil")
	ErrInvalidLoop       = newAffinityCode().New("registered affinity scheduler is not a *Loop")
	ErrLoopNotRegistered = newAffinityCode().New("affinity loop not found in container")
)
