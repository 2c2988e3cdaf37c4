package executor

import "github.com/shuldan/eventbus/pkg/errors"

var newExecutorCode = errors.WithPrefix("EXECUTOR")

var (
	ErrExecutorClosed = newExecutorCode().New("executor is closed")
	ErrNilTask        = newExecutorCode().New("task must not be nil")
)
