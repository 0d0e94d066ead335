package ui

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/orgsync/internal/repos/executor"
)

const (
	workItemStateTemplateConstant = "%s: %s"
)

// WorkItemProgressLogger reports work item transitions on the console. Pending transitions are
// logged at debug level since every item starts there.
type WorkItemProgressLogger struct {
	logger *zap.Logger
}

// NewWorkItemProgressLogger constructs a progress logger backed by the provided zap logger.
func NewWorkItemProgressLogger(logger *zap.Logger) *WorkItemProgressLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkItemProgressLogger{logger: logger}
}

// StateChanged implements executor.StateObserver.
func (progressLogger *WorkItemProgressLogger) StateChanged(repositoryName string, state executor.WorkItemState) {
	if progressLogger == nil {
		return
	}
	message := fmt.Sprintf(workItemStateTemplateConstant, repositoryName, state)
	switch state {
	case executor.StatePending:
		progressLogger.logger.Debug(message)
	case executor.StateFailed:
		progressLogger.logger.Warn(message)
	default:
		progressLogger.logger.Info(message)
	}
}
