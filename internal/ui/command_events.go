package ui

import (
	"go.uber.org/zap"

	"github.com/temirov/orgsync/internal/execshell"
)

const (
	logFieldDirectoryConstant = "directory"
	logFieldDurationConstant  = "duration"
	logFieldExitCodeConstant  = "exit_code"
)

// ConsoleCommandEventLogger reports npm runs as one line per lifecycle event.
type ConsoleCommandEventLogger struct {
	logger    *zap.Logger
	formatter execshell.CommandMessageFormatter
}

// NewConsoleCommandEventLogger constructs a console event logger backed by the provided zap logger.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleCommandEventLogger{logger: logger}
}

// CommandStarted implements execshell.CommandEventObserver.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(command execshell.ShellCommand) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(eventLogger.formatter.BuildStartedMessage(command), directoryField(command))
}

// CommandCompleted implements execshell.CommandEventObserver. Non-zero exits are warnings.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if eventLogger == nil {
		return
	}
	fields := []zap.Field{directoryField(command), zap.Duration(logFieldDurationConstant, result.Duration)}
	if result.ExitCode == 0 {
		eventLogger.logger.Info(eventLogger.formatter.BuildSuccessMessage(command), fields...)
		return
	}
	fields = append(fields, zap.Int(logFieldExitCodeConstant, result.ExitCode))
	eventLogger.logger.Warn(eventLogger.formatter.BuildFailureMessage(command, result), fields...)
}

// CommandExecutionFailed implements execshell.CommandEventObserver.
func (eventLogger *ConsoleCommandEventLogger) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Error(eventLogger.formatter.BuildExecutionFailureMessage(command, failure), directoryField(command), zap.Error(failure))
}

func directoryField(command execshell.ShellCommand) zap.Field {
	return zap.String(logFieldDirectoryConstant, command.Details.WorkingDirectory)
}
