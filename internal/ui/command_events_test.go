package ui_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/orgsync/internal/execshell"
	"github.com/temirov/orgsync/internal/repos/executor"
	"github.com/temirov/orgsync/internal/ui"
)

const (
	testCommandWorkingDirectoryConstant = "/tmp/registry"
	testExecutionFailureReasonConstant  = "execution failed"
	testStandardErrorMessageConstant    = "npm ERR! network"
)

func TestConsoleCommandEventLoggerEmitsMessages(testInstance *testing.T) {
	command := execshell.ShellCommand{
		Name: execshell.CommandNpm,
		Details: execshell.CommandDetails{
			Arguments:        []string{"ci"},
			WorkingDirectory: testCommandWorkingDirectoryConstant,
		},
	}

	testCases := []struct {
		name            string
		invoke          func(logger *ui.ConsoleCommandEventLogger)
		expectedLevel   zapcore.Level
		expectedMessage string
	}{
		{
			name: "command_started",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandStarted(command)
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: "Installing locked dependencies in " + testCommandWorkingDirectoryConstant,
		},
		{
			name: "command_completed_success",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandCompleted(command, execshell.ExecutionResult{ExitCode: 0, Duration: 2 * time.Second})
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: "Installed locked dependencies in " + testCommandWorkingDirectoryConstant,
		},
		{
			name: "command_completed_failure",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandCompleted(command, execshell.ExecutionResult{ExitCode: 1, StandardError: testStandardErrorMessageConstant})
			},
			expectedLevel:   zapcore.WarnLevel,
			expectedMessage: "Failed to install locked dependencies in " + testCommandWorkingDirectoryConstant + " (exit code 1: " + testStandardErrorMessageConstant + ")",
		},
		{
			name: "command_execution_failure",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandExecutionFailed(command, errors.New(testExecutionFailureReasonConstant))
			},
			expectedLevel:   zapcore.ErrorLevel,
			expectedMessage: "Unable to install locked dependencies in " + testCommandWorkingDirectoryConstant + ": " + testExecutionFailureReasonConstant,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtest *testing.T) {
			observerCore, observedLogs := observer.New(zapcore.DebugLevel)
			eventLogger := ui.NewConsoleCommandEventLogger(zap.New(observerCore))

			testCase.invoke(eventLogger)

			entries := observedLogs.All()
			require.Len(subtest, entries, 1)
			require.Equal(subtest, testCase.expectedLevel, entries[0].Level)
			require.Equal(subtest, testCase.expectedMessage, entries[0].Message)
			require.Equal(subtest, testCommandWorkingDirectoryConstant, entries[0].ContextMap()["directory"])
		})
	}
}

func TestConsoleCommandEventLoggerRecordsDuration(testInstance *testing.T) {
	observerCore, observedLogs := observer.New(zapcore.DebugLevel)
	eventLogger := ui.NewConsoleCommandEventLogger(zap.New(observerCore))

	eventLogger.CommandCompleted(execshell.ShellCommand{Name: execshell.CommandNpm}, execshell.ExecutionResult{ExitCode: 1, Duration: 1500 * time.Millisecond})

	entries := observedLogs.All()
	require.Len(testInstance, entries, 1)
	require.Equal(testInstance, 1500*time.Millisecond, entries[0].ContextMap()["duration"])
	require.Equal(testInstance, int64(1), entries[0].ContextMap()["exit_code"])
}

func TestWorkItemProgressLoggerLevels(testInstance *testing.T) {
	observerCore, observedLogs := observer.New(zapcore.DebugLevel)
	progressLogger := ui.NewWorkItemProgressLogger(zap.New(observerCore))

	progressLogger.StateChanged("registry", executor.StatePending)
	progressLogger.StateChanged("registry", executor.StateCloning)
	progressLogger.StateChanged("registry", executor.StateFailed)

	entries := observedLogs.All()
	require.Len(testInstance, entries, 3)
	require.Equal(testInstance, zapcore.DebugLevel, entries[0].Level)
	require.Equal(testInstance, "registry: cloning", entries[1].Message)
	require.Equal(testInstance, zapcore.InfoLevel, entries[1].Level)
	require.Equal(testInstance, zapcore.WarnLevel, entries[2].Level)
}
