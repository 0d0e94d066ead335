package execshell

import (
	"context"
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveExecutableName(testInstance *testing.T) {
	require.Equal(testInstance, "npm.cmd", resolveExecutableName(CommandNpm, "windows"))
	require.Equal(testInstance, "npm", resolveExecutableName(CommandNpm, "linux"))
	require.Equal(testInstance, "node", resolveExecutableName(CommandName("node"), "windows"))
}

func TestOSCommandRunnerRun(testInstance *testing.T) {
	if runtime.GOOS == windowsOperatingSystemConstant {
		testInstance.Skip("requires a POSIX shell")
	}

	shellCommand := func(script string, environment map[string]string) ShellCommand {
		return ShellCommand{
			Name: CommandName("sh"),
			Details: CommandDetails{
				Arguments:            []string{"-c", script},
				WorkingDirectory:     testInstance.TempDir(),
				EnvironmentVariables: environment,
			},
		}
	}

	testCases := []struct {
		name           string
		command        ShellCommand
		expectedResult ExecutionResult
	}{
		{
			name:           "captures_output",
			command:        shellCommand("printf out; printf err >&2", nil),
			expectedResult: ExecutionResult{StandardOutput: "out", StandardError: "err"},
		},
		{
			name:           "reports_exit_code",
			command:        shellCommand("exit 3", nil),
			expectedResult: ExecutionResult{ExitCode: 3},
		},
		{
			name:           "merges_environment",
			command:        shellCommand("printf %s \"$ORGSYNC_RUNNER_VALUE\"", map[string]string{"ORGSYNC_RUNNER_VALUE": "merged"}),
			expectedResult: ExecutionResult{StandardOutput: "merged"},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtest *testing.T) {
			result, runError := NewOSCommandRunner().Run(context.Background(), testCase.command)
			require.NoError(subtest, runError)
			require.Equal(subtest, testCase.expectedResult.StandardOutput, result.StandardOutput)
			require.Equal(subtest, testCase.expectedResult.StandardError, result.StandardError)
			require.Equal(subtest, testCase.expectedResult.ExitCode, result.ExitCode)
			require.Positive(subtest, result.Duration)
		})
	}
}

func TestOSCommandRunnerCancellation(testInstance *testing.T) {
	if runtime.GOOS == windowsOperatingSystemConstant {
		testInstance.Skip("requires a POSIX shell")
	}

	executionContext, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	runner := &OSCommandRunner{gracePeriod: 100 * time.Millisecond}
	_, runError := runner.Run(executionContext, ShellCommand{Name: CommandName("sleep"), Details: CommandDetails{Arguments: []string{"5"}}})
	require.ErrorIs(testInstance, runError, context.DeadlineExceeded)
}
