package execshell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"time"
)

const (
	environmentAssignmentSeparatorConstant = "="
	windowsOperatingSystemConstant         = "windows"
	windowsBatchSuffixConstant             = ".cmd"
	// cancellationGracePeriodConstant is how long an interrupted npm may clean up before it is killed.
	cancellationGracePeriodConstant = 5 * time.Second
)

// OSCommandRunner executes commands as child processes.
type OSCommandRunner struct {
	gracePeriod time.Duration
}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{gracePeriod: cancellationGracePeriodConstant}
}

// Run starts the command and waits for it. A cancelled context interrupts the process first and kills it once
// the grace period expires. Non-zero exits are reported through the result, not the error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	process := exec.CommandContext(executionContext, resolveExecutableName(command.Name, runtime.GOOS), command.Details.Arguments...)
	process.Dir = command.Details.WorkingDirectory
	process.Cancel = func() error {
		if runtime.GOOS == windowsOperatingSystemConstant {
			return process.Process.Kill()
		}
		return process.Process.Signal(os.Interrupt)
	}
	process.WaitDelay = runner.gracePeriod

	if len(command.Details.EnvironmentVariables) > 0 {
		environment := process.Environ()
		for environmentKey, environmentValue := range command.Details.EnvironmentVariables {
			environment = append(environment, environmentKey+environmentAssignmentSeparatorConstant+environmentValue)
		}
		process.Env = environment
	}
	if len(command.Details.StandardInput) > 0 {
		process.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	var standardOutput bytes.Buffer
	var standardError bytes.Buffer
	process.Stdout = &standardOutput
	process.Stderr = &standardError

	startedAt := time.Now()
	runError := process.Run()
	result := ExecutionResult{
		StandardOutput: standardOutput.String(),
		StandardError:  standardError.String(),
		Duration:       time.Since(startedAt),
	}

	var exitError *exec.ExitError
	switch {
	case runError == nil:
		return result, nil
	case errors.As(runError, &exitError) && executionContext.Err() == nil:
		result.ExitCode = exitError.ExitCode()
		return result, nil
	case executionContext.Err() != nil:
		return ExecutionResult{}, executionContext.Err()
	default:
		return ExecutionResult{}, runError
	}
}

// npm ships as a batch script on Windows.
func resolveExecutableName(commandName CommandName, operatingSystem string) string {
	if commandName == CommandNpm && operatingSystem == windowsOperatingSystemConstant {
		return string(commandName) + windowsBatchSuffixConstant
	}
	return string(commandName)
}
