package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	defaultWorkingDirectoryLabelConstant    = "current directory"
)

const (
	npmCleanInstallSubcommandConstant = "ci"
	npmInstallSubcommandConstant      = "install"
	npmInstallAliasConstant           = "i"
)

const (
	npmCleanInstallStartTemplateConstant            = "Installing locked dependencies in %s"
	npmCleanInstallSuccessTemplateConstant          = "Installed locked dependencies in %s"
	npmCleanInstallFailureTemplateConstant          = "Failed to install locked dependencies in %s (exit code %d%s)"
	npmCleanInstallExecutionFailureTemplateConstant = "Unable to install locked dependencies in %s: %s"
	npmInstallStartTemplateConstant                 = "Resolving and installing dependencies in %s"
	npmInstallSuccessTemplateConstant               = "Resolved and installed dependencies in %s"
	npmInstallFailureTemplateConstant               = "Failed to resolve dependencies in %s (exit code %d%s)"
	npmInstallExecutionFailureTemplateConstant      = "Unable to resolve dependencies in %s: %s"
)

type stageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

var npmSubcommandTemplates = map[string]stageTemplates{
	npmCleanInstallSubcommandConstant: {
		start:            npmCleanInstallStartTemplateConstant,
		success:          npmCleanInstallSuccessTemplateConstant,
		failure:          npmCleanInstallFailureTemplateConstant,
		executionFailure: npmCleanInstallExecutionFailureTemplateConstant,
	},
	npmInstallSubcommandConstant: {
		start:            npmInstallStartTemplateConstant,
		success:          npmInstallSuccessTemplateConstant,
		failure:          npmInstallFailureTemplateConstant,
		executionFailure: npmInstallExecutionFailureTemplateConstant,
	},
	npmInstallAliasConstant: {
		start:            npmInstallStartTemplateConstant,
		success:          npmInstallSuccessTemplateConstant,
		failure:          npmInstallFailureTemplateConstant,
		executionFailure: npmInstallExecutionFailureTemplateConstant,
	},
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name == CommandNpm && len(command.Details.Arguments) > 0 {
		if templates, known := npmSubcommandTemplates[strings.TrimSpace(command.Details.Arguments[0])]; known {
			return formatter.describeWithTemplates(templates, formatter.describeWorkingDirectory(command), result, failure, stage)
		}
	}
	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeWithTemplates(templates stageTemplates, subject string, result ExecutionResult, failure error, stage messageStage) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subject)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subject)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, subject, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(templates.executionFailure, subject, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return command.Label()
	}
	return command.Label() + fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return ""
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}
