package executor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/orgsync/internal/repos/shared"
)

const (
	// DefaultInstallConcurrencyConstant bounds in-flight items when dependency installation follows.
	DefaultInstallConcurrencyConstant = 3
	// DefaultConcurrencyConstant bounds in-flight items when no installation follows.
	DefaultConcurrencyConstant = 8

	clonerNotConfiguredMessage         = "repository cloner not configured"
	pullerNotConfiguredMessage         = "repository puller not configured"
	installerNotConfiguredMessage      = "dependency installer not configured"
	fileSystemNotConfiguredMessage     = "file system not configured"
	cloneURLProviderMissingMessage     = "clone url provider not configured"
	duplicateWorkItemTemplateConstant  = "repository %s scheduled more than once"
	unsupportedActionTemplateConstant  = "unsupported action %q"
	targetExistsTemplateConstant       = "target directory %s already exists"
	targetMissingTemplateConstant      = "target directory %s does not exist"
	stepErrorTemplateConstant          = "%s %s: %v"
	workItemSucceededMessageConstant   = "work item succeeded"
	workItemFailedMessageConstant      = "work item failed"
	cleanupFailedMessageConstant       = "cleanup after failed clone did not complete"
	cleanupCompletedMessageConstant    = "removed partially cloned repository"
	logFieldRepositoryConstant         = "repository"
	logFieldActionConstant             = "action"
	logFieldPathConstant               = "path"
	logFieldReasonConstant             = "reason"
	emptyRepositoryNameMessageConstant = "work item repository name is empty"
)

var (
	// ErrClonerNotConfigured indicates the executor lacks a cloner.
	ErrClonerNotConfigured = errors.New(clonerNotConfiguredMessage)
	// ErrPullerNotConfigured indicates the executor lacks a puller.
	ErrPullerNotConfigured = errors.New(pullerNotConfiguredMessage)
	// ErrInstallerNotConfigured indicates the executor lacks an installer.
	ErrInstallerNotConfigured = errors.New(installerNotConfiguredMessage)
	// ErrFileSystemNotConfigured indicates the executor lacks a file system.
	ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessage)
	// ErrCloneURLProviderMissing indicates clone items were submitted without a URL provider.
	ErrCloneURLProviderMissing = errors.New(cloneURLProviderMissingMessage)
	// ErrEmptyRepositoryName indicates a work item without a repository name.
	ErrEmptyRepositoryName = errors.New(emptyRepositoryNameMessageConstant)
)

// WorkItemState enumerates the lifecycle of a work item.
type WorkItemState string

// Work item states.
const (
	StatePending    WorkItemState = WorkItemState("pending")
	StateCloning    WorkItemState = WorkItemState("cloning")
	StatePulling    WorkItemState = WorkItemState("pulling")
	StateInstalling WorkItemState = WorkItemState("installing")
	StateSucceeded  WorkItemState = WorkItemState("succeeded")
	StateFailed     WorkItemState = WorkItemState("failed")
)

// IsTerminal reports whether no further transitions follow.
func (state WorkItemState) IsTerminal() bool {
	return state == StateSucceeded || state == StateFailed
}

// IsActive reports whether the work item holds a pool slot.
func (state WorkItemState) IsActive() bool {
	return state == StateCloning || state == StatePulling || state == StateInstalling
}

// StateObserver receives work item state transitions. Implementations must be safe for concurrent use.
type StateObserver interface {
	StateChanged(repositoryName string, state WorkItemState)
}

// DuplicateWorkItemError reports a repository scheduled twice in one batch.
type DuplicateWorkItemError struct {
	RepositoryName string
}

// Error describes the duplicate.
func (duplicateError DuplicateWorkItemError) Error() string {
	return fmt.Sprintf(duplicateWorkItemTemplateConstant, duplicateError.RepositoryName)
}

// StepError wraps the failure of one step of a work item.
type StepError struct {
	RepositoryName string
	State          WorkItemState
	Cause          error
}

// Error describes the failed step.
func (stepError StepError) Error() string {
	return fmt.Sprintf(stepErrorTemplateConstant, stepError.State, stepError.RepositoryName, stepError.Cause)
}

// Unwrap exposes the underlying cause.
func (stepError StepError) Unwrap() error {
	return stepError.Cause
}

// CloneURLProvider resolves the clone URL of a repository.
type CloneURLProvider func(repositoryName string) (string, error)

// Dependencies supplies collaborators used by the executor.
type Dependencies struct {
	Cloner     shared.RepositoryCloner
	Puller     shared.RepositoryPuller
	Installer  shared.DependencyInstaller
	FileSystem shared.FileSystem
	Observer   StateObserver
	Logger     *zap.Logger
}

// Options configures a batch run.
type Options struct {
	WorkspacePath    string
	Branch           string
	Concurrency      int
	CloneURLProvider CloneURLProvider
}

// Summary aggregates batch results.
type Summary struct {
	Results      []shared.BatchResult
	SuccessCount int
	Failures     []shared.BatchResult
}

// Summarize aggregates results into counts and failures.
func Summarize(results []shared.BatchResult) Summary {
	summary := Summary{Results: results}
	for _, result := range results {
		if result.Succeeded() {
			summary.SuccessCount++
			continue
		}
		summary.Failures = append(summary.Failures, result)
	}
	return summary
}

// Executor applies clone or pull work items with bounded concurrency.
type Executor struct {
	dependencies Dependencies
}

// NewExecutor validates dependencies and constructs an Executor.
func NewExecutor(dependencies Dependencies) (*Executor, error) {
	if dependencies.Cloner == nil {
		return nil, ErrClonerNotConfigured
	}
	if dependencies.Puller == nil {
		return nil, ErrPullerNotConfigured
	}
	if dependencies.Installer == nil {
		return nil, ErrInstallerNotConfigured
	}
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	return &Executor{dependencies: dependencies}, nil
}

// DefaultConcurrency selects the concurrency limit for a batch.
func DefaultConcurrency(installFollows bool) int {
	if installFollows {
		return DefaultInstallConcurrencyConstant
	}
	return DefaultConcurrencyConstant
}

// Run executes every work item and returns one result per item in input order.
// Invalid batches are rejected before any item starts; item failures never abort siblings.
func (executor *Executor) Run(executionContext context.Context, workItems []shared.WorkItem, options Options) ([]shared.BatchResult, error) {
	if validationError := executor.validate(workItems, options); validationError != nil {
		return nil, validationError
	}

	results := make([]shared.BatchResult, len(workItems))
	for itemIndex, workItem := range workItems {
		executor.notify(workItem.RepositoryName, StatePending)
		results[itemIndex] = shared.BatchResult{RepositoryName: workItem.RepositoryName, Action: workItem.Action}
	}

	pool := NewPool(options.Concurrency)
	slotErrors := ForEach(executionContext, pool, workItems, func(itemContext context.Context, itemIndex int, workItem shared.WorkItem) error {
		results[itemIndex] = executor.runWorkItem(itemContext, workItem, options)
		return nil
	})

	for itemIndex, slotError := range slotErrors {
		if slotError == nil {
			continue
		}
		workItem := workItems[itemIndex]
		executor.notify(workItem.RepositoryName, StateFailed)
		results[itemIndex] = executor.failure(workItem, slotError)
	}

	return results, nil
}

func (executor *Executor) validate(workItems []shared.WorkItem, options Options) error {
	seenNames := make(map[string]struct{}, len(workItems))
	for _, workItem := range workItems {
		normalizedName := shared.NormalizeRepositoryName(workItem.RepositoryName)
		if len(normalizedName) == 0 {
			return ErrEmptyRepositoryName
		}
		if _, seen := seenNames[normalizedName]; seen {
			return DuplicateWorkItemError{RepositoryName: workItem.RepositoryName}
		}
		seenNames[normalizedName] = struct{}{}

		switch workItem.Action {
		case shared.RepositoryActionClone:
			if options.CloneURLProvider == nil {
				return ErrCloneURLProviderMissing
			}
		case shared.RepositoryActionPull:
		default:
			return fmt.Errorf(unsupportedActionTemplateConstant, workItem.Action)
		}
	}
	return nil
}

func (executor *Executor) runWorkItem(executionContext context.Context, workItem shared.WorkItem, options Options) shared.BatchResult {
	targetPath := filepath.Join(options.WorkspacePath, strings.TrimSpace(workItem.RepositoryName))
	branch := shared.ResolveBranch(workItem.Branch, options.Branch)

	var stepError error
	switch workItem.Action {
	case shared.RepositoryActionClone:
		stepError = executor.cloneAndInstall(executionContext, workItem, targetPath, branch, options.CloneURLProvider)
	default:
		stepError = executor.pullAndInstall(executionContext, workItem, targetPath, branch)
	}

	if stepError != nil {
		executor.notify(workItem.RepositoryName, StateFailed)
		return executor.failure(workItem, stepError)
	}

	executor.notify(workItem.RepositoryName, StateSucceeded)
	executor.dependencies.Logger.Info(
		workItemSucceededMessageConstant,
		zap.String(logFieldRepositoryConstant, workItem.RepositoryName),
		zap.String(logFieldActionConstant, string(workItem.Action)),
	)
	return shared.BatchResult{
		RepositoryName: workItem.RepositoryName,
		Action:         workItem.Action,
		Outcome:        shared.BatchOutcomeSuccess,
	}
}

func (executor *Executor) cloneAndInstall(executionContext context.Context, workItem shared.WorkItem, targetPath string, branch string, cloneURLProvider CloneURLProvider) error {
	if _, statError := executor.dependencies.FileSystem.Stat(targetPath); statError == nil {
		return StepError{RepositoryName: workItem.RepositoryName, State: StatePending, Cause: fmt.Errorf(targetExistsTemplateConstant, targetPath)}
	}

	cloneURL, urlError := cloneURLProvider(workItem.RepositoryName)
	if urlError != nil {
		return StepError{RepositoryName: workItem.RepositoryName, State: StatePending, Cause: urlError}
	}

	stepError := executor.runSteps(executionContext, workItem, targetPath, []step{
		{state: StateCloning, operation: func() error {
			return executor.dependencies.Cloner.Clone(executionContext, targetPath, cloneURL, branch)
		}},
		{state: StatePulling, operation: func() error {
			return executor.dependencies.Puller.Pull(executionContext, targetPath, branch)
		}},
		executor.installStep(executionContext, workItem, targetPath),
	})
	if stepError != nil {
		executor.cleanup(workItem, targetPath)
	}
	return stepError
}

func (executor *Executor) pullAndInstall(executionContext context.Context, workItem shared.WorkItem, targetPath string, branch string) error {
	if _, statError := executor.dependencies.FileSystem.Stat(targetPath); statError != nil {
		cause := statError
		if errors.Is(statError, fs.ErrNotExist) {
			cause = fmt.Errorf(targetMissingTemplateConstant, targetPath)
		}
		return StepError{RepositoryName: workItem.RepositoryName, State: StatePending, Cause: cause}
	}

	return executor.runSteps(executionContext, workItem, targetPath, []step{
		{state: StatePulling, operation: func() error {
			return executor.dependencies.Puller.Pull(executionContext, targetPath, branch)
		}},
		executor.installStep(executionContext, workItem, targetPath),
	})
}

type step struct {
	state     WorkItemState
	operation func() error
}

func (executor *Executor) installStep(executionContext context.Context, workItem shared.WorkItem, targetPath string) step {
	if workItem.SkipInstall {
		return step{}
	}
	return step{state: StateInstalling, operation: func() error {
		return executor.dependencies.Installer.Install(executionContext, targetPath)
	}}
}

func (executor *Executor) runSteps(executionContext context.Context, workItem shared.WorkItem, targetPath string, steps []step) error {
	for _, currentStep := range steps {
		if currentStep.operation == nil {
			continue
		}
		if contextError := executionContext.Err(); contextError != nil {
			return StepError{RepositoryName: workItem.RepositoryName, State: currentStep.state, Cause: contextError}
		}
		executor.notify(workItem.RepositoryName, currentStep.state)
		if operationError := currentStep.run(); operationError != nil {
			return StepError{RepositoryName: workItem.RepositoryName, State: currentStep.state, Cause: operationError}
		}
	}
	return nil
}

// run converts a panic of the step into a PanicError so the caller still cleans up.
func (currentStep step) run() (operationError error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			operationError = PanicError{Value: recovered}
		}
	}()
	return currentStep.operation()
}

func (executor *Executor) cleanup(workItem shared.WorkItem, targetPath string) {
	if removalError := executor.dependencies.FileSystem.RemoveAll(targetPath); removalError != nil {
		executor.dependencies.Logger.Warn(
			cleanupFailedMessageConstant,
			zap.String(logFieldRepositoryConstant, workItem.RepositoryName),
			zap.String(logFieldPathConstant, targetPath),
			zap.Error(removalError),
		)
		return
	}
	executor.dependencies.Logger.Debug(
		cleanupCompletedMessageConstant,
		zap.String(logFieldRepositoryConstant, workItem.RepositoryName),
		zap.String(logFieldPathConstant, targetPath),
	)
}

func (executor *Executor) failure(workItem shared.WorkItem, failure error) shared.BatchResult {
	executor.dependencies.Logger.Warn(
		workItemFailedMessageConstant,
		zap.String(logFieldRepositoryConstant, workItem.RepositoryName),
		zap.String(logFieldActionConstant, string(workItem.Action)),
		zap.String(logFieldReasonConstant, failure.Error()),
	)
	return shared.BatchResult{
		RepositoryName: workItem.RepositoryName,
		Action:         workItem.Action,
		Outcome:        shared.BatchOutcomeFailure,
		Reason:         failure.Error(),
	}
}

func (executor *Executor) notify(repositoryName string, state WorkItemState) {
	if executor.dependencies.Observer == nil {
		return
	}
	executor.dependencies.Observer.StateChanged(repositoryName, state)
}
