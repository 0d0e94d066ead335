package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/orgsync/internal/gitrepo"
	"github.com/temirov/orgsync/internal/manifest"
	"github.com/temirov/orgsync/internal/repos/executor"
	"github.com/temirov/orgsync/internal/repos/inventory"
	"github.com/temirov/orgsync/internal/repos/resolver"
	"github.com/temirov/orgsync/internal/repos/shared"
	"github.com/temirov/orgsync/internal/repos/staleness"
)

const (
	declinedMessageConstant             = "operation declined"
	prompterNotConfiguredMessage        = "confirmation prompter not configured"
	syncPromptTemplateConstant          = "Synchronize %s repositories into %s?"
	freshPromptTemplateConstant         = "Remove %d local repositories and clone them again?"
	pullPromptTemplateConstant          = "Pull %d repositories behind their remote?"
	installPromptConstant               = "Run npm install after each pull?"
	promptFailedTemplateConstant        = "unable to read confirmation: %w"
	planFailedTemplateConstant          = "unable to plan synchronization: %w"
	batchFailedTemplateConstant         = "unable to run %s batch: %w"
	unresolvedNoMatchTemplateConstant   = "Pick %q matches no repository\n"
	unresolvedAmbiguousTemplateConstant = "Pick %q is ambiguous between %s\n"
	cloneHeaderTemplateConstant         = "Repositories to clone (%d):\n"
	freshHeaderTemplateConstant         = "Local repositories to clone again (%d):\n"
	staleHeaderTemplateConstant         = "Repositories behind their remote (%d):\n"
	attentionHeaderTemplateConstant     = "Repositories that need attention (%d):\n"
	listItemTemplateConstant            = "  - %s\n"
	staleItemTemplateConstant           = "  - %s (%s)\n"
	attentionItemTemplateConstant       = "  ! %s: %s\n"
	nothingToCloneMessageConstant       = "Every repository is already cloned\n"
	nothingToUpdateMessageConstant      = "No repositories to update\n"
	pullDeclinedMessageConstant         = "Pull skipped\n"
	candidateSeparatorConstant          = ", "
	removalFailedTemplateConstant       = "unable to remove %s: %v"
	planCompletedMessageConstant        = "synchronization planned"
	removalFailedMessageConstant        = "unable to remove checkout before fresh clone"
	lockReleaseFailedMessageConstant    = "unable to release workspace lock"
	localOnlyMessageConstant            = "checkout has no matching organization repository"
	logFieldOrganizationConstant        = "organization"
	logFieldWorkspaceConstant           = "workspace"
	logFieldCloneCountConstant          = "clone_count"
	logFieldExistingCountConstant       = "existing_count"
	logFieldLocalOnlyCountConstant      = "local_only_count"
	logFieldRepositoryConstant          = "repository"
	logFieldPathConstant                = "path"
)

var (
	// ErrDeclined indicates the user declined a confirmation gate.
	ErrDeclined = errors.New(declinedMessageConstant)
	// ErrPrompterNotConfigured indicates a confirmation was required without a prompter.
	ErrPrompterNotConfigured = errors.New(prompterNotConfiguredMessage)
)

// Dependencies supplies collaborators used by the service.
type Dependencies struct {
	Lister          shared.RemoteRepositoryLister
	ManifestFetcher shared.RemoteManifestFetcher
	RemoteCommits   shared.RemoteCommitReader
	LocalCommits    shared.LocalCommitReader
	Cloner          shared.RepositoryCloner
	Puller          shared.RepositoryPuller
	Installer       shared.DependencyInstaller
	FileSystem      shared.FileSystem
	Prompter        shared.ConfirmationPrompter
	StateObserver   executor.StateObserver
	Clock           shared.Clock
	Output          io.Writer
	Logger          *zap.Logger
	// OperatingSystem is compared with manifest platforms; empty selects runtime.GOOS.
	OperatingSystem string
}

// Service orchestrates install and update runs.
type Service struct {
	dependencies  Dependencies
	resolver      *resolver.Resolver
	classifier    *staleness.Classifier
	batchExecutor *executor.Executor
	reporter      shared.Reporter
	logger        *zap.Logger
}

// NewService validates dependencies and assembles the pipeline components.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.Clock == nil {
		dependencies.Clock = shared.SystemClock{}
	}
	if len(dependencies.OperatingSystem) == 0 {
		dependencies.OperatingSystem = runtime.GOOS
	}

	repositoryResolver, resolverError := resolver.NewResolver(dependencies.Lister, dependencies.ManifestFetcher, dependencies.Logger)
	if resolverError != nil {
		return nil, resolverError
	}
	classifier, classifierError := staleness.NewClassifier(dependencies.RemoteCommits, dependencies.LocalCommits, dependencies.Logger)
	if classifierError != nil {
		return nil, classifierError
	}
	batchExecutor, executorError := executor.NewExecutor(executor.Dependencies{
		Cloner:     dependencies.Cloner,
		Puller:     dependencies.Puller,
		Installer:  dependencies.Installer,
		FileSystem: dependencies.FileSystem,
		Observer:   dependencies.StateObserver,
		Logger:     dependencies.Logger,
	})
	if executorError != nil {
		return nil, executorError
	}

	return &Service{
		dependencies:  dependencies,
		resolver:      repositoryResolver,
		classifier:    classifier,
		batchExecutor: batchExecutor,
		reporter:      shared.NewWriterReporter(dependencies.Output),
		logger:        dependencies.Logger,
	}, nil
}

// Install clones missing repositories. Without a pick-list the checkouts that existed before the run are
// then updated.
func (service *Service) Install(executionContext context.Context, options InstallOptions) (Recap, error) {
	if validationError := options.Validate(); validationError != nil {
		return Recap{}, validationError
	}
	recap := Recap{Started: service.dependencies.Clock.Now()}

	if confirmError := service.confirm(options.Confirmation, fmt.Sprintf(syncPromptTemplateConstant, options.Organization, options.WorkspacePath)); confirmError != nil {
		return recap, confirmError
	}

	workspaceLock, lockError := AcquireWorkspaceLock(options.WorkspacePath, options.Configuration.LockFile)
	if lockError != nil {
		return recap, lockError
	}
	defer service.release(workspaceLock)

	plan, planError := service.Plan(executionContext, options.Options)
	if planError != nil {
		return recap, planError
	}
	recap.Unresolved = plan.Resolution.Unresolved
	service.reportUnresolved(plan.Resolution.Unresolved)

	if options.UpdateOnly {
		updateError := service.update(executionContext, options.Options, options.InstallPolicy(), plan, &recap)
		return service.finish(recap), updateError
	}

	if options.Fresh {
		if freshError := service.prepareFresh(&plan, options, &recap); freshError != nil {
			return service.finish(recap), freshError
		}
	}

	if cloneError := service.clone(executionContext, plan, options, &recap); cloneError != nil {
		return service.finish(recap), cloneError
	}

	if !plan.Resolution.Picked {
		updateError := service.update(executionContext, options.Options, options.InstallPolicy(), plan, &recap)
		return service.finish(recap), updateError
	}
	return service.finish(recap), nil
}

// Update pulls checkouts whose primary branch lags the remote.
func (service *Service) Update(executionContext context.Context, options UpdateOptions) (Recap, error) {
	if validationError := options.Validate(); validationError != nil {
		return Recap{}, validationError
	}
	recap := Recap{Started: service.dependencies.Clock.Now()}

	workspaceLock, lockError := AcquireWorkspaceLock(options.WorkspacePath, options.Configuration.LockFile)
	if lockError != nil {
		return recap, lockError
	}
	defer service.release(workspaceLock)

	plan, planError := service.Plan(executionContext, options.Options)
	if planError != nil {
		return recap, planError
	}
	recap.Unresolved = plan.Resolution.Unresolved
	service.reportUnresolved(plan.Resolution.Unresolved)

	updateError := service.update(executionContext, options.Options, options.Install, plan, &recap)
	return service.finish(recap), updateError
}

// Plan resolves the remote set and scans the workspace concurrently, then diffs the two.
func (service *Service) Plan(executionContext context.Context, options Options) (Plan, error) {
	if validationError := options.Validate(); validationError != nil {
		return Plan{}, validationError
	}
	configuration := options.Configuration
	manifestReader, readerError := manifest.NewReader(service.dependencies.FileSystem, configuration.ManifestFile)
	if readerError != nil {
		return Plan{}, readerError
	}
	scanner, scannerError := inventory.NewScanner(service.dependencies.FileSystem, manifestReader, service.logger)
	if scannerError != nil {
		return Plan{}, scannerError
	}

	var resolution resolver.Resolution
	var localInventory inventory.Inventory
	planGroup, groupContext := errgroup.WithContext(executionContext)
	planGroup.Go(func() error {
		var resolveError error
		resolution, resolveError = service.resolver.Resolve(groupContext, resolver.Options{
			Organization:     options.Organization,
			Branch:           options.Branch,
			ExcludedNames:    configuration.Exclude,
			ExcludedPatterns: configuration.ExcludePatterns,
			PickList:         options.PickList,
			FuzzyTolerance:   configuration.FuzzyTolerance,
			PlatformFilter:   configuration.PlatformFilter,
			ManifestFileName: configuration.ManifestFile,
			OperatingSystem:  service.dependencies.OperatingSystem,
		})
		return resolveError
	})
	planGroup.Go(func() error {
		var scanError error
		localInventory, scanError = scanner.Scan(inventory.Options{
			WorkspacePath:   options.WorkspacePath,
			RequireManifest: configuration.RequireManifest,
		})
		return scanError
	})
	if groupError := planGroup.Wait(); groupError != nil {
		return Plan{}, fmt.Errorf(planFailedTemplateConstant, groupError)
	}

	plan := BuildPlan(resolution, localInventory)
	for _, localOnlyName := range plan.LocalOnly {
		service.logger.Debug(localOnlyMessageConstant, zap.String(logFieldRepositoryConstant, localOnlyName))
	}
	service.logger.Info(
		planCompletedMessageConstant,
		zap.String(logFieldOrganizationConstant, options.Organization),
		zap.String(logFieldWorkspaceConstant, options.WorkspacePath),
		zap.Int(logFieldCloneCountConstant, len(plan.Clone)),
		zap.Int(logFieldExistingCountConstant, len(plan.Existing)),
		zap.Int(logFieldLocalOnlyCountConstant, len(plan.LocalOnly)),
	)
	return plan, nil
}

// prepareFresh removes the picked checkouts and moves them to the clone worklist.
func (service *Service) prepareFresh(plan *Plan, options InstallOptions, recap *Recap) error {
	pickedExisting := plan.PickedExisting()
	if len(pickedExisting) == 0 {
		return nil
	}

	service.reporter.Printf(freshHeaderTemplateConstant, len(pickedExisting))
	for _, localRepository := range pickedExisting {
		service.reporter.Printf(listItemTemplateConstant, localRepository.Name)
	}
	if confirmError := service.confirm(options.Confirmation, fmt.Sprintf(freshPromptTemplateConstant, len(pickedExisting))); confirmError != nil {
		return confirmError
	}

	var removedNames []string
	for _, localRepository := range pickedExisting {
		if removalError := service.dependencies.FileSystem.RemoveAll(localRepository.Path); removalError != nil {
			service.logger.Warn(
				removalFailedMessageConstant,
				zap.String(logFieldRepositoryConstant, localRepository.Name),
				zap.String(logFieldPathConstant, localRepository.Path),
				zap.Error(removalError),
			)
			recap.Removals = append(recap.Removals, shared.BatchResult{
				RepositoryName: localRepository.Name,
				Action:         shared.RepositoryActionClone,
				Outcome:        shared.BatchOutcomeFailure,
				Reason:         fmt.Sprintf(removalFailedTemplateConstant, localRepository.Path, removalError),
			})
			continue
		}
		removedNames = append(removedNames, localRepository.Name)
		remoteName := localRepository.Name
		if remoteRepository, exists := plan.Resolution.Repository(localRepository.Name); exists {
			remoteName = remoteRepository.Name
		}
		plan.Clone = append(plan.Clone, remoteName)
	}

	plan.Inventory = plan.Inventory.Without(removedNames...)
	remaining := make([]shared.LocalRepository, 0, len(plan.Existing))
	for _, localRepository := range plan.Existing {
		if !plan.Inventory.Contains(localRepository.Name) {
			continue
		}
		remaining = append(remaining, localRepository)
	}
	plan.Existing = remaining
	return nil
}

func (service *Service) clone(executionContext context.Context, plan Plan, options InstallOptions, recap *Recap) error {
	if len(plan.Clone) == 0 {
		service.reporter.Printf(nothingToCloneMessageConstant)
		return nil
	}

	service.reporter.Printf(cloneHeaderTemplateConstant, len(plan.Clone))
	for _, repositoryName := range plan.Clone {
		service.reporter.Printf(listItemTemplateConstant, repositoryName)
	}

	installFollows := !options.SkipInstall
	cloneItems := AssignBranches(WorkItems(plan.Clone, shared.RepositoryActionClone, options.SkipInstall), options.Branch, plan.Resolution.DefaultBranches())
	results, runError := service.batchExecutor.Run(executionContext, cloneItems, executor.Options{
		WorkspacePath:    options.WorkspacePath,
		Branch:           options.Branch,
		Concurrency:      options.Configuration.BatchConcurrency(installFollows),
		CloneURLProvider: cloneURLProvider(plan.Resolution, options.Organization),
	})
	if runError != nil {
		return fmt.Errorf(batchFailedTemplateConstant, shared.RepositoryActionClone, runError)
	}
	recap.Cloned = executor.Summarize(results)
	return nil
}

func (service *Service) update(executionContext context.Context, options Options, installPolicy shared.InstallPolicy, plan Plan, recap *Recap) error {
	defaultBranches := plan.Resolution.DefaultBranches()
	classifications := service.classifier.ClassifyAll(executionContext, plan.Existing, staleness.Options{
		Organization:    options.Organization,
		Branch:          options.Branch,
		Concurrency:     options.Configuration.Concurrency,
		DefaultBranches: defaultBranches,
	})
	recap.Classifications = classifications
	stale, _, attention := staleness.Partition(classifications)

	if len(attention) > 0 {
		service.reporter.Printf(attentionHeaderTemplateConstant, len(attention))
		for _, classification := range attention {
			service.reporter.Printf(attentionItemTemplateConstant, classification.Repository.Name, classification.Reason)
		}
	}

	if len(stale) == 0 {
		service.reporter.Printf(nothingToUpdateMessageConstant)
		return nil
	}

	service.reporter.Printf(staleHeaderTemplateConstant, len(stale))
	staleNames := make([]string, 0, len(stale))
	for _, classification := range stale {
		service.reporter.Printf(staleItemTemplateConstant, classification.Repository.Name, describeLag(classification))
		staleNames = append(staleNames, classification.Repository.Name)
	}

	proceed, askError := service.ask(options.Confirmation, fmt.Sprintf(pullPromptTemplateConstant, len(stale)))
	if askError != nil {
		return askError
	}
	if !proceed {
		recap.PullDeclined = true
		service.reporter.Printf(pullDeclinedMessageConstant)
		return nil
	}

	installFollows, policyError := service.resolveInstallPolicy(installPolicy, options.Confirmation)
	if policyError != nil {
		return policyError
	}

	pullItems := AssignBranches(WorkItems(staleNames, shared.RepositoryActionPull, !installFollows), options.Branch, defaultBranches)
	results, runError := service.batchExecutor.Run(executionContext, pullItems, executor.Options{
		WorkspacePath: options.WorkspacePath,
		Branch:        options.Branch,
		Concurrency:   options.Configuration.BatchConcurrency(installFollows),
	})
	if runError != nil {
		return fmt.Errorf(batchFailedTemplateConstant, shared.RepositoryActionPull, runError)
	}
	recap.Pulled = executor.Summarize(results)
	return nil
}

func (service *Service) resolveInstallPolicy(installPolicy shared.InstallPolicy, confirmation shared.ConfirmationPolicy) (bool, error) {
	switch installPolicy {
	case shared.InstallAlways:
		return true, nil
	case shared.InstallNever:
		return false, nil
	default:
		return service.ask(confirmation, installPromptConstant)
	}
}

// confirm turns a declined prompt into ErrDeclined.
func (service *Service) confirm(confirmation shared.ConfirmationPolicy, prompt string) error {
	accepted, askError := service.ask(confirmation, prompt)
	if askError != nil {
		return askError
	}
	if !accepted {
		return ErrDeclined
	}
	return nil
}

func (service *Service) ask(confirmation shared.ConfirmationPolicy, prompt string) (bool, error) {
	if !confirmation.ShouldPrompt() {
		return true, nil
	}
	if service.dependencies.Prompter == nil {
		return false, ErrPrompterNotConfigured
	}
	accepted, promptError := service.dependencies.Prompter.Confirm(prompt)
	if promptError != nil {
		return false, fmt.Errorf(promptFailedTemplateConstant, promptError)
	}
	return accepted, nil
}

func (service *Service) reportUnresolved(unresolved []resolver.MatchResult) {
	for _, matchResult := range unresolved {
		if matchResult.Kind == resolver.MatchAmbiguous {
			service.reporter.Printf(unresolvedAmbiguousTemplateConstant, matchResult.Requested, strings.Join(matchResult.Candidates, candidateSeparatorConstant))
			continue
		}
		service.reporter.Printf(unresolvedNoMatchTemplateConstant, matchResult.Requested)
	}
}

func (service *Service) release(workspaceLock *WorkspaceLock) {
	if releaseError := workspaceLock.Release(); releaseError != nil {
		service.logger.Warn(lockReleaseFailedMessageConstant, zap.Error(releaseError))
	}
}

func (service *Service) finish(recap Recap) Recap {
	recap.Finished = service.dependencies.Clock.Now()
	recap.Render(service.reporter)
	return recap
}

func cloneURLProvider(resolution resolver.Resolution, organization string) executor.CloneURLProvider {
	return func(repositoryName string) (string, error) {
		if remoteRepository, exists := resolution.Repository(repositoryName); exists && len(remoteRepository.CloneURL) > 0 {
			return remoteRepository.CloneURL, nil
		}
		return gitrepo.OrganizationCloneURL(organization, repositoryName)
	}
}
