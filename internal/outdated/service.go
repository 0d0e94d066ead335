package outdated

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/temirov/orgsync/internal/npm"
	"github.com/temirov/orgsync/internal/report"
	"github.com/temirov/orgsync/internal/repos/executor"
	"github.com/temirov/orgsync/internal/repos/shared"
)

const (
	// DefaultConcurrencyConstant bounds concurrent registry lookups.
	DefaultConcurrencyConstant = 8

	fileSystemNotConfiguredMessage    = "outdated file system not configured"
	versionSourceNotConfiguredMessage = "outdated version source not configured"
	latestVersionTemplateConstant     = "unable to resolve latest version of %s: %w"
	repositoryFailedMessageConstant   = "outdated dependency check failed"
	repositoryCheckedMessageConstant  = "outdated dependency check completed"
	dependencySkippedMessageConstant  = "dependency version not comparable"
	footnoteTemplateConstant          = "%s: %s"
	logFieldRepositoryConstant        = "repository"
	logFieldDependencyConstant        = "dependency"
	logFieldMajorConstant             = "major"
	logFieldMinorConstant             = "minor"
	logFieldPatchConstant             = "patch"
	headerRepositoryConstant          = "Repository"
	headerMajorConstant               = "Major"
	headerMinorConstant               = "Minor"
	headerPatchConstant               = "Patch"
)

var (
	// ErrFileSystemNotConfigured indicates the service lacks a file system.
	ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessage)
	// ErrVersionSourceNotConfigured indicates the service lacks a registry client.
	ErrVersionSourceNotConfigured = errors.New(versionSourceNotConfiguredMessage)
)

// VersionSource resolves the latest published version of a package.
type VersionSource interface {
	LatestVersion(executionContext context.Context, packageName string) (string, error)
}

// Dependency describes one dependency with a newer published version.
type Dependency struct {
	Name     string `json:"name" yaml:"name"`
	Declared string `json:"declared" yaml:"declared"`
	Current  string `json:"current" yaml:"current"`
	Latest   string `json:"latest" yaml:"latest"`
	Update   string `json:"update" yaml:"update"`
}

// RepositoryReport counts the outdated dependencies of one checkout.
type RepositoryReport struct {
	Name         string       `json:"name" yaml:"name"`
	Major        int          `json:"major" yaml:"major"`
	Minor        int          `json:"minor" yaml:"minor"`
	Patch        int          `json:"patch" yaml:"patch"`
	Dependencies []Dependency `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// Total returns the number of outdated dependencies.
func (repositoryReport RepositoryReport) Total() int {
	return repositoryReport.Major + repositoryReport.Minor + repositoryReport.Patch
}

// RepositoryError records a checkout that could not be inspected.
type RepositoryError struct {
	Repository string `json:"repository" yaml:"repository"`
	Message    string `json:"message" yaml:"message"`
}

// Report lists checkouts with outdated dependencies, most major updates first.
type Report struct {
	Repositories []RepositoryReport `json:"repositories" yaml:"repositories"`
	Errors       []RepositoryError  `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Table projects the report into rows of update counts followed by the errors.
func (outdatedReport Report) Table() report.Table {
	table := report.Table{
		Headers:    []string{headerRepositoryConstant, headerMajorConstant, headerMinorConstant, headerPatchConstant},
		Alignments: []report.Alignment{report.AlignLeft, report.AlignRight, report.AlignRight, report.AlignRight},
	}
	for _, repositoryReport := range outdatedReport.Repositories {
		table.Rows = append(table.Rows, []string{
			repositoryReport.Name,
			strconv.Itoa(repositoryReport.Major),
			strconv.Itoa(repositoryReport.Minor),
			strconv.Itoa(repositoryReport.Patch),
		})
	}
	for _, repositoryError := range outdatedReport.Errors {
		table.Footnotes = append(table.Footnotes, fmt.Sprintf(footnoteTemplateConstant, repositoryError.Repository, repositoryError.Message))
	}
	return table
}

// Options configures a report run.
type Options struct {
	Concurrency int
}

// Service builds outdated dependency reports.
type Service struct {
	fileSystem    shared.FileSystem
	versionSource VersionSource
	logger        *zap.Logger
}

// NewService constructs a Service.
func NewService(fileSystem shared.FileSystem, versionSource VersionSource, logger *zap.Logger) (*Service, error) {
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if versionSource == nil {
		return nil, ErrVersionSourceNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{fileSystem: fileSystem, versionSource: versionSource, logger: logger}, nil
}

type repositoryOutcome struct {
	report RepositoryReport
	err    error
}

// Build inspects every checkout that carries a manifest. Checkouts without updates are omitted and
// checkouts that fail are listed in Errors.
func (service *Service) Build(executionContext context.Context, repositories []shared.LocalRepository, options Options) Report {
	concurrency := options.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrencyConstant
	}

	candidates := make([]shared.LocalRepository, 0, len(repositories))
	for _, repository := range repositories {
		if repository.HasManifest {
			candidates = append(candidates, repository)
		}
	}

	repositoryPool := executor.NewPool(concurrency)
	lookupPool := executor.NewPool(concurrency)
	outcomes := make([]repositoryOutcome, len(candidates))
	slotErrors := executor.ForEach(executionContext, repositoryPool, candidates, func(itemContext context.Context, itemIndex int, repository shared.LocalRepository) error {
		repositoryReport, inspectError := service.inspect(itemContext, lookupPool, repository)
		outcomes[itemIndex] = repositoryOutcome{report: repositoryReport, err: inspectError}
		return nil
	})

	outdatedReport := Report{Repositories: []RepositoryReport{}}
	for candidateIndex, candidate := range candidates {
		outcome := outcomes[candidateIndex]
		if slotErrors[candidateIndex] != nil {
			outcome.err = slotErrors[candidateIndex]
		}
		if outcome.err != nil {
			service.logger.Warn(repositoryFailedMessageConstant, zap.String(logFieldRepositoryConstant, candidate.Name), zap.Error(outcome.err))
			outdatedReport.Errors = append(outdatedReport.Errors, RepositoryError{Repository: candidate.Name, Message: outcome.err.Error()})
			continue
		}
		service.logger.Debug(
			repositoryCheckedMessageConstant,
			zap.String(logFieldRepositoryConstant, candidate.Name),
			zap.Int(logFieldMajorConstant, outcome.report.Major),
			zap.Int(logFieldMinorConstant, outcome.report.Minor),
			zap.Int(logFieldPatchConstant, outcome.report.Patch),
		)
		if outcome.report.Total() == 0 {
			continue
		}
		outdatedReport.Repositories = append(outdatedReport.Repositories, outcome.report)
	}

	sort.SliceStable(outdatedReport.Repositories, func(leftIndex, rightIndex int) bool {
		left := outdatedReport.Repositories[leftIndex]
		right := outdatedReport.Repositories[rightIndex]
		if left.Major != right.Major {
			return left.Major > right.Major
		}
		if left.Minor != right.Minor {
			return left.Minor > right.Minor
		}
		return left.Name < right.Name
	})
	return outdatedReport
}

func (service *Service) inspect(executionContext context.Context, lookupPool *executor.Pool, repository shared.LocalRepository) (RepositoryReport, error) {
	repositoryReport := RepositoryReport{Name: repository.Name}
	packageDocument, readError := npm.ReadPackageDocument(service.fileSystem, repository.Path)
	if readError != nil {
		return repositoryReport, readError
	}

	declared := packageDocument.DeclaredDependencies()
	dependencyNames := make([]string, 0, len(declared))
	for dependencyName := range declared {
		dependencyNames = append(dependencyNames, dependencyName)
	}
	sort.Strings(dependencyNames)

	dependencies := make([]Dependency, len(dependencyNames))
	lookupErrors := executor.ForEach(executionContext, lookupPool, dependencyNames, func(itemContext context.Context, itemIndex int, dependencyName string) error {
		dependency, lookupError := service.compare(itemContext, repository, dependencyName, declared[dependencyName])
		dependencies[itemIndex] = dependency
		return lookupError
	})
	if joinedError := errors.Join(lookupErrors...); joinedError != nil {
		return repositoryReport, joinedError
	}

	for _, dependency := range dependencies {
		switch dependency.Update {
		case npm.UpdateMajor.String():
			repositoryReport.Major++
		case npm.UpdateMinor.String():
			repositoryReport.Minor++
		case npm.UpdatePatch.String():
			repositoryReport.Patch++
		default:
			continue
		}
		repositoryReport.Dependencies = append(repositoryReport.Dependencies, dependency)
	}
	return repositoryReport, nil
}

// compare resolves the installed version from node_modules, falling back to the declared range.
func (service *Service) compare(executionContext context.Context, repository shared.LocalRepository, dependencyName string, declaredRange string) (Dependency, error) {
	dependency := Dependency{Name: dependencyName, Declared: declaredRange, Update: npm.UpdateNone.String()}

	currentVersion, installedError := npm.InstalledVersion(service.fileSystem, repository.Path, dependencyName)
	if installedError != nil || len(npm.VersionFromRange(currentVersion)) == 0 {
		currentVersion = npm.VersionFromRange(declaredRange)
	}
	if len(currentVersion) == 0 {
		service.logger.Debug(
			dependencySkippedMessageConstant,
			zap.String(logFieldRepositoryConstant, repository.Name),
			zap.String(logFieldDependencyConstant, dependencyName),
		)
		return dependency, nil
	}
	dependency.Current = currentVersion

	latestVersion, latestError := service.versionSource.LatestVersion(executionContext, dependencyName)
	if latestError != nil {
		return dependency, fmt.Errorf(latestVersionTemplateConstant, dependencyName, latestError)
	}
	dependency.Latest = latestVersion
	dependency.Update = npm.ClassifyUpdate(currentVersion, latestVersion).String()
	return dependency, nil
}
