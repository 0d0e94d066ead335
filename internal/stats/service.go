package stats

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/temirov/orgsync/internal/githubapi"
	"github.com/temirov/orgsync/internal/report"
	"github.com/temirov/orgsync/internal/repos/executor"
	"github.com/temirov/orgsync/internal/repos/shared"
)

const (
	// DefaultConcurrencyConstant bounds concurrent pull request queries.
	DefaultConcurrencyConstant = 8

	listerNotConfiguredMessage       = "stats repository lister not configured"
	statisticsReaderNotConfiguredMsg = "stats reader not configured"
	organizationRequiredMessage      = "stats organization is required"
	listFailedTemplateConstant       = "unable to list repositories of %s: %w"
	repositoryFailedMessageConstant  = "repository statistics unavailable"
	footnoteTemplateConstant         = "%s: %s"
	logFieldRepositoryConstant       = "repository"
	headerRepositoryConstant         = "Repository"
	headerIssuesConstant             = "Issues"
	headerPullRequestsConstant       = "Pull Requests"
)

var (
	// ErrListerNotConfigured indicates the service lacks a repository lister.
	ErrListerNotConfigured = errors.New(listerNotConfiguredMessage)
	// ErrStatisticsReaderNotConfigured indicates the service lacks a statistics reader.
	ErrStatisticsReaderNotConfigured = errors.New(statisticsReaderNotConfiguredMsg)
	// ErrOrganizationRequired indicates an empty organization.
	ErrOrganizationRequired = errors.New(organizationRequiredMessage)
)

// StatisticsReader counts open issues and pull requests of a listed repository.
type StatisticsReader interface {
	RepositoryStatistics(executionContext context.Context, organization string, repository shared.RemoteRepository) (githubapi.RepositoryStatistics, error)
}

// Row holds the counters of one repository.
type Row struct {
	Repository   string `json:"repository" yaml:"repository"`
	Issues       int    `json:"issues" yaml:"issues"`
	PullRequests int    `json:"pull_requests" yaml:"pull_requests"`
}

// RepositoryError records a repository whose counters could not be read.
type RepositoryError struct {
	Repository string `json:"repository" yaml:"repository"`
	Message    string `json:"message" yaml:"message"`
}

// Report lists repositories with open issues or pull requests.
type Report struct {
	Organization string            `json:"organization" yaml:"organization"`
	Rows         []Row             `json:"repositories" yaml:"repositories"`
	Errors       []RepositoryError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Table projects the report into counter rows followed by the errors.
func (statsReport Report) Table() report.Table {
	table := report.Table{
		Headers:    []string{headerRepositoryConstant, headerIssuesConstant, headerPullRequestsConstant},
		Alignments: []report.Alignment{report.AlignLeft, report.AlignRight, report.AlignRight},
	}
	for _, row := range statsReport.Rows {
		table.Rows = append(table.Rows, []string{row.Repository, strconv.Itoa(row.Issues), strconv.Itoa(row.PullRequests)})
	}
	for _, repositoryError := range statsReport.Errors {
		table.Footnotes = append(table.Footnotes, fmt.Sprintf(footnoteTemplateConstant, repositoryError.Repository, repositoryError.Message))
	}
	return table
}

// Options configures a statistics run.
type Options struct {
	Organization string
	Concurrency  int
}

// Service builds organization statistics.
type Service struct {
	lister shared.RemoteRepositoryLister
	reader StatisticsReader
	logger *zap.Logger
}

// NewService constructs a Service.
func NewService(lister shared.RemoteRepositoryLister, reader StatisticsReader, logger *zap.Logger) (*Service, error) {
	if lister == nil {
		return nil, ErrListerNotConfigured
	}
	if reader == nil {
		return nil, ErrStatisticsReaderNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{lister: lister, reader: reader, logger: logger}, nil
}

// Build lists the organization and counts issues and pull requests per repository. Rows are sorted by issues
// then pull requests, both descending; repositories with neither are omitted.
func (service *Service) Build(executionContext context.Context, options Options) (Report, error) {
	if len(options.Organization) == 0 {
		return Report{}, ErrOrganizationRequired
	}
	concurrency := options.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrencyConstant
	}

	repositories, listError := service.lister.ListOrganizationRepositories(executionContext, options.Organization)
	if listError != nil {
		return Report{}, fmt.Errorf(listFailedTemplateConstant, options.Organization, listError)
	}

	statistics := make([]githubapi.RepositoryStatistics, len(repositories))
	readErrors := executor.ForEach(executionContext, executor.NewPool(concurrency), repositories, func(itemContext context.Context, itemIndex int, repository shared.RemoteRepository) error {
		repositoryStatistics, readError := service.reader.RepositoryStatistics(itemContext, options.Organization, repository)
		statistics[itemIndex] = repositoryStatistics
		return readError
	})

	statsReport := Report{Organization: options.Organization, Rows: []Row{}}
	for repositoryIndex, repository := range repositories {
		if readError := readErrors[repositoryIndex]; readError != nil {
			service.logger.Warn(repositoryFailedMessageConstant, zap.String(logFieldRepositoryConstant, repository.Name), zap.Error(readError))
			statsReport.Errors = append(statsReport.Errors, RepositoryError{Repository: repository.Name, Message: readError.Error()})
			continue
		}
		repositoryStatistics := statistics[repositoryIndex]
		if repositoryStatistics.OpenIssues == 0 && repositoryStatistics.OpenPullRequests == 0 {
			continue
		}
		statsReport.Rows = append(statsReport.Rows, Row{
			Repository:   repositoryStatistics.FullName,
			Issues:       repositoryStatistics.OpenIssues,
			PullRequests: repositoryStatistics.OpenPullRequests,
		})
	}

	sort.SliceStable(statsReport.Rows, func(leftIndex, rightIndex int) bool {
		left := statsReport.Rows[leftIndex]
		right := statsReport.Rows[rightIndex]
		if left.Issues != right.Issues {
			return left.Issues > right.Issues
		}
		if left.PullRequests != right.PullRequests {
			return left.PullRequests > right.PullRequests
		}
		return left.Repository < right.Repository
	})
	return statsReport, nil
}
