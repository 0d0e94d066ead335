package policy

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/temirov/orgsync/internal/npm"
	"github.com/temirov/orgsync/internal/report"
	"github.com/temirov/orgsync/internal/repos/shared"
)

const (
	fileSystemNotConfiguredMessage   = "policy file system not configured"
	ruleFailedTemplateConstant       = "rule %s: %w"
	footnoteTemplateConstant         = "%s: %s"
	repositoryFailedMessageConstant  = "policy evaluation failed"
	repositoryEvaluatedMessage       = "policy evaluation completed"
	repositorySkippedMessageConstant = "policy evaluation skipped for degraded project"
	logFieldRepositoryConstant       = "repository"
	logFieldCriticalConstant         = "crit"
	logFieldWarningConstant          = "warn"
	headerRepositoryConstant         = "Repository"
	headerCriticalConstant           = "Crit"
	headerWarningConstant            = "Warn"
)

// ErrFileSystemNotConfigured indicates the evaluator lacks a file system.
var ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessage)

// Finding is one violated rule.
type Finding struct {
	Rule     string   `json:"rule" yaml:"rule"`
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
}

// RepositoryReport counts the findings of one checkout.
type RepositoryReport struct {
	Name     string    `json:"name" yaml:"name"`
	Critical int       `json:"crit" yaml:"crit"`
	Warning  int       `json:"warn" yaml:"warn"`
	Findings []Finding `json:"findings,omitempty" yaml:"findings,omitempty"`
}

// RepositoryError records a checkout that could not be evaluated.
type RepositoryError struct {
	Repository string `json:"repository" yaml:"repository"`
	Message    string `json:"message" yaml:"message"`
}

// Report lists checkouts ordered by critical then warning findings.
type Report struct {
	Repositories []RepositoryReport `json:"repositories" yaml:"repositories"`
	Errors       []RepositoryError  `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Table projects the report into finding counts followed by the errors.
func (policyReport Report) Table() report.Table {
	table := report.Table{
		Headers:    []string{headerRepositoryConstant, headerCriticalConstant, headerWarningConstant},
		Alignments: []report.Alignment{report.AlignLeft, report.AlignRight, report.AlignRight},
	}
	for _, repositoryReport := range policyReport.Repositories {
		table.Rows = append(table.Rows, []string{
			repositoryReport.Name,
			strconv.Itoa(repositoryReport.Critical),
			strconv.Itoa(repositoryReport.Warning),
		})
	}
	for _, repositoryError := range policyReport.Errors {
		table.Footnotes = append(table.Footnotes, fmt.Sprintf(footnoteTemplateConstant, repositoryError.Repository, repositoryError.Message))
	}
	return table
}

// Options configures an evaluation.
type Options struct {
	// Minimum omits checkouts whose combined finding count is lower.
	Minimum int
}

// Evaluator applies rules to workspace checkouts.
type Evaluator struct {
	fileSystem shared.FileSystem
	rules      []Rule
	logger     *zap.Logger
}

// NewEvaluator constructs an Evaluator. An empty rule list selects DefaultRules.
func NewEvaluator(fileSystem shared.FileSystem, rules []Rule, logger *zap.Logger) (*Evaluator, error) {
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{fileSystem: fileSystem, rules: rules, logger: logger}, nil
}

// Build evaluates every checkout with a manifest that is not typed Degraded.
func (evaluator *Evaluator) Build(repositories []shared.LocalRepository, options Options) Report {
	policyReport := Report{Repositories: []RepositoryReport{}}
	for _, repository := range repositories {
		if !repository.HasManifest {
			continue
		}
		if repository.Manifest.IsDegraded() {
			evaluator.logger.Debug(repositorySkippedMessageConstant, zap.String(logFieldRepositoryConstant, repository.Name))
			continue
		}

		repositoryReport, evaluationError := evaluator.Evaluate(repository)
		if evaluationError != nil {
			evaluator.logger.Warn(repositoryFailedMessageConstant, zap.String(logFieldRepositoryConstant, repository.Name), zap.Error(evaluationError))
			policyReport.Errors = append(policyReport.Errors, RepositoryError{Repository: repository.Name, Message: evaluationError.Error()})
			continue
		}
		evaluator.logger.Debug(
			repositoryEvaluatedMessage,
			zap.String(logFieldRepositoryConstant, repository.Name),
			zap.Int(logFieldCriticalConstant, repositoryReport.Critical),
			zap.Int(logFieldWarningConstant, repositoryReport.Warning),
		)
		if repositoryReport.Critical+repositoryReport.Warning < options.Minimum {
			continue
		}
		policyReport.Repositories = append(policyReport.Repositories, repositoryReport)
	}

	sort.SliceStable(policyReport.Repositories, func(leftIndex, rightIndex int) bool {
		left := policyReport.Repositories[leftIndex]
		right := policyReport.Repositories[rightIndex]
		if left.Critical != right.Critical {
			return left.Critical > right.Critical
		}
		if left.Warning != right.Warning {
			return left.Warning > right.Warning
		}
		return left.Name < right.Name
	})
	return policyReport
}

// Evaluate applies every rule to one checkout.
func (evaluator *Evaluator) Evaluate(repository shared.LocalRepository) (RepositoryReport, error) {
	subject := Subject{Repository: repository, FileSystem: evaluator.fileSystem}
	packageDocument, readError := npm.ReadPackageDocument(evaluator.fileSystem, repository.Path)
	switch {
	case readError == nil:
		subject.Package = packageDocument
		subject.HasPackage = true
	case !errors.Is(readError, fs.ErrNotExist):
		return RepositoryReport{}, readError
	}

	repositoryReport := RepositoryReport{Name: repository.Name}
	for _, rule := range evaluator.rules {
		violated, ruleError := rule.Violated(subject)
		if ruleError != nil {
			return RepositoryReport{}, fmt.Errorf(ruleFailedTemplateConstant, rule.Identifier, ruleError)
		}
		if !violated {
			continue
		}
		repositoryReport.Findings = append(repositoryReport.Findings, Finding{Rule: rule.Identifier, Severity: rule.Severity, Message: rule.Message})
		if rule.Severity == SeverityCritical {
			repositoryReport.Critical++
		} else {
			repositoryReport.Warning++
		}
	}
	return repositoryReport, nil
}
