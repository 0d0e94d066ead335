package staleness

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/orgsync/internal/repos/executor"
	"github.com/temirov/orgsync/internal/repos/shared"
)

const (
	// DefaultConcurrencyConstant bounds concurrent metadata lookups.
	DefaultConcurrencyConstant = 8

	remoteReaderNotConfiguredMessage = "remote commit reader not configured"
	localReaderNotConfiguredMessage  = "local commit reader not configured"
	remoteCommitErrorTemplate        = "unable to read remote commit: %v"
	localCommitErrorTemplate         = "unable to read local commit: %v"
	poolErrorTemplate                = "classification interrupted: %v"
	statusUpToDateLabel              = "up to date"
	statusStaleLabel                 = "stale"
	statusNeedsAttentionLabel        = "needs attention"
	reasonIdenticalCommitConstant    = "local and remote point at the same commit"
	reasonLocalAheadConstant         = "local commit is newer than remote"
	reasonRemoteAheadConstant        = "remote has newer commits"
	classificationMessageConstant    = "repository classified"
	logFieldRepositoryConstant       = "repository"
	logFieldStatusConstant           = "status"
	logFieldReasonConstant           = "reason"
)

var (
	// ErrRemoteReaderNotConfigured indicates the classifier lacks a remote commit reader.
	ErrRemoteReaderNotConfigured = errors.New(remoteReaderNotConfiguredMessage)
	// ErrLocalReaderNotConfigured indicates the classifier lacks a local commit reader.
	ErrLocalReaderNotConfigured = errors.New(localReaderNotConfiguredMessage)
)

// Status is the staleness verdict for a repository.
type Status int

// Supported statuses.
const (
	StatusUpToDate Status = iota
	StatusStale
	StatusNeedsAttention
)

// String returns a human readable label.
func (status Status) String() string {
	switch status {
	case StatusStale:
		return statusStaleLabel
	case StatusNeedsAttention:
		return statusNeedsAttentionLabel
	default:
		return statusUpToDateLabel
	}
}

// Classification is the verdict for one local repository.
type Classification struct {
	Repository shared.LocalRepository
	Status     Status
	Reason     string
	Local      shared.CommitMetadata
	Remote     shared.CommitMetadata
}

// NeedsPull reports whether the repository should be pulled.
func (classification Classification) NeedsPull() bool {
	return classification.Status == StatusStale
}

// Compare applies the staleness rules to a pair of commits. Committer times are compared at second
// precision.
func Compare(local shared.CommitMetadata, remote shared.CommitMetadata) (Status, string) {
	if len(local.Identifier) > 0 && local.Identifier == remote.Identifier {
		return StatusUpToDate, reasonIdenticalCommitConstant
	}
	if local.CommitterTime.Unix() > remote.CommitterTime.Unix() {
		return StatusUpToDate, reasonLocalAheadConstant
	}
	return StatusStale, reasonRemoteAheadConstant
}

// Options configures a classification run.
type Options struct {
	Organization string
	Branch       string
	Concurrency  int
	// DefaultBranches holds remote default branches by lower-cased name; consulted when Branch is empty.
	DefaultBranches map[string]string
}

// Classifier compares local checkouts with their remote primary branch.
type Classifier struct {
	remoteReader shared.RemoteCommitReader
	localReader  shared.LocalCommitReader
	logger       *zap.Logger
}

// NewClassifier constructs a Classifier.
func NewClassifier(remoteReader shared.RemoteCommitReader, localReader shared.LocalCommitReader, logger *zap.Logger) (*Classifier, error) {
	if remoteReader == nil {
		return nil, ErrRemoteReaderNotConfigured
	}
	if localReader == nil {
		return nil, ErrLocalReaderNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{remoteReader: remoteReader, localReader: localReader, logger: logger}, nil
}

// Classify returns the verdict for a single repository. Metadata errors yield StatusNeedsAttention.
func (classifier *Classifier) Classify(executionContext context.Context, repository shared.LocalRepository, options Options) Classification {
	branch := shared.ResolveBranch(options.Branch, options.DefaultBranches[shared.NormalizeRepositoryName(repository.Name)])
	classification := Classification{Repository: repository}

	remoteCommit, remoteError := classifier.remoteReader.LatestCommit(executionContext, options.Organization, repository.Name, branch)
	if remoteError != nil {
		return classifier.record(needsAttention(classification, fmt.Sprintf(remoteCommitErrorTemplate, remoteError)))
	}
	classification.Remote = remoteCommit

	localCommit, localError := classifier.localReader.LatestLocalCommit(executionContext, repository.Path, branch)
	if localError != nil {
		return classifier.record(needsAttention(classification, fmt.Sprintf(localCommitErrorTemplate, localError)))
	}
	classification.Local = localCommit

	classification.Status, classification.Reason = Compare(localCommit, remoteCommit)
	return classifier.record(classification)
}

// ClassifyAll classifies every repository with bounded concurrency and returns verdicts in input order.
func (classifier *Classifier) ClassifyAll(executionContext context.Context, repositories []shared.LocalRepository, options Options) []Classification {
	concurrency := options.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrencyConstant
	}

	classifications := make([]Classification, len(repositories))
	poolErrors := executor.ForEach(executionContext, executor.NewPool(concurrency), repositories, func(itemContext context.Context, itemIndex int, repository shared.LocalRepository) error {
		classifications[itemIndex] = classifier.Classify(itemContext, repository, options)
		return nil
	})
	for itemIndex, poolError := range poolErrors {
		if poolError != nil {
			classifications[itemIndex] = needsAttention(Classification{Repository: repositories[itemIndex]}, fmt.Sprintf(poolErrorTemplate, poolError))
		}
	}
	return classifications
}

func (classifier *Classifier) record(classification Classification) Classification {
	classifier.logger.Debug(
		classificationMessageConstant,
		zap.String(logFieldRepositoryConstant, classification.Repository.Name),
		zap.String(logFieldStatusConstant, classification.Status.String()),
		zap.String(logFieldReasonConstant, classification.Reason),
	)
	return classification
}

func needsAttention(classification Classification, reason string) Classification {
	classification.Status = StatusNeedsAttention
	classification.Reason = reason
	return classification
}

// Partition splits classifications into stale, up to date and needs attention groups, preserving order.
func Partition(classifications []Classification) (stale []Classification, upToDate []Classification, attention []Classification) {
	for _, classification := range classifications {
		switch classification.Status {
		case StatusStale:
			stale = append(stale, classification)
		case StatusNeedsAttention:
			attention = append(attention, classification)
		default:
			upToDate = append(upToDate, classification)
		}
	}
	return stale, upToDate, attention
}
