package shared

import (
	"context"
	"io/fs"
	"strings"
	"time"

	"github.com/temirov/orgsync/internal/manifest"
)

const (
	// OriginRemoteNameConstant identifies the default upstream remote used for GitHub repositories.
	OriginRemoteNameConstant = "origin"
	// DefaultPrimaryBranchConstant names the branch compared and pulled when none is configured.
	DefaultPrimaryBranchConstant = "master"
)

// RepositoryAction enumerates the operations a work item can request.
type RepositoryAction string

// Supported repository actions.
const (
	RepositoryActionClone RepositoryAction = RepositoryAction("clone")
	RepositoryActionPull  RepositoryAction = RepositoryAction("pull")
)

// BatchOutcome enumerates terminal outcomes of a work item.
type BatchOutcome string

// Supported batch outcomes.
const (
	BatchOutcomeSuccess BatchOutcome = BatchOutcome("success")
	BatchOutcomeFailure BatchOutcome = BatchOutcome("failure")
)

// NormalizeRepositoryName returns the canonical lower-case form used for comparisons.
func NormalizeRepositoryName(repositoryName string) string {
	return strings.ToLower(strings.TrimSpace(repositoryName))
}

// CommitMetadata identifies the latest commit of a branch.
type CommitMetadata struct {
	Identifier    string
	CommitterTime time.Time
}

// ResolveBranch returns the configured branch, then the repository default branch, then DefaultPrimaryBranchConstant.
func ResolveBranch(configuredBranch string, repositoryBranch string) string {
	if trimmedBranch := strings.TrimSpace(configuredBranch); len(trimmedBranch) > 0 {
		return trimmedBranch
	}
	if trimmedBranch := strings.TrimSpace(repositoryBranch); len(trimmedBranch) > 0 {
		return trimmedBranch
	}
	return DefaultPrimaryBranchConstant
}

// RemoteRepository is an immutable snapshot of an organization repository.
type RemoteRepository struct {
	Name          string
	Archived      bool
	CloneURL      string
	DefaultBranch string
	OpenIssues    int
}

// LocalRepository describes a workspace directory holding a checkout.
type LocalRepository struct {
	Name        string
	Path        string
	HasManifest bool
	Manifest    manifest.Manifest
}

// WorkItem is a single unit of clone or pull work consumed once by the batch executor.
type WorkItem struct {
	RepositoryName string
	Action         RepositoryAction
	SkipInstall    bool
	// Branch overrides the batch branch when set.
	Branch string
}

// BatchResult records the terminal outcome of a work item.
type BatchResult struct {
	RepositoryName string
	Action         RepositoryAction
	Outcome        BatchOutcome
	Reason         string
}

// Succeeded reports whether the work item completed successfully.
func (result BatchResult) Succeeded() bool {
	return result.Outcome == BatchOutcomeSuccess
}

// Clock abstracts time acquisition for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time source.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FileSystem exposes filesystem operations required by repository services.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	ReadDir(path string) ([]fs.DirEntry, error)
	ReadFile(path string) ([]byte, error)
	MkdirAll(path string, permissions fs.FileMode) error
	RemoveAll(path string) error
	Abs(path string) (string, error)
}

// ConfirmationPrompter collects user confirmations prior to bulk or destructive actions.
type ConfirmationPrompter interface {
	Confirm(prompt string) (bool, error)
}

// RemoteRepositoryLister enumerates the repositories of an organization.
type RemoteRepositoryLister interface {
	ListOrganizationRepositories(executionContext context.Context, organization string) ([]RemoteRepository, error)
}

// RemoteCommitReader resolves the latest commit of a remote branch.
type RemoteCommitReader interface {
	LatestCommit(executionContext context.Context, organization string, repositoryName string, branch string) (CommitMetadata, error)
}

// RemoteManifestFetcher downloads a repository manifest from the remote primary branch.
type RemoteManifestFetcher interface {
	FetchManifest(executionContext context.Context, organization string, repositoryName string, branch string, fileName string) manifest.Lookup
}

// LocalCommitReader resolves the latest commit of a branch in a local checkout.
type LocalCommitReader interface {
	LatestLocalCommit(executionContext context.Context, repositoryPath string, branch string) (CommitMetadata, error)
}

// RepositoryCloner clones a remote repository into a target directory.
type RepositoryCloner interface {
	Clone(executionContext context.Context, targetPath string, cloneURL string, branch string) error
}

// RepositoryPuller pulls the primary branch of a local checkout.
type RepositoryPuller interface {
	Pull(executionContext context.Context, repositoryPath string, branch string) error
}

// DependencyInstaller runs the package manager inside a checkout.
type DependencyInstaller interface {
	Install(executionContext context.Context, repositoryPath string) error
}
