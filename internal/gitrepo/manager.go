package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"go.uber.org/zap"

	"github.com/temirov/orgsync/internal/repos/shared"
)

const (
	tokenUsernameConstant           = "x-access-token"
	cloneURLFieldNameConstant       = "clone url"
	targetPathFieldNameConstant     = "target path"
	branchFieldNameConstant         = "branch"
	cloneErrorTemplateConstant      = "clone %s: %w"
	pullErrorTemplateConstant       = "pull %s: %w"
	openErrorTemplateConstant       = "open %s: %w"
	referenceErrorTemplateConstant  = "resolve branch %s in %s: %w"
	commitErrorTemplateConstant     = "read commit %s in %s: %w"
	remoteErrorTemplateConstant     = "read remote %s in %s: %w"
	remoteWithoutURLMessageConstant = "remote has no url"
	repositoryClonedMessageConstant = "repository cloned"
	repositoryPulledMessageConstant = "repository pulled"
	alreadyUpToDateMessageConstant  = "repository already up to date"
	logFieldPathConstant            = "path"
	logFieldBranchConstant          = "branch"
)

// ErrRemoteWithoutURL indicates a configured remote without any URL.
var ErrRemoteWithoutURL = errors.New(remoteWithoutURLMessageConstant)

// ManagerOptions configures repository access.
type ManagerOptions struct {
	Token string
}

// Manager clones, pulls and inspects repositories through go-git.
type Manager struct {
	token  string
	logger *zap.Logger
}

// NewManager constructs a Manager. A token authenticates HTTPS remotes.
func NewManager(options ManagerOptions, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{token: strings.TrimSpace(options.Token), logger: logger}
}

// Clone clones a single branch of cloneURL into targetPath.
func (manager *Manager) Clone(executionContext context.Context, targetPath string, cloneURL string, branch string) error {
	if len(strings.TrimSpace(cloneURL)) == 0 {
		return RemoteURLParseError{Input: cloneURLFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(targetPath)) == 0 {
		return RemoteURLParseError{Input: targetPathFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(branch)) == 0 {
		return RemoteURLParseError{Input: branchFieldNameConstant, Message: requiredValueMessageConstant}
	}

	_, cloneError := git.PlainCloneContext(executionContext, targetPath, false, &git.CloneOptions{
		URL:           cloneURL,
		Auth:          manager.authenticationFor(cloneURL),
		RemoteName:    shared.OriginRemoteNameConstant,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
	})
	if cloneError != nil {
		return fmt.Errorf(cloneErrorTemplateConstant, targetPath, cloneError)
	}
	manager.logger.Debug(repositoryClonedMessageConstant, zap.String(logFieldPathConstant, targetPath), zap.String(logFieldBranchConstant, branch))
	return nil
}

// Pull fast-forwards the checked out branch from the origin branch.
func (manager *Manager) Pull(executionContext context.Context, repositoryPath string, branch string) error {
	repository, openError := git.PlainOpen(repositoryPath)
	if openError != nil {
		return fmt.Errorf(openErrorTemplateConstant, repositoryPath, openError)
	}
	originURL, remoteError := originURL(repository, repositoryPath)
	if remoteError != nil {
		return remoteError
	}
	worktree, worktreeError := repository.Worktree()
	if worktreeError != nil {
		return fmt.Errorf(pullErrorTemplateConstant, repositoryPath, worktreeError)
	}

	pullError := worktree.PullContext(executionContext, &git.PullOptions{
		RemoteName:    shared.OriginRemoteNameConstant,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
		Auth:          manager.authenticationFor(originURL),
	})
	if errors.Is(pullError, git.NoErrAlreadyUpToDate) {
		manager.logger.Debug(alreadyUpToDateMessageConstant, zap.String(logFieldPathConstant, repositoryPath))
		return nil
	}
	if pullError != nil {
		return fmt.Errorf(pullErrorTemplateConstant, repositoryPath, pullError)
	}
	manager.logger.Debug(repositoryPulledMessageConstant, zap.String(logFieldPathConstant, repositoryPath), zap.String(logFieldBranchConstant, branch))
	return nil
}

// LatestLocalCommit returns the commit a local branch points at.
func (manager *Manager) LatestLocalCommit(_ context.Context, repositoryPath string, branch string) (shared.CommitMetadata, error) {
	repository, openError := git.PlainOpen(repositoryPath)
	if openError != nil {
		return shared.CommitMetadata{}, fmt.Errorf(openErrorTemplateConstant, repositoryPath, openError)
	}
	reference, referenceError := repository.Reference(plumbing.NewBranchReferenceName(branch), true)
	if referenceError != nil {
		return shared.CommitMetadata{}, fmt.Errorf(referenceErrorTemplateConstant, branch, repositoryPath, referenceError)
	}
	commit, commitError := repository.CommitObject(reference.Hash())
	if commitError != nil {
		return shared.CommitMetadata{}, fmt.Errorf(commitErrorTemplateConstant, reference.Hash(), repositoryPath, commitError)
	}
	return shared.CommitMetadata{Identifier: commit.Hash.String(), CommitterTime: commit.Committer.When}, nil
}

// OriginRemoteURL returns the first URL of the origin remote of a local repository.
func (manager *Manager) OriginRemoteURL(repositoryPath string) (string, error) {
	repository, openError := git.PlainOpen(repositoryPath)
	if openError != nil {
		return "", fmt.Errorf(openErrorTemplateConstant, repositoryPath, openError)
	}
	return originURL(repository, repositoryPath)
}

func originURL(repository *git.Repository, repositoryPath string) (string, error) {
	remote, remoteError := repository.Remote(shared.OriginRemoteNameConstant)
	if remoteError != nil {
		return "", fmt.Errorf(remoteErrorTemplateConstant, shared.OriginRemoteNameConstant, repositoryPath, remoteError)
	}
	remoteURLs := remote.Config().URLs
	if len(remoteURLs) == 0 {
		return "", fmt.Errorf(remoteErrorTemplateConstant, shared.OriginRemoteNameConstant, repositoryPath, ErrRemoteWithoutURL)
	}
	return remoteURLs[0], nil
}

func (manager *Manager) authenticationFor(remote string) transport.AuthMethod {
	if len(manager.token) == 0 {
		return nil
	}
	parsedRemote, parseError := ParseRemoteURL(remote)
	if parseError != nil || parsedRemote.Protocol != RemoteProtocolHTTPS {
		return nil
	}
	return &githttp.BasicAuth{Username: tokenUsernameConstant, Password: manager.token}
}
