// Package dependencies builds the default collaborators of orgsync commands when callers do not inject their own.
package dependencies

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/orgsync/internal/execshell"
	"github.com/temirov/orgsync/internal/githubapi"
	"github.com/temirov/orgsync/internal/githubauth"
	"github.com/temirov/orgsync/internal/gitrepo"
	"github.com/temirov/orgsync/internal/npm"
	"github.com/temirov/orgsync/internal/repos/filesystem"
	"github.com/temirov/orgsync/internal/repos/prompt"
	"github.com/temirov/orgsync/internal/repos/shared"
	"github.com/temirov/orgsync/internal/ui"
)

const (
	anonymousAccessMessageConstant = "no GitHub token found; using anonymous access"
	tokenResolvedMessageConstant   = "GitHub token resolved"
)

// RegistryConfiguration configures the npm registry client.
type RegistryConfiguration struct {
	BaseURL   string
	Token     string
	CacheSize int
	CacheTTL  time.Duration
}

// ResolveFileSystem returns the provided filesystem or an OS-backed default.
func ResolveFileSystem(existing shared.FileSystem) shared.FileSystem {
	if existing != nil {
		return existing
	}
	return filesystem.OSFileSystem{}
}

// ResolvePrompter returns the provided prompter or one reading answers from input.
func ResolvePrompter(existing shared.ConfirmationPrompter, input io.Reader, output io.Writer) shared.ConfirmationPrompter {
	if existing != nil {
		return existing
	}
	return prompt.NewIOConfirmationPrompter(input, output)
}

// ResolveToken finds the GitHub token in the configuration, the environment map or the process environment.
// Missing credentials are logged and yield an empty token.
func ResolveToken(configuration githubapi.Configuration, environment map[string]string, logger *zap.Logger) string {
	token, found := githubauth.ResolveToken(configuration.Token, environment)
	if !found {
		resolveLogger(logger).Warn(anonymousAccessMessageConstant)
		return ""
	}
	resolveLogger(logger).Debug(tokenResolvedMessageConstant)
	return token
}

// ResolveGitHubClient constructs a REST client authenticated with token when one is available.
func ResolveGitHubClient(executionContext context.Context, configuration githubapi.Configuration, token string, logger *zap.Logger) (*githubapi.Client, error) {
	return githubapi.NewClient(executionContext, configuration.ClientOptions(token), logger)
}

// ResolveGitManager constructs a go-git backed manager authenticating HTTPS remotes with token.
func ResolveGitManager(token string, logger *zap.Logger) *gitrepo.Manager {
	return gitrepo.NewManager(gitrepo.ManagerOptions{Token: token}, logger)
}

// ResolveInstaller returns the provided installer or an npm installer running through the shell executor.
// Command lifecycle events are reported through observer when present.
func ResolveInstaller(existing shared.DependencyInstaller, fileSystem shared.FileSystem, observer execshell.CommandEventObserver, logger *zap.Logger) (shared.DependencyInstaller, error) {
	if existing != nil {
		return existing, nil
	}
	logger = resolveLogger(logger)
	if observer == nil {
		observer = ui.NewConsoleCommandEventLogger(logger)
	}
	shellExecutor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), observer)
	if executorError != nil {
		return nil, executorError
	}
	return npm.NewInstaller(shellExecutor, ResolveFileSystem(fileSystem), logger)
}

// ResolveRegistryClient constructs a cached npm registry client.
func ResolveRegistryClient(configuration RegistryConfiguration, logger *zap.Logger) *npm.RegistryClient {
	return npm.NewRegistryClient(npm.RegistryOptions{
		BaseURL:   configuration.BaseURL,
		Token:     configuration.Token,
		CacheSize: configuration.CacheSize,
		CacheTTL:  configuration.CacheTTL,
	}, logger)
}

func resolveLogger(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
