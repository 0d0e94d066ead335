package npm

import (
	"context"
	"errors"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/orgsync/internal/execshell"
	"github.com/temirov/orgsync/internal/repos/shared"
)

const (
	executorNotConfiguredMessage    = "npm executor not configured"
	installModeDeterministicLabel   = "deterministic"
	installModeResolveLabel         = "resolve"
	cleanInstallSubcommandConstant  = "ci"
	installSubcommandConstant       = "install"
	nothingToInstallMessageConstant = "no package.json; nothing to install"
	installingMessageConstant       = "installing dependencies"
	logFieldRepositoryPathConstant  = "path"
	logFieldInstallModeConstant     = "mode"
)

// ErrExecutorNotConfigured indicates the installer was constructed without an npm executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessage)

// InstallMode selects how npm installs dependencies.
type InstallMode int

// Supported install modes.
const (
	InstallModeResolve InstallMode = iota
	InstallModeDeterministic
)

// String returns a human readable label.
func (mode InstallMode) String() string {
	if mode == InstallModeDeterministic {
		return installModeDeterministicLabel
	}
	return installModeResolveLabel
}

// Subcommand returns the npm subcommand implementing the mode.
func (mode InstallMode) Subcommand() string {
	if mode == InstallModeDeterministic {
		return cleanInstallSubcommandConstant
	}
	return installSubcommandConstant
}

// CommandExecutor runs npm.
type CommandExecutor interface {
	ExecuteNpm(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Installer runs npm inside a checkout.
type Installer struct {
	executor   CommandExecutor
	fileSystem shared.FileSystem
	logger     *zap.Logger
}

// NewInstaller constructs an Installer.
func NewInstaller(executor CommandExecutor, fileSystem shared.FileSystem, logger *zap.Logger) (*Installer, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Installer{executor: executor, fileSystem: fileSystem, logger: logger}, nil
}

// DetectInstallMode reports whether the checkout has a package.json and which mode applies.
func (installer *Installer) DetectInstallMode(repositoryPath string) (InstallMode, bool, error) {
	hasPackage, packageError := fileExists(installer.fileSystem, filepath.Join(repositoryPath, PackageFileNameConstant))
	if packageError != nil || !hasPackage {
		return InstallModeResolve, false, packageError
	}
	hasLock, lockError := fileExists(installer.fileSystem, filepath.Join(repositoryPath, LockFileNameConstant))
	if lockError != nil {
		return InstallModeResolve, true, lockError
	}
	if hasLock {
		return InstallModeDeterministic, true, nil
	}
	return InstallModeResolve, true, nil
}

// Install runs npm ci when a lock file exists and npm install otherwise. A checkout without
// package.json has nothing to install.
func (installer *Installer) Install(executionContext context.Context, repositoryPath string) error {
	installMode, hasPackage, detectError := installer.DetectInstallMode(repositoryPath)
	if detectError != nil {
		return detectError
	}
	if !hasPackage {
		installer.logger.Debug(nothingToInstallMessageConstant, zap.String(logFieldRepositoryPathConstant, repositoryPath))
		return nil
	}

	installer.logger.Debug(
		installingMessageConstant,
		zap.String(logFieldRepositoryPathConstant, repositoryPath),
		zap.String(logFieldInstallModeConstant, installMode.String()),
	)
	_, executionError := installer.executor.ExecuteNpm(executionContext, execshell.CommandDetails{
		Arguments:        []string{installMode.Subcommand()},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}
