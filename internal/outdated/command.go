package outdated

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/orgsync/internal/manifest"
	"github.com/temirov/orgsync/internal/report"
	"github.com/temirov/orgsync/internal/repos/dependencies"
	"github.com/temirov/orgsync/internal/repos/inventory"
	"github.com/temirov/orgsync/internal/repos/shared"
	"github.com/temirov/orgsync/internal/utils/flags"
)

const (
	commandUseConstant              = "outdated"
	commandShortDescriptionConstant = "Report outdated npm dependencies across the workspace"
	commandLongDescriptionConstant  = "outdated compares the installed version of every dependency declared by workspace checkouts with the latest version published on the npm registry and counts major, minor and patch updates."
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the configuration of the outdated command.
type ConfigurationProvider func() CommandConfiguration

// CommandConfiguration locates the workspace and the registry.
type CommandConfiguration struct {
	Workspace    string
	ManifestFile string
	Outdated     Configuration
}

// CommandBuilder assembles the outdated command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	FileSystem            shared.FileSystem
	VersionSource         VersionSource
}

// Build constructs the outdated command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	flags.BindFormat(command, string(report.FormatTable), report.FormatNames(report.AllFormats))
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	explicitFormat, formatError := flags.Format(command)
	if formatError != nil {
		return formatError
	}
	if _, parseError := report.DetectFormat(explicitFormat, command.OutOrStdout()); parseError != nil {
		return parseError
	}

	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()
	fileSystem := dependencies.ResolveFileSystem(builder.FileSystem)

	workspaceInventory, scanError := inventory.ScanWorkspace(fileSystem, configuration.Workspace, configuration.ManifestFile, logger)
	if scanError != nil {
		return scanError
	}

	versionSource := builder.VersionSource
	if versionSource == nil {
		versionSource = dependencies.ResolveRegistryClient(dependencies.RegistryConfiguration{
			BaseURL:   configuration.Outdated.Registry,
			Token:     configuration.Outdated.Token,
			CacheSize: configuration.Outdated.CacheSize,
			CacheTTL:  configuration.Outdated.CacheTTL,
		}, logger)
	}

	service, serviceError := NewService(fileSystem, versionSource, logger)
	if serviceError != nil {
		return serviceError
	}
	outdatedReport := service.Build(command.Context(), workspaceInventory.Repositories(), Options{Concurrency: configuration.Outdated.Concurrency})
	return report.Emit(command.OutOrStdout(), explicitFormat, outdatedReport)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	configuration := CommandConfiguration{Workspace: ".", ManifestFile: manifest.DefaultFileNameConstant, Outdated: DefaultConfiguration()}
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	if len(configuration.ManifestFile) == 0 {
		configuration.ManifestFile = manifest.DefaultFileNameConstant
	}
	configuration.Outdated = configuration.Outdated.Sanitize()
	return configuration
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
