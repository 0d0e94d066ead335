package policy

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
	commandUseConstant              = "policy"
	commandShortDescriptionConstant = "Check workspace projects against the project structure policy"
	commandLongDescriptionConstant  = "policy evaluates every managed checkout against the project structure rules and counts critical and warning findings. Projects typed Degraded are skipped."
	minimumFlagNameConstant         = "minimum"
	minimumFlagUsageConstant        = "Hide projects with fewer findings than this"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the configuration of the policy command.
type ConfigurationProvider func() CommandConfiguration

// CommandConfiguration locates the workspace and carries the report settings.
type CommandConfiguration struct {
	Workspace    string
	ManifestFile string
	Policy       Configuration
}

// CommandBuilder assembles the policy command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	FileSystem            shared.FileSystem
	Rules                 []Rule
}

// Build constructs the policy command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	command.Flags().Int(minimumFlagNameConstant, 0, minimumFlagUsageConstant)
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

	configuration := builder.resolveConfiguration()
	if command.Flags().Changed(minimumFlagNameConstant) {
		minimum, minimumError := command.Flags().GetInt(minimumFlagNameConstant)
		if minimumError != nil {
			return minimumError
		}
		configuration.Policy = Configuration{Minimum: minimum}.Sanitize()
	}

	logger := builder.resolveLogger()
	fileSystem := dependencies.ResolveFileSystem(builder.FileSystem)
	workspaceInventory, scanError := inventory.ScanWorkspace(fileSystem, configuration.Workspace, configuration.ManifestFile, logger)
	if scanError != nil {
		return scanError
	}

	evaluator, evaluatorError := NewEvaluator(fileSystem, builder.Rules, logger)
	if evaluatorError != nil {
		return evaluatorError
	}
	policyReport := evaluator.Build(workspaceInventory.Repositories(), Options{Minimum: configuration.Policy.Minimum})
	return report.Emit(command.OutOrStdout(), explicitFormat, policyReport)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	configuration := CommandConfiguration{Workspace: ".", ManifestFile: manifest.DefaultFileNameConstant}
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	if len(configuration.ManifestFile) == 0 {
		configuration.ManifestFile = manifest.DefaultFileNameConstant
	}
	configuration.Policy = configuration.Policy.Sanitize()
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
