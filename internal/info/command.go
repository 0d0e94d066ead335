package info

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/orgsync/internal/githubapi"
	"github.com/temirov/orgsync/internal/report"
	"github.com/temirov/orgsync/internal/repos/dependencies"
	"github.com/temirov/orgsync/internal/utils/flags"
)

const (
	commandUseConstant              = "info [field...]"
	commandShortDescriptionConstant = "Show GitHub metadata of the current repository"
	commandLongDescriptionConstant  = "info fetches the GitHub document of the repository checked out in the working directory. Field arguments restrict the output to the named top-level fields."
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the configuration of the info command.
type ConfigurationProvider func() CommandConfiguration

// WorkingDirectoryProvider returns the directory whose repository is described.
type WorkingDirectoryProvider func() (string, error)

// CommandConfiguration holds the GitHub settings used by info.
type CommandConfiguration struct {
	GitHub githubapi.Configuration
}

// CommandBuilder assembles the info command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Details               DetailsReader
	Origin                OriginReader
	WorkingDirectory      WorkingDirectoryProvider
	Environment           map[string]string
}

// Build constructs the info command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.ArbitraryArgs,
		RunE:  builder.run,
	}
	flags.BindFormat(command, string(report.FormatJSON), report.FormatNames(report.StructuredFormats))
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	explicitFormat, formatError := flags.Format(command)
	if formatError != nil {
		return formatError
	}
	if _, parseError := report.DetectFormat(explicitFormat, command.OutOrStdout(), report.StructuredFormats...); parseError != nil {
		return parseError
	}

	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()

	workingDirectoryProvider := builder.WorkingDirectory
	if workingDirectoryProvider == nil {
		workingDirectoryProvider = os.Getwd
	}
	workingDirectory, directoryError := workingDirectoryProvider()
	if directoryError != nil {
		return directoryError
	}

	details := builder.Details
	origin := builder.Origin
	if details == nil || origin == nil {
		token := dependencies.ResolveToken(configuration.GitHub, builder.Environment, logger)
		if details == nil {
			githubClient, clientError := dependencies.ResolveGitHubClient(command.Context(), configuration.GitHub, token, logger)
			if clientError != nil {
				return clientError
			}
			details = githubClient
		}
		if origin == nil {
			origin = dependencies.ResolveGitManager(token, logger)
		}
	}

	service, serviceError := NewService(details, origin, logger)
	if serviceError != nil {
		return serviceError
	}
	document, describeError := service.Describe(command.Context(), Options{
		Organization:     configuration.GitHub.Organization,
		WorkingDirectory: workingDirectory,
		Fields:           arguments,
	})
	if describeError != nil {
		return describeError
	}
	return report.Emit(command.OutOrStdout(), explicitFormat, document, report.StructuredFormats...)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	configuration := CommandConfiguration{GitHub: githubapi.DefaultConfiguration()}
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	configuration.GitHub = configuration.GitHub.Sanitize()
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
