package stats

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/orgsync/internal/githubapi"
	"github.com/temirov/orgsync/internal/report"
	"github.com/temirov/orgsync/internal/repos/dependencies"
	"github.com/temirov/orgsync/internal/repos/shared"
	"github.com/temirov/orgsync/internal/utils/flags"
)

const (
	commandUseConstant              = "stats"
	commandShortDescriptionConstant = "Count open issues and pull requests across the organization"
	commandLongDescriptionConstant  = "stats lists every organization repository with open issues or pull requests, busiest first."
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the configuration of the stats command.
type ConfigurationProvider func() CommandConfiguration

// CommandConfiguration combines the GitHub and report settings.
type CommandConfiguration struct {
	GitHub githubapi.Configuration
	Stats  Configuration
}

// Client lists repositories and reads their statistics.
type Client interface {
	shared.RemoteRepositoryLister
	StatisticsReader
}

// CommandBuilder assembles the stats command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Client                Client
	Environment           map[string]string
}

// Build constructs the stats command.
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

	client := builder.Client
	if client == nil {
		token := dependencies.ResolveToken(configuration.GitHub, builder.Environment, logger)
		githubClient, clientError := dependencies.ResolveGitHubClient(command.Context(), configuration.GitHub, token, logger)
		if clientError != nil {
			return clientError
		}
		client = githubClient
	}

	service, serviceError := NewService(client, client, logger)
	if serviceError != nil {
		return serviceError
	}
	statsReport, buildError := service.Build(command.Context(), Options{
		Organization: configuration.GitHub.Organization,
		Concurrency:  configuration.Stats.Concurrency,
	})
	if buildError != nil {
		return buildError
	}
	return report.Emit(command.OutOrStdout(), explicitFormat, statsReport)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	configuration := CommandConfiguration{GitHub: githubapi.DefaultConfiguration(), Stats: DefaultConfiguration()}
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	configuration.GitHub = configuration.GitHub.Sanitize()
	configuration.Stats = configuration.Stats.Sanitize()
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
