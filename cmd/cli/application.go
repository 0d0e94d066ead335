package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/orgsync/internal/githubapi"
	"github.com/temirov/orgsync/internal/info"
	"github.com/temirov/orgsync/internal/outdated"
	"github.com/temirov/orgsync/internal/policy"
	"github.com/temirov/orgsync/internal/reconcile"
	"github.com/temirov/orgsync/internal/stats"
	"github.com/temirov/orgsync/internal/utils"
)

const (
	applicationNameConstant                 = "orgsync"
	applicationShortDescriptionConstant     = "Keep a local workspace in sync with a GitHub organization"
	applicationLongDescriptionConstant      = "orgsync clones the repositories of a GitHub organization into a workspace, pulls stale checkouts, installs their npm dependencies and reports on their health."
	versionTemplateConstant                 = "orgsync version: {{.Version}}\n"
	developmentVersionConstant              = "dev"
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level (debug, info, warn or error)."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	workspaceFlagNameConstant               = "workspace"
	workspaceFlagUsageConstant              = "Override the workspace directory holding the checkouts."
	organizationFlagNameConstant            = "org"
	organizationFlagUsageConstant           = "Override the GitHub organization."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	githubConfigurationKeyConstant          = "github"
	githubOrganizationConfigKeyConstant     = githubConfigurationKeyConstant + ".organization"
	syncConfigurationKeyConstant            = "sync"
	reportsConfigurationKeyConstant         = "reports"
	outdatedConfigurationKeyConstant        = reportsConfigurationKeyConstant + ".outdated"
	policyConfigurationKeyConstant          = reportsConfigurationKeyConstant + ".policy"
	statsConfigurationKeyConstant           = reportsConfigurationKeyConstant + ".stats"
	environmentPrefixConstant               = "ORGSYNC"
	configurationSearchPathEnvironmentName  = environmentPrefixConstant + "_CONFIG_SEARCH_PATH"
	legacyOrganizationEnvironmentName       = "GITHUB_ORGA"
	organizationEnvironmentName             = "GITHUB_ORG"
	environmentFileNameConstant             = ".env"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	userConfigurationDirectoryNameConstant  = "orgsync"
	homeConfigurationDirectoryNameConstant  = ".orgsync"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationOrganizationFieldConstant  = "organization"
	configurationWorkspaceFieldConstant     = "workspace"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	defaultConfigurationSearchPathConstant  = "."
)

// applicationVersion is replaced at link time with -ldflags "-X github.com/temirov/orgsync/cmd/cli.applicationVersion=...".
var applicationVersion = developmentVersionConstant

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common  ApplicationCommonConfiguration  `mapstructure:"common"`
	GitHub  githubapi.Configuration         `mapstructure:"github"`
	Sync    reconcile.Configuration         `mapstructure:"sync"`
	Reports ApplicationReportsConfiguration `mapstructure:"reports"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationReportsConfiguration groups the settings of the workspace reports.
type ApplicationReportsConfiguration struct {
	Outdated outdated.Configuration `mapstructure:"outdated"`
	Policy   policy.Configuration   `mapstructure:"policy"`
	Stats    stats.Configuration    `mapstructure:"stats"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	workspaceFlagValue    string
	organizationFlagValue string
	versionResolver       func(context.Context) string
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		configurationSearchPaths(),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())
	configurationLoader.SetEnvironmentFiles(environmentFileNameConstant)
	configurationLoader.AddEnvironmentAliases(githubOrganizationConfigKeyConstant, legacyOrganizationEnvironmentName, organizationEnvironmentName)

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
		versionResolver:     resolveApplicationVersion,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.SetVersionTemplate(versionTemplateConstant)
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.workspaceFlagValue, workspaceFlagNameConstant, "", workspaceFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.organizationFlagValue, organizationFlagNameConstant, "", organizationFlagUsageConstant)

	for _, buildCommand := range application.commandBuilders() {
		subcommand, buildError := buildCommand()
		if buildError == nil {
			cobraCommand.AddCommand(subcommand)
		}
	}

	application.rootCommand = cobraCommand

	return application
}

func (application *Application) commandBuilders() []func() (*cobra.Command, error) {
	loggerProvider := func() *zap.Logger {
		return application.logger
	}

	installBuilder := &reconcile.InstallCommandBuilder{
		LoggerProvider:        loggerProvider,
		ConfigurationProvider: application.reconcileConfiguration,
	}
	updateBuilder := &reconcile.UpdateCommandBuilder{
		LoggerProvider:        loggerProvider,
		ConfigurationProvider: application.reconcileConfiguration,
	}
	outdatedBuilder := &outdated.CommandBuilder{
		LoggerProvider:        loggerProvider,
		ConfigurationProvider: application.outdatedConfiguration,
	}
	policyBuilder := &policy.CommandBuilder{
		LoggerProvider:        loggerProvider,
		ConfigurationProvider: application.policyConfiguration,
	}
	infoBuilder := &info.CommandBuilder{
		LoggerProvider:        loggerProvider,
		ConfigurationProvider: application.infoConfiguration,
	}
	statsBuilder := &stats.CommandBuilder{
		LoggerProvider:        loggerProvider,
		ConfigurationProvider: application.statsConfiguration,
	}

	return []func() (*cobra.Command, error){
		installBuilder.Build,
		updateBuilder.Build,
		outdatedBuilder.Build,
		policyBuilder.Build,
		infoBuilder.Build,
		statsBuilder.Build,
	}
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	application.rootCommand.Version = application.versionResolver(application.rootCommand.Context())
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatConsole),
	}
	defaultSources := []map[string]any{
		githubapi.DefaultConfigurationValues(githubConfigurationKeyConstant),
		reconcile.DefaultConfigurationValues(syncConfigurationKeyConstant),
		outdated.DefaultConfigurationValues(outdatedConfigurationKeyConstant),
		policy.DefaultConfigurationValues(policyConfigurationKeyConstant),
		stats.DefaultConfigurationValues(statsConfigurationKeyConstant),
	}
	for _, defaultSource := range defaultSources {
		for configurationKey, configurationValue := range defaultSource {
			defaultValues[configurationKey] = configurationValue
		}
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}
	if application.persistentFlagChanged(command, workspaceFlagNameConstant) {
		application.configuration.Sync.Workspace = application.workspaceFlagValue
	}
	if application.persistentFlagChanged(command, organizationFlagNameConstant) {
		application.configuration.GitHub.Organization = application.organizationFlagValue
	}

	application.configuration.GitHub = application.configuration.GitHub.Sanitize()
	application.configuration.Sync = application.configuration.Sync.Sanitize()

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(configurationOrganizationFieldConstant, application.configuration.GitHub.Organization),
		zap.String(configurationWorkspaceFieldConstant, application.configuration.Sync.Workspace),
	)

	return nil
}

func (application *Application) reconcileConfiguration() reconcile.CommandConfiguration {
	return reconcile.CommandConfiguration{
		GitHub: application.configuration.GitHub,
		Sync:   application.configuration.Sync,
	}
}

func (application *Application) outdatedConfiguration() outdated.CommandConfiguration {
	return outdated.CommandConfiguration{
		Workspace:    application.configuration.Sync.Workspace,
		ManifestFile: application.configuration.Sync.ManifestFile,
		Outdated:     application.configuration.Reports.Outdated,
	}
}

func (application *Application) policyConfiguration() policy.CommandConfiguration {
	return policy.CommandConfiguration{
		Workspace:    application.configuration.Sync.Workspace,
		ManifestFile: application.configuration.Sync.ManifestFile,
		Policy:       application.configuration.Reports.Policy,
	}
}

func (application *Application) infoConfiguration() info.CommandConfiguration {
	return info.CommandConfiguration{GitHub: application.configuration.GitHub}
}

func (application *Application) statsConfiguration() stats.CommandConfiguration {
	return stats.CommandConfiguration{
		GitHub: application.configuration.GitHub,
		Stats:  application.configuration.Reports.Stats,
	}
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}

// configurationSearchPaths lists the directories searched for config.yaml. ORGSYNC_CONFIG_SEARCH_PATH replaces
// the defaults with its own list.
func configurationSearchPaths() []string {
	if overridePaths := strings.TrimSpace(os.Getenv(configurationSearchPathEnvironmentName)); len(overridePaths) > 0 {
		return filepath.SplitList(overridePaths)
	}

	searchPaths := []string{defaultConfigurationSearchPathConstant}
	if userConfigurationDirectory, configurationDirectoryError := os.UserConfigDir(); configurationDirectoryError == nil {
		searchPaths = append(searchPaths, filepath.Join(userConfigurationDirectory, userConfigurationDirectoryNameConstant))
	}
	if homeDirectory, homeDirectoryError := os.UserHomeDir(); homeDirectoryError == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDirectory, homeConfigurationDirectoryNameConstant))
	}
	return searchPaths
}

func resolveApplicationVersion(context.Context) string {
	if applicationVersion != developmentVersionConstant {
		return applicationVersion
	}
	buildInformation, available := debug.ReadBuildInfo()
	if !available || len(buildInformation.Main.Version) == 0 || buildInformation.Main.Version == "(devel)" {
		return developmentVersionConstant
	}
	return buildInformation.Main.Version
}
