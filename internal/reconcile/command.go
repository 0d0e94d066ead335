package reconcile

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/orgsync/internal/githubapi"
	"github.com/temirov/orgsync/internal/repos/dependencies"
	"github.com/temirov/orgsync/internal/repos/shared"
	"github.com/temirov/orgsync/internal/ui"
	"github.com/temirov/orgsync/internal/utils/flags"
)

const (
	installCommandUseConstant              = "install"
	installCommandShortDescriptionConstant = "Clone missing organization repositories and update existing ones"
	installCommandLongDescriptionConstant  = "install clones every organization repository missing from the workspace, runs npm install in each clone, then pulls the checkouts that trail their remote. --pick restricts the run to named repositories."
	updateCommandUseConstant               = "update"
	updateCommandShortDescriptionConstant  = "Pull workspace repositories that trail their remote"
	updateCommandLongDescriptionConstant   = "update compares the primary branch of every checkout with the organization repository and pulls the ones that are behind."
	skipInstallFlagNameConstant            = "skip-install"
	skipInstallFlagUsageConstant           = "Clone without running npm install"
	updateOnlyFlagNameConstant             = "update"
	updateOnlyFlagUsageConstant            = "Only update existing checkouts"
	freshFlagNameConstant                  = "fresh"
	freshFlagUsageConstant                 = "Remove the picked checkouts and clone them again"
	installFlagNameConstant                = "install"
	installFlagUsageConstant               = "Run npm install after each pull without asking"
	noInstallFlagNameConstant              = "no-install"
	noInstallFlagUsageConstant             = "Never run npm install after a pull"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the configuration of the synchronization commands.
type ConfigurationProvider func() CommandConfiguration

// CommandConfiguration combines the GitHub and synchronization settings.
type CommandConfiguration struct {
	GitHub githubapi.Configuration
	Sync   Configuration
}

// RemoteClient reads organization data from GitHub.
type RemoteClient interface {
	shared.RemoteRepositoryLister
	shared.RemoteManifestFetcher
	shared.RemoteCommitReader
}

// RepositoryManager operates on local checkouts.
type RepositoryManager interface {
	shared.RepositoryCloner
	shared.RepositoryPuller
	shared.LocalCommitReader
}

// Collaborators overrides the default implementations used by the commands. Nil fields select defaults.
type Collaborators struct {
	RemoteClient      RemoteClient
	RepositoryManager RepositoryManager
	Installer         shared.DependencyInstaller
	FileSystem        shared.FileSystem
	Prompter          shared.ConfirmationPrompter
	Environment       map[string]string
}

// InstallCommandBuilder assembles the install command.
type InstallCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Collaborators         Collaborators
}

// Build constructs the install command.
func (builder *InstallCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   installCommandUseConstant,
		Short: installCommandShortDescriptionConstant,
		Long:  installCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	flags.BindPickList(command)
	flags.BindAssumeYes(command)
	command.Flags().Bool(skipInstallFlagNameConstant, false, skipInstallFlagUsageConstant)
	command.Flags().Bool(updateOnlyFlagNameConstant, false, updateOnlyFlagUsageConstant)
	command.Flags().Bool(freshFlagNameConstant, false, freshFlagUsageConstant)

	return command, nil
}

func (builder *InstallCommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration := resolveConfiguration(builder.ConfigurationProvider)
	baseOptions, optionsError := parseOptions(command, configuration)
	if optionsError != nil {
		return optionsError
	}

	skipInstall, _ := command.Flags().GetBool(skipInstallFlagNameConstant)
	updateOnly, _ := command.Flags().GetBool(updateOnlyFlagNameConstant)
	fresh, _ := command.Flags().GetBool(freshFlagNameConstant)
	options := InstallOptions{Options: baseOptions, SkipInstall: skipInstall, UpdateOnly: updateOnly, Fresh: fresh}
	if validationError := options.Validate(); validationError != nil {
		return validationError
	}

	service, serviceError := newCommandService(command, resolveLogger(builder.LoggerProvider), configuration, builder.Collaborators)
	if serviceError != nil {
		return serviceError
	}
	_, installError := service.Install(command.Context(), options)
	return installError
}

// UpdateCommandBuilder assembles the update command.
type UpdateCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Collaborators         Collaborators
}

// Build constructs the update command.
func (builder *UpdateCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   updateCommandUseConstant,
		Short: updateCommandShortDescriptionConstant,
		Long:  updateCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	flags.BindPickList(command)
	flags.BindAssumeYes(command)
	flags.AddToggleFlag(command.Flags(), installFlagNameConstant, false, installFlagUsageConstant)
	command.Flags().Bool(noInstallFlagNameConstant, false, noInstallFlagUsageConstant)
	command.MarkFlagsMutuallyExclusive(installFlagNameConstant, noInstallFlagNameConstant)

	return command, nil
}

func (builder *UpdateCommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration := resolveConfiguration(builder.ConfigurationProvider)
	baseOptions, optionsError := parseOptions(command, configuration)
	if optionsError != nil {
		return optionsError
	}

	installChanged, installValue, toggleError := flags.ToggleState(command.Flags(), installFlagNameConstant)
	if toggleError != nil {
		return toggleError
	}
	if noInstall, _ := command.Flags().GetBool(noInstallFlagNameConstant); noInstall {
		installChanged, installValue = true, false
	}
	options := UpdateOptions{Options: baseOptions, Install: shared.InstallPolicyFromFlags(installChanged, installValue)}
	if validationError := options.Validate(); validationError != nil {
		return validationError
	}

	service, serviceError := newCommandService(command, resolveLogger(builder.LoggerProvider), configuration, builder.Collaborators)
	if serviceError != nil {
		return serviceError
	}
	_, updateError := service.Update(command.Context(), options)
	return updateError
}

func parseOptions(command *cobra.Command, configuration CommandConfiguration) (Options, error) {
	pickList, pickError := flags.PickList(command)
	if pickError != nil {
		return Options{}, pickError
	}
	assumeYes, assumeYesError := flags.AssumeYes(command)
	if assumeYesError != nil {
		return Options{}, assumeYesError
	}
	return Options{
		Organization:  configuration.GitHub.Organization,
		Branch:        configuration.GitHub.Branch,
		WorkspacePath: configuration.Sync.Workspace,
		PickList:      pickList,
		Confirmation:  shared.ConfirmationPolicyFromBool(assumeYes),
		Configuration: configuration.Sync,
	}, nil
}

func newCommandService(command *cobra.Command, logger *zap.Logger, configuration CommandConfiguration, collaborators Collaborators) (*Service, error) {
	fileSystem := dependencies.ResolveFileSystem(collaborators.FileSystem)

	remoteClient := collaborators.RemoteClient
	repositoryManager := collaborators.RepositoryManager
	if remoteClient == nil || repositoryManager == nil {
		token := dependencies.ResolveToken(configuration.GitHub, collaborators.Environment, logger)
		if remoteClient == nil {
			githubClient, clientError := dependencies.ResolveGitHubClient(command.Context(), configuration.GitHub, token, logger)
			if clientError != nil {
				return nil, clientError
			}
			remoteClient = githubClient
		}
		if repositoryManager == nil {
			repositoryManager = dependencies.ResolveGitManager(token, logger)
		}
	}

	installer, installerError := dependencies.ResolveInstaller(collaborators.Installer, fileSystem, nil, logger)
	if installerError != nil {
		return nil, installerError
	}

	return NewService(Dependencies{
		Lister:          remoteClient,
		ManifestFetcher: remoteClient,
		RemoteCommits:   remoteClient,
		LocalCommits:    repositoryManager,
		Cloner:          repositoryManager,
		Puller:          repositoryManager,
		Installer:       installer,
		FileSystem:      fileSystem,
		Prompter:        dependencies.ResolvePrompter(collaborators.Prompter, command.InOrStdin(), command.OutOrStdout()),
		StateObserver:   ui.NewWorkItemProgressLogger(logger),
		Output:          command.OutOrStdout(),
		Logger:          logger,
	})
}

func resolveConfiguration(provider ConfigurationProvider) CommandConfiguration {
	configuration := CommandConfiguration{GitHub: githubapi.DefaultConfiguration(), Sync: DefaultConfiguration()}
	if provider != nil {
		configuration = provider()
	}
	configuration.GitHub = configuration.GitHub.Sanitize()
	configuration.Sync = configuration.Sync.Sanitize()
	return configuration
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
