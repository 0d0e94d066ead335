package reconcile_test

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/orgsync/internal/githubapi"
	"github.com/temirov/orgsync/internal/manifest"
	"github.com/temirov/orgsync/internal/reconcile"
	"github.com/temirov/orgsync/internal/repos/shared"
)

type stubRemoteClient struct {
	stubLister
	stubCommits
	platforms map[string]string
}

func (client stubRemoteClient) FetchManifest(_ context.Context, _ string, repositoryName string, _ string, _ string) manifest.Lookup {
	platform, exists := client.platforms[repositoryName]
	if !exists {
		return manifest.Absent()
	}
	return manifest.Present(manifest.Manifest{Name: repositoryName, Platform: platform})
}

type stubRepositoryManager struct {
	*recordingGit
	stubCommits
}

type commandFixture struct {
	workspace string
	git       *recordingGit
	installer *recordingInstaller
	output    *bytes.Buffer
}

func newCommandFixture(testInstance *testing.T, localNames ...string) commandFixture {
	testInstance.Helper()
	workspace := newHarness(testInstance, nil, stubCommits{}, localNames...).workspace
	return commandFixture{
		workspace: workspace,
		git:       &recordingGit{},
		installer: &recordingInstaller{failures: map[string]error{}},
		output:    &bytes.Buffer{},
	}
}

func (fixture commandFixture) collaborators(remoteRepositories []shared.RemoteRepository, commits stubCommits, platforms map[string]string) reconcile.Collaborators {
	return reconcile.Collaborators{
		RemoteClient:      stubRemoteClient{stubLister: stubLister{repositories: remoteRepositories}, stubCommits: commits, platforms: platforms},
		RepositoryManager: stubRepositoryManager{recordingGit: fixture.git, stubCommits: commits},
		Installer:         fixture.installer,
	}
}

func (fixture commandFixture) configurationProvider(organization string) reconcile.ConfigurationProvider {
	return func() reconcile.CommandConfiguration {
		syncConfiguration := reconcile.DefaultConfiguration()
		syncConfiguration.Workspace = fixture.workspace
		return reconcile.CommandConfiguration{
			GitHub: githubapi.Configuration{Organization: organization},
			Sync:   syncConfiguration,
		}
	}
}

func TestInstallCommand(testInstance *testing.T) {
	remoteRepositories := []shared.RemoteRepository{{Name: "core"}, {Name: "registry"}, {Name: "winservice"}}
	platforms := map[string]string{"winservice": "windows"}

	testCases := []struct {
		name              string
		arguments         []string
		organization      string
		input             string
		expectedCloned    []string
		expectedInstalled []string
		expectedError     error
		expectErrorText   string
	}{
		{
			name:              "clones_picked_repository",
			arguments:         []string{"--pick", "core", "--yes"},
			organization:      testOrganizationConstant,
			expectedCloned:    []string{"core"},
			expectedInstalled: []string{"core"},
		},
		{
			name:           "skips_install",
			arguments:      []string{"--pick", "core,registry", "--skip-install", "--yes"},
			organization:   testOrganizationConstant,
			expectedCloned: []string{"core", "registry"},
		},
		{
			name:          "declined_prompt",
			arguments:     []string{"--pick", "core"},
			organization:  testOrganizationConstant,
			input:         "n\n",
			expectedError: reconcile.ErrDeclined,
		},
		{
			name:           "accepted_prompt",
			arguments:      []string{"--pick", "core", "--skip-install"},
			organization:   testOrganizationConstant,
			input:          "yes\n",
			expectedCloned: []string{"core"},
		},
		{
			name:          "missing_organization",
			arguments:     []string{"--yes"},
			expectedError: reconcile.ErrOrganizationRequired,
		},
		{
			name:          "fresh_without_pick",
			arguments:     []string{"--fresh", "--yes"},
			organization:  testOrganizationConstant,
			expectedError: reconcile.ErrFreshRequiresPick,
		},
		{
			name:            "positional_arguments",
			arguments:       []string{"core"},
			organization:    testOrganizationConstant,
			expectErrorText: "unknown command",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtest *testing.T) {
			fixture := newCommandFixture(subtest)
			builder := reconcile.InstallCommandBuilder{
				LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
				ConfigurationProvider: fixture.configurationProvider(testCase.organization),
				Collaborators:         fixture.collaborators(remoteRepositories, stubCommits{}, platforms),
			}
			command, buildError := builder.Build()
			require.NoError(subtest, buildError)

			command.SetContext(context.Background())
			command.SetArgs(testCase.arguments)
			command.SetIn(strings.NewReader(testCase.input))
			command.SetOut(fixture.output)
			command.SetErr(fixture.output)

			executionError := command.Execute()
			switch {
			case testCase.expectedError != nil:
				require.ErrorIs(subtest, executionError, testCase.expectedError)
				require.Empty(subtest, fixture.git.clonedNames())
				return
			case len(testCase.expectErrorText) > 0:
				require.Error(subtest, executionError)
				require.Contains(subtest, executionError.Error(), testCase.expectErrorText)
				return
			}
			require.NoError(subtest, executionError)
			require.Equal(subtest, testCase.expectedCloned, fixture.git.clonedNames())
			if len(testCase.expectedInstalled) == 0 {
				require.Empty(subtest, fixture.installer.installed)
			} else {
				require.Equal(subtest, testCase.expectedInstalled, fixture.installer.installed)
			}
		})
	}
}

func TestInstallCommandFiltersPlatforms(testInstance *testing.T) {
	if runtime.GOOS == "windows" {
		testInstance.Skip("platform filter excludes windows-only repositories elsewhere")
	}
	fixture := newCommandFixture(testInstance)
	builder := reconcile.InstallCommandBuilder{
		ConfigurationProvider: fixture.configurationProvider(testOrganizationConstant),
		Collaborators:         fixture.collaborators([]shared.RemoteRepository{{Name: "core"}, {Name: "winservice"}}, stubCommits{}, map[string]string{"winservice": "windows"}),
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	command.SetContext(context.Background())
	command.SetArgs([]string{"--yes", "--skip-install"})
	command.SetOut(fixture.output)

	require.NoError(testInstance, command.Execute())
	require.Equal(testInstance, []string{"core"}, fixture.git.clonedNames())
	require.NoDirExists(testInstance, filepath.Join(fixture.workspace, "winservice"))
}

func TestUpdateCommand(testInstance *testing.T) {
	olderTime := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	remoteRepositories := []shared.RemoteRepository{{Name: "core"}, {Name: "registry"}}
	commits := stubCommits{
		remote: map[string]shared.CommitMetadata{"core": commit("new", olderTime.Add(time.Hour)), "registry": commit("same", olderTime)},
		local:  map[string]shared.CommitMetadata{"core": commit("old", olderTime), "registry": commit("same", olderTime)},
	}

	testCases := []struct {
		name              string
		arguments         []string
		input             string
		expectedPulled    []string
		expectedInstalled []string
		expectErrorText   string
	}{
		{name: "install_flag", arguments: []string{"--yes", "--install"}, expectedPulled: []string{"core"}, expectedInstalled: []string{"core"}},
		{name: "install_toggle_no", arguments: []string{"--yes", "--install=no"}, expectedPulled: []string{"core"}},
		{name: "no_install_flag", arguments: []string{"--yes", "--no-install"}, expectedPulled: []string{"core"}},
		{name: "prompted_install", input: "y\ny\n", expectedPulled: []string{"core"}, expectedInstalled: []string{"core"}},
		{name: "declined_pull", input: "n\n"},
		{name: "conflicting_flags", arguments: []string{"--install", "--no-install"}, expectErrorText: "none of the others can be"},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtest *testing.T) {
			fixture := newCommandFixture(subtest, "core", "registry")
			builder := reconcile.UpdateCommandBuilder{
				ConfigurationProvider: fixture.configurationProvider(testOrganizationConstant),
				Collaborators:         fixture.collaborators(remoteRepositories, commits, nil),
			}
			command, buildError := builder.Build()
			require.NoError(subtest, buildError)

			command.SetContext(context.Background())
			command.SetArgs(testCase.arguments)
			command.SetIn(strings.NewReader(testCase.input))
			command.SetOut(fixture.output)
			command.SetErr(fixture.output)

			executionError := command.Execute()
			if len(testCase.expectErrorText) > 0 {
				require.Error(subtest, executionError)
				require.Contains(subtest, executionError.Error(), testCase.expectErrorText)
				return
			}
			require.NoError(subtest, executionError)
			if len(testCase.expectedPulled) == 0 {
				require.Empty(subtest, fixture.git.pulledNames())
			} else {
				require.Equal(subtest, testCase.expectedPulled, fixture.git.pulledNames())
			}
			if len(testCase.expectedInstalled) == 0 {
				require.Empty(subtest, fixture.installer.installed)
			} else {
				require.Equal(subtest, testCase.expectedInstalled, fixture.installer.installed)
			}
		})
	}
}
