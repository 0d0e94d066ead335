package utils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/orgsync/internal/utils"
)

const (
	testEnvironmentPrefixConstant     = "TESTORGSYNC"
	testConfigurationNameConstant     = "config"
	testConfigurationTypeConstant     = "yaml"
	testConfigFileNameConstant        = "config.yaml"
	testLogLevelKeyConstant           = "common.log_level"
	testLogLevelEnvironmentName       = testEnvironmentPrefixConstant + "_COMMON_LOG_LEVEL"
	testConfigContentTemplateConstant = "common:\n  log_level: %s\n"
)

type configurationFixture struct {
	Common configurationCommonFixture `mapstructure:"common"`
	GitHub configurationGitHubFixture `mapstructure:"github"`
	Sync   configurationSyncFixture   `mapstructure:"sync"`
}

type configurationCommonFixture struct {
	LogLevel string `mapstructure:"log_level"`
}

type configurationGitHubFixture struct {
	Organization string `mapstructure:"organization"`
}

type configurationSyncFixture struct {
	Exclude  []string      `mapstructure:"exclude"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

func writeConfiguration(testInstance *testing.T, directory string, logLevel string) string {
	testInstance.Helper()
	require.NoError(testInstance, os.MkdirAll(directory, 0o755))
	configurationPath := filepath.Join(directory, testConfigFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(fmt.Sprintf(testConfigContentTemplateConstant, logLevel)), 0o600))
	return configurationPath
}

func TestConfigurationLoaderLayers(testInstance *testing.T) {
	testCases := []struct {
		name             string
		embedded         string
		searchedFile     string
		explicitFile     string
		environment      string
		expectedLogLevel string
		expectFileUsed   bool
	}{
		{name: "defaults_only", expectedLogLevel: "info"},
		{name: "embedded_over_defaults", embedded: "debug", expectedLogLevel: "debug"},
		{name: "searched_file_over_embedded", embedded: "debug", searchedFile: "warn", expectedLogLevel: "warn", expectFileUsed: true},
		{name: "explicit_file_over_search", searchedFile: "warn", explicitFile: "error", expectedLogLevel: "error", expectFileUsed: true},
		{name: "environment_over_file", searchedFile: "warn", environment: "debug", expectedLogLevel: "debug", expectFileUsed: true},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtest *testing.T) {
			subtest.Setenv(testLogLevelEnvironmentName, testCase.environment)
			searchDirectory := subtest.TempDir()

			expectedFile := ""
			if len(testCase.searchedFile) > 0 {
				expectedFile = writeConfiguration(subtest, searchDirectory, testCase.searchedFile)
			}
			explicitPath := ""
			if len(testCase.explicitFile) > 0 {
				explicitPath = writeConfiguration(subtest, filepath.Join(subtest.TempDir(), "explicit"), testCase.explicitFile)
				expectedFile = explicitPath
			}

			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{searchDirectory})
			if len(testCase.embedded) > 0 {
				configurationLoader.SetEmbeddedConfiguration([]byte(fmt.Sprintf(testConfigContentTemplateConstant, testCase.embedded)), testConfigurationTypeConstant)
			}

			loadedConfiguration := configurationFixture{}
			metadata, loadError := configurationLoader.LoadConfiguration(explicitPath, map[string]any{testLogLevelKeyConstant: "info"}, &loadedConfiguration)
			require.NoError(subtest, loadError)
			require.Equal(subtest, testCase.expectedLogLevel, loadedConfiguration.Common.LogLevel)
			if testCase.expectFileUsed {
				require.Equal(subtest, expectedFile, metadata.ConfigFileUsed)
			} else {
				require.Empty(subtest, metadata.ConfigFileUsed)
			}
		})
	}
}

func TestConfigurationLoaderSearchOrder(testInstance *testing.T) {
	firstDirectory := testInstance.TempDir()
	secondDirectory := filepath.Join(testInstance.TempDir(), "orgsync")
	writeConfiguration(testInstance, secondDirectory, "warn")

	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{firstDirectory, secondDirectory})
	loadedConfiguration := configurationFixture{}
	metadata, loadError := configurationLoader.LoadConfiguration("", nil, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, "warn", loadedConfiguration.Common.LogLevel)
	require.Equal(testInstance, filepath.Join(secondDirectory, testConfigFileNameConstant), metadata.ConfigFileUsed)

	firstPath := writeConfiguration(testInstance, firstDirectory, "error")
	metadata, loadError = configurationLoader.LoadConfiguration("", nil, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, "error", loadedConfiguration.Common.LogLevel)
	require.Equal(testInstance, firstPath, metadata.ConfigFileUsed)
}

func TestConfigurationLoaderDecodesEnvironmentValues(testInstance *testing.T) {
	testInstance.Setenv(testEnvironmentPrefixConstant+"_SYNC_EXCLUDE", "governance,blog")
	testInstance.Setenv(testEnvironmentPrefixConstant+"_SYNC_CACHE_TTL", "90s")

	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{testInstance.TempDir()})
	defaultValues := map[string]any{
		"sync.exclude":   []string{},
		"sync.cache_ttl": "10m",
	}

	loadedConfiguration := configurationFixture{}
	_, loadError := configurationLoader.LoadConfiguration("", defaultValues, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, []string{"governance", "blog"}, loadedConfiguration.Sync.Exclude)
	require.Equal(testInstance, 90*time.Second, loadedConfiguration.Sync.CacheTTL)
}

func TestConfigurationLoaderEnvironmentAliases(testInstance *testing.T) {
	testCases := []struct {
		name                 string
		environment          map[string]string
		expectedOrganization string
	}{
		{
			name:                 "first_alias",
			environment:          map[string]string{"TESTORGSYNC_LEGACY_ORGA": "SlimIO"},
			expectedOrganization: "SlimIO",
		},
		{
			name:                 "second_alias",
			environment:          map[string]string{"TESTORGSYNC_LEGACY_ORG": "Fallback"},
			expectedOrganization: "Fallback",
		},
		{
			name: "prefixed_variable_wins",
			environment: map[string]string{
				"TESTORGSYNC_LEGACY_ORGA":         "SlimIO",
				"TESTORGSYNC_GITHUB_ORGANIZATION": "Prefixed",
			},
			expectedOrganization: "Prefixed",
		},
		{
			name:                 "default_without_variables",
			environment:          map[string]string{},
			expectedOrganization: "Default",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			for environmentName, environmentValue := range testCase.environment {
				testInstance.Setenv(environmentName, environmentValue)
			}

			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{testInstance.TempDir()})
			configurationLoader.AddEnvironmentAliases("github.organization", "TESTORGSYNC_LEGACY_ORGA", "TESTORGSYNC_LEGACY_ORG")

			loadedConfiguration := configurationFixture{}
			_, loadError := configurationLoader.LoadConfiguration("", map[string]any{"github.organization": "Default"}, &loadedConfiguration)
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedOrganization, loadedConfiguration.GitHub.Organization)
		})
	}
}

func TestConfigurationLoaderEnvironmentFiles(testInstance *testing.T) {
	const environmentVariableName = "TESTORGSYNC_GITHUB_ORGANIZATION"
	require.NoError(testInstance, os.Unsetenv(environmentVariableName))
	testInstance.Cleanup(func() {
		require.NoError(testInstance, os.Unsetenv(environmentVariableName))
	})

	workingDirectoryPath := testInstance.TempDir()
	environmentFilePath := filepath.Join(workingDirectoryPath, ".env")
	require.NoError(testInstance, os.WriteFile(environmentFilePath, []byte(environmentVariableName+"=FromDotenv\n"), 0o600))

	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{workingDirectoryPath})
	configurationLoader.SetEnvironmentFiles(filepath.Join(workingDirectoryPath, "missing.env"), environmentFilePath)

	loadedConfiguration := configurationFixture{}
	_, loadError := configurationLoader.LoadConfiguration("", map[string]any{"github.organization": ""}, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, "FromDotenv", loadedConfiguration.GitHub.Organization)
}

func TestConfigurationLoaderRejectsMissingExplicitFile(testInstance *testing.T) {
	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, nil)
	loadedConfiguration := configurationFixture{}
	_, loadError := configurationLoader.LoadConfiguration(filepath.Join(testInstance.TempDir(), "absent.yaml"), nil, &loadedConfiguration)
	require.Error(testInstance, loadError)
}
