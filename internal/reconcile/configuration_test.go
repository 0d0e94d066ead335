package reconcile_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/orgsync/internal/reconcile"
)

func TestConfigurationSanitize(testInstance *testing.T) {
	homeDirectory, homeError := os.UserHomeDir()
	require.NoError(testInstance, homeError)

	testCases := []struct {
		name     string
		input    reconcile.Configuration
		validate func(*testing.T, reconcile.Configuration)
	}{
		{
			name:  "restores_defaults",
			input: reconcile.Configuration{FuzzyTolerance: -3},
			validate: func(subtest *testing.T, sanitized reconcile.Configuration) {
				defaults := reconcile.DefaultConfiguration()
				require.Equal(subtest, defaults.Workspace, sanitized.Workspace)
				require.Equal(subtest, defaults.ManifestFile, sanitized.ManifestFile)
				require.Equal(subtest, defaults.LockFile, sanitized.LockFile)
				require.Equal(subtest, 0, sanitized.FuzzyTolerance)
				require.Equal(subtest, defaults.InstallConcurrency, sanitized.InstallConcurrency)
				require.Equal(subtest, defaults.Concurrency, sanitized.Concurrency)
			},
		},
		{
			name:  "splits_exclusions",
			input: reconcile.Configuration{Exclude: []string{" Governance, Blog ", "", "n-api-ci"}, ExcludePatterns: []string{"Legacy-*, *-ci"}},
			validate: func(subtest *testing.T, sanitized reconcile.Configuration) {
				require.Equal(subtest, []string{"governance", "blog", "n-api-ci"}, sanitized.Exclude)
				require.Equal(subtest, []string{"Legacy-*", "*-ci"}, sanitized.ExcludePatterns)
			},
		},
		{
			name:  "expands_home_workspace",
			input: reconcile.Configuration{Workspace: "~/SlimIO"},
			validate: func(subtest *testing.T, sanitized reconcile.Configuration) {
				require.Equal(subtest, filepath.Join(homeDirectory, "SlimIO"), sanitized.Workspace)
			},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtest *testing.T) {
			testCase.validate(subtest, testCase.input.Sanitize())
		})
	}
}

func TestDefaultConfigurationExcludesLegacyPatterns(testInstance *testing.T) {
	defaults := reconcile.DefaultConfiguration()
	require.Equal(testInstance, []string{"nix"}, defaults.ExcludePatterns)
	require.Equal(testInstance, []string{"nix"}, defaults.Sanitize().ExcludePatterns)
}

func TestConfigurationBatchConcurrency(testInstance *testing.T) {
	configuration := reconcile.DefaultConfiguration()
	require.Equal(testInstance, 3, configuration.BatchConcurrency(true))
	require.Equal(testInstance, 8, configuration.BatchConcurrency(false))
}

func TestDefaultConfigurationValues(testInstance *testing.T) {
	values := reconcile.DefaultConfigurationValues("sync")
	require.Equal(testInstance, ".", values["sync.workspace"])
	require.Equal(testInstance, true, values["sync.platform_filter"])
	require.Equal(testInstance, []string{"governance", "n-api-ci", "blog"}, values["sync.exclude"])
}

func TestAcquireWorkspaceLock(testInstance *testing.T) {
	workspace := testInstance.TempDir()

	firstLock, firstError := reconcile.AcquireWorkspaceLock(workspace, ".orgsync.lock")
	require.NoError(testInstance, firstError)

	_, secondError := reconcile.AcquireWorkspaceLock(workspace, ".orgsync.lock")
	require.ErrorIs(testInstance, secondError, reconcile.ErrWorkspaceLocked)

	require.NoError(testInstance, firstLock.Release())
	thirdLock, thirdError := reconcile.AcquireWorkspaceLock(workspace, ".orgsync.lock")
	require.NoError(testInstance, thirdError)
	require.NoError(testInstance, thirdLock.Release())
}
