package outdated_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/orgsync/internal/outdated"
	"github.com/temirov/orgsync/internal/repos/filesystem"
	"github.com/temirov/orgsync/internal/repos/shared"
)

type stubVersionSource struct {
	mutex    sync.Mutex
	versions map[string]string
	lookups  []string
}

func (source *stubVersionSource) LatestVersion(_ context.Context, packageName string) (string, error) {
	source.mutex.Lock()
	defer source.mutex.Unlock()
	source.lookups = append(source.lookups, packageName)
	version, exists := source.versions[packageName]
	if !exists {
		return "", errors.New("package not found")
	}
	return version, nil
}

func writeFile(testInstance *testing.T, filePath string, content string) {
	testInstance.Helper()
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(filePath), 0o755))
	require.NoError(testInstance, os.WriteFile(filePath, []byte(content), 0o644))
}

func localRepository(workspace string, name string, hasManifest bool) shared.LocalRepository {
	return shared.LocalRepository{Name: name, Path: filepath.Join(workspace, name), HasManifest: hasManifest}
}

func TestServiceBuild(testInstance *testing.T) {
	workspace := testInstance.TempDir()

	writeFile(testInstance, filepath.Join(workspace, "core", "package.json"), `{
		"name": "@slimio/core",
		"dependencies": {"lodash": "^4.0.0", "kleur": "^3.0.0"},
		"devDependencies": {"ava": "~2.1.0"}
	}`)
	writeFile(testInstance, filepath.Join(workspace, "core", "node_modules", "kleur", "package.json"), `{"name": "kleur", "version": "3.0.3"}`)

	writeFile(testInstance, filepath.Join(workspace, "addon", "package.json"), `{
		"name": "@slimio/addon",
		"dependencies": {"kleur": "^4.1.0", "semver": "github:npm/semver"}
	}`)

	writeFile(testInstance, filepath.Join(workspace, "current", "package.json"), `{
		"name": "@slimio/current",
		"dependencies": {"kleur": "4.1.5"}
	}`)

	writeFile(testInstance, filepath.Join(workspace, "broken", "package.json"), `{"name": `)

	writeFile(testInstance, filepath.Join(workspace, "private", "package.json"), `{
		"dependencies": {"@slimio/private": "^1.0.0"}
	}`)

	writeFile(testInstance, filepath.Join(workspace, "unmanaged", "package.json"), `{
		"dependencies": {"lodash": "^1.0.0"}
	}`)

	versionSource := &stubVersionSource{versions: map[string]string{
		"lodash": "4.17.21",
		"kleur":  "4.1.5",
		"ava":    "3.0.0",
	}}

	service, serviceError := outdated.NewService(filesystem.OSFileSystem{}, versionSource, zap.NewNop())
	require.NoError(testInstance, serviceError)

	outdatedReport := service.Build(context.Background(), []shared.LocalRepository{
		localRepository(workspace, "addon", true),
		localRepository(workspace, "broken", true),
		localRepository(workspace, "core", true),
		localRepository(workspace, "current", true),
		localRepository(workspace, "private", true),
		localRepository(workspace, "unmanaged", false),
	}, outdated.Options{Concurrency: 2})

	require.Len(testInstance, outdatedReport.Repositories, 2)

	coreReport := outdatedReport.Repositories[0]
	require.Equal(testInstance, "core", coreReport.Name)
	require.Equal(testInstance, 2, coreReport.Major)
	require.Equal(testInstance, 1, coreReport.Minor)
	require.Equal(testInstance, 0, coreReport.Patch)

	dependencyUpdates := map[string]string{}
	for _, dependency := range coreReport.Dependencies {
		dependencyUpdates[dependency.Name] = dependency.Update
	}
	require.Equal(testInstance, map[string]string{"ava": "major", "kleur": "major", "lodash": "minor"}, dependencyUpdates)

	addonReport := outdatedReport.Repositories[1]
	require.Equal(testInstance, "addon", addonReport.Name)
	require.Equal(testInstance, 0, addonReport.Major)
	require.Equal(testInstance, 0, addonReport.Minor)
	require.Equal(testInstance, 1, addonReport.Patch)

	erroredRepositories := map[string]string{}
	for _, repositoryError := range outdatedReport.Errors {
		erroredRepositories[repositoryError.Repository] = repositoryError.Message
	}
	require.Len(testInstance, erroredRepositories, 2)
	require.Contains(testInstance, erroredRepositories, "broken")
	require.Contains(testInstance, erroredRepositories["private"], "@slimio/private")

	require.NotContains(testInstance, versionSource.lookups, "semver")
	table := outdatedReport.Table()
	require.Len(testInstance, table.Rows, 2)
	require.Equal(testInstance, []string{"core", "2", "1", "0"}, table.Rows[0])
	require.Len(testInstance, table.Footnotes, 2)
}

func TestServiceBuildOrdersByMajorThenMinor(testInstance *testing.T) {
	workspace := testInstance.TempDir()
	repositoryDependencies := map[string]string{
		"alpha": `{"a": "^1.0.0"}`,
		"beta":  `{"a": "^1.0.0", "b": "^1.0.0"}`,
		"gamma": `{"b": "^1.0.0", "c": "^1.0.0"}`,
	}
	repositories := make([]shared.LocalRepository, 0, len(repositoryDependencies))
	for repositoryName, dependencies := range repositoryDependencies {
		writeFile(testInstance, filepath.Join(workspace, repositoryName, "package.json"), fmt.Sprintf(`{"dependencies": %s}`, dependencies))
		repositories = append(repositories, localRepository(workspace, repositoryName, true))
	}

	versionSource := &stubVersionSource{versions: map[string]string{"a": "2.0.0", "b": "1.4.0", "c": "1.1.0"}}
	service, serviceError := outdated.NewService(filesystem.OSFileSystem{}, versionSource, nil)
	require.NoError(testInstance, serviceError)

	outdatedReport := service.Build(context.Background(), repositories, outdated.Options{})
	require.Empty(testInstance, outdatedReport.Errors)

	orderedNames := make([]string, 0, len(outdatedReport.Repositories))
	for _, repositoryReport := range outdatedReport.Repositories {
		orderedNames = append(orderedNames, repositoryReport.Name)
	}
	require.Equal(testInstance, []string{"beta", "alpha", "gamma"}, orderedNames)
}

func TestNewServiceValidatesDependencies(testInstance *testing.T) {
	_, serviceError := outdated.NewService(nil, &stubVersionSource{}, nil)
	require.ErrorIs(testInstance, serviceError, outdated.ErrFileSystemNotConfigured)

	_, serviceError = outdated.NewService(filesystem.OSFileSystem{}, nil, nil)
	require.ErrorIs(testInstance, serviceError, outdated.ErrVersionSourceNotConfigured)
}
