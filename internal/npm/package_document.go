package npm

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/temirov/orgsync/internal/repos/shared"
)

const (
	// PackageFileNameConstant is the npm package descriptor.
	PackageFileNameConstant = "package.json"
	// LockFileNameConstant is the npm lock file that enables deterministic installs.
	LockFileNameConstant = "package-lock.json"

	nodeModulesDirectoryConstant   = "node_modules"
	packageReadErrorTemplate       = "unable to read %s: %w"
	packageDecodeErrorTemplate     = "unable to decode %s: %w"
	fileSystemNotConfiguredMessage = "file system not configured"
)

// ErrFileSystemNotConfigured indicates a component was constructed without a file system.
var ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessage)

// PackageDocument holds the package.json fields used by orgsync.
type PackageDocument struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Description     string            `json:"description"`
	Scripts         map[string]string `json:"scripts"`
	Engines         map[string]string `json:"engines"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// DeclaredDependencies merges dependencies and devDependencies; runtime dependencies win on conflict.
func (document PackageDocument) DeclaredDependencies() map[string]string {
	declared := make(map[string]string, len(document.Dependencies)+len(document.DevDependencies))
	for dependencyName, versionRange := range document.DevDependencies {
		declared[dependencyName] = versionRange
	}
	for dependencyName, versionRange := range document.Dependencies {
		declared[dependencyName] = versionRange
	}
	return declared
}

// ReadPackageDocument decodes <repositoryPath>/package.json. A missing file is reported with fs.ErrNotExist.
func ReadPackageDocument(fileSystem shared.FileSystem, repositoryPath string) (PackageDocument, error) {
	return readDocument(fileSystem, filepath.Join(repositoryPath, PackageFileNameConstant))
}

// InstalledVersion reads the version of a dependency from node_modules.
func InstalledVersion(fileSystem shared.FileSystem, repositoryPath string, dependencyName string) (string, error) {
	document, readError := readDocument(fileSystem, filepath.Join(repositoryPath, nodeModulesDirectoryConstant, filepath.FromSlash(dependencyName), PackageFileNameConstant))
	if readError != nil {
		return "", readError
	}
	return document.Version, nil
}

func readDocument(fileSystem shared.FileSystem, documentPath string) (PackageDocument, error) {
	if fileSystem == nil {
		return PackageDocument{}, ErrFileSystemNotConfigured
	}
	content, readError := fileSystem.ReadFile(documentPath)
	if readError != nil {
		return PackageDocument{}, fmt.Errorf(packageReadErrorTemplate, documentPath, readError)
	}
	var document PackageDocument
	if decodeError := json.Unmarshal(content, &document); decodeError != nil {
		return PackageDocument{}, fmt.Errorf(packageDecodeErrorTemplate, documentPath, decodeError)
	}
	return document, nil
}

func fileExists(fileSystem shared.FileSystem, filePath string) (bool, error) {
	info, statError := fileSystem.Stat(filePath)
	if statError == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(statError, fs.ErrNotExist) {
		return false, nil
	}
	return false, statError
}
