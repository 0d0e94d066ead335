package inventory

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"

	"github.com/temirov/orgsync/internal/manifest"
	"github.com/temirov/orgsync/internal/repos/shared"
)

const (
	workspaceReadErrorTemplateConstant   = "unable to read workspace %s: %w"
	fileSystemNotConfiguredMessage       = "inventory file system not configured"
	manifestReaderNotConfiguredMessage   = "inventory manifest reader not configured"
	entrySkippedMessageConstant          = "workspace entry skipped"
	logFieldEntryConstant                = "entry"
	logFieldReasonConstant               = "reason"
	skipReasonNotDirectoryConstant       = "not a directory"
	skipReasonStatFailedTemplateConstant = "stat failed: %v"
	skipReasonManifestAbsentConstant     = "manifest absent"
	skipReasonManifestFailedTemplate     = "manifest unreadable: %v"
	skipReasonDuplicateTemplateConstant  = "duplicate of %s"
)

var (
	// ErrFileSystemNotConfigured indicates the scanner was constructed without a file system.
	ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessage)
	// ErrManifestReaderNotConfigured indicates the scanner was constructed without a manifest reader.
	ErrManifestReaderNotConfigured = errors.New(manifestReaderNotConfiguredMessage)
)

// ManifestReader reads the manifest stored at the root of a checkout.
type ManifestReader interface {
	Read(repositoryPath string) manifest.Lookup
}

// Options configures a workspace scan.
type Options struct {
	WorkspacePath   string
	RequireManifest bool
}

// SkippedEntry records a workspace entry excluded from the inventory.
type SkippedEntry struct {
	Name   string
	Reason string
}

// Inventory is the set of local checkouts discovered in the workspace.
type Inventory struct {
	names        mapset.Set[string]
	repositories map[string]shared.LocalRepository
	Skipped      []SkippedEntry
}

// NewInventory builds an inventory from local repository records.
func NewInventory(repositories ...shared.LocalRepository) Inventory {
	inventory := Inventory{
		names:        mapset.NewThreadUnsafeSet[string](),
		repositories: make(map[string]shared.LocalRepository, len(repositories)),
	}
	for _, repository := range repositories {
		inventory.add(repository)
	}
	return inventory
}

func (inventory *Inventory) add(repository shared.LocalRepository) {
	normalizedName := shared.NormalizeRepositoryName(repository.Name)
	inventory.names.Add(normalizedName)
	inventory.repositories[normalizedName] = repository
}

// Contains reports whether a checkout with the given name exists, ignoring case.
func (inventory Inventory) Contains(repositoryName string) bool {
	if inventory.names == nil {
		return false
	}
	return inventory.names.Contains(shared.NormalizeRepositoryName(repositoryName))
}

// Repository returns the record stored for the given name.
func (inventory Inventory) Repository(repositoryName string) (shared.LocalRepository, bool) {
	repository, exists := inventory.repositories[shared.NormalizeRepositoryName(repositoryName)]
	return repository, exists
}

// Names returns the sorted lower-cased names of all checkouts.
func (inventory Inventory) Names() []string {
	if inventory.names == nil {
		return nil
	}
	names := inventory.names.ToSlice()
	sort.Strings(names)
	return names
}

// Repositories returns the checkouts ordered by lower-cased name.
func (inventory Inventory) Repositories() []shared.LocalRepository {
	names := inventory.Names()
	repositories := make([]shared.LocalRepository, 0, len(names))
	for _, normalizedName := range names {
		repositories = append(repositories, inventory.repositories[normalizedName])
	}
	return repositories
}

// Size returns the number of checkouts.
func (inventory Inventory) Size() int {
	if inventory.names == nil {
		return 0
	}
	return inventory.names.Cardinality()
}

// Without returns a copy of the inventory excluding the given names.
func (inventory Inventory) Without(repositoryNames ...string) Inventory {
	excluded := mapset.NewThreadUnsafeSet[string]()
	for _, repositoryName := range repositoryNames {
		excluded.Add(shared.NormalizeRepositoryName(repositoryName))
	}
	remaining := make([]shared.LocalRepository, 0, len(inventory.repositories))
	for normalizedName, repository := range inventory.repositories {
		if excluded.Contains(normalizedName) {
			continue
		}
		remaining = append(remaining, repository)
	}
	filtered := NewInventory(remaining...)
	filtered.Skipped = append(filtered.Skipped, inventory.Skipped...)
	return filtered
}

// Scanner enumerates the immediate subdirectories of a workspace.
type Scanner struct {
	fileSystem     shared.FileSystem
	manifestReader ManifestReader
	logger         *zap.Logger
}

// NewScanner constructs a Scanner.
func NewScanner(fileSystem shared.FileSystem, manifestReader ManifestReader, logger *zap.Logger) (*Scanner, error) {
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if manifestReader == nil {
		return nil, ErrManifestReaderNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{fileSystem: fileSystem, manifestReader: manifestReader, logger: logger}, nil
}

// Scan lists the workspace. Failing to read the workspace itself fails the whole scan; problems with
// individual entries only exclude those entries.
func (scanner *Scanner) Scan(options Options) (Inventory, error) {
	directoryEntries, readError := scanner.fileSystem.ReadDir(options.WorkspacePath)
	if readError != nil {
		return Inventory{}, fmt.Errorf(workspaceReadErrorTemplateConstant, options.WorkspacePath, readError)
	}

	inventory := NewInventory()
	for _, directoryEntry := range directoryEntries {
		entryName := directoryEntry.Name()
		entryPath := filepath.Join(options.WorkspacePath, entryName)

		entryInfo, statError := scanner.fileSystem.Stat(entryPath)
		if statError != nil {
			inventory.skip(scanner.logger, entryName, fmt.Sprintf(skipReasonStatFailedTemplateConstant, statError))
			continue
		}
		if !entryInfo.IsDir() {
			inventory.skip(scanner.logger, entryName, skipReasonNotDirectoryConstant)
			continue
		}

		manifestLookup := scanner.manifestReader.Read(entryPath)
		if options.RequireManifest {
			switch manifestLookup.Status {
			case manifest.LookupAbsent:
				inventory.skip(scanner.logger, entryName, skipReasonManifestAbsentConstant)
				continue
			case manifest.LookupFailed:
				inventory.skip(scanner.logger, entryName, fmt.Sprintf(skipReasonManifestFailedTemplate, manifestLookup.Err))
				continue
			}
		}

		if existing, duplicate := inventory.Repository(entryName); duplicate {
			inventory.skip(scanner.logger, entryName, fmt.Sprintf(skipReasonDuplicateTemplateConstant, existing.Name))
			continue
		}

		inventory.add(shared.LocalRepository{
			Name:        entryName,
			Path:        entryPath,
			HasManifest: manifestLookup.Status == manifest.LookupPresent,
			Manifest:    manifestLookup.Manifest,
		})
	}

	return inventory, nil
}

func (inventory *Inventory) skip(logger *zap.Logger, entryName string, reason string) {
	inventory.Skipped = append(inventory.Skipped, SkippedEntry{Name: entryName, Reason: reason})
	logger.Debug(
		entrySkippedMessageConstant,
		zap.String(logFieldEntryConstant, entryName),
		zap.String(logFieldReasonConstant, reason),
	)
}

// ScanWorkspace scans workspacePath reading manifests named manifestFileName. Checkouts without a manifest are kept.
func ScanWorkspace(fileSystem shared.FileSystem, workspacePath string, manifestFileName string, logger *zap.Logger) (Inventory, error) {
	manifestReader, readerError := manifest.NewReader(fileSystem, manifestFileName)
	if readerError != nil {
		return Inventory{}, readerError
	}
	scanner, scannerError := NewScanner(fileSystem, manifestReader, logger)
	if scannerError != nil {
		return Inventory{}, scannerError
	}
	return scanner.Scan(Options{WorkspacePath: workspacePath})
}
