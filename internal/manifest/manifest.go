package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	// DefaultFileNameConstant is the manifest file looked up at the root of each repository.
	DefaultFileNameConstant = "slimio.toml"
	// TypeDegradedConstant marks projects excluded from policy checks.
	TypeDegradedConstant = "Degraded"

	platformAnyConstant            = "any"
	platformAllConstant            = "all"
	platformUnixConstant           = "unix"
	platformWindowsConstant        = "windows"
	platformWin32Constant          = "win32"
	windowsOperatingSystemConstant = "windows"
	manifestParseErrorTemplate     = "unable to parse manifest %s: %w"
	manifestReadErrorTemplate      = "unable to read manifest %s: %w"
	fileReaderNotConfiguredMessage = "manifest file reader not configured"
	lookupStatusPresentLabel       = "present"
	lookupStatusAbsentLabel        = "absent"
	lookupStatusFailedLabel        = "failed"
)

// ErrFileReaderNotConfigured indicates the reader was constructed without a file reader.
var ErrFileReaderNotConfigured = errors.New(fileReaderNotConfiguredMessage)

// Manifest holds the fields of slimio.toml consumed by orgsync.
type Manifest struct {
	Name     string `toml:"name"`
	Version  string `toml:"version"`
	Type     string `toml:"type"`
	Platform string `toml:"platform"`
}

// Parse decodes manifest content.
func Parse(content []byte) (Manifest, error) {
	var decoded Manifest
	if decodeError := toml.Unmarshal(content, &decoded); decodeError != nil {
		return Manifest{}, decodeError
	}
	decoded.Type = strings.TrimSpace(decoded.Type)
	decoded.Platform = strings.TrimSpace(decoded.Platform)
	return decoded, nil
}

// SupportsOperatingSystem reports whether the manifest allows the project on the given GOOS value.
func (manifest Manifest) SupportsOperatingSystem(operatingSystem string) bool {
	isWindows := strings.EqualFold(operatingSystem, windowsOperatingSystemConstant)
	switch strings.ToLower(manifest.Platform) {
	case platformUnixConstant:
		return !isWindows
	case platformWindowsConstant, platformWin32Constant:
		return isWindows
	case "", platformAnyConstant, platformAllConstant:
		return true
	default:
		return true
	}
}

// IsDegraded reports whether the manifest opts the project out of policy checks.
func (manifest Manifest) IsDegraded() bool {
	return strings.EqualFold(manifest.Type, TypeDegradedConstant)
}

// LookupStatus distinguishes a missing manifest from one that could not be checked.
type LookupStatus int

// Supported lookup statuses.
const (
	LookupPresent LookupStatus = iota
	LookupAbsent
	LookupFailed
)

// String returns a log friendly label.
func (status LookupStatus) String() string {
	switch status {
	case LookupPresent:
		return lookupStatusPresentLabel
	case LookupAbsent:
		return lookupStatusAbsentLabel
	default:
		return lookupStatusFailedLabel
	}
}

// Lookup is the result of locating and parsing a manifest.
type Lookup struct {
	Status   LookupStatus
	Manifest Manifest
	Err      error
}

// Present builds a successful lookup.
func Present(manifest Manifest) Lookup {
	return Lookup{Status: LookupPresent, Manifest: manifest}
}

// Absent builds a lookup for a repository without a manifest.
func Absent() Lookup {
	return Lookup{Status: LookupAbsent}
}

// Failed builds a lookup for a manifest that could not be read or parsed.
func Failed(failure error) Lookup {
	return Lookup{Status: LookupFailed, Err: failure}
}

// FileReader reads files from disk.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// Reader locates manifests inside local checkouts.
type Reader struct {
	fileReader FileReader
	fileName   string
}

// NewReader constructs a Reader for the given manifest file name.
func NewReader(fileReader FileReader, fileName string) (*Reader, error) {
	if fileReader == nil {
		return nil, ErrFileReaderNotConfigured
	}
	trimmedFileName := strings.TrimSpace(fileName)
	if len(trimmedFileName) == 0 {
		trimmedFileName = DefaultFileNameConstant
	}
	return &Reader{fileReader: fileReader, fileName: trimmedFileName}, nil
}

// FileName returns the manifest file name the reader looks for.
func (reader *Reader) FileName() string {
	return reader.fileName
}

// Read loads the manifest stored at the root of repositoryPath.
func (reader *Reader) Read(repositoryPath string) Lookup {
	manifestPath := filepath.Join(repositoryPath, reader.fileName)
	content, readError := reader.fileReader.ReadFile(manifestPath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return Absent()
		}
		return Failed(fmt.Errorf(manifestReadErrorTemplate, manifestPath, readError))
	}
	return ParseLookup(manifestPath, content)
}

// ParseLookup converts raw manifest content into a Lookup.
func ParseLookup(source string, content []byte) Lookup {
	parsedManifest, parseError := Parse(content)
	if parseError != nil {
		return Failed(fmt.Errorf(manifestParseErrorTemplate, source, parseError))
	}
	return Present(parsedManifest)
}
