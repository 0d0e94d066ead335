package manifest_test

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/orgsync/internal/manifest"
)

const (
	testManifestSubtestTemplateConstant = "%d_%s"
	testRepositoryPathConstant          = "/workspace/registry"
	testUnixManifestContentConstant     = "name = \"registry\"\ntype = \"Package\"\nplatform = \"unix\"\n"
	testDegradedManifestContentConstant = "name = \"legacy\"\ntype = \"Degraded\"\n"
	testInvalidManifestContentConstant  = "name = \n"
)

type stubFileReader struct {
	contents map[string]string
	failures map[string]error
}

func (reader stubFileReader) ReadFile(path string) ([]byte, error) {
	if failure, exists := reader.failures[path]; exists {
		return nil, failure
	}
	content, exists := reader.contents[path]
	if !exists {
		return nil, fs.ErrNotExist
	}
	return []byte(content), nil
}

func TestReaderRead(testInstance *testing.T) {
	manifestPath := filepath.Join(testRepositoryPathConstant, manifest.DefaultFileNameConstant)

	testCases := []struct {
		name           string
		fileReader     stubFileReader
		expectedStatus manifest.LookupStatus
		expectedType   string
	}{
		{
			name:           "present",
			fileReader:     stubFileReader{contents: map[string]string{manifestPath: testUnixManifestContentConstant}},
			expectedStatus: manifest.LookupPresent,
			expectedType:   "Package",
		},
		{
			name:           "absent",
			fileReader:     stubFileReader{},
			expectedStatus: manifest.LookupAbsent,
		},
		{
			name:           "unparsable",
			fileReader:     stubFileReader{contents: map[string]string{manifestPath: testInvalidManifestContentConstant}},
			expectedStatus: manifest.LookupFailed,
		},
		{
			name:           "permission_denied",
			fileReader:     stubFileReader{failures: map[string]error{manifestPath: fs.ErrPermission}},
			expectedStatus: manifest.LookupFailed,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testManifestSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			reader, creationError := manifest.NewReader(testCase.fileReader, "")
			require.NoError(testInstance, creationError)

			lookup := reader.Read(testRepositoryPathConstant)
			require.Equal(testInstance, testCase.expectedStatus, lookup.Status)
			if testCase.expectedStatus == manifest.LookupFailed {
				require.Error(testInstance, lookup.Err)
				return
			}
			require.NoError(testInstance, lookup.Err)
			require.Equal(testInstance, testCase.expectedType, lookup.Manifest.Type)
		})
	}
}

func TestNewReaderRequiresFileReader(testInstance *testing.T) {
	reader, creationError := manifest.NewReader(nil, manifest.DefaultFileNameConstant)
	require.ErrorIs(testInstance, creationError, manifest.ErrFileReaderNotConfigured)
	require.Nil(testInstance, reader)
}

func TestManifestSupportsOperatingSystem(testInstance *testing.T) {
	testCases := []struct {
		name            string
		platform        string
		operatingSystem string
		expectSupported bool
	}{
		{name: "unix_on_linux", platform: "unix", operatingSystem: "linux", expectSupported: true},
		{name: "unix_on_windows", platform: "UNIX", operatingSystem: "windows", expectSupported: false},
		{name: "windows_on_darwin", platform: "win32", operatingSystem: "darwin", expectSupported: false},
		{name: "windows_on_windows", platform: "windows", operatingSystem: "windows", expectSupported: true},
		{name: "unspecified", platform: "", operatingSystem: "windows", expectSupported: true},
		{name: "unknown_value", platform: "beos", operatingSystem: "linux", expectSupported: true},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testManifestSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			candidate := manifest.Manifest{Platform: testCase.platform}
			require.Equal(testInstance, testCase.expectSupported, candidate.SupportsOperatingSystem(testCase.operatingSystem))
		})
	}
}

func TestParseDetectsDegradedProjects(testInstance *testing.T) {
	parsed, parseError := manifest.Parse([]byte(testDegradedManifestContentConstant))
	require.NoError(testInstance, parseError)
	require.True(testInstance, parsed.IsDegraded())
	require.Equal(testInstance, "legacy", parsed.Name)
}
