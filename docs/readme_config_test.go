package docs_test

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/orgsync/cmd/cli"
)

const (
	readmeFileNameConstant           = "README.md"
	yamlFenceStartConstant           = "```yaml"
	yamlFenceEndConstant             = "```"
	configHeaderMarkerConstant       = "# config.yaml"
	parentDirectoryReferenceConstant = ".."
	keySeparatorConstant             = "."
	missingHeaderMessageConstant     = "README example missing config header marker"
	missingStartFenceMessageConstant = "README example missing yaml fence start"
	missingEndFenceMessageConstant   = "README example missing yaml fence end"
)

func TestReadmeConfigurationUsesKnownKeys(testInstance *testing.T) {
	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	readmePath := filepath.Join(workingDirectory, parentDirectoryReferenceConstant, readmeFileNameConstant)
	contentBytes, readError := os.ReadFile(readmePath)
	require.NoError(testInstance, readError)

	contentText := string(contentBytes)
	headerIndex := strings.Index(contentText, configHeaderMarkerConstant)
	require.NotEqual(testInstance, -1, headerIndex, missingHeaderMessageConstant)

	fenceStartIndex := strings.LastIndex(contentText[:headerIndex], yamlFenceStartConstant)
	require.NotEqual(testInstance, -1, fenceStartIndex, missingStartFenceMessageConstant)

	remainingText := contentText[headerIndex:]
	fenceEndRelativeIndex := strings.Index(remainingText, yamlFenceEndConstant)
	require.NotEqual(testInstance, -1, fenceEndRelativeIndex, missingEndFenceMessageConstant)
	fenceEndIndex := headerIndex + fenceEndRelativeIndex

	snippetContent := strings.TrimSpace(contentText[fenceStartIndex+len(yamlFenceStartConstant) : fenceEndIndex])

	var readmeConfiguration map[string]any
	require.NoError(testInstance, yaml.Unmarshal([]byte(snippetContent), &readmeConfiguration))

	embeddedContent, _ := cli.EmbeddedDefaultConfiguration()
	var embeddedConfiguration map[string]any
	require.NoError(testInstance, yaml.Unmarshal(embeddedContent, &embeddedConfiguration))

	knownKeys := collectKeys("", embeddedConfiguration)
	readmeKeys := collectKeys("", readmeConfiguration)
	require.NotEmpty(testInstance, readmeKeys)
	for _, readmeKey := range readmeKeys {
		require.Contains(testInstance, knownKeys, readmeKey)
	}
}

func collectKeys(prefix string, document map[string]any) []string {
	keys := make([]string, 0, len(document))
	for key, value := range document {
		qualifiedKey := key
		if len(prefix) > 0 {
			qualifiedKey = prefix + keySeparatorConstant + key
		}
		if nested, isMap := value.(map[string]any); isMap {
			keys = append(keys, collectKeys(qualifiedKey, nested)...)
			continue
		}
		keys = append(keys, qualifiedKey)
	}
	sort.Strings(keys)
	return keys
}
