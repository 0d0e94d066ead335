package report_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/orgsync/internal/report"
)

type sampleRow struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

type sampleDocument struct {
	Rows   []sampleRow `json:"rows" yaml:"rows"`
	Errors []string    `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func (document sampleDocument) Table() report.Table {
	table := report.Table{
		Headers:    []string{"name", "count"},
		Alignments: []report.Alignment{report.AlignLeft, report.AlignRight},
		Footnotes:  document.Errors,
	}
	for _, row := range document.Rows {
		table.Rows = append(table.Rows, []string{row.Name, fmt.Sprint(row.Count)})
	}
	return table
}

func TestParseFormat(testInstance *testing.T) {
	testCases := []struct {
		name           string
		value          string
		allowed        []report.Format
		expectedFormat report.Format
		expectError    bool
	}{
		{name: "table", value: "table", expectedFormat: report.FormatTable},
		{name: "upper_case_json", value: " JSON ", expectedFormat: report.FormatJSON},
		{name: "yaml", value: "yaml", expectedFormat: report.FormatYAML},
		{name: "unknown", value: "xml", expectError: true},
		{name: "table_not_allowed", value: "table", allowed: report.StructuredFormats, expectError: true},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtest *testing.T) {
			format, parseError := report.ParseFormat(testCase.value, testCase.allowed...)
			if testCase.expectError {
				require.Error(subtest, parseError)
				require.ErrorAs(subtest, parseError, &report.UnsupportedFormatError{})
				return
			}
			require.NoError(subtest, parseError)
			require.Equal(subtest, testCase.expectedFormat, format)
		})
	}
}

func TestDetectFormat(testInstance *testing.T) {
	format, detectError := report.DetectFormat("", &bytes.Buffer{})
	require.NoError(testInstance, detectError)
	require.Equal(testInstance, report.FormatJSON, format)

	format, detectError = report.DetectFormat("yaml", &bytes.Buffer{})
	require.NoError(testInstance, detectError)
	require.Equal(testInstance, report.FormatYAML, format)

	_, detectError = report.DetectFormat("table", &bytes.Buffer{}, report.StructuredFormats...)
	require.Error(testInstance, detectError)

	require.False(testInstance, report.IsTerminal(&bytes.Buffer{}))
}

func TestWrite(testInstance *testing.T) {
	document := sampleDocument{
		Rows:   []sampleRow{{Name: "registry", Count: 3}, {Name: "core", Count: 1}},
		Errors: []string{"broken: unable to read package.json"},
	}

	testInstance.Run("json", func(subtest *testing.T) {
		var output bytes.Buffer
		require.NoError(subtest, report.Write(&output, report.FormatJSON, document))

		var decoded sampleDocument
		require.NoError(subtest, json.Unmarshal(output.Bytes(), &decoded))
		require.Equal(subtest, document, decoded)
	})

	testInstance.Run("yaml", func(subtest *testing.T) {
		var output bytes.Buffer
		require.NoError(subtest, report.Write(&output, report.FormatYAML, document))

		var decoded sampleDocument
		require.NoError(subtest, yaml.Unmarshal(output.Bytes(), &decoded))
		require.Equal(subtest, document, decoded)
	})

	testInstance.Run("table", func(subtest *testing.T) {
		var output bytes.Buffer
		require.NoError(subtest, report.Write(&output, report.FormatTable, document))

		rendered := output.String()
		require.Contains(subtest, rendered, "registry")
		require.Contains(subtest, rendered, "core")
		require.Contains(subtest, rendered, "broken: unable to read package.json")
	})

	testInstance.Run("empty_table", func(subtest *testing.T) {
		var output bytes.Buffer
		require.NoError(subtest, report.Write(&output, report.FormatTable, sampleDocument{}))
		require.Equal(subtest, "nothing to report\n", output.String())
	})

	testInstance.Run("table_unsupported", func(subtest *testing.T) {
		var output bytes.Buffer
		writeError := report.Write(&output, report.FormatTable, map[string]any{"name": "core"})
		require.ErrorIs(subtest, writeError, report.ErrTableUnsupported)
	})
}

func TestEmit(testInstance *testing.T) {
	document := sampleDocument{Rows: []sampleRow{{Name: "core", Count: 2}}}

	var output bytes.Buffer
	require.NoError(testInstance, report.Emit(&output, "", document))
	var decoded sampleDocument
	require.NoError(testInstance, json.Unmarshal(output.Bytes(), &decoded))
	require.Equal(testInstance, document, decoded)

	output.Reset()
	require.NoError(testInstance, report.Emit(&output, "table", document))
	require.Contains(testInstance, output.String(), "core")

	output.Reset()
	emitError := report.Emit(&output, "xml", document)
	var formatError report.UnsupportedFormatError
	require.ErrorAs(testInstance, emitError, &formatError)
	require.Empty(testInstance, output.String())
}
