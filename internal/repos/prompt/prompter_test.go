package prompt_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/orgsync/internal/repos/prompt"
)

func TestIOConfirmationPrompter(testInstance *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "short_yes", input: "y\n", expected: true},
		{name: "long_yes_mixed_case", input: "  YeS \n", expected: true},
		{name: "explicit_no", input: "n\n", expected: false},
		{name: "empty_line_defaults_to_no", input: "\n", expected: false},
		{name: "end_of_input_without_newline", input: "yes", expected: true},
		{name: "end_of_input", input: "", expected: false},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtest *testing.T) {
			var output bytes.Buffer
			prompter := prompt.NewIOConfirmationPrompter(strings.NewReader(testCase.input), &output)

			confirmed, confirmError := prompter.Confirm("Sync 3 repositories into /workspace?")
			require.NoError(subtest, confirmError)
			require.Equal(subtest, testCase.expected, confirmed)
			require.Equal(subtest, "Sync 3 repositories into /workspace? [y/N] ", output.String())
		})
	}
}

func TestIOConfirmationPrompterReadsSequentialAnswers(testInstance *testing.T) {
	prompter := prompt.NewIOConfirmationPrompter(strings.NewReader("y\nn\n"), nil)

	first, firstError := prompter.Confirm("Pull?")
	require.NoError(testInstance, firstError)
	require.True(testInstance, first)

	second, secondError := prompter.Confirm("Install?")
	require.NoError(testInstance, secondError)
	require.False(testInstance, second)
}
