package prompt

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"sync"
)

const (
	promptSuffixConstant     = " [y/N] "
	shortAffirmativeConstant = "y"
	longAffirmativeConstant  = "yes"
)

// IOConfirmationPrompter reads yes/no answers from an input stream. Prompts are serialized so
// concurrent callers never interleave on the terminal.
type IOConfirmationPrompter struct {
	mutex  sync.Mutex
	reader *bufio.Reader
	writer io.Writer
}

// NewIOConfirmationPrompter constructs a prompter from the provided reader and writer.
func NewIOConfirmationPrompter(input io.Reader, output io.Writer) *IOConfirmationPrompter {
	return &IOConfirmationPrompter{reader: bufio.NewReader(input), writer: output}
}

// Confirm writes the prompt followed by a [y/N] hint and accepts y or yes. End of input counts as no.
func (prompter *IOConfirmationPrompter) Confirm(prompt string) (bool, error) {
	prompter.mutex.Lock()
	defer prompter.mutex.Unlock()

	if prompter.writer != nil {
		if _, writeError := io.WriteString(prompter.writer, strings.TrimRight(prompt, " ")+promptSuffixConstant); writeError != nil {
			return false, writeError
		}
	}

	response, readError := prompter.reader.ReadString('\n')
	if readError != nil && !errors.Is(readError, io.EOF) {
		return false, readError
	}

	switch strings.ToLower(strings.TrimSpace(response)) {
	case shortAffirmativeConstant, longAffirmativeConstant:
		return true, nil
	default:
		return false, nil
	}
}
