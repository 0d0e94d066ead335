package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Format names an output encoding.
type Format string

// Supported formats.
const (
	FormatTable Format = Format("table")
	FormatJSON  Format = Format("json")
	FormatYAML  Format = Format("yaml")
)

const (
	unsupportedFormatTemplateConstant = "invalid format %q: must be one of %s"
	formatListSeparatorConstant       = ", "
)

// AllFormats lists every supported format.
var AllFormats = []Format{FormatTable, FormatJSON, FormatYAML}

// StructuredFormats lists the formats available to reports without a tabular shape.
var StructuredFormats = []Format{FormatJSON, FormatYAML}

// FormatNames converts formats into their flag values.
func FormatNames(formats []Format) []string {
	names := make([]string, 0, len(formats))
	for _, format := range formats {
		names = append(names, string(format))
	}
	return names
}

// UnsupportedFormatError reports a format outside of the allowed set.
type UnsupportedFormatError struct {
	Value   string
	Allowed []Format
}

// Error describes the rejected format.
func (formatError UnsupportedFormatError) Error() string {
	allowedNames := make([]string, 0, len(formatError.Allowed))
	for _, allowed := range formatError.Allowed {
		allowedNames = append(allowedNames, string(allowed))
	}
	return fmt.Sprintf(unsupportedFormatTemplateConstant, formatError.Value, strings.Join(allowedNames, formatListSeparatorConstant))
}

// ParseFormat validates a user supplied format against allowed. An empty allowed list accepts every format.
func ParseFormat(value string, allowed ...Format) (Format, error) {
	if len(allowed) == 0 {
		allowed = AllFormats
	}
	candidate := Format(strings.ToLower(strings.TrimSpace(value)))
	for _, allowedFormat := range allowed {
		if candidate == allowedFormat {
			return candidate, nil
		}
	}
	return "", UnsupportedFormatError{Value: value, Allowed: allowed}
}

// DetectFormat returns the explicit format when one is given. Otherwise the first allowed format is used on
// terminals and JSON everywhere else.
func DetectFormat(explicit string, output io.Writer, allowed ...Format) (Format, error) {
	if len(allowed) == 0 {
		allowed = AllFormats
	}
	if len(strings.TrimSpace(explicit)) > 0 {
		return ParseFormat(explicit, allowed...)
	}
	if IsTerminal(output) {
		return allowed[0], nil
	}
	return FormatJSON, nil
}

// IsTerminal reports whether output is an interactive terminal.
func IsTerminal(output io.Writer) bool {
	file, isFile := output.(*os.File)
	if !isFile || file == nil {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
