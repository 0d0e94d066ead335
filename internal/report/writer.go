package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"gopkg.in/yaml.v3"
)

const (
	jsonIndentConstant              = "  "
	yamlIndentConstant              = 2
	newlineConstant                 = "\n"
	tableUnsupportedMessageConstant = "report cannot be rendered as a table"
	encodeFailedTemplateConstant    = "unable to encode %s report: %w"
	emptyTableMessageConstant       = "nothing to report"
)

// ErrTableUnsupported indicates a table was requested for a document without a tabular shape.
var ErrTableUnsupported = errors.New(tableUnsupportedMessageConstant)

// Alignment positions the cells of a column.
type Alignment int

// Column alignments.
const (
	AlignLeft Alignment = iota
	AlignRight
)

// Table is the tabular projection of a report.
type Table struct {
	Headers    []string
	Rows       [][]string
	Alignments []Alignment
	// Footnotes are printed below the rendered table, one per line.
	Footnotes []string
}

// Tabular is implemented by documents that can be rendered as a table.
type Tabular interface {
	Table() Table
}

// Write encodes document in the requested format.
func Write(output io.Writer, format Format, document any) error {
	switch format {
	case FormatJSON:
		encoded, encodeError := json.MarshalIndent(document, "", jsonIndentConstant)
		if encodeError != nil {
			return fmt.Errorf(encodeFailedTemplateConstant, format, encodeError)
		}
		if _, writeError := output.Write(append(encoded, newlineConstant...)); writeError != nil {
			return writeError
		}
		return nil
	case FormatYAML:
		encoder := yaml.NewEncoder(output)
		encoder.SetIndent(yamlIndentConstant)
		if encodeError := encoder.Encode(document); encodeError != nil {
			return fmt.Errorf(encodeFailedTemplateConstant, format, encodeError)
		}
		return encoder.Close()
	case FormatTable:
		tabularDocument, isTabular := document.(Tabular)
		if !isTabular {
			return ErrTableUnsupported
		}
		return WriteTable(output, tabularDocument.Table())
	default:
		return UnsupportedFormatError{Value: string(format), Allowed: AllFormats}
	}
}

// Emit selects the format with DetectFormat and writes document.
func Emit(output io.Writer, explicitFormat string, document any, allowed ...Format) error {
	format, formatError := DetectFormat(explicitFormat, output, allowed...)
	if formatError != nil {
		return formatError
	}
	return Write(output, format, document)
}

// WriteTable renders table followed by its footnotes.
func WriteTable(output io.Writer, table Table) error {
	if len(table.Rows) == 0 {
		if _, writeError := fmt.Fprintln(output, emptyTableMessageConstant); writeError != nil {
			return writeError
		}
	} else if renderError := renderTable(output, table); renderError != nil {
		return renderError
	}

	for _, footnote := range table.Footnotes {
		if _, writeError := fmt.Fprintln(output, footnote); writeError != nil {
			return writeError
		}
	}
	return nil
}

func renderTable(output io.Writer, table Table) error {
	configuration := tablewriter.Config{}
	if len(table.Alignments) > 0 {
		columnAlignments := make([]tw.Align, len(table.Alignments))
		for columnIndex, alignment := range table.Alignments {
			columnAlignments[columnIndex] = tw.AlignLeft
			if alignment == AlignRight {
				columnAlignments[columnIndex] = tw.AlignRight
			}
		}
		configuration.Header.Alignment = tw.CellAlignment{PerColumn: columnAlignments}
		configuration.Row.Alignment = tw.CellAlignment{PerColumn: columnAlignments}
	}

	writer := tablewriter.NewTable(output, tablewriter.WithConfig(configuration))
	if len(table.Headers) > 0 {
		writer.Header(toCells(table.Headers)...)
	}
	for _, row := range table.Rows {
		if appendError := writer.Append(toCells(row)...); appendError != nil {
			return appendError
		}
	}
	return writer.Render()
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for valueIndex, value := range values {
		cells[valueIndex] = value
	}
	return cells
}
