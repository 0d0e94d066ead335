// Package flags binds the flags shared by orgsync commands.
package flags

import (
	"strings"

	"github.com/spf13/cobra"
)

const (
	// PickFlagName restricts a run to named repositories.
	PickFlagName = "pick"
	// PickFlagShorthand is the shorthand of PickFlagName.
	PickFlagShorthand = "p"
	// PickFlagUsage describes PickFlagName.
	PickFlagUsage = "Restrict the run to these repositories (repeatable, comma separated, typos tolerated)"
	// AssumeYesFlagName skips confirmation prompts.
	AssumeYesFlagName = "yes"
	// AssumeYesFlagShorthand is the shorthand of AssumeYesFlagName.
	AssumeYesFlagShorthand = "y"
	// AssumeYesFlagUsage describes AssumeYesFlagName.
	AssumeYesFlagUsage = "Automatically confirm prompts"
	// FormatFlagName selects a report encoding.
	FormatFlagName = "format"
	// FormatFlagUsage describes FormatFlagName.
	FormatFlagUsage = "Report format; defaults to a table on terminals and JSON otherwise"
)

// BindPickList attaches the repeatable --pick flag.
func BindPickList(command *cobra.Command) {
	if command == nil {
		return
	}
	command.Flags().StringSliceP(PickFlagName, PickFlagShorthand, nil, PickFlagUsage)
}

// PickList returns the trimmed, non-empty --pick values.
func PickList(command *cobra.Command) ([]string, error) {
	values, valuesError := command.Flags().GetStringSlice(PickFlagName)
	if valuesError != nil {
		return nil, valuesError
	}
	pickList := make([]string, 0, len(values))
	for _, value := range values {
		trimmedValue := strings.TrimSpace(value)
		if len(trimmedValue) == 0 {
			continue
		}
		pickList = append(pickList, trimmedValue)
	}
	return pickList, nil
}

// BindAssumeYes attaches the --yes flag.
func BindAssumeYes(command *cobra.Command) {
	if command == nil {
		return
	}
	command.Flags().BoolP(AssumeYesFlagName, AssumeYesFlagShorthand, false, AssumeYesFlagUsage)
}

// AssumeYes reports whether --yes was set.
func AssumeYes(command *cobra.Command) (bool, error) {
	return command.Flags().GetBool(AssumeYesFlagName)
}

// BindFormat attaches the --format flag listing the accepted choices. An empty value selects automatic detection.
func BindFormat(command *cobra.Command, defaultChoice string, choices []string) {
	if command == nil {
		return
	}
	command.Flags().String(FormatFlagName, "", FormatChoiceUsage(defaultChoice, choices, FormatFlagUsage))
}

// Format returns the raw --format value.
func Format(command *cobra.Command) (string, error) {
	return command.Flags().GetString(FormatFlagName)
}
