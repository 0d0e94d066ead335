package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	toggleTrueCanonicalValue  = "true"
	toggleFalseCanonicalValue = "false"
	toggleParseErrorTemplate  = "invalid toggle value %q"
	toggleUsageTemplate       = "`%s` %s"
	toggleTruePlaceholder     = "<YES|no>"
	toggleFalsePlaceholder    = "<yes|NO>"
	toggleTypeName            = "bool"
)

var toggleLiterals = map[string]bool{
	"true": true, "yes": true, "on": true, "1": true, "y": true, "t": true,
	"false": false, "no": false, "off": false, "0": false, "n": false, "f": false,
}

// AddToggleFlag registers a boolean flag that accepts yes/no style values through --name=value.
// A bare --name sets the flag to true.
func AddToggleFlag(flagSet *pflag.FlagSet, name string, defaultValue bool, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}
	flagSet.Var(&toggleValue{current: defaultValue}, name, usage)
	flag := flagSet.Lookup(name)
	flag.NoOptDefVal = toggleTrueCanonicalValue
	placeholder := toggleFalsePlaceholder
	if defaultValue {
		placeholder = toggleTruePlaceholder
	}
	flag.Usage = fmt.Sprintf(toggleUsageTemplate, placeholder, strings.TrimSpace(usage))
}

// ToggleState reports whether a toggle was set on the command line and its value.
func ToggleState(flagSet *pflag.FlagSet, name string) (bool, bool, error) {
	flag := flagSet.Lookup(name)
	if flag == nil {
		return false, false, fmt.Errorf("flag accessed but not defined: %s", name)
	}
	value, parseError := ParseToggle(flag.Value.String())
	if parseError != nil {
		return false, false, parseError
	}
	return flag.Changed, value, nil
}

// ParseToggle interprets yes/no, on/off, true/false and 1/0 case-insensitively. An empty value is true.
func ParseToggle(rawValue string) (bool, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if len(normalizedValue) == 0 {
		return true, nil
	}
	value, known := toggleLiterals[normalizedValue]
	if !known {
		return false, fmt.Errorf(toggleParseErrorTemplate, rawValue)
	}
	return value, nil
}

type toggleValue struct {
	current bool
}

func (value *toggleValue) Set(rawValue string) error {
	parsedValue, parseError := ParseToggle(rawValue)
	if parseError != nil {
		return parseError
	}
	value.current = parsedValue
	return nil
}

func (value *toggleValue) String() string {
	if value.current {
		return toggleTrueCanonicalValue
	}
	return toggleFalseCanonicalValue
}

func (value *toggleValue) Type() string {
	return toggleTypeName
}
