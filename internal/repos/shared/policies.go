package shared

// ConfirmationPolicy specifies how executors should handle user confirmations.
type ConfirmationPolicy int

const (
	// ConfirmationPrompt indicates the executor should prompt the user.
	ConfirmationPrompt ConfirmationPolicy = iota
	// ConfirmationAssumeYes indicates the executor should continue without prompting.
	ConfirmationAssumeYes
)

// ConfirmationPolicyFromBool converts the --yes flag into a policy.
func ConfirmationPolicyFromBool(assumeYes bool) ConfirmationPolicy {
	if assumeYes {
		return ConfirmationAssumeYes
	}
	return ConfirmationPrompt
}

// ShouldPrompt reports whether the executor must prompt the user.
func (policy ConfirmationPolicy) ShouldPrompt() bool {
	return policy != ConfirmationAssumeYes
}

// InstallPolicy describes whether dependency installation follows clone or pull.
type InstallPolicy int

const (
	// InstallAsk defers the decision to a confirmation prompt.
	InstallAsk InstallPolicy = iota
	// InstallAlways runs dependency installation after every clone or pull.
	InstallAlways
	// InstallNever skips dependency installation.
	InstallNever
)

// InstallPolicyFromFlags converts --install/--skip-install flag values into a policy.
func InstallPolicyFromFlags(installChanged bool, installValue bool) InstallPolicy {
	if !installChanged {
		return InstallAsk
	}
	if installValue {
		return InstallAlways
	}
	return InstallNever
}
