package execshell

// CommandEventObserver receives lifecycle notifications for shell command execution.
type CommandEventObserver interface {
	CommandStarted(command ShellCommand)
	// CommandCompleted receives every result with an exit code, including non-zero ones.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed reports commands that never produced an exit code.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// CommandEventObservers fans every event out to its members in order.
type CommandEventObservers []CommandEventObserver

// NewCommandEventObservers drops nil observers.
func NewCommandEventObservers(observers ...CommandEventObserver) CommandEventObservers {
	retained := make(CommandEventObservers, 0, len(observers))
	for _, observer := range observers {
		if observer != nil {
			retained = append(retained, observer)
		}
	}
	return retained
}

// CommandStarted implements CommandEventObserver.
func (observers CommandEventObservers) CommandStarted(command ShellCommand) {
	for _, observer := range observers {
		observer.CommandStarted(command)
	}
}

// CommandCompleted implements CommandEventObserver.
func (observers CommandEventObservers) CommandCompleted(command ShellCommand, result ExecutionResult) {
	for _, observer := range observers {
		observer.CommandCompleted(command, result)
	}
}

// CommandExecutionFailed implements CommandEventObserver.
func (observers CommandEventObservers) CommandExecutionFailed(command ShellCommand, failure error) {
	for _, observer := range observers {
		observer.CommandExecutionFailed(command, failure)
	}
}
