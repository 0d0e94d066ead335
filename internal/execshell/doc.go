// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with logging and lifecycle events;
// OSCommandRunner is the default os/exec backed runner. orgsync uses it to run
// npm inside each checkout.
package execshell
