// Package prompt asks the operator for yes/no confirmation on a terminal.
package prompt
