// Package ui renders command and work item progress as concise console messages
// while detailed telemetry keeps flowing through the structured logger.
package ui
