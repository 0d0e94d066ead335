// Package staleness decides whether a local checkout lags its remote primary
// branch by comparing the latest commit on each side.
package staleness
