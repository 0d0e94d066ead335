// Package report renders command reports as tables, JSON or YAML.
//
// Table output targets interactive terminals; JSON is selected automatically when standard output is
// redirected and no explicit format was requested.
package report
