// Package policy evaluates project-structure rules against workspace checkouts.
//
// Critical findings describe checkouts npm tooling cannot work with; warnings describe missing project
// conventions. Checkouts whose manifest is typed Degraded opt out of the evaluation.
package policy
