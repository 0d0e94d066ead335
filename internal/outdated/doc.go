// Package outdated reports npm dependencies of workspace checkouts that lag behind the registry.
package outdated
