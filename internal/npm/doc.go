// Package npm runs dependency installation inside checkouts and answers
// version questions about npm packages: what a checkout declares, what it has
// installed and what the registry publishes as latest.
package npm
