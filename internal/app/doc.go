// Package app holds the process configuration and builds the dependency
// graph for the hub binary.
package app
