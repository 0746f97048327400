// Package extension holds the registries that let applications plug their own
// programs (units of schedulable work) and the Go types of program inputs
// into the engine.
package extension
