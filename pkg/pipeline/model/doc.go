// Package model provides the data structures shared by the pipeline package and its options.
// It defines the description of a task in the graph, the states a task goes through during a run,
// and the hooks a pipeline option can implement.
package model
