// Package pipeline runs a graph of file producing tasks.
//
// Each task names the tasks it depends on and the files it produces. To build a target, the
// pipeline walks the graph from the target towards its dependencies and stops at every task whose
// outputs already exist: such a task is complete, and nothing it depends on needs to run. The
// remaining tasks run one after the other, dependencies first, and the run stops on the first
// error.
//
// Since completeness is decided from what is on disk, running the same target twice only does
// the work once, and a run interrupted by a failure resumes from the first incomplete task.
//
// Options implementing model.PipelineOption are notified of every task outcome, which is how
// durations are measured (package measure) and how the graph is drawn (package drawer).
package pipeline
