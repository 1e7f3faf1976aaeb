// Package task provides the "leaf computation" extension point the design
// notes describe as user-defined and knowing how to stage itself: Apply
// names a registered Func and a set of argument Computations, the in-
// process analogue of a declarative task's name/run pair, staged as a
// worker-bound Thunk rather than shelled out to a command.
package task
