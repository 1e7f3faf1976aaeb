// Package lifetime implements the explicit half of chunk lifetime
// management (persist!/free!) plus the Computed wrapper whose finalizer
// hands off to a bounded background queue instead of blocking inside the
// garbage collector's finalizer goroutine.
package lifetime
