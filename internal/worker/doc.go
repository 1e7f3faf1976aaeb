// Package worker implements the single remote operation the scheduler
// depends on, do_task, plus the master-side launcher (async_apply) and
// transport that turns a blocking RPC into a completion delivered on a
// shared channel. A Worker owns a ChunkStore: the only place materialized
// data actually lives.
package worker
