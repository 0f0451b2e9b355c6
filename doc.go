// Package diskann implements the on-disk representation of a graph-based
// approximate nearest neighbor index (Vamana/DiskANN-style): a directed
// proximity graph over N vector points, persisted as a single
// self-describing binary artifact.
//
// The artifact is produced once by a Writer and thereafter read by any
// number of independent Views, each a single-threaded, random-access
// cursor over the same immutable byte image. Concurrency is left to the
// caller: obtain one View per goroutine via Duplicate.
package diskann
