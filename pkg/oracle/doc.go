// Package oracle defines the layout oracle contract.
//
// A layout oracle receives the projected tree of sized nodes together with
// the edges attached at each scope and returns the same tree annotated with
// positions and edge routes. All coordinates are relative: a node's position
// is in its parent's frame, and an edge's sections are in the frame of the
// node whose scope owns the edge. The top level is wrapped in a synthetic
// node with id [RootID].
//
// Results are consumed by package compose, which tolerates missing positions
// and missing routes. Oracles are expected to be deterministic for a given
// [Request], which is what makes [Cached] sound.
//
// Implementations:
//
//   - oracle/layered: in-process layered layout on gonum graphs
//   - oracle/graphviz: Graphviz dot via go-graphviz
//
// Wrap any implementation with [NewCached] to memoize results in a
// [cache.Cache], keyed by the hash of the request.
package oracle
