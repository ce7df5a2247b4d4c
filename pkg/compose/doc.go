// Package compose flattens a hierarchical layout result into a render model.
//
// Layout oracles report every position relative to the parent's origin and
// every edge route relative to the node owning the edge. [Flatten] walks
// the result depth first, accumulating absolute origins, and produces flat
// lists of nodes and edges in one absolute coordinate space:
//
//	model, events := compose.Flatten(root, func(id string) { view.Toggle(ctx, id) })
//
// The synthetic root wrapper ([oracle.RootID]) is skipped. Nodes and edges
// are de-duplicated by id with the first occurrence winning; nodes come out
// in pre-order and edges from the deepest scope first. Missing positions
// fall back to the parent's origin and missing routes to a straight line
// between the endpoint centers.
//
// Activation is a side channel: the model carries a single [ActivateFunc]
// and marks nodes that have children as activatable, rather than storing a
// callback on every node.
package compose
