// Package project implements the visibility projector.
//
// The projector turns a raw node forest, its edge list and a
// [visibility.Set] into a layout request: a tree containing only visible
// nodes, each with a display size and label, and an edge list whose
// endpoints all name visible nodes.
//
// # Visibility
//
// A node is open when it has children and its id is expanded. The children
// of an open node are visible; the subtree of a closed node is not. Every
// node has a representative: itself when visible, otherwise its highest
// closed ancestor. Edge endpoints are rewritten to their representative, so
// rewriting is transitive through any number of collapsed levels.
//
// # Edge Scopes
//
// Each surviving edge is attached at exactly one scope: the lowest open node
// that strictly contains both rewritten endpoints, or the top level when no
// such node exists. A declared self-loop on a visible node is kept and
// attached at its parent's scope. Edges are placed through an arena in
// which every slot moves once from pending to attached or dropped, so no
// edge can be attached twice or attached after being dropped.
//
// # Dropped Edges
//
// Every input edge either appears exactly once in the projection or is
// listed in [Projection.Dropped] with one of these reasons:
//
//   - diag.DanglingEdge: an endpoint does not name any known node
//   - diag.DegenerateEdge: collapsing turned the edge into a self-loop
//   - diag.MergedEdge: collapsing produced a second edge between the same pair
//   - diag.DuplicateID: the input repeats an edge between the same pair
//
// # Usage
//
//	p := project.New(project.Options{Measurer: measure.Default()})
//	proj := p.ProjectDocument(doc, visibility.New("parent"))
//	for _, e := range proj.Edges {
//	    fmt.Println(e.ID)
//	}
package project
