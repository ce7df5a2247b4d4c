// Package layered is an in-process layout oracle.
//
// Each open scope is laid out independently and bottom-up, so a group's size
// is known before its parent is arranged. Within a scope the direct children
// form a graph whose edges are the scope's edges lifted to the children that
// contain their endpoints. That graph is laid out in the classic layered
// fashion:
//
//  1. Break cycles by reversing DFS back edges.
//  2. Assign layers by longest path from the sources (gonum topo.Sort).
//  3. Order each layer with barycenter sweeps.
//  4. Place layers along the flow direction and center them across it.
//
// Edges are routed orthogonally between the facing borders of their
// endpoints, in the frame of the scope that owns them. The result is a
// deterministic function of the request.
package layered
