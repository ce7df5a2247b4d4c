// Package graphviz is a layout oracle backed by Graphviz dot.
//
// A request is translated to DOT: open nodes become clusters, every other
// node becomes a fixed-size box with the size the projector measured. The
// graph is laid out by the embedded Graphviz (go-graphviz, compiled to
// WebAssembly) and rendered to Graphviz's JSON output, which is decoded back
// into the request's tree.
//
// Graphviz reports absolute coordinates with the y axis pointing up. The
// decoder flips the y axis and converts every position to its parent's
// frame and every route to the frame of the node owning the edge.
//
// Edges whose endpoint is an open node are attached to an invisible anchor
// inside the node's cluster and clipped at the cluster border.
package graphviz
