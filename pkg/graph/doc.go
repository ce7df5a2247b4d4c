// Package graph provides the input document model for hierarchical graphs.
//
// A document is a forest of nested nodes plus a flat list of edges whose
// endpoints may name nodes at any depth:
//
//	{
//	  "arrange": "LR",
//	  "nodes": {"children": [
//	    {"id": "start", "value": {"label": "start"}},
//	    {"id": "parent", "value": {"label": "parent", "style": "fill:#FFCC00;"},
//	     "children": [{"id": "parent.child1"}, {"id": "parent.child2"}]}
//	  ]},
//	  "edges": [{"source_id": "start", "target_id": "parent.child1"}]
//	}
//
// # Core Types
//
//   - [Document]: the whole input, with arrange hint, node forest and edges
//   - [Node]: a raw node with an opaque [Value] map and ordered children
//   - [Edge]: a raw edge; duplicates and self-references are allowed
//   - [Role]: Ordinary, JoinMarker or Gate, decided once by [Normalize]
//
// # Reading Documents
//
// Documents are read from JSON or YAML; the format is chosen by file
// extension. Reading always normalizes, so every node has its role set:
//
//	doc, err := graph.ReadDocumentFile("pipeline.yaml")
//	doc, err := graph.ReadDocument(r, graph.FormatJSON)
//
// # Roles
//
// Role classification is a naming convention of the source data. It is
// applied by [Normalize] and nowhere else:
//
//   - an explicit value.role ("ordinary", "join", "gate") wins
//   - an id whose last dotted segment ends in "join_id" is a JoinMarker
//   - value.class containing "gate" or "branch", or value.shape "diamond",
//     marks a Gate
//
// # Hot Reload
//
// [Watcher] re-reads a document file when it changes on disk and notifies
// registered callbacks, mirroring a config hot-reload loop.
package graph
