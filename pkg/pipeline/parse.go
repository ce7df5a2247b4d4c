package pipeline

import (
	"github.com/matzehuels/nestview/pkg/errors"
	"github.com/matzehuels/nestview/pkg/graph"
	"github.com/matzehuels/nestview/pkg/visibility"
)

// LoadDocument reads and normalizes a JSON or YAML graph document.
func LoadDocument(path string) (*graph.Document, error) {
	if err := errors.ValidateDocumentFilename(path); err != nil {
		return nil, err
	}
	return graph.ReadDocumentFile(path)
}

// ExpandSet builds a visibility set from node ids. Every id must name a node
// in doc. The special id "*" expands every group.
func ExpandSet(doc *graph.Document, ids []string) (*visibility.Set, error) {
	vis := visibility.New()
	for _, id := range ids {
		if id == "*" {
			for _, g := range doc.GroupIDs() {
				vis.Add(g)
			}
			continue
		}
		if doc.Find(id) == nil {
			if err := errors.ValidateNodeID(id); err != nil {
				return nil, err
			}
			return nil, errors.New(errors.ErrCodeNodeNotFound, "node %q not found", id)
		}
		vis.Add(id)
	}
	return vis, nil
}
