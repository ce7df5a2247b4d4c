package cache

import "fmt"

// Keyer generates cache keys.
type Keyer interface {
	// LayoutKey generates a key for an oracle result.
	LayoutKey(requestHash string, opts LayoutKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact.
	ArtifactKey(modelHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the non-request inputs that change a layout.
type LayoutKeyOpts struct {
	Engine string `json:"engine"`
}

// ArtifactKeyOpts are the inputs that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Theme  string `json:"theme"`
}

// DefaultKeyer produces keys of the form "kind:engine:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(requestHash string, opts LayoutKeyOpts) string {
	return fmt.Sprintf("layout:%s:%s", opts.Engine, requestHash)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(modelHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", modelHash, opts)
}
