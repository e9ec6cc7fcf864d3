package cache

// Keyer derives cache keys. Every key starts with its type so that backends
// and metrics can tell entries apart.
type Keyer interface {
	// LayoutKey identifies an engine result for a request fingerprint.
	LayoutKey(requestHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies a rendered document for a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string

	// SessionKey identifies a persisted server session.
	SessionKey(id string) string
}

// LayoutKeyOpts are the engine settings that change a layout result.
type LayoutKeyOpts struct {
	Engine    string `json:"engine"`
	Direction string `json:"direction"`
}

// ArtifactKeyOpts are the render settings that change a document.
type ArtifactKeyOpts struct {
	Format        string  `json:"format"`
	Width         float64 `json:"width,omitempty"`
	Height        float64 `json:"height,omitempty"`
	Transform     string  `json:"transform,omitempty"`
	MiniMap       string  `json:"minimap,omitempty"`
	ReducedMotion bool    `json:"reduced_motion,omitempty"`
	HideDotGrid   bool    `json:"hide_dot_grid,omitempty"`
	Colors        string  `json:"colors,omitempty"`
	EmptyMessage  string  `json:"empty_message,omitempty"`
	Title         string  `json:"title,omitempty"`
	Rendering     bool    `json:"rendering,omitempty"`
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(requestHash string, opts LayoutKeyOpts) string {
	return hashKey(KeyTypeLayout, requestHash, opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey(KeyTypeArtifact, layoutHash, opts)
}

// SessionKey implements [Keyer]. Session ids are already unique, so they
// are used verbatim.
func (DefaultKeyer) SessionKey(id string) string {
	return KeyTypeSession + ":" + id
}
