package cache

// ExportKeyOpts holds everything besides the profile bytes that changes an
// export payload.
type ExportKeyOpts struct {
	Format        string  `json:"format,omitempty"`
	SampleType    string  `json:"sample_type,omitempty"`
	ThreadLabel   string  `json:"thread_label,omitempty"`
	MaxDegree     int     `json:"max_degree"`
	StackFraction float64 `json:"stack_fraction"`
}

// RenderKeyOpts holds the options of a rendered diagram.
type RenderKeyOpts struct {
	Format   string `json:"format"`
	MaxNodes int    `json:"max_nodes"`
	Detailed bool   `json:"detailed"`
}

// Keyer derives cache keys. Keys hash their inputs, so equal inputs share an
// entry and any change to options produces a new one.
type Keyer interface {
	// ExportKey identifies the payload of a profile whose bytes hash to
	// contentHash.
	ExportKey(contentHash string, opts ExportKeyOpts) string

	// RenderKey identifies a diagram rendered from the payload hashing to
	// payloadHash.
	RenderKey(payloadHash string, opts RenderKeyOpts) string
}

// DefaultKeyer produces unprefixed keys of the form kind:sha256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ExportKey implements Keyer.
func (DefaultKeyer) ExportKey(contentHash string, opts ExportKeyOpts) string {
	return hashKey("export", contentHash, opts)
}

// RenderKey implements Keyer.
func (DefaultKeyer) RenderKey(payloadHash string, opts RenderKeyOpts) string {
	return hashKey("render", payloadHash, opts)
}
