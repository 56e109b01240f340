package decode

// RAWExtensions lists the extensions treated as TIFF-based RAW containers
// with an embedded JPEG preview, per SPEC_FULL §4.2's extension table.
var RAWExtensions = []string{"nef", "nrw", "cr2", "crw", "arw", "srf", "sr2", "dng", "raf", "orf", "rw2", "pef"}

// NewDefaultRegistry builds the Decoder Dispatch table SPEC_FULL §4.2
// describes: JPEG gets the DCT-scaling fast path, RAW containers get their
// embedded-preview path, SVG gets vector rasterization, and everything
// else falls back to the generic decode-then-resize path.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(JPEGDCT{}, "jpg", "jpeg")
	r.Register(RAWEmbeddedJPEG{}, RAWExtensions...)
	r.Register(SVG{}, "svg")
	r.SetFallback(Generic{})
	return r
}
