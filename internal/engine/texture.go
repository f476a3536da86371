package engine

// TextureSource is an externally owned texture handle. The engine never
// inspects the concrete type; it only asks whether the pixels are ready and
// passes the handle through to the executor in the batch's texture runs.
type TextureSource interface {
	// Loaded reports whether the texture can be drawn. Quads referencing an
	// unloaded texture are skipped.
	Loaded() bool
}
