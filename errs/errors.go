// Package errs defines the renderer's error taxonomy: a small set of
// sentinel errors that callers can compare against with errors.Is, each
// wrapped with contextual detail at the point it is raised.
package errs

import "errors"

var (
	// ErrBadConfig indicates a renderer configuration failed validation
	// (empty speaker table, unresolvable target soundfield, malformed
	// render patch).
	ErrBadConfig = errors.New("iab: bad renderer configuration")

	// ErrBadArgument indicates a caller passed a nil or mis-shaped
	// argument (output buffer too small, nil frame).
	ErrBadArgument = errors.New("iab: bad argument")

	// ErrUnsupportedRate indicates a (frameRate, sampleRate) pair, or a
	// combination of frame rate and asset coding, that this renderer
	// does not support (e.g. DLC assets at 23.976 fps).
	ErrUnsupportedRate = errors.New("iab: unsupported frame/sample rate combination")

	// ErrDecode indicates the asset decoder rejected a DLC or PCM
	// element.
	ErrDecode = errors.New("iab: asset decode failure")

	// ErrMalformedElement indicates a frame sub-element violates a
	// structural invariant the renderer requires (unresolvable
	// audioDataID reference, bed nesting beyond the depth limit,
	// unknown remap source bed).
	ErrMalformedElement = errors.New("iab: malformed frame element")

	// ErrClosed indicates a method was called on a Renderer that
	// already failed with a fatal error and is no longer usable.
	ErrClosed = errors.New("iab: renderer is closed")
)
