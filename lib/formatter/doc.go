// Package formatter converts dictionary values to the opaque byte representation the
// storage backends persist, and back. Backends call a Formatter at their boundary and
// never look into the bytes.
//
// Key Components:
//
//   - Formatter: Core interface that all implementations satisfy (ToStorage, ToObject).
//
//   - msgpackFormatterImpl: Default implementation based on github.com/vmihailenco/msgpack/v5.
//     Compact, fast and aware of time.Time. Map keys are sorted during encoding.
//
//   - jsonFormatterImpl: Human-readable, useful when the stored blobs are inspected with
//     other tools.
//
//   - gobFormatterImpl: Go's gob format. Each value carries its own type description, which
//     makes small values comparatively large.
//
// Thread Safety:
//
//	All formatter implementations are stateless and safe for concurrent use.
//
// Note: The formatter of a dictionary must not change once data was written, the bytes of
// one format can not be read by another.
package formatter
