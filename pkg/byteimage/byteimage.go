// Package byteimage provides an append-only byte buffer with an
// object-id-to-range index (C1). DPUMemoryLayout builds four of these
// per DPU per round — nodes, walkers, containers, metadata — then
// resolves their ranges into one contiguous image via AddOffset.
//
// There is no ready-made third-party equivalent for this exact shape
// (append-only buffer + id index + post-hoc offset rebase) in the
// example pack; it is built directly on bytes.Buffer-style slice growth,
// the same approach the pack uses for its own small binary-buffer needs.
package byteimage

// MemoryRange is a byte span inside a ByteImage or, after AddOffset, a
// larger combined image.
type MemoryRange struct {
	Ptr  int64
	Size int64
}

// End returns the first byte past the range.
func (r MemoryRange) End() int64 {
	return r.Ptr + r.Size
}

// ByteImage is an append-only byte buffer that remembers, for every
// appended object id, the byte range it occupies.
type ByteImage struct {
	buf    []byte
	ranges map[int64]MemoryRange
	order  []int64
}

// New creates an empty ByteImage.
func New() *ByteImage {
	return &ByteImage{ranges: make(map[int64]MemoryRange)}
}

// Append writes data to the end of the buffer and records its range
// under id. Appending the same id twice overwrites its recorded range
// but does not remove the earlier bytes, matching append-only semantics.
func (b *ByteImage) Append(id int64, data []byte) MemoryRange {
	rng := MemoryRange{Ptr: int64(len(b.buf)), Size: int64(len(data))}
	b.buf = append(b.buf, data...)

	if _, exists := b.ranges[id]; !exists {
		b.order = append(b.order, id)
	}

	b.ranges[id] = rng

	return rng
}

// Range returns the recorded range for id.
func (b *ByteImage) Range(id int64) (MemoryRange, bool) {
	rng, ok := b.ranges[id]

	return rng, ok
}

// Overwrite replaces the bytes previously appended under id with data
// of the same length, without changing the image's layout. Used to
// reserve a fixed-size placeholder (e.g. a metadata header) before its
// final contents — which depend on offsets resolved from everything
// appended after it — are known. Returns false if id was never
// appended or data's length does not match the reserved range.
func (b *ByteImage) Overwrite(id int64, data []byte) bool {
	rng, ok := b.ranges[id]
	if !ok || int64(len(data)) != rng.Size {
		return false
	}

	copy(b.buf[rng.Ptr:rng.Ptr+rng.Size], data)

	return true
}

// Len returns the current buffer length.
func (b *ByteImage) Len() int64 {
	return int64(len(b.buf))
}

// Bytes returns the raw buffer contents. Callers must not mutate the
// returned slice.
func (b *ByteImage) Bytes() []byte {
	return b.buf
}

// IDs returns every appended object id in insertion order.
func (b *ByteImage) IDs() []int64 {
	return append([]int64(nil), b.order...)
}

// AddOffset shifts every recorded range's Ptr by offset. Used once per
// image, as soon as the lengths of the regions before it in the dump are
// known, to turn buffer-local ranges into final absolute offsets inside
// the concatenated dump.
func (b *ByteImage) AddOffset(offset int64) {
	for id, rng := range b.ranges {
		rng.Ptr += offset
		b.ranges[id] = rng
	}
}

// Clone deep-copies the image so archived snapshots are immune to later
// mutation of live state (spec §4.7).
func (b *ByteImage) Clone() *ByteImage {
	clone := &ByteImage{
		buf:    append([]byte(nil), b.buf...),
		ranges: make(map[int64]MemoryRange, len(b.ranges)),
		order:  append([]int64(nil), b.order...),
	}

	for id, rng := range b.ranges {
		clone.ranges[id] = rng
	}

	return clone
}
