// Package wire defines the pipeline's byte-exact little-endian wire
// layouts — ContainerObject and Metadata — and the Serializer that
// converts domain objects into fixed byte streams (C2). All multi-byte
// integers are little-endian u64, per spec §6.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/pimwalk/corepipe/pkg/safeconv"
)

// ContainerObjectSize is the fixed wire size of one ContainerObject:
// five little-endian u64 fields.
const ContainerObjectSize = 5 * 8

// ContainerObject describes one (walker, node) pairing inside a DPU's
// container image.
type ContainerObject struct {
	WalkerPtr  uint64
	WalkerSize uint64
	NodePtr    uint64
	NodeSize   uint64
	EdgeNum    uint64
}

// MarshalBinary writes the object's fixed little-endian layout.
func (c ContainerObject) MarshalBinary() ([]byte, error) {
	buf := make([]byte, ContainerObjectSize)
	binary.LittleEndian.PutUint64(buf[0:8], c.WalkerPtr)
	binary.LittleEndian.PutUint64(buf[8:16], c.WalkerSize)
	binary.LittleEndian.PutUint64(buf[16:24], c.NodePtr)
	binary.LittleEndian.PutUint64(buf[24:32], c.NodeSize)
	binary.LittleEndian.PutUint64(buf[32:40], c.EdgeNum)

	return buf, nil
}

// UnmarshalBinary parses a ContainerObject from its fixed layout.
func (c *ContainerObject) UnmarshalBinary(data []byte) error {
	if len(data) != ContainerObjectSize {
		return fmt.Errorf("container object: want %d bytes, got %d", ContainerObjectSize, len(data))
	}

	c.WalkerPtr = binary.LittleEndian.Uint64(data[0:8])
	c.WalkerSize = binary.LittleEndian.Uint64(data[8:16])
	c.NodePtr = binary.LittleEndian.Uint64(data[16:24])
	c.NodeSize = binary.LittleEndian.Uint64(data[24:32])
	c.EdgeNum = binary.LittleEndian.Uint64(data[32:40])

	return nil
}

// Metadata is the per-DPU fixed-width header: walker count, their
// container offsets, and trace lengths, sized by MAX_DPU_THREAD_NUM.
type Metadata struct {
	ExtraMRAMSpacePtr   uint64
	WalkerNum           uint64
	WalkerContainerPtrs []uint64
	TraceLengths        []uint64
}

// NewMetadata allocates a Metadata header sized for maxDPUThreadNum
// walker slots.
func NewMetadata(maxDPUThreadNum int) Metadata {
	return Metadata{
		WalkerContainerPtrs: make([]uint64, maxDPUThreadNum),
		TraceLengths:        make([]uint64, maxDPUThreadNum),
	}
}

// Size returns the header's fixed wire size in bytes.
func (m Metadata) Size() int64 {
	return 8 + 8 + int64(len(m.WalkerContainerPtrs))*8 + int64(len(m.TraceLengths))*8
}

// MarshalBinary writes the header's fixed little-endian layout.
func (m Metadata) MarshalBinary() ([]byte, error) {
	buf := make([]byte, m.Size())
	binary.LittleEndian.PutUint64(buf[0:8], m.ExtraMRAMSpacePtr)
	binary.LittleEndian.PutUint64(buf[8:16], m.WalkerNum)

	offset := 16
	for _, ptr := range m.WalkerContainerPtrs {
		binary.LittleEndian.PutUint64(buf[offset:offset+8], ptr)
		offset += 8
	}

	for _, length := range m.TraceLengths {
		binary.LittleEndian.PutUint64(buf[offset:offset+8], length)
		offset += 8
	}

	return buf, nil
}

// UnmarshalMetadata parses a Metadata header. slotCount must match the
// MAX_DPU_THREAD_NUM the header was written with.
func UnmarshalMetadata(data []byte, slotCount int) (Metadata, error) {
	m := NewMetadata(slotCount)
	if int64(len(data)) != m.Size() {
		return Metadata{}, fmt.Errorf("metadata: want %d bytes, got %d", m.Size(), len(data))
	}

	m.ExtraMRAMSpacePtr = binary.LittleEndian.Uint64(data[0:8])
	m.WalkerNum = binary.LittleEndian.Uint64(data[8:16])

	offset := 16
	for i := range m.WalkerContainerPtrs {
		m.WalkerContainerPtrs[i] = binary.LittleEndian.Uint64(data[offset : offset+8])
		offset += 8
	}

	for i := range m.TraceLengths {
		m.TraceLengths[i] = binary.LittleEndian.Uint64(data[offset : offset+8])
		offset += 8
	}

	return m, nil
}

// Serializer converts domain objects to fixed byte streams (C2). Nodes
// and walkers arrive pre-serialized from the graph loader, so Serializer
// only concatenates; containers and metadata have a layout of their own.
type Serializer struct{}

// SerializeContainer concatenates a walker's ContainerObjects in trace
// order, forming one Container (spec §3).
func (Serializer) SerializeContainer(objs []ContainerObject) ([]byte, error) {
	buf := make([]byte, 0, len(objs)*ContainerObjectSize)

	for _, obj := range objs {
		encoded, err := obj.MarshalBinary()
		if err != nil {
			return nil, err
		}

		buf = append(buf, encoded...)
	}

	return buf, nil
}

// SerializeMetadata encodes a Metadata header.
func (Serializer) SerializeMetadata(m Metadata) ([]byte, error) {
	return m.MarshalBinary()
}

// PtrToUint64 safely narrows a non-negative int64 byte offset/size to
// the wire's uint64 field width.
func PtrToUint64(v int64) uint64 {
	return uint64(safeconv.MustIntToUint(int(v)))
}
