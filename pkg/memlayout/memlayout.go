// Package memlayout implements DPUMemoryLayout (C11): per-DPU,
// per-round snapshots of nodes, walkers, containers, and metadata laid
// out into one contiguous byte image with fully-resolved offsets
// (spec §4.7).
package memlayout

import (
	"github.com/pimwalk/corepipe/pkg/byteimage"
	"github.com/pimwalk/corepipe/pkg/graphmodel"
	"github.com/pimwalk/corepipe/pkg/wire"
)

// DPUMemoryCtx holds the four sub-regions in fixed dump order:
// metadata, container, node, walker. Each is an append-only ByteImage
// with its own id-to-range map; combined addresses come from prefix-sum
// offsets applied while Build lays out a round.
type DPUMemoryCtx struct {
	Metadata  *byteimage.ByteImage
	Container *byteimage.ByteImage
	Node      *byteimage.ByteImage
	Walker    *byteimage.ByteImage
}

// NewDPUMemoryCtx creates four empty sub-images.
func NewDPUMemoryCtx() *DPUMemoryCtx {
	return &DPUMemoryCtx{
		Metadata:  byteimage.New(),
		Container: byteimage.New(),
		Node:      byteimage.New(),
		Walker:    byteimage.New(),
	}
}

// resolveNodeWalkerOffsets rebases node and walker ranges into their
// final absolute offsets inside the concatenated dump, per the formulas
// in spec §4.7, given the container region's byte length. Container
// objects are fixed-width (wire.ContainerObjectSize per object), so
// containerLen is known from object counts alone before any
// ContainerObject is actually serialized — letting Build rebase nodes
// and walkers first and bake already-final pointers into each
// container, rather than resolving afterward and leaving pre-rebase,
// buffer-local offsets baked into the wire format.
func (c *DPUMemoryCtx) resolveNodeWalkerOffsets(metaLen, containerLen int64) {
	nodeOffset := metaLen + containerLen
	walkerOffset := nodeOffset + c.Node.Len()

	c.Node.AddOffset(nodeOffset)
	c.Walker.AddOffset(walkerOffset)
}

// Dump returns the concatenated image: metadata || containers || nodes
// || walkers, matching the offset formulas Build resolves with.
func (c *DPUMemoryCtx) Dump() []byte {
	out := make([]byte, 0, c.Metadata.Len()+c.Container.Len()+c.Node.Len()+c.Walker.Len())
	out = append(out, c.Metadata.Bytes()...)
	out = append(out, c.Container.Bytes()...)
	out = append(out, c.Node.Bytes()...)
	out = append(out, c.Walker.Bytes()...)

	return out
}

// Clone deep-copies every sub-image, so archiving a round's snapshot
// is immune to later mutation of live state (spec §4.7).
func (c *DPUMemoryCtx) Clone() *DPUMemoryCtx {
	return &DPUMemoryCtx{
		Metadata:  c.Metadata.Clone(),
		Container: c.Container.Clone(),
		Node:      c.Node.Clone(),
		Walker:    c.Walker.Clone(),
	}
}

// CheckpointSize estimates the snapshot's byte footprint. DPUMemoryCtx
// has no SaveCheckpoint/LoadCheckpoint methods, so it does not implement
// pkg/checkpoint.Checkpointable.
func (c *DPUMemoryCtx) CheckpointSize() int64 {
	return c.Metadata.Len() + c.Container.Len() + c.Node.Len() + c.Walker.Len()
}

// WalkerTrace is one active walker's per-round trace, as recorded by
// the WalkerRunner.
type WalkerTrace struct {
	WalkerID   int64
	WalkerData []byte
	Trace      []int64
}

// BuildInput is everything Build needs to lay out one DPU's round.
type BuildInput struct {
	Nodes           []graphmodel.NodeArchetype
	Walkers         []WalkerTrace
	MaxDPUThreadNum int
	EdgeCountOf     func(nodeID int64) int
}

// Build lays out one DPU's round: nodes, walkers, containers (one per
// active walker, from its trace), then metadata. Node and walker
// offsets are resolved before the containers are built, container
// offsets after, and the metadata header is written last.
func Build(input BuildInput) (*DPUMemoryCtx, error) {
	ctx := NewDPUMemoryCtx()
	serializer := wire.Serializer{}

	md := wire.NewMetadata(input.MaxDPUThreadNum)
	md.WalkerNum = uint64(len(input.Walkers))

	// Reserve the metadata header's final space up front: its contents
	// depend on offsets that are only known once every other image is
	// built, but its size is fixed by MaxDPUThreadNum alone.
	placeholder := make([]byte, md.Size())
	ctx.Metadata.Append(0, placeholder)

	for _, n := range input.Nodes {
		ctx.Node.Append(n.ID, n.Payload)
	}

	for _, w := range input.Walkers {
		ctx.Walker.Append(w.WalkerID, w.WalkerData)
	}

	// Container object counts (and so the container region's total byte
	// length) only depend on how many of each walker's trace entries
	// resolve to a known node — not on the pointer values those objects
	// will eventually hold — so containerLen is known before any
	// ContainerObject is built.
	objCounts := make([]int, len(input.Walkers))
	var totalObjs int64

	for i, w := range input.Walkers {
		for _, nodeID := range w.Trace {
			if _, ok := ctx.Node.Range(nodeID); ok {
				objCounts[i]++
			}
		}

		totalObjs += int64(objCounts[i])
	}

	containerLen := totalObjs * wire.ContainerObjectSize
	ctx.resolveNodeWalkerOffsets(ctx.Metadata.Len(), containerLen)

	for i, w := range input.Walkers {
		walkerRange, _ := ctx.Walker.Range(w.WalkerID)

		objs := make([]wire.ContainerObject, 0, objCounts[i])

		for _, nodeID := range w.Trace {
			nodeRange, ok := ctx.Node.Range(nodeID)
			if !ok {
				continue
			}

			objs = append(objs, wire.ContainerObject{
				WalkerPtr:  wire.PtrToUint64(walkerRange.Ptr),
				WalkerSize: wire.PtrToUint64(walkerRange.Size),
				NodePtr:    wire.PtrToUint64(nodeRange.Ptr),
				NodeSize:   wire.PtrToUint64(nodeRange.Size),
				EdgeNum:    uint64(input.EdgeCountOf(nodeID)),
			})
		}

		data, err := serializer.SerializeContainer(objs)
		if err != nil {
			return nil, err
		}

		ctx.Container.Append(w.WalkerID, data)

		if i < len(md.TraceLengths) {
			md.TraceLengths[i] = uint64(len(w.Trace))
		}
	}

	ctx.Container.AddOffset(ctx.Metadata.Len())

	for i, w := range input.Walkers {
		if i >= len(md.WalkerContainerPtrs) {
			break
		}

		containerRange, _ := ctx.Container.Range(w.WalkerID)
		md.WalkerContainerPtrs[i] = wire.PtrToUint64(containerRange.Ptr)
	}

	metaBytes, err := serializer.SerializeMetadata(md)
	if err != nil {
		return nil, err
	}

	ctx.Metadata.Overwrite(0, metaBytes)

	return ctx, nil
}
