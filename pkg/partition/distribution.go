package partition

import "sort"

// NodeDistribution tracks per-DPU byte occupancy against a shared
// capacity limit and answers which DPUs still have room for a node of
// a given size.
type NodeDistribution struct {
	capacity  int64
	occupancy []int64
}

// NewNodeDistribution creates a distribution over numDPUs DPUs, each
// with the given usable capacity (DPU_SIZE_LIMIT - RESERVED_SIZE).
func NewNodeDistribution(numDPUs int, capacity int64) *NodeDistribution {
	return &NodeDistribution{
		capacity:  capacity,
		occupancy: make([]int64, numDPUs),
	}
}

// AvailablePartitions returns, in ascending dpu-id order, every DPU with
// enough free capacity to hold size more bytes.
func (d *NodeDistribution) AvailablePartitions(size int64) []int {
	var out []int

	for dpu, used := range d.occupancy {
		if used+size <= d.capacity {
			out = append(out, dpu)
		}
	}

	sort.Ints(out)

	return out
}

// Assign records size bytes as occupied on dpu.
func (d *NodeDistribution) Assign(dpu int, size int64) {
	d.occupancy[dpu] += size
}

// Occupancy returns the current byte occupancy of dpu.
func (d *NodeDistribution) Occupancy(dpu int) int64 {
	return d.occupancy[dpu]
}

// NumDPUs returns the number of DPUs in the distribution.
func (d *NodeDistribution) NumDPUs() int {
	return len(d.occupancy)
}
