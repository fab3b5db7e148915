package perf

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// RoundStat is one round's recorded outcome, used to assemble a Report.
type RoundStat struct {
	Round         int
	CrossDPUJumps int
	TransferTime  time.Duration
	ComputeTime   time.Duration
	WalkerBytes   int64
}

// Report is the textual performance summary produced at the end of a
// run (spec §4.8, §6): total cross-DPU jumps, total transfer/compute
// time estimates, and a per-round breakdown.
type Report struct {
	Rounds []RoundStat
}

// TotalCrossDPUJumps sums jumps across every recorded round.
func (r Report) TotalCrossDPUJumps() int {
	total := 0
	for _, rs := range r.Rounds {
		total += rs.CrossDPUJumps
	}

	return total
}

// TotalTransferTime sums the transfer-time estimate across every round.
func (r Report) TotalTransferTime() time.Duration {
	var total time.Duration
	for _, rs := range r.Rounds {
		total += rs.TransferTime
	}

	return total
}

// TotalComputeTime sums the compute-time estimate across every round.
func (r Report) TotalComputeTime() time.Duration {
	var total time.Duration
	for _, rs := range r.Rounds {
		total += rs.ComputeTime
	}

	return total
}

// Render formats the report as a plain-text table followed by a
// one-line totals summary.
func (r Report) Render() string {
	var b strings.Builder

	t := table.NewWriter()
	t.SetOutputMirror(&b)
	t.AppendHeader(table.Row{"Round", "Jumps", "Transfer", "Compute", "Walker Bytes"})

	for _, rs := range r.Rounds {
		t.AppendRow(table.Row{
			rs.Round,
			rs.CrossDPUJumps,
			rs.TransferTime,
			rs.ComputeTime,
			humanize.Bytes(uint64(rs.WalkerBytes)),
		})
	}

	t.Render()

	b.WriteString("\ntotal jumps=")
	b.WriteString(humanize.Comma(int64(r.TotalCrossDPUJumps())))
	b.WriteString(" transfer=")
	b.WriteString(r.TotalTransferTime().String())
	b.WriteString(" compute=")
	b.WriteString(r.TotalComputeTime().String())
	b.WriteString("\n")

	return b.String()
}
