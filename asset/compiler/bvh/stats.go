package bvh

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
)

// Stats renders a table summarizing the tree topology and cost.
func (t *Tree) Stats() string {
	stats := t.collectStats()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Primitives", fmt.Sprint(stats.TotalItems)})
	table.Append([]string{"Nodes", fmt.Sprint(stats.Nodes)})
	table.Append([]string{"Leaves", fmt.Sprint(stats.Leaves)})
	table.Append([]string{"Max depth", fmt.Sprint(stats.MaxDepth)})
	if stats.Leaves > 0 {
		table.Append([]string{"Avg. leaf size", fmt.Sprintf("%.2f", float32(stats.PartitionedItems)/float32(stats.Leaves))})
	}
	table.Append([]string{"Flat size", fmtBytes(len(t.nodes)*NodeRecordSize + len(t.indices)*4)})
	table.SetFooter([]string{"SAH cost", fmt.Sprintf("%.4f", t.SAHCost())})

	table.Render()
	return buf.String()
}

func fmtBytes(totalBytes int) string {
	size := float32(totalBytes)
	switch {
	case size >= 1e6:
		return fmt.Sprintf("%3.1f mb", size/1e6)
	case size >= 1e3:
		return fmt.Sprintf("%3.1f kb", size/1e3)
	}
	return fmt.Sprintf("%3.1f bytes", size)
}
