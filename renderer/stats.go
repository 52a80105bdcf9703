package renderer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

type TracerStat struct {
	// The tracer id.
	Id string

	// The block height and the percentage of total frame area it represents.
	BlockH       uint32
	FramePercent float32

	// Render time for assigned block
	RenderTime time.Duration

	// Traced rays and bounds tests for the assigned block.
	Rays        uint64
	BoundsTests uint64
}

type FrameStats struct {
	// Individual tracer stats.
	Tracers []TracerStat

	// Total render time for entire frame.
	RenderTime time.Duration

	// Frame totals.
	Rays        uint64
	Hits        uint64
	BoundsTests uint64
}

// Mean number of bounds tests per primary ray.
func (fs FrameStats) MeanBoundsTests() float64 {
	if fs.Rays == 0 {
		return 0
	}
	return float64(fs.BoundsTests) / float64(fs.Rays)
}

// Render the stats as a table.
func (fs FrameStats) String() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Tracer", "Block height", "% of frame", "Rays", "Bounds tests", "Render time"})
	for _, stat := range fs.Tracers {
		table.Append([]string{
			stat.Id,
			fmt.Sprintf("%d", stat.BlockH),
			fmt.Sprintf("%02.1f %%", stat.FramePercent),
			fmt.Sprintf("%d", stat.Rays),
			fmt.Sprintf("%d", stat.BoundsTests),
			stat.RenderTime.String(),
		})
	}
	table.SetFooter([]string{
		"", "", "TOTAL",
		fmt.Sprintf("%d", fs.Rays),
		fmt.Sprintf("%.1f / ray", fs.MeanBoundsTests()),
		fs.RenderTime.String(),
	})

	table.Render()
	return buf.String()
}
