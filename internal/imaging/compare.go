package imaging

import (
	"fmt"
	"math"

	"github.com/ironsheep/morph-tools-mcp/internal/morph"
)

// ChangeStats summarizes how a filter output differs from its input.
type ChangeStats struct {
	TotalPixels    int     `json:"total_pixels"`
	ChangedPixels  int     `json:"changed_pixels"`
	ChangedPercent float64 `json:"changed_percent"`
	MaxDelta       int     `json:"max_delta"`
	MeanDelta      float64 `json:"mean_delta"`
	MinValue       uint8   `json:"min_value"`
	MaxValue       uint8   `json:"max_value"`
}

// CompareVolumes compares before and after pixel by pixel. Both must share a
// region. MinValue and MaxValue describe after.
func CompareVolumes(before, after *morph.Image[uint8]) (*ChangeStats, error) {
	if before == nil || after == nil {
		return nil, morph.ErrNilImage
	}
	if !before.Region().Equal(after.Region()) {
		return nil, fmt.Errorf("%w: %s vs %s", morph.ErrDomainMismatch, before.Region(), after.Region())
	}

	st := &ChangeStats{TotalPixels: len(after.Pix)}
	if st.TotalPixels == 0 {
		return st, nil
	}

	st.MinValue, st.MaxValue = after.Pix[0], after.Pix[0]
	var sum int
	for i, a := range after.Pix {
		d := absDiff(before.Pix[i], a)
		if d != 0 {
			st.ChangedPixels++
			sum += d
			st.MaxDelta = max(st.MaxDelta, d)
		}
		st.MinValue = min(st.MinValue, a)
		st.MaxValue = max(st.MaxValue, a)
	}

	n := float64(st.TotalPixels)
	st.ChangedPercent = math.Round(float64(st.ChangedPixels)/n*1000) / 10
	st.MeanDelta = math.Round(float64(sum)/n*100) / 100
	return st, nil
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
