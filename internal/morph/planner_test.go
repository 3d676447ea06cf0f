package morph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanInputRegion_SingleIteration(t *testing.T) {
	domain := RegionOfSize(10, 8)

	tests := []struct {
		name       string
		requested  Region
		conn       Connectivity
		wantOut    Region
		wantMarker Region
	}{
		{
			name:       "interior request grows by one",
			requested:  NewRegion([]int{2, 3}, []int{3, 2}),
			conn:       Face,
			wantOut:    NewRegion([]int{2, 3}, []int{3, 2}),
			wantMarker: NewRegion([]int{1, 2}, []int{5, 4}),
		},
		{
			name:       "corner request halo is clipped",
			requested:  NewRegion([]int{0, 0}, []int{2, 2}),
			conn:       Full,
			wantOut:    NewRegion([]int{0, 0}, []int{2, 2}),
			wantMarker: NewRegion([]int{0, 0}, []int{3, 3}),
		},
		{
			name:       "request overhanging the domain",
			requested:  NewRegion([]int{8, 6}, []int{5, 5}),
			conn:       Face,
			wantOut:    NewRegion([]int{8, 6}, []int{2, 2}),
			wantMarker: NewRegion([]int{7, 5}, []int{3, 3}),
		},
		{
			name:       "zero request means the domain",
			requested:  Region{},
			conn:       Full,
			wantOut:    domain,
			wantMarker: domain,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PlanInputRegion(tt.requested, domain, tt.conn, SingleIteration)
			assert.True(t, p.Output.Equal(tt.wantOut), "output %s", p.Output)
			assert.True(t, p.Marker.Equal(tt.wantMarker), "marker %s", p.Marker)
			assert.True(t, p.Mask.Equal(p.Output), "mask %s is read without a halo", p.Mask)
			assert.True(t, domain.ContainsRegion(p.Marker))
		})
	}
}

func TestPlanInputRegion_OutsideDomain(t *testing.T) {
	p := PlanInputRegion(NewRegion([]int{50, 50}, []int{3, 3}), RegionOfSize(10, 8), Face, SingleIteration)
	assert.True(t, p.Output.Empty())
	assert.True(t, p.Marker.Empty())
	assert.True(t, p.Mask.Empty())
}

func TestPlanInputRegion_ToConvergence(t *testing.T) {
	domain := NewRegion([]int{-2, 4}, []int{10, 8})

	for _, requested := range []Region{
		Region{},
		NewRegion([]int{0, 5}, []int{1, 1}),
		NewRegion([]int{100, 100}, []int{1, 1}),
	} {
		p := PlanInputRegion(requested, domain, Face, ToConvergence)
		assert.True(t, p.Output.Equal(domain), "request %s", requested)
		assert.True(t, p.Marker.Equal(domain), "request %s", requested)
		assert.True(t, p.Mask.Equal(domain), "request %s", requested)
	}
}

func TestPlanInputRegion_DoesNotAliasDomain(t *testing.T) {
	domain := RegionOfSize(4, 4)
	p := PlanInputRegion(Region{}, domain, Face, ToConvergence)
	p.Output.Size[0] = 99
	assert.Equal(t, 4, domain.Size[0])
}
