package netrouter

import (
	"sort"

	"github.com/katalvlaran/pcbroute/geom"
	"github.com/katalvlaran/pcbroute/model"
)

// NetToRoute bundles a net with the pads the router must connect for it.
type NetToRoute struct {
	Net  model.Net
	Pads []model.Pad
}

// netExtentMM approximates a net's routed length as the Manhattan span of
// its pads' bounding box, used only to break priority ties (longer nets
// route first within a tier).
func netExtentMM(pads []model.Pad) float64 {
	if len(pads) == 0 {
		return 0
	}
	box := geom.Rect{Min: pads[0].Center, Max: pads[0].Center}
	for _, p := range pads[1:] {
		if p.Center.X < box.Min.X {
			box.Min.X = p.Center.X
		}
		if p.Center.Y < box.Min.Y {
			box.Min.Y = p.Center.Y
		}
		if p.Center.X > box.Max.X {
			box.Max.X = p.Center.X
		}
		if p.Center.Y > box.Max.Y {
			box.Max.Y = p.Center.Y
		}
	}

	return box.Width() + box.Height()
}

// PriorityOrder sorts nets by ascending class priority (lower integer
// routes first), then by descending net extent within a priority tier
// (longer nets route first). classPriority maps a net class name to its
// priority; nets whose class has no entry sort as the lowest priority
// (routed last).
func PriorityOrder(nets []NetToRoute, classOf func(netName string) string, classPriority map[string]int) []NetToRoute {
	out := make([]NetToRoute, len(nets))
	copy(out, nets)

	priorityOf := func(n NetToRoute) int {
		class := classOf(n.Net.Name)
		if p, ok := classPriority[class]; ok {
			return p
		}

		return int(^uint(0) >> 1) // max int: unclassified nets route last
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := priorityOf(out[i]), priorityOf(out[j])
		if pi != pj {
			return pi < pj
		}

		return netExtentMM(out[i].Pads) > netExtentMM(out[j].Pads)
	})

	return out
}
