package model

// PCB is the typed board model a loader hands to this core.
// It owns nothing routing-related; the core treats it as read-only input.
type PCB struct {
	BoardOutline []Point
	Setup        *Stackup // optional; nil means the caller should default
	Footprints   []Footprint
	Segments     []Segment
	Vias         []Via
	Zones        []Zone
	Nets         map[NetID]Net
}

// Stackup is the minimal loader-side description of the board's copper
// stackup, distinct from (and consumed by) the physics stackup package —
// kept here because it travels with the PCB record from the loader.
type Stackup struct {
	CopperLayers []string // ordered top-to-bottom copper layer names
	LayerCount   int
}

// GetNetByName returns the Net with the given name, or (Net{}, false).
func (b *PCB) GetNetByName(name string) (Net, bool) {
	for _, n := range b.Nets {
		if n.Name == name {
			return n, true
		}
	}

	return Net{}, false
}

// SegmentsInNet returns every segment belonging to netID.
func (b *PCB) SegmentsInNet(netID NetID) []Segment {
	out := make([]Segment, 0)
	for _, s := range b.Segments {
		if s.NetID == netID {
			out = append(out, s)
		}
	}

	return out
}

// ViasInNet returns every via belonging to netID.
func (b *PCB) ViasInNet(netID NetID) []Via {
	out := make([]Via, 0)
	for _, v := range b.Vias {
		if v.NetID == netID {
			out = append(out, v)
		}
	}

	return out
}

// SegmentsOnLayer returns every segment routed on the named layer.
func (b *PCB) SegmentsOnLayer(layer string) []Segment {
	out := make([]Segment, 0)
	for _, s := range b.Segments {
		if s.Layer == layer {
			out = append(out, s)
		}
	}

	return out
}

// ZonesOnLayer returns every zone on the named layer, treating "*.Cu" as a
// wildcard matching any copper layer.
func (b *PCB) ZonesOnLayer(layer string) []Zone {
	out := make([]Zone, 0)
	for _, z := range b.Zones {
		if z.Layer == layer || z.Layer == "*.Cu" {
			out = append(out, z)
		}
	}

	return out
}

// PadsForNet returns every pad belonging to netID, across all footprints.
func (b *PCB) PadsForNet(netID NetID) []Pad {
	out := make([]Pad, 0)
	for _, fp := range b.Footprints {
		for _, p := range fp.Pads {
			if p.NetID == netID {
				out = append(out, p)
			}
		}
	}

	return out
}

// AllPads returns a flat slice of every pad on the board.
func (b *PCB) AllPads() []Pad {
	out := make([]Pad, 0)
	for _, fp := range b.Footprints {
		out = append(out, fp.Pads...)
	}

	return out
}

// TransformPadPosition converts a pad's footprint-local center into board
// coordinates given the owning footprint's placement, applying the
// +rotation convention this module uses.
func TransformPadPosition(fp Footprint, localCenter Point) Point {
	rotated := localCenter.Rotate(fp.Rotation)

	return fp.Position.Add(rotated)
}
