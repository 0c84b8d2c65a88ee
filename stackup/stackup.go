package stackup

import "errors"

// Sentinel errors for stackup construction and queries.
var (
	// ErrEmptyStack indicates a LayerStack has no layers.
	ErrEmptyStack = errors.New("stackup: layer stack is empty")
	// ErrNoSuchLayer indicates a requested copper layer name is not present.
	ErrNoSuchLayer = errors.New("stackup: no such copper layer")
	// ErrCopperLayersNotSeparated indicates two copper layers are adjacent
	// with no dielectric between them.
	ErrCopperLayersNotSeparated = errors.New("stackup: adjacent copper layers must be separated by a dielectric")
)

// LayerKind classifies a StackupLayer.
type LayerKind int

const (
	KindCopper LayerKind = iota
	KindDielectric
	KindMask
	KindSilk
)

// StackupLayer is one physical layer in the board stack, ordered top to
// bottom within LayerStack.Layers.
type StackupLayer struct {
	Name      string
	Kind      LayerKind
	Thickness float64 // mm
	Material  string  // dielectric material name (KindDielectric only)
	EpsR      float64 // resolved dielectric constant (KindDielectric only)
	TanD      float64
	CopperOz  float64 // copper weight (KindCopper only)
}

// fallbackReferenceDistanceMM is used when no adjacent dielectric is found
//.
const fallbackReferenceDistanceMM = 0.2

// fallbackEpsR is the FR4 fallback dielectric constant.
const fallbackEpsR = 4.5

// LayerStack is an ordered top-to-bottom sequence of StackupLayer values.
// Immutable once constructed.
type LayerStack struct {
	Layers []StackupLayer
}

// NewLayerStack validates and wraps a layer slice.
//
// Invariant enforced: copper layers must be separated by at least one
// dielectric layer.
func NewLayerStack(layers []StackupLayer) (*LayerStack, error) {
	if len(layers) == 0 {
		return nil, ErrEmptyStack
	}
	for i := 0; i < len(layers)-1; i++ {
		if layers[i].Kind == KindCopper && layers[i+1].Kind == KindCopper {
			return nil, ErrCopperLayersNotSeparated
		}
	}

	cp := make([]StackupLayer, len(layers))
	copy(cp, layers)

	return &LayerStack{Layers: cp}, nil
}

// copperIndices returns the indices into Layers of every copper layer, in
// stack order.
func (ls *LayerStack) copperIndices() []int {
	out := make([]int, 0, len(ls.Layers))
	for i, l := range ls.Layers {
		if l.Kind == KindCopper {
			out = append(out, i)
		}
	}

	return out
}

func (ls *LayerStack) indexOf(layerName string) (int, bool) {
	for i, l := range ls.Layers {
		if l.Kind == KindCopper && l.Name == layerName {
			return i, true
		}
	}

	return 0, false
}

// IsOuter reports whether layerName is the top or bottom copper layer
// (microstrip reference); IsOuter == false means it is an inner/stripline
// layer.
func (ls *LayerStack) IsOuter(layerName string) (bool, error) {
	idx, ok := ls.indexOf(layerName)
	if !ok {
		return false, ErrNoSuchLayer
	}
	cu := ls.copperIndices()

	return idx == cu[0] || idx == cu[len(cu)-1], nil
}

// nearestDielectric walks outward from idx in direction dir (+1 or -1)
// returning the thickness of the first dielectric layer encountered, or
// (0, false) if none exists before the stack boundary.
func (ls *LayerStack) nearestDielectric(idx, dir int) (StackupLayer, bool) {
	for i := idx + dir; i >= 0 && i < len(ls.Layers); i += dir {
		if ls.Layers[i].Kind == KindDielectric {
			return ls.Layers[i], true
		}
		if ls.Layers[i].Kind == KindCopper {
			// Another copper layer blocks the search in this direction.
			break
		}
	}

	return StackupLayer{}, false
}

// GetReferencePlaneDistance returns h_mm: for outer layers, the thickness
// of the adjacent dielectric below; for inner layers, the thickness of the
// nearer adjacent dielectric. Falls back to 0.2 mm if none is found
//.
func (ls *LayerStack) GetReferencePlaneDistance(layerName string) (float64, error) {
	idx, ok := ls.indexOf(layerName)
	if !ok {
		return 0, ErrNoSuchLayer
	}

	outer, _ := ls.IsOuter(layerName)
	if outer {
		// Outer layers reference the dielectric immediately below (toward
		// the board interior); if this is the bottom layer, look upward.
		cu := ls.copperIndices()
		dir := 1
		if idx == cu[len(cu)-1] {
			dir = -1
		}
		if d, found := ls.nearestDielectric(idx, dir); found {
			return d.Thickness, nil
		}

		return fallbackReferenceDistanceMM, nil
	}

	// Inner layer: nearer of the two adjacent dielectrics.
	above, aok := ls.nearestDielectric(idx, -1)
	below, bok := ls.nearestDielectric(idx, 1)
	switch {
	case aok && bok:
		if above.Thickness <= below.Thickness {
			return above.Thickness, nil
		}

		return below.Thickness, nil
	case aok:
		return above.Thickness, nil
	case bok:
		return below.Thickness, nil
	default:
		return fallbackReferenceDistanceMM, nil
	}
}

// GetDielectricConstant returns epsilon_r for layerName: microstrip uses
// the adjacent dielectric above/below; stripline uses the mean of both
// surrounding dielectrics. Falls back to 4.5 (FR4) if none is found
//.
func (ls *LayerStack) GetDielectricConstant(layerName string) (float64, error) {
	idx, ok := ls.indexOf(layerName)
	if !ok {
		return 0, ErrNoSuchLayer
	}

	outer, _ := ls.IsOuter(layerName)
	if outer {
		cu := ls.copperIndices()
		dir := 1
		if idx == cu[len(cu)-1] {
			dir = -1
		}
		if d, found := ls.nearestDielectric(idx, dir); found {
			return resolveEpsR(d), nil
		}

		return fallbackEpsR, nil
	}

	above, aok := ls.nearestDielectric(idx, -1)
	below, bok := ls.nearestDielectric(idx, 1)
	switch {
	case aok && bok:
		return (resolveEpsR(above) + resolveEpsR(below)) / 2, nil
	case aok:
		return resolveEpsR(above), nil
	case bok:
		return resolveEpsR(below), nil
	default:
		return fallbackEpsR, nil
	}
}

// GetStriplineGeometry returns (h_above, h_below) for layerName: for outer
// layers both values equal the single reference-plane distance.
func (ls *LayerStack) GetStriplineGeometry(layerName string) (hAbove, hBelow float64, err error) {
	idx, ok := ls.indexOf(layerName)
	if !ok {
		return 0, 0, ErrNoSuchLayer
	}

	outer, _ := ls.IsOuter(layerName)
	if outer {
		h, _ := ls.GetReferencePlaneDistance(layerName)

		return h, h, nil
	}

	above, aok := ls.nearestDielectric(idx, -1)
	below, bok := ls.nearestDielectric(idx, 1)
	if aok {
		hAbove = above.Thickness
	} else {
		hAbove = fallbackReferenceDistanceMM
	}
	if bok {
		hBelow = below.Thickness
	} else {
		hBelow = fallbackReferenceDistanceMM
	}

	return hAbove, hBelow, nil
}

func resolveEpsR(d StackupLayer) float64 {
	if d.EpsR > 0 {
		return d.EpsR
	}
	if m, ok := LookupMaterial(d.Material); ok {
		return m.EpsR
	}

	return fallbackEpsR
}

// RoutableCopperLayers returns the ordered copper layer names, top to
// bottom, for adaptive layer-stack selection.
func (ls *LayerStack) RoutableCopperLayers() []string {
	idxs := ls.copperIndices()
	out := make([]string, len(idxs))
	for i, idx := range idxs {
		out[i] = ls.Layers[idx].Name
	}

	return out
}
