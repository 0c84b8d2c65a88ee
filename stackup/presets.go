package stackup

// dielectricLayer builds a KindDielectric StackupLayer from a material name
// and thickness, resolving EpsR/TanD from the material database up front.
func dielectricLayer(name string, thicknessMM float64) StackupLayer {
	m, _ := LookupMaterial(name)

	return StackupLayer{
		Name:      name,
		Kind:      KindDielectric,
		Thickness: thicknessMM,
		Material:  m.Name,
		EpsR:      m.EpsR,
		TanD:      m.TanD,
	}
}

// copperLayer builds a KindCopper StackupLayer for the named copper layer
// at the given weight in oz.
func copperLayer(name string, oz float64) StackupLayer {
	return StackupLayer{
		Name:      name,
		Kind:      KindCopper,
		Thickness: copperThicknessMM(oz),
		CopperOz:  oz,
	}
}

// Default2Layer returns a canonical 2-layer FR4 stackup: F.Cu / core / B.Cu.
func Default2Layer() *LayerStack {
	ls, _ := NewLayerStack([]StackupLayer{
		copperLayer("F.Cu", 1),
		dielectricLayer("FR4", 1.51),
		copperLayer("B.Cu", 1),
	})

	return ls
}

// Default6Layer returns a canonical 6-layer FR4 stackup with two internal
// plane layers sandwiching a thinner core, matching a common JLCPCB-style
// 6-layer build (F.Cu, core, In1.Cu, prepreg, In2.Cu, core, B.Cu — 4 dielectrics).
func Default6Layer() *LayerStack {
	ls, _ := NewLayerStack([]StackupLayer{
		copperLayer("F.Cu", 1),
		dielectricLayer("FR4", 0.2104),
		copperLayer("In1.Cu", 0.5),
		dielectricLayer("FR4", 1.065),
		copperLayer("In2.Cu", 0.5),
		dielectricLayer("FR4", 0.2104),
		copperLayer("B.Cu", 1),
	})

	return ls
}

// JLCPCB4Layer returns JLCPCB's standard 4-layer (1.6 mm, 1oz/0.5oz/0.5oz/1oz)
// stackup: F.Cu / prepreg(0.21mm) / In1.Cu / core(1.065mm) / In2.Cu /
// prepreg(0.21mm) / B.Cu, with JLCPCB's published 1.6mm total thickness figures.
func JLCPCB4Layer() *LayerStack {
	ls, _ := NewLayerStack([]StackupLayer{
		copperLayer("F.Cu", 1),
		dielectricLayer("FR4", 0.21),
		copperLayer("In1.Cu", 0.5),
		dielectricLayer("FR4", 1.065),
		copperLayer("In2.Cu", 0.5),
		dielectricLayer("FR4", 0.21),
		copperLayer("B.Cu", 1),
	})

	return ls
}

// OSHPark4Layer returns OSH Park's standard 4-layer stackup, which uses a
// thinner core (0.015in approx 0.381mm) sandwiched between outer prepregs.
func OSHPark4Layer() *LayerStack {
	ls, _ := NewLayerStack([]StackupLayer{
		copperLayer("F.Cu", 0.5),
		dielectricLayer("FR4", 0.1701),
		copperLayer("In1.Cu", 0.5),
		dielectricLayer("FR4", 0.381),
		copperLayer("In2.Cu", 0.5),
		dielectricLayer("FR4", 0.1701),
		copperLayer("B.Cu", 0.5),
	})

	return ls
}

// PresetByName resolves one of the manufacturer preset names used by
// adaptive layer escalation: "default_2layer", "default_6layer",
// "jlcpcb_4layer", "oshpark_4layer".
func PresetByName(name string) (*LayerStack, bool) {
	switch name {
	case "default_2layer":
		return Default2Layer(), true
	case "default_6layer":
		return Default6Layer(), true
	case "jlcpcb_4layer":
		return JLCPCB4Layer(), true
	case "oshpark_4layer":
		return OSHPark4Layer(), true
	default:
		return nil, false
	}
}
