package tline

import "math"

// Stripline computes the IPC-2141 impedance of a symmetric (or
// asymmetric-derated) stripline trace of width w_mm, between two reference
// planes hAboveMM and hBelowMM apart, with relative dielectric constant
// epsR and copper thickness t_mm.
//
// Steps:
//  1. eps_eff = epsR (stripline fields are fully embedded in the dielectric).
//  2. b = hAbove + hBelow + t; apply thickness-corrected effective width.
//  3. Z0 = (60/sqrt(epsR)) * ln(4b / (0.67*pi*(0.8*w_eff + t))).
//  4. If the two reference-plane distances differ by more than a factor of
//     3 (asymmetry ratio |a-b|/(a+b) > 0.5), apply a linear derating.
//  5. Clamp Z0 to [10, 200] ohm.
func Stripline(wMM, hAboveMM, hBelowMM, epsR, tMM, freqHz float64) (ImpedanceResult, error) {
	if wMM <= 0 {
		return ImpedanceResult{}, ErrNonPositiveWidth
	}
	if hAboveMM <= 0 || hBelowMM <= 0 {
		return ImpedanceResult{}, ErrNonPositiveGap
	}

	b := hAboveMM + hBelowMM + tMM
	wEff := wMM
	if tMM > 0 {
		wEff = wMM + (tMM/math.Pi)*(1+math.Log(2*math.Min(hAboveMM, hBelowMM)/tMM))
	}

	z0 := (60 / math.Sqrt(epsR)) * math.Log(4*b/(0.67*math.Pi*(0.8*wEff+tMM)))

	asymmetry := striplineAsymmetry(hAboveMM, hBelowMM)
	if asymmetry > 0.5 {
		// Linear derating: each 0.1 of asymmetry beyond 0.5 reduces Z0 by 2%,
		// reflecting the field crowding toward the nearer plane.
		derate := 1 - 0.02*((asymmetry-0.5)/0.1)
		if derate < 0.5 {
			derate = 0.5
		}
		z0 *= derate
	}

	z0 = clamp(z0, 10, 200)

	epsEff := epsR
	vp := (SpeedOfLight * 1e6) / math.Sqrt(epsEff)
	lossDBPerM := striplineLossDBPerM(z0, wEff/1000, epsEff, epsR, freqHz)

	return ImpedanceResult{
		Z0Ohm:              z0,
		EpsEff:             epsEff,
		LossDBPerM:         lossDBPerM,
		PhaseVelocityMPerS: vp,
	}, nil
}

// striplineAsymmetry returns a normalized asymmetry ratio in [0,1): 0 for a
// perfectly symmetric stripline (hAbove == hBelow), approaching 1 as the
// trace crowds one reference plane.
func striplineAsymmetry(hAbove, hBelow float64) float64 {
	total := hAbove + hBelow
	if total <= 0 {
		return 0
	}
	diff := math.Abs(hAbove - hBelow)

	return diff / total
}

func striplineLossDBPerM(z0, wMeters, epsEff, epsR, freqHz float64) float64 {
	if freqHz <= 0 || z0 <= 0 || wMeters <= 0 {
		return 0
	}
	rs := math.Sqrt(math.Pi * freqHz * mu0 / copperConductivitySPerM)
	alphaC := rs / (z0 * wMeters)

	_, tanD := LookupTanD(epsR)
	alphaD := math.Pi * freqHz * math.Sqrt(epsEff) * tanD / (SpeedOfLight * 1e6)

	const npToDb = 8.686

	return (alphaC + alphaD) * npToDb
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}

	return v
}

// WidthForImpedanceStripline solves for trace width (mm) yielding the
// target impedance between the two reference planes, by bisection.
func WidthForImpedanceStripline(z0Target, hAboveMM, hBelowMM, epsR, tMM float64) (float64, bool, error) {
	if z0Target <= 0 {
		return 0, false, ErrNonPositiveImpedance
	}
	b := hAboveMM + hBelowMM + tMM
	f := func(w float64) float64 {
		r, err := Stripline(w, hAboveMM, hBelowMM, epsR, tMM, 0)
		if err != nil {
			return 0
		}

		return r.Z0Ohm
	}
	w, converged := bisectSolve(f, b*0.01, b*4, z0Target, bisectionTolerance, false, 100)

	return w, converged, nil
}
