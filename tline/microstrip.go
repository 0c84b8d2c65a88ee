package tline

import "math"

// copperConductivitySPerM is the conductivity of copper, sigma, in S/m,
// used by the conductor-loss model.
const copperConductivitySPerM = 5.96e7

// mu0 is the permeability of free space, H/m.
const mu0 = 4 * math.Pi * 1e-7

// Microstrip computes the Hammerstad-Jensen closed-form impedance of a
// microstrip trace of width w_mm at height h_mm above a reference plane,
// with relative dielectric constant epsR and copper thickness t_mm,
// evaluated at frequency freqHz for loss computation.
//
// Steps (Hammerstad-Jensen):
//  1. Apply a thickness correction to the effective width.
//  2. Compute normalized width u = w_eff/h.
//  3. Compute eps_eff via the standard a(u)/b(epsR) weighting.
//  4. Compute Z0 via the f(u) closed form.
//  5. Derive phase velocity and losses.
func Microstrip(wMM, hMM, epsR, tMM, freqHz float64) (ImpedanceResult, error) {
	if wMM <= 0 {
		return ImpedanceResult{}, ErrNonPositiveWidth
	}
	if hMM <= 0 {
		return ImpedanceResult{}, ErrNonPositiveGap
	}

	wEff := thicknessCorrectedWidth(wMM, hMM, tMM, epsR)
	u := wEff / hMM

	epsEff := microstripEpsEff(u, epsR)
	z0 := microstripZ0(u, epsEff)

	// SpeedOfLight is expressed in mm/ns, numerically equal to 1e6 m/s.
	vp := (SpeedOfLight * 1e6) / math.Sqrt(epsEff)

	lossDBPerM := microstripLossDBPerM(z0, wEff/1000, epsEff, epsR, freqHz, 1.0)

	return ImpedanceResult{
		Z0Ohm:              z0,
		EpsEff:             epsEff,
		LossDBPerM:         lossDBPerM,
		PhaseVelocityMPerS: vp,
	}, nil
}

// thicknessCorrectedWidth widens an (effectively zero-thickness) trace
// width to account for copper thickness t, per the standard microstrip
// thickness correction (applied only when t > 0).
func thicknessCorrectedWidth(wMM, hMM, tMM, epsR float64) float64 {
	if tMM <= 0 {
		return wMM
	}
	// Standard correction: dW = (t/pi) * (1 + ln(2h/t)) for w/h <= 1/(2*pi),
	// else (t/pi)*(1+ln(4*pi*w/t)). We use the first-order variant used
	// widely for thin copper weights (<= 2oz) which dominate PCB practice.
	dw := (tMM / math.Pi) * (1 + math.Log(2*hMM/tMM))
	if dw < 0 {
		dw = 0
	}

	return wMM + dw
}

// a computes the Hammerstad-Jensen a(u) exponent term.
func a(u float64) float64 {
	u4 := u * u * u * u

	return 1 + (1.0/49.0)*math.Log((u4+math.Pow(u/52, 2))/(u4+0.432)) +
		(1.0/18.7)*math.Log(1+math.Pow(u/18.1, 3))
}

// b computes the Hammerstad-Jensen b(epsR) exponent term.
func b(epsR float64) float64 {
	return 0.564 * math.Pow((epsR-0.9)/(epsR+3), 0.053)
}

func microstripEpsEff(u, epsR float64) float64 {
	aU := a(u)
	bEps := b(epsR)

	return (epsR+1)/2 + ((epsR-1)/2)*math.Pow(1+10/u, -aU*bEps)
}

func microstripZ0(u, epsEff float64) float64 {
	fu := 6 + (2*math.Pi-6)*math.Exp(-math.Pow(30.666/u, 0.7528))

	return (60 / math.Sqrt(epsEff)) * math.Log(fu/u+math.Sqrt(1+math.Pow(2/u, 2)))
}

// microstripLossDBPerM computes conductor + dielectric loss in dB/m.
// wMeters is the conductor width in meters; freqHz the operating frequency.
func microstripLossDBPerM(z0, wMeters, epsEff, epsR, freqHz, qFillingFactor float64) float64 {
	if freqHz <= 0 || z0 <= 0 || wMeters <= 0 {
		return 0
	}
	rs := math.Sqrt(math.Pi * freqHz * mu0 / copperConductivitySPerM)
	alphaC := rs / (z0 * wMeters) // Np/m

	_, tanD := LookupTanD(epsR)
	alphaD := math.Pi * freqHz * math.Sqrt(epsEff) * epsR * qFillingFactor * tanD / (SpeedOfLight * 1e6) // Np/m

	const npToDb = 8.686

	return (alphaC + alphaD) * npToDb
}

// LookupTanD resolves a loss tangent for a given epsR using a small
// built-in table of common laminates; unknown epsR values fall back to a
// generic FR4-like tan(delta) of 0.02. This keeps the loss model usable
// even when the caller only supplies epsR (not a named material).
func LookupTanD(epsR float64) (name string, tanD float64) {
	switch {
	case epsR >= 4.4 && epsR <= 4.6:
		return "FR4", 0.02
	case epsR >= 3.4 && epsR <= 3.55:
		return "Rogers 4003C", 0.0027
	case epsR >= 3.4 && epsR <= 3.5:
		return "Rogers 4350B", 0.0037
	default:
		return "generic", 0.02
	}
}

// WidthForImpedance solves for the trace width (mm) that yields the target
// impedance z0Target at height hMM above the reference plane, by bisection
// over [0.01*hMM, 4*hMM]. Relative tolerance is 1%; if those bounds fail to
// bracket the target, the bound on the target's side moves by factors of 2,
// at most seven times (up to 128x its starting value).
func WidthForImpedance(z0Target, hMM, epsR, tMM float64) (float64, bool, error) {
	if z0Target <= 0 {
		return 0, false, ErrNonPositiveImpedance
	}
	if hMM <= 0 {
		return 0, false, ErrNonPositiveGap
	}

	f := func(w float64) float64 {
		r, err := Microstrip(w, hMM, epsR, tMM, 0)
		if err != nil {
			return 0
		}

		return r.Z0Ohm
	}
	// Z0 decreases as width increases.
	w, converged := bisectSolve(f, hMM*0.01, hMM*4, z0Target, bisectionTolerance, false, 100)

	return w, converged, nil
}
