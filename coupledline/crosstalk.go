package coupledline

import (
	"math"

	"github.com/katalvlaran/pcbroute/tline"
)

// Severity classifies a crosstalk estimate.
type Severity int

const (
	SeverityAcceptable Severity = iota // < 3%
	SeverityMarginal                   // < 10%
	SeverityExcessive                  // >= 10%
)

func (s Severity) String() string {
	switch s {
	case SeverityAcceptable:
		return "acceptable"
	case SeverityMarginal:
		return "marginal"
	default:
		return "excessive"
	}
}

// CrosstalkResult reports NEXT/FEXT between two parallel traces.
type CrosstalkResult struct {
	NextPercent  float64
	NextDB       float64
	FextPercent  float64
	FextDB       float64
	Severity     Severity
	Suggestion   string
}

// severityThresholds classify crosstalk coupling as marginal or excessive.
const (
	marginalThresholdPercent  = 3.0
	excessiveThresholdPercent = 10.0
)

// Crosstalk computes NEXT and FEXT between two parallel traces of width
// wMM, edge-to-edge spacing gMM, coupled length lengthMM, and aggressor
// rise time tRiseNS, over a reference-plane height hMM with dielectric
// epsR.
//
// Steps:
//  1. Derive k and eps_eff via the coupled-line solver.
//  2. Rise distance Lr = tr * vp (mm); saturation length Lsat = Lr/2.
//  3. NEXT coefficient kb = k/2: linear below saturation, saturated above.
//  4. FEXT coefficient kf = 2*k*L/Lr.
func Crosstalk(wMM, gMM, hMM, epsR, tMM, lengthMM, tRiseNS float64, layer Layer) (CrosstalkResult, error) {
	if wMM <= 0 {
		return CrosstalkResult{}, ErrNonPositiveWidth
	}
	if gMM <= 0 {
		return CrosstalkResult{}, ErrNonPositiveGap
	}
	if lengthMM <= 0 {
		return CrosstalkResult{}, ErrNonPositiveLength
	}

	var pair DifferentialPairResult
	var err error
	if layer == LayerStripline {
		pair, err = CoupledStripline(wMM, gMM, hMM, hMM, epsR, tMM)
	} else {
		pair, err = CoupledMicrostrip(wMM, gMM, hMM, epsR, tMM)
	}
	if err != nil {
		return CrosstalkResult{}, err
	}

	vpMMPerNS := (tline.SpeedOfLight) / math.Sqrt(pair.EpsEffEven) // mm/ns
	lr := tRiseNS * vpMMPerNS
	lsat := lr / 2

	kb := pair.K / 2
	var nextCoupling float64
	if lengthMM <= lsat {
		nextCoupling = kb * (lengthMM / lsat)
	} else {
		nextCoupling = kb
	}

	kf := 2 * pair.K * (lengthMM / lr)
	if kf > 1 {
		kf = 1
	}

	nextPercent := nextCoupling * 100
	fextPercent := kf * 100

	worst := math.Max(nextPercent, fextPercent)
	sev := SeverityAcceptable
	if worst >= excessiveThresholdPercent {
		sev = SeverityExcessive
	} else if worst >= marginalThresholdPercent {
		sev = SeverityMarginal
	}

	return CrosstalkResult{
		NextPercent: nextPercent,
		NextDB:      percentToDB(nextPercent),
		FextPercent: fextPercent,
		FextDB:      percentToDB(fextPercent),
		Severity:    sev,
		Suggestion:  crosstalkSuggestion(sev),
	}, nil
}

func percentToDB(percent float64) float64 {
	ratio := percent / 100
	if ratio <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(ratio)
}

func crosstalkSuggestion(sev Severity) string {
	switch sev {
	case SeverityAcceptable:
		return ""
	case SeverityMarginal:
		return "increase edge-to-edge spacing or reduce coupled length"
	default:
		return "increase spacing to at least 2x current gap, or add a grounded guard trace between the traces"
	}
}

// SpacingForCrosstalkBudget solves for the edge-to-edge gap (mm) that keeps
// worst-case NEXT/FEXT under maxPercent, for fixed width w, coupled length
// L, and rise time tr, by bisection.
func SpacingForCrosstalkBudget(maxPercent, wMM, lengthMM, hMM, epsR, tMM, tRiseNS float64, layer Layer) (gMM float64, converged bool, err error) {
	if maxPercent <= 0 {
		return 0, false, tline.ErrNonPositiveImpedance
	}

	f := func(g float64) float64 {
		r, e := Crosstalk(wMM, g, hMM, epsR, tMM, lengthMM, tRiseNS, layer)
		if e != nil {
			return 100
		}

		return math.Max(r.NextPercent, r.FextPercent)
	}

	// Crosstalk percentage decreases as gap increases.
	g, conv := bisect(f, hMM*0.01, hMM*8, maxPercent, 0.05, false, 100)

	return g, conv, nil
}
