package analysis

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/katalvlaran/pcbroute/geom"
	"github.com/katalvlaran/pcbroute/model"
)

// ThermalSeverity is a thermal-concern severity band.
type ThermalSeverity string

const (
	ThermalOK       ThermalSeverity = "ok"
	ThermalWarm     ThermalSeverity = "warm"
	ThermalHot      ThermalSeverity = "hot"
	ThermalCritical ThermalSeverity = "critical"
)

type heatSourcePattern struct {
	componentType string
	ref           *regexp.Regexp // matched against the reference designator
	value         *regexp.Regexp // matched against the component value
}

// heatSourcePatterns classifies a component as a heat source by reference
// designator shape plus a value/footprint check, mirroring the regulator /
// mosfet / resistor / led / driver categories of the reference heuristic.
var heatSourcePatterns = []heatSourcePattern{
	{"regulator", regexp.MustCompile(`(?i)^U\d+$`), regexp.MustCompile(`(?i)78\d{2}|79\d{2}|LM\d{4}|AMS1117|LDO|REG|TPS|LT\d{4}|AP\d{4}|MIC\d{4}|XC\d{4}`)},
	{"mosfet", regexp.MustCompile(`(?i)^Q\d+$`), regexp.MustCompile(`(?i)IRF|IRLZ|SI\d{4}|AO\d{4}|FET|MOS`)},
	{"resistor", regexp.MustCompile(`(?i)^R\d+$`), nil},
	{"led", regexp.MustCompile(`(?i)^D\d+$`), regexp.MustCompile(`(?i)LED`)},
	{"driver", regexp.MustCompile(`(?i)DRV\d+|L298|L293|TB\d{4}|A4988|TMC\d{4}`), nil},
}

var switchingRegulatorPatterns = regexp.MustCompile(`(?i)TPS6|LM26|LM34|MP\d{4}|RT\d{4}|SY\d{4}|AOZ\d{4}`)
var powerLEDPackages = []string{"5050", "3535", "3030", "CREE", "OSRAM", "LUXEON"}

var typicalPowerW = map[string]float64{
	"regulator_ldo":      0.5,
	"regulator_switching": 0.2,
	"mosfet_low_side":    0.1,
	"driver_motor":       1.0,
	"led_indicator":      0.02,
	"led_power":          0.5,
	"unknown":            0.1,
}

var resistorPowerRatingW = map[string]float64{
	"0402": 0.0625, "0603": 0.1, "0805": 0.125, "1206": 0.25, "2512": 1.0,
}

// thermalResistanceCPerW estimates junction/pad-to-ambient thermal
// resistance by package, in °C per Watt.
var thermalResistanceCPerW = map[string]float64{
	"SOT-23": 250.0, "SOT-223": 50.0, "TO-220": 5.0, "TO-252": 15.0, "TO-263": 10.0,
	"QFN": 30.0, "SOIC-8": 100.0, "TSSOP": 120.0,
	"0402": 300.0, "0603": 250.0, "0805": 200.0, "1206": 150.0,
}

// ThermalSource is one heat-generating component.
type ThermalSource struct {
	Ref               string
	PowerW            float64
	Package           string
	ThermalResistance float64 // °C/W, 0 if unknown
	Position          geom.Point
	ComponentType     string
	Value             string
}

// ThermalHotspot is a cluster of heat sources and the board's ability to
// dissipate the power they generate.
type ThermalHotspot struct {
	Position      geom.Point
	RadiusMM      float64
	Sources       []ThermalSource
	TotalPowerW   float64
	CopperAreaMM2 float64
	ViaCount      int
	ThermalVias   int
	Severity      ThermalSeverity
	MaxTempRiseC  float64
	Suggestions   []string
}

// ThermalConfig parameterizes heat-source clustering.
type ThermalConfig struct {
	ClusterRadiusMM float64 // defaults to 10.0
	MinPowerW       float64 // defaults to 0.05
}

func (cfg *ThermalConfig) setDefaults() {
	if cfg.ClusterRadiusMM <= 0 {
		cfg.ClusterRadiusMM = 10.0
	}
	if cfg.MinPowerW <= 0 {
		cfg.MinPowerW = 0.05
	}
}

// AnalyzeThermal identifies heat-generating footprints by reference and
// value pattern, clusters them by proximity, and estimates a temperature
// rise and severity per cluster from copper area and thermal-via count.
// Hotspots are returned critical-first.
func AnalyzeThermal(board BoardSample, cfg ThermalConfig) []ThermalHotspot {
	cfg.setDefaults()

	sources := identifyHeatSources(board.Footprints, cfg)
	if len(sources) == 0 {
		return nil
	}

	clusters := clusterSources(sources, cfg.ClusterRadiusMM)

	hotspots := make([]ThermalHotspot, 0, len(clusters))
	for _, cluster := range clusters {
		hotspot := analyzeCluster(cluster, board)
		hotspot.Suggestions = suggestThermalImprovements(hotspot)
		hotspots = append(hotspots, hotspot)
	}

	severityOrder := map[ThermalSeverity]int{ThermalCritical: 0, ThermalHot: 1, ThermalWarm: 2, ThermalOK: 3}
	sort.SliceStable(hotspots, func(i, j int) bool {
		return severityOrder[hotspots[i].Severity] < severityOrder[hotspots[j].Severity]
	})

	return hotspots
}

func identifyHeatSources(footprints []model.Footprint, cfg ThermalConfig) []ThermalSource {
	var sources []ThermalSource
	for _, fp := range footprints {
		componentType, ok := classifyComponent(fp)
		if !ok {
			continue
		}

		power := estimatePower(fp, componentType)
		if power < cfg.MinPowerW {
			continue
		}

		pkg := detectPackage(fp.Package)
		sources = append(sources, ThermalSource{
			Ref:               fp.Ref,
			PowerW:            power,
			Package:           pkg,
			ThermalResistance: thermalResistanceCPerW[pkg],
			Position:          fp.Position,
			ComponentType:     componentType,
			Value:             fp.Value,
		})
	}

	return sources
}

func classifyComponent(fp model.Footprint) (string, bool) {
	for _, p := range heatSourcePatterns {
		if !p.ref.MatchString(fp.Ref) {
			continue
		}

		switch p.componentType {
		case "regulator":
			if isRegulatorByValue(fp.Value) {
				return "regulator", true
			}
		case "led":
			if isLEDByValue(fp.Value, fp.Package) {
				return "led", true
			}
		case "mosfet":
			if p.value.MatchString(fp.Value) {
				return "mosfet", true
			}
		default:
			return p.componentType, true
		}
	}

	return "", false
}

func isRegulatorByValue(value string) bool {
	return regexp.MustCompile(`(?i)78\d{2}|79\d{2}|LM\d{4}|AMS1117|LDO|REG|TPS|LT\d{4}|AP\d{4}|MIC\d{4}|XC\d{4}`).MatchString(value)
}

func isLEDByValue(value, pkg string) bool {
	led := regexp.MustCompile(`(?i)LED`)

	return led.MatchString(value) || led.MatchString(pkg)
}

func estimatePower(fp model.Footprint, componentType string) float64 {
	pkg := detectPackage(fp.Package)
	value := strings.ToUpper(fp.Value)

	switch componentType {
	case "resistor":
		rating, ok := resistorPowerRatingW[pkg]
		if !ok {
			rating = 0.1
		}

		return rating * 0.5
	case "led":
		for _, marker := range powerLEDPackages {
			if strings.Contains(strings.ToUpper(fp.Package), marker) {
				return typicalPowerW["led_power"]
			}
		}

		return typicalPowerW["led_indicator"]
	case "regulator":
		if switchingRegulatorPatterns.MatchString(value) {
			return typicalPowerW["regulator_switching"]
		}

		return typicalPowerW["regulator_ldo"]
	case "mosfet":
		return typicalPowerW["mosfet_low_side"]
	case "driver":
		return typicalPowerW["driver_motor"]
	default:
		return typicalPowerW["unknown"]
	}
}

func detectPackage(name string) string {
	upper := strings.ToUpper(name)
	for pkg := range thermalResistanceCPerW {
		if strings.Contains(upper, strings.ToUpper(pkg)) {
			return pkg
		}
	}

	return "unknown"
}

// clusterSources greedily groups sources within clusterRadius of a cluster
// seed, in input order, matching the reference single-pass assignment.
func clusterSources(sources []ThermalSource, clusterRadius float64) [][]ThermalSource {
	assigned := make([]bool, len(sources))
	var clusters [][]ThermalSource

	for i, src := range sources {
		if assigned[i] {
			continue
		}

		cluster := []ThermalSource{src}
		assigned[i] = true

		for j := i + 1; j < len(sources); j++ {
			if assigned[j] {
				continue
			}
			if src.Position.Dist(sources[j].Position) <= clusterRadius {
				cluster = append(cluster, sources[j])
				assigned[j] = true
			}
		}

		clusters = append(clusters, cluster)
	}

	return clusters
}

func analyzeCluster(sources []ThermalSource, board BoardSample) ThermalHotspot {
	var center geom.Point
	var radius float64

	if len(sources) == 1 {
		center = sources[0].Position
		radius = 5.0
	} else {
		var sumX, sumY float64
		for _, s := range sources {
			sumX += s.Position.X
			sumY += s.Position.Y
		}
		center = geom.Point{X: sumX / float64(len(sources)), Y: sumY / float64(len(sources))}

		maxDist := 0.0
		for _, s := range sources {
			if d := s.Position.Dist(center); d > maxDist {
				maxDist = d
			}
		}
		radius = math.Max(maxDist+2.0, 5.0)
	}

	totalPower := 0.0
	for _, s := range sources {
		totalPower += s.PowerW
	}

	viaCount, thermalVias := 0, 0
	for _, v := range board.Vias {
		if v.Position.Dist(center) > radius {
			continue
		}
		viaCount++
		if v.Drill <= 0.4 && len(v.LayersSpanned) >= 2 {
			thermalVias++
		}
	}

	copperArea := estimateCopperArea(center, radius, board)
	maxTempRise := estimateTempRise(totalPower, copperArea, thermalVias)
	severity := classifyThermalSeverity(maxTempRise, totalPower)

	return ThermalHotspot{
		Position:      geom.Point{X: geom.Round(center.X, 2), Y: geom.Round(center.Y, 2)},
		RadiusMM:      geom.Round(radius, 2),
		Sources:       sources,
		TotalPowerW:   geom.Round(totalPower, 3),
		CopperAreaMM2: geom.Round(copperArea, 1),
		ViaCount:      viaCount,
		ThermalVias:   thermalVias,
		Severity:      severity,
		MaxTempRiseC:  geom.Round(maxTempRise, 1),
	}
}

func estimateCopperArea(center geom.Point, radius float64, board BoardSample) float64 {
	copperArea := 0.0
	for _, z := range board.Zones {
		if !zoneOverlapsCircle(z, center, radius) {
			continue
		}
		zoneArea := polygonArea(z.Polygon)
		capped := math.Min(zoneArea, math.Pi*radius*radius)
		copperArea += capped
	}

	if copperArea > 0 {
		return copperArea
	}

	traceLength := 0.0
	for _, seg := range board.Segments {
		mid := geom.Point{X: (seg.Start.X + seg.End.X) / 2, Y: (seg.Start.Y + seg.End.Y) / 2}
		if mid.Dist(center) <= radius {
			traceLength += seg.Length()
		}
	}

	return traceLength * 0.25
}

func zoneOverlapsCircle(z model.Zone, center geom.Point, radius float64) bool {
	if len(z.Polygon) == 0 {
		return false
	}

	minX, maxX := z.Polygon[0].X, z.Polygon[0].X
	minY, maxY := z.Polygon[0].Y, z.Polygon[0].Y
	for _, p := range z.Polygon {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	closestX := math.Max(minX, math.Min(center.X, maxX))
	closestY := math.Max(minY, math.Min(center.Y, maxY))

	return geom.Point{X: closestX, Y: closestY}.Dist(center) <= radius
}

// polygonArea uses the shoelace formula; the reference analyzer's
// bounding-box overlap test is a coarse filter, not an exact clip, so this
// is an estimate rather than the true intersection area.
func polygonArea(poly []geom.Point) float64 {
	if len(poly) < 3 {
		return 0
	}

	area := 0.0
	for i := range poly {
		j := (i + 1) % len(poly)
		area += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}

	return math.Abs(area) / 2.0
}

func estimateTempRise(powerW, copperAreaMM2 float64, thermalVias int) float64 {
	if powerW <= 0 {
		return 0
	}

	thermalR := 200.0
	if copperAreaMM2 > 0 {
		thermalR = 5000.0 / copperAreaMM2
	}

	viaFactor := 1.0 / (1.0 + 0.1*float64(thermalVias))
	thermalR *= viaFactor
	thermalR = math.Max(thermalR, 10.0)

	return powerW * thermalR
}

func classifyThermalSeverity(tempRise, powerW float64) ThermalSeverity {
	switch {
	case tempRise > 60 || powerW > 2.0:
		return ThermalCritical
	case tempRise > 40 || powerW > 1.0:
		return ThermalHot
	case tempRise > 20 || powerW > 0.5:
		return ThermalWarm
	default:
		return ThermalOK
	}
}

func suggestThermalImprovements(hotspot ThermalHotspot) []string {
	var suggestions []string

	if hotspot.ThermalVias < 4 && hotspot.TotalPowerW > 0.2 {
		main := hotspot.Sources[0]
		for _, s := range hotspot.Sources {
			if s.PowerW > main.PowerW {
				main = s
			}
		}
		suggestions = append(suggestions, fmt.Sprintf(
			"add thermal vias under %s (currently %d, recommend 4+ for %.2fW)",
			main.Ref, hotspot.ThermalVias, hotspot.TotalPowerW))
	}

	minCopper := hotspot.TotalPowerW * 100
	if hotspot.CopperAreaMM2 < minCopper {
		suggestions = append(suggestions, fmt.Sprintf(
			"increase copper pour area for heat spreading (current: %.0fmm2, recommend: %.0fmm2+)",
			hotspot.CopperAreaMM2, minCopper))
	}

	if len(hotspot.Sources) > 1 && hotspot.TotalPowerW > 0.5 {
		refs := make([]string, 0, 3)
		for i, s := range hotspot.Sources {
			if i >= 3 {
				break
			}
			refs = append(refs, s.Ref)
		}
		list := strings.Join(refs, ", ")
		if len(hotspot.Sources) > 3 {
			list += fmt.Sprintf(" (+%d more)", len(hotspot.Sources)-3)
		}
		suggestions = append(suggestions, fmt.Sprintf("consider separating heat sources (%s) to distribute thermal load", list))
	}

	for _, s := range hotspot.Sources {
		if s.PowerW > 0.5 && s.ThermalResistance > 0 {
			tempRise := s.PowerW * s.ThermalResistance
			if tempRise > 50 {
				suggestions = append(suggestions, fmt.Sprintf(
					"%s may exceed safe temperature (estimated +%.0fC rise) - consider heatsink or larger pad",
					s.Ref, tempRise))
			}
		}
	}

	for _, s := range hotspot.Sources {
		if s.Package == "SOT-23" && s.PowerW > 0.2 {
			suggestions = append(suggestions, fmt.Sprintf(
				"%s (%s) has limited thermal capability - consider SOT-223 or larger package for %.2fW",
				s.Ref, s.Package, s.PowerW))
		}
	}

	return suggestions
}
