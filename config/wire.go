package config

import (
	"github.com/katalvlaran/pcbroute/analysis"
)

// CongestionConfig derives an analysis.CongestionConfig from the profile.
func (p Profile) CongestionConfig() analysis.CongestionConfig {
	return analysis.CongestionConfig{
		GridSizeMM:    p.Congestion.GridSizeMM,
		MergeRadiusMM: p.Congestion.MergeRadiusMM,
		MaxWorkers:    p.Congestion.MaxWorkers,
	}
}

// SignalIntegrityConfig derives an analysis.SignalIntegrityConfig from the profile.
func (p Profile) SignalIntegrityConfig() analysis.SignalIntegrityConfig {
	return analysis.SignalIntegrityConfig{
		MinParallelLengthMM:   p.SignalIntegrity.MinParallelLengthMM,
		MaxCouplingDistanceMM: p.SignalIntegrity.MaxCouplingDistanceMM,
		HighSpeedPatterns:     p.SignalIntegrity.AdditionalPatterns,
	}
}

// ThermalConfig derives an analysis.ThermalConfig from the profile.
func (p Profile) ThermalConfig() analysis.ThermalConfig {
	return analysis.ThermalConfig{
		ClusterRadiusMM: p.Thermal.ClusterRadiusMM,
		MinPowerW:       p.Thermal.MinPowerW,
	}
}
