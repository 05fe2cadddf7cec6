// Package analysis inspects recorded step statistics.
//
//   - [Spectrum]: power spectrum of a sampled series, zero padded to a power
//     of two
//   - [Dominant]: strongest non-constant frequency of a series
//   - [NewPhasePlot]: one statistic against another
//   - [Settle]: first sample after which a series stays within a band
//
// A pair of compressed cells rings while its springs relax; the dominant
// frequency of edges or mean_pressure exposes that ringing:
//
//	freq, _ := analysis.Dominant(series, sampleDt)
package analysis
