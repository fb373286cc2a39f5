// Package analysis provides tools for inspecting generated Dalitz-plot
// samples.
//
//   - [Histogram2D]: fixed-bin 2D histogram with axis projections
//   - [UniformityChiSquare]: chi-square test of a sample against a flat DP
//   - [ScatterToASCII]: terminal scatter plot with the DP boundary
//   - [Boundary]: the kinematic boundary as a closed contour
//
// # Testing a Phase-Space Sample
//
// Only bins lying entirely inside the DP enter the test, so the boundary
// does not bias the expected counts:
//
//	h, _ := analysis.NewDalitzHistogram(kin, 20, 20)
//	for _, ev := range events {
//	    h.Fill(ev.M13Sq, ev.M23Sq)
//	}
//	res, err := analysis.UniformityChiSquare(h, kin)
//	if err == nil && res.PValue < 1e-3 {
//	    // sample is not flat
//	}
package analysis
