// Package meshplot renders the bilinear pointing-mesh table (spec §4.2,
// internal/mountmodel.MeshTable) and a sample tracking profile (internal/
// tracking.Sample) to PNG for operator inspection — an offline diagnostic
// tool, not part of the real-time core. Grounded on internal/lidar/monitor's
// GridPlotter: one line per grid row, one plot per residual component,
// saved with plot.Save.
package meshplot

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/rockit-astro/superwasp-talon/internal/mountmodel"
	"github.com/rockit-astro/superwasp-talon/internal/tracking"
)

// radToArcsec converts a residual in radians to arcseconds for a readable
// Y axis; mesh residuals are small by construction (spec §4.2: "a few
// arcsec" typical correction magnitude).
const radToArcsec = 180.0 / 3.141592653589793 * 3600.0

// MeshPlots renders two PNGs at (haPath, decPath): the dHA and dDec
// residual surfaces, one line per Dec row, HA along the X axis, matching
// GridPlotter's per-ring line-plot layout.
func MeshPlots(mesh *mountmodel.MeshTable, haPath, decPath string) error {
	nHA, nDec := mesh.Dims()
	if nHA < 2 || nDec < 2 {
		return fmt.Errorf("meshplot: mesh table too small to plot (%dx%d)", nHA, nDec)
	}

	pHA := plot.New()
	pHA.Title.Text = "Pointing mesh: HA residual"
	pHA.X.Label.Text = "Hour angle (rad)"
	pHA.Y.Label.Text = "dHA (arcsec)"

	pDec := plot.New()
	pDec.Title.Text = "Pointing mesh: Dec residual"
	pDec.X.Label.Text = "Hour angle (rad)"
	pDec.Y.Label.Text = "dDec (arcsec)"

	for j := 0; j < nDec; j++ {
		haPts := make(plotter.XYs, nHA)
		decPts := make(plotter.XYs, nHA)
		for i := 0; i < nHA; i++ {
			dha, ddec := mesh.At(i, j)
			haPts[i] = plotter.XY{X: mesh.NodeHA(i), Y: dha * radToArcsec}
			decPts[i] = plotter.XY{X: mesh.NodeHA(i), Y: ddec * radToArcsec}
		}

		haLine, err := plotter.NewLine(haPts)
		if err != nil {
			return fmt.Errorf("meshplot: dHA row %d: %w", j, err)
		}
		pHA.Add(haLine)
		pHA.Legend.Add(fmt.Sprintf("dec row %d", j), haLine)

		decLine, err := plotter.NewLine(decPts)
		if err != nil {
			return fmt.Errorf("meshplot: dDec row %d: %w", j, err)
		}
		pDec.Add(decLine)
		pDec.Legend.Add(fmt.Sprintf("dec row %d", j), decLine)
	}

	if err := pHA.Save(10*vg.Inch, 6*vg.Inch, haPath); err != nil {
		return fmt.Errorf("meshplot: save %s: %w", haPath, err)
	}
	if err := pDec.Save(10*vg.Inch, 6*vg.Inch, decPath); err != nil {
		return fmt.Errorf("meshplot: save %s: %w", decPath, err)
	}
	return nil
}

// ProfilePlot renders a sample tracking profile (spec §3/§4.4) to a single
// PNG: x, y, and r (if present) mount-frame positions against sample index.
func ProfilePlot(samples []tracking.Sample, hasRotator bool, path string) error {
	if len(samples) == 0 {
		return fmt.Errorf("meshplot: empty profile")
	}

	p := plot.New()
	p.Title.Text = "Tracking profile"
	p.X.Label.Text = "Sample index"
	p.Y.Label.Text = "Mount position (rad)"

	xPts := make(plotter.XYs, len(samples))
	yPts := make(plotter.XYs, len(samples))
	var rPts plotter.XYs
	if hasRotator {
		rPts = make(plotter.XYs, len(samples))
	}
	for i, s := range samples {
		xPts[i] = plotter.XY{X: float64(i), Y: s.X}
		yPts[i] = plotter.XY{X: float64(i), Y: s.Y}
		if hasRotator {
			rPts[i] = plotter.XY{X: float64(i), Y: s.R}
		}
	}

	xLine, err := plotter.NewLine(xPts)
	if err != nil {
		return fmt.Errorf("meshplot: x line: %w", err)
	}
	p.Add(xLine)
	p.Legend.Add("x (HA axis)", xLine)

	yLine, err := plotter.NewLine(yPts)
	if err != nil {
		return fmt.Errorf("meshplot: y line: %w", err)
	}
	p.Add(yLine)
	p.Legend.Add("y (Dec axis)", yLine)

	if hasRotator {
		rLine, err := plotter.NewLine(rPts)
		if err != nil {
			return fmt.Errorf("meshplot: r line: %w", err)
		}
		p.Add(rLine)
		p.Legend.Add("r (rotator)", rLine)
	}

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("meshplot: save %s: %w", path, err)
	}
	return nil
}
