package mountmodel

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
)

// MeshTable is a bilinearly-interpolated residual table keyed on (HA, Dec),
// grounded on spec §4.2's "tabulated bilinear interpolant loaded from disk"
// pointing-mesh. Each grid node stores a small (dHA, dDec) correction found
// by the observatory's pointing model calibration run; everything between
// nodes is bilinearly interpolated.
type MeshTable struct {
	haMin, haStep   float64
	decMin, decStep float64
	nHA, nDec       int
	dHA, dDec       []float64 // row-major, nHA*nDec each
}

// IdentityMesh returns a 2x2 all-zero mesh spanning the whole sky, whose
// correction is always zero,
// for use where no calibration table is configured yet.
func IdentityMesh() *MeshTable {
	return &MeshTable{
		haMin: -math.Pi, haStep: 2 * math.Pi, nHA: 2,
		decMin: -math.Pi / 2, decStep: math.Pi, nDec: 2,
		dHA:  make([]float64, 4),
		dDec: make([]float64, 4),
	}
}

// LoadMeshTable reads a mesh table in the simple row-major text format:
//
//	nHA haMin haStep
//	nDec decMin decStep
//	dHA dDec   (nHA*nDec lines, HA-major)
func LoadMeshTable(path string) (*MeshTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mountmodel: open mesh table: %w", err)
	}
	defer f.Close()
	return parseMeshTable(f)
}

func parseMeshTable(r io.Reader) (*MeshTable, error) {
	sc := bufio.NewScanner(r)
	m := &MeshTable{}

	if !sc.Scan() {
		return nil, fmt.Errorf("mountmodel: mesh table missing HA header")
	}
	if _, err := fmt.Sscan(sc.Text(), &m.nHA, &m.haMin, &m.haStep); err != nil {
		return nil, fmt.Errorf("mountmodel: parse HA header: %w", err)
	}
	if !sc.Scan() {
		return nil, fmt.Errorf("mountmodel: mesh table missing Dec header")
	}
	if _, err := fmt.Sscan(sc.Text(), &m.nDec, &m.decMin, &m.decStep); err != nil {
		return nil, fmt.Errorf("mountmodel: parse Dec header: %w", err)
	}
	if m.nHA < 2 || m.nDec < 2 {
		return nil, fmt.Errorf("mountmodel: mesh table needs at least a 2x2 grid")
	}

	n := m.nHA * m.nDec
	m.dHA = make([]float64, 0, n)
	m.dDec = make([]float64, 0, n)
	for sc.Scan() {
		var dha, ddec float64
		if _, err := fmt.Sscan(sc.Text(), &dha, &ddec); err != nil {
			return nil, fmt.Errorf("mountmodel: parse mesh row %d: %w", len(m.dHA), err)
		}
		m.dHA = append(m.dHA, dha)
		m.dDec = append(m.dDec, ddec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(m.dHA) != n {
		return nil, fmt.Errorf("mountmodel: mesh table expected %d rows, got %d", n, len(m.dHA))
	}
	return m, nil
}

// Correct returns the bilinearly interpolated (dHA, dDec) residual at the
// given sky position. Positions outside the grid are clamped to the nearest
// edge cell rather than extrapolated.
func (m *MeshTable) Correct(ha, dec float64) (dha, ddec float64) {
	if m == nil {
		return 0, 0
	}

	fi := (ha - m.haMin) / m.haStep
	fj := (dec - m.decMin) / m.decStep

	i0 := clampIndex(int(math.Floor(fi)), m.nHA-2)
	j0 := clampIndex(int(math.Floor(fj)), m.nDec-2)
	tx := clamp01(fi - float64(i0))
	ty := clamp01(fj - float64(j0))

	dha = bilerp(m.dHA, m.nDec, i0, j0, tx, ty)
	ddec = bilerp(m.dDec, m.nDec, i0, j0, tx, ty)
	return
}

func bilerp(grid []float64, nDec, i0, j0 int, tx, ty float64) float64 {
	at := func(i, j int) float64 { return grid[i*nDec+j] }
	v00, v01 := at(i0, j0), at(i0, j0+1)
	v10, v11 := at(i0+1, j0), at(i0+1, j0+1)
	top := v00 + (v10-v00)*tx
	bot := v01 + (v11-v01)*tx
	return top + (bot-top)*ty
}

func clampIndex(i, max int) int {
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}

// Dims reports the mesh grid's node counts, for callers (internal/meshplot)
// that render the table rather than merely interpolate it.
func (m *MeshTable) Dims() (nHA, nDec int) { return m.nHA, m.nDec }

// NodeHA returns the HA coordinate, in radians, of grid column i.
func (m *MeshTable) NodeHA(i int) float64 { return m.haMin + float64(i)*m.haStep }

// NodeDec returns the Dec coordinate, in radians, of grid row j.
func (m *MeshTable) NodeDec(j int) float64 { return m.decMin + float64(j)*m.decStep }

// At returns the raw (uninterpolated) residual stored at grid node (i, j).
func (m *MeshTable) At(i, j int) (dha, ddec float64) {
	idx := i*m.nDec + j
	return m.dHA[idx], m.dDec[idx]
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
