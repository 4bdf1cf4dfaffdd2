package mountmodel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMeshTableBilinearInterpolation(t *testing.T) {
	raw := `2 0.0 1.0
2 0.0 1.0
0.0 0.0
0.0 2.0
4.0 0.0
4.0 2.0
`
	m, err := parseMeshTable(strings.NewReader(raw))
	require.NoError(t, err)

	dha, ddec := m.Correct(0.5, 0.5)
	assert.InDelta(t, 2.0, dha, 1e-9)
	assert.InDelta(t, 1.0, ddec, 1e-9)
}

func TestParseMeshTableClampsOutsideGrid(t *testing.T) {
	raw := `2 0.0 1.0
2 0.0 1.0
0.0 0.0
0.0 2.0
4.0 0.0
4.0 2.0
`
	m, err := parseMeshTable(strings.NewReader(raw))
	require.NoError(t, err)

	dha, _ := m.Correct(-5, -5)
	assert.InDelta(t, 0.0, dha, 1e-9)
}

func TestParseMeshTableRejectsMismatchedRowCount(t *testing.T) {
	raw := `2 0.0 1.0
2 0.0 1.0
0.0 0.0
`
	_, err := parseMeshTable(strings.NewReader(raw))
	assert.Error(t, err)
}

func TestIdentityMeshAlwaysZero(t *testing.T) {
	dha, ddec := IdentityMesh().Correct(1.23, -0.4)
	assert.Equal(t, 0.0, dha)
	assert.Equal(t, 0.0, ddec)
}
