package tconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadParsesKeyValueSkippingCommentsAndBlanks(t *testing.T) {
	path := writeTemp(t, "telescoped.cfg", `
# a comment
TRACKINT=3
GERMEQ=1   # inline comment

ZENFLIP=0
`)
	f, err := Load(path)
	require.NoError(t, err)

	v, err := f.Int("TRACKINT")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	b, err := f.Bool("GERMEQ")
	require.NoError(t, err)
	assert.True(t, b)
}

func TestLoadRejectsWrongExtension(t *testing.T) {
	path := writeTemp(t, "telescoped.txt", "TRACKINT=3\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestStringMissingKeyIsError(t *testing.T) {
	path := writeTemp(t, "hc.cfg", "HT=0.01\n")
	f, err := Load(path)
	require.NoError(t, err)

	_, err = f.String("DT")
	assert.Error(t, err)
}

func TestFloatDefaultUsesDefaultWhenAbsent(t *testing.T) {
	path := writeTemp(t, "hc.cfg", "HT=0.01\n")
	f, err := Load(path)
	require.NoError(t, err)

	v, err := f.FloatDefault("DT", 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	path := writeTemp(t, "hc.cfg", "not a key value line\n")
	_, err := Load(path)
	assert.Error(t, err)
}
