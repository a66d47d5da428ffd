package version

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "version.json"), []byte(`{"version":"1.4.0"}`), 0o600))
	t.Chdir(dir)

	info := Load()
	assert.Equal(t, "1.4.0", info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
}

func TestLoad_Fallbacks(t *testing.T) {
	t.Chdir(t.TempDir())
	assert.Equal(t, "0.0.0", Load().Version)

	old := Version
	Version = "2.0.0"
	t.Cleanup(func() { Version = old })
	assert.Equal(t, "2.0.0", Load().Version)
}
