package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileDefaults(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0644))

	for name, path := range map[string]string{
		"missing file": filepath.Join(dir, "missing.json"),
		"empty file":   empty,
	} {
		t.Run(name, func(t *testing.T) {
			f, err := NewFile(path)
			require.NoError(t, err)
			assert.Equal(t, 80.0, f.MaxPower())
			assert.Equal(t, 1.2, f.MaskScale())
			assert.Equal(t, ".", f.DataDir())
			assert.Equal(t, "127.0.0.1:8470", f.ListenAddr())
		})
	}
}

func TestFileLoadPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sputtercal.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"maxPower": 120, "dataDir": "/data/calibration"}`), 0644))

	f, err := NewFile(path)
	require.NoError(t, err)
	assert.Equal(t, 120.0, f.MaxPower())
	assert.Equal(t, "/data/calibration", f.DataDir())
	assert.Equal(t, 1.2, f.MaskScale())
}

func TestFileLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"bad json":           `{"maxPower": `,
		"negative max power": `{"maxPower": -5}`,
		"zero mask scale":    `{"maskScale": 0}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sputtercal.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			_, err := NewFile(path)
			assert.Error(t, err)
		})
	}
}

func TestFileSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sputtercal.json")
	f, err := NewFile(path)
	require.NoError(t, err)

	f.SetMaxPower(60)
	f.SetMaskScale(1.5)
	f.SetDataDir("cal")
	f.SetListenAddr(":9000")
	require.NoError(t, f.Save())

	g, err := NewFile(path)
	require.NoError(t, err)
	assert.Equal(t, 60.0, g.MaxPower())
	assert.Equal(t, 1.5, g.MaskScale())
	assert.Equal(t, "cal", g.DataDir())
	assert.Equal(t, ":9000", g.ListenAddr())
	assert.Equal(t, 60.0, g.LogrusFields()["maxPower"])
}

func TestSetterPanics(t *testing.T) {
	f := NewFileFromConfig(nil, "")
	assert.Panics(t, func() { f.SetMaxPower(0) })
	assert.Panics(t, func() { f.SetMaskScale(-1) })
}

func TestNewRawFileConfigFromConfig(t *testing.T) {
	_, err := NewRawFileConfigFromConfig(nil)
	assert.Error(t, err)

	raw, err := NewRawFileConfigFromConfig(NewFileFromConfig(nil, ""))
	require.NoError(t, err)
	assert.Equal(t, 80.0, *raw.MaxPower)
	assert.Equal(t, "127.0.0.1:8470", *raw.ListenAddr)
}
