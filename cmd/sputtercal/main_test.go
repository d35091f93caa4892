package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xrdlab/sputtercal/pkg/calibration"
	"github.com/xrdlab/sputtercal/pkg/config"
	"github.com/xrdlab/sputtercal/pkg/library"
	"github.com/xrdlab/sputtercal/pkg/powerselect"
	"github.com/xrdlab/sputtercal/pkg/server"
)

var geFile = filepath.Join("..", "..", "pkg", "calibration", "testdata", "ge_stationary.dat")

const noMotionFile = `---
element: Mn
atomic_mass: 54.938
density: 7.21
...
mass_i (mg), mass_f (mg), power (W), time (min), area (cm^2)
10, 10.5, 30, 60, 1
10, 11.0, 50, 60, 1
`

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "sputtercal.json")}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestShow(t *testing.T) {
	out, _, err := run(t, "show", geFile)
	require.NoError(t, err)
	assert.Contains(t, out, "72.63 g/mol")
	assert.Contains(t, out, "stationary")
	assert.Contains(t, out, "David Kalliecharan")
	assert.Contains(t, out, calibration.ColRateNmPerSec)
	assert.Contains(t, out, "0.898")
}

func TestShowMalformed(t *testing.T) {
	p := writeFile(t, t.TempDir(), "broken.dat", "element: Ge\n")
	_, _, err := run(t, "show", p)
	var fe *calibration.FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, p, fe.Path)
}

func TestRotatingSkipsFilesWithoutMotion(t *testing.T) {
	p := writeFile(t, t.TempDir(), "Mn.dat", noMotionFile)
	out, errOut, err := run(t, "rotating", p, geFile)
	require.NoError(t, err)
	assert.Contains(t, errOut, "table_motion : stationary|rotating")
	assert.Contains(t, out, "Ge")
	assert.NotContains(t, out, "Mn")
}

func TestFit(t *testing.T) {
	out, _, err := run(t, "fit", geFile)
	require.NoError(t, err)
	assert.Contains(t, out, "points: 3")
	assert.Contains(t, out, "30-50 W")
}

func TestSelect(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"Ge_Si_square.dat": "---\nelement: Ge\natomic_mass: 3\ndensity: 1\ntime: 1\narea: 1\n...\nmass_i, mass_f, power\n0, 0.02, 20\n0, 0.06, 60\n",
		"Co_Si_square.dat": "---\nelement: Co\natomic_mass: 1\ndensity: 1\ntime: 1\narea: 1\n...\nmass_i, mass_f, power\n0, 0.02, 20\n0, 0.06, 60\n",
		"Mn_Si_square.dat": "---\nelement: Mn\natomic_mass: 2\ndensity: 1\ntime: 1\narea: 1\n...\nmass_i, mass_f, power\n0, 0.02, 20\n0, 0.06, 60\n",
	} {
		writeFile(t, dir, name, content)
	}

	out, _, err := run(t, "select", "--dir", dir, "--x", "Co", "--y", "Mn_Si_square", "--z", "ge", "--power", "30", "--json")
	require.NoError(t, err)

	var sel powerselect.Selection
	require.NoError(t, json.Unmarshal([]byte(out), &sel))
	assert.Equal(t, 30.0, sel.Settings[0].PowerW)
	assert.InDelta(t, 30, sel.Settings[1].PowerW, 1e-6)
	assert.InDelta(t, 45, sel.Settings[2].PowerW, 1e-6)

	lib, err := library.Open(dir)
	require.NoError(t, err)
	ts := httptest.NewServer(server.NewRouter(lib, config.NewFileFromConfig(nil, "")))
	defer ts.Close()
	remoteOut, _, err := run(t, "select", "--remote", ts.URL, "--x", "Co", "--y", "Mn", "--z", "Ge", "--power", "30", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, out, remoteOut)

	_, _, err = run(t, "select", "--dir", dir, "--x", "W", "--y", "Mn", "--z", "Ge", "--power", "30")
	assert.Error(t, err)

	_, _, err = run(t, "select", "--dir", dir, "--x", "Co", "--y", "Mn", "--z", "Ge", "--power", "90")
	assert.ErrorIs(t, err, powerselect.ErrPowerOutOfRange)
}

func TestExport(t *testing.T) {
	out, _, err := run(t, "export", geFile)
	require.NoError(t, err)
	assert.Contains(t, out, "target,element,mass_i (mg)")
	assert.Contains(t, out, "ge_stationary,Ge,")

	raw, _, err := run(t, "export", "--format", "raw", geFile)
	require.NoError(t, err)
	assert.Contains(t, raw, "element: Ge")

	xlsx := filepath.Join(t.TempDir(), "cal.xlsx")
	_, _, err = run(t, "export", "-f", "xlsx", "-o", xlsx, geFile)
	require.NoError(t, err)
	info, err := os.Stat(xlsx)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	tests := map[string][]string{
		"xlsx to stdout":      {"export", "-f", "xlsx", geFile},
		"raw with many files": {"export", "-f", "raw", geFile, geFile},
		"unknown format":      {"export", "-f", "ods", geFile},
		"no files":            {"export"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := run(t, args...)
			assert.Error(t, err)
		})
	}
}

func TestConfigInitShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sputtercal.json")

	cmd := NewCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "config", "init"})
	require.NoError(t, cmd.Execute())

	cmd = NewCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "config", "init"})
	assert.Error(t, cmd.Execute())

	var out bytes.Buffer
	cmd = NewCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", path, "config", "show"})
	require.NoError(t, cmd.Execute())

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, 80.0, got["maxPower"])
	assert.Equal(t, "127.0.0.1:8470", got["listenAddr"])
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "UNKNOWN")
}
