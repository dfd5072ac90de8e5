package main

import (
	"bytes"
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/lattice"
	"github.com/soypat/lattice/internal/d3"
	"github.com/soypat/lattice/meshio"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func writeCloud(t *testing.T, path string, seed int64, n int) []r3.Vec {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	points := d3.NewBox(r3.Vec{}, d3.Elem(1)).RandomSet(rng, n)
	require.NoError(t, meshio.WritePoints(path, points))
	return points
}

func runArgs(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stderr bytes.Buffer
	f, err := parseFlags(args, &stderr)
	if err != nil {
		return stderr.String(), err
	}
	err = run(context.Background(), f, &stderr)
	return stderr.String(), err
}

func TestParseFlags(t *testing.T) {
	var stderr bytes.Buffer
	f, err := parseFlags([]string{"-workers", "2", "in.xyz", "out.ply"}, &stderr)
	require.NoError(t, err)
	require.Equal(t, inputList{"in.xyz"}, f.inputs)
	require.Equal(t, "out.ply", f.output)
	require.True(t, f.set["workers"])
	require.False(t, f.set["repeat"])

	f, err = parseFlags([]string{"-i", "a.xyz", "-input", "b.xyz", "-o", "x.obj"}, &stderr)
	require.NoError(t, err)
	require.Equal(t, inputList{"a.xyz", "b.xyz"}, f.inputs)
	require.Equal(t, "x.obj", f.output)

	_, err = parseFlags([]string{"a", "b", "c"}, &stderr)
	require.Error(t, err)
	_, err = parseFlags([]string{"-o", "x.obj", "a.xyz", "y.obj"}, &stderr)
	require.Error(t, err)
	_, err = parseFlags([]string{"-bogus"}, &stderr)
	require.Error(t, err)
}

func TestRunSingle(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "cloud.xyz.zst")
	out := filepath.Join(dir, "lattice.obj")
	points := writeCloud(t, in, 1, 200)
	logs, err := runArgs(t, in, out)
	require.NoError(t, err, logs)
	require.Contains(t, logs, "lattice saved")

	fp, err := os.Open(out)
	require.NoError(t, err)
	defer fp.Close()
	got, err := meshio.ReadOBJ(fp)
	require.NoError(t, err)
	require.NoError(t, got.Validate())
	require.Equal(t, lattice.MustBuild(points), got)
}

func TestRunMultipleInputs(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.xyz")
	b := filepath.Join(dir, "b.xyz.lz4")
	writeCloud(t, a, 1, 50)
	writeCloud(t, b, 2, 60)
	logs, err := runArgs(t, "-i", a, "-i", b, "-format", "ply", "-workers", "2")
	require.NoError(t, err, logs)
	for _, path := range []string{"a.lattice.ply", "b.lattice.ply"} {
		_, err := os.Stat(filepath.Join(dir, path))
		require.NoError(t, err)
	}
	_, err = runArgs(t, "-i", a, "-i", b, "-o", filepath.Join(dir, "x.obj"))
	require.Error(t, err)
}

func TestRunSampleWithPreview(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "sphere.stl")
	png := filepath.Join(dir, "sphere.png")
	cfgPath := filepath.Join(dir, "run.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{
		"preview": {"width": 64, "height": 48, "supersample": 1}, // small and fast
	}`), 0o644))
	logs, err := runArgs(t, "-config", cfgPath, "-sample", "sphere", "-n", "80", "-seed", "3", "-o", out, "-preview", png, "-repeat", "3")
	require.NoError(t, err, logs)
	for _, path := range []string{out, png} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		require.NotZero(t, info.Size())
	}
	fp, err := os.Open(out)
	require.NoError(t, err)
	defer fp.Close()
	model, err := meshio.ReadSTL(fp)
	require.NoError(t, err)
	require.NotEmpty(t, model)
}

func TestRunFewPoints(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "tiny.xyz")
	out := filepath.Join(dir, "tiny.obj")
	writeCloud(t, in, 1, 3)
	logs, err := runArgs(t, in, out)
	require.NoError(t, err)
	require.Contains(t, logs, "fewer than 4 points")
	_, err = os.Stat(out)
	require.NoError(t, err, "an empty lattice is still written")
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := runArgs(t, filepath.Join(dir, "missing.xyz"))
	require.ErrorIs(t, err, os.ErrNotExist)

	in := filepath.Join(dir, "cloud.xyz")
	writeCloud(t, in, 1, 20)
	_, err = runArgs(t, "-sample", "sphere", in)
	require.Error(t, err)
	_, err = runArgs(t, "-sample", "torus")
	require.Error(t, err)
	_, err = runArgs(t, "-log-level", "loud", in)
	require.Error(t, err)
	_, err = runArgs(t, in, filepath.Join(dir, "out.dxf"))
	require.ErrorIs(t, err, meshio.ErrFormat)
}

func TestLoadConfigOverride(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"workers": 2, "fail_fast": true, "log_format": "json"}`), 0o644))
	var stderr bytes.Buffer
	f, err := parseFlags([]string{"-config", cfgPath, "-workers", "5", "-n", "10"}, &stderr)
	require.NoError(t, err)
	cfg, err := loadConfig(f)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Workers)
	require.True(t, cfg.FailFast)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, 10, cfg.Sample.Count)
}

func TestSiblingOutput(t *testing.T) {
	for in, want := range map[string]string{
		"cloud.xyz":          "cloud.lattice.obj",
		"dir/cloud.xyz.zst":  "dir/cloud.lattice.obj",
		"dir/cloud.XYZ.LZ4":  "dir/cloud.lattice.obj",
		"noext":              "noext.lattice.obj",
		"a.b.stl":            "a.b.lattice.obj",
		"dir.d/model.stl.gz": "dir.d/model.stl.lattice.obj",
	} {
		require.Equal(t, want, siblingOutput(in, "obj"), in)
	}
}
