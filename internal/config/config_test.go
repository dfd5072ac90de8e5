package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	lvl, err := cfg.Level()
	require.NoError(t, err)
	require.Equal(t, slog.LevelInfo, lvl)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lattice.json")
	const doc = `{
	// Run on two workers and stop at the first failure.
	"workers": 2,
	"fail_fast": true,
	"log_level": "DEBUG",
	"log_format": "json",
	"preview": {
		"width": 320,
		"height": 240, // trailing comma below
	},
	"sample": {"shape": "box", "count": 50},
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)

	want := Default()
	want.Workers = 2
	want.FailFast = true
	want.LogLevel = "DEBUG"
	want.LogFormat = "json"
	want.Preview.Width = 320
	want.Preview.Height = 240
	want.Sample.Shape = "box"
	want.Sample.Count = 50
	require.Equal(t, want, cfg)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, lvl)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	for _, test := range []struct {
		name string
		path string
		msg  string
	}{
		{name: "extension", path: write("lattice.yaml", "{}"), msg: ".json extension"},
		{name: "missing", path: filepath.Join(dir, "missing.json"), msg: "stat"},
		{name: "too large", path: write("big.json", "{"+strings.Repeat(" ", maxFileSize)+"}"), msg: "too large"},
		{name: "syntax", path: write("syntax.json", `{"workers": }`), msg: "parse"},
		{name: "unknown field", path: write("unknown.json", `{"wokers": 2}`), msg: "unknown field"},
		{name: "workers", path: write("workers.json", `{"workers": -1}`), msg: "workers"},
		{name: "repeat", path: write("repeat.json", `{"repeat": 0}`), msg: "repeat"},
		{name: "level", path: write("level.json", `{"log_level": "loud"}`), msg: "log_level"},
		{name: "format", path: write("format.json", `{"log_format": "xml"}`), msg: "log_format"},
		{name: "output", path: write("output.json", `{"output_format": "off"}`), msg: "output_format"},
		{name: "preview", path: write("preview.json", `{"preview": {"width": 0}}`), msg: "preview size"},
		{name: "supersample", path: write("ss.json", `{"preview": {"supersample": 0}}`), msg: "supersample"},
		{name: "radius", path: write("radius.json", `{"preview": {"strut_radius": -1}}`), msg: "strut_radius"},
		{name: "count", path: write("count.json", `{"sample": {"count": -5}}`), msg: "sample count"},
		{name: "size", path: write("size.json", `{"sample": {"size": 0}}`), msg: "sample size"},
	} {
		_, err := Load(test.path)
		require.Error(t, err, test.name)
		require.Contains(t, err.Error(), test.msg, test.name)
	}
}
