package render_test

import (
	"bytes"
	"image"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/lattice"
	"github.com/soypat/lattice/internal/d3"
	"github.com/soypat/lattice/render"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot/cmpimg"
)

// imgDelta is the cmpimg tolerance: 0 is a perfect match.
const imgDelta = 0

func smallOptions() render.Options {
	opts := render.DefaultOptions()
	opts.Width, opts.Height = 160, 120
	opts.StrutRadius = 0.01
	return opts
}

func testLattice(t testing.TB) lattice.Lattice {
	rng := rand.New(rand.NewSource(1))
	points := d3.NewBox(r3.Vec{}, d3.Elem(1)).RandomSet(rng, 40)
	l, err := lattice.Build(points)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestImageDeterministic(t *testing.T) {
	l := testLattice(t)
	opts := smallOptions()
	a := encodePNG(t, l, opts)
	b := encodePNG(t, l, opts)
	equal, err := cmpimg.EqualApprox("png", a, b, imgDelta)
	if err != nil {
		t.Fatal(err)
	}
	if !equal {
		t.Error("rendering the same lattice twice gave different images")
	}
}

func TestImageNotBlank(t *testing.T) {
	l := testLattice(t)
	opts := smallOptions()
	lit := encodePNG(t, l, opts)
	blank := encodePNG(t, lattice.Lattice{}, opts)
	equal, err := cmpimg.EqualApprox("png", lit, blank, imgDelta)
	if err != nil {
		t.Fatal(err)
	}
	if equal {
		t.Error("lattice render matches the blank background")
	}
}

func TestImageSize(t *testing.T) {
	opts := smallOptions()
	for _, ss := range []int{0, 1, 3} {
		opts.Supersample = ss
		for _, l := range []lattice.Lattice{{}, testLattice(t)} {
			img, err := render.Image(l, opts)
			if err != nil {
				t.Fatal(err)
			}
			if got := img.Bounds().Size(); got != image.Pt(opts.Width, opts.Height) {
				t.Errorf("supersample %d: got size %v, want %dx%d", ss, got, opts.Width, opts.Height)
			}
		}
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview.png")
	if err := render.SavePNG(path, testLattice(t), smallOptions()); err != nil {
		t.Fatal(err)
	}
	fp, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer fp.Close()
	cfg, err := png.DecodeConfig(fp)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 160 || cfg.Height != 120 {
		t.Errorf("got %dx%d png", cfg.Width, cfg.Height)
	}
}

func TestOptionsInvalid(t *testing.T) {
	for _, modify := range []func(*render.Options){
		func(o *render.Options) { o.Width = 0 },
		func(o *render.Options) { o.StrutRadius = 0 },
		func(o *render.Options) { o.FOV = 180 },
		func(o *render.Options) { o.Eye = r3.Vec{X: 0.5} },
		func(o *render.Options) { o.Up = o.Eye },
	} {
		opts := smallOptions()
		modify(&opts)
		if _, err := render.Image(lattice.Lattice{}, opts); err == nil {
			t.Errorf("expected error for options %+v", opts)
		}
	}
}

func encodePNG(t testing.TB, l lattice.Lattice, opts render.Options) []byte {
	t.Helper()
	img, err := render.Image(l, opts)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func BenchmarkImage(b *testing.B) {
	l := testLattice(b)
	opts := smallOptions()
	for i := 0; i < b.N; i++ {
		if _, err := render.Image(l, opts); err != nil {
			b.Fatal(err)
		}
	}
}
