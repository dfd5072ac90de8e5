// Package render draws shaded PNG previews of lattices.
//
// Every lattice edge is meshed as a strut, written to a temporary STL file
// and drawn with a phong shader. The image is rendered at a supersampled
// resolution and downscaled for antialiasing.
package render

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/lattice"
	"github.com/soypat/lattice/meshio"
	"gonum.org/v1/gonum/spatial/r3"
)

// Options configures a preview render.
type Options struct {
	Width, Height int
	// Supersample renders at this multiple of Width and Height before
	// downscaling. Values below 1 disable supersampling.
	Supersample int
	// StrutRadius is relative to the lattice bounding box diagonal.
	StrutRadius float64
	// Eye is the camera position after the lattice is fit in the
	// [-1,1] cube. Up is the camera up direction.
	Eye, Up r3.Vec
	// FOV is the vertical field of view in degrees.
	FOV float64
	// Background and Color are hex colors such as "#FFF8E3".
	Background, Color string
}

// DefaultOptions returns a 1024x768 isometric view.
func DefaultOptions() Options {
	return Options{
		Width:       1024,
		Height:      768,
		Supersample: 2,
		StrutRadius: meshio.DefaultStrutRadius,
		Eye:         r3.Vec{X: 3, Y: 3, Z: 3},
		Up:          r3.Vec{Z: 1},
		FOV:         30,
		Background:  "#FFF8E3",
		Color:       "#468966",
	}
}

func (o Options) validate() error {
	switch {
	case o.Width <= 0 || o.Height <= 0:
		return fmt.Errorf("invalid image size %dx%d", o.Width, o.Height)
	case o.StrutRadius <= 0:
		return errors.New("strut radius must be positive")
	case o.FOV <= 0 || o.FOV >= 180:
		return fmt.Errorf("field of view %g out of range (0,180)", o.FOV)
	case r3.Norm2(o.Eye) <= 1:
		return errors.New("eye must lie outside the unit sphere")
	case r3.Norm2(r3.Cross(o.Eye, o.Up)) == 0:
		return errors.New("up direction must not be parallel to the view direction")
	}
	return nil
}

// Image renders l. An empty lattice yields a blank image.
func Image(l lattice.Lattice, opts Options) (image.Image, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	scale := max(opts.Supersample, 1)
	width, height := opts.Width*scale, opts.Height*scale
	background := fauxgl.HexColor(opts.Background)
	if l.Empty() {
		blank := fauxgl.NewContext(opts.Width, opts.Height)
		blank.ClearColorBufferWith(background)
		return blank.Image(), nil
	}
	mesh, err := loadStruts(l, meshio.StrutRadius(l, opts.StrutRadius))
	if err != nil {
		return nil, err
	}
	// fit mesh in a bi-unit cube centered at the origin
	mesh.BiUnitCube()

	var (
		far    = 2 * r3.Norm(opts.Eye)
		near   = 0.1
		eye    = fauxgl.V(opts.Eye.X, opts.Eye.Y, opts.Eye.Z)
		center = fauxgl.V(0, 0, 0)
		up     = fauxgl.V(opts.Up.X, opts.Up.Y, opts.Up.Z)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()
	)
	context := fauxgl.NewContext(width, height)
	context.ClearColorBufferWith(background)
	aspect := float64(width) / float64(height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(opts.FOV, aspect, near, far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = fauxgl.HexColor(opts.Color)
	context.Shader = shader
	context.DrawMesh(mesh)

	img := context.Image()
	if scale > 1 {
		img = resize.Resize(uint(opts.Width), uint(opts.Height), img, resize.Bilinear)
	}
	return img, nil
}

// SavePNG renders l and writes the image to path.
func SavePNG(path string, l lattice.Lattice, opts Options) error {
	img, err := Image(l, opts)
	if err != nil {
		return err
	}
	return fauxgl.SavePNG(path, img)
}

// loadStruts meshes l and loads it into fauxgl through an STL file.
func loadStruts(l lattice.Lattice, radius float64) (*fauxgl.Mesh, error) {
	dir, err := os.MkdirTemp("", "lattice-preview")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "struts.stl")
	fp, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	err = meshio.WriteSTL(fp, meshio.Struts(l, radius))
	if cerr := fp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("meshing struts: %w", err)
	}
	return fauxgl.LoadSTL(path)
}
