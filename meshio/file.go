package meshio

import (
	"bufio"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type codec uint8

const (
	codecNone codec = iota
	codecZstd
	codecLZ4
)

// Open opens path for reading, decompressing .zst and .lz4 files.
func Open(path string) (io.ReadCloser, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	_, c := splitExt(path)
	switch c {
	case codecZstd:
		dec, err := zstd.NewReader(bufio.NewReader(fp))
		if err != nil {
			fp.Close()
			return nil, err
		}
		rc := dec.IOReadCloser()
		return &readCloser{Reader: rc, closers: []io.Closer{rc, fp}}, nil
	case codecLZ4:
		return &readCloser{Reader: lz4.NewReader(bufio.NewReader(fp)), closers: []io.Closer{fp}}, nil
	}
	return fp, nil
}

// Create creates or truncates path for writing, compressing .zst and .lz4
// files. The returned writer must be closed to flush compressed data.
func Create(path string) (io.WriteCloser, error) {
	fp, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	_, c := splitExt(path)
	switch c {
	case codecZstd:
		enc, err := zstd.NewWriter(fp, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			fp.Close()
			return nil, err
		}
		return &writeCloser{Writer: enc, closers: []io.Closer{enc, fp}}, nil
	case codecLZ4:
		zw := lz4.NewWriter(fp)
		return &writeCloser{Writer: zw, closers: []io.Closer{zw, fp}}, nil
	}
	return fp, nil
}

// readCloser closes a stack of readers outermost first.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error { return closeAll(r.closers) }

// writeCloser closes a stack of writers outermost first so compressors
// flush before the file is closed.
type writeCloser struct {
	io.Writer
	closers []io.Closer
}

func (w *writeCloser) Close() error { return closeAll(w.closers) }

func closeAll(closers []io.Closer) error {
	var err error
	for _, c := range closers {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
