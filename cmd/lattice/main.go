// Command lattice builds the Voronoi lattice of a point cloud.
//
// Usage:
//
//	lattice [flags] input [output]
//
// input is an .xyz or binary .stl file and output an .obj, .ply or .stl
// file. Either may carry a trailing .zst or .lz4 compression extension.
// Repeating -i processes several inputs concurrently, each written next to
// its input. With -sample a synthetic cloud replaces the input file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
)

const (
	defaultInput  = "mesh.xyz"
	defaultOutput = "output"
)

// inputList collects repeated -i flags.
type inputList []string

func (l *inputList) String() string { return strings.Join(*l, ",") }

func (l *inputList) Set(s string) error {
	*l = append(*l, s)
	return nil
}

type flags struct {
	inputs     inputList
	output     string
	configPath string
	workers    int
	failFast   bool
	repeat     int
	logLevel   string
	logFormat  string
	format     string
	preview    string
	sample     string
	count      int
	seed       int64
	size       float64
	// set holds the names of flags given on the command line.
	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	var f flags
	fs := flag.NewFlagSet("lattice", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: lattice [flags] input [output]\n\nflags:\n")
		fs.PrintDefaults()
	}
	fs.Var(&f.inputs, "i", "input point cloud `path`, may be repeated (default "+defaultInput+")")
	fs.Var(&f.inputs, "input", "alias for -i")
	fs.StringVar(&f.output, "o", "", "output lattice `path` (default "+defaultOutput+".<format>)")
	fs.StringVar(&f.output, "output", "", "alias for -o")
	fs.StringVar(&f.configPath, "config", "", "JSON configuration `file`")
	fs.IntVar(&f.workers, "workers", 0, "concurrent jobs, 0 uses GOMAXPROCS")
	fs.BoolVar(&f.failFast, "fail-fast", false, "stop scheduling jobs after the first failure")
	fs.IntVar(&f.repeat, "repeat", 1, "build every input this many times, saving only the first")
	fs.StringVar(&f.logLevel, "log-level", "info", "log `level`: debug, info, warn or error")
	fs.StringVar(&f.logFormat, "log-format", "text", "log format: text or json")
	fs.StringVar(&f.format, "format", "obj", "output format when no output path is given: obj, ply or stl")
	fs.StringVar(&f.preview, "preview", "", "write a PNG preview of the lattice to `path`")
	fs.StringVar(&f.sample, "sample", "", "sample a synthetic cloud from `shape` (sphere, box or cylinder) instead of reading input")
	fs.IntVar(&f.count, "n", 1000, "number of sampled points")
	fs.Int64Var(&f.seed, "seed", 1, "sampling seed")
	fs.Float64Var(&f.size, "size", 1, "sampled shape size")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })

	rest := fs.Args()
	if len(rest) > 2 {
		fs.Usage()
		return nil, fmt.Errorf("too many arguments: %q", rest)
	}
	if len(rest) > 0 {
		f.inputs = append(f.inputs, rest[0])
	}
	if len(rest) > 1 {
		if f.output != "" {
			return nil, errors.New("output given both as argument and flag")
		}
		f.output = rest[1]
	}
	return &f, nil
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("lattice: ")
	f, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	} else if err != nil {
		log.Fatal(err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, f, os.Stderr); err != nil {
		stop()
		log.Fatal(err)
	}
}
