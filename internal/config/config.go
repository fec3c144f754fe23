// Package config decodes design specification documents and reads the
// process environment.
//
// A design specification is a YAML document:
//
//	name: inv4
//	kind: chain
//	first_nmos_fingers: 8
//	first_pmos_fingers: 16
//	fan_factor: 2
//	num_stages: 4
//	overrides:
//	  nmos: [8, 4, 2, 2]
//	pins:
//	  - {name: in, grid: m1m2, at: XN0_0.in}
//	routes:
//	  - {grid: m1m2, from: "XN0_0.G[0]", to: "XN0_0.G[1]", dir: x}
//
package config

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/tinapiao/icgen"
	"github.com/tinapiao/icgen/capdac"
	"github.com/tinapiao/icgen/cells"
	"github.com/tinapiao/icgen/chain"
	"gopkg.in/yaml.v3"
)

// EnvGridUnit is the environment variable overriding the physical grid unit.
//
const EnvGridUnit = "CORE_GRID_UNIT_NM"

// Design kinds.
//
const (
	KindChain  = "chain"
	KindCapDAC = "capdac"
)

// LoadEnv loads environment files, ".env" if none is given. Missing files
// are ignored. Variables already set in the process environment are kept.
//
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrap(err, f)
		}
	}
	return nil
}

// GridUnit returns the value of CORE_GRID_UNIT_NM, or 0 if unset.
//
func GridUnit() (int, error) {
	s := os.Getenv(EnvGridUnit)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, icgen.Errorf(icgen.Syntax, []string{EnvGridUnit, s}, "grid unit must be a positive integer")
	}
	return n, nil
}

// OpenLibrary returns a frozen-ready template library read from the catalog
// file at path, or the built-in catalog if path is "-". unitNM overrides the
// catalog grid unit if positive.
//
func OpenLibrary(path string, unitNM int) (*icgen.Library, error) {
	if path == "-" || path == "" {
		return cells.Library(unitNM)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	reg := icgen.NewRegistry()
	if unitNM > 0 {
		if err = reg.SetUnit(unitNM); err != nil {
			return nil, err
		}
	}
	lib := icgen.NewLibrary(reg)
	if err = lib.Load(f); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return lib, nil
}

// Spec is a design specification document.
//
type Spec struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`

	FirstN    int        `yaml:"first_nmos_fingers"`
	FirstP    int        `yaml:"first_pmos_fingers"`
	Fan       float64    `yaml:"fan_factor"`
	Stages    int        `yaml:"num_stages"`
	Overrides *Overrides `yaml:"overrides"`

	Rows       []string `yaml:"rows"`
	Gap        []int    `yaml:"gap"`
	RingFactor float64  `yaml:"ring_factor"`
	Dummies    bool     `yaml:"dummies"`
	Bounds     []int    `yaml:"bounds"`

	Bits int `yaml:"bits"`

	Pins   []PinEntry   `yaml:"pins"`
	Routes []RouteEntry `yaml:"routes"`
}

// Overrides are explicit per-stage finger counts, in generation order.
//
type Overrides struct {
	NMOS []int `yaml:"nmos"`
	PMOS []int `yaml:"pmos"`
}

// PinEntry is an entry of the pin export table.
//
type PinEntry struct {
	Name  string `yaml:"name"`
	Grid  string `yaml:"grid"`
	Layer int    `yaml:"layer"`
	At    string `yaml:"at"`
}

// RouteEntry is an extra route.
//
type RouteEntry struct {
	Grid string `yaml:"grid"`
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Dir  string `yaml:"dir"`
	Via0 []int  `yaml:"via0"`
	Via1 []int  `yaml:"via1"`
	End0 string `yaml:"end0"`
	End1 string `yaml:"end1"`
}

// Decode decodes a design specification. Unknown keys are an error.
//
func Decode(r io.Reader) (*Spec, error) {
	var s Spec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, icgen.Errorf(icgen.Syntax, nil, "decode design spec: %v", err)
	}
	if s.Kind == "" {
		s.Kind = KindChain
	}
	return &s, nil
}

// ReadFile decodes the design specification file at path. The design name
// defaults to the file's base name.
//
func ReadFile(path string) (*Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	s, err := Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	if s.Name == "" {
		s.Name = baseName(path)
	}
	return s, nil
}

func baseName(path string) string {
	b := filepath.Base(path)
	return strings.TrimSuffix(b, filepath.Ext(b))
}

func rect(v []int, what string) (*icgen.Rect, error) {
	if v == nil {
		return nil, nil
	}
	if len(v) != 4 {
		return nil, icgen.Errorf(icgen.Syntax, []string{what}, "expected [x0, y0, x1, y1]")
	}
	r := icgen.R(v[0], v[1], v[2], v[3])
	return &r, nil
}

func point(v []int, what string) (icgen.Point, error) {
	if len(v) != 2 {
		return icgen.Point{}, icgen.Errorf(icgen.Syntax, []string{what}, "expected [x, y]")
	}
	return icgen.Pt(v[0], v[1]), nil
}

func via(v []int, what string) (*icgen.ViaSpec, error) {
	switch len(v) {
	case 0:
		return nil, nil
	case 2:
		return icgen.Drop(v[0], v[1]), nil
	case 3:
		vs := icgen.Drop(v[0], v[1])
		vs.Layer = v[2]
		return vs, nil
	}
	return nil, icgen.Errorf(icgen.Syntax, []string{what}, "expected [dx, dy] or [dx, dy, layer]")
}

// ChainParams converts the specification into chain parameters.
//
func (s *Spec) ChainParams() (chain.Params, error) {
	p := chain.Params{
		Fan:        s.Fan,
		Stages:     s.Stages,
		FirstN:     s.FirstN,
		FirstP:     s.FirstP,
		RingFactor: s.RingFactor,
		Dummies:    s.Dummies,
	}
	if o := s.Overrides; o != nil {
		p.CountsN, p.CountsP = o.NMOS, o.PMOS
	}
	for _, r := range s.Rows {
		dev, err := icgen.ParseDevice(r)
		if err != nil {
			return p, err
		}
		p.Rows = append(p.Rows, dev)
	}
	var err error
	if s.Gap != nil {
		g, err := point(s.Gap, "gap")
		if err != nil {
			return p, err
		}
		p.Gap = &g
	}
	if p.Bounds, err = rect(s.Bounds, "bounds"); err != nil {
		return p, err
	}
	if p.Routes, err = s.routes(); err != nil {
		return p, err
	}
	if s.Pins != nil {
		p.Pins = make([]chain.PinSpec, 0, len(s.Pins))
		for _, e := range s.Pins {
			at, err := icgen.ParseEndpoint(e.At)
			if err != nil {
				return p, errors.Wrap(err, "pin "+e.Name)
			}
			p.Pins = append(p.Pins, chain.PinSpec{Name: e.Name, Grid: e.Grid, Layer: e.Layer, At: at})
		}
	}
	return p, nil
}

func (s *Spec) routes() ([]icgen.RouteSpec, error) {
	var rs []icgen.RouteSpec
	for i, e := range s.Routes {
		what := "route " + strconv.Itoa(i)
		from, err := icgen.ParseEndpoint(e.From)
		if err != nil {
			return nil, errors.Wrap(err, what)
		}
		to, err := icgen.ParseEndpoint(e.To)
		if err != nil {
			return nil, errors.Wrap(err, what)
		}
		dir, err := icgen.ParseDirection(e.Dir)
		if err != nil {
			return nil, errors.Wrap(err, what)
		}
		r := icgen.RouteSpec{Grid: e.Grid, From: from, To: to, Dir: dir}
		if r.Via0, err = via(e.Via0, what+" via0"); err != nil {
			return nil, err
		}
		if r.Via1, err = via(e.Via1, what+" via1"); err != nil {
			return nil, err
		}
		if r.End0, err = icgen.ParseEndStyle(e.End0); err != nil {
			return nil, errors.Wrap(err, what)
		}
		if r.End1, err = icgen.ParseEndStyle(e.End1); err != nil {
			return nil, errors.Wrap(err, what)
		}
		rs = append(rs, r)
	}
	return rs, nil
}

// CapDACParams converts the specification into cap-DAC parameters.
//
func (s *Spec) CapDACParams() (capdac.Params, error) {
	b, err := rect(s.Bounds, "bounds")
	return capdac.Params{Bits: s.Bits, Bounds: b}, err
}

// Build builds the specified design over lib.
//
func (s *Spec) Build(lib *icgen.Library) (*icgen.Design, error) {
	switch s.Kind {
	case KindChain:
		p, err := s.ChainParams()
		if err != nil {
			return nil, err
		}
		res, err := chain.New(s.Name, lib, p)
		if err != nil {
			return nil, err
		}
		return res.Design, nil
	case KindCapDAC:
		p, err := s.CapDACParams()
		if err != nil {
			return nil, err
		}
		res, err := capdac.New(s.Name, lib, p)
		if err != nil {
			return nil, err
		}
		return res.Design, nil
	}
	return nil, icgen.Errorf(icgen.Syntax, []string{s.Kind}, "unknown design kind")
}
