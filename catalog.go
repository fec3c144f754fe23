package icgen

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// catalog is the document format read by Library.Load.
//
type catalog struct {
	GridUnitNM    int           `yaml:"grid_unit_nm"`
	PlacementGrid string        `yaml:"placement_grid"`
	Grids         []catalogGrid `yaml:"grids"`
	Templates     []catalogTmpl `yaml:"templates"`
}

type catalogGrid struct {
	Name string `yaml:"name"`
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
	Kind string `yaml:"kind"`
}

type catalogTmpl struct {
	Name     string       `yaml:"name"`
	Category string       `yaml:"category"`
	Device   string       `yaml:"device"`
	Fingers  int          `yaml:"fingers"`
	Width    int          `yaml:"width"`
	Height   int          `yaml:"height"`
	Edges    catalogEdges `yaml:"edges"`
	Pins     []catalogPin `yaml:"pins"`
}

type catalogEdges struct {
	Left   string `yaml:"left"`
	Right  string `yaml:"right"`
	Top    string `yaml:"top"`
	Bottom string `yaml:"bottom"`
}

type catalogPin struct {
	Name  string `yaml:"name"`
	Grid  string `yaml:"grid"`
	Layer int    `yaml:"layer"`
	Rect  []int  `yaml:"rect"`
	Array []int  `yaml:"array"`
	Pitch []int  `yaml:"pitch"`
}

// Load reads a YAML catalog and adds its grids and templates to the library.
// Loading the same catalog twice is a no-op. A grid unit already set on the
// registry is kept, so that an explicit override survives catalog loading.
//
func (l *Library) Load(r io.Reader) error {
	if l.frozen {
		return errorf(MutationAfterFreeze, "template library is frozen")
	}
	var c catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Errorf(Syntax, nil, "decode catalog: %v", err)
	}
	if c.GridUnitNM > 0 && !l.grids.UnitSet() {
		if err := l.grids.SetUnit(c.GridUnitNM); err != nil {
			return err
		}
	}
	for _, g := range c.Grids {
		k, err := ParseGridKind(g.Kind)
		if err != nil {
			return errors.Wrap(err, "grid "+g.Name)
		}
		if err = l.grids.Register(g.Name, g.X, g.Y, k); err != nil {
			return err
		}
	}
	if c.PlacementGrid != "" {
		if err := l.SetPlacementGrid(c.PlacementGrid); err != nil {
			return err
		}
	}
	if l.placement == "" && len(c.Templates) > 0 {
		return errorf(NotFound, "catalog defines templates but no placement grid")
	}
	for _, ct := range c.Templates {
		t, err := l.decodeTemplate(&ct)
		if err != nil {
			return errors.Wrap(err, "template "+ct.Name)
		}
		if err = l.Add(t); err != nil {
			return err
		}
	}
	return nil
}

func (l *Library) decodeTemplate(ct *catalogTmpl) (*Template, error) {
	cat, err := ParseCategory(ct.Category)
	if err != nil {
		return nil, err
	}
	dev, err := ParseDevice(ct.Device)
	if err != nil {
		return nil, err
	}
	pins := make([]*PinShape, 0, len(ct.Pins))
	for _, cp := range ct.Pins {
		if len(cp.Rect) != 4 {
			return nil, Errorf(Syntax, []string{cp.Name}, "pin rect needs 4 values, got %d", len(cp.Rect))
		}
		rc := R(cp.Rect[0], cp.Rect[1], cp.Rect[2], cp.Rect[3])
		if cp.Grid != "" {
			// pins declared on another grid must land exactly on the placement grid.
			if rc, err = l.grids.ConvertRect(cp.Grid, l.placement, rc, Exact); err != nil {
				return nil, errors.Wrap(err, "pin "+cp.Name)
			}
		}
		ps := &PinShape{Name: cp.Name, Layer: cp.Layer, Rect: rc, Cols: 1, Rows: 1}
		switch len(cp.Array) {
		case 0:
		case 2:
			ps.Cols, ps.Rows = cp.Array[0], cp.Array[1]
		default:
			return nil, Errorf(Syntax, []string{cp.Name}, "pin array needs 2 values")
		}
		switch len(cp.Pitch) {
		case 0:
		case 2:
			ps.Pitch = Point{cp.Pitch[0], cp.Pitch[1]}
		default:
			return nil, Errorf(Syntax, []string{cp.Name}, "pin pitch needs 2 values")
		}
		pins = append(pins, ps)
	}
	e := Edges{ct.Edges.Left, ct.Edges.Right, ct.Edges.Top, ct.Edges.Bottom}
	return NewTemplate(ct.Name, cat, dev, ct.Fingers, ct.Width, ct.Height, e, pins...)
}
