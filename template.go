package icgen

import (
	"strings"
)

// Category is a template category.
//
type Category int

// Template categories.
//
const (
	Unit Category = iota
	Boundary
	Dummy
	Mirror
	Cap
	CapBoundary
	CapDummy
)

var categoryNames = [...]string{
	Unit:        "unit",
	Boundary:    "boundary",
	Dummy:       "dummy",
	Mirror:      "mirror",
	Cap:         "cap",
	CapBoundary: "cap_boundary",
	CapDummy:    "cap_dummy",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "Category(?)"
	}
	return categoryNames[c]
}

// ParseCategory returns the category with the given name.
//
func ParseCategory(s string) (Category, error) {
	for c, n := range categoryNames {
		if strings.EqualFold(n, s) {
			return Category(c), nil
		}
	}
	return 0, Errorf(NotFound, []string{s}, "unknown template category")
}

// Device is the transistor type of a unit template.
//
type Device int

// Device types.
//
const (
	NoDevice Device = iota
	NMOS
	PMOS
)

func (d Device) String() string {
	switch d {
	case NMOS:
		return "nmos"
	case PMOS:
		return "pmos"
	}
	return "none"
}

// ParseDevice returns the device with the given name. An empty string is
// NoDevice.
//
func ParseDevice(s string) (Device, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return NoDevice, nil
	case "nmos":
		return NMOS, nil
	case "pmos":
		return PMOS, nil
	}
	return 0, Errorf(NotFound, []string{s}, "unknown device type")
}

// Edges classifies the four edges of a template. Two templates abut
// seamlessly on a side if their facing edge classes are equal.
//
type Edges struct {
	Left, Right, Top, Bottom string
}

// PinShape is a named pin region of a template, in the template's local
// coordinates on the template's placement grid. Array pins repeat Rect
// Cols×Rows times with the given Pitch.
//
type PinShape struct {
	Name  string
	Layer int
	Rect  Rect
	Cols  int
	Rows  int
	Pitch Point
}

// Elem returns the rect of the array element (c, r).
//
func (p *PinShape) Elem(c, r int) Rect {
	return p.Rect.Add(Point{c * p.Pitch.X, r * p.Pitch.Y})
}

// Bounds returns the rect covering all array elements.
//
func (p *PinShape) Bounds() Rect {
	return p.Rect.Union(p.Elem(max(p.Cols, 1)-1, max(p.Rows, 1)-1))
}

// Template is an immutable unit-cell description. Width and Height are in
// units of the library's placement grid.
//
type Template struct {
	Name     string
	Category Category
	Device   Device
	Fingers  int
	Width    int
	Height   int
	Edges    Edges

	pins  map[string]*PinShape
	order []string
}

// NewTemplate returns a new template with the given pins.
//
func NewTemplate(name string, cat Category, dev Device, fingers, width, height int, edges Edges, pins ...*PinShape) (*Template, error) {
	if name == "" {
		return nil, errorf(NotFound, "empty template name")
	}
	if width <= 0 || height <= 0 {
		return nil, Errorf(OutOfBounds, []string{name}, "invalid extent %dx%d", width, height)
	}
	t := &Template{
		Name:     name,
		Category: cat,
		Device:   dev,
		Fingers:  fingers,
		Width:    width,
		Height:   height,
		Edges:    edges,
		pins:     make(map[string]*PinShape, len(pins)),
	}
	for _, p := range pins {
		if _, ok := t.pins[p.Name]; ok {
			return nil, Errorf(NameCollision, []string{name, p.Name}, "duplicate pin")
		}
		if p.Cols <= 0 {
			p.Cols = 1
		}
		if p.Rows <= 0 {
			p.Rows = 1
		}
		t.pins[p.Name] = p
		t.order = append(t.order, p.Name)
	}
	return t, nil
}

// Pin returns the named pin shape.
//
func (t *Template) Pin(name string) (*PinShape, error) {
	p, ok := t.pins[name]
	if !ok {
		return nil, Errorf(NotFound, []string{t.Name, name}, "unknown pin")
	}
	return p, nil
}

// Pins returns the pin names in declaration order.
//
func (t *Template) Pins() []string {
	return append([]string(nil), t.order...)
}

// Size returns the template extent as a point.
//
func (t *Template) Size() Point { return Point{t.Width, t.Height} }

func (t *Template) equal(o *Template) bool {
	if t.Name != o.Name || t.Category != o.Category || t.Device != o.Device ||
		t.Fingers != o.Fingers || t.Width != o.Width || t.Height != o.Height ||
		t.Edges != o.Edges || len(t.order) != len(o.order) {
		return false
	}
	for i, n := range t.order {
		if o.order[i] != n || *t.pins[n] != *o.pins[n] {
			return false
		}
	}
	return true
}

// Orientation is the orientation of a placed instance. The origin of an
// instance is always the lower-left corner of its bounding box; orientations
// mirror the template geometry inside that box.
//
type Orientation int

// Orientations.
//
const (
	R0 Orientation = iota
	MX
	MY
	R180
)

var orientNames = [...]string{R0: "R0", MX: "MX", MY: "MY", R180: "R180"}

func (o Orientation) String() string {
	if o < 0 || int(o) >= len(orientNames) {
		return "R?"
	}
	return orientNames[o]
}

// ParseOrientation returns the orientation with the given name.
//
func ParseOrientation(s string) (Orientation, error) {
	for o, n := range orientNames {
		if n == s {
			return Orientation(o), nil
		}
	}
	return 0, Errorf(NotFound, []string{s}, "unknown orientation")
}

// apply maps a rect in template-local coordinates to coordinates relative
// to the instance origin.
//
func (o Orientation) apply(r Rect, w, h int) Rect {
	switch o {
	case MX:
		return R(r.X0, h-r.Y0, r.X1, h-r.Y1)
	case MY:
		return R(w-r.X0, r.Y0, w-r.X1, r.Y1)
	case R180:
		return R(w-r.X0, h-r.Y0, w-r.X1, h-r.Y1)
	}
	return r
}

// Library is a catalog of templates over a grid registry. It must be frozen
// before designs are built and is then safe for concurrent use.
//
type Library struct {
	grids     *Registry
	templates map[string]*Template
	order     []string
	placement string
	frozen    bool
}

// NewLibrary returns an empty library using the given grid registry. The
// placement grid must be set (with SetPlacementGrid or Load) before the
// library is used to build designs.
//
func NewLibrary(grids *Registry) *Library {
	return &Library{grids: grids, templates: make(map[string]*Template)}
}

// Grids returns the library's grid registry.
//
func (l *Library) Grids() *Registry { return l.grids }

// SetPlacementGrid sets the grid on which template extents and pin shapes are
// expressed.
//
func (l *Library) SetPlacementGrid(name string) error {
	if l.frozen {
		return Errorf(MutationAfterFreeze, []string{name}, "template library is frozen")
	}
	if _, err := l.grids.Grid(name); err != nil {
		return err
	}
	if l.placement != "" && l.placement != name {
		return Errorf(NameCollision, []string{l.placement, name}, "placement grid already set")
	}
	l.placement = name
	return nil
}

// PlacementGrid returns the name of the placement grid.
//
func (l *Library) PlacementGrid() string { return l.placement }

// Add adds a template to the library. Adding an identical template twice is
// a no-op.
//
func (l *Library) Add(t *Template) error {
	if l.frozen {
		return Errorf(MutationAfterFreeze, []string{t.Name}, "template library is frozen")
	}
	if o, ok := l.templates[t.Name]; ok {
		if o.equal(t) {
			return nil
		}
		return Errorf(NameCollision, []string{t.Name}, "template already defined with a different definition")
	}
	l.templates[t.Name] = t
	l.order = append(l.order, t.Name)
	return nil
}

// Template returns the named template.
//
func (l *Library) Template(name string) (*Template, error) {
	t, ok := l.templates[name]
	if !ok {
		return nil, Errorf(NotFound, []string{name}, "unknown template")
	}
	return t, nil
}

// Templates returns all templates in definition order.
//
func (l *Library) Templates() []*Template {
	ts := make([]*Template, len(l.order))
	for i, n := range l.order {
		ts[i] = l.templates[n]
	}
	return ts
}

// PinRect returns the rectangle covering all elements of a template pin, in
// template-local coordinates on the given grid.
//
func (l *Library) PinRect(template, pin, grid string) (Rect, error) {
	t, err := l.Template(template)
	if err != nil {
		return Rect{}, err
	}
	p, err := t.Pin(pin)
	if err != nil {
		return Rect{}, err
	}
	if grid == "" {
		grid = l.placement
	}
	return l.grids.ConvertRect(l.placement, grid, p.Bounds(), Nearest)
}

// Freeze makes the library and its grid registry read-only. Freezing a
// frozen library does not write to it, so that designs can be created
// concurrently on a frozen library.
//
func (l *Library) Freeze() {
	if l.frozen {
		return
	}
	l.frozen = true
	l.grids.Freeze()
}

// Frozen reports whether the library has been frozen.
//
func (l *Library) Frozen() bool { return l.frozen }
