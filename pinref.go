package icgen

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Index selects elements of an instance array or of an array pin.
//
//	Index{Col: 2}                     // [2]
//	Index{Col: 1, Row: 1, HasRow: true} // [1,1]
//	Index{Col: 0, Hi: 3, IsRange: true} // [0..3]
//
type Index struct {
	Col     int
	Row     int
	Hi      int
	HasRow  bool
	IsRange bool
}

// Len returns the number of elements selected by the index.
//
func (x Index) Len() int {
	if !x.IsRange {
		return 1
	}
	return abs(x.Hi-x.Col) + 1
}

// At returns the i-th scalar index selected by a range index.
//
func (x Index) At(i int) Index {
	if !x.IsRange {
		return x
	}
	if x.Hi >= x.Col {
		return Index{Col: x.Col + i}
	}
	return Index{Col: x.Col - i}
}

func (x Index) String() string {
	switch {
	case x.IsRange:
		return "[" + strconv.Itoa(x.Col) + ".." + strconv.Itoa(x.Hi) + "]"
	case x.HasRow:
		return "[" + strconv.Itoa(x.Col) + "," + strconv.Itoa(x.Row) + "]"
	}
	return "[" + strconv.Itoa(x.Col) + "]"
}

// PinRef is a symbolic reference to a pin of a placed instance. It holds no
// ownership and is resolved each time it is used.
//
type PinRef struct {
	Inst  string
	Pin   string
	Index *Index
}

// Ref returns a reference to pin of inst.
//
func Ref(inst, pin string) PinRef { return PinRef{Inst: inst, Pin: pin} }

// At returns a copy of r selecting column c.
//
func (r PinRef) At(c int) PinRef {
	r.Index = &Index{Col: c}
	return r
}

// AtCR returns a copy of r selecting element (c, row).
//
func (r PinRef) AtCR(c, row int) PinRef {
	r.Index = &Index{Col: c, Row: row, HasRow: true}
	return r
}

// Span returns a copy of r selecting columns lo through hi.
//
func (r PinRef) Span(lo, hi int) PinRef {
	r.Index = &Index{Col: lo, Hi: hi, IsRange: true}
	return r
}

func (r PinRef) String() string {
	s := r.Inst + "." + r.Pin
	if r.Index != nil {
		s += r.Index.String()
	}
	return s
}

// BusName returns the external name of bus elements hi down to lo, as used
// by downstream netlisters:
//
//	BusName("iip", 3, 0) // "iip<3:0>"
//	BusName("cbot", 2, 2) // "cbot<2>"
//
func BusName(name string, hi, lo int) string {
	if hi == lo {
		return name + "<" + strconv.Itoa(hi) + ">"
	}
	return name + "<" + strconv.Itoa(hi) + ":" + strconv.Itoa(lo) + ">"
}

// ExpandBus expands a bus name into its element names, in the order written:
//
//	ExpandBus("iip<2:0>") // []string{"iip<2>", "iip<1>", "iip<0>"}
//	ExpandBus("out")      // []string{"out"}
//
func ExpandBus(name string) ([]string, error) {
	i := strings.IndexRune(name, '<')
	if i < 0 {
		return []string{name}, nil
	}
	bus := name[:i]
	if bus == "" {
		return nil, Errorf(Syntax, []string{name}, "empty bus name")
	}
	n := name[i+1:]
	j := strings.IndexRune(n, '>')
	if j < 0 || j != len(n)-1 {
		return nil, Errorf(Syntax, []string{name}, "no terminating > in bus name")
	}
	n = n[:j]
	hiS, loS := n, n
	if k := strings.IndexRune(n, ':'); k >= 0 {
		hiS, loS = n[:k], n[k+1:]
	}
	hi, err := strconv.Atoi(hiS)
	if err != nil {
		return nil, errors.Wrap(err, "bus "+name)
	}
	lo, err := strconv.Atoi(loS)
	if err != nil {
		return nil, errors.Wrap(err, "bus "+name)
	}
	step := -1
	if lo > hi {
		step = 1
	}
	r := make([]string, 0, abs(hi-lo)+1)
	for k := hi; ; k += step {
		r = append(r, BusName(bus, k, k))
		if k == lo {
			break
		}
	}
	return r, nil
}

// ExpandPins pairs the elements of a bus name with the elements selected by
// a pin reference. Many-to-many requires equal lengths; a scalar name or a
// scalar reference is fanned out to the other side.
//
func ExpandPins(name string, ref PinRef) ([]string, []PinRef, error) {
	names, err := ExpandBus(name)
	if err != nil {
		return nil, nil, err
	}
	n := 1
	if ref.Index != nil {
		n = ref.Index.Len()
	}
	refAt := func(i int) PinRef {
		if ref.Index == nil || !ref.Index.IsRange {
			return ref
		}
		x := ref.Index.At(i)
		r := ref
		r.Index = &x
		return r
	}
	switch {
	case len(names) == n:
		refs := make([]PinRef, n)
		for i := range refs {
			refs[i] = refAt(i)
		}
		return names, refs, nil
	case len(names) == 1:
		// one name over the whole range
		return names, []PinRef{ref}, nil
	case n == 1:
		refs := make([]PinRef, len(names))
		for i := range refs {
			refs[i] = ref
		}
		return names, refs, nil
	}
	return nil, nil, Errorf(Syntax, []string{name, ref.String()}, "pin count mismatch")
}
