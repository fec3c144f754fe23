package icgen

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind identifies the class of an engine error.
//
type Kind int

// Error kinds. All of them are fatal to the design being built.
//
const (
	Unknown Kind = iota
	NotFound
	NameCollision
	DanglingRef
	OffGrid
	MisalignedRoute
	CrossLayerNoVia
	OutOfBounds
	MutationAfterFreeze
	PlanOutOfRange
	Syntax
)

var kindNames = [...]string{
	Unknown:             "Unknown",
	NotFound:            "NotFound",
	NameCollision:       "NameCollision",
	DanglingRef:         "DanglingRef",
	OffGrid:             "OffGrid",
	MisalignedRoute:     "MisalignedRoute",
	CrossLayerNoVia:     "CrossLayerNoVia",
	OutOfBounds:         "OutOfBounds",
	MutationAfterFreeze: "MutationAfterFreeze",
	PlanOutOfRange:      "PlanOutOfRange",
	Syntax:              "Syntax",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + fmt.Sprint(int(k)) + ")"
	}
	return kindNames[k]
}

// Error is the error type returned by the engine. Subjects lists the
// offending names or coordinates.
//
type Error struct {
	Kind     Kind
	Msg      string
	Subjects []string
}

func (e *Error) Error() string {
	if len(e.Subjects) == 0 {
		return e.Kind.String() + ": " + e.Msg
	}
	return e.Kind.String() + ": " + e.Msg + " [" + strings.Join(e.Subjects, ", ") + "]"
}

// Errorf returns a new *Error of the given kind, with a stack trace attached.
//
func Errorf(k Kind, subjects []string, format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: k, Msg: fmt.Sprintf(format, args...), Subjects: subjects})
}

func errorf(k Kind, format string, args ...interface{}) error {
	return Errorf(k, nil, format, args...)
}

// KindOf returns the Kind of err, looking through wrapped errors. It returns
// Unknown for errors that do not originate from the engine.
//
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}
	if e, ok := errors.Cause(err).(*Error); ok {
		return e.Kind
	}
	return Unknown
}

// IsKind reports whether err is an engine error of kind k.
//
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
