package icgen_test

import (
	"os"

	"github.com/tinapiao/icgen"
	"github.com/tinapiao/icgen/cells"
)

// A two-unit capacitor row with its bottom plates strapped together.
func ExampleDesign() {
	lib, err := cells.Library(0)
	if err != nil {
		panic(err)
	}
	d, err := icgen.NewDesign("cap2", lib)
	if err != nil {
		panic(err)
	}
	// one instance repeated twice along x
	if _, err = d.Place("XC", cells.CapUnit, icgen.At(0, 0), icgen.R0, icgen.Shape{NX: 2, NY: 1}); err != nil {
		panic(err)
	}
	bot := icgen.Ref("XC", cells.PinBot)
	// bottom plates are on layer 2, the horizontal layer of m1m2: no via needed.
	if _, err = d.Route(icgen.RouteSpec{
		Grid: cells.GridM1M2,
		From: icgen.PinAt(bot.At(0)),
		To:   icgen.PinAt(bot.At(1)),
		Dir:  icgen.X,
	}); err != nil {
		panic(err)
	}
	if _, err = d.ExportPin("cbot", cells.GridM1M2, 0, icgen.PinAt(bot.At(0))); err != nil {
		panic(err)
	}
	if err = d.Finish(); err != nil {
		panic(err)
	}
	if err = icgen.WriteStream(os.Stdout, d); err != nil {
		panic(err)
	}

	// Output:
	// PLACE name=XC template=cap_unit grid=place at=(0,0) orient=R0 shape=(2,1)
	// ROUTE grid=m1m2 from=XC.bot[0] to=XC.bot[1] dir=x via0=- via1=- end0=extend end1=extend path=(0,1)(8,1)
	// PIN name=cbot grid=m1m2 layer=2 anchor=XC.bot[0] offset=(0,0) box=(0,1)(4,1)
	// BOUND layer=2 box=(0,0)(8,4)
}
