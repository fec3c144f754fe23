/*
Package icgen provides a parametric placement and routing engine for the
finger arrays of analog IC layouts (inverter chains, CML stages, capacitor
DACs).

Unit cells (two and three finger NMOS/PMOS slices, guard rings, dummies) are
described by Templates in a Library over a set of named Grids. A Design places
templates relative to one another, routes between their pins and exports
top-level pins. Everything a Design does is appended to an ordered record
stream:

	PLACE name=XP0_0 template=pmos_2f grid=place at=(0,0) orient=R0 shape=(1,1)
	ROUTE grid=m1m2 from=XP0_0.in to=XP0_3.in dir=x via0=(0,0) via1=(0,0) end0=extend end1=extend path=(0,4)(16,4)
	VIA grid=m1m2 at=(0,4) layers=1:2
	PIN name=in grid=m1m2 layer=1 anchor=XN0_0.in offset=(0,0) box=(0,-5)(4,-5)
	BOUND layer=4 box=(-4,-10)(60,9)

Libraries and grid registries are frozen when the first design is created on
them and can then be shared by designs built concurrently. A single Design is
not safe for concurrent use.

Building is all-or-nothing: all errors are fatal to the design being built and
carry a Kind (see KindOf). Callers only emit the records of a design once
Finish succeeded.
*/
package icgen
