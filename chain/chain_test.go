package chain_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"go.uber.org/mock/gomock"

	"github.com/tinapiao/icgen"
	"github.com/tinapiao/icgen/cells"
	"github.com/tinapiao/icgen/chain"
	"github.com/tinapiao/icgen/layouttest"
	"github.com/tinapiao/icgen/stage"
)

func newLib() *icgen.Library {
	lib, err := cells.Library(0)
	Expect(err).ToNot(HaveOccurred())
	return lib
}

func templateNames(d *icgen.Design, units []string) []string {
	var ts []string
	for _, u := range units {
		i, err := d.Instance(u)
		Expect(err).ToNot(HaveOccurred())
		ts = append(ts, i.Template.Name)
	}
	return ts
}

func placedFingers(d *icgen.Design, units []string) int {
	n := 0
	for _, u := range units {
		i, err := d.Instance(u)
		Expect(err).ToNot(HaveOccurred())
		n += i.Template.Fingers
	}
	return n
}

var _ = Describe("Chain", func() {
	var (
		lib *icgen.Library
	)

	BeforeEach(func() {
		lib = newLib()
	})

	Context("with an even-finger two-stage chain", func() {
		var res *chain.Result

		BeforeEach(func() {
			var err error
			res, err = chain.New("inv", lib, chain.Params{FirstN: 8, FirstP: 16, Fan: 2, Stages: 2})
			Expect(err).ToNot(HaveOccurred())
		})

		It("should plan large to small", func() {
			Expect(res.N.Counts()).To(Equal([]int{8, 4}))
			Expect(res.P.Counts()).To(Equal([]int{16, 8}))
		})

		It("should lay out two-finger cells small to large", func() {
			n, p := res.Rows[icgen.NMOS], res.Rows[icgen.PMOS]
			Expect(n.Stages).To(HaveLen(2))
			Expect(n.Stages[0]).To(HaveLen(2))
			Expect(n.Stages[1]).To(HaveLen(4))
			Expect(p.Stages[0]).To(HaveLen(4))
			Expect(p.Stages[1]).To(HaveLen(8))
			for _, s := range append(n.Stages, p.Stages...) {
				for _, tn := range templateNames(res.Design, s) {
					Expect(tn).To(HaveSuffix("_2f"))
				}
			}
		})

		It("should anchor rows and rings", func() {
			d := res.Design
			at := func(n string) icgen.Point {
				i, err := d.Instance(n)
				Expect(err).ToNot(HaveOccurred())
				return i.Origin
			}
			Expect(at("XP0_0")).To(Equal(icgen.Pt(0, 0)))
			Expect(at("XP0_3")).To(Equal(icgen.Pt(12, 0)))
			Expect(at("XP1_0")).To(Equal(icgen.Pt(24, 0)))
			Expect(at("XN0_0")).To(Equal(icgen.Pt(-2, -7)))
			Expect(at("XN1_0")).To(Equal(icgen.Pt(14, -7)))
			Expect(at("XNW0")).To(Equal(icgen.Pt(-3, 7)))
			Expect(at("XNW1")).To(Equal(icgen.Pt(1, 7)))
			Expect(at("XPS0")).To(Equal(icgen.Pt(-6, -10)))
			Expect(res.Rows[icgen.PMOS].Rings).To(HaveLen(19))
			Expect(res.Rows[icgen.NMOS].Rings).To(HaveLen(19))
		})

		It("should route one inter-stage L per row", func() {
			var ls []*icgen.Route
			for _, r := range res.Design.Routes() {
				if r.Dir.IsL() {
					ls = append(ls, r)
				}
			}
			Expect(ls).To(HaveLen(2))
			n := ls[1]
			Expect(n.From.Ref.String()).To(Equal("XN0_1.out"))
			Expect(n.To.Ref.String()).To(Equal("XN1_0.in"))
			Expect(n.Path).To(Equal([]icgen.Point{{X: 4, Y: -3}, {X: 4, Y: -5}, {X: 18, Y: -5}}))
		})

		It("should draw two global rails and export four pins", func() {
			Expect(layouttest.RoutesOn(res.Design, cells.GridM3M4)).To(HaveLen(2))
			Expect(layouttest.Count(res.Design, icgen.RecordPin)).To(Equal(4))
			for _, n := range []string{"VDD", "VSS", "in", "out"} {
				_, err := res.Design.Pin(n)
				Expect(err).ToNot(HaveOccurred())
			}
			p, _ := res.Design.Pin("in")
			Expect(p.Anchor.Ref.String()).To(Equal("XN0_0.in"))
			p, _ = res.Design.Pin("out")
			Expect(p.Anchor.Ref.String()).To(Equal("XN1_3.out"))
		})

		It("should connect every unit to a ring", func() {
			power := layouttest.RoutesOn(res.Design, cells.GridM2M3)
			Expect(power).To(HaveLen(18))
			for _, r := range power {
				Expect(r.Dir).To(Equal(icgen.Y))
				Expect(r.Vias).To(HaveLen(1))
				Expect(r.Vias[0].Lo).To(Equal(2))
				Expect(r.Vias[0].Hi).To(Equal(3))
			}
		})

		It("should strap supplies within each stage only", func() {
			straps := map[string]string{}
			for _, r := range layouttest.RoutesOn(res.Design, cells.GridM1M2) {
				if r.Dir == icgen.X && r.From.Ref != nil && r.To.Ref != nil {
					straps[r.From.Ref.String()] = r.To.Ref.String()
				}
			}
			for dev, row := range res.Rows {
				supply := cells.Supply(dev)
				for _, units := range row.Stages {
					Expect(straps).To(HaveKeyWithValue(units[0]+"."+supply, units[len(units)-1]+"."+supply))
				}
				first, last := row.First()+"."+supply, row.Last()+"."+supply
				Expect(straps).ToNot(HaveKeyWithValue(first, last))
			}
		})

		It("should draw the nwell area over the PMOS row", func() {
			Expect(layouttest.Count(res.Design, icgen.RecordRect)).To(Equal(1))
			var a *icgen.Area
			for _, r := range res.Design.Records() {
				if r, ok := r.(*icgen.Area); ok {
					a = r
				}
			}
			Expect(a.Layer).To(Equal("NW"))
			Expect(a.Box.Y0).To(Equal(0))
			Expect(a.Box.Y1).To(Equal(9))
		})

		It("should pass lint and invariant checks", func() {
			layouttest.Lint(GinkgoT(), res.Design)
			layouttest.CheckInvariants(GinkgoT(), res.Design)
		})

		It("should end with the bound record", func() {
			recs := res.Design.Records()
			Expect(recs[len(recs)-1].Kind()).To(Equal(icgen.RecordBound))
			Expect(recs[len(recs)-1].String()).To(HavePrefix("BOUND layer=4 "))
		})
	})

	DescribeTable("odd finger counts",
		func(first int, mix []string, fingers int) {
			res, err := chain.New("odd", lib, chain.Params{FirstN: first, FirstP: first, Fan: 1, Stages: 1})
			Expect(err).ToNot(HaveOccurred())
			units := res.Rows[icgen.NMOS].Stages[0]
			Expect(templateNames(res.Design, units)).To(Equal(mix))
			Expect(placedFingers(res.Design, units)).To(Equal(fingers))
			layouttest.Lint(GinkgoT(), res.Design)
		},
		Entry("five", 5, []string{"nmos_3f", "nmos_3f"}, 6),
		Entry("seven", 7, []string{"nmos_3f", "nmos_3f", "nmos_2f"}, 8),
		Entry("three", 3, []string{"nmos_3f"}, 3),
	)

	It("should overlap consecutive three-finger cells", func() {
		res, err := chain.New("odd", lib, chain.Params{FirstN: 5, FirstP: 5, Fan: 1, Stages: 1})
		Expect(err).ToNot(HaveOccurred())
		a, _ := res.Design.Instance("XN0_0")
		b, _ := res.Design.Instance("XN0_1")
		Expect(b.Origin.X).To(Equal(a.BBox().X1 - 1))
	})

	It("should emit no inter-stage route for a single stage", func() {
		res, err := chain.New("one", lib, chain.Params{FirstN: 8, FirstP: 16, Fan: 2, Stages: 1})
		Expect(err).ToNot(HaveOccurred())
		for _, r := range res.Design.Routes() {
			Expect(r.Dir.IsL()).To(BeFalse())
		}
	})

	It("should build identical stages with a unit fan factor", func() {
		res, err := chain.New("flat", lib, chain.Params{FirstN: 6, FirstP: 6, Fan: 1, Stages: 4})
		Expect(err).ToNot(HaveOccurred())
		for _, s := range res.N.Layout() {
			Expect(s.Fingers).To(Equal(6))
		}
		for _, units := range res.Rows[icgen.NMOS].Stages {
			Expect(placedFingers(res.Design, units)).To(Equal(6))
		}
	})

	It("should place the planned fingers of every stage", func() {
		res, err := chain.New("tapered", lib, chain.Params{FirstN: 36, FirstP: 72, Fan: 1.5704, Stages: 6})
		Expect(err).ToNot(HaveOccurred())
		for dev, row := range res.Rows {
			plan := res.N
			if dev == icgen.PMOS {
				plan = res.P
			}
			for s, st := range plan.Layout() {
				Expect(placedFingers(res.Design, row.Stages[s])).To(Equal(stage.Fingers(stage.Split(st.Fingers))))
			}
		}
		layouttest.Lint(GinkgoT(), res.Design)
		layouttest.CheckInvariants(GinkgoT(), res.Design)
	})

	It("should reject more than ten stages", func() {
		_, err := chain.New("long", lib, chain.Params{FirstN: 8, FirstP: 16, Fan: 2, Stages: 11})
		Expect(icgen.KindOf(err)).To(Equal(icgen.PlanOutOfRange))
	})

	It("should reject placements outside the boundary", func() {
		b := icgen.R(-10, -20, 20, 20)
		_, err := chain.New("tight", lib, chain.Params{FirstN: 8, FirstP: 16, Fan: 2, Stages: 2, Bounds: &b})
		Expect(icgen.KindOf(err)).To(Equal(icgen.OutOfBounds))
	})

	It("should keep instances inside a large boundary", func() {
		b := icgen.R(-100, -100, 200, 100)
		res, err := chain.New("roomy", lib, chain.Params{FirstN: 8, FirstP: 16, Fan: 2, Stages: 2, Bounds: &b})
		Expect(err).ToNot(HaveOccurred())
		layouttest.CheckInvariants(GinkgoT(), res.Design)
	})

	It("should place edge dummies", func() {
		res, err := chain.New("dummies", lib, chain.Params{FirstN: 4, FirstP: 4, Fan: 1, Stages: 2, RingFactor: 1.5, Dummies: true})
		Expect(err).ToNot(HaveOccurred())
		for _, n := range []string{"XDP0", "XDP1", "XDN0", "XDN1"} {
			_, err := res.Design.Instance(n)
			Expect(err).ToNot(HaveOccurred())
		}
		i, _ := res.Design.Instance("XDN1")
		Expect(i.Orient).To(Equal(icgen.MY))
	})

	It("should abut stages with a zero gap", func() {
		zero := icgen.Pt(0, 0)
		res, err := chain.New("abut", lib, chain.Params{FirstN: 4, FirstP: 4, Fan: 1, Stages: 2, Gap: &zero})
		Expect(err).ToNot(HaveOccurred())
		a, err := res.Design.Instance("XP0_1")
		Expect(err).ToNot(HaveOccurred())
		b, err := res.Design.Instance("XP1_0")
		Expect(err).ToNot(HaveOccurred())
		Expect(b.Origin.X).To(Equal(a.BBox().X1))
		Expect(b.Origin.Y).To(Equal(a.Origin.Y))
	})

	It("should separate stages by the default gap when none is given", func() {
		res, err := chain.New("spaced", lib, chain.Params{FirstN: 4, FirstP: 4, Fan: 1, Stages: 2, RingFactor: 1.5})
		Expect(err).ToNot(HaveOccurred())
		a, _ := res.Design.Instance("XP0_1")
		b, _ := res.Design.Instance("XP1_0")
		Expect(b.Origin.X).To(Equal(a.BBox().X1 + chain.DefaultGap.X))
	})

	It("should reject units outside their guard ring", func() {
		_, err := chain.New("short_ring", lib, chain.Params{FirstN: 8, FirstP: 16, Fan: 2, Stages: 2, RingFactor: 0.1})
		Expect(icgen.KindOf(err)).To(Equal(icgen.OutOfBounds))
		var e *icgen.Error
		Expect(errors.As(err, &e)).To(BeTrue())
		Expect(e.Subjects).To(ContainElement(HavePrefix("XP")))
	})

	Context("when only the PMOS row is built", func() {
		var (
			mockCtrl *gomock.Controller
			sink     *MockSink
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			sink = NewMockSink(mockCtrl)
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should fail on a reference to the NMOS row and emit nothing", func() {
			d, err := icgen.NewDesign("pmos_only", lib)
			Expect(err).ToNot(HaveOccurred())
			_, err = chain.Build(d, chain.Params{
				FirstN: 8, FirstP: 16, Fan: 2, Stages: 2,
				Rows: []icgen.Device{icgen.PMOS},
				Pins: []chain.PinSpec{},
				Routes: []icgen.RouteSpec{{
					Grid: cells.GridM1M2,
					From: icgen.PinAt(icgen.Ref("XN0_0", cells.PinIn)),
					To:   icgen.PinAt(icgen.Ref("XP0_0", cells.PinIn)),
					Dir:  icgen.Y,
					Via0: icgen.Drop(0, 0),
					Via1: icgen.Drop(0, 0),
				}},
			})
			Expect(icgen.KindOf(err)).To(Equal(icgen.DanglingRef))
			Expect(d.Finished()).To(BeFalse())
			Expect(d.Emit(sink)).To(HaveOccurred())
		})

		It("should fail on the default pin table", func() {
			_, err := chain.New("pmos_only", lib, chain.Params{
				FirstN: 8, FirstP: 16, Fan: 2, Stages: 2,
				Rows: []icgen.Device{icgen.PMOS},
			})
			Expect(icgen.KindOf(err)).To(Equal(icgen.DanglingRef))
		})
	})

	Context("when emitting records", func() {
		var (
			mockCtrl *gomock.Controller
			sink     *MockSink
			res      *chain.Result
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			sink = NewMockSink(mockCtrl)
			var err error
			res, err = chain.New("emit", lib, chain.Params{FirstN: 4, FirstP: 8, Fan: 2, Stages: 2})
			Expect(err).ToNot(HaveOccurred())
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should write every record in order", func() {
			var got []string
			sink.EXPECT().
				Write(gomock.Any()).
				DoAndReturn(func(r icgen.Record) error {
					got = append(got, r.String())
					return nil
				}).
				Times(res.Design.Len())
			Expect(res.Design.Emit(sink)).To(Succeed())
			Expect(got).To(Equal(layouttest.Lines(res.Design)))
			Expect(got[0]).To(HavePrefix("PLACE name=XP0_0 template=pmos_2f grid=place at=(0,0)"))
		})

		It("should stop at the first sink error", func() {
			sink.EXPECT().Write(gomock.Any()).Return(errors.New("disk full"))
			err := res.Design.Emit(sink)
			Expect(err).To(MatchError("disk full"))
		})
	})

	It("should produce byte-identical streams", func() {
		p := chain.Params{FirstN: 36, FirstP: 72, Fan: 1.5704, Stages: 6}
		a, err := chain.New("det", newLib(), p)
		Expect(err).ToNot(HaveOccurred())
		b, err := chain.New("det", newLib(), p)
		Expect(err).ToNot(HaveOccurred())
		Expect(layouttest.Stream(GinkgoT(), a.Design)).To(Equal(layouttest.Stream(GinkgoT(), b.Design)))
	})

	It("should emit a stage prefix", func() {
		full, err := chain.New("full", lib, chain.Params{
			CountsN: []int{36, 23, 15, 10, 6, 4},
			CountsP: []int{72, 46, 30, 20, 12, 8},
		})
		Expect(err).ToNot(HaveOccurred())
		part, err := chain.New("part", lib, chain.Params{
			CountsN: []int{10, 6, 4},
			CountsP: []int{20, 12, 8},
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(part.StageEnd).To(HaveLen(3))
		Expect(full.StageEnd[2]).To(Equal(part.StageEnd[2]))
		layouttest.CompareDesigns(GinkgoT(), full.Design, part.Design, part.StageEnd[2])
	})

	It("should export bus pins", func() {
		res, err := chain.New("bus", lib, chain.Params{
			FirstN: 8, FirstP: 8, Fan: 1, Stages: 1,
			Pins: []chain.PinSpec{
				{Name: "G<1:0>", Grid: cells.GridM1M2, At: icgen.PinAt(icgen.Ref("XN0_0", "G").Span(1, 0))},
			},
		})
		Expect(err).ToNot(HaveOccurred())
		p1, err := res.Design.Pin("G<1>")
		Expect(err).ToNot(HaveOccurred())
		p0, err := res.Design.Pin("G<0>")
		Expect(err).ToNot(HaveOccurred())
		Expect(p1.Box.X0 - p0.Box.X0).To(Equal(2))
		Expect(p0.Layer).To(Equal(1))
	})

	It("should build designs concurrently", func() {
		var jobs []chain.Job
		for i := 2; i <= 9; i++ {
			jobs = append(jobs, chain.Job{
				Name:   "sweep" + strings.Repeat("x", i),
				Params: chain.Params{FirstN: 4 * i, FirstP: 8 * i, Fan: 2, Stages: 3},
			})
		}
		jobs = append(jobs, chain.Job{Name: "bad", Params: chain.Params{FirstN: 4, FirstP: 8, Fan: 2, Stages: 12}})
		out := chain.Sweep(4, lib, jobs)
		Expect(out).To(HaveLen(len(jobs)))
		for i, o := range out[:8] {
			Expect(o.Err).ToNot(HaveOccurred())
			Expect(o.Name).To(Equal(jobs[i].Name))
			serial, err := chain.New(jobs[i].Name, newLib(), jobs[i].Params)
			Expect(err).ToNot(HaveOccurred())
			layouttest.CompareDesigns(GinkgoT(), serial.Design, o.Result.Design, -1)
		}
		Expect(icgen.KindOf(out[8].Err)).To(Equal(icgen.PlanOutOfRange))
	})
})
