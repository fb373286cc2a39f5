package dynamo_test

import (
	"bytes"
	"errors"
	"math"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dalitz/internal/dynamo"
	"github.com/san-kum/dalitz/internal/efficiency"
	"github.com/san-kum/dalitz/internal/kinematics"
	"github.com/san-kum/dalitz/internal/kmatrix"
	"github.com/san-kum/dalitz/internal/lineshape"
	"github.com/spf13/afero"
)

type recorder struct {
	transitions [][2]dynamo.State
}

func (r *recorder) OnStateChange(from, to dynamo.State) {
	r.transitions = append(r.transitions, [2]dynamo.State{from, to})
}

// D+ -> K- pi+ pi+
func dKPiPi() *kinematics.Kinematics {
	kin, err := kinematics.New(lineshape.MD, lineshape.MK, lineshape.MPi, lineshape.MPi, false)
	Expect(err).NotTo(HaveOccurred())
	return kin
}

func coarse() dynamo.Options {
	opts := dynamo.DefaultOptions()
	opts.M13BinWidth = 0.01
	opts.M23BinWidth = 0.01
	opts.MPrimeBinWidth = 0.004
	opts.ThetaPrimeBinWidth = 0.004
	return opts
}

func nonReson() lineshape.Spec {
	return lineshape.Spec{Name: "NonReson", Kind: lineshape.FlatNR, Bachelor: 1}
}

func kstar() lineshape.Spec {
	return lineshape.Spec{Name: "K*0(892)", Kind: lineshape.RelBW, Bachelor: 2}
}

func newEngine(kin *kinematics.Kinematics, opts dynamo.Options, specs ...lineshape.Spec) *dynamo.Engine {
	eng := dynamo.New(kin, nil, opts)
	for _, s := range specs {
		_, err := eng.AddResonance(s)
		Expect(err).NotTo(HaveOccurred())
	}
	return eng
}

// centre returns a point well inside the DP.
func centre(kin *kinematics.Kinematics) (float64, float64) {
	m13Sq := 0.5 * (kin.M13SqMin() + kin.M13SqMax())
	lo, hi := kin.M23SqRange(m13Sq)
	return m13Sq, 0.5 * (lo + hi)
}

func relDiff(a, b float64) float64 {
	return math.Abs(a-b) / math.Max(math.Abs(a), math.Abs(b))
}

var _ = Describe("Engine", func() {
	var kin *kinematics.Kinematics

	BeforeEach(func() {
		kin = dKPiPi()
	})

	Describe("adding resonances", func() {
		It("rejects a duplicate name", func() {
			eng := dynamo.New(kin, nil, coarse())
			_, err := eng.AddResonance(lineshape.Spec{Name: "A", Kind: lineshape.FlatNR, Bachelor: 1})
			Expect(err).NotTo(HaveOccurred())

			_, err = eng.AddResonance(lineshape.Spec{Name: "A", Kind: lineshape.FlatNR, Bachelor: 2})
			Expect(err).To(MatchError(dynamo.ErrDuplicateResonance))

			var resErr *dynamo.ResonanceError
			Expect(errors.As(err, &resErr)).To(BeTrue())
			Expect(resErr.Name).To(Equal("A"))
			Expect(eng.NAmp()).To(Equal(1))
		})

		It("wraps lineshape construction errors", func() {
			eng := dynamo.New(kin, nil, coarse())
			_, err := eng.AddResonance(lineshape.Spec{Name: "nope", Kind: lineshape.RelBW, Bachelor: 1})
			Expect(err).To(MatchError(lineshape.ErrUnknownState))
			Expect(eng.NAmp()).To(Equal(0))
		})

		It("rejects production terms on an undefined propagator", func() {
			eng := dynamo.New(kin, nil, coarse())
			_, err := eng.AddKMatrixProdPole("pole1", "pipi", 1, false)
			Expect(err).To(MatchError(dynamo.ErrUnknownPropagator))
		})

		It("refuses new components once ready", func() {
			eng := newEngine(kin, coarse(), nonReson())
			Expect(eng.Initialise([]complex128{1})).To(Succeed())

			_, err := eng.AddResonance(kstar())
			Expect(err).To(MatchError(dynamo.ErrWrongState))
		})
	})

	Describe("initialisation", func() {
		It("rejects a coefficient count mismatch", func() {
			eng := newEngine(kin, coarse(), nonReson())
			Expect(eng.Initialise([]complex128{1, 2})).To(MatchError(dynamo.ErrCoeffCount))
			Expect(eng.State()).To(Equal(dynamo.Uninitialised))
		})

		It("rejects an empty model", func() {
			eng := dynamo.New(kin, nil, coarse())
			Expect(eng.Initialise(nil)).To(MatchError(dynamo.ErrNoResonances))
		})

		It("walks through the lifecycle", func() {
			rec := &recorder{}
			eng := newEngine(kin, coarse(), nonReson())
			eng.SetObserver(rec)
			Expect(eng.State()).To(Equal(dynamo.Uninitialised))

			Expect(eng.Initialise([]complex128{1})).To(Succeed())
			Expect(eng.State()).To(Equal(dynamo.Ready))
			Expect(rec.transitions).To(Equal([][2]dynamo.State{
				{dynamo.Uninitialised, dynamo.Initialised},
				{dynamo.Initialised, dynamo.NormalisationComputed},
				{dynamo.NormalisationComputed, dynamo.Ready},
			}))
		})

		It("requires a ready engine for evaluation", func() {
			eng := newEngine(kin, coarse(), nonReson())
			m13Sq, m23Sq := centre(kin)

			_, err := eng.CalcLikelihoodInfo(m13Sq, m23Sq)
			Expect(err).To(MatchError(dynamo.ErrWrongState))
			Expect(eng.CalcDPNormalisation()).To(MatchError(dynamo.ErrWrongState))
			Expect(eng.UpdateCoeffs([]complex128{1})).To(MatchError(dynamo.ErrWrongState))
		})
	})

	Describe("a single flat non-resonant component", func() {
		var eng *dynamo.Engine

		BeforeEach(func() {
			eng = dynamo.New(kin, efficiency.Constant(0.7), coarse())
			_, err := eng.AddResonance(nonReson())
			Expect(err).NotTo(HaveOccurred())
			Expect(eng.Initialise([]complex128{2})).To(Succeed())
		})

		It("has a fit fraction of one", func() {
			info := eng.ExtraInfo()
			Expect(info.FitFrac[0][0]).To(BeNumerically("~", 1.0, 1e-12))
			Expect(info.FitFracEffUnCorr[0][0]).To(BeNumerically("~", 1.0, 1e-12))
			Expect(info.FitFracTotal).To(BeNumerically("~", 1.0, 1e-12))
			Expect(info.MeanEff).To(BeNumerically("~", 0.7, 1e-12))
			Expect(info.DPRate).To(BeNumerically("~", 4.0, 1e-9))
			Expect(eng.GenerationInfo().FitFrac[0][0]).To(BeNumerically("~", 1.0, 1e-12))
		})

		It("integrates to the DP area", func() {
			area := kin.DPArea()
			Expect(eng.FSqSum()[0]).To(BeNumerically("~", area, 1e-3*area))
			Expect(eng.FSqEffSum()[0]).To(BeNumerically("~", 0.7*eng.FSqSum()[0], 1e-12))
			Expect(eng.FNorm()[0]).To(BeNumerically("~", 1/math.Sqrt(eng.FSqSum()[0]), 1e-15))
		})

		It("gives a likelihood equal to the inverse area", func() {
			m13Sq, m23Sq := centre(kin)
			info, err := eng.CalcLikelihoodInfo(m13Sq, m23Sq)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Eff).To(Equal(0.7))
			Expect(info.Likelihood).To(BeNumerically("~", 1/eng.FSqSum()[0], 1e-12))
			Expect(eng.DPNorm()).To(BeNumerically("~", 4*0.7, 1e-9))

			w, err := eng.EventWeight(m13Sq, m23Sq)
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(BeNumerically("~", info.ASq/0.7, 1e-12))
		})
	})

	Describe("integration scheme", func() {
		It("uses one grid whose weights match its area when nothing is narrow", func() {
			eng := newEngine(kin, coarse(), kstar(), nonReson())
			Expect(eng.Initialise([]complex128{1, 1})).To(Succeed())

			scheme := eng.Scheme()
			Expect(scheme).To(HaveLen(1))
			s := scheme[0]
			Expect(s.SquareDP).To(BeFalse())
			Expect(s.Min13).To(BeNumerically("~", kin.M13Min(), 1e-12))
			Expect(s.Max23).To(BeNumerically("~", kin.M23Max(), 1e-12))
			Expect(s.N13).To(Equal(int((kin.M13Max() - kin.M13Min()) / 0.01)))
			Expect(s.WeightTotal13 * s.WeightTotal23).To(BeNumerically("~", s.Area(), 1e-9*s.Area()))
			Expect(s.PhaseSpace).To(BeNumerically("~", kin.DPArea(), 1e-3*kin.DPArea()))
		})

		It("opens a fine window around a narrow resonance", func() {
			narrow := lineshape.Spec{Name: "narrow", State: "K*0(892)", Kind: lineshape.RelBW, Bachelor: 2, Mass: 1.18, Width: 0.008}
			eng := newEngine(kin, coarse(), narrow, nonReson())
			Expect(eng.Initialise([]complex128{1, 1})).To(Succeed())

			r, _ := eng.Resonance("narrow")
			fine := r.Width() / 100
			scheme := eng.Scheme()
			Expect(len(scheme)).To(BeNumerically(">", 1))

			total, phaseSpace := 0.0, 0.0
			found := false
			for _, s := range scheme {
				Expect(s.WeightTotal13 * s.WeightTotal23).To(BeNumerically("~", s.Area(), 1e-9*s.Area()))
				total += s.Area()
				phaseSpace += s.PhaseSpace
				if s.Bin13 == fine {
					found = true
					Expect(s.Min13).To(BeNumerically("~", r.Mass()-5*r.Width(), 1e-12))
					Expect(s.Max13).To(BeNumerically("~", r.Mass()+5*r.Width(), 1e-12))
					Expect(s.Bin23).To(Equal(0.01))
				}
			}
			Expect(found).To(BeTrue())
			box := (kin.M13Max() - kin.M13Min()) * (kin.M23Max() - kin.M23Min())
			Expect(total).To(BeNumerically("~", box, 1e-9))
			Expect(phaseSpace).To(BeNumerically("~", kin.DPArea(), 2e-3*kin.DPArea()))
		})

		It("extends a window that ends close to threshold", func() {
			omega := lineshape.Spec{Name: "omega(782)", Kind: lineshape.RelBW, Bachelor: 2}
			eng := newEngine(kin, coarse(), omega, nonReson())
			Expect(eng.Initialise([]complex128{1, 1})).To(Succeed())

			r, _ := eng.Resonance("omega(782)")
			for _, s := range eng.Scheme() {
				if s.Bin13 == r.Width()/100 {
					Expect(s.Min13).To(Equal(kin.M13Min()))
					Expect(s.Max13).To(BeNumerically("~", r.Mass()+5*r.Width(), 1e-12))
				} else {
					Expect(s.Min13).To(BeNumerically(">=", r.Mass()+5*r.Width()-1e-12))
				}
			}
		})

		It("switches to the square DP for a narrow resonance in m12", func() {
			// Ds+ -> K+ K- pi+ with phi(1020) -> K+ K-
			dsKin, err := kinematics.New(lineshape.MDs, lineshape.MK, lineshape.MK, lineshape.MPi, false)
			Expect(err).NotTo(HaveOccurred())
			phi := lineshape.Spec{Name: "phi(1020)", Kind: lineshape.RelBW, Bachelor: 3}
			eng := newEngine(dsKin, coarse(), phi)
			Expect(eng.Initialise([]complex128{1})).To(Succeed())

			scheme := eng.Scheme()
			Expect(scheme).To(HaveLen(1))
			Expect(scheme[0].SquareDP).To(BeTrue())
			Expect(scheme[0].Area()).To(Equal(1.0))
			Expect(dsKin.SquareDP()).To(BeTrue())
			Expect(scheme[0].PhaseSpace).To(BeNumerically("~", dsKin.DPArea(), 1e-4*dsKin.DPArea()))
		})
	})

	Describe("square-DP integration", func() {
		It("agrees with the conventional grid", func() {
			conv := newEngine(kin, coarse(), kstar(), nonReson())
			Expect(conv.Initialise([]complex128{1, 0.5})).To(Succeed())

			opts := coarse()
			opts.ForceSquareDP = true
			sq := newEngine(dKPiPi(), opts, kstar(), nonReson())
			Expect(sq.Initialise([]complex128{1, 0.5})).To(Succeed())
			Expect(sq.Scheme()[0].SquareDP).To(BeTrue())

			for i := range conv.FSqSum() {
				Expect(relDiff(conv.FSqSum()[i], sq.FSqSum()[i])).To(BeNumerically("<", 5e-3))
			}
			Expect(relDiff(conv.ExtraInfo().FitFrac[0][0], sq.ExtraInfo().FitFrac[0][0])).To(BeNumerically("<", 5e-3))
		})
	})

	Describe("coefficient updates", func() {
		var (
			eng *dynamo.Engine
			rec *recorder
		)

		BeforeEach(func() {
			eng = newEngine(kin, coarse(), kstar(), nonReson())
			Expect(eng.Initialise([]complex128{1, 0.5})).To(Succeed())
			rec = &recorder{}
			eng.SetObserver(rec)
		})

		It("rescales without recomputing when only coefficients change", func() {
			fNorm := eng.FNorm()
			Expect(eng.Initialise([]complex128{1, 2i})).To(Succeed())
			Expect(rec.transitions).To(Equal([][2]dynamo.State{
				{dynamo.Ready, dynamo.Initialised},
				{dynamo.Initialised, dynamo.Ready},
			}))
			Expect(eng.FNorm()).To(Equal(fNorm))

			frac := eng.ExtraInfo().FitFrac
			Expect(frac[0][0] + frac[1][1] + frac[0][1]).To(BeNumerically("~", 1.0, 1e-12))
		})

		It("rescales the normalisation with UpdateCoeffs", func() {
			before := eng.DPNorm()
			Expect(eng.UpdateCoeffs([]complex128{2, 1})).To(Succeed())
			Expect(eng.DPNorm()).To(BeNumerically("~", 4*before, 1e-9*before))
			Expect(eng.UpdateCoeffs([]complex128{1})).To(MatchError(dynamo.ErrCoeffCount))
		})

		It("recomputes a changed component and matches a fresh engine", func() {
			r, ok := eng.Resonance("K*0(892)")
			Expect(ok).To(BeTrue())
			Expect(r.SetWidth(0.06)).To(Succeed())
			Expect(eng.Initialise([]complex128{1, 0.5})).To(Succeed())
			Expect(rec.transitions).To(ContainElement([2]dynamo.State{dynamo.Initialised, dynamo.NormalisationComputed}))

			spec := kstar()
			spec.Width = 0.06
			fresh := newEngine(dKPiPi(), coarse(), spec, nonReson())
			Expect(fresh.Initialise([]complex128{1, 0.5})).To(Succeed())

			for i := range fresh.FSqSum() {
				Expect(relDiff(eng.FSqSum()[i], fresh.FSqSum()[i])).To(BeNumerically("<", 1e-12))
			}
			Expect(relDiff(eng.DPNorm(), fresh.DPNorm())).To(BeNumerically("<", 1e-12))
		})

		It("recomputes after a barrier radius moves", func() {
			r, _ := eng.Resonance("K*0(892)")
			Expect(eng.Radii().Set(r.ResFactor().Handle(), 2.0)).To(Succeed())
			Expect(eng.Initialise([]complex128{1, 0.5})).To(Succeed())
			Expect(rec.transitions).To(ContainElement([2]dynamo.State{dynamo.Initialised, dynamo.NormalisationComputed}))
		})

		It("refreshes efficiencies after the model is replaced", func() {
			eng.SetEfficiency(efficiency.Constant(0.5))
			Expect(eng.Initialise([]complex128{1, 0.5})).To(Succeed())
			Expect(eng.ExtraInfo().MeanEff).To(BeNumerically("~", 0.5, 1e-12))
		})
	})

	Describe("data cache", func() {
		var (
			eng    *dynamo.Engine
			events []dynamo.Event
		)

		BeforeEach(func() {
			eng = newEngine(kin, coarse(), kstar(), nonReson())
			Expect(eng.Initialise([]complex128{1, 0.5})).To(Succeed())

			m13Sq, m23Sq := centre(kin)
			events = []dynamo.Event{
				{M13Sq: m13Sq, M23Sq: m23Sq},
				{M13Sq: 0.80, M23Sq: 1.0},
				{M13Sq: 1.2, M23Sq: 0.5},
			}
			for _, ev := range events {
				Expect(kin.WithinDPLimits(ev.M13Sq, ev.M23Sq)).To(BeTrue())
			}
			Expect(eng.FillDataCache(events)).To(Succeed())
			Expect(eng.NDataEvents()).To(Equal(3))
		})

		expectConsistent := func() {
			for i, ev := range events {
				cached, err := eng.CalcLikelihoodInfoCached(i)
				Expect(err).NotTo(HaveOccurred())
				direct, err := eng.CalcLikelihoodInfo(ev.M13Sq, ev.M23Sq)
				Expect(err).NotTo(HaveOccurred())
				Expect(cached.Likelihood).To(BeNumerically("~", direct.Likelihood, 1e-12*direct.Likelihood))
			}
		}

		It("reproduces the direct evaluation", func() {
			expectConsistent()
			Expect(eng.UpdateCoeffs([]complex128{0.3, 1i})).To(Succeed())
			expectConsistent()
		})

		It("follows a parameter change after ModifyDataCache", func() {
			r, _ := eng.Resonance("K*0(892)")
			Expect(r.SetMass(0.90)).To(Succeed())
			Expect(eng.Initialise([]complex128{1, 0.5})).To(Succeed())
			Expect(eng.ModifyDataCache()).To(Succeed())
			expectConsistent()
		})

		It("rejects an index outside the sample", func() {
			_, err := eng.CalcLikelihoodInfoCached(3)
			Expect(err).To(MatchError(dynamo.ErrEventIndex))
			Expect(eng.SetDataEventNo(-1)).To(MatchError(dynamo.ErrEventIndex))

			Expect(eng.SetDataEventNo(1)).To(Succeed())
			ev, ok := eng.CurrentEvent()
			Expect(ok).To(BeTrue())
			Expect(ev).To(Equal(events[1]))
		})
	})

	Describe("symmetric DP", func() {
		It("is symmetric under exchange of the identical daughters", func() {
			// D+ -> pi+ pi+ K-
			symKin, err := kinematics.New(lineshape.MD, lineshape.MPi, lineshape.MPi, lineshape.MK, false)
			Expect(err).NotTo(HaveOccurred())
			opts := coarse()
			opts.Symmetric = true
			eng := newEngine(symKin, opts, lineshape.Spec{Name: "K*0(892)", Kind: lineshape.RelBW, Bachelor: 2})
			Expect(eng.Initialise([]complex128{1})).To(Succeed())

			a, err := eng.CalcLikelihoodInfo(0.8, 1.4)
			Expect(err).NotTo(HaveOccurred())
			b, err := eng.CalcLikelihoodInfo(1.4, 0.8)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.ASq).To(BeNumerically(">", 0))
			Expect(b.ASq).To(BeNumerically("~", a.ASq, 1e-9*a.ASq))
		})
	})

	Describe("K-matrix production terms", func() {
		var eng *dynamo.Engine

		BeforeEach(func() {
			params, err := kmatrix.ParseFile(afero.NewOsFs(), "../kmatrix/testdata/focus.dat", 5, 5)
			Expect(err).NotTo(HaveOccurred())

			eng = dynamo.New(kin, nil, coarse())
			_, err = eng.DefineKMatrixPropagator("pipi", params, 1, 1)
			Expect(err).NotTo(HaveOccurred())
			_, err = eng.AddKMatrixProdPole("pole1", "pipi", 1, false)
			Expect(err).NotTo(HaveOccurred())
			_, err = eng.AddKMatrixProdSVP("svp1", "pipi", 1, false)
			Expect(err).NotTo(HaveOccurred())
			_, err = eng.AddResonance(kstar())
			Expect(err).NotTo(HaveOccurred())
			Expect(eng.Initialise([]complex128{1, 0.5, 1})).To(Succeed())
		})

		It("reports the total fit fraction of the propagator", func() {
			info := eng.ExtraInfo()
			want := info.FitFrac[0][0] + info.FitFrac[1][1] + info.FitFrac[0][1]
			Expect(info.KMatrixFitFrac).To(HaveKey("pipi"))
			Expect(info.KMatrixFitFrac["pipi"]).To(BeNumerically("~", want, 1e-12))
		})

		It("recomputes every term when the propagator is marked", func() {
			rec := &recorder{}
			eng.SetObserver(rec)
			Expect(eng.MarkChanged("pipi")).To(Succeed())
			Expect(eng.Initialise([]complex128{1, 0.5, 1})).To(Succeed())
			Expect(rec.transitions).To(ContainElement([2]dynamo.State{dynamo.Initialised, dynamo.NormalisationComputed}))
			Expect(eng.MarkChanged("nope")).To(MatchError(dynamo.ErrUnknownResonance))
		})
	})

	Describe("integrals dump", func() {
		It("needs computed integrals", func() {
			eng := newEngine(kin, coarse(), nonReson())
			Expect(eng.WriteIntegrals(&bytes.Buffer{})).To(MatchError(dynamo.ErrWrongState))
		})

		It("writes one quantity per line", func() {
			eng := newEngine(kin, coarse(), kstar(), nonReson())
			Expect(eng.Initialise([]complex128{1, 1})).To(Succeed())

			var buf bytes.Buffer
			Expect(eng.WriteIntegrals(&buf)).To(Succeed())
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			Expect(lines).To(HaveLen(8))
			Expect(lines[0]).To(HaveSuffix(" 2"))
			Expect(lines[1]).To(Equal("K*0(892) NonReson "))
			Expect(lines[2]).To(Equal("relbw flatnr "))
			Expect(lines[3]).To(Equal("2 1 "))
			Expect(strings.Fields(lines[6])).To(HaveLen(3))
		})
	})
})
