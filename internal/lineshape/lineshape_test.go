package lineshape

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/san-kum/dalitz/internal/barrier"
	"github.com/san-kum/dalitz/internal/kinematics"
	"github.com/san-kum/dalitz/internal/kmatrix"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// D+ -> K- pi+ pi+
func newKin(t *testing.T) *kinematics.Kinematics {
	t.Helper()
	kin, err := kinematics.New(MD, MK, MPi, MPi, false)
	require.NoError(t, err)
	return kin
}

// B+ -> pi+ pi- pi+
func newThreePi(t *testing.T) *kinematics.Kinematics {
	t.Helper()
	kin, err := kinematics.New(MB, MPi, MPi, MPi, false)
	require.NoError(t, err)
	return kin
}

func build(t *testing.T, spec Spec, kin *kinematics.Kinematics) *Resonance {
	t.Helper()
	r, err := New(spec, kin, barrier.NewRadii())
	require.NoError(t, err)
	return r
}

func pairAt(m, ma, mb float64) kinematics.PairKinematics {
	return kinematics.PairKinematics{Mass: m, MassSq: m * m, Q: twoBodyMomentum(m, ma, mb), P: 1, PStar: 1, Erm: 1}
}

func TestLegendre(t *testing.T) {
	tests := []struct {
		l    int
		c    float64
		want float64
	}{
		{0, 0.3, 1},
		{1, 0.5, -1},
		{2, 1, 8.0 / 3.0},
		{2, 0, -4.0 / 3.0},
		{3, 1, -16.0 / 5.0},
		{4, 1, 16.0 * 8.0 / 35.0},
		{5, 1, -32.0 * 8.0 / 63.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, legendre(tt.l, tt.c), 1e-12, "l=%d c=%g", tt.l, tt.c)
	}
}

func TestSpinTerm(t *testing.T) {
	kin := newThreePi(t)
	pk := kinematics.PairKinematics{CosHel: 0.4, Q: 0.3, P: 2.0, PStar: 2.5, Erm: 1.2}

	rho := build(t, Spec{Name: "rho0(770)", Bachelor: 3}, kin)
	assert.InDelta(t, 0.3*2.0*-0.8, rho.SpinTerm(pk), 1e-12)

	rho = build(t, Spec{Name: "rho0(770)", Bachelor: 3, Formalism: ZemachPstar}, kin)
	assert.InDelta(t, 0.3*2.5*-0.8, rho.SpinTerm(pk), 1e-12)

	rho = build(t, Spec{Name: "rho0(770)", Bachelor: 3, Formalism: Covariant}, kin)
	assert.InDelta(t, 0.3*2.5*1.2*-0.8, rho.SpinTerm(pk), 1e-12)

	rho = build(t, Spec{Name: "rho0(770)", Bachelor: 3, Formalism: Legendre, FlipHelicity: true}, kin)
	assert.InDelta(t, 0.8, rho.SpinTerm(pk), 1e-12)

	rho = build(t, Spec{Name: "rho0(770)", Bachelor: 3, IgnoreMomenta: true}, kin)
	assert.InDelta(t, -0.8, rho.SpinTerm(pk), 1e-12)

	f0 := build(t, Spec{Name: "f_0(1370)", Bachelor: 3}, kin)
	assert.Equal(t, 1.0, f0.SpinTerm(pk))
}

func TestRelBWAtPole(t *testing.T) {
	kin := newThreePi(t)
	r := build(t, Spec{Name: "f_0(1370)", Bachelor: 3}, kin)

	m0, g0 := r.Mass(), r.Width()
	amp := r.ResAmp(pairAt(m0, MPi, MPi), 1.0)
	assert.InDelta(t, 0, real(amp), 1e-12)
	assert.InDelta(t, 1/(m0*g0), imag(amp), 1e-9)
}

func TestRelBWPeak(t *testing.T) {
	kin := newThreePi(t)
	r := build(t, Spec{Name: "rho0(770)", Bachelor: 3}, kin)

	peakMass, peak := 0.0, 0.0
	for m := 0.4; m < 1.5; m += 0.001 {
		a := cmplx.Abs(r.ResAmp(pairAt(m, MPi, MPi), 1.0))
		if a > peak {
			peak, peakMass = a, m
		}
	}
	assert.InDelta(t, r.Mass(), peakMass, 0.05)
}

func TestRelBWBelowThreshold(t *testing.T) {
	kin := newKin(t)
	r := build(t, Spec{Name: "D*0", Bachelor: 1, Mass: 0.2}, kin)
	for _, m := range []float64{0.28, 0.5, 1.0, 1.3} {
		amp := r.ResAmp(pairAt(m, MPi, MPi), 1.0)
		assert.False(t, isBad(amp))
	}
	assert.Equal(t, complex128(0), r.ResAmp(pairAt(0, MPi, MPi), 1.0))
}

func TestRelBWRadiusChange(t *testing.T) {
	kin := newThreePi(t)
	radii := barrier.NewRadii()
	a, err := New(Spec{Name: "rho0(770)", Bachelor: 3}, kin, radii)
	require.NoError(t, err)
	b, err := New(Spec{Name: "omega(782)", Bachelor: 3}, kin, radii)
	require.NoError(t, err)

	assert.Equal(t, a.ResFactor().Handle(), b.ResFactor().Handle())
	assert.Equal(t, a.ParFactor().Handle(), b.ParFactor().Handle())

	pk := pairAt(1.0, MPi, MPi)
	before := a.ResAmp(pk, 1.0)
	require.NoError(t, radii.Set(a.ResFactor().Handle(), 1.5))
	after := a.ResAmp(pk, 1.0)
	assert.NotEqual(t, before, after)
	assert.Equal(t, 1.5, b.ResFactor().Radius())
}

func TestSetters(t *testing.T) {
	kin := newThreePi(t)
	r := build(t, Spec{Name: "rho0(770)", Bachelor: 3}, kin)
	pk := pairAt(0.8, MPi, MPi)
	before := r.ResAmp(pk, 1.0)

	rev := r.Revision()
	require.NoError(t, r.SetMass(0.8))
	assert.Greater(t, r.Revision(), rev)
	assert.NotEqual(t, before, r.ResAmp(pk, 1.0))

	rev = r.Revision()
	require.NoError(t, r.SetMass(0.8))
	assert.Equal(t, rev, r.Revision())

	require.NoError(t, r.SetWidth(0.2))
	assert.Error(t, r.SetWidth(-1))
	assert.Error(t, r.SetMass(0))
	assert.Error(t, r.SetCouplings(1, 1))
	assert.Error(t, r.SetKnotValues(nil, nil))
}

func TestGSAtPole(t *testing.T) {
	kin := newThreePi(t)
	r := build(t, Spec{Name: "rho0(770)", Bachelor: 3, Kind: GS, IgnoreBarrierScaling: true}, kin)
	assert.Equal(t, 1, r.Spin())

	m0 := r.Mass()
	amp := r.ResAmp(pairAt(m0, MPi, MPi), 1.0)
	assert.InDelta(t, 0, real(amp), 1e-9)
	assert.Greater(t, imag(amp), 0.0)

	// GS lies close to the plain Breit-Wigner for the rho.
	bw := build(t, Spec{Name: "rho0(770)", Bachelor: 3, IgnoreBarrierScaling: true}, kin)
	ratio := cmplx.Abs(amp) / cmplx.Abs(bw.ResAmp(pairAt(m0, MPi, MPi), 1.0))
	assert.InDelta(t, 1.0, ratio, 0.6)

	spin := 2
	forced := build(t, Spec{Name: "rho0(770)", Bachelor: 3, Kind: GS, Spin: &spin}, kin)
	assert.Equal(t, 1, forced.Spin())
}

func TestFlatte(t *testing.T) {
	kin := newThreePi(t)
	r := build(t, Spec{Name: "f_0(980)", Bachelor: 3, Kind: Flatte}, kin)
	assert.Equal(t, 0, r.Spin())
	assert.Equal(t, 0.965, r.Mass())
	g1, g2 := r.Couplings()
	assert.Equal(t, 0.165, g1)
	assert.InDelta(t, 4.21*0.165, g2, 1e-12)

	near := cmplx.Abs(r.ResAmp(pairAt(0.97, MPi, MPi), 1.0))
	far := cmplx.Abs(r.ResAmp(pairAt(1.6, MPi, MPi), 1.0))
	assert.Greater(t, near, far)

	// below the KK threshold the second channel feeds the real part
	s := 0.9 * 0.9
	amp := r.ResAmp(pairAt(0.9, MPi, MPi), 1.0)
	rho1 := math.Sqrt(1-4*MPi0*MPi0/s)/3 + 2*math.Sqrt(1-4*MPi*MPi/s)/3
	dMSq := 0.965*0.965 - s + g2*0.965*(0.5*math.Sqrt(4*MK*MK/s-1)+0.5*math.Sqrt(4*MK0*MK0/s-1))
	w := g1 * rho1
	d := dMSq*dMSq + w*w
	assert.InDelta(t, dMSq/d, real(amp), 1e-9)
	assert.InDelta(t, w/d, imag(amp), 1e-9)

	rev := r.Revision()
	require.NoError(t, r.SetCouplings(0.2, 0.8))
	assert.Greater(t, r.Revision(), rev)
	assert.Error(t, r.SetCouplings(-1, 0))

	custom := build(t, Spec{Name: "f0", State: "f_0(980)", Bachelor: 3, Kind: Flatte, G1: 0.2, Mass: 0.98}, kin)
	g1, _ = custom.Couplings()
	assert.Equal(t, 0.2, g1)
	assert.Equal(t, 0.98, custom.Mass())

	_, err := New(Spec{Name: "rho0(770)", Bachelor: 3, Kind: Flatte}, kin, barrier.NewRadii())
	assert.True(t, errors.Is(err, ErrUnsupportedFlatte))
}

func TestFlatteAdler(t *testing.T) {
	kin := newKin(t)
	r := build(t, Spec{Name: "K*0_0(1430)", Bachelor: 3, Kind: Flatte}, kin)
	assert.Equal(t, 1.513, r.Mass())

	f := r.flatte
	m0, s := r.Mass(), 1.0
	rho1 := math.Sqrt(1-f.mSumSq[0]/s)/3 + 2*math.Sqrt(1-f.mSumSq[1]/s)/3
	dMSq := m0*m0 - s + f.g2*m0*(0.5*math.Sqrt(f.mSumSq[2]/s-1)+0.5*math.Sqrt(f.mSumSq[3]/s-1))
	w := f.g1 * rho1 * m0 * (s - 0.234) / (m0*m0 - 0.234)
	d := dMSq*dMSq + w*w

	amp := r.ResAmp(kinematics.PairKinematics{Mass: 1, MassSq: s}, 1.0)
	assert.InDelta(t, dMSq/d, real(amp), 1e-9)
	assert.InDelta(t, w/d, imag(amp), 1e-9)
}

func focusPropagator(t *testing.T) *kmatrix.Propagator {
	t.Helper()
	params, err := kmatrix.ParseFile(afero.NewOsFs(), "../kmatrix/testdata/focus.dat", 5, 5)
	require.NoError(t, err)
	prop, err := kmatrix.NewPropagator("pipi", params, 3, 1)
	require.NoError(t, err)
	return prop
}

func TestKMatrixPole(t *testing.T) {
	kin := newThreePi(t)
	prop := focusPropagator(t)
	r := build(t, Spec{Name: "KMPole1", Kind: KMatrixPole, Propagator: prop, Index: 2}, kin)
	assert.Equal(t, 3, r.Bachelor())
	assert.Equal(t, "pipi", r.Propagator())
	assert.Equal(t, 1, r.KMatrixIndex())
	assert.True(t, r.IsKMatrix())

	s := 1.2
	ev := prop.At(s)
	var want complex128
	for ch := 0; ch < 5; ch++ {
		want += complex(prop.Coupling(1, ch), 0) * ev.PropTerm(ch)
	}
	want *= complex(ev.PoleDenom[1], 0)

	got := r.ResAmp(kinematics.PairKinematics{Mass: math.Sqrt(s), MassSq: s}, 1.0)
	assert.InDelta(t, real(want), real(got), 1e-12)
	assert.InDelta(t, imag(want), imag(got), 1e-12)

	adler := build(t, Spec{Name: "KMPole1a", Kind: KMatrixPole, Propagator: prop, Index: 2, ProdAdler: true}, kin)
	got = adler.ResAmp(kinematics.PairKinematics{Mass: math.Sqrt(s), MassSq: s}, 1.0)
	assert.InDelta(t, real(want)*ev.Adler, real(got), 1e-12)
}

func TestKMatrixSVP(t *testing.T) {
	kin := newThreePi(t)
	prop := focusPropagator(t)
	r := build(t, Spec{Name: "KMSVP2", Kind: KMatrixSVP, Propagator: prop, Index: 2}, kin)

	s := 2.0
	ev := prop.At(s)
	want := ev.PropTerm(1) * complex(ev.ProdSVP, 0)
	got := r.ResAmp(kinematics.PairKinematics{Mass: math.Sqrt(s), MassSq: s}, 1.0)
	assert.InDelta(t, real(want), real(got), 1e-12)
	assert.InDelta(t, imag(want), imag(got), 1e-12)
}

func TestKMatrixErrors(t *testing.T) {
	kin := newThreePi(t)
	prop := focusPropagator(t)

	_, err := New(Spec{Name: "p", Kind: KMatrixPole}, kin, nil)
	assert.True(t, errors.Is(err, ErrNoPropagator))

	_, err = New(Spec{Name: "p", Kind: KMatrixPole, Propagator: prop, Index: 6}, kin, nil)
	assert.True(t, errors.Is(err, ErrBadIndex))

	_, err = New(Spec{Name: "p", Kind: KMatrixSVP, Propagator: prop, Index: 0}, kin, nil)
	assert.True(t, errors.Is(err, ErrBadIndex))
}

func TestPartialWave(t *testing.T) {
	kin := newKin(t)
	lo, hi := kin.Daughter(2)+kin.Daughter(3), kin.Parent()-kin.Daughter(1)

	r := build(t, Spec{
		Name:     "S-wave",
		Bachelor: 1,
		Kind:     MIPWMagPhase,
		Knots:    []float64{1.0, 0.5, 1.2},
		Values1:  []float64{2, 2, 2},
		Values2:  []float64{math.Pi / 2, math.Pi / 2, math.Pi / 2},
	}, kin)

	knots := r.Knots()
	require.Len(t, knots, 5)
	assert.Equal(t, lo, knots[0])
	assert.Equal(t, []float64{0.5, 1.0, 1.2}, knots[1:4])
	assert.Equal(t, hi, knots[4])

	amp := r.ResAmp(kinematics.PairKinematics{Mass: 0.77}, 1.0)
	assert.InDelta(t, 0, real(amp), 1e-12)
	assert.InDelta(t, 2, imag(amp), 1e-12)

	v1, v2 := r.KnotValues()
	require.Len(t, v1, 5)
	for i := range v1 {
		v1[i] = 1
		v2[i] = 0
	}
	rev := r.Revision()
	require.NoError(t, r.SetKnotValues(v1, v2))
	assert.Greater(t, r.Revision(), rev)
	amp = r.ResAmp(kinematics.PairKinematics{Mass: 0.77}, 1.0)
	assert.InDelta(t, 1, real(amp), 1e-12)
	assert.Error(t, r.SetKnotValues([]float64{1}, nil))

	ri := build(t, Spec{
		Name:     "S-wave-ri",
		Bachelor: 1,
		Kind:     MIPWRealImag,
		Knots:    []float64{lo, 0.8, hi},
		Values1:  []float64{1, 1, 1},
		Values2:  []float64{-3, -3, -3},
	}, kin)
	require.Len(t, ri.Knots(), 3)
	amp = ri.ResAmp(kinematics.PairKinematics{Mass: 1.0}, 2.0)
	assert.InDelta(t, 2, real(amp), 1e-12)
	assert.InDelta(t, -6, imag(amp), 1e-12)

	// outside the knot range the spline returns zero
	assert.Equal(t, complex128(0), ri.ResAmp(kinematics.PairKinematics{Mass: hi + 0.1}, 1.0))
}

func TestPartialWaveKnotsOnLimits(t *testing.T) {
	kin := newKin(t)
	lo, hi := kin.Daughter(2)+kin.Daughter(3), kin.Parent()-kin.Daughter(1)

	// limits written as constant expressions may differ from the computed
	// ones in the last bit
	r := build(t, Spec{
		Name:     "S-wave",
		Bachelor: 1,
		Kind:     MIPWRealImag,
		Knots:    []float64{MPi + MPi, 0.5, 0.8, 1.1, MD - MK},
		Values1:  []float64{1, 1, 1, 1, 1},
		Values2:  []float64{0, 0, 0, 0, 0},
	}, kin)

	knots := r.Knots()
	require.Len(t, knots, 5)
	assert.Equal(t, lo, knots[0])
	assert.Equal(t, hi, knots[4])

	// a knot a hair beyond the limit is moved onto it, not rejected
	nudged := build(t, Spec{
		Name:     "S-wave-nudged",
		Bachelor: 1,
		Kind:     MIPWMagPhase,
		Knots:    []float64{0.5, hi * (1 + 1e-12)},
	}, kin)
	require.Len(t, nudged.Knots(), 3)
	assert.Equal(t, hi, nudged.Knots()[2])
}

func TestPartialWaveKnotErrors(t *testing.T) {
	kin := newKin(t)
	tests := []struct {
		name  string
		knots []float64
		vals  []float64
	}{
		{"below threshold", []float64{0.1, 0.5}, nil},
		{"above limit", []float64{0.5, 1.5}, nil},
		{"no knots", nil, nil},
		{"value count", []float64{0.5, 1.0}, []float64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Spec{Name: "w", Bachelor: 1, Kind: MIPWRealImag, Knots: tt.knots, Values1: tt.vals}, kin, nil)
			assert.True(t, errors.Is(err, ErrBadKnots), "got %v", err)
		})
	}
}

func TestFlatNR(t *testing.T) {
	kin := newKin(t)
	r := build(t, Spec{Name: "NR", Bachelor: 3, Kind: FlatNR}, kin)
	assert.Equal(t, "NonReson", r.State())
	p := kin.UpdateKinematics(1.0, 1.2)
	assert.Equal(t, complex128(1), r.Amplitude(p))
}

func TestAmplitudeInsideDP(t *testing.T) {
	kin := newKin(t)
	specs := []Spec{
		{Name: "K*0(892)", Bachelor: 2},
		{Name: "K*0_2(1430)", Bachelor: 3, Formalism: Covariant, RestFrame: barrier.Covariant},
		{Name: "K*0_0(1430)", Bachelor: 2, Kind: Flatte},
		{Name: "rho0(770)", State: "K*0(892)", Bachelor: 3, Kind: GS, RestFrame: barrier.ParentFrame},
	}
	for _, spec := range specs {
		r := build(t, spec, kin)
		for m13 := kin.M13SqMin() + 0.01; m13 < kin.M13SqMax(); m13 += 0.05 {
			lo, hi := kin.M23SqRange(m13)
			for _, m23 := range []float64{lo + 1e-6, 0.5 * (lo + hi), hi - 1e-6} {
				if !kin.WithinDPLimits(m13, m23) {
					continue
				}
				amp := r.Amplitude(kin.UpdateKinematics(m13, m23))
				require.False(t, isBad(amp), "%s at (%g, %g)", spec.Name, m13, m23)
			}
		}
	}
}

func TestNewErrors(t *testing.T) {
	kin := newKin(t)

	_, err := New(Spec{Name: "nonexistent", Bachelor: 1}, kin, nil)
	assert.True(t, errors.Is(err, ErrUnknownState))

	_, err = New(Spec{Name: "rho0(770)", Bachelor: 4}, kin, nil)
	assert.True(t, errors.Is(err, ErrBadBachelor))

	_, err = New(Spec{Name: "", Bachelor: 1}, kin, nil)
	assert.Error(t, err)

	_, err = New(Spec{Name: "x", Bachelor: 1}, nil, nil)
	assert.Error(t, err)

	spin := 6
	_, err = New(Spec{Name: "rho0(770)", Bachelor: 3, Spin: &spin}, kin, barrier.NewRadii())
	assert.True(t, errors.Is(err, barrier.ErrSpinTooHigh))

	_, err = New(Spec{Name: "x", Bachelor: 1, Kind: Kind(42)}, kin, nil)
	assert.Error(t, err)
}

func TestCategoryOverride(t *testing.T) {
	kin := newKin(t)
	radii := barrier.NewRadii()
	a, err := New(Spec{Name: "K*0(892)", Bachelor: 2, Category: barrier.Indep}, kin, radii)
	require.NoError(t, err)
	b, err := New(Spec{Name: "K*0(1410)", Bachelor: 2}, kin, radii)
	require.NoError(t, err)

	assert.Equal(t, barrier.Indep, a.Category())
	assert.Equal(t, barrier.Kstar, b.Category())
	assert.NotEqual(t, a.ResFactor().Handle(), b.ResFactor().Handle())
	assert.Equal(t, "BarrierRadius_K*0(892)", radii.Name(a.ResFactor().Handle()))
}

func TestCatalogue(t *testing.T) {
	info, err := Lookup("rho0(770)")
	require.NoError(t, err)
	assert.Equal(t, 0.77526, info.Mass)
	assert.Equal(t, 1, info.Spin)
	assert.Equal(t, barrier.Light, info.Category)

	_, err = Lookup("rho0(999)")
	assert.True(t, errors.Is(err, ErrUnknownState))

	names := Names()
	assert.Len(t, names, len(catalogue))
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
}

func TestParseKind(t *testing.T) {
	for k := RelBW; k <= FlatNR; k++ {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	got, err := ParseKind("RelBW")
	require.NoError(t, err)
	assert.Equal(t, RelBW, got)
	_, err = ParseKind("bogus")
	assert.True(t, errors.Is(err, ErrUnknownKind))

	for f := ZemachP; f <= Legendre; f++ {
		got, err := ParseSpinFormalism(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err = ParseSpinFormalism("helicity")
	assert.Error(t, err)
}

func TestParticleMass(t *testing.T) {
	m, ok := ParticleMass("K0_S")
	assert.True(t, ok)
	assert.Equal(t, MK0, m)
	_, ok = ParticleMass("tau")
	assert.False(t, ok)
}
