package lineshape

import (
	"github.com/san-kum/dalitz/internal/kinematics"
	"github.com/san-kum/dalitz/internal/kmatrix"
)

// kmatrixTerm is a production term on a shared propagator. index is the
// 0-based pole for KMatrixPole and the 0-based channel for KMatrixSVP.
type kmatrixTerm struct {
	prop      *kmatrix.Propagator
	index     int
	prodAdler bool
}

// KMatrixIndex returns the 0-based pole or channel of a K-matrix term.
func (r *Resonance) KMatrixIndex() int {
	if r.kmat == nil {
		return -1
	}
	return r.kmat.index
}

func (r *Resonance) kmatrixPoleAmp(pk kinematics.PairKinematics) complex128 {
	t := r.kmat
	ev := t.prop.At(pk.MassSq)

	var amp complex128
	for ch := 0; ch < t.prop.NChannels(); ch++ {
		g := t.prop.Coupling(t.index, ch)
		amp += complex(g, 0) * ev.PropTerm(ch)
	}

	scale := ev.PoleDenom[t.index]
	if t.prodAdler {
		scale *= ev.Adler
	}
	return amp * complex(scale, 0)
}

func (r *Resonance) kmatrixSVPAmp(pk kinematics.PairKinematics, spinTerm float64) complex128 {
	t := r.kmat
	_, fb := r.barrierFactors(pk)

	ev := t.prop.At(pk.MassSq)
	scale := ev.ProdSVP * spinTerm * fb
	if t.prodAdler {
		scale *= ev.Adler
	}
	return ev.PropTerm(t.index) * complex(scale, 0)
}
