package dynamo

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

func writeComplex(w io.Writer, z complex128) {
	fmt.Fprintf(w, "(%.10g,%.10g) ", real(z), imag(z))
}

// WriteIntegrals dumps the integration results as text: daughter names and
// component count, component names, kinds and bachelors, then fSqSum,
// fSqEffSum and the upper triangles of fifjEffSum and fifjSum, one
// quantity per line.
func (e *Engine) WriteIntegrals(w io.Writer) error {
	if e.sums == nil {
		return fmt.Errorf("%w: no integrals computed", ErrWrongState)
	}
	bw := bufio.NewWriter(w)
	n := len(e.resonances)

	for _, name := range e.opts.DaughterNames {
		fmt.Fprintf(bw, "%s ", name)
	}
	fmt.Fprintf(bw, "%d\n", n)

	for _, r := range e.resonances {
		fmt.Fprintf(bw, "%s ", r.Name())
	}
	fmt.Fprintln(bw)
	for _, r := range e.resonances {
		fmt.Fprintf(bw, "%s ", r.Kind())
	}
	fmt.Fprintln(bw)
	for _, r := range e.resonances {
		fmt.Fprintf(bw, "%d ", r.Bachelor())
	}
	fmt.Fprintln(bw)

	for _, v := range e.sums.fSq {
		fmt.Fprintf(bw, "%.10g ", v)
	}
	fmt.Fprintln(bw)
	for _, v := range e.sums.fSqEff {
		fmt.Fprintf(bw, "%.10g ", v)
	}
	fmt.Fprintln(bw)

	for _, m := range [][][]complex128{e.sums.fifjEff, e.sums.fifj} {
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				writeComplex(bw, m[i][j])
			}
		}
		fmt.Fprintln(bw)
	}

	return errors.Wrap(bw.Flush(), "writing integrals")
}
