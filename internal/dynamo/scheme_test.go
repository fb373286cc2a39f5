package dynamo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegments(t *testing.T) {
	tests := []struct {
		name    string
		windows []segment
		want    []segment
	}{
		{
			name: "no windows",
			want: []segment{{0, 2, 0.1}},
		},
		{
			name:    "single window",
			windows: []segment{{0.5, 0.7, 0.001}},
			want:    []segment{{0, 0.5, 0.1}, {0.5, 0.7, 0.001}, {0.7, 2, 0.1}},
		},
		{
			name:    "finer binning wins the overlap",
			windows: []segment{{0.5, 0.9, 0.002}, {0.8, 1.0, 0.001}},
			want:    []segment{{0, 0.5, 0.1}, {0.5, 0.8, 0.002}, {0.8, 1.0, 0.001}, {1.0, 2, 0.1}},
		},
		{
			name:    "contained window",
			windows: []segment{{0.5, 1.5, 0.001}, {0.8, 1.0, 0.002}},
			want:    []segment{{0, 0.5, 0.1}, {0.5, 1.5, 0.001}, {1.5, 2, 0.1}},
		},
		{
			name:    "clipped at the limits",
			windows: []segment{{-0.1, 0.3, 0.001}, {1.9, 2.5, 0.002}},
			want:    []segment{{0, 0.3, 0.001}, {0.3, 1.9, 0.1}, {1.9, 2, 0.002}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := segments(tt.windows, 0, 2, 0.1)
			require.Len(t, got, len(tt.want))
			for i := range got {
				assert.InDelta(t, tt.want[i].lo, got[i].lo, 1e-15)
				assert.InDelta(t, tt.want[i].hi, got[i].hi, 1e-15)
				assert.Equal(t, tt.want[i].bin, got[i].bin)
			}
		})
	}
}

func TestNPoints(t *testing.T) {
	assert.Equal(t, 100, nPoints(0, 1, 0.01))
	assert.Equal(t, 1, nPoints(0, 0.001, 0.01))
}

func TestParallelSumsDeterministic(t *testing.T) {
	const n = 20000
	ff := make([][]complex128, n)
	for k := range ff {
		x := float64(k) / n
		ff[k] = []complex128{complex(x, 1-x), complex(1, x*x)}
	}
	fill := func(acc *sums, start, end int) {
		for k := start; k < end; k++ {
			acc.addPoint(ff[k], 0.5, 1e-3)
		}
	}

	serial := newSums(2)
	fill(serial, 0, n)
	a := parallelSums(n, 1000, 2, fill)
	b := parallelSums(n, 1000, 2, fill)

	assert.Equal(t, a, b)
	assert.InDelta(t, serial.fSq[0], a.fSq[0], 1e-9)
	assert.InDelta(t, 0.5*a.fSq[1], a.fSqEff[1], 1e-12)
	assert.InDelta(t, real(serial.fifj[0][1]), real(a.fifj[0][1]), 1e-9)
	assert.Zero(t, a.fifj[1][0])
}
