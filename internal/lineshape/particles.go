package lineshape

import "strings"

// Particle masses in GeV/c².
const (
	MPi       = 0.13957039
	MPi0      = 0.1349768
	MK        = 0.493677
	MK0       = 0.497611
	MEta      = 0.547862
	MEtaPrime = 0.95778
	MD0       = 1.86483
	MD        = 1.86965
	MDs       = 1.96834
	MB        = 5.27934
	MB0       = 5.27965
	MBs0      = 5.36688
)

var particleMasses = map[string]float64{
	"pi+":    MPi,
	"pi-":    MPi,
	"pi0":    MPi0,
	"k+":     MK,
	"k-":     MK,
	"k0":     MK0,
	"k0_s":   MK0,
	"eta":    MEta,
	"eta'":   MEtaPrime,
	"d0":     MD0,
	"d0_bar": MD0,
	"d+":     MD,
	"d-":     MD,
	"ds+":    MDs,
	"ds-":    MDs,
	"b+":     MB,
	"b-":     MB,
	"b0":     MB0,
	"b0_bar": MB0,
	"bs0":    MBs0,
}

// ParticleMass looks up a stable particle by case-insensitive name, e.g.
// "pi+", "K0_S" or "B+".
func ParticleMass(name string) (float64, bool) {
	m, ok := particleMasses[strings.ToLower(name)]
	return m, ok
}
