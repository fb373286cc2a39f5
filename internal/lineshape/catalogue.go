package lineshape

import (
	"fmt"
	"sort"

	"github.com/san-kum/dalitz/internal/barrier"
)

// Info holds the nominal properties of a catalogued state.
type Info struct {
	Name     string
	Mass     float64
	Width    float64
	Spin     int
	Charge   int
	Category barrier.Category
}

// Pole masses and widths in GeV/c².
var catalogue = []Info{
	{"rho0(770)", 0.77526, 0.1478, 1, 0, barrier.Light},
	{"rho+(770)", 0.77511, 0.1491, 1, 1, barrier.Light},
	{"rho0(1450)", 1.465, 0.400, 1, 0, barrier.Light},
	{"rho+(1450)", 1.465, 0.400, 1, 1, barrier.Light},
	{"rho0_3(1690)", 1.686, 0.186, 3, 0, barrier.Light},
	{"rho0(1700)", 1.720, 0.250, 1, 0, barrier.Light},
	{"K*0(892)", 0.89581, 0.0474, 1, 0, barrier.Kstar},
	{"K*+(892)", 0.89166, 0.0508, 1, 1, barrier.Kstar},
	{"K*0(1410)", 1.414, 0.232, 1, 0, barrier.Kstar},
	{"K*+(1410)", 1.414, 0.232, 1, 1, barrier.Kstar},
	{"K*0_0(1430)", 1.425, 0.270, 0, 0, barrier.Kstar},
	{"K*+_0(1430)", 1.425, 0.270, 0, 1, barrier.Kstar},
	{"K*0_2(1430)", 1.4324, 0.109, 2, 0, barrier.Kstar},
	{"K*+_2(1430)", 1.4256, 0.0985, 2, 1, barrier.Kstar},
	{"K*0(1680)", 1.717, 0.322, 1, 0, barrier.Kstar},
	{"K*+(1680)", 1.717, 0.322, 1, 1, barrier.Kstar},
	{"phi(1020)", 1.019461, 0.004266, 1, 0, barrier.Light},
	{"phi(1680)", 1.680, 0.150, 1, 0, barrier.Light},
	{"f_0(980)", 0.990, 0.070, 0, 0, barrier.Light},
	{"f_2(1270)", 1.2751, 0.1851, 2, 0, barrier.Light},
	{"f_0(1370)", 1.370, 0.350, 0, 0, barrier.Light},
	{"f_0(1500)", 1.505, 0.109, 0, 0, barrier.Light},
	{"f'_2(1525)", 1.525, 0.073, 2, 0, barrier.Light},
	{"f_0(1710)", 1.722, 0.135, 0, 0, barrier.Light},
	{"omega(782)", 0.78265, 0.00849, 1, 0, barrier.Light},
	{"a0_0(980)", 0.980, 0.092, 0, 0, barrier.Light},
	{"a+_0(980)", 0.980, 0.092, 0, 1, barrier.Light},
	{"a0_2(1320)", 1.3190, 0.1050, 2, 0, barrier.Light},
	{"chi_c0", 3.41475, 0.0105, 0, 0, barrier.Charmonium},
	{"chi_c2", 3.55620, 0.00193, 2, 0, barrier.Charmonium},
	{"psi(3770)", 3.77313, 0.0272, 1, 0, barrier.Charmonium},
	{"sigma0", 0.475, 0.550, 0, 0, barrier.Light},
	{"kappa0", 0.682, 0.547, 0, 0, barrier.Kstar},
	{"D*0", 2.00696, 0.0021, 1, 0, barrier.Charm},
	{"D*+", 2.01026, 83.4e-6, 1, 1, barrier.Charm},
	{"D*0_0", 2.318, 0.267, 0, 0, barrier.Charm},
	{"D*0_2", 2.4626, 0.049, 2, 0, barrier.Charm},
	{"D0_1(2420)", 2.4214, 0.0274, 1, 0, barrier.Charm},
	{"Ds*+", 2.1121, 0.0019, 1, 1, barrier.StrangeCharm},
	{"Ds*+_0(2317)", 2.3177, 0.0038, 0, 1, barrier.StrangeCharm},
	{"B*0", 5.3252, 0.0, 1, 0, barrier.Beauty},
	{"NonReson", 0, 0, 0, 0, barrier.Light},
	{"KMatrix", 0, 0, 0, 0, barrier.Light},
	{"Spline_S0", 0, 0, 0, 0, barrier.Light},
}

var catalogueIndex = func() map[string]int {
	m := make(map[string]int, len(catalogue))
	for i, info := range catalogue {
		m[info.Name] = i
	}
	return m
}()

// Lookup returns the catalogue entry for a state name.
func Lookup(name string) (Info, error) {
	i, ok := catalogueIndex[name]
	if !ok {
		return Info{}, fmt.Errorf("%w: %q", ErrUnknownState, name)
	}
	return catalogue[i], nil
}

// Names lists every catalogued state in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalogue))
	for _, info := range catalogue {
		names = append(names, info.Name)
	}
	sort.Strings(names)
	return names
}
