package kmatrix

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// DefaultRadius is the channel radius in GeV⁻¹ used when a file gives none.
const DefaultRadius = 3.0

// Params holds the constants of one K-matrix parameterisation.
type Params struct {
	NChannels int
	NPoles    int

	Channels   []Channel
	PoleMassSq []float64
	Couplings  [][]float64 // [pole][channel]
	Scattering [][]float64 // [channel][channel]

	// Orbital angular momentum, barrier-factor parameter and radius per channel.
	L        []int
	BarrierA []float64
	Radii    []float64

	MSq0    float64
	S0Scatt float64
	S0Prod  float64
	SA0     float64
	SA      float64

	ScattSymmetry bool
}

// NewParams returns empty parameters: S-wave channels, default radii and
// symmetric scattering constants.
func NewParams(nChannels, nPoles int) (*Params, error) {
	if nChannels < 1 || nPoles < 0 {
		return nil, fmt.Errorf("%w: %d channels, %d poles", ErrBadDimensions, nChannels, nPoles)
	}

	p := &Params{
		NChannels:     nChannels,
		NPoles:        nPoles,
		Channels:      make([]Channel, nChannels),
		PoleMassSq:    make([]float64, nPoles),
		Couplings:     make([][]float64, nPoles),
		Scattering:    make([][]float64, nChannels),
		L:             make([]int, nChannels),
		BarrierA:      make([]float64, nChannels),
		Radii:         make([]float64, nChannels),
		ScattSymmetry: true,
	}
	for i := range p.Couplings {
		p.Couplings[i] = make([]float64, nChannels)
	}
	for i := range p.Scattering {
		p.Scattering[i] = make([]float64, nChannels)
		p.Radii[i] = DefaultRadius
	}
	return p, nil
}

// ParseFile reads a parameter file from fs.
func ParseFile(fs afero.Fs, path string, nChannels, nPoles int) (*Params, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening K-matrix parameters %s", path)
	}
	defer f.Close()

	p, err := Parse(f, nChannels, nPoles)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return p, nil
}

// Parse reads whitespace-separated "keyword values..." lines. Keywords are
// case insensitive and '#' starts a comment. Recognised keywords:
//
//	channels c1 ... cN
//	pole index mass g1 ... gN
//	scatt index f1 ... fN
//	angularmomentum L1 ... LN
//	barrierfactorparameter a1 ... aN
//	radii R1 ... RN
//	mSq0, s0Scatt, s0Prod, sA0, sA value
//	scattSymmetry 0|1
//
// Indices are 1-based. Pole masses are stored squared.
func Parse(r io.Reader, nChannels, nPoles int) (*Params, error) {
	p, err := NewParams(nChannels, nPoles)
	if err != nil {
		return nil, err
	}

	var (
		haveChannels bool
		haveBarrierA bool
		lineNo       int
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		keyword := strings.ToLower(fields[0])
		args := fields[1:]
		bad := func(format string, a ...any) error {
			return &ParseError{Line: lineNo, Msg: fmt.Sprintf(format, a...)}
		}

		switch keyword {
		case "channels":
			if len(args) != nChannels {
				return nil, bad("%d channels given, %d expected", len(args), nChannels)
			}
			ints, err := parseInts(args)
			if err != nil {
				return nil, bad("%v", err)
			}
			for i, v := range ints {
				c := Channel(v)
				if !c.Valid() {
					return nil, bad("channel index %d not between %d and %d", v, int(PiPi), int(Dstar0K))
				}
				p.Channels[i] = c
			}
			haveChannels = true

		case "pole":
			if len(args) != nChannels+2 {
				return nil, bad("pole needs index, mass and %d couplings", nChannels)
			}
			idx, err := strconv.Atoi(args[0])
			if err != nil || idx < 1 || idx > nPoles {
				return nil, bad("pole index %q not between 1 and %d", args[0], nPoles)
			}
			vals, err := parseFloats(args[1:])
			if err != nil {
				return nil, bad("%v", err)
			}
			p.PoleMassSq[idx-1] = vals[0] * vals[0]
			copy(p.Couplings[idx-1], vals[1:])

		case "scatt":
			if len(args) != nChannels+1 {
				return nil, bad("scatt needs index and %d constants", nChannels)
			}
			idx, err := strconv.Atoi(args[0])
			if err != nil || idx < 1 || idx > nChannels {
				return nil, bad("scattering index %q not between 1 and %d", args[0], nChannels)
			}
			vals, err := parseFloats(args[1:])
			if err != nil {
				return nil, bad("%v", err)
			}
			copy(p.Scattering[idx-1], vals)

		case "angularmomentum":
			if len(args) != nChannels {
				return nil, bad("%d angular momenta given, %d expected", len(args), nChannels)
			}
			ints, err := parseInts(args)
			if err != nil {
				return nil, bad("%v", err)
			}
			for i, l := range ints {
				if l < 0 || l > 2 {
					return nil, bad("angular momentum %d: only S, P and D waves are supported", l)
				}
				p.L[i] = l
				if !haveBarrierA {
					p.BarrierA[i] = defaultBarrierA(l)
				}
			}

		case "barrierfactorparameter":
			if len(args) != nChannels {
				return nil, bad("%d barrier parameters given, %d expected", len(args), nChannels)
			}
			vals, err := parseFloats(args)
			if err != nil {
				return nil, bad("%v", err)
			}
			copy(p.BarrierA, vals)
			haveBarrierA = true

		case "radii":
			if len(args) != nChannels {
				return nil, bad("%d radii given, %d expected", len(args), nChannels)
			}
			vals, err := parseFloats(args)
			if err != nil {
				return nil, bad("%v", err)
			}
			copy(p.Radii, vals)

		case "msq0", "s0scatt", "s0prod", "sa0", "sa":
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return nil, bad("%s: %v", fields[0], err)
			}
			switch keyword {
			case "msq0":
				p.MSq0 = v
			case "s0scatt":
				p.S0Scatt = v
			case "s0prod":
				p.S0Prod = v
			case "sa0":
				p.SA0 = v
			case "sa":
				p.SA = v
			}

		case "scattsymmetry":
			flag, err := strconv.Atoi(args[0])
			if err != nil {
				return nil, bad("scattSymmetry: %v", err)
			}
			p.ScattSymmetry = flag != 0

		default:
			log.WithFields(logrus.Fields{"line": lineNo, "keyword": fields[0]}).Warn("ignoring unknown K-matrix keyword")
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !haveChannels {
		return nil, ErrMissingChannels
	}

	if p.ScattSymmetry {
		for i := 0; i < nChannels; i++ {
			for j := i; j < nChannels; j++ {
				p.Scattering[j][i] = p.Scattering[i][j]
			}
		}
	}
	return p, nil
}

func defaultBarrierA(l int) float64 {
	switch l {
	case 1:
		return 1
	case 2:
		return 3
	}
	return 0
}

func parseInts(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
