package experiment

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/san-kum/dalitz/internal/barrier"
	"github.com/san-kum/dalitz/internal/config"
	"github.com/san-kum/dalitz/internal/dynamo"
	"github.com/san-kum/dalitz/internal/kinematics"
	"github.com/san-kum/dalitz/internal/kmatrix"
	"github.com/san-kum/dalitz/internal/lineshape"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// ErrUnknownParticle is returned for a parent or daughter name missing
// from the particle table.
var ErrUnknownParticle = errors.New("experiment: unknown particle")

// Model is an initialised amplitude model built from a configuration.
type Model struct {
	Config *config.Config
	Kin    *kinematics.Kinematics
	Engine *dynamo.Engine
	Radii  *barrier.Radii
}

func particleMass(name string) (float64, error) {
	m, ok := lineshape.ParticleMass(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownParticle, name)
	}
	return m, nil
}

func engineOptions(cfg *config.Config, radii *barrier.Radii) dynamo.Options {
	in := cfg.Integration
	opts := dynamo.DefaultOptions()
	opts.M13BinWidth = in.M13BinWidth
	opts.M23BinWidth = in.M23BinWidth
	opts.MPrimeBinWidth = in.MPrimeBinWidth
	opts.ThetaPrimeBinWidth = in.ThetaPrimeBinWidth
	opts.NarrowWidth = in.NarrowWidth
	opts.BinningFactor = in.BinningFactor
	opts.Precision = in.Precision
	opts.ForceSquareDP = in.ForceSquareDP
	opts.FullySymmetric = cfg.FullySymmetric()
	opts.Symmetric = cfg.Symmetric() && !opts.FullySymmetric
	opts.Radii = radii
	copy(opts.DaughterNames[:], cfg.Daughters)
	return opts
}

// DecayKinematics builds the kinematics of parent decaying to the three
// named daughters.
func DecayKinematics(parent string, daughters []string, squareDP bool) (*kinematics.Kinematics, error) {
	if len(daughters) != 3 {
		return nil, fmt.Errorf("%w: need 3 daughters, got %d", config.ErrInvalid, len(daughters))
	}
	var masses [4]float64
	for i, name := range append([]string{parent}, daughters...) {
		m, err := particleMass(name)
		if err != nil {
			return nil, err
		}
		masses[i] = m
	}
	return kinematics.New(masses[0], masses[1], masses[2], masses[3], squareDP)
}

// Build assembles and initialises the engine described by cfg. K-matrix
// parameter files are read from fs, relative to cfg.BaseDir.
func Build(fs afero.Fs, cfg *config.Config, reg *Registry) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	kin, err := DecayKinematics(cfg.Parent, cfg.Daughters, cfg.Generation.SquareDP || cfg.Integration.ForceSquareDP)
	if err != nil {
		return nil, err
	}

	radii := barrier.NewRadii()
	for _, rc := range cfg.Radii {
		cat, err := barrier.ParseCategory(rc.Category)
		if err != nil {
			return nil, err
		}
		if err := radii.SetDefault(cat, rc.Value); err != nil {
			return nil, err
		}
	}

	eff, err := reg.GetEfficiency(cfg.Efficiency)
	if err != nil {
		return nil, err
	}
	eng := dynamo.New(kin, eff, engineOptions(cfg, radii))

	for _, kc := range cfg.KMatrix {
		if err := definePropagator(fs, cfg.BaseDir, eng, kc); err != nil {
			return nil, err
		}
	}

	for _, rc := range cfg.Resonances {
		spec, err := reg.GetSpec(rc)
		if err != nil {
			return nil, err
		}
		switch spec.Kind {
		case lineshape.KMatrixPole:
			_, err = eng.AddKMatrixProdPole(rc.Name, rc.Propagator, rc.Index, rc.ProdAdler)
		case lineshape.KMatrixSVP:
			_, err = eng.AddKMatrixProdSVP(rc.Name, rc.Propagator, rc.Index, rc.ProdAdler)
		default:
			_, err = eng.AddResonance(spec)
		}
		if err != nil {
			return nil, err
		}
	}

	for _, rc := range cfg.Radii {
		cat, _ := barrier.ParseCategory(rc.Category)
		if cat != barrier.Indep {
			radii.Fix(radii.Handle(cat, ""), rc.Fixed)
		}
	}

	if err := eng.Initialise(cfg.Coeffs()); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"model":      cfg.Model,
		"decay":      fmt.Sprintf("%s -> %v", cfg.Parent, cfg.Daughters),
		"resonances": eng.NAmp(),
		"dpRate":     eng.ExtraInfo().DPRate,
	}).Info("model built")
	return &Model{Config: cfg, Kin: kin, Engine: eng, Radii: radii}, nil
}

func definePropagator(fs afero.Fs, baseDir string, eng *dynamo.Engine, kc config.KMatrixConfig) error {
	path := kc.File
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	f, err := fs.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening K-matrix parameters %s", path)
	}
	defer f.Close()

	params, err := kmatrix.Parse(f, kc.Channels, kc.Poles)
	if err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}
	row := kc.Row
	if row == 0 {
		row = 1
	}
	_, err = eng.DefineKMatrixPropagator(kc.Name, params, kc.Pair, row)
	return err
}
