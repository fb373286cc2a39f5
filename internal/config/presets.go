package config

import "sort"

func preset(model, parent string, daughters []string, res ...ResonanceConfig) *Config {
	cfg := DefaultConfig()
	cfg.Model = model
	cfg.Parent = parent
	cfg.Daughters = daughters
	cfg.Resonances = res
	return cfg
}

var (
	dPiPiK   = []string{"pi+", "pi+", "K-"}
	dsKKPi   = []string{"K+", "K-", "pi+"}
	d0KsPiPi = []string{"K0_S", "pi-", "pi+"}
	bPiPiPi  = []string{"pi+", "pi+", "pi-"}
)

var Presets = map[string]map[string]*Config{
	"d_pipik": {
		"nr": preset("d_pipik", "D+", dPiPiK,
			ResonanceConfig{Name: "NonReson", Kind: "flatnr", Bachelor: 3, Coeff: Coeff{Re: 1}},
		),
		"kstar": preset("d_pipik", "D+", dPiPiK,
			ResonanceConfig{Name: "K*0(892)", Kind: "relbw", Bachelor: 2, Coeff: Coeff{Re: 1}},
			ResonanceConfig{Name: "NonReson", Kind: "flatnr", Bachelor: 3, Coeff: Coeff{Re: 2.1, Im: -0.3}},
		),
		"kstar_k0": preset("d_pipik", "D+", dPiPiK,
			ResonanceConfig{Name: "K*0(892)", Kind: "relbw", Bachelor: 2, Coeff: Coeff{Re: 1}},
			ResonanceConfig{Name: "K*0_0(1430)", Kind: "relbw", Bachelor: 2, Coeff: Coeff{Re: 1.2, Im: 1.6}},
			ResonanceConfig{Name: "K*0_2(1430)", Kind: "relbw", Bachelor: 2, Coeff: Coeff{Re: 0.1, Im: -0.2}},
			ResonanceConfig{Name: "NonReson", Kind: "flatnr", Bachelor: 3, Coeff: Coeff{Re: 1.5}},
		),
	},
	"ds_kkpi": {
		"phi": preset("ds_kkpi", "Ds+", dsKKPi,
			ResonanceConfig{Name: "phi(1020)", Kind: "relbw", Bachelor: 3, Coeff: Coeff{Re: 1}},
			ResonanceConfig{Name: "NonReson", Kind: "flatnr", Bachelor: 3, Coeff: Coeff{Re: 0.5}},
		),
		"phi_kstar": preset("ds_kkpi", "Ds+", dsKKPi,
			ResonanceConfig{Name: "phi(1020)", Kind: "relbw", Bachelor: 3, Coeff: Coeff{Re: 1}},
			ResonanceConfig{Name: "K*0(892)", Kind: "relbw", Bachelor: 1, Coeff: Coeff{Re: 0.9, Im: 0.4}},
			ResonanceConfig{Name: "NonReson", Kind: "flatnr", Bachelor: 3, Coeff: Coeff{Re: 0.3}},
		),
	},
	"d0_kspipi": {
		"rho_kstar": preset("d0_kspipi", "D0", d0KsPiPi,
			ResonanceConfig{Name: "rho0(770)", Kind: "gs", Bachelor: 1, Coeff: Coeff{Re: 1}},
			ResonanceConfig{Name: "K*+(892)", Kind: "relbw", Bachelor: 2, Coeff: Coeff{Re: -1.2, Im: 1.3}},
			ResonanceConfig{Name: "K*+(892)DCS", State: "K*+(892)", Kind: "relbw", Bachelor: 3, Coeff: Coeff{Re: 0.1, Im: -0.1}},
		),
		"omega": preset("d0_kspipi", "D0", d0KsPiPi,
			ResonanceConfig{Name: "rho0(770)", Kind: "gs", Bachelor: 1, Coeff: Coeff{Re: 1}},
			ResonanceConfig{Name: "omega(782)", Kind: "relbw", Bachelor: 1, Coeff: Coeff{Re: -0.02, Im: 0.03}},
			ResonanceConfig{Name: "K*+(892)", Kind: "relbw", Bachelor: 2, Coeff: Coeff{Re: -1.2, Im: 1.3}},
		),
		"flatte": preset("d0_kspipi", "D0", d0KsPiPi,
			ResonanceConfig{Name: "rho0(770)", Kind: "gs", Bachelor: 1, Coeff: Coeff{Re: 1}},
			ResonanceConfig{Name: "f_0(980)", Kind: "flatte", Bachelor: 1, Coeff: Coeff{Re: -0.3, Im: -0.2}},
			ResonanceConfig{Name: "K*+(892)", Kind: "relbw", Bachelor: 2, Coeff: Coeff{Re: -1.2, Im: 1.3}},
		),
	},
	"b_pipipi": {
		"rho": preset("b_pipipi", "B+", bPiPiPi,
			ResonanceConfig{Name: "rho0(770)", Kind: "relbw", Bachelor: 2, Coeff: Coeff{Re: 1}},
			ResonanceConfig{Name: "NonReson", Kind: "flatnr", Bachelor: 3, Coeff: Coeff{Re: 0.4, Im: 0.2}},
		),
		"rho_f2": preset("b_pipipi", "B+", bPiPiPi,
			ResonanceConfig{Name: "rho0(770)", Kind: "relbw", Bachelor: 2, Coeff: Coeff{Re: 1}},
			ResonanceConfig{Name: "f_2(1270)", Kind: "relbw", Bachelor: 2, Coeff: Coeff{Re: 0.2, Im: -0.5}},
		),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns the sorted preset names of a model.
func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListModels returns the sorted model names that have presets.
func ListModels() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
