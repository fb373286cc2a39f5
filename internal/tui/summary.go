package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/dalitz/internal/config"
	"github.com/san-kum/dalitz/internal/dynamo"
	"github.com/san-kum/dalitz/internal/generator"
)

// FitFractionTable lists the diagonal fit fractions, then the interference
// terms above 1e-4 in magnitude, then the totals.
func FitFractionTable(names []string, extra dynamo.ExtraInfo) string {
	var b strings.Builder
	b.WriteString(bold.Render(fmt.Sprintf("  %-22s %10s %10s", "component", "fit frac", "eff-uncorr")) + "\n")
	b.WriteString(dimmer.Render("  "+strings.Repeat("─", 44)) + "\n")

	for i, name := range names {
		if i >= len(extra.FitFrac) {
			break
		}
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			white.Render(fmt.Sprintf("%-22s", name)),
			cyan.Render(fmt.Sprintf("%10.4f", extra.FitFrac[i][i])),
			dim.Render(fmt.Sprintf("%10.4f", extra.FitFracEffUnCorr[i][i]))))
	}
	for i := range names {
		for j := i + 1; j < len(names) && i < len(extra.FitFrac); j++ {
			ff := extra.FitFrac[i][j]
			if ff > -1e-4 && ff < 1e-4 {
				continue
			}
			label := fmt.Sprintf("%s x %s", names[i], names[j])
			b.WriteString(fmt.Sprintf("  %s %s\n",
				dim.Render(fmt.Sprintf("%-22s", label)),
				magenta.Render(fmt.Sprintf("%10.4f", ff))))
		}
	}

	props := make([]string, 0, len(extra.KMatrixFitFrac))
	for name := range extra.KMatrixFitFrac {
		props = append(props, name)
	}
	sort.Strings(props)
	for _, name := range props {
		b.WriteString(fmt.Sprintf("  %s %s\n",
			white.Render(fmt.Sprintf("%-22s", "K-matrix "+name)),
			cyan.Render(fmt.Sprintf("%10.4f", extra.KMatrixFitFrac[name]))))
	}

	b.WriteString(dimmer.Render("  "+strings.Repeat("─", 44)) + "\n")
	b.WriteString(fmt.Sprintf("  %-22s %10.4f\n", "total", extra.FitFracTotal))
	b.WriteString(fmt.Sprintf("  %-22s %10.4f\n", "mean efficiency", extra.MeanEff))
	b.WriteString(fmt.Sprintf("  %-22s %10.4g\n", "DP rate", extra.DPRate))
	return b.String()
}

// StatusSummary reports the counters of a generation run.
func StatusSummary(res *generator.Result) string {
	var b strings.Builder
	icon := green.Render("●")
	if res.Statuses[generator.ASqMaxError] > 0 || res.Statuses[generator.MaxIterError] > 0 {
		icon = yellow.Render("●")
	}
	b.WriteString(fmt.Sprintf("  %s %s events  %s trials  acceptance %s\n",
		icon,
		white.Render(fmt.Sprint(len(res.Events))),
		white.Render(fmt.Sprint(res.Stats.Trials)),
		cyan.Render(fmt.Sprintf("%.3f", res.Stats.AcceptanceRate()))))
	b.WriteString(fmt.Sprintf("  envelope %s  raises %d  restarts %d  max-iter %d\n",
		magenta.Render(fmt.Sprintf("%.4g", res.ASqMax)),
		res.Stats.EnvelopeRaises, res.Restarts, res.Statuses[generator.MaxIterError]))

	if len(res.Metrics) > 0 {
		names := make([]string, 0, len(res.Metrics))
		for name := range res.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = dim.Render(name+"=") + white.Render(fmt.Sprintf("%.4g", res.Metrics[name]))
		}
		b.WriteString("  " + strings.Join(parts, "  ") + "\n")
	}
	return b.String()
}

// ResonanceTable lists the components of a model configuration.
func ResonanceTable(cfg *config.Config) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  %s  %s\n", cyan.Render(cfg.Model),
		dim.Render(fmt.Sprintf("%s -> %s", cfg.Parent, strings.Join(cfg.Daughters, " ")))))
	b.WriteString(dimmer.Render("  "+strings.Repeat("─", 52)) + "\n")
	for _, r := range cfg.Resonances {
		pair := fmt.Sprintf("bach %d", r.Bachelor)
		if r.Propagator != "" {
			pair = "prop " + r.Propagator
		}
		b.WriteString(fmt.Sprintf("  %s %s %s %s\n",
			white.Render(fmt.Sprintf("%-16s", r.Name)),
			dim.Render(fmt.Sprintf("%-14s", r.Kind)),
			dim.Render(fmt.Sprintf("%-10s", pair)),
			magenta.Render(fmt.Sprintf("(%.3g, %.3g)", r.Coeff.Re, r.Coeff.Im))))
	}
	return b.String()
}
