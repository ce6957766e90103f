package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lorekeep/canon/internal/domain"
)

// RenderReport formats an already-computed ContinuityState as a markdown
// rollup: canon summary, conflicts by severity, least stable drift first.
// Pure string formatting; never feeds back into scoring.
func RenderReport(state domain.ContinuityState) string {
	var b strings.Builder

	b.WriteString("# Canon Summary\n")
	if len(state.Registry.Facts) == 0 {
		b.WriteString("- No canonical facts yet.\n")
	}
	for _, fact := range state.Registry.Facts {
		fmt.Fprintf(&b, "- **%s::%s** = %q (conf=%.2f, scope=%s)\n",
			fact.Subject, fact.Attribute, fact.Value.String(), fact.Confidence, fact.Scope)
	}

	b.WriteString("\n# Conflicts Report\n")
	if len(state.Conflicts) == 0 {
		b.WriteString("- No conflicts detected.\n")
	}
	conflicts := make([]domain.ContinuityConflict, len(state.Conflicts))
	copy(conflicts, state.Conflicts)
	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].Severity.Weight() > conflicts[j].Severity.Weight()
	})
	for _, conflict := range conflicts {
		fmt.Fprintf(&b, "- [%s] %s (severity: %s)\n",
			strings.ToUpper(string(conflict.Type)), conflict.Description, conflict.Severity)
	}

	b.WriteString("\n# Drift Maps\n")
	if len(state.DriftSignals) == 0 {
		b.WriteString("- No drift detected.\n")
	}
	signals := make([]domain.DriftSignal, len(state.DriftSignals))
	copy(signals, state.DriftSignals)
	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].DriftScore > signals[j].DriftScore
	})
	for _, signal := range signals {
		fmt.Fprintf(&b, "- %s::%s drift=%.2f segments=[%s] %s\n",
			signal.Subject, signal.Attribute, signal.DriftScore,
			strings.Join(signal.Segments, ", "), signal.Notes)
	}

	b.WriteString("\n# Continuity Score\n")
	fmt.Fprintf(&b, "- %.1f/100\n", state.Score)

	return b.String()
}
