package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/proboscis/claude-block-checker/internal/blocks"
)

// Options controls the human-readable report.
type Options struct {
	// Detailed adds burn rate, time to limit and projections.
	Detailed bool
	// Header prints the report title, time and profile count.
	Header bool
}

type styles struct {
	title   lipgloss.Style
	profile lipgloss.Style
	bold    lipgloss.Style
	active  lipgloss.Style
	idle    lipgloss.Style
	err     lipgloss.Style
	accent  lipgloss.Style
	bands   map[blocks.Band]lipgloss.Style
}

// newStyles binds styles to w so colour is only emitted on terminals.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	green := r.NewStyle().Foreground(lipgloss.Color("#10B981"))
	yellow := r.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	red := r.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981")),
		profile: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#3B82F6")),
		bold:    r.NewStyle().Bold(true),
		active:  green,
		idle:    yellow,
		err:     red,
		accent:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4")),
		bands: map[blocks.Band]lipgloss.Style{
			blocks.BandAmple:    green,
			blocks.BandWarning:  yellow,
			blocks.BandCritical: red,
			blocks.BandUnknown:  r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		},
	}
}

// BandStyle returns the colour used for a band on w.
func BandStyle(w io.Writer, band blocks.Band) lipgloss.Style {
	return newStyles(w).bands[band]
}

// RenderText writes the human-readable report for a summary.
func RenderText(w io.Writer, s blocks.SummaryReport, opts Options) error {
	st := newStyles(w)
	var b strings.Builder

	if opts.Header {
		fmt.Fprintln(&b, st.title.Render("Claude Code Usage - Current Block Report"))
		fmt.Fprintf(&b, "Time: %s\n", FormatTime(s.GeneratedAt))
		fmt.Fprintf(&b, "Found %d profiles\n\n", s.TotalProfiles)
	}
	for _, p := range s.Profiles {
		writeProfile(&b, st, p, s, opts)
	}
	writeSummary(&b, st, s)

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderProfile writes the section for a single profile.
func RenderProfile(w io.Writer, p blocks.ProfileReport, s blocks.SummaryReport, opts Options) error {
	var b strings.Builder
	writeProfile(&b, newStyles(w), p, s, opts)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeProfile(b *strings.Builder, st styles, p blocks.ProfileReport, s blocks.SummaryReport, opts Options) {
	fmt.Fprintln(b, st.profile.Render("━━━ Profile: "+p.Name))

	if p.SourceError != "" {
		fmt.Fprintf(b, "  %s\n\n", st.err.Render("(Error: "+p.SourceError+")"))
		return
	}
	for _, warning := range p.Warnings {
		fmt.Fprintf(b, "  %s %s\n", st.idle.Render("!"), warning)
	}
	if opts.Detailed {
		fmt.Fprintf(b, "  Blocks: %d, skipped records: %d\n", p.BlockCount, p.SkippedRecords)
	}

	a := p.Active
	if a == nil {
		fmt.Fprintf(b, "  %s\n\n", st.idle.Render("No active block"))
		return
	}

	fmt.Fprintf(b, "  %s Active Block\n", st.active.Render("●"))
	fmt.Fprintf(b, "  Started: %s\n", FormatTime(a.Block.StartTime))
	if remaining := a.Block.EndTime.Sub(s.GeneratedAt); remaining > 0 {
		fmt.Fprintf(b, "  Remaining: %s\n", FormatDuration(remaining))
	} else {
		fmt.Fprintf(b, "  Status: %s\n", st.idle.Render("Expired"))
	}
	if len(a.Usage.Models) > 0 {
		fmt.Fprintf(b, "  Models: %s\n", strings.Join(a.Usage.Models, ", "))
	}

	u := a.Usage
	fmt.Fprintf(b, "\n  %s:\n", st.bold.Render("Token Usage"))
	fmt.Fprintf(b, "    Input:  %s\n", FormatTokens(u.InputTokens))
	fmt.Fprintf(b, "    Output: %s\n", FormatTokens(u.OutputTokens))
	if u.CacheWriteTokens > 0 {
		fmt.Fprintf(b, "    Cache+: %s\n", FormatTokens(u.CacheWriteTokens))
	}
	if u.CacheReadTokens > 0 {
		fmt.Fprintf(b, "    Cache-: %s\n", FormatTokens(u.CacheReadTokens))
	}
	fmt.Fprintf(b, "    %s: %s\n", st.bold.Render("Total"), FormatTokens(u.TotalTokens))
	fmt.Fprintf(b, "\n  %s: $%.6f\n", st.bold.Render("Cost"), u.TotalCost)

	if opts.Detailed {
		writeProjection(b, st, a.Projection)
	}
	fmt.Fprintln(b)
}

func writeProjection(b *strings.Builder, st styles, p blocks.Projection) {
	fmt.Fprintf(b, "\n  %s:\n", st.bold.Render("Burn Rate"))
	fmt.Fprintf(b, "    %s tokens/min\n", FormatTokens(int64(p.TokensPerMinute)))
	fmt.Fprintf(b, "    $%.4f/hour\n", p.CostPerHour)
	fmt.Fprintf(b, "    over %s elapsed\n", FormatDuration(minutes(p.ElapsedMinutes)))

	fmt.Fprintf(b, "\n  %s:\n", st.bold.Render("Time Until Limit"))
	if p.TimeToLimit != nil {
		fmt.Fprintf(b, "    %s\n", st.bands[p.Band].Render(FormatDuration(*p.TimeToLimit)))
	} else {
		fmt.Fprintf(b, "    %s\n", st.bands[blocks.BandUnknown].Render("unknown"))
	}
	fmt.Fprintf(b, "    (%.1f%% of limit used)\n", p.PercentOfLimitUsed)

	fmt.Fprintf(b, "\n  %s:\n", st.bold.Render("Projected (full block)"))
	fmt.Fprintf(b, "    Tokens: %s\n", FormatTokens(int64(p.ProjectedTotalTokens)))
	fmt.Fprintf(b, "    Cost:   $%.4f\n", p.ProjectedCost)
}

func writeSummary(b *strings.Builder, st styles, s blocks.SummaryReport) {
	fmt.Fprintln(b, st.title.Render("━━━ Summary ━━━"))
	fmt.Fprintf(b, "Active profiles: %d/%d\n", s.ActiveProfiles, s.TotalProfiles)
	if s.ActiveProfiles == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s\n", st.bold.Render("Aggregate Totals:"))
	fmt.Fprintf(b, "  Total Tokens: %s\n", FormatTokens(s.TotalTokens))
	fmt.Fprintf(b, "  Total Cost:   $%.4f\n", s.TotalCost)

	if s.Recommended != nil {
		fmt.Fprintf(b, "\n%s\n", st.accent.Render("Recommended Profile:"))
		fmt.Fprintf(b, "  %s\n", RecommendationLine(s.Recommended))
	}
}

// RecommendationLine renders "name → Xh Ym until limit".
func RecommendationLine(r *blocks.Recommendation) string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%s → %s until limit", r.Name, FormatDuration(r.TimeToLimit))
}
