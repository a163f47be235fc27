package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/proboscis/claude-block-checker/internal/blocks"
	"github.com/proboscis/claude-block-checker/internal/report"
)

const barWidth = 30

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch {
	case !m.hasData && m.err != nil:
		b.WriteString(statusErrorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	case !m.hasData:
		b.WriteString(dimStyle.Render("Loading..."))
		b.WriteString("\n")
	default:
		recommended := ""
		if m.summary.Recommended != nil {
			recommended = m.summary.Recommended.Name
		}
		for _, p := range m.summary.Profiles {
			b.WriteString(m.renderProfile(p, p.Name == recommended))
			b.WriteString("\n")
		}
		b.WriteString(m.renderSummary())
		if m.err != nil {
			b.WriteString("\n")
			b.WriteString(statusErrorStyle.Render("Last refresh failed: " + m.err.Error()))
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(keys)))
	return appStyle.Render(b.String())
}

func (m Model) renderHeader() string {
	title := titleStyle.Render(" ◷ claude-block-checker ")
	status := ""
	switch {
	case m.loading:
		status = dimStyle.Render("refreshing…")
	case m.hasData:
		status = dimStyle.Render("updated " + report.FormatTime(m.summary.GeneratedAt))
	}
	mode := ""
	if m.detailed {
		mode = statusOkStyle.Render(" [detail]")
	}
	return fmt.Sprintf("%s  %s%s", title, status, mode)
}

func (m Model) renderProfile(p blocks.ProfileReport, recommended bool) string {
	var b strings.Builder

	name := profileNameStyle.Render(p.Name)
	if recommended {
		name += statusOkStyle.Render("  ★ recommended")
	}
	b.WriteString(name)
	b.WriteString("\n")

	style := cardStyle
	if recommended {
		style = recommendedCardStyle
	}

	if p.SourceError != "" {
		b.WriteString(statusErrorStyle.Render("Error: " + p.SourceError))
		return style.Render(b.String())
	}
	a := p.Active
	if a == nil {
		b.WriteString(dimStyle.Render("No active block"))
		return style.Render(b.String())
	}

	u := a.Usage
	pr := a.Projection
	remaining := a.Block.EndTime.Sub(m.summary.GeneratedAt)

	b.WriteString(renderBar(pr.PercentOfLimitUsed))
	b.WriteString(dimStyle.Render(fmt.Sprintf(" %5.1f%%", pr.PercentOfLimitUsed)))
	b.WriteString("\n")

	b.WriteString(field("Tokens", report.FormatTokens(u.TotalTokens)+dimStyle.Render(" / "+report.FormatTokens(m.opts.TokenLimit))))
	b.WriteString(field("Cost", formatCost(u.TotalCost)))
	b.WriteString(field("Block", report.FormatTime(a.Block.StartTime)+dimStyle.Render(" · "+report.FormatDuration(remaining)+" left")))

	ttl := bandStyle(pr.Band).Render("unknown")
	if pr.TimeToLimit != nil {
		ttl = bandStyle(pr.Band).Render(report.FormatDuration(*pr.TimeToLimit))
	}
	b.WriteString(field("Until limit", ttl))

	if m.detailed {
		b.WriteString(field("Burn rate", fmt.Sprintf("%s tok/min  %s/h",
			report.FormatTokens(int64(pr.TokensPerMinute)), formatCost(pr.CostPerHour))))
		b.WriteString(field("Projected", fmt.Sprintf("%s tokens  %s",
			report.FormatTokens(int64(pr.ProjectedTotalTokens)), formatCost(pr.ProjectedCost))))
		models := make([]string, 0, len(u.Models))
		for _, model := range u.Models {
			models = append(models, shortenModel(model))
		}
		b.WriteString(field("Models", strings.Join(models, ", ")))
		for _, w := range p.Warnings {
			b.WriteString(statusWarnStyle.Render("! "+w) + "\n")
		}
	}
	return style.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderSummary() string {
	s := m.summary
	line := fmt.Sprintf("Active %d/%d  ·  %s tokens  ·  %s",
		s.ActiveProfiles, s.TotalProfiles, report.FormatTokens(s.TotalTokens), formatCost(s.TotalCost))
	out := valueStyle.Render(line)
	if s.Recommended != nil {
		out += "\n" + labelStyle.Render("Use: ") + statusOkStyle.Render(report.RecommendationLine(s.Recommended))
	}
	return out
}

func field(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Width(13).Render(label),
		valueStyle.Render(value),
	) + "\n"
}

func renderBar(percent float64) string {
	ratio := math.Max(0, math.Min(1, percent/100))
	filled := int(math.Round(ratio * barWidth))
	style := barFilledStyle
	if ratio >= 0.9 {
		style = statusErrorStyle
	}
	return style.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", barWidth-filled))
}

func formatCost(cost float64) string {
	if cost < 0.01 {
		return fmt.Sprintf("$%.4f", cost)
	}
	return fmt.Sprintf("$%.2f", cost)
}

func shortenModel(model string) string {
	replacements := []struct{ prefix, short string }{
		{"claude-3-5-sonnet-", "sonnet-3.5-"},
		{"claude-3-5-haiku-", "haiku-3.5-"},
		{"claude-3-7-sonnet-", "sonnet-3.7-"},
		{"claude-3-opus-", "opus-3-"},
		{"claude-opus-", "opus-"},
		{"claude-sonnet-", "sonnet-"},
		{"claude-haiku-", "haiku-"},
	}
	for _, r := range replacements {
		if strings.HasPrefix(model, r.prefix) {
			return r.short + model[len(r.prefix):]
		}
	}
	return model
}
