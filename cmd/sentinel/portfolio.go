package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/sentinelops/sentinel/internal/metrics"
	"github.com/sentinelops/sentinel/internal/risk"
)

var severityStyles = map[risk.Severity]lipgloss.Style{
	risk.SeverityLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	risk.SeverityMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	risk.SeverityHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	risk.SeverityCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
}

// Run implements the portfolio command.
func (c *PortfolioCmd) Run(app *appContext) error {
	ctx := context.Background()
	client := newModelClient(ctx, app, c.Offline)
	portfolio := loadPortfolio(ctx, app, client, c.Domain)
	risks := portfolio.Risks()

	for _, rk := range risks {
		sev := severityStyles[rk.Severity].Render(string(rk.Severity))
		fmt.Printf("%s  %s [%s, score %d, %s]\n", rk.ID, rk.Title, sev, rk.Score, rk.Category)
		fmt.Printf("    %s\n", rk.Description)
		for _, ctl := range rk.Controls {
			fmt.Printf("    %s  %s (%s, %s)\n", ctl.ID, ctl.Name, ctl.Type, ctl.Capability)
			if len(ctl.FrameworkMappings) > 0 {
				fmt.Printf("        frameworks: %v\n", ctl.FrameworkMappings)
			}
		}
		fmt.Println()
	}

	m := metrics.ComputePortfolio(risks)
	fmt.Printf("Risks: %d  Controls: %d  Avg score: %.1f  Tested: %d/%d\n",
		m.TotalRisks, m.TotalControls, m.AverageScore, m.TestedControls, m.TotalControls)
	for sev, count := range m.BySeverity {
		fmt.Printf("  %s: %d\n", sev, count)
	}
	return nil
}
