package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/sentinelops/sentinel/internal/events"
	"github.com/sentinelops/sentinel/internal/risk"
	"github.com/sentinelops/sentinel/internal/runner"
	"github.com/sentinelops/sentinel/internal/session"
)

var (
	statusGlyphs = map[string]string{
		session.LogInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Render("●"),
		session.LogSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("✔"),
		session.LogWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Render("▲"),
		session.LogError:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("✗"),
	}

	runActionStyle = lipgloss.NewStyle().Bold(true)
	runDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Run implements the run command.
func (c *RunCmd) Run(app *appContext) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := newModelClient(ctx, app, c.Offline)
	portfolio := loadPortfolio(ctx, app, client, c.Domain)

	rk, ctl, ok := portfolio.FindControl(c.Control)
	if !ok {
		return fmt.Errorf("unknown control %q (known: %s)", c.Control, knownControls(portfolio))
	}

	store, err := session.NewStore(app.cfg.SessionDir())
	if err != nil {
		return err
	}

	var pub events.Publisher = events.NoopPublisher{}
	if app.cfg.Events.Enabled {
		nats, err := events.Connect(app.cfg.Events.URL, app.cfg.Events.SubjectPrefix)
		if err != nil {
			app.log.Warn("event bus unavailable", zap.Error(err))
		} else {
			pub = nats
			defer pub.Close()
		}
	}

	fmt.Printf("Deploying %s agent against %s (%s)\n",
		ctl.Capability, ctl.Name, runDimStyle.Render("^C cancels"))
	fmt.Println()

	r := runner.New(app.cfg, session.NewTracker(), store, pub, app.log, client)
	final, err := r.Run(ctx, rk, ctl, runner.Callbacks{
		OnLog: func(e session.LogEntry) {
			glyph := statusGlyphs[e.Status]
			if glyph == "" {
				glyph = statusGlyphs[session.LogInfo]
			}
			fmt.Printf("  %s %s %s %s\n",
				runDimStyle.Render(e.Timestamp), glyph,
				runActionStyle.Render(e.Action), e.Detail)
		},
		OnStatus: func(s session.Status) {
			fmt.Printf("%s %s\n", runDimStyle.Render("status:"), s)
		},
	})
	if err != nil {
		return err
	}

	fmt.Println()
	printOutcome(final)
	fmt.Printf("\nSession saved: %s\n", store.Path(final.RunID))
	return nil
}

func printOutcome(sess *session.Session) {
	if sess.Result == nil {
		fmt.Printf("Run ended %s with no result.\n", sess.Status)
		return
	}
	res := sess.Result
	verdict := "INEFFECTIVE"
	if res.Effective {
		verdict = "EFFECTIVE"
	}
	fmt.Printf("Verdict: %s (score %d/100, %dms)\n", verdict, res.Score, res.DurationMs)
	fmt.Println(res.Summary)
	for _, gap := range res.Gaps {
		fmt.Printf("  gap: %s\n", gap)
	}
	for _, rec := range res.Recommendations {
		fmt.Printf("  fix: %s\n", rec)
	}
}

// newModelClient dials Gemini when a key is configured. A nil return
// routes the run through the offline script.
func newModelClient(ctx context.Context, app *appContext, offline bool) *genai.Client {
	if offline {
		return nil
	}
	apiKey := app.cfg.GetAPIKey()
	if apiKey == "" {
		app.log.Info("no API key configured, running offline")
		return nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		app.log.Warn("model client unavailable, running offline", zap.Error(err))
		return nil
	}
	return client
}

func loadPortfolio(ctx context.Context, app *appContext, client *genai.Client, domain string) *risk.Portfolio {
	return risk.NewPortfolio(risk.Generate(ctx, client, app.cfg.LLM.Model, domain))
}

func knownControls(p *risk.Portfolio) string {
	var ids []string
	for _, rk := range p.Risks() {
		for _, ctl := range rk.Controls {
			ids = append(ids, ctl.ID)
		}
	}
	return strings.Join(ids, ", ")
}
