// Package risk defines the risk and control portfolio model.
package risk

import (
	"fmt"
	"sync"
	"time"
)

// Severity classifies how damaging a risk is if left untreated.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// Valid reports whether s is one of the known severity levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// ControlType classifies when a control acts relative to a risk event.
type ControlType string

const (
	ControlPreventative ControlType = "Preventative"
	ControlDetective    ControlType = "Detective"
	ControlCorrective   ControlType = "Corrective"
)

// Control is a defined verification activity mitigating a Risk.
// Immutable after creation except for the LastTested stamp.
type Control struct {
	ID                string      `json:"id" toml:"id"`
	Name              string      `json:"name" toml:"name"`
	Description       string      `json:"description" toml:"description"`
	Type              ControlType `json:"type" toml:"type"`
	Capability        Capability  `json:"agentCapability" toml:"capability"`
	FrameworkMappings []string    `json:"frameworkMappings" toml:"framework_mappings"`
	LastTested        *time.Time  `json:"lastTested,omitempty" toml:"-"`
}

// Risk is one organizational risk and the controls that mitigate it.
type Risk struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	Category    string    `json:"category"`
	Score       int       `json:"scoring"` // 0-100
	Controls    []Control `json:"controls"`
}

// Portfolio holds the in-session risk collection. Risks and controls are
// only ever appended; nothing is deleted while a session is live.
type Portfolio struct {
	mu    sync.RWMutex
	risks []Risk
}

// NewPortfolio creates a portfolio seeded with the given risks.
func NewPortfolio(risks []Risk) *Portfolio {
	p := &Portfolio{}
	p.risks = append(p.risks, risks...)
	return p
}

// Risks returns a snapshot of the current risk list.
func (p *Portfolio) Risks() []Risk {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Risk, len(p.risks))
	copy(out, p.risks)
	return out
}

// AddRisk appends a new risk to the portfolio.
func (p *Portfolio) AddRisk(r Risk) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.risks = append(p.risks, r)
}

// AddControl appends a control to the risk with the given id.
func (p *Portfolio) AddControl(riskID string, c Control) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.risks {
		if p.risks[i].ID == riskID {
			p.risks[i].Controls = append(p.risks[i].Controls, c)
			return nil
		}
	}
	return fmt.Errorf("unknown risk %q", riskID)
}

// FindControl locates a control by id along with its owning risk.
func (p *Portfolio) FindControl(controlID string) (Risk, Control, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, r := range p.risks {
		for _, c := range r.Controls {
			if c.ID == controlID {
				return r, c, true
			}
		}
	}
	return Risk{}, Control{}, false
}

// MarkTested stamps the control's LastTested time after a completed run.
func (p *Portfolio) MarkTested(controlID string, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.risks {
		for j := range p.risks[i].Controls {
			if p.risks[i].Controls[j].ID == controlID {
				t := at
				p.risks[i].Controls[j].LastTested = &t
				return
			}
		}
	}
}
