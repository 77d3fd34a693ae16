package main

import (
	"strings"
	"testing"

	"github.com/sentinelops/sentinel/internal/risk"
)

func TestKnownControls_ListsFallbackControls(t *testing.T) {
	p := risk.NewPortfolio(risk.FallbackRisks())
	got := knownControls(p)
	for _, id := range []string{"c-1", "c-2", "c-3"} {
		if !strings.Contains(got, id) {
			t.Errorf("missing %s in %q", id, got)
		}
	}
}

func TestFallbackPortfolio_ControlLookup(t *testing.T) {
	p := risk.NewPortfolio(risk.FallbackRisks())
	rk, ctl, ok := p.FindControl("c-2")
	if !ok {
		t.Fatal("c-2 not found")
	}
	if rk.ID != "r-2" {
		t.Errorf("wrong owning risk %s", rk.ID)
	}
	if ctl.Capability != risk.EvidenceCollection {
		t.Errorf("wrong capability %s", ctl.Capability)
	}
}
