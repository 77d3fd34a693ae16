// Package metrics derives portfolio-level aggregates for display.
// Everything here is a pure function recomputed from scratch on each
// call; the data sets are small and bounded, so incremental
// recomputation is not worth its complexity.
package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/sentinelops/sentinel/internal/risk"
)

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// PortfolioMetrics summarizes a risk portfolio.
type PortfolioMetrics struct {
	TotalRisks     int
	TotalControls  int
	AverageScore   float64 // 1 decimal, 0 for an empty portfolio
	BySeverity     map[risk.Severity]int
	ByCategory     map[string]int
	ControlsByType map[risk.ControlType]int
	ByCapability   map[string]int
	TestedControls int
}

// ComputePortfolio aggregates over the given risks.
func ComputePortfolio(risks []risk.Risk) PortfolioMetrics {
	m := PortfolioMetrics{
		BySeverity:     make(map[risk.Severity]int),
		ByCategory:     make(map[string]int),
		ControlsByType: make(map[risk.ControlType]int),
		ByCapability:   make(map[string]int),
	}
	if len(risks) == 0 {
		return m
	}

	total := 0
	for _, r := range risks {
		m.TotalRisks++
		total += r.Score
		m.BySeverity[r.Severity]++
		m.ByCategory[r.Category]++
		for _, c := range r.Controls {
			m.TotalControls++
			m.ControlsByType[c.Type]++
			m.ByCapability[c.Capability.String()]++
			if c.LastTested != nil {
				m.TestedControls++
			}
		}
	}
	m.AverageScore = round1(float64(total) / float64(m.TotalRisks))
	return m
}

// Contract is one contract-like record aggregated by the dashboard
// metrics below. Risk scores are on a 1-10 scale.
type Contract struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	ContractType   string    `json:"contractType"`
	GoverningLaw   string    `json:"governingLaw"`
	RiskScore      float64   `json:"riskScore"`
	ExpirationDate time.Time `json:"expirationDate"`
}

// TypeRisk is the average risk and count for one contract type.
type TypeRisk struct {
	Name    string
	AvgRisk float64
	Count   int
}

// NameCount is a label with an occurrence count.
type NameCount struct {
	Name  string
	Count int
}

// RiskDistribution buckets contracts into fixed risk tiers.
type RiskDistribution struct {
	Low    int // score <= 3
	Medium int // score <= 6
	High   int // score > 6
}

// ContractMetrics summarizes a contract portfolio.
type ContractMetrics struct {
	TotalContracts int
	AvgRiskScore   float64 // 1 decimal, 0 for empty
	ExpiringSoon   int
	RiskByType     []TypeRisk // sorted by average risk, highest first
	Distribution   RiskDistribution
	GoverningLaw   []NameCount // sorted by count, highest first
}

// ComputeContracts aggregates as of time.Now.
func ComputeContracts(contracts []Contract) ContractMetrics {
	return ComputeContractsAt(contracts, time.Now())
}

// ComputeContractsAt aggregates relative to the given "today". A
// contract counts as expiring soon when its expiration date is strictly
// after today and no later than today+90 days, at calendar-day
// granularity.
func ComputeContractsAt(contracts []Contract, today time.Time) ContractMetrics {
	var m ContractMetrics
	if len(contracts) == 0 {
		return m
	}

	day := dateOf(today)
	horizon := day.AddDate(0, 0, 90)

	total := 0.0
	byType := make(map[string]*TypeRisk)
	byLaw := make(map[string]int)
	for _, c := range contracts {
		m.TotalContracts++
		total += c.RiskScore

		exp := dateOf(c.ExpirationDate)
		if exp.After(day) && !exp.After(horizon) {
			m.ExpiringSoon++
		}

		tr := byType[c.ContractType]
		if tr == nil {
			tr = &TypeRisk{Name: c.ContractType}
			byType[c.ContractType] = tr
		}
		tr.AvgRisk += c.RiskScore
		tr.Count++

		switch {
		case c.RiskScore <= 3:
			m.Distribution.Low++
		case c.RiskScore <= 6:
			m.Distribution.Medium++
		default:
			m.Distribution.High++
		}

		byLaw[c.GoverningLaw]++
	}
	m.AvgRiskScore = round1(total / float64(m.TotalContracts))

	for _, tr := range byType {
		tr.AvgRisk = round1(tr.AvgRisk / float64(tr.Count))
		m.RiskByType = append(m.RiskByType, *tr)
	}
	sort.Slice(m.RiskByType, func(i, j int) bool {
		if m.RiskByType[i].AvgRisk != m.RiskByType[j].AvgRisk {
			return m.RiskByType[i].AvgRisk > m.RiskByType[j].AvgRisk
		}
		return m.RiskByType[i].Name < m.RiskByType[j].Name
	})

	for name, count := range byLaw {
		m.GoverningLaw = append(m.GoverningLaw, NameCount{Name: name, Count: count})
	}
	sort.Slice(m.GoverningLaw, func(i, j int) bool {
		if m.GoverningLaw[i].Count != m.GoverningLaw[j].Count {
			return m.GoverningLaw[i].Count > m.GoverningLaw[j].Count
		}
		return m.GoverningLaw[i].Name < m.GoverningLaw[j].Name
	})

	return m
}

func dateOf(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}
