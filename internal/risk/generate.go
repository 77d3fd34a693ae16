package risk

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// generatePrompt guides the model toward risks that line up with the
// builtin agent profiles.
const generatePrompt = `Generate 3 high-fidelity organizational risks for a Modern Enterprise (%s).

Output a strictly valid JSON array of objects. Do not wrap in markdown code blocks.
Structure:
[
  {
    "id": "string",
    "title": "string",
    "description": "string",
    "severity": "Low" | "Medium" | "High" | "Critical",
    "category": "string",
    "scoring": number (0-100),
    "controls": [
      {
        "id": "string",
        "name": "string",
        "description": "string",
        "type": "Preventative" | "Detective" | "Corrective",
        "agentCapability": "IAM_ASSURANCE" | "EVIDENCE_COLLECTION" | "ANOMALY_DETECTION" | "GENERIC_AUDIT",
        "frameworkMappings": ["string"]
      }
    ]
  }
]

Required Risks:
1. Security Risk related to 'Excessive Privileged Access' or 'Toxic Combinations' (mapped to IAM_ASSURANCE agent).
2. Compliance Risk related to 'Missing Audit Evidence' or 'Regulatory Reporting' (mapped to EVIDENCE_COLLECTION agent).
3. Financial Risk related to 'Fraudulent Disbursements' or 'General Ledger Anomalies' (mapped to ANOMALY_DETECTION agent).

For each risk, provide a specific control and mapping to frameworks (SOX, ISO 27001, COSO).`

// Generate asks the model for an initial risk portfolio for the given
// business domain. Any failure (no client, transport error, unparseable
// response) degrades to the static fallback portfolio so startup never
// depends on network access.
func Generate(ctx context.Context, client *genai.Client, model, domain string) []Risk {
	if client == nil {
		return FallbackRisks()
	}

	resp, err := client.Models.GenerateContent(ctx, model,
		genai.Text(fmt.Sprintf(generatePrompt, domain)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return FallbackRisks()
	}

	var risks []Risk
	if err := json.Unmarshal([]byte(resp.Text()), &risks); err != nil || len(risks) == 0 {
		return FallbackRisks()
	}
	for i := range risks {
		if !risks[i].Severity.Valid() {
			risks[i].Severity = SeverityMedium
		}
	}
	return risks
}

// FallbackRisks returns the static portfolio used when generation is
// unavailable, tailored to the builtin agent profiles.
func FallbackRisks() []Risk {
	return []Risk{
		{
			ID:          "r-1",
			Title:       "Toxic Access Combinations (SoD)",
			Description: "Risk of users holding conflicting permissions (e.g., create vendor + pay vendor) leading to fraud.",
			Severity:    SeverityCritical,
			Category:    "Identity & Access",
			Score:       95,
			Controls: []Control{
				{
					ID:                "c-1",
					Name:              "Continuous SoD Analysis",
					Description:       "Automated verification of conflicting roles across ERP and Identity Provider.",
					Type:              ControlDetective,
					Capability:        IAMAssurance,
					FrameworkMappings: []string{"COSO Principle 11", "SOX ITGC: Logical Access", "ISO 27001: A.9.2"},
				},
			},
		},
		{
			ID:          "r-2",
			Title:       "Incomplete Audit Trails (SOX)",
			Description: "Risk that required evidence for change management is not retained, leading to regulatory findings.",
			Severity:    SeverityHigh,
			Category:    "Compliance",
			Score:       88,
			Controls: []Control{
				{
					ID:                "c-2",
					Name:              "Automated Evidence Repository",
					Description:       "Systematic collection and hashing of approval logs for all production deployments.",
					Type:              ControlPreventative,
					Capability:        EvidenceCollection,
					FrameworkMappings: []string{"SOX Sec 404", "ISO 27001: A.12.4", "COSO Principle 10"},
				},
			},
		},
		{
			ID:          "r-3",
			Title:       "Procurement Fraud Patterns",
			Description: "Risk of anomalous payments to shell vendors or duplicate invoices bypassing standard checks.",
			Severity:    SeverityCritical,
			Category:    "Financial Crime",
			Score:       92,
			Controls: []Control{
				{
					ID:                "c-3",
					Name:              "AI Transaction Forensics",
					Description:       "Real-time statistical anomaly detection on outgoing wire transfers and vendor master updates.",
					Type:              ControlDetective,
					Capability:        AnomalyDetection,
					FrameworkMappings: []string{"COSO Principle 8", "SOX Sec 302", "ISO 27001: A.16.1"},
				},
			},
		},
	}
}
