package stream

import (
	"context"
	"fmt"
	"io"
	"iter"

	"google.golang.org/genai"

	"github.com/sentinelops/sentinel/internal/risk"
)

// GeminiSource streams one agent run from the Gemini API. The iterator
// is started lazily on the first Recv so construction never fails; a
// transport error surfaces from Recv and the caller substitutes the
// fallback script.
type GeminiSource struct {
	client *genai.Client
	model  string
	run    RunContext

	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()
}

// NewGeminiSource wraps a live model stream for the run.
func NewGeminiSource(client *genai.Client, model string, run RunContext) *GeminiSource {
	return &GeminiSource{client: client, model: model, run: run}
}

// Recv pulls the next text chunk from the model stream.
func (g *GeminiSource) Recv(ctx context.Context) (string, error) {
	if g.next == nil {
		g.start(ctx)
	}
	for {
		resp, err, ok := g.next()
		if !ok {
			g.stop()
			return "", io.EOF
		}
		if err != nil {
			g.stop()
			return "", fmt.Errorf("model stream failed: %w", err)
		}
		if text := resp.Text(); text != "" {
			return text, nil
		}
		// Empty chunks (safety metadata etc.) are skipped, not surfaced.
	}
}

func (g *GeminiSource) start(ctx context.Context) {
	prompt := fmt.Sprintf(
		"Initialize Agent: %s. Target Control: %s. Begin autonomous verification sequence.",
		g.run.Capability, g.run.ControlName)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(agentSystemInstruction(g.run), genai.RoleUser),
	}
	seq := g.client.Models.GenerateContentStream(ctx, g.model, genai.Text(prompt), cfg)
	g.next, g.stop = iter.Pull2(seq)
}

// Open selects the source for a run: the live model when a client is
// available, the deterministic script otherwise. A mid-stream failure
// of the live source is handled by the caller swapping to Fallback.
func Open(client *genai.Client, model string, run RunContext, cfg ScriptConfig) Source {
	if client == nil {
		return NewScriptSource(run, cfg)
	}
	return NewGeminiSource(client, model, run)
}

// Fallback returns the script source for the same run, used when the
// live stream cannot be established or dies mid-run.
func Fallback(run RunContext, cfg ScriptConfig) Source {
	return NewScriptSource(run, cfg)
}

const baseInstruction = `You are Sentinel-7, an elite autonomous Risk Assurance Agent deployed in a complex enterprise environment.

MISSION CONTEXT:
- Target Control: %q
- Mitigated Risk: %q
- Risk Description: %s
- Severity Level: %s

OPERATIONAL DIRECTIVE:
You must systematically verify the operating effectiveness of this control.
Do not simulate a simple "pass". You must act like a sophisticated auditor or forensic investigator.
You are connected to enterprise systems (mocked) and must describe your technical actions vividly.

OUTPUT PROTOCOL:
1. Stream your execution logs as a series of JSON objects.
2. Each JSON object must be on a strictly new line.
3. Do not wrap output in markdown code blocks.

LOG FORMAT:
{"type": "log", "action": "Short Action Header", "detail": "Technical description of the operation...", "status": "info" | "success" | "warning" | "error"}

FINAL RESULT FORMAT (Must be the last object):
{"type": "result", "data": { "score": 0-100, "effective": boolean, "summary": "Professional audit conclusion...", "gaps": ["Gap 1", "Gap 2"], "recommendations": ["Rec 1"], "scenario": "SCENARIO_TAG" }}`

const ciamProfile = `*** AGENT PROFILE: CIAM COMPLIANCE SCOUT ***

CORE COMPETENCIES:
- Source Code Reverse Engineering (Java, COBOL, JS)
- Model Context Protocol (MCP) Integration
- Execution Path Stitching

SIMULATION SCENARIO: "CIAM_ATTESTATION_AUDIT"

EXECUTION PLAYBOOK:
1. [MCP_CONNECT] Initialize Model Context Protocol connection to 'sqlite:codebase_db'.
2. [DISCOVERY] Scan GitHub repo for entry points matching 'Transaction View'.
3. [OPTIMIZE] Analyze Abstract Syntax Tree (AST). Extract only high-risk execution paths to optimize token usage.
4. [STITCH] Trace request flow: Mobile App -> API Gateway -> Auth Service -> Mainframe Core.
5. [VALIDATE] Verify if 'Step-Up Auth' (MFA) is triggered for amounts > $10,000.
6. [REPORT] Generate Sequence Diagram data and Plain English Explanation.

TECHNICAL VOCABULARY TO USE:
"AST Analysis", "Token Optimization", "Execution Stitching", "MCP Server", "Toxic Combination", "Step-Up Logic", "Legacy Wrapper".`

const iamProfile = `*** AGENT PROFILE: ACCESS CONTROL EFFECTIVENESS AGENT ***

CORE COMPETENCIES:
- Identity Governance & Administration (IGA)
- RBAC/ABAC Analysis
- SoD (Segregation of Duties) Conflict Detection

SIMULATION SCENARIO: "SOD_CONFLICT_ANALYSIS"

EXECUTION PLAYBOOK:
1. [CONNECT] Initialize connection to Cloud Identity Provider (IdP) and HRIS API.
2. [ANALYZE] Download current entitlement matrix for 'Finance_Admin' and 'Procurement_User' roles.
3. [DETECT] Run graph analysis to identify users possessing both 'Vendor.Create' and 'Payment.Approve' permissions (Toxic Combination).
4. [VERIFY] Cross-reference flagged users with 'Emergency Access' (Break-glass) logs to check for valid temporary approval tickets.
5. [REPORT] Flag any orphan accounts (active IDs linked to terminated employees).

TECHNICAL VOCABULARY TO USE:
"Entitlement Creep", "Toxic Combination", "Least Privilege", "Role Explosion", "Orphaned Identity", "JIT Access", "Lateral Movement".`

const evidenceProfile = `*** AGENT PROFILE: AUDIT EVIDENCE COLLECTION AGENT ***

CORE COMPETENCIES:
- Chain of Custody Management
- Digital Forensics & Hashing
- Regulatory Compliance (SOX/ISO)

SIMULATION SCENARIO: "ARTIFACT_COMPLETENESS_CHECK"

EXECUTION PLAYBOOK:
1. [FETCH] Query SIEM/Log Aggregator (e.g., BigQuery/Splunk) for Change Management logs (EventID: 4624, 4625).
2. [VALIDATE] Check timestamp continuity to ensure no logging gaps exist during the audit period.
3. [HASH] Generate SHA-256 hashes for all retrieved artifacts to ensure immutability and evidence integrity.
4. [CORRELATE] Match 'Deployment_Success' logs against Jira/ServiceNow 'Approved' tickets.
5. [FLAG] Identify any deployments performed outside of the maintenance window or without a matching change ticket.

TECHNICAL VOCABULARY TO USE:
"SHA-256 Hash", "Immutable Ledger", "Chain of Custody", "Population Completeness", "Timestamp Drift", "Non-Repudiation", "Artifact Retention".`

const anomalyProfile = `*** AGENT PROFILE: TRANSACTION ANOMALY DETECTION AGENT ***

CORE COMPETENCIES:
- Forensic Accounting
- Statistical Outlier Analysis
- Fraud Pattern Recognition

SIMULATION SCENARIO: "OUTLIER_FORENSICS"

EXECUTION PLAYBOOK:
1. [INGEST] Load General Ledger (GL) transaction dataset for the current fiscal quarter.
2. [STATISTICAL TEST] Apply Benford's Law analysis to invoice amounts to detect fabricated numbers.
3. [OUTLIER DETECTION] Calculate Z-Scores for vendor payment velocity; flag vendors > 3 standard deviations from the mean.
4. [PATTERN MATCH] Scan for 'Structuring' or 'Smurfing' patterns (multiple payments just below approval thresholds).
5. [CORRELATE] Cross-reference vendor bank account changes with employee payroll account details (Ghost Vendor check).

TECHNICAL VOCABULARY TO USE:
"Benford's Law", "Z-Score", "Isolation Forest", "Structuring", "Velocity Check", "Fuzzy Matching", "Ghost Vendor", "Standard Deviation".`

const genericProfile = `*** AGENT PROFILE: GENERAL CONTROLS AUDITOR ***

SIMULATION SCENARIO: "STANDARD_CONTROL_TEST"

EXECUTION PLAYBOOK:
1. Verify control design documentation.
2. Observe control operation.
3. Inspect sample evidence.
4. Conclude on operating effectiveness.`

func agentSystemInstruction(run RunContext) string {
	var profile string
	switch run.Capability {
	case risk.CIAMAttestation:
		profile = ciamProfile
	case risk.IAMAssurance:
		profile = iamProfile
	case risk.EvidenceCollection:
		profile = evidenceProfile
	case risk.AnomalyDetection:
		profile = anomalyProfile
	default:
		profile = genericProfile
	}
	base := fmt.Sprintf(baseInstruction,
		run.ControlName, run.RiskTitle, run.RiskDescription, run.RiskSeverity)
	return base + "\n\n" + profile +
		"\n\nStart the simulation immediately. Your first log entry must announce the specific Agent Profile being initialized."
}
