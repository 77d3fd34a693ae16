package risk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CapabilityDefinition describes one agent profile in the catalog.
type CapabilityDefinition struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// builtinCatalog lists the agent profiles shipped with sentinel.
var builtinCatalog = []CapabilityDefinition{
	{
		ID:          nameGenericAudit,
		Name:        "General Auditor",
		Description: "Standard control verification logic for general purpose auditing.",
	},
	{
		ID:          nameIAMAssurance,
		Name:        "IAM Specialist",
		Description: "Analyzes identity graphs, toxic combinations, and segregation of duties.",
	},
	{
		ID:          nameEvidenceCollection,
		Name:        "Evidence Collector",
		Description: "Automates log retrieval, hashing, and chain-of-custody preservation.",
	},
	{
		ID:          nameAnomalyDetection,
		Name:        "Anomaly Detector",
		Description: "Statistical analysis for fraud detection using Benford's Law and Z-Scores.",
	},
	{
		ID:          nameCIAMAttestation,
		Name:        "CIAM Scout",
		Description: "Source code analysis to map business logic to authentication flows.",
	},
}

// Catalog holds the known capability definitions, builtin plus custom.
type Catalog struct {
	defs []CapabilityDefinition
}

// NewCatalog returns a catalog with the builtin profiles.
func NewCatalog() *Catalog {
	c := &Catalog{}
	c.defs = append(c.defs, builtinCatalog...)
	return c
}

// Definitions returns all definitions in registration order.
func (c *Catalog) Definitions() []CapabilityDefinition {
	out := make([]CapabilityDefinition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Lookup finds a definition by capability tag.
func (c *Catalog) Lookup(cap Capability) (CapabilityDefinition, bool) {
	id := cap.String()
	for _, d := range c.defs {
		if d.ID == id {
			return d, true
		}
	}
	return CapabilityDefinition{}, false
}

// LoadCustom merges user-defined capability definitions from a YAML file.
// The file is a list of {id, name, description} entries. Entries that
// shadow a builtin id are rejected.
func (c *Catalog) LoadCustom(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read capability file: %w", err)
	}

	var custom []CapabilityDefinition
	if err := yaml.Unmarshal(data, &custom); err != nil {
		return fmt.Errorf("invalid capability file: %w", err)
	}

	for _, d := range custom {
		if d.ID == "" {
			return fmt.Errorf("capability entry missing id")
		}
		if ParseCapability(d.ID).Kind() != CapCustom {
			return fmt.Errorf("capability %q shadows a builtin profile", d.ID)
		}
		if d.Name == "" {
			d.Name = d.ID
		}
		c.defs = append(c.defs, d)
	}
	return nil
}
