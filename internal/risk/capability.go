package risk

// Capability identifies which behavioral profile a deployed agent follows.
// The built-in profiles are a closed set; user-defined profiles are carried
// as a custom variant so switches over Kind stay exhaustive.
type Capability struct {
	kind   CapabilityKind
	custom string
}

// CapabilityKind discriminates the capability variants.
type CapabilityKind int

const (
	CapGenericAudit CapabilityKind = iota
	CapIAMAssurance
	CapEvidenceCollection
	CapAnomalyDetection
	CapCIAMAttestation
	CapCustom
)

// Wire names of the built-in capabilities.
const (
	nameGenericAudit       = "GENERIC_AUDIT"
	nameIAMAssurance       = "IAM_ASSURANCE"
	nameEvidenceCollection = "EVIDENCE_COLLECTION"
	nameAnomalyDetection   = "ANOMALY_DETECTION"
	nameCIAMAttestation    = "CIAM_ATTESTATION"
)

// Builtin capability values.
var (
	GenericAudit       = Capability{kind: CapGenericAudit}
	IAMAssurance       = Capability{kind: CapIAMAssurance}
	EvidenceCollection = Capability{kind: CapEvidenceCollection}
	AnomalyDetection   = Capability{kind: CapAnomalyDetection}
	CIAMAttestation    = Capability{kind: CapCIAMAttestation}
)

// CustomCapability wraps a user-defined capability tag.
func CustomCapability(tag string) Capability {
	return Capability{kind: CapCustom, custom: tag}
}

// ParseCapability maps a wire tag to a capability. Unknown tags become the
// custom variant rather than an error, matching the open tag set accepted
// by the upstream protocol.
func ParseCapability(tag string) Capability {
	switch tag {
	case nameGenericAudit, "":
		return GenericAudit
	case nameIAMAssurance:
		return IAMAssurance
	case nameEvidenceCollection:
		return EvidenceCollection
	case nameAnomalyDetection:
		return AnomalyDetection
	case nameCIAMAttestation:
		return CIAMAttestation
	default:
		return CustomCapability(tag)
	}
}

// Kind returns the variant discriminator.
func (c Capability) Kind() CapabilityKind { return c.kind }

// String returns the wire tag.
func (c Capability) String() string {
	switch c.kind {
	case CapIAMAssurance:
		return nameIAMAssurance
	case CapEvidenceCollection:
		return nameEvidenceCollection
	case CapAnomalyDetection:
		return nameAnomalyDetection
	case CapCIAMAttestation:
		return nameCIAMAttestation
	case CapCustom:
		return c.custom
	default:
		return nameGenericAudit
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Capability) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Capability) UnmarshalText(text []byte) error {
	*c = ParseCapability(string(text))
	return nil
}
