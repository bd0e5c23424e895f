package models

import "time"

// Severity classifies findings and alert payloads.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Weight returns the risk-score contribution of one finding at this severity.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityCritical:
		return 10
	case SeverityHigh:
		return 5
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// DetectionType identifies the detection category of a finding.
type DetectionType string

const (
	DetectionBlacklistedApp       DetectionType = "blacklisted_application"
	DetectionBlacklistedCountry   DetectionType = "blacklisted_country"
	DetectionBlacklistedUserAgent DetectionType = "blacklisted_user_agent"
	DetectionPasswordReset        DetectionType = "password_reset"
	DetectionRoleAssignment       DetectionType = "role_assignment"
	DetectionPermissionGrant      DetectionType = "permission_grant"
	DetectionUserDeletion         DetectionType = "user_deletion"
	DetectionAdminConsent         DetectionType = "admin_consent"
	DetectionConditionalAccess    DetectionType = "conditional_access_change"
	DetectionMFADisable           DetectionType = "mfa_disable"
	DetectionAfterHours           DetectionType = "after_hours_activity"
	DetectionWeekend              DetectionType = "weekend_activity"
	DetectionPermissionChange     DetectionType = "permission_change"
	DetectionAccountLifecycle     DetectionType = "account_lifecycle"
	DetectionAppLifecycle         DetectionType = "application_lifecycle"
	DetectionBruteForce           DetectionType = "brute_force"
	DetectionHighActivityUser     DetectionType = "high_activity_user"
	DetectionSharedIP             DetectionType = "shared_ip_multiple_users"
)

// MitreMapping classifies a finding against MITRE ATT&CK.
type MitreMapping struct {
	Tactics      []string `json:"tactics,omitempty"`
	Techniques   []string `json:"techniques,omitempty"`
	SubTechnique string   `json:"sub_technique,omitempty"`
}

// AffectedEntities lists the users, applications, addresses and locations
// implicated by a finding.
type AffectedEntities struct {
	Users        []string `json:"users,omitempty"`
	Applications []string `json:"applications,omitempty"`
	IPAddresses  []string `json:"ip_addresses,omitempty"`
	Locations    []string `json:"locations,omitempty"`
}

// Finding is one detected security-relevant condition. Findings are
// append-only within a run and never mutated after creation.
type Finding struct {
	ID               int                    `json:"id"`
	Type             DetectionType          `json:"type"`
	Title            string                 `json:"title"`
	Severity         Severity               `json:"severity"`
	Description      string                 `json:"description"`
	Timestamp        time.Time              `json:"timestamp"`
	AffectedEntities AffectedEntities       `json:"affected_entities"`
	Evidence         map[string]interface{} `json:"evidence,omitempty"`
	Mitre            MitreMapping           `json:"mitre,omitempty"`
	Recommendations  []string               `json:"recommendations,omitempty"`
}
