package rules

import "github.com/telhawk-systems/telhawk-analyzer/internal/models"

// mitreTable maps detection types to their ATT&CK classification. The
// table is immutable after init.
var mitreTable = map[models.DetectionType]models.MitreMapping{
	models.DetectionBlacklistedApp: {
		Tactics:    []string{"Initial Access"},
		Techniques: []string{"T1078"},
	},
	models.DetectionBlacklistedCountry: {
		Tactics:    []string{"Initial Access"},
		Techniques: []string{"T1078"},
	},
	models.DetectionBlacklistedUserAgent: {
		Tactics:    []string{"Command and Control"},
		Techniques: []string{"T1071"},
	},
	models.DetectionPasswordReset: {
		Tactics:    []string{"Credential Access"},
		Techniques: []string{"T1098"},
	},
	models.DetectionRoleAssignment: {
		Tactics:      []string{"Privilege Escalation"},
		Techniques:   []string{"T1098"},
		SubTechnique: "T1098.003",
	},
	models.DetectionPermissionGrant: {
		Tactics:      []string{"Privilege Escalation"},
		Techniques:   []string{"T1098"},
		SubTechnique: "T1098.003",
	},
	models.DetectionUserDeletion: {
		Tactics:    []string{"Impact"},
		Techniques: []string{"T1531"},
	},
	models.DetectionAdminConsent: {
		Tactics:    []string{"Persistence"},
		Techniques: []string{"T1528"},
	},
	models.DetectionConditionalAccess: {
		Tactics:    []string{"Defense Evasion"},
		Techniques: []string{"T1556"},
	},
	models.DetectionMFADisable: {
		Tactics:      []string{"Defense Evasion"},
		Techniques:   []string{"T1556"},
		SubTechnique: "T1556.006",
	},
	models.DetectionAfterHours: {
		Tactics:    []string{"Initial Access"},
		Techniques: []string{"T1078"},
	},
	models.DetectionWeekend: {
		Tactics:    []string{"Initial Access"},
		Techniques: []string{"T1078"},
	},
	models.DetectionPermissionChange: {
		Tactics:      []string{"Privilege Escalation"},
		Techniques:   []string{"T1098"},
		SubTechnique: "T1098.003",
	},
	models.DetectionAccountLifecycle: {
		Tactics:    []string{"Persistence"},
		Techniques: []string{"T1136"},
	},
	models.DetectionAppLifecycle: {
		Tactics:      []string{"Persistence"},
		Techniques:   []string{"T1136"},
		SubTechnique: "T1136.003",
	},
	models.DetectionBruteForce: {
		Tactics:      []string{"Credential Access"},
		Techniques:   []string{"T1110"},
		SubTechnique: "T1110.001",
	},
	models.DetectionHighActivityUser: {
		Tactics:    []string{"Discovery"},
		Techniques: []string{"T1087"},
	},
	models.DetectionSharedIP: {
		Tactics:    []string{"Credential Access"},
		Techniques: []string{"T1078"},
	},
}

var recommendationTable = map[models.DetectionType][]string{
	models.DetectionBlacklistedApp: {
		"Review the application's access and consent history",
		"Block the application in conditional access policy",
		"Audit accounts that used the application",
	},
	models.DetectionBlacklistedCountry: {
		"Confirm whether the user travels to or works from this country",
		"Require MFA re-registration for the affected account",
		"Add a named-location block if the activity is unexpected",
	},
	models.DetectionBlacklistedUserAgent: {
		"Identify the client software producing this user agent",
		"Block legacy authentication protocols if applicable",
		"Monitor the source address for further activity",
	},
	models.DetectionMFADisable: {
		"Re-enable multi-factor authentication immediately",
		"Verify the change was made by an authorized administrator",
		"Review sign-in activity for the affected account since the change",
	},
	models.DetectionBruteForce: {
		"Lock or reset the targeted account credentials",
		"Block the source IP address at the perimeter",
		"Enable smart lockout and review password policies",
	},
	models.DetectionAdminConsent: {
		"Review the permissions granted to the application",
		"Revoke consent if the grant was not approved through change control",
		"Restrict who may grant tenant-wide admin consent",
	},
	models.DetectionHighActivityUser: {
		"Verify the account is not being used by automation or scripts",
		"Check for signs of data exfiltration in the user's activity",
		"Consider rate limits or conditional access for the account",
	},
	models.DetectionSharedIP: {
		"Determine whether the address is a legitimate proxy or gateway",
		"Correlate the sign-ins with known office or VPN egress addresses",
		"Force reauthentication for accounts seen from this address",
	},
}

// genericRecommendations is the fallback for unmapped detection types.
var genericRecommendations = []string{
	"Investigate the affected entities",
	"Verify the activity was authorized",
	"Monitor for recurrence",
}

// MitreFor returns the ATT&CK mapping for a detection type, or an empty
// mapping when none is defined.
func MitreFor(t models.DetectionType) models.MitreMapping {
	return mitreTable[t]
}

// RecommendationsFor returns the remediation list for a detection type,
// falling back to the generic triple.
func RecommendationsFor(t models.DetectionType) []string {
	if recs, ok := recommendationTable[t]; ok {
		return recs
	}
	return genericRecommendations
}
