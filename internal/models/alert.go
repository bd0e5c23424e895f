package models

import "time"

// Alert is the externally-persisted record derived from one high or
// critical finding. One alert is created per qualifying finding; runs do
// not deduplicate against each other.
type Alert struct {
	ID             string                 `json:"id"`
	OrganizationID string                 `json:"organization_id,omitempty"`
	RunID          string                 `json:"run_id"`
	TaskID         string                 `json:"task_id,omitempty"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Severity       Severity               `json:"severity"`
	Source         string                 `json:"source"`
	DetectionType  DetectionType          `json:"detection_type"`
	Entities       AffectedEntities       `json:"entities"`
	Evidence       map[string]interface{} `json:"evidence,omitempty"`
	Mitre          MitreMapping           `json:"mitre,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}
