package model

import "time"

// QueueStatus labels the lifecycle of a manual group-creation request.
// Only pending -> completed transitions are driven by current logic;
// failed exists for operators marking dead items by hand.
type QueueStatus string

const (
	QueuePending   QueueStatus = "pending"
	QueueCompleted QueueStatus = "completed"
	QueueFailed    QueueStatus = "failed"
)

// QueueLead is the lead payload carried by a queue item, including the
// record-store references needed to close the loop on completion.
type QueueLead struct {
	EnrichedLead

	LeadID    string `json:"leadId"`
	NotionURL string `json:"notionUrl,omitempty"`
}

// QueueItem tracks one lead awaiting a human-created support group.
// Items are never deleted; the queue is the audit trail for the
// process lifetime.
type QueueItem struct {
	ID          string      `json:"id"`
	LeadData    QueueLead   `json:"leadData"`
	Status      QueueStatus `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
	Attempts    int         `json:"attempts"`
	MaxAttempts int         `json:"maxAttempts"`
	GroupID     string      `json:"groupId,omitempty"`
	GroupName   string      `json:"groupName,omitempty"`
}

// QueueAddResult is the outcome of enqueueing a group-creation request.
type QueueAddResult struct {
	Success  bool   `json:"success"`
	QueueID  string `json:"queueId,omitempty"`
	Position int    `json:"position,omitempty"`
	Error    string `json:"error,omitempty"`
}

// QueueCompleteResult is the outcome of marking an item completed.
type QueueCompleteResult struct {
	Success bool       `json:"success"`
	Item    *QueueItem `json:"item,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// QueueCounters summarizes the queue by status.
type QueueCounters struct {
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Total     int `json:"total"`
}
