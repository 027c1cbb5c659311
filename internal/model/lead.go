// Package model defines the lead entities and result types shared across
// the intake pipeline.
package model

import "time"

// Priority buckets a lead by score.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// PriorityForScore maps a lead score to a priority bucket.
func PriorityForScore(score int) Priority {
	switch {
	case score >= 70:
		return PriorityHigh
	case score >= 40:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// RawLead is the untrusted web-form payload. Every field may be absent
// or malformed.
type RawLead struct {
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	Company     string `json:"company,omitempty"`
	Phone       string `json:"phone,omitempty"`
	TelegramID  string `json:"telegramId,omitempty"`
	Source      string `json:"source,omitempty"`
	UTMSource   string `json:"utmSource,omitempty"`
	UTMMedium   string `json:"utmMedium,omitempty"`
	UTMCampaign string `json:"utmCampaign,omitempty"`
}

// ValidatedLead holds the fields that survived validation. Fields that
// failed an optional check are simply empty.
type ValidatedLead struct {
	Email       string `json:"email,omitempty"`
	Name        string `json:"name,omitempty"`
	Company     string `json:"company,omitempty"`
	Phone       string `json:"phone,omitempty"`
	TelegramID  string `json:"telegramId,omitempty"`
	Source      string `json:"source,omitempty"`
	UTMSource   string `json:"utmSource,omitempty"`
	UTMMedium   string `json:"utmMedium,omitempty"`
	UTMCampaign string `json:"utmCampaign,omitempty"`
}

// ValidationResult accumulates every rule violation; Cleaned always
// reflects the fields that passed, even when IsValid is false.
type ValidationResult struct {
	IsValid bool          `json:"isValid"`
	Errors  []string      `json:"errors"`
	Cleaned ValidatedLead `json:"cleanedData"`
}

// EnrichedLead is a ValidatedLead plus best-effort derived attributes
// and the computed score. Optional enrichment fields stay empty when a
// provider lookup fails.
type EnrichedLead struct {
	ValidatedLead

	IPAddress   string    `json:"ipAddress,omitempty"`
	Country     string    `json:"country,omitempty"`
	City        string    `json:"city,omitempty"`
	Timezone    string    `json:"timezone,omitempty"`
	EmailDomain string    `json:"emailDomain,omitempty"`
	CompanySize int       `json:"companySize,omitempty"`
	LeadScore   int       `json:"leadScore"`
	Priority    Priority  `json:"priority"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ContactMethod is how the contact strategy reached (or failed to reach)
// a new lead.
type ContactMethod string

const (
	ContactDirectMessage ContactMethod = "direct_message"
	ContactDMFailed      ContactMethod = "dm_failed"
	ContactAdminOnly     ContactMethod = "admin_only"
)

// ContactResult is the outcome of the contact strategy selector.
type ContactResult struct {
	Success bool          `json:"success"`
	Method  ContactMethod `json:"method"`
	Error   string        `json:"error,omitempty"`
}

// ProcessResult is the composite outcome of processing one new lead.
// Failures are reported here rather than as returned errors so callers
// always receive a structured result.
type ProcessResult struct {
	Success       bool           `json:"success"`
	LeadID        string         `json:"leadId,omitempty"`
	NotionURL     string         `json:"notionUrl,omitempty"`
	TelegramGroup *ContactResult `json:"telegramGroup,omitempty"`
	EnrichedData  *EnrichedLead  `json:"enrichedData,omitempty"`
	Error         string         `json:"error,omitempty"`
	ExistingLead  any            `json:"existingLead,omitempty"`
}
