// Package pipeline runs the lead intake flow end to end: validation,
// dedup against the record store, enrichment, persistence, contact
// strategy, and the manual-group fallback queue.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/enrich"
	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/internal/validate"
	"github.com/sells-group/lead-agent/pkg/notion"
)

// ContactStrategy executes first contact for a persisted lead.
type ContactStrategy interface {
	HandleNewLead(ctx context.Context, lead model.EnrichedLead) model.ContactResult
}

// GroupQueue accepts leads that need a human-created support group.
type GroupQueue interface {
	AddToQueue(ctx context.Context, lead model.QueueLead) model.QueueAddResult
}

// Processor is the lead intake orchestrator. Every failure mode comes
// back as a structured ProcessResult; ProcessNewLead never returns an
// error to its caller.
type Processor struct {
	store    notion.Store
	enricher *enrich.Enricher
	contact  ContactStrategy
	queue    GroupQueue
	log      *zap.Logger
}

// Option configures the processor.
type Option func(*Processor)

// WithQueue enables the manual-group fallback queue.
func WithQueue(q GroupQueue) Option {
	return func(p *Processor) { p.queue = q }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Processor) { p.log = log }
}

// New creates a processor.
func New(store notion.Store, enricher *enrich.Enricher, contact ContactStrategy, opts ...Option) *Processor {
	p := &Processor{
		store:    store,
		enricher: enricher,
		contact:  contact,
		log:      zap.L(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// contactStatus maps a contact method to the record-store status label.
// admin_only keeps the default label; the store rejects unknown status
// options.
var contactStatus = map[model.ContactMethod]string{
	model.ContactDirectMessage: "Telegram Contact Initiated",
	model.ContactDMFailed:      "Telegram DM Failed",
	model.ContactAdminOnly:     "New Lead",
}

// ProcessNewLead runs one raw lead through the full intake flow.
func (p *Processor) ProcessNewLead(ctx context.Context, raw model.RawLead) model.ProcessResult {
	validation := validate.Validate(raw)
	if !validation.IsValid {
		return model.ProcessResult{
			Success: false,
			Error:   "Validation failed: " + strings.Join(validation.Errors, ", "),
		}
	}
	lead := validation.Cleaned

	// Dedup guard. A store read failure is not a reason to drop the
	// lead, so it degrades to "not found".
	existing, err := p.store.FindLeadByEmail(ctx, lead.Email)
	if err != nil {
		p.log.Warn("duplicate check failed, continuing",
			zap.String("email", lead.Email),
			zap.Error(err),
		)
	}
	if existing != nil {
		p.log.Info("lead already exists", zap.String("email", lead.Email))
		return model.ProcessResult{
			Success:      false,
			Error:        "Lead already exists",
			ExistingLead: existing,
		}
	}

	enriched := p.enricher.Enrich(ctx, lead)

	created, err := p.store.CreateLead(ctx, enriched)
	if err != nil {
		p.log.Error("lead persistence failed",
			zap.String("email", lead.Email),
			zap.Error(err),
		)
		return model.ProcessResult{
			Success: false,
			Error:   fmt.Sprintf("Failed to create lead in Notion: %v", err),
		}
	}

	contact := p.contact.HandleNewLead(ctx, enriched)

	if contact.Success {
		status := contactStatus[contact.Method]
		if status == "" {
			status = "New Lead"
		}
		notes := fmt.Sprintf("Method: %s", contact.Method)
		if contact.Method == model.ContactAdminOnly {
			notes = fmt.Sprintf("No Telegram provided - Method: %s", contact.Method)
		}
		// The lead is already persisted; a failed status write is an
		// accepted inconsistency, not a processing failure.
		if err := p.store.UpdateLeadStatus(ctx, created.ID, status, notes); err != nil {
			p.log.Warn("contact status update failed",
				zap.String("lead_id", created.ID),
				zap.Error(err),
			)
		}
	}

	// Direct contact still needs a human-created group eventually, but
	// only unreachable leads enter the manual queue.
	if p.queue != nil && contact.Method != model.ContactDirectMessage {
		p.queue.AddToQueue(ctx, model.QueueLead{
			EnrichedLead: enriched,
			LeadID:       created.ID,
			NotionURL:    created.URL,
		})
	}

	p.log.Info("lead processed",
		zap.String("lead_id", created.ID),
		zap.String("email", lead.Email),
		zap.Int("score", enriched.LeadScore),
		zap.String("contact_method", string(contact.Method)),
	)

	return model.ProcessResult{
		Success:       true,
		LeadID:        created.ID,
		NotionURL:     created.URL,
		TelegramGroup: &contact,
		EnrichedData:  &enriched,
	}
}
