// Package contact decides and executes the notification channel for a
// new lead: a direct welcome message when a handle exists, and an admin
// alert in every case. DM failure is expected and normal (privacy
// settings block unsolicited bot contact), so it never fails the
// strategy as a whole.
package contact

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/pkg/telegram"
)

// Selector routes first contact for freshly persisted leads.
type Selector struct {
	tg      telegram.Client
	adminID string
	now     func() time.Time
	log     *zap.Logger
}

// Option configures the selector.
type Option func(*Selector)

// WithClock overrides the timestamp source (for testing).
func WithClock(now func() time.Time) Option {
	return func(s *Selector) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Selector) { s.log = log }
}

// New creates a selector sending admin alerts to adminID.
func New(tg telegram.Client, adminID string, opts ...Option) *Selector {
	s := &Selector{
		tg:      tg,
		adminID: adminID,
		now:     time.Now,
		log:     zap.L(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleNewLead executes the contact strategy. Success means the
// strategy ran to completion; Method carries the DM outcome. The admin
// is alerted in every branch because DM success does not remove the
// need for a human-created group.
func (s *Selector) HandleNewLead(ctx context.Context, lead model.EnrichedLead) model.ContactResult {
	if lead.TelegramID == "" {
		s.notifyAdminOnly(ctx, lead)
		return model.ContactResult{Success: true, Method: model.ContactAdminOnly}
	}

	dmErr := s.tryDirectMessage(ctx, lead)
	s.notifyAdminWithGroupRequest(ctx, lead, dmErr == nil)

	if dmErr != nil {
		return model.ContactResult{
			Success: true,
			Method:  model.ContactDMFailed,
			Error:   "User cannot receive direct messages",
		}
	}
	return model.ContactResult{Success: true, Method: model.ContactDirectMessage}
}

// tryDirectMessage makes a single bounded attempt; no retries.
func (s *Selector) tryDirectMessage(ctx context.Context, lead model.EnrichedLead) error {
	text := fmt.Sprintf(
		"🎉 Hi %s!\n\n"+
			"Thanks for your interest! We've received your signup.\n\n"+
			"Our team will create a private support group for you shortly where we can discuss your needs in detail.\n\n"+
			"📧 Email: %s\n"+
			"🏢 Company: %s\n\n"+
			"Looking forward to working with you! 🚀",
		orDefault(lead.Name, "there"), lead.Email, orDefault(lead.Company, "Not provided"),
	)

	_, err := s.tg.SendMessage(ctx, "@"+lead.TelegramID, text)
	if err != nil {
		s.log.Info("direct message failed",
			zap.String("handle", lead.TelegramID),
			zap.Error(err),
		)
	}
	return err
}

func (s *Selector) notifyAdminWithGroupRequest(ctx context.Context, lead model.EnrichedLead, dmSent bool) {
	if s.adminID == "" {
		s.log.Warn("no admin chat configured, skipping lead alert")
		return
	}

	dmStatus := "❌ User cannot receive DMs"
	if dmSent {
		dmStatus = "✅ Direct message sent"
	}

	text := fmt.Sprintf(
		"🆕 <b>NEW LEAD ALERT!</b>\n\n"+
			"👤 <b>Name:</b> %s\n"+
			"📧 <b>Email:</b> %s\n"+
			"💬 <b>Telegram:</b> @%s\n"+
			"🏢 <b>Company:</b> %s\n"+
			"📊 <b>Score:</b> %d/100\n"+
			"⭐ <b>Priority:</b> %s\n\n"+
			"%s\n\n"+
			"<b>🎯 NEXT ACTION:</b>\n"+
			"Create group: \"Support - %s\"\n"+
			"Add: @%s + yourself\n\n"+
			"<i>Lead submitted at %s</i>",
		orDefault(lead.Name, "N/A"), lead.Email, lead.TelegramID,
		orDefault(lead.Company, "N/A"), lead.LeadScore, lead.Priority,
		dmStatus,
		orDefault(lead.Name, lead.Email), lead.TelegramID,
		s.now().Format(time.RFC1123),
	)

	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: "📝 Creating Group", CallbackData: "creating_group"},
				{Text: "✅ Group Created", CallbackData: "group_done"},
			},
			{
				{Text: "❓ How to Create Group", CallbackData: "create_group_help"},
				{Text: "💬 Open Lead Chat", URL: "https://t.me/" + lead.TelegramID},
			},
		},
	}

	_, err := s.tg.SendMessage(ctx, s.adminID, text,
		telegram.WithParseMode("HTML"),
		telegram.WithReplyMarkup(markup),
	)
	if err != nil {
		s.log.Error("admin lead alert failed", zap.Error(err))
	}
}

func (s *Selector) notifyAdminOnly(ctx context.Context, lead model.EnrichedLead) {
	if s.adminID == "" {
		s.log.Warn("no admin chat configured, skipping lead alert")
		return
	}

	text := fmt.Sprintf(
		"🆕 <b>NEW LEAD (No Telegram)</b>\n\n"+
			"👤 <b>Name:</b> %s\n"+
			"📧 <b>Email:</b> %s\n"+
			"🏢 <b>Company:</b> %s\n"+
			"📊 <b>Score:</b> %d/100\n"+
			"⭐ <b>Priority:</b> %s\n\n"+
			"💬 <b>No Telegram provided</b> - follow up via email\n\n"+
			"<i>Lead submitted at %s</i>",
		orDefault(lead.Name, "N/A"), lead.Email, orDefault(lead.Company, "N/A"),
		lead.LeadScore, lead.Priority, s.now().Format(time.RFC1123),
	)

	if _, err := s.tg.SendMessage(ctx, s.adminID, text, telegram.WithParseMode("HTML")); err != nil {
		s.log.Error("admin lead alert failed", zap.Error(err))
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
