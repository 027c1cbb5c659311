package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/kb"
	"github.com/sells-group/lead-agent/pkg/telegram"
)

// handleCallback answers every inline-button press exactly once and
// dispatches the action. Lead-side buttons come from the channel
// welcome message; the rest are admin workflow buttons.
func (r *Router) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	userName := cb.From.FirstName
	if userName == "" {
		userName = "there"
	}

	var chatID, messageID int64
	if cb.Message != nil {
		chatID = cb.Message.Chat.ID
		messageID = cb.Message.MessageID
	}

	ack := ""
	switch {
	case cb.Data == "ask_question":
		r.sendTo(ctx, chatID, fmt.Sprintf("Great %s! 🤔\n\n"+
			"What's your question? I can help with:\n\n"+
			"• API documentation\n"+
			"• Pricing and plans\n"+
			"• Getting started guides\n"+
			"• Technical integration\n"+
			"• Data coverage questions\n\n"+
			"Just type your question naturally!", userName))

	case cb.Data == "getting_started":
		ans := kb.Lookup("getting started")
		r.sendHTML(ctx, chatID, fmt.Sprintf("Hi %s! 🚀\n\n%s\n\n%s",
			userName, ans.Response, ans.FollowUp))

	case cb.Data == "pricing_info":
		ans := kb.Lookup("pricing")
		r.sendHTML(ctx, chatID, fmt.Sprintf("Hi %s! 💰\n\n%s\n\n%s",
			userName, ans.Response, ans.FollowUp))

	case cb.Data == "check_status":
		r.sendTo(ctx, chatID, fmt.Sprintf("Hi %s! 📊\n\n"+
			"Your support channel is active and our team is monitoring.\n\n"+
			"• Group created: ✅\n"+
			"• Assistant: Active 🤖\n"+
			"• Team notified: ✅\n\n"+
			"Feel free to ask any questions - I'm here to help!", userName))

	case cb.Data == "human_support":
		r.sendTo(ctx, chatID, fmt.Sprintf("Connecting you with our team, %s! 👨‍💻\n\n"+
			"Our human experts will join this conversation shortly.\n\n"+
			"In the meantime, feel free to describe your specific needs or questions!", userName))
		r.alertAdminHumanRequest(ctx, chatID, userName)

	case strings.HasPrefix(cb.Data, "creating_"):
		r.markCreationInProgress(ctx, chatID, messageID)
		ack = "Marked as in progress! Click \"Help Me Create\" for step-by-step guide."

	case cb.Data == "group_done":
		r.markCreationDone(ctx, chatID, messageID)
		ack = "Marked as completed! Great work! 🎉"

	case cb.Data == "create_group_help":
		r.sendGroupCreationHelp(ctx, chatID)

	case strings.HasPrefix(cb.Data, "skip_"):
		r.markLeadSkipped(ctx, chatID, messageID)
		ack = "Lead skipped"
	}

	if err := r.tg.AnswerCallbackQuery(ctx, cb.ID, ack); err != nil {
		r.log.Error("callback ack failed", zap.String("data", cb.Data), zap.Error(err))
	}
}

func (r *Router) sendTo(ctx context.Context, chatID int64, text string) {
	if chatID == 0 {
		return
	}
	if _, err := r.tg.SendMessage(ctx, formatChatID(chatID), text); err != nil {
		r.log.Error("callback response failed", zap.Error(err))
	}
}

func (r *Router) sendHTML(ctx context.Context, chatID int64, text string) {
	if chatID == 0 {
		return
	}
	_, err := r.tg.SendMessage(ctx, formatChatID(chatID), text,
		telegram.WithParseMode("HTML"))
	if err != nil {
		r.log.Error("callback response failed", zap.Error(err))
	}
}

func (r *Router) alertAdminHumanRequest(ctx context.Context, chatID int64, userName string) {
	if r.adminID == "" {
		return
	}
	r.mu.Lock()
	title := ""
	if s, ok := r.sessions[chatID]; ok {
		title = s.Title
	}
	r.mu.Unlock()

	text := fmt.Sprintf(
		"👋 <b>Human Support Requested</b>\n\n"+
			"👤 <b>User:</b> %s\n"+
			"💬 <b>Group:</b> %s\n"+
			"🕐 <b>Time:</b> %s\n\n"+
			"<b>🎯 User wants to speak with human team!</b>",
		userName, title, r.now().Format(time.RFC3339),
	)
	if _, err := r.tg.SendMessage(ctx, r.adminID, text, telegram.WithParseMode("HTML")); err != nil {
		r.log.Error("human support alert failed", zap.Error(err))
	}
}

func (r *Router) markCreationInProgress(ctx context.Context, chatID, messageID int64) {
	if chatID == 0 || messageID == 0 {
		return
	}
	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{{
			{Text: "⏳ Creating Group...", CallbackData: "creating_progress"},
			{Text: "✅ Group Created", CallbackData: "group_done"},
			{Text: "❓ Help Me Create", CallbackData: "create_group_help"},
		}},
	}
	if err := r.tg.EditMessageReplyMarkup(ctx, chatID, messageID, markup); err != nil {
		r.log.Error("progress markup edit failed", zap.Error(err))
	}
}

func (r *Router) markCreationDone(ctx context.Context, chatID, messageID int64) {
	if chatID == 0 || messageID == 0 {
		return
	}
	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{{
			{Text: "✅ Group Created Successfully!", CallbackData: "completed"},
		}},
	}
	if err := r.tg.EditMessageReplyMarkup(ctx, chatID, messageID, markup); err != nil {
		r.log.Error("done markup edit failed", zap.Error(err))
	}

	text := "🎉 <b>Group Creation Completed!</b>\n\n" +
		"Great job! The lead now has their private support group.\n\n" +
		"<b>Next steps:</b>\n" +
		"• Send welcome message in the group\n" +
		"• Start conversation with the lead\n" +
		"• Update deal status as needed\n\n" +
		"<i>Lead processing complete ✅</i>"
	r.sendHTML(ctx, chatID, text)
}

func (r *Router) markLeadSkipped(ctx context.Context, chatID, messageID int64) {
	if chatID == 0 || messageID == 0 {
		return
	}
	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{{
			{Text: "⏭ Lead Skipped", CallbackData: "skipped"},
		}},
	}
	if err := r.tg.EditMessageReplyMarkup(ctx, chatID, messageID, markup); err != nil {
		r.log.Error("skip markup edit failed", zap.Error(err))
	}
}

func (r *Router) sendGroupCreationHelp(ctx context.Context, chatID int64) {
	if chatID == 0 {
		return
	}
	text := "🔧 <b>How to Create the Support Group:</b>\n\n" +
		"<b>Step 1:</b> Create New Group\n" +
		"• Open Telegram\n" +
		"• Tap \"New Group\"\n" +
		"• Name it: \"Support - [Lead Name]\"\n\n" +
		"<b>Step 2:</b> Add the Lead\n" +
		"• Search for their username\n" +
		"• Add them to the group\n\n" +
		"<b>Step 3:</b> Send Welcome Message\n" +
		"• \"Hi [Name]! Welcome to your support group!\"\n" +
		"• \"Our team is here to help with any questions\"\n\n" +
		"<b>Step 4:</b> Click \"✅ Group Created\" when done\n\n" +
		"<b>💡 Pro Tip:</b> Pin the welcome message!"

	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{{
			{Text: "✅ Got it, Group Created!", CallbackData: "group_done"},
		}},
	}
	_, err := r.tg.SendMessage(ctx, formatChatID(chatID), text,
		telegram.WithParseMode("HTML"),
		telegram.WithReplyMarkup(markup),
	)
	if err != nil {
		r.log.Error("group creation help failed", zap.Error(err))
	}
}
