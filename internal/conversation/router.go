// Package conversation routes inbound Telegram updates for active
// support channels: message classification with canned responses,
// channel lifecycle events, and inline-button callbacks for both leads
// and the admin.
package conversation

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/kb"
	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/pkg/telegram"
)

// Classification is first-match over these keyword sets, evaluated
// question, then urgent, then greeting. Matching is substring-based.
var (
	questionWords = []string{
		"how", "what", "when", "where", "why", "can", "could", "would",
		"should", "is", "are", "do", "does", "will", "whats", "hows",
		"link", "url", "?",
	}
	urgentWords = []string{
		"urgent", "emergency", "asap", "immediately", "help", "problem",
		"issue", "error",
	}
	greetingWords = []string{
		"hi", "hello", "hey", "good morning", "good afternoon", "thanks",
	}
)

const (
	defaultSettleDelay = 2 * time.Second

	// Messages longer than this also feed the admin activity channel.
	activityMinLen = 10
	// Activity feed previews are cut at this many characters.
	activityPreviewLen = 100
)

// Router dispatches Telegram updates against the in-memory session
// registry. Updates are delivered sequentially by the poll listener,
// so only the registry itself needs locking.
type Router struct {
	tg      telegram.Client
	adminID string

	mu       sync.Mutex
	sessions map[int64]*model.ChannelSession
	botID    int64

	rng         *rand.Rand
	now         func() time.Time
	settleDelay time.Duration
	sleep       func(time.Duration)
	log         *zap.Logger
}

// Option configures the router.
type Option func(*Router)

// WithRand overrides the random source used for greeting and welcome
// suggestion choice (for testing).
func WithRand(rng *rand.Rand) Option {
	return func(r *Router) { r.rng = rng }
}

// WithClock overrides the timestamp source (for testing).
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// WithSettleDelay overrides the wait before greeting a channel the bot
// was just added to (for testing).
func WithSettleDelay(d time.Duration) Option {
	return func(r *Router) { r.settleDelay = d }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Router) { r.log = log }
}

// New creates a router with an empty session registry.
func New(tg telegram.Client, adminID string, opts ...Option) *Router {
	r := &Router{
		tg:          tg,
		adminID:     adminID,
		sessions:    make(map[int64]*model.ChannelSession),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
		settleDelay: defaultSettleDelay,
		sleep:       time.Sleep,
		log:         zap.L(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ActiveSessions returns a snapshot of all tracked channel sessions.
func (r *Router) ActiveSessions() []model.ChannelSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.ChannelSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out
}

// HandleUpdate dispatches one update. Errors are logged, never
// returned; a bad update must not stall the poll loop.
func (r *Router) HandleUpdate(ctx context.Context, u telegram.Update) {
	switch {
	case u.CallbackQuery != nil:
		r.handleCallback(ctx, u.CallbackQuery)
	case u.Message == nil:
		return
	case len(u.Message.NewChatMembers) > 0:
		r.handleNewMembers(ctx, u.Message)
	case u.Message.LeftChatMember != nil:
		r.handleMemberLeft(ctx, u.Message)
	case u.Message.Text != "":
		r.handleMessage(ctx, u.Message)
	}
}

func isGroupChat(c telegram.Chat) bool {
	return c.Type == "group" || c.Type == "supergroup"
}

func (r *Router) handleNewMembers(ctx context.Context, msg *telegram.Message) {
	if !isGroupChat(msg.Chat) {
		return
	}

	botID, ok := r.resolveBotID(ctx)
	if !ok {
		return
	}
	added := false
	for _, m := range msg.NewChatMembers {
		if m.ID == botID {
			added = true
			break
		}
	}
	if !added {
		return
	}

	chatID := msg.Chat.ID
	title := msg.Chat.Title
	if title == "" {
		title = "Support Group"
	}
	r.log.Info("added to support channel",
		zap.Int64("chat_id", chatID),
		zap.String("title", title),
	)

	// Let the group settle before greeting it.
	r.sleep(r.settleDelay)

	now := r.now()
	session := &model.ChannelSession{
		ChannelID:    chatID,
		Title:        title,
		CreatedAt:    now,
		LastActivity: now,
		Status:       model.SessionActive,
	}
	r.mu.Lock()
	r.sessions[chatID] = session
	r.mu.Unlock()

	r.sendChannelWelcome(ctx, chatID)
	r.notifyAdminChannelReady(ctx, *session)
}

// resolveBotID caches the bot's own id after the first successful
// getMe; failures are retried on the next event.
func (r *Router) resolveBotID(ctx context.Context) (int64, bool) {
	r.mu.Lock()
	id := r.botID
	r.mu.Unlock()
	if id != 0 {
		return id, true
	}

	me, err := r.tg.GetMe(ctx)
	if err != nil {
		r.log.Error("bot identity lookup failed", zap.Error(err))
		return 0, false
	}
	r.mu.Lock()
	r.botID = me.ID
	r.mu.Unlock()
	return me.ID, true
}

func (r *Router) sendChannelWelcome(ctx context.Context, chatID int64) {
	text := "🎉 <b>Welcome to your personal support channel!</b>\n\n" +
		"I'm your assistant here to help with:\n" +
		"✅ Answer questions about our APIs &amp; services\n" +
		"✅ Help with technical integration issues\n" +
		"✅ Connect you with our expert team\n" +
		"✅ Track your progress &amp; usage\n\n" +
		"<b>How to get help:</b>\n" +
		"• Just type your question naturally\n" +
		"• I'll either answer instantly or get our team\n" +
		"• Ask about pricing, APIs, getting started\n\n" +
		"Our team has been notified and will join shortly!\n\n" +
		kb.Suggestion(r.rng) + "\n\n" +
		"What can I help you with today? 💬"

	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: "❓ I have a question", CallbackData: "ask_question"},
				{Text: "🚀 Getting started", CallbackData: "getting_started"},
			},
			{
				{Text: "💰 Pricing info", CallbackData: "pricing_info"},
				{Text: "📊 Check my status", CallbackData: "check_status"},
			},
		},
	}

	_, err := r.tg.SendMessage(ctx, formatChatID(chatID), text,
		telegram.WithParseMode("HTML"),
		telegram.WithReplyMarkup(markup),
	)
	if err != nil {
		r.log.Error("channel welcome failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) notifyAdminChannelReady(ctx context.Context, s model.ChannelSession) {
	if r.adminID == "" {
		return
	}
	text := fmt.Sprintf(
		"✅ <b>New Support Group Ready!</b>\n\n"+
			"📁 <b>Group:</b> %s\n"+
			"🆔 <b>Chat ID:</b> %d\n"+
			"⏰ <b>Created:</b> %s\n\n"+
			"🤖 <b>Bot Status:</b> Active and monitoring\n"+
			"💬 <b>Welcome message:</b> Sent\n\n"+
			"The lead is ready for support! 🎯",
		s.Title, s.ChannelID, s.CreatedAt.Format(time.RFC3339),
	)
	if _, err := r.tg.SendMessage(ctx, r.adminID, text, telegram.WithParseMode("HTML")); err != nil {
		r.log.Error("group ready notice failed", zap.Error(err))
	}
}

func (r *Router) handleMemberLeft(ctx context.Context, msg *telegram.Message) {
	if !isGroupChat(msg.Chat) {
		return
	}
	if strconv.FormatInt(msg.LeftChatMember.ID, 10) != r.adminID || r.adminID == "" {
		return
	}
	_, err := r.tg.SendMessage(ctx, formatChatID(msg.Chat.ID),
		"Our team member has stepped out but I'm still here to help! 👋")
	if err != nil {
		r.log.Error("member left notice failed", zap.Error(err))
	}
}

func (r *Router) handleMessage(ctx context.Context, msg *telegram.Message) {
	if !isGroupChat(msg.Chat) || msg.From == nil {
		return
	}
	// The admin's own replies are not routed.
	if r.adminID != "" && strconv.FormatInt(msg.From.ID, 10) == r.adminID {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	session := r.touchSession(msg.Chat)
	userName := msg.From.FirstName
	if userName == "" {
		userName = "there"
	}

	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, questionWords):
		r.handleQuestion(ctx, msg.Chat.ID, text, userName)
	case containsAny(lower, urgentWords):
		r.handleUrgent(ctx, msg.Chat.ID, session.Title, text, userName)
	case containsAny(lower, greetingWords):
		r.handleGreeting(ctx, msg.Chat.ID, userName)
	default:
		r.handleGeneral(ctx, msg.Chat.ID, userName)
	}

	if len(text) > activityMinLen {
		r.notifyAdminActivity(ctx, session, text, userName)
	}
}

// touchSession bumps activity on the channel's session, creating one
// on the fly for channels first seen mid-conversation.
func (r *Router) touchSession(chat telegram.Chat) model.ChannelSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[chat.ID]
	if !ok {
		title := chat.Title
		if title == "" {
			title = "Support Group"
		}
		s = &model.ChannelSession{
			ChannelID: chat.ID,
			Title:     title,
			CreatedAt: r.now(),
			Status:    model.SessionActive,
		}
		r.sessions[chat.ID] = s
	}
	s.LastActivity = r.now()
	return *s
}

func (r *Router) handleQuestion(ctx context.Context, chatID int64, question, userName string) {
	ans := kb.Lookup(question)
	if !ans.NeedsHuman {
		followUp := ans.FollowUp
		if followUp == "" {
			followUp = "Is there anything else I can help with?"
		}
		text := fmt.Sprintf("Hi %s! 👋\n\n%s\n\n%s", userName, ans.Response, followUp)
		if _, err := r.tg.SendMessage(ctx, formatChatID(chatID), text,
			telegram.WithParseMode("HTML")); err != nil {
			r.log.Error("question response failed", zap.Error(err))
		}
		return
	}

	text := fmt.Sprintf("Great question, %s! 🤔\n\n"+
		"I'm getting our team to give you the best answer. They'll respond shortly!\n\n"+
		"In the meantime, feel free to ask anything else.", userName)
	if _, err := r.tg.SendMessage(ctx, formatChatID(chatID), text); err != nil {
		r.log.Error("question response failed", zap.Error(err))
	}
	r.alertAdminQuestion(ctx, chatID, question, userName)
}

func (r *Router) handleUrgent(ctx context.Context, chatID int64, title, message, userName string) {
	text := fmt.Sprintf("🚨 %s, I understand this is urgent!\n\n"+
		"I'm immediately alerting our team for priority support. Someone will be with you very shortly.\n\n"+
		"What specific help do you need right now?", userName)
	if _, err := r.tg.SendMessage(ctx, formatChatID(chatID), text); err != nil {
		r.log.Error("urgent acknowledgment failed", zap.Error(err))
	}

	if r.adminID == "" {
		return
	}
	alert := fmt.Sprintf(
		"🚨 <b>URGENT SUPPORT REQUEST</b>\n\n"+
			"👤 <b>From:</b> %s\n"+
			"💬 <b>Group:</b> %s\n"+
			"📝 <b>Message:</b> %s\n\n"+
			"<b>⚡ IMMEDIATE ATTENTION NEEDED</b>",
		userName, title, message,
	)
	if _, err := r.tg.SendMessage(ctx, r.adminID, alert, telegram.WithParseMode("HTML")); err != nil {
		r.log.Error("urgent alert failed", zap.Error(err))
	}
}

func (r *Router) handleGreeting(ctx context.Context, chatID int64, userName string) {
	responses := []string{
		fmt.Sprintf("Hi %s! 👋 Great to see you here!", userName),
		fmt.Sprintf("Hello %s! 😊 How can I help you today?", userName),
		fmt.Sprintf("Hey %s! 🌟 Welcome! What brings you here?", userName),
	}
	text := responses[r.rng.Intn(len(responses))]
	if _, err := r.tg.SendMessage(ctx, formatChatID(chatID), text); err != nil {
		r.log.Error("greeting failed", zap.Error(err))
	}
}

func (r *Router) handleGeneral(ctx context.Context, chatID int64, userName string) {
	text := fmt.Sprintf("Thanks for that, %s! 📝\n\n"+
		"I've noted this and our team will follow up. "+
		"Is there anything specific I can help you with right now?", userName)
	if _, err := r.tg.SendMessage(ctx, formatChatID(chatID), text); err != nil {
		r.log.Error("acknowledgment failed", zap.Error(err))
	}
}

func (r *Router) notifyAdminActivity(ctx context.Context, s model.ChannelSession, message, userName string) {
	if r.adminID == "" {
		return
	}
	preview := message
	if len(preview) > activityPreviewLen {
		preview = preview[:activityPreviewLen] + "..."
	}
	text := fmt.Sprintf(
		"💬 <b>Activity in %s</b>\n\n"+
			"👤 <b>%s:</b> %s\n\n"+
			"<a href=\"%s\">👆 Open Group</a>",
		s.Title, userName, preview, groupDeepLink(s.ChannelID),
	)
	_, err := r.tg.SendMessage(ctx, r.adminID, text,
		telegram.WithParseMode("HTML"),
		telegram.WithoutWebPreview(),
	)
	if err != nil {
		r.log.Error("activity notice failed", zap.Error(err))
	}
}

// groupDeepLink builds a t.me/c/ link from a raw chat id. Supergroup
// ids carry a -100 prefix on the wire that the link form drops.
func groupDeepLink(chatID int64) string {
	id := strconv.FormatInt(chatID, 10)
	id = strings.TrimPrefix(id, "-100")
	id = strings.TrimPrefix(id, "-")
	return "https://t.me/c/" + id
}

func (r *Router) alertAdminQuestion(ctx context.Context, chatID int64, question, userName string) {
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
		"❓ <b>Question Needs Your Expertise</b>\n\n"+
			"👤 <b>From:</b> %s\n"+
			"💬 <b>Group:</b> %s\n"+
			"❔ <b>Question:</b> %s\n\n"+
			"<b>🎯 Please respond in the group!</b>",
		userName, title, question,
	)
	if _, err := r.tg.SendMessage(ctx, r.adminID, text, telegram.WithParseMode("HTML")); err != nil {
		r.log.Error("question alert failed", zap.Error(err))
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func formatChatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
