// Package telegramtest provides an in-memory telegram.Client for tests.
package telegramtest

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-agent/pkg/telegram"
)

// SentMessage records one SendMessage call.
type SentMessage struct {
	Target string
	Text   string
	Markup *telegram.InlineKeyboardMarkup
}

// EditedMarkup records one EditMessageReplyMarkup call.
type EditedMarkup struct {
	ChatID    int64
	MessageID int64
	Markup    *telegram.InlineKeyboardMarkup
}

// Recorder is a telegram.Client that records calls and can be told to
// reject sends to specific targets.
type Recorder struct {
	mu        sync.Mutex
	messages  []SentMessage
	edits     []EditedMarkup
	answered  []string
	rejected  map[string]error
	Self      telegram.User
	nextMsgID int64
}

var _ telegram.Client = (*Recorder)(nil)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		rejected: make(map[string]error),
		Self:     telegram.User{ID: 999, IsBot: true, Username: "lead_agent_bot"},
	}
}

// RejectTarget makes SendMessage fail for a target.
func (r *Recorder) RejectTarget(target string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		err = eris.New("telegram: sendMessage: 403 Forbidden")
	}
	r.rejected[target] = err
}

// Messages returns a copy of everything sent so far.
func (r *Recorder) Messages() []SentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SentMessage(nil), r.messages...)
}

// MessagesTo filters sent messages by target.
func (r *Recorder) MessagesTo(target string) []SentMessage {
	var out []SentMessage
	for _, m := range r.Messages() {
		if m.Target == target {
			out = append(out, m)
		}
	}
	return out
}

// Edits returns a copy of the recorded markup edits.
func (r *Recorder) Edits() []EditedMarkup {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]EditedMarkup(nil), r.edits...)
}

// Answered returns the callback ids acknowledged so far.
func (r *Recorder) Answered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.answered...)
}

func (r *Recorder) GetMe(context.Context) (*telegram.User, error) {
	self := r.Self
	return &self, nil
}

func (r *Recorder) SendMessage(_ context.Context, target, text string, opts ...telegram.SendOption) (*telegram.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err, ok := r.rejected[target]; ok {
		return nil, err
	}

	o := telegram.ApplySendOptions(opts...)
	r.messages = append(r.messages, SentMessage{Target: target, Text: text, Markup: o.ReplyMarkup})
	r.nextMsgID++
	return &telegram.Message{MessageID: r.nextMsgID}, nil
}

func (r *Recorder) AnswerCallbackQuery(_ context.Context, callbackID, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answered = append(r.answered, callbackID)
	return nil
}

func (r *Recorder) EditMessageReplyMarkup(_ context.Context, chatID, messageID int64, markup *telegram.InlineKeyboardMarkup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edits = append(r.edits, EditedMarkup{ChatID: chatID, MessageID: messageID, Markup: markup})
	return nil
}

func (r *Recorder) CreateInviteLink(_ context.Context, chatID int64) (*telegram.ChatInviteLink, error) {
	return &telegram.ChatInviteLink{InviteLink: "https://t.me/+invite", Creator: r.Self}, nil
}

func (r *Recorder) GetUpdates(context.Context, int64, time.Duration) ([]telegram.Update, error) {
	return nil, nil
}
