// Package queue tracks leads awaiting a human-created support group.
// The queue is process-local state: items are never deleted and serve
// as the audit trail for the process lifetime. Completion is always
// driven externally; the background watcher only keeps the processing
// flag honest.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/pkg/notion"
	"github.com/sells-group/lead-agent/pkg/telegram"
)

const (
	// ErrNotFound is surfaced for completion calls with unknown ids.
	ErrNotFound = "Queue item not found"
	// ErrAlreadyCompleted is surfaced for repeat completion calls.
	ErrAlreadyCompleted = "Queue item already completed"

	defaultMaxAttempts  = 3
	defaultPollInterval = 5 * time.Second
)

// Queue is the in-memory manual group-creation queue.
type Queue struct {
	mu         sync.Mutex
	items      []*model.QueueItem
	processing bool

	tg           telegram.Client
	store        notion.Store
	adminID      string
	pollInterval time.Duration
	now          func() time.Time
	newID        func() string
	log          *zap.Logger
}

// Option configures the queue.
type Option func(*Queue)

// WithPollInterval overrides the watcher poll interval (for testing).
func WithPollInterval(d time.Duration) Option {
	return func(q *Queue) { q.pollInterval = d }
}

// WithClock overrides the timestamp source (for testing).
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// WithIDSource overrides queue id generation (for testing).
func WithIDSource(newID func() string) Option {
	return func(q *Queue) { q.newID = newID }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(q *Queue) { q.log = log }
}

// New creates an empty queue. Admin instructions go to adminID; record
// updates on completion go through store.
func New(tg telegram.Client, store notion.Store, adminID string, opts ...Option) *Queue {
	q := &Queue{
		tg:           tg,
		store:        store,
		adminID:      adminID,
		pollInterval: defaultPollInterval,
		now:          time.Now,
		newID:        func() string { return "group_" + uuid.NewString() },
		log:          zap.L(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// AddToQueue registers a lead needing a manual group, alerts the admin
// with creation instructions, and starts the watcher if idle.
func (q *Queue) AddToQueue(ctx context.Context, leadData model.QueueLead) model.QueueAddResult {
	item := &model.QueueItem{
		ID:          q.newID(),
		LeadData:    leadData,
		Status:      model.QueuePending,
		CreatedAt:   q.now(),
		Attempts:    0,
		MaxAttempts: defaultMaxAttempts,
	}

	q.mu.Lock()
	q.items = append(q.items, item)
	position := len(q.items)
	q.mu.Unlock()

	q.notifyAdminForCreation(ctx, item)
	q.ensureWatcher()

	return model.QueueAddResult{Success: true, QueueID: item.ID, Position: position}
}

// MarkCompleted transitions a pending item to completed and closes the
// loop: record-store status update plus a welcome message in the new
// group. Downstream failures are reported but do not roll back the
// transition; the queue state is authoritative, notification is
// best-effort.
func (q *Queue) MarkCompleted(ctx context.Context, queueID, groupID, groupName string) model.QueueCompleteResult {
	q.mu.Lock()
	var item *model.QueueItem
	for _, it := range q.items {
		if it.ID == queueID {
			item = it
			break
		}
	}
	if item == nil {
		q.mu.Unlock()
		return model.QueueCompleteResult{Success: false, Error: ErrNotFound}
	}
	if item.Status == model.QueueCompleted {
		q.mu.Unlock()
		return model.QueueCompleteResult{Success: false, Error: ErrAlreadyCompleted}
	}

	completedAt := q.now()
	item.Status = model.QueueCompleted
	item.GroupID = groupID
	item.GroupName = groupName
	item.CompletedAt = &completedAt
	snapshot := *item
	q.mu.Unlock()

	if err := q.store.UpdateLeadStatus(ctx, item.LeadData.LeadID,
		"Telegram Group Created",
		fmt.Sprintf("Group: %s (ID: %s)", groupName, groupID),
	); err != nil {
		q.log.Error("record update after completion failed",
			zap.String("queue_id", queueID),
			zap.Error(err),
		)
		return model.QueueCompleteResult{Success: false, Error: err.Error()}
	}

	welcome := fmt.Sprintf(
		"🎉 Welcome to your personal support channel, %s!\n\n"+
			"Our team is here to help you get started and answer any questions.\n\n"+
			"Feel free to ask us anything! 💬\n\n"+
			"Best regards,\nYour Support Team",
		orDefault(item.LeadData.Name, "there"),
	)
	if _, err := q.tg.SendMessage(ctx, groupID, welcome); err != nil {
		q.log.Error("group welcome message failed",
			zap.String("group_id", groupID),
			zap.Error(err),
		)
		return model.QueueCompleteResult{Success: false, Error: err.Error()}
	}

	return model.QueueCompleteResult{Success: true, Item: &snapshot}
}

// GetQueueStatus derives counters from the in-memory list.
func (q *Queue) GetQueueStatus() model.QueueCounters {
	q.mu.Lock()
	defer q.mu.Unlock()

	var c model.QueueCounters
	for _, it := range q.items {
		switch it.Status {
		case model.QueuePending:
			c.Pending++
		case model.QueueCompleted:
			c.Completed++
		}
	}
	c.Total = len(q.items)
	return c
}

// Processing reports whether the watcher loop is running.
func (q *Queue) Processing() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.processing
}

func (q *Queue) notifyAdminForCreation(ctx context.Context, item *model.QueueItem) {
	if q.adminID == "" {
		q.log.Warn("no admin chat configured, skipping group creation request")
		return
	}

	text := fmt.Sprintf(
		"🆘 <b>GROUP CREATION REQUIRED</b>\n\n"+
			"<b>New lead needs unique support group:</b>\n\n"+
			"👤 <b>Name:</b> %s\n"+
			"📧 <b>Email:</b> %s\n"+
			"💬 <b>Telegram:</b> %s\n"+
			"🆔 <b>Queue ID:</b> %s\n\n"+
			"<b>📋 Instructions:</b>\n"+
			"1️⃣ Create group: \"Support - %s\"\n"+
			"2️⃣ Add user: %s\n"+
			"3️⃣ Add team members\n"+
			"4️⃣ Confirm via the buttons below or POST /complete-group\n\n"+
			"📄 <b>Notion:</b> %s\n\n"+
			"⏰ <i>Created: %s</i>",
		orDefault(item.LeadData.Name, "N/A"),
		item.LeadData.Email,
		item.LeadData.TelegramID,
		item.ID,
		orDefault(item.LeadData.Name, item.LeadData.Email),
		item.LeadData.TelegramID,
		orDefault(item.LeadData.NotionURL, "Not available"),
		item.CreatedAt.Format(time.RFC3339),
	)

	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{{
			{Text: "✅ Creating Group", CallbackData: "creating_" + item.ID},
			{Text: "❌ Skip This Lead", CallbackData: "skip_" + item.ID},
		}},
	}

	_, err := q.tg.SendMessage(ctx, q.adminID, text,
		telegram.WithParseMode("HTML"),
		telegram.WithReplyMarkup(markup),
	)
	if err != nil {
		q.log.Error("group creation request failed", zap.Error(err))
	}
}

// ensureWatcher starts the single shared watcher loop when idle. The
// loop performs no automated action; it exists to keep the processing
// flag accurate while anything is pending.
func (q *Queue) ensureWatcher() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.processing {
		return
	}
	q.processing = true
	go q.watch()
}

func (q *Queue) watch() {
	for {
		time.Sleep(q.pollInterval)

		q.mu.Lock()
		pending := false
		for _, it := range q.items {
			if it.Status == model.QueuePending {
				pending = true
				break
			}
		}
		if !pending {
			q.processing = false
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
