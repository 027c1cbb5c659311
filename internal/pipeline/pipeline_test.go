package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-agent/internal/enrich"
	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/pkg/notion"
)

type storeCall struct {
	status string
	notes  string
}

type fakeStore struct {
	existing  *notion.LeadRecord
	findErr   error
	createErr error
	updateErr error

	created []model.EnrichedLead
	updates []storeCall
}

func (f *fakeStore) CreateLead(_ context.Context, lead model.EnrichedLead) (*notion.CreatedLead, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, lead)
	return &notion.CreatedLead{ID: "page-1", URL: "https://notion.so/page1"}, nil
}

func (f *fakeStore) UpdateLeadStatus(_ context.Context, _, status, notes string) error {
	f.updates = append(f.updates, storeCall{status: status, notes: notes})
	return f.updateErr
}

func (f *fakeStore) FindLeadByEmail(context.Context, string) (*notion.LeadRecord, error) {
	return f.existing, f.findErr
}

type fakeContact struct {
	result model.ContactResult
	calls  int
}

func (f *fakeContact) HandleNewLead(context.Context, model.EnrichedLead) model.ContactResult {
	f.calls++
	return f.result
}

type fakeQueue struct {
	added []model.QueueLead
}

func (f *fakeQueue) AddToQueue(_ context.Context, lead model.QueueLead) model.QueueAddResult {
	f.added = append(f.added, lead)
	return model.QueueAddResult{Success: true, QueueID: "group_1", Position: len(f.added)}
}

func newProcessor(store *fakeStore, contact *fakeContact, q *fakeQueue) *Processor {
	return New(store, enrich.New(nil, nil), contact, WithQueue(q))
}

func TestProcessNewLead_ValidationFailure(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	contact := &fakeContact{}
	p := newProcessor(store, contact, &fakeQueue{})

	res := p.ProcessNewLead(context.Background(), model.RawLead{Name: "Bob"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Validation failed")
	assert.Contains(t, res.Error, "Valid email is required")
	assert.Empty(t, store.created)
	assert.Zero(t, contact.calls)
}

func TestProcessNewLead_Duplicate(t *testing.T) {
	t.Parallel()

	existing := &notion.LeadRecord{ID: "page-0", Email: "a@b.com"}
	store := &fakeStore{existing: existing}
	contact := &fakeContact{}
	p := newProcessor(store, contact, &fakeQueue{})

	res := p.ProcessNewLead(context.Background(), model.RawLead{
		Email:      "a@b.com",
		TelegramID: "user1",
	})

	assert.False(t, res.Success)
	assert.Equal(t, "Lead already exists", res.Error)
	assert.Equal(t, existing, res.ExistingLead)
	// Idempotence guard: nothing written, no contact made.
	assert.Empty(t, store.created)
	assert.Zero(t, contact.calls)
}

func TestProcessNewLead_DirectMessage(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	contact := &fakeContact{result: model.ContactResult{
		Success: true,
		Method:  model.ContactDirectMessage,
	}}
	q := &fakeQueue{}
	p := newProcessor(store, contact, q)

	res := p.ProcessNewLead(context.Background(), model.RawLead{
		Email:      "a@b.com",
		TelegramID: "user1",
	})

	require.True(t, res.Success)
	assert.Equal(t, "page-1", res.LeadID)
	assert.Equal(t, "https://notion.so/page1", res.NotionURL)
	require.NotNil(t, res.TelegramGroup)
	assert.Equal(t, model.ContactDirectMessage, res.TelegramGroup.Method)

	// Email and telegram id only, with stubbed-out enrichment.
	require.NotNil(t, res.EnrichedData)
	assert.Equal(t, 20, res.EnrichedData.LeadScore)
	assert.Equal(t, model.PriorityLow, res.EnrichedData.Priority)

	require.Len(t, store.updates, 1)
	assert.Equal(t, "Telegram Contact Initiated", store.updates[0].status)
	assert.Equal(t, "Method: direct_message", store.updates[0].notes)

	// Reached directly, no manual-group fallback.
	assert.Empty(t, q.added)
}

func TestProcessNewLead_DMFailedEnqueues(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	contact := &fakeContact{result: model.ContactResult{
		Success: true,
		Method:  model.ContactDMFailed,
		Error:   "User cannot receive direct messages",
	}}
	q := &fakeQueue{}
	p := newProcessor(store, contact, q)

	res := p.ProcessNewLead(context.Background(), model.RawLead{
		Email:      "a@b.com",
		TelegramID: "@user1",
	})

	require.True(t, res.Success)
	require.Len(t, store.updates, 1)
	assert.Equal(t, "Telegram DM Failed", store.updates[0].status)

	require.Len(t, q.added, 1)
	assert.Equal(t, "page-1", q.added[0].LeadID)
	assert.Equal(t, "https://notion.so/page1", q.added[0].NotionURL)
	assert.Equal(t, "user1", q.added[0].TelegramID)
}

func TestProcessNewLead_AdminOnly(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	contact := &fakeContact{result: model.ContactResult{
		Success: true,
		Method:  model.ContactAdminOnly,
	}}
	q := &fakeQueue{}
	p := newProcessor(store, contact, q)

	res := p.ProcessNewLead(context.Background(), model.RawLead{Email: "a@b.com"})

	require.True(t, res.Success)
	require.Len(t, store.updates, 1)
	assert.Equal(t, "New Lead", store.updates[0].status)
	assert.Equal(t, "No Telegram provided - Method: admin_only", store.updates[0].notes)
	assert.Len(t, q.added, 1)
}

func TestProcessNewLead_CreateFailure(t *testing.T) {
	t.Parallel()

	store := &fakeStore{createErr: eris.New("notion: createPage: 500")}
	contact := &fakeContact{}
	p := newProcessor(store, contact, &fakeQueue{})

	res := p.ProcessNewLead(context.Background(), model.RawLead{Email: "a@b.com"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Failed to create lead in Notion")
	// No contact without a persisted record.
	assert.Zero(t, contact.calls)
}

func TestProcessNewLead_FindErrorDegrades(t *testing.T) {
	t.Parallel()

	store := &fakeStore{findErr: eris.New("notion: queryDatabase: 502")}
	contact := &fakeContact{result: model.ContactResult{
		Success: true,
		Method:  model.ContactAdminOnly,
	}}
	p := newProcessor(store, contact, &fakeQueue{})

	res := p.ProcessNewLead(context.Background(), model.RawLead{Email: "a@b.com"})

	// A failed duplicate check must not drop the lead.
	assert.True(t, res.Success)
	assert.Len(t, store.created, 1)
}

func TestProcessNewLead_StatusUpdateFailureTolerated(t *testing.T) {
	t.Parallel()

	store := &fakeStore{updateErr: eris.New("notion: updatePage: 409")}
	contact := &fakeContact{result: model.ContactResult{
		Success: true,
		Method:  model.ContactDirectMessage,
	}}
	p := newProcessor(store, contact, &fakeQueue{})

	res := p.ProcessNewLead(context.Background(), model.RawLead{
		Email:      "a@b.com",
		TelegramID: "user1",
	})

	assert.True(t, res.Success)
}
