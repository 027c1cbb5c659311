// Package notion persists lead records in a Notion database. It is the
// production implementation of the pipeline's record store.
package notion

import (
	"context"
	"fmt"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-agent/internal/model"
)

// CreatedLead identifies a freshly written lead record.
type CreatedLead struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// LeadRecord is the persisted view of a lead, as read back from the
// database. The orchestrator never caches these.
type LeadRecord struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status,omitempty"`
	URL    string `json:"url,omitempty"`
}

// Store defines the record-store operations the pipeline depends on.
type Store interface {
	// CreateLead writes a new lead record and returns its id and URL.
	CreateLead(ctx context.Context, lead model.EnrichedLead) (*CreatedLead, error)
	// UpdateLeadStatus sets the status label and notes on a record.
	UpdateLeadStatus(ctx context.Context, pageID, status, notes string) error
	// FindLeadByEmail returns the record for a normalized email, or
	// (nil, nil) when none exists.
	FindLeadByEmail(ctx context.Context, email string) (*LeadRecord, error)
}

// api is the slice of the Notion SDK the store calls; narrowed for
// testability.
type api interface {
	createPage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
	updatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error)
	queryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

type sdk struct {
	inner *notionapi.Client
}

func (s *sdk) createPage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	return s.inner.Page.Create(ctx, req)
}

func (s *sdk) updatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	return s.inner.Page.Update(ctx, notionapi.PageID(pageID), req)
}

func (s *sdk) queryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return s.inner.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
}

// Option configures the store.
type Option func(*leadStore)

// WithRateLimit overrides the default Notion rate limit (3 req/s).
func WithRateLimit(rps float64) Option {
	return func(s *leadStore) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			s.limiter = nil
		}
	}
}

type leadStore struct {
	api     api
	dbID    string
	limiter *rate.Limiter
}

// NewStore creates a lead store over the given Notion integration token
// and lead database id. API calls are throttled to Notion's 3 req/s.
func NewStore(token, databaseID string, opts ...Option) Store {
	s := &leadStore{
		api:     &sdk{inner: notionapi.NewClient(notionapi.Token(token))},
		dbID:    databaseID,
		limiter: rate.NewLimiter(3, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *leadStore) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

func (s *leadStore) CreateLead(ctx context.Context, lead model.EnrichedLead) (*CreatedLead, error) {
	if err := s.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "notion: rate limit")
	}

	name := lead.Name
	if name == "" {
		name = "New Lead"
	}
	source := lead.Source
	if source == "" {
		source = "Website Form"
	}
	created := notionapi.Date(lead.CreatedAt)

	page, err := s.api.createPage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(s.dbID),
		},
		Properties: notionapi.Properties{
			"Name":        notionapi.TitleProperty{Title: richText(name)},
			"Email":       notionapi.EmailProperty{Email: lead.Email},
			"Telegram id": notionapi.RichTextProperty{RichText: richText(lead.TelegramID)},
			"Status": notionapi.StatusProperty{
				Status: notionapi.Status{Name: "New Lead"},
			},
			"Source": notionapi.RichTextProperty{RichText: richText(source)},
			"Created date": notionapi.DateProperty{
				Date: &notionapi.DateObject{Start: &created},
			},
			"Priority": notionapi.SelectProperty{
				Select: notionapi.Option{Name: string(lead.Priority)},
			},
			"Lead Score": notionapi.NumberProperty{Number: float64(lead.LeadScore)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "notion: create lead")
	}

	return &CreatedLead{
		ID:  string(page.ID),
		URL: pageURL(string(page.ID)),
	}, nil
}

func (s *leadStore) UpdateLeadStatus(ctx context.Context, pageID, status, notes string) error {
	if err := s.wait(ctx); err != nil {
		return eris.Wrap(err, "notion: rate limit")
	}

	_, err := s.api.updatePage(ctx, pageID, &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			"Status": notionapi.StatusProperty{
				Status: notionapi.Status{Name: status},
			},
			"Notes": notionapi.RichTextProperty{RichText: richText(notes)},
		},
	})
	if err != nil {
		return eris.Wrap(err, fmt.Sprintf("notion: update lead %s", pageID))
	}
	return nil
}

func (s *leadStore) FindLeadByEmail(ctx context.Context, email string) (*LeadRecord, error) {
	if err := s.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "notion: rate limit")
	}

	resp, err := s.api.queryDatabase(ctx, s.dbID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Email",
			Email:    &notionapi.TextFilterCondition{Equals: email},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("notion: find lead by email %s", email))
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}

	return parseLeadPage(resp.Results[0]), nil
}

// parseLeadPage extracts the fields the pipeline reads back. Missing or
// retyped properties are skipped rather than treated as errors.
func parseLeadPage(p notionapi.Page) *LeadRecord {
	rec := &LeadRecord{
		ID:  string(p.ID),
		URL: pageURL(string(p.ID)),
	}
	if prop, ok := p.Properties["Email"]; ok {
		if ep, ok := prop.(*notionapi.EmailProperty); ok {
			rec.Email = ep.Email
		}
	}
	if prop, ok := p.Properties["Name"]; ok {
		if tp, ok := prop.(*notionapi.TitleProperty); ok && len(tp.Title) > 0 {
			rec.Name = tp.Title[0].PlainText
		}
	}
	if prop, ok := p.Properties["Status"]; ok {
		if sp, ok := prop.(*notionapi.StatusProperty); ok {
			rec.Status = sp.Status.Name
		}
	}
	return rec
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{{Text: &notionapi.Text{Content: content}}}
}

func pageURL(pageID string) string {
	return "https://notion.so/" + strings.ReplaceAll(pageID, "-", "")
}
