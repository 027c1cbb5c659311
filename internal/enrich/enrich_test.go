package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/pkg/clearbit"
	"github.com/sells-group/lead-agent/pkg/ipapi"
)

type stubIP struct {
	ip     string
	geo    *ipapi.GeoLocation
	ipErr  error
	geoErr error
}

func (s *stubIP) ResolveIP(context.Context) (string, error) { return s.ip, s.ipErr }
func (s *stubIP) ResolveGeo(context.Context, string) (*ipapi.GeoLocation, error) {
	return s.geo, s.geoErr
}

type stubCompany struct {
	company *clearbit.Company
	err     error
	domains []string
}

func (s *stubCompany) FindByDomain(_ context.Context, domain string) (*clearbit.Company, error) {
	s.domains = append(s.domains, domain)
	if s.err != nil {
		return nil, s.err
	}
	return s.company, nil
}

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestEnrich_FullLookupChain(t *testing.T) {
	t.Parallel()

	ip := &stubIP{
		ip:  "203.0.113.9",
		geo: &ipapi.GeoLocation{Country: "France", City: "Paris", Timezone: "Europe/Paris"},
	}
	company := &stubCompany{company: &clearbit.Company{Name: "Acme Corp", Size: 120}}

	e := New(ip, company, WithClock(fixedClock))
	got := e.Enrich(context.Background(), model.ValidatedLead{
		Email:      "alice@acme.com",
		TelegramID: "alice",
	})

	assert.Equal(t, "203.0.113.9", got.IPAddress)
	assert.Equal(t, "France", got.Country)
	assert.Equal(t, "Paris", got.City)
	assert.Equal(t, "Europe/Paris", got.Timezone)
	assert.Equal(t, "acme.com", got.EmailDomain)
	assert.Equal(t, "Acme Corp", got.Company)
	assert.Equal(t, 120, got.CompanySize)
	assert.Equal(t, []string{"acme.com"}, company.domains)
	assert.Equal(t, fixedClock(), got.CreatedAt)
	assert.Equal(t, "Website Form", got.Source)
}

func TestEnrich_DegradesOnProviderFailure(t *testing.T) {
	t.Parallel()

	ip := &stubIP{ipErr: eris.New("timeout")}
	company := &stubCompany{err: eris.New("404")}

	e := New(ip, company, WithClock(fixedClock))
	got := e.Enrich(context.Background(), model.ValidatedLead{
		Email:      "alice@acme.com",
		TelegramID: "alice",
	})

	assert.Empty(t, got.IPAddress)
	assert.Empty(t, got.Country)
	assert.Empty(t, got.Company)
	// Score and timestamp still computed.
	assert.Equal(t, 20, got.LeadScore)
	assert.Equal(t, model.PriorityLow, got.Priority)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestEnrich_NilProviders(t *testing.T) {
	t.Parallel()

	e := New(nil, nil, WithClock(fixedClock))
	got := e.Enrich(context.Background(), model.ValidatedLead{Email: "a@b.com", TelegramID: "u"})

	assert.Equal(t, 20, got.LeadScore)
	assert.Equal(t, "b.com", got.EmailDomain)
}

func TestEnrich_SkipsCompanyLookup(t *testing.T) {
	t.Parallel()

	t.Run("personal domain", func(t *testing.T) {
		t.Parallel()
		company := &stubCompany{company: &clearbit.Company{Name: "nope"}}
		e := New(nil, company, WithClock(fixedClock))
		got := e.Enrich(context.Background(), model.ValidatedLead{Email: "alice@gmail.com"})
		assert.Empty(t, company.domains)
		assert.Equal(t, "gmail.com", got.EmailDomain)
		assert.Empty(t, got.Company)
	})

	t.Run("company already supplied", func(t *testing.T) {
		t.Parallel()
		company := &stubCompany{company: &clearbit.Company{Name: "nope"}}
		e := New(nil, company, WithClock(fixedClock))
		got := e.Enrich(context.Background(), model.ValidatedLead{Email: "alice@acme.com", Company: "Acme"})
		assert.Empty(t, company.domains)
		assert.Equal(t, "Acme", got.Company)
	})
}

func TestEnrich_GeoFailureKeepsIP(t *testing.T) {
	t.Parallel()

	ip := &stubIP{ip: "203.0.113.9", geoErr: eris.New("fail")}
	e := New(ip, nil, WithClock(fixedClock))
	got := e.Enrich(context.Background(), model.ValidatedLead{Email: "a@b.com"})

	assert.Equal(t, "203.0.113.9", got.IPAddress)
	assert.Empty(t, got.Country)
}

func TestScore_Monotonic(t *testing.T) {
	t.Parallel()

	// Adding optional fields one at a time never lowers the score.
	lead := model.EnrichedLead{}
	prev := Score(lead)

	steps := []func(*model.EnrichedLead){
		func(l *model.EnrichedLead) { l.Email = "alice@acme.com" },
		func(l *model.EnrichedLead) { l.Name = "Alice" },
		func(l *model.EnrichedLead) { l.Company = "Acme" },
		func(l *model.EnrichedLead) { l.Phone = "15551234567" },
		func(l *model.EnrichedLead) { l.TelegramID = "alice" },
		func(l *model.EnrichedLead) { l.UTMSource = "newsletter" },
		func(l *model.EnrichedLead) { l.UTMMedium = "organic" },
		func(l *model.EnrichedLead) { l.CompanySize = 120 },
	}
	for i, step := range steps {
		step(&lead)
		got := Score(lead)
		assert.GreaterOrEqual(t, got, prev, "step %d lowered the score", i)
		prev = got
	}

	assert.LessOrEqual(t, prev, 100)
}

func TestScore_Weights(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		lead model.EnrichedLead
		want int
	}{
		{"empty", model.EnrichedLead{}, 0},
		{"email only", model.EnrichedLead{ValidatedLead: model.ValidatedLead{Email: "a@b.com"}}, 10},
		{
			"email and handle",
			model.EnrichedLead{ValidatedLead: model.ValidatedLead{Email: "a@b.com", TelegramID: "u"}},
			20,
		},
		{
			"company on personal domain earns nothing",
			model.EnrichedLead{ValidatedLead: model.ValidatedLead{Email: "a@gmail.com", Company: "Acme"}},
			10,
		},
		{
			"company on work domain",
			model.EnrichedLead{ValidatedLead: model.ValidatedLead{Email: "a@acme.com", Company: "Acme"}},
			30,
		},
		{
			"paid medium",
			model.EnrichedLead{ValidatedLead: model.ValidatedLead{Email: "a@b.com", UTMMedium: "paid"}},
			15,
		},
		{
			"company size tiers are exclusive",
			model.EnrichedLead{CompanySize: 101},
			15,
		},
		{"mid tier", model.EnrichedLead{CompanySize: 51}, 10},
		{"small tier", model.EnrichedLead{CompanySize: 11}, 5},
		{"below tier", model.EnrichedLead{CompanySize: 10}, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Score(tt.lead))
		})
	}
}

func TestScore_Clamped(t *testing.T) {
	t.Parallel()

	lead := model.EnrichedLead{
		ValidatedLead: model.ValidatedLead{
			Email:      "alice@acme.com",
			Name:       "Alice",
			Company:    "Acme",
			Phone:      "15551234567",
			TelegramID: "alice",
			UTMSource:  "newsletter",
			UTMMedium:  "organic",
		},
		CompanySize: 5000,
	}
	got := Score(lead)
	assert.LessOrEqual(t, got, 100)
	assert.Equal(t, 90, got)
}

func TestPriorityBoundaries(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.PriorityLow, model.PriorityForScore(39))
	assert.Equal(t, model.PriorityMedium, model.PriorityForScore(40))
	assert.Equal(t, model.PriorityMedium, model.PriorityForScore(69))
	assert.Equal(t, model.PriorityHigh, model.PriorityForScore(70))
}

func TestIsPersonalDomain(t *testing.T) {
	t.Parallel()

	assert.True(t, IsPersonalDomain("gmail.com"))
	assert.True(t, IsPersonalDomain("Gmail.COM"))
	assert.False(t, IsPersonalDomain("acme.com"))
	assert.False(t, IsPersonalDomain(""))
}
