// Package enrich augments validated leads with best-effort derived
// attributes and a score. Enrichment never fails: every provider lookup
// is independently timeout-bounded and its error absorbed.
package enrich

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/pkg/clearbit"
	"github.com/sells-group/lead-agent/pkg/ipapi"
)

// personalDomains are consumer mail providers; leads on these domains
// earn no company-affiliation points and skip the company lookup.
var personalDomains = map[string]struct{}{
	"gmail.com":      {},
	"yahoo.com":      {},
	"hotmail.com":    {},
	"outlook.com":    {},
	"aol.com":        {},
	"icloud.com":     {},
	"protonmail.com": {},
	"yandex.com":     {},
}

// IsPersonalDomain reports whether a mail domain belongs to a consumer
// provider.
func IsPersonalDomain(domain string) bool {
	_, ok := personalDomains[strings.ToLower(domain)]
	return ok
}

// Enricher runs the enrichment pipeline. A nil provider disables the
// corresponding lookup.
type Enricher struct {
	ip      ipapi.Client
	company clearbit.Client

	ipTimeout      time.Duration
	geoTimeout     time.Duration
	companyTimeout time.Duration

	now func() time.Time
	log *zap.Logger
}

// Option configures the enricher.
type Option func(*Enricher)

// WithClock overrides the timestamp source (for testing).
func WithClock(now func() time.Time) Option {
	return func(e *Enricher) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Enricher) { e.log = log }
}

// New creates an enricher over the given provider clients.
func New(ip ipapi.Client, company clearbit.Client, opts ...Option) *Enricher {
	e := &Enricher{
		ip:             ip,
		company:        company,
		ipTimeout:      3 * time.Second,
		geoTimeout:     3 * time.Second,
		companyTimeout: 5 * time.Second,
		now:            time.Now,
		log:            zap.L(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich derives attributes for a validated lead. The IP and geo
// lookups chain sequentially; the company lookup runs alongside them.
// Lookup failures leave the corresponding fields unset.
func (e *Enricher) Enrich(ctx context.Context, lead model.ValidatedLead) model.EnrichedLead {
	enriched := model.EnrichedLead{ValidatedLead: lead}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		e.resolveLocation(gctx, &enriched)
		return nil
	})
	g.Go(func() error {
		e.resolveCompany(gctx, &enriched)
		return nil
	})
	_ = g.Wait()

	enriched.LeadScore = Score(enriched)
	enriched.Priority = model.PriorityForScore(enriched.LeadScore)

	if enriched.Source == "" {
		enriched.Source = "Website Form"
	}
	enriched.CreatedAt = e.now()

	return enriched
}

func (e *Enricher) resolveLocation(ctx context.Context, enriched *model.EnrichedLead) {
	if e.ip == nil {
		return
	}

	ipCtx, cancel := context.WithTimeout(ctx, e.ipTimeout)
	defer cancel()
	ip, err := e.ip.ResolveIP(ipCtx)
	if err != nil {
		e.log.Debug("ip lookup failed", zap.Error(err))
		return
	}
	enriched.IPAddress = ip

	geoCtx, cancel := context.WithTimeout(ctx, e.geoTimeout)
	defer cancel()
	geo, err := e.ip.ResolveGeo(geoCtx, ip)
	if err != nil {
		e.log.Debug("geo lookup failed", zap.String("ip", ip), zap.Error(err))
		return
	}
	enriched.Country = geo.Country
	enriched.City = geo.City
	enriched.Timezone = geo.Timezone
}

func (e *Enricher) resolveCompany(ctx context.Context, enriched *model.EnrichedLead) {
	if enriched.Email == "" || enriched.Company != "" {
		return
	}

	domain := emailDomain(enriched.Email)
	if domain == "" {
		return
	}
	enriched.EmailDomain = domain

	if e.company == nil || IsPersonalDomain(domain) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, e.companyTimeout)
	defer cancel()
	company, err := e.company.FindByDomain(cctx, domain)
	if err != nil {
		e.log.Debug("company lookup failed", zap.String("domain", domain), zap.Error(err))
		return
	}
	enriched.Company = company.Name
	enriched.CompanySize = company.Size
}

// Score computes the weighted lead score, clamped to [0,100]. Company
// affiliation counts only for non-consumer mail domains, regardless of
// whether the company name came from the form or a lookup.
func Score(lead model.EnrichedLead) int {
	score := 0

	if lead.Email != "" {
		score += 10
	}
	if lead.Name != "" {
		score += 5
	}
	if lead.Company != "" && !IsPersonalDomain(emailDomain(lead.Email)) {
		score += 20
	}
	if lead.Phone != "" {
		score += 15
	}
	if lead.TelegramID != "" {
		score += 10
	}
	if lead.UTMSource != "" {
		score += 5
	}
	switch lead.UTMMedium {
	case "organic":
		score += 10
	case "paid":
		score += 5
	}

	// Largest applicable tier only.
	switch {
	case lead.CompanySize > 100:
		score += 15
	case lead.CompanySize > 50:
		score += 10
	case lead.CompanySize > 10:
		score += 5
	}

	return min(score, 100)
}

func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return email[at+1:]
}
