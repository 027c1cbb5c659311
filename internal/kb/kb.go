// Package kb is the static FAQ table backing the conversation router.
// Lookup is pure and synchronous: a query either hits one of the keyword
// buckets below or is flagged for a human.
package kb

import (
	"math/rand"
	"strings"
)

// Answer is the result of a knowledge-base lookup. When no bucket
// matches, NeedsHuman is set and both text fields are empty.
type Answer struct {
	Response   string
	FollowUp   string
	NeedsHuman bool
}

// bucket pairs a keyword set with its canned answer. Buckets are
// evaluated in order; the first match wins.
type bucket struct {
	keywords []string
	answer   Answer
}

var buckets = []bucket{
	{
		keywords: []string{"price", "cost", "pricing", "free", "plan", "tier", "expensive"},
		answer: Answer{
			Response: "💰 <b>Pricing</b>\n\n<b>🆓 Free tier:</b>\n• 100,000 API calls/month\n• Core data access\n• Community support\n• Perfect for testing &amp; small projects\n\n<b>📈 Paid plans:</b>\n• Higher rate limits for production\n• Extended historical data\n• Premium endpoints &amp; features\n• Priority support\n\n<i>Enterprise pricing available - contact our sales team!</i>",
			FollowUp: "Would you like help getting started with the free tier, or do you need enterprise pricing info?",
		},
	},
	{
		keywords: []string{"what is", "what does", "product", "service", "platform"},
		answer: Answer{
			Response: "🚀 <b>About the platform</b>\n\nWe provide:\n\n📊 <b>Real-time data APIs</b>\n• Live feeds across 20M+ assets\n• Market and volume data\n\n🔗 <b>Cross-source analytics</b>\n• Portfolio tracking\n• Protocol metrics\n\n⚡ <b>Built for developers</b>\n• Easy-to-use REST APIs\n• Real-time WebSocket feeds\n• Comprehensive documentation",
			FollowUp: "What specific data or features are you most interested in?",
		},
	},
	{
		keywords: []string{"api", "endpoint", "integration", "code", "develop", "technical"},
		answer: Answer{
			Response: "🔧 <b>APIs</b>\n\n<b>📈 Data API</b>\n• Real-time &amp; historical prices\n• Market data for 20M+ assets\n\n<b>💼 Portfolio API</b>\n• Multi-source tracking\n• Real-time balance updates\n• Transaction history\n\n<b>🚀 Getting started:</b>\n1. Get a free API key from the dashboard\n2. Check the docs\n3. Start with the /market/data endpoint\n4. Integrate &amp; build!",
			FollowUp: "Need help with a specific API endpoint or integration?",
		},
	},
	{
		keywords: []string{"docs", "documentation", "document", "link", "url", "website", "guide", "manual", "reference"},
		answer: Answer{
			Response: "📚 <b>Documentation</b>\n\nThe docs cover:\n• Complete API reference\n• Integration guides\n• Code examples\n• Authentication setup\n• Rate limits &amp; best practices\n\n💡 The docs are your best friend for technical integration!",
			FollowUp: "Looking for anything specific in the docs? I can point you to the right section!",
		},
	},
	{
		keywords: []string{"start", "begin", "setup", "first time", "new", "tutorial"},
		answer: Answer{
			Response: "🎯 <b>Getting started</b>\n\n<b>Step 1:</b> Sign up for the free tier\n<b>Step 2:</b> Get your API key from the dashboard\n<b>Step 3:</b> Read the docs\n<b>Step 4:</b> Make your first API call\n<b>Step 5:</b> Build your application!\n\n💡 <b>Pro tip:</b> the free tier's 100K calls/month is perfect for testing!",
			FollowUp: "Would you like help with any specific step, or do you have questions about a particular use case?",
		},
	},
	{
		keywords: []string{"help", "support", "contact", "question", "issue", "problem"},
		answer: Answer{
			Response: "🆘 <b>Support</b>\n\n• Documentation and guides\n• Community chat\n• Direct email support channel\n• Issue tracker for technical bugs\n\n⚡ <b>Response time:</b> usually within 24 hours.\n\nOur team is here to help you succeed!",
			FollowUp: "What specific issue can I help you solve right now?",
		},
	},
	{
		keywords: []string{"use case", "example", "build", "application", "project"},
		answer: Answer{
			Response: "💡 <b>Popular use cases</b>\n\n<b>📱 Trading apps</b>\n• Real-time price data\n• Portfolio tracking\n\n<b>🏦 Dashboards</b>\n• Protocol metrics\n• Cross-source data\n\n<b>📊 Analytics platforms</b>\n• Historical analysis\n• Market research\n• Custom indicators",
			FollowUp: "What type of application are you planning to build?",
		},
	},
	{
		keywords: []string{"data", "historical", "real-time", "volume", "market cap"},
		answer: Answer{
			Response: "📊 <b>Data features</b>\n\n<b>🔴 Real-time:</b>\n• Live price feeds\n• WebSocket connections\n\n<b>📈 Historical:</b>\n• OHLCV data\n• Custom time intervals\n• Years of history\n\n<b>🌐 Coverage:</b>\n• 20M+ assets\n• Multiple sources, aggregated\n\n<b>⚡ Reliability:</b> 99.9% uptime.",
			FollowUp: "Need specific data for a particular asset or timeframe?",
		},
	},
}

// Lookup matches a free-text query against the keyword buckets. Queries
// that hit no bucket come back with NeedsHuman set.
func Lookup(query string) Answer {
	q := strings.ToLower(query)
	for _, b := range buckets {
		if containsAny(q, b.keywords) {
			return b.answer
		}
	}
	return Answer{NeedsHuman: true}
}

var suggestions = []string{
	"💡 Did you know? We cover 20M+ assets across multiple sources!",
	"🆓 Pro tip: start with the free tier - 100K API calls per month!",
	"📚 Check the documentation for the full API reference",
	"⚡ Need real-time data? Try the WebSocket feeds for instant updates",
	"📊 Looking for protocol data? We have comprehensive metrics",
	"💼 Need portfolio tracking? The Portfolio API handles multi-source balances",
}

// Suggestion returns one of the canned helpful tips. The random source
// is injected so tests can pin the selection.
func Suggestion(rng *rand.Rand) string {
	return suggestions[rng.Intn(len(suggestions))]
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
