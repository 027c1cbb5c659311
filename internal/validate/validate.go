// Package validate normalizes and rejects malformed raw lead input.
//
// Rules are independent: errors accumulate rather than short-circuit,
// and Cleaned always carries whatever fields passed their checks.
package validate

import (
	"html"
	"net/mail"
	"strings"

	"github.com/sells-group/lead-agent/internal/model"
)

const (
	// ErrEmailRequired is surfaced when the email is missing or malformed.
	ErrEmailRequired = "Valid email is required"
	// ErrTelegramRequired is surfaced when the messaging handle is missing.
	ErrTelegramRequired = "Telegram ID is required"
)

// minPhoneDigits is the shortest phone number worth keeping.
const minPhoneDigits = 10

// Validate checks a raw lead and returns the accumulated errors plus the
// cleaned fields. Callers must check IsValid before acting on Cleaned.
func Validate(raw model.RawLead) model.ValidationResult {
	var res model.ValidationResult

	email := strings.TrimSpace(raw.Email)
	if email == "" || !isEmail(email) {
		res.Errors = append(res.Errors, ErrEmailRequired)
	} else {
		res.Cleaned.Email = NormalizeEmail(email)
	}

	if v := strings.TrimSpace(raw.Name); v != "" {
		res.Cleaned.Name = escapeText(v)
	}
	if v := strings.TrimSpace(raw.Company); v != "" {
		res.Cleaned.Company = escapeText(v)
	}

	if digits := digitsOnly(raw.Phone); len(digits) >= minPhoneDigits {
		res.Cleaned.Phone = digits
	}

	handle := strings.TrimSpace(raw.TelegramID)
	if handle == "" {
		res.Errors = append(res.Errors, ErrTelegramRequired)
	} else {
		res.Cleaned.TelegramID = strings.TrimPrefix(handle, "@")
	}

	if v := strings.TrimSpace(raw.Source); v != "" {
		res.Cleaned.Source = escapeText(v)
	}
	if v := strings.TrimSpace(raw.UTMSource); v != "" {
		res.Cleaned.UTMSource = escapeText(v)
	}
	if v := strings.TrimSpace(raw.UTMMedium); v != "" {
		res.Cleaned.UTMMedium = escapeText(v)
	}
	if v := strings.TrimSpace(raw.UTMCampaign); v != "" {
		res.Cleaned.UTMCampaign = escapeText(v)
	}

	res.IsValid = len(res.Errors) == 0
	return res
}

// isEmail reports whether s is a plain, syntactically valid address.
// Display names ("A <a@b.com>") are rejected; the form posts a bare
// address or nothing.
func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	domain := s[at+1:]
	return strings.Contains(domain, ".")
}

// NormalizeEmail lowercases an address and canonicalizes well-known
// provider aliases: gmail addresses drop dots and +suffixes in the
// local part, and googlemail.com folds into gmail.com. The normalized
// form is what dedup keys on.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	local, domain := email[:at], email[at+1:]

	if domain == "gmail.com" || domain == "googlemail.com" {
		if plus := strings.Index(local, "+"); plus >= 0 {
			local = local[:plus]
		}
		local = strings.ReplaceAll(local, ".", "")
		domain = "gmail.com"
	}

	return local + "@" + domain
}

// escapeText neutralizes markup before the value reaches rich-text
// messages downstream. Unescaping first keeps the operation idempotent.
func escapeText(s string) string {
	return html.EscapeString(html.UnescapeString(s))
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
