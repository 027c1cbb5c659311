package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/lead-agent/internal/model"
)

func TestValidate_RequiredFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     model.RawLead
		wantErr []string
	}{
		{
			name:    "empty input fails both checks",
			raw:     model.RawLead{},
			wantErr: []string{ErrEmailRequired, ErrTelegramRequired},
		},
		{
			name:    "missing email",
			raw:     model.RawLead{TelegramID: "user1"},
			wantErr: []string{ErrEmailRequired},
		},
		{
			name:    "malformed email",
			raw:     model.RawLead{Email: "not-an-email", TelegramID: "user1"},
			wantErr: []string{ErrEmailRequired},
		},
		{
			name:    "email with display name rejected",
			raw:     model.RawLead{Email: "Alice <alice@acme.com>", TelegramID: "user1"},
			wantErr: []string{ErrEmailRequired},
		},
		{
			name:    "missing telegram handle",
			raw:     model.RawLead{Email: "alice@acme.com"},
			wantErr: []string{ErrTelegramRequired},
		},
		{
			name: "valid minimal lead",
			raw:  model.RawLead{Email: "alice@acme.com", TelegramID: "user1"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := Validate(tt.raw)
			assert.Equal(t, len(tt.wantErr) == 0, res.IsValid)
			assert.Equal(t, tt.wantErr, res.Errors)
		})
	}
}

func TestValidate_CleanedSurvivesInvalidInput(t *testing.T) {
	t.Parallel()

	res := Validate(model.RawLead{Name: "Alice", Company: "Acme"})
	assert.False(t, res.IsValid)
	assert.Equal(t, "Alice", res.Cleaned.Name)
	assert.Equal(t, "Acme", res.Cleaned.Company)
}

func TestValidate_TelegramHandle(t *testing.T) {
	t.Parallel()

	t.Run("leading @ stripped", func(t *testing.T) {
		t.Parallel()
		res := Validate(model.RawLead{Email: "a@b.com", TelegramID: "@alice"})
		assert.Equal(t, "alice", res.Cleaned.TelegramID)
	})

	t.Run("numeric id accepted verbatim", func(t *testing.T) {
		t.Parallel()
		res := Validate(model.RawLead{Email: "a@b.com", TelegramID: "1194123244"})
		assert.Equal(t, "1194123244", res.Cleaned.TelegramID)
	})
}

func TestValidate_Phone(t *testing.T) {
	t.Parallel()

	t.Run("formatting stripped", func(t *testing.T) {
		t.Parallel()
		res := Validate(model.RawLead{Email: "a@b.com", TelegramID: "u", Phone: "+1 (555) 123-4567"})
		assert.Equal(t, "15551234567", res.Cleaned.Phone)
	})

	t.Run("short numbers dropped silently", func(t *testing.T) {
		t.Parallel()
		res := Validate(model.RawLead{Email: "a@b.com", TelegramID: "u", Phone: "555-1234"})
		assert.True(t, res.IsValid)
		assert.Empty(t, res.Cleaned.Phone)
	})
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Alice@Acme.COM", "alice@acme.com"},
		{"a.l.i.c.e@gmail.com", "alice@gmail.com"},
		{"alice+leads@gmail.com", "alice@gmail.com"},
		{"alice@googlemail.com", "alice@gmail.com"},
		{"a.lice+x@acme.com", "a.lice+x@acme.com"}, // non-gmail untouched
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEmail(tt.in), tt.in)
	}
}

func TestEscape_Idempotent(t *testing.T) {
	t.Parallel()

	res := Validate(model.RawLead{Email: "a@b.com", TelegramID: "u", Name: `<b onload="x">Acme & Co</b>`})
	escaped := res.Cleaned.Name
	assert.NotContains(t, escaped, "<")

	// Re-validating the escaped output must be a no-op.
	again := Validate(model.RawLead{Email: "a@b.com", TelegramID: "u", Name: escaped})
	assert.Equal(t, escaped, again.Cleaned.Name)
}
