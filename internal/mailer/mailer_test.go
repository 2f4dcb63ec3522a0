package mailer

import (
	"testing"

	"github.com/Gwonyeong/doll-backend/internal/domain/reports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDailyReport(t *testing.T) {
	subject, body, err := Render(DailyReportTemplate, map[string]any{
		"Name": "ops",
		"Date": "2026-10-17",
		"Summary": reports.Summary{
			NewUsers:      4,
			NewReviews:    9,
			AverageRating: 3.5,
			Revenue:       33000,
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "[Doll Map] Daily report 2026-10-17", subject)
	assert.Contains(t, body, "Hi ops,")
	assert.Contains(t, body, "<td>4</td>")
	assert.Contains(t, body, "3.50")
	assert.Contains(t, body, "33000 won")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := Render("missing.tmpl", nil)

	assert.Error(t, err)
}

func TestNewSMTPClientValidates(t *testing.T) {
	_, err := NewSMTPClient("", 587, "u", "p", "ops@example.com")
	assert.Error(t, err)

	_, err = NewSMTPClient("smtp.example.com", 587, "u", "p", "")
	assert.Error(t, err)

	c, err := NewSMTPClient("smtp.example.com", 587, "u", "p", "ops@example.com")
	require.NoError(t, err)
	assert.NotNil(t, c)
}
