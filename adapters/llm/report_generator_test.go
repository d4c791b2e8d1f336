package llm

import (
	"context"
	"errors"
	"testing"

	"schoolresults/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []models.ResultRow {
	return []models.ResultRow{
		{Name: "Ada Obi", Subject: "Mathematics", Percentage: 88, Term: "First Term", Session: "2024/2025"},
		{Name: "Ada Obi", Subject: "English", Percentage: 64, Term: "First Term", Session: "2024/2025"},
	}
}

func TestGenerateStudentReport(t *testing.T) {
	mock := &MockLLMClient{Response: "A strong start to the session."}
	gen := NewReportGeneratorWithClient(Config{Model: "llama-3.3-70b-versatile"}, mock)

	report, err := gen.GenerateStudentReport(context.Background(), sampleRows())
	require.NoError(t, err)
	assert.Equal(t, "A strong start to the session.", report)

	require.Len(t, mock.Prompts, 1)
	prompt := mock.Prompts[0]
	assert.Contains(t, prompt, "Ada Obi")
	assert.Contains(t, prompt, "- Mathematics: 88%")
	assert.Contains(t, prompt, "First Term (2024/2025)")
	assert.Contains(t, prompt, "Average Score: 76.0%")
}

func TestGenerateStudentReportEmptyInput(t *testing.T) {
	gen := NewReportGeneratorWithClient(Config{}, &MockLLMClient{})

	report, err := gen.GenerateStudentReport(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, FallbackNoResults, report)
}

func TestGenerateStudentReportEmptyReply(t *testing.T) {
	gen := NewReportGeneratorWithClient(Config{}, &MockLLMClient{Response: "  "})

	report, err := gen.GenerateStudentReport(context.Background(), sampleRows())
	require.NoError(t, err)
	assert.Equal(t, FallbackEmptyReply, report)
}

func TestGenerateStudentReportFailureFallbacks(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"decommissioned", errors.New("groq http 400: model_decommissioned"), FallbackUpdating},
		{"rate limited", errors.New("groq http 429: rate_limit_exceeded"), FallbackHighDemand},
		{"bad key", errors.New("groq http 401: invalid api_key"), FallbackConfig},
		{"anything else", errors.New("connection refused"), FallbackUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := NewReportGeneratorWithClient(Config{}, &MockLLMClient{Error: tc.err})

			report, err := gen.GenerateStudentReport(context.Background(), sampleRows())
			require.NoError(t, err, "provider failures must never propagate")
			assert.Equal(t, tc.want, report)
		})
	}
}
