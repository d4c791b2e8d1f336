package llm

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"schoolresults/models"
	"schoolresults/ports"

	"gonum.org/v1/gonum/stat"
)

// Config holds narrative-report adapter configuration
type Config struct {
	Model       string        // e.g., "llama-3.3-70b-versatile"
	APIKey      string        // Groq API key
	BaseURL     string        // Optional override (default: https://api.groq.com/openai/v1)
	Temperature float64       // 0.0-1.0, lower = more deterministic
	MaxTokens   int           // Max tokens in response
	Timeout     time.Duration // Request timeout
}

// User-facing fallback strings. Service-level failures never surface raw
// provider errors to students.
const (
	FallbackNoResults   = "No results available to generate a report."
	FallbackEmptyPrompt = "Unable to build prompt from provided results."
	FallbackEmptyReply  = "The model returned an empty response."
	FallbackUpdating    = "The analysis service is currently being updated. Please try again shortly."
	FallbackHighDemand  = "Analysis service is experiencing high demand. Please try again in a few moments."
	FallbackConfig      = "Analysis service configuration error. Please contact your administrator."
	FallbackUnavailable = "Unable to generate performance analysis at this time. Please try again later."
)

const systemPrompt = `You are an experienced academic advisor with expertise in educational psychology and student development.
Your role is to provide insightful, evidence-based academic performance analyses that are:
- Objective and data-driven
- Encouraging yet honest
- Actionable and practical
- Tailored to individual student needs
- Written in clear, professional language

Focus on helping students understand their performance and providing concrete steps for improvement.`

// ReportGeneratorAdapter implements ports.ReportGenerator using an LLM
type ReportGeneratorAdapter struct {
	config Config
	client LLMClient
}

var _ ports.ReportGenerator = (*ReportGeneratorAdapter)(nil)

// NewReportGenerator creates a new narrative-report adapter
func NewReportGenerator(config Config) (*ReportGeneratorAdapter, error) {
	client, err := newLLMClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return &ReportGeneratorAdapter{config: config, client: client}, nil
}

// NewReportGeneratorWithClient creates an adapter around an existing client
func NewReportGeneratorWithClient(config Config, client LLMClient) *ReportGeneratorAdapter {
	return &ReportGeneratorAdapter{config: config, client: client}
}

// GenerateStudentReport produces a narrative performance summary for the
// given rows. Provider failures are absorbed into fixed fallback strings; the
// returned error is always nil so a flaky provider cannot break the read path.
func (g *ReportGeneratorAdapter) GenerateStudentReport(ctx context.Context, rows []models.ResultRow) (string, error) {
	if len(rows) == 0 {
		return FallbackNoResults, nil
	}

	prompt := buildPrompt(rows)
	if prompt == "" {
		return FallbackEmptyPrompt, nil
	}

	content, err := g.client.ChatCompletion(ctx, g.config.Model, systemPrompt, prompt, g.config.MaxTokens)
	if err != nil {
		log.Printf("[Report] generation failed: %v", err)
		return classifyFailure(err), nil
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return FallbackEmptyReply, nil
	}
	return content, nil
}

// classifyFailure maps provider errors onto user-facing fallback strings.
func classifyFailure(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "model_decommissioned"):
		return FallbackUpdating
	case strings.Contains(msg, "rate_limit"):
		return FallbackHighDemand
	case strings.Contains(msg, "api_key") || strings.Contains(msg, "api key"):
		return FallbackConfig
	default:
		return FallbackUnavailable
	}
}

// buildPrompt assembles the analysis prompt from the student's rows: a
// summary block with subject count and average/high/low scores, the detailed
// per-subject list, and the sections the report must cover.
func buildPrompt(rows []models.ResultRow) string {
	studentName := ""
	var subjectLines []string
	var percentages []float64
	termSessions := make(map[string]bool)

	for _, r := range rows {
		if studentName == "" && r.Name != "" {
			studentName = r.Name
		}
		if r.Subject != "" {
			subjectLines = append(subjectLines, fmt.Sprintf("- %s: %g%%", r.Subject, r.Percentage))
		}
		percentages = append(percentages, r.Percentage)
		if r.Term != "" && r.Session != "" {
			termSessions[fmt.Sprintf("%s (%s)", r.Term, r.Session)] = true
		}
	}

	if len(percentages) == 0 {
		return ""
	}

	avg := stat.Mean(percentages, nil)
	highest, lowest := percentages[0], percentages[0]
	for _, p := range percentages[1:] {
		if p > highest {
			highest = p
		}
		if p < lowest {
			lowest = p
		}
	}

	periods := make([]string, 0, len(termSessions))
	for ts := range termSessions {
		periods = append(periods, ts)
	}
	sort.Strings(periods)
	period := "Current Session"
	if len(periods) > 0 {
		period = strings.Join(periods, ", ")
	}

	if studentName == "" {
		studentName = "the student"
	}

	return fmt.Sprintf(`Analyze the following academic performance for %s:

ACADEMIC PERIOD:
%s

PERFORMANCE SUMMARY:
- Subjects Taken: %d
- Average Score: %.1f%%
- Highest Score: %g%%
- Lowest Score: %g%%

DETAILED SUBJECT SCORES:
%s

REQUIRED ANALYSIS:
Provide a comprehensive academic performance report covering:

1. OVERALL PERFORMANCE: Assess the student's general academic standing based on the average score and score distribution.

2. SUBJECT STRENGTHS: Identify top-performing subjects (scores >= 70%%) and explain what these reveal about the student's aptitudes.

3. AREAS FOR IMPROVEMENT: Highlight subjects needing attention (scores < 50%%) and discuss potential underlying challenges.

4. PERFORMANCE PATTERNS: Note any significant gaps between highest and lowest scores, consistency across subjects, or concerning trends.

5. ACTIONABLE RECOMMENDATIONS: Provide 3-4 specific, practical strategies for improvement including study techniques for weaker subjects, time management advice, resource suggestions, and a motivational approach.

6. ENCOURAGEMENT: End with a motivating statement that acknowledges efforts and builds confidence.

Write in a professional yet encouraging tone. Use complete paragraphs, not bullet points. Be specific and reference actual scores where relevant.`,
		studentName, period, len(percentages), avg, highest, lowest, strings.Join(subjectLines, "\n"))
}
