package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// GeneratedQuery is the structured output of natural-language-to-SQL
// translation.
type GeneratedQuery struct {
	Query       string `json:"query"`
	Explanation string `json:"explanation"`
}

// QueryGenerator translates natural-language questions into SQL using
// a chat completion client and a schema context document.
type QueryGenerator struct {
	client Client
	logger *slog.Logger
}

// NewQueryGenerator creates a query generator. If logger is nil, a
// discard logger is used.
func NewQueryGenerator(client Client, logger *slog.Logger) *QueryGenerator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &QueryGenerator{client: client, logger: logger}
}

const queryGenSystemPrompt = `You are an expert SQL analyst. Given a database schema and a question,
write a single SQL query in the %s dialect that answers the question.

Rules:
- Return ONLY a JSON object with exactly two keys: "query" and "explanation".
- "query" is the SQL statement. "explanation" is one or two sentences describing what it does.
- Use only tables and columns that appear in the schema.
- Prefer explicit column lists over SELECT *.
- Do not include DDL or DML; the query must be read-only.
- Do not wrap the JSON in markdown fences.`

// Generate produces a SQL query for the question against the given
// schema context. dialect names the target SQL dialect, e.g. "duckdb".
func (g *QueryGenerator) Generate(ctx context.Context, question, schemaContext, dialect string) (*GeneratedQuery, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question must not be empty")
	}

	messages := []Message{
		{Role: "system", Content: fmt.Sprintf(queryGenSystemPrompt, dialect)},
		{Role: "user", Content: fmt.Sprintf("Schema:\n%s\n\nQuestion: %s", schemaContext, question)},
	}

	text, err := g.client.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("query generation failed: %w", err)
	}

	gq, err := parseGeneratedQuery(text)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("generated query", slog.String("sql", gq.Query))
	return gq, nil
}

// Explain asks the completion provider for a plain-language
// explanation of a SQL query.
func (g *QueryGenerator) Explain(ctx context.Context, sqlQuery string) (string, error) {
	messages := []Message{
		{Role: "system", Content: "You are a SQL tutor. Explain the given query in plain language, in at most three sentences."},
		{Role: "user", Content: sqlQuery},
	}
	text, err := g.client.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("query explanation failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// parseGeneratedQuery decodes the completion output into a
// GeneratedQuery, tolerating markdown fences and surrounding prose. A
// response that is bare SQL rather than JSON is accepted as the query
// with an empty explanation.
func parseGeneratedQuery(text string) (*GeneratedQuery, error) {
	candidate, ok := ExtractJSONObject(text)
	if ok {
		var gq GeneratedQuery
		if err := json.Unmarshal([]byte(candidate), &gq); err == nil && strings.TrimSpace(gq.Query) != "" {
			gq.Query = strings.TrimSpace(gq.Query)
			return &gq, nil
		}
	}

	stripped := stripFences(text)
	if looksLikeSQL(stripped) {
		return &GeneratedQuery{Query: stripped}, nil
	}
	return nil, fmt.Errorf("completion output contained no usable query")
}

func looksLikeSQL(s string) bool {
	upper := strings.ToUpper(strings.TrimSpace(s))
	return strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "WITH")
}
