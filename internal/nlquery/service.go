// Package nlquery turns natural-language questions into validated, read-only
// SQL executed against a tenant's schema.
//
// Generation is grounded on per-tenant training items (schema DDL, curated
// question/SQL pairs, documentation) assembled into the model prompt. Any SQL
// the model returns is cleaned and validated before touching the database.
package nlquery

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/polishedlabs/salonpulse/internal/database"
	"github.com/polishedlabs/salonpulse/pkg/cache"
	"github.com/polishedlabs/salonpulse/pkg/models"
)

const maxResultRows = 1000

// Service generates and executes natural-language queries for tenants.
type Service struct {
	db    *database.DB
	cache *cache.Cache
	llm   *openai.Client
	model string
}

// NewService creates the NL query service. baseURL points at any
// OpenAI-compatible endpoint, including a local Ollama server.
func NewService(db *database.DB, c *cache.Cache, baseURL, apiKey, model string) *Service {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &Service{
		db:    db,
		cache: c,
		llm:   openai.NewClientWithConfig(cfg),
		model: model,
	}
}

// Result is the outcome of one natural-language query.
type Result struct {
	QueryID         uuid.UUID        `json:"query_id"`
	Question        string           `json:"question"`
	SQL             string           `json:"sql"`
	Rows            []map[string]any `json:"rows,omitempty"`
	RowCount        int              `json:"row_count"`
	ExecutionTimeMs float64          `json:"execution_time_ms"`
	Cached          bool             `json:"cached"`
}

// Ask answers a natural-language question for a tenant. When execute is false
// only the generated SQL is returned; no statement runs.
func (s *Service) Ask(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, question string, execute bool) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("nlquery: empty question")
	}

	if execute {
		if cached := s.lookupCache(ctx, tenantID, question); cached != nil {
			return cached, nil
		}
	}

	sql, err := s.generateSQL(ctx, tenantID, question)
	if err != nil {
		return nil, err
	}

	res := &Result{
		QueryID:  uuid.New(),
		Question: question,
		SQL:      sql,
	}

	record := &models.QueryRecord{
		QueryID:      res.QueryID,
		TenantID:     tenantID,
		UserID:       userID,
		Question:     question,
		GeneratedSQL: sql,
	}

	if execute {
		start := time.Now()
		rows, err := s.executeRows(ctx, tenantID, sql)
		elapsed := float64(time.Since(start).Microseconds()) / 1000.0
		if err != nil {
			record.ErrorMessage = err.Error()
			if dbErr := s.db.InsertQueryRecord(ctx, record); dbErr != nil {
				log.Printf("[WARN] nlquery: failed to record failed query: %v", dbErr)
			}
			return nil, fmt.Errorf("nlquery: executing query: %w", err)
		}

		res.Rows = rows
		res.RowCount = len(rows)
		res.ExecutionTimeMs = elapsed

		record.WasExecuted = true
		record.ExecutionTimeMs = &elapsed
		record.RowCount = &res.RowCount

		s.storeCache(ctx, tenantID, question, res)
	}

	if err := s.db.InsertQueryRecord(ctx, record); err != nil {
		log.Printf("[WARN] nlquery: failed to record query: %v", err)
	}

	return res, nil
}

// generateSQL asks the model for SQL and validates the answer.
func (s *Service) generateSQL(ctx context.Context, tenantID uuid.UUID, question string) (string, error) {
	prompt, err := s.buildPrompt(ctx, tenantID)
	if err != nil {
		return "", err
	}

	resp, err := s.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
	})
	if err != nil {
		return "", fmt.Errorf("nlquery: LLM request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("nlquery: LLM returned no choices")
	}

	sql := CleanSQL(resp.Choices[0].Message.Content)
	if err := ValidateSQL(sql); err != nil {
		return "", err
	}
	return sql, nil
}

// buildPrompt assembles the system prompt from the tenant's training items.
func (s *Service) buildPrompt(ctx context.Context, tenantID uuid.UUID) (string, error) {
	items, err := s.db.ListTrainingItems(ctx, tenantID, "")
	if err != nil {
		return "", fmt.Errorf("nlquery: loading training data: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a PostgreSQL expert for a nail salon business. ")
	b.WriteString("Answer the user's question with a single read-only SELECT statement. ")
	b.WriteString("Return only SQL, no explanation and no markdown fences.\n")

	var ddl, docs, examples []models.TrainingItem
	for _, item := range items {
		switch item.Kind {
		case models.TrainingDDL:
			ddl = append(ddl, item)
		case models.TrainingDocumentation:
			docs = append(docs, item)
		case models.TrainingQuestionSQL:
			examples = append(examples, item)
		}
	}

	if len(ddl) > 0 {
		b.WriteString("\nDatabase schema:\n")
		for _, item := range ddl {
			b.WriteString(item.Content)
			b.WriteString("\n")
		}
	}
	if len(docs) > 0 {
		b.WriteString("\nBusiness context:\n")
		for _, item := range docs {
			b.WriteString("- ")
			b.WriteString(item.Content)
			b.WriteString("\n")
		}
	}
	if len(examples) > 0 {
		b.WriteString("\nExample queries:\n")
		for _, item := range examples {
			fmt.Fprintf(&b, "Question: %s\nSQL: %s\n", item.Question, item.Content)
		}
	}

	return b.String(), nil
}

// executeRows runs validated SQL on the tenant's schema and returns rows as
// column-name maps so arbitrary result shapes serialize cleanly to JSON.
func (s *Service) executeRows(ctx context.Context, tenantID uuid.UUID, sql string) ([]map[string]any, error) {
	tc, err := s.db.AcquireTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	rows, err := tc.Conn.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	results := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("reading row values: %w", err)
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[string(fd.Name)] = values[i]
		}
		results = append(results, row)
		if len(results) >= maxResultRows {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) lookupCache(ctx context.Context, tenantID uuid.UUID, question string) *Result {
	if s.cache == nil {
		return nil
	}
	key := cache.QueryKey(tenantID.String(), question)
	raw, err := s.cache.Get(ctx, key)
	if err != nil || raw == "" {
		return nil
	}
	var res Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		log.Printf("[WARN] nlquery: dropping corrupt cache entry %s: %v", key, err)
		_ = s.cache.Delete(ctx, key)
		return nil
	}
	res.Cached = true
	return &res
}

func (s *Service) storeCache(ctx context.Context, tenantID uuid.UUID, question string, res *Result) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	key := cache.QueryKey(tenantID.String(), question)
	if err := s.cache.Set(ctx, key, string(raw), cache.QueryResultTTL); err != nil {
		log.Printf("[WARN] nlquery: failed to cache result: %v", err)
	}
}
