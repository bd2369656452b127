// Package extract produces a structured clinical record from a visit
// transcript. The primary path asks the Anthropic API to fill a tool
// schema; when the model is unreachable or unparseable a keyword
// fallback produces a degraded record instead of failing the visit.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/alkime/intake/internal/clinical"
)

// Result is the outcome of one extraction. Fallback and Warnings mark a
// degraded result; ValidationErrors list fields the caller should have
// the operator double-check. A degraded result is still a success.
type Result struct {
	Record           clinical.Record
	Fallback         bool
	Warnings         []string
	ValidationErrors []string
}

// Extractor produces a clinical record from transcript text.
type Extractor interface {
	Extract(ctx context.Context, transcript string) (*Result, error)
}

// Client extracts clinical data via Anthropic tool use, falling back to
// keyword matching when the model path is unavailable.
type Client struct {
	apiKey string
	model  anthropic.Model
	logger *slog.Logger
}

// NewClient creates a new extraction client. An empty API key is
// allowed; every extraction then takes the fallback path.
func NewClient(apiKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		apiKey: apiKey,
		model:  anthropic.ModelClaudeSonnet4_5_20250929,
		logger: logger,
	}
}

// getClinicalDataTool returns the tool definition for structured
// clinical-data output.
func getClinicalDataTool() anthropic.ToolParam {
	stringProp := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "string", "description": desc}
	}

	return anthropic.ToolParam{
		Name: "save_clinical_data",
		Description: anthropic.String(
			"Save the clinical data extracted from the emergency visit transcript",
		),
		InputSchema: anthropic.ToolInputSchemaParam{
			Type: "object",
			Properties: map[string]interface{}{
				"patient_data": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"first_name":  stringProp("Patient first name"),
						"last_name":   stringProp("Patient last name"),
						"age":         stringProp("Patient age in years"),
						"gender":      stringProp("Patient gender"),
						"birth_date":  stringProp("Birth date if mentioned"),
						"birth_place": stringProp("Birth place if mentioned"),
						"phone":       stringProp("Contact phone if mentioned"),
						"access_mode": stringProp("How the patient arrived, e.g. ambulance, walk-in"),
					},
				},
				"vital_signs": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"heart_rate":     stringProp("Heart rate with unit, e.g. 80 bpm"),
						"blood_pressure": stringProp("Blood pressure, e.g. 120/80 mmHg"),
						"temperature":    stringProp("Body temperature with unit"),
						"oxygenation":    stringProp("Oxygen saturation, e.g. 98%"),
						"blood_glucose":  stringProp("Blood glucose with unit"),
					},
				},
				"clinical_assessment": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"history":           stringProp("Relevant medical history"),
						"medications_taken": stringProp("Medications the patient is taking"),
						"symptoms":          stringProp("Presenting symptoms"),
						"medical_actions":   stringProp("Actions performed during the visit"),
						"plan":              stringProp("Treatment or follow-up plan"),
						"triage_code":       stringProp("Triage color: bianco, verde, giallo, rosso or nero. Empty if not stated."),
					},
				},
				"notes": stringProp("Anything clinically relevant that fits no other field"),
			},
			Required: []string{"patient_data", "vital_signs", "clinical_assessment"},
		},
	}
}

// Extract asks the model to fill the clinical-data tool schema. Model or
// parse failures degrade to the keyword fallback rather than erroring:
// the operator reviews every field anyway.
func (c *Client) Extract(ctx context.Context, transcript string) (*Result, error) {
	if transcript == "" {
		return nil, errors.New("transcript text required")
	}

	if c.apiKey == "" {
		c.logger.Warn("no extraction API key configured, using keyword fallback")
		return fallbackExtract(transcript, "extraction model not configured, keyword fallback used"), nil
	}

	record, err := c.extractViaModel(ctx, transcript)
	if err != nil {
		c.logger.Warn("model extraction failed, using keyword fallback", "error", err)
		return fallbackExtract(transcript, fmt.Sprintf("extraction model unavailable (%v), keyword fallback used", err)), nil
	}

	result := &Result{Record: *record}
	result.ValidationErrors = validateRecord(record)

	return result, nil
}

func (c *Client) extractViaModel(ctx context.Context, transcript string) (*clinical.Record, error) {
	client := anthropic.NewClient(option.WithAPIKey(c.apiKey))
	toolDef := getClinicalDataTool()

	tool := anthropic.ToolUnionParamOfTool(toolDef.InputSchema, toolDef.Name)
	tool.OfTool.Description = toolDef.Description

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: ClinicalExtractionSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(transcript)),
		},
		Tools:      []anthropic.ToolUnionParam{tool},
		ToolChoice: anthropic.ToolChoiceParamOfTool("save_clinical_data"),
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to extract clinical data via Anthropic API: %w", err)
	}

	if len(resp.Content) == 0 {
		return nil, errors.New("empty response from Anthropic API")
	}

	return parseClinicalToolUse(resp.Content)
}

// parseClinicalToolUse extracts the clinical record from response
// content blocks.
func parseClinicalToolUse(content []anthropic.ContentBlockUnion) (*clinical.Record, error) {
	for _, block := range content {
		if toolUse, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			var record clinical.Record
			inputBytes, err := json.Marshal(toolUse.Input)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal tool input: %w", err)
			}
			if err := json.Unmarshal(inputBytes, &record); err != nil {
				return nil, fmt.Errorf("failed to parse tool input: %w", err)
			}

			// Model output uses the same aliases operators do.
			code, err := clinical.ParseTriageCode(string(record.Assessment.TriageCode))
			if err != nil {
				record.Assessment.TriageCode = ""
			} else {
				record.Assessment.TriageCode = code
			}

			return &record, nil
		}
	}

	return nil, errors.New("no tool use found in Anthropic API response")
}

// validateRecord flags fields the operator should verify before the
// record is persisted.
func validateRecord(rec *clinical.Record) []string {
	var errs []string

	if rec.Assessment.Symptoms == "" {
		errs = append(errs, "no symptoms identified in transcript")
	}
	if rec.Patient.FirstName == "" && rec.Patient.LastName == "" {
		errs = append(errs, "patient name not found in transcript")
	}

	return errs
}
