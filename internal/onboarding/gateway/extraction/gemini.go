// Package extraction turns document images into structured field sets using
// Gemini vision models on Vertex AI, and interprets free-text corrections
// against a field subset in text mode.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"bankassist/internal/onboarding/models"
	"bankassist/pkg/platform/sentinel"
)

const modelName = "gemini-2.5-flash"

// Gemini holds one pre-configured generative model per extraction task.
type Gemini struct {
	vision     *genai.GenerativeModel
	correction *genai.GenerativeModel
	baseClient *genai.Client
}

// NewGemini creates the gateway. All models force JSON output at
// temperature 0 so responses stay machine-parseable and deterministic.
func NewGemini(ctx context.Context, projectID, region string) (*Gemini, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewGemini: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	vision := baseClient.GenerativeModel(modelName)
	vision.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}

	correction := baseClient.GenerativeModel(modelName)
	correction.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(correctionSystemPrompt)},
	}
	correction.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}

	return &Gemini{vision: vision, correction: correction, baseClient: baseClient}, nil
}

func (g *Gemini) Close() error {
	if g.baseClient != nil {
		return g.baseClient.Close()
	}
	return nil
}

// Extract runs the vision model for the given document kind. Network and
// model failures surface as sentinel.ErrUnavailable so the state machine
// treats them as transient.
func (g *Gemini) Extract(ctx context.Context, kind models.ExtractKind, image []byte) (*models.ExtractedRecord, error) {
	prompt, err := promptFor(kind)
	if err != nil {
		return nil, err
	}

	resp, err := g.vision.GenerateContent(ctx, genai.Text(prompt), genai.ImageData("jpeg", image))
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w: %w", kind, sentinel.ErrUnavailable, err)
	}

	raw, err := parseJSONResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w: %w", kind, sentinel.ErrUnavailable, err)
	}

	return toRecord(kind, raw), nil
}

// InterpretCorrection asks the text model which fields of the current subset
// the user wants changed. The returned patch names only those fields; the
// caller merges it, preserving everything else.
func (g *Gemini) InterpretCorrection(ctx context.Context, current map[string]string, message string) (map[string]string, error) {
	currentJSON, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode current subset: %w", err)
	}

	prompt := fmt.Sprintf(correctionPromptTemplate, currentJSON, message)
	resp, err := g.correction.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("interpret correction: %w: %w", sentinel.ErrUnavailable, err)
	}

	raw, err := parseJSONResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("interpret correction: %w: %w", sentinel.ErrUnavailable, err)
	}

	patch := make(map[string]string, len(raw))
	for key, value := range raw {
		// Unknown keys are dropped rather than merged: the interpreter
		// must never patch a field outside the active subset.
		if _, ok := current[key]; !ok {
			continue
		}
		if s, ok := value.(string); ok {
			patch[key] = s
		}
	}
	return patch, nil
}

func promptFor(kind models.ExtractKind) (string, error) {
	switch kind {
	case models.ExtractIDFront:
		return idFrontPrompt, nil
	case models.ExtractIDBack:
		return idBackPrompt, nil
	case models.ExtractTaxCard:
		return taxCardPrompt, nil
	}
	return "", fmt.Errorf("unknown extract kind %q", kind)
}

var classificationFlag = map[models.ExtractKind]string{
	models.ExtractIDFront: "is_id_card",
	models.ExtractIDBack:  "is_id_back",
	models.ExtractTaxCard: "is_tax_card",
}

// toRecord maps the model's JSON object onto the typed record. Null and
// non-string values become empty fields.
func toRecord(kind models.ExtractKind, raw map[string]any) *models.ExtractedRecord {
	record := &models.ExtractedRecord{Kind: kind, Fields: make(map[string]string)}
	if valid, ok := raw[classificationFlag[kind]].(bool); ok {
		record.Valid = valid
	}
	for key, value := range raw {
		if s, ok := value.(string); ok {
			record.Fields[key] = s
		}
	}
	delete(record.Fields, classificationFlag[kind])
	return record
}

// parseJSONResponse extracts the first candidate's text and unmarshals it,
// tolerating markdown code fences some model versions still emit.
func parseJSONResponse(resp *genai.GenerateContentResponse) (map[string]any, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("model returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	text := strings.TrimSpace(sb.String())
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	return raw, nil
}
