package gemini

import (
	"strings"

	"github.com/stockbox/backend/internal/domain"
)

// generateContent request body.
type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
	Tools             []tool           `json:"tools,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      float64        `json:"temperature"`
	TopK             int            `json:"topK,omitempty"`
	TopP             float64        `json:"topP,omitempty"`
	MaxOutputTokens  int            `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type tool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

// generateContent response body; only the fields we read.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func newGenerateRequest(req domain.GenerationRequest) generateRequest {
	parts := []part{{Text: req.Content}}
	if req.Image != nil && len(req.Image.Data) > 0 {
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: req.Image.MIMEType,
			Data:     req.Image.Base64(),
		}})
	}

	body := generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			Temperature:      req.Config.Temperature,
			TopK:             req.Config.TopK,
			TopP:             req.Config.TopP,
			MaxOutputTokens:  req.Config.MaxOutputTokens,
			ResponseMimeType: req.Config.ResponseMIMEType,
			ResponseSchema:   req.Config.ResponseSchema,
		},
	}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.SystemInstruction}}}
	}
	if req.Config.EnableSearch {
		body.Tools = []tool{{GoogleSearch: &struct{}{}}}
	}
	return body
}

// text concatenates the first candidate's parts. ok is false when the
// response carries no candidate text at all.
func (r *generateResponse) text() (string, bool) {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return "", false
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), true
}
