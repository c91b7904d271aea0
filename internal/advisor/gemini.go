package advisor

import (
	"context"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// gemini calls the Gemini API with a JSON response schema.
type gemini struct {
	client *genai.Client
	model  string
}

func newGemini(ctx context.Context, apiKey, model, baseURL string, httpClient *http.Client) (*gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &gemini{client: client, model: model}, nil
}

func (g *gemini) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   reportSchema,
	})
	if err != nil {
		return "", err
	}
	return collectGeminiText(resp), nil
}

// credentialRejected matches the API's messages for a bad key, which arrive
// as 400 INVALID_ARGUMENT rather than 401.
func (g *gemini) credentialRejected(err error) bool {
	msg := err.Error()
	for _, s := range []string{"API key not valid", "API_KEY_INVALID", "Error 400", "Error 401", "Error 403"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

var reportSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"voiceType":   {Type: genai.TypeString},
		"description": {Type: genai.TypeString},
		"songs": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"title":  {Type: genai.TypeString},
					"artist": {Type: genai.TypeString},
					"reason": {Type: genai.TypeString},
				},
			},
		},
		"exercises": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":         {Type: genai.TypeString},
					"instructions": {Type: genai.TypeString},
				},
			},
		},
	},
	Required: []string{"voiceType", "description", "songs", "exercises"},
}

func collectGeminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			builder.WriteString(part.Text)
		}
	}
	return builder.String()
}
