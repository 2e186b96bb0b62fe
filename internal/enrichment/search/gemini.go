package search

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"
)

// Gemini is the primary search.Provider, grounded on
// queue/workers/web_search_worker.go's GoogleSearch-grounding call: one
// GenerateContent call with the GoogleSearch tool attached, reading
// results back out of GroundingMetadata.GroundingChunks rather than a
// dedicated search API.
type Gemini struct {
	client *genai.Client
	model  string
	logger arbor.ILogger
}

func NewGemini(client *genai.Client, model string, logger arbor.ILogger) *Gemini {
	if model == "" {
		model = "gemini-3-flash-preview"
	}
	return &Gemini{client: client, model: model, logger: logger}
}

func (g *Gemini) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	searchTool := &genai.Tool{GoogleSearch: &genai.GoogleSearch{}}
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{searchTool},
	}

	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		[]*genai.Content{genai.NewContentFromText(query, genai.RoleUser)},
		config,
	)
	if err != nil {
		return nil, fmt.Errorf("gemini grounded search failed: %w", err)
	}

	var results []Result
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return results, nil
	}

	gm := resp.Candidates[0].GroundingMetadata
	var snippet string
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				snippet = part.Text
				break
			}
		}
	}

	for _, chunk := range gm.GroundingChunks {
		if chunk.Web == nil {
			continue
		}
		results = append(results, Result{
			Title:   chunk.Web.Title,
			URL:     chunk.Web.URI,
			Snippet: snippet,
		})
		if len(results) >= maxResults {
			break
		}
	}
	return results, nil
}

var _ Provider = (*Gemini)(nil)
