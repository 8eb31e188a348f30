// Package insight generates AI analyses of video captions with the Gemini
// API: summaries, key points, flashcards, quizzes, sentiment, topics, and
// conversational Q&A grounded in the caption text.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	// maxCaptionChars bounds the caption text sent in a prompt to stay
	// well under the model's context window.
	maxCaptionChars = 15000

	maxAttempts = 3
	retryDelay  = 5 * time.Second
)

// Result holds a generated insight.
type Result struct {
	Content string          // raw model text
	Items   json.RawMessage // structured form, when the model returned valid JSON
	Model   string
	Prompt  string
}

// Message is one turn of Q&A history.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Generator wraps the Gemini client.
type Generator struct {
	client       *genai.Client
	defaultModel string
}

// New creates a Generator. A nil Generator (unconfigured key) is handled by
// the caller via IsConfigured, so construction only fails on client setup.
func New(ctx context.Context, apiKey, defaultModel string) (*Generator, error) {
	if apiKey == "" {
		return &Generator{defaultModel: defaultModel}, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Generator{client: client, defaultModel: defaultModel}, nil
}

// IsConfigured returns true when a Gemini API key was provided.
func (g *Generator) IsConfigured() bool {
	return g.client != nil
}

// Close releases the underlying client connection.
func (g *Generator) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

// ValidateKey issues a minimal generation request to confirm the configured
// key works. Called once at startup.
func (g *Generator) ValidateKey(ctx context.Context) error {
	if !g.IsConfigured() {
		return fmt.Errorf("Gemini API key not configured; set GEMINI_API_KEY")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	model := g.client.GenerativeModel(g.defaultModel)
	if _, err := model.GenerateContent(ctx, genai.Text("test")); err != nil {
		return fmt.Errorf("Gemini API key validation failed: %w", err)
	}
	return nil
}

// Generate produces an insight of the given kind from caption text.
// kind must be one of summary, key_points, flashcards, quiz, sentiment,
// topics. modelOverride is optional.
func (g *Generator) Generate(ctx context.Context, kind, captions, modelOverride string) (*Result, error) {
	if !g.IsConfigured() {
		return nil, fmt.Errorf("Gemini API key not configured; set GEMINI_API_KEY")
	}

	prompt, err := buildPrompt(kind, captions)
	if err != nil {
		return nil, err
	}

	modelName := g.defaultModel
	if modelOverride != "" {
		modelName = modelOverride
	}

	log.Printf("🤖 Insight: generating %s with %s", kind, modelName)

	content, err := g.generate(ctx, modelName, prompt)
	if err != nil {
		return nil, err
	}

	return &Result{
		Content: content,
		Items:   extractJSON(content),
		Model:   modelName,
		Prompt:  prompt,
	}, nil
}

// Answer responds to a question using only the caption text, with prior
// exchanges included for conversational context.
func (g *Generator) Answer(ctx context.Context, captions string, history []Message, question, modelOverride string) (string, string, error) {
	if !g.IsConfigured() {
		return "", "", fmt.Errorf("Gemini API key not configured; set GEMINI_API_KEY")
	}

	modelName := g.defaultModel
	if modelOverride != "" {
		modelName = modelOverride
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are answering questions about a YouTube video. Base your answers only on the video captions below. If the captions do not contain the answer, say so rather than guessing.

Captions:
%s
`, truncate(captions))

	if len(history) > 0 {
		b.WriteString("\nPrevious conversation:\n")
		for _, m := range history {
			role := "Question"
			if m.Role == "assistant" {
				role = "Answer"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, m.Content)
		}
	}
	fmt.Fprintf(&b, "\nQuestion: %s\nAnswer:", question)

	answer, err := g.generate(ctx, modelName, b.String())
	if err != nil {
		return "", "", err
	}
	return answer, modelName, nil
}

// generate runs one prompt with a fixed retry loop. Safety blocks are not
// retried; they carry the block reason so the caller can report it.
func (g *Generator) generate(ctx context.Context, modelName, prompt string) (string, error) {
	model := g.client.GenerativeModel(modelName)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err == nil {
			if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
				return "", fmt.Errorf("generation blocked by safety filter: %s", resp.PromptFeedback.BlockReason)
			}
			text := collectText(resp)
			if text == "" {
				return "", fmt.Errorf("model returned an empty response")
			}
			return text, nil
		}

		lastErr = err
		log.Printf("⚠️  Insight: generation attempt %d/%d failed: %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", fmt.Errorf("generation failed after %d attempts: %w", maxAttempts, lastErr)
}

// collectText concatenates the text parts of all candidates.
func collectText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func truncate(captions string) string {
	if len(captions) > maxCaptionChars {
		return captions[:maxCaptionChars] + "\n\n[Captions truncated due to length...]"
	}
	return captions
}

// buildPrompt returns the fixed prompt template for an insight kind.
func buildPrompt(kind, captions string) (string, error) {
	captions = truncate(captions)

	switch kind {
	case "summary":
		return fmt.Sprintf(`Summarize the following YouTube video captions in 2-4 clear paragraphs. Cover the main topic, the key arguments, and the conclusion.

Captions:
%s`, captions), nil

	case "key_points":
		return fmt.Sprintf(`Extract the key points from the following YouTube video captions.

Respond with valid JSON in this exact format:
{"points": ["First key point", "Second key point"]}

Captions:
%s`, captions), nil

	case "flashcards":
		return fmt.Sprintf(`Create exactly 5 study flashcards from the following YouTube video captions.

Respond with valid JSON in this exact format:
{"cards": [{"question": "...", "answer": "..."}]}

Captions:
%s`, captions), nil

	case "quiz":
		return fmt.Sprintf(`Create a 5-question multiple-choice quiz from the following YouTube video captions. Each question has exactly 4 options and one correct answer identified by its letter (A-D).

Respond with valid JSON in this exact format:
{"questions": [{"prompt": "...", "options": ["A) ...", "B) ...", "C) ...", "D) ..."], "answer": "A"}]}

Captions:
%s`, captions), nil

	case "sentiment":
		return fmt.Sprintf(`Analyze the overall sentiment and tone of the following YouTube video captions.

Respond with valid JSON in this exact format:
{"sentiment": "positive|neutral|negative", "tone": "...", "explanation": "..."}

Captions:
%s`, captions), nil

	case "topics":
		return fmt.Sprintf(`Identify the main topics discussed in the following YouTube video captions, with an estimate of how much of the video each topic covers.

Respond with valid JSON in this exact format:
{"topics": [{"name": "...", "share": "40%%", "description": "..."}]}

Captions:
%s`, captions), nil

	default:
		return "", fmt.Errorf("unknown insight kind: %s", kind)
	}
}

// extractJSON scans the model output for a balanced JSON object or array.
// Models often wrap JSON in markdown fences or prose, so a plain Unmarshal
// of the whole response is tried first and the scan is the fallback.
// Returns nil when no valid JSON is present.
func extractJSON(content string) json.RawMessage {
	trimmed := strings.TrimSpace(content)
	if json.Valid([]byte(trimmed)) && (strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")) {
		return json.RawMessage(trimmed)
	}

	for _, pair := range [][2]byte{{'{', '}'}, {'[', ']'}} {
		if raw := scanBalanced(content, pair[0], pair[1]); raw != "" {
			return json.RawMessage(raw)
		}
	}
	return nil
}

func scanBalanced(content string, open, close byte) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(content); i++ {
		c := content[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case open:
			if depth == 0 {
				start = i
			}
			depth++
		case close:
			if depth > 0 {
				depth--
				if depth == 0 {
					candidate := content[start : i+1]
					if json.Valid([]byte(candidate)) {
						return candidate
					}
					start = -1
				}
			}
		}
	}
	return ""
}
