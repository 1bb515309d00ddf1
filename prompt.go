package reactagent

// SystemPromptProvider supplies the system message prepended to every
// assembled context. The per-run tool payload is passed through so providers
// can tailor instructions to the caller (user identity, locale, feature
// flags).
type SystemPromptProvider interface {
	SystemPrompt(payload map[string]any) (string, error)
}

// FixedSystemPromptProvider always returns the same prompt text.
type FixedSystemPromptProvider struct {
	Text string
}

// NewFixedSystemPromptProvider wraps a static prompt string.
func NewFixedSystemPromptProvider(text string) *FixedSystemPromptProvider {
	return &FixedSystemPromptProvider{Text: text}
}

// SystemPrompt implements SystemPromptProvider.
func (p *FixedSystemPromptProvider) SystemPrompt(map[string]any) (string, error) {
	return p.Text, nil
}
