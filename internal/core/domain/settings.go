package domain

// AIProvider identifies a supported AI service provider
type AIProvider string

const (
	// AIProviderOpenAI is the OpenAI API (or any compatible endpoint)
	AIProviderOpenAI AIProvider = "openai"
)

// EmbeddingSettings configures the embedding provider
type EmbeddingSettings struct {
	Provider AIProvider `json:"provider"`
	APIKey   string     `json:"-"`
	Model    string     `json:"model"`
	BaseURL  string     `json:"base_url,omitempty"`
}

// IsConfigured returns true if the settings are usable
func (s *EmbeddingSettings) IsConfigured() bool {
	return s != nil && s.Provider != "" && s.APIKey != ""
}

// ChatSettings configures the answer-generation provider
type ChatSettings struct {
	Provider AIProvider `json:"provider"`
	APIKey   string     `json:"-"`
	Model    string     `json:"model"`
	BaseURL  string     `json:"base_url,omitempty"`
}

// IsConfigured returns true if the settings are usable
func (s *ChatSettings) IsConfigured() bool {
	return s != nil && s.Provider != "" && s.APIKey != ""
}
