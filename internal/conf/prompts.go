package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PromptsConfig contains all prompt and notice texts loaded from YAML
type PromptsConfig struct {
	Reply   ReplyPrompts  `yaml:"reply"`
	Notices NoticeTexts   `yaml:"notices"`
	History HistoryConfig `yaml:"history"`
}

// ReplyPrompts contains AI reply generation settings
type ReplyPrompts struct {
	AIName          string `yaml:"ai_name"`
	DefaultTemplate string `yaml:"default_template"`
}

// NoticeTexts contains the system notices sent to customers
type NoticeTexts struct {
	AITakeover string `yaml:"ai_takeover"`
	AgentJoin  string `yaml:"agent_join"`
	AIOn       string `yaml:"ai_on"`
	AIOff      string `yaml:"ai_off"`
}

// HistoryConfig contains history truncation settings
type HistoryConfig struct {
	MaxCount int `yaml:"max_count"`
}

// LoadPromptsConfig loads prompts configuration from YAML file
func LoadPromptsConfig(configPath string) (*PromptsConfig, error) {
	// Try multiple paths
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/prompts.yaml",
			"./configs/prompts.yaml",
			"/etc/axion-router/prompts.yaml",
		}
		// Add path relative to executable
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "prompts.yaml"))
		}
		// Add path relative to working directory
		if wd, err := os.Getwd(); err == nil {
			paths = append(paths, filepath.Join(wd, "configs", "prompts.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	var err error

	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			loadedPath = p
			break
		}
	}

	if data == nil {
		// Return default config if no file found
		fmt.Println("[Config] No prompts.yaml found, using defaults")
		return DefaultPromptsConfig(), nil
	}

	fmt.Printf("[Config] Loading prompts from: %s\n", loadedPath)

	var config PromptsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse prompts.yaml: %w", err)
	}

	// Fill in defaults for empty values
	config.fillDefaults()

	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *PromptsConfig) fillDefaults() {
	defaults := DefaultPromptsConfig()

	if c.Reply.AIName == "" {
		c.Reply.AIName = defaults.Reply.AIName
	}
	if c.Reply.DefaultTemplate == "" {
		c.Reply.DefaultTemplate = defaults.Reply.DefaultTemplate
	}

	if c.Notices.AITakeover == "" {
		c.Notices.AITakeover = defaults.Notices.AITakeover
	}
	if c.Notices.AgentJoin == "" {
		c.Notices.AgentJoin = defaults.Notices.AgentJoin
	}
	if c.Notices.AIOn == "" {
		c.Notices.AIOn = defaults.Notices.AIOn
	}
	if c.Notices.AIOff == "" {
		c.Notices.AIOff = defaults.Notices.AIOff
	}

	if c.History.MaxCount == 0 {
		c.History.MaxCount = defaults.History.MaxCount
	}
}

// ToggleText returns the customer-facing notice for an AI toggle change
func (c *PromptsConfig) ToggleText(enabled bool) string {
	if enabled {
		return c.Notices.AIOn
	}
	return c.Notices.AIOff
}

// DefaultPromptsConfig returns the default prompts configuration
func DefaultPromptsConfig() *PromptsConfig {
	return &PromptsConfig{
		Reply: ReplyPrompts{
			AIName: "Axion AI",
			DefaultTemplate: `You are Axion AI, a friendly, helpful WhatsApp assistant for {companyName}.
You are chatting 1:1 with a real user over WhatsApp.
Always respond naturally, avoid generic replies like "Ok" or "Noted".
Be proactive: acknowledge what they said, add a bit of helpful context, and ask a simple follow-up question if it makes sense.
Keep replies short (1-3 sentences), friendly, and easy to read on a phone.

Here is the recent conversation history (oldest to newest):
{history}

Continue the conversation with your next message.`,
		},
		Notices: NoticeTexts{
			AITakeover: "Human inactive, AI agent will respond.",
			AgentJoin:  "Human agent joined the chat.",
			AIOn:       "Axion AI assistant has been turned ON. You may receive automated replies.",
			AIOff:      "Axion AI assistant has been turned OFF. You are now chatting with a human agent.",
		},
		History: HistoryConfig{
			MaxCount: 20,
		},
	}
}
