package channel

// SlackConfig configures the Slack channel (Socket Mode).
type SlackConfig struct {
	Enabled       bool     `json:"enabled"`
	BotToken      string   `json:"botToken"`
	AppToken      string   `json:"appToken"`
	ReplyInThread bool     `json:"replyInThread"`
	AllowFrom     []string `json:"allowFrom"`
}

func DefaultSlackConfig() SlackConfig {
	return SlackConfig{
		ReplyInThread: true,
		AllowFrom:     []string{},
	}
}
