package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultModel            = "llama3"
	DefaultOllamaURL        = "http://localhost:11434"
	DefaultMaxTokens        = 300
	DefaultTemperature      = 0.8
	DefaultMinPauseSeconds  = 1.0
	DefaultMaxPauseSeconds  = 5.0
	DefaultMemoryWindowSize = 50
	DefaultSampleRate       = 22050
	DefaultOBSWebsocketURL  = "ws://localhost:4455"
	DefaultEndingScene      = "Ending"
	DefaultWindDownMinutes  = 15
	DefaultGoodbyeSeconds   = 30
	DefaultMetricsAddr      = ":9190"
)

type Config struct {
	Broadcast BroadcastConfig `json:"broadcast"`
	Provider  ProviderConfig  `json:"provider"`
	Persona   PersonaConfig   `json:"persona"`
	Platform  PlatformConfig  `json:"platform"`
	Voice     VoiceConfig     `json:"voice"`
	Streaming StreamingConfig `json:"streaming"`
	Game      GameConfig      `json:"game"`
	Schedule  ScheduleConfig  `json:"schedule"`
	External  ExternalConfig  `json:"external"`
	Sink      SinkConfig      `json:"sink"`
	Metrics   MetricsConfig   `json:"metrics"`
	Notify    NotifyConfig    `json:"notify"`
}

type BroadcastConfig struct {
	Mode             string  `json:"mode"` // "talk" or "game"
	MinPauseSeconds  float64 `json:"minPauseSeconds"`
	MaxPauseSeconds  float64 `json:"maxPauseSeconds"`
	MemoryWindowSize int     `json:"memoryWindowSize"`
}

type ProviderConfig struct {
	Type        string  `json:"type,omitempty"` // "ollama" (default) or "openai"
	BaseURL     string  `json:"baseUrl,omitempty"`
	APIKey      string  `json:"apiKey,omitempty"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

type PersonaConfig struct {
	Path string `json:"path,omitempty"` // YAML persona file
}

type PlatformConfig struct {
	Active  string        `json:"active,omitempty"` // "twitch", "youtube" or empty
	Twitch  TwitchConfig  `json:"twitch"`
	YouTube YouTubeConfig `json:"youtube"`
}

type TwitchConfig struct {
	Channel string `json:"channel,omitempty"`
	Nick    string `json:"nick,omitempty"`
	Token   string `json:"token,omitempty"`
	UseTLS  bool   `json:"useTls,omitempty"`
}

type YouTubeConfig struct {
	APIKey              string  `json:"apiKey,omitempty"`
	LiveChatID          string  `json:"liveChatId,omitempty"`
	VideoID             string  `json:"videoId,omitempty"`
	PollIntervalSeconds float64 `json:"pollIntervalSeconds,omitempty"`
}

type VoiceConfig struct {
	Enabled    bool   `json:"enabled"`
	ServerURL  string `json:"serverUrl,omitempty"` // HTTP TTS server
	SampleRate int    `json:"sampleRate,omitempty"`
	Language   string `json:"language,omitempty"`
	PlayerCmd  string `json:"playerCmd,omitempty"` // external audio player, e.g. "aplay"
}

type StreamingConfig struct {
	OBSWebsocketURL string `json:"obsWebsocketUrl,omitempty"`
	OBSPassword     string `json:"obsPassword,omitempty"`
	EndingScene     string `json:"endingScene,omitempty"`
}

type GameConfig struct {
	Enabled bool        `json:"enabled"`
	Games   []GameEntry `json:"games,omitempty"`
	Speech  GameSpeech  `json:"speech"`
}

type GameEntry struct {
	Name          string `json:"name"`
	LaunchCommand string `json:"launchCommand,omitempty"`
	ProcessName   string `json:"processName,omitempty"`
}

type GameSpeech struct {
	ReactionKeywords []string `json:"reactionKeywords,omitempty"`
	MinPauseSeconds  float64  `json:"minPauseSeconds,omitempty"`
	MaxPauseSeconds  float64  `json:"maxPauseSeconds,omitempty"`
}

type ScheduleConfig struct {
	Enabled    bool         `json:"enabled"`
	StartTimes []StartEntry `json:"startTimes,omitempty"`
	CronExprs  []string     `json:"cronExprs,omitempty"` // standard cron expressions, alternative to startTimes
	Duration   DurationCfg  `json:"duration"`
	Ending     EndingConfig `json:"ending"`
}

type StartEntry struct {
	Day  string `json:"day"`  // "monday".."sunday"
	Time string `json:"time"` // "HH:MM"
}

type DurationCfg struct {
	MinMinutes int `json:"minMinutes"`
	MaxMinutes int `json:"maxMinutes"`
}

type EndingConfig struct {
	WindDownMinutes     int `json:"windDownMinutes"`
	FinalGoodbyeSeconds int `json:"finalGoodbyeSeconds"`
}

type ExternalConfig struct {
	WeatherAPIKey string `json:"weatherApiKey,omitempty"`
	WeatherCity   string `json:"weatherCity,omitempty"`
	NewsAPIKey    string `json:"newsApiKey,omitempty"`
}

type SinkConfig struct {
	Enabled bool   `json:"enabled"`
	DBPath  string `json:"dbPath,omitempty"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`
}

type NotifyConfig struct {
	Telegram TelegramNotify `json:"telegram"`
}

type TelegramNotify struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token,omitempty"`
	ChatID  string `json:"chatId,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Broadcast: BroadcastConfig{
			Mode:             "talk",
			MinPauseSeconds:  DefaultMinPauseSeconds,
			MaxPauseSeconds:  DefaultMaxPauseSeconds,
			MemoryWindowSize: DefaultMemoryWindowSize,
		},
		Provider: ProviderConfig{
			Type:        "ollama",
			BaseURL:     DefaultOllamaURL,
			Model:       DefaultModel,
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
		},
		Persona: PersonaConfig{
			Path: filepath.Join(ConfigDir(), "persona.yaml"),
		},
		Voice: VoiceConfig{
			SampleRate: DefaultSampleRate,
			Language:   "en",
		},
		Streaming: StreamingConfig{
			OBSWebsocketURL: DefaultOBSWebsocketURL,
			EndingScene:     DefaultEndingScene,
		},
		Game: GameConfig{
			Speech: GameSpeech{
				ReactionKeywords: []string{"kill", "death", "win", "lose", "clutch", "clear"},
				MinPauseSeconds:  3.0,
				MaxPauseSeconds:  10.0,
			},
		},
		Schedule: ScheduleConfig{
			Duration: DurationCfg{MinMinutes: 360, MaxMinutes: 420},
			Ending: EndingConfig{
				WindDownMinutes:     DefaultWindDownMinutes,
				FinalGoodbyeSeconds: DefaultGoodbyeSeconds,
			},
		},
		External: ExternalConfig{WeatherCity: "Seoul"},
		Metrics:  MetricsConfig{Addr: DefaultMetricsAddr},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".onair")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func LoadConfig() (*Config, error) {
	return LoadConfigFrom(ConfigPath())
}

func LoadConfigFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if url := os.Getenv("ONAIR_LLM_URL"); url != "" {
		cfg.Provider.BaseURL = url
	}
	if key := os.Getenv("ONAIR_LLM_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
		if cfg.Provider.Type == "" {
			cfg.Provider.Type = "openai"
		}
	}
	if model := os.Getenv("ONAIR_LLM_MODEL"); model != "" {
		cfg.Provider.Model = model
	}
	if token := os.Getenv("TWITCH_TOKEN"); token != "" {
		cfg.Platform.Twitch.Token = token
	}
	if ch := os.Getenv("TWITCH_CHANNEL"); ch != "" {
		cfg.Platform.Twitch.Channel = ch
	}
	if key := os.Getenv("YOUTUBE_API_KEY"); key != "" {
		cfg.Platform.YouTube.APIKey = key
	}
	if id := os.Getenv("YOUTUBE_LIVE_CHAT_ID"); id != "" {
		cfg.Platform.YouTube.LiveChatID = id
	}
	if pw := os.Getenv("OBS_PASSWORD"); pw != "" {
		cfg.Streaming.OBSPassword = pw
	}
	if key := os.Getenv("WEATHER_API_KEY"); key != "" {
		cfg.External.WeatherAPIKey = key
	}
	if key := os.Getenv("NEWS_API_KEY"); key != "" {
		cfg.External.NewsAPIKey = key
	}
	if token := os.Getenv("ONAIR_TELEGRAM_TOKEN"); token != "" {
		cfg.Notify.Telegram.Token = token
	}
	if url := os.Getenv("ONAIR_TTS_URL"); url != "" {
		cfg.Voice.ServerURL = url
	}
	if dbPath := os.Getenv("ONAIR_SINK_DB_PATH"); dbPath != "" {
		cfg.Sink.DBPath = dbPath
	}
	if enabled := os.Getenv("ONAIR_METRICS_ENABLED"); enabled != "" {
		if parsed, err := strconv.ParseBool(enabled); err == nil {
			cfg.Metrics.Enabled = parsed
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Broadcast.Mode == "" {
		cfg.Broadcast.Mode = "talk"
	}
	if cfg.Broadcast.MinPauseSeconds <= 0 {
		cfg.Broadcast.MinPauseSeconds = DefaultMinPauseSeconds
	}
	if cfg.Broadcast.MaxPauseSeconds <= 0 {
		cfg.Broadcast.MaxPauseSeconds = DefaultMaxPauseSeconds
	}
	if cfg.Broadcast.MemoryWindowSize <= 0 {
		cfg.Broadcast.MemoryWindowSize = DefaultMemoryWindowSize
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = DefaultModel
	}
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = DefaultOllamaURL
	}
	if cfg.Provider.Temperature <= 0 {
		cfg.Provider.Temperature = DefaultTemperature
	}
	if cfg.Provider.MaxTokens <= 0 {
		cfg.Provider.MaxTokens = DefaultMaxTokens
	}
	if cfg.Schedule.Ending.WindDownMinutes <= 0 {
		cfg.Schedule.Ending.WindDownMinutes = DefaultWindDownMinutes
	}
	if cfg.Schedule.Ending.FinalGoodbyeSeconds <= 0 {
		cfg.Schedule.Ending.FinalGoodbyeSeconds = DefaultGoodbyeSeconds
	}
	if cfg.Sink.Enabled && cfg.Sink.DBPath == "" {
		cfg.Sink.DBPath = filepath.Join(ConfigDir(), "data", "transcript.db")
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = DefaultMetricsAddr
	}
	if cfg.Game.Speech.MinPauseSeconds <= 0 {
		cfg.Game.Speech.MinPauseSeconds = 3.0
	}
	if cfg.Game.Speech.MaxPauseSeconds <= 0 {
		cfg.Game.Speech.MaxPauseSeconds = 10.0
	}
	if cfg.Streaming.OBSWebsocketURL == "" {
		cfg.Streaming.OBSWebsocketURL = DefaultOBSWebsocketURL
	}
	if cfg.Streaming.EndingScene == "" {
		cfg.Streaming.EndingScene = DefaultEndingScene
	}
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
