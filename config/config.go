package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	LLMAPIKey       string   `yaml:"llm_api_key"`
	LLMBaseURL      string   `yaml:"llm_base_url"`
	LLMModel        string   `yaml:"llm_model"`
	RedditUserAgent string   `yaml:"reddit_user_agent"`
	Subreddits      []string `yaml:"subreddits"`
	SubmissionLimit int      `yaml:"submission_limit"`

	LearningRate     float64 `yaml:"learning_rate"`
	WeightEngagement float64 `yaml:"weight_engagement"`
	WeightSentiment  float64 `yaml:"weight_sentiment"`
	WeightRelevance  float64 `yaml:"weight_relevance"`
	WeightNovelty    float64 `yaml:"weight_novelty"`

	HourBucketSize   int   `yaml:"hour_bucket_size"`
	LengthThresholds []int `yaml:"length_thresholds"`

	FetchTimeoutSec int    `yaml:"fetch_timeout_secs"`
	ScrapeMaxChars  int    `yaml:"scrape_max_chars"`
	ProcessTime     string `yaml:"process_time"`
	Timezone        string `yaml:"timezone"`
	DBPath          string `yaml:"db_path"`
	LogLevel        string `yaml:"log_level"`
}

// Defaults returns a Config with all default values set.
func Defaults() Config {
	return Config{
		LLMBaseURL:       "https://api.groq.com/openai/v1",
		LLMModel:         "llama-3.1-8b-instant",
		RedditUserAgent:  "reddit-insight-agent/1.0",
		SubmissionLimit:  10,
		LearningRate:     0.1,
		WeightEngagement: 0.4,
		WeightSentiment:  0.2,
		WeightRelevance:  0.2,
		WeightNovelty:    0.2,
		HourBucketSize:   1,
		LengthThresholds: []int{120, 600},
		FetchTimeoutSec:  10,
		ScrapeMaxChars:   4000,
		ProcessTime:      "09:00",
		Timezone:         "UTC",
		DBPath:           "./reddit-agent.db",
		LogLevel:         "info",
	}
}

// Load reads a YAML config file and returns a validated Config.
// Environment variables REDDIT_AGENT_CONFIG and REDDIT_AGENT_DB override the
// config path and db path; GROQ_API_KEY overrides the LLM API key so the
// secret can stay out of the file.
func Load(path string) (Config, error) {
	if envPath := os.Getenv("REDDIT_AGENT_CONFIG"); envPath != "" {
		path = envPath
	}

	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}

	if envKey := os.Getenv("GROQ_API_KEY"); envKey != "" {
		cfg.LLMAPIKey = envKey
	}
	if envDB := os.Getenv("REDDIT_AGENT_DB"); envDB != "" {
		cfg.DBPath = envDB
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that required fields are present and values are valid.
func (c *Config) Validate() error {
	if c.LLMAPIKey == "" {
		return fmt.Errorf("llm_api_key is required (or set GROQ_API_KEY)")
	}
	if len(c.Subreddits) == 0 {
		return fmt.Errorf("at least one subreddit is required")
	}
	if c.SubmissionLimit <= 0 {
		return fmt.Errorf("submission_limit must be positive, got %d", c.SubmissionLimit)
	}

	if c.LearningRate <= 0 || c.LearningRate >= 1 {
		return fmt.Errorf("learning_rate must be in (0,1), got %v", c.LearningRate)
	}
	for _, w := range []float64{c.WeightEngagement, c.WeightSentiment, c.WeightRelevance, c.WeightNovelty} {
		if w < 0 {
			return fmt.Errorf("utility weights must be non-negative, got %v", w)
		}
	}

	if c.HourBucketSize < 1 || c.HourBucketSize > 24 {
		return fmt.Errorf("hour_bucket_size must be 1-24, got %d", c.HourBucketSize)
	}
	for i := 1; i < len(c.LengthThresholds); i++ {
		if c.LengthThresholds[i] <= c.LengthThresholds[i-1] {
			return fmt.Errorf("length_thresholds must be strictly increasing")
		}
	}

	if err := ValidateTime(c.ProcessTime); err != nil {
		return err
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	return nil
}

// ValidateTime checks that a time string is in valid HH:MM 24-hour format.
func ValidateTime(t string) error {
	if len(t) != 5 || t[2] != ':' {
		return fmt.Errorf("invalid time format %q: must be HH:MM", t)
	}

	if t[0] < '0' || t[0] > '9' || t[1] < '0' || t[1] > '9' ||
		t[3] < '0' || t[3] > '9' || t[4] < '0' || t[4] > '9' {
		return fmt.Errorf("invalid time format %q: must be HH:MM", t)
	}

	hour := (int(t[0]-'0') * 10) + int(t[1]-'0')
	minute := (int(t[3]-'0') * 10) + int(t[4]-'0')

	if hour < 0 || hour > 23 {
		return fmt.Errorf("invalid time %q: hour must be 0-23", t)
	}
	if minute < 0 || minute > 59 {
		return fmt.Errorf("invalid time %q: minute must be 0-59", t)
	}

	return nil
}
