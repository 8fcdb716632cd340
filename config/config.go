package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

type Config struct {
	Server         ServerConfig      `yaml:"server"`
	Database       DatabaseConfig    `yaml:"database"`
	Oracle         OracleConfig      `yaml:"oracle"`
	Data           DataConfig        `yaml:"data"`
	Session        SessionConfig     `yaml:"session"`
	Evaluation     EvaluationConfig  `yaml:"evaluation"`
	Grading        GradingConfig     `yaml:"grading"`
	StyleModifiers map[string]string `yaml:"style_modifiers"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	Mode            string        `yaml:"mode"` // debug, release
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite, mysql
	DSN  string `yaml:"dsn"`
}

type OracleConfig struct {
	Provider    string        `yaml:"provider"` // openai, gemini, mock
	APIURL      string        `yaml:"api_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

type DataConfig struct {
	Dir           string `yaml:"dir"`
	RosterFile    string `yaml:"roster_file"`
	PromptDir     string `yaml:"prompt_dir"`
	TranscriptDir string `yaml:"transcript_dir"`
}

type SessionConfig struct {
	MaxAttempts   int    `yaml:"max_attempts"`
	FallbackReply string `yaml:"fallback_reply"`
}

type EvaluationConfig struct {
	Rubric              string  `yaml:"rubric"` // basic, detailed
	Obfuscate           bool    `yaml:"obfuscate"`
	HighEffortMinutes   float64 `yaml:"high_effort_minutes"`
	HighEffortResponses int     `yaml:"high_effort_responses"`
	HighEffortWords     int     `yaml:"high_effort_words"`
}

type GradingConfig struct {
	Deadline       string   `yaml:"deadline"` // 2006-01-02 15:04:05，按 Timezone 解释
	Timezone       string   `yaml:"timezone"`
	PointScale     float64  `yaml:"point_scale"`
	Assignments    int      `yaml:"assignments"`
	LateMessage    string   `yaml:"late_message"`
	MissingMessage string   `yaml:"missing_message"`
	Workers        int      `yaml:"workers"`
	Extensions     []string `yaml:"extensions"`
	PruneStray     bool     `yaml:"prune_stray"`
	Feedback       bool     `yaml:"feedback"`
}

const DeadlineLayout = "2006-01-02 15:04:05"

var (
	cfg  *Config
	once sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config.yaml"
		}
		loaded, err := Load(configPath)
		if err != nil {
			klog.Warningf("配置文件解析失败，使用默认配置: path=%s, err=%v", configPath, err)
			loaded = Default()
			applyEnv(loaded)
		}
		cfg = loaded
	})
	return cfg
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			Mode:            "debug",
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "./data/ethicsbot.db",
		},
		Oracle: OracleConfig{
			Provider:    "openai",
			APIURL:      "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			MaxTokens:   1024,
			Temperature: 1,
			Timeout:     2 * time.Minute,
		},
		Data: DataConfig{
			Dir:           "./data",
			RosterFile:    "./data/students.csv",
			TranscriptDir: "./data/transcripts",
		},
		Session: SessionConfig{
			MaxAttempts:   3,
			FallbackReply: "I'm sorry, I'm having trouble responding. Please try again.",
		},
		Evaluation: EvaluationConfig{
			Rubric:              "basic",
			Obfuscate:           true,
			HighEffortMinutes:   10,
			HighEffortResponses: 5,
			HighEffortWords:     300,
		},
		Grading: GradingConfig{
			Timezone:       "America/Chicago",
			PointScale:     21,
			Assignments:    3,
			LateMessage:    "late submission",
			MissingMessage: "You didn't turn in this assignment.",
			Workers:        4,
			Extensions:     []string{".json", ".muef"},
			PruneStray:     true,
			Feedback:       true,
		},
	}
}

// Load 读取配置文件；文件不存在时使用默认值，环境变量优先级最高
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	applyEnv(config)
	return config, nil
}

func applyEnv(config *Config) {
	if provider := os.Getenv("ORACLE_PROVIDER"); provider != "" {
		config.Oracle.Provider = provider
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" && config.Oracle.Provider != "gemini" {
		config.Oracle.APIKey = apiKey
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" && config.Oracle.Provider == "gemini" {
		config.Oracle.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.Oracle.APIURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL_NAME"); model != "" {
		config.Oracle.Model = model
	}

	// 数据库环境变量
	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbDSN := os.Getenv("DB_DSN"); dbDSN != "" {
		config.Database.DSN = dbDSN
	}

	// 数据目录环境变量
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		config.Data.Dir = dataDir
	}
	if roster := os.Getenv("ROSTER_FILE"); roster != "" {
		config.Data.RosterFile = roster
	}
	if promptDir := os.Getenv("PROMPT_DIR"); promptDir != "" {
		config.Data.PromptDir = promptDir
	}
	if config.Data.TranscriptDir == "" {
		config.Data.TranscriptDir = filepath.Join(config.Data.Dir, "transcripts")
	}

	if deadline := os.Getenv("GRADING_DEADLINE"); deadline != "" {
		config.Grading.Deadline = deadline
	}
}

// DeadlineUTC 将截止时间按配置时区解释并转换为 UTC，未配置时返回零值
func (g GradingConfig) DeadlineUTC() (time.Time, error) {
	if strings.TrimSpace(g.Deadline) == "" {
		return time.Time{}, nil
	}
	loc := time.UTC
	if g.Timezone != "" {
		l, err := time.LoadLocation(g.Timezone)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid grading timezone %q: %w", g.Timezone, err)
		}
		loc = l
	}
	t, err := time.ParseInLocation(DeadlineLayout, strings.TrimSpace(g.Deadline), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid grading deadline %q: %w", g.Deadline, err)
	}
	return t.UTC(), nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func UpdateConfig(newCfg *Config) {
	cfg = newCfg
}
