package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config 彙整伺服器與 AI 相關設定
type Config struct {
	DayDuration    time.Duration
	VotingDuration time.Duration
	NightDuration  time.Duration

	AI AIConfig
}

// AIConfig 為 AI 決策供應端與排程的設定
type AIConfig struct {
	// APIKey 為 Gemini API 金鑰，留空時改用內建的啟發式供應端
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int

	// 同一階段內各 AI 請求之間的錯開延遲範圍
	StaggerMin time.Duration
	StaggerMax time.Duration

	// 白天聊天輪詢的間隔範圍
	ChatIntervalMin time.Duration
	ChatIntervalMax time.Duration

	// 每個房間允許的 AI 玩家上限
	MaxPerRoom int
}

// Load 讀取 .env（若存在）與環境變數，套用預設值
func Load() Config {
	_ = godotenv.Load()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}

	return Config{
		DayDuration:    envDuration("DAY_DURATION", 90*time.Second),
		VotingDuration: envDuration("VOTING_DURATION", 30*time.Second),
		NightDuration:  envDuration("NIGHT_DURATION", 30*time.Second),
		AI: AIConfig{
			APIKey:          apiKey,
			Model:           envString("LLM_MODEL", "gemini-2.0-flash"),
			Timeout:         envDuration("LLM_TIMEOUT", 10*time.Second),
			MaxRetries:      envInt("LLM_MAX_RETRIES", 2),
			StaggerMin:      envDuration("AI_STAGGER_MIN", 500*time.Millisecond),
			StaggerMax:      envDuration("AI_STAGGER_MAX", time.Second),
			ChatIntervalMin: envDuration("AI_CHAT_INTERVAL_MIN", 10*time.Second),
			ChatIntervalMax: envDuration("AI_CHAT_INTERVAL_MAX", 15*time.Second),
			MaxPerRoom:      envInt("AI_MAX_PER_ROOM", 20),
		},
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		// 純數字視為秒數，沿用原有部署設定的格式
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
