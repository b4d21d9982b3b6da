// Package config 进程配置：.env 文件 + 环境变量，命令行参数可覆盖
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Server 服务端配置
type Server struct {
	Addr       string        `validate:"required"`
	Proto      string        `validate:"oneof=tcp kcp"`
	JWTSecret  string        `validate:"min=8"`
	SessionTTL time.Duration `validate:"gt=0"`
	MaxPlayers int           `validate:"min=1,max=4"`
	InputRate  float64       `validate:"gt=0"` // 每秒允许的输入包数
	InputBurst int           `validate:"min=1"`
	Seed       int64
	LayoutFile string
	LogLevel   string
	LogFormat  string `validate:"omitempty,oneof=text json"`
}

// Client 客户端配置
type Client struct {
	Addr       string `validate:"required_if=Local false"`
	Proto      string `validate:"oneof=tcp kcp"`
	PlayerName string `validate:"max=32"`
	RoomID     string
	Local      bool
	Seed       int64
	LayoutFile string
	Bots       int `validate:"min=0,max=3"` // 单机模式的机器人数
	Scale      int `validate:"min=1,max=4"`
	LogLevel   string
	LogFormat  string `validate:"omitempty,oneof=text json"`
}

var validate = validator.New()

// LoadEnv 读取 .env 文件（可选），已存在的环境变量不会被覆盖
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("加载 %s: %w", f, err)
		}
	}
	return nil
}

// DefaultServer 从环境变量读取服务端配置
func DefaultServer() Server {
	return Server{
		Addr:       env("BOMBERFOX_ADDR", ":8080"),
		Proto:      env("BOMBERFOX_PROTO", "tcp"),
		JWTSecret:  env("JWT_SECRET", "bomberfox-dev-secret"),
		SessionTTL: envDuration("SESSION_TTL", 5*time.Minute),
		MaxPlayers: envInt("MAX_PLAYERS", 4),
		InputRate:  envFloat("INPUT_RATE", 120),
		InputBurst: envInt("INPUT_BURST", 30),
		Seed:       int64(envInt("BOMBERFOX_SEED", 0)),
		LayoutFile: env("BOMBERFOX_LAYOUT", ""),
		LogLevel:   env("LOG_LEVEL", "info"),
		LogFormat:  env("LOG_FORMAT", "text"),
	}
}

// DefaultClient 从环境变量读取客户端配置
func DefaultClient() Client {
	return Client{
		Addr:       env("BOMBERFOX_ADDR", "127.0.0.1:8080"),
		Proto:      env("BOMBERFOX_PROTO", "tcp"),
		PlayerName: env("BOMBERFOX_NAME", "player"),
		RoomID:     env("BOMBERFOX_ROOM", ""),
		Seed:       int64(envInt("BOMBERFOX_SEED", 0)),
		LayoutFile: env("BOMBERFOX_LAYOUT", ""),
		Bots:       envInt("BOMBERFOX_BOTS", 0),
		Scale:      envInt("BOMBERFOX_SCALE", 2),
		LogLevel:   env("LOG_LEVEL", "info"),
		LogFormat:  env("LOG_FORMAT", "text"),
	}
}

// Validate 校验服务端配置
func (c Server) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("服务端配置非法: %w", err)
	}
	return nil
}

// Validate 校验客户端配置
func (c Client) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("客户端配置非法: %w", err)
	}
	return nil
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(env(key, ""))
	if err != nil {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(env(key, ""), 64)
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(env(key, ""))
	if err != nil {
		return def
	}
	return v
}
