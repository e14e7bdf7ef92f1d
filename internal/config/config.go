package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	RoomSize   int           `mapstructure:"room_size"`
	Token      string        `mapstructure:"token"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	MsgRate    int           `mapstructure:"msg_rate"`
	MsgWindow  time.Duration `mapstructure:"msg_window"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 3030)
	v.SetDefault("static_path", "./public")
	v.SetDefault("room_size", 8)
	v.SetDefault("token", "")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("msg_rate", 120)
	v.SetDefault("msg_window", "1s")

	// Deployment envs configure through the process environment.
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("room_size", "ROOM_SIZE")
	_ = v.BindEnv("token", "TOKEN")

	var fileErr error
	if err := v.ReadInConfig(); err != nil {
		fileErr = err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if fileErr != nil {
		return &cfg, fmt.Errorf("config file not read (%s), using defaults: %w", fileName, fileErr)
	}
	return &cfg, nil
}
