package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 服务配置，可由-config指定的YAML文件提供，命令行显式设置的参数优先
type Config struct {
	Feed     string `yaml:"feed" validate:"required"`
	MongoURI string `yaml:"mongo_uri"`
	Listen   string `yaml:"listen" validate:"required,hostname_port"`
	Pprof    string `yaml:"pprof" validate:"omitempty,hostname_port"`
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error fatal panic"`
	Workers  int    `yaml:"workers" validate:"gte=0"`
	Timeout  int    `yaml:"timeout" validate:"gte=0"` // 单次查询超时（s），0表示不限制
}

// loadConfig 合并.env、配置文件与命令行参数
func loadConfig(fs *flag.FlagSet, path string, flags Config) (Config, error) {
	// .env不存在时忽略
	_ = godotenv.Load()

	cfg := flags
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		var file Config
		if err := yaml.Unmarshal(data, &file); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		cfg = mergeConfig(fs, file, flags)
	}
	if cfg.MongoURI == "" {
		cfg.MongoURI = os.Getenv("MONGO_URI")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// mergeConfig 文件中的值被显式设置的命令行参数覆盖，文件中缺失的值取命令行默认值
func mergeConfig(fs *flag.FlagSet, file, flags Config) Config {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	pick := func(name string, fileValue, flagValue string) string {
		if set[name] || fileValue == "" {
			return flagValue
		}
		return fileValue
	}
	cfg := Config{
		Feed:     pick("feed", file.Feed, flags.Feed),
		MongoURI: pick("mongo_uri", file.MongoURI, flags.MongoURI),
		Listen:   pick("listen", file.Listen, flags.Listen),
		Pprof:    pick("pprof", file.Pprof, flags.Pprof),
		LogLevel: pick("log-level", file.LogLevel, flags.LogLevel),
		Workers:  file.Workers,
		Timeout:  file.Timeout,
	}
	if set["workers"] || file.Workers == 0 {
		cfg.Workers = flags.Workers
	}
	if set["timeout"] || file.Timeout == 0 {
		cfg.Timeout = flags.Timeout
	}
	return cfg
}
