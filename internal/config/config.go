package config

import (
	"os"

	"github.com/go-yaml/yaml"
)

type Config struct {
	Site   Site   `yaml:"site"`
	Server Server `yaml:"server"`
}

type Site struct {
	FQDN string `yaml:"fqdn"`
	// APIKey is the single shared admin secret. The API_KEY environment
	// variable always takes precedence over the file value.
	APIKey string `yaml:"apiKey"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if key := os.Getenv("API_KEY"); key != "" {
		config.Site.APIKey = key
	}

	if config.Server.Listen == "" {
		config.Server.Listen = ":8000"
	}

	return config, nil
}
