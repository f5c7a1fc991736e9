package config

type ServerConfig struct {
	Port      string `yaml:"port"`
	LogLevel  int    `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}
