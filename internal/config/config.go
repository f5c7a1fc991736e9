package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	ServerConfig   ServerConfig   `yaml:"server"`
	DatabaseConfig DatabaseConfig `yaml:"database"`
	ChainConfig    ChainConfig    `yaml:"chain"`
}

func LoadConfigFile(path string) (*Config, error) {
	config := defaultConfig()

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)

	if err := d.Decode(&config); err != nil {
		return nil, err
	}

	config.applyEnv()
	return config, nil
}

// LoadConfig builds a configuration from defaults and environment variables
// alone, for deployments that ship no yaml file.
func LoadConfig() *Config {
	config := defaultConfig()
	config.applyEnv()
	return config
}

func defaultConfig() *Config {
	return &Config{
		ServerConfig: ServerConfig{
			Port:      "5000",
			LogLevel:  1,
			LogFormat: "console",
		},
		DatabaseConfig: DatabaseConfig{
			File: "databases/block-vote.db",
		},
		ChainConfig: ChainConfig{
			RpcUrl: "http://localhost:8545",
		},
	}
}

func (config *Config) applyEnv() {
	setIfEnv(&config.ServerConfig.Port, "PORT")
	setIfEnv(&config.DatabaseConfig.File, "DATABASE_FILE")
	setIfEnv(&config.ServerConfig.LogFormat, "LOG_FORMAT")
	setIfEnv(&config.ChainConfig.RpcUrl, "CHAIN_RPC_URL")
	setIfEnv(&config.ChainConfig.ContractAddress, "CONTRACT_ADDRESS")
	setIfEnv(&config.ChainConfig.AdminAddress, "ADMIN_ADDRESS")
	setIfEnv(&config.ChainConfig.AdminPrivateKey, "ADMIN_PRIVATE_KEY")
}

func setIfEnv(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}
