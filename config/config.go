// config/config.go
package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration stores all the configurations
type Configuration struct {
	Server        ServerConfiguration
	PowerBI       PowerBIConfiguration
	LDAP          LDAPConfiguration
	Redis         RedisConfiguration
	Elasticsearch ElasticsearchConfiguration
}

// ServerConfiguration stores the port and other web server settings
type ServerConfiguration struct {
	Port string
}

// PowerBIConfiguration stores the NTLM service account and the known servers
type PowerBIConfiguration struct {
	Domain   string
	Username string
	Password string
	Servers  []string
}

// LDAPConfiguration stores the directory bind settings
type LDAPConfiguration struct {
	URL          string
	BindDN       string
	BindPassword string
	SearchBase   string
}

// RedisConfiguration stores data for the optional Redis connection
type RedisConfiguration struct {
	Enabled bool
	Addr    string
}

// ElasticsearchConfiguration stores data for the optional audit sink
type ElasticsearchConfiguration struct {
	Enabled bool
	URL     string
}

var config *Configuration

func InitConfig() error {
	viper.AddConfigPath("config") // path to look for the config file in
	viper.SetConfigName("config") // name of the config file (without extension)
	viper.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// Set default configurations
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("http.timeout", "30s")
	viper.SetDefault("http.upstreamTimeout", "40s")
	viper.SetDefault("cache.ttl", "60s")
	viper.SetDefault("batch.size", 20)
	viper.SetDefault("ratelimit.requests", 100)
	viper.SetDefault("ratelimit.window", "1m")
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("elasticsearch.enabled", false)
	viper.SetDefault("elasticsearch.url", "http://localhost:9200")
	viper.SetDefault("log.dir", "logging")

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found. Using default settings and environment variables.")
		} else {
			return err
		}
	}

	// Unmarshal the configuration into the Configuration struct
	err := viper.Unmarshal(&config)
	if err != nil {
		return err
	}

	return nil
}

// GetConfig returns the loaded configuration
func GetConfig() *Configuration {
	return config
}

// GetString retrieves a string value from the configuration
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt retrieves an integer value from the configuration
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool retrieves a boolean value from the configuration
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration retrieves a duration value from the configuration
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// GetStringSlice retrieves a list value from the configuration
func GetStringSlice(key string) []string {
	return viper.GetStringSlice(key)
}

// DirectoryConfigured reports whether the global LDAP settings are complete
func DirectoryConfigured() bool {
	return viper.GetString("ldap.url") != "" &&
		viper.GetString("ldap.bindDN") != "" &&
		viper.GetString("ldap.bindPassword") != "" &&
		viper.GetString("ldap.searchBase") != ""
}
