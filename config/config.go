package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Backend  Backend
	Auth     Auth
	Server   Server
	Database Database
	Log      Log
}

type Backend struct {
	BaseURL      string
	MethodPrefix string
	Timeout      time.Duration
}

type Auth struct {
	Token     string
	TokenFile string
	UserEmail string
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type Log struct {
	Level  string
	Pretty bool
}

// DefaultMethodPrefix is the dotted-RPC mount point on the Frappe backend.
const DefaultMethodPrefix = "/api/method/elearning.elearning.doctype."

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.SetDefault("BACKEND_METHOD_PREFIX", DefaultMethodPrefix)
	viper.SetDefault("BACKEND_TIMEOUT_SECONDS", 60)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_PRETTY", true)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Backend.BaseURL = viper.GetString("BACKEND_BASE_URL")
	config.Backend.MethodPrefix = viper.GetString("BACKEND_METHOD_PREFIX")
	config.Backend.Timeout = time.Duration(viper.GetInt("BACKEND_TIMEOUT_SECONDS")) * time.Second

	config.Auth.Token = viper.GetString("AUTH_TOKEN")
	config.Auth.TokenFile = viper.GetString("AUTH_TOKEN_FILE")
	config.Auth.UserEmail = viper.GetString("AUTH_USER_EMAIL")

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Log.Level = viper.GetString("LOG_LEVEL")
	config.Log.Pretty = viper.GetBool("LOG_PRETTY")

	log.Info().Str("backend", config.Backend.BaseURL).Msg("Config loaded")
	return &config, nil
}
