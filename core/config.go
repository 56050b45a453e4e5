package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf holds the app configuration. It is loaded once at startup.
var Conf *Config

type Config struct {
	Debug    bool
	TestMode bool
	Env      string
	Build    string
	AppName  string

	SecretKey        string
	DefaultFromEmail mail.Address
	AdminAlertEmail  string
	SendgridApiKey   string
	RollbarToken     string

	Server struct {
		Host               string
		Address            string
		JWTExpirationDelta time.Duration
	}

	Storage struct {
		Backend     string // inmem | file | postgres
		Dir         string // file backend data directory
		DatabaseDSN string // postgres backend
	}

	Counter struct {
		// MirrorWindow is the timestamp tolerance within which a comment and
		// its mirroring notification are treated as the same fact.
		MirrorWindow time.Duration
	}
}

func init() {
	Conf = loadConfig()
}

func loadConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Arifa")
	v.SetDefault("secretKey", "w#2p0q-x5ze&9dz$uoh7(h!x)c2(#yg4h^$cegm2emy+57=nb")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("adminAlertEmail", "")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddress", ":8000")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("storageBackend", "file")
	v.SetDefault("storageDir", "data")
	v.SetDefault("databaseDsn", "")
	v.SetDefault("mirrorWindow", time.Minute)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case strings.ToUpper("TEST"):
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		DefaultFromEmail: mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},
		AdminAlertEmail:  v.GetString("adminAlertEmail"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
	}
	conf.Server.Host = v.GetString("serverHost")
	conf.Server.Address = v.GetString("serverAddress")
	conf.Server.JWTExpirationDelta = v.GetDuration("jwtExpirationDelta")
	conf.Storage.Backend = v.GetString("storageBackend")
	conf.Storage.Dir = v.GetString("storageDir")
	conf.Storage.DatabaseDSN = v.GetString("databaseDsn")
	conf.Counter.MirrorWindow = v.GetDuration("mirrorWindow")
	return conf
}
