// Package config carga la configuración del proceso: YAML + overrides por
// variables de entorno. El objeto resultante es inmutable y se inyecta en la
// construcción de los servicios; no hay secretos a nivel de package.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Auth struct {
		// SigningSecret firma los session tokens y el state federado (HS256).
		SigningSecret string `yaml:"signing_secret"`
		SessionTTL    string `yaml:"session_ttl"`
	} `yaml:"auth"`

	SSO struct {
		// Providers por nombre ("oidc", "entra"). Config incompleta = provider
		// deshabilitado, nunca un error al arrancar.
		Providers map[string]Provider `yaml:"providers"`
		// StateTTL limita la vida del state firmado del flujo de callback.
		StateTTL string `yaml:"state_ttl"`
	} `yaml:"sso"`

	Cleanup struct {
		// Interval del sweep de api tokens expirados. 0 = deshabilitado.
		Interval string `yaml:"interval"`
	} `yaml:"cleanup"`
}

// Provider es la configuración de un identity provider externo.
type Provider struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	// Authority es la base del discovery OIDC (issuer). Para entra se arma a
	// partir de DirectoryID si viene vacía.
	Authority   string   `yaml:"authority"`
	DirectoryID string   `yaml:"directory_id"` // solo entra
	RedirectURI string   `yaml:"redirect_uri"`
	Scopes      []string `yaml:"scopes"`
}

// Complete indica si el provider tiene la configuración mínima para operar.
func (p Provider) Complete() bool {
	return p.ClientID != "" && p.ClientSecret != "" && p.RedirectURI != "" &&
		(p.Authority != "" || p.DirectoryID != "")
}

func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "10m"
	}
	if c.Auth.SessionTTL == "" {
		c.Auth.SessionTTL = "24h"
	}
	if c.SSO.StateTTL == "" {
		c.SSO.StateTTL = "10m"
	}
	if c.Cleanup.Interval == "" {
		c.Cleanup.Interval = "1h"
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// applyEnvOverrides pisa el YAML con variables de entorno TENANTGATE_*.
// Los secretos normalmente llegan por acá, no por el archivo.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("TENANTGATE_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("TENANTGATE_LOG_LEVEL"); ok {
		c.App.LogLevel = v
	}
	if v, ok := getEnvStr("TENANTGATE_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("TENANTGATE_STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("TENANTGATE_STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("TENANTGATE_CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("TENANTGATE_REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("TENANTGATE_REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("TENANTGATE_SIGNING_SECRET"); ok {
		c.Auth.SigningSecret = v
	}
	if v, ok := getEnvStr("TENANTGATE_SESSION_TTL"); ok {
		c.Auth.SessionTTL = v
	}
	if v, ok := getEnvStr("TENANTGATE_CLEANUP_INTERVAL"); ok {
		c.Cleanup.Interval = v
	}

	// Providers: TENANTGATE_SSO_<NAME>_{CLIENT_ID,CLIENT_SECRET,AUTHORITY,
	// DIRECTORY_ID,REDIRECT_URI}
	for _, name := range []string{"oidc", "entra"} {
		p := c.SSO.Providers[name]
		up := strings.ToUpper(name)
		changed := false
		if v, ok := getEnvStr("TENANTGATE_SSO_" + up + "_CLIENT_ID"); ok {
			p.ClientID, changed = v, true
		}
		if v, ok := getEnvStr("TENANTGATE_SSO_" + up + "_CLIENT_SECRET"); ok {
			p.ClientSecret, changed = v, true
		}
		if v, ok := getEnvStr("TENANTGATE_SSO_" + up + "_AUTHORITY"); ok {
			p.Authority, changed = v, true
		}
		if v, ok := getEnvStr("TENANTGATE_SSO_" + up + "_DIRECTORY_ID"); ok {
			p.DirectoryID, changed = v, true
		}
		if v, ok := getEnvStr("TENANTGATE_SSO_" + up + "_REDIRECT_URI"); ok {
			p.RedirectURI, changed = v, true
		}
		if changed {
			if c.SSO.Providers == nil {
				c.SSO.Providers = map[string]Provider{}
			}
			c.SSO.Providers[name] = p
		}
	}
}

// Validate chequea lo mínimo para arrancar. Un provider SSO incompleto NO es
// error: queda deshabilitado.
func (c *Config) Validate() error {
	if c.Auth.SigningSecret == "" {
		return fmt.Errorf("auth.signing_secret is required (TENANTGATE_SIGNING_SECRET)")
	}
	if _, err := time.ParseDuration(c.Auth.SessionTTL); err != nil {
		return fmt.Errorf("auth.session_ttl: %w", err)
	}
	if _, err := time.ParseDuration(c.SSO.StateTTL); err != nil {
		return fmt.Errorf("sso.state_ttl: %w", err)
	}
	if _, err := time.ParseDuration(c.Cleanup.Interval); err != nil {
		return fmt.Errorf("cleanup.interval: %w", err)
	}
	switch c.Storage.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("storage.driver %q not supported", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required for postgres")
	}
	return nil
}

// SessionTTL parsea el TTL de sesión ya validado.
func (c *Config) SessionTTL() time.Duration {
	d, _ := time.ParseDuration(c.Auth.SessionTTL)
	return d
}

// StateTTL parsea el TTL del state federado ya validado.
func (c *Config) StateTTL() time.Duration {
	d, _ := time.ParseDuration(c.SSO.StateTTL)
	return d
}

// CleanupInterval parsea el intervalo del sweep ya validado.
func (c *Config) CleanupInterval() time.Duration {
	d, _ := time.ParseDuration(c.Cleanup.Interval)
	return d
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
