package accounts

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// EnvConfig is the process-wide configuration, loaded once at startup
// and passed explicitly into constructors. There is no ambient global
// lookup anywhere downstream.
type EnvConfig struct {
	SigningKey      string        `env:"ACCOUNTS_SIGNING_KEY"`
	Issuer          string        `env:"ACCOUNTS_TOKEN_ISSUER" envDefault:"go-accounts"`
	Audience        []string      `env:"ACCOUNTS_TOKEN_AUDIENCE"`
	AccessTokenTTL  time.Duration `env:"ACCOUNTS_ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"ACCOUNTS_REFRESH_TOKEN_TTL" envDefault:"168h"`
	BcryptCost      int           `env:"ACCOUNTS_BCRYPT_COST" envDefault:"14"`

	MediaRegion    string `env:"ACCOUNTS_MEDIA_REGION" envDefault:"us-east-1"`
	MediaEndpoint  string `env:"ACCOUNTS_MEDIA_ENDPOINT"`
	MediaBucket    string `env:"ACCOUNTS_MEDIA_BUCKET"`
	MediaAccessKey string `env:"ACCOUNTS_MEDIA_ACCESS_KEY"`
	MediaSecretKey string `env:"ACCOUNTS_MEDIA_SECRET_KEY"`
}

var _ Config = (*EnvConfig)(nil)

// LoadConfig reads configuration from the environment
func LoadConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to parse environment configuration")
	}
	return cfg, nil
}

func (c *EnvConfig) GetSigningKey() string              { return c.SigningKey }
func (c *EnvConfig) GetIssuer() string                  { return c.Issuer }
func (c *EnvConfig) GetAudience() []string              { return c.Audience }
func (c *EnvConfig) GetAccessTokenTTL() time.Duration   { return c.AccessTokenTTL }
func (c *EnvConfig) GetRefreshTokenTTL() time.Duration  { return c.RefreshTokenTTL }
func (c *EnvConfig) GetBcryptCost() int                 { return c.BcryptCost }
func (c *EnvConfig) GetMediaRegion() string             { return c.MediaRegion }
func (c *EnvConfig) GetMediaEndpoint() string           { return c.MediaEndpoint }
func (c *EnvConfig) GetMediaBucket() string             { return c.MediaBucket }
func (c *EnvConfig) GetMediaAccessKey() string          { return c.MediaAccessKey }
func (c *EnvConfig) GetMediaSecretKey() string          { return c.MediaSecretKey }
