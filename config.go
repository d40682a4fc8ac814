// config.go

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path"
	"strconv"
	"time"

	// infisical
	infisical "github.com/infisical/go-sdk"
	"github.com/infisical/go-sdk/packages/models"

	// others
	"github.com/tailscale/hujson"
)

const (
	defaultGraphAPIBase          = "https://graph.facebook.com/v19.0"
	defaultDelaySeconds          = 5
	defaultLimit                 = 25
	defaultRequestTimeoutSeconds = 30

	infisicalTimeoutSeconds = 10
)

// environment variables
const (
	envPostID         = "FB_POST_ID"
	envAccessToken    = "FB_ACCESS_TOKEN"
	envDelay          = "FB_DELAY"
	envLimit          = "FB_LIMIT"
	envGraphAPIBase   = "FB_GRAPH_API_BASE"
	envBrowserBin     = "FB_BROWSER_BIN"
	envTelegramToken  = "FB_TELEGRAM_BOT_TOKEN"
	envTelegramChatID = "FB_TELEGRAM_CHAT_ID"
)

// struct for configuration
type config struct {
	// target post and credential
	PostID      string `json:"post_id,omitempty"`
	AccessToken string `json:"access_token,omitempty"`

	// posting and listing
	DelaySeconds float64 `json:"delay_seconds"`
	Limit        int     `json:"limit"`

	// graph api
	GraphAPIBase          string `json:"graph_api_base,omitempty"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds,omitempty"`

	// browser launcher
	BrowserBin string `json:"browser_bin,omitempty"`

	// logging
	IsVerbose bool `json:"is_verbose,omitempty"`

	// batch notification (optional)
	Telegram *telegramConfig `json:"telegram,omitempty"`

	// or Infisical settings for the access token
	Infisical *struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`

		ProjectID   string `json:"project_id"`
		Environment string `json:"environment"`
		SecretType  string `json:"secret_type"`

		AccessTokenKeyPath string `json:"access_token_key_path"`
	} `json:"infisical,omitempty"`
}

type telegramConfig struct {
	BotToken string `json:"bot_token"`
	ChatID   int64  `json:"chat_id"`
}

func defaultConfig() config {
	return config{
		DelaySeconds:          defaultDelaySeconds,
		Limit:                 defaultLimit,
		GraphAPIBase:          defaultGraphAPIBase,
		RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
	}
}

// loadConfig builds the configuration from defaults, the optional config
// file at `filepath`, the environment, and a non-empty `postID` flag, in
// increasing precedence.
//
// The post id is checked before Infisical is asked for the access token.
func loadConfig(
	ctx context.Context,
	filepath string,
	postID string,
) (conf config, err error) {
	if conf, err = readConfigFile(filepath); err != nil {
		return config{}, err
	}

	if err = conf.applyEnv(); err != nil {
		return config{}, err
	}
	if postID != "" {
		conf.PostID = postID
	}

	if conf.AccessToken == "" && conf.Infisical != nil {
		if conf.PostID == "" {
			return config{}, errNoPostID()
		}

		if conf.AccessToken, err = fetchAccessToken(ctx, conf); err != nil {
			return config{}, err
		}
	}

	return conf, nil
}

// read config file over the defaults; an empty `filepath` yields the defaults
func readConfigFile(filepath string) (conf config, err error) {
	conf = defaultConfig()
	if filepath == "" {
		return conf, nil
	}

	var bytes []byte
	if bytes, err = os.ReadFile(filepath); err != nil {
		return config{}, configErrorf("failed to read config file: %s", err)
	}
	if bytes, err = standardizeJSON(bytes); err == nil {
		err = json.Unmarshal(bytes, &conf)
	}
	if err != nil {
		return config{}, configErrorf("failed to parse config file '%s': %s", filepath, err)
	}

	return conf, nil
}

// applyEnv overrides values with non-empty environment variables.
func (c *config) applyEnv() error {
	c.PostID = envOrDefault(envPostID, c.PostID)
	c.AccessToken = envOrDefault(envAccessToken, c.AccessToken)
	c.GraphAPIBase = envOrDefault(envGraphAPIBase, c.GraphAPIBase)
	c.BrowserBin = envOrDefault(envBrowserBin, c.BrowserBin)

	if s := os.Getenv(envDelay); s != "" {
		delay, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return configErrorf("%s: %s", envDelay, err)
		}
		c.DelaySeconds = delay
	}
	if s := os.Getenv(envLimit); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			return configErrorf("%s: %s", envLimit, err)
		}
		c.Limit = limit
	}

	if token := os.Getenv(envTelegramToken); token != "" {
		if c.Telegram == nil {
			c.Telegram = &telegramConfig{}
		}
		c.Telegram.BotToken = token
	}
	if s := os.Getenv(envTelegramChatID); s != "" {
		chatID, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return configErrorf("%s: %s", envTelegramChatID, err)
		}
		if c.Telegram == nil {
			c.Telegram = &telegramConfig{}
		}
		c.Telegram.ChatID = chatID
	}

	return nil
}

// validate checks the settings every action depends on.
func (c config) validate() error {
	if c.AccessToken == "" {
		return configErrorf("%s not set", envAccessToken)
	}
	if c.PostID == "" {
		return errNoPostID()
	}
	if math.IsNaN(c.DelaySeconds) || c.DelaySeconds < 0 {
		return validationErrorf("delay must be a non-negative number: %v", c.DelaySeconds)
	}
	// must fit in a time.Duration
	if math.IsInf(c.DelaySeconds, 0) || c.DelaySeconds*float64(time.Second) >= math.MaxInt64 {
		return validationErrorf("delay is too long: %v", c.DelaySeconds)
	}
	if c.Limit <= 0 {
		return validationErrorf("limit must be positive: %d", c.Limit)
	}

	return nil
}

func errNoPostID() error {
	return configErrorf("no post ID provided, use --post-id or set %s", envPostID)
}

func (c config) delay() time.Duration {
	return time.Duration(c.DelaySeconds * float64(time.Second))
}

func (c config) requestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return defaultRequestTimeoutSeconds * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// notifies via telegram only when both the token and the chat are known
func (c config) telegramEnabled() bool {
	return c.Telegram != nil && c.Telegram.BotToken != "" && c.Telegram.ChatID != 0
}

// read the access token from infisical
func fetchAccessToken(ctx context.Context, conf config) (string, error) {
	ctxInfisical, cancelInfisical := context.WithTimeout(ctx, infisicalTimeoutSeconds*time.Second)
	defer cancelInfisical()

	client := infisical.NewInfisicalClient(
		ctxInfisical,
		infisical.Config{
			SiteUrl: "https://app.infisical.com",
		},
	)

	_, err := client.Auth().UniversalAuthLogin(
		conf.Infisical.ClientID,
		conf.Infisical.ClientSecret,
	)
	if err != nil {
		return "", configErrorf("failed to authenticate with Infisical: %s", err)
	}

	keyPath := conf.Infisical.AccessTokenKeyPath

	var secret models.Secret
	secret, err = client.Secrets().Retrieve(infisical.RetrieveSecretOptions{
		ProjectID:   conf.Infisical.ProjectID,
		Type:        conf.Infisical.SecretType,
		Environment: conf.Infisical.Environment,
		SecretPath:  path.Dir(keyPath),
		SecretKey:   path.Base(keyPath),
	})
	if err != nil {
		return "", configErrorf("failed to retrieve access token from Infisical: %s", err)
	}

	return secret.SecretValue, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// standardize given JSON (JWCC) bytes
func standardizeJSON(b []byte) ([]byte, error) {
	ast, err := hujson.Parse(b)
	if err != nil {
		return b, err
	}
	ast.Standardize()

	return ast.Pack(), nil
}

// used in debug logs, never prints the token itself
func (c config) String() string {
	return fmt.Sprintf(
		"post_id=%s delay=%s limit=%d graph_api_base=%s telegram=%t",
		c.PostID, c.delay(), c.Limit, c.GraphAPIBase, c.telegramEnabled(),
	)
}
