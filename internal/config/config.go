package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is everything the process needs to talk to the open platform
// and keep local state.
type Config struct {
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
	APIBase   string `mapstructure:"api_base"`
	DataDir   string `mapstructure:"data_dir"`

	// Optional user grant pasted from an OAuth flow done elsewhere.
	// When present it seeds the credential store on first run.
	UserAccessToken string `mapstructure:"user_access_token"`
	RefreshToken    string `mapstructure:"refresh_token"`
}

// Load reads larkmd.yaml from ~/.config/larkmd or the working
// directory. FEISHU_APP_ID and FEISHU_APP_SECRET override the file. A
// missing file is fine as long as the app credentials arrive via the
// environment.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	v := viper.New()
	v.SetConfigName("larkmd")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(home, ".config", "larkmd"))
	v.AddConfigPath(".")

	v.SetDefault("api_base", "https://open.feishu.cn/open-apis")
	v.SetDefault("data_dir", filepath.Join(home, ".local", "share", "larkmd"))

	if err := v.BindEnv("app_id", "FEISHU_APP_ID"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("app_secret", "FEISHU_APP_SECRET"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.AppID == "" || cfg.AppSecret == "" {
		return nil, fmt.Errorf("app_id and app_secret are required (larkmd.yaml or FEISHU_APP_ID/FEISHU_APP_SECRET)")
	}
	return cfg, nil
}
