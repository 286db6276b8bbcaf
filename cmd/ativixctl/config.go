package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ctlConfig é a configuração da CLI: arquivo ativixctl.yaml e variáveis ATIVIXCTL_*
type ctlConfig struct {
	URL        string
	SessionDir string
	Verbose    bool
}

func loadConfig(path string) (ctlConfig, error) {
	v := viper.New()
	v.SetDefault("url", "http://localhost:8080")
	v.SetDefault("sessionDir", "")
	v.SetDefault("verbose", false)

	v.SetConfigName("ativixctl")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return ctlConfig{}, fmt.Errorf("erro ao ler ativixctl.yaml: %w", err)
		}
	}

	// ATIVIXCTL_URL, ATIVIXCTL_SESSION_DIR
	v.SetEnvPrefix("ATIVIXCTL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("sessionDir", "ATIVIXCTL_SESSION_DIR")

	return ctlConfig{
		URL:        v.GetString("url"),
		SessionDir: v.GetString("sessionDir"),
		Verbose:    v.GetBool("verbose"),
	}, nil
}
