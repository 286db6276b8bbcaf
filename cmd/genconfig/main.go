package main

import (
	"flag"
	"fmt"
	"os"
	"regexp"

	"github.com/ativix/ativix/pkg/config"
	"gopkg.in/yaml.v3"
)

// comentários adicionados após chaves do YAML gerado
var annotations = map[string]string{
	"skipmigrations": "false aplica migrações (padrão), true pula",
	"jwtsecret":      "mínimo de 32 bytes; prefira ATIVIX_AUTH_JWTSECRET ou JWT_SECRET",
	"timezone":       "fuso usado nas chaves de dia e semana dos relatórios",
	"backend":        "memory ou redis",
}

func main() {
	var (
		outputPath string
		force      bool
		driver     string
	)

	flag.StringVar(&outputPath, "output", "config.yaml", "Caminho para o arquivo de configuração de saída")
	flag.BoolVar(&force, "force", false, "Sobrescrever arquivo se existir")
	flag.StringVar(&driver, "driver", "sqlite", "Driver de banco de dados (sqlite, mysql, postgres)")
	flag.Parse()

	if _, err := os.Stat(outputPath); err == nil && !force {
		fmt.Printf("Erro: arquivo %s já existe. Use --force para sobrescrever.\n", outputPath)
		os.Exit(1)
	}

	cfg := config.Default()
	cfg.Database.Driver = driver
	switch driver {
	case "postgres":
		cfg.Database.DSN = "host=localhost user=ativix password=ativix dbname=ativix port=5432 sslmode=disable"
	case "mysql":
		cfg.Database.DSN = "ativix:ativix@tcp(localhost:3306)/ativix?charset=utf8mb4&parseTime=True&loc=Local"
	case "sqlite":
	default:
		fmt.Printf("Erro: driver desconhecido %s\n", driver)
		os.Exit(1)
	}
	cfg.Auth.JWTSecret = "troque-por-um-segredo-com-32-bytes-ou-mais"
	cfg.Server.CertFile = "/path/to/cert.pem"
	cfg.Server.KeyFile = "/path/to/key.pem"

	data, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Printf("Erro ao serializar configuração: %v\n", err)
		os.Exit(1)
	}

	yamlStr := string(data)
	for key, comment := range annotations {
		re := regexp.MustCompile(`(?m)^(\s*` + key + `:.*)$`)
		yamlStr = re.ReplaceAllString(yamlStr, `$1  # `+comment)
	}

	if err := os.WriteFile(outputPath, []byte(yamlStr), 0o600); err != nil {
		fmt.Printf("Erro ao escrever arquivo: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Arquivo de configuração gerado em: %s\n", outputPath)
}
