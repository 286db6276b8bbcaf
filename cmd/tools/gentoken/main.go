package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ativix/ativix/internal/domain/model"
	"github.com/ativix/ativix/pkg/config"
	"github.com/ativix/ativix/pkg/security"
	"go.uber.org/zap"
)

func main() {
	var (
		userID     string
		username   string
		role       string
		ttl        time.Duration
		configPath string
	)

	flag.StringVar(&userID, "user_id", "", "ID do usuário (obrigatório)")
	flag.StringVar(&username, "username", "", "Username gravado no token")
	flag.StringVar(&role, "role", "ADMIN", "Papel gravado no token (USER, ADMIN)")
	flag.DurationVar(&ttl, "ttl", 24*time.Hour, "Validade do token")
	flag.StringVar(&configPath, "config", "./config", "Diretório do config.yaml")
	flag.Parse()

	if userID == "" {
		fmt.Println("Erro: O ID do usuário não pode ser vazio.")
		fmt.Println("Uso: gentoken -user_id=<ID do usuário> [-username=<username>] [-role=ADMIN]")
		os.Exit(1)
	}

	parsed, ok := model.ParseRole(role)
	if !ok {
		fmt.Printf("Erro: papel inválido %q (use USER ou ADMIN)\n", role)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Erro ao carregar configuração: %v\n", err)
		os.Exit(1)
	}

	km, err := security.NewKeyManager(security.GetJWTSecret(cfg), zap.NewNop())
	if err != nil {
		fmt.Printf("Erro: %v\n", err)
		fmt.Println("Configure JWT_SECRET_KEY, JWT_SECRET ou auth.jwtSecret no config.yaml (mínimo de 32 bytes).")
		os.Exit(1)
	}

	tokenString, err := km.GenerateToken(userID, username, string(parsed), ttl)
	if err != nil {
		fmt.Printf("Erro ao gerar token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nToken JWT gerado:")
	fmt.Println("------------------------------------------")
	fmt.Println(tokenString)
	fmt.Println("------------------------------------------")
	fmt.Printf("\nDetalhes do token:\n")
	fmt.Printf("ID do usuário: %s\n", userID)
	fmt.Printf("Papel: %s\n", parsed)
	fmt.Printf("Expira em: %s\n", time.Now().Add(ttl).Format(time.RFC3339))
	fmt.Println("\nO servidor recarrega o usuário pelo ID; o ID precisa existir no banco.")
	fmt.Printf("Authorization: Bearer %s\n", tokenString)
}
