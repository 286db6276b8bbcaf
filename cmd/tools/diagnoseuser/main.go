package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ativix/ativix/internal/adapter/database"
	"github.com/ativix/ativix/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	var (
		username   string
		configPath string
		verbose    bool
	)

	flag.StringVar(&username, "username", "", "Nome de usuário a ser diagnosticado")
	flag.StringVar(&configPath, "config", "./config", "Diretório do config.yaml")
	flag.BoolVar(&verbose, "verbose", false, "Mostrar logs detalhados")
	flag.Parse()

	if username == "" {
		fmt.Println("Erro: username não pode ser vazio.")
		flag.Usage()
		os.Exit(1)
	}

	zcfg := zap.NewProductionConfig()
	if !verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
		zcfg.OutputPaths = []string{"stderr"}
	}
	logger, err := zcfg.Build()
	if err != nil {
		fmt.Printf("Erro ao inicializar logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Erro ao carregar configuração: %v\n", err)
		os.Exit(1)
	}

	dbConfig := database.ConfigFrom(cfg.Database)
	dbConfig.SkipMigrations = true

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, dbConfig, logger)
	if err != nil {
		fmt.Printf("Erro ao conectar ao banco de dados: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	report, err := database.NewUserRepository(db.DB(), logger).Diagnose(ctx, username)
	if err != nil {
		fmt.Printf("Erro ao diagnosticar usuário: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n╭─────────────────────────────────────────╮")
	fmt.Println("│       DIAGNÓSTICO DE ARMAZENAMENTO       │")
	fmt.Println("├─────────────────────────────────────────┤")
	fmt.Println(report)
	fmt.Println("╰─────────────────────────────────────────╯")
}
