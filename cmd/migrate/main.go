package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ativix/ativix/internal/adapter/database"
	"github.com/ativix/ativix/pkg/config"
	"github.com/ativix/ativix/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	var (
		action       string
		name         string
		configPath   string
		driver       string
		dsn          string
		migrationDir string
	)

	flag.StringVar(&action, "action", "migrate", "Ação (migrate, create)")
	flag.StringVar(&name, "name", "", "Nome da migração (apenas para action=create)")
	flag.StringVar(&configPath, "config", "./config", "Diretório do config.yaml")
	flag.StringVar(&driver, "driver", "", "Driver de banco de dados (sqlite, mysql, postgres); sobrescreve a configuração")
	flag.StringVar(&dsn, "dsn", "", "DSN do banco de dados; sobrescreve a configuração")
	flag.StringVar(&migrationDir, "dir", "", "Diretório de migrações; sobrescreve a configuração")
	flag.Parse()

	logger, err := logging.NewLogger()
	if err != nil {
		fmt.Printf("Erro ao inicializar logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("Falha ao carregar configuração", zap.Error(err))
	}

	dbConfig := database.ConfigFrom(cfg.Database)
	if driver != "" {
		dbConfig.Driver = driver
	}
	if dsn != "" {
		dbConfig.DSN = dsn
	}
	if migrationDir != "" {
		dbConfig.MigrationDir = migrationDir
	}
	dbConfig.LogLevel = database.ParseLogLevel("info")

	ctx := context.Background()

	switch action {
	case "migrate":
		// NewDatabase aplica AutoMigrate e os arquivos SQL pendentes
		dbConfig.SkipMigrations = false
		db, err := database.NewDatabase(ctx, dbConfig, logger)
		if err != nil {
			logger.Fatal("Falha ao inicializar banco de dados", zap.Error(err))
		}
		defer db.Close()

		logger.Info("Migrações aplicadas com sucesso",
			zap.String("driver", dbConfig.Driver),
			zap.String("dir", dbConfig.MigrationDir))

	case "create":
		if name == "" {
			logger.Fatal("Nome da migração é obrigatório para action=create")
		}

		dbConfig.SkipMigrations = true
		db, err := database.NewDatabase(ctx, dbConfig, logger)
		if err != nil {
			logger.Fatal("Falha ao inicializar banco de dados", zap.Error(err))
		}
		defer db.Close()

		path, err := db.CreateMigration(name)
		if err != nil {
			logger.Fatal("Falha ao criar migração", zap.Error(err))
		}

		logger.Info("Migração criada", zap.String("path", path))

	default:
		logger.Fatal("Ação desconhecida", zap.String("action", action))
	}
}
