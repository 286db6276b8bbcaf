package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ativix/ativix/internal/adapter/database"
	"github.com/ativix/ativix/internal/domain/model"
	"github.com/ativix/ativix/internal/domain/repository"
	"github.com/ativix/ativix/pkg/config"
	"github.com/ativix/ativix/pkg/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	var (
		username   string
		password   string
		name       string
		email      string
		configPath string
		yes        bool
		verbose    bool
	)

	flag.StringVar(&username, "username", "", "Nome de usuário do admin")
	flag.StringVar(&password, "password", "", "Senha do admin")
	flag.StringVar(&name, "name", "", "Nome completo")
	flag.StringVar(&email, "email", "", "Email do admin")
	flag.StringVar(&configPath, "config", "./config", "Diretório do config.yaml")
	flag.BoolVar(&yes, "yes", false, "Sobrescrever sem perguntar")
	flag.BoolVar(&verbose, "verbose", false, "Mostrar logs detalhados")
	flag.Parse()

	if err := validation.RequireCredentials(username, password); err != nil {
		fmt.Printf("Erro: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}
	if err := validation.PasswordLength(password); err != nil {
		fmt.Printf("Erro: %v\n", err)
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

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, database.ConfigFrom(cfg.Database), logger)
	if err != nil {
		fmt.Printf("Erro ao conectar ao banco de dados: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := database.NewUserRepository(db.DB(), logger)

	isUpdate := false
	if _, err := repo.GetByUsername(ctx, username); err == nil {
		isUpdate = true
		if !yes && !confirm(fmt.Sprintf("Usuário '%s' já existe. Deseja sobrescrevê-lo? (s/n): ", username)) {
			fmt.Println("Operação cancelada pelo usuário.")
			os.Exit(0)
		}
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		fmt.Printf("Erro ao verificar usuário existente: %v\n", err)
		os.Exit(1)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("Erro ao processar senha: %v\n", err)
		os.Exit(1)
	}

	admin := &model.UserEntity{
		Name:     strings.TrimSpace(name),
		Username: strings.TrimSpace(username),
		Password: string(hashedPassword),
		Email:    strings.TrimSpace(email),
		Role:     string(model.RoleAdmin),
	}

	if err := repo.Save(ctx, admin); err != nil {
		fmt.Printf("Erro ao salvar usuário no banco de dados: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n╭──────────────────────────────────────────╮")
	if isUpdate {
		fmt.Println("│    Usuário admin atualizado com sucesso    │")
	} else {
		fmt.Println("│      Usuário admin criado com sucesso      │")
	}
	fmt.Println("├──────────────────────────────────────────┤")
	fmt.Printf("│ ID: %-36s │\n", admin.ID)
	fmt.Printf("│ Username: %-30s │\n", admin.Username)
	fmt.Printf("│ Email: %-33s │\n", admin.Email)
	fmt.Printf("│ Role: %-34s │\n", admin.Role)
	fmt.Println("╰──────────────────────────────────────────╯")
	fmt.Println("\nEntre com: ativixctl login -u", admin.Username)
}

func confirm(question string) bool {
	fmt.Print(question)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "s" || answer == "sim"
}
