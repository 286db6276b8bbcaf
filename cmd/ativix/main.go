package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ativix/ativix/internal/app"
	"github.com/ativix/ativix/pkg/config"
	"github.com/ativix/ativix/pkg/logging"
	"github.com/ativix/ativix/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// setupServer monta o http.Server; com TLS usa os certificados da configuração
func setupServer(router *gin.Engine, cfg *config.Config, logger *zap.Logger) *http.Server {
	server := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	if !cfg.Server.TLS {
		logger.Info("Iniciando em modo HTTP", zap.String("addr", server.Addr))
		return server
	}

	logger.Info("Usando certificados TLS fornecidos",
		zap.String("certFile", cfg.Server.CertFile),
		zap.String("keyFile", cfg.Server.KeyFile))

	server.TLSConfig = &tls.Config{
		MinVersion: tls.VersionTLS12,
	}
	return server
}

func checkCertificates(cfg *config.Config) error {
	for _, path := range []string{cfg.Server.CertFile, cfg.Server.KeyFile} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("arquivo TLS indisponível %q: %w", path, err)
		}
	}
	return nil
}

func main() {
	configPath := flag.String("config", "./config", "diretório do config.yaml")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Falha ao carregar configuração: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLoggerFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erro ao inicializar logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Logging.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	tp, err := telemetry.NewTracerProvider(context.Background(), cfg.Tracing, logger)
	if err != nil {
		logger.Error("Falha ao inicializar tracer", zap.Error(err))
	} else {
		defer tp.Shutdown(context.Background())
	}

	ctx, span := otel.Tracer("ativix.main").Start(context.Background(), "Server Initialization")

	application, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.End()
		logger.Fatal("Falha ao inicializar aplicação", zap.Error(err))
	}
	defer application.Close()

	router := gin.New()
	application.RegisterRoutes(router)
	span.End()

	if cfg.Server.TLS {
		if err := checkCertificates(cfg); err != nil {
			logger.Fatal("Certificados TLS inválidos", zap.Error(err))
		}
	}
	server := setupServer(router, cfg, logger)

	go func() {
		var err error
		if server.TLSConfig != nil {
			logger.Info("Iniciando servidor HTTPS", zap.String("addr", server.Addr))
			err = server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			logger.Info("Iniciando servidor HTTP", zap.String("addr", server.Addr))
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Erro ao iniciar servidor", zap.Error(err))
		}
	}()

	// Esperar por sinal de interrupção para shutdown gracioso
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Encerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Erro ao encerrar servidor", zap.Error(err))
		return
	}

	logger.Info("Servidor encerrado com sucesso")
}
