// ativixctl é o cliente de linha de comando do Ativix.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/ativix/ativix/pkg/client"
	"github.com/ativix/ativix/pkg/editor"
	"github.com/ativix/ativix/pkg/session"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type command struct {
	usage string
	run   func(ctx context.Context, args []string) error
}

// cli reúne o estado de uma execução
type cli struct {
	api       *client.Client
	store     *session.Store
	editor    *editor.Editor
	in        *bufio.Reader
	out       io.Writer
	logger    *zap.Logger
	assumeYes bool
	commands  map[string]command
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func newCLI(cfg ctlConfig, in io.Reader, out io.Writer, logger *zap.Logger) (*cli, error) {
	store, err := session.NewStore(cfg.SessionDir, logger)
	if err != nil {
		return nil, err
	}

	api, err := client.New(cfg.URL, store, logger)
	if err != nil {
		return nil, err
	}

	c := &cli{
		api:    api,
		store:  store,
		in:     bufio.NewReader(in),
		out:    out,
		logger: logger,
	}
	c.editor = editor.New(api, editor.NewNotifier(logger), editor.ConfirmFunc(c.confirm), logger)
	c.subscribe()
	c.commands = c.registry()
	return c, nil
}

func (c *cli) run(ctx context.Context, args []string) error {
	c.assumeYes = false
	if len(args) > 0 && (args[0] == "-y" || args[0] == "--yes") {
		c.assumeYes = true
		args = args[1:]
	}
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" {
		c.usage()
		return nil
	}

	cmd, ok := c.commands[args[0]]
	if !ok {
		c.usage()
		return fmt.Errorf("comando desconhecido: %s", args[0])
	}
	return cmd.run(ctx, args[1:])
}

func (c *cli) usage() {
	fmt.Fprintln(c.out, "Uso: ativixctl [-y] <comando> [argumentos]")
	fmt.Fprintln(c.out)
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(c.out, "  %-12s %s\n", name, c.commands[name].usage)
	}
}

// confirm pergunta no terminal; -y responde sim
func (c *cli) confirm(question string) bool {
	if c.assumeYes {
		return true
	}
	answer := strings.ToLower(c.prompt(question + " (s/n): "))
	return answer == "s" || answer == "sim"
}

func (c *cli) prompt(label string) string {
	fmt.Fprint(c.out, label)
	line, _ := c.in.ReadString('\n')
	return strings.TrimSpace(line)
}

// describe devolve o texto de alerta; falhas do editor trazem também o motivo do servidor
func describe(err error) string {
	var opErr *editor.OpError
	if errors.As(err, &opErr) {
		if detail := opErr.Detail(); detail != "" {
			return opErr.Message + " " + detail
		}
		return opErr.Message
	}
	var apiErr *client.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func main() {
	cfg, err := loadConfig(os.Getenv("ATIVIXCTL_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erro ao inicializar logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	c, err := newCLI(cfg, os.Stdin, os.Stdout, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}
