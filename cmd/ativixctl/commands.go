package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ativix/ativix/internal/domain/model"
	"github.com/ativix/ativix/pkg/client"
	"github.com/ativix/ativix/pkg/editor"
	"github.com/ativix/ativix/pkg/nav"
	"github.com/ativix/ativix/pkg/report"
	"github.com/ativix/ativix/pkg/session"
	"github.com/ativix/ativix/pkg/validation"
	"go.uber.org/zap"
)

var errNoSession = errors.New("Nenhuma sessão ativa. Use: ativixctl login -u <usuário>")

func (c *cli) registry() map[string]command {
	return map[string]command{
		"login":       {"entra e grava a sessão (-u usuário [-p senha])", c.login},
		"logout":      {"encerra a sessão", c.logout},
		"whoami":      {"mostra o usuário da sessão", c.whoami},
		"menu":        {"lista as telas disponíveis para o seu papel", c.menu},
		"tema":        {"alterna entre modo claro e escuro", c.theme},
		"signup":      {"cadastro público de usuário", c.signup},
		"usuarios":    {"listar | cadastrar | remover <id>", c.users},
		"atividades":  {"listar | ver | criar | editar | concluir | fixar | remover", c.activities},
		"comentarios": {"adicionar <id> <texto> | editar <id> <comentário> <texto> | remover <id> <comentário>", c.comments},
		"relatorios":  {"<tipo> [-grafico] | exportar <tipo> [-format csv|pdf] [-o arquivo]", c.reports},
	}
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.out)
	return fs
}

// subscribe liga as telas ao editor: a atividade alterada é recarregada e o
// total de pendentes é atualizado
func (c *cli) subscribe() {
	n := c.editor.Notifier()
	n.Subscribe("atividade", func(ctx context.Context, ev editor.Event) error {
		if ev.Op == editor.OpDelete {
			fmt.Fprintf(c.out, "Atividade %s removida.\n", ev.ActivityID)
			return nil
		}
		a, err := c.api.GetActivity(ctx, ev.ActivityID)
		if err != nil {
			return err
		}
		c.printActivity(a)
		return nil
	})
	n.Subscribe("pendentes", func(ctx context.Context, ev editor.Event) error {
		list, err := c.api.ListActivities(ctx, client.ActivityFilter{Status: string(model.StatusPending)})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Atividades pendentes: %d\n", len(list))
		return nil
	})
}

func (c *cli) currentUser() (*session.User, error) {
	u := c.store.CurrentUser()
	if u == nil {
		return nil, errNoSession
	}
	return u, nil
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := c.flags("login")
	username := fs.String("u", "", "usuário")
	password := fs.String("p", "", "senha (perguntada quando omitida)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		*username = c.prompt("Usuário: ")
	}
	if *password == "" {
		*password = c.prompt("Senha: ")
	}

	resp, err := c.api.Login(ctx, *username, *password)
	if err != nil {
		return err
	}

	if err := c.store.Save(session.Session{Token: resp.Token, User: session.FromModel(&resp.User)}); err != nil {
		return err
	}

	name := resp.User.Name
	if name == "" {
		name = resp.User.Username
	}
	fmt.Fprintf(c.out, "Bem-vindo, %s (%s).\n", name, resp.User.Role)
	return nil
}

func (c *cli) logout(ctx context.Context, args []string) error {
	done, err := nav.Logout(c.confirm, c.store)
	if err != nil {
		return err
	}
	if done {
		fmt.Fprintln(c.out, "Sessão encerrada.")
	}
	return nil
}

func (c *cli) whoami(ctx context.Context, args []string) error {
	if _, err := c.currentUser(); err != nil {
		return err
	}
	u, err := c.api.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s (%s) %s\n", u.Username, u.Role, u.Name)
	return nil
}

func (c *cli) menu(ctx context.Context, args []string) error {
	u, err := c.currentUser()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	for _, it := range nav.Menu(u.Role) {
		fmt.Fprintf(tw, "%s\t%s\n", it.Label, it.Path)
	}
	fmt.Fprintf(tw, "%s\t-\n", nav.ThemeLabel(c.store.DarkMode()))
	fmt.Fprintln(tw, "Sair\t-")
	return tw.Flush()
}

func (c *cli) theme(ctx context.Context, args []string) error {
	label, err := nav.ToggleTheme(c.store)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Tema alterado. Próxima opção: %s\n", label)
	return nil
}

// registrationForm lê o formulário de cadastro das flags, perguntando as senhas omitidas
func (c *cli) registrationForm(name string, args []string, allowAdmin bool) (validation.RegistrationForm, error) {
	fs := c.flags(name)
	var form validation.RegistrationForm
	fs.StringVar(&form.Name, "name", "", "nome completo")
	fs.StringVar(&form.Username, "username", "", "usuário")
	fs.StringVar(&form.Email, "email", "", "email")
	fs.StringVar(&form.Password, "password", "", "senha")
	fs.StringVar(&form.Confirm, "confirm", "", "confirmação da senha")
	if allowAdmin {
		fs.BoolVar(&form.Admin, "admin", false, "cadastrar como administrador")
	}
	if err := fs.Parse(args); err != nil {
		return form, err
	}

	if form.Password == "" {
		form.Password = c.prompt("Senha: ")
	}
	if form.Confirm == "" {
		form.Confirm = c.prompt("Confirme a senha: ")
	}
	return form, form.Validate()
}

func (c *cli) register(ctx context.Context, form validation.RegistrationForm, requester *session.User) error {
	var err error
	if requester == nil {
		_, err = c.api.Signup(ctx, form.Request(nil))
	} else {
		_, err = c.api.CreateUser(ctx, form.Request(requester))
	}

	if err != nil {
		var apiErr *client.Error
		if errors.As(err, &apiErr) && apiErr.Status != 0 {
			return apiErr
		}
		c.logger.Error("Falha no cadastro", zap.Error(err))
		return errors.New(validation.MsgRegisterFailed)
	}

	form.Reset()
	fmt.Fprintln(c.out, validation.MsgRegistered)
	return nil
}

func (c *cli) signup(ctx context.Context, args []string) error {
	form, err := c.registrationForm("signup", args, false)
	if err != nil {
		return err
	}
	return c.register(ctx, form, nil)
}

func (c *cli) users(ctx context.Context, args []string) error {
	sub, rest := split(args, "listar")

	switch sub {
	case "listar":
		list, err := c.api.ListUsers(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tUsuário\tNome\tPapel")
		for _, u := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Name, u.Role)
		}
		return tw.Flush()

	case "cadastrar":
		requester, err := c.currentUser()
		if err != nil {
			return err
		}
		form, err := c.registrationForm("usuarios cadastrar", rest, true)
		if err != nil {
			return err
		}
		return c.register(ctx, form, requester)

	case "remover":
		if len(rest) != 1 {
			return errors.New("uso: usuarios remover <id>")
		}
		if !c.confirm("Tem certeza que deseja remover este usuário?") {
			return nil
		}
		if err := c.api.DeleteUser(ctx, rest[0]); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Usuário removido.")
		return nil
	}
	return fmt.Errorf("subcomando desconhecido: usuarios %s", sub)
}

func (c *cli) activities(ctx context.Context, args []string) error {
	sub, rest := split(args, "listar")
	if _, err := c.currentUser(); err != nil {
		return err
	}

	switch sub {
	case "listar":
		fs := c.flags("atividades listar")
		status := fs.String("status", "", "pendente | finalizada")
		assigned := fs.String("fixada", "", "username do responsável")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		list, err := c.api.ListActivities(ctx, client.ActivityFilter{Status: *status, AssignedTo: *assigned})
		if err != nil {
			return err
		}
		c.printActivities(list)
		return nil

	case "ver":
		a, err := c.activityArg(ctx, rest, "uso: atividades ver <id>")
		if err != nil {
			return err
		}
		c.printActivity(a)
		return nil

	case "criar":
		fs := c.flags("atividades criar")
		title := fs.String("t", "", "título")
		desc := fs.String("d", "", "descrição")
		assignee := fs.String("para", "", "fixar a um usuário (ADMIN)")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		in := client.NewActivity{Title: *title, Description: *desc}
		if *assignee != "" {
			in.AssignedTo = assignee
		}
		a, err := c.api.CreateActivity(ctx, in)
		if err != nil {
			return err
		}
		c.printActivity(a)
		return nil

	case "editar":
		if len(rest) < 1 {
			return errors.New("uso: atividades editar <id> [-t título] [-d descrição]")
		}
		fs := c.flags("atividades editar")
		title := fs.String("t", "", "título")
		desc := fs.String("d", "", "descrição")
		if err := fs.Parse(rest[1:]); err != nil {
			return err
		}
		a, err := c.api.GetActivity(ctx, rest[0])
		if err != nil {
			return err
		}
		patch := client.ActivityPatch{Version: a.Version}
		if *title != "" {
			patch.Title = title
		}
		if *desc != "" {
			patch.Description = desc
		}
		a, err = c.api.UpdateActivity(ctx, a.ID, patch)
		if err != nil {
			return err
		}
		c.printActivity(a)
		return nil

	case "concluir":
		a, err := c.activityArg(ctx, rest, "uso: atividades concluir <id>")
		if err != nil {
			return err
		}
		_, err = c.editor.Conclude(ctx, a)
		return err

	case "fixar":
		if len(rest) != 2 && len(rest) != 1 {
			return errors.New("uso: atividades fixar <id> [username]")
		}
		a, err := c.api.GetActivity(ctx, rest[0])
		if err != nil {
			return err
		}
		username := ""
		if len(rest) == 2 {
			username = rest[1]
		}
		_, err = c.editor.Assign(ctx, a, username)
		return err

	case "remover":
		a, err := c.activityArg(ctx, rest, "uso: atividades remover <id>")
		if err != nil {
			return err
		}
		_, err = c.editor.Delete(ctx, a)
		return err
	}
	return fmt.Errorf("subcomando desconhecido: atividades %s", sub)
}

func (c *cli) comments(ctx context.Context, args []string) error {
	sub, rest := split(args, "")
	if _, err := c.currentUser(); err != nil {
		return err
	}

	switch sub {
	case "adicionar":
		if len(rest) < 2 {
			return errors.New("uso: comentarios adicionar <id> <texto>")
		}
		a, err := c.api.GetActivity(ctx, rest[0])
		if err != nil {
			return err
		}
		_, err = c.editor.AddComment(ctx, a, strings.Join(rest[1:], " "))
		return err

	case "editar":
		if len(rest) < 3 {
			return errors.New("uso: comentarios editar <id> <comentário> <texto>")
		}
		a, err := c.api.GetActivity(ctx, rest[0])
		if err != nil {
			return err
		}
		_, err = c.editor.EditComment(ctx, a, rest[1], strings.Join(rest[2:], " "))
		return err

	case "remover":
		if len(rest) != 2 {
			return errors.New("uso: comentarios remover <id> <comentário>")
		}
		a, err := c.api.GetActivity(ctx, rest[0])
		if err != nil {
			return err
		}
		return c.editor.DeleteComment(ctx, a, rest[1])
	}
	return fmt.Errorf("subcomando desconhecido: comentarios %s", sub)
}

func (c *cli) reports(ctx context.Context, args []string) error {
	if _, err := c.currentUser(); err != nil {
		return err
	}
	if len(args) == 0 {
		return errors.New("uso: relatorios <usuarios|dia|semana|fixadas> [-grafico]")
	}

	if args[0] == "exportar" {
		return c.exportReport(ctx, args[1:])
	}

	kind, ok := model.ParseReportKind(args[0])
	if !ok {
		return fmt.Errorf("tipo de relatório inválido: %s", args[0])
	}
	fs := c.flags("relatorios")
	chart := fs.Bool("grafico", false, "mostrar gráfico de barras por usuário")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	r, err := c.api.Report(ctx, kind)
	if err != nil {
		return err
	}
	if err := report.WriteText(c.out, r); err != nil {
		return err
	}
	if *chart {
		fmt.Fprintln(c.out)
		return report.WriteChart(c.out, report.Chart(r), 40)
	}
	return nil
}

func (c *cli) exportReport(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("uso: relatorios exportar <tipo> [-format csv|pdf] [-o arquivo]")
	}
	kind, ok := model.ParseReportKind(args[0])
	if !ok {
		return fmt.Errorf("tipo de relatório inválido: %s", args[0])
	}

	fs := c.flags("relatorios exportar")
	formatFlag := fs.String("format", "csv", "csv | pdf")
	output := fs.String("o", "", "arquivo de saída (padrão: nome sugerido pelo servidor)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	format, ok := report.ParseFormat(*formatFlag)
	if !ok {
		return fmt.Errorf("formato inválido: %s", *formatFlag)
	}

	exp, err := c.api.ExportReport(ctx, kind, format)
	if err != nil {
		return err
	}

	path := *output
	if path == "" {
		path = exp.Filename
	}
	if err := os.WriteFile(path, exp.Data, 0o644); err != nil {
		return fmt.Errorf("gravando %s: %w", path, err)
	}
	fmt.Fprintf(c.out, "Relatório salvo em %s (%d bytes).\n", path, len(exp.Data))
	return nil
}

func (c *cli) activityArg(ctx context.Context, args []string, usage string) (*model.Activity, error) {
	if len(args) != 1 {
		return nil, errors.New(usage)
	}
	return c.api.GetActivity(ctx, args[0])
}

func (c *cli) printActivities(list []model.Activity) {
	if len(list) == 0 {
		fmt.Fprintln(c.out, "Nenhuma atividade encontrada.")
		return
	}
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTítulo\tStatus\tFixada\tConcluída por")
	for _, a := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.Title, a.Status, deref(a.AssignedTo), deref(a.ConcluidoPor))
	}
	_ = tw.Flush()
}

func (c *cli) printActivity(a *model.Activity) {
	user := c.store.CurrentUser().Model()

	fmt.Fprintf(c.out, "%s [%s] versão %d\n", a.Title, a.Status, a.Version)
	fmt.Fprintf(c.out, "ID: %s\n", a.ID)
	if a.Description != "" {
		fmt.Fprintf(c.out, "%s\n", a.Description)
	}
	if a.AssignedTo != nil {
		fmt.Fprintf(c.out, "Fixada para: %s\n", *a.AssignedTo)
	}
	if a.ConcluidoPor != nil {
		fmt.Fprintf(c.out, "Concluída por: %s\n", *a.ConcluidoPor)
	}

	var actions []string
	if editor.CanConclude(user, a) {
		actions = append(actions, "concluir")
	}
	if editor.CanAssign(user, a) {
		actions = append(actions, "fixar")
	}
	if editor.CanDelete(user) {
		actions = append(actions, "remover")
	}
	if len(actions) > 0 {
		fmt.Fprintf(c.out, "Ações: %s\n", strings.Join(actions, ", "))
	}

	if len(a.Comentarios) == 0 {
		return
	}
	fmt.Fprintln(c.out, "Comentários:")
	for i := range a.Comentarios {
		cm := &a.Comentarios[i]
		mark := ""
		if editor.CanEditComment(user, cm) {
			mark = " *"
		}
		fmt.Fprintf(c.out, "  [%s] %s: %s%s\n", cm.ID, cm.Autor, cm.Texto, mark)
	}
}

// split separa o subcomando dos argumentos; def é usado quando não há subcomando
func split(args []string, def string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return def, args
	}
	return args[0], args[1:]
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
