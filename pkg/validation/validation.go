// Package validation concentra as regras de cadastro usadas pelo servidor e
// pelos clientes, com as mensagens exibidas ao usuário. As regras ficam nas
// tags `binding` dos corpos: o gin as aplica no bind e Check as aplica fora
// dele, com o mesmo validador.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	apperrors "github.com/ativix/ativix/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// TagName é a tag lida pelo gin e por Check
const TagName = "binding"

// MinPasswordLength é o tamanho mínimo de senha aceito em qualquer cadastro
const MinPasswordLength = 6

// Mensagens do formulário de cadastro
const (
	MsgFillAllFields     = "Por favor, preencha todos os campos."
	MsgPasswordsMismatch = "As senhas não coincidem."
	MsgPasswordTooShort  = "A senha deve ter pelo menos 6 caracteres."
	MsgCredentials       = "username e password obrigatórios"
	MsgUsernameTooLong   = "O username deve ter no máximo 50 caracteres"
	MsgEmailTooLong      = "O email deve ter no máximo 100 caracteres"
	MsgNameTooLong       = "O nome deve ter no máximo 100 caracteres"
	MsgRegistered        = "Usuário cadastrado com sucesso!"
	MsgRegisterFailed    = "Erro ao cadastrar usuário. Tente novamente."
)

var (
	ErrFillAllFields     = errors.New(MsgFillAllFields)
	ErrPasswordsMismatch = errors.New(MsgPasswordsMismatch)
	ErrPasswordTooShort  = errors.New(MsgPasswordTooShort)
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Register instala as regras próprias (notblank) e os nomes de campo do JSON
// em um validador. Serve tanto para o motor do gin quanto para o local.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonName)
	return v.RegisterValidation("notblank", validators.NotBlank)
}

// Validator devolve o validador compartilhado, configurado com TagName
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.SetTagName(TagName)
		if err := Register(validate); err != nil {
			panic(fmt.Sprintf("validation: %v", err))
		}
	})
	return validate
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// Messages associa "Campo.regra" à mensagem exibida; "Campo" sozinho vale para
// qualquer regra do campo. Campo é o nome do campo na struct.
type Messages map[string]string

// Described é implementado pelos corpos que têm mensagens próprias
type Described interface {
	ValidationMessages() Messages
}

func (m Messages) lookup(fe validator.FieldError) string {
	if msg, ok := m[fe.StructField()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := m[fe.StructField()]; ok {
		return msg
	}
	return fmt.Sprintf("Campo %s inválido", fe.Field())
}

// FieldError é o detalhe por campo devolvido junto do erro
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Error é uma falha de validação; Message é a do primeiro campo inválido
type Error struct {
	Message string
	Fields  []FieldError
	err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.err }

// Translate converte erros do validator usando as mensagens de subject.
// Devolve nil quando err não é uma falha de validação.
func Translate(err error, subject interface{}) *Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return nil
	}

	var msgs Messages
	if d, ok := subject.(Described); ok {
		msgs = d.ValidationMessages()
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag(), Message: msgs.lookup(fe)})
	}
	return &Error{Message: fields[0].Message, Fields: fields, err: err}
}

// Check valida s com as tags binding. O erro é *Error, salvo quando s nem é
// uma struct.
func Check(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	if verr := Translate(err, s); verr != nil {
		return verr
	}
	return err
}

// BadRequest converte um erro de Check em resposta 400 com os campos em details
func BadRequest(err error) *apperrors.APIError {
	var verr *Error
	if errors.As(err, &verr) {
		return apperrors.BadRequest(verr.Message, err).WithDetails(verr.Fields)
	}
	return apperrors.BadRequest(err.Error(), err)
}

// Credentials é o par usado no login
type Credentials struct {
	Username string `json:"username" binding:"notblank"`
	Password string `json:"password" binding:"required"`
}

func (Credentials) ValidationMessages() Messages {
	return Messages{"Username": MsgCredentials, "Password": MsgCredentials}
}

// RequireCredentials exige username e senha não vazios
func RequireCredentials(username, password string) error {
	return Check(Credentials{Username: username, Password: password})
}

// PasswordLength verifica o tamanho mínimo em caracteres
func PasswordLength(password string) error {
	if Validator().Var(password, fmt.Sprintf("min=%d", MinPasswordLength)) != nil {
		return ErrPasswordTooShort
	}
	return nil
}

// Requester é quem está preenchendo o formulário
type Requester interface {
	IsAdmin() bool
}

// CreateUserRequest é o corpo enviado para POST /users e /users/signup. O
// tamanho da senha é conferido depois do papel, para que uma tentativa de
// criar ADMIN sem permissão sempre receba 403.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"max=100"`
	Username string `json:"username" binding:"notblank,max=50"`
	Email    string `json:"email,omitempty" binding:"omitempty,max=100"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role,omitempty"`
}

func (CreateUserRequest) ValidationMessages() Messages {
	return Messages{
		"Username.notblank": MsgCredentials,
		"Username.max":      MsgUsernameTooLong,
		"Password":          MsgCredentials,
		"Email":             MsgEmailTooLong,
		"Name":              MsgNameTooLong,
	}
}

// RegistrationForm é o formulário de cadastro de usuário
type RegistrationForm struct {
	Name     string `binding:"notblank"`
	Username string `binding:"notblank,max=50"`
	Email    string `binding:"omitempty,max=100"`
	Password string `binding:"required,min=6"`
	Confirm  string `binding:"required,eqfield=Password"`
	Admin    bool
}

func (RegistrationForm) ValidationMessages() Messages {
	return Messages{
		"Username.max": MsgUsernameTooLong,
		"Email":        MsgEmailTooLong,
	}
}

// Validate devolve um erro por vez, na ordem em que o formulário os exibe
func (f RegistrationForm) Validate() error {
	err := Check(f)
	var verr *Error
	if !errors.As(err, &verr) {
		return err
	}

	has := func(rules ...string) bool {
		for _, fe := range verr.Fields {
			for _, r := range rules {
				if fe.Rule == r {
					return true
				}
			}
		}
		return false
	}

	switch {
	case has("required", "notblank"):
		return ErrFillAllFields
	case has("eqfield"):
		return ErrPasswordsMismatch
	case has("min"):
		return ErrPasswordTooShort
	}
	return verr
}

// Request monta o corpo da requisição. O papel ADMIN só é pedido quando quem
// preenche é administrador e marcou a opção.
func (f RegistrationForm) Request(requester Requester) CreateUserRequest {
	role := "USER"
	if f.Admin && requester != nil && requester.IsAdmin() {
		role = "ADMIN"
	}

	return CreateUserRequest{
		Name:     strings.TrimSpace(f.Name),
		Username: strings.TrimSpace(f.Username),
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
		Role:     role,
	}
}

// Reset devolve o formulário vazio exibido após um cadastro bem-sucedido
func (f *RegistrationForm) Reset() {
	*f = RegistrationForm{}
}
