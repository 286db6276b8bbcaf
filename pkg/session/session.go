// Package session guarda no disco o token e o usuário logado da CLI, além das
// preferências de interface.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ativix/ativix/internal/domain/model"
	"go.uber.org/zap"
)

const (
	sessionFile     = "session.json"
	preferencesFile = "preferences.json"
)

// User é a identidade gravada na sessão
type User struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Name     string     `json:"name"`
	Role     model.Role `json:"role"`
}

// IsAdmin passa pelo mesmo predicado de papel do servidor
func (u *User) IsAdmin() bool {
	return u != nil && u.Role.IsAdmin()
}

// FromModel copia os campos públicos do usuário devolvido no login
func FromModel(u *model.User) User {
	if u == nil {
		return User{}
	}
	return User{ID: u.ID, Username: u.Username, Name: u.Name, Role: u.Role}
}

// Session é o conteúdo de session.json
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Preferences é o conteúdo de preferences.json
type Preferences struct {
	DarkMode bool `json:"darkMode"`
}

// Store lê e grava a sessão em um diretório
type Store struct {
	dir    string
	mu     sync.Mutex
	logger *zap.Logger
}

// DefaultDir é $XDG_CONFIG_HOME/ativix (ou o equivalente do sistema)
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("diretório de configuração: %w", err)
	}
	return filepath.Join(base, "ativix"), nil
}

// NewStore cria o store; dir vazio usa DefaultDir
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir retorna o diretório usado
func (s *Store) Dir() string {
	return s.dir
}

// Load retorna a sessão gravada, ou nil quando não há uma válida
func (s *Store) Load() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sess Session
	if !s.read(sessionFile, &sess) || sess.Token == "" {
		return nil
	}
	return &sess
}

// CurrentUser retorna o usuário logado; nil quando ausente ou ilegível
func (s *Store) CurrentUser() *User {
	sess := s.Load()
	if sess == nil {
		return nil
	}
	return &sess.User
}

// Token retorna o token atual ou vazio
func (s *Store) Token() string {
	sess := s.Load()
	if sess == nil {
		return ""
	}
	return sess.Token
}

// Save grava a sessão após o login
func (s *Store) Save(sess Session) error {
	if sess.Token == "" {
		return errors.New("sessão sem token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(sessionFile, sess)
}

// Clear encerra a sessão (logout); não falha se já não havia sessão
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.dir, sessionFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removendo sessão: %w", err)
	}
	return nil
}

// DarkMode lê a preferência de tema; falso quando não definida
func (s *Store) DarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prefs Preferences
	s.read(preferencesFile, &prefs)
	return prefs.DarkMode
}

// ToggleDarkMode inverte e persiste o tema, devolvendo o novo valor
func (s *Store) ToggleDarkMode() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prefs Preferences
	s.read(preferencesFile, &prefs)
	prefs.DarkMode = !prefs.DarkMode

	if err := s.write(preferencesFile, prefs); err != nil {
		return !prefs.DarkMode, err
	}
	return prefs.DarkMode, nil
}

func (s *Store) read(name string, dst interface{}) bool {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Falha ao ler arquivo de sessão", zap.String("path", path), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("Arquivo de sessão corrompido", zap.String("path", path), zap.Error(err))
		return false
	}
	return true
}

// write grava em arquivo temporário e renomeia, para não deixar JSON pela metade
func (s *Store) write(name string, v interface{}) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("criando diretório de sessão: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("serializando %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("gravando %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("gravando %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("gravando %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("gravando %s: %w", name, err)
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, name))
}

// Model converte para o usuário de domínio, usado pelos predicados de permissão
func (u *User) Model() *model.User {
	if u == nil {
		return nil
	}
	return &model.User{ID: u.ID, Username: u.Username, Name: u.Name, Role: u.Role}
}
