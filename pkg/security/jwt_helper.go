package security

import (
	"os"

	"github.com/ativix/ativix/pkg/config"
)

// GetJWTSecret obtém o segredo JWT de diferentes fontes na seguinte ordem:
// 1. Variável de ambiente JWT_SECRET_KEY
// 2. Variável de ambiente JWT_SECRET
// 3. Configuração (auth.jwtSecret / ATIVIX_AUTH_JWTSECRET)
func GetJWTSecret(cfg *config.Config) []byte {
	if secret := os.Getenv("JWT_SECRET_KEY"); secret != "" {
		return []byte(secret)
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		return []byte(secret)
	}

	if cfg != nil && cfg.Auth.JWTSecret != "" {
		return []byte(cfg.Auth.JWTSecret)
	}

	return nil
}
