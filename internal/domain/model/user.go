package model

import "time"

// User representa um usuário do sistema (nunca carrega a senha)
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin verifica se o usuário tem permissão administrativa
func (u *User) IsAdmin() bool {
	return u != nil && u.Role.IsAdmin()
}

// UserEntity é a representação de banco de dados de um usuário
type UserEntity struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"size:120"`
	Username  string    `gorm:"uniqueIndex;not null;size:50"`
	Password  string    `gorm:"not null"`
	Email     string    `gorm:"index;size:100"`
	Role      string    `gorm:"not null;size:20"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName define o nome da tabela
func (UserEntity) TableName() string {
	return "users"
}

// ToModel converte a entidade removendo o hash da senha
func (e *UserEntity) ToModel() *User {
	return &User{
		ID:        e.ID,
		Name:      e.Name,
		Username:  e.Username,
		Email:     e.Email,
		Role:      RoleOrDefault(e.Role),
		CreatedAt: e.CreatedAt,
	}
}
