package model

import "time"

// Comment é um comentário de uma atividade, identificado por id estável
type Comment struct {
	ID        string    `json:"id"`
	Autor     string    `json:"autor"`
	Texto     string    `json:"texto"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CanEdit: somente o autor ou um ADMIN
func (c *Comment) CanEdit(u *User) bool {
	return u != nil && (u.Username == c.Autor || u.IsAdmin())
}

// CanDelete: somente o autor ou um ADMIN
func (c *Comment) CanDelete(u *User) bool {
	return c.CanEdit(u)
}

// CommentEntity é a linha persistida de um comentário
type CommentEntity struct {
	ID         string    `gorm:"primaryKey;size:36"`
	ActivityID string    `gorm:"not null;size:36;index"`
	Autor      string    `gorm:"not null;size:50"`
	Texto      string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// TableName define o nome da tabela
func (CommentEntity) TableName() string {
	return "comentarios"
}

func (e *CommentEntity) ToModel() Comment {
	return Comment{
		ID:        e.ID,
		Autor:     e.Autor,
		Texto:     e.Texto,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
