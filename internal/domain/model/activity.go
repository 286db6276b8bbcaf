package model

import (
	"strings"
	"time"
)

// Status é o estado de uma atividade
type Status string

const (
	StatusPending Status = "pendente"
	StatusDone    Status = "finalizada"
)

// ParseStatus interpreta um status informado pelo cliente
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, true
	case StatusDone:
		return StatusDone, true
	default:
		return "", false
	}
}

// Activity é a "atividade" (chamado) acompanhada pelo sistema
type Activity struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       Status     `json:"status"`
	AssignedTo   *string    `json:"assignedTo"`
	ConcluidoPor *string    `json:"concluidoPor"`
	CreatedBy    string     `json:"createdBy"`
	Comentarios  []Comment  `json:"comentarios"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	CompletedAt  *time.Time `json:"completedAt"`
	Version      int        `json:"version"`
}

// IsPending indica se a atividade ainda pode ser concluída ou fixada
func (a *Activity) IsPending() bool {
	return a.Status == StatusPending
}

// CanTransitionTo aplica a única transição válida: pendente -> finalizada
func (a *Activity) CanTransitionTo(next Status) bool {
	return a.Status == StatusPending && next == StatusDone
}

// Comment busca um comentário pelo id estável
func (a *Activity) Comment(id string) (*Comment, bool) {
	for i := range a.Comentarios {
		if a.Comentarios[i].ID == id {
			return &a.Comentarios[i], true
		}
	}
	return nil, false
}

// ActivityEntity é a linha persistida de uma atividade
type ActivityEntity struct {
	ID           string          `gorm:"primaryKey;size:36"`
	Title        string          `gorm:"not null;size:200"`
	Description  string          `gorm:"type:text"`
	Status       string          `gorm:"not null;size:20;index"`
	AssignedTo   *string         `gorm:"size:50;index"`
	ConcluidoPor *string         `gorm:"size:50;index"`
	CreatedBy    string          `gorm:"size:50"`
	CompletedAt  *time.Time      `gorm:"index"`
	Version      int             `gorm:"not null"`
	CreatedAt    time.Time       `gorm:"autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime"`
	Comments     []CommentEntity `gorm:"foreignKey:ActivityID"`
}

// TableName define o nome da tabela
func (ActivityEntity) TableName() string {
	return "atividades"
}

// ToModel converte a entidade e os comentários carregados
func (e *ActivityEntity) ToModel() *Activity {
	comments := make([]Comment, 0, len(e.Comments))
	for i := range e.Comments {
		comments = append(comments, e.Comments[i].ToModel())
	}

	return &Activity{
		ID:           e.ID,
		Title:        e.Title,
		Description:  e.Description,
		Status:       Status(e.Status),
		AssignedTo:   e.AssignedTo,
		ConcluidoPor: e.ConcluidoPor,
		CreatedBy:    e.CreatedBy,
		Comentarios:  comments,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
		CompletedAt:  e.CompletedAt,
		Version:      e.Version,
	}
}
