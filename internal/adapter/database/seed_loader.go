package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ativix/ativix/internal/domain/model"
	"go.uber.org/zap"
)

// SeedActivity é o formato de uma atividade no arquivo de carga inicial
type SeedActivity struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Status       string        `json:"status"`
	AssignedTo   *string       `json:"assignedTo"`
	ConcluidoPor *string       `json:"concluidoPor"`
	CreatedBy    string        `json:"createdBy"`
	CompletedAt  *time.Time    `json:"completedAt"`
	Comentarios  []SeedComment `json:"comentarios"`
}

// SeedComment é um comentário do arquivo de carga inicial
type SeedComment struct {
	Autor string `json:"autor"`
	Texto string `json:"texto"`
}

// SeedLoader carrega atividades de um arquivo JSON
type SeedLoader struct {
	db     *Database
	logger *zap.Logger
}

// NewSeedLoader cria um novo carregador de atividades
func NewSeedLoader(db *Database, logger *zap.Logger) *SeedLoader {
	return &SeedLoader{
		db:     db,
		logger: logger,
	}
}

// LoadActivitiesFromJSON insere as atividades do arquivo que ainda não existem
// (mesmo id ou, sem id, mesmo título). Retorna quantas foram inseridas.
func (l *SeedLoader) LoadActivitiesFromJSON(ctx context.Context, filePath string) (int, error) {
	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		l.logger.Warn("Arquivo de atividades não encontrado", zap.String("path", filePath))
		return 0, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		l.logger.Error("Erro ao ler arquivo de atividades", zap.String("path", filePath), zap.Error(err))
		return 0, err
	}

	var seeds []SeedActivity
	if err := json.Unmarshal(data, &seeds); err != nil {
		l.logger.Error("Erro ao deserializar arquivo de atividades", zap.String("path", filePath), zap.Error(err))
		return 0, err
	}

	if len(seeds) == 0 {
		l.logger.Info("Nenhuma atividade encontrada no arquivo", zap.String("path", filePath))
		return 0, nil
	}

	repo := NewActivityRepository(l.db.DB(), l.logger)
	inserted := 0

	for i, seed := range seeds {
		activity, err := seed.toModel()
		if err != nil {
			l.logger.Warn("Atividade inválida ignorada", zap.Int("index", i), zap.Error(err))
			continue
		}

		exists, err := l.alreadyLoaded(ctx, activity)
		if err != nil {
			return inserted, err
		}
		if exists {
			l.logger.Debug("Atividade já existe", zap.String("title", activity.Title))
			continue
		}

		if err := repo.Create(ctx, activity); err != nil {
			l.logger.Error("Erro ao inserir atividade", zap.String("title", activity.Title), zap.Error(err))
			continue
		}

		for _, c := range seed.Comentarios {
			comment := &model.Comment{Autor: c.Autor, Texto: c.Texto}
			if err := repo.AddComment(ctx, activity.ID, comment); err != nil {
				l.logger.Error("Erro ao inserir comentário", zap.String("activity", activity.ID), zap.Error(err))
			}
		}
		inserted++
	}

	l.logger.Info("Atividades carregadas com sucesso",
		zap.Int("count", inserted),
		zap.String("file", filepath.Base(filePath)))
	return inserted, nil
}

func (l *SeedLoader) alreadyLoaded(ctx context.Context, activity *model.Activity) (bool, error) {
	query := l.db.DB().WithContext(ctx).Model(&model.ActivityEntity{})
	if activity.ID != "" {
		query = query.Where("id = ?", activity.ID)
	} else {
		query = query.Where("title = ?", activity.Title)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("falha ao verificar atividade existente: %w", err)
	}
	return count > 0, nil
}

func (s SeedActivity) toModel() (*model.Activity, error) {
	title := strings.TrimSpace(s.Title)
	if title == "" {
		return nil, errors.New("título obrigatório")
	}

	status := model.StatusPending
	if s.Status != "" {
		parsed, ok := model.ParseStatus(s.Status)
		if !ok {
			return nil, fmt.Errorf("status inválido: %q", s.Status)
		}
		status = parsed
	}

	activity := &model.Activity{
		ID:          s.ID,
		Title:       title,
		Description: s.Description,
		Status:      status,
		AssignedTo:  s.AssignedTo,
		CreatedBy:   s.CreatedBy,
	}
	if status == model.StatusDone {
		activity.ConcluidoPor = s.ConcluidoPor
		activity.CompletedAt = s.CompletedAt
		if activity.CompletedAt == nil {
			now := time.Now()
			activity.CompletedAt = &now
		}
	}
	return activity, nil
}
