package report

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ativix/ativix/internal/domain/model"
	"github.com/ativix/ativix/internal/domain/repository"
	"github.com/ativix/ativix/pkg/cache"
	"github.com/ativix/ativix/pkg/config"
	apperrors "github.com/ativix/ativix/pkg/errors"
	"github.com/ativix/ativix/pkg/report"
	"go.uber.org/zap"
)

const (
	MsgAdminOnly      = "Somente admin"
	MsgInvalidKind    = "Tipo de relatório inválido"
	MsgInvalidFormat  = "Formato de exportação inválido"
	MsgGenerateFailed = "Erro ao gerar relatório"
	MsgExportFailed   = "Erro ao exportar relatório"
)

// Export é um relatório exportado pronto para download
type Export struct {
	Kind        model.ReportKind
	Filename    string
	ContentType string
	Format      report.Format
	Data        []byte
}

// Service gera os relatórios agrupados e mantém o cache por tipo
type Service struct {
	repo   repository.ActivityRepository
	cache  cache.Cache
	ttl    time.Duration
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time

	// gen muda a cada Invalidate; build só grava no cache se leu na mesma geração
	mu  sync.Mutex
	gen uint64
}

// NewService cria o serviço de relatórios no fuso configurado
func NewService(repo repository.ActivityRepository, c cache.Cache, cfg config.ReportsConfig, logger *zap.Logger) (*Service, error) {
	loc := time.UTC
	if cfg.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("fuso horário dos relatórios inválido %q: %w", cfg.Timezone, err)
		}
	}
	if c == nil {
		c = &cache.NoOpCache{}
	}

	return &Service{
		repo:   repo,
		cache:  c,
		ttl:    cfg.CacheTTL,
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Location retorna o fuso usado nas chaves de dia e semana
func (s *Service) Location() *time.Location {
	return s.loc
}

// Generate retorna o relatório do tipo pedido; somente ADMIN
func (s *Service) Generate(ctx context.Context, requester *model.User, kind string) (*model.Report, error) {
	if !requester.IsAdmin() {
		return nil, apperrors.Forbidden(MsgAdminOnly, apperrors.ErrForbidden)
	}
	k, ok := model.ParseReportKind(kind)
	if !ok {
		return nil, apperrors.BadRequest(MsgInvalidKind, apperrors.ErrBadRequest)
	}
	return s.build(ctx, k)
}

// Export gera o relatório no formato pedido (csv ou pdf)
func (s *Service) Export(ctx context.Context, requester *model.User, kind, format string) (*Export, error) {
	r, err := s.Generate(ctx, requester, kind)
	if err != nil {
		return nil, err
	}
	f, ok := report.ParseFormat(format)
	if !ok {
		return nil, apperrors.BadRequest(MsgInvalidFormat, apperrors.ErrBadRequest)
	}

	var buf bytes.Buffer
	switch f {
	case report.FormatPDF:
		err = report.WritePDF(&buf, r, report.PDFOptions{Location: s.loc, GeneratedAt: s.now()})
	default:
		err = report.WriteCSV(&buf, r)
	}
	if err != nil {
		s.logger.Error("Falha ao exportar relatório", zap.String("kind", string(r.Kind)), zap.String("format", string(f)), zap.Error(err))
		return nil, apperrors.InternalServer(MsgExportFailed, err)
	}

	return &Export{
		Kind:        r.Kind,
		Filename:    report.Filename(r.Kind, f),
		ContentType: f.ContentType(),
		Format:      f,
		Data:        buf.Bytes(),
	}, nil
}

// Invalidate descarta os relatórios em cache de todos os tipos. Um build que
// já leu o banco antes da chamada não grava seu resultado.
func (s *Service) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()

	for _, k := range model.ReportKinds() {
		if err := s.cache.Delete(ctx, cacheKey(k)); err != nil {
			s.logger.Warn("Falha ao invalidar relatório em cache", zap.String("kind", string(k)), zap.Error(err))
		}
	}
}

func (s *Service) build(ctx context.Context, kind model.ReportKind) (*model.Report, error) {
	key := cacheKey(kind)

	cached := model.Report{Kind: kind}
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("Erro ao ler relatório do cache", zap.String("key", key), zap.Error(err))
	}
	if found && err == nil {
		cached.Kind = kind
		return &cached, nil
	}

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	activities, err := s.repo.ForReports(ctx)
	if err != nil {
		s.logger.Error("Erro ao buscar atividades para relatório", zap.Error(err))
		return nil, apperrors.InternalServer(MsgGenerateFailed, err)
	}

	r, err := model.BuildReport(kind, activities, s.loc)
	if err != nil {
		return nil, apperrors.InternalServer(MsgGenerateFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		s.logger.Debug("Relatório invalidado durante a geração, cache não gravado", zap.String("key", key))
		return r, nil
	}
	if err := s.cache.Set(ctx, key, *r, s.ttl); err != nil {
		s.logger.Warn("Erro ao gravar relatório no cache", zap.String("key", key), zap.Error(err))
	}
	return r, nil
}

func cacheKey(kind model.ReportKind) string {
	return cache.Key("relatorio", string(kind))
}
