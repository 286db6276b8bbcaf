package http

import (
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/ativix/ativix/internal/domain/model"
	"github.com/ativix/ativix/internal/infra/metrics"
	"github.com/ativix/ativix/internal/infra/middleware"
	apperrors "github.com/ativix/ativix/pkg/errors"
	"github.com/ativix/ativix/pkg/logging"
	"github.com/ativix/ativix/pkg/validation"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// MsgInvalidBody é a resposta para corpos JSON malformados
const MsgInvalidBody = "Dados inválidos"

// base reúne o que todos os handlers compartilham
type base struct {
	logger  *logging.ContextLogger
	metrics *metrics.APIMetrics
}

var registerBinding sync.Once

func newBase(logger *zap.Logger) base {
	registerBinding.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			if err := validation.Register(v); err != nil {
				logger.Fatal("Falha ao registrar regras de validação", zap.Error(err))
			}
		}
	})
	return base{logger: logging.FromZap(logger)}
}

// respondError responde {"error": mensagem}, com "details" quando o erro traz
// os campos inválidos. Erros fora da taxonomia viram 500 com a mensagem
// genérica da operação; a causa só aparece no log.
func (b *base) respondError(c *gin.Context, err error, fallback string) {
	ctx := c.Request.Context()

	apiErr, ok := apperrors.As(err)
	if !ok {
		apiErr = apperrors.InternalServer(fallback, err)
	}

	fields := []zap.Field{
		zap.String("path", c.FullPath()),
		zap.String("method", c.Request.Method),
		zap.Int("status", apiErr.Code),
		zap.Error(err),
	}
	if apiErr.Code >= http.StatusInternalServerError {
		b.logger.ErrorCtx(ctx, apiErr.Message, fields...)
		if b.metrics != nil {
			b.metrics.RequestError(c.FullPath(), c.Request.Method, "server_error")
		}
	} else {
		b.logger.WarnCtx(ctx, apiErr.Message, fields...)
	}

	if apiErr.Code == http.StatusConflict && b.metrics != nil {
		b.metrics.VersionConflict()
	}

	body := gin.H{"error": apiErr.Message}
	if apiErr.Details != nil {
		body["details"] = apiErr.Details
	}
	c.AbortWithStatusJSON(apiErr.Code, body)
}

// bindJSON decodifica e valida o corpo pelas tags binding; corpo vazio é
// aceito quando optional. Falhas de regra respondem a mensagem do campo.
func (b *base) bindJSON(c *gin.Context, dst interface{}, optional bool) bool {
	if optional && (c.Request.Body == nil || c.Request.Body == http.NoBody) {
		return true
	}
	err := c.ShouldBindJSON(dst)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	if verr := validation.Translate(err, dst); verr != nil {
		b.respondError(c, validation.BadRequest(verr), MsgInvalidBody)
		return false
	}
	b.respondError(c, apperrors.BadRequest(MsgInvalidBody, err), MsgInvalidBody)
	return false
}

// requester devolve o usuário autenticado; rotas protegidas sempre o têm
func (b *base) requester(c *gin.Context) (*model.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		b.respondError(c, apperrors.Unauthorized(middleware.MsgMissingToken, nil), "")
		return nil, false
	}
	return user, true
}
