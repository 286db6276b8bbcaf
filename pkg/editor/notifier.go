package editor

import (
	"context"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

// Op identifica a mutação que gerou o evento
type Op string

const (
	OpConclude      Op = "conclude"
	OpAssign        Op = "assign"
	OpDelete        Op = "delete"
	OpAddComment    Op = "comment_add"
	OpEditComment   Op = "comment_edit"
	OpDeleteComment Op = "comment_delete"
)

// Event é publicado depois de uma mutação bem-sucedida
type Event struct {
	Op         Op
	ActivityID string
}

// Subscriber reage a um evento, normalmente recarregando uma tela
type Subscriber func(ctx context.Context, ev Event) error

type subscription struct {
	name string
	fn   Subscriber
}

// Notifier entrega eventos aos inscritos em ordem de inscrição, um de cada vez.
// Erro ou panic de um inscrito é registrado e não impede os demais.
type Notifier struct {
	mu     sync.RWMutex
	subs   []subscription
	logger *zap.Logger
}

// NewNotifier cria um notifier sem inscritos
func NewNotifier(logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{logger: logger}
}

// Subscribe registra um inscrito; name aparece nos logs de falha
func (n *Notifier) Subscribe(name string, fn Subscriber) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, subscription{name: name, fn: fn})
}

// Publish entrega o evento e devolve as falhas, já registradas no log
func (n *Notifier) Publish(ctx context.Context, ev Event) []error {
	n.mu.RLock()
	subs := make([]subscription, len(n.subs))
	copy(subs, n.subs)
	n.mu.RUnlock()

	var failures []error
	for _, sub := range subs {
		if err := n.deliver(ctx, sub, ev); err != nil {
			failures = append(failures, err)
		}
	}
	return failures
}

func (n *Notifier) deliver(ctx context.Context, sub subscription, ev Event) error {
	var err error
	var catcher panics.Catcher
	catcher.Try(func() {
		err = sub.fn(ctx, ev)
	})

	if r := catcher.Recovered(); r != nil {
		n.logger.Error("Panic em inscrito de atualização",
			zap.String("subscriber", sub.name),
			zap.String("op", string(ev.Op)),
			zap.Any("panic", r.Value),
			zap.ByteString("stack", r.Stack))
		return fmt.Errorf("%s: %w", sub.name, r.AsError())
	}
	if err != nil {
		n.logger.Warn("Falha em inscrito de atualização",
			zap.String("subscriber", sub.name),
			zap.String("op", string(ev.Op)),
			zap.Error(err))
		return fmt.Errorf("%s: %w", sub.name, err)
	}
	return nil
}
