package poller

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"

	"team_chat/internal/domain"
	"team_chat/pkg/logger"
)

// Source абстрагирует загрузку сообщений канала с сервера
type Source interface {
	Messages(ctx context.Context, channelID string, limit int, before *time.Time) ([]*domain.Message, error)
}

// Delta описывает результат одного цикла сверки
type Delta struct {
	ChannelID string            `json:"channel_id"`
	New       []*domain.Message `json:"new"`
	Snapshot  []*domain.Message `json:"snapshot"`
}

// Poller периодически перечитывает сообщения активного канала
// и сверяет их с локальным кэшем по идентификаторам.
// Активный канал всегда не более одного: Open отменяет предыдущий цикл.
type Poller struct {
	source   Source
	interval time.Duration
	pageSize int
	log      logger.Logger

	mu         sync.Mutex
	cancel     context.CancelFunc
	generation uint64
	channelID  string
	cache      []*domain.Message
	primed     bool

	deltas chan Delta
}

func New(source Source, interval time.Duration, pageSize int, log logger.Logger) *Poller {
	return &Poller{
		source:   source,
		interval: interval,
		pageSize: pageSize,
		log:      log,
		deltas:   make(chan Delta, 16),
	}
}

// Deltas возвращает канал инкрементальных событий
func (p *Poller) Deltas() <-chan Delta {
	return p.deltas
}

// Open переключает поллер на канал: предыдущий цикл отменяется,
// кэш сбрасывается, первый запрос уходит сразу.
func (p *Poller) Open(ctx context.Context, channelID string) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.generation++
	gen := p.generation
	p.channelID = channelID
	p.cache = nil
	p.primed = false

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	go p.loop(loopCtx, gen, channelID)
}

// Close останавливает текущий цикл опроса
func (p *Poller) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.generation++
	p.channelID = ""
	p.cache = nil
	p.primed = false
}

// Snapshot возвращает копию локального кэша активного канала
func (p *Poller) Snapshot() []*domain.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*domain.Message, len(p.cache))
	copy(out, p.cache)
	return out
}

func (p *Poller) loop(ctx context.Context, gen uint64, channelID string) {
	p.poll(ctx, gen, channelID)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx, gen, channelID)
		}
	}
}

func (p *Poller) poll(ctx context.Context, gen uint64, channelID string) {
	messages, err := p.source.Messages(ctx, channelID, p.pageSize, nil)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		// Разовый сбой не роняет цикл, повторим на следующем тике
		p.log.Warn("poll failed", "channel_id", channelID, "error", err)
		return
	}
	p.apply(gen, channelID, messages)
}

// apply сверяет ответ сервера с кэшем. Проверка поколения обязательна
// именно здесь: ответ мог прийти уже после переключения канала.
func (p *Poller) apply(gen uint64, channelID string, messages []*domain.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation || channelID != p.channelID {
		p.log.Debug("discarding stale poll response", "channel_id", channelID)
		return
	}

	known := lo.SliceToMap(p.cache, func(m *domain.Message) (string, struct{}) {
		return m.ID, struct{}{}
	})
	fresh := lo.Filter(messages, func(m *domain.Message, _ int) bool {
		_, ok := known[m.ID]
		return !ok
	})

	changed := !p.primed || len(fresh) > 0 || len(messages) != len(p.cache)
	if !changed {
		for i, m := range messages {
			old := p.cache[i]
			if old.ID != m.ID || old.Text != m.Text || !old.ModifiedAt.Equal(m.ModifiedAt) {
				changed = true
				break
			}
		}
	}

	// Кэш замещается целиком: правки и удаления подтягиваются,
	// даже если количество сообщений не изменилось
	p.cache = messages
	p.primed = true

	if !changed {
		return
	}

	snapshot := make([]*domain.Message, len(messages))
	copy(snapshot, messages)

	select {
	case p.deltas <- Delta{ChannelID: channelID, New: fresh, Snapshot: snapshot}:
	default:
		p.log.Warn("delta channel full, dropping event", "channel_id", channelID)
	}
}
