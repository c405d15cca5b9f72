package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"vpnserver/internal/housekeeping"
)

const TypeCleanup = "cleanup"

type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (housekeeping.Result, error)
}

type Processor struct {
	sweeper Sweeper
	now     func() time.Time
	logger  zerolog.Logger
}

type TaskPayload struct {
	Type       string `json:"type"`
	EnqueuedAt string `json:"enqueuedAt"`
}

func NewProcessor(sweeper Sweeper, logger zerolog.Logger) *Processor {
	return &Processor{
		sweeper: sweeper,
		now:     time.Now,
		logger:  logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload TaskPayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch payload.Type {
	case TypeCleanup:
		return p.handleCleanup(ctx, payload)
	default:
		p.logger.Warn().Str("type", payload.Type).Str("message_id", msg.ID).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}, out *TaskPayload) error {
	bytes, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}

func (p *Processor) handleCleanup(ctx context.Context, payload TaskPayload) error {
	result, err := p.sweeper.Sweep(ctx, p.now().UTC())
	if err != nil {
		return err
	}
	p.logger.Debug().
		Str("enqueued_at", payload.EnqueuedAt).
		Int64("connection_log", result.ConnectionLogDeleted).
		Int64("totp_log", result.TotpLogDeleted).
		Msg("cleanup task done")
	return nil
}
