package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gobid/internal/domain"
	"github.com/iho/gobid/internal/usecase"
)

// Executor moves funds for a single transfer instruction. Implementations
// talk to whatever pays out for real: a bank adapter, a chain client, or a
// log for development.
type Executor interface {
	Execute(ctx context.Context, instruction *domain.TransferInstruction) error
}

// Worker drains recorded transfer instructions and hands them to the
// executor. Instructions are recorded transactionally with the state
// change that emitted them, so the worker sees each one at least once;
// executors must tolerate a replay after a crash between Execute and
// MarkExecuted.
type Worker struct {
	instructionRepo usecase.InstructionRepository
	executor        Executor
	logger          zerolog.Logger
	batchSize       int
	interval        time.Duration
}

// Config for Worker.
type Config struct {
	InstructionRepo usecase.InstructionRepository
	Executor        Executor
	Logger          zerolog.Logger
	BatchSize       int           // instructions fetched per batch
	Interval        time.Duration // polling interval
}

// NewWorker creates a new settlement Worker.
func NewWorker(cfg Config) *Worker {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}

	return &Worker{
		instructionRepo: cfg.InstructionRepo,
		executor:        cfg.Executor,
		logger:          cfg.Logger,
		batchSize:       cfg.BatchSize,
		interval:        cfg.Interval,
	}
}

// Start runs the settlement loop until the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info().
		Int("batch_size", w.batchSize).
		Dur("interval", w.interval).
		Msg("settlement worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Process immediately on start
	if err := w.processBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		w.logger.Error().Err(err).Msg("error settling instructions on start")
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("settlement worker shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := w.processBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error().Err(err).Msg("error settling instructions")
			}
		}
	}
}

func (w *Worker) processBatch(ctx context.Context) error {
	instructions, err := w.instructionRepo.GetUnexecuted(ctx, w.batchSize)
	if err != nil {
		return err
	}

	if len(instructions) == 0 {
		return nil
	}

	w.logger.Info().Int("count", len(instructions)).Msg("settling instructions")

	for _, instruction := range instructions {
		if err := w.executor.Execute(ctx, instruction); err != nil {
			w.logger.Error().
				Err(err).
				Str("instruction_id", instruction.ID).
				Str("reason", string(instruction.Reason)).
				Msg("failed to execute instruction")
			// Keep going; the instruction stays unexecuted and is retried
			// on the next pass.
			continue
		}

		if err := w.instructionRepo.MarkExecuted(ctx, instruction.ID, time.Now().UTC()); err != nil {
			w.logger.Error().
				Err(err).
				Str("instruction_id", instruction.ID).
				Msg("failed to mark instruction executed")
		}
	}

	return nil
}

// LogExecutor logs instructions instead of moving funds. Used in
// development and as the default when no real executor is wired.
type LogExecutor struct {
	logger zerolog.Logger
}

// NewLogExecutor creates a new LogExecutor.
func NewLogExecutor(logger zerolog.Logger) *LogExecutor {
	return &LogExecutor{logger: logger}
}

// Execute logs the instruction.
func (e *LogExecutor) Execute(ctx context.Context, instruction *domain.TransferInstruction) error {
	e.logger.Info().
		Str("instruction_id", instruction.ID).
		Str("auction_id", instruction.AuctionID).
		Str("destination", instruction.Destination).
		Str("amount", instruction.Amount.String()).
		Str("denom", instruction.Denom).
		Str("reason", string(instruction.Reason)).
		Msg("transfer executed")

	return nil
}
