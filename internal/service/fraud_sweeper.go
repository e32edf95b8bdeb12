package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tx-monitor/internal/notifier"
	"tx-monitor/internal/storage/postgres"
)

// FraudSweeper периодически перепроверяет неклассифицированные транзакции.
// Закрывает путь стрима, который пишет в базу без синхронной классификации.
// Благодаря CAS-семантике MarkFraud проход безопасен при конкурентном
// ingest и при параллельном запуске самого свипа.
type FraudSweeper struct {
	repo       postgres.TransactionRepository
	classifier Classifier
	notifier   notifier.Notifier
	interval   time.Duration
	log        *slog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewFraudSweeper(
	repo postgres.TransactionRepository,
	classifier Classifier,
	notifier notifier.Notifier,
	interval time.Duration,
	log *slog.Logger,
) *FraudSweeper {
	return &FraudSweeper{
		repo:       repo,
		classifier: classifier,
		notifier:   notifier,
		interval:   interval,
		log:        log,
		stopCh:     make(chan struct{}),
	}
}

func (s *FraudSweeper) Run(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.log.Info("fraud sweeper запущен", slog.Duration("interval", s.interval))

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				flagged, err := s.RescanUnclassified(ctx)
				if err != nil {
					s.log.Error("ошибка прохода fraud sweeper", slog.String("error", err.Error()))
					continue
				}
				if flagged > 0 {
					s.log.Info("fraud sweeper завершил проход", slog.Int("flagged", flagged))
				}

			case <-s.stopCh:
				s.log.Info("fraud sweeper останавливается")
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// RescanUnclassified выполняет один проход: классифицирует все строки с is_fraud=false.
// Повторный запуск no-op: уже помеченные строки не попадают в выборку,
// а проигранная гонка за MarkFraud не приводит ко второму алерту.
func (s *FraudSweeper) RescanUnclassified(ctx context.Context) (int, error) {
	const op = "service.RescanUnclassified"

	transactions, err := s.repo.ListUnclassified(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	flagged := 0
	for _, transaction := range transactions {
		if classifyAndNotify(ctx, s.repo, s.classifier, s.notifier, s.log, transaction) {
			flagged++
		}
	}
	return flagged, nil
}

func (s *FraudSweeper) Shutdown(ctx context.Context) error {
	close(s.stopCh)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("fraud sweeper остановлен")
		return nil
	case <-ctx.Done():
		s.log.Warn("fraud sweeper shutdown timeout")
		return ctx.Err()
	}
}
