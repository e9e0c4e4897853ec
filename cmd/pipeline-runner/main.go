// cmd/pipeline-runner/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"eligibility-workers/internal/common/config"
	"eligibility-workers/internal/common/database"
	"eligibility-workers/internal/common/logger"
	"eligibility-workers/internal/common/observability"
	"eligibility-workers/internal/decode"
	"eligibility-workers/internal/groundtruth"
	"eligibility-workers/internal/models"
	"eligibility-workers/internal/notify"
	"eligibility-workers/internal/pipeline"
	"eligibility-workers/internal/store"
	"eligibility-workers/pkg/report"
)

// sinkFunc adapts a plain persistence function to pipeline.DecisionSink.
type sinkFunc func(ctx context.Context, record models.DecisionRecord) error

func (f sinkFunc) Persist(ctx context.Context, record models.DecisionRecord) error {
	return f(ctx, record)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting pipeline runner...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("pipeline-runner")
	defer obs.Shutdown()

	ctx := context.Background()

	decoder := decode.NewServiceDecoder(cfg.Decode)

	var gt *groundtruth.Table
	if cfg.Pipeline.GroundTruthPath != "" {
		gt, err = groundtruth.Load(cfg.Pipeline.GroundTruthPath)
		if err != nil {
			zapLog.Fatal("ground truth load failed", zap.Error(err))
		}
		zapLog.Info("Ground truth table loaded", zap.Int("records", gt.Len()))
	}

	p := pipeline.New(cfg.Pipeline, decoder, gt, log)

	// System of record.
	if cfg.Database.Postgres.Host != "" {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			zapLog.Fatal("postgres connection failed", zap.Error(err))
		}
		defer pg.Close()

		if err := pg.Ping(ctx); err != nil {
			zapLog.Fatal("postgres ping failed", zap.Error(err))
		}

		decisionStore := store.NewDecisionStore(pg.GetDB(), log)
		p.AddSink(sinkFunc(decisionStore.Save))
		zapLog.Info("Postgres decision store attached")
	}

	// Short-lived decision cache.
	if cfg.Database.Redis.Address != "" {
		rc, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			zapLog.Fatal("redis connection failed", zap.Error(err))
		}
		defer rc.Close()

		ttl := time.Duration(cfg.Database.Redis.TTL) * time.Second
		cache := store.NewDecisionCache(rc.GetClient(), ttl, log)
		p.AddSink(sinkFunc(cache.Put))
		zapLog.Info("Redis decision cache attached", zap.Duration("ttl", ttl))
	}

	// Searchable projection.
	if len(cfg.Database.Elasticsearch.Addresses) > 0 {
		esc, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			zapLog.Fatal("elasticsearch connection failed", zap.Error(err))
		}

		indexer := store.NewDecisionIndexer(esc.Client, cfg.Database.Elasticsearch.Index, log)
		p.AddSink(sinkFunc(indexer.Index))
		zapLog.Info("Elasticsearch decision indexer attached", zap.String("index", cfg.Database.Elasticsearch.Index))
	}

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":8081", nil); err != nil {
			zapLog.Error("Metrics server failed", zap.Error(err))
		}
	}()

	result, err := p.RunBatch(ctx)
	if err != nil {
		zapLog.Fatal("batch run failed", zap.Error(err))
	}

	zapLog.Info("Batch complete",
		zap.String("batchId", result.BatchID),
		zap.Int("applications", len(result.Outcomes)),
		zap.String("duration", result.Duration),
	)

	notifyApplicants(ctx, cfg, result, zapLog, log)

	records := make([]models.DecisionRecord, 0, len(result.Outcomes))
	for _, outcome := range result.Outcomes {
		if outcome.Decision != nil {
			records = append(records, outcome.Decision.ToRecord())
		}
	}

	fmt.Print(report.Summarize(records).Render())
}

// notifyApplicants sends decision notifications to every applicant with a
// known contact. Failures are logged and skipped so one bad address does
// not block the rest of the batch.
func notifyApplicants(ctx context.Context, cfg *config.Config, result *pipeline.BatchResult, zapLog *zap.Logger, log logger.Logger) {
	if cfg.Notifications.ContactsPath == "" {
		return
	}
	if !cfg.Notifications.Email.Enabled && !cfg.Notifications.SMS.Enabled {
		return
	}

	contacts, err := notify.LoadContacts(cfg.Notifications.ContactsPath)
	if err != nil {
		zapLog.Warn("contacts load failed, skipping notifications", zap.Error(err))
		return
	}

	notifier, err := notify.NewNotifier(ctx, cfg.Notifications, log)
	if err != nil {
		zapLog.Warn("notifier init failed, skipping notifications", zap.Error(err))
		return
	}

	sent := 0
	for _, outcome := range result.Outcomes {
		if outcome.Decision == nil {
			continue
		}
		recipient, ok := contacts[outcome.ApplicationID]
		if !ok {
			continue
		}

		delivery, err := notifier.NotifyDecision(ctx, recipient, outcome.Decision.ToRecord())
		if err != nil {
			zapLog.Warn("notification failed",
				zap.String("applicationId", outcome.ApplicationID),
				zap.Error(err),
			)
			continue
		}
		if delivery.Status == notify.StatusSent {
			sent++
		}
	}

	zapLog.Info("Notifications dispatched", zap.Int("sent", sent), zap.Int("contacts", len(contacts)))
}
