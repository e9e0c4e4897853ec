// cmd/worker-manager/main.go
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"eligibility-workers/internal/common/camunda"
	"eligibility-workers/internal/common/config"
	"eligibility-workers/internal/common/logger"
	"eligibility-workers/internal/common/observability"
	"eligibility-workers/internal/decode"
	"eligibility-workers/internal/groundtruth"

	// Extraction workers (6)
	ash "eligibility-workers/internal/workers/extraction/asset-sheet"
	bst "eligibility-workers/internal/workers/extraction/bank-statement"
	crr "eligibility-workers/internal/workers/extraction/credit-report"
	eml "eligibility-workers/internal/workers/extraction/employment-letter"
	idc "eligibility-workers/internal/workers/extraction/identity-card"
	rsm "eligibility-workers/internal/workers/extraction/resume"

	// Assembly, validation and decision workers (4)
	asm "eligibility-workers/internal/workers/assembly/assemble-application"
	dce "eligibility-workers/internal/workers/decision/decide-eligibility"
	agg "eligibility-workers/internal/workers/validation/aggregate-scores"
	chk "eligibility-workers/internal/workers/validation/check-consistency"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	// --- Init Camunda client with retry ---
	var camClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Camunda client initialization")

	if err != nil {
		zapLog.Fatal("camunda client failed after retries", zap.Error(err))
	}
	defer camClient.Close()
	zapLog.Info("Camunda client connected", zap.String("gateway", cfg.Camunda.BrokerAddress))

	// --- Init document decode service client ---
	decoder := decode.NewServiceDecoder(cfg.Decode)
	zapLog.Info("Decode service client initialized", zap.String("baseURL", cfg.Decode.BaseURL))

	// --- Load ground truth table (optional) ---
	var gt *groundtruth.Table
	if cfg.Pipeline.GroundTruthPath != "" {
		gt, err = groundtruth.Load(cfg.Pipeline.GroundTruthPath)
		if err != nil {
			zapLog.Fatal("ground truth load failed", zap.Error(err))
		}
		zapLog.Info("Ground truth table loaded",
			zap.String("path", cfg.Pipeline.GroundTruthPath),
			zap.Int("records", gt.Len()),
		)
	}

	var workers []*camunda.CamundaWorker
	register := func(taskType string, handler camunda.JobHandlerFunc) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		if !wcfg.Enabled {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		w := camunda.NewWorker(
			camClient.GetClient(),
			taskType,
			wcfg.MaxJobsActive,
			config.GetDuration(wcfg.Timeout),
			handler,
			zapLog,
		)
		workers = append(workers, w)
	}

	// --- Register all 10 workers ---
	// Each package ships its own defaults; the workers section of the
	// config file can tighten the per-job execution timeout.

	// Extraction workers (6)
	bcfg := bst.LoadConfig()
	if wcfg, ok := cfg.Workers[bst.TaskType]; ok && wcfg.Timeout > 0 {
		bcfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	register(bst.TaskType, bst.NewHandler(bcfg, decoder, log).Handle)

	icfg := idc.LoadConfig()
	if wcfg, ok := cfg.Workers[idc.TaskType]; ok && wcfg.Timeout > 0 {
		icfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	register(idc.TaskType, idc.NewHandler(icfg, decoder, log).Handle)

	ecfg := eml.LoadConfig()
	if wcfg, ok := cfg.Workers[eml.TaskType]; ok && wcfg.Timeout > 0 {
		ecfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	register(eml.TaskType, eml.NewHandler(ecfg, decoder, log).Handle)

	rcfg := rsm.LoadConfig()
	if wcfg, ok := cfg.Workers[rsm.TaskType]; ok && wcfg.Timeout > 0 {
		rcfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	register(rsm.TaskType, rsm.NewHandler(rcfg, decoder, log).Handle)

	shcfg := ash.LoadConfig()
	if wcfg, ok := cfg.Workers[ash.TaskType]; ok && wcfg.Timeout > 0 {
		shcfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	register(ash.TaskType, ash.NewHandler(shcfg, decoder, log).Handle)

	crcfg := crr.LoadConfig()
	if wcfg, ok := cfg.Workers[crr.TaskType]; ok && wcfg.Timeout > 0 {
		crcfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	register(crr.TaskType, crr.NewHandler(crcfg, decoder, log).Handle)

	// Assembly worker
	amcfg := asm.LoadConfig()
	if wcfg, ok := cfg.Workers[asm.TaskType]; ok && wcfg.Timeout > 0 {
		amcfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	register(asm.TaskType, asm.NewHandler(amcfg, gt, log).Handle)

	// Validation workers (2)
	ckcfg := chk.LoadConfig()
	if wcfg, ok := cfg.Workers[chk.TaskType]; ok && wcfg.Timeout > 0 {
		ckcfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	register(chk.TaskType, chk.NewHandler(ckcfg, log).Handle)

	agcfg := agg.LoadConfig()
	if wcfg, ok := cfg.Workers[agg.TaskType]; ok && wcfg.Timeout > 0 {
		agcfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	register(agg.TaskType, agg.NewHandler(agcfg, log).Handle)

	// Decision worker
	dccfg := dce.LoadConfig()
	if wcfg, ok := cfg.Workers[dce.TaskType]; ok && wcfg.Timeout > 0 {
		dccfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	register(dce.TaskType, dce.NewHandler(dccfg, dce.WeightedLinearModel{}, log).Handle)

	zapLog.Info("All workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			status := "ready"
			code := http.StatusOK
			if err := camClient.HealthCheck(r.Context()); err != nil {
				status = "unavailable"
				code = http.StatusServiceUnavailable
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			json.NewEncoder(w).Encode(map[string]string{
				"status": status,
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range workers {
		w.Close()
	}

	zapLog.Info("Worker manager stopped gracefully")
}
