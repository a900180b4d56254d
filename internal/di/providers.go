package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"StratForge/internal/domain/repository"
	"StratForge/internal/enforcer"
	"StratForge/internal/fuzzy"
	"StratForge/internal/handler/api"
	"StratForge/internal/indicators"
	internalrepo "StratForge/internal/repository"
	"StratForge/internal/strategy"
	"StratForge/internal/usecase"
	"StratForge/pkg/cache"
	pkgch "StratForge/pkg/clickhouse"
	"StratForge/pkg/config"
	pkgkafka "StratForge/pkg/kafka"
	applogger "StratForge/pkg/logger"
	"StratForge/pkg/metrics"
	"StratForge/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (bucket DateTime, symbol String, tf String, open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=MergeTree ORDER BY (symbol, tf, bucket)", candlesTable(cfg)),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (run_id String, symbol String, tf String, bucket DateTime, feature_id String, value Float64) ENGINE=MergeTree ORDER BY (run_id, symbol, feature_id, bucket)", featuresTable(cfg)),
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

func candlesTable(cfg *config.Config) string {
	t := cfg.ClickHouse.CandlesTable
	if t == "" {
		t = "candles"
	}
	return cfg.ClickHouse.Database + "." + t
}

func featuresTable(cfg *config.Config) string {
	t := cfg.ClickHouse.FeaturesTable
	if t == "" {
		t = "features"
	}
	return cfg.ClickHouse.Database + "." + t
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCandleStore creates the ClickHouse candle repository.
func ProvideCandleStore(chClient *pkgch.Client, cfg *config.Config, log *applogger.Logger) repository.CandleStore {
	store := internalrepo.NewCHCandleStore(chClient, candlesTable(cfg))
	store.SetLogger(log)
	return store
}

// ProvideFeatureSink creates the ClickHouse feature sink.
func ProvideFeatureSink(chClient *pkgch.Client, cfg *config.Config) repository.FeatureSink {
	return internalrepo.NewCHFeatureSink(chClient, featuresTable(cfg))
}

// ProvideFeaturePublisher creates the Kafka feature publisher.
func ProvideFeaturePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.FeaturePublisher {
	return internalrepo.NewKafkaFeaturePublisher(producer, cfg.Kafka.FeaturesTopic)
}

// ProvideManifestStore creates the file-backed manifest store, wrapped in a
// Redis read-through cache when Redis is enabled.
func ProvideManifestStore(cfg *config.Config, log *applogger.Logger) (repository.ManifestStore, error) {
	store, err := internalrepo.NewFileManifestStore(cfg.Manifest.Dir)
	if err != nil {
		return nil, err
	}
	if !cfg.Redis.Enabled {
		return store, nil
	}

	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix("stratforge"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	// Manifests are immutable once written, so a small in-process L1 over
	// Redis is safe.
	layered := cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(256))

	ttl := cfg.Manifest.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return internalrepo.NewCachedManifestStore(store, layered, ttl, log), nil
}

// ProvideIndicatorRegistry creates the indicator type registry.
func ProvideIndicatorRegistry() *indicators.Registry {
	return indicators.NewRegistry()
}

// ProvideIndicatorEvaluator creates the indicator evaluator.
func ProvideIndicatorEvaluator(reg *indicators.Registry) *indicators.Evaluator {
	return indicators.NewEvaluator(reg)
}

// ProvideFuzzyCatalog creates the membership function catalog.
func ProvideFuzzyCatalog() *fuzzy.Catalog {
	return fuzzy.NewCatalog()
}

// ProvideFuzzyEvaluator creates the membership evaluator.
func ProvideFuzzyEvaluator() *fuzzy.Evaluator {
	return fuzzy.NewEvaluator()
}

// ProvideValidator creates the strategy validator.
func ProvideValidator(reg *indicators.Registry, cat *fuzzy.Catalog) *strategy.Validator {
	return strategy.NewValidator(reg, cat)
}

// ProvideLoader creates the strategy loader.
func ProvideLoader(v *strategy.Validator, log *applogger.Logger) *strategy.Loader {
	return strategy.NewLoader(v, log)
}

// ProvideEnforcer creates the feature computation engine.
func ProvideEnforcer(ind *indicators.Evaluator, fz *fuzzy.Evaluator, log *applogger.Logger, m repository.Metrics) *enforcer.Enforcer {
	return enforcer.New(ind, fz, log, m)
}

// ProvideTrainingRunner creates the training use case.
func ProvideTrainingRunner(
	enf *enforcer.Enforcer,
	candles repository.CandleStore,
	manifests repository.ManifestStore,
	sink repository.FeatureSink,
	publisher repository.FeaturePublisher,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.TrainingRunner {
	return usecase.NewTrainingRunner(enf, candles, manifests, sink, publisher, m, log)
}

// ProvideBacktestRunner creates the backtest use case.
func ProvideBacktestRunner(
	enf *enforcer.Enforcer,
	candles repository.CandleStore,
	manifests repository.ManifestStore,
	sink repository.FeatureSink,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.BacktestRunner {
	return usecase.NewBacktestRunner(enf, candles, manifests, sink, m, log)
}

// ProvideKafkaCandlesHandler registers the handler for the candles topic.
func ProvideKafkaCandlesHandler(store repository.CandleStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaCandlesHandler {
	return usecase.NewKafkaCandlesHandler(cfg.Kafka.CandlesTopic, store, m)
}

// ProvideStrategiesUseCase creates the API use case.
func ProvideStrategiesUseCase(loader *strategy.Loader, v *strategy.Validator, manifests repository.ManifestStore, candles repository.CandleStore, m repository.Metrics) *usecase.StrategiesUseCase {
	return usecase.NewStrategiesUseCase(loader, v, manifests, candles, m)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	loader *strategy.Loader,
	training *usecase.TrainingRunner,
	backtest *usecase.BacktestRunner,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaCandlesHandler,
	chClient *pkgch.Client,
	sink repository.FeatureSink,
	publisher repository.FeaturePublisher,
	uc *usecase.StrategiesUseCase,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.HookFuncs{
			Err: func(_ context.Context, topic string, _ kafka.Message, _ []byte, err error) {
				log.Warn("kafka message handling failed",
					applogger.String("topic", topic),
					applogger.Error(err),
				)
			},
		})
	}
	app := server.New(cfg, log, loader, training, backtest, consumer, kh, chClient, sink, publisher)
	app.SetHTTPHandler(api.NewStrategiesEchoHandler(log, uc))
	return app
}
