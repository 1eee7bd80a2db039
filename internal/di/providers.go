package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	drepo "SkyIndex/internal/domain/repository"
	dservice "SkyIndex/internal/domain/service"
	"SkyIndex/internal/handler/api"
	internalrepo "SkyIndex/internal/repository"
	icache "SkyIndex/internal/service/cache"
	"SkyIndex/internal/service/quotes"
	"SkyIndex/internal/service/scheduler"
	"SkyIndex/internal/services/forecast"
	"SkyIndex/internal/services/sentiment"
	"SkyIndex/internal/usecase"
	pkgcache "SkyIndex/pkg/cache"
	pkgch "SkyIndex/pkg/clickhouse"
	"SkyIndex/pkg/config"
	pkgkafka "SkyIndex/pkg/kafka"
	applogger "SkyIndex/pkg/logger"
	"SkyIndex/pkg/metrics"
	"SkyIndex/pkg/queue"
	"SkyIndex/pkg/server"
)

// ProvideLogger creates the application logger. Production emits JSON,
// everything else keeps the console writer.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	l, err := applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideAggregationEngine builds the engine from the configured weight
// table. Config validation already checked the weights sum to one.
func ProvideAggregationEngine(cfg *config.Config) *usecase.AggregationEngine {
	specs := make([]usecase.ComponentSpec, 0, len(cfg.Index.Components))
	for _, c := range cfg.Index.Components {
		specs = append(specs, usecase.ComponentSpec{
			Symbol:  c.Symbol,
			Name:    c.Name,
			Weight:  c.Weight,
			Inverse: c.Inverse,
		})
	}
	return usecase.NewAggregationEngine(specs)
}

// ProvideHistory creates the in-memory index series store.
func ProvideHistory(cfg *config.Config) *internalrepo.MemoryHistory {
	return internalrepo.NewMemoryHistory(cfg.Index.HistoryCapacity)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the
// archive is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
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
	return client, nil
}

// ProvideArchive creates the durable snapshot archive when ClickHouse is
// configured. Schema creation happens in App startup via Init.
func ProvideArchive(chClient *pkgch.Client, l *applogger.Logger) drepo.SnapshotArchive {
	if chClient == nil {
		return nil
	}
	archive := internalrepo.NewCHSnapshotArchive(chClient)
	archive.SetLogger(l)
	return archive
}

// ProvideKafkaProducer creates a Kafka producer, or nil without brokers.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
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

// ProvideSnapshotPublisher publishes finished snapshots downstream.
func ProvideSnapshotPublisher(producer *pkgkafka.Producer, cfg *config.Config) drepo.SnapshotPublisher {
	if producer == nil || cfg.Kafka.SnapshotTopic == "" {
		return nil
	}
	return internalrepo.NewKafkaSnapshotPublisher(producer, cfg.Kafka.SnapshotTopic)
}

// ProvideKafkaConsumer creates the headline consumer, or nil when no
// headline topic is configured.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.HeadlineTopic == "" {
		return nil, nil
	}
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

// ProvideHeadlineIngestor keeps the rolling headline window fed from Kafka.
func ProvideHeadlineIngestor(cfg *config.Config, m drepo.Metrics) *usecase.HeadlineIngestor {
	return usecase.NewHeadlineIngestor(
		cfg.Kafka.HeadlineTopic,
		cfg.Sentiment.Window,
		cfg.Sentiment.MaxHeadlines,
		m,
	)
}

// ProvideAnalyzer builds the sentiment analyzer with the optional
// transformer model service behind it.
func ProvideAnalyzer(cfg *config.Config, l *applogger.Logger) dservice.SentimentAnalyzer {
	var model dservice.TransformerScorer
	if cfg.Sentiment.ModelURL != "" {
		model = sentiment.NewTransformerClient(cfg.Sentiment.ModelURL, cfg.Sentiment.ModelTimeout, l)
	}
	return sentiment.NewAnalyzer(model, l)
}

// ProvideLiveBook creates the WebSocket quote stream and its book, or nil
// when no stream URL is configured.
func ProvideLiveBook(cfg *config.Config, m drepo.Metrics, l *applogger.Logger) *quotes.LiveBook {
	if cfg.Quotes.WebSocketURL == "" {
		return nil
	}
	stream := quotes.NewStream(
		cfg.Quotes.APIKey,
		cfg.Quotes.WebSocketURL,
		cfg.InstrumentSymbols(),
		cfg.Quotes.ReconnectDelay,
		cfg.Quotes.PingInterval,
		l,
	)
	return quotes.NewLiveBook(stream, m, cfg.Quotes.QuoteMaxAge, l)
}

// ProvideSampleSource creates the candle API client. Candle responses are
// cached briefly, layered over Redis when it is available.
func ProvideSampleSource(cfg *config.Config, book *quotes.LiveBook, redisCache *pkgcache.RedisCache, l *applogger.Logger) dservice.SampleSource {
	client := quotes.NewClient(
		cfg.Quotes.BaseURL,
		cfg.Quotes.APIKey,
		cfg.InstrumentSymbols(),
		cfg.Quotes.Timeout,
		book,
		l,
	)
	if redisCache != nil {
		client.SetCache(pkgcache.NewLayeredCache(redisCache, pkgcache.WithLayeredMemorySize(64)))
	} else {
		client.SetCache(pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(64)))
	}
	return client
}

// ProvideRedisCache connects to Redis, or nil when disabled.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	host, port := splitRedisAddr(cfg.Redis.Addr)
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCalculator assembles the calculation pipeline.
func ProvideCalculator(
	samples dservice.SampleSource,
	ingestor *usecase.HeadlineIngestor,
	analyzer dservice.SentimentAnalyzer,
	engine *usecase.AggregationEngine,
	history *internalrepo.MemoryHistory,
	m drepo.Metrics,
	archive drepo.SnapshotArchive,
	publisher drepo.SnapshotPublisher,
	redisCache *pkgcache.RedisCache,
	l *applogger.Logger,
) *usecase.Calculator {
	opts := []usecase.CalculatorOption{usecase.WithLogger(l)}
	if archive != nil {
		opts = append(opts, usecase.WithArchive(archive))
	}
	if publisher != nil {
		opts = append(opts, usecase.WithPublisher(publisher))
	}
	if redisCache != nil {
		opts = append(opts, usecase.WithLockService(redisCache))
	}
	return usecase.NewCalculator(samples, ingestor, analyzer, engine, history, m, opts...)
}

// ProvideScheduler drives calculations on the half-hour grid.
func ProvideScheduler(calc *usecase.Calculator, cfg *config.Config, l *applogger.Logger) *scheduler.Scheduler {
	return scheduler.New(calc, cfg.Index.Schedule, cfg.Index.CalcTimeout, l)
}

// ProvideQueries assembles the read side of the API.
func ProvideQueries(
	history *internalrepo.MemoryHistory,
	archive drepo.SnapshotArchive,
	book *quotes.LiveBook,
	sched *scheduler.Scheduler,
) *usecase.IndexQueries {
	q := usecase.NewIndexQueries(history, forecast.NewARForecaster())
	if archive != nil {
		q.SetArchive(archive)
	}
	if book != nil {
		q.SetStream(book)
	}
	q.SetSchedule(sched)
	return q
}

// ProvideIndexHandler builds the HTTP handler with a short-lived response
// cache for the history endpoint.
func ProvideIndexHandler(queries *usecase.IndexQueries, calc *usecase.Calculator, redisCache *pkgcache.RedisCache, jobQueue *queue.RedisQueue, cfg *config.Config, l *applogger.Logger) *api.IndexHandler {
	h := api.NewIndexHandler(queries, calc)
	if redisCache != nil {
		h.SetCache(icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	} else {
		h.SetCache(icache.NewTTLCache())
	}
	if jobQueue != nil {
		h.SetJobQueue(jobQueue)
	}
	h.SetLogger(l)
	return h
}

// ProvideRecalcQueue creates the Redis-backed recalculation job queue, or
// nil without Redis.
func ProvideRecalcQueue(
	redisCache *pkgcache.RedisCache,
	calc *usecase.Calculator,
	l *applogger.Logger,
) *queue.RedisQueue {
	if redisCache == nil {
		return nil
	}
	return queue.NewRedisConsumer(
		l,
		&queue.QueueConfig{Workers: 1, RetryLimit: 3, RetryDelay: 15 * time.Second},
		redisCache.Client(),
		[]queue.Job{usecase.NewRecalculateJob(calc, l)},
	)
}

// kafkaLogPublisher adapts the snapshot producer to the log collector.
type kafkaLogPublisher struct {
	producer *pkgkafka.Producer
}

func (p kafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	calc *usecase.Calculator,
	sched *scheduler.Scheduler,
	consumer *pkgkafka.Consumer,
	ingestor *usecase.HeadlineIngestor,
	chClient *pkgch.Client,
	archive drepo.SnapshotArchive,
	history *internalrepo.MemoryHistory,
	publisher drepo.SnapshotPublisher,
	producer *pkgkafka.Producer,
	book *quotes.LiveBook,
	handler *api.IndexHandler,
	jobQueue *queue.RedisQueue,
	l *applogger.Logger,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}

	// Ship aggregated errors to Kafka next to the snapshots
	if producer != nil && cfg.Kafka.SnapshotTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.SnapshotTopic + ".logs",
			Publisher:      kafkaLogPublisher{producer: producer},
		})
	}

	var kh pkgkafka.MessageHandler
	if consumer != nil {
		kh = ingestor
	}

	app := server.New(cfg, calc, sched, consumer, kh, chClient, l)
	app.SetHTTPHandler(handler)
	app.SetHistory(history)
	if book != nil {
		app.SetLiveBook(book)
	}
	if archive != nil {
		app.SetArchive(archive)
	}
	if publisher != nil {
		app.SetPublisher(publisher)
	}
	if jobQueue != nil {
		app.SetJobQueue(jobQueue)
	}
	return app
}

func splitRedisAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "localhost", 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}
