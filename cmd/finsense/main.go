package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	goredis "github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	mongooptions "go.mongodb.org/mongo-driver/v2/mongo/options"
	"goa.design/clue/log"

	"finsense/agent"
	"finsense/config"
	"finsense/model"
	anthropicmodel "finsense/model/anthropic"
	bedrockmodel "finsense/model/bedrock"
	"finsense/model/middleware"
	openaimodel "finsense/model/openai"
	"finsense/model/stub"
	"finsense/pipeline"
	"finsense/session"
	"finsense/session/inmem"
	sessionmongo "finsense/session/mongo"
	sessionredis "finsense/session/redis"
	"finsense/telemetry"
	"finsense/tools/analytics"
)

func main() {
	var (
		configF  = flag.String("config", "finsense.yaml", "Path to the YAML configuration file")
		httpF    = flag.String("http", "", "HTTP listen address (overrides the config file)")
		sessionF = flag.String("session", "", "Session identifier for one-shot mode")
		dbgF     = flag.Bool("debug", false, "Enable debug logs and request/response logging")
	)
	flag.Parse()

	// Setup logger before anything that can fail.
	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))

	cfg, err := config.Load(*configF)
	if err != nil {
		log.Fatal(ctx, err, log.KV{K: "msg", V: "load configuration"})
	}
	if cfg.Logging.Format == "json" {
		ctx = log.Context(context.Background(), log.WithFormat(log.FormatJSON))
	}
	dbg := *dbgF || cfg.Logging.Debug
	if dbg {
		ctx = log.Context(ctx, log.WithDebug())
		log.Debugf(ctx, "debug logs enabled")
	}

	client, err := newModelClient(ctx, cfg)
	if err != nil {
		log.Fatal(ctx, err, log.KV{K: "msg", V: "initialize model provider"})
	}
	store, err := newSessionStore(cfg)
	if err != nil {
		log.Fatal(ctx, err, log.KV{K: "msg", V: "initialize session store"})
	}

	orch, err := pipeline.New(pipeline.Options{
		Client:           client,
		Simulator:        analytics.New(),
		Store:            store,
		ExtraDisclaimers: cfg.ExtraDisclaimers,
		Logger:           telemetry.NewClueLogger(),
		Metrics:          telemetry.NewClueMetrics(),
		Tracer:           telemetry.NewClueTracer(),
	})
	if err != nil {
		log.Fatal(ctx, err, log.KV{K: "msg", V: "initialize pipeline"})
	}

	// A positional message runs once and prints the output; otherwise the
	// process serves HTTP.
	if message := strings.TrimSpace(strings.Join(flag.Args(), " ")); message != "" {
		if err := runOnce(ctx, orch, *sessionF, message); err != nil {
			log.Fatal(ctx, err, log.KV{K: "msg", V: "run"})
		}
		return
	}

	addr := *httpF
	if addr == "" {
		addr = cfg.HTTP.Addr
	}
	if addr == "" {
		addr = ":8080"
	}
	if err := serveHTTP(ctx, addr, orch, store, dbg); err != nil {
		log.Fatal(ctx, err, log.KV{K: "msg", V: "serve"})
	}
}

// newModelClient builds the configured provider, wrapped in the adaptive rate
// limiter when a tokens-per-minute budget is set.
func newModelClient(ctx context.Context, cfg *config.Config) (model.Client, error) {
	logger := telemetry.NewClueLogger()
	var (
		client model.Client
		err    error
	)
	switch cfg.Model.Provider {
	case config.ProviderBedrock:
		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.Model.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Model.Region))
		}
		awsCfg, cfgErr := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if cfgErr != nil {
			return nil, fmt.Errorf("load AWS configuration: %w", cfgErr)
		}
		client, err = bedrockmodel.New(bedrockruntime.NewFromConfig(awsCfg), bedrockmodel.Options{
			Model:       cfg.Model.ID,
			MaxTokens:   cfg.Model.MaxTokens,
			Temperature: cfg.Model.Temperature,
			Logger:      logger,
		})
	case config.ProviderOpenAI:
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, errors.New("OPENAI_API_KEY is not set")
		}
		client, err = openaimodel.NewFromAPIKey(key, openaimodel.Options{
			Model:       cfg.Model.ID,
			MaxTokens:   cfg.Model.MaxTokens,
			Temperature: cfg.Model.Temperature,
		})
	case config.ProviderAnthropic:
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, errors.New("ANTHROPIC_API_KEY is not set")
		}
		client, err = anthropicmodel.NewFromAPIKey(key, anthropicmodel.Options{
			Model:       cfg.Model.ID,
			MaxTokens:   cfg.Model.MaxTokens,
			Temperature: float64(cfg.Model.Temperature),
		})
	case config.ProviderStub:
		client = stub.New()
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
	if err != nil {
		return nil, err
	}
	if tpm := cfg.Model.RateLimitTPM; tpm > 0 {
		limiter := middleware.NewAdaptiveRateLimiter(float64(tpm), float64(tpm))
		client = limiter.Middleware()(client)
	}
	return client, nil
}

// newSessionStore builds the configured trace store backend.
func newSessionStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Session.Backend {
	case config.BackendInMem:
		return inmem.New(), nil
	case config.BackendMongo:
		mongoClient, err := mongodriver.Connect(mongooptions.Client().ApplyURI(cfg.Session.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("connect to mongo: %w", err)
		}
		return sessionmongo.New(sessionmongo.Options{
			Client:   mongoClient,
			Database: cfg.Session.MongoDatabase,
		})
	case config.BackendRedis:
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Session.RedisAddr})
		return sessionredis.New(sessionredis.Options{Client: rdb, TTL: cfg.Session.TTL})
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

// runOnce handles a single message and prints the output as indented JSON.
func runOnce(ctx context.Context, orch *pipeline.Orchestrator, sessionID, message string) error {
	out, err := orch.Handle(ctx, agent.Input{
		SessionID: sessionID,
		Message:   agent.InputMessage{Text: message},
	})
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
