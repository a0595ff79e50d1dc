package bootstrap

import (
	"log"

	"capital-research-be/internal/config"
	"capital-research-be/internal/controller"
	"capital-research-be/internal/pkg/logger"
	"capital-research-be/internal/service"
	"capital-research-be/pkg/assistant"
	"capital-research-be/pkg/crm"
	"capital-research-be/pkg/knowledge"
	"capital-research-be/pkg/llm/anthropic"
	pkgNats "capital-research-be/pkg/nats"
	"capital-research-be/pkg/search"
	"capital-research-be/pkg/session"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

// Container wires the whole application graph. External integrations with
// missing credentials come up as nil and their consumers degrade gracefully.
type Container struct {
	Log logger.ILogger

	ResearchController  controller.IResearchController
	KnowledgeController controller.IKnowledgeController
	TelemetryService    service.ITelemetryService
}

func NewContainer(cfg *config.Config) *Container {
	appLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Redis backs session persistence. A bad URL is fatal; a Redis that is
	// merely down is not, the session store degrades per call.
	redisOpts, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	redisClient := redis.NewClient(redisOpts)

	sessionStore := session.NewStore(
		session.NewRedisKV(redisClient),
		appLogger,
		cfg.Session.TTL,
		cfg.Session.UserLinkTTL,
		cfg.Session.MaxTurns,
	)

	knowledgeStore := knowledge.NewDefaultStore()

	// External search sources are optional; nil clients are skipped by the
	// fan-out and reported as unavailable by the health endpoint.
	var tavily *search.TavilyClient
	if cfg.Keys.Tavily != "" {
		tavily = search.NewTavilyClient(cfg.Keys.Tavily)
	}
	var perplexity *search.PerplexityClient
	if cfg.Keys.Perplexity != "" {
		perplexity = search.NewPerplexityClient(cfg.Keys.Perplexity, cfg.Ai.AnalysisModel, cfg.Ai.AnalysisTokens)
	}
	var alpaca *search.AlpacaClient
	if cfg.Keys.AlpacaKeyID != "" && cfg.Keys.AlpacaSecret != "" {
		alpaca = search.NewAlpacaClient(cfg.Keys.AlpacaKeyID, cfg.Keys.AlpacaSecret)
	}
	fanout := search.NewFanout(tavily, perplexity, alpaca, appLogger, cfg.Ai.FanoutTimeout)

	provider := anthropic.NewProvider(cfg.Keys.Anthropic, cfg.Ai.Model)
	agent := assistant.NewAgent(provider, assistant.NewToolkit(), appLogger, cfg.Ai.MaxTokens, cfg.Ai.MaxToolSteps)

	// In-process queue for fire-and-forget usage telemetry.
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	usagePublisher := service.NewUsagePublisherService(pubSub, appLogger)

	var natsPublisher *pkgNats.Publisher
	if cfg.App.NatsURL != "" {
		natsPublisher, err = pkgNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			appLogger.Warn("bootstrap", "NATS unavailable, event mirror disabled", map[string]interface{}{"error": err.Error()})
			natsPublisher = nil
		}
	}

	crmClient := crm.NewClient(cfg.Keys.CRMWebhookURL, appLogger)

	// Telemetry is chatty; it logs to file only so console output stays usable.
	telemetryLogger := logger.NewIsolatedLogger(cfg.App.LogFilePath)
	telemetryService := service.NewTelemetryService(pubSub, crmClient, natsPublisher, telemetryLogger)

	researchService := service.NewResearchService(
		knowledgeStore,
		sessionStore,
		fanout,
		agent,
		usagePublisher,
		appLogger,
		cfg.Keys.Anthropic != "",
		crmClient.Configured(),
	)

	return &Container{
		Log:                 appLogger,
		ResearchController:  controller.NewResearchController(researchService),
		KnowledgeController: controller.NewKnowledgeController(knowledgeStore),
		TelemetryService:    telemetryService,
	}
}
