package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vasifvortex/azercell-project3/adapters/awsclient"
	"github.com/vasifvortex/azercell-project3/adapters/hasher"
	relayhttp "github.com/vasifvortex/azercell-project3/adapters/http"
	"github.com/vasifvortex/azercell-project3/adapters/llm"
	"github.com/vasifvortex/azercell-project3/adapters/metrics"
	"github.com/vasifvortex/azercell-project3/adapters/retrieval"
	"github.com/vasifvortex/azercell-project3/adapters/speech"
	"github.com/vasifvortex/azercell-project3/adapters/tts"
	"github.com/vasifvortex/azercell-project3/adapters/websocket"
	"github.com/vasifvortex/azercell-project3/config"
	"github.com/vasifvortex/azercell-project3/domain"
	"github.com/vasifvortex/azercell-project3/usecase"
	"github.com/vasifvortex/azercell-project3/utils/log"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := runHealthcheck(); err != nil {
			fmt.Fprintf(os.Stderr, "Healthcheck failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.With().Fatal("failed to load configuration", zap.Error(err))
	}

	awsCfg, err := awsclient.LoadConfig(ctx, cfg.AWS)
	if err != nil {
		log.With().Fatal("failed to load AWS configuration", zap.Error(err))
	}

	gen, err := newLlm(ctx, cfg, awsCfg)
	if err != nil {
		log.With().Fatal("failed to create inference client", zap.Error(err))
	}

	opts := []usecase.Option{
		usecase.WithGeneration(cfg.LLM.MaxTokens, cfg.LLM.Temperature),
		usecase.WithFailureMode(cfg.Retrieval.FailureMode),
		usecase.WithRetrievalObserver(metrics.RecordRetrieval),
	}
	if cfg.Retrieval.Enabled {
		opts = append(opts, usecase.WithRetriever(newRetriever(cfg, awsCfg), cfg.Retrieval.TopK))
	}
	svc := usecase.NewChatService(gen, opts...)

	wsServer := websocket.NewServer(svc)
	wsServer.RunWebsocketHub()

	routes := relayhttp.RouterConfig{
		Chat: relayhttp.NewHandler(svc, relayhttp.Options{
			StreamDefault: cfg.Relay.StreamDefault,
			StrictStatus:  cfg.Relay.StrictStatus,
		}),
		Websocket:     wsServer.Handler,
		Metrics:       metrics.Handler(),
		MaxConcurrent: cfg.Relay.MaxConcurrent,
		RateLimit:     cfg.Relay.RateLimit,
	}
	if cfg.AuthEnabled() {
		routes.Auth = relayhttp.NewAuth(cfg.Relay.JWTSecret, cfg.Relay.APIKey, cfg.Relay.APISecret)
	}
	if cfg.Audio.Enabled {
		googleTTS, err := tts.NewGoogleTTS(ctx, cfg.Audio.TTSLanguage)
		if err != nil {
			log.With().Fatal("failed to create text-to-speech client", zap.Error(err))
		}
		defer googleTTS.Close()
		googleSpeech, err := speech.NewGoogleSpeech(ctx, cfg.Audio.SpeechLanguage)
		if err != nil {
			log.With().Fatal("failed to create speech client", zap.Error(err))
		}
		defer googleSpeech.Close()
		routes.Audio = relayhttp.NewAudioHandler(googleTTS, googleSpeech)
	}

	e := relayhttp.NewRouter(routes)

	address := ":" + cfg.Port
	log.With().Info("starting chat relay",
		zap.String("address", address),
		zap.String("provider", gen.Name()),
		zap.Bool("retrieval", cfg.Retrieval.Enabled),
		zap.String("knowledge_base_id", cfg.Retrieval.KnowledgeBaseID),
		zap.Bool("auth", cfg.AuthEnabled()),
		zap.Bool("audio", cfg.Audio.Enabled),
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.With().Info("shutting down chat relay")
		wsServer.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.With().Error("shutdown error", zap.Error(err))
		os.Exit(1)
	}

	log.With().Info("chat relay exited properly")
}

func newLlm(ctx context.Context, cfg *config.Config, awsCfg aws.Config) (domain.Llm, error) {
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		return llm.NewGeminiClient(ctx, cfg.LLM.GeminiModel)
	case config.ProviderOpenAI:
		return llm.NewOpenAIClient(cfg.LLM.OpenAIBaseURL, cfg.LLM.OpenAIAPIKey, cfg.LLM.OpenAIModel), nil
	default:
		return llm.NewBedrockClient(awsCfg, cfg.LLM.BedrockModelID), nil
	}
}

func newRetriever(cfg *config.Config, awsCfg aws.Config) domain.Retriever {
	kb := retrieval.NewKnowledgeBase(awsCfg, cfg.Retrieval.KnowledgeBaseID)
	if cfg.Retrieval.CacheSize == 0 {
		return kb
	}

	cached := retrieval.NewCachedRetriever(kb, hasher.New(), cfg.Retrieval.CacheSize, cfg.Retrieval.CacheTTL)
	cached.OnHit = metrics.RecordCacheHit
	cached.OnMiss = metrics.RecordCacheMiss
	return cached
}

// runHealthcheck probes the local relay, for container health checks.
func runHealthcheck() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%s/health", port))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status: %d", resp.StatusCode)
	}
	return nil
}
