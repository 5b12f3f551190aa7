// Package veracity provides a high-level façade over the fact-checking
// pipeline. Most applications interact with it by:
//  1. Loading Settings via config.Load (or starting from config.Default)
//  2. Creating a Pipeline via New() (optionally overriding the model,
//     clients and stores, which tests do with in-memory doubles)
//  3. Calling Check() with the text to fact-check
//
// A Check run executes three stages: claim structuring and gap identification,
// prioritized batched web research, and evidence adjudication with report
// transformation. The result is the client-facing synthesis.Report; the same
// JSON is stored as a session artifact.
package veracity

import (
	"context"
	"encoding/json"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/veracity-ai/veracity/agent"
	"github.com/veracity-ai/veracity/analysis"
	"github.com/veracity-ai/veracity/config"
	"github.com/veracity-ai/veracity/core"
	"github.com/veracity-ai/veracity/embedding"
	"github.com/veracity-ai/veracity/logging"
	"github.com/veracity-ai/veracity/model"
	"github.com/veracity-ai/veracity/model/anthropic"
	"github.com/veracity-ai/veracity/model/openai"
	"github.com/veracity-ai/veracity/research"
	"github.com/veracity-ai/veracity/runner"
	"github.com/veracity-ai/veracity/synthesis"
	"github.com/veracity-ai/veracity/web"
)

// Options overrides the pieces New would otherwise build from Settings.
// Any nil field falls back to its default.
type Options struct {
	// Model overrides the provider model built from Settings.
	Model model.Model
	// Search and Scrape override the remote web clients.
	Search web.SearchClient
	Scrape web.ScrapeClient
	// Embedder overrides the duplicate-query embedder. When neither this nor
	// a Gemini API key is configured, dedup degrades to exact-match only.
	Embedder embedding.Embedder

	// Stores default to in-memory implementations.
	SessionStore  core.SessionStore
	ArtifactStore core.ArtifactStore
	MemoryStore   core.MemoryStore

	// Logger defaults to a slog logger built from Settings.
	Logger logging.Logger
}

// Pipeline is the assembled fact-checking system.
type Pipeline struct {
	cfg    *config.Settings
	runner *runner.Runner
	logger logging.Logger
}

// New assembles the full pipeline from cfg. Overrides for tests and embedding
// go through functional options.
func New(cfg *config.Settings, optFns ...func(o *Options)) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NewRunLogger(&logging.Config{
			Level:  logging.ParseLevel(cfg.LogLevel),
			Format: cfg.LogFormat,
		}).WithComponent("pipeline")
	}

	llm := opts.Model
	if llm == nil {
		built, err := buildModel(cfg)
		if err != nil {
			return nil, err
		}
		llm = built
	}

	searchClient := opts.Search
	if searchClient == nil {
		searchClient = web.NewSerperClient(cfg.SearchEndpoint, cfg.SearchAPIKey, cfg.HTTPTimeout)
	}

	scrapeClient := opts.Scrape
	if scrapeClient == nil {
		scrapeClient = web.NewScrapeDoClient(cfg.ScrapeToken, func(o *web.ScrapeDoOptions) {
			o.Endpoint = cfg.ScrapeEndpoint
			o.GeoCode = cfg.ScrapeGeoCode
			o.Timeout = cfg.HTTPTimeout
		})
	}

	embedder := opts.Embedder
	if embedder == nil && cfg.GeminiAPIKey != "" {
		built, err := embedding.NewGenAIEmbedder(context.Background(), cfg.GeminiAPIKey, cfg.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("build embedder: %w", err)
		}
		embedder = built
	}

	root := buildRootAgent(cfg, llm, searchClient, scrapeClient, embedder)

	r := runner.New(root, func(o *runner.Options) {
		o.MaxModelCalls = cfg.MaxModelCalls
		o.Logger = opts.Logger
		if opts.SessionStore != nil {
			o.SessionStore = opts.SessionStore
		}
		if opts.ArtifactStore != nil {
			o.ArtifactStore = opts.ArtifactStore
		}
		if opts.MemoryStore != nil {
			o.MemoryStore = opts.MemoryStore
		}
	})

	return &Pipeline{cfg: cfg, runner: r, logger: opts.Logger}, nil
}

func buildModel(cfg *config.Settings) (model.Model, error) {
	switch cfg.Provider {
	case "openai":
		var clientOpts []option.RequestOption
		if cfg.OpenAIAPIKey != "" {
			clientOpts = append(clientOpts, option.WithAPIKey(cfg.OpenAIAPIKey))
		}
		client := openaisdk.NewClient(clientOpts...)
		return openai.NewModelFromClient(&client, func(o *openai.Options) {
			o.Model = cfg.Model
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
			o.APIKey = cfg.AnthropicAPIKey
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// buildRootAgent composes the fixed three-stage pipeline.
func buildRootAgent(
	cfg *config.Settings,
	llm model.Model,
	searchClient web.SearchClient,
	scrapeClient web.ScrapeClient,
	embedder embedding.Embedder,
) core.Agent {
	analysisStage := agent.NewSequentialAgent("AnalysisStage",
		analysis.NewClaimStructuringAgent(llm),
		analysis.NewGapIdentificationAgent(llm, cfg.MaxQuestions),
	)

	researchStage := research.NewOrchestrator(research.WorkerDeps{
		LLM:            llm,
		Search:         searchClient,
		Scrape:         scrapeClient,
		Embedder:       embedder,
		MaxSearchCalls: cfg.MaxSearchCalls,
		MaxScrapeCalls: cfg.MaxScrapeCalls,
		DedupThreshold: cfg.DedupThreshold,
	}, func(o *research.OrchestratorOptions) {
		o.BatchSize = cfg.BatchSize
	})

	synthesisStage := agent.NewSequentialAgent("SynthesisStage",
		synthesis.NewEvidenceAdjudicatorAgent(llm),
		synthesis.NewReportAgent(),
	)

	return agent.NewSequentialAgent("FactCheckPipeline",
		analysisStage,
		researchStage,
		synthesisStage,
	)
}

// Check fact-checks text and returns the final report. Each call uses a fresh
// session.
func (p *Pipeline) Check(ctx context.Context, text string) (*synthesis.Report, error) {
	sessionID := core.NewID()

	_, events, errs, err := p.runner.Run(ctx, sessionID, core.NewTextContent("user", text))
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}

	var runErr error
	for events != nil || errs != nil {
		select {
		case _, ok := <-events:
			if !ok {
				events = nil
			}
		case e, ok := <-errs:
			if !ok {
				errs = nil
			} else if e != nil && runErr == nil {
				runErr = e
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if runErr != nil {
		return nil, fmt.Errorf("run failed: %w", runErr)
	}

	sess, err := p.runner.SessionStore().Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	raw, ok := sess.GetState(synthesis.StateKeyReport)
	if !ok {
		return nil, fmt.Errorf("run produced no report")
	}

	reportJSON, _ := raw.(string)

	var report synthesis.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}

	return &report, nil
}
