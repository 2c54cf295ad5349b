package main

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/asin-match/internal/catalog"
	"github.com/sells-group/asin-match/internal/config"
	"github.com/sells-group/asin-match/internal/match"
	"github.com/sells-group/asin-match/internal/model"
	"github.com/sells-group/asin-match/internal/pipeline"
	"github.com/sells-group/asin-match/internal/progress"
	"github.com/sells-group/asin-match/internal/search"
	anthropicpkg "github.com/sells-group/asin-match/pkg/anthropic"
	openaipkg "github.com/sells-group/asin-match/pkg/openai"
	"github.com/sells-group/asin-match/pkg/spapi"
)

// matchEnv holds the clients shared by every run in the process.
type matchEnv struct {
	Catalog spapi.Client
	Oracle  match.Oracle
	Pacer   search.Pacer
}

// initEnv validates configuration for mode and builds the API clients.
func initEnv(mode string) (*matchEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	catalogClient := spapi.NewClient(
		spapi.Credentials{
			RefreshToken: cfg.SPAPI.RefreshToken,
			ClientID:     cfg.SPAPI.ClientID,
			ClientSecret: cfg.SPAPI.ClientSecret,
		},
		spapi.WithEndpoint(cfg.SPAPI.Endpoint),
		spapi.WithTokenURL(cfg.SPAPI.TokenURL),
		spapi.WithMarketplaceID(cfg.SPAPI.MarketplaceID),
	)

	llm, err := newCompleter(cfg)
	if err != nil {
		return nil, err
	}

	zap.L().Info("clients initialized",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("marketplace_id", cfg.SPAPI.MarketplaceID),
		zap.Float64("calls_per_second", cfg.Search.CallsPerSecond),
	)

	return &matchEnv{
		Catalog: catalogClient,
		Oracle:  match.NewLLMOracle(llm),
		// Shared by every run in the process.
		Pacer: search.NewRatePacer(cfg.Search.CallsPerSecond),
	}, nil
}

// newCompleter picks the language model provider.
func newCompleter(c *config.Config) (match.Completer, error) {
	switch c.LLM.Provider {
	case "openai", "":
		return openaipkg.NewCompleter(c.OpenAI.Key, c.OpenAI.Model, openaipkg.WithBaseURL(c.OpenAI.BaseURL)), nil
	case "anthropic":
		client := anthropicpkg.NewClient(c.Anthropic.Key)
		return anthropicpkg.NewCompleter(client, c.Anthropic.Model, c.Anthropic.MaxTokens), nil
	default:
		return nil, eris.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
}

// newRunner builds a pipeline runner writing into outDir.
func (e *matchEnv) newRunner(outDir string, rep progress.Reporter, onStatus func(model.RunStatus)) *pipeline.Runner {
	orch := search.NewOrchestrator(e.Catalog, e.Pacer, cfg.Search.MaxCandidates, rep)
	out := pipeline.Output{
		Dir:              outDir,
		IntermediateFile: cfg.Output.IntermediateFile,
		FinalFile:        cfg.Output.FinalFile,
	}
	return pipeline.New(orch, e.Oracle, out, pipeline.WithReporter(rep), pipeline.WithStatusFunc(onStatus))
}

func catalogColumns() catalog.Columns {
	return catalog.Columns{
		Product: cfg.Search.ProductColumn,
		Cost:    cfg.Search.CostColumn,
		Code:    cfg.Search.CodeColumn,
	}
}
