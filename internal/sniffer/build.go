package sniffer

import (
	"log/slog"

	"themesniff/internal/aggregate"
	"themesniff/internal/config"
	"themesniff/internal/engine"
	"themesniff/internal/errors"
	"themesniff/internal/metadata"
	"themesniff/internal/paths"
	"themesniff/internal/readme"
	"themesniff/internal/runconfig"
	"themesniff/internal/screenshot"
	"themesniff/internal/selector"
	"themesniff/internal/storage"
)

// Build wires a Sniffer from configuration. themeDir locates the default
// cache database. The returned close function releases the cache and must be
// called when the sniffer is no longer used.
func Build(cfg *config.Config, themeDir string, logger *slog.Logger) (*Sniffer, func() error, error) {
	closer := func() error { return nil }

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return nil, closer, err
	}

	var adapter *engine.Adapter
	if cfg.Cache.Enabled {
		cachePath := cfg.Cache.Path
		if cachePath == "" {
			if _, err := paths.EnsureDataDir(themeDir); err != nil {
				return nil, closer, errors.New(errors.ConfigError, "The cache directory could not be created.", err)
			}
			cachePath = paths.GetCachePath(themeDir)
		}
		cache, err := storage.OpenResultCache(cachePath, logger)
		if err != nil {
			return nil, closer, errors.New(errors.ConfigError, "The result cache could not be opened.", err)
		}
		closer = cache.Close
		adapter = engine.NewAdapter(eng, cache, logger)
	} else {
		adapter = engine.NewAdapter(eng, nil, logger)
	}

	tags := metadata.DefaultTagLists()
	if cfg.Metadata.TagsFile != "" {
		tags, err = metadata.LoadTagLists(cfg.Metadata.TagsFile)
		if err != nil {
			_ = closer()
			return nil, func() error { return nil }, errors.New(errors.ConfigError, "The tag list could not be loaded.", err)
		}
	}

	s := New(Deps{
		Selector: selector.New(selector.DefaultOptions(), logger),
		Resolver: runconfig.NewResolver(nil, nil, logger),
		Adapter:  adapter,
		Validators: []Registered{
			{Source: aggregate.SourceAsset, Validator: screenshot.NewValidator(logger), File: screenshot.Candidates[0]},
			{Source: aggregate.SourceDocumentation, Validator: readme.NewValidator(logger), File: readme.FileName},
			{Source: aggregate.SourceMetadata, Validator: metadata.NewValidator(tags, cfg.Metadata.ReservedTerms, logger), File: metadata.StyleFile},
		},
		Aggregator: aggregate.New(logger),
		Extensions: cfg.Extensions,
		Logger:     logger,
	})
	return s, closer, nil
}

func newEngine(cfg *config.Config, logger *slog.Logger) (engine.Engine, error) {
	switch cfg.Engine.Kind {
	case config.EngineBuiltin:
		if !engine.SyntaxAvailable() {
			logger.Warn("Builtin engine unavailable in this build")
		}
		return engine.NewSyntax(logger), nil
	case config.EnginePHPCS, "":
		return engine.NewPHPCS(cfg.Engine.Binary, logger), nil
	default:
		return nil, errors.Newf(errors.ConfigError, "Unknown engine %q.", cfg.Engine.Kind)
	}
}
