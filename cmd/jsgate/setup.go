package main

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/robbyt/go-jsgate"
	"github.com/robbyt/go-jsgate/internal/config"
	"github.com/robbyt/go-jsgate/internal/helpers"
	"github.com/robbyt/go-jsgate/platform/script/loader"
)

// buildGateway loads the prelude named by cfg (or override, when set) and applies the
// evaluation limits.
func buildGateway(cfg *config.Config, handler slog.Handler, override string) (*jsgate.Gateway, error) {
	src, err := preludeLoader(cfg.Prelude, override)
	if err != nil {
		return nil, err
	}

	prelude := ""
	if src != nil {
		prelude, err = jsgate.LoadPrelude(src)
		if err != nil {
			return nil, err
		}
		slog.New(handler).Info("prelude loaded",
			"source", src.GetSourceURL().String(),
			"chars", len(prelude),
			"sha256", helpers.ShortSHA256(prelude, 12))
	}

	return jsgate.New(
		jsgate.WithLogHandler(handler),
		jsgate.WithPrelude(prelude),
		jsgate.WithDefaultTimeout(cfg.Eval.DefaultTimeout),
		jsgate.WithMaxTimeout(cfg.Eval.MaxTimeout),
		jsgate.WithMaxCallStackSize(cfg.Eval.MaxCallStackSize),
		jsgate.WithInterruptGrace(cfg.Eval.InterruptGrace),
		jsgate.WithStrictNames(cfg.Eval.StrictNames),
		jsgate.WithStrictMode(cfg.Eval.StrictMode),
	)
}

// preludeLoader returns nil when no prelude is configured.
func preludeLoader(cfg config.PreludeConfig, override string) (loader.Loader, error) {
	switch {
	case override != "":
		return loader.InferLoader(override)
	case cfg.Inline != "":
		return loader.NewFromString(cfg.Inline)
	case cfg.Path != "":
		return loader.NewFromDisk(cfg.Path)
	case cfg.URL != "":
		opts := loader.DefaultHTTPOptions()
		if cfg.FetchTimeout > 0 {
			opts.Timeout = cfg.FetchTimeout
		}
		maps.Copy(opts.Headers, cfg.Headers)
		l, err := loader.NewFromHTTPWithOptions(cfg.URL, opts)
		if err != nil {
			return nil, fmt.Errorf("invalid prelude.url: %w", err)
		}
		return l, nil
	default:
		return nil, nil
	}
}
