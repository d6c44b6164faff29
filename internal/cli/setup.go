package cli

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v4"

	"github.com/kolah/respec/indexer"
	"github.com/kolah/respec/internal/config"
	"github.com/kolah/respec/loader"
	"github.com/kolah/respec/route"
	"github.com/kolah/respec/schema"
)

// session bundles what every command needs.
type session struct {
	cfg    *config.Config
	logger schema.Logger
	loader *loader.Loader
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}

	logger := newConsoleLogger(cmd.ErrOrStderr(), cfg.Verbose)
	return &session{
		cfg:    cfg,
		logger: logger,
		loader: newLoader(cfg, logger),
	}, nil
}

func newLoader(cfg *config.Config, logger schema.Logger) *loader.Loader {
	opts := []loader.ProviderOption{
		loader.WithTimeout(cfg.Remote.Timeout),
		loader.WithRetries(cfg.Remote.Retries),
	}
	if len(cfg.Routes) > 0 {
		opts = append(opts, loader.WithRoutes(route.NewTable(cfg.Routes...)))
	}
	switch {
	case cfg.PathPrefix != "":
		opts = append(opts, loader.WithFixedPrefix(cfg.PathPrefix))
	case cfg.CommonPrefix:
		opts = append(opts, loader.WithCommonPrefix(cfg.Routes))
	}

	var provider loader.Provider
	if cfg.IsRemote() {
		provider = loader.NewRemote(cfg.Spec, opts...)
	} else {
		provider = loader.NewStatic(cfg.Spec, opts...)
	}

	return loader.New(provider,
		loader.WithBaseURL(cfg.BaseURL),
		loader.WithLogger(logger),
		loader.WithIndexOptions(indexer.Options{
			I18nParameterName:     cfg.I18nParameterName,
			SkipValidationWarning: cfg.SkipValidationWarning,
			Logger:                logger,
		}),
	)
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
}
