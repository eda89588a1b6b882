package fxmetrics

import (
	"context"

	"github.com/devopsext/vmclient/common"
	"github.com/devopsext/vmclient/metrics"
	"github.com/devopsext/vmclient/provider"
	"go.uber.org/fx"
)

// FXModule provides a registry and its read-only endpoint.
var FXModule = fx.Module("metrics",
	fx.Provide(
		NewRegistry,
		NewEndpoint,
	),
)

// ExporterFXModule serves the registry over HTTP for the lifetime of the application.
// It requires provider.ExporterOptions and common.Logger to be supplied.
var ExporterFXModule = fx.Module("metrics-exporter",
	fx.Provide(
		NewExporter,
	),
	fx.Invoke(RegisterExporterLifecycle),
)

type registryParams struct {
	fx.In

	Logger common.Logger `optional:"true"`
}

func NewRegistry(p registryParams) *metrics.Registry {

	if p.Logger == nil {
		return metrics.NewRegistry()
	}
	return metrics.NewRegistry(metrics.WithLogger(p.Logger))
}

func NewExporter(options provider.ExporterOptions, registry *metrics.Registry, logger common.Logger) *provider.Exporter {
	return provider.NewExporter(options, registry, logger, nil)
}

// RegisterExporterLifecycle starts the exporter on application start and stops it on shutdown.
func RegisterExporterLifecycle(lc fx.Lifecycle, exporter *provider.Exporter) {

	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer close(done)
				exporter.Start()
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			exporter.Stop()
			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		},
	})
}
