package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/MrEthical07/authservice"
	otelexport "github.com/MrEthical07/authservice/metrics/export/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// printCounters collects the engine's counters once through the OTel
// exporter and prints the non-zero ones.
func printCounters(ctx context.Context, engine *authservice.Engine) error {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(ctx) }()

	exporter, err := otelexport.NewOTelExporter(provider.Meter("authservice-loadtest"), engine)
	if err != nil {
		return err
	}
	defer func() { _ = exporter.Close() }()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return err
	}

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}

	names := make([]string, 0, len(totals))
	for name, v := range totals {
		if v > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s %d\n", name, totals[name])
	}
	return nil
}
