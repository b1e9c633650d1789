package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/infrastructure/config"
)

const (
	meterName             = "github.com/storefront/backend/settlement"
	defaultExportInterval = 60 * time.Second
)

// MeterProvider wraps the SDK meter provider with lifecycle management.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
}

// NewMeterProvider exports metrics over OTLP/gRPC when both telemetry and
// metrics are enabled.
func NewMeterProvider(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{logger: logger}
	if !cfg.Enabled || !cfg.MetricsEnabled {
		logger.Info("Metrics disabled, using no-op meter provider")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(defaultExportInterval))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("OpenTelemetry MeterProvider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.String("service_name", cfg.ServiceName),
	)
	return mp, nil
}

// Meter returns the settlement meter, falling back to the global provider.
func (mp *MeterProvider) Meter() metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(meterName)
	}
	return mp.provider.Meter(meterName)
}

// Shutdown flushes pending metrics.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := mp.provider.Shutdown(shutdownCtx); err != nil {
		mp.logger.Error("Error shutting down meter provider", zap.Error(err))
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// SettlementMetrics counts settlement outcomes. It satisfies the order
// application's SettlementRecorder.
type SettlementMetrics struct {
	settled    metric.Int64Counter
	earned     metric.Int64Counter
	spent      metric.Int64Counter
	duplicates metric.Int64Counter
	reversals  metric.Int64Counter
}

// NewSettlementMetrics registers the settlement instruments on meter.
func NewSettlementMetrics(meter metric.Meter) (*SettlementMetrics, error) {
	m := &SettlementMetrics{}
	var err error

	if m.settled, err = meter.Int64Counter("storefront.orders.settled",
		metric.WithDescription("Orders settled after payment confirmation"),
		metric.WithUnit("{order}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create settled counter: %w", err)
	}
	if m.earned, err = meter.Int64Counter("storefront.points.earned",
		metric.WithDescription("Loyalty points credited by settlement"),
		metric.WithUnit("{point}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create earned counter: %w", err)
	}
	if m.spent, err = meter.Int64Counter("storefront.points.spent",
		metric.WithDescription("Loyalty points debited by settlement"),
		metric.WithUnit("{point}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create spent counter: %w", err)
	}
	if m.duplicates, err = meter.Int64Counter("storefront.settlement.duplicates",
		metric.WithDescription("Payment confirmations for already settled orders"),
	); err != nil {
		return nil, fmt.Errorf("failed to create duplicates counter: %w", err)
	}
	if m.reversals, err = meter.Int64Counter("storefront.orders.reversed",
		metric.WithDescription("Settled orders reversed by cancellation or refund"),
		metric.WithUnit("{order}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create reversals counter: %w", err)
	}
	return m, nil
}

// RecordSettlement counts one settled order and the points it moved.
func (m *SettlementMetrics) RecordSettlement(ctx context.Context, pointsEarned, pointsSpent int64) {
	m.settled.Add(ctx, 1)
	if pointsEarned > 0 {
		m.earned.Add(ctx, pointsEarned)
	}
	if pointsSpent > 0 {
		m.spent.Add(ctx, pointsSpent)
	}
}

func (m *SettlementMetrics) RecordDuplicateConfirmation(ctx context.Context) {
	m.duplicates.Add(ctx, 1)
}

func (m *SettlementMetrics) RecordReversal(ctx context.Context, status order.Status) {
	m.reversals.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
}
