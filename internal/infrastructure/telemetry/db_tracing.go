package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/infrastructure/config"
)

// InstrumentDB registers the otelgorm plugin so every statement inside a
// traced request gets a child span. Query variables stay out of spans unless
// full SQL logging is switched on.
func InstrumentDB(db *gorm.DB, cfg config.TelemetryConfig, logger *zap.Logger, extra ...otelgorm.Option) error {
	if !cfg.DBTraceEnabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(db.Dialector.Name()),
		otelgorm.WithAttributes(attribute.String("db.system", dbSystem(db.Dialector.Name()))),
	}
	if !cfg.DBLogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	opts = append(opts, extra...)

	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.DBLogFullSQL),
		zap.String("dialect", db.Dialector.Name()),
	)
	return nil
}

func dbSystem(dialect string) string {
	if dialect == "postgres" {
		return "postgresql"
	}
	return dialect
}
