package observability

import (
	"context"

	"github.com/honeynil/BooReviewService/internal/infrastructure/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// Setup wires logging, metrics and tracing. The returned function flushes traces.
func Setup(serviceName, logLevel, otlpEndpoint string, reg prometheus.Registerer) (func(context.Context) error, error) {
	observability.InitLogger(logLevel)
	if err := observability.InitMetrics(reg); err != nil {
		return nil, err
	}
	return observability.InitTracing(serviceName, otlpEndpoint), nil
}
