// Package observability настраивает трассировку OpenTelemetry.
package observability

import (
	"context"
	"time"

	"github.com/annel0/neonite-mod/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// ShutdownFunc сбрасывает накопленные спаны и останавливает экспорт
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// InitTelemetry настраивает OTLP экспортер и устанавливает глобальный TracerProvider.
// При enabled=false ничего не делает: обработчики событий и REST пишут спаны
// в no-op провайдер. Endpoint берётся из OTEL_EXPORTER_OTLP_ENDPOINT (по умолчанию localhost:4318).
func InitTelemetry(ctx context.Context, serviceName string, enabled bool) (ShutdownFunc, error) {
	if !enabled {
		logging.Debug("📡 Трассировка отключена")
		return noopShutdown, nil
	}

	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	logging.Info("📡 OpenTelemetry инициализирован (OTLP, service=%s)", serviceName)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}
