package cogvm

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/viant/x"

	"github.com/cogvm/cogvm/model/types"
	"github.com/cogvm/cogvm/service/event"
	"github.com/cogvm/cogvm/service/executor"
	"github.com/cogvm/cogvm/service/scheduler"
	"github.com/cogvm/cogvm/tracing"
)

// Option represents a runtime service option.
type Option func(s *Service)

// WithConfig overrides the default configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithPrograms registers user programs alongside the builtins.
func WithPrograms(programs ...types.Program) Option {
	return func(s *Service) {
		s.userPrograms = append(s.userPrograms, programs...)
	}
}

// WithExtensionTypes registers input types resolvable by the extension
// registry.
func WithExtensionTypes(goTypes ...*x.Type) Option {
	return func(s *Service) {
		s.extensionTypes = append(s.extensionTypes, goTypes...)
	}
}

// WithEventService overrides the default in-memory event service.
func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.events = service
	}
}

// WithSelector overrides the migration target selector.
func WithSelector(selector scheduler.TargetSelector) Option {
	return func(s *Service) {
		s.schedulerOptions = append(s.schedulerOptions, scheduler.WithSelector(selector))
	}
}

// WithSchedulerOptions passes additional options to the scheduler.
func WithSchedulerOptions(options ...scheduler.Option) Option {
	return func(s *Service) {
		s.schedulerOptions = append(s.schedulerOptions, options...)
	}
}

// WithExecutorOptions passes additional options to executor.NewService.
func WithExecutorOptions(options ...executor.Option) Option {
	return func(s *Service) {
		s.executorOptions = append(s.executorOptions, options...)
	}
}

// WithTracing configures OpenTelemetry tracing. An empty outputFile selects
// the stdout exporter. Safe to call multiple times; the first successful
// initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing with a custom span
// exporter, for OTLP or in-memory test exporters.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
