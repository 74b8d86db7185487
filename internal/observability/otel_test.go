package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-lead-marketplace/internal/config"
)

func enabledCfg() config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    true,
		Endpoint:    "localhost:4317",
		ServiceName: "lead-api",
		Environment: "test",
		SampleRatio: 1,
	}
}

// withGlobals restores the otel globals and test seams after t.
func withGlobals(t *testing.T) {
	t.Helper()
	tp, prop := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	dial, describe := dialExporter, describeService
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
		dialExporter, describeService = dial, describe
	})
}

// spanSink keeps exported spans past Shutdown; the in-memory exporter
// clears its buffer when shut down.
type spanSink struct {
	*tracetest.InMemoryExporter
	shutdown bool
}

func (s *spanSink) Shutdown(context.Context) error {
	s.shutdown = true
	return nil
}

func fakeExporter(t *testing.T) *spanSink {
	t.Helper()
	sink := &spanSink{InMemoryExporter: tracetest.NewInMemoryExporter()}
	dialExporter = func(context.Context, ...otlptracegrpc.Option) (sdktrace.SpanExporter, error) {
		return sink, nil
	}
	return sink
}

func TestSetupOTel_Disabled(t *testing.T) {
	withGlobals(t)
	before := otel.GetTracerProvider()

	cfg := enabledCfg()
	cfg.Enabled = false
	shutdown, err := SetupOTel(context.Background(), cfg, "dev")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Fatalf("provider replaced while disabled")
	}
}

func TestSetupOTel_ExportsPurchaseSpans(t *testing.T) {
	withGlobals(t)
	mem := fakeExporter(t)

	shutdown, err := SetupOTel(context.Background(), enabledCfg(), "1.4.0")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Fatalf("global provider is %T", otel.GetTracerProvider())
	}

	_, span := otel.Tracer("services/AdmissionService").Start(context.Background(), "Purchase")
	span.End()

	// shutdown flushes the batcher
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !mem.shutdown {
		t.Fatalf("exporter not shut down")
	}
	spans := mem.GetSpans()
	if len(spans) != 1 || spans[0].Name != "Purchase" {
		t.Fatalf("exported spans = %+v", spans)
	}
	attrs := map[string]string{}
	for _, kv := range spans[0].Resource.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs["service.name"] != "lead-api" || attrs["service.namespace"] != ServiceNamespace ||
		attrs["service.version"] != "1.4.0" || attrs["deployment.environment"] != "test" {
		t.Fatalf("resource = %v", attrs)
	}
}

func TestSetupOTel_PropagatesTraceContext(t *testing.T) {
	withGlobals(t)
	fakeExporter(t)

	shutdown, err := SetupOTel(context.Background(), enabledCfg(), "dev")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	ctx, span := otel.Tracer("t").Start(context.Background(), "outbound")
	defer span.End()

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if carrier.Get("traceparent") == "" {
		t.Fatalf("traceparent not injected: %v", carrier)
	}
	got := trace.SpanContextFromContext(otel.GetTextMapPropagator().Extract(context.Background(), carrier))
	if got.TraceID() != span.SpanContext().TraceID() {
		t.Fatalf("trace id lost across propagation")
	}
}

func TestSetupOTel_ErrorsLeaveGlobalsAlone(t *testing.T) {
	cases := map[string]func(){
		"exporter": func() {
			dialExporter = func(context.Context, ...otlptracegrpc.Option) (sdktrace.SpanExporter, error) {
				return nil, errors.New("dial refused")
			}
		},
		"resource": func() {
			fakeExporter(t)
			describeService = func(context.Context, string, string, string) (*resource.Resource, error) {
				return nil, errors.New("bad resource")
			}
		},
	}
	for name, arrange := range cases {
		t.Run(name, func(t *testing.T) {
			withGlobals(t)
			arrange()
			tp, prop := otel.GetTracerProvider(), otel.GetTextMapPropagator()

			if _, err := SetupOTel(context.Background(), enabledCfg(), "dev"); err == nil {
				t.Fatalf("expected error")
			}
			if otel.GetTracerProvider() != tp || otel.GetTextMapPropagator() != prop {
				t.Fatalf("globals changed on failure")
			}
		})
	}
}

func TestSetupOTel_RealClientDialsLazily(t *testing.T) {
	withGlobals(t)
	// nothing listens on the endpoint; the gRPC client connects on first export
	for _, insecure := range []bool{true, false} {
		cfg := enabledCfg()
		cfg.Insecure = insecure
		shutdown, err := SetupOTel(context.Background(), cfg, "dev")
		if err != nil {
			t.Fatalf("insecure=%v: %v", insecure, err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_ = shutdown(ctx)
	}
}

func TestExporterOptions(t *testing.T) {
	cfg := enabledCfg()
	if got := len(exporterOptions(cfg)); got != 2 {
		t.Fatalf("insecure options = %d", got)
	}
	cfg.Insecure = false
	if got := len(exporterOptions(cfg)); got != 2 {
		t.Fatalf("tls options = %d", got)
	}
}

func TestSampler(t *testing.T) {
	cases := []struct {
		ratio float64
		want  sdktrace.SamplingDecision
	}{
		{1, sdktrace.RecordAndSample},
		{1.5, sdktrace.RecordAndSample},
		{0, sdktrace.Drop},
		{-1, sdktrace.Drop},
	}
	params := sdktrace.SamplingParameters{
		ParentContext: context.Background(),
		TraceID:       trace.TraceID{1},
		Name:          "Purchase",
	}
	for _, tc := range cases {
		if got := sampler(tc.ratio).ShouldSample(params).Decision; got != tc.want {
			t.Errorf("sampler(%v) = %v; want %v", tc.ratio, got, tc.want)
		}
	}
	if d := sampler(0.5).Description(); d == "" {
		t.Fatalf("empty description")
	}
}
