// Command spectrail is the Core's dev CLI harness: a thin cobra front end
// over internal/workflow.Facade for exercising generate_plan and verify_task
// without a desktop shell. Grounded on the teacher's cmd/root.go (persistent
// --config/--verbose flags, subcommand registration in init).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spectrail/core/internal/telemetry"
)

func main() {
	ctx := context.Background()

	// Only stand up a real OTLP exporter when the operator actually pointed
	// one at us; otherwise NewTracer's otel.Tracer() default stays a no-op.
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		shutdown, err := telemetry.InitTracing(ctx, "spectrail")
		if err != nil {
			fmt.Fprintf(os.Stderr, "spectrail: tracing init failed: %v\n", err)
		} else {
			defer shutdown(ctx)
		}
	}

	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
