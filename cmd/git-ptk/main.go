package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/patchtrack/git-ptk/cmd/git-ptk/cmds"
	clierrors "github.com/patchtrack/git-ptk/internal/cli_errors"
	"github.com/patchtrack/git-ptk/internal/logger"
	otelgitptk "github.com/patchtrack/git-ptk/internal/otel"
)

var tracer = otel.Tracer("github.com/patchtrack/git-ptk/cmd/git-ptk")

func runApp(ctx context.Context) int {
	// The SDK comes up before cobra parses anything, so this switch is
	// env-only rather than a resolved setting.
	useOTLP := false
	if raw, ok := os.LookupEnv("PTK_USE_OTLP"); ok {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			logger.Logger.Warn("PTK_USE_OTLP env var is invalid", "error", err)
		} else {
			useOTLP = parsed
		}
	}

	shutdown, err := otelgitptk.SetupOTelSDK(ctx, useOTLP)
	if err != nil {
		logger.Logger.Warn("failed to setup otel sdk")
	}
	defer func() {
		fail := shutdown(context.WithoutCancel(ctx))
		if fail != nil {
			logger.Logger.Warn("no clean shutdown for otel", "error", fail)
		}
	}()

	// A CI job or script that spawned us may carry a trace context in the
	// environment. Link it so the invocation shows up under that trace.
	carrier := otelgitptk.CreateEnvCarrier()
	extractedContext := otel.GetTextMapPropagator().Extract(context.Background(), carrier)
	ctx, span := tracer.Start(
		ctx,
		"git-ptk",
		trace.WithNewRoot(),
		trace.WithLinks(trace.LinkFromContext(extractedContext)),
	)
	defer span.End()

	err = cmds.Execute(ctx)
	if err != nil {
		logger.Logger.Error("command failed", "error", err)

		var ee clierrors.ExitError
		if errors.As(err, &ee) {
			return ee.Code
		}
		return clierrors.ExitErrored
	}

	return clierrors.ExitNormal
}

func main() {
	logger.InitSlog()

	// The engine checks for cancellation between patches, so the first
	// interrupt requests a clean stop. A second one kills us the usual way.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(runApp(ctx))
}
