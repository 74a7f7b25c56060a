// File: internal/infra/logging/logging.go
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"ticket-payment-service/internal/config"

	"github.com/rs/zerolog"
)

// New creates a zerolog logger configured from config.
// Supports "trace" | "debug" | "info" | "warn" | "error" levels
// and "json" | "console" formats.
func New(cfg config.LogConfig, dev bool) *zerolog.Logger {
	level, _ := zerolog.ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var base zerolog.Logger
	if strings.ToLower(cfg.Format) == "console" || dev {
		out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		base = zerolog.New(out).With().Timestamp().Logger()
	} else {
		base = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return &base
}

// With attaches common context fields such as trace_id, ticket_id and
// gateway payment id when present on the context.
type ctxKey string

const (
	ctxTraceID  ctxKey = "trace_id"
	ctxTicketID ctxKey = "ticket_id"
	ctxPayID    ctxKey = "gateway_payment_id"
)

func With(ctx context.Context, base *zerolog.Logger) *zerolog.Logger {
	l := base.With()
	if v := ctx.Value(ctxTraceID); v != nil {
		l = l.Str("trace_id", v.(string))
	}
	if v := ctx.Value(ctxTicketID); v != nil {
		l = l.Str("ticket_id", v.(string))
	}
	if v := ctx.Value(ctxPayID); v != nil {
		l = l.Str("gateway_payment_id", v.(string))
	}
	logger := l.Logger()
	return &logger
}

// Helpers to put IDs into context.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxTraceID, id)
}
func WithTicketID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxTicketID, id)
}
func WithGatewayPaymentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxPayID, id)
}
