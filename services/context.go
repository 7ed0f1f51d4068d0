package services

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	sourceKey
)

// Prediction sources recorded in the history.
const (
	SourceHTTP      = "http"
	SourceBatch     = "batch"
	SourceWebSocket = "websocket"
	SourceMQTT      = "mqtt"
	SourceCLI       = "cli"
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey, source)
}

// Source reports where a prediction came from, defaulting to SourceHTTP.
func Source(ctx context.Context) string {
	if s, ok := ctx.Value(sourceKey).(string); ok {
		return s
	}
	return SourceHTTP
}
