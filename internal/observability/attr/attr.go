package attr

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

type contextKey string

// CorrelationIDKey is the context key under which handlers stash the message
// correlation id.
const CorrelationIDKey contextKey = "correlation_id"

func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

func Int(key string, value int) slog.Attr {
	return slog.Int(key, value)
}

func Int64(key string, value int64) slog.Attr {
	return slog.Int64(key, value)
}

func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

func Float64(key string, value float64) slog.Attr {
	return slog.Float64(key, value)
}

func Duration(key string, value time.Duration) slog.Attr {
	return slog.Duration(key, value)
}

func Time(key string, value time.Time) slog.Attr {
	return slog.Time(key, value)
}

func Any(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

func UserID(key, userID string) slog.Attr {
	return slog.String(key, userID)
}

// CorrelationIDFromMsg reads the watermill correlation id off a message.
func CorrelationIDFromMsg(msg *message.Message) slog.Attr {
	return slog.String("correlation_id", middleware.MessageCorrelationID(msg))
}

// ExtractCorrelationID reads the correlation id previously stored on the
// context, logging an empty string when absent.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	if v, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return slog.String("correlation_id", v)
	}
	return slog.String("correlation_id", "")
}

// WithCorrelationID stores a correlation id on the context for downstream
// logging.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}
