package log

import (
	"fmt"
	"log/slog"
)

func Scenario(name string) slog.Attr {
	return slog.String("scenario", name)
}

func Step(desc string) slog.Attr {
	return slog.String("step", desc)
}

func Signal(kind fmt.Stringer) slog.Attr {
	return slog.String("signal", kind.String())
}

func Subscription(id string) slog.Attr {
	return slog.String("subscription_id", id)
}

func Path(path []string) slog.Attr {
	return slog.Any("path", path)
}

func Value(v any) slog.Attr {
	return slog.Any("value", v)
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}

func ErrorString(msg string) slog.Attr {
	return slog.String("error", msg)
}
