package application

import "log/slog"

func appLogger() *slog.Logger {
	return slog.Default().With(
		"service", "shamba-auth-service",
		"module", "application",
		"layer", "service",
	)
}
