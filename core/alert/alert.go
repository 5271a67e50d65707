package alert

import (
	"context"
	"time"

	"EternalJukebox/config"
	"EternalJukebox/logger"
)

// Titles used by the resolution core.
const (
	TitleEmergencyStorage = "[EternalJukebox] Emergency Storage Reached"
	TitleError            = "[EternalJukebox] Error"
	TitleUnknownPath      = "[EternalJukebox] Unknown Path"
)

// sendTimeout bounds a single delivery attempt.
const sendTimeout = 5 * time.Second

// Notifier delivers an operator alert. Delivery is best effort: failures are
// logged by the notifier and never reach the caller.
type Notifier interface {
	Alert(ctx context.Context, title, body string)
}

// Multi fans an alert out to every notifier in order.
type Multi []Notifier

// Alert 依次发送到所有通道
func (m Multi) Alert(ctx context.Context, title, body string) {
	for _, n := range m {
		n.Alert(ctx, title, body)
	}
}

// LogNotifier records alerts in the service log.
type LogNotifier struct{}

// Alert 记录告警日志
func (LogNotifier) Alert(_ context.Context, title, body string) {
	logger.Warn("[Alert] "+title, logger.String("body", body))
}

// NewFromConfig builds the notifier chain: the log always, plus redis and
// firebase when configured. The returned close func releases connections.
func NewFromConfig(cfg *config.Config) (Multi, func() error) {
	chain := Multi{LogNotifier{}}
	closeFn := func() error { return nil }

	if cfg.AlertRedisChannel != "" {
		r := NewRedisNotifier(cfg)
		chain = append(chain, r)
		closeFn = r.Close
		logger.Info("[Alert] 已启用 Redis 告警通道", logger.String("channel", cfg.AlertRedisChannel))
	}
	if cfg.FirebaseApp != "" && cfg.FirebaseDevice != "" {
		chain = append(chain, NewFirebaseNotifier(cfg.FirebaseApp, cfg.FirebaseDevice, cfg.HTTPTimeout))
		logger.Info("[Alert] 已启用 Firebase 告警通道")
	}
	return chain, closeFn
}
