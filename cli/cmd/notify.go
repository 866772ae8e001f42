package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/icupack/adapter"
	"github.com/justapithecus/icupack/adapter/redis"
	"github.com/justapithecus/icupack/adapter/webhook"
	icupackconfig "github.com/justapithecus/icupack/cli/config"
	"github.com/justapithecus/icupack/iox"
	"github.com/justapithecus/icupack/log"
	"github.com/justapithecus/icupack/metrics"
	"github.com/justapithecus/icupack/runtime"
)

// Notify adapter types.
const (
	notifyWebhook = "webhook"
	notifyRedis   = "redis"
)

// notifyChoice holds the resolved build-completion notifier settings.
type notifyChoice struct {
	kind    string
	url     string
	channel string
	headers map[string]string
	timeout time.Duration
	retries int
}

// parseNotifyConfig resolves notifier settings.
// Returns nil when no notifier is configured.
func parseNotifyConfig(c *cli.Context, cfg *icupackconfig.Config) (*notifyChoice, error) {
	kind := resolveString(c, "notify", configVal(cfg, func(c *icupackconfig.Config) string { return c.Notify.Type }))
	if kind == "" {
		return nil, nil
	}
	if kind != notifyWebhook && kind != notifyRedis {
		return nil, fmt.Errorf("unknown notify type %q (want %s or %s)", kind, notifyWebhook, notifyRedis)
	}

	choice := &notifyChoice{
		kind:    kind,
		url:     resolveString(c, "notify-url", configVal(cfg, func(c *icupackconfig.Config) string { return c.Notify.URL })),
		channel: resolveString(c, "notify-channel", configVal(cfg, func(c *icupackconfig.Config) string { return c.Notify.Channel })),
		headers: configVal(cfg, func(c *icupackconfig.Config) map[string]string { return c.Notify.Headers }),
		timeout: resolveDuration(c, "notify-timeout", configVal(cfg, func(c *icupackconfig.Config) time.Duration { return c.Notify.Timeout.Duration })),
		retries: resolveInt(c, "notify-retries", configVal(cfg, func(c *icupackconfig.Config) *int { return c.Notify.Retries })),
	}
	if choice.url == "" {
		return nil, errors.New("--notify-url is required when --notify is set")
	}
	if choice.retries < 0 {
		return nil, fmt.Errorf("--notify-retries must be >= 0, got %d", choice.retries)
	}
	return choice, nil
}

func newNotifier(choice *notifyChoice) (adapter.Adapter, error) {
	switch choice.kind {
	case notifyWebhook:
		return webhook.New(webhook.Config{
			URL:     choice.url,
			Headers: choice.headers,
			Timeout: choice.timeout,
			Retries: choice.retries,
		})
	case notifyRedis:
		return redis.New(redis.Config{
			URL:     choice.url,
			Channel: choice.channel,
			Timeout: choice.timeout,
			Retries: choice.retries,
		})
	default:
		return nil, fmt.Errorf("unknown notify type %q", choice.kind)
	}
}

// notifyBuild sends the build_completed event. Failures are logged and
// never change the exit code.
func notifyBuild(ctx context.Context, choice *notifyChoice, report *runtime.BuildReport, publishPrefix string, logger *log.Logger, collector *metrics.Collector) {
	notifier, err := newNotifier(choice)
	if err != nil {
		collector.IncNotifyFailure()
		logger.Error("failed to create notifier", map[string]any{"type": choice.kind, "error": err.Error()})
		return
	}
	defer iox.DiscardClose(notifier)

	event := adapter.NewBuildCompletedEvent(report, publishPrefix, time.Now())
	if err := notifier.Publish(ctx, event); err != nil {
		collector.IncNotifyFailure()
		logger.Error("failed to send build notification", map[string]any{"type": choice.kind, "error": err.Error()})
		return
	}
	collector.IncNotifySuccess()
	logger.Info("sent build notification", map[string]any{"type": choice.kind})
}
