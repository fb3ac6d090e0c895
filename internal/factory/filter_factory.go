package factory

import (
	"fmt"

	"github.com/mikey/email-prioritizer/internal/adapters/filter"
	"github.com/mikey/email-prioritizer/internal/config"
	"github.com/mikey/email-prioritizer/internal/core"
	"github.com/mikey/email-prioritizer/internal/ports"
	"go.uber.org/zap"
)

// FilterFactory creates email filters based on configuration
type FilterFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.PriorityService
	metrics core.MetricsRecorder
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, service *core.PriorityService, metrics core.MetricsRecorder) *FilterFactory {
	return &FilterFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
		metrics: metrics,
	}
}

// CreateEmailFilter creates an email filter based on the configuration
func (f *FilterFactory) CreateEmailFilter() (ports.EmailFilter, error) {
	filterType := f.cfg.GetString("server.filter_type")
	headers := filter.HeaderNames{
		Score:    f.cfg.GetString("server.headers.score"),
		Level:    f.cfg.GetString("server.headers.level"),
		Intent:   f.cfg.GetString("server.headers.intent"),
		Keywords: f.cfg.GetString("server.headers.keywords"),
	}

	switch filterType {
	case "postfix":
		return filter.NewPostfixFilter(
			f.service,
			f.logger,
			f.cfg.GetString("server.listen_address"),
			f.cfg.GetBool("server.discard_spam"),
			headers,
			f.cfg.GetString("server.postfix.address"),
			f.cfg.GetInt("server.postfix.port"),
			f.cfg.GetBool("server.postfix.enabled"),
			f.cfg.GetString("server.urgent_prefix"),
			f.cfg.GetBool("server.tag_urgent"),
			f.metrics,
		), nil
	case "milter":
		return filter.NewMilterFilter(
			f.service,
			f.logger,
			f.cfg.GetString("server.listen_address"),
			f.cfg.GetBool("server.discard_spam"),
			headers,
			f.metrics,
		), nil
	case "cli":
		return filter.NewCliFilter(
			f.service,
			f.logger,
			f.cfg.GetBool("cli.verbose"),
		)
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}
