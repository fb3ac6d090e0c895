package factory

import (
	"testing"

	"github.com/mikey/email-prioritizer/internal/adapters/filter"
	"github.com/mikey/email-prioritizer/internal/config"
	"github.com/mikey/email-prioritizer/internal/core"
	"github.com/mikey/email-prioritizer/internal/metrics"
	"go.uber.org/zap"
)

func newFactoryTestService(logger *zap.Logger) *core.PriorityService {
	urgency := core.NewUrgencyExtractor()
	signals := core.NewSignalGatherer(nil, nil, nil, logger)
	scorer := core.NewPriorityScorer(urgency, signals, nil, nil, nil, false, logger)
	return core.NewPriorityService(scorer, nil, nil, nil, nil, logger, false)
}

func TestCreateEmailFilter(t *testing.T) {
	logger := zap.NewNop()
	service := newFactoryTestService(logger)

	tests := []struct {
		filterType string
		wantType   string
		wantErr    bool
	}{
		{filterType: "postfix", wantType: "*filter.PostfixFilter"},
		{filterType: "milter", wantType: "*filter.MilterFilter"},
		{filterType: "cli", wantType: "*filter.CliFilter"},
		{filterType: "carrier-pigeon", wantErr: true},
		{filterType: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.filterType, func(t *testing.T) {
			v := config.NewEmptyViper()
			v.Set("server.filter_type", tt.filterType)
			v.Set("server.listen_address", "127.0.0.1:0")
			cfg := config.NewFromViper(v)

			f := NewFilterFactory(cfg, logger, service, metrics.NewCollector())

			emailFilter, err := f.CreateEmailFilter()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error for filter type %q", tt.filterType)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateEmailFilter failed: %v", err)
			}

			var gotType string
			switch emailFilter.(type) {
			case *filter.PostfixFilter:
				gotType = "*filter.PostfixFilter"
			case *filter.MilterFilter:
				gotType = "*filter.MilterFilter"
			case *filter.CliFilter:
				gotType = "*filter.CliFilter"
			default:
				gotType = "unknown"
			}
			if gotType != tt.wantType {
				t.Errorf("filter type %q built %s, want %s", tt.filterType, gotType, tt.wantType)
			}
		})
	}
}
