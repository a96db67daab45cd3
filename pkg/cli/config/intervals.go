package config

import (
	"log/slog"
	"time"

	"github.com/dicloak-labs/dicloak-console/pkg/service/dicloak"
	"github.com/urfave/cli/v3"
)

// Intervals holds the orchestration wait configuration. The defaults model
// DICloak's eventual-consistency windows; lowering them is mainly useful
// against test doubles.
type Intervals struct {
	PageFetch      time.Duration
	PageRetry      time.Duration
	WriteVerify    time.Duration
	AllGroupSwitch time.Duration
}

// Flags returns CLI flags for Intervals configuration
func (i *Intervals) Flags() []cli.Flag {
	defaults := dicloak.DefaultIntervals()
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        "page-fetch-interval",
			Usage:       "Pause between pagination pages",
			Category:    "Intervals",
			Value:       defaults.PageFetch,
			Sources:     cli.EnvVars("DICLOAK_PAGE_FETCH_INTERVAL"),
			Destination: &i.PageFetch,
		},
		&cli.DurationFlag{
			Name:        "page-retry-wait",
			Usage:       "Wait before retrying a failed early page",
			Category:    "Intervals",
			Value:       defaults.PageRetry,
			Sources:     cli.EnvVars("DICLOAK_PAGE_RETRY_WAIT"),
			Destination: &i.PageRetry,
		},
		&cli.DurationFlag{
			Name:        "write-verify-wait",
			Usage:       "Settling window between a write and its verification read",
			Category:    "Intervals",
			Value:       defaults.WriteVerify,
			Sources:     cli.EnvVars("DICLOAK_WRITE_VERIFY_WAIT"),
			Destination: &i.WriteVerify,
		},
		&cli.DurationFlag{
			Name:        "all-group-switch-wait",
			Usage:       "Settling window after entering the all-groups state",
			Category:    "Intervals",
			Value:       defaults.AllGroupSwitch,
			Sources:     cli.EnvVars("DICLOAK_ALL_GROUP_SWITCH_WAIT"),
			Destination: &i.AllGroupSwitch,
		},
	}
}

// Configure converts the configuration into client intervals
func (i *Intervals) Configure() dicloak.Intervals {
	return dicloak.Intervals{
		PageFetch:      i.PageFetch,
		PageRetry:      i.PageRetry,
		WriteVerify:    i.WriteVerify,
		AllGroupSwitch: i.AllGroupSwitch,
	}
}

// LogValue returns structured log value
func (i Intervals) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("page_fetch", i.PageFetch),
		slog.Duration("page_retry", i.PageRetry),
		slog.Duration("write_verify", i.WriteVerify),
		slog.Duration("all_group_switch", i.AllGroupSwitch),
	)
}
