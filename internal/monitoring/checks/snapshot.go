package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/charlesng35/dabifac/internal/monitoring"
	"github.com/charlesng35/dabifac/internal/offline"
)

// StatusSource reports the asset cache manager state.
type StatusSource interface {
	Status(ctx context.Context) (offline.Status, error)
}

// Snapshot reports whether the current asset snapshot controls request handling.
// A manager still serving a previous version, or passing everything through, is degraded.
func Snapshot(source StatusSource) monitoring.Check {
	return monitoring.NewCheck("snapshot", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if source == nil {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDown,
				Details:  "asset cache not configured",
				Duration: time.Since(start),
			}
		}

		status, err := source.Status(ctx)
		if err != nil {
			return monitoring.ResultFromError("snapshot", err, time.Since(start))
		}

		switch {
		case status.Controlling == status.Tag:
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Duration: time.Since(start)}
		case status.Controlling == "":
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDegraded,
				Details:  fmt.Sprintf("%s not activated (state %s)", status.Tag, status.State),
				Duration: time.Since(start),
			}
		default:
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDegraded,
				Details:  fmt.Sprintf("serving %s, %s is %s", status.Controlling, status.Tag, status.State),
				Duration: time.Since(start),
			}
		}
	})
}
