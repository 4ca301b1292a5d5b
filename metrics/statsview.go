package metrics

import (
	"log"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const statsViewPath = "/debug/statsview"

// LaunchStatsView starts the runtime stats viewer (goroutines, heap, GC
// pauses) on addr in a new goroutine. The returned function stops it.
func LaunchStatsView(addr string) (stop func()) {
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go func() {
		if err := mgr.Start(); err != nil {
			log.Printf("statsview: %v", err)
		}
	}()
	log.Printf("Stats server available at http://%s%s", addr, statsViewPath)
	return mgr.Stop
}
