// Command loadbalancer runs the fleet's entry point: it loads the
// immutable proxy list and strategy, binds its listener, and serves
// connections and the background metrics poller until the process is
// killed or a fatal I/O error occurs.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"cachefleet/loadbalancer"
	"cachefleet/pkg/config"
	"cachefleet/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a load-balancer YAML config file (optional)")
	flag.Parse()

	log := logging.New("loadbalancer")

	cfg, err := config.LoadLBConfig(*configPath)
	if err != nil {
		log.Fatal("config_error", logging.F("err", err.Error()))
	}

	if err := config.WatchLogLevel(*configPath, func(l config.ReloadableLevel) {
		log.Info("log_level_reloaded", logging.F("level", l.LogLevel))
	}); err != nil {
		log.Warn("config_watch_error", logging.F("err", err.Error()))
	}

	printStartupBanner(cfg)

	b := loadbalancer.New(cfg)
	if err := b.ListenAndServe(); err != nil {
		log.Fatal("serve_error", logging.F("err", err.Error()))
	}
}

func printStartupBanner(cfg config.LBConfig) {
	banner, err := json.Marshal(map[string]interface{}{
		"component": "loadbalancer",
		"addr":      fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		"strategy":  cfg.Strategy,
		"proxies":   cfg.Proxies,
	})
	if err != nil {
		return
	}
	fmt.Fprintln(os.Stdout, string(banner))
}
