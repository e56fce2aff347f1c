// Command proxynode runs a single cache proxy node: it loads configuration,
// binds its listener, and serves connections until the process is killed or
// a fatal I/O error occurs.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"cachefleet/pkg/config"
	"cachefleet/pkg/logging"
	"cachefleet/proxy"
)

func main() {
	configPath := flag.String("config", "", "path to a proxy YAML config file (optional)")
	flag.Parse()

	log := logging.New("proxynode")

	cfg, err := config.LoadProxyConfig(*configPath)
	if err != nil {
		log.Fatal("config_error", logging.F("err", err.Error()))
	}

	if err := config.WatchLogLevel(*configPath, func(l config.ReloadableLevel) {
		log.Info("log_level_reloaded", logging.F("level", l.LogLevel))
	}); err != nil {
		log.Warn("config_watch_error", logging.F("err", err.Error()))
	}

	printStartupBanner(cfg)

	node := proxy.New(cfg)
	if err := node.ListenAndServe(); err != nil {
		log.Fatal("serve_error", logging.F("err", err.Error()))
	}
}

func printStartupBanner(cfg config.ProxyConfig) {
	banner, err := json.Marshal(map[string]interface{}{
		"component":  "proxynode",
		"addr":       fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		"cache_type": cfg.CacheType,
		"origin":     fmt.Sprintf("%s:%d", cfg.OriginHost, cfg.OriginPort),
		"warmer":     cfg.WarmerEnabled,
	})
	if err != nil {
		return
	}
	fmt.Fprintln(os.Stdout, string(banner))
}
