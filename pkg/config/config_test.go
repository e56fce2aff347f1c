package config

import "testing"

func TestProxyConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ProxyConfig
		wantErr bool
	}{
		{
			name: "valid ttl",
			cfg: ProxyConfig{
				Port: 9001, OriginPort: 8000, CacheType: "ttl", TTLSeconds: 30,
			},
			wantErr: false,
		},
		{
			name: "valid lru",
			cfg: ProxyConfig{
				Port: 9001, OriginPort: 8000, CacheType: "lru", LRUCapacity: 100,
			},
			wantErr: false,
		},
		{
			name: "port too low",
			cfg: ProxyConfig{
				Port: 1024, OriginPort: 8000, CacheType: "ttl", TTLSeconds: 30,
			},
			wantErr: true,
		},
		{
			name: "origin port too low",
			cfg: ProxyConfig{
				Port: 9001, OriginPort: 1024, CacheType: "ttl", TTLSeconds: 30,
			},
			wantErr: true,
		},
		{
			name: "port equals origin port",
			cfg: ProxyConfig{
				Port: 9001, OriginPort: 9001, CacheType: "ttl", TTLSeconds: 30,
			},
			wantErr: true,
		},
		{
			name: "unknown cache type",
			cfg: ProxyConfig{
				Port: 9001, OriginPort: 8000, CacheType: "fifo",
			},
			wantErr: true,
		},
		{
			name: "lru without capacity",
			cfg: ProxyConfig{
				Port: 9001, OriginPort: 8000, CacheType: "lru", LRUCapacity: 0,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLBConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LBConfig
		wantErr bool
	}{
		{
			name:    "valid round robin",
			cfg:     LBConfig{Strategy: "round_robin", Proxies: []string{"127.0.0.1:9001", "127.0.0.1:9002"}},
			wantErr: false,
		},
		{
			name:    "valid least loaded",
			cfg:     LBConfig{Strategy: "least_loaded", Proxies: []string{"127.0.0.1:9001"}},
			wantErr: false,
		},
		{
			name:    "unknown strategy",
			cfg:     LBConfig{Strategy: "random"},
			wantErr: true,
		},
		{
			name:    "malformed proxy address",
			cfg:     LBConfig{Strategy: "round_robin", Proxies: []string{"not-a-host-port"}},
			wantErr: true,
		},
		{
			name:    "empty proxy list is valid at config time",
			cfg:     LBConfig{Strategy: "round_robin", Proxies: nil},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadProxyConfigDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadProxyConfig("")
	if err != nil {
		t.Fatalf("LoadProxyConfig(\"\") error = %v", err)
	}
	if cfg.Port != 9001 || cfg.OriginPort != 8000 || cfg.CacheType != "ttl" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadLBConfigDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadLBConfig("")
	if err != nil {
		t.Fatalf("LoadLBConfig(\"\") error = %v", err)
	}
	if cfg.Strategy != "round_robin" || cfg.Port != 8000 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}
