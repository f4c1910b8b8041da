package main

import "time"

// Config defines the server-side environment variables. BADGER_FILEPATH
// is optional: without it the relay runs memory-only.
type Config struct {
	Host            string        `env:"HOST,default=localhost"`
	Port            int           `env:"PORT,default=8080"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH"`
	GatewayTimeout  time.Duration `env:"GATEWAY_TIMEOUT,default=2s"`
	SinkTimeout     time.Duration `env:"SINK_TIMEOUT,default=1s"`
	SendBufferSize  int           `env:"SEND_BUFFER_SIZE,default=256"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	StatsInterval   time.Duration `env:"STATS_INTERVAL,default=30s"`
	GCInterval      time.Duration `env:"GC_INTERVAL,default=5m"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS,default=*"`
}
