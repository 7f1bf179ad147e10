package config

import (
	"flag"
	"os"
	"time"
)

// Config carries runtime options for proctop.
type Config struct {
	Interval time.Duration
	Threads  bool
	Sort     string
}

func Default() Config {
	return Config{
		Interval: 1500 * time.Millisecond,
		Threads:  false,
		Sort:     "cpu",
	}
}

// FromFlags parses flags and environment overrides.
func FromFlags(args []string) Config {
	cfg := Default()
	fs := flag.NewFlagSet("proctop", flag.ContinueOnError)
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "refresh interval")
	fs.BoolVar(&cfg.Threads, "threads", cfg.Threads, "start with per-thread rows")
	fs.StringVar(&cfg.Sort, "sort", cfg.Sort, "sort column: cpu|mem|pid")
	_ = fs.Parse(args)

	if v := os.Getenv("PROCTOP_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Interval = parsed
		} else if parsed, err2 := time.ParseDuration(v + "s"); err2 == nil {
			cfg.Interval = parsed
		}
	}
	if v := os.Getenv("PROCTOP_THREADS"); v == "1" {
		cfg.Threads = true
	}
	if v := os.Getenv("PROCTOP_SORT"); v != "" {
		cfg.Sort = v
	}
	if cfg.Interval <= 0 {
		cfg.Interval = Default().Interval
	}
	return cfg
}
