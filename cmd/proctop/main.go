package main

import (
	"log/slog"
	"os"

	"github.com/Dicklesworthstone/proctop/internal/config"
	"github.com/Dicklesworthstone/proctop/internal/ui"
)

func main() {
	cfg := config.FromFlags(os.Args[1:])
	if err := ui.RunTUI(cfg); err != nil {
		slog.Error("proctop exited", "err", err)
		os.Exit(1)
	}
}
