// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/wingedpig/sessioncore/internal/bridge"
	"github.com/wingedpig/sessioncore/internal/config"
	"github.com/wingedpig/sessioncore/internal/events"
	"github.com/wingedpig/sessioncore/internal/ingest"
	"github.com/wingedpig/sessioncore/internal/session"
	"github.com/wingedpig/sessioncore/internal/watcher"
)

var version = "0.1"

func main() {
	var (
		configPath  string
		host        string
		port        int
		showVersion bool
		debug       bool
	)

	flag.StringVar(&configPath, "config", "", "Path to config file (default: auto-detect)")
	flag.StringVar(&configPath, "c", "", "Path to config file (short)")
	flag.StringVar(&host, "host", "", "Bridge HTTP host (overrides config)")
	flag.IntVar(&port, "port", 0, "Bridge HTTP port (overrides config)")
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.BoolVar(&showVersion, "v", false, "Show version (short)")
	flag.BoolVar(&debug, "debug", false, "Enable debug mode")
	flag.Parse()

	if showVersion {
		fmt.Printf("sessioncore %s\n", version)
		os.Exit(0)
	}

	loader := config.NewLoader()
	if configPath == "" {
		found, err := loader.FindConfig()
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		configPath = found
	}

	log.Printf("Using config: %s", configPath)

	cfg, err := loader.LoadWithDefaults(context.Background(), configPath)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	if host != "" {
		cfg.Bridge.Host = host
	}
	if port != 0 {
		cfg.Bridge.Port = port
	}
	if debug {
		cfg.Session.Debug = true
	}

	v := config.NewValidator()
	if err := v.Validate(cfg); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	if err := os.MkdirAll(cfg.Session.StreamsDir, 0755); err != nil {
		log.Fatalf("Error: creating streams dir: %v", err)
	}

	bus := events.NewMemoryEventBus(events.MemoryBusConfig{
		HistoryMaxEvents: cfg.Events.History.MaxEvents,
		HistoryMaxAge:    config.ParseDuration(cfg.Events.History.MaxAge, 0),
	})
	defer bus.Close()

	sess := session.New(cfg.Session, bus, "")
	bus.SetDefaultSession(sess.ID())

	if err := sess.SetSessionFile(session.ToBeCreated{}); err != nil {
		log.Fatalf("Error: assigning session file: %v", err)
	}
	path, _ := sess.GetSessionFile()
	log.Printf("Session file: %s", path)

	fw, err := watcher.NewSessionFileWatcher(bus, config.ParseDuration(cfg.Session.FlushDebounce, 0))
	if err != nil {
		log.Fatalf("Error: starting session file watcher: %v", err)
	}
	defer fw.Close()
	if err := fw.Watch(path, func() {
		if _, err := sess.UpdateSession(); err != nil {
			log.Printf("watcher: update session: %v", err)
		}
	}); err != nil {
		log.Printf("watcher: watch %s: %v", path, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, srcCfg := range cfg.Ingest {
		srcCfg := srcCfg
		src, err := ingest.New(srcCfg)
		if err != nil {
			log.Printf("ingest %s: %v", srcCfg.Name, err)
			continue
		}
		go func() {
			err := ingest.Pump(ctx, src, func(line string) error {
				_, err := sess.WriteSessionFile(line)
				return err
			}, sess.FileRead)
			if err != nil && ctx.Err() == nil {
				log.Printf("ingest %s: %v", src.Name(), err)
			}
		}()
	}

	srv := bridge.New(sess, bus)
	log.Fatal(srv.ListenAndServe(cfg.Bridge))
}
