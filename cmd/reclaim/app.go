package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/colorfulnotion/reclaim/accounts"
	"github.com/colorfulnotion/reclaim/log"
	"github.com/colorfulnotion/reclaim/reclaim"
	"github.com/colorfulnotion/reclaim/storage"
	"github.com/colorfulnotion/reclaim/telemetry"
	"github.com/colorfulnotion/reclaim/types"
)

// app is everything a command needs, opened per invocation.
type app struct {
	store     *storage.Store
	module    *reclaim.Module
	registry  *accounts.Registry
	telemetry *telemetry.TelemetryClient
	events    *reclaim.RecordingSink
}

// eventNames lists the events emitted since the app was opened.
func (a *app) eventNames() []string {
	var names []string
	for _, e := range a.events.Events() {
		names = append(names, e.EventName())
	}
	return names
}

func setupLogging(cfg *types.CommandConfig, stderr io.Writer) error {
	var err error
	if cfg.LogJson {
		err = log.InitJSONLogger(stderr, cfg.LogLevel)
	} else {
		err = log.InitTerminalLogger(stderr, cfg.LogLevel)
	}
	if err != nil {
		return err
	}
	log.EnableModules(cfg.LogModules)
	return nil
}

func openApp(ctx context.Context, cfg *types.CommandConfig) (*app, error) {
	policy, err := reclaim.ParseEpochPolicy(cfg.EpochPolicy)
	if err != nil {
		return nil, err
	}

	tc := telemetry.NewNoOpTelemetryClient()
	if cfg.OTLPEndpoint != "" {
		if tc, err = telemetry.NewTelemetryClient(ctx, cfg.OTLPEndpoint); err != nil {
			return nil, err
		}
		tc.SetGlobal()
	}

	store, err := storage.NewStore(cfg.DataDir)
	if err != nil {
		tc.Close(ctx)
		return nil, err
	}
	events := reclaim.NewRecordingSink()
	module := reclaim.NewModule(store,
		reclaim.WithTelemetry(tc),
		reclaim.WithEpochPolicy(policy),
		reclaim.WithEventSink(reclaim.Fanout{reclaim.LogSink{}, events}),
	)
	registry := accounts.NewRegistry(module, store,
		accounts.WithTelemetry(tc),
		accounts.WithEventSink(reclaim.Fanout{reclaim.LogSink{Module: log.AccountsMonitoring}, events}),
	)
	log.Debug(log.CLIMonitoring, "opened app", "datadir", cfg.DataDir, "policy", policy)
	return &app{store: store, module: module, registry: registry, telemetry: tc, events: events}, nil
}

func (a *app) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.telemetry.Close(ctx); err != nil {
		log.Warn(log.CLIMonitoring, "telemetry shutdown", "err", err)
	}
	return a.store.Close()
}

func writeJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func readJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
