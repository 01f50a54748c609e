// Command inputcore is the process entrypoint: load config, open the
// variable store, compile a preset per logical device, and run one
// Injector per device until a signal or the panic codeword asks it to
// stop. Grounded on the teacher's main.go shape (flag parsing, a
// startup banner, signal handling) generalized from a systray+webview
// desktop app to a headless service, since GUI is out of scope.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/victortrac/inputcore/internal/compiler"
	"github.com/victortrac/inputcore/internal/config"
	icontext "github.com/victortrac/inputcore/internal/context"
	"github.com/victortrac/inputcore/internal/evdevio"
	"github.com/victortrac/inputcore/internal/injector"
	"github.com/victortrac/inputcore/internal/keyboardlayout"
	"github.com/victortrac/inputcore/internal/mapping"
	"github.com/victortrac/inputcore/internal/panicwatch"
	"github.com/victortrac/inputcore/internal/server"
	"github.com/victortrac/inputcore/internal/variablestore"
)

var configPath = flag.String("config", config.DefaultPath, "path to the TOML bootstrap config")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inputcore: %v\n", err)
		os.Exit(1)
	}

	log.Printf("inputcore starting: config=%s devices=%d log_level=%s", *configPath, len(cfg.Devices), cfg.LogLevel)

	store, err := variablestore.Open(cfg.VariableStore.Path)
	if err != nil {
		log.Printf("opening variable store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	layout := keyboardlayout.New()

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sig
		log.Printf("received signal %s, shutting down", s)
		cancel()
	}()

	watcher, err := panicwatch.New(layout)
	if err != nil {
		log.Printf("panic codeword watchdog disabled: %v", err)
		watcher = nil
	} else {
		watcher.Shutdown = cancel
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(rootCtx, cfg.Metrics.ListenAddr); err != nil {
			log.Printf("metrics server exited: %v", err)
		}
	}()

	devices, err := buildDevices(cfg, layout, store, watcher)
	if err != nil {
		log.Printf("building devices: %v", err)
		cancel()
		wg.Wait()
		os.Exit(1)
	}

	retry := injector.RetryPolicy{MaxAttempts: cfg.Retry.MaxAttempts, BaseDelay: cfg.Retry.BaseDelay()}
	inj := injector.New(devices, retry)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := inj.Run(rootCtx); err != nil {
			log.Printf("injector exited: %v", err)
			cancel()
		}
	}()

	wg.Wait()
	log.Printf("inputcore stopped")
}

// buildDevices turns each configured device into an injector.Device,
// wiring its preset compile step to run once its primary devnode is
// grabbed (spec §4.3: compiling needs real absinfo, which only exists
// once the device is open).
func buildDevices(cfg *config.Config, layout *keyboardlayout.Layout, store *variablestore.Store, watcher *panicwatch.Watcher) ([]injector.Device, error) {
	out := make([]injector.Device, 0, len(cfg.Devices))

	for _, d := range cfg.Devices {
		if len(d.Devnodes) == 0 {
			return nil, fmt.Errorf("device %q: no devnodes configured", d.Name)
		}

		data, err := os.ReadFile(d.PresetPath)
		if err != nil {
			return nil, fmt.Errorf("device %q: reading preset %s: %w", d.Name, d.PresetPath, err)
		}
		preset, err := mapping.DecodePreset(data, layout)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", d.Name, err)
		}

		ctx := icontext.New()
		if watcher != nil {
			ctx.AddListener(watcher.Track)
		}

		out = append(out, injector.Device{
			Name:  d.Name,
			Paths: d.Devnodes,
			Ctx:   ctx,
			OnFirstGrab: func(primary *evdevio.SourceDevice) error {
				return compilePreset(preset, primary, layout, store, ctx)
			},
		})
	}

	return out, nil
}

func compilePreset(preset *mapping.Preset, primary *evdevio.SourceDevice, layout *keyboardlayout.Layout, store *variablestore.Store, ctx *icontext.Context) error {
	registry := evdevio.NewRegistry()
	sinks := make(compiler.Sinks)

	for name, caps := range compiler.RequiredCapabilities(preset, primary) {
		sink, err := registry.Register(string(name), caps)
		if err != nil {
			return fmt.Errorf("registering sink %q: %w", name, err)
		}
		sinks[name] = sink
	}

	deps := compiler.Deps{Layout: layout, Source: primary, Store: store, Ctx: ctx}
	return compiler.Compile(preset, sinks, deps)
}
