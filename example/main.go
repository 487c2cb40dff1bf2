// FILE: lixenwraith/presets/example/main.go
package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/lixenwraith/presets"
)

// BabelOptions is a Go-authored preset contribution, registered as a struct
type BabelOptions struct {
	Compact bool     `preset:"compact"`
	Plugins []string `preset:"plugins"`
}

// DevServer is decoded from the folded devServer extension point
type DevServer struct {
	Port    int           `preset:"port"`
	Host    string        `preset:"host"`
	Timeout time.Duration `preset:"timeout"`
}

func main() {
	ctx := context.Background()

	// =========================================================================
	// PART 1: A config directory with a main config file
	// =========================================================================
	configDir, err := os.MkdirTemp("", "presets-example-")
	if err != nil {
		log.Fatalf("❌ Failed to create config dir: %v", err)
	}
	defer os.RemoveAll(configDir)

	mainConfig := map[string]any{
		"devServer": map[string]any{"port": 6006, "timeout": "30s"},
		"babel":     map[string]any{"plugins": []any{"main-plugin"}},
	}
	mainPath := filepath.Join(configDir, "main.yaml")
	if err := presets.WriteFile(mainPath, mainConfig, ""); err != nil {
		log.Fatalf("❌ Failed to write main config: %v", err)
	}
	log.Printf("✅ Main config saved to %s", mainPath)

	// =========================================================================
	// PART 2: Go-registered presets
	// =========================================================================
	registry := presets.NewRegistry()
	if err := registry.RegisterStruct("core-babel", &BabelOptions{Compact: true, Plugins: []string{"core-plugin"}}); err != nil {
		log.Fatalf("❌ Failed to register struct preset: %v", err)
	}
	if err := registry.Register("core-dev-server", map[string]any{
		"devServer": map[string]any{"host": "localhost", "port": 8080},
	}); err != nil {
		log.Fatalf("❌ Failed to register preset: %v", err)
	}
	if err := registry.Register("override-webpack", map[string]any{
		"webpackFinal": presets.ExtensionFunc(func(ctx context.Context, acc any, x *presets.ExtensionContext) (any, error) {
			cfg, _ := acc.(map[string]any)
			if cfg == nil {
				cfg = make(map[string]any)
			}
			mode, _ := x.String("mode")
			cfg["mode"] = mode
			return cfg, nil
		}),
	}); err != nil {
		log.Fatalf("❌ Failed to register preset: %v", err)
	}

	// =========================================================================
	// PART 3: Build and apply
	// =========================================================================
	p, err := presets.NewBuilder().
		WithConfigDir(configDir).
		WithRegistry(registry).
		WithCorePresets("core-dev-server", presets.Named("core-babel")).
		WithOverridePresets("override-webpack").
		WithHostValue("mode", "development").
		WithValidator(func(p *presets.Presets) error {
			if p.Len() == 0 {
				return os.ErrNotExist
			}
			return nil
		}).
		Build(ctx)
	if err != nil {
		log.Fatalf("❌ Failed to build presets: %v", err)
	}

	for i, loaded := range p.List() {
		log.Printf("   %d: %s", i, loaded.Name)
	}

	var server DevServer
	if err := p.ApplyInto(ctx, "devServer", map[string]any{}, nil, &server); err != nil {
		log.Fatalf("❌ Failed to apply devServer: %v", err)
	}
	log.Printf("✅ devServer: host=%s port=%d timeout=%s", server.Host, server.Port, server.Timeout)

	babel, err := p.Apply(ctx, "babel", map[string]any{}, nil)
	if err != nil {
		log.Fatalf("❌ Failed to apply babel: %v", err)
	}
	log.Printf("✅ babel: %v", babel)

	webpack, err := p.Apply(ctx, "webpackFinal", map[string]any{"entry": "./src"}, nil)
	if err != nil {
		log.Fatalf("❌ Failed to apply webpackFinal: %v", err)
	}
	log.Printf("✅ webpackFinal: %v", webpack)

	// =========================================================================
	// PART 4: Watch the main config
	// =========================================================================
	w, err := presets.Watch(ctx, presets.NewBuilder().WithConfigDir(configDir), presets.WatchOptions{
		PollInterval: 100 * time.Millisecond,
		Debounce:     50 * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("❌ Failed to watch: %v", err)
	}
	defer w.Stop()
	reloads := w.Subscribe()

	mainConfig["devServer"] = map[string]any{"port": 9009}
	time.Sleep(50 * time.Millisecond)
	if err := presets.WriteFile(mainPath, mainConfig, ""); err != nil {
		log.Fatalf("❌ Failed to update main config: %v", err)
	}

	select {
	case r := <-reloads:
		if r.Err != nil {
			log.Fatalf("❌ Reload failed: %v", r.Err)
		}
		devServer, _ := r.Presets.Apply(ctx, "devServer", map[string]any{}, nil)
		log.Printf("✅ Reloaded devServer: %v", devServer)
	case <-time.After(2 * time.Second):
		log.Println("⚠️  No reload observed")
	}
}
