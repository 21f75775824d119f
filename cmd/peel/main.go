// Command peel renders a grid of cubes with two-layer depth peeling over a skybox.
//
// Usage:
//
//	peel [-config file.toml] [-dry-run]
//
// WASD and the arrow keys move, space and left shift rise and sink, and dragging with the left
// mouse button looks around. Escape quits.
package main

import (
	"flag"
	"log"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/oxy-peel/config"
)

func init() {
	// GLFW and the surface must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "TOML file overriding the built-in defaults")
	dryRunFlag := flag.Bool("dry-run", false, "record a few frames without a window or GPU and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("[Peel] %v", err)
		os.Exit(1)
	}

	if *dryRunFlag {
		if _, err := dryRun(cfg); err != nil {
			log.Printf("[Peel] dry run failed: %v", err)
			os.Exit(1)
		}
		return
	}
	if err := run(cfg); err != nil {
		log.Printf("[Peel] %v", err)
		os.Exit(1)
	}
}
