// Package main loads a scene, binds it against a scratch DB and prints the
// result. It is the quickest way to see whether a scene file is valid.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ufo/behaviours"
	"github.com/pthm-cable/ufo/config"
	"github.com/pthm-cable/ufo/scene"
	"github.com/pthm-cable/ufo/steering"
	"github.com/pthm-cable/ufo/systems"
)

func main() {
	configPath := flag.String("config", "", "Config YAML file (empty = use defaults)")
	toYAML := flag.Bool("yaml", false, "Print the scene in YAML form instead of binding it")
	showDoc := flag.Bool("doc", false, "Print the unbound element tree before binding")
	listTypes := flag.Bool("types", false, "List the registered type names and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] scene-file\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Derived.LogLevel})))

	reg := steering.NewRegistry()
	behaviours.Register(reg)
	store := systems.NewAgentStore(ecs.NewWorld())
	systems.RegisterSteerables(reg, store, cfg.Steering.EntityVMax)

	if *listTypes {
		fmt.Print(reg.Names())
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	doc, err := scene.Load(path)
	if err != nil {
		log.Fatalf("failed to read scene: %v", err)
	}

	if *toYAML {
		if err := scene.WriteYAML(os.Stdout, doc); err != nil {
			log.Fatalf("failed to write YAML: %v", err)
		}
		return
	}
	if *showDoc {
		doc.Describe(os.Stdout)
		fmt.Println()
	}

	db := steering.NewDB()
	env := &steering.Env{DB: db, Rand: rand.New(rand.NewSource(cfg.Simulation.Seed))}
	res, err := scene.Bind(doc, reg, env)
	if err != nil {
		log.Fatalf("failed to bind %s: %v", path, err)
	}
	defer db.Reset()

	db.Describe(os.Stdout)
	fmt.Printf("\n%s: %d flocks, %d independent pilots, %d pilots total\n",
		path, len(res.Flocks), len(res.Pilots), db.PilotCount())
}
