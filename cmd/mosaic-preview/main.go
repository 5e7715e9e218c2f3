// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// mosaic-preview renders a grid of instances of the built-in sample model
// with the CPU reference kernels and writes the result to a PNG. It exercises
// the full frame planning path, including capacity growth, without needing a
// GPU.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
	"honnef.co/go/mosaic/engine/wgpu_engine/shaders/cpu"
	"honnef.co/go/mosaic/mem"
	"honnef.co/go/mosaic/mmath"
	"honnef.co/go/mosaic/model"
	"honnef.co/go/mosaic/renderer"
)

type config struct {
	Width   uint32     `toml:"width"`
	Height  uint32     `toml:"height"`
	Verbose bool       `toml:"verbose"`
	Base    [4]float32 `toml:"base"`

	Camera struct {
		X     float32 `toml:"x"`
		Y     float32 `toml:"y"`
		Scale float32 `toml:"scale"`
	} `toml:"camera"`

	Grid struct {
		Columns int     `toml:"columns"`
		Rows    int     `toml:"rows"`
		Spacing float32 `toml:"spacing"`
	} `toml:"grid"`
}

func defaultConfig() config {
	var cfg config
	cfg.Width = 1024
	cfg.Height = 768
	cfg.Base = [4]float32{0.1, 0.1, 0.1, 1}
	cfg.Camera.Scale = 0.15
	cfg.Grid.Columns = 8
	cfg.Grid.Rows = 6
	cfg.Grid.Spacing = 2.5
	return cfg
}

func main() {
	configPath := flag.String("config", "", "path to TOML configuration")
	outPath := flag.String("o", "preview.png", "output PNG path")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "mosaic-preview",
	})

	cfg := defaultConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			logger.Fatal("cannot read configuration", "err", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			logger.Fatal("cannot parse configuration", "err", err)
		}
	}
	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if err := run(logger, cfg, *outPath); err != nil {
		logger.Fatal("preview failed", "err", err)
	}
}

func run(logger *log.Logger, cfg config, outPath string) error {
	m := model.Sample()
	if err := model.Validate(m); err != nil {
		return err
	}
	infos := model.DeriveFrameInfos(m)

	// Lay the instances out on a grid, centered on the origin, with a slight
	// size falloff towards the edges.
	var instances []renderer.Instance
	cols, rows := cfg.Grid.Columns, cfg.Grid.Rows
	for row := range rows {
		for col := range cols {
			x := (float32(col) - float32(cols-1)/2) * cfg.Grid.Spacing
			y := (float32(row) - float32(rows-1)/2) * cfg.Grid.Spacing
			s := 1 - 0.4*(abs32(x)+abs32(y))/(float32(cols+rows)*cfg.Grid.Spacing/2)
			tf := mmath.Translate(x, y).Mul(mmath.Scale(s, s))
			instances = append(instances, renderer.Instance{WorldTF: tf, Frame: 0})
		}
	}
	logger.Info("planned scene", "instances", len(instances), "frames", len(infos))

	vp := renderer.Viewport{Width: cfg.Width, Height: cfg.Height}
	camera := renderer.Camera{
		Position: [2]float32{cfg.Camera.X, cfg.Camera.Y},
		Scale:    cfg.Camera.Scale,
	}
	uniforms := renderer.NewUniforms(vp, camera.WorldClip(vp))

	// Run the planning path the way the GPU engine would see it, to surface
	// the growth chain in the log.
	arena := mem.NewArena()
	caps := renderer.NewCapacities()
	recording := renderer.RenderFrame(arena, instances, infos, uniforms, &caps)
	for _, cmd := range recording.Commands {
		if grow, ok := cmd.(*renderer.Grow); ok {
			logger.Debug("grew buffer",
				"slot", renderer.Lookup(grow.Slot).Name,
				"capacity", grow.Capacity)
		}
	}
	logger.Info("planned frame", "commands", len(recording.Commands))

	descriptors, demands := renderer.BuildInstances(arena, instances, infos)
	expanded := make([]renderer.ExpandedSegment, demands.Segments)
	shardVertices := make([]renderer.ShardVertex, demands.ShardVertices)
	cpu.Expand(m, descriptors, expanded, shardVertices)

	img := image.NewRGBA(image.Rect(0, 0, int(cfg.Width), int(cfg.Height)))
	fill(img, cfg.Base)
	cpu.Rasterize(m, descriptors, expanded, shardVertices, uniforms, img)

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("wrote preview", "path", outPath,
		"segments", demands.Segments, "vertices", demands.ShardVertices)
	return nil
}

func fill(img *image.RGBA, base [4]float32) {
	c := color.RGBA{
		R: uint8(min(max(base[0], 0), 1) * 255),
		G: uint8(min(max(base[1], 0), 1) * 255),
		B: uint8(min(max(base[2], 0), 1) * 255),
		A: uint8(min(max(base[3], 0), 1) * 255),
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
