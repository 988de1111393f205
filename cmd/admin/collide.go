package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcore.dev/internal/persistence/snapshot"
	"voxelcore.dev/internal/sim/tuning"
	"voxelcore.dev/internal/sim/world/physics"
)

type fallResult struct {
	Steps    int
	Position mgl32.Vec3
	OnGround bool
}

func newBody(p tuning.Player, pos mgl32.Vec3) *physics.Body {
	return &physics.Body{
		Position:     pos,
		HalfWidth:    p.HalfWidth,
		Height:       p.Height,
		Gravity:      p.Gravity,
		JumpVelocity: p.JumpVelocity,
	}
}

// simulate steps b at hz for the given number of seconds and stops early once
// the body has rested on the ground for a full second.
func simulate(q physics.Blocks, b *physics.Body, hz int, seconds float64, jump bool) fallResult {
	dt := float32(1) / float32(hz)
	total := int(seconds * float64(hz))
	grounded := 0
	steps := 0
	for steps < total {
		b.Step(q, dt, jump && steps == 0)
		steps++
		if b.OnGround {
			grounded++
			if grounded >= hz {
				break
			}
		} else {
			grounded = 0
		}
	}
	return fallResult{Steps: steps, Position: b.Position, OnGround: b.OnGround}
}

func collideCmd(args []string) {
	fs := flag.NewFlagSet("collide", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	configDir := fs.String("configs", "./configs", "config directory")
	tuningPath := fs.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
	worldID := fs.String("world", "", "world id")
	snapPath := fs.String("snapshot", "", "snapshot path (optional; defaults to latest)")
	from := fs.String("from", "", "top centre of the player box x,y,z (required)")
	seconds := fs.Float64("seconds", 5, "max simulated time")
	jump := fs.Bool("jump", false, "jump on the first step")
	_ = fs.Parse(args)

	start, err := parseVec3f(*from)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad -from:", err)
		os.Exit(2)
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tune = tuning.Defaults()
	}
	path, err := resolveSnapshot(*dataDir, *worldID, *snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	w, err := loadWorld(*configDir, snap)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load world:", err)
		os.Exit(1)
	}

	pos := mgl32.Vec3{float32(start[0]), float32(start[1]), float32(start[2])}
	b := newBody(tune.Player, pos)
	if physics.Collides(w.Chunks(), b.Box()) {
		fmt.Fprintln(os.Stderr, "start position is inside a block")
		os.Exit(1)
	}
	res := simulate(w.Chunks(), b, tune.PhysicsHz, *seconds, *jump)
	fmt.Printf("steps=%d position=(%.3f,%.3f,%.3f) on_ground=%v\n",
		res.Steps, res.Position[0], res.Position[1], res.Position[2], res.OnGround)
}
