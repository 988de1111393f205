package world

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	LoadedChunks int `json:"loaded_chunks"`
	DirtyChunks  int `json:"dirty_chunks"`
	MeshedChunks int `json:"meshed_chunks"`
	Quads        int `json:"quads"`
	Subscribers  int `json:"subscribers"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`
}

type QueueDepths struct {
	Edits     int `json:"edits"`
	Raycasts  int `json:"raycasts"`
	Subscribe int `json:"subscribe"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}

func (w *World) publishMetrics(step time.Duration) {
	w.metrics.Store(WorldMetrics{
		Tick:         w.tick.Load(),
		LoadedChunks: w.chunks.Len(),
		DirtyChunks:  len(w.dirty),
		MeshedChunks: len(w.meshes),
		Quads:        w.totalQuads(),
		Subscribers:  len(w.subscribers),
		QueueDepths: QueueDepths{
			Edits:     len(w.edits),
			Raycasts:  len(w.casts),
			Subscribe: len(w.subscribe),
		},
		StepMS: float64(step.Microseconds()) / 1000,
	})
	w.prom.observeStep(step, w.chunks.Len(), len(w.subscribers))
}

// Collectors are the Prometheus series a world reports. A nil *Collectors
// records nothing.
type Collectors struct {
	Edits         prometheus.Counter
	LightNodes    prometheus.Counter
	MeshRebuilds  prometheus.Counter
	Quads         prometheus.Gauge
	LoadedChunks  prometheus.Gauge
	Subscribers   prometheus.Gauge
	DroppedMeshes prometheus.Counter
	StepSeconds   prometheus.Histogram
}

// NewCollectors creates the world series and registers them with reg. A nil
// reg leaves them unregistered.
func NewCollectors(reg prometheus.Registerer, worldID string) *Collectors {
	labels := prometheus.Labels{"world": worldID}
	c := &Collectors{
		Edits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel", Name: "block_edits_total", ConstLabels: labels,
			Help: "Block edits applied.",
		}),
		LightNodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel", Name: "light_nodes_total", ConstLabels: labels,
			Help: "Light work-list nodes processed.",
		}),
		MeshRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel", Name: "mesh_rebuilds_total", ConstLabels: labels,
			Help: "Chunk meshes rebuilt.",
		}),
		Quads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel", Name: "mesh_quads", ConstLabels: labels,
			Help: "Quads across all cached chunk meshes.",
		}),
		LoadedChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel", Name: "loaded_chunks", ConstLabels: labels,
			Help: "Chunks resident in the world.",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel", Name: "mesh_subscribers", ConstLabels: labels,
			Help: "Connected mesh subscribers.",
		}),
		DroppedMeshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel", Name: "mesh_updates_dropped_total", ConstLabels: labels,
			Help: "Mesh updates dropped because a subscriber fell behind.",
		}),
		StepSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxel", Name: "tick_duration_seconds", ConstLabels: labels,
			Help:    "Time spent in one world tick.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(c.Edits, c.LightNodes, c.MeshRebuilds, c.Quads,
			c.LoadedChunks, c.Subscribers, c.DroppedMeshes, c.StepSeconds)
	}
	return c
}

func (c *Collectors) observeEdit() {
	if c != nil {
		c.Edits.Inc()
	}
}

func (c *Collectors) observeLight(nodes uint64) {
	if c != nil {
		c.LightNodes.Add(float64(nodes))
	}
}

func (c *Collectors) observeMesh(rebuilt, quads int) {
	if c == nil {
		return
	}
	c.MeshRebuilds.Add(float64(rebuilt))
	c.Quads.Set(float64(quads))
}

func (c *Collectors) observeDrop() {
	if c != nil {
		c.DroppedMeshes.Inc()
	}
}

func (c *Collectors) observeStep(d time.Duration, chunks, subs int) {
	if c == nil {
		return
	}
	c.StepSeconds.Observe(d.Seconds())
	c.LoadedChunks.Set(float64(chunks))
	c.Subscribers.Set(float64(subs))
}
