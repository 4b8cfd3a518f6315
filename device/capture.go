package device

import (
	"context"
	"encoding/binary"
	"log/slog"
	"math"
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/gen2brain/malgo"
	"github.com/jsphweid/chordlab/constants"
	"github.com/jsphweid/chordlab/input"
	"github.com/jsphweid/chordlab/util"
)

// Ring is a fixed-size buffer of the most recent samples. Writes overwrite
// the oldest samples; Read copies out the newest.
type Ring struct {
	mu      sync.Mutex
	samples []float32
	next    int
	filled  int
}

func NewRing(size int) *Ring {
	size = util.Max(size, 1)
	return &Ring{samples: make([]float32, size)}
}

func (r *Ring) Write(samples []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range samples {
		r.samples[r.next] = s
		r.next = (r.next + 1) % len(r.samples)
	}
	r.filled = util.Min(r.filled+len(samples), len(r.samples))
}

// Read copies up to len(buf) of the newest samples, oldest first, and
// returns how many it copied.
func (r *Ring) Read(buf []float32) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := util.Min(len(buf), r.filled)
	start := (r.next - n + len(r.samples)) % len(r.samples)
	for i := 0; i < n; i++ {
		buf[i] = r.samples[(start+i)%len(r.samples)]
	}
	return n
}

// Microphone captures mono float32 from the default input device.
type Microphone struct {
	SampleRate uint32
	BufferSize int
	Log        *slog.Logger
}

type capture struct {
	ring       *Ring
	sampleRate float64
	mctx       *malgo.AllocatedContext
	device     *malgo.Device
	once       sync.Once
}

func (m *Microphone) Open(ctx context.Context) (input.Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := m.Log
	if log == nil {
		log = slog.Default()
	}
	rate := m.SampleRate
	if rate == 0 {
		rate = constants.SampleRate
	}
	size := m.BufferSize
	if size <= 0 {
		size = constants.WindowSize
	}
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Debug("malgo", "message", message)
	})
	if err != nil {
		return nil, fault.Wrap(err,
			ftag.With(input.UnsupportedPlatform),
			fmsg.WithDesc("init audio context", "Audio capture is not available"))
	}

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.Capture.Format = malgo.FormatF32
	config.Capture.Channels = 1
	config.SampleRate = rate
	config.Alsa.NoMMap = 1

	c := &capture{
		ring:       NewRing(size),
		sampleRate: float64(rate),
		mctx:       mctx,
	}
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, in []byte, frames uint32) {
			c.ring.Write(decodeFloat32(in))
		},
	}
	device, err := malgo.InitDevice(mctx.Context, config, callbacks)
	if err != nil {
		c.freeContext()
		return nil, fault.Wrap(err,
			ftag.With(ftag.PermissionDenied),
			fmsg.WithDesc("init capture device", "Failed to access microphone"))
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		c.freeContext()
		return nil, fault.Wrap(err,
			ftag.With(ftag.PermissionDenied),
			fmsg.WithDesc("start capture device", "Failed to access microphone"))
	}
	c.device = device
	log.Debug("microphone open", "sample_rate", rate)
	return c, nil
}

func decodeFloat32(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

func (c *capture) Read(buf []float32) int {
	return c.ring.Read(buf)
}

func (c *capture) SampleRate() float64 {
	return c.sampleRate
}

// Close stops the device and frees the context; later calls do nothing.
func (c *capture) Close() error {
	var err error
	c.once.Do(func() {
		if c.device != nil {
			err = c.device.Stop()
			c.device.Uninit()
		}
		c.freeContext()
	})
	return err
}

func (c *capture) freeContext() {
	_ = c.mctx.Uninit()
	c.mctx.Free()
}
