// ABOUTME: Output clock with drift compensation
// ABOUTME: Filters bursty device positions into a smooth monotonic time base
package clock

import (
	"log"
	"sync"
	"time"
)

const (
	// Residuals above this mean the device restarted or stalled; start over
	resetResidual = 250000 // 250ms in microseconds

	// Residuals above this mark the clock as degraded
	degradedResidual = 20000 // 20ms

	// No observations for this long marks the clock as lost
	lostAfter = time.Second
)

// Quality represents how trustworthy the current estimate is
type Quality int

const (
	QualityGood Quality = iota
	QualityDegraded
	QualityLost
)

func (q Quality) String() string {
	switch q {
	case QualityGood:
		return "good"
	case QualityDegraded:
		return "degraded"
	default:
		return "lost"
	}
}

// Stats is a snapshot of the filter state
type Stats struct {
	Offset      int64   // device - wall, microseconds
	Drift       float64 // dimensionless: μs/μs
	Residual    int64   // last prediction error, microseconds
	SampleCount int
	Resets      int
	Quality     Quality
}

// OutputClock maps wall-clock time to device time with drift compensation
type OutputClock struct {
	mu             sync.RWMutex
	offset         int64   // Current offset in microseconds (device - wall)
	drift          float64 // Clock drift rate
	residual       int64
	quality        Quality
	lastSync       time.Time
	lastSyncMicros int64 // Wall time (μs) when offset/drift were last updated
	sampleCount    int
	resets         int
	smoothingRate  float64
	lastNow        int64 // Largest device time handed out, keeps Now monotonic

	now func() time.Time
}

// New creates an output clock using the system wall clock
func New() *OutputClock {
	return NewWithNow(time.Now)
}

// NewWithNow creates an output clock with an injectable wall clock
func NewWithNow(now func() time.Time) *OutputClock {
	return &OutputClock{
		smoothingRate: 0.1, // 10% weight to new samples
		quality:       QualityLost,
		now:           now,
	}
}

// Observe records that the device had reached deviceSeconds at wall time at
func (c *OutputClock) Observe(deviceSeconds float64, at time.Time) {
	deviceMicros := int64(deviceSeconds * 1e6)
	wallMicros := at.UnixMicro()
	measuredOffset := deviceMicros - wallMicros

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastSync = at

	// First observation: initialize offset, no drift yet
	if c.sampleCount == 0 {
		c.offset = measuredOffset
		c.lastSyncMicros = wallMicros
		c.sampleCount++
		c.quality = QualityGood
		return
	}

	dt := float64(wallMicros - c.lastSyncMicros)
	if dt <= 0 {
		return
	}

	// Second observation: calculate initial drift
	if c.sampleCount == 1 {
		c.drift = float64(measuredOffset-c.offset) / dt
		c.offset = measuredOffset
		c.lastSyncMicros = wallMicros
		c.sampleCount++
		return
	}

	predictedOffset := c.offset + int64(c.drift*dt)
	residual := measuredOffset - predictedOffset
	c.residual = residual

	if residual > resetResidual || residual < -resetResidual {
		log.Printf("Output clock jumped by %dμs, resetting", residual)
		c.offset = measuredOffset
		c.drift = 0
		c.lastSyncMicros = wallMicros
		c.sampleCount = 1
		c.resets++
		c.quality = QualityDegraded
		// A device restart legitimately moves time backwards
		c.lastNow = wallMicros + measuredOffset
		return
	}

	c.offset = predictedOffset + int64(c.smoothingRate*float64(residual))
	c.drift = c.drift + c.smoothingRate*(float64(residual)/dt)
	c.lastSyncMicros = wallMicros
	c.sampleCount++

	if residual > degradedResidual || residual < -degradedResidual {
		c.quality = QualityDegraded
	} else {
		c.quality = QualityGood
	}
}

// Now returns the estimated device time in seconds.
// It is zero before the first observation and never decreases between resets.
func (c *OutputClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sampleCount == 0 {
		return 0
	}

	wall := c.now().UnixMicro()
	dt := wall - c.lastSyncMicros
	device := wall + c.offset + int64(c.drift*float64(dt))

	if device < c.lastNow {
		device = c.lastNow
	}
	c.lastNow = device

	return float64(device) / 1e6
}

// Stats returns filter statistics
func (c *OutputClock) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Offset:      c.offset,
		Drift:       c.drift,
		Residual:    c.residual,
		SampleCount: c.sampleCount,
		Resets:      c.resets,
		Quality:     c.quality,
	}
}

// CheckQuality updates quality based on time since the last observation
func (c *OutputClock) CheckQuality() Quality {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sampleCount > 0 && c.now().Sub(c.lastSync) > lostAfter {
		c.quality = QualityLost
	}

	return c.quality
}

// Reset forgets all observations
func (c *OutputClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.offset = 0
	c.drift = 0
	c.residual = 0
	c.sampleCount = 0
	c.lastNow = 0
	c.quality = QualityLost
}
