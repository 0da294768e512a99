// Package quality implements the viewer side feedback loop that asks the
// producer to lower or raise its encoding quality.
//
// Every tick the viewer samples the cumulative lost packet count of its
// inbound video stream. A loss spike above the loss threshold asks for lower
// quality at once. A run of loss-free ticks longer than the clean streak
// threshold asks for higher quality. Anything in between only breaks the
// clean run.
package quality

import "github.com/irdkwmnsb/screencast-relay/internal/api"

// Sample is one reading of the inbound video stream statistics.
type Sample struct {
	// PacketsLost is cumulative since the stream started.
	PacketsLost int64
	// Timestamp must increase between readings; units are irrelevant.
	Timestamp float64
}

// Controller is the decision state machine. It is not safe for concurrent use.
type Controller struct {
	lossThreshold        int64
	cleanStreakThreshold int

	hasSample        bool
	lastPacketsLost  int64
	lastTimestamp    float64
	consecutiveClean int
}

func NewController(lossThreshold int64, cleanStreakThreshold int) *Controller {
	return &Controller{
		lossThreshold:        lossThreshold,
		cleanStreakThreshold: cleanStreakThreshold,
	}
}

// Evaluate feeds one sample and reports the directive to emit, if any.
func (c *Controller) Evaluate(s Sample) (api.QualityAction, bool) {
	if !c.hasSample {
		c.record(s)
		c.hasSample = true
		return "", false
	}

	if s.Timestamp <= c.lastTimestamp {
		c.record(s)
		return "", false
	}

	delta := s.PacketsLost - c.lastPacketsLost
	c.record(s)

	switch {
	case delta > c.lossThreshold:
		c.consecutiveClean = 0
		return api.QualityLower, true
	case delta == 0:
		c.consecutiveClean++
		if c.consecutiveClean > c.cleanStreakThreshold {
			c.consecutiveClean = 0
			return api.QualityRaise, true
		}
	default:
		// some loss, or a counter reset
		c.consecutiveClean = 0
	}
	return "", false
}

func (c *Controller) record(s Sample) {
	c.lastPacketsLost = s.PacketsLost
	c.lastTimestamp = s.Timestamp
}

// CleanStreak is the number of consecutive loss-free ticks seen so far.
func (c *Controller) CleanStreak() int {
	return c.consecutiveClean
}
