package record

import "github.com/san-kum/softsim/internal/world"

// Frame is one sampled observation of a running world.
type Frame struct {
	Time      float64 `json:"time"`
	Kinetic   float64 `json:"kinetic"`
	MeanSpeed float64 `json:"mean_speed"`
	PeakSpeed float64 `json:"peak_speed"`
	Awake     int     `json:"awake"`
	Asleep    int     `json:"asleep"`
	Degraded  int     `json:"degraded"`
}

// Recorder accumulates frames sampled from world statistics.
type Recorder struct {
	frames []Frame
}

func NewRecorder(capacity int) *Recorder {
	if capacity < 0 {
		capacity = 0
	}
	return &Recorder{frames: make([]Frame, 0, capacity)}
}

func (r *Recorder) Observe(st world.Stats) {
	r.frames = append(r.frames, Frame{
		Time:      st.Time,
		Kinetic:   st.Kinetic,
		MeanSpeed: st.MeanSpeed,
		PeakSpeed: st.PeakSpeed,
		Awake:     st.Awake,
		Asleep:    st.Asleep,
		Degraded:  st.Degraded,
	})
}

func (r *Recorder) Frames() []Frame { return r.frames }
func (r *Recorder) Len() int        { return len(r.frames) }

// Summarize reduces a frame series to headline metrics.
func Summarize(frames []Frame) map[string]float64 {
	metrics := map[string]float64{}
	if len(frames) == 0 {
		return metrics
	}
	peakKinetic, peakSpeed := 0.0, 0.0
	still := 0
	for _, f := range frames {
		if f.Kinetic > peakKinetic {
			peakKinetic = f.Kinetic
		}
		if f.PeakSpeed > peakSpeed {
			peakSpeed = f.PeakSpeed
		}
		if f.Awake == 0 {
			still++
		}
	}
	last := frames[len(frames)-1]
	metrics["final_kinetic"] = last.Kinetic
	metrics["peak_kinetic"] = peakKinetic
	metrics["peak_speed"] = peakSpeed
	metrics["still_fraction"] = float64(still) / float64(len(frames))
	return metrics
}
