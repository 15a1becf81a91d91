package domain

// ControlType is a direct playback control issued by a host.
type ControlType string

const (
	ControlPlay  ControlType = "play"
	ControlPause ControlType = "pause"
	ControlSeek  ControlType = "seek"
)

// PlaybackState is the room's shared belief about what is loaded,
// its timestamp and play/pause status. An empty VideoID means nothing
// is loaded.
type PlaybackState struct {
	VideoID     string  `json:"videoId"`
	Title       string  `json:"title"`
	CurrentTime float64 `json:"currentTime"`
	IsPlaying   bool    `json:"isPlaying"`
}

// Apply mutates the state for a direct control event. Seek leaves the
// play/pause status untouched.
func (p *PlaybackState) Apply(control ControlType, currentTime float64) {
	switch control {
	case ControlPlay:
		p.IsPlaying = true
		p.CurrentTime = currentTime
	case ControlPause:
		p.IsPlaying = false
		p.CurrentTime = currentTime
	case ControlSeek:
		p.CurrentTime = currentTime
	}
}

func (p *PlaybackState) Clear() {
	*p = PlaybackState{}
}

func (p PlaybackState) HasVideo() bool {
	return p.VideoID != ""
}
