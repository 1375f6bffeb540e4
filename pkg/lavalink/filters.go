package lavalink

// FilterPayload mirrors the node's filter object. Nil fields are left
// untouched server-side thanks to omitempty.
type FilterPayload struct {
	Volume     *float64        `json:"volume,omitempty"`
	Equalizer  []EqualizerBand `json:"equalizer,omitempty"`
	Karaoke    *Karaoke        `json:"karaoke,omitempty"`
	Timescale  *Timescale      `json:"timescale,omitempty"`
	Tremolo    *Tremolo        `json:"tremolo,omitempty"`
	Vibrato    *Vibrato        `json:"vibrato,omitempty"`
	Rotation   *Rotation       `json:"rotation,omitempty"`
	Distortion *Distortion     `json:"distortion,omitempty"`
	ChannelMix *ChannelMix     `json:"channelMix,omitempty"`
	LowPass    *LowPass        `json:"lowPass,omitempty"`
}

// EqualizerBand adjusts the gain of one of the 15 fixed bands.
// Gain ranges from -0.25 (muted) to 1.0.
type EqualizerBand struct {
	Band int     `json:"band"`
	Gain float64 `json:"gain"`
}

type Karaoke struct {
	Level       float64 `json:"level"`
	MonoLevel   float64 `json:"monoLevel"`
	FilterBand  float64 `json:"filterBand"`
	FilterWidth float64 `json:"filterWidth"`
}

type Timescale struct {
	Speed float64 `json:"speed,omitempty"`
	Pitch float64 `json:"pitch,omitempty"`
	Rate  float64 `json:"rate,omitempty"`
}

type Tremolo struct {
	Frequency float64 `json:"frequency"`
	Depth     float64 `json:"depth"`
}

type Vibrato struct {
	Frequency float64 `json:"frequency"`
	Depth     float64 `json:"depth"`
}

type Rotation struct {
	RotationHz float64 `json:"rotationHz"`
}

type Distortion struct {
	SinOffset float64 `json:"sinOffset,omitempty"`
	SinScale  float64 `json:"sinScale,omitempty"`
	CosOffset float64 `json:"cosOffset,omitempty"`
	CosScale  float64 `json:"cosScale,omitempty"`
	TanOffset float64 `json:"tanOffset,omitempty"`
	TanScale  float64 `json:"tanScale,omitempty"`
	Offset    float64 `json:"offset,omitempty"`
	Scale     float64 `json:"scale,omitempty"`
}

type ChannelMix struct {
	LeftToLeft   float64 `json:"leftToLeft"`
	LeftToRight  float64 `json:"leftToRight"`
	RightToLeft  float64 `json:"rightToLeft"`
	RightToRight float64 `json:"rightToRight"`
}

type LowPass struct {
	Smoothing float64 `json:"smoothing"`
}

// Filters holds the active filter chain of one player. All setters
// validate, then push the full chain to the node in a single update.
type Filters struct {
	player  *Player
	payload FilterPayload
}

func newFilters(player *Player) *Filters {
	return &Filters{player: player}
}

// Payload returns a copy of the current filter chain.
func (f *Filters) Payload() FilterPayload {
	f.player.mu.Lock()
	defer f.player.mu.Unlock()
	return f.payload
}

func (f *Filters) apply() error {
	f.player.mu.Lock()
	payload := f.payload
	node := f.player.node
	guildID := f.player.guildID
	f.player.mu.Unlock()
	return node.rest.Update(guildID, UpdatePlayerData{Filters: &payload})
}

// SetVolume applies a filter-stage volume multiplier in [0, 5].
func (f *Filters) SetVolume(volume float64) error {
	if volume < 0 || volume > 5 {
		return &ValidationError{Field: "volume", Reason: "must be between 0 and 5"}
	}
	f.player.mu.Lock()
	f.payload.Volume = &volume
	f.player.mu.Unlock()
	return f.apply()
}

func (f *Filters) SetEqualizer(bands []EqualizerBand) error {
	for _, band := range bands {
		if band.Band < 0 || band.Band > 14 {
			return &ValidationError{Field: "equalizer", Reason: "band must be between 0 and 14"}
		}
		if band.Gain < -0.25 || band.Gain > 1 {
			return &ValidationError{Field: "equalizer", Reason: "gain must be between -0.25 and 1"}
		}
	}
	f.player.mu.Lock()
	f.payload.Equalizer = bands
	f.player.mu.Unlock()
	return f.apply()
}

func (f *Filters) SetKaraoke(karaoke *Karaoke) error {
	f.player.mu.Lock()
	f.payload.Karaoke = karaoke
	f.player.mu.Unlock()
	return f.apply()
}

func (f *Filters) SetTimescale(timescale *Timescale) error {
	if timescale != nil {
		if timescale.Speed < 0 || timescale.Pitch < 0 || timescale.Rate < 0 {
			return &ValidationError{Field: "timescale", Reason: "values must not be negative"}
		}
	}
	f.player.mu.Lock()
	f.payload.Timescale = timescale
	f.player.mu.Unlock()
	return f.apply()
}

func (f *Filters) SetTremolo(tremolo *Tremolo) error {
	if tremolo != nil {
		if tremolo.Frequency <= 0 {
			return &ValidationError{Field: "tremolo", Reason: "frequency must be greater than 0"}
		}
		if tremolo.Depth <= 0 || tremolo.Depth > 1 {
			return &ValidationError{Field: "tremolo", Reason: "depth must be in (0, 1]"}
		}
	}
	f.player.mu.Lock()
	f.payload.Tremolo = tremolo
	f.player.mu.Unlock()
	return f.apply()
}

func (f *Filters) SetVibrato(vibrato *Vibrato) error {
	if vibrato != nil {
		if vibrato.Frequency <= 0 || vibrato.Frequency > 14 {
			return &ValidationError{Field: "vibrato", Reason: "frequency must be in (0, 14]"}
		}
		if vibrato.Depth <= 0 || vibrato.Depth > 1 {
			return &ValidationError{Field: "vibrato", Reason: "depth must be in (0, 1]"}
		}
	}
	f.player.mu.Lock()
	f.payload.Vibrato = vibrato
	f.player.mu.Unlock()
	return f.apply()
}

func (f *Filters) SetRotation(rotation *Rotation) error {
	f.player.mu.Lock()
	f.payload.Rotation = rotation
	f.player.mu.Unlock()
	return f.apply()
}

func (f *Filters) SetDistortion(distortion *Distortion) error {
	f.player.mu.Lock()
	f.payload.Distortion = distortion
	f.player.mu.Unlock()
	return f.apply()
}

func (f *Filters) SetChannelMix(mix *ChannelMix) error {
	f.player.mu.Lock()
	f.payload.ChannelMix = mix
	f.player.mu.Unlock()
	return f.apply()
}

func (f *Filters) SetLowPass(lowPass *LowPass) error {
	if lowPass != nil && lowPass.Smoothing < 1 {
		return &ValidationError{Field: "lowPass", Reason: "smoothing must be at least 1"}
	}
	f.player.mu.Lock()
	f.payload.LowPass = lowPass
	f.player.mu.Unlock()
	return f.apply()
}

// ResetFilters clears the whole chain on the node.
func (f *Filters) ResetFilters() error {
	f.player.mu.Lock()
	f.payload = FilterPayload{}
	f.player.mu.Unlock()
	return f.apply()
}
