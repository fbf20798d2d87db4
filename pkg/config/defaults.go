package config

const (
	defaultProtocol   = "marker"
	defaultDebounceMS = 50

	defaultCitationsDriver = "inmemory"
	defaultReloadWorkers   = 2

	defaultPublisher  = "nop"
	defaultKafkaTopic = "vellum.editor.commands"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Decoder: DecoderConfig{
			Protocol:   defaultProtocol,
			DebounceMS: defaultDebounceMS,
		},
		Citations: CitationsConfig{
			Driver:        defaultCitationsDriver,
			ReloadWorkers: defaultReloadWorkers,
		},
		Events: EventsConfig{
			Publisher:  defaultPublisher,
			KafkaTopic: defaultKafkaTopic,
		},
	}
}
