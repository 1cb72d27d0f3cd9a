package config

const (
	defaultWorkDir            = "~/.local/share/speakerline/work"
	defaultStateDir           = "~/.local/share/speakerline"
	defaultLogDir             = "~/.local/share/speakerline/logs"
	defaultWhisperXModel      = "medium.en"
	defaultVADMethod          = "silero"
	defaultWordAnchor         = "start"
	defaultMaxWordsInSentence = 50
	defaultSpeakerLabelPrefix = "Speaker "
	defaultNSegments          = 10
	defaultMinSegmentSeconds  = 1.0
	defaultMaxAudioSeconds    = 300
	defaultIdentityWorkers    = 1
	defaultMinSimilarity      = 0.0
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir,
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Transcription: Transcription{
			WhisperXModel: defaultWhisperXModel,
			VADMethod:     defaultVADMethod,
		},
		Alignment: Alignment{
			WordAnchor:         defaultWordAnchor,
			MaxWordsInSentence: defaultMaxWordsInSentence,
			SpeakerLabelPrefix: defaultSpeakerLabelPrefix,
			PunctuationEnabled: true,
		},
		Identity: Identity{
			Enabled:           false,
			NSegments:         defaultNSegments,
			MinSegmentSeconds: defaultMinSegmentSeconds,
			MaxAudioSeconds:   defaultMaxAudioSeconds,
			Workers:           defaultIdentityWorkers,
			MinSimilarity:     defaultMinSimilarity,
		},
		Export: Export{
			Transcript:    true,
			Subtitles:     true,
			ByteOrderMark: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
