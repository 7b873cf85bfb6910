package config

const (
	defaultStagingDir = "~/.local/share/subweave/staging"
	defaultLibraryDir = "~/library"
	defaultLogDir     = "~/.local/share/subweave/logs"
	defaultReviewDir  = "~/review"

	defaultTargetLanguage    = "zh"
	defaultTone              = "casual"
	defaultWindowSize        = 3
	defaultContextOverlap    = 1
	defaultWorkers           = 3
	defaultRequestsPerMinute = 10
	defaultMaxRetries        = 3
	defaultRepairPasses      = 5

	defaultLLMModel          = "gemini-2.5-flash"
	defaultLLMTimeoutSeconds = 120

	defaultLayout            = "bilingual"
	defaultBoxStyle          = "box"
	defaultMaxLineWidth      = 42
	defaultPrimaryFont       = "KaiTi"
	defaultPrimaryFontSize   = 60
	defaultPrimaryColour     = "&H00FFFFFF"
	defaultSecondaryFont     = "Arial"
	defaultSecondaryFontSize = 36
	defaultSecondaryColour   = "&H00D0D0D0"
	defaultMarginVertical    = 24
	defaultPlayResX          = 1920
	defaultPlayResY          = 1080

	defaultDownloadFormat  = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	defaultOutputTemplate  = "%(title)s [%(id)s] [%(height)sp].%(ext)s"
	defaultDownloadTimeout = 3600

	defaultTranscriberModel   = "large-v3"
	defaultTranscriberTimeout = 7200

	defaultVideoCodec    = "libx264"
	defaultCRF           = 18
	defaultRenderPreset  = "medium"
	defaultRenderTimeout = 7200

	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
	defaultLogRetentionDays          = 60
	defaultWorkflowHeartbeatInterval = 15
	defaultWorkflowHeartbeatTimeout  = 120
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
			ReviewDir:  defaultReviewDir,
		},
		Translation: Translation{
			TargetLanguage:               defaultTargetLanguage,
			Tone:                         defaultTone,
			WindowSize:                   defaultWindowSize,
			ContextOverlap:               defaultContextOverlap,
			Workers:                      defaultWorkers,
			RequestsPerMinute:            defaultRequestsPerMinute,
			MaxRetries:                   defaultMaxRetries,
			RepairPasses:                 defaultRepairPasses,
			ForbidParentheticalOriginals: true,
		},
		LLM: LLM{
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Style: Style{
			Layout:            defaultLayout,
			BoxStyle:          defaultBoxStyle,
			MaxLineWidth:      defaultMaxLineWidth,
			PrimaryFont:       defaultPrimaryFont,
			PrimaryFontSize:   defaultPrimaryFontSize,
			PrimaryColour:     defaultPrimaryColour,
			SecondaryFont:     defaultSecondaryFont,
			SecondaryFontSize: defaultSecondaryFontSize,
			SecondaryColour:   defaultSecondaryColour,
			MarginVertical:    defaultMarginVertical,
			PlayResX:          defaultPlayResX,
			PlayResY:          defaultPlayResY,
		},
		Downloader: Downloader{
			Format:         defaultDownloadFormat,
			OutputTemplate: defaultOutputTemplate,
			TimeoutSeconds: defaultDownloadTimeout,
		},
		Transcriber: Transcriber{
			Model:          defaultTranscriberModel,
			TimeoutSeconds: defaultTranscriberTimeout,
		},
		Render: Render{
			VideoCodec:     defaultVideoCodec,
			CRF:            defaultCRF,
			Preset:         defaultRenderPreset,
			TimeoutSeconds: defaultRenderTimeout,
		},
		Library: Library{
			CopySubtitles: true,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			Queue:          true,
			Stages:         true,
			Errors:         true,
			Review:         true,
		},
		Workflow: Workflow{
			QueuePollInterval:  5,
			ErrorRetryInterval: 10,
			HeartbeatInterval:  defaultWorkflowHeartbeatInterval,
			HeartbeatTimeout:   defaultWorkflowHeartbeatTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
