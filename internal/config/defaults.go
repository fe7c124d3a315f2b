package config

const (
	defaultWorkDir                 = "~/.local/share/clipper/work"
	defaultLogDir                  = "~/.local/share/clipper/logs"
	defaultDataDir                 = "~/.local/share/clipper"
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultAPIBind                 = "127.0.0.1:7490"
	defaultRequestTimeoutSeconds   = 60
	defaultPollTimeoutSeconds      = 30
	defaultMessagesPerSecond       = 25
	defaultAudioCodec              = "mp3"
	defaultAudioBitrate            = "192K"
	defaultMaxUploadMB             = 50
	defaultUploadPauseMillis       = 1000
	defaultFailureDwellSeconds     = 10
	defaultNoticeDwellSeconds      = 3
	defaultMetadataTimeoutSeconds  = 60
	defaultThumbnailTimeoutSeconds = 30
	defaultThumbnailMaxSide        = 320
	defaultStatusMinIntervalMillis = 2000
	defaultStatusMinPercentDelta   = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
			DataDir: defaultDataDir,
		},
		Telegram: Telegram{
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
			PollTimeoutSeconds:    defaultPollTimeoutSeconds,
			MessagesPerSecond:     defaultMessagesPerSecond,
		},
		Tools: Tools{
			YtDlp:   "yt-dlp",
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},
		Pipeline: Pipeline{
			AudioCodec:              defaultAudioCodec,
			AudioBitrate:            defaultAudioBitrate,
			MaxUploadMB:             defaultMaxUploadMB,
			UploadPauseMillis:       defaultUploadPauseMillis,
			FailureDwellSeconds:     defaultFailureDwellSeconds,
			NoticeDwellSeconds:      defaultNoticeDwellSeconds,
			MetadataTimeoutSeconds:  defaultMetadataTimeoutSeconds,
			ThumbnailTimeoutSeconds: defaultThumbnailTimeoutSeconds,
			ThumbnailMaxSide:        defaultThumbnailMaxSide,
		},
		Status: Status{
			MinIntervalMillis: defaultStatusMinIntervalMillis,
			MinPercentDelta:   defaultStatusMinPercentDelta,
			Pin:               true,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
