package config

const (
	defaultConfigPath           = "~/.config/tstomkv/config.toml"
	defaultStagingDir           = "~/.local/share/tstomkv/staging"
	defaultLogDir               = "~/.local/share/tstomkv/logs"
	defaultEnvFile              = "~/.config/tstomkv/tstomkv.env"
	defaultSourceExt            = ".ts"
	defaultOutputExt            = ".mkv"
	defaultTransferBackend      = "sftp"
	defaultSFTPPort             = 22
	defaultSFTPKeyFile          = "~/.ssh/id_rsa"
	defaultSFTPKnownHosts       = "~/.ssh/known_hosts"
	defaultSFTPTimeoutSeconds   = 30
	defaultS3Region             = "us-east-1"
	defaultCatalogKind          = "listing"
	defaultTvheadendLimit       = 9999
	defaultTvheadendTimeout     = 30
	defaultRadioPrefix          = "/var/lib/tvheadend/radio"
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultVideoCodec           = "libx265"
	defaultPreset               = "medium"
	defaultAudioCodec           = "aac"
	defaultAudioBitrate         = "128k"
	defaultSubtitleCodec        = "copy"
	defaultStatsPeriodSeconds   = 5
	defaultPollIntervalSeconds  = 5
	defaultMaxWaitPolls         = 12
	defaultDurationThreshold    = 0.9
	defaultStopFile             = "STOP"
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			EnvFile:    defaultEnvFile,
		},
		Source: Source{
			SourceExt: defaultSourceExt,
			OutputExt: defaultOutputExt,
		},
		Transfer: Transfer{
			Backend: defaultTransferBackend,
			SFTP: SFTP{
				Port:           defaultSFTPPort,
				KeyFile:        defaultSFTPKeyFile,
				KnownHostsFile: defaultSFTPKnownHosts,
				TimeoutSeconds: defaultSFTPTimeoutSeconds,
			},
			S3: S3{
				Region: defaultS3Region,
				UseSSL: true,
			},
		},
		Catalog: Catalog{
			Kind:         defaultCatalogKind,
			SkipPrefixes: []string{defaultRadioPrefix},
			Tvheadend: Tvheadend{
				Limit:          defaultTvheadendLimit,
				TimeoutSeconds: defaultTvheadendTimeout,
			},
		},
		Encoder: Encoder{
			FFmpegBinary:       defaultFFmpegBinary,
			FFprobeBinary:      defaultFFprobeBinary,
			VideoCodec:         defaultVideoCodec,
			Preset:             defaultPreset,
			AudioCodec:         defaultAudioCodec,
			AudioBitrate:       defaultAudioBitrate,
			SubtitleCodec:      defaultSubtitleCodec,
			MapAllStreams:      true,
			StatsPeriodSeconds: defaultStatsPeriodSeconds,
		},
		Progress: Progress{
			PollIntervalSeconds: defaultPollIntervalSeconds,
			MaxWaitPolls:        defaultMaxWaitPolls,
		},
		Verify: Verify{
			DurationThreshold: defaultDurationThreshold,
		},
		Workflow: Workflow{
			StopFile:      defaultStopFile,
			CleanupStaged: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			RunStarted:     true,
			ItemCommitted:  true,
			RunCompleted:   true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
