package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/joho/godotenv"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.loadEnvFile(); err != nil {
		return err
	}
	if err := c.normalizeTransfer(); err != nil {
		return err
	}
	if err := c.normalizeSource(); err != nil {
		return err
	}
	c.normalizeCatalog()
	c.normalizeEncoder()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.EnvFile, err = expandPath(strings.TrimSpace(c.Paths.EnvFile)); err != nil {
		return fmt.Errorf("paths.env_file: %w", err)
	}
	return nil
}

// loadEnvFile populates credentials from the optional dotenv file. Variables
// already present in the environment win.
func (c *Config) loadEnvFile() error {
	if c.Paths.EnvFile == "" {
		return nil
	}
	if _, err := os.Stat(c.Paths.EnvFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("paths.env_file: %w", err)
	}
	if err := godotenv.Load(c.Paths.EnvFile); err != nil {
		return fmt.Errorf("paths.env_file: load %s: %w", c.Paths.EnvFile, err)
	}
	return nil
}

func (c *Config) normalizeSource() error {
	local := c.Transfer.Backend == "local"
	roots := make([]string, 0, len(c.Source.Roots))
	seen := make(map[string]struct{}, len(c.Source.Roots))
	for _, root := range c.Source.Roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		if local {
			expanded, err := expandPath(root)
			if err != nil {
				return fmt.Errorf("source.roots: %w", err)
			}
			root = expanded
		} else {
			root = path.Clean(root)
		}
		if _, dup := seen[root]; dup {
			continue
		}
		seen[root] = struct{}{}
		roots = append(roots, root)
	}
	c.Source.Roots = roots
	c.Source.SourceExt = normalizeExt(c.Source.SourceExt, defaultSourceExt)
	c.Source.OutputExt = normalizeExt(c.Source.OutputExt, defaultOutputExt)
	return nil
}

func normalizeExt(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	if !strings.HasPrefix(value, ".") {
		value = "." + value
	}
	return value
}

func (c *Config) normalizeTransfer() error {
	c.Transfer.Backend = strings.ToLower(strings.TrimSpace(c.Transfer.Backend))
	if c.Transfer.Backend == "" {
		c.Transfer.Backend = defaultTransferBackend
	}

	sftp := &c.Transfer.SFTP
	sftp.Host = strings.TrimSpace(sftp.Host)
	sftp.User = strings.TrimSpace(sftp.User)
	if sftp.Port == 0 {
		sftp.Port = defaultSFTPPort
	}
	if sftp.TimeoutSeconds <= 0 {
		sftp.TimeoutSeconds = defaultSFTPTimeoutSeconds
	}
	if sftp.Password == "" {
		if value, ok := os.LookupEnv("TSTOMKV_SFTP_PASSWORD"); ok {
			sftp.Password = value
		}
	}
	var err error
	if sftp.KeyFile, err = expandPath(strings.TrimSpace(sftp.KeyFile)); err != nil {
		return fmt.Errorf("transfer.sftp.key_file: %w", err)
	}
	if sftp.KnownHostsFile, err = expandPath(strings.TrimSpace(sftp.KnownHostsFile)); err != nil {
		return fmt.Errorf("transfer.sftp.known_hosts_file: %w", err)
	}

	s3 := &c.Transfer.S3
	s3.Endpoint = strings.TrimSpace(s3.Endpoint)
	s3.Bucket = strings.TrimSpace(s3.Bucket)
	s3.Region = strings.TrimSpace(s3.Region)
	if s3.Region == "" {
		s3.Region = defaultS3Region
	}
	if s3.AccessKey == "" {
		if value, ok := os.LookupEnv("TSTOMKV_S3_ACCESS_KEY"); ok {
			s3.AccessKey = strings.TrimSpace(value)
		}
	}
	if s3.SecretKey == "" {
		if value, ok := os.LookupEnv("TSTOMKV_S3_SECRET_KEY"); ok {
			s3.SecretKey = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeCatalog() {
	c.Catalog.Kind = strings.ToLower(strings.TrimSpace(c.Catalog.Kind))
	if c.Catalog.Kind == "" {
		c.Catalog.Kind = defaultCatalogKind
	}
	prefixes := c.Catalog.SkipPrefixes[:0]
	for _, prefix := range c.Catalog.SkipPrefixes {
		if prefix = strings.TrimSpace(prefix); prefix != "" {
			prefixes = append(prefixes, prefix)
		}
	}
	c.Catalog.SkipPrefixes = prefixes

	tvh := &c.Catalog.Tvheadend
	tvh.URL = strings.TrimRight(strings.TrimSpace(tvh.URL), "/")
	if tvh.User == "" {
		if value, ok := os.LookupEnv("TVH_USER"); ok {
			tvh.User = strings.TrimSpace(value)
		}
	}
	if tvh.Password == "" {
		if value, ok := os.LookupEnv("TVH_PASSWORD"); ok {
			tvh.Password = value
		}
	}
	if tvh.Limit <= 0 {
		tvh.Limit = defaultTvheadendLimit
	}
	if tvh.TimeoutSeconds <= 0 {
		tvh.TimeoutSeconds = defaultTvheadendTimeout
	}
}

func (c *Config) normalizeEncoder() {
	enc := &c.Encoder
	enc.FFmpegBinary = defaultString(enc.FFmpegBinary, defaultFFmpegBinary)
	enc.FFprobeBinary = defaultString(enc.FFprobeBinary, defaultFFprobeBinary)
	enc.VideoCodec = defaultString(enc.VideoCodec, defaultVideoCodec)
	enc.Preset = strings.TrimSpace(enc.Preset)
	enc.AudioCodec = defaultString(enc.AudioCodec, defaultAudioCodec)
	enc.AudioBitrate = strings.TrimSpace(enc.AudioBitrate)
	enc.SubtitleCodec = defaultString(enc.SubtitleCodec, defaultSubtitleCodec)
}

func (c *Config) normalizeWorkflow() {
	c.Workflow.StopFile = defaultString(c.Workflow.StopFile, defaultStopFile)
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
		c.Logging.Format = "json"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}

func defaultString(value, fallback string) string {
	if value = strings.TrimSpace(value); value == "" {
		return fallback
	}
	return value
}
