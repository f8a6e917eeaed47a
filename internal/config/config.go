package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains local directory configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
	EnvFile    string `toml:"env_file"`
}

// Source describes where convertible recordings live on the remote store.
type Source struct {
	Roots     []string `toml:"roots"`
	SourceExt string   `toml:"source_ext"`
	OutputExt string   `toml:"output_ext"`
}

// SFTP contains connection settings for the SSH/SFTP transfer backend.
type SFTP struct {
	Host                  string `toml:"host"`
	Port                  int    `toml:"port"`
	User                  string `toml:"user"`
	KeyFile               string `toml:"key_file"`
	Password              string `toml:"password"`
	KnownHostsFile        string `toml:"known_hosts_file"`
	InsecureIgnoreHostKey bool   `toml:"insecure_ignore_host_key"`
	TimeoutSeconds        int    `toml:"timeout_seconds"`
}

// S3 contains connection settings for an S3-compatible object store.
type S3 struct {
	Endpoint  string `toml:"endpoint"`
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
}

// Transfer selects and configures the remote-store transfer channel.
type Transfer struct {
	Backend string `toml:"backend"`
	SFTP    SFTP   `toml:"sftp"`
	S3      S3     `toml:"s3"`
}

// Tvheadend contains credentials for the tvheadend DVR API.
type Tvheadend struct {
	URL            string `toml:"url"`
	User           string `toml:"user"`
	Password       string `toml:"password"`
	Limit          int    `toml:"limit"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Catalog selects where the work list comes from.
type Catalog struct {
	Kind         string    `toml:"kind"`
	SkipPrefixes []string  `toml:"skip_prefixes"`
	Tvheadend    Tvheadend `toml:"tvheadend"`
}

// Encoder contains the ffmpeg/ffprobe invocation settings.
type Encoder struct {
	FFmpegBinary       string `toml:"ffmpeg_binary"`
	FFprobeBinary      string `toml:"ffprobe_binary"`
	VideoCodec         string `toml:"video_codec"`
	Preset             string `toml:"preset"`
	AudioCodec         string `toml:"audio_codec"`
	AudioBitrate       string `toml:"audio_bitrate"`
	SubtitleCodec      string `toml:"subtitle_codec"`
	MapAllStreams      bool   `toml:"map_all_streams"`
	StatsPeriodSeconds int    `toml:"stats_period_seconds"`
}

// Progress contains progress sink polling settings.
type Progress struct {
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	MaxWaitPolls        int `toml:"max_wait_polls"`
}

// Verify contains integrity check settings.
type Verify struct {
	DurationThreshold float64 `toml:"duration_threshold"`
}

// Workflow contains run-level behaviour.
type Workflow struct {
	StopFile      string `toml:"stop_file"`
	CleanupStaged bool   `toml:"cleanup_staged"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunStarted     bool   `toml:"run_started"`
	ItemCommitted  bool   `toml:"item_committed"`
	RunCompleted   bool   `toml:"run_completed"`
	Errors         bool   `toml:"errors"`
}

// Metrics contains the Prometheus textfile export location.
type Metrics struct {
	TextfilePath string `toml:"textfile_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for tstomkv.
//
// Configuration sections by subsystem:
//   - Paths: staging and log directories, optional credentials env file
//   - Source: remote source roots and the source/output extensions
//   - Transfer: sftp, s3, or local transfer channel
//   - Catalog: remote listing or tvheadend work list
//   - Encoder: ffmpeg/ffprobe binaries and codec settings
//   - Progress: progress sink polling interval and wait bound
//   - Verify: duration ratio threshold
//   - Workflow: stop sentinel and staging cleanup
//   - Notifications: ntfy push notification settings
//   - Metrics: Prometheus textfile export
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Source        Source        `toml:"source"`
	Transfer      Transfer      `toml:"transfer"`
	Catalog       Catalog       `toml:"catalog"`
	Encoder       Encoder       `toml:"encoder"`
	Progress      Progress      `toml:"progress"`
	Verify        Verify        `toml:"verify"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Metrics       Metrics       `toml:"metrics"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tstomkv.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the local directories a run writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StopFilePath returns the cooperative cancellation sentinel inside the staging root.
func (c *Config) StopFilePath() string {
	return filepath.Join(c.Paths.StagingDir, c.Workflow.StopFile)
}

// HistoryDBPath returns the location of the run ledger database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.LogDir, "history.db")
}

// LockPath returns the single-run lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "tstomkv.lock")
}

// LogFilePath returns the persistent log file.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "tstomkv.log")
}

// PollInterval returns the progress sink polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Progress.PollIntervalSeconds) * time.Second
}

// StatsPeriod returns the period ffmpeg uses to refresh the progress sink.
func (c *Config) StatsPeriod() time.Duration {
	return time.Duration(c.Encoder.StatsPeriodSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleOptions overrides parts of the sample configuration written by
// CreateSampleWith. Zero values keep the sample's own settings.
type SampleOptions struct {
	Backend string
	Roots   []string
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	return CreateSampleWith(path, SampleOptions{})
}

// CreateSampleWith writes the sample configuration with opts applied.
func CreateSampleWith(path string, opts SampleOptions) error {
	body, err := renderSample(opts)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func renderSample(opts SampleOptions) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	switch backend {
	case "", "sftp", "s3", "local":
	default:
		return "", fmt.Errorf("transfer backend %q: want sftp, s3, or local", opts.Backend)
	}
	var rootsLine string
	if len(opts.Roots) > 0 {
		encoded, err := toml.Marshal(struct {
			Roots []string `toml:"roots"`
		}{opts.Roots})
		if err != nil {
			return "", fmt.Errorf("encode roots: %w", err)
		}
		rootsLine = strings.TrimSpace(string(encoded))
	}

	lines := strings.Split(sampleConfig, "\n")
	for i, line := range lines {
		switch {
		case backend != "" && strings.HasPrefix(line, "backend = "):
			lines[i] = fmt.Sprintf("backend = %q", backend)
		case rootsLine != "" && strings.HasPrefix(line, "roots = "):
			lines[i] = rootsLine
		}
	}
	return strings.Join(lines, "\n"), nil
}
