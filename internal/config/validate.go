package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateTransfer(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSource() error {
	if len(c.Source.Roots) == 0 {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("source.roots must list at least one remote directory. Edit %s (create with 'tstomkv config init')", defaultPath)
	}
	for _, root := range c.Source.Roots {
		if root == "." || root == "/" {
			return fmt.Errorf("source.roots entry %q is too broad", root)
		}
	}
	if c.Source.SourceExt == c.Source.OutputExt {
		return errors.New("source.source_ext and source.output_ext must differ")
	}
	return nil
}

func (c *Config) validateTransfer() error {
	switch c.Transfer.Backend {
	case "sftp":
		sftp := c.Transfer.SFTP
		if sftp.Host == "" {
			return errors.New("transfer.sftp.host must be set when transfer.backend is sftp")
		}
		if sftp.User == "" {
			return errors.New("transfer.sftp.user must be set when transfer.backend is sftp")
		}
		if sftp.Port <= 0 || sftp.Port > 65535 {
			return errors.New("transfer.sftp.port must be between 1 and 65535")
		}
		if sftp.KeyFile == "" && sftp.Password == "" {
			return errors.New("transfer.sftp.key_file or transfer.sftp.password must be set")
		}
		if !sftp.InsecureIgnoreHostKey && sftp.KnownHostsFile == "" {
			return errors.New("transfer.sftp.known_hosts_file must be set unless insecure_ignore_host_key is true")
		}
	case "s3":
		s3 := c.Transfer.S3
		if s3.Endpoint == "" {
			return errors.New("transfer.s3.endpoint must be set when transfer.backend is s3")
		}
		if s3.Bucket == "" {
			return errors.New("transfer.s3.bucket must be set when transfer.backend is s3")
		}
		if s3.AccessKey == "" || s3.SecretKey == "" {
			return errors.New("transfer.s3.access_key and transfer.s3.secret_key must be set (or export TSTOMKV_S3_ACCESS_KEY/TSTOMKV_S3_SECRET_KEY)")
		}
	case "local":
	default:
		return fmt.Errorf("transfer.backend: unsupported value %q (want sftp, s3, or local)", c.Transfer.Backend)
	}
	return nil
}

func (c *Config) validateCatalog() error {
	switch c.Catalog.Kind {
	case "listing":
	case "tvheadend":
		if c.Catalog.Tvheadend.URL == "" {
			return errors.New("catalog.tvheadend.url must be set when catalog.kind is tvheadend")
		}
		if !strings.HasPrefix(c.Catalog.Tvheadend.URL, "http://") && !strings.HasPrefix(c.Catalog.Tvheadend.URL, "https://") {
			return errors.New("catalog.tvheadend.url must start with http:// or https://")
		}
	default:
		return fmt.Errorf("catalog.kind: unsupported value %q (want listing or tvheadend)", c.Catalog.Kind)
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if err := ensurePositiveMap(map[string]int{
		"encoder.stats_period_seconds":   c.Encoder.StatsPeriodSeconds,
		"progress.poll_interval_seconds": c.Progress.PollIntervalSeconds,
		"progress.max_wait_polls":        c.Progress.MaxWaitPolls,
	}); err != nil {
		return err
	}
	if c.Verify.DurationThreshold <= 0 || c.Verify.DurationThreshold > 1 {
		return errors.New("verify.duration_threshold must be greater than 0 and at most 1")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if strings.ContainsAny(c.Workflow.StopFile, `/\`) {
		return errors.New("workflow.stop_file must be a file name inside the staging directory")
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
