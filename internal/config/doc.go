// Package config loads, normalizes, and validates tstomkv configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional dotenv credentials file, and
// honours environment fallbacks such as TSTOMKV_SFTP_PASSWORD and TVH_PASSWORD.
// The Config type is built once per process and handed to every component by
// pointer; nothing reads settings from package globals.
package config
