package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// AppConfig holds the application-level configuration. It is built once at
// startup and handed to the scanner, sender and receiver.
type AppConfig struct {
	UploadPath      string        `mapstructure:"upload_path"`
	DownloadPath    string        `mapstructure:"download_path"`
	HistoryPath     string        `mapstructure:"history_path"`
	Port            int           `mapstructure:"port"`
	ChunkSize       int           `mapstructure:"chunk_size"`
	RetryInterval   time.Duration `mapstructure:"retry_interval"`
	SendAddress     string        `mapstructure:"send_address"`
	DownloadAddress string        `mapstructure:"download_address"`
	Debug           bool          `mapstructure:"debug"`
}

// Config is the configuration most recently loaded by LoadConfig.
var Config *AppConfig

const (
	DefaultPort          = 47102
	DefaultChunkSize     = 1024 * 16 * 16 * 16
	DefaultRetryInterval = 100 * time.Millisecond
)

// Default returns the configuration used when no file or env overrides it.
func Default() *AppConfig {
	return &AppConfig{
		UploadPath:      "./root/uploads",
		DownloadPath:    "./root/downloads",
		HistoryPath:     "./root/.history",
		Port:            DefaultPort,
		ChunkSize:       DefaultChunkSize,
		RetryInterval:   DefaultRetryInterval,
		SendAddress:     "127.0.0.1",
		DownloadAddress: "127.0.0.1",
	}
}

// LoadConfig reads config.yaml from path, applies TREECAST_* environment
// overrides on top of the defaults and validates the result.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.SetEnvPrefix("treecast")
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("upload_path", d.UploadPath)
	v.SetDefault("download_path", d.DownloadPath)
	v.SetDefault("history_path", d.HistoryPath)
	v.SetDefault("port", d.Port)
	v.SetDefault("chunk_size", d.ChunkSize)
	v.SetDefault("retry_interval", d.RetryInterval)
	v.SetDefault("send_address", d.SendAddress)
	v.SetDefault("download_address", d.DownloadAddress)
	v.SetDefault("debug", d.Debug)

	if err := v.ReadInConfig(); err != nil {
		logrus.Warnf("⚠️ Could not read config file, using defaults: %v", err)
	}

	var appConfig AppConfig
	if err := v.Unmarshal(&appConfig); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := appConfig.Validate(); err != nil {
		return nil, err
	}

	Config = &appConfig
	return &appConfig, nil
}

// Validate rejects values the transfer code cannot work with.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port out of range: %d", c.Port))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize))
	}
	if c.RetryInterval <= 0 {
		errs = append(errs, fmt.Errorf("retry_interval must be positive, got %s", c.RetryInterval))
	}
	if c.UploadPath == "" || c.DownloadPath == "" {
		errs = append(errs, errors.New("upload_path and download_path are required"))
	}
	return errors.Join(errs...)
}

// EnsureDirs creates the upload and download roots if they are missing.
func (c *AppConfig) EnsureDirs() error {
	for _, dir := range []string{c.UploadPath, c.DownloadPath} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// TransferAddr joins host with the configured transfer port.
func (c *AppConfig) TransferAddr(host string) string {
	return net.JoinHostPort(host, strconv.Itoa(c.Port))
}
