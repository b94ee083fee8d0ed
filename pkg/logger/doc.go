// Package logger provides structured logging for the harvester.
//
// It wraps zerolog behind a small interface with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output on stdout
// - Optional file output
// - A global instance initialized once from configuration
//
// Basic usage:
//
//	cfg := &config.LoggingConfig{Level: "info"}
//	logger.Initialize(cfg)
//
//	logger.Info("Harvest started")
//	logger.WithField("index", 42).Debug("Probing item")
//	logger.WithError(err).Error("Sink append failed")
package logger
