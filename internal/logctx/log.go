// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package logctx wires up the subsystem-scoped leveled loggers shared by
// every package in this module: one slog.Logger per subsystem, all backed
// by a single rotating log file plus stdout, with runtime level control
// for each subsystem independently.
package logctx

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// logWriter implements io.Writer by fanning writes out to both stdout and
// the active log rotator, so console and file output never drift apart.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}
	return len(p), nil
}

var (
	backendLog = slog.NewBackend(logWriter{})
	logRotator *rotator.Rotator

	// subsystemLoggers maps each subsystem's short identifier to its
	// logger, so SetLogLevel/SetLogLevels can reach every one by name.
	subsystemLoggers = map[string]slog.Logger{
		"CNFG": cfgLog,
		"LEDG": ledgLog,
		"LEAD": leadLog,
		"MVER": mverLog,
		"BCHN": bchnLog,
		"OGPD": ogpdLog,
	}
)

// Per-subsystem loggers. Packages that want to log import this package and
// reference their own logger directly; nothing here depends on the core
// packages, avoiding an import cycle.
var (
	cfgLog  = backendLog.Logger("CNFG")
	ledgLog = backendLog.Logger("LEDG")
	leadLog = backendLog.Logger("LEAD")
	mverLog = backendLog.Logger("MVER")
	bchnLog = backendLog.Logger("BCHN")
	ogpdLog = backendLog.Logger("OGPD")
)

// Config returns the config subsystem's logger.
func Config() slog.Logger { return cfgLog }

// Ledger returns the ledger subsystem's logger.
func Ledger() slog.Logger { return ledgLog }

// Leadership returns the leadership subsystem's logger.
func Leadership() slog.Logger { return leadLog }

// Multiverse returns the multiverse subsystem's logger.
func Multiverse() slog.Logger { return mverLog }

// Blockchain returns the blockchain subsystem's logger.
func Blockchain() slog.Logger { return bchnLog }

// Main returns the top-level node logger, used by cmd/ogpnoded itself.
func Main() slog.Logger { return ogpdLog }

// InitLogRotator initializes the log rotation for writing to the file at
// logFile, creating intermediate directories as needed. Must be called
// before the first logged line that should reach the file.
func InitLogRotator(logFile string) error {
	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("logctx: failed to create log directory: %w", err)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("logctx: failed to create file rotator: %w", err)
	}
	logRotator = r
	return nil
}

// SetLogLevel sets the logging level for provided subsystem. Invalid
// subsystems are ignored. Uninitialized subsystems are ignored.
func SetLogLevel(subsystemID string, logLevel string) {
	logger, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}
	level, ok := slog.LevelFromString(logLevel)
	if !ok {
		return
	}
	logger.SetLevel(level)
}

// SetLogLevels sets the log level for all subsystems. Invalid level
// strings are ignored.
func SetLogLevels(logLevel string) {
	if _, ok := slog.LevelFromString(logLevel); !ok {
		return
	}
	for subsystemID := range subsystemLoggers {
		SetLogLevel(subsystemID, logLevel)
	}
}

// SupportedSubsystems returns a sorted slice of the supported subsystem
// identifiers, used to validate --debuglevel flag values and to print
// usage help.
func SupportedSubsystems() []string {
	subsystems := make([]string, 0, len(subsystemLoggers))
	for id := range subsystemLoggers {
		subsystems = append(subsystems, id)
	}
	sort.Strings(subsystems)
	return subsystems
}
