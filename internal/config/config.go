// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flags "github.com/jessevdk/go-flags"

	"github.com/ogprotocol/ogpnode/internal/logctx"
)

const (
	defaultConfigFilename = "ogpnoded.conf"
	defaultDataDirname     = "data"
	defaultLogLevel        = "info"
	defaultLogDirname      = "logs"
	defaultLogFilename     = "ogpnoded.log"
	defaultGenesisFilename = "block0.yaml"
)

var (
	defaultHomeDir   = AppDataDir("ogpnoded", false)
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(defaultHomeDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
)

// Config defines the node's runtime configuration, populated by LoadConfig
// from (in increasing priority) compiled-in defaults, the config file, and
// command-line flags.
type Config struct {
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir     string `short:"b" long:"datadir" description:"Directory to store block and ledger data"`
	LogDir      string `long:"logdir" description:"Directory to log output"`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- Alternatively, level specifications of the form <subsystem>=<level>,<subsystem2>=<level2>,... can be used to set the log level for individual subsystems"`
	Genesis     string `long:"genesis" description:"Path to the block-0 genesis YAML document"`

	// genesis is the parsed Genesis document, populated by LoadConfig once
	// Genesis has been resolved.
	genesis *Genesis
}

// ParsedGenesis returns the parsed block-0 genesis document loaded by
// LoadConfig.
func (c *Config) ParsedGenesis() *Genesis {
	return c.genesis
}

func defaultConfig() *Config {
	return &Config{
		ConfigFile: defaultConfigFile,
		DataDir:    defaultDataDir,
		LogDir:     defaultLogDir,
		DebugLevel: defaultLogLevel,
		Genesis:    filepath.Join(defaultHomeDir, defaultGenesisFilename),
	}
}

// LoadConfig reads the node configuration, following dcrd's own
// precedence: start from compiled-in defaults, pre-scan the command line
// for -C/--configfile and -V/--version, parse the config file (if any) on
// top of the defaults, then parse the full command line on top of that so
// flags always win. It normalizes paths, ensures DataDir/LogDir exist,
// initializes the rotating log file, applies DebugLevel, and parses the
// resolved Genesis path into cfg.genesis.
func LoadConfig() (*Config, []string, error) {
	cfg := defaultConfig()

	preCfg := *cfg
	preParser := flags.NewParser(&preCfg, flags.Default)
	_, err := preParser.Parse()
	if err != nil {
		if flagErr, ok := err.(*flags.Error); ok && flagErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, nil, err
	}
	if preCfg.ShowVersion {
		fmt.Println("ogpnoded")
		os.Exit(0)
	}
	if preCfg.ConfigFile != "" {
		cfg.ConfigFile = cleanAndExpandPath(preCfg.ConfigFile)
	}

	parser := flags.NewParser(cfg, flags.Default)
	if _, err := os.Stat(cfg.ConfigFile); err == nil {
		if err := flags.NewIniParser(parser).ParseFile(cfg.ConfigFile); err != nil {
			return nil, nil, fmt.Errorf("config: parsing config file: %w", err)
		}
	}

	remainingArgs, err := parser.Parse()
	if err != nil {
		if flagErr, ok := err.(*flags.Error); ok && flagErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, nil, err
	}

	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.Genesis = cleanAndExpandPath(cfg.Genesis)

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, nil, fmt.Errorf("config: creating data directory: %w", err)
	}
	if err := logctx.InitLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename)); err != nil {
		return nil, nil, fmt.Errorf("config: initializing log rotator: %w", err)
	}
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}

	genesis, err := ParseGenesisFile(cfg.Genesis)
	if err != nil {
		return nil, nil, err
	}
	cfg.genesis = genesis

	return cfg, remainingArgs, nil
}

// parseAndSetDebugLevels applies a debug level specification of either
// "<level>" (applies to every subsystem) or a comma-separated list of
// "<subsystem>=<level>" pairs.
func parseAndSetDebugLevels(debugLevel string) error {
	if debugLevel == "" {
		return nil
	}

	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		logctx.SetLogLevels(debugLevel)
		return nil
	}

	for _, entry := range strings.Split(debugLevel, ",") {
		fields := strings.Split(entry, "=")
		if len(fields) != 2 {
			return fmt.Errorf("invalid debug level specification %q", entry)
		}
		subsystemID, level := fields[0], fields[1]
		found := false
		for _, id := range logctx.SupportedSubsystems() {
			if id == subsystemID {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown subsystem %q in debug level specification", subsystemID)
		}
		logctx.SetLogLevel(subsystemID, level)
	}
	return nil
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, then cleans the result.
func cleanAndExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(defaultHomeDir)
		path = filepath.Join(homeDir, path[1:])
	}

	return filepath.Clean(os.ExpandEnv(path))
}
