// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command ogpnoded is the composition root wiring the core packages
// together: it loads node configuration and the block-0 genesis document,
// builds a blockchain.BlockChain from it, and runs until interrupted.
// Networking, RPC and storage are out of scope (spec §1 non-goals) - this
// binary only proves the core wires together end to end.
package main

import (
	"fmt"
	"os"

	"github.com/ogprotocol/ogpnode/blockchain"
	"github.com/ogprotocol/ogpnode/internal/config"
	"github.com/ogprotocol/ogpnode/internal/logctx"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log := logctx.Main()
	log.Infof("loading genesis from %s", cfg.Genesis)

	genesis := cfg.ParsedGenesis()
	block0, err := genesis.Block0()
	if err != nil {
		return fmt.Errorf("ogpnoded: building block0: %w", err)
	}

	chain, err := blockchain.New(block0)
	if err != nil {
		return fmt.Errorf("ogpnoded: initializing chain: %w", err)
	}

	log.Infof("chain initialized, preferred tip %s", chain.PreferredBranch())

	interrupt := interruptListener()
	<-interrupt
	log.Info("shutdown signal received, exiting")
	return nil
}
