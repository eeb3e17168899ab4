// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"os/signal"
)

// interruptListener returns a channel that is closed the first time an
// interrupt signal (SIGINT/SIGTERM) is received. A second signal while the
// first is being handled terminates the process immediately, matching
// dcrd's own shutdown behavior (one graceful attempt, then force quit).
func interruptListener() <-chan struct{} {
	c := make(chan struct{})
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, interruptSignals...)
		<-sigChan
		close(c)

		// A second signal forces an immediate, ungraceful exit.
		<-sigChan
		os.Exit(1)
	}()
	return c
}
