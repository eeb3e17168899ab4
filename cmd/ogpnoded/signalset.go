// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"syscall"
)

// interruptSignals defines the default signals to catch in order to do a
// clean shutdown.
var interruptSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
