//go:build linux || darwin || freebsd

// Command nativeplat inspects the native platform layer of the host and
// runs the TCP benchmark server on top of it.
//
// Usage:
//
//	nativeplat info
//	nativeplat config platform.socket
//	nativeplat signals
//	nativeplat serve --port 14873
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
