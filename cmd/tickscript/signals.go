package main

import (
	"context"
	"os/signal"
	"syscall"
)

// contextCancelledOnSigintSigterm returns a context that is cancelled on reception of SIGINT or SIGTERM,
// subcommands then save the world and return.
func contextCancelledOnSigintSigterm() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

