package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pitabwire/util"

	universei18n "github.com/klablink/meteor-universe-i18n"
)

// initContext starts a context that listens for interrupts allowing fast fails.
func initContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	go func() {
		<-sigc
		cancel()
	}()
	return ctx, cancel
}

func main() {
	ctx, cancel := initContext()
	defer cancel()

	service, err := universei18n.NewService(ctx, "universe-i18n")
	if err != nil {
		util.Log(ctx).WithError(err).Fatal("could not assemble locale service")
	}

	if err = service.Run(ctx); err != nil {
		service.Log(ctx).WithError(err).Fatal("locale service stopped")
	}
}
