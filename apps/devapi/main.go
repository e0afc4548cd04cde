// Command devapi serves an in-memory TRACE API on the configured stub address.
// An approved admin account (admin / $<ENV>_STUBADMINPASSWORD) is created at start.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/trace/apps/devapi/echo"
	"github.com/trezcool/trace/core"
	"github.com/trezcool/trace/core/user"
	"github.com/trezcool/trace/services/email"
	"github.com/trezcool/trace/services/logger"
)

func main() {
	std := log.New(os.Stdout, "DEVAPI : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.LoadConfig("")
	if err != nil {
		std.Fatalf("%+v", err)
	}
	user.PhoneRegion = conf.PhoneRegion
	logger := logsvc.NewRollbarLogger(std, conf, "devapi")
	defer logger.Close()

	if err := run(conf, logger); err != nil {
		logger.Fatal("devapi stopped", err)
	}
}

func run(conf *core.Config, logger core.Logger) error {
	store := echoapi.NewStore()
	if _, err := store.CreateUser(user.User{
		Username:   "admin",
		Email:      "admin@trace.local",
		FirstName:  "Trace",
		LastName:   "Admin",
		Role:       user.RoleAdmin,
		IsApproved: true,
	}, conf.StubAdminPassword); err != nil {
		return errors.Wrap(err, "creating admin account")
	}

	var mailer core.EmailService
	if conf.SendgridAPIKey != "" {
		mailer = emailsvc.NewSendgridService(conf, logger)
	} else {
		mailer = emailsvc.NewConsoleService(conf, logger, os.Stdout)
	}

	app := echoapi.NewServer(&echoapi.Options{
		Conf:   conf,
		Logger: logger,
		Store:  store,
		Mailer: mailer,
	})

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("devapi listening on " + conf.StubAddress)
		serverErrors <- app.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "server error")
		}
		return nil
	case sig := <-shutdown:
		logger.Info("shutting down", map[string]interface{}{"signal": sig.String()})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return errors.Wrap(app.Stop(ctx), "graceful shutdown")
	}
}
