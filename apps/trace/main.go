// Command trace is the terminal client of the TRACE alumni tracer: registration,
// the Graduate Tracer Study survey, events with QR check-in, notifications and the
// administrator's approvals.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/trezcool/trace/core"
	"github.com/trezcool/trace/core/auth"
	"github.com/trezcool/trace/core/user"
	"github.com/trezcool/trace/services/logger"
	"github.com/trezcool/trace/storage/session"
)

func main() {
	std := log.New(os.Stderr, "TRACE : ", log.LstdFlags|log.Lshortfile)

	conf, err := core.LoadConfig("")
	if err != nil {
		std.Fatalf("%+v", err)
	}
	user.PhoneRegion = conf.PhoneRegion

	logger := logsvc.NewRollbarLogger(std, conf, "trace")
	logger.Quiet(!conf.Debug)

	sess := auth.NewSession(sessionstore.NewFileStore(conf.SessionFile))
	if err := sess.Init(); err != nil {
		logger.Fatal("loading session failed", err)
	}

	app := newApp(conf, logger, sess, newSurveyDriver(os.Stdout), os.Stdout)
	err = newRootCmd(app).Execute()
	logger.Close()
	if err != nil {
		if err != errReported {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(app *cliApp) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "trace",
		Short: "TRACE alumni tracer client",
		Long: `trace talks to the TRACE API on behalf of alumni and administrators.

Alumni register, fill in the Graduate Tracer Study, browse events and check in
with an event's QR code once approved. Administrators approve registrations and
manage events.`,
		Version:       app.conf.Build,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(loginCmd(app))
	rootCmd.AddCommand(logoutCmd(app))
	rootCmd.AddCommand(whoamiCmd(app))
	rootCmd.AddCommand(registerCmd(app))
	rootCmd.AddCommand(gtsCmd(app))
	rootCmd.AddCommand(eventsCmd(app))
	rootCmd.AddCommand(checkinCmd(app))
	rootCmd.AddCommand(notificationsCmd(app))
	rootCmd.AddCommand(adminCmd(app))
	rootCmd.AddCommand(settingsCmd(app))
	return rootCmd
}
