package main

import (
	"github.com/spf13/cobra"

	"github.com/trezcool/trace/core/registration"
)

func registerCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Register as an alumni",
		Long: `register walks through the account, personal, academic and employment steps.
Each step is checked before moving on; usernames, emails and phone numbers are
checked for availability as they are entered. The new account waits for an
administrator's approval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if app.session.IsAuthenticated() {
				app.printf("Already signed in; run `trace logout` first.\n")
				return errReported
			}

			wiz := registration.NewWizard(app.api, app.conf.APITimeout, app.logger)
			fl := app.newFormFiller()
			defer fl.close()

			sess := wiz.Session()
			for {
				app.printf("Step %d of %d\n", registration.Steps.Position(sess.Active().ID)+1, registration.Steps.Len())
				if err := fl.fillSection(ctx, sess); err != nil {
					return err
				}
				if !sess.IsLast() {
					if err := wiz.Next(); err != nil {
						app.logger.Warn("registration step rejected", err)
					}
					continue
				}

				res := wiz.Submit(ctx)
				if res.OK() {
					if err := app.report(res); err != nil {
						return err
					}
					app.printf("Sign in with `trace login` once your account is approved.\n")
					return nil
				}
				// field errors move the wizard back to their step: fill it again
				if len(sess.Errors()) == 0 {
					return app.report(res)
				}
				_ = app.report(res)
			}
		},
	}
}
