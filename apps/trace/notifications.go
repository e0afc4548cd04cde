package main

import (
	"github.com/spf13/cobra"

	"github.com/trezcool/trace/core/notification"
	"github.com/trezcool/trace/core/outcome"
	"github.com/trezcool/trace/core/user"
)

const dateTimeLayout = "2006-01-02 15:04"

func notificationsCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notifs"},
		Short:   "Your notifications",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !app.session.IsAuthenticated() {
				return app.session.Require()
			}
			ntfs, err := app.api.ListNotifications(ctx)
			if err != nil {
				return app.report(outcome.Failure(err))
			}
			app.printf("%d unread\n", notification.Unread(ntfs))
			for _, n := range ntfs {
				mark := " "
				if !n.IsRead {
					mark = "*"
				}
				app.printf("%s %s  %s  %s\n", mark, n.ID, n.CreatedAt.Local().Format(dateTimeLayout), n.Title)
				if n.Message != "" {
					app.printf("    %s\n", n.Message)
				}
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.session.IsAuthenticated() {
				return app.session.Require()
			}
			if err := app.api.MarkNotificationRead(cmd.Context(), args[0]); err != nil {
				return app.report(outcome.Failure(err))
			}
			return nil
		},
	})
	return cmd
}

func adminCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administration (admins only)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.require(cmd.Context(), user.RoleAdmin)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "pending",
		Short: "List the alumni waiting for approval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			usrs, err := app.api.PendingAlumni(cmd.Context())
			if err != nil {
				return app.report(outcome.Failure(err))
			}
			if len(usrs) == 0 {
				app.printf("No pending registrations.\n")
				return nil
			}
			for _, u := range usrs {
				app.printf("%s  %s (%s)  %s %d  registered %s\n",
					u.ID, u.FullName(), u.Username, u.Course, u.BatchYear, u.CreatedAt.Local().Format(dateTimeLayout))
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "approve <user-id>",
		Short: "Approve an alumni registration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			usr, err := app.api.ApproveUser(cmd.Context(), args[0])
			if err != nil {
				return app.report(outcome.Failure(err))
			}
			return app.report(outcome.Success(usr.FullName()+" approved.", usr))
		},
	})
	return cmd
}
