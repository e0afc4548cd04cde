package main

import (
	"context"
	"os"
	"regexp"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/trace/core/event"
	"github.com/trezcool/trace/core/form"
	"github.com/trezcool/trace/core/outcome"
	"github.com/trezcool/trace/core/user"
)

const (
	msgEventCreated = "Event created."
	msgEventUpdated = "Event updated."
	msgEventDeleted = "Event deleted."
	msgCheckedIn    = "Checked in. Enjoy the event!"
)

func eventsCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Alumni events",
	}
	cmd.AddCommand(eventsListCmd(app))
	cmd.AddCommand(eventsCreateCmd(app))
	cmd.AddCommand(eventsUpdateCmd(app))
	cmd.AddCommand(eventsDeleteCmd(app))
	cmd.AddCommand(eventsQRCmd(app))
	return cmd
}

func eventsListCmd(app *cliApp) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List upcoming events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.require(ctx); err != nil {
				return err
			}
			evts, err := app.api.ListEvents(ctx, search)
			if err != nil {
				return app.report(outcome.Failure(err))
			}
			if len(evts) == 0 {
				app.printf("No events found.\n")
				return nil
			}
			pattern := regexp.QuoteMeta(search)
			for _, evt := range evts {
				app.printEvent(evt, pattern)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only events whose title, venue or description contain this text")
	return cmd
}

func (app *cliApp) printEvent(evt event.Event, pattern string) {
	hl := func(s string) string { return form.Highlight(s, pattern, app.hlPre, app.hlPost) }
	app.printf("%s  %s\n", evt.ID, hl(evt.Title))
	seats := "unlimited"
	if evt.Capacity > 0 {
		seats = formatValue(evt.Capacity)
		if evt.IsFull() {
			seats += ", full"
		}
	}
	app.printf("    %s at %s, %d attending (%s)\n", evt.Date, hl(evt.Venue), evt.Attendees, seats)
	if evt.Description != "" {
		app.printf("    %s\n", hl(evt.Description))
	}
}

type eventFlags struct {
	ne event.NewEvent
}

func (ef *eventFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ef.ne.Title, "title", "", "event title")
	cmd.Flags().StringVar(&ef.ne.Venue, "venue", "", "event venue")
	cmd.Flags().StringVar(&ef.ne.Date, "date", "", "event date, YYYY-MM-DD")
	cmd.Flags().StringVar(&ef.ne.Description, "description", "", "event description")
	cmd.Flags().IntVar(&ef.ne.Capacity, "capacity", 0, "maximum attendees, 0 for unlimited")
}

// complete prompts the required fields not given as flags.
func (ef *eventFlags) complete(ctx context.Context, prompt PromptDriver) error {
	for _, f := range []struct {
		label string
		dst   *string
	}{
		{"Title", &ef.ne.Title},
		{"Venue", &ef.ne.Venue},
		{"Date (YYYY-MM-DD)", &ef.ne.Date},
	} {
		if *f.dst != "" {
			continue
		}
		s, err := prompt.Input(ctx, InputConfig{Message: f.label})
		if err != nil {
			return err
		}
		*f.dst = s
	}
	return nil
}

func eventsCreateCmd(app *cliApp) *cobra.Command {
	var ef eventFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event (admins only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.require(ctx, user.RoleAdmin); err != nil {
				return err
			}
			if err := ef.complete(ctx, app.prompt); err != nil {
				return err
			}
			if err := ef.ne.Validate(); err != nil {
				return app.report(outcome.Failure(err))
			}
			evt, err := app.api.CreateEvent(ctx, ef.ne)
			if err != nil {
				return app.report(outcome.Failure(err))
			}
			if err := app.report(outcome.Success(msgEventCreated, evt)); err != nil {
				return err
			}
			app.printEvent(*evt, "")
			return nil
		},
	}
	ef.register(cmd)
	return cmd
}

func eventsUpdateCmd(app *cliApp) *cobra.Command {
	var ef eventFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an event (admins only); flags not given keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.require(ctx, user.RoleAdmin); err != nil {
				return err
			}
			cur, err := app.api.GetEvent(ctx, args[0])
			if err != nil {
				return app.report(outcome.Failure(err))
			}

			ne := event.NewEvent{
				Title:       cur.Title,
				Description: cur.Description,
				Venue:       cur.Venue,
				Date:        cur.Date,
				Capacity:    cur.Capacity,
			}
			flags := cmd.Flags()
			if flags.Changed("title") {
				ne.Title = ef.ne.Title
			}
			if flags.Changed("venue") {
				ne.Venue = ef.ne.Venue
			}
			if flags.Changed("date") {
				ne.Date = ef.ne.Date
			}
			if flags.Changed("description") {
				ne.Description = ef.ne.Description
			}
			if flags.Changed("capacity") {
				ne.Capacity = ef.ne.Capacity
			}
			if err := ne.Validate(); err != nil {
				return app.report(outcome.Failure(err))
			}

			evt, err := app.api.UpdateEvent(ctx, cur.ID, ne)
			if err != nil {
				return app.report(outcome.Failure(err))
			}
			if err := app.report(outcome.Success(msgEventUpdated, evt)); err != nil {
				return err
			}
			app.printEvent(*evt, "")
			return nil
		},
	}
	ef.register(cmd)
	return cmd
}

func eventsDeleteCmd(app *cliApp) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an event (admins only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.require(ctx, user.RoleAdmin); err != nil {
				return err
			}
			evt, err := app.api.GetEvent(ctx, args[0])
			if err != nil {
				return app.report(outcome.Failure(err))
			}
			if !yes {
				ok, err := app.prompt.Confirm(ctx, ConfirmConfig{Message: "Delete " + evt.Title + "?"})
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}
			if err := app.api.DeleteEvent(ctx, evt.ID); err != nil {
				return app.report(outcome.Failure(err))
			}
			return app.report(outcome.Success(msgEventDeleted, nil))
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func eventsQRCmd(app *cliApp) *cobra.Command {
	var (
		pngPath string
		size    int
	)
	cmd := &cobra.Command{
		Use:   "qr <id>",
		Short: "Show the check-in QR code of an event (admins only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.require(ctx, user.RoleAdmin); err != nil {
				return err
			}
			evt, err := app.api.GetEvent(ctx, args[0])
			if err != nil {
				return app.report(outcome.Failure(err))
			}
			if evt.CheckinToken == "" {
				return errors.Errorf("event %s has no check-in token", evt.ID)
			}
			payload := event.CheckinPayload(evt.ID, evt.CheckinToken)

			if pngPath != "" {
				png, err := event.QRCodePNG(payload, size)
				if err != nil {
					return err
				}
				if err := os.WriteFile(pngPath, png, 0644); err != nil {
					return errors.Wrap(err, "writing QR code")
				}
				app.printf("QR code of %s written to %s\n", evt.Title, pngPath)
				return nil
			}

			qr, err := event.QRCodeText(payload)
			if err != nil {
				return err
			}
			app.printf("%s\n%s\n", qr, payload)
			return nil
		},
	}
	cmd.Flags().StringVar(&pngPath, "png", "", "write the QR code to this PNG file instead of the terminal")
	cmd.Flags().IntVar(&size, "size", event.DefaultQRSize, "PNG side in pixels")
	return cmd
}

func checkinCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "checkin <code>",
		Short: "Check in to an event with the text of its QR code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.require(ctx, user.RoleAlumni); err != nil {
				return err
			}
			eventID, token, err := event.ParseCheckinPayload(args[0])
			if err != nil {
				return err
			}
			att, err := app.api.CheckIn(ctx, eventID, token)
			if err != nil {
				return app.report(outcome.Failure(err))
			}
			return app.report(outcome.Success(msgCheckedIn, att))
		},
	}
}
