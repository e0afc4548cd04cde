package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/trace/core"
	"github.com/trezcool/trace/core/form"
	"github.com/trezcool/trace/core/gts"
	"github.com/trezcool/trace/core/outcome"
	"github.com/trezcool/trace/core/user"
)

func gtsCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gts",
		Short: "Graduate Tracer Study survey",
	}
	cmd.AddCommand(gtsShowCmd(app))
	cmd.AddCommand(gtsEditCmd(app))
	cmd.AddCommand(gtsRemoveCmd(app, "remove-exam", gts.FieldExams, "Remove a professional examination", (*gts.Editor).RemoveExam))
	cmd.AddCommand(gtsRemoveCmd(app, "remove-training", gts.FieldTrainings, "Remove a training or advance study", (*gts.Editor).RemoveTraining))
	return cmd
}

// loadRecord fetches the GTS record of userID, the signed-in alumni's when empty.
func (app *cliApp) loadRecord(ctx context.Context, userID string) (*gts.Record, error) {
	if userID == "" {
		if err := app.require(ctx, user.RoleAlumni); err != nil {
			return nil, err
		}
		var err error
		if userID, err = app.userID(ctx); err != nil {
			return nil, app.report(outcome.Failure(err))
		}
	} else if err := app.require(ctx, user.RoleAdmin); err != nil {
		return nil, err
	}

	rec, err := app.api.GetGTSRecord(ctx, userID)
	if err != nil {
		return nil, app.report(outcome.Failure(err))
	}
	return rec, nil
}

func gtsShowCmd(app *cliApp) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a GTS record, section by section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := app.loadRecord(cmd.Context(), userID)
			if err != nil {
				return err
			}
			sess, err := gts.NewSession(*rec)
			if err != nil {
				return err
			}
			app.printRecord(sess)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "id of the alumni whose record to show (admins only)")
	return cmd
}

func (app *cliApp) printRecord(sess *form.Session) {
	for i, sec := range gts.Sections.Sections() {
		app.printf("%d. %s [%s]\n", i+1, sec.Label, sec.ID)
		for _, f := range sec.Fields {
			if !sess.Visible(f.Key) {
				continue
			}
			v := sess.Value(f.Key)
			if f.Kind == form.KindGroup {
				items, _ := form.Coerce(f, v).([]map[string]interface{})
				app.printf("   %s: %d\n", f.Label, len(items))
				for j, item := range items {
					app.printf("     %d) %s\n", j+1, formatItem(f, item))
				}
				continue
			}
			app.printf("   %s: %s\n", f.Label, formatValue(v))
		}
	}
}

func formatValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "-"
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case []string:
		if len(v) == 0 {
			return "-"
		}
		return strings.Join(v, ", ")
	case string:
		if v == "" {
			return "-"
		}
		return v
	}
	return fmt.Sprint(v)
}

func formatItem(f form.Field, item map[string]interface{}) string {
	parts := make([]string, 0, len(f.Fields))
	for _, sub := range f.Fields {
		if s := formatValue(item[sub.Key]); s != "-" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " | ")
}

func gtsEditCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "edit [section]",
		Short: "Edit one section of your GTS record",
		Long: "edit prompts the fields of a section, then saves it. Sections: " +
			strings.Join(sectionIDs(), ", ") + ".",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rec, err := app.loadRecord(ctx, "")
			if err != nil {
				return err
			}
			ed, err := gts.NewEditor(app.api, *rec, app.conf.APITimeout, app.logger)
			if err != nil {
				return err
			}

			var sectionID string
			if len(args) > 0 {
				sectionID = args[0]
			} else if sectionID, err = app.pickSection(ctx); err != nil {
				return err
			}
			if err := ed.Session().GoTo(sectionID); err != nil {
				return errors.Wrapf(err, "valid sections: %s", strings.Join(sectionIDs(), ", "))
			}

			fl := app.newFormFiller()
			defer fl.close()
			for {
				if err := fl.fillSection(ctx, ed.Session()); err != nil {
					return err
				}
				res := ed.SaveSection(ctx, sectionID)
				if res.OK() || len(ed.Session().Errors()) == 0 {
					return app.report(res)
				}
				// server-side field errors: ask the fields again
				_ = app.report(res)
			}
		},
	}
}

func sectionIDs() []string {
	secs := gts.Sections.Sections()
	ids := make([]string, len(secs))
	for i, sec := range secs {
		ids[i] = sec.ID
	}
	return ids
}

func (app *cliApp) pickSection(ctx context.Context) (string, error) {
	secs := gts.Sections.Sections()
	labels := make([]string, len(secs))
	for i, sec := range secs {
		labels[i] = sec.Label
	}
	i, err := app.prompt.Select(ctx, SelectConfig{Message: "Section to edit", Options: labels})
	if err != nil {
		return "", err
	}
	if i < 0 || i >= len(secs) {
		return "", core.NewArgumentError("no section selected")
	}
	return secs[i].ID, nil
}

func gtsRemoveCmd(app *cliApp, use, key, short string, remove func(*gts.Editor, context.Context, int) outcome.Result) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <number>",
		Short: short + ", as numbered by `trace gts show`",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return core.NewArgumentError("the item number must be a positive integer")
			}
			rec, err := app.loadRecord(ctx, "")
			if err != nil {
				return err
			}
			ed, err := gts.NewEditor(app.api, *rec, app.conf.APITimeout, app.logger)
			if err != nil {
				return err
			}
			items, _ := ed.Session().Value(key).([]map[string]interface{})
			if n > len(items) {
				return core.NewArgumentError(fmt.Sprintf("there is no item %d, the list has %d", n, len(items)))
			}
			return app.report(remove(ed, ctx, n-1))
		},
	}
}
