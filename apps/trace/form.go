package main

import (
	"context"
	"fmt"

	"github.com/trezcool/trace/core/availability"
	"github.com/trezcool/trace/core/form"
	"github.com/trezcool/trace/core/outcome"
)

// skipOption lets an optional select be left empty.
const skipOption = "(skip)"

// formFiller prompts the fields of a form.Session's active section until they pass
// validation. Uniqueness checks run right after the value was entered.
type formFiller struct {
	prompt  PromptDriver
	checker *availability.Checker
	results chan availability.Result
}

func (app *cliApp) newFormFiller() *formFiller {
	fl := &formFiller{
		prompt:  app.prompt,
		results: make(chan availability.Result, 8),
	}
	// answers are final once entered: nothing to debounce
	fl.checker = availability.NewChecker(app.api, func(res availability.Result) {
		select {
		case fl.results <- res:
		default:
		}
	}, availability.WithDebounce(0), availability.WithTimeout(app.conf.APITimeout), availability.WithLogger(app.logger))
	return fl
}

func (fl *formFiller) close() {
	fl.checker.Close()
}

func (fl *formFiller) info(ctx context.Context, format string, args ...interface{}) error {
	return fl.prompt.Info(ctx, fmt.Sprintf(format, args...))
}

// fillSection asks every visible field of the active section, then only the invalid
// ones until the section validates.
func (fl *formFiller) fillSection(ctx context.Context, sess *form.Session) error {
	sec := sess.Active()
	if err := fl.info(ctx, "== %s ==", sec.Label); err != nil {
		return err
	}

	errs := sess.Errors()
	onlyInvalid := false
	for {
		for _, f := range sec.Fields {
			if !sess.Visible(f.Key) {
				continue
			}
			msg, invalid := errs[f.Key]
			if onlyInvalid && !invalid {
				continue
			}
			if invalid {
				if err := fl.info(ctx, "✘ %s: %s", f.Label, msg); err != nil {
					return err
				}
			}
			if err := fl.ask(ctx, sess, f, invalid); err != nil {
				return err
			}
		}
		if sess.Validate() == nil {
			return nil
		}
		errs = sess.Errors()
		onlyInvalid = true
		if err := fl.info(ctx, outcome.MsgInvalid); err != nil {
			return err
		}
	}
}

func (fl *formFiller) label(sess *form.Session, f form.Field) string {
	if sess.Required(f.Key) {
		return f.Label + " *"
	}
	return f.Label
}

func (fl *formFiller) ask(ctx context.Context, sess *form.Session, f form.Field, invalid bool) error {
	label := fl.label(sess, f)
	cur := sess.Value(f.Key)

	switch f.Kind {
	case form.KindBool:
		b, _ := cur.(bool)
		ans, err := fl.prompt.Confirm(ctx, ConfirmConfig{Message: label, Default: b, Help: f.Help})
		if err != nil {
			return err
		}
		return sess.Set(f.Key, ans)

	case form.KindSelect:
		opts := f.Options
		if !sess.Required(f.Key) {
			opts = append([]string{skipOption}, f.Options...)
		}
		s, _ := cur.(string)
		def := indexOf(opts, s)
		if def < 0 {
			def = 0
		}
		i, err := fl.prompt.Select(ctx, SelectConfig{Message: label, Options: opts, DefaultIndex: def, Help: f.Help})
		if err != nil {
			return err
		}
		if i < 0 || opts[i] == skipOption {
			return sess.Set(f.Key, "")
		}
		return sess.Set(f.Key, opts[i])

	case form.KindMultiSelect:
		cfg := SelectConfig{
			Message:  label,
			Options:  f.Options,
			Defaults: indicesOf(f.Options, form.Values{f.Key: cur}.Strings(f.Key)),
			Help:     f.Help,
		}
		idx, err := fl.prompt.MultiSelect(ctx, cfg)
		if err != nil {
			return err
		}
		return sess.Set(f.Key, defaultsFromIndices(f.Options, idx))

	case form.KindGroup:
		return fl.askGroup(ctx, sess, f, invalid)

	case form.KindPassword, form.KindPasswordConfirm:
		s, err := fl.prompt.Password(ctx, InputConfig{Message: label, Help: f.Help})
		if err != nil {
			return err
		}
		return sess.Set(f.Key, s)
	}

	def := ""
	if !form.IsEmpty(cur) {
		def = fmt.Sprint(cur)
	}
	s, err := fl.prompt.Input(ctx, InputConfig{Message: label, Default: def, Help: f.Help})
	if err != nil {
		return err
	}
	if err := sess.Set(f.Key, s); err != nil {
		return err
	}
	return fl.checkAvailability(ctx, sess, f, s)
}

// askGroup adds items to a repeatable group. An invalid group may be emptied first.
func (fl *formFiller) askGroup(ctx context.Context, sess *form.Session, f form.Field, invalid bool) error {
	items, _ := form.Coerce(f, sess.Value(f.Key)).([]map[string]interface{})
	if invalid && len(items) > 0 {
		discard, err := fl.prompt.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Discard the %d item(s) of %s?", len(items), f.Label), Default: true})
		if err != nil {
			return err
		}
		if discard {
			items = nil
		}
	}
	if err := fl.info(ctx, "%s: %d item(s)", f.Label, len(items)); err != nil {
		return err
	}

	for {
		add, err := fl.prompt.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Add an item to %s?", f.Label)})
		if err != nil {
			return err
		}
		if !add {
			break
		}
		item := make(map[string]interface{}, len(f.Fields))
		for _, sub := range f.Fields {
			msg := sub.Label
			if sub.Required {
				msg += " *"
			}
			s, err := fl.prompt.Input(ctx, InputConfig{Message: msg, Help: sub.Help})
			if err != nil {
				return err
			}
			item[sub.Key] = s
		}
		items = append(items, item)
	}
	return sess.Set(f.Key, items)
}

// checkAvailability looks value up when the field asks for it and waits for the
// answer. A taken value becomes the field's error.
func (fl *formFiller) checkAvailability(ctx context.Context, sess *form.Session, f form.Field, value string) error {
	if f.Availability == "" || !availability.Eligible(f.Availability, value) {
		return nil
	}
	fl.checker.Check(f.Key, f.Availability, value)
	for {
		select {
		case res := <-fl.results:
			if res.Key != f.Key || res.Value != value {
				continue // stale
			}
			sess.SetAvailability(res)
			switch {
			case res.State == availability.Taken:
				return fl.info(ctx, "✘ %s", res.Message)
			case res.State == availability.Unknown && res.Message != "":
				return fl.info(ctx, "! %s", res.Message)
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
