package gts

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/trace/core"
	"github.com/trezcool/trace/core/form"
	"github.com/trezcool/trace/core/outcome"
)

const (
	MsgSectionSaved    = "Section saved successfully."
	MsgExamRemoved     = "Exam removed."
	MsgTrainingRemoved = "Training removed."
)

// API is the part of the remote API the Editor writes through.
type API interface {
	UpdateGTSSection(ctx context.Context, gtsID, section string, payload form.Values) (*Record, error)
}

// Editor edits a GTS record one section at a time. Like form.Session, it is owned by a
// single goroutine.
type Editor struct {
	api     API
	timeout time.Duration
	logger  core.Logger
	record  Record
	session *form.Session
}

// NewEditor seeds the editing session with rec. A zero timeout means no deadline
// other than the one of the context given to each call.
func NewEditor(api API, rec Record, timeout time.Duration, logger core.Logger) (*Editor, error) {
	if logger == nil {
		logger = core.NopLogger{}
	}
	e := &Editor{api: api, timeout: timeout, logger: logger}
	if err := e.reset(rec, ""); err != nil {
		return nil, err
	}
	return e, nil
}

// NewSession opens a form session on rec, with the GTS rules applied.
func NewSession(rec Record) (*form.Session, error) {
	vals, err := rec.Values()
	if err != nil {
		return nil, err
	}
	return form.NewSession(Sections, Rules, vals), nil
}

// reset adopts rec. With a sectionID, only that section's values are taken from rec and
// edits pending in the other sections are kept.
func (e *Editor) reset(rec Record, sectionID string) error {
	vals, err := rec.Values()
	if err != nil {
		return err
	}
	if e.session == nil {
		e.session = form.NewSession(Sections, Rules, vals)
		e.record = rec
		return nil
	}

	active := e.session.Active().ID
	if sectionID != "" {
		vals, err = mergeSection(e.session.Values(), vals, sectionID)
		if err != nil {
			return err
		}
	}
	e.session.Load(vals)
	e.record = rec
	return e.session.GoTo(active)
}

// mergeSection returns cur with the fields of sectionID, "Other" texts included, taken
// from saved.
func mergeSection(cur, saved form.Values, sectionID string) (form.Values, error) {
	sec, ok := Sections.ByID(sectionID)
	if !ok {
		return nil, errors.Errorf("unknown section %q", sectionID)
	}
	for _, f := range sec.Fields {
		for _, k := range []string{f.Key, f.OtherKey} {
			if k == "" {
				continue
			}
			if v, ok := saved[k]; ok {
				cur[k] = v
			} else {
				delete(cur, k)
			}
		}
	}
	return cur, nil
}

func (e *Editor) Session() *form.Session { return e.session }

// Record is the last record known to the server.
func (e *Editor) Record() Record { return e.record }

func (e *Editor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}

// SaveSection validates the section, then sends its normalized payload. On success the
// section's values are replaced by the ones the server echoed; on failure the values
// are kept so the user can retry.
func (e *Editor) SaveSection(ctx context.Context, sectionID string) outcome.Result {
	if err := e.session.GoTo(sectionID); err != nil {
		return outcome.Failure(err)
	}
	payload, err := e.session.SectionPayload()
	if err != nil {
		return outcome.Failure(err)
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	rec, err := e.api.UpdateGTSSection(ctx, e.record.ID, sectionID, payload)
	if err != nil {
		e.logger.Error("saving GTS section failed", err, map[string]interface{}{"section": sectionID, "gts": e.record.ID})
		return outcome.Failure(errors.Wrap(err, "saving section"))
	}
	if err := e.reset(*rec, sectionID); err != nil {
		return outcome.Failure(err)
	}
	return outcome.Success(MsgSectionSaved, *rec)
}

// RemoveExam removes the exam at index i right away, then saves the shorter list. When
// the save fails the exam is put back where it was.
func (e *Editor) RemoveExam(ctx context.Context, i int) outcome.Result {
	return e.removeItem(ctx, SectionEducation, FieldExams, i, MsgExamRemoved)
}

// RemoveTraining is RemoveExam for trainings.
func (e *Editor) RemoveTraining(ctx context.Context, i int) outcome.Result {
	return e.removeItem(ctx, SectionTrainings, FieldTrainings, i, MsgTrainingRemoved)
}

func (e *Editor) removeItem(ctx context.Context, sectionID, key string, i int, msg string) outcome.Result {
	items, _ := e.session.Value(key).([]map[string]interface{})

	apply := func(items []map[string]interface{}) {
		_ = e.session.Set(key, items)
	}
	commit := func(ctx context.Context, items []map[string]interface{}) ([]map[string]interface{}, error) {
		ctx, cancel := e.withTimeout(ctx)
		defer cancel()
		rec, err := e.api.UpdateGTSSection(ctx, e.record.ID, sectionID, form.Values{key: items})
		if err != nil {
			return nil, err
		}
		if err := e.reset(*rec, sectionID); err != nil {
			return nil, err
		}
		saved, _ := e.session.Value(key).([]map[string]interface{})
		return saved, nil
	}

	err := form.Optimistic(ctx, items, form.RemoveAt[map[string]interface{}](i), apply, commit)
	if err != nil {
		e.logger.Error("removing GTS item failed", err, map[string]interface{}{"field": key, "index": i})
		return outcome.Failure(errors.Wrapf(err, "removing %s", key))
	}
	return outcome.Success(msg, e.record)
}
