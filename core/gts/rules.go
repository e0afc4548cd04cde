package gts

import (
	"github.com/trezcool/trace/core/form"
)

var employmentOnly = []string{
	FieldEmploymentStatus,
	FieldPlaceOfWork,
	FieldCompanyName,
	FieldCompanyAddress,
	FieldOccupation,
}

var jobDetails = []string{FieldIsFirstJob, FieldJobRelatedToCourse}

// EmploymentRule drives the Employment Data section off "Are you presently employed?".
var EmploymentRule = form.Rule{
	Branch: FieldEmploymentNow,
	Apply: func(branch interface{}, values form.Values) form.Effect {
		switch branch {
		case EmployedYes:
			eff := form.Effect{
				Require: employmentOnly,
				Show:    jobDetails,
				Hide:    []string{FieldNonEmployedReasons},
			}
			if values.String(FieldEmploymentStatus) == NeverEmployed {
				eff.Patch = form.Values{FieldEmploymentStatus: ""}
			}
			return eff
		case EmployedNo:
			return form.Effect{
				Require: []string{FieldNonEmployedReasons},
				Hide:    append(append([]string{}, employmentOnly...), jobDetails...),
			}
		case NeverEmployed:
			return form.Effect{
				Show: []string{FieldEmploymentStatus},
				Hide: []string{
					FieldPlaceOfWork, FieldCompanyName, FieldCompanyAddress, FieldOccupation,
					FieldNonEmployedReasons, FieldIsFirstJob, FieldJobRelatedToCourse,
				},
				Patch: form.Values{FieldEmploymentStatus: NeverEmployed},
			}
		default:
			return form.Effect{Hide: append(append([]string{FieldNonEmployedReasons}, employmentOnly...), jobDetails...)}
		}
	},
}

// AdvanceDegreeRule shows the reasons for pursuing an advance degree, without requiring any.
var AdvanceDegreeRule = form.Rule{
	Branch: FieldPursuedAdvanceDegree,
	Apply: func(branch interface{}, _ form.Values) form.Effect {
		if b, _ := branch.(bool); b {
			return form.Effect{Show: []string{FieldPursuedAdvanceDegreeReasons}}
		}
		return form.Effect{Hide: []string{FieldPursuedAdvanceDegreeReasons}}
	},
}
