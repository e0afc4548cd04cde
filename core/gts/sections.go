package gts

import (
	"github.com/trezcool/trace/core/form"
)

// section ids, as used in PUT /gts_responses/{gtsId}/{section}
const (
	SectionGeneral      = "general_information"
	SectionEducation    = "educational_background"
	SectionTrainings    = "trainings"
	SectionEmployment   = "employment_data"
	SectionSatisfaction = "job_satisfaction"
	SectionServices     = "services"
	SectionProblems     = "problems_concerns"
)

// field keys the rules and the editor refer to
const (
	FieldYearGraduated = "year_graduated"
	FieldExams         = "exams"
	FieldTrainings     = "trainings"

	FieldPursuedAdvanceDegree        = "pursued_advance_degree"
	FieldPursuedAdvanceDegreeReasons = "pursued_advance_degree_reasons"
	FieldOtherAdvanceDegreeReason    = "other_advance_degree_reason"

	FieldEmploymentNow          = "employment_now"
	FieldNonEmployedReasons     = "non_employed_reasons"
	FieldOtherNonEmployedReason = "other_non_employed_reason"
	FieldEmploymentStatus       = "employment_status"
	FieldOccupation             = "occupation"
	FieldOtherOccupation        = "other_occupation"
	FieldCompanyName            = "company_name"
	FieldCompanyAddress         = "company_address"
	FieldPlaceOfWork            = "place_of_work"
	FieldIsFirstJob             = "is_first_job"
	FieldJobRelatedToCourse     = "job_related_to_course"
	FieldOtherReasonForCourse   = "other_reason_for_course"
	FieldOtherUsefulCompetency  = "other_useful_competency"
	FieldOtherServiceAvailed    = "other_service_availed"
)

// employment_now options
const (
	EmployedYes   = "Yes"
	EmployedNo    = "No"
	NeverEmployed = "Never Employed"
)

const Other = form.DefaultSentinel

var (
	EmploymentNowOptions = []string{EmployedYes, EmployedNo, NeverEmployed}

	EmploymentStatusOptions = []string{
		"Regular or Permanent", "Temporary", "Casual", "Contractual", "Self-employed", NeverEmployed,
	}

	OccupationOptions = []string{
		"Officials of Government and Special-Interest Organizations, Corporate Executives, Managers, Managing Proprietors and Supervisors",
		"Professionals",
		"Technicians and Associate Professionals",
		"Clerks",
		"Service Workers and Shop and Market Sales Workers",
		"Farmers, Forestry Workers and Fishermen",
		"Trades and Related Workers",
		"Plant and Machine Operators and Assemblers",
		"Laborers and Unskilled Workers",
		Other,
	}

	NonEmployedReasonOptions = []string{
		"Advance or further study",
		"Family concern and decided not to find a job",
		"Health-related reason(s)",
		"Lack of work experience",
		"No job opportunity",
		"Did not look for a job",
		Other,
	}

	AdvanceDegreeReasonOptions = []string{
		"For promotion",
		"For professional development",
		Other,
	}

	ReasonForCourseOptions = []string{
		"High grades in the course or subject area(s) related to the course",
		"Good grades in high school",
		"Influence of parents or relatives",
		"Peer influence",
		"Inspired by a role model",
		"Strong passion for the profession",
		"Prospect for immediate employment",
		"Status or prestige of the profession",
		"Availability of course offering in chosen institution",
		"Prospect of career advancement",
		"Affordable for the family",
		"Prospect of attractive compensation",
		"Opportunity for employment abroad",
		"No particular choice or no better idea",
		Other,
	}

	CompetencyOptions = []string{
		"Communication skills",
		"Human Relations skills",
		"Entrepreneurial skills",
		"Information Technology skills",
		"Problem-solving skills",
		"Critical Thinking skills",
		Other,
	}

	ServiceOptions = []string{
		"Job placement",
		"Career guidance",
		"Alumni network",
		"Scholarship grants",
		Other,
	}

	SatisfactionOptions = []string{"Very satisfied", "Satisfied", "Neutral", "Dissatisfied", "Very dissatisfied"}
	RatingOptions       = []string{"Excellent", "Very good", "Good", "Fair", "Poor"}
)

var examFields = []form.Field{
	{Key: "name", Label: "Name of examination", Kind: form.KindText, Required: true},
	{Key: "date_taken", Label: "Date taken", Kind: form.KindDate, Required: true},
	{Key: "rating", Label: "Rating", Kind: form.KindText},
}

var trainingFields = []form.Field{
	{Key: "title", Label: "Title of training or advance study", Kind: form.KindText, Required: true},
	{Key: "duration", Label: "Duration and credits earned", Kind: form.KindText},
	{Key: "institution", Label: "Name of training institution, college or university", Kind: form.KindText, Required: true},
}

func multiOther(key, label, otherKey, otherLabel string, opts []string) []form.Field {
	return []form.Field{
		{
			Key: key, Label: label, Kind: form.KindMultiSelect, Options: opts,
			Sentinel: Other, OtherKey: otherKey,
		},
		{Key: otherKey, Label: otherLabel, Kind: form.KindText, DependsOn: key},
	}
}

func concat(groups ...[]form.Field) []form.Field {
	var out []form.Field
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Sections is the ordered GTS section registry.
var Sections = form.NewRegistry(
	form.Section{ID: SectionGeneral, Label: "General Information", Fields: []form.Field{
		{Key: "name", Label: "Name", Kind: form.KindName, Required: true},
		{Key: "permanent_address", Label: "Permanent address", Kind: form.KindText, Required: true},
		{Key: "email", Label: "Email", Kind: form.KindEmail, Required: true},
		{Key: "telephone", Label: "Telephone", Kind: form.KindText},
		{Key: "mobile", Label: "Mobile number", Kind: form.KindPhone, Required: true},
		{
			Key: "civil_status", Label: "Civil status", Kind: form.KindSelect, Required: true,
			Options: []string{"Single", "Married", "Separated or Divorced", "Single Parent", "Widow or Widower"},
		},
		{Key: "sex", Label: "Sex", Kind: form.KindSelect, Required: true, Options: []string{"Male", "Female"}},
		{Key: "birthday", Label: "Birthday", Kind: form.KindDate, Required: true},
		{Key: "region", Label: "Region of origin", Kind: form.KindText, Required: true},
		{Key: "province", Label: "Province", Kind: form.KindText, Required: true},
		{
			Key: "location_of_residence", Label: "Location of residence", Kind: form.KindSelect,
			Options: []string{"City", "Municipality"},
		},
	}},
	form.Section{ID: SectionEducation, Label: "Educational Background", Fields: concat(
		[]form.Field{
			{Key: "degree", Label: "Degree", Kind: form.KindText, Required: true},
			{Key: "specialization", Label: "Specialization", Kind: form.KindText},
			{Key: "college", Label: "College or university", Kind: form.KindText, Required: true},
			{Key: FieldYearGraduated, Label: "Year graduated", Kind: form.KindYear, Required: true},
			{Key: "honors", Label: "Honors or awards received", Kind: form.KindText},
			{Key: FieldExams, Label: "Professional examinations passed", Kind: form.KindGroup, Fields: examFields},
		},
		multiOther("reasons_for_course", "Reasons for taking the course", FieldOtherReasonForCourse,
			"Other reason for taking the course", ReasonForCourseOptions),
	)},
	form.Section{ID: SectionTrainings, Label: "Trainings", Fields: []form.Field{
		{Key: FieldTrainings, Label: "Trainings or advance studies attended", Kind: form.KindGroup, Fields: trainingFields},
		{Key: FieldPursuedAdvanceDegree, Label: "Have you pursued an advance degree?", Kind: form.KindBool},
		{
			Key: FieldPursuedAdvanceDegreeReasons, Label: "Reasons for pursuing an advance degree",
			Kind: form.KindMultiSelect, Options: AdvanceDegreeReasonOptions, DependsOn: FieldPursuedAdvanceDegree,
			Sentinel: Other, OtherKey: FieldOtherAdvanceDegreeReason,
		},
		{
			Key: FieldOtherAdvanceDegreeReason, Label: "Other reason for pursuing an advance degree",
			Kind: form.KindText, DependsOn: FieldPursuedAdvanceDegreeReasons,
		},
	}},
	form.Section{ID: SectionEmployment, Label: "Employment Data", Fields: EmploymentFields()},
	form.Section{ID: SectionSatisfaction, Label: "Job Satisfaction", Fields: concat(
		[]form.Field{
			{Key: "job_satisfaction", Label: "Job satisfaction", Kind: form.KindSelect, Required: true, Options: SatisfactionOptions},
			{
				Key: "curriculum_relevant", Label: "Was the curriculum relevant to your first job?",
				Kind: form.KindSelect, Options: []string{"Yes", "No"},
			},
		},
		multiOther("useful_competencies", "Competencies learned in college useful in your job", FieldOtherUsefulCompetency,
			"Other competency", CompetencyOptions),
	)},
	form.Section{ID: SectionServices, Label: "Services", Fields: concat(
		multiOther("services_availed", "Services availed from the university", FieldOtherServiceAvailed,
			"Other service", ServiceOptions),
		[]form.Field{
			{Key: "services_rating", Label: "Rating of the services", Kind: form.KindSelect, Options: RatingOptions},
		},
	)},
	form.Section{ID: SectionProblems, Label: "Problems/Concerns", Fields: []form.Field{
		{Key: "problems", Label: "Problems or concerns", Kind: form.KindText},
		{Key: "suggestions", Label: "Suggestions to improve the curriculum", Kind: form.KindText},
	}},
)

// EmploymentFields is the Employment Data section. Registration reuses it.
func EmploymentFields() []form.Field {
	return []form.Field{
		{
			Key: FieldEmploymentNow, Label: "Are you presently employed?", Kind: form.KindSelect, Required: true,
			Options: EmploymentNowOptions,
		},
		{
			Key: FieldNonEmployedReasons, Label: "Reasons why you are not yet employed", Kind: form.KindMultiSelect,
			Options: NonEmployedReasonOptions, DependsOn: FieldEmploymentNow,
			Sentinel: Other, OtherKey: FieldOtherNonEmployedReason,
		},
		{
			Key: FieldOtherNonEmployedReason, Label: "Other reason", Kind: form.KindText,
			DependsOn: FieldNonEmployedReasons,
		},
		{
			Key: FieldEmploymentStatus, Label: "Present employment status", Kind: form.KindSelect,
			Options: EmploymentStatusOptions, DependsOn: FieldEmploymentNow, Check: checkEmploymentStatus,
		},
		{
			Key: FieldOccupation, Label: "Present occupation", Kind: form.KindMultiSelect,
			Options: OccupationOptions, DependsOn: FieldEmploymentNow,
			Sentinel: Other, OtherKey: FieldOtherOccupation,
		},
		{Key: FieldOtherOccupation, Label: "Other occupation", Kind: form.KindText, DependsOn: FieldOccupation},
		{Key: FieldCompanyName, Label: "Name of company or organization", Kind: form.KindText, DependsOn: FieldEmploymentNow},
		{Key: FieldCompanyAddress, Label: "Address of company or organization", Kind: form.KindText, DependsOn: FieldEmploymentNow},
		{
			Key: FieldPlaceOfWork, Label: "Place of work", Kind: form.KindSelect,
			Options: []string{"Local", "Abroad"}, DependsOn: FieldEmploymentNow,
		},
		{Key: FieldIsFirstJob, Label: "Is this your first job after college?", Kind: form.KindBool, DependsOn: FieldEmploymentNow},
		{Key: FieldJobRelatedToCourse, Label: "Is your job related to your course?", Kind: form.KindBool, DependsOn: FieldEmploymentNow},
	}
}

func checkEmploymentStatus(v interface{}, values form.Values) string {
	if v == NeverEmployed && values.String(FieldEmploymentNow) != NeverEmployed {
		return "Please choose your present employment status."
	}
	return ""
}

// Rules are the conditional rules of the GTS form.
var Rules = []form.Rule{EmploymentRule, AdvanceDegreeRule}
