// Package gts holds the Graduate Tracer Study survey: the record kept by the server,
// its seven sections, the employment and advance degree rules, and the Editor used
// to update the record section by section.
package gts

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/trezcool/trace/core/form"
)

type Exam struct {
	Name      string `json:"name"`
	DateTaken string `json:"date_taken"`
	Rating    string `json:"rating"`
}

type Training struct {
	Title       string `json:"title"`
	Duration    string `json:"duration"`
	Institution string `json:"institution"`
}

// Record is the server-owned GTS response of one alumnus.
type Record struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	// General Information
	Name                string `json:"name"`
	PermanentAddress    string `json:"permanent_address"`
	Email               string `json:"email"`
	Telephone           string `json:"telephone"`
	Mobile              string `json:"mobile"`
	CivilStatus         string `json:"civil_status"`
	Sex                 string `json:"sex"`
	Birthday            string `json:"birthday"`
	Region              string `json:"region"`
	Province            string `json:"province"`
	LocationOfResidence string `json:"location_of_residence"`

	// Educational Background
	Degree           string   `json:"degree"`
	Specialization   string   `json:"specialization"`
	College          string   `json:"college"`
	YearGraduated    int      `json:"year_graduated,omitempty"`
	Honors           string   `json:"honors"`
	Exams            []Exam   `json:"exams"`
	ReasonsForCourse []string `json:"reasons_for_course"`

	// Trainings
	Trainings                   []Training `json:"trainings"`
	PursuedAdvanceDegree        bool       `json:"pursued_advance_degree"`
	PursuedAdvanceDegreeReasons []string   `json:"pursued_advance_degree_reasons"`

	// Employment Data
	EmploymentNow      string   `json:"employment_now"`
	NonEmployedReasons []string `json:"non_employed_reasons"`
	EmploymentStatus   string   `json:"employment_status"`
	Occupation         []string `json:"occupation"`
	CompanyName        string   `json:"company_name"`
	CompanyAddress     string   `json:"company_address"`
	PlaceOfWork        string   `json:"place_of_work"`
	IsFirstJob         bool     `json:"is_first_job"`
	JobRelatedToCourse bool     `json:"job_related_to_course"`

	// Job Satisfaction
	JobSatisfaction    string   `json:"job_satisfaction"`
	CurriculumRelevant string   `json:"curriculum_relevant"`
	UsefulCompetencies []string `json:"useful_competencies"`

	// Services
	ServicesAvailed []string `json:"services_availed"`
	ServicesRating  string   `json:"services_rating"`

	// Problems/Concerns
	Problems    string `json:"problems"`
	Suggestions string `json:"suggestions"`
}

// Values flattens the record into form values, keyed by json name.
func (rec Record) Values() (form.Values, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, errors.Wrap(err, "encoding GTS record")
	}
	var vals form.Values
	if err := json.Unmarshal(data, &vals); err != nil {
		return nil, errors.Wrap(err, "decoding GTS record")
	}
	return vals, nil
}

// Merge returns a copy of rec with the given values applied on top of it.
// Unknown keys are ignored.
func (rec Record) Merge(vals form.Values) (Record, error) {
	base, err := rec.Values()
	if err != nil {
		return Record{}, err
	}
	for k, v := range vals {
		base[k] = v
	}
	data, err := json.Marshal(base)
	if err != nil {
		return Record{}, errors.Wrap(err, "encoding GTS values")
	}
	var out Record
	if err := json.Unmarshal(data, &out); err != nil {
		return Record{}, errors.Wrap(err, "decoding GTS values")
	}
	return out, nil
}
