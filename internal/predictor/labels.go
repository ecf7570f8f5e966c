package predictor

import "strings"

// prettyNames are display labels for model and report columns
var prettyNames = map[string]string{
	// Targets / outcomes
	"regular_hs_diploma_graduates_rate": "Graduation Rate (%)",
	"graduation_rate":                   "Graduation Rate (%)",
	"dropout_rate":                      "Dropout Rate (%)",
	"still_enrolled_rate":               "Still Enrolled After 4 Years (%)",
	"high_grad_rate":                    "High Graduation Category",
	"target_grad_category":              "Graduation Outcome Category",

	// Enrollment / cohort
	"cohortstudents":                 "Cohort Size (Students)",
	"eligible_cumulative_enrollment": "Cumulative Enrollment (Eligible Students)",
	"pct_senior_cohort":              "Percent of Cohort in Grade 12",
	"pct_hs_enrollment":              "Percent of Enrollment in High School Grades",

	// Attendance
	"chronicabsenteeismrate":                  "Chronic Absenteeism Rate (%)",
	"unexcused_absences_percent":              "Unexcused Absences (%)",
	"outofschool_suspension_absences_percent": "Suspension Absence Rate (%)",

	// Socioeconomic
	"percent__eligible_free_k12": "Percent Eligible for Free Meals",
	"frpm_count_k12":             "FRPM Student Count",

	// Course
	"met_uccsu_grad_reqs_rate": "UC/CSU A-G Completion Rate (%)",
	"seal_of_biliteracy_rate":  "Seal of Biliteracy Rate (%)",
	"grade_retention_ratio":    "Grade Retention Ratio",

	// Staffing ratios
	"stu_tch_ratio": "Student-Teacher Ratio",
	"stu_adm_ratio": "Student-Administrator Ratio",
	"stu_psv_ratio": "Student-Support Staff Ratio",

	// Teacher education
	"pct_associate":      "Teachers with Associate Degree (%)",
	"pct_bachelors":      "Teachers with Bachelor's Degree (%)",
	"pct_bachelors_plus": "Teachers with Bachelor's or Higher (%)",
	"pct_master":         "Teachers with Master's Degree (%)",
	"pct_master_plus":    "Teachers with Master's or Higher (%)",
	"pct_doctorate":      "Teachers with Doctorate (%)",
	"pct_juris_doctor":   "Teachers with Juris Doctor (JD) (%)",
	"pct_no_degree":      "Teachers with No Degree Reported (%)",

	// Teacher experience
	"pct_experienced":   "Experienced Teachers (%)",
	"pct_inexperienced": "Inexperienced Teachers (%)",
	"pct_first_year":    "First-Year Teachers (%)",
	"pct_second_year":   "Second-Year Teachers (%)",

	// Safety / climate
	"pct_unsafe_gr11":      "Unsafe Perception (Grade 11) (%)",
	"pct_safe_gr11":        "Safe Perception (Grade 11) (%)",
	"pct_neutral_gr11":     "Neutral Safety Perception (Grade 11) (%)",
	"avg_safety_score":     "Average Safety Score",
	"school_climate_index": "School Climate Index",
	"climate_index":        "School Climate Index",
	"conn_ratio":           "High/Low Connectedness Ratio",

	// IDs / location
	"cdscode":   "School CDS Code (ID)",
	"county":    "County",
	"latitude":  "Latitude",
	"longitude": "Longitude",

	// School type flags
	"virtual":      "Virtual School Status",
	"magnet":       "Magnet School Status",
	"yearroundyn":  "Year-Round School Status",
	"multilingual": "Multilingual Program Status",
}

// PrettyName returns the display label of a column, falling back to the
// name with underscores replaced and words capitalized
func PrettyName(name string) string {
	if label, ok := prettyNames[name]; ok {
		return label
	}
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
