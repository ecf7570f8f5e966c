package predictor

import (
	"math"
	"sort"
)

// Group is one ABC(S) indicator category
type Group struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
}

// Groups returns the ABC(S) feature groups in display order
func Groups() []Group {
	return []Group{
		{
			Key:         "A",
			Name:        "Attendance",
			Description: "How consistently students are present in school.",
			Features: []string{
				"still_enrolled_rate",
				"chronicabsenteeismrate",
				"unexcused_absences_percent",
				"grade_retention_ratio",
			},
		},
		{
			Key:         "B",
			Name:        "Behavior",
			Description: "School climate and the staff that support engagement.",
			Features: []string{
				"stu_psv_ratio",
				"stu_adm_ratio",
			},
		},
		{
			Key:         "C",
			Name:        "Course",
			Description: "Progress toward graduation expectations.",
			Features: []string{
				"met_uccsu_grad_reqs_rate",
				"pct_senior_cohort",
				"cohortstudents",
			},
		},
		{
			Key:         "S",
			Name:        "Supports",
			Description: "Staffing and socioeconomic context of the school.",
			Features: []string{
				"pct_experienced",
				"stu_tch_ratio",
				"percent__eligible_free_k12",
				"frpm_count_k12",
				"pct_bachelors_plus",
				"pct_bachelors",
			},
		},
	}
}

// AllFeatures returns every grouped feature in group order
func AllFeatures() []string {
	var out []string
	for _, g := range Groups() {
		out = append(out, g.Features...)
	}
	return out
}

// GroupOf returns the group key of feature, or "" when ungrouped
func GroupOf(feature string) string {
	for _, g := range Groups() {
		for _, f := range g.Features {
			if f == feature {
				return g.Key
			}
		}
	}
	return ""
}

// SliderSetting bounds one feature input
type SliderSetting struct {
	Min         float64 `json:"min" yaml:"min"`
	Max         float64 `json:"max" yaml:"max"`
	Default     float64 `json:"default" yaml:"default"`
	Integer     bool    `json:"integer" yaml:"integer"`
	Label       string  `json:"label" yaml:"label"`
	Description string  `json:"description" yaml:"description"`
}

// Step is the slider increment: 1 for integer features, 0.01 otherwise
func (s SliderSetting) Step() float64 {
	if s.Integer {
		return 1
	}
	return 0.01
}

// Clamp limits v to [Min, Max], rounding integer features
func (s SliderSetting) Clamp(v float64) float64 {
	if s.Integer {
		v = math.Round(v)
	}
	return math.Min(s.Max, math.Max(s.Min, v))
}

// Settings maps feature names to their slider settings
type Settings map[string]SliderSetting

// Names returns the configured feature names sorted
func (s Settings) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultSettings returns the slider settings of every ABC(S) feature
func DefaultSettings() Settings {
	return Settings{
		"still_enrolled_rate": {
			Min: 0, Max: 20, Default: 5,
			Label:       "Still Enrolled Rate (%)",
			Description: "Percent of the original graduation cohort still enrolled after 4 years without graduating.",
		},
		"chronicabsenteeismrate": {
			Min: 0, Max: 90, Default: 15,
			Label:       "Chronic Absenteeism (%)",
			Description: "Percent of students missing 10% or more of instructional days.",
		},
		"unexcused_absences_percent": {
			Min: 0, Max: 100, Default: 25,
			Label:       "Unexcused Absences (%)",
			Description: "Percent of all absences that are unexcused.",
		},
		"grade_retention_ratio": {
			Min: 0, Max: 3, Default: 1,
			Label:       "Grade Retention Ratio",
			Description: "Ratio of students retained (repeating a grade) relative to the cohort size.",
		},
		"stu_psv_ratio": {
			Min: 0, Max: 4000, Default: 300,
			Label:       "Students per Support Staff",
			Description: "Number of students per pupil-services staff (counselors, psychologists, social workers).",
		},
		"stu_adm_ratio": {
			Min: 0, Max: 2500, Default: 400,
			Label:       "Students per Admin",
			Description: "Number of students per administrator (principal, APs, etc.).",
		},
		"met_uccsu_grad_reqs_rate": {
			Min: 0, Max: 100, Default: 60,
			Label:       "Met UC/CSU Requirements (%)",
			Description: "Percent of graduates meeting A-G UC/CSU entrance requirements.",
		},
		"pct_senior_cohort": {
			Min: 0, Max: 1, Default: 0.5,
			Label:       "Pct Seniors (0-1)",
			Description: "Share of all enrolled high school students who are 12th graders.",
		},
		"cohortstudents": {
			Min: 0, Max: 1200, Default: 400, Integer: true,
			Label:       "Cohort Size",
			Description: "Number of students in the 4-year graduation cohort.",
		},
		"pct_experienced": {
			Min: 0, Max: 1, Default: 0.85,
			Label:       "Pct Experienced Teachers (0-1)",
			Description: "Proportion of teachers classified as experienced by CDE.",
		},
		"stu_tch_ratio": {
			Min: 3, Max: 40, Default: 22,
			Label:       "Student-Teacher Ratio",
			Description: "Average number of students per full-time equivalent teacher.",
		},
		"percent__eligible_free_k12": {
			Min: 0, Max: 1, Default: 0.5,
			Label:       "FRPM Eligible (0-1)",
			Description: "Proportion of K-12 students eligible for free or reduced-price meals.",
		},
		"frpm_count_k12": {
			Min: 0, Max: 4000, Default: 800, Integer: true,
			Label:       "FRPM Count",
			Description: "Number of K-12 students eligible for free or reduced-price meals.",
		},
		"pct_bachelors_plus": {
			Min: 0, Max: 1, Default: 0.25,
			Label:       "Pct Bachelor's+ (0-1)",
			Description: "Share of teachers with education beyond a bachelor's degree (e.g., MA or post-BA credential).",
		},
		"pct_bachelors": {
			Min: 0, Max: 1, Default: 0.25,
			Label:       "Pct Bachelor's (0-1)",
			Description: "Share of teachers whose highest degree is a bachelor's.",
		},
	}
}
