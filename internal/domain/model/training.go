package model

import (
	"fmt"
	"time"

	"fitplan/internal/domain"
)

type TrainingPreference string

const (
	TrainingGym  TrainingPreference = "gym"
	TrainingHome TrainingPreference = "home"
)

// Exercise is one prescribed movement. Sets/reps/rest stay strings so generated
// plans can carry ranges like "8-10" or "to failure".
type Exercise struct {
	Name  string   `json:"name"`
	Sets  string   `json:"sets"`
	Reps  string   `json:"reps"`
	Rest  string   `json:"rest"`
	Notes []string `json:"notes,omitempty"`
}

// TimedExercise is a warmup or cooldown block.
type TimedExercise struct {
	Name     string `json:"name"`
	Duration string `json:"duration"`
}

type WorkoutDay struct {
	Day       string          `json:"day"`
	Warmup    []TimedExercise `json:"warmup"`
	Exercises []Exercise      `json:"exercises"`
	Cooldown  []TimedExercise `json:"cooldown"`
}

type TrainingPlan struct {
	ID            string             `json:"id"`
	UserID        string             `json:"user_id"`
	ActivityLevel ActivityLevel      `json:"activity_level"`
	Preference    TrainingPreference `json:"training_preference"`
	FrequencyWeek int                `json:"frequency_per_week"`
	Intensity     Intensity          `json:"intensity"`
	Days          []WorkoutDay       `json:"workout_days"`
	Source        string             `json:"source"` // "template" | provider name
	CreatedAt     time.Time          `json:"created_at"`
}

// TrainingProfile is the input of plan generation.
type TrainingProfile struct {
	Metrics      BodyMetrics        `json:"metrics"`
	Preference   TrainingPreference `json:"training_preference"`
	Restrictions []string           `json:"restrictions,omitempty"`
}

func (p TrainingProfile) Validate() error {
	if err := p.Metrics.Validate(); err != nil {
		return err
	}
	if p.Preference != TrainingGym && p.Preference != TrainingHome {
		return domain.ErrInvalidArgument
	}
	return nil
}

// Intensity is the prescription applied to every exercise slot of a template.
type Intensity struct {
	Label         string `json:"label"`
	CompoundSets  int    `json:"compound_sets"`
	CompoundReps  int    `json:"compound_reps"`
	CompoundRest  string `json:"compound_rest"`
	AccessorySets int    `json:"accessory_sets"`
	AccessoryReps int    `json:"accessory_reps"`
	AccessoryRest string `json:"accessory_rest"`
}

type schedule struct {
	days      int
	intensity Intensity
}

var (
	intensityLight = Intensity{Label: "light", CompoundSets: 3, CompoundReps: 12, CompoundRest: "90s", AccessorySets: 2, AccessoryReps: 15, AccessoryRest: "60s"}
	intensityBase  = Intensity{Label: "moderate", CompoundSets: 4, CompoundReps: 12, CompoundRest: "60s", AccessorySets: 3, AccessoryReps: 15, AccessoryRest: "45s"}
	intensityHigh  = Intensity{Label: "high", CompoundSets: 4, CompoundReps: 10, CompoundRest: "75s", AccessorySets: 3, AccessoryReps: 12, AccessoryRest: "45s"}
	intensityPeak  = Intensity{Label: "very high", CompoundSets: 5, CompoundReps: 8, CompoundRest: "90s", AccessorySets: 3, AccessoryReps: 12, AccessoryRest: "60s"}
)

// trainingTable: activity level x preference -> day count and intensity.
var trainingTable = map[ActivityLevel]map[TrainingPreference]schedule{
	ActivitySedentary: {
		TrainingGym:  {days: 2, intensity: intensityLight},
		TrainingHome: {days: 2, intensity: intensityLight},
	},
	ActivityLightlyActive: {
		TrainingGym:  {days: 3, intensity: intensityLight},
		TrainingHome: {days: 3, intensity: intensityLight},
	},
	ActivityModeratelyActive: {
		TrainingGym:  {days: 3, intensity: intensityBase},
		TrainingHome: {days: 3, intensity: intensityBase},
	},
	ActivityVeryActive: {
		TrainingGym:  {days: 4, intensity: intensityHigh},
		TrainingHome: {days: 4, intensity: intensityBase},
	},
	ActivityExtraActive: {
		TrainingGym:  {days: 5, intensity: intensityPeak},
		TrainingHome: {days: 4, intensity: intensityHigh},
	},
}

type slot struct {
	name     string
	compound bool
}

type split struct {
	label string
	slots []slot
}

var gymSplits = []split{
	{"A", []slot{{"Squat", true}, {"Bench Press", true}, {"Bent-Over Row", true}, {"Lateral Raise", false}, {"Cable Triceps Extension", false}}},
	{"B", []slot{{"Leg Press", true}, {"Lat Pulldown", true}, {"Dumbbell Shoulder Press", true}, {"Barbell Curl", false}, {"Leg Extension", false}}},
	{"C", []slot{{"Stiff-Leg Deadlift", true}, {"Incline Bench Press", true}, {"Upright Row", true}, {"Rope Triceps Extension", false}, {"Standing Calf Raise", false}}},
	{"D", []slot{{"Deadlift", true}, {"Seated Cable Row", true}, {"Walking Lunge", true}, {"Face Pull", false}, {"Hanging Knee Raise", false}}},
}

var homeSplits = []split{
	{"A", []slot{{"Bodyweight Squat", true}, {"Push-Up", true}, {"Backpack Row", true}, {"Plank", false}, {"Glute Bridge", false}}},
	{"B", []slot{{"Reverse Lunge", true}, {"Pike Push-Up", true}, {"Superman Hold", false}, {"Bench Dip", false}, {"Calf Raise", false}}},
	{"C", []slot{{"Split Squat", true}, {"Incline Push-Up", true}, {"Doorway Row", true}, {"Mountain Climber", false}, {"Side Plank", false}}},
}

var defaultWarmup = []TimedExercise{
	{Name: "Joint Mobility", Duration: "3 min"},
	{Name: "Light Walk", Duration: "5 min"},
	{Name: "Dynamic Stretching", Duration: "5 min"},
}

var defaultCooldown = []TimedExercise{
	{Name: "Static Stretching", Duration: "5 min"},
	{Name: "Deep Breathing", Duration: "2 min"},
}

// TemplatePlan builds the deterministic workout plan for a profile from the decision table.
func TemplatePlan(p TrainingProfile) (*TrainingPlan, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s := trainingTable[p.Metrics.Activity][p.Preference]
	splits := gymSplits
	if p.Preference == TrainingHome {
		splits = homeSplits
	}

	days := make([]WorkoutDay, 0, s.days)
	for i := 0; i < s.days; i++ {
		sp := splits[i%len(splits)]
		days = append(days, WorkoutDay{
			Day:       fmt.Sprintf("Day %d - Workout %s", i+1, sp.label),
			Warmup:    append([]TimedExercise(nil), defaultWarmup...),
			Exercises: prescribe(sp.slots, s.intensity),
			Cooldown:  append([]TimedExercise(nil), defaultCooldown...),
		})
	}
	return &TrainingPlan{
		ActivityLevel: p.Metrics.Activity,
		Preference:    p.Preference,
		FrequencyWeek: s.days,
		Intensity:     s.intensity,
		Days:          days,
		Source:        "template",
		CreatedAt:     time.Now(),
	}, nil
}

func prescribe(slots []slot, in Intensity) []Exercise {
	out := make([]Exercise, 0, len(slots))
	for _, sl := range slots {
		e := Exercise{Name: sl.name}
		if sl.compound {
			e.Sets, e.Reps, e.Rest = fmt.Sprint(in.CompoundSets), fmt.Sprint(in.CompoundReps), in.CompoundRest
		} else {
			e.Sets, e.Reps, e.Rest = fmt.Sprint(in.AccessorySets), fmt.Sprint(in.AccessoryReps), in.AccessoryRest
		}
		out = append(out, e)
	}
	return out
}
