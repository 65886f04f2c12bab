package model

import (
	"math"
	"time"

	"fitplan/internal/domain"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type ActivityLevel string

const (
	ActivitySedentary        ActivityLevel = "sedentary"
	ActivityLightlyActive    ActivityLevel = "lightly_active"
	ActivityModeratelyActive ActivityLevel = "moderately_active"
	ActivityVeryActive       ActivityLevel = "very_active"
	ActivityExtraActive      ActivityLevel = "extra_active"
)

type Goal string

const (
	GoalLoseWeight     Goal = "lose_weight"
	GoalMaintainWeight Goal = "maintain_weight"
	GoalGainWeight     Goal = "gain_weight"
)

var activityMultipliers = map[ActivityLevel]float64{
	ActivitySedentary:        1.2,
	ActivityLightlyActive:    1.375,
	ActivityModeratelyActive: 1.55,
	ActivityVeryActive:       1.725,
	ActivityExtraActive:      1.9,
}

var goalAdjustments = map[Goal]float64{
	GoalLoseWeight:     -500,
	GoalMaintainWeight: 0,
	GoalGainWeight:     500,
}

// ActivityMultiplier returns the TDEE factor for level and whether the level is known.
func ActivityMultiplier(level ActivityLevel) (float64, bool) {
	m, ok := activityMultipliers[level]
	return m, ok
}

// BodyMetrics is what the user enters on the measurements form.
type BodyMetrics struct {
	WeightKg float64       `json:"weight"`
	HeightCm float64       `json:"height"`
	Age      int           `json:"age"`
	Gender   Gender        `json:"gender"`
	Activity ActivityLevel `json:"activity_level"`
	Goal     Goal          `json:"goal"`
}

func (m BodyMetrics) Validate() error {
	if m.WeightKg <= 0 || m.HeightCm <= 0 || m.Age <= 0 {
		return domain.ErrInvalidArgument
	}
	if m.Gender != GenderMale && m.Gender != GenderFemale {
		return domain.ErrInvalidArgument
	}
	if _, ok := activityMultipliers[m.Activity]; !ok {
		return domain.ErrInvalidArgument
	}
	if _, ok := goalAdjustments[m.Goal]; !ok {
		return domain.ErrInvalidArgument
	}
	return nil
}

// BMR is the Mifflin-St Jeor basal metabolic rate in kcal/day.
func (m BodyMetrics) BMR() float64 {
	base := 10*m.WeightKg + 6.25*m.HeightCm - 5*float64(m.Age)
	if m.Gender == GenderMale {
		return base + 5
	}
	return base - 161
}

// CaloricTarget returns the rounded daily kcal target for the metrics.
func CaloricTarget(m BodyMetrics) (int, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	total := m.BMR()*activityMultipliers[m.Activity] + goalAdjustments[m.Goal]
	return int(math.Round(total)), nil
}

// NutritionProfile is the persisted user_nutrition row.
type NutritionProfile struct {
	UserID        string
	Metrics       BodyMetrics
	Preference    TrainingPreference // gym unless the user picked home
	CaloricTarget int
	UpdatedAt     time.Time
}

// NutritionalPlan is a generated plan record. Its existence is half of plan readiness.
type NutritionalPlan struct {
	ID            string
	UserID        string
	PaymentID     *string
	CaloricTarget int
	Content       []byte // JSON document returned by the generator
	CreatedAt     time.Time
}

func (p *NutritionalPlan) IsZero() bool { return p == nil || p.ID == "" }

// Macros is a daily macronutrient prescription in grams.
type Macros struct {
	ProteinG int `json:"protein_g"`
	CarbsG   int `json:"carbs_g"`
	FatG     int `json:"fat_g"`
}

// MealSlot is one meal of the template day and its share of the kcal target.
type MealSlot struct {
	Name     string   `json:"name"`
	Kcal     int      `json:"kcal"`
	Share    int      `json:"share_percent"`
	Examples []string `json:"examples"`
}

// NutritionDocument is the JSON stored in nutritional_plans.content.
type NutritionDocument struct {
	CaloricTarget int        `json:"caloric_target"`
	Goal          Goal       `json:"goal"`
	Macros        Macros     `json:"macros"`
	Meals         []MealSlot `json:"meals"`
	Source        string     `json:"source"`
}

var templateMeals = []MealSlot{
	{Name: "Breakfast", Share: 25, Examples: []string{"Scrambled eggs with wholegrain toast", "Greek yogurt with oats and fruit"}},
	{Name: "Lunch", Share: 35, Examples: []string{"Rice, beans and grilled chicken with salad", "Baked fish with potatoes and vegetables"}},
	{Name: "Snack", Share: 10, Examples: []string{"Banana with peanut butter", "Cottage cheese with nuts"}},
	{Name: "Dinner", Share: 30, Examples: []string{"Lean beef with sweet potato and greens", "Omelette with vegetables and cheese"}},
}

// TemplateNutrition splits the kcal target 30/40/30 across protein, carbs and fat
// (4/4/9 kcal per gram) and over four meals.
func TemplateNutrition(target int, goal Goal) NutritionDocument {
	kcal := float64(target)
	doc := NutritionDocument{
		CaloricTarget: target,
		Goal:          goal,
		Macros: Macros{
			ProteinG: int(math.Round(kcal * 0.30 / 4)),
			CarbsG:   int(math.Round(kcal * 0.40 / 4)),
			FatG:     int(math.Round(kcal * 0.30 / 9)),
		},
		Source: "template",
	}
	for _, m := range templateMeals {
		m.Kcal = int(math.Round(kcal * float64(m.Share) / 100))
		m.Examples = append([]string(nil), m.Examples...)
		doc.Meals = append(doc.Meals, m)
	}
	return doc
}
