package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"edaworkspace/domain/study"
)

// DemoStudyID identifies the built-in demo study
const DemoStudyID = "DS_demo01"

// DemoConfig sizes the generated demo population
type DemoConfig struct {
	Households       int
	MaxParticipants  int
	MaxObservations  int
	MissingRate      float64
	StartDate        time.Time
	Seed             int64
	DisplayName      string
	ProjectID        string
	RecordAttributes map[string]string
}

// DefaultDemoConfig returns a small deterministic population
func DefaultDemoConfig() DemoConfig {
	return DemoConfig{
		Households:      60,
		MaxParticipants: 5,
		MaxObservations: 3,
		MissingRate:     0.05,
		StartDate:       time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC),
		Seed:            42,
		DisplayName:     "Household Health Demo",
		ProjectID:       "ClinEpiDB",
		RecordAttributes: map[string]string{
			"summary":      "A longitudinal household cohort with participant and visit level measurements.",
			"project_id":   "ClinEpiDB",
			"study_design": "Longitudinal cohort",
			"country":      "Kenya",
		},
	}
}

func order(n int) *int { return &n }

// DemoMetadata returns the demo study's entity tree, deliberately not in display order
func DemoMetadata() *study.StudyMetadata {
	return &study.StudyMetadata{
		ID: DemoStudyID,
		RootEntity: study.StudyEntity{
			ID:                "household",
			DisplayName:       "Household",
			DisplayNamePlural: "Households",
			Description:       "A dwelling and the people sharing it.",
			Variables: []study.StudyVariable{
				{ID: "water_source", DisplayName: "Water source", ProviderLabel: "drinking_water", Description: "Main source of drinking water", Type: study.TypeString, DataShape: study.ShapeCategorical, Vocabulary: []string{"Piped", "Well", "River"}},
				{ID: "region", DisplayName: "Region", ProviderLabel: "admin1", Description: "Administrative region", Type: study.TypeString, DataShape: study.ShapeCategorical, DisplayOrder: order(1), Vocabulary: []string{"North", "South", "East", "West"}},
				{ID: "household_size", DisplayName: "Household size", ProviderLabel: "hh_size", Description: "Number of people living in the household", Type: study.TypeInteger, DataShape: study.ShapeContinuous, DisplayOrder: order(2)},
				{ID: "dwelling", DisplayName: "Dwelling", Description: "Construction of the dwelling", Type: study.TypeCategory},
				{ID: "roof_type", DisplayName: "Roof material", ProviderLabel: "roof", ParentID: "dwelling", Type: study.TypeString, DataShape: study.ShapeCategorical, Vocabulary: []string{"Metal", "Thatch", "Tile"}},
				{ID: "floor_type", DisplayName: "Floor material", ProviderLabel: "floor", ParentID: "dwelling", Type: study.TypeString, DataShape: study.ShapeCategorical, Vocabulary: []string{"Earth", "Cement", "Wood"}},
				{ID: "internal_code", DisplayName: "Internal code", Type: study.TypeString, DisplayType: study.DisplayHidden},
			},
			Children: []study.StudyEntity{
				{
					ID:                "participant",
					DisplayName:       "Participant",
					DisplayNamePlural: "Participants",
					Description:       "A person enrolled in the cohort.",
					Variables: []study.StudyVariable{
						{ID: "symptoms", DisplayName: "Symptoms", Description: "Symptoms reported at enrollment", Type: study.TypeCategory, DisplayType: study.DisplayMultifilter},
						{ID: "fever", DisplayName: "Fever", ProviderLabel: "sx_fever", Description: "Reported a fever", ParentID: "symptoms", Type: study.TypeString, DataShape: study.ShapeBinary, Vocabulary: []string{"Yes", "No"}},
						{ID: "cough", DisplayName: "Cough", ProviderLabel: "sx_cough", Description: "Reported a persistent cough", ParentID: "symptoms", Type: study.TypeString, DataShape: study.ShapeBinary, Vocabulary: []string{"Yes", "No"}},
						{ID: "diarrhea", DisplayName: "Diarrhea", ProviderLabel: "sx_diarrhea", Description: "Reported diarrhea", ParentID: "symptoms", Type: study.TypeString, DataShape: study.ShapeBinary, Vocabulary: []string{"Yes", "No"}},
						{ID: "sex", DisplayName: "Sex", ProviderLabel: "sex", Type: study.TypeString, DataShape: study.ShapeBinary, DisplayOrder: order(2), Vocabulary: []string{"Female", "Male"}},
						{ID: "age", DisplayName: "Age", ProviderLabel: "age_years", Description: "Age at enrollment", Type: study.TypeNumber, DataShape: study.ShapeContinuous, DisplayOrder: order(1), Units: "years"},
						{ID: "enrollment_date", DisplayName: "Enrollment date", Type: study.TypeDate, DataShape: study.ShapeContinuous},
					},
					Children: []study.StudyEntity{
						{
							ID:                "observation",
							DisplayName:       "Observation",
							DisplayNamePlural: "Observations",
							Description:       "A follow-up visit.",
							Variables: []study.StudyVariable{
								{ID: "weight", DisplayName: "Weight", ProviderLabel: "wt_kg", Type: study.TypeNumber, DataShape: study.ShapeContinuous, Units: "kg"},
								{ID: "height", DisplayName: "Height", ProviderLabel: "ht_cm", Type: study.TypeNumber, DataShape: study.ShapeContinuous, Units: "cm"},
								{ID: "temperature", DisplayName: "Temperature", ProviderLabel: "temp_c", Type: study.TypeNumber, DataShape: study.ShapeContinuous, Units: "C"},
								{ID: "visit_date", DisplayName: "Visit date", Type: study.TypeDate, DataShape: study.ShapeContinuous, DisplayOrder: order(1)},
							},
						},
					},
				},
			},
		},
	}
}

// Row is one generated entity record; Ancestors maps ancestor entity IDs to row IDs
type Row struct {
	ID        string
	Ancestors map[string]string
	Values    map[string]string
}

// Dataset holds generated rows per entity
type Dataset struct {
	Metadata *study.StudyMetadata
	Rows     map[string][]Row
}

// DemoGenerator produces the demo population from a seeded source
type DemoGenerator struct {
	config DemoConfig
	rng    *rand.Rand
}

func NewDemoGenerator(config DemoConfig) *DemoGenerator {
	return &DemoGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate builds households, their participants and each participant's visits
func (g *DemoGenerator) Generate() *Dataset {
	ds := &Dataset{Metadata: DemoMetadata(), Rows: map[string][]Row{}}

	for h := 0; h < g.config.Households; h++ {
		hhID := fmt.Sprintf("HH%04d", h+1)
		size := 1 + g.rng.Intn(g.config.MaxParticipants)
		ds.Rows["household"] = append(ds.Rows["household"], Row{
			ID:        hhID,
			Ancestors: map[string]string{},
			Values: map[string]string{
				"region":         g.pick("North", "South", "East", "West"),
				"water_source":   g.pick("Piped", "Well", "River"),
				"household_size": g.maybe(fmt.Sprint(size + g.rng.Intn(3))),
				"roof_type":      g.maybe(g.pick("Metal", "Thatch", "Tile")),
				"floor_type":     g.maybe(g.pick("Earth", "Cement", "Wood")),
				"internal_code":  fmt.Sprintf("X%03d", g.rng.Intn(1000)),
			},
		})

		for p := 0; p < size; p++ {
			ptID := fmt.Sprintf("%s-P%d", hhID, p+1)
			age := math.Round(g.rng.Float64()*70*10) / 10
			enrolled := g.config.StartDate.AddDate(0, 0, g.rng.Intn(365))
			ds.Rows["participant"] = append(ds.Rows["participant"], Row{
				ID:        ptID,
				Ancestors: map[string]string{"household": hhID},
				Values: map[string]string{
					"sex":             g.pick("Female", "Male"),
					"age":             g.maybe(formatFloat(age)),
					"enrollment_date": enrolled.Format("2006-01-02"),
					"fever":           g.maybe(g.yesNo(0.3)),
					"cough":           g.maybe(g.yesNo(0.25)),
					"diarrhea":        g.maybe(g.yesNo(0.15)),
				},
			})

			visits := 1 + g.rng.Intn(g.config.MaxObservations)
			for o := 0; o < visits; o++ {
				height := 50 + math.Min(age, 18)*6 + g.rng.NormFloat64()*5
				weight := 3 + height*0.35 + g.rng.NormFloat64()*4
				ds.Rows["observation"] = append(ds.Rows["observation"], Row{
					ID:        fmt.Sprintf("%s-O%d", ptID, o+1),
					Ancestors: map[string]string{"household": hhID, "participant": ptID},
					Values: map[string]string{
						"visit_date":  enrolled.AddDate(0, 0, 30*(o+1)).Format("2006-01-02"),
						"height":      g.maybe(formatFloat(math.Round(height*10) / 10)),
						"weight":      g.maybe(formatFloat(math.Round(weight*10) / 10)),
						"temperature": g.maybe(formatFloat(math.Round((36.6+g.rng.NormFloat64()*0.7)*10) / 10)),
					},
				})
			}
		}
	}
	return ds
}

func (g *DemoGenerator) pick(options ...string) string {
	return options[g.rng.Intn(len(options))]
}

func (g *DemoGenerator) yesNo(p float64) string {
	if g.rng.Float64() < p {
		return "Yes"
	}
	return "No"
}

// maybe blanks a value at the configured missing rate
func (g *DemoGenerator) maybe(v string) string {
	if g.rng.Float64() < g.config.MissingRate {
		return ""
	}
	return v
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}
