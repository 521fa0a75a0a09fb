package recommend

import (
	"fmt"
	"math"
	"sort"

	"github.com/campusdesk/campusdesk/pkg/logger"
)

// SourceType names the generator that produced a candidate.
type SourceType string

const (
	// SourceProgression candidates follow from an enrolled course.
	SourceProgression SourceType = "progression"
	// SourceProgram candidates come from the student's program track.
	SourceProgram SourceType = "program"
	// SourceGPA candidates reward a high GPA with an advanced course.
	SourceGPA SourceType = "gpa"
	// SourceMarket candidates point at high job-market demand.
	SourceMarket SourceType = "market"
)

// StudentProfile is the slice of a student record the engine consumes.
type StudentProfile struct {
	StudentID string  `json:"studentId"`
	Program   string  `json:"program"`
	GPA       float64 `json:"gpa"`
}

// Enrollment is one enrolled course of the calling student.
type Enrollment struct {
	CourseID   string `json:"course_id"`
	CourseName string `json:"course_name"`
}

// Recommendation is a scored candidate course.
type Recommendation struct {
	Course
	// Reason is the human-readable provenance of the candidate.
	Reason string `json:"reason"`
	// Source names the generator that produced the candidate.
	Source SourceType `json:"sourceType"`
	// Score is the base score assigned by the generator.
	Score float64 `json:"score"`
	// FinalScore is the refined score used for ranking.
	FinalScore float64 `json:"finalScore"`
	// MatchPercentage is FinalScore rounded and capped to [0, 99].
	MatchPercentage int `json:"matchPercentage"`
	// HasPrerequisites reports whether every catalog-listed
	// prerequisite is in the caller's enrollment set.
	HasPrerequisites bool `json:"hasPrerequisites"`
}

// Weights holds the scoring policy constants. The defaults reproduce
// the portal's production policy exactly; they are configuration, not
// hard-coded literals, so product changes stay local to this struct.
type Weights struct {
	ProgressionScore float64 // Base score of progression candidates
	ProgramScore     float64 // Base score of program track candidates
	AdvancedScore    float64 // Base score of the high-GPA candidate
	MarketScore      float64 // Base score of the market-demand candidate

	VeryHighRelevanceBonus float64 // Bonus for "Very High" job relevance
	HighRelevanceBonus     float64 // Bonus for "High" job relevance
	PopularityFactor       float64 // Popularity multiplier
	DefaultPopularity      float64 // Popularity assumed when unset
	PrereqPenalty          float64 // Deduction for missing prerequisites

	AdvancedGPA float64 // GPA threshold for the advanced candidate
	MarketGPA   float64 // GPA threshold for the market candidate

	AdvancedCourse string // Candidate added at the advanced threshold
	MarketCourse   string // Candidate added at the market threshold

	MaxResults      int // Output truncation
	MaxMatchPercent int // MatchPercentage cap
}

// DefaultWeights returns the production scoring policy.
func DefaultWeights() Weights {
	return Weights{
		ProgressionScore:       90,
		ProgramScore:           75,
		AdvancedScore:          85,
		MarketScore:            80,
		VeryHighRelevanceBonus: 15,
		HighRelevanceBonus:     10,
		PopularityFactor:       0.1,
		DefaultPopularity:      70,
		PrereqPenalty:          30,
		AdvancedGPA:            3.5,
		MarketGPA:              3.0,
		AdvancedCourse:         "AI301",
		MarketCourse:           "WEB220",
		MaxResults:             4,
		MaxMatchPercent:        99,
	}
}

// Engine ranks course recommendations against a catalog. It holds no
// mutable state, performs no I/O, and is safe for concurrent use.
type Engine struct {
	catalog *Catalog
	weights Weights
	log     logger.Logger
}

// EngineOption configures a ranking engine.
type EngineOption func(*Engine)

// WithWeights overrides the scoring policy.
func WithWeights(w Weights) EngineOption {
	return func(e *Engine) { e.weights = w }
}

// WithEngineLogger sets the engine logger. Default is a NopLogger.
func WithEngineLogger(l logger.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates a ranking engine over the given catalog.
func NewEngine(catalog *Catalog, opts ...EngineOption) *Engine {
	e := &Engine{
		catalog: catalog,
		weights: DefaultWeights(),
		log:     logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recommend produces the ranked recommendation list for a student:
// generate candidates (progression, program, performance), exclude
// enrolled courses, score against job relevance, popularity and
// prerequisites, deduplicate first-seen, sort by final score and
// truncate. Each call is independent and side-effect free aside from
// logging.
func (e *Engine) Recommend(profile StudentProfile, enrolled []Enrollment) []Recommendation {
	enrolledIDs := make(map[string]bool, len(enrolled))
	for _, en := range enrolled {
		enrolledIDs[en.CourseID] = true
	}

	// Merge order matters: dedup below keeps the first occurrence.
	var candidates []Recommendation
	candidates = append(candidates, e.progressionCandidates(enrolled)...)
	candidates = append(candidates, e.programCandidates(profile.Program)...)
	candidates = append(candidates, e.performanceCandidates(profile.GPA)...)

	seen := make(map[string]bool, len(candidates))
	var out []Recommendation
	for _, cand := range candidates {
		if enrolledIDs[cand.ID] || seen[cand.ID] {
			continue
		}
		seen[cand.ID] = true
		out = append(out, e.score(cand, enrolledIDs))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinalScore > out[j].FinalScore
	})
	if len(out) > e.weights.MaxResults {
		out = out[:e.weights.MaxResults]
	}
	return out
}

// progressionCandidates proposes the configured successors of every
// enrolled course.
func (e *Engine) progressionCandidates(enrolled []Enrollment) []Recommendation {
	var recs []Recommendation
	for _, en := range enrolled {
		for _, nextID := range e.catalog.NextCourses(en.CourseID) {
			course, ok := e.catalog.Course(nextID)
			if !ok {
				e.log.Warning("progression references unknown course %s", nextID)
				continue
			}
			recs = append(recs, Recommendation{
				Course: course,
				Reason: fmt.Sprintf("Natural next step after %s", en.CourseID),
				Source: SourceProgression,
				Score:  e.weights.ProgressionScore,
			})
		}
	}
	return recs
}

// programCandidates proposes the track of the student's program,
// falling back to the default track for unrecognized programs.
// Courses missing from the catalog are dropped.
func (e *Engine) programCandidates(program string) []Recommendation {
	track, ok := e.catalog.Track(program)
	if !ok {
		e.log.Warning("unknown program %q, using default track", program)
	}
	var recs []Recommendation
	for _, id := range track {
		course, found := e.catalog.Course(id)
		if !found {
			continue
		}
		recs = append(recs, Recommendation{
			Course: course,
			Reason: fmt.Sprintf("Recommended for %s majors", program),
			Source: SourceProgram,
			Score:  e.weights.ProgramScore,
		})
	}
	return recs
}

// performanceCandidates rewards GPA. Both thresholds are checked
// independently, so a sufficiently high GPA yields both candidates.
// GPA is passed through unvalidated.
func (e *Engine) performanceCandidates(gpa float64) []Recommendation {
	var recs []Recommendation
	if gpa >= e.weights.AdvancedGPA {
		if course, ok := e.catalog.Course(e.weights.AdvancedCourse); ok {
			recs = append(recs, Recommendation{
				Course: course,
				Reason: fmt.Sprintf("Your %.1f GPA qualifies you for advanced courses", gpa),
				Source: SourceGPA,
				Score:  e.weights.AdvancedScore,
			})
		}
	}
	if gpa >= e.weights.MarketGPA {
		if course, ok := e.catalog.Course(e.weights.MarketCourse); ok {
			recs = append(recs, Recommendation{
				Course: course,
				Reason: "High job market demand",
				Source: SourceMarket,
				Score:  e.weights.MarketScore,
			})
		}
	}
	return recs
}

// score refines a candidate's base score with the job relevance
// bonus, the popularity factor and the prerequisite gate, then derives
// the bounded match percentage.
func (e *Engine) score(rec Recommendation, enrolledIDs map[string]bool) Recommendation {
	final := rec.Score

	switch rec.JobRelevance {
	case "Very High":
		final += e.weights.VeryHighRelevanceBonus
	case "High":
		final += e.weights.HighRelevanceBonus
	}

	popularity := float64(rec.Popularity)
	if popularity == 0 {
		popularity = e.weights.DefaultPopularity
	}
	final += popularity * e.weights.PopularityFactor

	rec.HasPrerequisites = true
	for _, prereq := range rec.Prerequisites {
		if !enrolledIDs[prereq] {
			rec.HasPrerequisites = false
			final -= e.weights.PrereqPenalty
			break
		}
	}

	rec.FinalScore = final
	pct := int(math.Round(final))
	if pct > e.weights.MaxMatchPercent {
		pct = e.weights.MaxMatchPercent
	}
	if pct < 0 {
		pct = 0
	}
	rec.MatchPercentage = pct
	return rec
}
