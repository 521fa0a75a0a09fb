// Package recommend implements the course recommendation scoring
// engine of the campusdesk student portal. It merges progression,
// program and performance based candidate sources over a static course
// catalog, applies prerequisite gating, deduplicates and ranks the
// result deterministically.
package recommend

// Course is the catalog metadata of one course.
type Course struct {
	ID            string   `json:"courseId"`
	Name          string   `json:"name"`
	Difficulty    string   `json:"difficulty"`
	Popularity    int      `json:"popularity"`
	JobRelevance  string   `json:"jobRelevance"`
	Prerequisites []string `json:"prerequisites"`
	Description   string   `json:"description"`
	Icon          string   `json:"icon"`
}

// Catalog is the static reference data the ranking engine scores
// against: course metadata, the prerequisite-progression graph and
// per-program course tracks. A Catalog is read-only after
// construction and safe for concurrent use.
type Catalog struct {
	courses      map[string]Course
	progression  map[string][]string
	tracks       map[string][]string
	defaultTrack string
}

// NewCatalog assembles a catalog from its raw tables. defaultTrack
// names the program track used for unrecognized programs.
func NewCatalog(courses []Course, progression map[string][]string, tracks map[string][]string, defaultTrack string) *Catalog {
	byID := make(map[string]Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	return &Catalog{
		courses:      byID,
		progression:  progression,
		tracks:       tracks,
		defaultTrack: defaultTrack,
	}
}

// Course looks up the metadata of a course.
func (c *Catalog) Course(id string) (Course, bool) {
	course, ok := c.courses[id]
	return course, ok
}

// NextCourses returns the configured successor courses of an enrolled
// course, or nil when the course has no progression entry.
func (c *Catalog) NextCourses(id string) []string {
	return c.progression[id]
}

// Track returns the course track for a program. Unrecognized programs
// fall back to the default track; ok reports whether the program was
// recognized.
func (c *Catalog) Track(program string) (track []string, ok bool) {
	if t, found := c.tracks[program]; found {
		return t, true
	}
	return c.tracks[c.defaultTrack], false
}

// Len returns the number of courses in the catalog.
func (c *Catalog) Len() int { return len(c.courses) }

// DefaultCatalog returns the built-in catalog used when no catalog
// database is configured.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		[]Course{
			{
				ID:            "AI301",
				Name:          "Artificial Intelligence",
				Difficulty:    "Advanced",
				Popularity:    95,
				JobRelevance:  "High",
				Prerequisites: []string{"CS101", "CS202"},
				Description:   "Machine learning and AI fundamentals",
				Icon:          "🤖",
			},
			{
				ID:            "DB250",
				Name:          "Database Systems",
				Difficulty:    "Intermediate",
				Popularity:    88,
				JobRelevance:  "High",
				Prerequisites: []string{"CS101"},
				Description:   "SQL, NoSQL, and database design",
				Icon:          "💾",
			},
			{
				ID:            "WEB220",
				Name:          "Web Development",
				Difficulty:    "Intermediate",
				Popularity:    92,
				JobRelevance:  "Very High",
				Prerequisites: []string{"CS101"},
				Description:   "Modern web technologies and frameworks",
				Icon:          "🌐",
			},
			{
				ID:            "DS201",
				Name:          "Introduction to Data Science",
				Difficulty:    "Intermediate",
				Popularity:    85,
				JobRelevance:  "High",
				Prerequisites: []string{"CS101"},
				Description:   "Data analysis and visualization",
				Icon:          "📊",
			},
			{
				ID:            "CY101",
				Name:          "Introduction to Cybersecurity",
				Difficulty:    "Beginner",
				Popularity:    78,
				JobRelevance:  "High",
				Prerequisites: nil,
				Description:   "Security fundamentals and best practices",
				Icon:          "🔒",
			},
		},
		map[string][]string{
			"CS101":  {"CS202", "WEB220", "DB250"},
			"CS202":  {"AI301", "DS201"},
			"IT201":  {"DB250", "CY101"},
			"CY101":  {"AI301"},
			"WEB220": {"DS201"},
			"DB250":  {"AI301", "DS201"},
		},
		map[string][]string{
			"Computer Science":       {"AI301", "WEB220", "DB250", "DS201"},
			"Information Technology": {"DB250", "CY101", "WEB220"},
			"Cybersecurity":          {"CY101", "AI301", "DB250"},
			"Data Science":           {"DS201", "AI301", "DB250"},
		},
		"Computer Science",
	)
}
