package recommend

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// OpenCatalog loads a catalog from a SQLite database. The expected
// schema:
//
//	courses(course_id, name, difficulty, popularity, job_relevance, description, icon)
//	prerequisites(course_id, prereq_id)
//	progression(course_id, next_id, position)
//	program_tracks(program, course_id, position, is_default)
//
// The database is read once and closed; the returned catalog is fully
// in memory. Callers typically fall back to DefaultCatalog on error.
func OpenCatalog(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("catalog: cannot open database: %w", err)
	}
	defer db.Close()

	courses, err := loadCourses(db)
	if err != nil {
		return nil, err
	}
	progression, err := loadPairs(db, `
        SELECT course_id, next_id
        FROM progression
        ORDER BY course_id, position
    `, "progression")
	if err != nil {
		return nil, err
	}
	tracks, defaultTrack, err := loadTracks(db)
	if err != nil {
		return nil, err
	}
	return NewCatalog(courses, progression, tracks, defaultTrack), nil
}

func loadCourses(db *sql.DB) ([]Course, error) {
	rows, err := db.Query(`
        SELECT course_id, name, difficulty, popularity, job_relevance, description, icon
        FROM courses
        ORDER BY course_id
    `)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Difficulty, &c.Popularity, &c.JobRelevance, &c.Description, &c.Icon); err != nil {
			return nil, fmt.Errorf("catalog: failed to scan course row: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: failed to iterate course rows: %w", err)
	}

	prereqs, err := loadPairs(db, `
        SELECT course_id, prereq_id
        FROM prerequisites
        ORDER BY course_id, prereq_id
    `, "prerequisites")
	if err != nil {
		return nil, err
	}
	for i := range courses {
		courses[i].Prerequisites = prereqs[courses[i].ID]
	}
	return courses, nil
}

// loadPairs reads a two-column (key, value) table into a multimap.
func loadPairs(db *sql.DB, query, table string) (map[string][]string, error) {
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to query %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var key, val string
		if err := rows.Scan(&key, &val); err != nil {
			return nil, fmt.Errorf("catalog: failed to scan %s row: %w", table, err)
		}
		out[key] = append(out[key], val)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: failed to iterate %s rows: %w", table, err)
	}
	return out, nil
}

func loadTracks(db *sql.DB) (map[string][]string, string, error) {
	rows, err := db.Query(`
        SELECT program, course_id, is_default
        FROM program_tracks
        ORDER BY program, position
    `)
	if err != nil {
		return nil, "", fmt.Errorf("catalog: failed to query program_tracks: %w", err)
	}
	defer rows.Close()

	tracks := make(map[string][]string)
	var defaultTrack string
	for rows.Next() {
		var program, courseID string
		var isDefault int
		if err := rows.Scan(&program, &courseID, &isDefault); err != nil {
			return nil, "", fmt.Errorf("catalog: failed to scan program_tracks row: %w", err)
		}
		tracks[program] = append(tracks[program], courseID)
		if isDefault != 0 {
			defaultTrack = program
		}
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("catalog: failed to iterate program_tracks rows: %w", err)
	}
	if defaultTrack == "" {
		return nil, "", fmt.Errorf("catalog: no default program track configured")
	}
	return tracks, defaultTrack, nil
}
