package domain

import "time"

// FileDetail is the denormalized record for one file: the file row joined
// with its course, the course's semester and the resolved folder path.
// Files whose folder chain does not reach a course root are unjoinable
// and simply have no detail record.
type FileDetail struct {
	ID               string
	CourseID         string
	Semester         string   // semester display name
	CourseName       string
	CourseNumber     string
	CourseAbbrev     string   // effective value, derived when unset
	CourseType       string
	CourseTypeAbbrev string   // effective value, derived when unset
	Sync             SyncMode
	Path             []string // folder names from the root down, excluding the unnamed root
	Name             string
	Extension        string
	Author           string
	Description      string
	RemoteDate       time.Time
	Copyrighted      bool
	LocalDate        *time.Time
	Version          int
}
