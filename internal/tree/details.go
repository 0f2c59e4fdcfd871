package tree

import "hoersaal/internal/domain"

// Details joins every file in the snapshot with its course, semester and
// resolved folder path. The join is strict: a file whose folder chain
// reaches no course root, or whose course references a missing semester,
// yields no record rather than a partial one. Folder cycles abort with
// ErrCycle.
func Details(snap *Snapshot) (map[string]domain.FileDetail, error) {
	chains, err := Paths(snap)
	if err != nil {
		return nil, err
	}

	out := make(map[string]domain.FileDetail, len(snap.Files))
	for id, f := range snap.Files {
		chain, ok := chains[f.Folder]
		if !ok || chain.Course == "" {
			continue
		}
		course, ok := snap.Courses[chain.Course]
		if !ok {
			continue
		}
		sem, ok := snap.Semesters[course.Semester]
		if !ok {
			continue
		}
		out[id] = domain.FileDetail{
			ID:               f.ID,
			CourseID:         course.ID,
			Semester:         sem.Name,
			CourseName:       course.Name,
			CourseNumber:     course.Number,
			CourseAbbrev:     course.EffectiveAbbrev(),
			CourseType:       course.Type,
			CourseTypeAbbrev: course.EffectiveTypeAbbrev(),
			Sync:             course.Sync,
			Path:             chain.Names,
			Name:             f.Name,
			Extension:        f.Extension,
			Author:           f.Author,
			Description:      f.Description,
			RemoteDate:       f.RemoteDate,
			Copyrighted:      f.Copyrighted,
			LocalDate:        f.LocalDate,
			Version:          f.Version,
		}
	}
	return out, nil
}
