package media

import (
	"path/filepath"

	"mediarename/internal/logger"
)

// Plan is the ordered list of rename operations for one batch, plus the
// skip counts accumulated while planning.
type Plan struct {
	// BaseDir is the directory the batch was run against.
	BaseDir string
	// Operations are the planned renames in file-discovery order.
	Operations []RenameOperation
	// Stats holds the counts of files skipped during planning.
	Stats BatchStats
}

// Planner turns a list of candidate files into a list of planned
// operations. It orchestrates date resolution, already-renamed
// detection, template rendering, folder organization and collision
// resolution; the actual moves are the executor's job.
type Planner struct {
	resolver *DateResolver
}

// NewPlanner creates a Planner around a date resolver.
func NewPlanner(resolver *DateResolver) *Planner {
	return &Planner{resolver: resolver}
}

// Plan produces the rename operations for the given files. A dry run
// produces the identical plan; only downstream execution differs.
func (p *Planner) Plan(baseDir string, files []MediaFile, cfg Config) *Plan {
	template := cfg.Template
	if template.IsZero() {
		template = ParseTemplate(DefaultTemplate)
	}

	detector := NewRenamedFileDetector()
	if template.String() != DefaultTemplate {
		detector = NewTemplateDetector(template)
	}

	plan := &Plan{BaseDir: baseDir}
	collisions := NewCollisionResolver()

	for _, file := range files {
		filename := filepath.Base(file.Path)

		if renamed, _ := detector.IsAlreadyRenamed(filename); renamed && !cfg.RenameAgain {
			plan.Stats.AlreadyRenamed++
			logger.Debug("Skipping already renamed file", "file", filename)
			continue
		}

		result := p.resolver.Resolve(file.Path, file.Kind)
		newName := template.Render(result.Time, file.Kind) + filepath.Ext(file.Path)

		targetDir := cfg.Organization.TargetDir(filepath.Dir(file.Path), result.Time)
		candidate := filepath.Join(targetDir, newName)

		// A file that would be renamed onto itself already has the
		// correct name; running the collision resolver on it would
		// churn it to a _1 suffix instead.
		if candidate == file.Path {
			plan.Stats.AlreadyRenamed++
			logger.Debug("File already has the correct name", "file", filename)
			continue
		}

		destination := collisions.Resolve(candidate)
		plan.Operations = append(plan.Operations, RenameOperation{
			Source:      file.Path,
			Destination: destination,
			Kind:        file.Kind,
		})
		logger.Debug("Planned rename", "from", filename, "to", filepath.Base(destination), "source", result.Source)
	}

	return plan
}
