package tagging

import (
	"github.com/five82/tagger/internal/api"
	"github.com/five82/tagger/internal/state"
	"github.com/five82/tagger/internal/statepath"
)

// AppSnapshot is the canonical tree the root store publishes. Child
// containers contribute CurrentProject and its CurrentImage.
type AppSnapshot struct {
	Projects       []api.ProjectSummary `json:"projects"`
	CurrentProject *ProjectSnapshot     `json:"currentProject"`
}

// ProjectSnapshot is the published view of a Project.
type ProjectSnapshot struct {
	Name         string         `json:"name"`
	State        state.Status   `json:"state"`
	Images       []string       `json:"images"`
	Categories   []api.Category `json:"categories"`
	CurrentImage *ImageSnapshot `json:"currentImage"`
}

// ImageSnapshot is the published view of an Image. TxtFile and
// UncategorizedTags are derived from Tags.
type ImageSnapshot struct {
	Name              string           `json:"name"`
	State             state.Status     `json:"state"`
	Tags              []string         `json:"tags"`
	Dirty             bool             `json:"dirty"`
	Suggestions       []api.Suggestion `json:"suggestions"`
	AutoTag           AutoTagStatus    `json:"autoTag"`
	TxtFile           string           `json:"txtFile"`
	UncategorizedTags []string         `json:"uncategorizedTags"`
}

// AutoTagStatus tracks the suggestion stream of an image.
type AutoTagStatus string

const (
	AutoTagIdle    AutoTagStatus = "idle"
	AutoTagRunning AutoTagStatus = "running"
	AutoTagDone    AutoTagStatus = "done"
	AutoTagFailed  AutoTagStatus = "failed"
)

// Schema describes AppSnapshot; the root store validates selectors with it.
var Schema = statepath.SchemaOf[AppSnapshot]()

// Selectors views commonly bind to.
var (
	SelProjects          = statepath.MustParse("projects")
	SelProjectName       = statepath.MustParse("currentProject.name")
	SelProjectState      = statepath.MustParse("currentProject.state")
	SelImages            = statepath.MustParse("currentProject.images")
	SelCategories        = statepath.MustParse("currentProject.categories")
	SelImageName         = statepath.MustParse("currentProject.currentImage.name")
	SelImageState        = statepath.MustParse("currentProject.currentImage.state")
	SelTags              = statepath.MustParse("currentProject.currentImage.tags")
	SelDirty             = statepath.MustParse("currentProject.currentImage.dirty")
	SelSuggestions       = statepath.MustParse("currentProject.currentImage.suggestions")
	SelAutoTag           = statepath.MustParse("currentProject.currentImage.autoTag")
	SelTxtFile           = statepath.MustParse("currentProject.currentImage.txtFile")
	SelUncategorizedTags = statepath.MustParse("currentProject.currentImage.uncategorizedTags")
)

// Catalogue lists every named selector.
func Catalogue() []statepath.Path {
	return []statepath.Path{
		SelProjects, SelProjectName, SelProjectState, SelImages, SelCategories,
		SelImageName, SelImageState, SelTags, SelDirty, SelSuggestions,
		SelAutoTag, SelTxtFile, SelUncategorizedTags,
	}
}
