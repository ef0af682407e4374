package event

// LinkRenamed is raised when a link owner changes the link title.
type LinkRenamed struct {
	Base
	Slug     string
	OldTitle string
	NewTitle string
}

// NewLinkRenamed creates a new LinkRenamed event.
func NewLinkRenamed(slug, oldTitle, newTitle string) LinkRenamed {
	return LinkRenamed{
		Base:     NewBase(slug),
		Slug:     slug,
		OldTitle: oldTitle,
		NewTitle: newTitle,
	}
}

// EventName returns the event name.
func (e LinkRenamed) EventName() string {
	return "link.renamed"
}
