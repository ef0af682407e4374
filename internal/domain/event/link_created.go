package event

// LinkCreated is raised when a new link is registered.
type LinkCreated struct {
	Base
	Slug              string
	Title             string
	DestinationURL    string
	OriginCountryCode string
}

// NewLinkCreated creates a new LinkCreated event.
func NewLinkCreated(slug, title, destinationURL, originCountryCode string) LinkCreated {
	return LinkCreated{
		Base:              NewBase(slug),
		Slug:              slug,
		Title:             title,
		DestinationURL:    destinationURL,
		OriginCountryCode: originCountryCode,
	}
}

// EventName returns the event name.
func (e LinkCreated) EventName() string {
	return "link.created"
}
