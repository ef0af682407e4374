package event

// LinkClicked is raised when a link is resolved for redirection. The click
// itself is recorded asynchronously by the click event handler.
type LinkClicked struct {
	Base
	Slug      string
	UserAgent string
	Locale    string
	RemoteIP  string
	Referrer  string
	Country   string
}

// NewLinkClicked creates a new LinkClicked event.
func NewLinkClicked(slug, userAgent, locale, remoteIP, referrer, country string) LinkClicked {
	return LinkClicked{
		Base:      NewBase(slug),
		Slug:      slug,
		UserAgent: userAgent,
		Locale:    locale,
		RemoteIP:  remoteIP,
		Referrer:  referrer,
		Country:   country,
	}
}

// EventName returns the event name.
func (e LinkClicked) EventName() string {
	return "link.clicked"
}
