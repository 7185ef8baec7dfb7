package description

// Track is a media source whose packets are sent through a media.
type Track struct {
	// ID of the track.
	ID string

	// Kind of the track.
	Kind MediaType
}
