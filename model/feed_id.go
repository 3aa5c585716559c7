package model

// StableFeedID derives the stable identity of a feed entry from its title,
// raw timestamp string and server ID. Two entries with the same identity are
// the same logical entry even if other fields differ (the offline pipeline
// rewrites LocalPodcastPath without changing identity). This is not a content
// hash: entries sharing title, time and server collide by design.
func StableFeedID(title, time, serverID string) string {
	return title + "-" + time + "-" + serverID
}

// StableID returns the stable identity of f. A missing title contributes the
// empty string, matching how read state and favorites key their entries.
func (f Feed) StableID() string {
	return StableFeedID(f.Labels.Title, f.Time, f.ServerID)
}
