package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/leopold7/zenfeed-go/model"
)

// FavoriteCmd toggles the favorite state of a cached entry by its stable ID.
type FavoriteCmd struct {
	FeedID string `arg:"" name:"feed-id" help:"Stable ID of the entry to toggle."`
}

func (c *FavoriteCmd) Run(globals *model.Globals) error {
	app, err := NewApp(globals)
	if err != nil {
		return err
	}
	defer app.Close()

	feed, err := findCachedFeed(app, c.FeedID)
	if err != nil {
		return err
	}
	entries, err := app.Controller.ToggleFavorite(feed)
	if err != nil {
		return err
	}
	fmt.Printf("%d favorites\n", len(entries))
	return nil
}

// UnfavoriteCmd removes a favorite without needing the cached entry.
type UnfavoriteCmd struct {
	FeedID string `arg:"" name:"feed-id" help:"Stable ID of the favorite to remove."`
}

func (c *UnfavoriteCmd) Run(globals *model.Globals) error {
	app, err := NewApp(globals)
	if err != nil {
		return err
	}
	defer app.Close()

	entries, err := app.Favorites.All()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.FeedID == c.FeedID {
			if _, err := app.Controller.ToggleFavorite(entry.Feed); err != nil {
				return err
			}
			fmt.Println("removed")
			return nil
		}
	}
	return fmt.Errorf("no favorite with ID %s", c.FeedID)
}

// FavoritesCmd lists favorites, most recently favorited first.
type FavoritesCmd struct{}

func (c *FavoritesCmd) Run(globals *model.Globals) error {
	app, err := NewApp(globals)
	if err != nil {
		return err
	}
	defer app.Close()

	entries, err := app.Controller.Favorites()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		when := time.UnixMilli(entry.FavoritedAt).Format(time.RFC3339)
		offline := ""
		if entry.Feed.Labels.LocalPodcastPath != "" {
			offline = " [offline]"
		}
		fmt.Printf("%s  %s%s\n    %s\n", when, entry.Feed.Labels.Title, offline, entry.FeedID)
	}
	return nil
}

// ReadCmd marks an entry as read.
type ReadCmd struct {
	FeedID string `arg:"" name:"feed-id" help:"Stable ID of the entry."`
}

func (c *ReadCmd) Run(globals *model.Globals) error {
	app, err := NewApp(globals)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.ReadState.MarkRead(c.FeedID)
}

// UnreadCmd removes the read mark from an entry.
type UnreadCmd struct {
	FeedID string `arg:"" name:"feed-id" help:"Stable ID of the entry."`
}

func (c *UnreadCmd) Run(globals *model.Globals) error {
	app, err := NewApp(globals)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.ReadState.MarkUnread(c.FeedID)
}

// ReconcileCmd re-establishes offline audio for every favorite.
type ReconcileCmd struct{}

func (c *ReconcileCmd) Run(globals *model.Globals) error {
	app, err := NewApp(globals)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Controller.EnsureOfflineCacheForFavorites(context.Background()); err != nil {
		return err
	}
	app.Controller.Wait()
	fmt.Println("reconciled")
	return nil
}

// findCachedFeed looks the entry up in the cached snapshot by stable ID.
func findCachedFeed(app *App, feedID string) (model.Feed, error) {
	feeds, ok, err := app.Cache.GetAny()
	if err != nil {
		return model.Feed{}, err
	}
	if ok {
		for _, feed := range feeds {
			if feed.StableID() == feedID {
				return feed, nil
			}
		}
	}
	return model.Feed{}, fmt.Errorf("no cached entry with ID %s, fetch first", feedID)
}
