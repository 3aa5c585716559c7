package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/leopold7/zenfeed-go/grouping"
	"github.com/leopold7/zenfeed-go/model"
	"github.com/leopold7/zenfeed-go/store"
)

// FetchCmd aggregates feeds from every configured source and prints the
// grouped result.
type FetchCmd struct {
	Refresh   bool     `name:"refresh" help:"Bypass the response cache and hit the sources."`
	Hours     int      `name:"hours" default:"24" help:"Fetch entries from the last N hours."`
	Query     string   `name:"query" help:"Semantic search query."`
	Threshold *float64 `name:"threshold" help:"Relevance threshold for the search query."`
	Limit     int      `name:"limit" help:"Maximum number of entries."`
	Group     string   `name:"group" help:"Override the grouping mode (category, source, category,source, none)."`
}

func (c *FetchCmd) Run(globals *model.Globals) error {
	app, err := NewApp(globals)
	if err != nil {
		return err
	}
	defer app.Close()

	feedStore, err := app.Store()
	if err != nil {
		return err
	}

	now := time.Now()
	opts := store.FetchOptions{
		UseCache:  !c.Refresh,
		Start:     now.Add(-time.Duration(c.Hours) * time.Hour).UTC().Format(time.RFC3339),
		End:       now.UTC().Format(time.RFC3339),
		Query:     c.Query,
		Threshold: c.Threshold,
		Limit:     c.Limit,
	}

	previous, _, err := app.Cache.GetAny()
	if err != nil {
		return err
	}

	resp, err := feedStore.Fetch(context.Background(), opts)
	if err != nil {
		return err
	}
	if c.Refresh {
		if fresh := store.NewFeedCount(previous, resp.Feeds); fresh > 0 {
			fmt.Printf("%d new entries\n\n", fresh)
		}
	}
	if c.Query != "" {
		if err := app.Search.Add(c.Query); err != nil {
			app.Logger.Warn("failed to record search query", "error", err)
		}
	}
	if resp.Error != "" {
		fmt.Printf("warning: %s\n\n", resp.Error)
	}

	views, err := c.computeViews(app, resp.Feeds)
	if err != nil {
		return err
	}

	if len(views.GroupOrder) == 0 {
		printFeeds("all", views.Flat)
		return nil
	}
	printFeeds("all", views.All)
	for _, name := range views.GroupOrder {
		printFeeds(name, views.Groups[name])
	}
	return nil
}

func (c *FetchCmd) computeViews(app *App, feeds []model.Feed) (grouping.Views, error) {
	mode, err := app.Settings.GroupingMode()
	if err != nil {
		return grouping.Views{}, err
	}
	if c.Group != "" {
		mode, err = model.ParseGroupingMode(c.Group)
		if err != nil {
			return grouping.Views{}, err
		}
	}
	keywords, err := app.Settings.TitleFilterKeywords()
	if err != nil {
		return grouping.Views{}, err
	}
	configs, err := app.Settings.CategoryFilterConfigs()
	if err != nil {
		return grouping.Views{}, err
	}
	readIDs, err := app.ReadState.All()
	if err != nil {
		return grouping.Views{}, err
	}
	return grouping.ComputeViews(feeds, keywords, configs, mode, readIDs), nil
}

func printFeeds(group string, feeds []model.Feed) {
	fmt.Printf("## %s (%d)\n", group, len(feeds))
	for _, feed := range feeds {
		marker := " "
		if feed.IsRead {
			marker = "x"
		}
		fmt.Printf("[%s] %s  %s\n", marker, feed.Time, feed.Labels.Title)
		if feed.Labels.Link != "" {
			fmt.Printf("      %s\n", feed.Labels.Link)
		}
	}
	fmt.Println()
}
