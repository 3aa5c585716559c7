package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/leopold7/zenfeed-go/cmd"
	"github.com/leopold7/zenfeed-go/model"
	"github.com/leopold7/zenfeed-go/version"
)

var cli struct {
	model.Globals

	Fetch      cmd.FetchCmd      `cmd:"" help:"Aggregate feeds from every configured source."`
	Favorite   cmd.FavoriteCmd   `cmd:"" help:"Toggle the favorite state of a cached entry."`
	Unfavorite cmd.UnfavoriteCmd `cmd:"" help:"Remove a favorite."`
	Favorites  cmd.FavoritesCmd  `cmd:"" help:"List favorites."`
	Read       cmd.ReadCmd       `cmd:"" help:"Mark an entry as read."`
	Unread     cmd.UnreadCmd     `cmd:"" help:"Mark an entry as unread."`
	Cache      cmd.CacheCmd      `cmd:"" help:"Cache maintenance."`
	Reconcile  cmd.ReconcileCmd  `cmd:"" help:"Repair offline audio for favorites."`
	Server     cmd.ServerCmd     `cmd:"" help:"Configure feed servers."`
	Config     cmd.ConfigCmd     `cmd:"" help:"Display and download settings."`
	Version    cmd.VersionCmd    `cmd:"" help:"Print version information."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("zenfeed"),
		kong.Description("Personal feed reader with offline podcast caching."),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("zenfeed %s", version.GetFullVersion())},
	)
	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}
