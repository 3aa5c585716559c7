package cmd

import (
	"fmt"

	"github.com/leopold7/zenfeed-go/model"
)

// CacheCmd groups cache maintenance subcommands.
type CacheCmd struct {
	Size  CacheSizeCmd  `cmd:"" help:"Report the total cache footprint."`
	Clear CacheClearCmd `cmd:"" help:"Clear cached responses, read state, search history and on-disk caches."`
}

// CacheSizeCmd prints the aggregate cache size.
type CacheSizeCmd struct{}

func (c *CacheSizeCmd) Run(globals *model.Globals) error {
	app, err := NewApp(globals)
	if err != nil {
		return err
	}
	defer app.Close()

	size, err := app.Cache.SizeBytes()
	if err != nil {
		return err
	}
	fmt.Println(formatSize(size))
	return nil
}

// CacheClearCmd wipes all cached data. Favorites themselves survive, but
// their offline audio is gone, so the recorded local paths are stripped.
type CacheClearCmd struct{}

func (c *CacheClearCmd) Run(globals *model.Globals) error {
	app, err := NewApp(globals)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Cache.Clear(); err != nil {
		return err
	}
	if _, err := app.Favorites.ClearAllLocalPodcastPaths(); err != nil {
		return err
	}
	fmt.Println("cache cleared")
	return nil
}

// formatSize renders a byte count with a binary unit.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
