package cmd

import (
	"fmt"
	"strconv"

	"github.com/leopold7/zenfeed-go/model"
)

// ServerCmd groups source configuration subcommands.
type ServerCmd struct {
	Set    ServerSetCmd    `cmd:"" help:"Set the primary server."`
	Add    ServerAddCmd    `cmd:"" help:"Add an additional server."`
	Remove ServerRemoveCmd `cmd:"" help:"Remove an additional server."`
	List   ServerListCmd   `cmd:"" help:"List configured servers."`
}

// ServerSetCmd stores the primary server URLs.
type ServerSetCmd struct {
	APIURL     string `arg:"" name:"api-url" help:"Query API URL of the primary server."`
	BackendURL string `name:"backend-url" help:"Backend URL passed through to the API."`
}

func (c *ServerSetCmd) Run(globals *model.Globals) error {
	if err := model.ValidateServerURL(c.APIURL); err != nil {
		return err
	}
	app, err := NewApp(globals)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Settings.SavePrimaryServer(c.APIURL, c.BackendURL)
}

// ServerAddCmd appends an additional server to the source set.
type ServerAddCmd struct {
	ID         string `arg:"" name:"id" help:"Stable server ID."`
	Name       string `name:"name" help:"Display name."`
	APIURL     string `arg:"" name:"api-url" help:"Query API URL."`
	BackendURL string `name:"backend-url" help:"Backend URL passed through to the API."`
}

func (c *ServerAddCmd) Run(globals *model.Globals) error {
	cfg := model.ServerConfig{ID: c.ID, Name: c.Name, APIURL: c.APIURL, BackendURL: c.BackendURL}
	if err := model.ValidateServerConfig(cfg); err != nil {
		return err
	}
	app, err := NewApp(globals)
	if err != nil {
		return err
	}
	defer app.Close()

	configs, err := app.Settings.ServerConfigs()
	if err != nil {
		return err
	}
	for _, existing := range configs {
		if existing.ID == cfg.ID {
			return fmt.Errorf("server %s already configured", cfg.ID)
		}
	}
	return app.Settings.SaveServerConfigs(append(configs, cfg))
}

// ServerRemoveCmd drops an additional server.
type ServerRemoveCmd struct {
	ID string `arg:"" name:"id" help:"Server ID to remove."`
}

func (c *ServerRemoveCmd) Run(globals *model.Globals) error {
	app, err := NewApp(globals)
	if err != nil {
		return err
	}
	defer app.Close()

	configs, err := app.Settings.ServerConfigs()
	if err != nil {
		return err
	}
	kept := configs[:0]
	for _, cfg := range configs {
		if cfg.ID != c.ID {
			kept = append(kept, cfg)
		}
	}
	if len(kept) == len(configs) {
		return fmt.Errorf("no server with ID %s", c.ID)
	}
	return app.Settings.SaveServerConfigs(kept)
}

// ServerListCmd prints the configured source set.
type ServerListCmd struct{}

func (c *ServerListCmd) Run(globals *model.Globals) error {
	app, err := NewApp(globals)
	if err != nil {
		return err
	}
	defer app.Close()

	api, backend, err := app.Settings.PrimaryServer()
	if err != nil {
		return err
	}
	if api != "" {
		fmt.Printf("(primary)  %s  backend=%s\n", api, backend)
	}
	configs, err := app.Settings.ServerConfigs()
	if err != nil {
		return err
	}
	for _, cfg := range configs {
		fmt.Printf("%s  %s  %s  backend=%s\n", cfg.ID, cfg.Name, cfg.APIURL, cfg.BackendURL)
	}
	return nil
}

// ConfigCmd groups display and download settings.
type ConfigCmd struct {
	Grouping     ConfigGroupingCmd     `cmd:"" help:"Set the home grouping mode."`
	Keywords     ConfigKeywordsCmd     `cmd:"" help:"Set the comma-separated title exclusion keywords."`
	AutoDownload ConfigAutoDownloadCmd `cmd:"" help:"Toggle automatic offline download of favorited podcasts."`
}

// ConfigGroupingCmd stores the grouping mode.
type ConfigGroupingCmd struct {
	Mode string `arg:"" name:"mode" help:"category, source, category,source, or none."`
}

func (c *ConfigGroupingCmd) Run(globals *model.Globals) error {
	mode, err := model.ParseGroupingMode(c.Mode)
	if err != nil {
		return err
	}
	app, err := NewApp(globals)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Settings.SaveGroupingMode(mode)
}

// ConfigKeywordsCmd stores the title exclusion keywords.
type ConfigKeywordsCmd struct {
	Keywords string `arg:"" name:"keywords" help:"Comma-separated keyword list, empty to clear."`
}

func (c *ConfigKeywordsCmd) Run(globals *model.Globals) error {
	app, err := NewApp(globals)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Settings.SaveTitleFilterKeywords(c.Keywords)
}

// ConfigAutoDownloadCmd toggles auto-download for favorited podcasts.
type ConfigAutoDownloadCmd struct {
	Enabled string `arg:"" name:"enabled" help:"true or false."`
}

func (c *ConfigAutoDownloadCmd) Run(globals *model.Globals) error {
	enabled, err := strconv.ParseBool(c.Enabled)
	if err != nil {
		return err
	}
	app, err := NewApp(globals)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Settings.SaveAutoDownloadToLocal(enabled)
}
