// Package cmd implements the CLI commands and wires the application
// components together from the data directory.
package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/leopold7/zenfeed-go/client"
	"github.com/leopold7/zenfeed-go/favsync"
	"github.com/leopold7/zenfeed-go/imagecache"
	"github.com/leopold7/zenfeed-go/model"
	"github.com/leopold7/zenfeed-go/offline"
	"github.com/leopold7/zenfeed-go/storage"
	"github.com/leopold7/zenfeed-go/store"
)

// App is the wired application: storage, caches, aggregation and favorite
// sync, constructed once per invocation from the data directory.
type App struct {
	DB         *storage.DB
	Settings   *storage.Settings
	ReadState  *storage.ReadState
	Favorites  *storage.Favorites
	Search     *storage.SearchHistory
	Audio      *offline.AudioStore
	Images     *imagecache.Cache
	Cache      *store.ContentCache
	Controller *favsync.Controller
	Logger     *slog.Logger
}

// NewApp opens the database and constructs every component under dataDir.
func NewApp(globals *model.Globals) (*App, error) {
	logLevel := slog.LevelInfo
	if globals.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	if err := os.MkdirAll(globals.DataDir, 0o755); err != nil {
		return nil, err
	}
	db, err := storage.Open(filepath.Join(globals.DataDir, "zenfeed.db"))
	if err != nil {
		return nil, err
	}

	audio, err := offline.NewAudioStore(filepath.Join(globals.DataDir, "audio"), nil, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	images, err := imagecache.New(filepath.Join(globals.DataDir, "images"), logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	settings := storage.NewSettings(db)
	favorites := storage.NewFavorites(db)
	search := storage.NewSearchHistory(db)

	return &App{
		DB:         db,
		Settings:   settings,
		ReadState:  storage.NewReadState(db),
		Favorites:  favorites,
		Search:     search,
		Audio:      audio,
		Images:     images,
		Cache:      store.NewContentCache(db, store.DefaultCacheTTL, search, images, audio),
		Controller: favsync.NewController(favorites, settings, audio, logger),
		Logger:     logger,
	}, nil
}

// Close releases the database. Background downloads are waited out first.
func (a *App) Close() error {
	a.Controller.Wait()
	return a.DB.Close()
}

// Store builds the aggregating store over the configured source set: the
// primary server plus every additional ServerConfig.
func (a *App) Store() (*store.Store, error) {
	primaryAPI, primaryBackend, err := a.Settings.PrimaryServer()
	if err != nil {
		return nil, err
	}
	configs, err := a.Settings.ServerConfigs()
	if err != nil {
		return nil, err
	}

	var sources []store.Source
	if primaryAPI != "" {
		primary, err := client.NewQueryClient(primaryAPI, primaryBackend, nil)
		if err != nil {
			return nil, err
		}
		sources = append(sources, store.Source{ID: "", Client: primary})
	}
	for _, cfg := range configs {
		if err := model.ValidateServerConfig(cfg); err != nil {
			a.Logger.Warn("skipping invalid server config", "server_id", cfg.ID, "error", err)
			continue
		}
		src, err := client.NewQueryClient(cfg.APIURL, cfg.BackendURL, nil)
		if err != nil {
			a.Logger.Warn("skipping server", "server_id", cfg.ID, "error", err)
			continue
		}
		sources = append(sources, store.Source{ID: cfg.ID, Client: src})
	}

	return store.NewStore(store.Config{
		Sources: sources,
		Timeout: 30 * time.Second,
		Logger:  a.Logger,
	}, a.Cache)
}
