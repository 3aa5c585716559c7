package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/leopold7/zenfeed-go/model"
)

// Setting keys. Values are stored as strings; structured values are JSON.
const (
	settingPrimaryAPIURL       = "primary_api_url"
	settingPrimaryBackendURL   = "primary_backend_url"
	settingServerConfigs       = "server_configs"
	settingGroupingMode        = "home_grouping_mode"
	settingCategoryFilters     = "category_filter_configs"
	settingTitleFilterKeywords = "title_filter_keywords"
	settingAutoDownloadToLocal = "auto_download_to_local"
	settingImageCacheEnabled   = "image_cache_enabled"
	settingMarkPodcastAsRead   = "mark_podcast_as_read"
)

// Settings is the read side of the configuration consumed by the core. The
// core never recomputes implicitly on settings changes; callers re-read the
// current values and drive recomputation explicitly.
type Settings struct {
	db *DB
}

// NewSettings creates a settings store backed by db.
func NewSettings(db *DB) *Settings {
	return &Settings{db: db}
}

func (s *Settings) get(key string) (string, bool, error) {
	var val string
	err := s.db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *Settings) put(key, value string) error {
	_, err := s.db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	return err
}

func (s *Settings) getBool(key string, def bool) (bool, error) {
	val, ok, err := s.get(key)
	if err != nil || !ok {
		return def, err
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def, nil
	}
	return b, nil
}

// PrimaryServer returns the API and backend URL of the implicit primary
// source (server ID "").
func (s *Settings) PrimaryServer() (apiURL, backendURL string, err error) {
	apiURL, _, err = s.get(settingPrimaryAPIURL)
	if err != nil {
		return "", "", err
	}
	backendURL, _, err = s.get(settingPrimaryBackendURL)
	return apiURL, backendURL, err
}

// SavePrimaryServer stores the primary source URLs.
func (s *Settings) SavePrimaryServer(apiURL, backendURL string) error {
	if err := s.put(settingPrimaryAPIURL, apiURL); err != nil {
		return err
	}
	return s.put(settingPrimaryBackendURL, backendURL)
}

// ServerConfigs returns the configured additional servers.
func (s *Settings) ServerConfigs() ([]model.ServerConfig, error) {
	val, ok, err := s.get(settingServerConfigs)
	if err != nil || !ok {
		return nil, err
	}
	var configs []model.ServerConfig
	if err := json.Unmarshal([]byte(val), &configs); err != nil {
		return nil, fmt.Errorf("decode server configs: %w", err)
	}
	return configs, nil
}

// SaveServerConfigs stores the additional server list.
func (s *Settings) SaveServerConfigs(configs []model.ServerConfig) error {
	data, err := json.Marshal(configs)
	if err != nil {
		return err
	}
	return s.put(settingServerConfigs, string(data))
}

// GroupingMode returns the home grouping mode, defaulting to category.
func (s *Settings) GroupingMode() (model.GroupingMode, error) {
	val, ok, err := s.get(settingGroupingMode)
	if err != nil || !ok {
		return model.GroupByCategory, err
	}
	mode, err := model.ParseGroupingMode(val)
	if err != nil {
		return model.GroupByCategory, nil
	}
	return mode, nil
}

// SaveGroupingMode stores the home grouping mode.
func (s *Settings) SaveGroupingMode(mode model.GroupingMode) error {
	return s.put(settingGroupingMode, mode.String())
}

// CategoryFilterConfigs returns the per-group visibility configuration.
func (s *Settings) CategoryFilterConfigs() ([]model.CategoryFilterConfig, error) {
	val, ok, err := s.get(settingCategoryFilters)
	if err != nil || !ok {
		return nil, err
	}
	var configs []model.CategoryFilterConfig
	if err := json.Unmarshal([]byte(val), &configs); err != nil {
		return nil, fmt.Errorf("decode category filter configs: %w", err)
	}
	return configs, nil
}

// SaveCategoryFilterConfigs stores the per-group visibility configuration.
func (s *Settings) SaveCategoryFilterConfigs(configs []model.CategoryFilterConfig) error {
	data, err := json.Marshal(configs)
	if err != nil {
		return err
	}
	return s.put(settingCategoryFilters, string(data))
}

// TitleFilterKeywords returns the comma-separated title exclusion keywords.
func (s *Settings) TitleFilterKeywords() (string, error) {
	val, _, err := s.get(settingTitleFilterKeywords)
	return val, err
}

// SaveTitleFilterKeywords stores the title exclusion keywords.
func (s *Settings) SaveTitleFilterKeywords(keywords string) error {
	return s.put(settingTitleFilterKeywords, keywords)
}

// AutoDownloadToLocal reports whether favorited podcasts are downloaded for
// offline playback automatically. Off by default.
func (s *Settings) AutoDownloadToLocal() (bool, error) {
	return s.getBool(settingAutoDownloadToLocal, false)
}

// SaveAutoDownloadToLocal stores the auto-download toggle.
func (s *Settings) SaveAutoDownloadToLocal(enabled bool) error {
	return s.put(settingAutoDownloadToLocal, strconv.FormatBool(enabled))
}

// ImageCacheEnabled reports whether article images are cached. On by default.
func (s *Settings) ImageCacheEnabled() (bool, error) {
	return s.getBool(settingImageCacheEnabled, true)
}

// SaveImageCacheEnabled stores the image cache toggle.
func (s *Settings) SaveImageCacheEnabled(enabled bool) error {
	return s.put(settingImageCacheEnabled, strconv.FormatBool(enabled))
}

// MarkPodcastAsRead reports whether playback marks entries read. The playback
// boundary reads this; the core only stores it. On by default.
func (s *Settings) MarkPodcastAsRead() (bool, error) {
	return s.getBool(settingMarkPodcastAsRead, true)
}

// SaveMarkPodcastAsRead stores the playback mark-read toggle.
func (s *Settings) SaveMarkPodcastAsRead(enabled bool) error {
	return s.put(settingMarkPodcastAsRead, strconv.FormatBool(enabled))
}
