package configstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "config"

// Store is a Redis-backed configuration store. Entries are keyed by
// their env name under config:<name>; a secondary set per category
// under config:category:<name> indexes membership. The category index
// is advisory: it is updated best-effort alongside entry writes and
// dangling members are skipped during enumeration.
type Store struct {
	rdb *redis.Client
}

// New creates a Store on top of an existing Redis client.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Ping verifies the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("configstore: ping failed: %w", err)
	}
	return nil
}

func entryKey(name string) string {
	return keyPrefix + ":" + name
}

func categoryKey(category string) string {
	return keyPrefix + ":category:" + category
}

// Set stores a configuration value. The category defaults to the first
// dotted segment of path and the alias defaults to path itself. Writes
// overwrite any existing entry (last write wins) and refresh the
// category index.
func (s *Store) Set(ctx context.Context, path string, value any, typ ValueType, category, alias string) error {
	if category == "" {
		category = strings.SplitN(path, ".", 2)[0]
	}
	if alias == "" {
		alias = path
	}

	entry := &Entry{
		Value:    value,
		Type:     typ,
		Category: category,
		Path:     path,
		EnvName:  alias,
	}

	data, err := entry.marshal()
	if err != nil {
		return fmt.Errorf("configstore: failed to encode %s: %w", alias, err)
	}

	if err := s.rdb.Set(ctx, entryKey(alias), data, 0).Err(); err != nil {
		return fmt.Errorf("configstore: failed to store %s: %w", alias, err)
	}

	// The index update is not transactional with the entry write; a
	// crash in between leaves a dangling member that enumeration skips.
	if err := s.rdb.SAdd(ctx, categoryKey(category), alias).Err(); err != nil {
		slog.Error("Failed to update category index", "category", category, "alias", alias, "error", err)
	}

	slog.Debug("Config stored", "alias", alias, "path", path)
	return nil
}

// Get returns the entry stored under alias, or ErrNotFound.
func (s *Store) Get(ctx context.Context, alias string) (*Entry, error) {
	data, err := s.rdb.Get(ctx, entryKey(alias)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("configstore: %q: %w", alias, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("configstore: failed to read %s: %w", alias, err)
	}

	entry, err := unmarshalEntry(data)
	if err != nil {
		return nil, fmt.Errorf("configstore: failed to decode %s: %w", alias, err)
	}
	return entry, nil
}

// GetValue returns the value stored under alias, or def on a miss or
// any read error. Errors are logged, never returned: hot-path config
// reads favor availability over correctness.
func (s *Store) GetValue(ctx context.Context, alias string, def any) any {
	entry, err := s.Get(ctx, alias)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Error("Config read failed, using default", "alias", alias, "error", err)
		}
		return def
	}
	return entry.Decode()
}

// GetBool is GetValue narrowed to bool.
func (s *Store) GetBool(ctx context.Context, alias string, def bool) bool {
	if v, ok := s.GetValue(ctx, alias, def).(bool); ok {
		return v
	}
	return def
}

// GetString is GetValue narrowed to string.
func (s *Store) GetString(ctx context.Context, alias string, def string) string {
	if v, ok := s.GetValue(ctx, alias, def).(string); ok {
		return v
	}
	return def
}

// Exists reports whether an entry is stored under alias.
func (s *Store) Exists(ctx context.Context, alias string) bool {
	n, err := s.rdb.Exists(ctx, entryKey(alias)).Result()
	if err != nil {
		slog.Error("Config existence check failed", "alias", alias, "error", err)
		return false
	}
	return n > 0
}

// Delete removes the entry under alias and its category index
// membership. Returns false if the alias is absent or on error; the
// two removals are not transactional.
func (s *Store) Delete(ctx context.Context, alias string) bool {
	entry, err := s.Get(ctx, alias)
	if err != nil {
		slog.Warn("Config to delete not found", "alias", alias)
		return false
	}

	if err := s.rdb.Del(ctx, entryKey(alias)).Err(); err != nil {
		slog.Error("Failed to delete config", "alias", alias, "error", err)
		return false
	}

	if entry.Category != "" {
		if err := s.rdb.SRem(ctx, categoryKey(entry.Category), alias).Err(); err != nil {
			slog.Error("Failed to remove category index member", "category", entry.Category, "alias", alias, "error", err)
		}
	}

	slog.Debug("Config deleted", "alias", alias)
	return true
}

// CategoryEntries returns every entry indexed under category. Index
// members whose entry no longer exists are skipped.
func (s *Store) CategoryEntries(ctx context.Context, category string) []*Entry {
	aliases, err := s.rdb.SMembers(ctx, categoryKey(category)).Result()
	if err != nil {
		slog.Error("Failed to list category members", "category", category, "error", err)
		return nil
	}
	sort.Strings(aliases)

	entries := make([]*Entry, 0, len(aliases))
	for _, alias := range aliases {
		entry, err := s.Get(ctx, alias)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// ByCategory reconstructs the category's entries as a nested mapping,
// splitting each path on '.'. Path collisions within a category are
// resolved last-write-wins.
func (s *Store) ByCategory(ctx context.Context, category string) (map[string]any, error) {
	entries := s.CategoryEntries(ctx, category)
	if len(entries) == 0 {
		return nil, fmt.Errorf("configstore: category %q: %w", category, ErrNotFound)
	}

	result := make(map[string]any)
	for _, entry := range entries {
		keys := strings.Split(entry.Path, ".")
		current := result
		for _, key := range keys[:len(keys)-1] {
			next, ok := current[key].(map[string]any)
			if !ok {
				next = make(map[string]any)
				current[key] = next
			}
			current = next
		}
		current[keys[len(keys)-1]] = entry.Decode()
	}
	return result, nil
}

// All returns every stored entry, sorted by env name.
func (s *Store) All(ctx context.Context) []*Entry {
	keys, err := s.rdb.Keys(ctx, keyPrefix+":*").Result()
	if err != nil {
		slog.Error("Failed to list config keys", "error", err)
		return nil
	}
	sort.Strings(keys)

	entries := make([]*Entry, 0, len(keys))
	for _, key := range keys {
		if strings.Contains(key, ":category:") {
			continue
		}
		data, err := s.rdb.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		entry, err := unmarshalEntry(data)
		if err != nil {
			slog.Warn("Skipping undecodable config entry", "key", key, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// Categories returns the sorted list of known category names.
func (s *Store) Categories(ctx context.Context) []string {
	keys, err := s.rdb.Keys(ctx, keyPrefix+":category:*").Result()
	if err != nil {
		slog.Error("Failed to list categories", "error", err)
		return nil
	}

	categories := make([]string, 0, len(keys))
	for _, key := range keys {
		idx := strings.LastIndex(key, ":")
		categories = append(categories, key[idx+1:])
	}
	sort.Strings(categories)
	return categories
}

// ClearCategory deletes every entry in the category and drops the
// category index itself.
func (s *Store) ClearCategory(ctx context.Context, category string) bool {
	aliases, err := s.rdb.SMembers(ctx, categoryKey(category)).Result()
	if err != nil {
		slog.Error("Failed to list category members", "category", category, "error", err)
		return false
	}

	for _, alias := range aliases {
		s.Delete(ctx, alias)
	}

	if err := s.rdb.Del(ctx, categoryKey(category)).Err(); err != nil {
		slog.Error("Failed to delete category index", "category", category, "error", err)
		return false
	}

	slog.Info("Category cleared", "category", category)
	return true
}

// GetByName resolves a configuration value by a human-friendly name
// using three tiers: (1) a direct alias match, (2) a full scan matching
// alias or exact path, (3) a full scan matching the last dotted segment
// of the path. Within a tier the first match (in sorted alias order)
// wins; colliding last segments are a known ambiguity the caller
// accepts.
func (s *Store) GetByName(ctx context.Context, name string) (any, error) {
	if entry, err := s.Get(ctx, name); err == nil {
		return entry.Decode(), nil
	}

	all := s.All(ctx)
	for _, entry := range all {
		if entry.EnvName == name || entry.Path == name {
			return entry.Decode(), nil
		}
	}
	for _, entry := range all {
		if entry.LastSegment() == name {
			return entry.Decode(), nil
		}
	}

	return nil, fmt.Errorf("configstore: %q: %w", name, ErrNotFound)
}

// UpdateByName locates an entry via the same three-tier resolution as
// GetByName and re-issues Set with the new value, preserving the
// original type, category, path and alias.
func (s *Store) UpdateByName(ctx context.Context, name string, value any) error {
	entry := s.resolveEntry(ctx, name)
	if entry == nil {
		return fmt.Errorf("configstore: %q: %w", name, ErrNotFound)
	}

	if err := s.Set(ctx, entry.Path, value, entry.Type, entry.Category, entry.EnvName); err != nil {
		return err
	}

	slog.Info("Config updated", "name", entry.EnvName, "path", entry.Path)
	return nil
}

func (s *Store) resolveEntry(ctx context.Context, name string) *Entry {
	if entry, err := s.Get(ctx, name); err == nil {
		return entry
	}

	all := s.All(ctx)
	for _, entry := range all {
		if entry.EnvName == name || entry.Path == name {
			return entry
		}
	}
	for _, entry := range all {
		if entry.LastSegment() == name {
			return entry
		}
	}
	return nil
}

// Summary describes the stored configuration without exposing values.
type Summary struct {
	TotalConfigs int                        `json:"total_configs"`
	Categories   []string                   `json:"discovered_categories"`
	PerCategory  map[string]CategorySummary `json:"categories"`
	StorageType  string                     `json:"storage_type"`
}

// CategorySummary describes one category's entries.
type CategorySummary struct {
	Count   int             `json:"count"`
	Configs []ConfigSummary `json:"configs"`
}

// ConfigSummary describes one entry.
type ConfigSummary struct {
	Path     string    `json:"path"`
	Type     ValueType `json:"type"`
	HasValue bool      `json:"has_value"`
}

// Summarize returns a value-free overview of the stored configuration.
func (s *Store) Summarize(ctx context.Context) Summary {
	all := s.All(ctx)
	categories := s.Categories(ctx)

	perCategory := make(map[string]CategorySummary, len(categories))
	for _, category := range categories {
		entries := s.CategoryEntries(ctx, category)
		configs := make([]ConfigSummary, 0, len(entries))
		for _, entry := range entries {
			configs = append(configs, ConfigSummary{
				Path:     entry.Path,
				Type:     entry.Type,
				HasValue: entry.Value != nil,
			})
		}
		perCategory[category] = CategorySummary{Count: len(entries), Configs: configs}
	}

	return Summary{
		TotalConfigs: len(all),
		Categories:   categories,
		PerCategory:  perCategory,
		StorageType:  "redis",
	}
}
