// Package catalog produces the ordered list of recordings a run works through.
//
// Listing walks the source roots through the transfer channel; Tvheadend asks
// the DVR API for finished recordings and can tell it when a file has moved.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tstomkv/internal/config"
	"tstomkv/internal/services"
	"tstomkv/internal/transfer"
)

// Candidate is one recording eligible for conversion.
type Candidate struct {
	Path        string
	Title       string
	Subtitle    string
	Season      int
	Episode     int
	Channel     string
	SizeBytes   int64
	Duration    time.Duration
	Start       time.Time
	UUID        string
	Description string
}

// Catalog lists candidates in processing order.
type Catalog interface {
	ListCandidates(ctx context.Context) ([]Candidate, error)
}

// MoveNotifier is implemented by catalogs that track file locations and must
// be told when a recording is replaced.
type MoveNotifier interface {
	NotifyMoved(ctx context.Context, src, dst string) error
}

const (
	KindListing   = "listing"
	KindTvheadend = "tvheadend"
)

// New builds the catalog selected by catalog.kind.
func New(cfg *config.Config, lister Lister, logger *slog.Logger) (Catalog, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Catalog.Kind)) {
	case KindListing, "":
		return NewListing(lister, cfg.Source.Roots, cfg.Source.SourceExt, cfg.Catalog.SkipPrefixes, logger), nil
	case KindTvheadend:
		return NewTvheadend(cfg.Catalog.Tvheadend, cfg.Source.SourceExt, cfg.Catalog.SkipPrefixes, logger), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "init",
			fmt.Sprintf("unsupported kind %q", cfg.Catalog.Kind), nil)
	}
}

// Lister is the part of transfer.Channel the listing catalog needs.
type Lister interface {
	List(ctx context.Context, root, ext string) ([]transfer.RemoteFile, error)
}

// Group is a run of candidates sharing a title.
type Group struct {
	Title string
	Items []Candidate
}

// GroupByTitle groups candidates by case-folded title, keeping the order in
// which each title was first seen and the original order within a group.
func GroupByTitle(candidates []Candidate) []Group {
	var groups []Group
	index := make(map[string]int)
	folder := cases.Fold()
	for _, c := range candidates {
		key := folder.String(c.Title)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Title: c.Title})
		}
		groups[i].Items = append(groups[i].Items, c)
	}
	return groups
}

// Flatten returns grouped candidates in group order.
func Flatten(groups []Group) []Candidate {
	var out []Candidate
	for _, g := range groups {
		out = append(out, g.Items...)
	}
	return out
}

var titlePrefixes = []string{"new:", "live:"}

// CleanTitle strips "New:" and "Live:" markers in either order.
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	for changed := true; changed; {
		changed = false
		for _, prefix := range titlePrefixes {
			if len(title) >= len(prefix) && strings.EqualFold(title[:len(prefix)], prefix) {
				title = strings.TrimSpace(title[len(prefix):])
				changed = true
			}
		}
	}
	return title
}

var (
	seasonPattern  = regexp.MustCompile(`^Season (\d+)`)
	episodePattern = regexp.MustCompile(`Episode (\d+)`)
)

// ParseEpisode extracts season and episode numbers from tvheadend's
// episode_disp ("Season 12.Episode 2", "Episode 37"). Zero means absent.
func ParseEpisode(display string) (season, episode int) {
	if m := seasonPattern.FindStringSubmatch(display); m != nil {
		season, _ = strconv.Atoi(m[1])
	}
	if m := episodePattern.FindStringSubmatch(display); m != nil {
		episode, _ = strconv.Atoi(m[1])
	}
	return season, episode
}

// titleFromFilename derives a display title from a recording file name, which
// tvheadend writes as "<Title> - <Subtitle>.ts" or "<Title>.ts".
func titleFromFilename(remote string) (title, subtitle string) {
	base := strings.TrimSuffix(path.Base(remote), path.Ext(remote))
	base = strings.ReplaceAll(base, "_", " ")
	title, subtitle, _ = strings.Cut(base, " - ")
	title = CleanTitle(title)
	if title == strings.ToLower(title) {
		title = cases.Title(language.English).String(title)
	}
	return title, strings.TrimSpace(subtitle)
}

func skipped(remote string, prefixes []string) bool {
	for _, prefix := range prefixes {
		prefix = strings.TrimSpace(prefix)
		if prefix == "" {
			continue
		}
		if remote == prefix || strings.HasPrefix(remote, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}
