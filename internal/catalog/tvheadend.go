package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"tstomkv/internal/config"
	"tstomkv/internal/logging"
	"tstomkv/internal/services"
)

const userAgent = "tstomkv/0.1.0"

// Tvheadend reads finished recordings from the tvheadend DVR API.
type Tvheadend struct {
	baseURL      string
	user         string
	password     string
	limit        int
	ext          string
	skipPrefixes []string
	client       *http.Client
	logger       *slog.Logger
}

// NewTvheadend builds a client for the API rooted at cfg.URL. Only recordings
// whose filename ends in ext are listed.
func NewTvheadend(cfg config.Tvheadend, ext string, skipPrefixes []string, logger *slog.Logger) *Tvheadend {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = 9999
	}
	return &Tvheadend{
		baseURL:      strings.TrimRight(cfg.URL, "/"),
		user:         cfg.User,
		password:     cfg.Password,
		limit:        limit,
		ext:          ext,
		skipPrefixes: skipPrefixes,
		client:       &http.Client{Timeout: timeout},
		logger:       logging.NewComponentLogger(logger, "tvheadend"),
	}
}

type gridResponse struct {
	Entries []entry `json:"entries"`
	Total   int     `json:"total"`
}

type entry struct {
	UUID            string `json:"uuid"`
	Filename        string `json:"filename"`
	DispTitle       string `json:"disp_title"`
	DispSubtitle    string `json:"disp_subtitle"`
	DispDescription string `json:"disp_description"`
	DispExtraText   string `json:"disp_extratext"`
	EpisodeDisp     string `json:"episode_disp"`
	ChannelName     string `json:"channelname"`
	Duration        int64  `json:"duration"`
	Filesize        int64  `json:"filesize"`
	Start           int64  `json:"start"`
	Status          string `json:"status"`
}

// ListCandidates returns finished recordings grouped by title in the order
// each title first appears.
func (t *Tvheadend) ListCandidates(ctx context.Context) ([]Candidate, error) {
	body, err := t.do(ctx, http.MethodGet, "dvr/entry/grid_finished", url.Values{"limit": {strconv.Itoa(t.limit)}})
	if err != nil {
		return nil, err
	}
	grid, err := decodeGrid(body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "catalog", "decode grid_finished", "", err)
	}

	candidates := make([]Candidate, 0, len(grid.Entries))
	for _, e := range grid.Entries {
		if strings.TrimSpace(e.Filename) == "" {
			continue
		}
		// Entries already pointed at a converted file by filemoved.
		if !hasExt(e.Filename, t.ext) {
			t.logger.Debug("skipping by extension", logging.String("path", e.Filename))
			continue
		}
		if skipped(e.Filename, t.skipPrefixes) {
			t.logger.Debug("skipping by prefix", logging.String("path", e.Filename))
			continue
		}
		candidates = append(candidates, e.candidate())
	}
	t.logger.Debug("recordings listed",
		logging.Int("total", grid.Total),
		logging.Int("entries", len(grid.Entries)),
		logging.Int("candidates", len(candidates)),
	)
	return Flatten(GroupByTitle(candidates)), nil
}

// NotifyMoved tells tvheadend that a recording's file now lives at dst.
func (t *Tvheadend) NotifyMoved(ctx context.Context, src, dst string) error {
	_, err := t.do(ctx, http.MethodPost, "dvr/entry/filemoved", url.Values{"src": {src}, "dst": {dst}})
	return err
}

func hasExt(name, ext string) bool {
	if ext == "" {
		return true
	}
	return strings.EqualFold(path.Ext(name), ext)
}

func (e entry) candidate() Candidate {
	season, episode := ParseEpisode(e.EpisodeDisp)
	description := strings.TrimSpace(e.DispDescription)
	if extra := strings.TrimSpace(e.DispExtraText); extra != "" {
		if description != "" {
			description += ". "
		}
		description += extra
	}
	c := Candidate{
		Path:        e.Filename,
		Title:       CleanTitle(e.DispTitle),
		Subtitle:    strings.TrimSpace(strings.TrimPrefix(e.DispSubtitle, " - ")),
		Season:      season,
		Episode:     episode,
		Channel:     e.ChannelName,
		SizeBytes:   e.Filesize,
		Duration:    time.Duration(e.Duration) * time.Second,
		UUID:        e.UUID,
		Description: description,
	}
	if e.Start > 0 {
		c.Start = time.Unix(e.Start, 0)
	}
	return c
}

// decodeGrid parses the grid response. tvheadend occasionally embeds the
// control character 0x19 in EPG text, which is not valid JSON; it is replaced
// with a space on a second attempt.
func decodeGrid(body []byte) (gridResponse, error) {
	var grid gridResponse
	err := json.Unmarshal(body, &grid)
	if err == nil {
		return grid, nil
	}
	cleaned := bytes.ReplaceAll(body, []byte{0x19}, []byte{' '})
	if retryErr := json.Unmarshal(cleaned, &grid); retryErr != nil {
		return gridResponse{}, err
	}
	return grid, nil
}

func (t *Tvheadend) do(ctx context.Context, method, route string, params url.Values) ([]byte, error) {
	endpoint := t.baseURL + "/api/" + route
	var (
		req *http.Request
		err error
	)
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, endpoint+"?"+params.Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(params.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "build request", route, err)
	}
	req.Header.Set("User-Agent", userAgent)
	if t.user != "" {
		req.SetBasicAuth(t.user, t.password)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "catalog", "tvheadend request", route, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "catalog", "read response", route, err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, services.Wrap(services.ErrExternalTool, "catalog", "tvheadend request",
			fmt.Sprintf("%s returned %d: %s", route, resp.StatusCode, snippet), nil)
	}
	return body, nil
}
