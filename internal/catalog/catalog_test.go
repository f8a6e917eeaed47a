package catalog

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"tstomkv/internal/config"
	"tstomkv/internal/services"
	"tstomkv/internal/transfer"
)

func TestCleanTitle(t *testing.T) {
	cases := map[string]string{
		"New: Show":       "Show",
		"new:live:Show":   "Show",
		"Live: New: Show": "Show",
		"Show":            "Show",
		"Newsnight":       "Newsnight",
	}
	for in, want := range cases {
		if got := CleanTitle(in); got != want {
			t.Errorf("CleanTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseEpisode(t *testing.T) {
	cases := []struct {
		in              string
		season, episode int
	}{
		{"Season 2.Episode 5", 2, 5},
		{"Episode 42", 0, 42},
		{"Season 3", 3, 0},
		{"", 0, 0},
	}
	for _, tc := range cases {
		s, e := ParseEpisode(tc.in)
		if s != tc.season || e != tc.episode {
			t.Errorf("ParseEpisode(%q) = %d, %d; want %d, %d", tc.in, s, e, tc.season, tc.episode)
		}
	}
}

func TestGroupByTitleKeepsFirstSeenOrder(t *testing.T) {
	in := []Candidate{
		{Path: "/r/b1.ts", Title: "B"},
		{Path: "/r/a1.ts", Title: "A"},
		{Path: "/r/b2.ts", Title: "b"},
		{Path: "/r/a2.ts", Title: "A"},
	}
	groups := GroupByTitle(in)
	if len(groups) != 2 || groups[0].Title != "B" || groups[1].Title != "A" {
		t.Fatalf("groups = %+v", groups)
	}
	flat := Flatten(groups)
	want := []string{"/r/b1.ts", "/r/b2.ts", "/r/a1.ts", "/r/a2.ts"}
	for i, p := range want {
		if flat[i].Path != p {
			t.Fatalf("flat[%d] = %s, want %s", i, flat[i].Path, p)
		}
	}
}

type fakeLister map[string][]transfer.RemoteFile

func (f fakeLister) List(_ context.Context, root, _ string) ([]transfer.RemoteFile, error) {
	files, ok := f[root]
	if !ok {
		return nil, services.Wrap(services.ErrTransfer, "transfer", "list", root, errors.New("no such directory"))
	}
	return files, nil
}

func TestListingCandidates(t *testing.T) {
	lister := fakeLister{
		"/recordings": {
			{Path: "/recordings/new: the news - Evening.ts", Size: 100},
			{Path: "/recordings/radio/Show.ts", Size: 10},
		},
		"/recordings/extra": {
			{Path: "/recordings/extra/Film.ts", Size: 200},
		},
	}
	l := NewListing(lister, []string{"/recordings", "/recordings/extra"}, ".ts", []string{"/recordings/radio"}, nil)
	got, err := l.ListCandidates(context.Background())
	if err != nil {
		t.Fatalf("ListCandidates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(got), got)
	}
	if got[0].Title != "The News" || got[0].Subtitle != "Evening" || got[0].SizeBytes != 100 {
		t.Fatalf("first = %+v", got[0])
	}
	if got[1].Path != "/recordings/extra/Film.ts" {
		t.Fatalf("second = %+v", got[1])
	}
}

func TestListingPropagatesTransferError(t *testing.T) {
	l := NewListing(fakeLister{}, []string{"/missing"}, ".ts", nil, nil)
	if _, err := l.ListCandidates(context.Background()); !errors.Is(err, services.ErrTransfer) {
		t.Fatalf("err = %v, want transfer error", err)
	}
}

const gridJSON = `{"total": 4, "entries": [
 {"uuid": "u1", "filename": "/var/lib/tvheadend/Show A - One.ts", "disp_title": "New: Show A", "disp_subtitle": " - One", "episode_disp": "Season 1.Episode 2", "channelname": "BBC One", "duration": 3600, "filesize": 1000, "start": 1700000000, "disp_description": "desc", "disp_extratext": "extra"},
 {"uuid": "u2", "filename": "/var/lib/tvheadend/radio/Talk.ts", "disp_title": "Talk"},
 {"uuid": "u3", "filename": "/var/lib/tvheadend/Film.ts", "disp_title": "Film\u0019Night"},
 {"uuid": "u4", "filename": "/var/lib/tvheadend/Show A - Two.ts", "disp_title": "Show A", "episode_disp": "Episode 3"},
 {"uuid": "u5", "filename": "/var/lib/tvheadend/Show A - Zero.mkv", "disp_title": "Show A"}
]}`

func newTvhServer(t *testing.T, grid string, moved *url.Values) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "tv" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/api/dvr/entry/grid_finished":
			if r.URL.Query().Get("limit") != "9999" {
				t.Errorf("limit = %q", r.URL.Query().Get("limit"))
			}
			_, _ = io.WriteString(w, grid)
		case "/api/dvr/entry/filemoved":
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form: %v", err)
			}
			*moved = r.PostForm
			_, _ = io.WriteString(w, "{}")
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestTvheadendListCandidates(t *testing.T) {
	var moved url.Values
	srv := newTvhServer(t, gridJSON, &moved)
	defer srv.Close()

	tvh := NewTvheadend(config.Tvheadend{URL: srv.URL + "/", User: "tv", Password: "secret"}, ".ts", []string{"/var/lib/tvheadend/radio"}, nil)
	got, err := tvh.ListCandidates(context.Background())
	if err != nil {
		t.Fatalf("ListCandidates: %v", err)
	}
	wantPaths := []string{
		"/var/lib/tvheadend/Show A - One.ts",
		"/var/lib/tvheadend/Show A - Two.ts",
		"/var/lib/tvheadend/Film.ts",
	}
	if len(got) != len(wantPaths) {
		t.Fatalf("got %d candidates: %+v", len(got), got)
	}
	for i, p := range wantPaths {
		if got[i].Path != p {
			t.Fatalf("got[%d] = %s, want %s", i, got[i].Path, p)
		}
	}
	first := got[0]
	if first.Title != "Show A" || first.Subtitle != "One" || first.Season != 1 || first.Episode != 2 {
		t.Fatalf("first = %+v", first)
	}
	if first.Duration != time.Hour || first.Channel != "BBC One" || first.Description != "desc. extra" {
		t.Fatalf("first = %+v", first)
	}
}

func TestTvheadendRetriesControlCharacter(t *testing.T) {
	var moved url.Values
	raw := "{\"total\":1,\"entries\":[{\"filename\":\"/r/a.ts\",\"disp_title\":\"A\x19B\"}]}"
	srv := newTvhServer(t, raw, &moved)
	defer srv.Close()

	tvh := NewTvheadend(config.Tvheadend{URL: srv.URL, User: "tv", Password: "secret"}, ".ts", nil, nil)
	got, err := tvh.ListCandidates(context.Background())
	if err != nil {
		t.Fatalf("ListCandidates: %v", err)
	}
	if len(got) != 1 || got[0].Title != "A B" {
		t.Fatalf("got = %+v", got)
	}
}

func TestTvheadendNotifyMoved(t *testing.T) {
	var moved url.Values
	srv := newTvhServer(t, gridJSON, &moved)
	defer srv.Close()

	tvh := NewTvheadend(config.Tvheadend{URL: srv.URL, User: "tv", Password: "secret"}, ".ts", nil, nil)
	if err := tvh.NotifyMoved(context.Background(), "/r/a.ts", "/r/a.mkv"); err != nil {
		t.Fatalf("NotifyMoved: %v", err)
	}
	if moved.Get("src") != "/r/a.ts" || moved.Get("dst") != "/r/a.mkv" {
		t.Fatalf("moved = %v", moved)
	}
}

func TestTvheadendAuthFailure(t *testing.T) {
	var moved url.Values
	srv := newTvhServer(t, gridJSON, &moved)
	defer srv.Close()

	tvh := NewTvheadend(config.Tvheadend{URL: srv.URL, User: "tv", Password: "wrong"}, ".ts", nil, nil)
	if _, err := tvh.ListCandidates(context.Background()); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("err = %v, want external tool error", err)
	}
}

func TestTvheadendSkipsConvertedRecordings(t *testing.T) {
	var moved url.Values
	raw := `{"total":2,"entries":[
 {"uuid": "d", "filename": "/r/Done.mkv", "disp_title": "Done"},
 {"uuid": "n", "filename": "/r/Next.TS", "disp_title": "Next"}
]}`
	srv := newTvhServer(t, raw, &moved)
	defer srv.Close()

	tvh := NewTvheadend(config.Tvheadend{URL: srv.URL, User: "tv", Password: "secret"}, ".ts", nil, nil)
	got, err := tvh.ListCandidates(context.Background())
	if err != nil {
		t.Fatalf("ListCandidates: %v", err)
	}
	if len(got) != 1 || got[0].Path != "/r/Next.TS" {
		t.Fatalf("got = %+v, want only /r/Next.TS", got)
	}
}

func TestNewSelectsTvheadendWithSourceExt(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog.Kind = KindTvheadend
	cfg.Source.SourceExt = ".ts"
	c, err := New(&cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tvh, ok := c.(*Tvheadend)
	if !ok {
		t.Fatalf("catalog = %T, want *Tvheadend", c)
	}
	if tvh.ext != ".ts" {
		t.Fatalf("ext = %q", tvh.ext)
	}
}
