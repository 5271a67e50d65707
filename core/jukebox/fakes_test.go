package jukebox

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"EternalJukebox/config"
	"EternalJukebox/core/downloader"
	"EternalJukebox/core/youtube"
	"EternalJukebox/model"
	"EternalJukebox/storage"
)

// events records the order in which collaborators were called.
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, name)
}

func (e *events) list() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.log...)
}

type fakeProvider struct {
	events *events

	trackCalls    atomic.Int32
	analysisCalls atomic.Int32
	searchCalls   atomic.Int32

	track    func(id string) (*model.SpotifyTrack, error)
	analysis func(id string) (*model.SpotifyAudioAnalysis, error)
	search   func(query string, limit int) ([]model.SpotifyTrack, error)
}

func (f *fakeProvider) GetTrack(_ context.Context, _, id string) (*model.SpotifyTrack, error) {
	f.trackCalls.Add(1)
	f.events.add("track")
	if f.track != nil {
		return f.track(id)
	}
	return &model.SpotifyTrack{
		ID:         id,
		Name:       "Never Gonna Give You Up",
		Artists:    []model.SpotifyArtist{{Name: "Rick Astley"}, {Name: "Someone Else"}},
		DurationMs: 213000,
	}, nil
}

func (f *fakeProvider) GetAudioAnalysis(_ context.Context, _, id string) (*model.SpotifyAudioAnalysis, error) {
	f.analysisCalls.Add(1)
	f.events.add("analysis")
	if f.analysis != nil {
		return f.analysis(id)
	}
	key := 0
	return &model.SpotifyAudioAnalysis{
		Sections: []model.TimedSegment{{Start: 0, Duration: 10.5, Confidence: 1, Key: &key}},
		Bars:     []model.TimedSegment{{Start: 0, Duration: 2}, {Start: 2, Duration: 2}},
		Beats:    []model.TimedSegment{{Start: 0, Duration: 0.5}},
		Tatums:   []model.TimedSegment{{Start: 0, Duration: 0.25}},
		Segments: []model.TimedSegment{{Start: 0, Duration: 0.3, Pitches: []float64{1, 0.5}}},
		Track:    []byte(`{"tempo":113.3}`),
	}, nil
}

func (f *fakeProvider) SearchTracks(_ context.Context, _, query string, limit int) ([]model.SpotifyTrack, error) {
	f.searchCalls.Add(1)
	f.events.add("search")
	return f.search(query, limit)
}

type fakeTokens struct {
	events *events
	calls  atomic.Int32
	err    error
}

func (f *fakeTokens) ValidToken(context.Context) (string, error) {
	f.calls.Add(1)
	f.events.add("token")
	if f.err != nil {
		return "", f.err
	}
	return "bearer", nil
}

type fakeVideos struct {
	mu         sync.Mutex
	queries    []string
	candidates []model.VideoCandidate
}

func (f *fakeVideos) Search(_ context.Context, query string) []model.VideoCandidate {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.candidates
}

// fakeDownloader writes a small file to the destination unless fail says
// otherwise for the job's source.
type fakeDownloader struct {
	mu   sync.Mutex
	jobs []downloader.Job
	fail func(source string) error
}

func (f *fakeDownloader) Download(_ context.Context, job downloader.Job) error {
	f.mu.Lock()
	f.jobs = append(f.jobs, job)
	f.mu.Unlock()
	if f.fail != nil {
		if err := f.fail(job.Source); err != nil {
			return err
		}
	}
	return os.WriteFile(job.Destination, []byte("audio"), 0644)
}

func (f *fakeDownloader) calls() []downloader.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]downloader.Job(nil), f.jobs...)
}

type fakeAlerter struct {
	mu     sync.Mutex
	titles []string
	bodies []string
}

func (f *fakeAlerter) Alert(_ context.Context, title, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = append(f.titles, title)
	f.bodies = append(f.bodies, body)
}

func (f *fakeAlerter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.titles)
}

type harness struct {
	svc        *Service
	layout     *storage.Layout
	events     *events
	provider   *fakeProvider
	tokens     *fakeTokens
	videos     *fakeVideos
	downloader *fakeDownloader
	alerts     *fakeAlerter
}

const (
	testPublicURL    = "http://jukebox.test"
	testSongTimeout  = 50 * time.Second
	testAudioTimeout = 10 * time.Minute
)

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	layout := storage.NewLayout(&config.Config{
		EternalDir:  filepath.Join(dir, "eternal"),
		SongsDir:    filepath.Join(dir, "songs"),
		AudioDir:    filepath.Join(dir, "audio"),
		AudioFormat: "m4a",
	})
	if err := layout.EnsureDirs(); err != nil {
		t.Fatal(err)
	}

	ev := &events{}
	h := &harness{
		layout:   layout,
		events:   ev,
		provider: &fakeProvider{events: ev},
		tokens:   &fakeTokens{events: ev},
		videos: &fakeVideos{candidates: []model.VideoCandidate{
			{ID: "dQw4w9WgXcQ", Duration: 213 * time.Second},
			{ID: "yPYZpwSpKmA", Duration: time.Minute},
		}},
		downloader: &fakeDownloader{},
		alerts:     &fakeAlerter{},
	}
	h.svc = New(Options{
		Provider:     h.provider,
		Tokens:       h.tokens,
		Videos:       h.videos,
		Ranker:       youtube.TopResult{},
		Downloader:   h.downloader,
		Storage:      storage.NewManager(layout, storage.Thresholds{Size: 1 << 40, Buffer: 1 << 40, Emergency: 1 << 40}, h.alerts),
		Alerter:      h.alerts,
		PublicURL:    testPublicURL,
		SongTimeout:  testSongTimeout,
		AudioTimeout: testAudioTimeout,
	})
	return h
}
