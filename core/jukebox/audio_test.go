package jukebox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"EternalJukebox/core/downloader"
	"EternalJukebox/core/spotify"
	"EternalJukebox/core/youtube"
	"EternalJukebox/model"
	"EternalJukebox/storage"
)

func TestResolveAudioBySourceDownloads(t *testing.T) {
	h := newHarness(t)
	source := "https://soundcloud.com/artist/track"

	path, err := h.svc.ResolveAudioBySource(context.Background(), source, "")
	if err != nil {
		t.Fatalf("ResolveAudioBySource() error = %v", err)
	}
	if want := h.layout.AudioPath(storage.AudioKey(source)); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	jobs := h.downloader.calls()
	if len(jobs) != 1 {
		t.Fatalf("downloads = %d, want 1", len(jobs))
	}
	job := jobs[0]
	if job.Source != source || job.Format != "m4a" || job.Timeout != testAudioTimeout || job.Destination != path {
		t.Errorf("job = %+v", job)
	}

	again, err := h.svc.ResolveAudioBySource(context.Background(), source, "")
	if err != nil || again != path {
		t.Fatalf("second call = %q, %v", again, err)
	}
	if len(h.downloader.calls()) != 1 {
		t.Error("cache hit ran the downloader")
	}
}

func TestResolveAudioBySourceFallsBackToTrackID(t *testing.T) {
	h := newHarness(t)
	source := "https://example.com/gone.mp3"
	h.downloader.fail = func(src string) error {
		if src == source {
			return errors.New("exit status 1")
		}
		return nil
	}

	path, err := h.svc.ResolveAudioBySource(context.Background(), source, "abc")
	if err != nil {
		t.Fatalf("ResolveAudioBySource() error = %v", err)
	}
	if path != h.layout.SongPath("abc") {
		t.Errorf("path = %q, want resolved-song file", path)
	}
	if storage.Exists(h.layout.AudioPath(storage.AudioKey(source))) {
		t.Error("failed source left a resolved-audio file")
	}
	if len(h.videos.queries) != 1 || h.videos.queries[0] != "Rick Astley - Never Gonna Give You Up" {
		t.Errorf("video queries = %v", h.videos.queries)
	}
}

func TestResolveAudioBySourceWithoutFallback(t *testing.T) {
	h := newHarness(t)
	h.downloader.fail = func(string) error { return downloader.ErrNoOutput }

	_, err := h.svc.ResolveAudioBySource(context.Background(), "https://example.com/x", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if !errors.Is(err, downloader.ErrNoOutput) {
		t.Errorf("cause not preserved: %v", err)
	}
}

func TestResolveAudioBySourceCustomID(t *testing.T) {
	h := newHarness(t)
	const id = "CSTMdXBsb2Fkcy9zb25n"
	if err := os.WriteFile(h.layout.AudioPath(id), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	path, err := h.svc.ResolveAudioBySource(context.Background(), id, "")
	if err != nil {
		t.Fatal(err)
	}
	if path != h.layout.AudioPath(id) {
		t.Errorf("path = %q", path)
	}
	if len(h.downloader.calls()) != 0 {
		t.Error("custom upload triggered a download")
	}
}

func TestResolveAudioByTrackID(t *testing.T) {
	h := newHarness(t)

	path, err := h.svc.ResolveAudioByTrackID(context.Background(), "abc")
	if err != nil {
		t.Fatalf("ResolveAudioByTrackID() error = %v", err)
	}
	if path != h.layout.SongPath("abc") {
		t.Errorf("path = %q", path)
	}

	jobs := h.downloader.calls()
	if len(jobs) != 1 {
		t.Fatalf("downloads = %d", len(jobs))
	}
	if jobs[0].Source != "https://youtu.be/dQw4w9WgXcQ" || jobs[0].Timeout != testSongTimeout {
		t.Errorf("job = %+v", jobs[0])
	}
	want := []string{"token", "track"}
	if got := h.events.list(); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("calls = %v, want %v", got, want)
	}

	if _, err := h.svc.ResolveAudioByTrackID(context.Background(), "abc"); err != nil {
		t.Fatal(err)
	}
	if len(h.downloader.calls()) != 1 || h.provider.trackCalls.Load() != 1 {
		t.Error("cache hit went to the network")
	}
}

func TestResolveAudioByTrackIDNoCandidates(t *testing.T) {
	h := newHarness(t)
	h.videos.candidates = nil

	_, err := h.svc.ResolveAudioByTrackID(context.Background(), "abc")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if len(h.downloader.calls()) != 0 {
		t.Error("downloader ran without a candidate")
	}
	if h.alerts.count() != 1 {
		t.Errorf("alerts = %d, want 1", h.alerts.count())
	}
}

func TestResolveAudioByTrackIDTimeout(t *testing.T) {
	h := newHarness(t)
	h.downloader.fail = func(string) error { return downloader.ErrTimeout }

	_, err := h.svc.ResolveAudioByTrackID(context.Background(), "abc")
	if !errors.Is(err, ErrNotFound) || !errors.Is(err, downloader.ErrTimeout) {
		t.Fatalf("error = %v, want ErrNotFound wrapping ErrTimeout", err)
	}
	if storage.Exists(h.layout.SongPath("abc")) {
		t.Error("timed out download left a file")
	}
}

func TestResolveAudioByTrackIDDurationRanking(t *testing.T) {
	h := newHarness(t)
	h.svc.ranker = youtube.ClosestDuration{}
	h.provider.track = func(id string) (*model.SpotifyTrack, error) {
		return &model.SpotifyTrack{ID: id, Name: "n", Artists: []model.SpotifyArtist{{Name: "a"}}, DurationMs: 61000}, nil
	}

	if _, err := h.svc.ResolveAudioByTrackID(context.Background(), "abc"); err != nil {
		t.Fatal(err)
	}
	if got := h.downloader.calls()[0].Source; got != "https://youtu.be/yPYZpwSpKmA" {
		t.Errorf("source = %q, want closest duration hit", got)
	}
}

func TestResolveAudioCallerCancelled(t *testing.T) {
	h := newHarness(t)
	const source = "https://example.com/slow"
	release := make(chan struct{})
	h.downloader.fail = func(string) error {
		<-release
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := h.svc.ResolveAudioBySource(ctx, source, "abc")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}

	// 下载在调用方离开后继续，结果仍写入缓存
	close(release)
	path, err := h.svc.ResolveAudioBySource(context.Background(), source, "")
	if err != nil {
		t.Fatalf("follow-up call error = %v", err)
	}
	if len(h.downloader.calls()) != 1 {
		t.Errorf("downloads = %d, want 1", len(h.downloader.calls()))
	}
	if !storage.Exists(path) {
		t.Error("abandoned download was not cached")
	}
}

func TestResolveAudioUnconfiguredIsNotFound(t *testing.T) {
	h := newHarness(t)
	h.tokens.err = spotify.ErrNotConfigured
	h.downloader.fail = func(string) error { return errors.New("exit status 1") }

	_, err := h.svc.ResolveAudioBySource(context.Background(), "https://x/y", "abc")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ResolveAudioBySource() error = %v, want ErrNotFound", err)
	}
	if errors.Is(err, ErrNotConfigured) {
		t.Errorf("ResolveAudioBySource() error = %v, leaks ErrNotConfigured", err)
	}

	_, err = h.svc.ResolveAudioByTrackID(context.Background(), "abc")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ResolveAudioByTrackID() error = %v, want ErrNotFound", err)
	}
	if errors.Is(err, ErrNotConfigured) {
		t.Errorf("ResolveAudioByTrackID() error = %v, leaks ErrNotConfigured", err)
	}
	if h.provider.trackCalls.Load() != 0 {
		t.Error("provider called without credentials")
	}
}
