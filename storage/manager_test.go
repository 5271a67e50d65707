package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"EternalJukebox/core/alert"
)

type recordingAlerter struct {
	mu     sync.Mutex
	titles []string
	bodies []string
}

func (r *recordingAlerter) Alert(_ context.Context, title, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
	r.bodies = append(r.bodies, body)
}

func (r *recordingAlerter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.titles)
}

// writeAged creates a file of size bytes whose mtime is age in the past.
func writeAged(t *testing.T, path string, size int, age time.Duration) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

// seedABC spreads three files of 100, 50 and 200 bytes, oldest first,
// across all three namespaces.
func seedABC(t *testing.T, l *Layout) (a, b, c string) {
	t.Helper()
	a = l.AnalysisPath("A")
	b = l.SongPath("B")
	c = l.AudioPath("C")
	writeAged(t, a, 100, 3*time.Hour)
	writeAged(t, b, 50, 2*time.Hour)
	writeAged(t, c, 200, time.Hour)
	return a, b, c
}

func TestReclaimEvictsOldestFirst(t *testing.T) {
	tests := []struct {
		name    string
		buffer  int64
		kept    []string
		removed []string
	}{
		// 350 > 300: drop A (250), drop B (200), stop at buffer
		{name: "buffer 200", buffer: 200, kept: []string{"C"}, removed: []string{"A", "B"}},
		// 350 -> 250 -> 200 -> 0
		{name: "buffer 100", buffer: 100, removed: []string{"A", "B", "C"}},
		// already at or below buffer after A goes
		{name: "buffer 250", buffer: 250, kept: []string{"B", "C"}, removed: []string{"A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := testLayout(t)
			a, b, c := seedABC(t, l)
			paths := map[string]string{"A": a, "B": b, "C": c}

			m := NewManager(l, Thresholds{Size: 300, Buffer: tt.buffer, Emergency: 1000}, nil)
			r := m.reclaim(context.Background())

			for _, name := range tt.kept {
				if !Exists(paths[name]) {
					t.Errorf("%s was evicted", name)
				}
			}
			for _, name := range tt.removed {
				if Exists(paths[name]) {
					t.Errorf("%s was kept", name)
				}
			}
			if r.before != 350 {
				t.Errorf("before = %d, want 350", r.before)
			}
			if r.deleted != len(tt.removed) {
				t.Errorf("deleted = %d, want %d", r.deleted, len(tt.removed))
			}
		})
	}
}

func TestReclaimBelowSizeDoesNothing(t *testing.T) {
	l := testLayout(t)
	a, b, c := seedABC(t, l)

	m := NewManager(l, Thresholds{Size: 350, Buffer: 0, Emergency: 1000}, nil)
	m.Reclaim(context.Background())

	for _, p := range []string{a, b, c} {
		if !Exists(p) {
			t.Errorf("%s evicted while at target size", filepath.Base(p))
		}
	}
}

func TestReclaimEmergencyAlerts(t *testing.T) {
	l := testLayout(t)
	seedABC(t, l)
	alerts := &recordingAlerter{}

	m := NewManager(l, Thresholds{Size: 1000, Buffer: 500, Emergency: 300}, alerts)
	m.Reclaim(context.Background())

	if alerts.count() != 1 {
		t.Fatalf("alerts = %d, want 1", alerts.count())
	}
	if alerts.titles[0] != alert.TitleEmergencyStorage {
		t.Errorf("title = %q", alerts.titles[0])
	}
	if !strings.Contains(alerts.bodies[0], "350 B") {
		t.Errorf("body = %q, want byte count", alerts.bodies[0])
	}
	if got := m.Usage().Files; got != 3 {
		t.Errorf("emergency alone evicted files, %d left", got)
	}
}

func TestReclaimNoAlertUnderEmergency(t *testing.T) {
	l := testLayout(t)
	seedABC(t, l)
	alerts := &recordingAlerter{}

	NewManager(l, Thresholds{Size: 300, Buffer: 200, Emergency: 350}, alerts).Reclaim(context.Background())

	if alerts.count() != 0 {
		t.Errorf("alerts = %d at exactly the emergency threshold", alerts.count())
	}
}

func TestReclaimSkipsDirectoriesAndMissingNamespaces(t *testing.T) {
	l := testLayout(t)
	if err := os.Mkdir(filepath.Join(l.Dir(NamespaceAnalysis), "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(l.Dir(NamespaceResolvedSong)); err != nil {
		t.Fatal(err)
	}
	writeAged(t, l.AudioPath("x"), 10, time.Minute)

	m := NewManager(l, Thresholds{Size: 0, Buffer: 0, Emergency: 100}, nil)
	m.Reclaim(context.Background())

	if Exists(l.AudioPath("x")) {
		t.Error("regular file over budget not evicted")
	}
	if _, err := os.Stat(filepath.Join(l.Dir(NamespaceAnalysis), "sub")); err != nil {
		t.Error("directory inside namespace was touched")
	}
}

func TestUsage(t *testing.T) {
	l := testLayout(t)
	seedABC(t, l)

	u := NewManager(l, Thresholds{}, nil).Usage()
	if u.Files != 3 || u.Bytes != 350 {
		t.Fatalf("Usage() = %d files, %d bytes", u.Files, u.Bytes)
	}
	want := map[Namespace]int64{
		NamespaceAnalysis:      100,
		NamespaceResolvedSong:  50,
		NamespaceResolvedAudio: 200,
	}
	for ns, n := range want {
		if u.ByNamespace[ns] != n {
			t.Errorf("ByNamespace[%s] = %d, want %d", ns, u.ByNamespace[ns], n)
		}
	}
}

func TestReclaimLeavesTemporaryFiles(t *testing.T) {
	l := testLayout(t)
	old := l.AnalysisPath("A")
	writeAged(t, old, 100, 3*time.Hour)
	// 下载进程与原子写入使用的临时文件
	download := filepath.Join(l.Dir(NamespaceResolvedAudio), ".0b1c-inflight.m4a")
	writeAged(t, download, 200, time.Second)
	pending := filepath.Join(l.Dir(NamespaceAnalysis), ".9f2e.tmp")
	writeAged(t, pending, 50, 4*time.Hour)

	m := NewManager(l, Thresholds{Size: 50, Buffer: 0, Emergency: 1000}, nil)
	if u := m.Usage(); u.Files != 1 || u.Bytes != 100 {
		t.Errorf("Usage() = %d files, %d bytes; temporary files counted", u.Files, u.Bytes)
	}

	m.Reclaim(context.Background())

	if Exists(old) {
		t.Error("cache file over budget was kept")
	}
	for _, p := range []string{download, pending} {
		if !Exists(p) {
			t.Errorf("temporary file %s was evicted", filepath.Base(p))
		}
	}
}
