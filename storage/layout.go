package storage

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"EternalJukebox/config"
)

// Namespace is one of the three fixed cache directories.
type Namespace string

const (
	NamespaceAnalysis      Namespace = "analysis"
	NamespaceResolvedSong  Namespace = "resolved-song"
	NamespaceResolvedAudio Namespace = "resolved-audio"
)

// CustomIDPrefix marks identifiers of locally uploaded files.
const CustomIDPrefix = "CSTM"

var (
	nonAlphaNumeric = regexp.MustCompile(`[^A-Za-z0-9]`)
	customID        = regexp.MustCompile(`^` + CustomIDPrefix + `[A-Za-z0-9_-]+$`)
)

// SanitizeID strips everything but ASCII letters and digits so that a track
// id can be used as a file name.
func SanitizeID(id string) string {
	return nonAlphaNumeric.ReplaceAllString(id, "")
}

// IsCustomID reports whether s has the custom-upload identifier shape.
func IsCustomID(s string) bool {
	return customID.MatchString(s)
}

// AudioKey derives the resolved-audio cache key for a source: custom-upload
// ids are used verbatim, anything else is URL-safe base64 encoded.
func AudioKey(source string) string {
	if IsCustomID(source) {
		return source
	}
	return strings.ReplaceAll(base64.URLEncoding.EncodeToString([]byte(source)), "/", "-")
}

// Layout maps namespaces and keys to paths.
type Layout struct {
	dirs   map[Namespace]string
	format string
}

// NewLayout 根据配置创建目录布局
func NewLayout(cfg *config.Config) *Layout {
	return &Layout{
		dirs: map[Namespace]string{
			NamespaceAnalysis:      cfg.EternalDir,
			NamespaceResolvedSong:  cfg.SongsDir,
			NamespaceResolvedAudio: cfg.AudioDir,
		},
		format: cfg.AudioFormat,
	}
}

// Namespaces lists the namespaces in a fixed order.
func Namespaces() []Namespace {
	return []Namespace{NamespaceAnalysis, NamespaceResolvedSong, NamespaceResolvedAudio}
}

// Dir returns the directory of ns.
func (l *Layout) Dir(ns Namespace) string {
	return l.dirs[ns]
}

// Format returns the configured audio extension.
func (l *Layout) Format() string {
	return l.format
}

// EnsureDirs creates all namespace directories.
func (l *Layout) EnsureDirs() error {
	for _, ns := range Namespaces() {
		if err := os.MkdirAll(l.dirs[ns], 0755); err != nil {
			return err
		}
	}
	return nil
}

// AnalysisPath 分析结果文件 <eternal>/<id>.json，id 需已清洗
func (l *Layout) AnalysisPath(sanitizedID string) string {
	return filepath.Join(l.dirs[NamespaceAnalysis], sanitizedID+".json")
}

// SongPath 按曲目 ID 解析的音频 <songs>/<id>.<format>
func (l *Layout) SongPath(sanitizedID string) string {
	return filepath.Join(l.dirs[NamespaceResolvedSong], sanitizedID+"."+l.format)
}

// AudioPath 按来源解析的音频 <audio>/<key>.<format>
func (l *Layout) AudioPath(key string) string {
	return filepath.Join(l.dirs[NamespaceResolvedAudio], key+"."+l.format)
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
