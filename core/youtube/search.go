package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"EternalJukebox/logger"
	"EternalJukebox/model"

	"golang.org/x/net/html"
)

const videoIDLength = 11

// Searcher resolves free-text queries to candidate videos by fetching one
// search results page and reading it as a static document.
type Searcher struct {
	searchURL  string
	httpClient *http.Client
}

// NewSearcher 创建搜索器
func NewSearcher(searchURL string, timeout time.Duration) *Searcher {
	return &Searcher{
		searchURL: searchURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetHTTPClient 替换底层 HTTP 客户端
func (s *Searcher) SetHTTPClient(hc *http.Client) {
	s.httpClient = hc
}

// Search returns candidates in page order, best first. Fetch or parse
// failures yield an empty result, never an error.
func (s *Searcher) Search(ctx context.Context, query string) []model.VideoCandidate {
	body, err := s.fetch(ctx, query)
	if err != nil {
		logger.Warn("[VideoSearch] 获取搜索页面失败",
			logger.String("query", query),
			logger.ErrorField(err))
		return nil
	}
	defer body.Close()

	candidates, err := ParseResults(body)
	if err != nil {
		logger.Warn("[VideoSearch] 解析搜索页面失败",
			logger.String("query", query),
			logger.ErrorField(err))
		return nil
	}

	logger.Debug("[VideoSearch] 搜索完成",
		logger.String("query", query),
		logger.Int("results", len(candidates)))
	return candidates
}

func (s *Searcher) fetch(ctx context.Context, query string) (io.ReadCloser, error) {
	params := url.Values{}
	params.Set("search_query", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("search page returned %s", resp.Status)
	}
	return resp.Body, nil
}

// ParseResults extracts videos from a results page. Every li under
// ol.item-section yields at most one video, read from the
// div.yt-lockup-dismissable blocks it contains.
func ParseResults(r io.Reader) ([]model.VideoCandidate, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var candidates []model.VideoCandidate
	for _, section := range findAll(doc, elementWithClass("ol", "item-section")) {
		for _, li := range findAll(section, element("li")) {
			lockups := findAll(li, elementWithClass("div", "yt-lockup-dismissable"))
			if c, ok := parseItem(lockups); ok {
				candidates = append(candidates, c)
			}
		}
	}
	return candidates, nil
}

// parseItem reads the first link and the running time across all lockups
// of one result item.
func parseItem(lockups []*html.Node) (model.VideoCandidate, bool) {
	var links, times []*html.Node
	for _, n := range lockups {
		links = append(links, findAll(n, func(n *html.Node) bool {
			_, ok := attr(n, "href")
			return n.Type == html.ElementNode && n.Data == "a" && ok
		})...)
		times = append(times, findAll(n, elementWithClass("span", "video-time"))...)
	}
	if len(links) == 0 {
		return model.VideoCandidate{}, false
	}
	href, _ := attr(links[0], "href")
	if strings.TrimSpace(href) == "" {
		return model.VideoCandidate{}, false
	}

	id := href
	if i := strings.Index(href, "="); i >= 0 {
		id = href[i+1:]
	}
	if len(id) < videoIDLength {
		return model.VideoCandidate{}, false
	}
	id = id[:videoIDLength]

	duration := DefaultDuration
	// 只有唯一的时长标签时才采用
	if len(times) == 1 {
		if d, err := ParseDuration(textContent(times[0])); err == nil {
			duration = d
		} else {
			logger.Debug("[VideoSearch] 时长解析失败，使用默认值",
				logger.String("videoId", id),
				logger.ErrorField(err))
		}
	}

	return model.VideoCandidate{ID: id, Duration: duration}, true
}

func element(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	}
}

func elementWithClass(tag, class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != tag {
			return false
		}
		classes, _ := attr(n, "class")
		for _, c := range strings.Fields(classes) {
			if c == class {
				return true
			}
		}
		return false
	}
}

// findAll returns matching descendants of root in document order.
func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if match(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
