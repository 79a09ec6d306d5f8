package politeness

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/corpuscrawl/corpuscrawl/internal/logger"
)

// wildcardAgent is the agent token robots rules are evaluated against.
const wildcardAgent = "*"

// policyEntry caches the robots.txt outcome for one host. A nil data field
// with attempted=true means the fetch failed and the host is permissive for
// the rest of the run.
type policyEntry struct {
	data      *robotstxt.RobotsData
	attempted bool
}

// robotsCache fetches and caches robots.txt policies, at most one fetch
// attempt per host per run.
type robotsCache struct {
	client *http.Client
	agent  string
	log    *logger.Logger
}

func newRobotsCache(client *http.Client, userAgent string, log *logger.Logger) *robotsCache {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &robotsCache{client: client, agent: userAgent, log: log}
}

// fetch retrieves and parses https://{host}/robots.txt. Any failure returns
// nil: the host is treated as fully permissive and the degradation is logged
// as a warning, never an error.
func (rc *robotsCache) fetch(host string) *robotstxt.RobotsData {
	robotsURL := fmt.Sprintf("https://%s/robots.txt", host)

	req, err := http.NewRequest(http.MethodGet, robotsURL, nil)
	if err != nil {
		rc.log.WithHost(host).WithError(err).Warn("robots.txt request build failed, treating host as permissive")
		return nil
	}
	if rc.agent != "" {
		req.Header.Set("User-Agent", rc.agent)
	}

	resp, err := rc.client.Do(req)
	if err != nil {
		rc.log.WithHost(host).WithError(err).Warn("robots.txt unreachable, treating host as permissive")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		rc.log.WithHost(host).Warnf("robots.txt returned status %d, treating host as permissive", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		rc.log.WithHost(host).WithError(err).Warn("robots.txt read failed, treating host as permissive")
		return nil
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		rc.log.WithHost(host).WithError(err).Warn("robots.txt unparsable, treating host as permissive")
		return nil
	}
	return data
}

// allowed evaluates a path against a cached policy. A nil policy permits
// everything.
func (e *policyEntry) allowed(path string) bool {
	if e == nil || e.data == nil {
		return true
	}
	return e.data.TestAgent(path, wildcardAgent)
}

// crawlDelay returns the policy's crawl-delay for the wildcard agent, or 0.
func (e *policyEntry) crawlDelay() time.Duration {
	if e == nil || e.data == nil {
		return 0
	}
	group := e.data.FindGroup(wildcardAgent)
	if group == nil {
		return 0
	}
	return group.CrawlDelay
}
