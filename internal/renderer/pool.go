package renderer

import (
	"context"
	"sync"

	crawlerrors "github.com/corpuscrawl/corpuscrawl/internal/errors"
	"github.com/corpuscrawl/corpuscrawl/internal/logger"
)

type slotState int

const (
	slotLive slotState = iota
	slotDead
)

type slot struct {
	id        int
	state     slotState
	sess      *Session
	userAgent string
}

// Pool owns a fixed set of browser sessions checked out exclusively per
// fetch. Dead sessions are probed and replaced on checkout; a session whose
// replacement also fails is retired for the remainder of the run.
type Pool struct {
	cfg Config
	log *logger.Logger

	mu    sync.Mutex
	slots []*slot
	live  int
	// free carries ids of slots not currently checked out.
	free chan int
	// exhausted is closed when the last live slot is retired or the pool
	// closes, waking callers blocked on free.
	exhausted chan struct{}
	drained   bool
	closed    bool
}

// NewPool launches up to cfg.PoolSize sessions. Construction is best-effort:
// a slot whose launch fails is logged and skipped, and a total launch failure
// yields an empty pool rather than an error. Fetches against an empty pool
// fail fast with ErrNoRenderer.
func NewPool(cfg Config, log *logger.Logger) *Pool {
	if log == nil {
		log = logger.Nop()
	}
	agents := cfg.UserAgents
	if len(agents) == 0 {
		agents = DefaultUserAgents
	}
	if cfg.PoolSize < 1 {
		cfg.PoolSize = 1
	}

	p := &Pool{
		cfg:       cfg,
		log:       log.WithComponent("renderer"),
		free:      make(chan int, cfg.PoolSize),
		exhausted: make(chan struct{}),
	}

	for i := 0; i < cfg.PoolSize; i++ {
		ua := agents[i%len(agents)]
		sess, err := newSession(i, cfg, ua)
		if err != nil {
			p.log.WithSlot(i).WithError(err).Warn("Failed to launch browser session")
			continue
		}
		p.slots = append(p.slots, &slot{id: i, state: slotLive, sess: sess, userAgent: ua})
		p.live++
		p.free <- len(p.slots) - 1
		p.log.WithSlot(i).Debug("Browser session ready")
	}

	if p.live == 0 {
		p.log.Warn("Renderer pool is empty, all fetches will fail")
		p.mu.Lock()
		p.markExhaustedLocked()
		p.mu.Unlock()
	} else {
		p.log.Infof("Renderer pool ready with %d session(s)", p.live)
	}
	return p
}

// Live reports the number of sessions still usable.
func (p *Pool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

// Fetch checks out a session, renders the URL, and returns the rendered
// document source. The checked-out session is probed first; a dead one is
// replaced once, and a slot that cannot be replaced is retired. When no live
// session remains, Fetch returns ErrNoRenderer immediately rather than
// blocking.
func (p *Pool) Fetch(ctx context.Context, url string) (string, error) {
	for {
		p.mu.Lock()
		if p.closed || p.live == 0 {
			p.mu.Unlock()
			return "", crawlerrors.NewRendererUnavailable(url)
		}
		p.mu.Unlock()

		var idx int
		select {
		case idx = <-p.free:
		case <-p.exhausted:
			return "", crawlerrors.NewRendererUnavailable(url)
		case <-ctx.Done():
			return "", crawlerrors.Categorize(ctx.Err(), url)
		}

		sess, ok := p.checkout(idx, url)
		if !ok {
			// Slot retired; try another.
			continue
		}

		html, err := sess.render(ctx, url, p.cfg.RenderSettle, p.cfg.ScrollSettle)
		p.release(idx)
		if err != nil {
			return "", crawlerrors.Categorize(err, url)
		}
		return html, nil
	}
}

// checkout probes the slot's session and replaces it if dead. It returns
// ok=false when the slot is retired, in which case its id is not returned to
// the free channel.
func (p *Pool) checkout(idx int, url string) (*Session, bool) {
	p.mu.Lock()
	sl := p.slots[idx]
	p.mu.Unlock()

	if sl.state == slotLive && sl.sess != nil && sl.sess.Alive() {
		return sl.sess, true
	}

	p.log.WithSlot(sl.id).WithURL(url).Warn("Browser session unresponsive, relaunching")
	if sl.sess != nil {
		if err := sl.sess.Close(); err != nil {
			p.log.WithSlot(sl.id).WithError(err).Debug("Failed to close dead session")
		}
	}

	sess, err := newSession(sl.id, p.cfg, sl.userAgent)
	if err != nil {
		p.log.WithSlot(sl.id).WithError(err).Warn("Relaunch failed, retiring session slot")
		p.mu.Lock()
		sl.state = slotDead
		sl.sess = nil
		p.live--
		if p.live == 0 {
			p.markExhaustedLocked()
		}
		p.mu.Unlock()
		return nil, false
	}

	p.mu.Lock()
	sl.state = slotLive
	sl.sess = sess
	p.mu.Unlock()
	return sess, true
}

// markExhaustedLocked wakes every caller blocked waiting for a free slot.
// The caller must hold p.mu.
func (p *Pool) markExhaustedLocked() {
	if p.drained {
		return
	}
	p.drained = true
	close(p.exhausted)
}

func (p *Pool) release(idx int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.free <- idx
}

// Close tears down every remaining session. Teardown failures are logged and
// do not abort the shutdown.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	slots := p.slots
	p.live = 0
	p.markExhaustedLocked()
	p.mu.Unlock()

	for _, sl := range slots {
		if sl.sess == nil {
			continue
		}
		if err := sl.sess.Close(); err != nil {
			p.log.WithSlot(sl.id).WithError(err).Warn("Failed to close browser session")
		}
		sl.sess = nil
		sl.state = slotDead
	}
	p.log.Debug("Renderer pool closed")
}
