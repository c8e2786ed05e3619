// Package browser implements the headless-browser document loader the core
// consumes through retrieval.Loader/retrieval.PageFetcher: a concrete
// adapter a driver wires in, not a core requirement.
package browser

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Pool manages a bounded set of browser contexts for concurrent page loads:
// each Instance (one context and its page) serves one caller between
// Acquire and Release, and a released Instance is handed to later callers.
type Pool struct {
	config    PoolConfig
	instances chan *Instance
	mu        sync.Mutex
	closed    bool
	pw        *playwright.Playwright
	browser   playwright.Browser
	created   int
}

// PoolConfig bounds and configures the pool (spec §5:
// max_concurrent_browsers).
type PoolConfig struct {
	MaxInstances int
	Timeout      time.Duration
	Headless     bool
}

// Instance is one browser context/page pair handed out by Acquire.
type Instance struct {
	Context playwright.BrowserContext
	Page    playwright.Page
}

// NewPool starts Playwright and a Chromium browser, sized to
// config.MaxInstances concurrent contexts.
func NewPool(config PoolConfig) (*Pool, error) {
	if config.MaxInstances <= 0 {
		config.MaxInstances = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("browser: starting playwright: %w", err)
	}
	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(config.Headless),
		Timeout:  playwright.Float(float64(config.Timeout.Milliseconds())),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("browser: launching chromium: %w", err)
	}

	return &Pool{
		config:    config,
		instances: make(chan *Instance, config.MaxInstances),
		pw:        pw,
		browser:   b,
	}, nil
}

// Acquire returns a pooled instance, creating one up to MaxInstances, else
// blocking until Release frees one.
func (p *Pool) Acquire() (*Instance, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("browser: pool is closed")
	}
	select {
	case inst := <-p.instances:
		p.mu.Unlock()
		return inst, nil
	default:
	}
	if p.created < p.config.MaxInstances {
		p.created++
		p.mu.Unlock()
		return p.createInstance()
	}
	p.mu.Unlock()
	inst := <-p.instances
	return inst, nil
}

// Release returns inst to the pool, or closes it if the pool is full/closed.
func (p *Pool) Release(inst *Instance) {
	if inst == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.cleanup(inst)
		return
	}
	select {
	case p.instances <- inst:
	default:
		p.cleanup(inst)
	}
}

func (p *Pool) createInstance() (*Instance, error) {
	ctx, err := p.browser.NewContext(playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("browser: creating context: %w", err)
	}
	page, err := ctx.NewPage()
	if err != nil {
		_ = ctx.Close()
		return nil, fmt.Errorf("browser: creating page: %w", err)
	}
	page.SetDefaultTimeout(float64(p.config.Timeout.Milliseconds()))
	return &Instance{Context: ctx, Page: page}, nil
}

func (p *Pool) cleanup(inst *Instance) {
	_ = inst.Context.Close()
	p.created--
}

// Close shuts down every pooled context plus the browser and Playwright
// runtime. After Close the pool must not be used.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.instances)
	for inst := range p.instances {
		p.cleanup(inst)
	}
	if err := p.browser.Close(); err != nil {
		return fmt.Errorf("browser: closing browser: %w", err)
	}
	if err := p.pw.Stop(); err != nil {
		return fmt.Errorf("browser: stopping playwright: %w", err)
	}
	return nil
}

func extractText(page playwright.Page) (string, error) {
	text, err := page.InnerText("body")
	if err != nil {
		return "", fmt.Errorf("browser: extracting text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
