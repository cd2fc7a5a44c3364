package md2deck

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-md2deck/internal/process"
)

// pdfPrinter prints a local HTML file to PDF. Tests substitute a fake so the
// binary renderer runs without a browser.
type pdfPrinter interface {
	PrintFile(ctx context.Context, path string, widthIn, heightIn float64) ([]byte, error)
	Close() error
}

var _ pdfPrinter = (*rodPrinter)(nil)

// DefaultTimeout bounds page load and printing when the context has no deadline.
const DefaultTimeout = 30 * time.Second

// rodPrinter implements pdfPrinter using go-rod.
// Rod downloads Chromium on first use if none is installed.
type rodPrinter struct {
	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	timeout  time.Duration
}

func newRodPrinter(timeout time.Duration) *rodPrinter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &rodPrinter{timeout: timeout}
}

// ensureBrowser lazily launches and connects to the browser.
// Callers hold p.mu.
func (p *rodPrinter) ensureBrowser() error {
	if p.browser != nil {
		return nil
	}

	l := launcher.New()

	// Pre-installed browser (Docker, CI images)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		l.Cleanup()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	p.launcher, p.browser = l, browser
	return nil
}

// Close shuts the browser down and reaps its helper processes.
func (p *rodPrinter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.browser != nil {
		err = p.browser.Close()
		p.browser = nil
	}
	if p.launcher != nil {
		process.KillBrowserTree(p.launcher.PID())
		p.launcher.Kill()
		p.launcher.Cleanup()
		p.launcher = nil
	}
	return err
}

// PrintFile opens path in headless Chrome and prints it with a page size of
// widthIn x heightIn inches and no margins.
func (p *rodPrinter) PrintFile(ctx context.Context, path string, widthIn, heightIn float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureBrowser(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}

	page, err := p.browser.Page(proto.TargetCreateTarget{URL: u.String()})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	page = page.Context(ctx).Timeout(timeout)

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(buildPrintOptions(widthIn, heightIn))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return data, nil
}

// buildPrintOptions prints one slide per page. The deck CSS owns the padding.
func buildPrintOptions(widthIn, heightIn float64) *proto.PagePrintToPDF {
	return &proto.PagePrintToPDF{
		PaperWidth:        floatPtr(widthIn),
		PaperHeight:       floatPtr(heightIn),
		MarginTop:         floatPtr(0),
		MarginBottom:      floatPtr(0),
		MarginLeft:        floatPtr(0),
		MarginRight:       floatPtr(0),
		PrintBackground:   true,
		PreferCSSPageSize: true,
	}
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
