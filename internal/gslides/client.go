package gslides

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/slides/v1"
)

// API is the subset of Slides and Drive the cloud deck needs.
type API interface {
	CreatePresentation(ctx context.Context, title string, widthPt, heightPt float64) (*slides.Presentation, error)
	GetPresentation(ctx context.Context, id string) (*slides.Presentation, error)
	BatchUpdate(ctx context.Context, id string, reqs []*slides.Request) error
	// UploadImage stores a local image on Drive, shares it read-only and
	// returns a URL the Slides backend can fetch.
	UploadImage(ctx context.Context, path string) (string, error)
}

// Config configures a Client.
type Config struct {
	Credentials string
	Getenv      func(string) string
	RateLimit   RateLimitConfig
	Retry       RetryPolicy
	Logger      *zap.Logger
}

// Client implements API over the generated Google clients.
type Client struct {
	slides *slides.Service
	drive  *drive.Service
	retry  *retrier
}

var _ API = (*Client)(nil)

// New resolves the credential and builds both services. Extra client
// options are appended after the token source.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	ts, err := TokenSource(ctx, cfg.Credentials, cfg.Getenv)
	if err != nil {
		return nil, err
	}
	opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	return newClient(ctx, cfg, opts...)
}

func newClient(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	ss, err := slides.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating slides service: %w", err)
	}
	ds, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return &Client{
		slides: ss,
		drive:  ds,
		retry:  newRetrier(cfg.Retry, NewRateLimiter(cfg.RateLimit), cfg.Logger),
	}, nil
}

// CreatePresentation creates an empty presentation with the given page size
// in points.
func (c *Client) CreatePresentation(ctx context.Context, title string, widthPt, heightPt float64) (*slides.Presentation, error) {
	in := &slides.Presentation{
		Title: title,
		PageSize: &slides.Size{
			Width:  &slides.Dimension{Magnitude: widthPt, Unit: "PT"},
			Height: &slides.Dimension{Magnitude: heightPt, Unit: "PT"},
		},
	}
	var out *slides.Presentation
	err := c.retry.do(ctx, "presentations.create", func(ctx context.Context) error {
		p, err := c.slides.Presentations.Create(in).Context(ctx).Do()
		out = p
		return err
	})
	return out, err
}

// GetPresentation fetches a presentation with its slides and notes pages.
func (c *Client) GetPresentation(ctx context.Context, id string) (*slides.Presentation, error) {
	var out *slides.Presentation
	err := c.retry.do(ctx, "presentations.get", func(ctx context.Context) error {
		p, err := c.slides.Presentations.Get(id).Context(ctx).Do()
		out = p
		return err
	})
	return out, err
}

// BatchUpdate applies reqs atomically.
func (c *Client) BatchUpdate(ctx context.Context, id string, reqs []*slides.Request) error {
	if len(reqs) == 0 {
		return nil
	}
	body := &slides.BatchUpdatePresentationRequest{Requests: reqs}
	return c.retry.do(ctx, "presentations.batchUpdate", func(ctx context.Context) error {
		_, err := c.slides.Presentations.BatchUpdate(id, body).Context(ctx).Do()
		return err
	})
}

// UploadImage uploads path to Drive and makes it readable by link.
func (c *Client) UploadImage(ctx context.Context, path string) (string, error) {
	meta := &drive.File{
		Name:     filepath.Base(path),
		MimeType: mime.TypeByExtension(filepath.Ext(path)),
	}

	var file *drive.File
	err := c.retry.do(ctx, "files.create", func(ctx context.Context) error {
		f, err := os.Open(path) // #nosec G304 -- image referenced by the article
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		file, err = c.drive.Files.Create(meta).Media(f).Fields("id", "webContentLink").Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", err
	}

	perm := &drive.Permission{Type: "anyone", Role: "reader"}
	err = c.retry.do(ctx, "permissions.create", func(ctx context.Context) error {
		_, err := c.drive.Permissions.Create(file.Id, perm).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", err
	}

	if file.WebContentLink != "" {
		return file.WebContentLink, nil
	}
	return "https://drive.google.com/uc?export=download&id=" + file.Id, nil
}

// PresentationURL is the editor address of a presentation.
func PresentationURL(id string) string {
	return "https://docs.google.com/presentation/d/" + id + "/edit"
}
