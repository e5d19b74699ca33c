package csvsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"eco2mix-insights/internal/energy/domain/dataset"
	"eco2mix-insights/internal/observability/metrics"
)

const (
	// DefaultPath is the merged dataset produced by tools/prepare.
	DefaultPath = "eco2mix-regional.csv"
	// DefaultRemoteURL serves the same file when no local copy exists.
	DefaultRemoteURL = "https://elliotmv.s3.fr-par.scw.cloud/eco2mix-regional.csv"

	SourceLocal  = "local"
	SourceRemote = "remote"
)

var ErrNoSource = errors.New("csvsource: no local path or remote url")

// Loader reads the dataset from a local file, falling back to a remote URL
// when the file does not exist.
type Loader struct {
	path      string
	remoteURL string
	cutoff    time.Time
	client    *http.Client
	logger    logrus.FieldLogger
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient overrides the client used for the remote fallback.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		if client != nil {
			l.client = client
		}
	}
}

// WithTimeout sets the remote fetch timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(l *Loader) {
		if timeout > 0 {
			l.client = &http.Client{Timeout: timeout}
		}
	}
}

// WithCutoff sets the last day kept. A zero cutoff keeps every row.
func WithCutoff(cutoff time.Time) Option {
	return func(l *Loader) {
		l.cutoff = cutoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader constructs a Loader. Either path or remoteURL may be empty, not both.
func NewLoader(path, remoteURL string, opts ...Option) (*Loader, error) {
	if path == "" && remoteURL == "" {
		return nil, ErrNoSource
	}
	l := &Loader{
		path:      path,
		remoteURL: remoteURL,
		client:    &http.Client{Timeout: 60 * time.Second},
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load reads and parses the dataset. The returned string names the source
// that served it.
func (l *Loader) Load(ctx context.Context) (*dataset.Dataset, string, error) {
	if l == nil {
		return nil, "", ErrNoSource
	}

	if l.path != "" {
		start := time.Now()
		ds, err := l.loadFile()
		switch {
		case err == nil:
			metrics.ObserveDatasetLoad(SourceLocal, metrics.ResultSuccess, time.Since(start))
			return ds, SourceLocal, nil
		case errors.Is(err, fs.ErrNotExist) && l.remoteURL != "":
			l.logger.Printf("dataset %s not found, fetching %s", l.path, l.remoteURL)
		default:
			metrics.ObserveDatasetLoad(SourceLocal, metrics.ResultError, time.Since(start))
			return nil, SourceLocal, err
		}
	}

	start := time.Now()
	ds, err := l.loadRemote(ctx)
	metrics.ObserveDatasetLoad(SourceRemote, metrics.Result(err), time.Since(start))
	if err != nil {
		return nil, SourceRemote, err
	}
	return ds, SourceRemote, nil
}

func (l *Loader) loadFile() (*dataset.Dataset, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return l.build(file, l.path)
}

func (l *Loader) loadRemote(ctx context.Context) (*dataset.Dataset, error) {
	if l.remoteURL == "" {
		return nil, ErrNoSource
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.remoteURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("csvsource: fetch %s: %w", l.remoteURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("csvsource: fetch %s: http %d", l.remoteURL, resp.StatusCode)
	}
	return l.build(resp.Body, l.remoteURL)
}

func (l *Loader) build(r io.Reader, name string) (*dataset.Dataset, error) {
	rows, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("csvsource: %s: %w", name, err)
	}
	ds, err := dataset.New(rows, l.cutoff)
	if err != nil {
		return nil, fmt.Errorf("csvsource: %s: %w", name, err)
	}
	l.logger.WithFields(logrus.Fields{
		"source": name,
		"hourly": ds.HourlyLen(),
		"daily":  ds.DailyLen(),
		"cutoff": ds.Cutoff().Format(time.DateOnly),
	}).Info("dataset loaded")
	return ds, nil
}
