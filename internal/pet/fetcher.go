package pet

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Kind is the animal a photo is requested for.
type Kind string

const (
	Cat Kind = "cat"
	Dog Kind = "dog"
)

// Title returns the kind with an upper-case first letter, e.g. "Cat".
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

var (
	ErrBadStatus = errors.New("unexpected status from photo api")
	ErrTLS       = errors.New("tls error requesting photo api")
	ErrRequest   = errors.New("photo api request failed")
	ErrDecode    = errors.New("unable to decode photo api response")
	ErrUnknown   = errors.New("unknown pet kind")
)

// FailureRecorder counts failed fetches by kind and reason.
type FailureRecorder interface {
	FetchFailed(kind, reason string)
}

// Fetcher retrieves random photo urls from thecatapi.com style endpoints.
type Fetcher struct {
	client    *http.Client
	endpoints map[Kind]string
	apiKey    string
	recorder  FailureRecorder
	logger    *zerolog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the default client. Its timeout bounds every fetch.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithAPIKey sends key in the x-api-key header.
func WithAPIKey(key string) FetcherOption {
	return func(f *Fetcher) {
		f.apiKey = key
	}
}

// WithRecorder reports failures to r.
func WithRecorder(r FailureRecorder) FetcherOption {
	return func(f *Fetcher) {
		f.recorder = r
	}
}

// NewFetcher creates a fetcher for the given endpoints with a timed client.
func NewFetcher(
	endpoints map[Kind]string,
	timeout time.Duration,
	logger *zerolog.Logger,
	opts ...FetcherOption,
) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: timeout},
		endpoints: endpoints,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Random returns a random photo url for kind.
func (f *Fetcher) Random(ctx context.Context, kind Kind) (string, error) {
	endpoint, ok := f.endpoints[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknown, kind)
	}

	url, err := f.Fetch(ctx, endpoint)
	if err != nil {
		f.recordFailure(kind, err)
		return "", err
	}
	return url, nil
}

// Fetch performs a GET on endpoint and returns the url of the first image in
// the JSON array response. Every failure is logged before being returned.
func (f *Fetcher) Fetch(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		f.logger.Error().Err(err).Str("endpoint", endpoint).Msg("error building photo api request")
		return "", fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("Accept", "application/json")
	if f.apiKey != "" {
		req.Header.Set("x-api-key", f.apiKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if isTLSError(err) {
			f.logger.Error().Err(err).Str("endpoint", endpoint).Msg("ssl error requesting photo api")
			return "", fmt.Errorf("%w: %w", ErrTLS, err)
		}
		f.logger.Error().Err(err).Str("endpoint", endpoint).Msg("error requesting photo api")
		return "", fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		f.logger.Error().Int("status", resp.StatusCode).Str("endpoint", endpoint).Msg("error requesting photo api")
		return "", fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	var images []Image
	if err := json.NewDecoder(resp.Body).Decode(&images); err != nil {
		f.logger.Error().Err(err).Str("endpoint", endpoint).Msg("error decoding photo api response")
		return "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if len(images) == 0 || images[0].URL == "" {
		f.logger.Error().Str("endpoint", endpoint).Msg("photo api returned no image")
		return "", fmt.Errorf("%w: no image in response", ErrDecode)
	}

	f.logger.Debug().Str("endpoint", endpoint).Str("url", images[0].URL).Msg("photo fetched")

	return images[0].URL, nil
}

func (f *Fetcher) recordFailure(kind Kind, err error) {
	if f.recorder == nil {
		return
	}
	f.recorder.FetchFailed(string(kind), Reason(err))
}

// Reason maps a fetch error to a short label.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrBadStatus):
		return "status"
	case errors.Is(err, ErrTLS):
		return "tls"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrUnknown):
		return "unknown_kind"
	default:
		return "request"
	}
}

func isTLSError(err error) bool {
	var (
		verifyErr   *tls.CertificateVerificationError
		headerErr   tls.RecordHeaderError
		unknownErr  x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		invalidErr  x509.CertificateInvalidError
		alertErr    tls.AlertError
	)
	return errors.As(err, &verifyErr) ||
		errors.As(err, &headerErr) ||
		errors.As(err, &unknownErr) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr) ||
		errors.As(err, &alertErr)
}
