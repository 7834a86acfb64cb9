// Package media keeps the in-process audio assets behind playable URLs.
//
// Every asset is minted as a Handle. Releasing the handle drops the bytes and
// the URL starts returning 404. A Scope groups handles so that everything a
// workflow run produced is released together.
package media

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ErrScopeClosed is returned when minting into a scope that was already closed.
var ErrScopeClosed = errors.New("media scope closed")

// Asset is a playable blob.
type Asset struct {
	Data     []byte
	MIMEType string
	Label    string
}

// Minter mints playable URLs for audio blobs.
type Minter interface {
	Mint(asset Asset) (*Handle, error)
}

// Registry stores assets by token. It is safe for concurrent use.
type Registry struct {
	baseURL string
	store   *cache.Cache
}

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// BaseURL is the address the media server is reachable at, e.g. http://127.0.0.1:8090.
	BaseURL string
	// OrphanTTL drops assets that were never released after this long. Zero keeps them
	// until released.
	OrphanTTL time.Duration
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	ttl := cache.NoExpiration
	cleanup := time.Duration(0)
	if cfg.OrphanTTL > 0 {
		ttl = cfg.OrphanTTL
		cleanup = cfg.OrphanTTL / 2
	}

	return &Registry{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		store:   cache.New(ttl, cleanup),
	}
}

// Mint stores the asset and returns a handle whose URL serves it.
func (r *Registry) Mint(asset Asset) (*Handle, error) {
	if len(asset.Data) == 0 {
		return nil, errors.New("mint: empty asset")
	}

	if asset.MIMEType == "" {
		asset.MIMEType = "application/octet-stream"
	}

	token := uuid.NewString()
	r.store.SetDefault(token, asset)

	slog.Debug("minted media asset", "token", token, "label", asset.Label, "bytes", len(asset.Data))

	return &Handle{
		token: token,
		url:   r.URLFor(token),
		reg:   r,
	}, nil
}

// Lookup returns the asset for a token if it has not been released.
func (r *Registry) Lookup(token string) (Asset, bool) {
	v, ok := r.store.Get(token)
	if !ok {
		return Asset{}, false
	}

	asset, ok := v.(Asset)

	return asset, ok
}

// Len returns the number of live assets.
func (r *Registry) Len() int {
	return r.store.ItemCount()
}

// URLFor builds the playable URL for a token.
func (r *Registry) URLFor(token string) string {
	return fmt.Sprintf("%s/media/%s", r.baseURL, token)
}

// NewScope returns a scope minting into this registry.
func (r *Registry) NewScope() *Scope {
	return &Scope{reg: r}
}

func (r *Registry) release(token string) {
	r.store.Delete(token)
	slog.Debug("released media asset", "token", token)
}

// Handle is one minted asset. Release is idempotent.
type Handle struct {
	token string
	url   string
	reg   *Registry
	once  sync.Once
}

// URL returns the playable URL.
func (h *Handle) URL() string {
	if h == nil {
		return ""
	}

	return h.url
}

// Token returns the registry token.
func (h *Handle) Token() string {
	return h.token
}

// Release drops the asset. Safe on a nil handle and on repeated calls.
func (h *Handle) Release() {
	if h == nil {
		return
	}

	h.once.Do(func() {
		h.reg.release(h.token)
	})
}
