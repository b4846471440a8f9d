package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Crypto defaults.
const (
	DefaultCryptoEndpoint = "https://api.coingecko.com/api/v3/simple/price"
	DefaultCryptoCurrency = "usd"
	DefaultCryptoInterval = 60 * time.Second
)

// DefaultCryptoAssets are the tracked coin ids.
var DefaultCryptoAssets = []string{"bitcoin", "ethereum", "solana", "dogecoin", "monero"}

// Prices is the cached price table.
type Prices struct {
	Currency string `json:"currency"`
	// Values has one entry per tracked asset, 0 until first loaded.
	Values map[string]float64 `json:"values"`
	// Updated is the last successful fetch, zero before the first one.
	Updated time.Time `json:"updated"`
}

// Loaded reports whether any fetch has succeeded yet.
func (p Prices) Loaded() bool {
	return !p.Updated.IsZero()
}

func (p Prices) clone() Prices {
	out := p
	out.Values = make(map[string]float64, len(p.Values))
	for k, v := range p.Values {
		out.Values[k] = v
	}
	return out
}

// CryptoConfig configures the price source.
type CryptoConfig struct {
	Endpoint string
	Assets   []string
	Currency string
	Interval time.Duration
	HTTP     HTTPConfig
}

// Crypto polls a CoinGecko-style simple price endpoint in the background.
type Crypto struct {
	remote
	endpoint string
	assets   []string
	currency string
	cell     *Cell[Prices]
}

// NewCrypto returns a price source. Zero fields in cfg take defaults.
func NewCrypto(cfg CryptoConfig, opts ...Option) *Crypto {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultCryptoEndpoint
	}
	if len(cfg.Assets) == 0 {
		cfg.Assets = DefaultCryptoAssets
	}
	if cfg.Currency == "" {
		cfg.Currency = DefaultCryptoCurrency
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultCryptoInterval
	}

	initial := Prices{Currency: cfg.Currency, Values: make(map[string]float64, len(cfg.Assets))}
	for _, a := range cfg.Assets {
		initial.Values[a] = 0
	}

	return &Crypto{
		remote:   newRemote(NameCrypto, cfg.Interval, cfg.HTTP, opts),
		endpoint: cfg.Endpoint,
		assets:   append([]string(nil), cfg.Assets...),
		currency: cfg.Currency,
		cell:     NewCell(initial),
	}
}

// Read returns a copy of the cached prices and starts a background fetch
// when the gate is open. It never blocks on the network.
func (c *Crypto) Read() Prices {
	c.launch(c.fetch)
	return c.cell.Load().clone()
}

// Assets returns the tracked asset ids in display order.
func (c *Crypto) Assets() []string {
	return append([]string(nil), c.assets...)
}

func (c *Crypto) requestURL() string {
	q := url.Values{}
	q.Set("ids", strings.Join(c.assets, ","))
	q.Set("vs_currencies", c.currency)
	return c.endpoint + "?" + q.Encode()
}

func (c *Crypto) fetch(ctx context.Context) error {
	body, err := c.get(ctx, c.requestURL())
	if err != nil {
		return err
	}

	var payload map[string]map[string]*float64
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode prices: %w", err)
	}
	for _, asset := range c.assets {
		if v, ok := payload[asset][c.currency]; ok && v == nil {
			return fmt.Errorf("decode prices: %s %s quote is null", asset, c.currency)
		}
	}

	if c.closed.Load() {
		return nil
	}
	now := c.clock()
	c.cell.Update(func(old Prices) Prices {
		next := old.clone()
		for _, asset := range c.assets {
			if v := payload[asset][c.currency]; v != nil {
				next.Values[asset] = *v
			}
		}
		next.Updated = now
		return next
	}, now)
	return nil
}
