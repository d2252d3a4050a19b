// Package main seeds a running shopmesh stack with demo data. Every call
// goes through the gateway, so the seed exercises the same auth and event
// flow as real clients: accounts are registered and logged in, the seller's
// shop is created and approved, then products and variations are added.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	pkgconfig "github.com/utafrali/shopmesh/pkg/config"
	"github.com/utafrali/shopmesh/pkg/httpclient"
	"github.com/utafrali/shopmesh/pkg/logger"
)

type config struct {
	GatewayURL string `env:"SEED_GATEWAY_URL" envDefault:"http://localhost:8000"`
	Password   string `env:"SEED_PASSWORD" envDefault:"shopmesh123"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
}

type account struct {
	email    string
	username string
	token    string
	id       string
}

type variationDef struct {
	size        string
	color       string
	price       int64
	discount    int64
	amountLimit int
}

type productDef struct {
	title      string
	about      string
	sku        string
	variations []variationDef
}

var catalog = []productDef{
	{
		title: "Stoneware Mug",
		about: "Hand glazed 350ml mug.",
		sku:   "MUG-350",
		variations: []variationDef{
			{color: "Sand", price: 1800, amountLimit: 6},
			{color: "Slate", price: 1800, discount: 300, amountLimit: 6},
		},
	},
	{
		title: "Linen Apron",
		about: "Washed linen apron with two pockets.",
		sku:   "APR-LIN",
		variations: []variationDef{
			{size: "S", color: "Natural", price: 4200},
			{size: "M", color: "Natural", price: 4200},
			{size: "L", color: "Natural", price: 4500},
		},
	},
	{
		title: "Botanical Print",
		about: "A3 giclee print on cotton paper.",
		sku:   "PRT-A3",
		variations: []variationDef{
			{size: "A3", price: 3500, amountLimit: 2},
		},
	},
}

// errExists marks a 409 from a create call.
var errExists = errors.New("already exists")

type seeder struct {
	cfg    config
	client httpclient.Doer
	log    *slog.Logger
}

func main() {
	var cfg config
	if err := pkgconfig.Load(&cfg); err != nil {
		slog.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = 10 * time.Second
	s := &seeder{cfg: cfg, client: httpclient.New(httpCfg), log: logger.New("seed", cfg.LogLevel)}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := s.run(ctx); err != nil {
		s.log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func (s *seeder) run(ctx context.Context) error {
	seller := &account{email: "seller@shopmesh.dev", username: "seller"}
	admin := &account{email: "admin@shopmesh.dev", username: "admin"}
	buyer := &account{email: "buyer@shopmesh.dev", username: "buyer"}

	for _, a := range []*account{seller, admin, buyer} {
		if err := s.signIn(ctx, a); err != nil {
			return fmt.Errorf("account %s: %w", a.username, err)
		}
	}

	var shop struct {
		ID       string `json:"id"`
		IsActive bool   `json:"is_active"`
	}
	err := s.call(ctx, http.MethodPost, "/shop/api/shops/", seller.token, map[string]string{
		"name":  "Seller's Studio",
		"about": "Ceramics, textiles and prints.",
	}, &shop)
	switch {
	case errors.Is(err, errExists):
		if err := s.call(ctx, http.MethodGet, "/shop/api/user/"+seller.id+"/", "", nil, &shop); err != nil {
			return fmt.Errorf("load existing shop: %w", err)
		}
	case err != nil:
		return fmt.Errorf("create shop: %w", err)
	}
	s.log.Info("shop ready", slog.String("shop_id", shop.ID))

	if !shop.IsActive {
		if err := s.call(ctx, http.MethodPost, "/shop/api/shops/"+shop.ID+"/approve/", admin.token, nil, nil); err != nil {
			s.log.Warn("shop approval failed; add the admin to ADMIN_USER_IDS of the shop service",
				slog.String("admin_id", admin.id),
				slog.String("error", err.Error()),
			)
		}
	}

	var firstVariation string
	for _, p := range catalog {
		var product struct {
			ID string `json:"id"`
		}
		if err := s.call(ctx, http.MethodPost, "/product/api/products/", seller.token, map[string]any{
			"title": p.title,
			"about": p.about,
			"sku":   p.sku,
		}, &product); err != nil {
			s.log.Warn("product not created", slog.String("title", p.title), slog.String("error", err.Error()))
			continue
		}

		for _, v := range p.variations {
			var variation struct {
				ID string `json:"id"`
			}
			if err := s.call(ctx, http.MethodPost, "/product/api/products/"+product.ID+"/variations/", seller.token, map[string]any{
				"size":         v.size,
				"color":        v.color,
				"price":        v.price,
				"discount":     v.discount,
				"amount_limit": v.amountLimit,
			}, &variation); err != nil {
				s.log.Warn("variation not created", slog.String("product_id", product.ID), slog.String("error", err.Error()))
				continue
			}
			if firstVariation == "" {
				firstVariation = variation.ID
			}
		}
		s.log.Info("product seeded", slog.String("product_id", product.ID), slog.String("title", p.title))
	}

	if firstVariation == "" {
		return errors.New("no variations were created")
	}

	// Give the buyer something to check out.
	if err := s.call(ctx, http.MethodPost, "/cart/api/shopcart/items/", buyer.token, map[string]any{
		"variation_id": firstVariation,
		"quantity":     1,
	}, nil); err != nil {
		s.log.Warn("cart item not added", slog.String("error", err.Error()))
	}
	if err := s.call(ctx, http.MethodPost, "/wishlist/api/wishlist/", buyer.token, map[string]string{
		"product_variation_id": firstVariation,
	}, nil); err != nil && !errors.Is(err, errExists) {
		s.log.Warn("wishlist item not added", slog.String("error", err.Error()))
	}

	s.log.Info("seed complete", slog.Int("products", len(catalog)))
	return nil
}

// signIn registers a (if needed), logs in and resolves its uuid.
func (s *seeder) signIn(ctx context.Context, a *account) error {
	err := s.call(ctx, http.MethodPost, "/user/api/user/register/", "", map[string]string{
		"email":    a.email,
		"username": a.username,
		"password": s.cfg.Password,
	}, nil)
	if err != nil && !errors.Is(err, errExists) {
		return fmt.Errorf("register: %w", err)
	}

	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	if err := s.raw(ctx, http.MethodPost, "/user/api/user/login/", "", map[string]string{
		"email":    a.email,
		"password": s.cfg.Password,
	}, &tokens); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	a.token = tokens.AccessToken

	var me struct {
		UUID string `json:"uuid"`
	}
	if err := s.call(ctx, http.MethodGet, "/user/api/user/me/", a.token, nil, &me); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	a.id = me.UUID
	s.log.Info("account ready", slog.String("username", a.username), slog.String("user_id", a.id))
	return nil
}

// call sends a request to a backend through the gateway and decodes the
// data envelope into out.
func (s *seeder) call(ctx context.Context, method, path, token string, in, out any) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := s.raw(ctx, method, path, token, in, &env); err != nil {
		return err
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func (s *seeder) raw(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.GatewayURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	switch {
	case resp.StatusCode == http.StatusConflict:
		return errExists
	case resp.StatusCode >= 400:
		return fmt.Errorf("%s %s: HTTP %d: %s", method, path, resp.StatusCode, respBody)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	return json.Unmarshal(respBody, out)
}
