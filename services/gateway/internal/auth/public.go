package auth

import (
	"net/http"
	"regexp"
	"strings"
)

// DefaultPublicPaths are reachable without a token. An entry is a path
// template, optionally prefixed by the only method it applies to. Named
// segments such as {shop_id} match exactly one path segment. A template
// without a trailing slash also covers every path below it.
var DefaultPublicPaths = []string{
	"/",
	"/openapi.json",
	"/docs",
	"/redoc",
	"/favicon.ico",
	"/public",

	"POST /user/api/user/login/",
	"POST /user/api/user/register/",
	"POST /user/api/user/password-reset/request/",
	"POST /user/api/user/password-reset/confirm/",
	"GET /user/openapi.json",

	"GET /shop/api/shops/",
	"GET /shop/api/shops/{shop_id}/",
	"GET /shop/api/branches/{shop_branch_slug}/",
	"GET /shop/api/comments/{shop_slug}/",
	"GET /shop/api/media/{shop_slug}/",
	"GET /shop/api/social-media/{shop_slug}/",

	"GET /product/api/categories/",
	"GET /product/api/categories/{category_id}",
	"GET /product/api/products/",
	"GET /product/api/products/{product_id}",
	"GET /product/api/products/variations/{variation_id}",

	"GET /search",
}

type publicRule struct {
	method string
	re     *regexp.Regexp
}

// PublicPaths matches request paths against public templates.
type PublicPaths struct {
	rules []publicRule
}

var templateParam = regexp.MustCompile(`\{[^/{}]+\}`)

// NewPublicPaths compiles templates.
func NewPublicPaths(templates []string) *PublicPaths {
	p := &PublicPaths{rules: make([]publicRule, 0, len(templates))}
	for _, t := range templates {
		method := ""
		if i := strings.IndexByte(t, ' '); i > 0 {
			method, t = strings.ToUpper(t[:i]), strings.TrimSpace(t[i+1:])
		}
		p.rules = append(p.rules, publicRule{method: method, re: compileTemplate(t)})
	}
	return p
}

// compileTemplate turns a template into an anchored pattern. The root and
// templates ending in "/" match exactly; others also match sub-paths.
func compileTemplate(t string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	last := 0
	for _, loc := range templateParam.FindAllStringIndex(t, -1) {
		b.WriteString(regexp.QuoteMeta(t[last:loc[0]]))
		b.WriteString(`[^/]+`)
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(t[last:]))
	if !strings.HasSuffix(t, "/") {
		b.WriteString(`(/.*)?`)
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

// IsPublic reports whether a request may skip authentication. OPTIONS is
// always public so CORS preflights succeed.
func (p *PublicPaths) IsPublic(path, method string) bool {
	if method == http.MethodOptions {
		return true
	}
	for _, r := range p.rules {
		if r.method != "" && r.method != method && !(r.method == http.MethodGet && method == http.MethodHead) {
			continue
		}
		if r.re.MatchString(path) {
			return true
		}
	}
	return false
}
