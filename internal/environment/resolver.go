package environment

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
)

type Environment string

const (
	Production Environment = "production"
	Test       Environment = "test"
)

type Credentials struct {
	SecretKey     string
	WebhookSecret string
}

type Resolution struct {
	Environment Environment
	Credentials Credentials
}

type Secrets struct {
	ProductionKey     string
	DefaultKey        string
	TestKey           string
	ProductionWebhook string
	TestWebhook       string
}

// Resolver picks the deployment environment from request provenance.
//
// With no ProductionHosts configured, any Referer, Origin or Host value that
// contains ProductionDomain selects production. A forged header can therefore
// select production credentials; setting ProductionHosts switches to exact
// host matching.
type Resolver struct {
	ProductionDomain string
	ProductionHosts  []string
	Secrets          Secrets
	logger           *utils.Logger
}

func NewResolver(domain string, hosts []string, secrets Secrets, logger *utils.Logger) *Resolver {
	return &Resolver{
		ProductionDomain: strings.ToLower(domain),
		ProductionHosts:  hosts,
		Secrets:          secrets,
		logger:           logger,
	}
}

// ResolveRequest reads Referer, Origin and Host from r. Go moves the Host
// header out of r.Header, so it is passed separately.
func (r *Resolver) ResolveRequest(req *http.Request) (Resolution, error) {
	return r.Resolve(req.Header, req.Host)
}

func (r *Resolver) Resolve(header http.Header, host string) (Resolution, error) {
	if host == "" {
		host = header.Get("Host")
	}
	values := []string{header.Get("Referer"), header.Get("Origin"), host}

	env := Test
	for _, v := range values {
		if v != "" && r.isProduction(v) {
			env = Production
			break
		}
	}

	creds := r.credentials(env)
	if creds.SecretKey == "" {
		return Resolution{}, fmt.Errorf("%w: no payment secret configured for %s environment", utils.ErrConfiguration, env)
	}

	if r.logger != nil {
		r.logger.Debug("Resolved payment environment",
			"environment", env,
			"referer", values[0],
			"origin", values[1],
			"host", values[2])
	}

	return Resolution{Environment: env, Credentials: creds}, nil
}

// WebhookSecret returns the signing secret for events delivered to env.
func (r *Resolver) WebhookSecret(env Environment) (string, error) {
	secret := r.credentials(env).WebhookSecret
	if secret == "" {
		return "", fmt.Errorf("%w: no webhook secret configured for %s environment", utils.ErrConfiguration, env)
	}
	return secret, nil
}

func (r *Resolver) credentials(env Environment) Credentials {
	if env == Production {
		key := r.Secrets.ProductionKey
		if key == "" {
			key = r.Secrets.DefaultKey
		}
		return Credentials{SecretKey: key, WebhookSecret: r.Secrets.ProductionWebhook}
	}
	return Credentials{SecretKey: r.Secrets.TestKey, WebhookSecret: r.Secrets.TestWebhook}
}

func (r *Resolver) isProduction(value string) bool {
	value = strings.ToLower(value)

	if len(r.ProductionHosts) == 0 {
		return r.ProductionDomain != "" && strings.Contains(value, r.ProductionDomain)
	}

	h := hostOf(value)
	for _, allowed := range r.ProductionHosts {
		if h == allowed {
			return true
		}
	}
	return false
}

// hostOf extracts the bare hostname from a URL or a host[:port] value.
func hostOf(value string) string {
	if strings.Contains(value, "://") {
		if u, err := url.Parse(value); err == nil {
			return u.Hostname()
		}
	}
	if h, _, err := net.SplitHostPort(value); err == nil {
		return h
	}
	return value
}
