package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

type assertError string

func (e assertError) Error() string { return string(e) }

func TestDetectLocale(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *http.Request)
		fallback string
		country  string
		want     string
	}{
		{
			name: "x-locale overrides",
			setup: func(r *http.Request) {
				r.Header.Set("X-Locale", "es-MX")
			},
			country: "BR",
			want:    "es",
		},
		{
			name: "accept-language used",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "en-US,en;q=0.9")
			},
			want: "en",
		},
		{
			name: "portuguese variants collapse",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "pt-PT,pt;q=0.8")
			},
			want: "pt-BR",
		},
		{
			name: "unsupported language falls back",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "ja-JP")
			},
			want: "pt-BR",
		},
		{
			name:    "spanish speaking country",
			country: "AR",
			want:    "es",
		},
		{
			name:    "other country gets english",
			country: "US",
			want:    "en",
		},
		{
			name:     "configured fallback",
			fallback: "en",
			want:     "en",
		},
		{
			name: "default to portuguese",
			want: "pt-BR",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.setup != nil {
				tc.setup(req)
			}
			got := detectLocale(req, tc.fallback, tc.country)
			if got != tc.want {
				t.Fatalf("detectLocale() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveCountry(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *http.Request)
		resolver CountryLookup
		want     string
	}{
		{
			name: "header precedence",
			setup: func(r *http.Request) {
				r.Header.Set("X-Country-Code", "br")
				r.Header.Set("CF-IPCountry", "us")
			},
			want: "BR",
		},
		{
			name: "unknown cloudflare country ignored",
			setup: func(r *http.Request) {
				r.Header.Set("CF-IPCountry", "XX")
			},
			want: "",
		},
		{
			name: "resolver fallback",
			resolver: func(ip string) (string, error) {
				if ip != "203.0.113.4" {
					t.Fatalf("unexpected ip: %s", ip)
				}
				return "mx", nil
			},
			want: "MX",
		},
		{
			name: "resolver error returns empty",
			resolver: func(ip string) (string, error) {
				return "", assertError("boom")
			},
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "203.0.113.4:80"
			if tc.setup != nil {
				tc.setup(req)
			}
			got := ResolveCountry(req, tc.resolver)
			if got != tc.want {
				t.Fatalf("ResolveCountry() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestI18NStoresLocaleAndCountry(t *testing.T) {
	var locale, country string
	h := I18N("pt-BR", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale = LocaleFromContext(r.Context())
		country = CountryFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-IPCountry", "CL")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if locale != "es" || country != "CL" {
		t.Fatalf("got locale %q country %q", locale, country)
	}
	if got := LocaleFromContext(context.Background()); got != "pt-BR" {
		t.Fatalf("LocaleFromContext() default = %q", got)
	}
}
