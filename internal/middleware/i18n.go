package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"captzio/internal/providers/text"
)

type localeContextKey struct{}
type countryContextKey struct{}

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// spanishCountries get Spanish prompts when the client sent no language.
var spanishCountries = map[string]bool{
	"AR": true, "BO": true, "CL": true, "CO": true, "CR": true, "EC": true, "ES": true,
	"MX": true, "PE": true, "PY": true, "UY": true, "VE": true,
}

// I18N stores the request locale (pt-BR, en or es) and best-effort country.
func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, lookup)
			ctx := context.WithValue(r.Context(), localeContextKey{}, detectLocale(r, defaultLocale, country))
			if country != "" {
				ctx = context.WithValue(ctx, countryContextKey{}, country)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLocale(r *http.Request, fallback string, country string) string {
	if v := strings.TrimSpace(r.Header.Get("X-Locale")); v != "" {
		return text.MatchLocale(v).String()
	}
	if v := strings.TrimSpace(r.Header.Get("Accept-Language")); v != "" {
		return text.MatchLocale(v).String()
	}
	switch {
	case country == "BR" || country == "PT" || country == "AO" || country == "MZ":
		return "pt-BR"
	case spanishCountries[country]:
		return "es"
	case country != "":
		return "en"
	}
	if fallback != "" {
		return text.MatchLocale(fallback).String()
	}
	return "pt-BR"
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		first, _, _ := strings.Cut(xf, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(localeContextKey{}).(string); ok {
		return v
	}
	return "pt-BR"
}

// CountryFromContext returns the ISO country code stored in the request context.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(countryContextKey{}).(string); ok {
		return v
	}
	return ""
}

// ResolveCountry prefers edge proxy headers and falls back to the lookup.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	for _, key := range []string{"X-Country-Code", "CF-IPCountry", "X-Appengine-Country"} {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" && val != "XX" {
			return strings.ToUpper(val)
		}
	}
	if lookup != nil {
		if ip := ClientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil && country != "" {
				return strings.ToUpper(country)
			}
		}
	}
	return ""
}
