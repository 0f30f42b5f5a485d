// Package urlfeatures computes the numeric URL features the phishing URL
// model was trained on.
package urlfeatures

import (
	"net"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"
)

var (
	ipv4Pattern        = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)
	suspiciousKeywords = []string{"login", "verify", "update", "secure", "bank", "account", "pay", "password"}
)

const (
	specialChars    = "?=&@-_%"
	obfuscatedChars = "@-_"
	longDomainLimit = 15
)

// Features is the feature vector sent to feature-based URL classifiers
type Features struct {
	URLLength              int     `json:"URLLength"`
	IsHTTPS                int     `json:"IsHTTPS"`
	DomainLength           int     `json:"DomainLength"`
	SubdomainLength        int     `json:"SubdomainLength"`
	TLDLength              int     `json:"TLDLength"`
	NumSubdomains          int     `json:"NumSubdomains"`
	NumDotsInDomain        int     `json:"NumDotsInDomain"`
	HyphenCount            int     `json:"HyphenCount"`
	DigitInDomain          int     `json:"DigitInDomain"`
	LongDomain             int     `json:"LongDomain"`
	IsDomainIP             int     `json:"IsDomainIP"`
	NumPathSegments        int     `json:"NumPathSegments"`
	PathLength             int     `json:"PathLength"`
	NumLetters             int     `json:"NumLetters"`
	LetterRatio            float64 `json:"LetterRatio"`
	NumDigits              int     `json:"NumDigits"`
	DigitRatio             float64 `json:"DigitRatio"`
	NumSpecialChars        int     `json:"NumSpecialChars"`
	SpecialCharRatio       float64 `json:"SpecialCharRatio"`
	SuspiciousKeywordCount int     `json:"SuspiciousKeywordCount"`
	ObfuscationCount       int     `json:"ObfuscationCount"`
	HasObfuscation         int     `json:"HasObfuscation"`
	ObfuscationRatio       float64 `json:"ObfuscationRatio"`
}

// hostParts is a host split into subdomain, registrable label and public suffix
type hostParts struct {
	subdomain string
	domain    string
	suffix    string
}

// Extract computes the features of rawURL. It never fails: unparsable
// parts simply contribute zero-valued features.
func Extract(rawURL string) Features {
	var f Features

	length := utf8.RuneCountInString(rawURL)
	f.URLLength = length
	if strings.HasPrefix(rawURL, "https") {
		f.IsHTTPS = 1
	}

	parts := splitHost(hostname(rawURL))
	f.DomainLength = len(parts.domain)
	f.SubdomainLength = len(parts.subdomain)
	f.TLDLength = len(parts.suffix)
	if parts.subdomain != "" {
		f.NumSubdomains = strings.Count(parts.subdomain, ".") + 1
	}
	if parts.domain != "" {
		f.NumDotsInDomain = strings.Count(parts.domain, ".") + strings.Count(parts.subdomain, ".")
	}
	f.HyphenCount = strings.Count(parts.domain, "-") + strings.Count(parts.subdomain, "-")
	if strings.ContainsFunc(parts.domain+parts.subdomain, unicode.IsDigit) {
		f.DigitInDomain = 1
	}
	if len(parts.domain) > longDomainLimit {
		f.LongDomain = 1
	}
	if ipv4Pattern.MatchString(parts.domain) {
		f.IsDomainIP = 1
	}

	path := ""
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}
	f.NumPathSegments = strings.Count(path, "/")
	f.PathLength = len(path)

	for _, r := range rawURL {
		switch {
		case unicode.IsLetter(r):
			f.NumLetters++
		case unicode.IsDigit(r):
			f.NumDigits++
		}
		if strings.ContainsRune(specialChars, r) {
			f.NumSpecialChars++
		}
		if strings.ContainsRune(obfuscatedChars, r) {
			f.ObfuscationCount++
		}
	}
	if f.ObfuscationCount > 0 {
		f.HasObfuscation = 1
	}
	if length > 0 {
		f.LetterRatio = float64(f.NumLetters) / float64(length)
		f.DigitRatio = float64(f.NumDigits) / float64(length)
		f.SpecialCharRatio = float64(f.NumSpecialChars) / float64(length)
		f.ObfuscationRatio = float64(f.ObfuscationCount) / float64(length)
	}

	lower := strings.ToLower(rawURL)
	for _, kw := range suspiciousKeywords {
		if strings.Contains(lower, kw) {
			f.SuspiciousKeywordCount++
		}
	}

	return f
}

// hostname returns the lower-cased host of rawURL, tolerating a missing scheme
func hostname(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if !strings.Contains(s, "://") {
		s = "//" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
}

func splitHost(host string) hostParts {
	if host == "" {
		return hostParts{}
	}
	if net.ParseIP(host) != nil {
		return hostParts{domain: host}
	}

	suffix, _ := publicsuffix.PublicSuffix(host)
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// the host is itself a public suffix, or has no registrable label
		if host == suffix {
			return hostParts{suffix: suffix}
		}
		return hostParts{domain: host}
	}

	parts := hostParts{
		suffix: suffix,
		domain: strings.TrimSuffix(registrable, "."+suffix),
	}
	if host != registrable {
		parts.subdomain = strings.TrimSuffix(host, "."+registrable)
	}
	return parts
}

// Map returns the features keyed by their JSON names
func (f Features) Map() map[string]float64 {
	return map[string]float64{
		"URLLength":              float64(f.URLLength),
		"IsHTTPS":                float64(f.IsHTTPS),
		"DomainLength":           float64(f.DomainLength),
		"SubdomainLength":        float64(f.SubdomainLength),
		"TLDLength":              float64(f.TLDLength),
		"NumSubdomains":          float64(f.NumSubdomains),
		"NumDotsInDomain":        float64(f.NumDotsInDomain),
		"HyphenCount":            float64(f.HyphenCount),
		"DigitInDomain":          float64(f.DigitInDomain),
		"LongDomain":             float64(f.LongDomain),
		"IsDomainIP":             float64(f.IsDomainIP),
		"NumPathSegments":        float64(f.NumPathSegments),
		"PathLength":             float64(f.PathLength),
		"NumLetters":             float64(f.NumLetters),
		"LetterRatio":            f.LetterRatio,
		"NumDigits":              float64(f.NumDigits),
		"DigitRatio":             f.DigitRatio,
		"NumSpecialChars":        float64(f.NumSpecialChars),
		"SpecialCharRatio":       f.SpecialCharRatio,
		"SuspiciousKeywordCount": float64(f.SuspiciousKeywordCount),
		"ObfuscationCount":       float64(f.ObfuscationCount),
		"HasObfuscation":         float64(f.HasObfuscation),
		"ObfuscationRatio":       f.ObfuscationRatio,
	}
}
