package urlfeatures

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_SubdomainURL(t *testing.T) {
	f := Extract("https://secure-login.example.com/account/verify")

	assert.Equal(t, 47, f.URLLength)
	assert.Equal(t, 1, f.IsHTTPS)
	assert.Equal(t, 7, f.DomainLength)
	assert.Equal(t, 12, f.SubdomainLength)
	assert.Equal(t, 3, f.TLDLength)
	assert.Equal(t, 1, f.NumSubdomains)
	assert.Equal(t, 0, f.NumDotsInDomain)
	assert.Equal(t, 1, f.HyphenCount)
	assert.Equal(t, 0, f.DigitInDomain)
	assert.Equal(t, 0, f.IsDomainIP)
	assert.Equal(t, 2, f.NumPathSegments)
	assert.Equal(t, 15, f.PathLength)
	assert.Equal(t, 4, f.SuspiciousKeywordCount)
	assert.Equal(t, 1, f.ObfuscationCount)
	assert.Equal(t, 1, f.HasObfuscation)
	assert.InDelta(t, 1.0/47, f.ObfuscationRatio, 1e-9)
}

func TestExtract_MultiLabelSuffix(t *testing.T) {
	f := Extract("http://a.b.shop.co.uk/")

	assert.Equal(t, 0, f.IsHTTPS)
	assert.Equal(t, len("shop"), f.DomainLength)
	assert.Equal(t, len("a.b"), f.SubdomainLength)
	assert.Equal(t, len("co.uk"), f.TLDLength)
	assert.Equal(t, 2, f.NumSubdomains)
	assert.Equal(t, 1, f.NumDotsInDomain)
}

func TestExtract_IPAddress(t *testing.T) {
	f := Extract("http://192.168.10.1/login.php?user=1")

	assert.Equal(t, 1, f.IsDomainIP)
	assert.Equal(t, 1, f.DigitInDomain)
	assert.Equal(t, 0, f.TLDLength)
	assert.Equal(t, 3, f.NumDotsInDomain)
	assert.Equal(t, 1, f.SuspiciousKeywordCount)
	assert.Equal(t, 2, f.NumSpecialChars)
	assert.Equal(t, len("/login.php"), f.PathLength)
}

func TestExtract_NoScheme(t *testing.T) {
	f := Extract("paypal-update.example.org")

	assert.Equal(t, 0, f.IsHTTPS)
	assert.Equal(t, len("example"), f.DomainLength)
	assert.Equal(t, len("paypal-update"), f.SubdomainLength)
	assert.Equal(t, 2, f.SuspiciousKeywordCount) // pay, update
}

func TestExtract_Empty(t *testing.T) {
	f := Extract("")
	assert.Equal(t, Features{}, f)
}

func TestFeatures_Map(t *testing.T) {
	m := Extract("https://example.com").Map()
	assert.Len(t, m, 23)
	assert.Equal(t, float64(1), m["IsHTTPS"])
	assert.Equal(t, float64(19), m["URLLength"])
}
