package frontend

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxMultipartDepth = 5

var wordDecoder = new(mime.WordDecoder)

// extractTextFromMessage returns the text content of a message, walking
// nested multipart bodies. text/plain parts win; HTML is only used when a
// message has no plain text, and is reduced to its visible text and links.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	var parts textParts
	err := parts.collect(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body, 0)
	if err != nil {
		return "", err
	}
	return parts.text(), nil
}

type textParts struct {
	plain strings.Builder
	html  strings.Builder
}

func (t *textParts) text() string {
	if strings.TrimSpace(t.plain.String()) != "" {
		return t.plain.String()
	}
	return t.html.String()
}

// collect handles a top level body. Anything that is not multipart or HTML
// is taken as plain text.
func (t *textParts) collect(contentType, encoding string, body io.Reader, depth int) error {
	mediaType, params, _ := mime.ParseMediaType(contentType)
	if boundary := params["boundary"]; strings.HasPrefix(mediaType, "multipart/") && boundary != "" && depth < maxMultipartDepth {
		t.collectMultipart(multipart.NewReader(body, boundary), depth)
		return nil
	}

	data, err := io.ReadAll(decodeTransfer(encoding, body))
	if err != nil {
		return err
	}
	if mediaType == "text/html" {
		t.html.WriteString(htmlText(data))
	} else {
		t.plain.Write(data)
	}
	return nil
}

func (t *textParts) collectMultipart(mr *multipart.Reader, depth int) {
	for {
		part, err := mr.NextPart()
		if err != nil {
			// io.EOF, or a malformed part: keep what was read so far
			return
		}

		header := part.Header
		partType, params, _ := mime.ParseMediaType(header.Get("Content-Type"))
		if strings.HasPrefix(partType, "multipart/") {
			if boundary := params["boundary"]; boundary != "" && depth+1 < maxMultipartDepth {
				t.collectMultipart(multipart.NewReader(part, boundary), depth+1)
			}
			continue
		}
		if part.FileName() != "" {
			continue
		}

		var dst *strings.Builder
		switch partType {
		case "text/plain", "":
			dst = &t.plain
		case "text/html":
			dst = &t.html
		default:
			continue
		}

		// multipart.Reader already decoded quoted-printable parts
		data, err := io.ReadAll(decodeTransfer(header.Get("Content-Transfer-Encoding"), part))
		if err != nil {
			continue
		}
		if dst == &t.html {
			dst.WriteString(htmlText(data))
		} else {
			dst.Write(data)
		}
		dst.WriteString("\n")
	}
}

// decodeTransfer wraps r for base64 and quoted-printable bodies
func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, &whitespaceStripper{r: r})
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

// htmlText reduces an HTML body to its visible text followed by the link
// targets, which carry most of the signal in phishing mail
func htmlText(data []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return string(data)
	}
	doc.Find("head, script, style").Remove()

	var sb strings.Builder
	sb.WriteString(strings.Join(strings.Fields(doc.Text()), " "))
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		if href := strings.TrimSpace(link.AttrOr("href", "")); href != "" {
			sb.WriteString("\n")
			sb.WriteString(href)
		}
	})
	return sb.String()
}

// whitespaceStripper drops the line breaks base64 bodies are wrapped with
type whitespaceStripper struct {
	r io.Reader
}

func (w *whitespaceStripper) Read(p []byte) (int, error) {
	for {
		n, err := w.r.Read(p)
		j := 0
		for i := 0; i < n; i++ {
			switch p[i] {
			case '\r', '\n', ' ', '\t':
			default:
				p[j] = p[i]
				j++
			}
		}
		if j > 0 || err != nil {
			return j, err
		}
	}
}

// decodeHeader decodes RFC 2047 encoded words, falling back to the raw value
func decodeHeader(value string) string {
	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// analysisText builds the email text submitted for a parsed message
func analysisText(msg *mail.Message) (string, error) {
	body, err := extractTextFromMessage(msg)
	if err != nil {
		return "", err
	}

	subject := strings.TrimSpace(decodeHeader(msg.Header.Get("Subject")))
	if subject == "" {
		return body, nil
	}
	if strings.TrimSpace(body) == "" {
		return subject, nil
	}
	return "Subject: " + subject + "\n\n" + body, nil
}

// EmailText returns the text to submit for a saved email. Raw RFC 5322
// messages are decoded like SMTP submissions; anything else is taken as
// the email text itself.
func EmailText(data []byte) string {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil || !looksLikeMessage(msg.Header) {
		return string(data)
	}

	text, err := analysisText(msg)
	if err != nil {
		return string(data)
	}
	return text
}

func looksLikeMessage(h mail.Header) bool {
	for _, key := range []string{"From", "To", "Subject", "Date", "Message-Id", "Content-Type"} {
		if h.Get(key) != "" {
			return true
		}
	}
	return false
}
