package filter

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

const (
	noTextPlaceholder = "[No text content found in multipart message]"
	maxMIMEDepth      = 5
	maxPartBytes      = 1 << 20
)

var (
	wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

	htmlTagPattern    = regexp.MustCompile(`(?s)<(script|style)[^>]*>.*?</(script|style)>|<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`[ \t]+`)
)

type headerGetter interface {
	Get(key string) string
}

// charsetReader converts a labelled charset to UTF-8
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// decodeEncodedHeader decodes RFC 2047 encoded words in a header value
func decodeEncodedHeader(value string) (string, error) {
	return wordDecoder.DecodeHeader(value)
}

// extractTextFromMessage extracts the readable text of an email message.
// text/plain parts are preferred; HTML is stripped to text when no plain part exists.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	plain, htmlText, err := extractPart(msg.Header, msg.Body, 0)
	if err != nil {
		return "", err
	}

	switch {
	case plain != "":
		return plain, nil
	case htmlText != "":
		return stripHTML(htmlText), nil
	case isMultipart(msg.Header):
		return noTextPlaceholder, nil
	default:
		return "", nil
	}
}

func isMultipart(h headerGetter) bool {
	mediaType, _, err := mime.ParseMediaType(h.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

// extractPart walks a MIME entity and returns its plain and HTML text
func extractPart(h headerGetter, body io.Reader, depth int) (string, string, error) {
	contentType := h.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Unparseable Content-Type, treat the body as plain text
		mediaType, params = "text/plain", nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" || depth >= maxMIMEDepth {
			return "", "", nil
		}
		return extractMultipart(multipart.NewReader(body, boundary), depth)
	}

	if mediaType != "text/plain" && mediaType != "text/html" {
		// Attachments and other non-text parts
		return "", "", nil
	}

	text, err := readText(h, body, params["charset"])
	if err != nil {
		return "", "", err
	}
	if mediaType == "text/html" {
		return "", text, nil
	}
	return text, "", nil
}

func extractMultipart(mr *multipart.Reader, depth int) (string, string, error) {
	var plain, htmlText bytes.Buffer

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed parts end the walk; keep what was read so far
			break
		}

		p, h, err := extractPart(part.Header, part, depth+1)
		if err != nil {
			continue
		}
		if p != "" {
			plain.WriteString(p)
			plain.WriteString("\n")
		}
		if h != "" {
			htmlText.WriteString(h)
			htmlText.WriteString("\n")
		}
	}

	return plain.String(), htmlText.String(), nil
}

// readText decodes the transfer encoding and charset of a text part
func readText(h headerGetter, body io.Reader, charset string) (string, error) {
	var r io.Reader = io.LimitReader(body, maxPartBytes)

	switch strings.ToLower(strings.TrimSpace(h.Get("Content-Transfer-Encoding"))) {
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	}

	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset != "" && charset != "utf-8" && charset != "us-ascii" {
		if decoded, err := charsetReader(charset, r); err == nil {
			r = decoded
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read text part: %w", err)
	}
	return string(data), nil
}

// stripHTML reduces an HTML document to its visible text
func stripHTML(s string) string {
	text := htmlTagPattern.ReplaceAllString(s, " ")
	text = html.UnescapeString(text)
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
