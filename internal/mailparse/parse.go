package mailparse

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/textproto"
)

// Part is a single leaf of a MIME message.
type Part struct {
	// ContentType is the lower-case media type, e.g. "text/plain"
	ContentType string
	Charset     string
	// Disposition is the raw Content-Disposition header value
	Disposition string
	// Payload is the transfer-decoded body, converted to UTF-8 when the
	// declared charset is known
	Payload []byte
	// Err is set when the payload could not be read
	Err error
}

// IsAttachment reports whether the part is marked as an attachment.
func (p Part) IsAttachment() bool {
	return strings.Contains(strings.ToLower(p.Disposition), "attachment")
}

// RawMessage is the structural view of a mail message used by Extract.
type RawMessage struct {
	Header    message.Header
	Multipart bool
	// Parts holds every leaf part in document order. A single-part message
	// has exactly one.
	Parts []Part
	// Raw is the undecoded message body
	Raw []byte
	// Defects records problems that were recovered from while parsing
	Defects []error
}

// Subject returns the decoded Subject header.
func (m *RawMessage) Subject() string {
	return DecodeHeader(m.Header.Get("Subject"))
}

// From returns the From header as it appears on the wire.
func (m *RawMessage) From() string {
	return m.Header.Get("From")
}

// Date returns the Date header as it appears on the wire.
func (m *RawMessage) Date() string {
	return m.Header.Get("Date")
}

// Parse reads an RFC 5322 message. Only an unreadable header is an error;
// damaged bodies degrade to fewer or undecoded parts.
func Parse(raw []byte) (*RawMessage, error) {
	br := bufio.NewReader(bytes.NewReader(raw))
	h, err := textproto.ReadHeader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read message header: %w", err)
	}

	body, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read message body: %w", err)
	}

	msg := &RawMessage{
		Header: message.Header{Header: h},
		Raw:    body,
	}

	entity, err := message.New(msg.Header, bytes.NewReader(body))
	if err != nil && !isRecoverable(err) {
		return nil, fmt.Errorf("failed to create message entity: %w", err)
	}
	if err != nil {
		msg.Defects = append(msg.Defects, err)
	}

	msg.Multipart = entity.MultipartReader() != nil
	msg.collect(entity)

	return msg, nil
}

// collect appends the leaves below e to m.Parts, depth first.
func (m *RawMessage) collect(e *message.Entity) {
	mr := e.MultipartReader()
	if mr == nil {
		if !m.collectEmbedded(e) {
			m.Parts = append(m.Parts, leafPart(e))
		}
		return
	}

	for {
		child, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil && (child == nil || !isRecoverable(err)) {
			m.Defects = append(m.Defects, err)
			return
		}
		if err != nil {
			m.Defects = append(m.Defects, err)
		}
		m.collect(child)
	}
}

// collectEmbedded walks an attached or forwarded message as if its parts
// belonged to m. It reports false when e is not an embedded message.
func (m *RawMessage) collectEmbedded(e *message.Entity) bool {
	mediaType, _, _ := e.Header.ContentType()
	mediaType = strings.ToLower(mediaType)
	if mediaType != "message/rfc822" && mediaType != "message/global" {
		return false
	}

	p := Part{
		ContentType: mediaType,
		Disposition: e.Header.Get("Content-Disposition"),
	}
	p.Payload, p.Err = io.ReadAll(e.Body)
	if p.Err == nil {
		inner, err := readEntity(p.Payload)
		if err != nil {
			m.Defects = append(m.Defects, err)
		}
		if inner != nil {
			m.collect(inner)
			return true
		}
	}

	m.Parts = append(m.Parts, p)
	return true
}

// readEntity parses an embedded message. A recoverable error is returned
// alongside a usable entity.
func readEntity(raw []byte) (*message.Entity, error) {
	br := bufio.NewReader(bytes.NewReader(raw))
	h, err := textproto.ReadHeader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded message header: %w", err)
	}

	entity, err := message.New(message.Header{Header: h}, br)
	if err != nil && !isRecoverable(err) {
		return nil, fmt.Errorf("failed to create embedded message entity: %w", err)
	}
	return entity, err
}

func leafPart(e *message.Entity) Part {
	mediaType, params, err := e.Header.ContentType()
	if err != nil || mediaType == "" {
		mediaType = "text/plain"
	}

	p := Part{
		ContentType: strings.ToLower(mediaType),
		Charset:     strings.ToLower(params["charset"]),
		Disposition: e.Header.Get("Content-Disposition"),
	}

	p.Payload, p.Err = io.ReadAll(e.Body)
	return p
}

// isRecoverable reports errors after which go-message still hands back a
// usable entity carrying the undecoded body.
func isRecoverable(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}
