package filter

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/llm-email-classifier/internal/config"
	"github.com/mikey/llm-email-classifier/internal/core"
	"github.com/mikey/llm-email-classifier/internal/whitelist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// rankedClassifier scores labels in the order they are given.
type rankedClassifier struct {
	calls int
	err   error
}

func (c *rankedClassifier) Name() string { return "fake" }

func (c *rankedClassifier) Classify(_ context.Context, _ string, labels []string) (*core.ZeroShotOutput, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}

	out := &core.ZeroShotOutput{Model: "fake-model"}
	total := 0.0
	for i := range labels {
		total += float64(len(labels) - i)
	}
	for i, label := range labels {
		out.Labels = append(out.Labels, label)
		out.Scores = append(out.Scores, float64(len(labels)-i)/total)
	}
	return out, nil
}

var testHeaders = config.HeaderNames{
	Category:   "X-Email-Category",
	Confidence: "X-Email-Category-Confidence",
	Scores:     "X-Email-Category-Scores",
	ID:         "X-Email-Classifier-ID",
	Error:      "X-Email-Classifier-Error",
}

const rawMessage = "From: Alice <alice@customer.com>\r\n" +
	"To: support@shop.com\r\n" +
	"Subject: Order problem\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"My order arrived broken and I would like a replacement as soon as possible.\r\n"

type relayed struct {
	sender     string
	recipients []string
	data       []byte
}

func newTestFilter(t *testing.T, classifier core.ZeroShotClassifier, trusted ...string) (*SMTPFilter, *[]relayed) {
	t.Helper()

	logger := zaptest.NewLogger(t)
	service := core.NewClassificationService(classifier, nil, nil, logger, false, 0)
	f := NewSMTPFilter(service, whitelist.NewChecker(trusted, logger), logger, config.ServerConfig{
		Hostname: "filter.test",
		Headers:  testHeaders,
	})

	var sent []relayed
	f.relay = func(sender string, recipients []string, data []byte) error {
		sent = append(sent, relayed{sender, recipients, data})
		return nil
	}
	return f, &sent
}

func deliver(t *testing.T, f *SMTPFilter, sender string, raw string) error {
	t.Helper()

	session, err := (&smtpBackend{filter: f}).NewSession(nil)
	require.NoError(t, err)
	require.NoError(t, session.Mail(sender, nil))
	require.NoError(t, session.Rcpt("support@shop.com", nil))
	return session.Data(strings.NewReader(raw))
}

func TestSMTPFilterAddsClassificationHeaders(t *testing.T) {
	classifier := &rankedClassifier{}
	f, sent := newTestFilter(t, classifier)

	require.NoError(t, deliver(t, f, "alice@customer.com", rawMessage))
	require.Len(t, *sent, 1)

	msg := (*sent)[0]
	assert.Equal(t, "alice@customer.com", msg.sender)
	assert.Equal(t, []string{"support@shop.com"}, msg.recipients)

	out := string(msg.data)
	assert.True(t, strings.HasPrefix(out, "X-Email-Category: Customer Support Request\r\n"), out)
	assert.Contains(t, out, "X-Email-Category-Confidence: 15.38\r\n")
	assert.Contains(t, out, "X-Email-Category-Scores: Customer Support Request=15.38; Sales Inquiry=14.10; Technical Problem=12.82\r\n")
	assert.Contains(t, out, "X-Email-Classifier-ID: ")
	assert.NotContains(t, out, "X-Email-Classifier-Error")
	assert.True(t, strings.HasSuffix(out, rawMessage))
	assert.Equal(t, 1, classifier.calls)
}

func TestSMTPFilterRelaysOnClassifierError(t *testing.T) {
	f, sent := newTestFilter(t, &rankedClassifier{err: errors.New("model\r\nunavailable")})

	require.NoError(t, deliver(t, f, "alice@customer.com", rawMessage))
	require.Len(t, *sent, 1)

	out := string((*sent)[0].data)
	assert.True(t, strings.HasPrefix(out, "X-Email-Classifier-Error: failed to classify with fake: model unavailable\r\n"), out)
	assert.NotContains(t, out, "X-Email-Category:")
	assert.True(t, strings.HasSuffix(out, rawMessage))
}

func TestSMTPFilterRelaysUnparsableMessage(t *testing.T) {
	f, sent := newTestFilter(t, &rankedClassifier{})

	raw := "this header line has no colon\r\n\r\nbody text\r\n"
	require.NoError(t, deliver(t, f, "alice@customer.com", raw))
	require.Len(t, *sent, 1)

	out := string((*sent)[0].data)
	assert.True(t, strings.HasPrefix(out, "X-Email-Classifier-Error: "))
	assert.True(t, strings.HasSuffix(out, raw))
}

func TestSMTPFilterSkipsTrustedSenders(t *testing.T) {
	classifier := &rankedClassifier{}
	f, sent := newTestFilter(t, classifier, "customer.com")

	require.NoError(t, deliver(t, f, "bob@mail.customer.com", rawMessage))
	require.Len(t, *sent, 1)
	assert.Equal(t, rawMessage, string((*sent)[0].data))
	assert.Zero(t, classifier.calls)
}

func TestSMTPFilterShortMessageIsTaggedUnclassified(t *testing.T) {
	classifier := &rankedClassifier{}
	f, sent := newTestFilter(t, classifier)

	raw := "From: a@b.com\r\n\r\nhi\r\n"
	require.NoError(t, deliver(t, f, "a@b.com", raw))
	require.Len(t, *sent, 1)

	out := string((*sent)[0].data)
	assert.True(t, strings.HasPrefix(out, "X-Email-Category: Unable to classify\r\n"), out)
	assert.Contains(t, out, "X-Email-Category-Confidence: 0.00\r\n")
	assert.Zero(t, classifier.calls)
}

func TestSMTPFilterRelayFailureIsTemporary(t *testing.T) {
	f, _ := newTestFilter(t, &rankedClassifier{})
	f.relay = func(string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := deliver(t, f, "alice@customer.com", rawMessage)

	var smtpErr *smtp.SMTPError
	require.ErrorAs(t, err, &smtpErr)
	assert.Equal(t, 451, smtpErr.Code)
}

func TestSessionResetClearsEnvelope(t *testing.T) {
	s := &smtpSession{}
	require.NoError(t, s.Mail("a@b.com", nil))
	require.NoError(t, s.Rcpt("c@d.com", nil))

	s.Reset()

	assert.Empty(t, s.sender)
	assert.Empty(t, s.recipients)
}

func TestPrependHeadersSkipsUnnamed(t *testing.T) {
	out := prependHeaders([]byte("Subject: x\r\n\r\nbody"), []header{
		{"X-One", "1"},
		{"", "dropped"},
		{"X-Two", "  spaced\n value "},
	})

	assert.Equal(t, "X-One: 1\r\nX-Two: spaced value\r\nSubject: x\r\n\r\nbody", string(out))
}

func TestStopWithoutStart(t *testing.T) {
	f := NewSMTPFilter(nil, nil, zap.NewNop(), config.ServerConfig{})
	assert.NoError(t, f.Stop())
}

func newTestCli(t *testing.T, verbose bool) (*CliFilter, *bytes.Buffer) {
	t.Helper()

	logger := zaptest.NewLogger(t)
	service := core.NewClassificationService(&rankedClassifier{}, nil, nil, logger, false, 0)
	var out bytes.Buffer
	return NewCliFilter(service, logger, &out, verbose), &out
}

func TestCliFilterProcessEmail(t *testing.T) {
	cli, out := newTestCli(t, false)

	email := &core.ExtractedEmail{
		ID:       "42",
		Subject:  "Order problem",
		Sender:   "Alice <alice@customer.com>",
		Date:     "Mon, 2 Jan 2006 15:04:05 -0700",
		BodyFull: "My order arrived broken and I would like a replacement.",
	}

	result, err := cli.ProcessEmail(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, "Customer Support Request", result.Category)

	text := out.String()
	assert.Contains(t, text, "From: Alice <alice@customer.com>")
	assert.Contains(t, text, "Subject: Order problem")
	assert.Contains(t, text, "Category: Customer Support Request\n")
	assert.Contains(t, text, "Confidence: 15.38%")
	assert.Contains(t, text, core.CategoryDescriptions["Customer Support Request"])
	assert.Contains(t, text, "  1. Customer Support Request")
	assert.Contains(t, text, "  5. Feature Request")
	assert.NotContains(t, text, "  6. ")
	assert.Contains(t, text, "Model used: fake-model")
	assert.NotContains(t, text, "Body preview")
}

func TestCliFilterShortEmail(t *testing.T) {
	cli, out := newTestCli(t, true)

	result, err := cli.ProcessEmail(context.Background(), &core.ExtractedEmail{BodyFull: "hi"})
	require.NoError(t, err)
	assert.Equal(t, core.UnableToClassify, result.Category)

	text := out.String()
	assert.Contains(t, text, "Body preview:\nhi\n")
	assert.Contains(t, text, "Not enough text to classify.")
	assert.NotContains(t, text, "Top 5")
}

func TestCliFilterRenderResultVerbose(t *testing.T) {
	cli, out := newTestCli(t, true)

	cli.RenderResult(&core.ClassificationResult{
		ID:         "abc",
		Category:   "Custom Label",
		Confidence: 60,
		AllScores:  map[string]float64{"Custom Label": 60, "Other": 40},
		ModelUsed:  "m",
	}, time.Second)

	text := out.String()
	assert.Contains(t, text, "Description: No description available")
	assert.Contains(t, text, "Classification ID: abc")
	assert.Contains(t, text, "Processing time: 1s")
}

func TestCliFilterRenderCategories(t *testing.T) {
	cli, out := newTestCli(t, false)

	cli.RenderCategories()

	text := out.String()
	assert.Contains(t, text, " 1. Customer Support Request\n")
	assert.Contains(t, text, "12. General Question\n")
}
