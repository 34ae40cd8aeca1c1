package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	csv := []byte(strings.Repeat("continente,prom_puntuacion\nEurope,88.5\n", 10))
	raw, err := BuildMessage("me@example.com", []string{"you@example.com"}, DefaultSubject, DefaultBody, []Attachment{
		{Name: "reporte1_continente.csv", ContentType: "text/csv", Data: csv},
	})
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "you@example.com", msg.Header.Get("To"))

	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSubject, subject)

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])

	p, err := mr.NextPart()
	require.NoError(t, err)
	body, _ := io.ReadAll(p)
	assert.Contains(t, string(body), DefaultBody)

	p, err = mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "reporte1_continente.csv", p.FileName())
	assert.Equal(t, "base64", p.Header.Get("Content-Transfer-Encoding"))

	encoded, _ := io.ReadAll(p)
	for _, line := range strings.Split(strings.TrimSpace(string(encoded)), "\r\n") {
		assert.LessOrEqual(t, len(line), 76)
	}

	_, err = mr.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestMailer_Disabled(t *testing.T) {
	m := &Mailer{Host: "smtp.example.com", Port: 465}
	assert.False(t, m.Enabled())

	err := m.Send(context.Background(), "s", "b", nil)
	assert.True(t, errors.Is(err, ErrDisabled))

	var nilMailer *Mailer
	assert.False(t, nilMailer.Enabled())
}

func TestMailer_Recipients(t *testing.T) {
	m := &Mailer{User: "me@example.com", Pass: "x"}
	assert.Equal(t, []string{"me@example.com"}, m.recipients())

	m.To = []string{"a@example.com", "b@example.com"}
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, m.recipients())
}

func TestMailer_SendFilesReadsMatches(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "r1.csv"), []byte("a\n"), 0o644))

	// Disabled mailer: files are read, then sending is refused.
	m := &Mailer{}
	err := m.SendFiles(context.Background(), DefaultSubject, DefaultBody, filepath.Join(dir, "*.csv"))
	assert.ErrorIs(t, err, ErrDisabled)

	assert.Error(t, m.SendFiles(context.Background(), "s", "b", "["))
}
