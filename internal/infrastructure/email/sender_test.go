package email

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/jhornung97/ETPApprover/internal/ports"
)

func TestBuildMessagePlain(t *testing.T) {
	t.Parallel()

	msg := string(BuildMessage("bot@example.org", "admin@example.org", "Test Subject", "Hello there.", nil))

	for _, want := range []string{
		"From: bot@example.org\r\n",
		"To: admin@example.org\r\n",
		"Subject: Test Subject\r\n",
		"Content-Type: text/plain; charset=utf-8\r\n",
		"Hello there.",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
	if strings.Contains(msg, "multipart") {
		t.Error("plain message must not be multipart")
	}
}

func TestBuildMessageWithAttachment(t *testing.T) {
	t.Parallel()

	content := []byte("line one\nline two\n")
	msg := string(BuildMessage("bot@example.org", "admin@example.org", "Run Log", "See attached.", &ports.Attachment{
		Filename: "run.log",
		Content:  content,
	}))

	if !strings.Contains(msg, "Content-Type: multipart/mixed") {
		t.Fatal("expected multipart message")
	}
	if !strings.Contains(msg, `filename="run.log"`) {
		t.Error("attachment filename missing")
	}
	if !strings.Contains(msg, "See attached.") {
		t.Error("body text missing")
	}
	if !strings.Contains(msg, base64.StdEncoding.EncodeToString(content)) {
		t.Error("attachment content not base64 encoded in message")
	}
	if !strings.HasSuffix(msg, "--etpapprover-mime-boundary--\r\n") {
		t.Error("message not terminated with closing boundary")
	}
}

func TestBuildMessageFoldsBase64(t *testing.T) {
	t.Parallel()

	big := make([]byte, 400)
	for i := range big {
		big[i] = byte('a' + i%26)
	}
	msg := string(BuildMessage("a@b", "c@d", "s", "b", &ports.Attachment{Filename: "x", Content: big}))

	for _, line := range strings.Split(msg, "\r\n") {
		if len(line) > 78 {
			t.Fatalf("line exceeds fold limit: %d chars", len(line))
		}
	}
}
