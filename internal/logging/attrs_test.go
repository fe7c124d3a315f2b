package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipper/internal/logging"
	"clipper/internal/services"
)

func readJSONLine(t *testing.T, path string) map[string]any {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	return record
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "thumbnail skipped", "thumbnail_failed",
		logging.String(logging.FieldImpact, "audio delivered without cover"),
		logging.UserID(7),
	)

	record := readJSONLine(t, logPath)
	if record[logging.FieldEventType] != "thumbnail_failed" {
		t.Fatalf("event_type = %v", record[logging.FieldEventType])
	}
	if record[logging.FieldImpact] != "audio delivered without cover" {
		t.Fatalf("impact = %v", record[logging.FieldImpact])
	}
	if record[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error_hint")
	}
	if record[logging.FieldUserID] != float64(7) {
		t.Fatalf("user_id = %v", record[logging.FieldUserID])
	}
}

func TestErrorWithContextCarriesErrorKind(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "error.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	jobErr := services.Wrap(services.ErrDelivery, "uploading", "send", "nothing delivered", nil)
	logging.ErrorWithContext(logger, "job failed", "job_failed",
		logging.ErrorKind(jobErr),
		logging.String(logging.FieldErrorHint, "check the chat"),
	)

	record := readJSONLine(t, logPath)
	if record[logging.FieldErrorKind] != "delivery" {
		t.Fatalf("error_kind = %v", record[logging.FieldErrorKind])
	}
	if record[logging.FieldErrorHint] != "check the chat" {
		t.Fatalf("error_hint = %v", record[logging.FieldErrorHint])
	}
	if _, ok := record[logging.FieldImpact]; ok {
		t.Fatal("errors do not get a default impact")
	}
}

func TestWithContextNilLogger(t *testing.T) {
	logging.WarnWithContext(nil, "ignored", "noop")
	logging.ErrorWithContext(nil, "ignored", "noop")
}
