package obs

import (
	"context"
	"errors"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestTimeLogsFailureWithIdentifiers(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	ctx := WithRunID(WithRequestID(context.Background(), "req-1"), "run-1")

	err := errors.New("boom")
	Time(ctx, "optimize")(&err)

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatalf("expected a log entry")
	}
	if entry.Level != log.WarnLevel {
		t.Fatalf("level = %v, want warn", entry.Level)
	}
	if entry.Data["req_id"] != "req-1" || entry.Data["run_id"] != "run-1" || entry.Data["op"] != "optimize" {
		t.Fatalf("fields = %v", entry.Data)
	}
}

func TestFieldsSkipsMissingIdentifiers(t *testing.T) {
	if f := Fields(context.Background()); len(f) != 0 {
		t.Fatalf("fields = %v, want empty", f)
	}
}
