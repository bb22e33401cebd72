package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}

	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner, nil); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsLevels(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	infoHandler := slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugHandler := slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	h := TeeHandler(infoHandler, debugHandler)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected fanout to be enabled for debug")
	}

	logger := slog.New(h)
	logger.Debug("debug only")
	if infoBuf.Len() != 0 {
		t.Fatalf("info handler received debug record: %s", infoBuf.String())
	}
	if debugBuf.Len() == 0 {
		t.Fatal("debug handler missed debug record")
	}

	logger.Info("both")
	if !bytes.Contains(infoBuf.Bytes(), []byte(`"both"`)) {
		t.Fatalf("info handler missed info record: %s", infoBuf.String())
	}
}

func TestFanoutHandlerPropagatesAttrsAndGroups(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h := TeeHandler(slog.NewJSONHandler(&buf1, nil), slog.NewJSONHandler(&buf2, nil))

	logger := slog.New(h).With(slog.String(FieldRunID, "run-1")).WithGroup("stats")
	logger.Info("done", slog.Int("leads_created", 3))

	for name, buf := range map[string]*bytes.Buffer{"first": &buf1, "second": &buf2} {
		out := buf.Bytes()
		if !bytes.Contains(out, []byte(`"run_id":"run-1"`)) {
			t.Errorf("%s handler missing run_id: %s", name, out)
		}
		if !bytes.Contains(out, []byte(`"stats":{"leads_created":3}`)) {
			t.Errorf("%s handler missing grouped attr: %s", name, out)
		}
	}
}
