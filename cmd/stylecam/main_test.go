package main

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/ayusman/stylecam/internal/app"
	"github.com/ayusman/stylecam/internal/capture"
	"github.com/ayusman/stylecam/internal/output"
	"github.com/ayusman/stylecam/internal/style"
)

func TestPanelURL(t *testing.T) {
	tests := []struct {
		addr, want string
	}{
		{":8080", "http://localhost:8080"},
		{"127.0.0.1:9000", "http://127.0.0.1:9000"},
	}
	for _, tt := range tests {
		if got := panelURL(tt.addr); got != tt.want {
			t.Errorf("panelURL(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestSessionLabel(t *testing.T) {
	if got := sessionLabel("", ""); got != "Original" {
		t.Errorf("sessionLabel() = %q", got)
	}
	if got := sessionLabel("Blur", "Median"); got != "Blur (Median)" {
		t.Errorf("sessionLabel() = %q", got)
	}
}

func TestInitialSelection(t *testing.T) {
	logger, _ := test.NewNullLogger()
	a := app.New(app.Config{
		Registry: style.NewRegistryFromSources(logger),
		Source:   capture.NewMockCamera(nil, true),
		Sink:     &output.Discard{},
		Logger:   logger,
	})

	sel := initialSelection(a, options{}, logger)
	if sel.Device != "0" || sel.Style != "" {
		t.Errorf("default selection = %+v", sel)
	}

	sel = initialSelection(a, options{device: "pattern", style: "Sepia"}, logger)
	if sel.Device != "pattern" || sel.Style != "Sepia" || sel.Params != nil {
		t.Errorf("flag selection = %+v", sel)
	}
}
