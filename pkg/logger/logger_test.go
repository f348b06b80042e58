package logger

import (
	"testing"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/config"
)

func TestNew(t *testing.T) {
	app := config.AppConfig{Name: "medforecast", Environment: "test", Version: "1.0.0"}

	for _, format := range []string{"json", "console"} {
		log, err := New(config.LogConfig{Level: "debug", Format: format, OutputPath: "stdout"}, app)
		if err != nil {
			t.Fatalf("New(%s): %v", format, err)
		}
		if !log.Core().Enabled(-1) {
			t.Errorf("format %s: debug level should be enabled", format)
		}
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "verbose", Format: "json", OutputPath: "stdout"}, config.AppConfig{})
	if err == nil {
		t.Fatal("expected error for invalid level")
	}
}
