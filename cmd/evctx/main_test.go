package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const flight = `{"message":"ardrone3.Piloting.TakeOff","message_id":16777217}
{"message":"ardrone3.PilotingState.FlyingStateChanged","args":{"state":"takingoff"}}
{"message":"ardrone3.PilotingState.FlyingStateChanged","args":{"state":"hovering"}}
{"message":"common.CommonState.BatteryStateChanged","args":{"percent":87}}
`

var testConfig = config{ReportStyle: "notty", ReportWidth: 120, LogLevel: slog.LevelWarn}

// captureOutput captures both zerolog and slog output during test execution
func captureOutput(fn func()) string {
	var buf bytes.Buffer

	oldZeroLogger := log
	oldSlogLogger := slog.Default()
	defer func() {
		log = oldZeroLogger
		slog.SetDefault(oldSlogLogger)
	}()

	output := zerolog.ConsoleWriter{
		Out:        &buf,
		NoColor:    true,
		TimeFormat: time.Stamp,
	}
	log = zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: slog.LevelDebug}),
	))

	fn()
	return buf.String()
}

func writeBatch(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var out bytes.Buffer
	err := run(context.Background(), testConfig, args, strings.NewReader(stdin), &out)
	return out.String(), err
}

func TestRun(t *testing.T) {
	path := writeBatch(t, flight)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "whole batch",
			args: []string{"-f", path},
			want: strings.Join([]string{
				"[",
				"    ardrone3.Piloting.TakeOff(),",
				"    ardrone3.PilotingState.FlyingStateChanged(state='takingoff'),",
				"    ardrone3.PilotingState.FlyingStateChanged(state='hovering'),",
				"    common.CommonState.BatteryStateChanged(percent=87)",
				"]",
			}, "\n") + "\n",
		},
		{
			name: "single filter",
			args: []string{"-f", path, "-filter", "common.CommonState.BatteryStateChanged"},
			want: "common.CommonState.BatteryStateChanged(percent=87)\n",
		},
		{
			name: "combined filters",
			args: []string{"-f", path, "-filter", "ardrone3.Piloting.TakeOff, common.CommonState.BatteryStateChanged", "-combine", "or"},
			want: "( ardrone3.Piloting.TakeOff() or common.CommonState.BatteryStateChanged(percent=87) )\n",
		},
		{
			name: "unknown filter is empty",
			args: []string{"-f", path, "-filter", "common.Nope", "-combine", "and"},
			want: "\n",
		},
		{
			name: "empty operands are dropped",
			args: []string{"-f", path, "-filter", "common.Nope,ardrone3.Piloting.TakeOff"},
			want: "ardrone3.Piloting.TakeOff()\n",
		},
		{
			name: "policy",
			args: []string{"-f", path, "-filter", "ardrone3.Piloting.TakeOff", "-policy", "wait"},
			want: "ardrone3.Piloting.TakeOff(policy=wait)\n",
		},
		{
			name: "last",
			args: []string{"-f", path, "-last", "-marker", "green"},
			want: "common.CommonState.BatteryStateChanged(percent=87)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runCLI(t, "", tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunStdin(t *testing.T) {
	got, err := runCLI(t, `[{"message":"M1","args":{"x":1}},{"message":"M3"}]`)
	require.NoError(t, err)
	assert.Equal(t, "[M1(x=1), M3()]\n", got)

	got, err = runCLI(t, "", "-last")
	require.NoError(t, err)
	assert.Equal(t, "no events\n", got)
}

func TestRunReport(t *testing.T) {
	path := writeBatch(t, flight)
	got, err := runCLI(t, "", "-f", path, "-report")
	require.NoError(t, err)
	assert.Contains(t, got, "Event context")
	assert.Contains(t, got, "ardrone3.PilotingState.FlyingStateChanged")
	assert.Contains(t, got, "4 events.")
}

func TestRunDump(t *testing.T) {
	path := writeBatch(t, flight)
	got, err := runCLI(t, "", "-f", path, "-last", "-dump")
	require.NoError(t, err)
	assert.Contains(t, got, "events.Event")
	assert.Contains(t, got, "percent")
}

func TestRunSchema(t *testing.T) {
	got, err := runCLI(t, "", "schema")
	require.NoError(t, err)
	require.True(t, gjson.Valid(got))
	assert.Equal(t, "date-time", gjson.Get(got, "properties.created_at.format").String())
}

func TestRunErrors(t *testing.T) {
	path := writeBatch(t, flight)

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{name: "bad combinator", args: []string{"-f", path, "-combine", "xor"}, want: "invalid combine operator"},
		{name: "bad policy", args: []string{"-f", path, "-policy", "maybe"}, want: "invalid policy"},
		{name: "bad marker", args: []string{"-f", path, "-marker", "blue"}, want: "invalid marker"},
		{name: "stray argument", args: []string{"-f", path, "extra"}, want: "unexpected arguments"},
		{name: "missing file", args: []string{"-f", filepath.Join(t.TempDir(), "nope.json")}, want: "read events"},
		{name: "bad batch", stdin: "{\"message\":\"M1\"}\n{\"args\":{}}", want: "event 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			captureOutput(func() {
				_, err = runCLI(t, tt.stdin, tt.args...)
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("NATS_URL", "nats://example:4222")
	t.Setenv("EVCTX_LOG_LEVEL", "debug")
	t.Setenv("NO_COLOR", "true")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "nats://example:4222", cfg.NatsURL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, "auto", cfg.ReportStyle)
	assert.Equal(t, 100, cfg.ReportWidth)
}

func TestSetupLogging(t *testing.T) {
	out := captureOutput(func() {
		slog.Debug("collecting events", slog.String("subject", "drone.events"))
	})
	assert.Contains(t, out, "collecting events")
	assert.Contains(t, out, "drone.events")

	var buf bytes.Buffer
	oldSlog := slog.Default()
	t.Cleanup(func() { slog.SetDefault(oldSlog) })
	setupLogging(&buf, slog.LevelWarn, true)
	slog.Info("hidden")
	slog.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
