package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestRodArgs(t *testing.T) {
	profile := t.TempDir()

	args := rodArgs(browserOptions{
		Port:       9333,
		ProfileDir: profile,
		URL:        defaultLoginURL,
	})

	for _, want := range []string{
		"--remote-debugging-port=9333",
		"--user-data-dir=" + profile,
		defaultLoginURL,
	} {
		if !slices.Contains(args, want) {
			t.Errorf("expected %q in %v", want, args)
		}
	}

	for _, arg := range args {
		if strings.HasPrefix(arg, "--headless") {
			t.Errorf("browser must not be headless: %v", args)
		}
		if arg == "--no-startup-window" {
			t.Errorf("browser must open a window: %v", args)
		}
		if strings.HasPrefix(arg, "--rod-") {
			t.Errorf("launcher-only flag leaked: %s", arg)
		}
	}
}

func TestPlaywrightLaunchOptions(t *testing.T) {
	launchOpts := playwrightLaunchOptions(browserOptions{
		Port:       9333,
		ProfileDir: t.TempDir(),
	})

	if launchOpts.Headless == nil || *launchOpts.Headless {
		t.Error("browser must not be headless")
	}
	if !slices.Contains(launchOpts.Args, "--remote-debugging-port=9333") {
		t.Errorf("expected debugging port in %v", launchOpts.Args)
	}
	if launchOpts.ExecutablePath != nil {
		t.Errorf("expected bundled chromium, got %q", *launchOpts.ExecutablePath)
	}

	launchOpts = playwrightLaunchOptions(browserOptions{
		Bin:  "/opt/chromium/chrome",
		Port: defaultDebugPort,
	})
	if launchOpts.ExecutablePath == nil || *launchOpts.ExecutablePath != "/opt/chromium/chrome" {
		t.Errorf("expected given binary, got %v", launchOpts.ExecutablePath)
	}
	if !slices.Contains(launchOpts.Args, fmt.Sprintf("--remote-debugging-port=%d", defaultDebugPort)) {
		t.Errorf("expected default debugging port in %v", launchOpts.Args)
	}
}

func TestLaunchBrowser_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts browserOptions
	}{
		{"port zero", browserOptions{Engine: engineRod, Port: 0, ProfileDir: t.TempDir()}},
		{"port too large", browserOptions{Engine: engineRod, Port: 70000, ProfileDir: t.TempDir()}},
		{"empty profile", browserOptions{Engine: engineRod, Port: defaultDebugPort}},
		{"unknown engine", browserOptions{Engine: "lynx", Port: defaultDebugPort, ProfileDir: t.TempDir()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := launchBrowser(context.Background(), tt.opts)

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected *ValidationError, got %T: %v", err, err)
			}
		})
	}
}

func TestLaunchBrowser_CreatesProfileDir(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "nested", "profile")

	// fails on the engine, after the profile directory is prepared
	_ = launchBrowser(context.Background(), browserOptions{Engine: "none", Port: defaultDebugPort, ProfileDir: profile})

	if info, err := os.Stat(profile); err != nil || !info.IsDir() {
		t.Fatalf("expected profile directory to be created: %v", err)
	}
}

func TestLaunchWithRod_MissingBinary(t *testing.T) {
	err := launchBrowser(context.Background(), browserOptions{
		Engine:     engineRod,
		Bin:        filepath.Join(t.TempDir(), "no-such-browser"),
		Port:       defaultDebugPort,
		ProfileDir: t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected an error for a missing browser binary")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected the process start error, got %v", err)
	}
}

func TestResolveBrowserBin(t *testing.T) {
	got, err := resolveBrowserBin("/opt/browser/chrome")
	if err != nil || got != "/opt/browser/chrome" {
		t.Errorf("expected given path, got %q, %v", got, err)
	}
}

func TestBrowserCmd(t *testing.T) {
	clearEnv(t)
	t.Setenv(envBrowserBin, "/usr/bin/from-env")

	origLaunch, origLoadDotEnv := launch, loadDotEnv
	t.Cleanup(func() { launch, loadDotEnv = origLaunch, origLoadDotEnv })
	loadDotEnv = func(...string) error { return nil }

	var got browserOptions
	launch = func(_ context.Context, opts browserOptions) error {
		got = opts
		return nil
	}

	profile := t.TempDir()

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"browser", "--port", "9444", "--profile-dir", profile, "-v"})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Engine != engineRod {
		t.Errorf("expected default engine %s, got %s", engineRod, got.Engine)
	}
	if got.Port != 9444 || got.ProfileDir != profile || got.URL != defaultLoginURL {
		t.Errorf("unexpected options: %+v", got)
	}
	if got.Bin != "/usr/bin/from-env" {
		t.Errorf("expected binary from env, got %q", got.Bin)
	}
	if !got.Verbose {
		t.Error("expected verbose to be passed through")
	}
}

func TestBrowserCmd_BinFromConfigFile(t *testing.T) {
	clearEnv(t)

	origLaunch, origLoadDotEnv := launch, loadDotEnv
	t.Cleanup(func() { launch, loadDotEnv = origLaunch, origLoadDotEnv })
	loadDotEnv = func(...string) error { return nil }

	var got browserOptions
	launch = func(_ context.Context, opts browserOptions) error {
		got = opts
		return nil
	}

	path := writeFile(t, "config.json", `{"browser_bin": "/opt/chromium/chrome"}`)

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "browser", "--engine", enginePlaywright})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Bin != "/opt/chromium/chrome" || got.Engine != enginePlaywright {
		t.Errorf("unexpected options: %+v", got)
	}
	if got.Port != defaultDebugPort {
		t.Errorf("expected default port %d, got %d", defaultDebugPort, got.Port)
	}
}
