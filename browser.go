// browser.go

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/playwright-community/playwright-go"

	log "github.com/sirupsen/logrus"
)

const (
	defaultDebugPort  = 9222
	defaultLoginURL   = "https://www.facebook.com/"
	defaultProfileDir = "fb-commenter-profile"

	engineRod        = "rod"
	enginePlaywright = "playwright"
)

// browserOptions configures the login browser.
type browserOptions struct {
	Engine     string
	Bin        string
	Port       int
	ProfileDir string
	URL        string
	Verbose    bool
}

func defaultProfileDirPath() string {
	return filepath.Join(os.TempDir(), defaultProfileDir)
}

// launchBrowser starts a browser with remote debugging on `opts.Port` and an
// isolated profile, and blocks until the user closes it.
func launchBrowser(ctx context.Context, opts browserOptions) error {
	if opts.Port <= 0 || opts.Port > 65535 {
		return validationErrorf("invalid remote debugging port: %d", opts.Port)
	}
	if opts.ProfileDir == "" {
		return validationErrorf("profile directory must not be empty")
	}
	if err := os.MkdirAll(opts.ProfileDir, 0o700); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	switch opts.Engine {
	case engineRod:
		return launchWithRod(ctx, opts)
	case enginePlaywright:
		return launchWithPlaywright(ctx, opts)
	default:
		return validationErrorf("unknown browser engine %q (must be %s or %s)", opts.Engine, engineRod, enginePlaywright)
	}
}

// rodArgs returns the command line flags for a headful browser with remote debugging.
func rodArgs(opts browserOptions) []string {
	l := launcher.New().
		Headless(false).
		Leakless(false).
		UserDataDir(opts.ProfileDir).
		RemoteDebuggingPort(opts.Port).
		Delete("no-startup-window")
	if opts.URL != "" {
		l = l.Set(flags.Arguments, opts.URL)
	}

	return l.FormatArgs()
}

// resolves the browser binary: given path, or the one installed on the system
func resolveBrowserBin(bin string) (string, error) {
	if bin != "" {
		return bin, nil
	}
	if found, has := launcher.LookPath(); has {
		return found, nil
	}
	return "", validationErrorf("no browser binary found, use --bin or set %s", envBrowserBin)
}

func launchWithRod(ctx context.Context, opts browserOptions) error {
	bin, err := resolveBrowserBin(opts.Bin)
	if err != nil {
		return err
	}
	args := rodArgs(opts)

	log.Printf("launching %s with remote debugging on port %d (profile: %s)", bin, opts.Port, opts.ProfileDir)
	log.Debugf("browser arguments: %v", args)

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout, cmd.Stderr = browserOutput(opts.Verbose), browserOutput(opts.Verbose)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("browser exited: %w", err)
	}
	return nil
}

func launchWithPlaywright(ctx context.Context, opts browserOptions) (err error) {
	if opts.Bin == "" {
		// install playwright's chromium
		if err = playwright.Install(&playwright.RunOptions{
			Browsers: []string{"chromium"},
		}); err != nil {
			return fmt.Errorf("failed to install playwright browsers: %w", err)
		}
	}

	var pw *playwright.Playwright
	if pw, err = playwright.Run(); err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}
	defer func() {
		e := pw.Stop()
		if err == nil {
			err = e
		}
	}()

	var browser playwright.BrowserContext
	if browser, err = pw.Chromium.LaunchPersistentContext(opts.ProfileDir, playwrightLaunchOptions(opts)); err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	closed := make(chan struct{})
	browser.OnClose(func(playwright.BrowserContext) {
		close(closed)
	})

	log.Printf("launched chromium with remote debugging on port %d (profile: %s)", opts.Port, opts.ProfileDir)

	if opts.URL != "" {
		var page playwright.Page
		if pages := browser.Pages(); len(pages) > 0 {
			page = pages[0]
		} else if page, err = browser.NewPage(); err != nil {
			return fmt.Errorf("failed to open page: %w", err)
		}
		if _, err = page.Goto(opts.URL); err != nil {
			log.Printf("failed to open %s: %s", opts.URL, err)
		}
	}

	select {
	case <-closed:
	case <-ctx.Done():
		return browser.Close()
	}
	return nil
}

// headed chromium with the debugging port open; playwright's bundled
// chromium unless a binary is given
func playwrightLaunchOptions(opts browserOptions) playwright.BrowserTypeLaunchPersistentContextOptions {
	launchOpts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(false),
		Args:     []string{fmt.Sprintf("--remote-debugging-port=%d", opts.Port)},
	}
	if opts.Bin != "" {
		launchOpts.ExecutablePath = playwright.String(opts.Bin)
	}
	return launchOpts
}

func browserOutput(verbose bool) io.Writer {
	if verbose {
		return os.Stderr
	}
	return io.Discard
}
