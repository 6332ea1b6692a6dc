//go:build !nogui
// +build !nogui

// Package gui is the desktop viewer built on fyne.
package gui

import (
	"fmt"
	"sync"
	"time"

	"imgsort/internal/config"
	"imgsort/internal/log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
)

const refreshInterval = 100 * time.Millisecond

var _ Interface = (*App)(nil)

// App is the GUI application
type App struct {
	fyneApp    fyne.App
	mainWindow fyne.Window
	cfg        *config.Config
	src        Source
	viewer     *viewer

	busy     sync.Mutex // held while a move or rescan runs
	stop     chan struct{}
	stopOnce sync.Once
}

// NewApp creates a new GUI application
func NewApp(src Source, cfg *config.Config) *App {
	return newApp(app.NewWithID("io.github.imgsort"), src, cfg)
}

func newApp(fyneApp fyne.App, src Source, cfg *config.Config) *App {
	if cfg == nil {
		cfg = config.New()
	}

	a := &App{
		fyneApp: fyneApp,
		cfg:     cfg,
		src:     src,
		viewer:  newViewer(cfg),
		stop:    make(chan struct{}),
	}

	a.mainWindow = a.fyneApp.NewWindow("imgsort - " + src.Dir())
	a.setupMainWindow()
	return a
}

// StartGUI opens the viewer window and blocks until it is closed.
func StartGUI(src Source, cfg *config.Config) error {
	NewApp(src, cfg).Run()
	return nil
}

// IsGUIAvailable returns whether the GUI is available in this build
func IsGUIAvailable() bool {
	return true
}

// Run starts the GUI application
func (a *App) Run() {
	go a.poll()
	a.mainWindow.Show()
	a.fyneApp.Run()
	a.Close()
}

// Close stops the refresh loop.
func (a *App) Close() {
	a.stopOnce.Do(func() { close(a.stop) })
}

// GetMainWindow returns the main window for testing purposes
func (a *App) GetMainWindow() fyne.Window {
	return a.mainWindow
}

func (a *App) setupMainWindow() {
	a.mainWindow.Resize(fyne.NewSize(1024, 768))
	a.mainWindow.SetContent(a.viewer.content())
	a.mainWindow.SetOnClosed(a.Close)

	a.mainWindow.Canvas().SetOnTypedKey(a.handleKey)
	a.mainWindow.Canvas().SetOnTypedRune(a.handleRune)
	a.refresh()
}

func (a *App) poll() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.refresh()
		}
	}
}

func (a *App) refresh() {
	a.viewer.update(a.src.Frame())
}

// handleKey handles named keys. Letters arrive through handleRune.
func (a *App) handleKey(ke *fyne.KeyEvent) {
	switch ke.Name {
	case fyne.KeyLeft:
		a.src.Prev()
	case fyne.KeyRight:
		a.src.Next()
	case fyne.KeyHome:
		a.src.First()
	case fyne.KeyEnd:
		a.src.Last()
	default:
		return
	}
	a.refresh()
}

func (a *App) handleRune(r rune) {
	var err error
	switch r {
	case 'h':
		a.src.Prev()
	case 'l':
		a.src.Next()
	case 'g':
		a.src.First()
	case 'G':
		a.src.Last()
	case '0':
		err = a.src.Untag()
	case 'r':
		err = a.src.Retry()
	case 'R':
		a.runExclusive("Rescan", func() error { return a.src.Rescan() })
	case 'm':
		a.runExclusive("Move tagged", func() error {
			results, err := a.src.MoveAllTagged()
			if err == nil {
				a.ShowInfo(moveSummary(results))
			}
			return err
		})
	case 'q':
		a.fyneApp.Quit()
		return
	default:
		if tag, ok := a.cfg.TagForKey(string(r)); ok {
			err = a.src.Tag(tag)
		}
	}

	if err != nil {
		log.LogWithError(err).Debug("Key action rejected")
		a.viewer.status.SetText(err.Error())
		return
	}
	a.refresh()
}

// runExclusive runs fn off the UI goroutine unless another long action
// is already running.
func (a *App) runExclusive(name string, fn func() error) {
	if !a.busy.TryLock() {
		return
	}
	go func() {
		defer a.busy.Unlock()
		if err := fn(); err != nil {
			a.ShowError(name+" failed", err)
		}
		a.refresh()
	}()
}

// ShowError displays an error message
func (a *App) ShowError(message string, err error) {
	log.LogWithError(err).Error(message)
	dialog.ShowError(fmt.Errorf("%s: %w", message, err), a.mainWindow)
}

// ShowInfo displays an information message
func (a *App) ShowInfo(message string) {
	log.Info(message)
	dialog.ShowInformation("Info", message, a.mainWindow)
}
