package ui

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/emergent/storyboard-agent/internal/backend"
	"github.com/emergent/storyboard-agent/internal/jobs"
)

type Tray struct {
	tracker *jobs.Tracker
	poller  *jobs.Poller
	logger  *slog.Logger

	statusItem *systray.MenuItem
	queueItem  *systray.MenuItem
	pauseItem  *systray.MenuItem

	mu sync.Mutex

	onQuit func()
}

type TrayConfig struct {
	Tracker *jobs.Tracker
	Poller  *jobs.Poller
	Logger  *slog.Logger
	OnQuit  func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		tracker: cfg.Tracker,
		poller:  cfg.Poller,
		logger:  cfg.Logger,
		onQuit:  cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Storyboard")
	systray.SetTooltip("Storyboard Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.queueItem = systray.AddMenuItem("Queue: empty", "Generation queue")
	t.queueItem.Disable()

	systray.AddSeparator()

	t.pauseItem = systray.AddMenuItem("Pause Polling", "Pause queue polling")

	refreshItem := systray.AddMenuItem("Refresh Now", "Poll the generation queue immediately")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Storyboard Agent")

	go func() {
		for {
			select {
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-refreshItem.ClickedCh:
				t.handleRefresh()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.poller == nil {
		return
	}

	if t.poller.IsPaused() {
		t.poller.Resume()
		t.pauseItem.SetTitle("Pause Polling")
		t.statusItem.SetTitle("Status: Idle")
	} else {
		t.poller.Pause()
		t.pauseItem.SetTitle("Resume Polling")
		t.statusItem.SetTitle("Status: Paused")
	}
}

func (t *Tray) handleRefresh() {
	if _, err := t.tracker.Poll(context.Background()); err != nil {
		t.logger.Error("manual queue refresh failed", "error", err)
	}
}

// OnSnapshot refreshes the tray after every queue poll. Wire it to
// Poller.OnSnapshot before the poller starts.
func (t *Tray) OnSnapshot(snapshot []*backend.Job) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.statusItem == nil || t.queueItem == nil {
		return
	}

	counts := t.tracker.Counts()
	active := counts[backend.JobStatusPending] + counts[backend.JobStatusProcessing]

	t.queueItem.SetTitle(queueTitle(counts))

	if t.poller != nil && t.poller.IsPaused() {
		return
	}
	if active > 0 {
		t.statusItem.SetTitle(fmt.Sprintf("Status: Generating (%d)", active))
	} else if counts[backend.JobStatusFailed] > 0 {
		t.statusItem.SetTitle("Status: Attention needed")
	} else {
		t.statusItem.SetTitle("Status: Idle")
	}
}

func queueTitle(counts map[string]int) string {
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return "Queue: empty"
	}
	return fmt.Sprintf("Queue: %d pending, %d running, %d done, %d failed",
		counts[backend.JobStatusPending],
		counts[backend.JobStatusProcessing],
		counts[backend.JobStatusCompleted],
		counts[backend.JobStatusFailed],
	)
}

func (t *Tray) Quit() {
	systray.Quit()
}
