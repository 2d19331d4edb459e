package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"area/internal/realtime"
	"area/internal/session"
	"area/internal/template"
	"area/pkg/logging"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"
)

// newListenCmd creates the notification streaming command.
func newListenCmd() *cobra.Command {
	var events []string
	var templateText string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Stream area execution notifications",
		Long: `Open the realtime notification channel and print incoming frames
until interrupted. Suitable for running under systemd; readiness is
signaled via sd_notify when available.

With --template, frames are rendered through a Go template (sprig
functions included) instead of raw JSON:

  area listen --template '{{ .area_id }}: {{ .status | upper }}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			if err := rt.requireSession(); err != nil {
				return err
			}
			if rt.cfg.Realtime.Endpoint == "" {
				return fmt.Errorf("no websocket endpoint configured (set %s or realtime.endpoint)", "AREA_WS_URL")
			}

			var formatter *template.Formatter
			if templateText != "" {
				formatter, err = template.New(templateText)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			// lifecycle frames go to stderr, data frames to stdout
			noteLifecycle := func(frame realtime.Frame) {
				if !quiet {
					fmt.Fprintf(cmd.ErrOrStderr(), "# channel %s\n", frame.Type)
				}
			}
			printFrame := func(frame realtime.Frame) {
				if len(events) > 0 && !containsString(events, frame.Type) {
					return
				}
				if formatter != nil {
					line, err := formatter.Render(frame.Data)
					if err != nil {
						logging.Warn("Listen", "Template error: %v", err)
						return
					}
					fmt.Fprintln(out, line)
					return
				}
				raw, err := json.Marshal(frame.Data)
				if err != nil {
					return
				}
				fmt.Fprintln(out, string(raw))
			}

			openChannel := func() *realtime.Channel {
				channel := realtime.NewChannel(realtime.Config{
					Endpoint: rt.cfg.Realtime.Endpoint,
				})
				channel.On(realtime.EventConnected, noteLifecycle)
				channel.On(realtime.EventDisconnected, noteLifecycle)
				channel.On(realtime.EventAny, printFrame)
				channel.Connect(rt.sessions.Token())
				return channel
			}

			var channelMu sync.Mutex
			channel := openChannel()
			defer func() {
				channelMu.Lock()
				defer channelMu.Unlock()
				channel.Disconnect()
			}()

			// a login from another process swaps the session; follow it
			watcher := session.NewWatcher(rt.sessions, func() {
				logging.Info("Listen", "Session changed externally, reconnecting")
				channelMu.Lock()
				defer channelMu.Unlock()
				channel.Disconnect()
				channel = openChannel()
			})
			if err := watcher.Start(); err != nil {
				logging.Warn("Listen", "Session watcher unavailable: %v", err)
			}
			defer watcher.Stop()

			if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err == nil && sent {
				logging.Debug("Listen", "Signaled readiness to systemd")
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			select {
			case <-sigCh:
			case <-cmd.Context().Done():
			}

			_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&events, "event", nil, "only print frames of these types (repeatable)")
	cmd.Flags().StringVar(&templateText, "template", "", "render frames through a Go template")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress channel lifecycle notes")
	return cmd
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
