package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/Mohsinsiddi/qbx/internal/chain"
	"github.com/Mohsinsiddi/qbx/internal/contract"
	"github.com/Mohsinsiddi/qbx/internal/events"
	"github.com/Mohsinsiddi/qbx/internal/metrics"
	"github.com/Mohsinsiddi/qbx/internal/store"
	"github.com/Mohsinsiddi/qbx/internal/token"
	"github.com/Mohsinsiddi/qbx/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	eventsFromBlock   uint64
	eventsFilter      string
	eventsLimit       int
	eventsMetricsAddr string
	eventsPlain       bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect ledger events",
}

// ── events list ───────────────────────────────────────────────────────────────

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the events recorded in receipts",
	Long: `List every Transfer, Burn, Pause, Unpause and OwnershipTransferred event,
oldest first, decoded from the receipt logs.

Examples:
  qbx events list
  qbx events list --event Burn
  qbx events list --from-block 3 --limit 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.LedgerPath(), true)
		if err != nil {
			return err
		}
		defer st.Close()

		meta, err := st.Metadata()
		if err != nil {
			return err
		}
		addr, err := st.Address()
		if err != nil {
			return err
		}
		receipts, err := st.Receipts(eventsFromBlock)
		if err != nil {
			return err
		}
		mgr, err := newAccountManager(false)
		if err != nil {
			return err
		}

		rows := eventRows(receipts, meta, namer(mgr, addr), eventsFilter)
		if eventsLimit > 0 && len(rows) > eventsLimit {
			rows = rows[len(rows)-eventsLimit:]
		}
		if len(rows) == 0 {
			fmt.Println(ui.Info("No events."))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Block", Width: 6, Right: true},
			{Title: "Tx", Width: 14},
			{Title: "Event", Width: 20},
			{Title: "Detail", Width: 48},
		})
		for _, r := range rows {
			t.AddRow(ui.Row{
				fmt.Sprintf("#%d", r.Block),
				ui.Addr(ui.TruncateAddr(r.TxHash)),
				ui.EventStyle(r.Event).Render(r.Event),
				r.Detail,
			})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d event(s) in %d block(s)", len(rows), len(receipts))))
		return nil
	},
}

// ── events watch ──────────────────────────────────────────────────────────────

var eventsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream new ledger events",
	Long: `Watch the ledger for new blocks and stream their events into a live TUI.

The ledger file is polled every watch_interval seconds (config), so other
qbx commands can keep writing while this runs. With --metrics-addr the
event counters, burned amount, paused flag and block height are served
for Prometheus at /metrics.

Keyboard controls:
  ↑↓ / j k   navigate rows
  f           cycle the event filter
  q           quit

Examples:
  qbx events watch
  qbx events watch --metrics-addr :2112
  qbx events watch --plain --from-block 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.LedgerPath(), true)
		if err != nil {
			return err
		}
		meta, err := st.Metadata()
		if err != nil {
			st.Close()
			return err
		}
		addr, _ := st.Address()
		height, err := st.Height()
		st.Close()
		if err != nil {
			return err
		}

		mgr, err := newAccountManager(false)
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		rec, err := metrics.NewRecorder(reg)
		if err != nil {
			return err
		}
		notifier := events.NewNotifier()
		defer notifier.Close()
		notifier.Subscribe(rec.Handle)

		metricsAddr := eventsMetricsAddr
		if metricsAddr == "" {
			metricsAddr = cfg.MetricsAddr
		}
		if metricsAddr != "" {
			svc := metrics.NewService(metricsAddr, reg, logger)
			go svc.Start()
			defer svc.ShutDown()
		}

		// Anchor to the current head so history is not replayed, unless
		// --from-block asks for it.
		tl := &tailer{path: cfg.LedgerPath(), last: height}
		if cmd.Flags().Changed("from-block") && eventsFromBlock > 0 {
			tl.last = eventsFromBlock - 1
		}
		w := &watcher{
			tail:    tl,
			meta:    meta,
			name:    namer(mgr, addr),
			emitter: notifier,
			rec:     rec,
			every:   cfg.WatchPoll(),
			log:     logger,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if eventsPlain {
			w.onRow = func(r ui.EventRow) {
				fmt.Printf("#%-5d %s  %-20s %s\n", r.Block, ui.TruncateAddr(r.TxHash), r.Event, r.Detail)
			}
			w.onStatus = func(s ui.WatchStatusMsg) {
				if s.ErrMsg != "" {
					fmt.Fprintln(os.Stderr, ui.Warn(s.ErrMsg))
				}
			}
			w.run(ctx)
			return nil
		}

		m := ui.WatchModel{Token: fmt.Sprintf("%s (%s)", meta.Name, meta.Symbol)}
		prog := tea.NewProgram(m, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout), tea.WithContext(ctx))
		w.onRow = func(r ui.EventRow) { prog.Send(ui.WatchEventMsg(r)) }
		w.onStatus = func(s ui.WatchStatusMsg) { prog.Send(s) }

		go w.run(ctx)

		_, err = prog.Run()
		if ctx.Err() != nil {
			return nil
		}
		return err
	},
}

// tailer reads receipts the watcher has not seen yet. The file is opened per
// poll so writers are never locked out for long.
type tailer struct {
	path string
	last uint64
}

func (t *tailer) poll() ([]*chain.Receipt, token.State, error) {
	st, err := store.Open(t.path, true)
	if err != nil {
		return nil, token.State{}, err
	}
	defer st.Close()

	receipts, err := st.Receipts(t.last + 1)
	if err != nil {
		return nil, token.State{}, err
	}
	state, err := st.LoadState()
	if err != nil {
		return nil, token.State{}, err
	}
	if n := len(receipts); n > 0 {
		t.last = receipts[n-1].BlockNumber
	}
	return receipts, state, nil
}

// watcher polls a tailer and fans its output out to the view, the notifier
// and the metrics recorder.
type watcher struct {
	tail    *tailer
	meta    token.Metadata
	name    ui.Namer
	emitter token.Emitter
	rec     *metrics.Recorder
	every   time.Duration
	log     *zap.Logger

	onRow    func(ui.EventRow)
	onStatus func(ui.WatchStatusMsg)
}

func (w *watcher) run(ctx context.Context) {
	w.tick()

	ticker := time.NewTicker(w.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick()
		}
	}
}

// tick runs one poll.
func (w *watcher) tick() {
	receipts, state, err := w.tail.poll()
	if err != nil {
		w.log.Warn("polling ledger", zap.Error(err))
		w.onStatus(ui.WatchStatusMsg{Height: w.tail.last, ErrMsg: err.Error()})
		return
	}

	for _, r := range receipts {
		w.rec.ObserveReceipt(r)
		for _, lg := range r.Logs {
			ev, err := contract.DecodeLog(lg)
			if err != nil {
				w.log.Warn("skipping log", zap.Uint64("block", r.BlockNumber), zap.Error(err))
				continue
			}
			w.emitter.Emit(ev)
			w.onRow(ui.EventRow{
				Block:  r.BlockNumber,
				TxHash: r.TxHash.Hex(),
				Event:  ev.Name,
				Detail: ui.DescribeEvent(ev, w.meta, w.name),
			})
		}
	}
	w.rec.SetPaused(state.Paused)

	w.onStatus(ui.WatchStatusMsg{
		Height: w.tail.last,
		Paused: state.Paused,
		Supply: ui.Amount(state.TotalSupply, w.meta),
	})
}

// eventRows decodes the logs of receipts, keeping those named filter (all
// when filter is empty).
func eventRows(receipts []*chain.Receipt, meta token.Metadata, name ui.Namer, filter string) []ui.EventRow {
	var rows []ui.EventRow
	for _, r := range receipts {
		for _, lg := range r.Logs {
			ev, err := contract.DecodeLog(lg)
			if err != nil {
				continue
			}
			if filter != "" && ev.Name != filter {
				continue
			}
			rows = append(rows, ui.EventRow{
				Block:  r.BlockNumber,
				TxHash: r.TxHash.Hex(),
				Event:  ev.Name,
				Detail: ui.DescribeEvent(ev, meta, name),
			})
		}
	}
	return rows
}

func init() {
	eventsListCmd.Flags().Uint64Var(&eventsFromBlock, "from-block", 0, "first block to read")
	eventsListCmd.Flags().StringVar(&eventsFilter, "event", "", "only this event (Transfer, Burn, Pause, Unpause, OwnershipTransferred)")
	eventsListCmd.Flags().IntVar(&eventsLimit, "limit", 0, "show only the last N events")

	eventsWatchCmd.Flags().Uint64Var(&eventsFromBlock, "from-block", 0, "replay from this block (default: only new blocks)")
	eventsWatchCmd.Flags().StringVar(&eventsMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (default: config)")
	eventsWatchCmd.Flags().BoolVar(&eventsPlain, "plain", false, "print events as lines instead of the TUI")

	eventsCmd.AddCommand(eventsListCmd, eventsWatchCmd)
}
