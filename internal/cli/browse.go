package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/baptistax/mediapicker/internal/config"
	"github.com/baptistax/mediapicker/internal/metrics"
	"github.com/baptistax/mediapicker/internal/normalize"
	"github.com/baptistax/mediapicker/internal/provider"
	"github.com/baptistax/mediapicker/internal/router"
	"github.com/baptistax/mediapicker/internal/session"
)

func init() {
	cmd := &cobra.Command{
		Use:   "browse <category> [category...]",
		Short: "Select categories in order within one picker session",
		Long: "Each argument is selected in turn against the same session, so repeated categories " +
			"are served from the cache and recent/pinned reflect earlier --use/--pin actions.",
		Args: cobra.MinimumNArgs(1),
		RunE: runBrowse,
	}
	cmd.Flags().Int("use", -1, "Tap the item at this index in every ready view (adds it to recent)")
	cmd.Flags().Int("pin", -1, "Long-press the item at this index in every ready view (toggles pinned)")
	cmd.Flags().Bool("retry", false, "Retry once when a category ends in the error state")
	cmd.Flags().Bool("metrics", false, "Write the session's metrics in Prometheus text format after the views")
	RootCmd.AddCommand(cmd)
}

// picker bundles one session and its router.
type picker struct {
	session *session.Session
	router  *router.Router
}

func newPicker(cfg config.Config, log logrus.FieldLogger) (*picker, error) {
	client, err := provider.NewClient(provider.Options{
		BaseURL:   cfg.BaseURL,
		APIKey:    cfg.APIKey,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
		Pacer:     provider.NewPacer(cfg.RequestsPerSecond, cfg.Burst),
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}
	sess := session.New(session.Options{CacheTTL: cfg.CacheTTL, RecentCap: cfg.RecentCap})
	r, err := router.New(router.Options{
		Searcher:   client,
		Normalizer: normalize.New(normalize.Options{TileCeiling: cfg.TileCeiling, Logger: log}),
		Session:    sess,
		PerPage:    cfg.PerPage,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}
	return &picker{session: sess, router: r}, nil
}

func runBrowse(cmd *cobra.Command, args []string) error {
	use, _ := cmd.Flags().GetInt("use")
	pin, _ := cmd.Flags().GetInt("pin")
	retry, _ := cmd.Flags().GetBool("retry")
	withMetrics, _ := cmd.Flags().GetBool("metrics")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	p, err := newPicker(cfg, log)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, arg := range args {
		v, err := p.router.Select(cmd.Context(), router.CategoryID(arg))
		if errors.Is(err, router.ErrUnknownCategory) {
			return err
		}
		if v.Status == router.StatusError && retry {
			log.WithField("category", arg).Info("retrying")
			v, err = p.router.Retry(cmd.Context())
		}
		if err := printView(out, v, err); err != nil {
			return err
		}
		if v.Status != router.StatusReady {
			continue
		}
		if use >= 0 && use < len(v.Items) {
			p.router.SelectItem(v.Items[use])
		}
		if pin >= 0 && pin < len(v.Items) {
			p.router.LongPressItem(v.Items[pin])
		}
	}
	if withMetrics {
		return metrics.WriteText(out)
	}
	return nil
}

type viewOutput struct {
	router.View
	Error string `json:"error,omitempty"`
}

func printView(w io.Writer, v router.View, err error) error {
	o := viewOutput{View: v}
	if err != nil {
		o.Error = err.Error()
	}
	b, merr := json.MarshalIndent(o, "", "  ")
	if merr != nil {
		return fmt.Errorf("encode view: %w", merr)
	}
	_, werr := fmt.Fprintln(w, string(b))
	return werr
}
