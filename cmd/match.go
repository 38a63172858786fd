package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/event-gallery/internal/catalog"
	"github.com/kozaktomas/event-gallery/internal/embedding"
	"github.com/kozaktomas/event-gallery/internal/facematch"
	"github.com/kozaktomas/event-gallery/internal/matchrun"
	"github.com/kozaktomas/event-gallery/internal/visibility"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Find the photos of a session that contain the person in a selfie",
	Long: `Run a selfie match against every photo of a session.

The selfie face seeds a small reference gallery. Photos are analyzed
concurrently but classified in catalog order, and confident matches
extend the gallery so later photos can match on a different angle.

The result is filtered by the session mode: privacy sessions only ever
list matched photos.

Examples:
  # Match a selfie against a session
  event-gallery match --session abc123 --selfie me.jpg

  # Use more workers and output JSON
  event-gallery match --session abc123 --selfie me.jpg --workers 12 --json

  # Save an archive of the matched photos
  event-gallery match --session abc123 --selfie me.jpg --download mine.zip`,
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().String("session", "", "Session ID")
	matchCmd.Flags().String("selfie", "", "Path to the selfie image")
	matchCmd.Flags().Int("workers", 0, "Concurrent photo analyses (defaults to MATCH_WORKERS)")
	matchCmd.Flags().String("download", "", "Write an archive of the matched photos to this file")
	matchCmd.Flags().Bool("json", false, "Output as JSON")
	_ = matchCmd.MarkFlagRequired("session")
	_ = matchCmd.MarkFlagRequired("selfie")
}

// MatchOutput is the JSON output of the match command.
type MatchOutput struct {
	SessionID string                    `json:"session_id"`
	Mode      catalog.Mode              `json:"mode"`
	State     matchrun.State            `json:"state"`
	Matches   []catalog.PhotoDescriptor `json:"matches"`
	Failures  int                       `json:"failures"`
	Growth    []string                  `json:"gallery_growth"`
}

func runMatch(cmd *cobra.Command, args []string) error {
	sessionID := mustGetString(cmd, "session")
	selfiePath := mustGetString(cmd, "selfie")
	jsonOutput := mustGetBool(cmd, "json")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := a.catalog.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	selfieData, err := os.ReadFile(selfiePath)
	if err != nil {
		return fmt.Errorf("reading selfie: %w", err)
	}
	selfie, err := a.detector.DetectOne(ctx, selfieData)
	if err != nil && !errors.Is(err, embedding.ErrNoFace) {
		return fmt.Errorf("analyzing selfie: %w", err)
	}

	var bar *progressbar.ProgressBar
	if !jsonOutput {
		bar = progressbar.NewOptions(100,
			progressbar.OptionSetDescription("Matching"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}
	onProgress := func(_ string, p matchrun.Progress) {
		if bar == nil {
			return
		}
		bar.Describe(p.Status)
		_ = bar.Set(p.Percent)
	}

	run, err := a.controller(mustGetInt(cmd, "workers"), onProgress).Start(ctx, session.ID, selfie)
	if err != nil {
		return err
	}
	res, err := run.Wait(context.Background())
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return err
	}

	photos, _, err := a.catalog.ListAll(context.Background(), session.ID)
	if err != nil {
		return fmt.Errorf("listing photos: %w", err)
	}
	matches := run.MatchSet()
	view, err := visibility.Evaluate(visibility.Input{
		Mode:         session.Mode,
		Catalog:      descriptorIDs(photos),
		Matches:      matches,
		ShowOnlyMine: true,
		RunState:     res.State,
	})
	if err != nil {
		return err
	}
	shown := selectDescriptors(photos, view.Display)

	if path := mustGetString(cmd, "download"); path != "" {
		if !view.DownloadMine {
			return fmt.Errorf("%w: nothing to download for a %s run", visibility.ErrPolicyViolation, res.State)
		}
		if err := downloadMine(context.Background(), a.catalog, session, matches, res.State, path); err != nil {
			return err
		}
	}

	if jsonOutput {
		return outputJSON(MatchOutput{
			SessionID: session.ID,
			Mode:      session.Mode,
			State:     res.State,
			Matches:   shown,
			Failures:  res.Failures,
			Growth:    res.Growth,
		})
	}

	printMatches(session, res, shown)
	return nil
}

func descriptorIDs(photos []catalog.PhotoDescriptor) []string {
	ids := make([]string, len(photos))
	for i, p := range photos {
		ids[i] = p.ID
	}
	return ids
}

// selectDescriptors returns the displayed photos in catalog order.
func selectDescriptors(photos []catalog.PhotoDescriptor, display []string) []catalog.PhotoDescriptor {
	shown := make(map[string]bool, len(display))
	for _, id := range display {
		shown[id] = true
	}
	out := []catalog.PhotoDescriptor{}
	for _, p := range photos {
		if shown[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

func downloadMine(ctx context.Context, c *catalog.Client, session *catalog.Session, matches *facematch.MatchSet, state matchrun.State, path string) error {
	ids, err := visibility.Authorize(session.Mode, visibility.DownloadMine, matches, state)
	if err != nil {
		return err
	}
	archive, err := c.DownloadArchive(ctx, session.ID, ids)
	if err != nil {
		return fmt.Errorf("downloading archive: %w", err)
	}
	defer archive.Close()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	n, err := io.Copy(f, archive)
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "Saved %d matched photos to %s (%d bytes)\n", len(ids), path, n)
	return nil
}

func printMatches(session *catalog.Session, res matchrun.Result, shown []catalog.PhotoDescriptor) {
	fmt.Printf("Session %q (%s mode): run %s\n\n", session.Name, session.Mode, res.State)

	if len(shown) == 0 {
		fmt.Println("No matching photos found.")
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tPHOTO\tFILENAME")
		fmt.Fprintln(w, "-\t-----\t--------")
		for _, p := range shown {
			fmt.Fprintf(w, "%d\t%s\t%s\n", p.Position+1, p.ID, p.Filename)
		}
		w.Flush()
	}

	fmt.Printf("\nMatched %d photos", len(shown))
	if res.Failures > 0 {
		fmt.Printf(", %d could not be analyzed", res.Failures)
	}
	if len(res.Growth) > 0 {
		fmt.Printf(", gallery grew from %d photos", len(res.Growth))
	}
	fmt.Println()
}
