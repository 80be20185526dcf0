package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// WriteCSV renders the full snapshot to w: the all-leads table, then each
// niche group, then the summary. encoding/csv handles quoting and embedded
// quote escaping.
func WriteCSV(w io.Writer, snap Snapshot) error {
	cw := csv.NewWriter(w)

	writeGroup := func(g Group) error {
		if err := cw.Write([]string{"# " + g.Name}); err != nil {
			return err
		}
		if err := cw.Write(Header); err != nil {
			return err
		}
		for _, l := range g.Leads {
			if err := cw.Write(Row(l)); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeGroup(snap.All); err != nil {
		return fmt.Errorf("csv: write all leads: %w", err)
	}
	for _, g := range snap.Groups {
		if err := writeGroup(g); err != nil {
			return fmt.Errorf("csv: write group %q: %w", g.Name, err)
		}
	}

	if err := cw.Write([]string{"# Summary"}); err != nil {
		return err
	}
	if err := cw.Write([]string{"niche", "count", "avg_score"}); err != nil {
		return err
	}
	for _, s := range snap.Summaries {
		row := []string{
			s.Niche,
			strconv.Itoa(s.Count),
			strconv.FormatFloat(s.AvgScore, 'f', 1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFiles writes the snapshot to a timestamped CSV plus the
// leads_latest.csv convenience copy. Returns the timestamped path.
func WriteFiles(outputDir string, snap Snapshot, now time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("csv: create output dir: %w", err)
	}

	dated := filepath.Join(outputDir, "leads_"+now.Format("20060102_150405")+".csv")
	latest := filepath.Join(outputDir, "leads_latest.csv")

	for _, path := range []string{dated, latest} {
		f, err := os.Create(path)
		if err != nil {
			return "", fmt.Errorf("csv: create file %q: %w", path, err)
		}
		err = WriteCSV(f, snap)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return "", err
		}
	}
	return dated, nil
}
