package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/kailas-cloud/shoprag/internal/app"
	"github.com/kailas-cloud/shoprag/internal/domain/candidate"
	domintent "github.com/kailas-cloud/shoprag/internal/domain/intent"
	"github.com/kailas-cloud/shoprag/internal/usecase/query"
	"github.com/kailas-cloud/shoprag/internal/usecase/search"
)

// maxTextWidth truncates document text in table output.
const maxTextWidth = 60

type printer struct {
	w      io.Writer
	asJSON  bool
}

func newPrinter(c *cli.Context) *printer {
	return &printer{w: c.App.Writer, asJSON: c.Bool("json")}
}

type resultJSON struct {
	ID            string         `json:"id"`
	Collection    string         `json:"collection"`
	Score         float64        `json:"score"`
	WeightedScore float64        `json:"weighted_score"`
	Text          string         `json:"text"`
	Metadata      map[string]any `json:"metadata"`
}

type statsJSON struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
	Enabled     bool    `json:"enabled"`
	Available   bool    `json:"available"`
	Count       int     `json:"count"`
	Error       string  `json:"error,omitempty"`
}

func toJSON(cands []candidate.Candidate) []resultJSON {
	out := make([]resultJSON, len(cands))
	for i, c := range cands {
		meta := map[string]any(c.Metadata())
		if meta == nil {
			meta = map[string]any{}
		}
		out[i] = resultJSON{
			ID:            c.ID(),
			Collection:    c.Collection(),
			Score:         c.RawScore(),
			WeightedScore: c.WeightedScore(),
			Text:          c.Text(),
			Metadata:      meta,
		}
	}
	return out
}

func (p *printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func (p *printer) table(header string, rows func(tw *tabwriter.Writer)) error {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func (p *printer) intent(q string, label domintent.Label, scores map[domintent.Label]int) error {
	if p.asJSON {
		byName := make(map[string]int, len(scores))
		for l, n := range scores {
			byName[string(l)] = n
		}
		return p.encode(map[string]any{"query": q, "intent": label, "scores": byName})
	}
	return p.table("INTENT\tSCORE", func(tw *tabwriter.Writer) {
		for _, l := range domintent.All {
			if l == domintent.General {
				continue
			}
			marker := ""
			if l == label {
				marker = " *"
			}
			fmt.Fprintf(tw, "%s%s\t%d\n", l, marker, scores[l])
		}
		if label == domintent.General {
			fmt.Fprintf(tw, "%s *\t-\n", domintent.General)
		}
	})
}

func (p *printer) results(cands []candidate.Candidate) error {
	if p.asJSON {
		return p.encode(map[string]any{"results": toJSON(cands), "total": len(cands)})
	}
	return p.table("#\tCOLLECTION\tSCORE\tWEIGHTED\tID\tTEXT", func(tw *tabwriter.Writer) {
		for i, c := range cands {
			fmt.Fprintf(tw, "%d\t%s\t%.4f\t%.4f\t%s\t%s\n",
				i+1, c.Collection(), c.RawScore(), c.WeightedScore(), c.ID(), truncate(c.Text(), maxTextWidth))
		}
	})
}

func (p *printer) smart(res search.SmartResult) error {
	if p.asJSON {
		return p.encode(map[string]any{
			"intent":  res.Intent,
			"query":   res.Query,
			"results": toJSON(res.Results),
			"total":   len(res.Results),
		})
	}
	fmt.Fprintf(p.w, "intent: %s\n", res.Intent)
	return p.results(res.Results)
}

func (p *printer) stats(stats []query.CollectionStats) error {
	if p.asJSON {
		out := make([]statsJSON, len(stats))
		for i, s := range stats {
			out[i] = statsJSON(s)
		}
		return p.encode(map[string]any{"collections": out})
	}
	return p.table("KEY\tNAME\tWEIGHT\tENABLED\tAVAILABLE\tCOUNT\tERROR", func(tw *tabwriter.Writer) {
		for _, s := range stats {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%t\t%t\t%d\t%s\n",
				s.Key, s.Name, s.Weight, s.Enabled, s.Available, s.Count, s.Error)
		}
	})
}

func (p *printer) indexes(statuses []app.IndexStatus) error {
	if p.asJSON {
		return p.encode(map[string]any{"indexes": statuses})
	}
	return p.table("COLLECTION\tINDEX\tSTATUS", func(tw *tabwriter.Writer) {
		for _, s := range statuses {
			status := "exists"
			if s.Created {
				status = "created"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Key, s.Index, status)
		}
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
