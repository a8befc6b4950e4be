package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"doccheck/internal/driver"
)

// printTimings writes the phase timings of res. asJSON selects one NDJSON
// line for machine-readable output modes.
func printTimings(out io.Writer, res *driver.Result, kind string, asJSON bool) error {
	if out == nil || res == nil {
		return nil
	}
	payload := res.Timings(kind)
	if asJSON {
		data, err := payload.JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s\n", data)
		return err
	}

	var size uint64
	for _, f := range res.Files {
		if file := res.Lookup(f.Path); file != nil {
			size += uint64(file.Len())
		}
	}
	if _, err := fmt.Fprintf(out, "%s %s files (%s), %s cached, %s diagnostics\n",
		kind,
		humanize.Comma(int64(payload.Files)),
		humanize.Bytes(size),
		humanize.Comma(int64(payload.Cached)),
		humanize.Comma(int64(res.Bag.Len())),
	); err != nil {
		return err
	}
	for _, p := range payload.Phases {
		line := fmt.Sprintf("  %-8s %8.1f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			line += "  // " + p.Note
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	if res.Hits+res.Misses > 0 {
		if _, err := fmt.Fprintf(out, "  cache    %s hits, %s misses\n", humanize.Comma(res.Hits), humanize.Comma(res.Misses)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(out, "  %-8s %8.1f ms\n", "total", payload.TotalMS)
	return err
}
