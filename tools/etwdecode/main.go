// Command etwdecode decodes captured raw ETW event dumps into JSON Lines or
// a CBOR sequence using the built-in and user supplied event schemas.
//
// A dump is a stream of records, one per event, holding the event header
// fields and the hex encoded user data:
//
//	{"provider":"Microsoft-Windows-Kernel-File","id":12,"version":1,"keyword":"0x80","pid":4,"tid":8,"timestamp":133500000000000000,"flags":64,"userData":"0100..."}
//
// Files ending in .cbor hold the same records as a CBOR sequence with a byte
// string userData. A trailing .zst is decompressed on the fly.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	plog "github.com/phuslu/log"
	"github.com/spf13/pflag"

	"github.com/tekert/etwschema/etw"
	"github.com/tekert/etwschema/logsampler"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	schemas   []string
	providers []string
	format    string
	inFormat  string
	output    string
	compress  bool
	stats     bool
	list      bool
	logLevel  string
	sample    int
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, error) {
	var o options
	fs := pflag.NewFlagSet("etwdecode", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringArrayVarP(&o.schemas, "schema", "s", nil, "extra YAML schema file, can be repeated")
	fs.StringArrayVarP(&o.providers, "provider", "p", nil,
		"provider filter \"(Name|GUID)[:Level[:EventIDs[:MatchAnyKeyword[:MatchAllKeyword]]]]\", can be repeated")
	fs.StringVarP(&o.format, "format", "f", formatJSON, "output format: json|cbor")
	fs.StringVar(&o.inFormat, "in-format", formatAuto, "input format: auto|json|cbor (auto picks by extension)")
	fs.StringVarP(&o.output, "output", "o", "", "output file (default stdout)")
	fs.BoolVarP(&o.compress, "compress", "z", false, "zstd compress the output")
	fs.BoolVar(&o.stats, "stats", false, "print per schema decode stats to stderr")
	fs.BoolVar(&o.list, "list", false, "list known schemas and exit")
	fs.StringVar(&o.logLevel, "log-level", "", "trace|debug|info|warn|error")
	fs.IntVar(&o.sample, "log-sample", 0, "log 1 of every N decode failures (0 uses the per schema backoff)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: etwdecode [flags] <dump-file>...\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	switch o.format {
	case formatJSON, formatCBOR:
	default:
		return nil, nil, fmt.Errorf("invalid --format %q", o.format)
	}
	switch o.inFormat {
	case formatAuto, formatJSON, formatCBOR:
	default:
		return nil, nil, fmt.Errorf("invalid --in-format %q", o.inFormat)
	}
	if o.sample < 0 {
		return nil, nil, fmt.Errorf("invalid --log-sample %d", o.sample)
	}
	if !o.list && fs.NArg() == 0 {
		fs.Usage()
		return nil, nil, errors.New("no dump files given")
	}
	return &o, fs.Args(), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, files, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	etw.SetLogWriter(&plog.IOWriter{Writer: stderr})
	if o.logLevel != "" {
		etw.SetLogLevelsAll(plog.ParseLevel(strings.ToLower(o.logLevel)))
	}
	if o.sample > 0 {
		etw.SetSampler(logsampler.NewRateSampler(o.sample, 0))
	}
	defer etw.GetLogManager().Flush()

	for _, path := range o.schemas {
		if _, err := etw.DefaultRegistry.LoadYAMLFile(path); err != nil {
			return err
		}
	}

	if o.list {
		return listSchemas(stdout, etw.DefaultRegistry)
	}

	var filter etw.Providers
	for _, s := range o.providers {
		p, err := etw.ParseProvider(s)
		if err != nil {
			return err
		}
		filter = append(filter, p)
	}

	out := stdout
	if o.output != "" {
		f, err := os.Create(o.output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	w, err := newEventWriter(out, o.format, o.compress)
	if err != nil {
		return err
	}

	dec := etw.NewDecoder(nil)
	var skipped uint64
	for _, name := range files {
		n, err := decodeFile(ctx, dec, name, o.inFormat, filter, w)
		skipped += n
		if err != nil {
			w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	if o.stats {
		printStats(stderr, dec, skipped)
	}
	return nil
}

// decodeFile decodes every record of one dump file into w. It returns the
// number of records that could not be turned into events.
func decodeFile(ctx context.Context, dec *etw.Decoder, name, inFormat string,
	filter etw.Providers, w eventWriter) (skipped uint64, err error) {

	f, err := openDump(name)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	log := etw.GetLogManager().Logger(etw.DefaultLogger)
	records := readDump(f, inputFormat(name, inFormat))
	events := func(yield func(*etw.RawEvent, error) bool) {
		for rec, err := range records {
			if err != nil {
				yield(nil, fmt.Errorf("%s: %w", name, err))
				return
			}
			raw, err := rec.rawEvent()
			if err != nil {
				skipped++
				log.Debug().Err(err).Str("file", name).Msg("skipping record")
				continue
			}
			if !filter.Match(&raw.EventHeader) {
				continue
			}
			if !yield(raw, nil) {
				return
			}
		}
	}

	err = dec.DecodeAll(ctx, events, w.Write)
	return skipped, err
}

func printStats(w io.Writer, dec *etw.Decoder, skipped uint64) {
	stats := dec.Stats()
	slices.SortFunc(stats, func(a, b *etw.SchemaStats) int { return strings.Compare(a.Name, b.Name) })

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCHEMA\tDECODED\tFAILED")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", s.Name, s.Decoded.Load(), s.Failed.Load())
	}
	fmt.Fprintf(tw, "total\t%d\t%d\n", dec.Decoded.Load(), dec.Failed.Load())
	fmt.Fprintf(tw, "unknown schema\t%d\t\n", dec.Unknown.Load())
	fmt.Fprintf(tw, "bad records\t%d\t\n", skipped)
	tw.Flush()
}

func listSchemas(w io.Writer, reg *etw.SchemaRegistry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tSCHEMA\tKEY\tVERSION\tFIELDS")
	for _, s := range reg.Schemas() {
		key := "id " + strconv.Itoa(int(s.Id))
		if s.Classic {
			ops := make([]string, 0, len(s.EventTypes))
			for _, t := range s.EventTypes {
				ops = append(ops, strconv.Itoa(int(t.Opcode)))
			}
			key = "opcode " + strings.Join(ops, ",")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", s.Provider, s.Name, key, s.Version, len(s.Properties))
	}
	return tw.Flush()
}
