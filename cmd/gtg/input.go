package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/anoved/Ground-Track-Generator/internal/metrics"
	"github.com/anoved/Ground-Track-Generator/internal/tle"
)

// elementLoader gathers element sets from every input source in order.
type elementLoader struct {
	stdin  io.Reader
	cache  *tle.Cache
	logger *slog.Logger
}

// Load reads text first, then each source. With neither, it reads stdin.
func (l *elementLoader) Load(ctx context.Context, text string, sources []string) ([]tle.Element, error) {
	var all []tle.Element

	if text != "" {
		entries, err := tle.ParseString(text, l.logger)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}

	if text == "" && len(sources) == 0 {
		sources = []string{"-"}
	}

	for _, src := range sources {
		data, err := l.read(ctx, src)
		if err != nil {
			return nil, err
		}
		entries, err := tle.Parse(bytes.NewReader(data), l.logger)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", src, err)
		}
		if len(entries) == 0 {
			l.logger.Warn("no element sets in input", "source", src)
		}
		all = append(all, entries...)
	}

	return all, nil
}

func (l *elementLoader) read(ctx context.Context, src string) ([]byte, error) {
	switch {
	case src == "-":
		data, err := io.ReadAll(l.stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	case tle.IsURL(src):
		return l.fetch(ctx, src)
	default:
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("reading TLE file: %w", err)
		}
		return data, nil
	}
}

// fetch downloads src and keeps a copy in the cache. When the download
// fails the newest cached copy is used instead.
func (l *elementLoader) fetch(ctx context.Context, src string) ([]byte, error) {
	data, err := tle.NewFetcher(src, l.logger).Fetch(ctx)
	if err == nil {
		metrics.IncTLEFetches("ok")
		if cerr := l.cache.Write(src, data, time.Now()); cerr != nil {
			l.logger.Warn("failed to cache TLE data", "source", src, "error", cerr)
		}
		return data, nil
	}

	metrics.IncTLEFetches("error")
	cached, ts, cerr := l.cache.LoadLatest(src)
	if cerr != nil {
		return nil, err
	}
	metrics.IncTLEFetches("cached")
	l.logger.Warn("TLE fetch failed, using cached copy",
		"source", src,
		"error", err,
		"cached_at", ts.Format(time.RFC3339),
	)
	return cached, nil
}
