package logging

import (
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"
)

type Attr = slog.Attr

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Kilograms records a material quantity at the 4-decimal precision used by
// the aggregates.
func Kilograms(key string, kg float64) Attr {
	return slog.Float64(key, roundKg(kg))
}

// Materials groups a per-material quantity map under "materials", ordered by
// material name. Empty maps produce an empty attr that handlers skip.
func Materials(quantities map[string]float64) Attr {
	if len(quantities) == 0 {
		return Attr{}
	}
	names := make([]string, 0, len(quantities))
	for name := range quantities {
		names = append(names, name)
	}
	slices.Sort(names)
	attrs := make([]any, 0, len(names))
	for _, name := range names {
		attrs = append(attrs, Kilograms(name, quantities[name]))
	}
	return slog.Group("materials", attrs...)
}

// Item returns the item id and category attrs as logger arguments.
func Item(id, category string) []any {
	args := make([]any, 0, 2)
	if id = strings.TrimSpace(id); id != "" {
		args = append(args, slog.String(FieldItemID, id))
	}
	if category = strings.TrimSpace(category); category != "" {
		args = append(args, slog.String(FieldCategory, category))
	}
	return args
}

func roundKg(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func toArgs(attrs []Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}
