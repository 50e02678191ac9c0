package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/zoobzio/spanz"
)

// handleRequest traces one simulated request: a lookup that may fail,
// a cache read and a database query with a nested row scan.
func handleRequest(ctx context.Context, tracer *spanz.Tracer, n int) error {
	ctx, req, err := tracer.Start(ctx, "http.request")
	if err != nil {
		return err
	}
	req.SetAttribute("request.id", strconv.Itoa(n))
	req.SetAttribute("http.route", "/orders/{id}")

	status := spanz.StatusOK
	attrs := map[string]string{"http.status_code": "200"}

	hit, err := cacheGet(ctx, tracer, n)
	if err != nil {
		return err
	}
	if !hit {
		rows, err := queryOrders(ctx, tracer, n)
		if err != nil {
			return err
		}
		if rows < 0 {
			status = spanz.StatusError
			attrs["http.status_code"] = "504"
			attrs["error"] = "database timeout"
		}
	}

	return req.End(spanz.WithStatus(status), spanz.WithAttributes(attrs))
}

func cacheGet(ctx context.Context, tracer *spanz.Tracer, n int) (bool, error) {
	_, span, err := tracer.Start(ctx, "cache.get")
	if err != nil {
		return false, err
	}
	hit := n%3 == 0
	return hit, span.End(spanz.WithAttributes(map[string]string{
		"cache.key": fmt.Sprintf("order:%d", n),
		"cache.hit": strconv.FormatBool(hit),
	}))
}

// queryOrders returns -1 rows for a simulated timeout.
func queryOrders(ctx context.Context, tracer *spanz.Tracer, n int) (int, error) {
	ctx, span, err := tracer.Start(ctx, "db.query")
	if err != nil {
		return 0, err
	}
	span.SetAttribute("db.statement", "SELECT * FROM orders WHERE id = ?")

	_, scan, err := tracer.Start(ctx, "db.rows.scan")
	if err != nil {
		return 0, err
	}

	if n%5 == 4 {
		if err := scan.End(spanz.WithStatus(spanz.StatusError)); err != nil {
			return 0, err
		}
		return -1, span.End(spanz.WithStatus(spanz.StatusError), spanz.WithAttributes(map[string]string{
			"error": "timeout",
		}))
	}

	rows := n%7 + 1
	if err := scan.End(spanz.WithAttributes(map[string]string{"rows": strconv.Itoa(rows)})); err != nil {
		return 0, err
	}
	return rows, span.End(spanz.WithAttributes(map[string]string{"db.rows": strconv.Itoa(rows)}))
}
