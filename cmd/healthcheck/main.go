// Command healthcheck exits 0 when the profilekeeper HTTP facade answers
// GET /stats with 200.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

const (
	defaultPort  = "3000"
	checkTimeout = 2 * time.Second
)

func main() {
	if err := checkStats(context.Background(), statsURL(os.Getenv)); err != nil {
		fmt.Fprintln(os.Stderr, "healthcheck:", err)
		os.Exit(1)
	}
}

func checkStats(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s answered %d", url, resp.StatusCode)
	}
	return nil
}

// statsURL resolves the server's bind address the way the server does
// (PROFILEKEEPER_LISTEN_ADDR, then PORT) and points it at loopback when the
// server binds every interface.
func statsURL(getenv func(string) string) string {
	host, port := "127.0.0.1", defaultPort

	if p := getenv("PORT"); p != "" {
		port = p
	}
	if addr := getenv("PROFILEKEEPER_LISTEN_ADDR"); addr != "" {
		if h, p, err := net.SplitHostPort(addr); err == nil {
			port = p
			if h != "" && h != "0.0.0.0" && h != "::" {
				host = h
			}
		}
	}

	return "http://" + net.JoinHostPort(host, port) + "/stats"
}
