package sandbox

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ansiPattern     = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)
	localURLPattern = regexp.MustCompile(`https?://(?:localhost|127\.0\.0\.1|0\.0\.0\.0|\[::1?\]):(\d{2,5})`)
)

var (
	probeInterval = 250 * time.Millisecond
	probeTimeout  = 60 * time.Second
)

// returns the ports of local server URLs in output, in order of appearance
func detectPorts(output []byte) []int {
	clean := ansiPattern.ReplaceAll(output, nil)

	var ports []int

	for _, m := range localURLPattern.FindAllSubmatch(clean, -1) {
		port, err := strconv.Atoi(string(m[1]))
		if err != nil || port <= 0 || port > 65535 {
			continue
		}

		ports = append(ports, port)
	}

	return ports
}

// dials the port until it accepts a connection, the process exits or the
// probe times out
func probePort(exited <-chan struct{}, port int) bool {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	deadline := time.Now().Add(probeTimeout)

	for {
		conn, err := net.DialTimeout("tcp", addr, probeInterval)
		if err == nil {
			_ = conn.Close()
			return true
		}

		if time.Now().After(deadline) {
			return false
		}

		select {
		case <-exited:
			return false
		case <-time.After(probeInterval):
		}
	}
}

func previewURL(template, id string, port int) string {
	if template == "" {
		return fmt.Sprintf("http://localhost:%d", port)
	}

	r := strings.NewReplacer("{port}", strconv.Itoa(port), "{id}", id)

	return r.Replace(template)
}
