// File: internal/proxy/proxy.go

// Package proxy loads and rotates upstream proxy endpoints from a
// line-oriented list file.
package proxy

import (
	"bufio"
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Descriptor is a single parsed proxy endpoint.
type Descriptor struct {
	Protocol string
	Host     string
	Port     int
	Username string
	Password string
}

// URL renders the descriptor as a proxy URL suitable for the
// --proxy-server browser flag. Credentials are excluded; they are
// supplied separately through the auth challenge handler.
func (d Descriptor) URL() string {
	return fmt.Sprintf("%s://%s:%d", d.Protocol, d.Host, d.Port)
}

// HasAuth reports whether the endpoint requires credentials.
func (d Descriptor) HasAuth() bool {
	return d.Username != ""
}

// Masked returns a log-safe rendering with the password redacted.
func (d Descriptor) Masked() string {
	if !d.HasAuth() {
		return d.URL()
	}
	return fmt.Sprintf("%s://%s:***@%s:%d", d.Protocol, d.Username, d.Host, d.Port)
}

// Pool holds the loaded proxy list and hands out random picks.
type Pool struct {
	mu      sync.Mutex
	rng     *rand.Rand
	entries []Descriptor
	logger  *zap.Logger
}

// NewPool creates an empty pool with the given random source.
func NewPool(rng *rand.Rand, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{rng: rng, logger: logger.Named("proxy")}
}

// Load reads the proxy list file. A missing file is not an error; the
// pool simply stays empty and checks run with a direct connection.
// Malformed lines are logged and skipped.
func (p *Pool) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			p.logger.Info("No proxy list found, using direct connection", zap.String("path", path))
			return nil
		}
		return fmt.Errorf("opening proxy list: %w", err)
	}
	defer f.Close()

	var entries []Descriptor
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		d, err := ParseLine(line)
		if err != nil {
			p.logger.Warn("Skipping malformed proxy line",
				zap.Int("line", lineNo),
				zap.Error(err))
			continue
		}
		entries = append(entries, d)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading proxy list: %w", err)
	}

	p.mu.Lock()
	p.entries = entries
	p.mu.Unlock()

	p.logger.Info("Proxy list loaded", zap.Int("count", len(entries)))
	return nil
}

// Size returns the number of usable entries.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Pick returns a random proxy from the pool. The boolean is false when
// the pool is empty.
func (p *Pool) Pick() (Descriptor, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.entries) == 0 {
		return Descriptor{}, false
	}
	d := p.entries[p.rng.Intn(len(p.entries))]
	p.logger.Debug("Picked proxy", zap.String("proxy", d.Masked()))
	return d, true
}

// ParseLine parses one proxy list entry. Four shapes are accepted:
//
//	host:port
//	user:pass@host:port
//	proto://[user:pass@]host:port
//	host:port user:pass
func ParseLine(line string) (Descriptor, error) {
	d := Descriptor{Protocol: "http"}

	// "host:port user:pass"
	if fields := strings.Fields(line); len(fields) == 2 && !strings.Contains(line, "@") && !strings.Contains(line, "://") {
		host, port, err := splitHostPort(fields[0])
		if err != nil {
			return Descriptor{}, err
		}
		user, pass, ok := strings.Cut(fields[1], ":")
		if !ok {
			return Descriptor{}, fmt.Errorf("credentials %q not in user:pass form", fields[1])
		}
		d.Host, d.Port, d.Username, d.Password = host, port, user, pass
		return d, nil
	}
	if strings.ContainsAny(line, " \t") {
		return Descriptor{}, fmt.Errorf("unexpected whitespace in %q", line)
	}

	if strings.Contains(line, "://") {
		u, err := url.Parse(line)
		if err != nil {
			return Descriptor{}, fmt.Errorf("parsing proxy url: %w", err)
		}
		switch u.Scheme {
		case "http", "https", "socks5":
		default:
			return Descriptor{}, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
		}
		port, err := strconv.Atoi(u.Port())
		if err != nil {
			return Descriptor{}, fmt.Errorf("proxy url %q has no valid port", line)
		}
		d.Protocol = u.Scheme
		d.Host = u.Hostname()
		d.Port = port
		if u.User != nil {
			d.Username = u.User.Username()
			d.Password, _ = u.User.Password()
		}
		return d, nil
	}

	hostPart := line
	if creds, rest, ok := strings.Cut(line, "@"); ok {
		user, pass, ok := strings.Cut(creds, ":")
		if !ok {
			return Descriptor{}, fmt.Errorf("credentials %q not in user:pass form", creds)
		}
		d.Username, d.Password = user, pass
		hostPart = rest
	}

	host, port, err := splitHostPort(hostPart)
	if err != nil {
		return Descriptor{}, err
	}
	d.Host, d.Port = host, port
	return d, nil
}

func splitHostPort(s string) (string, int, error) {
	host, portStr, ok := strings.Cut(s, ":")
	if !ok || host == "" {
		return "", 0, fmt.Errorf("%q is not host:port", s)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("%q has an invalid port", s)
	}
	return host, port, nil
}
