package linkpreview

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

const dialTimeout = 5 * time.Second

// privateRanges are CIDR blocks for private / loopback IPs.
var privateRanges []*net.IPNet

func init() {
	for _, cidr := range []string{
		"127.0.0.0/8",
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16",
		"100.64.0.0/10",
		"0.0.0.0/8",
		"::1/128",
		"fc00::/7",
		"fe80::/10",
	} {
		_, block, _ := net.ParseCIDR(cidr)
		privateRanges = append(privateRanges, block)
	}
}

func isPrivateIP(ip net.IP) bool {
	if ip.IsUnspecified() {
		return true
	}
	for _, block := range privateRanges {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

// safeDialContext resolves host once, refuses the connection if any address
// is private, then dials the checked addresses in order until one answers.
// Dialing the resolved IPs directly keeps a second DNS answer from swapping in
// an address that was never checked.
func safeDialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}

	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("no addresses found for %s", host)
	}

	for _, ip := range ips {
		if isPrivateIP(ip.IP) {
			return nil, fmt.Errorf("connection to private IP %s is not allowed", ip.IP)
		}
	}

	return dialEach(ctx, &net.Dialer{Timeout: dialTimeout}, network, ips, port)
}

// dialEach tries every address in turn and returns the first connection. The
// error lists each failed attempt.
func dialEach(ctx context.Context, d *net.Dialer, network string, ips []net.IPAddr, port string) (net.Conn, error) {
	var errs []error
	for _, ip := range ips {
		conn, err := d.DialContext(ctx, network, net.JoinHostPort(ip.IP.String(), port))
		if err == nil {
			return conn, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Join(errs...)
}
