// Package app wires the badge desk server: ledger, websocket hub, auth,
// metrics and the reprint pipeline behind one chi router.
package app

import (
	"context"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/badgegen/internal/auth"
	"github.com/abrezinsky/badgegen/internal/handlers"
	"github.com/abrezinsky/badgegen/internal/logger"
	"github.com/abrezinsky/badgegen/internal/metrics"
	"github.com/abrezinsky/badgegen/internal/repository"
	"github.com/abrezinsky/badgegen/internal/websocket"
)

// ShutdownTimeout bounds how long in-flight requests get after Run's context ends
const ShutdownTimeout = 10 * time.Second

// RunnerFactory builds the reprint runner once the ledger and hub exist.
// It returns nil when reprints are unavailable.
type RunnerFactory func(repo *repository.Repository, hub *websocket.Hub) handlers.OrderRunner

// Config holds what the desk server needs beyond the logger
type Config struct {
	DBPath      string
	TemplatesFS fs.FS
	StaticFS    fs.FS
	Auth        *auth.Auth
	Metrics     *metrics.Metrics
	Page        handlers.PageData
	NewRunner   RunnerFactory
}

// App holds all application dependencies
type App struct {
	log       logger.Logger
	handlers  *handlers.Handlers
	repo      *repository.Repository
	hub       *websocket.Hub
	cancelHub context.CancelFunc
}

// New creates and initializes a new application instance
func New(log logger.Logger, cfg Config) (*App, error) {
	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	// Initialize WebSocket hub with DI
	hub := websocket.New(log, repo)
	ctx, cancel := context.WithCancel(context.Background())
	hub.Start(ctx)

	var runner handlers.OrderRunner
	if cfg.NewRunner != nil {
		runner = cfg.NewRunner(repo, hub)
	}

	m := cfg.Metrics
	if m == nil {
		m = metrics.New()
	}

	h, err := handlers.New(
		repo,
		runner,
		cfg.TemplatesFS,
		handlers.NewStaticServer(cfg.StaticFS),
		cfg.Auth,
		hub,
		m.Handler(),
		cfg.Page,
		log,
	)
	if err != nil {
		cancel()
		<-hub.Done()
		repo.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		log:       log,
		handlers:  h,
		repo:      repo,
		hub:       hub,
		cancelHub: cancel,
	}, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Close stops the hub and closes the ledger. It is safe to call more than once.
func (a *App) Close() {
	if a.cancelHub != nil {
		a.cancelHub()
		<-a.hub.Done()
		a.cancelHub = nil
		if err := a.repo.Close(); err != nil {
			a.log.Warn("Failed to close ledger", "error", err)
		}
	}
}

// Run serves HTTP on addr until ctx is cancelled, then shuts down gracefully
func (a *App) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.log.Info("Server starting", "addr", ln.Addr().String())
	a.log.Info("Badge desk URL", "url", DeskURL(ln.Addr()))

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	a.log.Info("Server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// DeskURL is the address other machines on the LAN use to reach the desk
func DeskURL(addr net.Addr) string {
	_, port, _ := net.SplitHostPort(addr.String())
	return fmt.Sprintf("http://%s:%s/", getPreferredIP(realNetworkProvider{}), port)
}

// networkInterface wraps net.Interface for testing
type networkInterface interface {
	Flags() net.Flags
	Addrs() ([]net.Addr, error)
}

// realInterface wraps a real net.Interface
type realInterface struct {
	iface net.Interface
}

func (r realInterface) Flags() net.Flags {
	return r.iface.Flags
}

func (r realInterface) Addrs() ([]net.Addr, error) {
	return r.iface.Addrs()
}

// networkProvider is an interface for getting network interfaces (for testing)
type networkProvider interface {
	Interfaces() ([]networkInterface, error)
}

// realNetworkProvider implements networkProvider using actual net package
type realNetworkProvider struct{}

func (realNetworkProvider) Interfaces() ([]networkInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	result := make([]networkInterface, len(ifaces))
	for i, iface := range ifaces {
		result[i] = realInterface{iface: iface}
	}
	return result, nil
}

// getPreferredIP returns the best IP address for LAN access.
// Prefers private network addresses (192.168.x.x, 10.x.x.x, 172.16-31.x.x).
// Falls back to localhost if no suitable address is found.
func getPreferredIP(provider networkProvider) string {
	ifaces, err := provider.Interfaces()
	if err != nil {
		return "localhost"
	}

	var candidates []net.IP

	for _, iface := range ifaces {
		// Skip down, loopback, and point-to-point interfaces
		flags := iface.Flags()
		if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}

			// Only consider IPv4 addresses
			if ip == nil || ip.To4() == nil {
				continue
			}

			// Skip loopback
			if ip.IsLoopback() {
				continue
			}

			candidates = append(candidates, ip)
		}
	}

	// Prefer private network addresses
	for _, ip := range candidates {
		ipStr := ip.String()
		if strings.HasPrefix(ipStr, "192.168.") ||
			strings.HasPrefix(ipStr, "10.") ||
			isPrivate172(ip) {
			return ipStr
		}
	}

	// Fall back to any non-loopback if no private address found
	if len(candidates) > 0 {
		return candidates[0].String()
	}

	return "localhost"
}

// isPrivate172 checks if IP is in 172.16.0.0/12 range
func isPrivate172(ip net.IP) bool {
	if ip4 := ip.To4(); ip4 != nil {
		return ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31
	}
	return false
}
