// Package server accepts control connections and feeds their requests to
// the command dispatcher. Each connection is served by its own goroutine,
// one request at a time.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/smazurov/canister/internal/command"
	"github.com/smazurov/canister/internal/events"
)

// maxLineSize bounds one text-mode request.
const maxLineSize = 64 * 1024

// writeTimeout bounds writing one response.
const writeTimeout = 10 * time.Second

// Dispatcher runs one decoded request. *command.Registry satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, req command.Request) (string, error)
}

// Publisher receives connection events. *events.Bus satisfies it.
type Publisher interface {
	Publish(ev events.Event)
}

// Response is the JSON-mode reply.
type Response struct {
	OK     bool   `json:"ok"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	Code   string `json:"code,omitempty"`
}

// Options configures a Server.
type Options struct {
	// IdleTimeout closes a connection that sends nothing for this long.
	// Zero disables it.
	IdleTimeout time.Duration
	// Source is recorded on every dispatched request.
	Source string
}

// Server serves the command protocol on a listener.
type Server struct {
	dispatcher Dispatcher
	bus        Publisher
	opts       Options
	logger     *slog.Logger

	mu      sync.Mutex
	conns   map[net.Conn]struct{}
	closing bool
	wg      sync.WaitGroup
}

// New creates a server. bus may be nil.
func New(dispatcher Dispatcher, bus Publisher, opts Options, logger *slog.Logger) *Server {
	if opts.Source == "" {
		opts.Source = "socket"
	}
	return &Server{
		dispatcher: dispatcher,
		bus:        bus,
		opts:       opts,
		logger:     logger,
		conns:      make(map[net.Conn]struct{}),
	}
}

// Serve accepts connections on l until ctx is cancelled. On return the
// listener and every open connection are closed and all connection
// goroutines have finished.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		l.Close()
		s.closeAll()
	})
	defer stop()

	s.logger.Info("Accepting control connections", "address", l.Addr().String())

	var serveErr error
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			s.logger.Error("Accept failed", "error", err)
			serveErr = fmt.Errorf("accept: %w", err)
			break
		}

		if !s.track(conn) {
			conn.Close()
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}

	l.Close()
	s.closeAll()
	s.wg.Wait()
	s.logger.Info("Control server stopped")
	return serveErr
}

// Active returns the number of open connections.
func (s *Server) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return false
	}
	s.conns[conn] = struct{}{}
	active := len(s.conns)
	s.mu.Unlock()

	remote := remoteName(conn)
	s.logger.Info("Client connected", "remote", remote, "active", active)
	s.publish(remote, events.ConnectionOpened, active)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	active := len(s.conns)
	s.mu.Unlock()

	remote := remoteName(conn)
	s.logger.Info("Client disconnected", "remote", remote, "active", active)
	s.publish(remote, events.ConnectionClosed, active)
}

// closeAll closes every open connection and refuses new ones.
func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closing = true
	for conn := range s.conns {
		conn.Close()
	}
}

func (s *Server) publish(remote, action string, active int) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.ConnectionEvent{
		Remote:    remote,
		Action:    action,
		Active:    active,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func remoteName(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil && addr.String() != "" {
		return addr.String()
	}
	return conn.LocalAddr().Network()
}

// handle serves one connection. The first non-blank byte picks the mode:
// '{' starts a JSON stream, anything else newline-delimited text.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer func() {
		conn.Close()
		s.untrack(conn)
	}()

	r := bufio.NewReader(conn)
	s.extendDeadline(conn)
	first, err := peekNonSpace(r)
	if err != nil {
		s.readFailed(conn, err)
		return
	}

	if first == '{' {
		err = s.serveJSON(ctx, conn, r)
	} else {
		err = s.serveText(ctx, conn, r)
	}
	if err != nil {
		s.readFailed(conn, err)
	}
}

func (s *Server) readFailed(conn net.Conn, err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		s.logger.Info("Closing idle connection", "remote", remoteName(conn))
		return
	}
	s.logger.Warn("Connection error", "remote", remoteName(conn), "error", err)
}

func peekNonSpace(r *bufio.Reader) (byte, error) {
	for {
		b, err := r.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			if _, err := r.ReadByte(); err != nil {
				return 0, err
			}
		default:
			return b[0], nil
		}
	}
}

func (s *Server) extendDeadline(conn net.Conn) {
	if s.opts.IdleTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.opts.IdleTimeout))
	}
}

func (s *Server) serveJSON(ctx context.Context, conn net.Conn, r io.Reader) error {
	dec := json.NewDecoder(r)
	enc := json.NewEncoder(conn)

	for {
		s.extendDeadline(conn)
		var req command.Request
		if err := dec.Decode(&req); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				// The stream cannot be resynchronised after bad JSON.
				s.writeJSON(conn, enc, failure(command.Malformed(err)))
				return nil
			}
			return err
		}

		var resp Response
		if req.Command == "" {
			resp = failure(command.Malformed(errors.New("missing required field: command")))
		} else {
			req.Source = s.opts.Source
			result, err := s.dispatcher.Dispatch(ctx, req)
			if err != nil {
				resp = failure(err)
			} else {
				resp = Response{OK: true, Result: result}
			}
		}
		if err := s.writeJSON(conn, enc, resp); err != nil {
			return err
		}
	}
}

func failure(err error) Response {
	code := command.Code(err)
	return Response{OK: false, Error: message(code, err), Code: code}
}

// message strips the leading code from a domain error's text.
func message(code string, err error) string {
	return strings.TrimPrefix(err.Error(), code+": ")
}

func (s *Server) writeJSON(conn net.Conn, enc *json.Encoder, resp Response) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return enc.Encode(resp)
}

func (s *Server) serveText(ctx context.Context, conn net.Conn, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	for {
		s.extendDeadline(conn)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return io.EOF
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var reply string
		req, err := command.ParseText(line)
		if err == nil {
			req.Source = s.opts.Source
			reply, err = s.dispatcher.Dispatch(ctx, req)
		} else {
			err = command.Malformed(err)
		}
		if err != nil {
			code := command.Code(err)
			reply = fmt.Sprintf("ERROR %s: %s", code, message(code, err))
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if _, err := io.WriteString(conn, reply+"\n"); err != nil {
			return err
		}
	}
}
