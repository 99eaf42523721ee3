// Package mailtest provides an in-process SMTP server for tests, in the
// spirit of net/http/httptest.
package mailtest

import (
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"
)

// Message is one accepted delivery.
type Message struct {
	From string
	To   []string
	Data string // headers and body, dot-unstuffed, LF line endings
}

// Server accepts SMTP on a loopback port and records every message.
type Server struct {
	ln net.Listener
	wg sync.WaitGroup

	mu         sync.Mutex
	messages   []Message
	rejectRcpt bool
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("mailtest: listen: %v", err)
	}
	s := &Server{ln: ln}
	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.Close)
	return s
}

// Host returns the listening host.
func (s *Server) Host() string {
	return s.ln.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the listening port.
func (s *Server) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// RejectRecipients makes every RCPT TO fail with 550.
func (s *Server) RejectRecipients(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectRcpt = reject
}

// Messages returns a copy of the messages accepted so far.
func (s *Server) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Close stops accepting connections and waits for open sessions to end.
func (s *Server) Close() {
	s.ln.Close()
	s.wg.Wait()
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.session(conn)
		}()
	}
}

func (s *Server) session(conn net.Conn) {
	_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	tp := textproto.NewConn(conn)
	defer tp.Close()

	var current Message
	_ = tp.PrintfLine("220 mailtest ESMTP")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		verb := strings.ToUpper(line)
		if i := strings.IndexByte(verb, ' '); i >= 0 {
			verb = verb[:i]
		}

		switch verb {
		case "EHLO", "HELO":
			_ = tp.PrintfLine("250 mailtest")
		case "MAIL":
			current = Message{From: addressArg(line)}
			_ = tp.PrintfLine("250 OK")
		case "RCPT":
			s.mu.Lock()
			reject := s.rejectRcpt
			s.mu.Unlock()
			if reject {
				_ = tp.PrintfLine("550 mailbox unavailable")
				continue
			}
			current.To = append(current.To, addressArg(line))
			_ = tp.PrintfLine("250 OK")
		case "DATA":
			_ = tp.PrintfLine("354 end data with <CR><LF>.<CR><LF>")
			data, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			current.Data = string(data)
			s.mu.Lock()
			s.messages = append(s.messages, current)
			s.mu.Unlock()
			current = Message{}
			_ = tp.PrintfLine("250 OK queued")
		case "RSET", "NOOP":
			_ = tp.PrintfLine("250 OK")
		case "QUIT":
			_ = tp.PrintfLine("221 bye")
			return
		default:
			_ = tp.PrintfLine("502 command not implemented")
		}
	}
}

// addressArg extracts the mailbox from "MAIL FROM:<a@b> ..." or "RCPT TO:<a@b>".
func addressArg(line string) string {
	start := strings.IndexByte(line, '<')
	end := strings.IndexByte(line, '>')
	if start < 0 || end < start {
		return ""
	}
	return line[start+1 : end]
}
