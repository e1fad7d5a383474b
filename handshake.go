package redis

import (
	"context"
	"net"
	"strconv"
)

// handshakeSink is the minimal nodeSink the handshaker drives the parser
// with: it only needs to notice whether the top-level reply was a server
// error, not decode the HELLO map or SELECT's OK in full.
type handshakeSink struct {
	err error
	got bool
}

func (s *handshakeSink) OnNode(n Node) error {
	if !s.got {
		s.got = true
		if se, ok := isServerErrorNode(n); ok {
			s.err = se
		}
	}
	return nil
}

// performHandshake runs HELLO 3 [AUTH ...] [SETNAME ...], an optional
// SELECT, then the user's Setup pipeline if any, strictly request-then-
// response with no pipelining (C6). It owns a private buffer and parser
// rather than touching the multiplexer's, since the run supervisor's
// reader/writer goroutines have not started yet.
func performHandshake(ctx context.Context, stream net.Conn, cfg Config, logger Logger) error {
	buf := newReadBuffer(cfg.maxReadSize())
	parser := NewParser()

	if err := helloExchange(ctx, stream, buf, parser, cfg); err != nil {
		return err
	}
	logger.Debugf("redis: hello complete, protocol 3")

	if cfg.DatabaseIndex != nil && *cfg.DatabaseIndex != 0 {
		req := NewRequestWithConfig(RequestConfig{HelloWithPriority: true})
		req.Push("SELECT", strconv.Itoa(*cfg.DatabaseIndex))
		if err := runReplies(ctx, stream, buf, parser, req); err != nil {
			return err
		}
		logger.Debugf("redis: selected database %d", *cfg.DatabaseIndex)
	}

	if cfg.Setup != nil {
		if err := runReplies(ctx, stream, buf, parser, cfg.Setup); err != nil {
			return err
		}
		logger.Debugf("redis: setup pipeline complete")
	}
	return nil
}

func helloExchange(ctx context.Context, stream net.Conn, buf *readBuffer, parser *Parser, cfg Config) error {
	req := NewRequestWithConfig(RequestConfig{HelloWithPriority: true})
	args := []any{"3"}
	if cfg.Username != "" || cfg.Password != "" {
		args = append(args, "AUTH", cfg.Username, cfg.Password)
	}
	if cfg.ClientName != "" {
		args = append(args, "SETNAME", cfg.ClientName)
	}
	req.Push("HELLO", args...)

	if err := writeAll(ctx, stream, req.Payload()); err != nil {
		return err
	}
	sink := &handshakeSink{}
	if err := readOneReply(ctx, stream, buf, parser, sink); err != nil {
		return err
	}
	if sink.err != nil {
		return serverErr(KindResp3Hello, sink.err.(*Error).Text)
	}
	return nil
}

// runReplies writes req and drains exactly its ExpectedReplies() top-level
// replies, failing on the first server error encountered.
func runReplies(ctx context.Context, stream net.Conn, buf *readBuffer, parser *Parser, req *Request) error {
	if err := writeAll(ctx, stream, req.Payload()); err != nil {
		return err
	}
	for i := 0; i < req.ExpectedReplies(); i++ {
		sink := &handshakeSink{}
		if err := readOneReply(ctx, stream, buf, parser, sink); err != nil {
			return err
		}
		if sink.err != nil {
			return serverErr(KindResp3Hello, sink.err.(*Error).Text)
		}
	}
	return nil
}

func writeAll(ctx context.Context, stream net.Conn, payload []byte) error {
	if dl, ok := ctx.Deadline(); ok {
		_ = stream.SetWriteDeadline(dl)
	}
	if _, err := stream.Write(payload); err != nil {
		return wrapErr(KindStreamWrite, err)
	}
	return nil
}

// readOneReply reads from stream until the parser reports one complete
// top-level message, feeding sink.
func readOneReply(ctx context.Context, stream net.Conn, buf *readBuffer, parser *Parser, sink *handshakeSink) error {
	for {
		data := buf.committed()
		if len(data) > 0 {
			consumed, done, err := parser.Advance(data, sink)
			buf.consume(consumed)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}

		if dl, ok := ctx.Deadline(); ok {
			_ = stream.SetReadDeadline(dl)
		}
		space, err := buf.prepareAppend(parser.SuggestedBufferGrowth(0))
		if err != nil {
			return err
		}
		n, rerr := stream.Read(space)
		if n > 0 {
			buf.commitAppend(n)
		}
		if rerr != nil {
			if n == 0 {
				return wrapErr(KindStreamRead, rerr)
			}
		}
	}
}
