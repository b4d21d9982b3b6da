package protocol

import (
	"fmt"
	"net"
	"time"

	kcp "github.com/xtaci/kcp-go/v5"
)

const dialTimeout = 5 * time.Second

// Listener 服务端监听器，tcp 与 kcp 共用
type Listener interface {
	Accept() (net.Conn, error)
	Close() error
	Addr() net.Addr
}

// Listen 按协议名监听
func Listen(proto, addr string) (Listener, error) {
	switch proto {
	case "tcp":
		l, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, err
		}
		return &tcpListener{Listener: l}, nil
	case "kcp":
		l, err := kcp.ListenWithOptions(addr, nil, 0, 0)
		if err != nil {
			return nil, err
		}
		return &kcpListener{l: l}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProto, proto)
}

// Dial 按协议名连接服务器
func Dial(proto, addr string) (net.Conn, error) {
	switch proto {
	case "tcp":
		conn, err := net.DialTimeout("tcp", addr, dialTimeout)
		if err != nil {
			return nil, err
		}
		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.SetNoDelay(true)
		}
		return conn, nil
	case "kcp":
		sess, err := kcp.DialWithOptions(addr, nil, 0, 0)
		if err != nil {
			return nil, err
		}
		sess.SetNoDelay(1, 10, 2, 1)
		return sess, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProto, proto)
}

type tcpListener struct {
	net.Listener
}

func (l *tcpListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	// 禁用 Nagle
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return conn, nil
}

type kcpListener struct {
	l *kcp.Listener
}

func (l *kcpListener) Accept() (net.Conn, error) {
	sess, err := l.l.AcceptKCP()
	if err != nil {
		return nil, err
	}
	sess.SetNoDelay(1, 10, 2, 1)
	return sess, nil
}

func (l *kcpListener) Close() error   { return l.l.Close() }
func (l *kcpListener) Addr() net.Addr { return l.l.Addr() }
