package main

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"go.uber.org/zap"
)

// maxMessageSize bounds a single frame so a bad length prefix cannot make us
// allocate unbounded memory.
const maxMessageSize = 16 << 20

// UpdateCallback is called when the core state changes via socket command
type UpdateCallback func()

// SocketClient connects to a running socket server
type SocketClient struct {
	conn net.Conn
	mu   sync.Mutex
}

// NewSocketClient connects to a running socket server
func NewSocketClient(socketPath string) (*SocketClient, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to socket server at %s: %w", socketPath, err)
	}

	return &SocketClient{conn: conn}, nil
}

// Close closes the connection to the socket server
func (sc *SocketClient) Close() error {
	if sc.conn != nil {
		return sc.conn.Close()
	}
	return nil
}

// Execute sends a raw JSON command and returns the raw JSON response
func (sc *SocketClient) Execute(cmdJSON string) ([]byte, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if err := writeMessage(sc.conn, []byte(cmdJSON)); err != nil {
		return nil, err
	}
	return readMessage(sc.conn)
}

// Call sends action with params and decodes the result into result, when
// result is non-nil. A failed command is returned as an error.
func (sc *SocketClient) Call(action string, params map[string]interface{}, result interface{}) error {
	if params == nil {
		params = map[string]interface{}{}
	}
	cmdJSON, err := json.Marshal(Command{Action: action, Params: params})
	if err != nil {
		return fmt.Errorf("encode %s: %w", action, err)
	}

	data, err := sc.Execute(string(cmdJSON))
	if err != nil {
		return fmt.Errorf("socket error: %w", err)
	}

	var resp struct {
		Success bool            `json:"success"`
		Result  json.RawMessage `json:"result"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if !resp.Success {
		if resp.Error == "" {
			return fmt.Errorf("%s failed with unknown error", action)
		}
		return fmt.Errorf("%s error: %s", action, resp.Error)
	}
	if result != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", action, err)
		}
	}
	return nil
}

// SocketServer manages the Unix domain socket interface for TagTreeCore
type SocketServer struct {
	socketPath string
	core       *TagTreeCore
	logger     *zap.Logger
	listener   net.Listener
	mu         sync.Mutex
	conns      map[net.Conn]struct{}
	wg         sync.WaitGroup
	done       chan struct{}
	stopped    chan struct{} // Closed when server has fully shut down
	stopOnce   sync.Once
	callbacks  []UpdateCallback
}

// NewSocketServer creates a new socket server instance
func NewSocketServer(socketPath string, core *TagTreeCore, logger *zap.Logger) *SocketServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SocketServer{
		socketPath: socketPath,
		core:       core,
		logger:     logger,
		conns:      make(map[net.Conn]struct{}),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// SetUpdateCallback adds a callback to be called after each socket command
func (ss *SocketServer) SetUpdateCallback(callback UpdateCallback) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.callbacks = append(ss.callbacks, callback)
}

// Start begins listening on the Unix domain socket
func (ss *SocketServer) Start() error {
	// Remove a stale socket file left by a previous run
	if err := os.Remove(ss.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", ss.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket %s: %w", ss.socketPath, err)
	}
	ss.listener = listener
	ss.logger.Info("socket server listening", zap.String("socket", ss.socketPath))

	ss.wg.Add(1)
	go ss.acceptConnections()

	return nil
}

// acceptConnections accepts incoming connections (multiple clients supported)
func (ss *SocketServer) acceptConnections() {
	defer ss.wg.Done()

	for {
		conn, err := ss.listener.Accept()
		if err != nil {
			select {
			case <-ss.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			ss.logger.Warn("error accepting connection", zap.Error(err))
			continue
		}

		ss.mu.Lock()
		select {
		case <-ss.done:
			ss.mu.Unlock()
			conn.Close()
			return
		default:
		}
		ss.conns[conn] = struct{}{}
		ss.wg.Add(1)
		ss.mu.Unlock()

		go ss.handleClient(conn)
	}
}

// handleClient handles communication with a connected client
func (ss *SocketServer) handleClient(conn net.Conn) {
	defer ss.wg.Done()
	defer func() {
		ss.mu.Lock()
		delete(ss.conns, conn)
		ss.mu.Unlock()
		conn.Close()
	}()

	for {
		data, err := readMessage(conn)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			ss.logger.Warn("error reading from client", zap.Error(err))
			return
		}

		response := ss.core.ExecuteCommand(string(data))

		if err := writeMessage(conn, []byte(response)); err != nil {
			ss.logger.Warn("error writing to client", zap.Error(err))
			return
		}

		ss.mu.Lock()
		callbacks := append([]UpdateCallback{}, ss.callbacks...)
		ss.mu.Unlock()
		for _, callback := range callbacks {
			callback()
		}
	}
}

// Stop shuts the server down: the listener and every client connection are
// closed and the socket file is removed. Stop is safe to call more than once.
func (ss *SocketServer) Stop() error {
	ss.stopOnce.Do(func() {
		close(ss.done)

		if ss.listener != nil {
			ss.listener.Close()
		}

		ss.mu.Lock()
		for conn := range ss.conns {
			conn.Close()
		}
		ss.mu.Unlock()

		ss.wg.Wait()
		os.Remove(ss.socketPath)
		ss.logger.Info("socket server stopped", zap.String("socket", ss.socketPath))

		close(ss.stopped)
	})
	return nil
}

// Wait blocks until the server is fully shut down
func (ss *SocketServer) Wait() {
	<-ss.stopped
}

// ============================================================================
// Length-Prefixed Protocol Implementation
// ============================================================================

// writeMessage writes a single message: 4-byte big-endian length + data
func writeMessage(w io.Writer, data []byte) error {
	lengthBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lengthBuf, uint32(len(data)))

	if _, err := w.Write(lengthBuf); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return nil
}

// readMessage reads a single length-prefixed message
func readMessage(r io.Reader) ([]byte, error) {
	lengthBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, lengthBuf); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(lengthBuf)
	if length > maxMessageSize {
		return nil, fmt.Errorf("message of %d bytes exceeds limit", length)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
