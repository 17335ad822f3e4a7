// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the built-in whiteboard test page.
package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// Server is the HTTP edge of the relay. It owns the configuration, the origin
// policy, and the upgrader, and hands accepted connections to the hub. It is
// constructed once at startup; nothing in it is ambient package state.
type Server struct {
	hub      *Hub
	cfg      Config
	origins  *originPolicy
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewServer wires the HTTP surface to the given hub.
func NewServer(cfg Config, hub *Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.sanitized()

	s := &Server{
		hub:     hub,
		cfg:     cfg,
		origins: newOriginPolicy(cfg.AllowedOrigins, logger),
		logger:  logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.checkOrigin,
	}
	return s
}

// HandleWebSocket upgrades the HTTP connection and registers the resulting
// client with the hub, which starts its read/write pumps.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "addr", r.RemoteAddr, "error", err)
		return
	}

	client := NewClient(conn, s.hub, s.cfg, r.RemoteAddr)
	s.hub.Register(client)
}

// HandleHealth provides a simple liveness check. It is stateless and does not
// touch room state.
func (s *Server) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "DrawHub relay is running!")
}

// HandleTestPage serves an HTML page with a canvas and chat box for exercising
// the relay from a browser.
func (s *Server) HandleTestPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, testPageHTML); err != nil {
		s.logger.Warn("error writing test page response", "error", err)
	}
}

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>DrawHub Test Board</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #board { border: 1px solid #ccc; cursor: crosshair; background: #fff; }
        #chat { border: 1px solid #ccc; height: 120px; overflow-y: scroll; margin: 10px 0; padding: 5px; }
        input[type="text"] { padding: 5px; margin-right: 5px; }
        button { padding: 5px 15px; background-color: #007cba; color: white; border: none; cursor: pointer; }
        .status { margin: 10px 0; padding: 5px; }
        .connected { background-color: #d4edda; }
        .disconnected { background-color: #f8d7da; }
    </style>
</head>
<body>
    <h1>DrawHub Test Board</h1>
    <div id="status" class="status disconnected">Disconnected</div>
    <div>
        <input type="text" id="room" placeholder="Room ID" value="demo">
        <input type="text" id="username" placeholder="Username">
        <button onclick="createRoom()">Create</button>
        <button onclick="joinRoom()">Join</button>
        <button onclick="clearBoard()">Clear</button>
        <span id="users"></span>
    </div>
    <canvas id="board" width="640" height="400"></canvas>
    <div id="chat"></div>
    <div>
        <input type="text" id="chatInput" placeholder="Say something...">
        <button onclick="sendChat()">Send</button>
    </div>

    <script>
        const canvas = document.getElementById('board');
        const ctx = canvas.getContext('2d');
        let ws = null, drawing = false, last = null;

        function connect(cb) {
            if (ws && ws.readyState === WebSocket.OPEN) { cb(); return; }
            ws = new WebSocket('ws://' + location.host + '/ws');
            ws.onopen = () => { setStatus(true); cb(); };
            ws.onclose = () => setStatus(false);
            ws.onmessage = (e) => handle(JSON.parse(e.data));
        }

        function setStatus(up) {
            const el = document.getElementById('status');
            el.textContent = up ? 'Connected' : 'Disconnected';
            el.className = 'status ' + (up ? 'connected' : 'disconnected');
        }

        function send(msg) { ws.send(JSON.stringify(msg)); }

        function createRoom() { connect(() => send({type: 'create_room', roomId: roomId(), username: username()})); }
        function joinRoom() { connect(() => send({type: 'join_room', roomId: roomId(), username: username()})); }
        function clearBoard() { ctx.clearRect(0, 0, canvas.width, canvas.height); send({type: 'clear'}); }
        function sendChat() {
            const input = document.getElementById('chatInput');
            if (input.value) { send({type: 'chat', message: input.value}); addChat(username(), input.value); input.value = ''; }
        }

        function roomId() { return document.getElementById('room').value; }
        function username() { return document.getElementById('username').value; }

        function handle(msg) {
            switch (msg.type) {
            case 'user_joined':
                document.getElementById('users').textContent = msg.users.join(', ') + ' (' + msg.userCount + ')';
                ctx.clearRect(0, 0, canvas.width, canvas.height);
                (msg.drawings || []).forEach(drawSegment);
                break;
            case 'user_left':
                document.getElementById('users').textContent = msg.users.join(', ') + ' (' + msg.userCount + ')';
                break;
            case 'chat': addChat(msg.username, msg.message); break;
            case 'start': case 'draw': drawSegment(msg); break;
            case 'clear': ctx.clearRect(0, 0, canvas.width, canvas.height); break;
            case 'error': case 'room_exists': case 'room_not_found': addChat('server', msg.message); break;
            }
        }

        function drawSegment(d) {
            if (d.x1 === undefined) return;
            ctx.beginPath();
            ctx.moveTo(d.x1, d.y1);
            ctx.lineTo(d.x2, d.y2);
            ctx.stroke();
        }

        function addChat(who, text) {
            const div = document.createElement('div');
            div.textContent = who + ': ' + text;
            const chat = document.getElementById('chat');
            chat.appendChild(div);
            chat.scrollTop = chat.scrollHeight;
        }

        canvas.onmousedown = (e) => { drawing = true; last = {x: e.offsetX, y: e.offsetY}; };
        canvas.onmouseup = () => { drawing = false; };
        canvas.onmousemove = (e) => {
            if (!drawing || !ws || ws.readyState !== WebSocket.OPEN) return;
            const seg = {type: 'draw', x1: last.x, y1: last.y, x2: e.offsetX, y2: e.offsetY};
            drawSegment(seg);
            send(seg);
            last = {x: e.offsetX, y: e.offsetY};
        };

        document.getElementById('chatInput').addEventListener('keypress', (e) => {
            if (e.key === 'Enter') sendChat();
        });
    </script>
</body>
</html>`
