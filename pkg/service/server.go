package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	fiberadaptor "github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/woidev/ranch/pkg/a2a"
	"github.com/woidev/ranch/pkg/auth"
	"github.com/woidev/ranch/pkg/errors"
	"github.com/woidev/ranch/pkg/jsonrpc"
	"github.com/woidev/ranch/pkg/sse"
	"github.com/woidev/ranch/pkg/stream"
)

// heartbeatInterval keeps idle SSE connections alive through proxies.
const heartbeatInterval = 25 * time.Second

/*
Server mounts a Handler on HTTP: JSON-RPC on /rpc, SSE streaming on
/stream and the agent card at its well-known path.
*/
type Server struct {
	app     *fiber.App
	card    a2a.AgentCard
	handler Handler
	rpc     *RPCServer
	checker auth.Checker
}

// Option tweaks a Server before its routes are mounted.
type Option func(*Server)

// WithAuth protects /rpc and /stream with the given checker.  The agent
// card and health endpoints stay public so discovery keeps working.
func WithAuth(checker auth.Checker) Option {
	return func(server *Server) {
		server.checker = checker
	}
}

func NewServer(card a2a.AgentCard, handler Handler, opts ...Option) *Server {
	server := &Server{
		app: fiber.New(fiber.Config{
			AppName:           card.Name,
			ServerHeader:      "Ranch-Agent-Server",
			StreamRequestBody: true,
		}),
		card:    card,
		handler: handler,
		rpc:     NewRPCServer(),
	}

	for _, opt := range opts {
		opt(server)
	}

	server.rpc.RegisterHandler(handler)
	server.routes()
	return server
}

func (server *Server) routes() {
	server.app.Use(logger.New(logger.Config{
		// Skip logging for the /stream endpoint to reduce noise
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/stream"
		},
	}), healthcheck.New())

	if server.checker != nil {
		protect := auth.Middleware(server.checker)
		server.app.Use("/rpc", protect)
		server.app.Use("/stream", protect)
	}

	server.app.Get("/", server.handleRoot)
	server.app.Get("/.well-known/agent-card", server.handleAgentCard)
	server.app.Post("/rpc", server.handleRPC)
	server.app.Post("/stream", server.handleStream)
}

// Start blocks serving HTTP on the given address.
func (server *Server) Start(addr string) error {
	return server.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown gracefully stops the server.
func (server *Server) Shutdown() error {
	return server.app.Shutdown()
}

// App exposes the fiber app, mostly so tests can drive it in-process.
func (server *Server) App() *fiber.App {
	return server.app
}

func (server *Server) handleRoot(ctx fiber.Ctx) error {
	return ctx.SendString("OK")
}

func (server *Server) handleAgentCard(ctx fiber.Ctx) error {
	card, rpcErr := server.handler.AgentCard(ctx.Context(), a2a.AgentCardGetParams{})
	if rpcErr != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(rpcErr)
	}
	return ctx.JSON(card)
}

func (server *Server) handleRPC(ctx fiber.Ctx) error {
	payload, ok := server.rpc.Dispatch(ctx.Context(), ctx.Body())
	if !ok {
		return ctx.SendStatus(fiber.StatusNoContent)
	}
	return ctx.JSON(payload)
}

func (server *Server) handleStream(ctx fiber.Ctx) error {
	return fiberadaptor.HTTPHandler(http.HandlerFunc(server.serveStream))(ctx)
}

// serveStream runs over net/http so the response writer can flush each
// event as it is published.
func (server *Server) serveStream(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	var req jsonrpc.Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeStreamError(w, nil, errors.ErrParseError)
		return
	}

	events, rpcErr := server.openStream(r.Context(), &req, r.Header.Get("Last-Event-ID"))
	if rpcErr != nil {
		writeStreamError(w, req.ID, rpcErr)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			_, _ = w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()
		case envelope, open := <-events:
			if !open {
				return
			}

			data, err := json.Marshal(envelope.Result)
			if err != nil {
				log.Error("stream event could not be marshalled", "error", err)
				continue
			}

			event := sse.Event{
				ID:   envelope.ID,
				Type: envelope.Result.EventType(),
				Data: data,
			}
			_, _ = w.Write([]byte(event.Format()))
			flusher.Flush()
		}
	}
}

// openStream routes the streaming request body to the handler method it
// names.
func (server *Server) openStream(ctx context.Context, req *jsonrpc.Request, lastEventID string) (<-chan stream.Envelope, *errors.RpcError) {
	if req.JSONRPC != jsonrpc.Version {
		return nil, errors.ErrInvalidRequest
	}

	switch req.Method {
	case a2a.MethodMessageStream:
		var params a2a.MessageSendParams
		if rpcErr := decodeParams(req.Params, &params); rpcErr != nil {
			return nil, rpcErr
		}
		return server.handler.MessageStream(ctx, params)

	case a2a.MethodTaskResubscribe:
		var params a2a.TaskResubscribeParams
		if rpcErr := decodeParams(req.Params, &params); rpcErr != nil {
			return nil, rpcErr
		}

		// The transport-level header wins over request metadata.
		if lastEventID != "" {
			if params.Metadata == nil {
				params.Metadata = make(map[string]any)
			}
			params.Metadata[a2a.MetadataLastEventID] = lastEventID
		}

		return server.handler.TaskResubscribe(ctx, params)
	}

	return nil, errors.ErrMethodNotFound.WithMessagef("method %q cannot stream", req.Method)
}

func writeStreamError(w http.ResponseWriter, id json.RawMessage, rpcErr *errors.RpcError) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(jsonrpc.NewErrorResponse(id, rpcErr))
}
